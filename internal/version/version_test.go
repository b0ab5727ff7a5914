package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	prev := Version
	Version = "v1.2.3"
	t.Cleanup(func() { Version = prev })

	ver, _, _ := Info()
	assert.Equal(t, "v1.2.3", ver)
	assert.Contains(t, String(), "codescan version v1.2.3\n")
	assert.Contains(t, String(), "Commit: "+GitCommit)
}
