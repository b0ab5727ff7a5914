package decode

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// workspace owns the temporary files of a single Controller.Decode call.
// The directory is created lazily so in-process engines never touch disk.
type workspace struct {
	parent string
	dir    string
}

func newWorkspace(parent string) *workspace { return &workspace{parent: parent} }

func (w *workspace) write(name string, img image.Image) (string, error) {
	if w.dir == "" {
		dir, err := os.MkdirTemp(w.parent, "codescan-*")
		if err != nil {
			return "", fmt.Errorf("create candidate workspace: %w", err)
		}
		// External decoders run in another working directory.
		abs, err := filepath.Abs(dir)
		if err != nil {
			_ = os.RemoveAll(dir)
			return "", fmt.Errorf("resolve candidate workspace: %w", err)
		}
		w.dir = abs
	}
	p := filepath.Join(w.dir, name)
	if err := imaging.Save(img, p); err != nil {
		return "", fmt.Errorf("write candidate %s: %w", name, err)
	}
	return p, nil
}

// Close removes every file written by the workspace.
func (w *workspace) Close() error {
	if w.dir == "" {
		return nil
	}
	err := os.RemoveAll(w.dir)
	w.dir = ""
	return err
}
