package support

import (
	"fmt"
	"strings"

	"github.com/cucumber/godog"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// RegisterPDFSteps registers steps that build PDF fixtures.
func (testCtx *TestContext) RegisterPDFSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a PDF "([^"]*)" with pages "([^"]*)"$`, testCtx.aPDFWithPages)
}

// aPDFWithPages builds a PDF with one page per comma separated image name.
// The images must exist already.
func (testCtx *TestContext) aPDFWithPages(name, pages string) error {
	var images []string
	for _, p := range strings.Split(pages, ",") {
		if p = strings.TrimSpace(p); p != "" {
			images = append(images, testCtx.resolvePath(p))
		}
	}
	if len(images) == 0 {
		return fmt.Errorf("no pages given for %s", name)
	}

	path := testCtx.resolvePath(name)
	if err := api.ImportImagesFile(images, path, nil, nil); err != nil {
		return fmt.Errorf("failed to build %s: %w", path, err)
	}
	testCtx.TrackFile(path)
	return nil
}
