package support

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/cucumber/godog"
	"github.com/disintegration/imaging"

	"github.com/MeKo-Tech/codescan/internal/testutil"
)

// RegisterImageSteps registers steps that generate image fixtures.
func (testCtx *TestContext) RegisterImageSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a QR code image "([^"]*)" encoding "([^"]*)"$`, testCtx.aQRCodeImageEncoding)
	sc.Step(`^a blank image "([^"]*)"$`, testCtx.aBlankImage)
	sc.Step(`^a directory "([^"]*)"$`, testCtx.aDirectory)
}

func (testCtx *TestContext) aQRCodeImageEncoding(name, payload string) error {
	qr, err := testutil.GenerateQRCode(payload, testutil.DefaultQRSize)
	if err != nil {
		return err
	}
	return testCtx.saveImage(name, qr)
}

func (testCtx *TestContext) aBlankImage(name string) error {
	return testCtx.saveImage(name, imaging.New(160, 120, color.White))
}

func (testCtx *TestContext) aDirectory(name string) error {
	return os.MkdirAll(testCtx.resolvePath(name), 0o755)
}

func (testCtx *TestContext) saveImage(name string, img image.Image) error {
	path := testCtx.resolvePath(name)
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	testCtx.TrackFile(path)
	return nil
}
