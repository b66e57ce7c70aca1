package verification

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math/rand"

	"emperror.dev/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var codeRunes = []rune("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

// GenerateCode draws length uniform random characters from the uppercase
// alphanumeric alphabet. The global rand source is internally locked so this
// is safe to call concurrently.
func GenerateCode(length int) string {
	b := make([]rune, length)
	for i := range b {
		b[i] = codeRunes[rand.Intn(len(codeRunes))]
	}
	return string(b)
}

const (
	captchaWidth  = 260
	captchaHeight = 90

	// scattered pixels drawn over the text to frustrate naive OCR
	captchaNoisePixels = 400
)

// CaptchaRenderer renders challenge codes into PNG images. The font face is
// parsed once at construction, a parse failure means the process can't do
// its job and should abort startup.
type CaptchaRenderer struct {
	face font.Face
}

func NewCaptchaRenderer() (*CaptchaRenderer, error) {
	parsed, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, errors.WrapIf(err, "parse font")
	}

	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    38,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, errors.WrapIf(err, "create face")
	}

	return &CaptchaRenderer{face: face}, nil
}

// Render draws the code onto a fixed size canvas with a little positional
// jitter per glyph and random noise pixels, and returns the encoded PNG.
func (c *CaptchaRenderer) Render(code string) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, captchaWidth, captchaHeight))

	fillImage(img, color.RGBA{R: 245, G: 245, B: 245, A: 255})

	fg := &image.Uniform{C: color.RGBA{R: 40, G: 40, B: 60, A: 255}}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  fg,
		Face: c.face,
	}

	x := 24
	for _, r := range code {
		jitterX := rand.Intn(9) - 4
		jitterY := rand.Intn(13) - 6

		drawer.Dot = fixed.P(x+jitterX, 58+jitterY)
		drawer.DrawString(string(r))

		x += 36
	}

	for i := 0; i < captchaNoisePixels; i++ {
		px := rand.Intn(captchaWidth)
		py := rand.Intn(captchaHeight)
		img.Set(px, py, color.RGBA{
			R: uint8(rand.Intn(256)),
			G: uint8(rand.Intn(256)),
			B: uint8(rand.Intn(256)),
			A: 255,
		})
	}

	var buf bytes.Buffer
	err := png.Encode(&buf, img)
	if err != nil {
		return nil, errors.WrapIf(err, "encode png")
	}

	return buf.Bytes(), nil
}

func fillImage(img *image.RGBA, c color.RGBA) {
	for y := 0; y < img.Rect.Dy(); y++ {
		for x := 0; x < img.Rect.Dx(); x++ {
			img.SetRGBA(x, y, c)
		}
	}
}
