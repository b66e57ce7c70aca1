package verification

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 50; i++ {
		code := GenerateCode(6)
		require.Len(t, code, 6)

		for _, r := range code {
			assert.True(t, strings.ContainsRune(string(codeRunes), r), "unexpected rune %q in code %q", r, code)
		}

		seen[code] = true
	}

	// 50 draws from a 36^6 space colliding down to a handful would mean the
	// generator is broken
	assert.Greater(t, len(seen), 40)
}

func TestRenderProducesPNG(t *testing.T) {
	renderer, err := NewCaptchaRenderer()
	require.NoError(t, err)

	data, err := renderer.Render("AB12CD")
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	bounds := img.Bounds()
	assert.Equal(t, captchaWidth, bounds.Dx())
	assert.Equal(t, captchaHeight, bounds.Dy())
}

func TestRenderDiffersPerCall(t *testing.T) {
	renderer, err := NewCaptchaRenderer()
	require.NoError(t, err)

	a, err := renderer.Render("AB12CD")
	require.NoError(t, err)
	b, err := renderer.Render("AB12CD")
	require.NoError(t, err)

	// jitter and noise make every rendering unique
	assert.NotEqual(t, a, b)
}
