package util

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSlug(t *testing.T) {
	cases := map[string]string{
		"Intro to Go":         "intro-to-go",
		"  Hello,  World!!  ": "hello-world",
		"C++ & Rust":          "c-rust",
		"!!!":                 "item",
	}
	for in, want := range cases {
		assert.Equal(t, want, GenerateSlug(in), in)
	}
}

func TestValidationErrorIs(t *testing.T) {
	err := fmt.Errorf("wrap: %w", NewValidationError("body", "must not be empty"))
	assert.True(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrNotFound))

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "body", ve.Field)
}

func TestSentinelWrappers(t *testing.T) {
	assert.ErrorIs(t, NotFoundf("course %d", 3), ErrNotFound)
	assert.ErrorIs(t, Forbiddenf("course %d", 3), ErrForbidden)
	assert.ErrorIs(t, Conflictf("order"), ErrConflict)
	assert.NotErrorIs(t, Forbiddenf("x"), ErrNotFound)
}

func TestSniffMimeTypeKeepsContent(t *testing.T) {
	data := []byte("%PDF-1.4 some pdf body")
	mime, r, err := SniffMimeType(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, MimePDF, mime)

	all, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, data, all)
}

func TestNormalizeImageShrinksLargeImages(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2000, 1000))
	for x := 0; x < 2000; x++ {
		src.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	out, err := NormalizeImage(&buf, ImageMaxEdge)
	require.NoError(t, err)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, ImageMaxEdge, cfg.Width)
	assert.Equal(t, 640, cfg.Height)
}

func TestNormalizeImageRejectsGarbage(t *testing.T) {
	_, err := NormalizeImage(bytes.NewReader([]byte("not an image")), ImageMaxEdge)
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestJWTPurposeIsolation(t *testing.T) {
	user := testUser()
	access, err := GenerateJWT(user, "secret", time60m)
	require.NoError(t, err)
	reset, err := GenerateResetToken(user, "secret", time60m)
	require.NoError(t, err)

	claims, err := ParseJWT(access, "secret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Role, claims.Role)

	_, err = ParseJWT(reset, "secret")
	assert.Error(t, err)
	_, err = ParseResetToken(access, "secret")
	assert.Error(t, err)
	_, err = ParseJWT(access, "other")
	assert.Error(t, err)

	claims, err = ParseResetToken(reset, "secret")
	require.NoError(t, err)
	assert.Equal(t, PasswordStamp(user.Password), claims.Stamp)
	assert.NotEqual(t, PasswordStamp("other-hash"), claims.Stamp)
}
