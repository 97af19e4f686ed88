package utils

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestValidateImage(t *testing.T) {
	mtype, err := ValidateImage(pngHeader)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mtype.String())

	_, err = ValidateImage([]byte("plain text, not a picture"))
	assert.ErrorIs(t, err, ErrNotAnImage)

	_, err = ValidateImage(bytes.Repeat([]byte{0}, MaxUploadSize+1))
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestObjectPath(t *testing.T) {
	mtype, err := ValidateImage(pngHeader)
	require.NoError(t, err)

	p := ObjectPath("/profile/", 7, "Me.JPG", mtype)
	assert.True(t, strings.HasPrefix(p, "profile/7/"))
	assert.True(t, strings.HasSuffix(p, ".png"), "sniffed extension wins over the filename")

	other := ObjectPath("profile", 7, "Me.JPG", mtype)
	assert.NotEqual(t, p, other)
}
