package model

import (
	"bytes"
	"io/ioutil"
	"testing"

	"github.com/oneconcern/configsvc/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointer(t *testing.T) {
	p := AnnexPointer{Scheme: "blake2b", Hash: "0123abcd", Size: 42}
	b, err := MarshalPointer(p)
	require.NoError(t, err)

	decoded, err := UnmarshalPointer(b)
	require.NoError(t, err)
	assert.Equal(t, p, decoded)
	assert.Equal(t, "blake2b:0123abcd", decoded.Key())
}

func TestPointerInvalid(t *testing.T) {
	for _, toPin := range []string{
		"just some text",
		"scheme: blake2b\nsize: 3\n",
		"scheme: blake2b\nhash: abcd\nsize: 3\nextra: field\n",
		"hash: abcd\nsize: 3\n",
		"\x00\x01binary",
	} {
		content := toPin
		_, err := UnmarshalPointer([]byte(content))
		require.Error(t, err, content)
		assert.True(t, errors.Is(err, ErrInvalidPointer))
	}
}

func TestConfigData(t *testing.T) {
	d := NewConfigData([]byte("axis.max = 90"))
	assert.Equal(t, int64(13), d.Len())

	txt, err := d.Text()
	require.NoError(t, err)
	assert.Equal(t, "axis.max = 90", txt)

	// content can be consumed many times
	var buf bytes.Buffer
	n, err := d.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(13), n)
	assert.Equal(t, "axis.max = 90", buf.String())

	rdr, err := d.Open()
	require.NoError(t, err)
	b, err := ioutil.ReadAll(rdr)
	require.NoError(t, err)
	require.NoError(t, rdr.Close())
	assert.Equal(t, "axis.max = 90", string(b))
}

func TestFileContent(t *testing.T) {
	normal := NormalFileContent(NewConfigData([]byte("x")))
	assert.Equal(t, NormalContent, normal.Kind)

	oversize := OversizeFileContent(AnnexPointer{Scheme: "blake3", Hash: "ff", Size: 1})
	assert.Equal(t, OversizeContent, oversize.Kind)
	assert.Nil(t, oversize.Data)
}
