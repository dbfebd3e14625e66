package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docstore/internal/apperror"
)

func TestCodec_RoundTrip(t *testing.T) {
	c := New()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"text", []byte("hello world")},
		{"binary non utf8", []byte{0xff, 0xfe, 0x00, 0x80, 0xc3, 0x28}},
		{"all byte values", func() []byte {
			b := make([]byte, 256)
			for i := range b {
				b[i] = byte(i)
			}
			return b
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := c.Encode(tt.data)
			decoded, err := c.Decode(encoded)
			require.NoError(t, err)
			assert.Equal(t, tt.data, decoded)
			assert.NoError(t, c.ValidateSize(int64(len(tt.data)), decoded))
		})
	}
}

func TestCodec_DecodeMalformed(t *testing.T) {
	c := New()

	for _, in := range []string{"not base64!", "abc", "====", "YQ=x"} {
		_, err := c.Decode(in)
		assert.ErrorIs(t, err, apperror.ErrMalformedContent, "input %q", in)
	}
}

func TestCodec_DecodeEmptyIsNotNil(t *testing.T) {
	out, err := New().Decode("")
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Len(t, out, 0)
}

func TestCodec_ValidateSize(t *testing.T) {
	c := New()

	err := c.ValidateSize(10, []byte("abc"))
	assert.ErrorIs(t, err, apperror.ErrSizeMismatch)
	assert.Contains(t, err.Error(), "declared 10 bytes, decoded 3")

	assert.ErrorIs(t, c.ValidateSize(-1, []byte{}), apperror.ErrSizeMismatch)
	assert.NoError(t, c.ValidateSize(0, []byte{}))
}

func TestCodec_Checksum(t *testing.T) {
	c := New()

	a := c.Checksum([]byte("report"))
	b := c.Checksum([]byte("report"))
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, c.Checksum([]byte("report!")))
}

func TestCodec_ZeroValue(t *testing.T) {
	var c Codec
	assert.Equal(t, "aGk=", c.Encode([]byte("hi")))
}
