package codec

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"

	"docstore/internal/apperror"
)

// Codec translates between the transport encoding used in request and
// response payloads (standard base64) and raw bytes. It holds no state and is
// safe for concurrent use.
type Codec struct {
	enc *base64.Encoding
}

// New returns a Codec using standard padded base64.
func New() Codec {
	return Codec{enc: base64.StdEncoding}
}

// Decode converts a transport string into raw bytes. The empty string decodes
// to an empty, non-nil slice.
func (c Codec) Decode(transport string) ([]byte, error) {
	out, err := c.encoding().DecodeString(transport)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindMalformedContent, "codec.decode", err)
	}
	if out == nil {
		out = []byte{}
	}
	return out, nil
}

// Encode converts raw bytes into their transport representation. It never fails.
func (c Codec) Encode(b []byte) string {
	return c.encoding().EncodeToString(b)
}

// ValidateSize checks a caller-declared size against the decoded content.
// Mismatches are rejected, never corrected.
func (c Codec) ValidateSize(declared int64, decoded []byte) error {
	if declared != int64(len(decoded)) {
		return apperror.New(apperror.KindSizeMismatch, "codec.validate_size",
			fmt.Sprintf("declared %d bytes, decoded %d", declared, len(decoded)))
	}
	return nil
}

// Checksum returns the hex BLAKE3-256 digest of b.
func (c Codec) Checksum(b []byte) string {
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func (c Codec) encoding() *base64.Encoding {
	if c.enc == nil {
		return base64.StdEncoding
	}
	return c.enc
}
