// Package dataurl converts image bytes to and from the base64 forms used on the wire.
package dataurl

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var ErrMalformed = errors.New("malformed data url")

// Encode returns a data URL with the detected media type.
func Encode(data []byte) string {
	return "data:" + MimeType(data) + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Decode accepts a data URL or bare base64.
func Decode(s string) ([]byte, error) {
	payload := s
	if strings.HasPrefix(s, "data:") {
		header, body, ok := strings.Cut(s, ",")
		if !ok || !strings.HasSuffix(header, ";base64") {
			return nil, ErrMalformed
		}
		payload = body
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return data, nil
}

// MimeType sniffs the media type without parameters, e.g. "image/png".
func MimeType(data []byte) string {
	mt := mimetype.Detect(data).String()
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return mt
}

// IsImage reports whether data sniffs as one of the page formats the processor reads.
func IsImage(data []byte) bool {
	m := mimetype.Detect(data)
	return m.Is("image/png") || m.Is("image/jpeg") || m.Is("image/gif")
}
