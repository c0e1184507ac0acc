package service

import (
	"bytes"           // Reader over decoded image bytes
	"encoding/base64" // Base64 decoding
	"fmt"             // Error wrapping
	"image/png"       // PNG header check
	"strings"         // String manipulation
)

const pngDataURLPrefix = "data:image/png;base64,"

// normalizeSignature checks that data is a base64 PNG, bare or as a data URL,
// no larger than maxBytes once decoded. It returns the trimmed input to store.
func normalizeSignature(data string, maxBytes int) (string, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidSignature)
	}
	payload := data
	if strings.HasPrefix(data, "data:") {
		if !strings.HasPrefix(data, pngDataURLPrefix) {
			return "", fmt.Errorf("%w: only image/png data URLs are accepted", ErrInvalidSignature)
		}
		payload = data[len(pngDataURLPrefix):]
	}
	if maxBytes > 0 && base64.StdEncoding.DecodedLen(len(payload)) > maxBytes+2 {
		return "", fmt.Errorf("%w: larger than %d bytes", ErrInvalidSignature, maxBytes)
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if maxBytes > 0 && len(raw) > maxBytes {
		return "", fmt.Errorf("%w: larger than %d bytes", ErrInvalidSignature, maxBytes)
	}
	if _, err := png.DecodeConfig(bytes.NewReader(raw)); err != nil {
		return "", fmt.Errorf("%w: not a PNG image", ErrInvalidSignature)
	}
	return data, nil
}
