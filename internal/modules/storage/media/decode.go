package media

import (
	"encoding/base64"
	"strings"

	"github.com/tablecast/signage/internal/pkg/apperr"
)

// decodePayload strips an optional "data:<type>;base64," prefix and decodes
// the remainder. The media type from the prefix is returned when present.
func decodePayload(raw string) ([]byte, string, error) {
	raw = strings.TrimSpace(raw)
	var mediaType string
	if strings.HasPrefix(raw, "data:") {
		comma := strings.IndexByte(raw, ',')
		if comma < 0 {
			return nil, "", apperr.Validation("malformed data URL")
		}
		meta := raw[len("data:"):comma]
		if !strings.HasSuffix(meta, ";base64") {
			return nil, "", apperr.Validation("data URL must be base64 encoded")
		}
		mediaType = strings.TrimSuffix(meta, ";base64")
		raw = raw[comma+1:]
	}

	body, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		// Some clients drop the padding.
		var rawErr error
		body, rawErr = base64.RawStdEncoding.DecodeString(strings.TrimRight(raw, "="))
		if rawErr != nil {
			return nil, "", apperr.Validation("file is not valid base64")
		}
	}
	return body, mediaType, nil
}
