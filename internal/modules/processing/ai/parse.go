package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/tablecast/signage/internal/pkg/apperr"
)

// stripFences removes a surrounding markdown code fence, with or without a
// language tag.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		if tag := strings.TrimSpace(s[:nl]); !strings.ContainsAny(tag, "{[") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// decodeJSON parses model output into out. When the cleaned text is not
// valid JSON on its own, the outermost span between open and close is tried
// before giving up with a parse error that keeps raw.
func decodeJSON(raw string, open, close byte, out any) error {
	cleaned := stripFences(raw)
	if err := strictUnmarshal(cleaned, out); err == nil {
		return nil
	}
	start := strings.IndexByte(cleaned, open)
	end := strings.LastIndexByte(cleaned, close)
	if start >= 0 && end > start {
		if err := strictUnmarshal(cleaned[start:end+1], out); err == nil {
			return nil
		}
	}
	err := strictUnmarshal(cleaned, out)
	return apperr.Parse("model output is not valid JSON", raw, err)
}

var errTrailingData = errors.New("trailing data after JSON value")

func strictUnmarshal(s string, out any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	if err := dec.Decode(out); err != nil {
		return err
	}
	if dec.More() {
		return errTrailingData
	}
	return nil
}

var reflector = &jsonschema.Reflector{
	DoNotReference:            true,
	AllowAdditionalProperties: false,
}

// schemaOf renders the JSON Schema for v, indented for prompt embedding.
func schemaOf(v any) string {
	data, err := json.MarshalIndent(reflector.Reflect(v), "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
