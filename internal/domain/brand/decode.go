package brand

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// DecodePromptSet parses a caller-supplied Prompt Set and checks its
// structure. A categories value that is not a JSON array is a ValidationError.
func DecodePromptSet(raw []byte) (PromptSet, error) {
	const op = "brand.DecodePromptSet"
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return PromptSet{}, Validation(op, "prompt data is required")
	}
	var wire struct {
		Categories json.RawMessage `json:"categories"`
	}
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return PromptSet{}, Validation(op, "prompt data must be a JSON object")
	}
	cats := bytes.TrimSpace(wire.Categories)
	if len(cats) == 0 || cats[0] != '[' {
		return PromptSet{}, Validation(op, "invalid prompt data structure: expected categories array")
	}
	var ps PromptSet
	if err := json.Unmarshal(cats, &ps.Categories); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return PromptSet{}, Validation(op, fmt.Sprintf("category field %q has the wrong type", typeErr.Field))
		}
		return PromptSet{}, Validation(op, "categories have the wrong type: expected a list of {name, questions} objects")
	}
	if err := ValidateShape(ps); err != nil {
		return PromptSet{}, err
	}
	return ps, nil
}
