// Package xmljson decodes the JSON produced by the Digital Collections API,
// which is a mechanical translation of XML: repeated elements collapse to a
// single object when only one is present, and element text lives under a
// "$" member next to the element's attributes.
package xmljson

import (
	"bytes"
	"encoding/json"
)

// OneOrMany decodes either a JSON array of T or a single T into a slice.
type OneOrMany[T any] []T

func (o *OneOrMany[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*o = nil
		return nil
	case data[0] == '[':
		var many []T
		if err := json.Unmarshal(data, &many); err != nil {
			return err
		}
		*o = many
		return nil
	default:
		var one T
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*o = OneOrMany[T]{one}
		return nil
	}
}

// Text is the character data of an element. It decodes from a bare string or
// number, or from an object carrying a "$" member. Arrays and objects without
// text decode to the empty string.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	*t = ""
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	case '{':
		var node struct {
			Value Text `json:"$"`
		}
		if err := json.Unmarshal(data, &node); err != nil {
			return err
		}
		*t = node.Value
	case '[', 'n':
		// lists and null carry no single text value
	default:
		// numbers and booleans keep their literal form
		*t = Text(data)
	}
	return nil
}

func (t Text) String() string {
	return string(t)
}

// IsObject reports whether data is a JSON object.
func IsObject(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '{'
}
