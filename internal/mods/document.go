// Package mods parses the MODS descriptive metadata documents served by the
// Digital Collections API and extracts the location and date of an item.
package mods

import (
	"bytes"
	"encoding/json"

	"github.com/lehigh-university-libraries/dc-export/internal/xmljson"
)

// Document is the subset of a MODS record used for enrichment.
type Document struct {
	Subject    xmljson.OneOrMany[Subject]    `json:"subject"`
	OriginInfo xmljson.OneOrMany[OriginInfo] `json:"originInfo"`
}

// Subject is a MODS <subject> entry. Only the geographic term is kept.
type Subject struct {
	Geographic xmljson.Text `json:"geographic"`
}

func (s *Subject) UnmarshalJSON(data []byte) error {
	*s = Subject{}
	if !xmljson.IsObject(data) {
		return nil
	}
	type plain Subject
	return json.Unmarshal(data, (*plain)(s))
}

// OriginInfo is a MODS <originInfo> entry.
type OriginInfo struct {
	DateCreated DateNode `json:"dateCreated"`
	DateIssued  DateNode `json:"dateIssued"`
	DateOther   DateNode `json:"dateOther"`
}

func (o *OriginInfo) UnmarshalJSON(data []byte) error {
	*o = OriginInfo{}
	if !xmljson.IsObject(data) {
		return nil
	}
	type plain OriginInfo
	return json.Unmarshal(data, (*plain)(o))
}

// Date returns the first date element present in priority order
// dateCreated, dateIssued, dateOther.
func (o OriginInfo) Date() (DateNode, bool) {
	for _, d := range []DateNode{o.DateCreated, o.DateIssued, o.DateOther} {
		if d.Present {
			return d, true
		}
	}
	return DateNode{}, false
}

// DateNode is a MODS date element. Present is set for any non-empty element,
// including repeated elements, which never carry a single key date.
type DateNode struct {
	Present bool
	KeyDate bool
	Value   string
}

func (d *DateNode) UnmarshalJSON(data []byte) error {
	*d = DateNode{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`""`)) {
		return nil
	}
	d.Present = true

	if !xmljson.IsObject(data) {
		return nil
	}

	var node struct {
		KeyDate xmljson.Text `json:"keyDate"`
		Value   xmljson.Text `json:"$"`
	}
	if err := json.Unmarshal(data, &node); err != nil {
		return err
	}
	d.KeyDate = node.KeyDate.String() != ""
	d.Value = node.Value.String()
	return nil
}

// Parse decodes a MODS document. A JSON null yields an empty document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
