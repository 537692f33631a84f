package model

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Format identifies how a bundle document is encoded.
type Format string

// Supported bundle encodings.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DecodeBundle parses a bundle document, assigns missing section ids and
// validates it.
func DecodeBundle(data []byte, format Format) (*DraftBundle, error) {
	var b DraftBundle

	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&b); err != nil {
			return nil, eris.Wrap(err, "model: decode json bundle")
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &b); err != nil {
			return nil, eris.Wrap(err, "model: decode yaml bundle")
		}
	default:
		return nil, eris.Errorf("model: unsupported bundle format %q", format)
	}

	b.AssignIDs()

	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Validate checks structural requirements of the bundle.
func (b *DraftBundle) Validate() error {
	if strings.TrimSpace(b.ClientName) == "" {
		return eris.New("model: bundle clientName is required")
	}

	seen := make(map[string]bool)
	for _, s := range b.Sections() {
		if seen[s.ID] {
			return eris.Errorf("model: duplicate section id %q", s.ID)
		}
		seen[s.ID] = true
	}

	for _, d := range b.SummaryDetails {
		if d.SectionID != "" && !seen[d.SectionID] {
			return eris.Errorf("model: summary detail %q references unknown section %q", d.Label, d.SectionID)
		}
	}

	for _, c := range b.GrowthCategories {
		if c.Scored > c.Total && c.Total > 0 {
			return eris.Errorf("model: category %q scored %d of %d", c.Name, c.Scored, c.Total)
		}
	}

	if b.Drilldown != nil {
		if err := b.Drilldown.Check(); err != nil {
			return eris.Wrap(err, "model: bundle drilldown")
		}
	}
	return nil
}

// EncodeJSON writes the bundle as indented JSON.
func (b *DraftBundle) EncodeJSON() ([]byte, error) {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "model: encode bundle")
	}
	return data, nil
}
