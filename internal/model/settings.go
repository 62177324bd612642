package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Prompt slot names.
const (
	PromptWeek4  = "week4"
	PromptWeek8  = "week8"
	PromptWeek12 = "week12"
)

const (
	defaultWeek4  = "Simulate mild improvement with reduced redness and slightly improved vein visibility after 4 weeks of conservative treatment."
	defaultWeek8  = "Simulate moderate improvement in vein prominence and skin appearance after 8 weeks of treatment."
	defaultWeek12 = "Simulate significant improvement with visibly reduced varicose veins and healthier skin tone after 12 weeks of treatment."
)

// Prompts holds the three named edit prompt templates.
type Prompts struct {
	Week4  string `json:"week4" yaml:"week4"`
	Week8  string `json:"week8" yaml:"week8"`
	Week12 string `json:"week12" yaml:"week12"`
}

// Lookup returns the template stored in the named slot.
func (p Prompts) Lookup(slot string) (string, bool) {
	switch slot {
	case PromptWeek4:
		return p.Week4, true
	case PromptWeek8:
		return p.Week8, true
	case PromptWeek12:
		return p.Week12, true
	}
	return "", false
}

// PromptsPatch is a partial prompt override; nil fields keep the current value.
type PromptsPatch struct {
	Week4  *string `json:"week4,omitempty" yaml:"week4,omitempty"`
	Week8  *string `json:"week8,omitempty" yaml:"week8,omitempty"`
	Week12 *string `json:"week12,omitempty" yaml:"week12,omitempty"`
}

// Apply returns p with the non-nil fields of patch applied.
func (p Prompts) Apply(patch PromptsPatch) Prompts {
	if patch.Week4 != nil {
		p.Week4 = *patch.Week4
	}
	if patch.Week8 != nil {
		p.Week8 = *patch.Week8
	}
	if patch.Week12 != nil {
		p.Week12 = *patch.Week12
	}
	return p
}

// Settings is the single persisted configuration unit: prompt templates plus
// the ordered document list (insertion order).
type Settings struct {
	Prompts   Prompts    `json:"prompts" yaml:"prompts"`
	Documents []Document `json:"documents" yaml:"documents"`

	// skipped holds stored document entries that do not decode as a Document.
	// They are written back verbatim after Documents so no record is lost.
	skipped []json.RawMessage
}

// SkippedDocuments reports how many stored document entries could not be decoded.
func (s Settings) SkippedDocuments() int { return len(s.skipped) }

// MarshalJSON writes Documents followed by any undecodable stored entries.
func (s Settings) MarshalJSON() ([]byte, error) {
	docs := make([]json.RawMessage, 0, len(s.Documents)+len(s.skipped))
	for _, d := range s.Documents {
		b, err := json.Marshal(d)
		if err != nil {
			return nil, err
		}
		docs = append(docs, b)
	}
	docs = append(docs, s.skipped...)
	return json.Marshal(struct {
		Prompts   Prompts           `json:"prompts"`
		Documents []json.RawMessage `json:"documents"`
	}{Prompts: s.Prompts, Documents: docs})
}

// DefaultSettings returns the built-in settings with an empty document list.
func DefaultSettings() Settings {
	return Settings{
		Prompts: Prompts{
			Week4:  defaultWeek4,
			Week8:  defaultWeek8,
			Week12: defaultWeek12,
		},
		Documents: []Document{},
	}
}

// Clone returns a copy that does not share the document slice.
func (s Settings) Clone() Settings {
	docs := make([]Document, len(s.Documents))
	copy(docs, s.Documents)
	s.Documents = docs
	return s
}

// ParseSettings decodes persisted settings and merges them over the defaults
// field by field. A prompt slot that is absent or not a string falls back to its
// default, and an absent or malformed document list becomes empty. Each document
// entry is decoded on its own; entries that do not decode are kept aside (see
// SkippedDocuments) instead of discarding the rest of the list. Only a payload
// that is not a JSON object at all is reported as an error.
func ParseSettings(data []byte) (Settings, error) {
	var raw struct {
		Prompts   map[string]json.RawMessage `json:"prompts"`
		Documents json.RawMessage            `json:"documents"`
	}
	out := DefaultSettings()
	if err := json.Unmarshal(data, &raw); err != nil {
		// A non-object "prompts" value fails the whole decode; retry without it.
		var loose struct {
			Documents json.RawMessage `json:"documents"`
		}
		if err2 := json.Unmarshal(data, &loose); err2 != nil {
			return out, fmt.Errorf("decode settings: %w", err)
		}
		raw.Documents = loose.Documents
		raw.Prompts = nil
	}

	slots := map[string]*string{
		PromptWeek4:  &out.Prompts.Week4,
		PromptWeek8:  &out.Prompts.Week8,
		PromptWeek12: &out.Prompts.Week12,
	}
	for name, dst := range slots {
		v, ok := raw.Prompts[name]
		if !ok {
			continue
		}
		s := *dst
		if err := json.Unmarshal(v, &s); err == nil {
			*dst = s
		}
	}

	var items []json.RawMessage
	if len(raw.Documents) > 0 && json.Unmarshal(raw.Documents, &items) == nil {
		for _, item := range items {
			if bytes.Equal(bytes.TrimSpace(item), []byte("null")) {
				continue
			}
			var d Document
			if err := json.Unmarshal(item, &d); err != nil {
				out.skipped = append(out.skipped, item)
				continue
			}
			out.Documents = append(out.Documents, d)
		}
	}
	return out, nil
}
