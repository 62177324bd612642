package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Extraction outcome recorded on a Document.
const (
	ExtractionOK          = "ok"
	ExtractionFailed      = "failed"
	ExtractionUnsupported = "unsupported"
)

// Document describes one ingested file and points to its extracted text blob.
// Records are append-only: ID and TextPath never change once created.
// The JSON shape matches the settings file written by earlier deployments.
type Document struct {
	ID         string    `json:"id" yaml:"id"`
	Name       string    `json:"name" yaml:"name"`
	Size       int64     `json:"size" yaml:"size"`
	MIME       string    `json:"mime" yaml:"mime"`
	TextPath   string    `json:"textPath" yaml:"textPath"`
	UploadedAt time.Time `json:"uploadedAt" yaml:"uploadedAt"`
	Extraction string    `json:"extraction,omitempty" yaml:"extraction,omitempty"`
}

// UnmarshalJSON accepts size as a JSON number or a numeric string, as
// written by earlier deployments.
func (d *Document) UnmarshalJSON(b []byte) error {
	type plain Document
	aux := struct {
		*plain
		Size json.RawMessage `json:"size"`
	}{plain: (*plain)(d)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	size, err := parseSize(aux.Size)
	if err != nil {
		return fmt.Errorf("document %q: %w", d.ID, err)
	}
	d.Size = size
	return nil
}

func parseSize(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return int64(n), nil
	}
	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return 0, fmt.Errorf("size: %w", err)
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil {
		return 0, fmt.Errorf("size %q is not a number", str)
	}
	return int64(n), nil
}

// DocumentText is the extracted text of a document used as retrieval context.
type DocumentText struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Text string `json:"text" yaml:"text"`
}
