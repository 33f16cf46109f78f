package pdfstamp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SignatureType selects how a request is rendered.
type SignatureType string

const (
	TypeImage SignatureType = "image"
	TypeText  SignatureType = "text"
)

// Normalize returns t in lower case without surrounding whitespace.
func (t SignatureType) Normalize() SignatureType {
	return SignatureType(strings.ToLower(strings.TrimSpace(string(t))))
}

// Known reports whether t is an image or text type, ignoring case.
func (t SignatureType) Known() bool {
	switch t.Normalize() {
	case TypeImage, TypeText:
		return true
	}
	return false
}

// SignatureRequest places one signature on a page.
type SignatureRequest struct {
	Type SignatureType `json:"type"`
	// Data is a data URL for image signatures and the literal text for
	// text signatures.
	Data string  `json:"data"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Page int     `json:"pageNumber"`

	// Text signatures only. Zero values select the stamper defaults.
	Font     string  `json:"font,omitempty"`
	FontSize float64 `json:"fontSize,omitempty"`
	Color    string  `json:"color,omitempty"`

	// Image signatures only. Zero selects the stamper default.
	Scale float64 `json:"scale,omitempty"`
}

// TextStyle configures a text signature. Zero values select the stamper
// defaults.
type TextStyle struct {
	Font  string
	Size  float64
	Color string
}

// Style returns the text style of the request.
func (r SignatureRequest) Style() TextStyle {
	return TextStyle{Font: r.Font, Size: r.FontSize, Color: r.Color}
}

// UnmarshalJSON accepts numeric fields as JSON numbers or numeric strings,
// as sent by HTML forms.
func (r *SignatureRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type     SignatureType `json:"type"`
		Data     string        `json:"data"`
		X        json.RawMessage
		Y        json.RawMessage
		Page     json.RawMessage `json:"pageNumber"`
		Font     string          `json:"font"`
		FontSize json.RawMessage `json:"fontSize"`
		Color    string          `json:"color"`
		Scale    json.RawMessage `json:"scale"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	req := SignatureRequest{
		Type:  raw.Type,
		Data:  raw.Data,
		Font:  raw.Font,
		Color: raw.Color,
	}

	var err error
	if req.X, err = jsonNumber("x", raw.X); err != nil {
		return err
	}
	if req.Y, err = jsonNumber("y", raw.Y); err != nil {
		return err
	}
	if req.FontSize, err = jsonNumber("fontSize", raw.FontSize); err != nil {
		return err
	}
	if req.Scale, err = jsonNumber("scale", raw.Scale); err != nil {
		return err
	}
	page, err := jsonNumber("pageNumber", raw.Page)
	if err != nil {
		return err
	}
	if page != math.Trunc(page) || page > math.MaxInt32 || page < math.MinInt32 {
		return &NumericFieldError{Field: "pageNumber", Value: string(raw.Page)}
	}
	req.Page = int(page)

	*r = req
	return nil
}

func jsonNumber(field string, raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, &NumericFieldError{Field: field, Value: string(raw)}
		}
		if strings.TrimSpace(s) == "" {
			return 0, nil
		}
		return ParseNumber(field, s)
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, &NumericFieldError{Field: field, Value: string(raw)}
	}
	return f, nil
}

// ParseNumber parses a decimal number received as text. Non-finite values
// are rejected.
func ParseNumber(field, s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &NumericFieldError{Field: field, Value: s}
	}
	return f, nil
}

// ParsePage parses a 1-based page number received as text.
func ParsePage(field, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, &NumericFieldError{Field: field, Value: s}
	}
	return n, nil
}

// ParseRequests decodes a JSON array of signature requests.
func ParseRequests(data []byte) ([]SignatureRequest, error) {
	var reqs []SignatureRequest
	if err := json.Unmarshal(data, &reqs); err != nil {
		return nil, fmt.Errorf("failed to parse signature requests: %w", err)
	}
	return reqs, nil
}
