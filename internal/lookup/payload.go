package lookup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"datalist/internal/directive"
)

// ErrorID marks the single sentinel option of a failed lookup.
const ErrorID = "error"

// Option is one selectable suggestion.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Result is the response envelope of a lookup.
type Result struct {
	Results []Option `json:"results"`
}

// ErrorResult wraps msg in the sentinel option.
func ErrorResult(msg string) Result {
	return Result{Results: []Option{{ID: ErrorID, Text: msg}}}
}

// Failed reports whether r is empty or carries the sentinel option.
func (r Result) Failed() bool {
	return len(r.Results) == 0 || (len(r.Results) == 1 && r.Results[0].ID == ErrorID)
}

// Message returns the error text of a failed result.
func (r Result) Message() string {
	if len(r.Results) == 0 {
		return "empty result"
	}
	return r.Results[0].Text
}

// Payload is what a client posts in the reserved form field.
// FieldValue is the text typed so far; the query never uses it.
type Payload struct {
	Directive  directive.Directive `json:"directive"`
	FieldValue string              `json:"fieldValue"`
}

type wireDirective struct {
	Table        string          `json:"table"`
	LabelColumns json.RawMessage `json:"labelColumns"`
	ValueColumn  string          `json:"valueColumn"`
	FilterColumn string          `json:"filterColumn"`
	Limit        json.RawMessage `json:"limit"`
}

type wirePayload struct {
	Directive  *wireDirective `json:"directive"`
	FieldValue string         `json:"fieldValue"`
}

// UnmarshalJSON accepts labelColumns as a string or an array and limit as a
// number or a string. The limit is kept as text so the service can
// re-validate it.
func (p *Payload) UnmarshalJSON(data []byte) error {
	var w wirePayload
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Directive == nil {
		return fmt.Errorf("missing directive")
	}

	labels, err := decodeLabels(w.Directive.LabelColumns)
	if err != nil {
		return err
	}
	*p = Payload{
		Directive: directive.Directive{
			Table:  w.Directive.Table,
			Labels: labels,
			Value:  w.Directive.ValueColumn,
			Filter: w.Directive.FilterColumn,
			Limit:  decodeLimit(w.Directive.Limit),
		},
		FieldValue: w.FieldValue,
	}
	return nil
}

func decodeLabels(raw json.RawMessage) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '"' {
		var one string
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil, fmt.Errorf("labelColumns: %w", err)
		}
		return []string{one}, nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil, fmt.Errorf("labelColumns: %w", err)
	}
	return many, nil
}

// decodeLimit returns the limit as written; anything that is neither a
// string nor a number becomes empty.
func decodeLimit(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return ""
	}
	return n.String()
}

// DecodePayload parses the reserved field's value.
func DecodePayload(raw string) (Payload, error) {
	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Payload{}, fmt.Errorf("decode payload: %w", err)
	}
	return p, nil
}
