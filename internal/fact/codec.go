package fact

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
)

// wireFact mirrors the upstream payload, field names included.
type wireFact struct {
	Used      bool       `json:"used"`
	Source    string     `json:"source"`
	Type      string     `json:"type"`
	Deleted   bool       `json:"deleted"`
	ID        string     `json:"_id"`
	Revision  int32      `json:"__v"`
	Text      string     `json:"text"`
	UpdatedAt string     `json:"updatedAt"`
	CreatedAt string     `json:"createdAt"`
	Status    wireStatus `json:"status"`
	User      string     `json:"user"`
}

type wireStatus struct {
	Verified  bool  `json:"verified"`
	SentCount int32 `json:"sentCount"`
}

var (
	factFields = []string{
		"used", "source", "type", "deleted", "_id", "__v",
		"text", "updatedAt", "createdAt", "status", "user",
	}
	statusFields = []string{"verified", "sentCount"}
)

// Decode parses an upstream body into a Fact. Missing, null, unknown or
// mistyped fields are all rejected; key names must match exactly.
func Decode(body []byte) (Fact, error) {
	var raw map[string]json.RawMessage
	if err := decodeSingle(body, &raw); err != nil {
		return Fact{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if err := checkFields("", raw, factFields); err != nil {
		return Fact{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	var rawStatus map[string]json.RawMessage
	if err := json.Unmarshal(raw["status"], &rawStatus); err != nil {
		return Fact{}, fmt.Errorf("%w: status: %w", ErrDecode, err)
	}
	if err := checkFields("status.", rawStatus, statusFields); err != nil {
		return Fact{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	var w wireFact
	if err := json.Unmarshal(body, &w); err != nil {
		return Fact{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return w.fact(), nil
}

// Encode renders a Fact back into the upstream wire shape.
func Encode(f Fact) ([]byte, error) {
	data, err := json.Marshal(toWire(f))
	if err != nil {
		return nil, fmt.Errorf("marshal fact: %w", err)
	}
	return data, nil
}

func decodeSingle(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON document")
	}
	return nil
}

func checkFields(prefix string, raw map[string]json.RawMessage, want []string) error {
	for _, name := range want {
		v, ok := raw[name]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return fmt.Errorf("missing field %q", prefix+name)
		}
	}
	for _, name := range slices.Sorted(maps.Keys(raw)) {
		if !slices.Contains(want, name) {
			return fmt.Errorf("unknown field %q", prefix+name)
		}
	}
	return nil
}

func (w wireFact) fact() Fact {
	return Fact{
		Used:      w.Used,
		Source:    w.Source,
		Type:      w.Type,
		Deleted:   w.Deleted,
		ID:        w.ID,
		Revision:  w.Revision,
		Text:      w.Text,
		UpdatedAt: w.UpdatedAt,
		CreatedAt: w.CreatedAt,
		Status: Status{
			Verified:  w.Status.Verified,
			SentCount: w.Status.SentCount,
		},
		User: w.User,
	}
}

func toWire(f Fact) wireFact {
	return wireFact{
		Used:      f.Used,
		Source:    f.Source,
		Type:      f.Type,
		Deleted:   f.Deleted,
		ID:        f.ID,
		Revision:  f.Revision,
		Text:      f.Text,
		UpdatedAt: f.UpdatedAt,
		CreatedAt: f.CreatedAt,
		Status: wireStatus{
			Verified:  f.Status.Verified,
			SentCount: f.Status.SentCount,
		},
		User: f.User,
	}
}
