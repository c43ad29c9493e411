package xtrack

import (
	"encoding/json"
	"fmt"
)

// EventName is a canonical business action. Platform adapters translate it
// into their own vocabulary.
type EventName string

const (
	ViewContent EventName = "ViewContent"
	AddToCart   EventName = "AddToCart"
	Purchase    EventName = "Purchase"
	Lead        EventName = "Lead"
)

// User-match field names.
const (
	FieldEmail       = "email"
	FieldPhone       = "phone"
	FieldHashedEmail = "em"
	FieldHashedPhone = "ph"
	FieldFirstName   = "fn"
	FieldLastName    = "ln"
	FieldExternalID  = "external_id"
	FieldUserAgent   = "client_user_agent"
	FieldFBC         = "fbc"
	FieldTTCLID      = "ttclid"
)

// Custom-data keys read by the platform adapters.
const (
	KeyContentIDs   = "content_ids"
	KeyContentNames = "content_names"
	KeyContentType  = "content_type"
	KeyCurrency     = "currency"
	KeyValue        = "value"

	DefaultContentType = "product"
)

// Request is what the storefront hands to Dispatch.
type Request struct {
	EventName  EventName
	SourceURL  string // overrides the location provider when set
	UserData   UserData
	CustomData CustomData
}

// UserData maps match-field names to values. Absent fields mean "unknown".
type UserData map[string]string

func (u UserData) Clone() UserData {
	if u == nil {
		return nil
	}
	out := make(UserData, len(u))
	for k, v := range u {
		out[k] = v
	}
	return out
}

// MatchFields returns the non-empty fields safe to hand to platforms that
// only accept normalized or hashed identifiers: raw email and phone are dropped.
func (u UserData) MatchFields() UserData {
	out := make(UserData, len(u))
	for k, v := range u {
		if v == "" || k == FieldEmail || k == FieldPhone {
			continue
		}
		out[k] = v
	}
	return out
}

// CustomData carries business fields passed through unvalidated.
type CustomData map[string]any

func (c CustomData) Clone() CustomData {
	if c == nil {
		return nil
	}
	out := make(CustomData, len(c))
	for k, v := range c {
		out[k] = cloneValue(v)
	}
	return out
}

// ContentIDs returns content_ids as strings and whether the key was present.
func (c CustomData) ContentIDs() ([]string, bool) {
	v, ok := c[KeyContentIDs]
	if !ok || v == nil {
		return nil, false
	}
	return stringSlice(v), true
}

// ContentNames returns content_names, positionally aligned to ContentIDs.
func (c CustomData) ContentNames() []string {
	return stringSlice(c[KeyContentNames])
}

func (c CustomData) ContentType() string {
	if s, ok := c[KeyContentType].(string); ok && s != "" {
		return s
	}
	return DefaultContentType
}

func (c CustomData) Currency() string {
	s, _ := c[KeyCurrency].(string)
	return s
}

// Value returns the monetary value when present. Zero is a present value.
func (c CustomData) Value() (float64, bool) {
	switch v := c[KeyValue].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func stringSlice(v any) []string {
	switch s := v.(type) {
	case []string:
		out := make([]string, len(s))
		copy(out, s)
		return out
	case []any:
		out := make([]string, len(s))
		for i, e := range s {
			if str, ok := e.(string); ok {
				out[i] = str
				continue
			}
			out[i] = fmt.Sprint(e)
		}
		return out
	default:
		return nil
	}
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
