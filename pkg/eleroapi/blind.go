package eleroapi

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Blind is a blind record as returned by the controller. Fields other than
// blind_id are server-defined and passed through verbatim.
type Blind map[string]any

// ID returns the blind_id field as a string, or "" if absent
func (b Blind) ID() string {
	return stringField(b, "blind_id")
}

// Name returns the name field if the controller sends one
func (b Blind) Name() string {
	return stringField(b, "name")
}

func stringField(b Blind, key string) string {
	v, ok := b[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
