package eleroapi

import (
	"encoding/json"
	"testing"
)

func TestBlind_ID(t *testing.T) {
	tests := []struct {
		name  string
		blind Blind
		want  string
	}{
		{"string id", Blind{"blind_id": "b1"}, "b1"},
		{"numeric id", Blind{"blind_id": float64(12)}, "12"},
		{"large numeric id", Blind{"blind_id": float64(1234567890)}, "1234567890"},
		{"json number", Blind{"blind_id": json.Number("7")}, "7"},
		{"missing", Blind{"name": "Office"}, ""},
		{"null", Blind{"blind_id": nil}, ""},
		{"nil blind", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.blind.ID(); got != tt.want {
				t.Errorf("ID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBlind_Name(t *testing.T) {
	if got := (Blind{"blind_id": "b1", "name": "Living room"}).Name(); got != "Living room" {
		t.Errorf("Name() = %q, want Living room", got)
	}
	if got := (Blind{"blind_id": "b1"}).Name(); got != "" {
		t.Errorf("Name() = %q, want empty", got)
	}
}

func TestBlind_PassThrough(t *testing.T) {
	raw := `{"blind_id":"b1","position":75,"channel":3,"extra":{"nested":true}}`

	var b Blind
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	out, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(out) != raw {
		t.Errorf("round trip = %s, want %s", out, raw)
	}
}
