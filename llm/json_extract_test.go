package llm

import (
	"errors"
	"testing"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"risk_pref":0.3}`, `{"risk_pref":0.3}`},
		{"chatter around", "Sure! Here it is:\n{\"risk_pref\":0.3, \"target_return\":0.1}\nGood luck.", `{"risk_pref":0.3, "target_return":0.1}`},
		{"nested keeps outermost", `x {"a":{"b":1}} y`, `{"a":{"b":1}}`},
		{"two objects span both", `{"a":1} and {"b":2}`, `{"a":1} and {"b":2}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := ExtractJSONObject(tt.in)
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if string(raw) != tt.want {
				t.Fatalf("got %s, want %s", raw, tt.want)
			}
		})
	}
}

func TestExtractJSONObject_NoBraces(t *testing.T) {
	for _, in := range []string{"", "no json here", "} backwards {", "{ unterminated"} {
		if _, err := ExtractJSONObject(in); !errors.Is(err, ErrNoJSONObject) {
			t.Fatalf("ExtractJSONObject(%q): expected ErrNoJSONObject, got %v", in, err)
		}
	}
}
