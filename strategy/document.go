package strategy

import (
	"encoding/json"
	"fmt"
	"os"

	"dss/internal/fsutil"
)

// Document is the free-form strategy JSON written by the external generator.
// Only risk_pref is interpreted; every other key is carried through untouched.
type Document map[string]any

func Load(path string) (Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read strategy: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse strategy %s: %w", path, err)
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

// Save writes the document with 4-space indentation.
func (d Document) Save(path string) error {
	return fsutil.WriteJSON(path, d, "    ")
}

// RiskPref returns risk_pref, or 0 when it is absent. A non-numeric value is an error.
func (d Document) RiskPref() (float64, error) {
	v, ok := d["risk_pref"]
	if !ok || v == nil {
		return 0, nil
	}
	switch x := v.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	case json.Number:
		return x.Float64()
	}
	return 0, fmt.Errorf("risk_pref is %T, want number", v)
}

func (d Document) SetRiskPref(v float64) {
	d["risk_pref"] = v
}
