package strategy

import (
	"fmt"

	"dss/sentiment"
)

// Adjustment describes one sentiment-driven change to risk_pref.
type Adjustment struct {
	Label  sentiment.Label `json:"label"`
	Score  float64         `json:"score"`
	Alpha  float64         `json:"alpha"`
	Before float64         `json:"before"`
	After  float64         `json:"after"`
}

// Adjust sets risk_pref = risk_pref + alpha*score(label) on doc.
func Adjust(doc Document, alpha float64, label sentiment.Label) (Adjustment, error) {
	before, err := doc.RiskPref()
	if err != nil {
		return Adjustment{}, err
	}
	score := sentiment.Score(label)
	after := before + alpha*score
	doc.SetRiskPref(after)
	return Adjustment{Label: label, Score: score, Alpha: alpha, Before: before, After: after}, nil
}

// AdjustFile is the read-modify-write form of Adjust.
func AdjustFile(path string, alpha float64, label sentiment.Label) (Adjustment, error) {
	doc, err := Load(path)
	if err != nil {
		return Adjustment{}, err
	}
	adj, err := Adjust(doc, alpha, label)
	if err != nil {
		return Adjustment{}, fmt.Errorf("adjust %s: %w", path, err)
	}
	if err := doc.Save(path); err != nil {
		return Adjustment{}, err
	}
	return adj, nil
}
