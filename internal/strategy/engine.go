package strategy

import (
	"fmt"
	"strconv"
	"strings"

	"OISentinel/internal/model"
)

// Thresholds holds the boundaries used to classify a row. All comparisons
// are on absolute percentage points.
type Thresholds struct {
	Critical24h    float64 `yaml:"critical_24h"`     // 24h above this alerts privately
	NotableRise24h float64 `yaml:"notable_rise_24h"` // 24h above this alerts the group
	NotableDrop24h float64 `yaml:"notable_drop_24h"` // 24h below this alerts the group
	Quiet4h        float64 `yaml:"quiet_4h"`         // 4h below this is tracked
	Escalation4h   float64 `yaml:"escalation_4h"`    // rise since tracked that escalates
}

// DefaultThresholds are the production boundaries.
var DefaultThresholds = Thresholds{
	Critical24h:    200,
	NotableRise24h: 70,
	NotableDrop24h: -50,
	Quiet4h:        1,
	Escalation4h:   30,
}

// Result is the outcome of classifying one record. Next is nil when the
// asset should not be on the new watchlist.
type Result struct {
	Alerts []model.Alert
	Next   *model.HistoryEntry
}

// Classifier decides alerts and watchlist membership for a record.
type Classifier struct {
	T Thresholds
}

// NewClassifier creates a Classifier with the given thresholds.
func NewClassifier(t Thresholds) *Classifier {
	return &Classifier{T: t}
}

// tier24h maps a 24h change to its alert kind and audience, first match wins.
func (c *Classifier) tier24h(v float64) (model.AlertKind, model.Audience, bool) {
	switch {
	case v > c.T.Critical24h:
		return model.AlertCritical, model.AudiencePrivate, true
	case v > c.T.NotableRise24h || v < c.T.NotableDrop24h:
		return model.AlertNotable, model.AudienceBroadcast, true
	default:
		return "", "", false
	}
}

// Classify evaluates the 24h tiers and, independently, the 4h watchlist
// transition against prior, the entry loaded at the start of the run.
func (c *Classifier) Classify(rec model.AssetChangeRecord, prior *model.HistoryEntry) Result {
	var res Result

	if kind, audience, ok := c.tier24h(rec.Change24h); ok {
		res.Alerts = append(res.Alerts, model.Alert{
			Kind:     kind,
			Audience: audience,
			Asset:    rec.ShortName,
			Text:     fmt.Sprintf("%s %s", rec.ShortName, rec.Raw24h),
		})
	}

	cur := rec.Change4h
	if prior == nil {
		if cur < c.T.Quiet4h {
			res.Next = &model.HistoryEntry{Asset: rec.ShortName, LastValue: cur}
		}
		return res
	}

	switch {
	case cur-prior.LastValue >= c.T.Escalation4h:
		// a fired escalation clears tracking
		res.Alerts = append(res.Alerts, model.Alert{
			Kind:     model.AlertEscalation,
			Audience: model.AudiencePrivate,
			Asset:    rec.ShortName,
			Text: fmt.Sprintf("%s - changed from %s to %s",
				rec.ShortName, formatValue(prior.LastValue), formatValue(cur)),
		})
	case cur < c.T.Quiet4h:
		res.Next = &model.HistoryEntry{Asset: rec.ShortName, LastValue: min(cur, prior.LastValue)}
	}
	return res
}

// formatValue prints v in its shortest form, keeping at least one decimal.
func formatValue(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
