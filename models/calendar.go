package models

import "time"

// EventCategory groups market calendar events.
type EventCategory string

const (
	EventPublicHoliday    EventCategory = "public_holiday"
	EventCommercial       EventCategory = "commercial"
	EventSeasonal         EventCategory = "seasonal"
	EventIndustrySpecific EventCategory = "industry_specific"
)

// ImpactType is the expected direction of an event's influence on KPIs.
type ImpactType string

const (
	ImpactPositive ImpactType = "positive"
	ImpactNegative ImpactType = "negative"
	ImpactMixed    ImpactType = "mixed"
)

// ChangeRange is an expected percent-change interval for a metric class.
type ChangeRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether pct falls inside the range, inclusive.
func (r ChangeRange) Contains(pct float64) bool {
	return pct >= r.Min && pct <= r.Max
}

// Scale multiplies both ends of the range by w.
func (r ChangeRange) Scale(w float64) ChangeRange {
	return ChangeRange{Min: r.Min * w, Max: r.Max * w}
}

// ExpectedChanges bundles the per-metric-class expected change ranges.
type ExpectedChanges struct {
	Spend      ChangeRange `json:"spend"`
	Conversion ChangeRange `json:"conversion"`
	CTR        ChangeRange `json:"ctr"`
}

// MarketEvent is one resolved calendar event occurrence.
type MarketEvent struct {
	ID                       string             `json:"id"`
	Name                     string             `json:"name"`
	Category                 EventCategory      `json:"category"`
	Impact                   ImpactType         `json:"impact"`
	ExpectedSpendChange      ChangeRange        `json:"expected_spend_change"`
	ExpectedConversionChange ChangeRange        `json:"expected_conversion_change"`
	ExpectedCTRChange        ChangeRange        `json:"expected_ctr_change"`
	LeadDays                 int                `json:"lead_days"`
	TrailDays                int                `json:"trail_days"`
	IndustryWeights          map[string]float64 `json:"industry_weights,omitempty"`
	Date                     time.Time          `json:"date"`
	Approximate              bool               `json:"approximate,omitempty"`
}

// IndustryWeight returns the multiplier for an industry, 1.0 by default.
func (e MarketEvent) IndustryWeight(industry string) float64 {
	if industry == "" || e.IndustryWeights == nil {
		return 1.0
	}
	if w, ok := e.IndustryWeights[industry]; ok {
		return w
	}
	return 1.0
}

// DateEventInfo is the derived answer for one queried date. Never stored.
type DateEventInfo struct {
	Date         time.Time       `json:"date"`
	Events       []MarketEvent   `json:"events"`
	IsSpecialDay bool            `json:"is_special_day"`
	Combined     ExpectedChanges `json:"combined_expected_change"`
}
