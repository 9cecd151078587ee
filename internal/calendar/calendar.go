// Package calendar answers whether a date is commercially special for a
// metric and what change range is expected, so seasonal swings are not
// misread as anomalies.
package calendar

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/adwatch/sentinel/models"
)

// Calendar is an immutable, year-scoped view of the event catalog. Construct
// one per evaluation and pass it by parameter; there is no global instance.
// A nil *Calendar is valid and treats every date as ordinary.
type Calendar struct {
	occurrences []models.MarketEvent
	logger      zerolog.Logger
}

// NewForYear resolves every catalog event for the given year and its two
// neighbors, so effect windows crossing a year boundary still match.
func NewForYear(year int) *Calendar {
	c := &Calendar{
		logger: log.With().Str("component", "market_calendar").Int("year", year).Logger(),
	}

	for y := year - 1; y <= year+1; y++ {
		for _, def := range catalog {
			resolved, exact := def.resolve(y)
			ev := def.event
			ev.Date = resolved
			ev.Approximate = !exact
			if !exact {
				c.logger.Warn().
					Str("event", ev.ID).
					Int("resolved_year", y).
					Time("approx_date", resolved).
					Msg("lunar date outside lookup table, using approximate anchor")
			}
			c.occurrences = append(c.occurrences, ev)
		}
	}

	return c
}

// dayOf normalizes a timestamp to midnight UTC for day-granularity compares.
func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// inWindow reports whether day falls inside [date-lead, date+trail] inclusive.
func inWindow(ev models.MarketEvent, day time.Time) bool {
	start := ev.Date.AddDate(0, 0, -ev.LeadDays)
	end := ev.Date.AddDate(0, 0, ev.TrailDays)
	return !day.Before(start) && !day.After(end)
}

// EventsFor returns every event whose effect window covers the date.
func (c *Calendar) EventsFor(t time.Time) []models.MarketEvent {
	if c == nil {
		return nil
	}
	day := dayOf(t)
	var events []models.MarketEvent
	for _, ev := range c.occurrences {
		if inWindow(ev, day) {
			events = append(events, ev)
		}
	}
	return events
}

// DateInfo derives the combined expectation for a date. Overlapping events
// combine as a union envelope: min of all mins, max of all maxes, never
// summed, so stacked events do not double-count. Industry weights scale both
// ends of each event's ranges before combining.
func (c *Calendar) DateInfo(t time.Time, industry string) models.DateEventInfo {
	day := dayOf(t)
	events := c.EventsFor(day)
	info := models.DateEventInfo{
		Date:         day,
		Events:       events,
		IsSpecialDay: len(events) > 0,
	}
	if len(events) == 0 {
		return info
	}

	for i, ev := range events {
		w := ev.IndustryWeight(industry)
		spend := ev.ExpectedSpendChange.Scale(w)
		conv := ev.ExpectedConversionChange.Scale(w)
		ctr := ev.ExpectedCTRChange.Scale(w)
		if i == 0 {
			info.Combined = models.ExpectedChanges{Spend: spend, Conversion: conv, CTR: ctr}
			continue
		}
		info.Combined.Spend = envelope(info.Combined.Spend, spend)
		info.Combined.Conversion = envelope(info.Combined.Conversion, conv)
		info.Combined.CTR = envelope(info.Combined.CTR, ctr)
	}
	return info
}

func envelope(a, b models.ChangeRange) models.ChangeRange {
	out := a
	if b.Min < out.Min {
		out.Min = b.Min
	}
	if b.Max > out.Max {
		out.Max = b.Max
	}
	return out
}

// rangeFor maps a metric to the expected-change class that governs it.
func rangeFor(combined models.ExpectedChanges, metric models.Metric) models.ChangeRange {
	switch metric {
	case models.MetricSpend, models.MetricCPC, models.MetricCPA:
		return combined.Spend
	case models.MetricConversions, models.MetricRevenue, models.MetricROAS, models.MetricCVR:
		return combined.Conversion
	case models.MetricCTR, models.MetricImpressions, models.MetricClicks:
		return combined.CTR
	}
	return combined.Spend
}

// IsChangeWithinExpectedRange reports whether an observed percent change is
// inside the combined expected range for the date. Always false on a
// non-special day.
func (c *Calendar) IsChangeWithinExpectedRange(t time.Time, metric models.Metric, changePct float64, industry string) bool {
	info := c.DateInfo(t, industry)
	if !info.IsSpecialDay {
		return false
	}
	return rangeFor(info.Combined, metric).Contains(changePct)
}

// AdjustedThreshold widens a base detection threshold on special days by the
// relevant expectation bound: the max for positive changes, |min| for
// negative ones. Genuine seasonal swings then stay below threshold.
func (c *Calendar) AdjustedThreshold(t time.Time, base float64, metric models.Metric, positive bool, industry string) float64 {
	info := c.DateInfo(t, industry)
	if !info.IsSpecialDay {
		return base
	}

	r := rangeFor(info.Combined, metric)
	if positive {
		if r.Max > 0 {
			return base + r.Max
		}
		return base
	}
	if r.Min < 0 {
		return base - r.Min
	}
	return base
}
