package calendar

import (
	"time"

	"github.com/adwatch/sentinel/models"
)

// eventDef is a catalog entry: the static event plus its per-year resolver.
// The resolver reports whether the date is exact or an approximation.
type eventDef struct {
	event   models.MarketEvent
	resolve func(year int) (time.Time, bool)
}

func fixedDate(month time.Month, day int) func(int) (time.Time, bool) {
	return func(year int) (time.Time, bool) {
		return date(year, month, day), true
	}
}

// nthWeekday returns the nth occurrence (1-based) of a weekday in a month.
func nthWeekday(year int, month time.Month, weekday time.Weekday, n int) time.Time {
	first := date(year, month, 1)
	offset := (int(weekday) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, offset+(n-1)*7)
}

func blackFridayDate(year int) time.Time {
	// the day after the fourth Thursday of November
	return nthWeekday(year, time.November, time.Thursday, 4).AddDate(0, 0, 1)
}

// catalog is the static set of recurring events the calendar knows about.
// Expected changes are percent ranges against a normal day.
var catalog = []eventDef{
	{
		event: models.MarketEvent{
			ID:                       "new_year",
			Name:                     "New Year's Day",
			Category:                 models.EventPublicHoliday,
			Impact:                   models.ImpactMixed,
			ExpectedSpendChange:      models.ChangeRange{Min: -25, Max: 15},
			ExpectedConversionChange: models.ChangeRange{Min: -30, Max: 10},
			ExpectedCTRChange:        models.ChangeRange{Min: -15, Max: 10},
			LeadDays:                 3,
			TrailDays:                2,
		},
		resolve: fixedDate(time.January, 1),
	},
	{
		event: models.MarketEvent{
			ID:                       "lunar_new_year",
			Name:                     "Lunar New Year",
			Category:                 models.EventPublicHoliday,
			Impact:                   models.ImpactMixed,
			ExpectedSpendChange:      models.ChangeRange{Min: -30, Max: 50},
			ExpectedConversionChange: models.ChangeRange{Min: -35, Max: 40},
			ExpectedCTRChange:        models.ChangeRange{Min: -20, Max: 25},
			LeadDays:                 7,
			TrailDays:                7,
			IndustryWeights: map[string]float64{
				"ecommerce": 1.3,
				"travel":    1.5,
				"food":      1.2,
			},
		},
		resolve: func(year int) (time.Time, bool) {
			return lunarDate(lunarNewYearDates, lunarNewYearApprox, year)
		},
	},
	{
		event: models.MarketEvent{
			ID:                       "valentines_day",
			Name:                     "Valentine's Day",
			Category:                 models.EventCommercial,
			Impact:                   models.ImpactPositive,
			ExpectedSpendChange:      models.ChangeRange{Min: 10, Max: 60},
			ExpectedConversionChange: models.ChangeRange{Min: 15, Max: 80},
			ExpectedCTRChange:        models.ChangeRange{Min: 5, Max: 30},
			LeadDays:                 7,
			TrailDays:                1,
			IndustryWeights: map[string]float64{
				"ecommerce": 1.4,
				"food":      1.3,
			},
		},
		resolve: fixedDate(time.February, 14),
	},
	{
		event: models.MarketEvent{
			ID:                       "mothers_day",
			Name:                     "Mother's Day",
			Category:                 models.EventCommercial,
			Impact:                   models.ImpactPositive,
			ExpectedSpendChange:      models.ChangeRange{Min: 10, Max: 50},
			ExpectedConversionChange: models.ChangeRange{Min: 10, Max: 60},
			ExpectedCTRChange:        models.ChangeRange{Min: 5, Max: 25},
			LeadDays:                 7,
			TrailDays:                1,
			IndustryWeights: map[string]float64{
				"ecommerce": 1.3,
				"food":      1.2,
			},
		},
		// second Sunday of May
		resolve: func(year int) (time.Time, bool) {
			return nthWeekday(year, time.May, time.Sunday, 2), true
		},
	},
	{
		event: models.MarketEvent{
			ID:                       "summer_sale_season",
			Name:                     "Summer sale season",
			Category:                 models.EventSeasonal,
			Impact:                   models.ImpactMixed,
			ExpectedSpendChange:      models.ChangeRange{Min: -10, Max: 35},
			ExpectedConversionChange: models.ChangeRange{Min: -15, Max: 30},
			ExpectedCTRChange:        models.ChangeRange{Min: -10, Max: 20},
			LeadDays:                 0,
			TrailDays:                30,
			IndustryWeights: map[string]float64{
				"travel":    1.4,
				"ecommerce": 1.1,
			},
		},
		resolve: fixedDate(time.July, 1),
	},
	{
		event: models.MarketEvent{
			ID:                       "back_to_school",
			Name:                     "Back to school",
			Category:                 models.EventSeasonal,
			Impact:                   models.ImpactPositive,
			ExpectedSpendChange:      models.ChangeRange{Min: 5, Max: 45},
			ExpectedConversionChange: models.ChangeRange{Min: 10, Max: 55},
			ExpectedCTRChange:        models.ChangeRange{Min: 5, Max: 25},
			LeadDays:                 14,
			TrailDays:                14,
			IndustryWeights: map[string]float64{
				"education": 1.6,
				"ecommerce": 1.2,
			},
		},
		resolve: fixedDate(time.August, 15),
	},
	{
		event: models.MarketEvent{
			ID:                       "mid_autumn",
			Name:                     "Mid-Autumn Festival",
			Category:                 models.EventPublicHoliday,
			Impact:                   models.ImpactMixed,
			ExpectedSpendChange:      models.ChangeRange{Min: -15, Max: 35},
			ExpectedConversionChange: models.ChangeRange{Min: -15, Max: 40},
			ExpectedCTRChange:        models.ChangeRange{Min: -10, Max: 20},
			LeadDays:                 5,
			TrailDays:                2,
			IndustryWeights: map[string]float64{
				"food":      1.4,
				"ecommerce": 1.2,
			},
		},
		resolve: func(year int) (time.Time, bool) {
			return lunarDate(midAutumnDates, midAutumnApprox, year)
		},
	},
	{
		event: models.MarketEvent{
			ID:                       "halloween",
			Name:                     "Halloween",
			Category:                 models.EventCommercial,
			Impact:                   models.ImpactPositive,
			ExpectedSpendChange:      models.ChangeRange{Min: 5, Max: 40},
			ExpectedConversionChange: models.ChangeRange{Min: 5, Max: 45},
			ExpectedCTRChange:        models.ChangeRange{Min: 0, Max: 20},
			LeadDays:                 7,
			TrailDays:                1,
		},
		resolve: fixedDate(time.October, 31),
	},
	{
		event: models.MarketEvent{
			ID:                       "singles_day",
			Name:                     "Singles' Day",
			Category:                 models.EventCommercial,
			Impact:                   models.ImpactPositive,
			ExpectedSpendChange:      models.ChangeRange{Min: 20, Max: 100},
			ExpectedConversionChange: models.ChangeRange{Min: 15, Max: 90},
			ExpectedCTRChange:        models.ChangeRange{Min: 10, Max: 40},
			LeadDays:                 3,
			TrailDays:                1,
			IndustryWeights: map[string]float64{
				"ecommerce": 1.5,
			},
		},
		resolve: fixedDate(time.November, 11),
	},
	{
		event: models.MarketEvent{
			ID:                       "black_friday",
			Name:                     "Black Friday",
			Category:                 models.EventCommercial,
			Impact:                   models.ImpactPositive,
			ExpectedSpendChange:      models.ChangeRange{Min: 30, Max: 150},
			ExpectedConversionChange: models.ChangeRange{Min: 20, Max: 120},
			ExpectedCTRChange:        models.ChangeRange{Min: 10, Max: 50},
			LeadDays:                 7,
			TrailDays:                1,
			IndustryWeights: map[string]float64{
				"ecommerce": 1.4,
			},
		},
		resolve: func(year int) (time.Time, bool) {
			return blackFridayDate(year), true
		},
	},
	{
		event: models.MarketEvent{
			ID:                       "cyber_monday",
			Name:                     "Cyber Monday",
			Category:                 models.EventCommercial,
			Impact:                   models.ImpactPositive,
			ExpectedSpendChange:      models.ChangeRange{Min: 20, Max: 120},
			ExpectedConversionChange: models.ChangeRange{Min: 15, Max: 100},
			ExpectedCTRChange:        models.ChangeRange{Min: 10, Max: 45},
			LeadDays:                 0,
			TrailDays:                1,
			IndustryWeights: map[string]float64{
				"ecommerce": 1.5,
			},
		},
		// the Monday after Black Friday
		resolve: func(year int) (time.Time, bool) {
			return blackFridayDate(year).AddDate(0, 0, 3), true
		},
	},
	{
		event: models.MarketEvent{
			ID:                       "christmas",
			Name:                     "Christmas",
			Category:                 models.EventPublicHoliday,
			Impact:                   models.ImpactMixed,
			ExpectedSpendChange:      models.ChangeRange{Min: -20, Max: 80},
			ExpectedConversionChange: models.ChangeRange{Min: -25, Max: 70},
			ExpectedCTRChange:        models.ChangeRange{Min: -15, Max: 35},
			LeadDays:                 14,
			TrailDays:                3,
			IndustryWeights: map[string]float64{
				"ecommerce": 1.3,
				"travel":    1.2,
			},
		},
		resolve: fixedDate(time.December, 25),
	},
	{
		event: models.MarketEvent{
			ID:                       "year_end",
			Name:                     "Year-end shopping window",
			Category:                 models.EventSeasonal,
			Impact:                   models.ImpactMixed,
			ExpectedSpendChange:      models.ChangeRange{Min: -15, Max: 40},
			ExpectedConversionChange: models.ChangeRange{Min: -20, Max: 35},
			ExpectedCTRChange:        models.ChangeRange{Min: -10, Max: 20},
			LeadDays:                 5,
			TrailDays:                1,
		},
		resolve: fixedDate(time.December, 31),
	},
}
