package calendar

import "time"

// =============================================================================
// BRAZIL - National banking holidays (CDI non-publication days)
// =============================================================================

// brazilHolidayList covers the national banking holidays observed by the
// interbank market, 2018 through mid-2023. Days outside this window fall
// back to the weekend rule only.
var brazilHolidayList = []string{
	"2018-01-01", "2018-02-12", "2018-02-13", "2018-03-30",
	"2018-05-01", "2018-05-31", "2018-09-07", "2018-10-12",
	"2018-11-02", "2018-11-15", "2018-12-25", "2019-01-01",
	"2019-03-04", "2019-03-05", "2019-04-19", "2019-05-01",
	"2019-06-20", "2019-11-15", "2019-12-25", "2020-01-01",
	"2020-02-24", "2020-02-25", "2020-04-10", "2020-04-21",
	"2020-05-01", "2020-06-11", "2020-09-07", "2020-10-12",
	"2020-11-02", "2020-12-25", "2021-01-01", "2021-02-15",
	"2021-02-16", "2021-04-02", "2021-04-21", "2021-06-03",
	"2021-09-07", "2021-10-12", "2021-11-02", "2021-11-15",
	"2022-02-28", "2022-03-01", "2022-04-15", "2022-04-21",
	"2022-06-16", "2022-09-07", "2022-10-12", "2022-11-02",
	"2022-11-15", "2023-02-20", "2023-02-21", "2023-04-07",
	"2023-04-21", "2023-05-01", "2023-06-08",
}

var brazil *Calendar

func init() {
	set := make(map[string]struct{}, len(brazilHolidayList))
	for _, h := range brazilHolidayList {
		set[h] = struct{}{}
	}
	brazil = &Calendar{holidays: set}
}

// Brazil returns the shared Brazilian banking calendar. It is immutable;
// callers may hold it freely.
func Brazil() *Calendar { return brazil }

// BrazilHolidays returns the compiled-in holiday dates, sorted.
func BrazilHolidays() []time.Time {
	out := make([]time.Time, 0, len(brazilHolidayList))
	for _, h := range brazilHolidayList {
		t, _ := time.Parse("2006-01-02", h)
		out = append(out, t)
	}
	return out
}
