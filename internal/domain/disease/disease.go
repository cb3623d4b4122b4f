// Package disease holds the disease vocabulary and per-disease
// configuration consumed by the case engine.
package disease

// Disease identifies an epidemiological disease under surveillance.
type Disease string

const (
	Cholera        Disease = "CHOLERA"
	Measles        Disease = "MEASLES"
	Plague         Disease = "PLAGUE"
	LassaFever     Disease = "LASSA"
	YellowFever    Disease = "YELLOW_FEVER"
	Dengue         Disease = "DENGUE"
	Corona         Disease = "CORONAVIRUS"
	Monkeypox      Disease = "MONKEYPOX"
	UnspecifiedVHF Disease = "UNSPECIFIED_VHF"
	Other          Disease = "OTHER"
)

// Configuration carries the disease-specific engine parameters. It stands
// in for a country-level configuration service.
type Configuration struct {
	// FollowUpDurations maps a disease to its follow-up period in days.
	FollowUpDurations map[Disease]int
	// DefaultFollowUpDays applies when no disease-specific duration exists.
	DefaultFollowUpDays int
	// WatchList diseases spawn an active-search task for every new case.
	WatchList map[Disease]bool
}

// DefaultConfiguration mirrors the standard surveillance setup.
func DefaultConfiguration(defaultFollowUpDays int) *Configuration {
	return &Configuration{
		FollowUpDurations: map[Disease]int{
			Cholera:        5,
			Measles:        21,
			Plague:         7,
			LassaFever:     21,
			YellowFever:    6,
			Dengue:         14,
			Corona:         14,
			Monkeypox:      21,
			UnspecifiedVHF: 21,
		},
		DefaultFollowUpDays: defaultFollowUpDays,
		WatchList: map[Disease]bool{
			Plague: true,
		},
	}
}

// FollowUpDuration returns the follow-up period for the disease in days.
func (c *Configuration) FollowUpDuration(d Disease) int {
	if days, ok := c.FollowUpDurations[d]; ok {
		return days
	}
	return c.DefaultFollowUpDays
}

// OnWatchList reports whether new cases of the disease trigger an
// active search for other cases.
func (c *Configuration) OnWatchList(d Disease) bool {
	return c.WatchList[d]
}
