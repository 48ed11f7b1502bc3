package models

import "time"

// CrashRecord is one pedestrian-involved crash after cleaning.
type CrashRecord struct {
	ID                 string    `json:"id"`
	Time               time.Time `json:"time"`
	Location           Location  `json:"location"`
	StreetNo           string    `json:"street_no,omitempty"`
	StreetDirection    string    `json:"street_direction,omitempty"`
	Street             string    `json:"street"`
	FullAddress        string    `json:"full_address"`
	ContributingFactor string    `json:"contributing_factor"`
	Severity           string    `json:"severity"`
	SeverityTier       string    `json:"severity_tier"`
	CrashType          string    `json:"crash_type"`
	InjuriesTotal      int       `json:"injuries_total"`
	Damage             string    `json:"damage,omitempty"`
	PostedSpeedLimit   int       `json:"posted_speed_limit,omitempty"`
	Weather            string    `json:"weather,omitempty"`
	DayOfWeek          string    `json:"day_of_week"`
	TimeOfDay          string    `json:"time_of_day"`
}

// SeverityScore returns the numeric injury score, false when the severity is UNKNOWN.
func (c CrashRecord) SeverityScore() (float64, bool) {
	return SeverityScore(c.Severity)
}
