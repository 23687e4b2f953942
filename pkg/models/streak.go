package models

// StreakDay reports per-day posting presence for the two tracked users.
type StreakDay struct {
	Date string `json:"date"`
	U1   bool   `json:"u1"`
	U2   bool   `json:"u2"`
	Both bool   `json:"both"`
}

// StreakToday reports whether both users have posted on the current day;
// it is reported even when today breaks the streak.
type StreakToday struct {
	Both bool `json:"both"`
}

type Streak struct {
	StreakDays int         `json:"streakDays"`
	Users      []string    `json:"users"`
	Today      StreakToday `json:"today"`
	Days       []StreakDay `json:"days"`
}
