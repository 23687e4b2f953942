// Package streak derives the consecutive-day-activity metric from ordered
// message history. Pure read-side computation: recomputed on demand, never
// cached.
package streak

import (
	"time"

	"msgdrop/pkg/models"
	"msgdrop/pkg/store"
)

// maxWalk caps the backward day walk so a pathological history cannot spin.
const maxWalk = 365

type Calculator struct {
	loc      *time.Location
	lookback int
	now      func() time.Time
}

func New(loc *time.Location, lookback int) *Calculator {
	if lookback <= 0 {
		lookback = 5000
	}
	return &Calculator{loc: loc, lookback: lookback, now: time.Now}
}

// NewWithClock is used by tests to pin "today".
func NewWithClock(loc *time.Location, lookback int, now func() time.Time) *Calculator {
	c := New(loc, lookback)
	c.now = now
	return c
}

func (c *Calculator) day(tsMillis int64) string {
	return time.UnixMilli(tsMillis).In(c.loc).Format("2006-01-02")
}

// Compute reads recent history for the drop, identifies the two most
// recently active distinct identities, and walks backward from today in the
// reference zone counting consecutive days on which both posted. Day zero is
// included in the walk and reported separately even when it breaks the
// streak. Fewer than two identities yields a zero result.
func (c *Calculator) Compute(dropID string) (models.Streak, error) {
	msgs, _, err := store.List(dropID, c.lookback, 0)
	if err != nil {
		return models.Streak{}, err
	}
	out := models.Streak{Users: []string{}, Days: []models.StreakDay{}}
	if len(msgs) == 0 {
		return out, nil
	}

	// two most-recently-active distinct identities, newest first
	var users []string
	for i := len(msgs) - 1; i >= 0 && len(users) < 2; i-- {
		u := msgs[i].Author
		if u == "" {
			u = "user"
		}
		seen := false
		for _, s := range users {
			if s == u {
				seen = true
				break
			}
		}
		if !seen {
			users = append(users, u)
		}
	}
	out.Users = users
	if len(users) < 2 {
		return out, nil
	}
	u1, u2 := users[0], users[1]

	perDay := make(map[string]map[string]bool)
	for _, m := range msgs {
		u := m.Author
		if u == "" {
			u = "user"
		}
		d := c.day(m.TS)
		if perDay[d] == nil {
			perDay[d] = make(map[string]bool)
		}
		perDay[d][u] = true
	}

	today := c.now().In(c.loc)
	for i := 0; i <= maxWalk; i++ {
		key := today.AddDate(0, 0, -i).Format("2006-01-02")
		s := perDay[key]
		both := s[u1] && s[u2]
		out.Days = append(out.Days, models.StreakDay{Date: key, U1: s[u1], U2: s[u2], Both: both})
		if i == 0 {
			out.Today.Both = both
		}
		if !both {
			break
		}
		out.StreakDays++
	}
	return out, nil
}
