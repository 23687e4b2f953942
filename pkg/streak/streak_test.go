package streak

import (
	"testing"
	"time"

	"msgdrop/pkg/models"
	"msgdrop/pkg/store"
)

func openTestStore(t *testing.T) {
	t.Helper()
	if err := store.Open(t.TempDir()); err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
}

func post(t *testing.T, drop, user string, ts time.Time) {
	t.Helper()
	_, err := store.Append(drop, models.Message{
		Author: user,
		Kind:   models.KindText,
		Text:   "x",
		TS:     ts.UnixMilli(),
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
}

func TestComputeThreeDayStreak(t *testing.T) {
	openTestStore(t)
	today := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	c := NewWithClock(time.UTC, 5000, func() time.Time { return today })

	// both posted today, yesterday and the day before; only A on day -3
	for d := 0; d < 3; d++ {
		post(t, "d1", "alice", today.AddDate(0, 0, -d))
		post(t, "d1", "bob", today.AddDate(0, 0, -d))
	}
	post(t, "d1", "alice", today.AddDate(0, 0, -3))

	st, err := c.Compute("d1")
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if st.StreakDays != 3 {
		t.Fatalf("streakDays = %d, want 3", st.StreakDays)
	}
	if !st.Today.Both {
		t.Fatalf("today.both should be true")
	}
	if len(st.Users) != 2 {
		t.Fatalf("users = %v, want two", st.Users)
	}
	// walk includes the breaking day
	if len(st.Days) != 4 {
		t.Fatalf("days = %d entries, want 4", len(st.Days))
	}
	if st.Days[3].Both {
		t.Fatalf("final walked day should break the streak")
	}
}

func TestComputeTodayBreaksStreak(t *testing.T) {
	openTestStore(t)
	today := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	c := NewWithClock(time.UTC, 5000, func() time.Time { return today })

	// both posted yesterday, only alice today
	post(t, "d1", "alice", today)
	post(t, "d1", "alice", today.AddDate(0, 0, -1))
	post(t, "d1", "bob", today.AddDate(0, 0, -1))

	st, err := c.Compute("d1")
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if st.StreakDays != 0 {
		t.Fatalf("streakDays = %d, want 0 when today breaks", st.StreakDays)
	}
	if st.Today.Both {
		t.Fatalf("today.both should be false")
	}
}

func TestComputeFewerThanTwoUsers(t *testing.T) {
	openTestStore(t)
	today := time.Now()
	c := NewWithClock(time.UTC, 5000, time.Now)

	post(t, "d1", "alice", today)
	st, err := c.Compute("d1")
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if st.StreakDays != 0 || len(st.Users) != 1 {
		t.Fatalf("single-user drop should yield zero streak, got %+v", st)
	}

	// empty drop
	st, err = c.Compute("empty")
	if err != nil {
		t.Fatalf("Compute empty: %v", err)
	}
	if st.StreakDays != 0 || len(st.Users) != 0 || st.Days == nil {
		t.Fatalf("empty drop result = %+v", st)
	}
}

func TestComputeEmptyAuthorFallback(t *testing.T) {
	openTestStore(t)
	today := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	c := NewWithClock(time.UTC, 5000, func() time.Time { return today })

	post(t, "d1", "", today)
	post(t, "d1", "alice", today)

	st, err := c.Compute("d1")
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if st.StreakDays != 1 {
		t.Fatalf("streakDays = %d, want 1", st.StreakDays)
	}
	found := false
	for _, u := range st.Users {
		if u == "user" {
			found = true
		}
	}
	if !found {
		t.Fatalf("anonymous author should be tracked as %q, users = %v", "user", st.Users)
	}
}
