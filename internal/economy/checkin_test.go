package economy

import (
	"errors"
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextStreakFirstCheckin(t *testing.T) {
	got, err := nextStreak(nil, day(2026, 3, 10), 0)
	if err != nil || got != 1 {
		t.Fatalf("got=%d err=%v", got, err)
	}
}

func TestNextStreakContinues(t *testing.T) {
	last := day(2026, 3, 9)
	got, err := nextStreak(&last, day(2026, 3, 10), 6)
	if err != nil || got != 7 {
		t.Fatalf("got=%d err=%v", got, err)
	}
}

func TestNextStreakResetsAfterGap(t *testing.T) {
	for _, gapDays := range []int{2, 3, 30} {
		last := day(2026, 3, 10).AddDate(0, 0, -gapDays)
		got, err := nextStreak(&last, day(2026, 3, 10), 12)
		if err != nil || got != 1 {
			t.Fatalf("gap=%d got=%d err=%v", gapDays, got, err)
		}
	}
}

func TestNextStreakSameDayIsInvariantError(t *testing.T) {
	last := day(2026, 3, 10)
	_, err := nextStreak(&last, day(2026, 3, 10), 4)
	if !errors.Is(err, ErrInvariant) {
		t.Fatalf("expected invariant error, got %v", err)
	}
}

func TestCheckinReward(t *testing.T) {
	rng := &scriptRand{ints: []int{13}}
	base, random, tier := checkinReward(7, rng)
	if base != 100 || random != 13 || tier != 200 {
		t.Fatalf("got base=%d random=%d tier=%d", base, random, tier)
	}
}

func TestCheckinRewardBelowFirstTier(t *testing.T) {
	rng := &scriptRand{ints: []int{50}}
	base, random, tier := checkinReward(2, rng)
	if base+random+tier != 150 {
		t.Fatalf("total=%d want 150", base+random+tier)
	}
	if tier != 0 {
		t.Fatalf("tier=%d want 0", tier)
	}
}
