package economy

import "testing"

// scriptRand replays fixed draws so payout arithmetic is exact.
type scriptRand struct {
	ints   []int
	floats []float64
}

func (r *scriptRand) IntN(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	if v >= n {
		v = n - 1
	}
	return v
}

func (r *scriptRand) Float64() float64 {
	if len(r.floats) == 0 {
		return 0
	}
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

func TestLevelForExperience(t *testing.T) {
	tests := []struct {
		exp  int64
		want int
	}{
		{exp: -5, want: 1},
		{exp: 0, want: 1},
		{exp: 99, want: 1},
		{exp: 100, want: 2},
		{exp: 499, want: 5},
		{exp: 500, want: 6},
		{exp: 699, want: 6},
		{exp: 700, want: 7},
		{exp: 1499, want: 10},
		{exp: 1500, want: 11},
		{exp: 3999, want: 15},
		{exp: 4000, want: 16},
		{exp: 4999, want: 16},
		{exp: 5000, want: 17},
	}
	for _, tc := range tests {
		if got := LevelForExperience(tc.exp); got != tc.want {
			t.Fatalf("exp=%d got=%d want=%d", tc.exp, got, tc.want)
		}
	}
}

func TestLevelNeverDecreases(t *testing.T) {
	prev := LevelForExperience(0)
	for exp := int64(1); exp <= 10_000; exp++ {
		got := LevelForExperience(exp)
		if got < prev {
			t.Fatalf("level dropped from %d to %d at exp=%d", prev, got, exp)
		}
		prev = got
	}
}

func TestExperienceForLevelRoundTrip(t *testing.T) {
	for level := 1; level <= 25; level++ {
		start := experienceForLevel(level)
		if got := LevelForExperience(start); got != level {
			t.Fatalf("level %d starts at exp=%d but maps to %d", level, start, got)
		}
		if start > 0 {
			if got := LevelForExperience(start - 1); got != level-1 {
				t.Fatalf("exp=%d should still be level %d, got %d", start-1, level-1, got)
			}
		}
	}
}

func TestLevelProgressFor(t *testing.T) {
	p := LevelProgressFor(250)
	if p.CurrentLevel != 3 || p.NextLevel != 4 {
		t.Fatalf("levels: got %d/%d", p.CurrentLevel, p.NextLevel)
	}
	if p.ProgressWithinLevel != 50 || p.XPNeededForNext != 50 {
		t.Fatalf("progress: within=%d needed=%d", p.ProgressWithinLevel, p.XPNeededForNext)
	}
	if p.XPSpanOfCurrentLevel != 100 || p.PercentComplete != 50 {
		t.Fatalf("span=%d percent=%d", p.XPSpanOfCurrentLevel, p.PercentComplete)
	}

	fresh := LevelProgressFor(0)
	if fresh.CurrentLevel != 1 || fresh.PercentComplete != 0 {
		t.Fatalf("fresh account: level=%d percent=%d", fresh.CurrentLevel, fresh.PercentComplete)
	}
}

func TestStreakBonus(t *testing.T) {
	tests := []struct {
		streak int
		want   int64
	}{
		{1, 0}, {2, 0},
		{3, 50}, {6, 50},
		{7, 200}, {14, 200},
		{15, 500}, {29, 500},
		{30, 1000}, {365, 1000},
	}
	for _, tc := range tests {
		if got := streakBonus(tc.streak); got != tc.want {
			t.Fatalf("streak=%d got=%d want=%d", tc.streak, got, tc.want)
		}
	}
}

func TestValidateMetric(t *testing.T) {
	for _, m := range []Metric{MetricCash, MetricAssets, MetricEarned, MetricLevel, MetricCheckins} {
		if err := ValidateMetric(m); err != nil {
			t.Fatalf("expected metric %q to be valid: %v", m, err)
		}
	}
	if err := ValidateMetric(Metric("karma")); err == nil {
		t.Fatalf("expected unknown metric to fail")
	}
	if _, err := metricExpr(Metric("karma")); err == nil {
		t.Fatalf("expected unknown metric expr to fail")
	}
}
