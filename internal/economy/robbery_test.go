package economy

import "testing"

func TestRobberyTakeUniformWithinCap(t *testing.T) {
	// victim 1000 over a 100 floor, cap hits the 300 maximum
	rng := &scriptRand{ints: []int{100}}
	got := robberyTake(1000, 100, 50, 300, rng)
	if got != 150 {
		t.Fatalf("got=%d want 150", got)
	}
}

func TestRobberyTakeCapBelowMinimum(t *testing.T) {
	// only 30 above the floor: take all of it, no draw
	rng := &scriptRand{ints: []int{999}}
	got := robberyTake(130, 100, 50, 300, rng)
	if got != 30 {
		t.Fatalf("got=%d want 30", got)
	}
}

func TestVictimProtectedBoundary(t *testing.T) {
	if victimProtected(100, 100) {
		t.Fatalf("victim holding exactly the floor is a legal target")
	}
	if !victimProtected(99, 100) {
		t.Fatalf("victim below the floor must be protected")
	}
	if victimProtected(101, 100) {
		t.Fatalf("victim above the floor must be robbable")
	}
}

func TestRobberyTakeNothingAboveFloor(t *testing.T) {
	rng := &scriptRand{}
	if got := robberyTake(100, 100, 50, 300, rng); got != 0 {
		t.Fatalf("got=%d want 0", got)
	}
	if got := robberyTake(40, 100, 50, 300, rng); got != 0 {
		t.Fatalf("got=%d want 0", got)
	}
}

func TestRobberyTakeNeverExceedsBounds(t *testing.T) {
	for _, draw := range []int{0, 125, 250, 10_000} {
		rng := &scriptRand{ints: []int{draw}}
		got := robberyTake(5_000, 100, 50, 300, rng)
		if got < 50 || got > 300 {
			t.Fatalf("draw=%d got=%d outside 50..300", draw, got)
		}
	}
}

func TestDefaultConfigRobberyValues(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.RobberySuccessRate != 0.30 || cfg.RobberyCooldownHours != 6.0 {
		t.Fatalf("rate=%v cooldown=%v", cfg.RobberySuccessRate, cfg.RobberyCooldownHours)
	}
	if cfg.RobberyMinAmount != 50 || cfg.RobberyMaxAmount != 300 {
		t.Fatalf("amounts %d..%d", cfg.RobberyMinAmount, cfg.RobberyMaxAmount)
	}
	if cfg.RobberyLevelRequired != 5 || cfg.RobberyProtectionFloor != 100 || cfg.RobberyFailurePenalty != 20 {
		t.Fatalf("gates: %+v", cfg)
	}
}

func TestDepositBounds(t *testing.T) {
	s := &Service{cfg: DefaultConfig()}
	if d := s.checkDepositBounds(5); d == nil || d.Code != DeclineBelowMinimum || d.AmountShort != 5 {
		t.Fatalf("below minimum: %+v", d)
	}
	if d := s.checkDepositBounds(100_001); d == nil || d.Code != DeclineAboveMaximum {
		t.Fatalf("above maximum: %+v", d)
	}
	if d := s.checkDepositBounds(10); d != nil {
		t.Fatalf("boundary amount declined: %+v", d)
	}
	if d := s.checkDepositBounds(100_000); d != nil {
		t.Fatalf("boundary amount declined: %+v", d)
	}
}
