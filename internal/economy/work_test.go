package economy

import (
	"context"
	"testing"
)

func TestJobByName(t *testing.T) {
	job, ok := jobByName("programmer")
	if !ok || job.LevelRequired != 10 {
		t.Fatalf("programmer: ok=%v level=%d", ok, job.LevelRequired)
	}
	if _, ok := jobByName("astronaut"); ok {
		t.Fatalf("expected unknown job to miss")
	}
}

func TestWorkUnknownJobDeclines(t *testing.T) {
	s := &Service{cfg: DefaultConfig()}
	res, err := s.Work(context.Background(), "u1", "someone", "astronaut")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Declined == nil || res.Declined.Code != DeclineUnknownJob {
		t.Fatalf("expected unknown_job decline, got %+v", res.Declined)
	}
	// Without reading the work log there is no quota to report.
	if res.QuotaRemaining != 0 || res.QuotaUsed != 0 {
		t.Fatalf("quota reported without consulting the log: %+v", res)
	}
}

func TestJobCatalogSane(t *testing.T) {
	seen := make(map[string]bool, len(jobCatalog))
	for _, job := range jobCatalog {
		if seen[job.Name] {
			t.Fatalf("duplicate job %q", job.Name)
		}
		seen[job.Name] = true
		if job.MinSalary <= 0 || job.MinSalary >= job.MaxSalary {
			t.Fatalf("%s: bad salary range %d..%d", job.Name, job.MinSalary, job.MaxSalary)
		}
		if job.LevelRequired < 1 || job.CooldownHours <= 0 || job.ExpReward <= 0 {
			t.Fatalf("%s: bad gates level=%d cooldown=%v exp=%d",
				job.Name, job.LevelRequired, job.CooldownHours, job.ExpReward)
		}
	}
}

func TestSalaryForNoLuck(t *testing.T) {
	job, _ := jobByName("store clerk")
	rng := &scriptRand{ints: []int{50}, floats: []float64{0.99}}
	pay := salaryFor(job, 5, 1.0, rng)
	if pay.Salary != 150 {
		t.Fatalf("salary=%d want 150", pay.Salary)
	}
	// base 150 at level 5: 150 * 4 * 0.02 = 12
	if pay.LevelBonus != 12 {
		t.Fatalf("level bonus=%d want 12", pay.LevelBonus)
	}
	if pay.LuckTriggered || pay.LuckBonus != 0 {
		t.Fatalf("unexpected luck bonus: %+v", pay)
	}
	if pay.Total != 162 || pay.ExpGained != 10 {
		t.Fatalf("total=%d exp=%d", pay.Total, pay.ExpGained)
	}
}

func TestSalaryForLuckTriggers(t *testing.T) {
	job, _ := jobByName("laborer")
	rng := &scriptRand{ints: []int{40}, floats: []float64{0.05}}
	pay := salaryFor(job, 1, 1.0, rng)
	if pay.Salary != 100 {
		t.Fatalf("salary=%d want 100", pay.Salary)
	}
	if !pay.LuckTriggered || pay.LuckBonus != 50 {
		t.Fatalf("luck: triggered=%v bonus=%d", pay.LuckTriggered, pay.LuckBonus)
	}
	if pay.LevelBonus != 0 {
		t.Fatalf("level 1 should have no level bonus, got %d", pay.LevelBonus)
	}
	if pay.Total != 150 {
		t.Fatalf("total=%d want 150", pay.Total)
	}
}

func TestSalaryForExpMultiplier(t *testing.T) {
	job, _ := jobByName("courier")
	rng := &scriptRand{ints: []int{0}, floats: []float64{0.99}}
	pay := salaryFor(job, 3, 1.5, rng)
	// 15 exp * 1.5 floored
	if pay.ExpGained != 22 {
		t.Fatalf("exp=%d want 22", pay.ExpGained)
	}
}

func TestSalaryForStaysInRange(t *testing.T) {
	job, _ := jobByName("consultant")
	for _, draw := range []int{0, 450, 899, 10_000} {
		rng := &scriptRand{ints: []int{draw}, floats: []float64{0.99}}
		pay := salaryFor(job, 20, 1.0, rng)
		if pay.Salary < job.MinSalary || pay.Salary > job.MaxSalary {
			t.Fatalf("draw=%d salary=%d outside %d..%d", draw, pay.Salary, job.MinSalary, job.MaxSalary)
		}
	}
}
