package main

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
)

var (
	accent  = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
	warn    = color.New(color.FgYellow, color.Bold)
	danger  = color.New(color.FgRed, color.Bold)
	neutral = color.New(color.FgHiWhite)
)

// declined pulls the decline block out of a response, if any.
func declined(out map[string]any) (map[string]any, bool) {
	d, ok := out["declined"].(map[string]any)
	return d, ok
}

func printDecline(d map[string]any) {
	warn.Printf("declined: %v\n", d["message"])
}

func num(v any) int64 {
	f, _ := v.(float64)
	return int64(f)
}

func renderOutcome(label string, out map[string]any) {
	if d, ok := declined(out); ok {
		printDecline(d)
		return
	}
	success.Printf("%s ok.\n", label)
	renderKV("", out)
}

func renderKV(title string, out map[string]any) {
	if title != "" {
		accent.Println(title)
	}
	keys := make([]string, 0, len(out))
	for k := range out {
		if k == "declined" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		neutral.Printf("  %-24s %v\n", k, out[k])
	}
}

func renderCheckin(out map[string]any) {
	if d, ok := declined(out); ok {
		printDecline(d)
		return
	}
	success.Printf("Checked in! +%d coins (streak %d)\n", num(out["total_reward"]), num(out["streak"]))
	neutral.Printf("  base %d, random %d, streak bonus %d\n",
		num(out["base_reward"]), num(out["random_bonus"]), num(out["streak_bonus"]))
	neutral.Printf("  cash now %d\n", num(out["cash"]))
}

func renderWork(out map[string]any) {
	if d, ok := declined(out); ok {
		printDecline(d)
		return
	}
	success.Printf("Worked as %v: +%d coins, +%d xp\n",
		out["job_name"], num(out["total_earned"]), num(out["exp_gained"]))
	if lucky, _ := out["luck_triggered"].(bool); lucky {
		accent.Printf("  lucky shift! bonus %d\n", num(out["luck_bonus"]))
	}
	if up, _ := out["level_up"].(bool); up {
		accent.Printf("  level up! now level %d\n", num(out["level"]))
	}
	neutral.Printf("  shifts left today: %d\n", num(out["quota_remaining"]))
}

func renderRob(out map[string]any) {
	if d, ok := declined(out); ok {
		printDecline(d)
		return
	}
	if ok, _ := out["success"].(bool); ok {
		success.Printf("Robbed %v for %d coins\n", out["victim_name"], num(out["amount"]))
	} else {
		danger.Printf("Caught! Paid %v a %d coin penalty\n", out["victim_name"], num(out["amount"]))
	}
	neutral.Printf("  your cash: %d\n", num(out["robber_cash"]))
}

func renderJobs(out map[string]any) {
	accent.Printf("Jobs (level %d, %d/%d shifts used)\n",
		num(out["level"]), num(out["quota_used"]), num(out["quota_limit"]))
	jobs, _ := out["jobs"].([]any)
	for _, j := range jobs {
		job, _ := j.(map[string]any)
		if job == nil {
			continue
		}
		line := fmt.Sprintf("  %-14v %4d-%-4d coins  lvl %-3d %+3dxp",
			job["name"], num(job["min_salary"]), num(job["max_salary"]),
			num(job["level_required"]), num(job["exp_reward"]))
		switch {
		case job["available"] == true:
			success.Println(line)
		case job["unlocked"] == true:
			warn.Println(line + "  (cooling down)")
		default:
			neutral.Println(line + "  (locked)")
		}
	}
}

func renderTop(out map[string]any) {
	accent.Printf("Top by %v\n", out["metric"])
	entries, _ := out["entries"].([]any)
	for _, e := range entries {
		row, _ := e.(map[string]any)
		if row == nil {
			continue
		}
		neutral.Printf("  %2d. %-20v %10d  (lvl %d)\n",
			num(row["rank"]), row["display_name"], num(row["value"]), num(row["level"]))
	}
}
