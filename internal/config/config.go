package config

import (
	"fmt"
	"strings"
	"time"

	"lootbot/internal/economy"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Engine holds the tunables that operators override most often. The
// rest of the economy rules keep their defaults.
type Engine struct {
	WorkCooldownMultiplier float64 `env:"LOOTBOT_WORK_COOLDOWN_MULT" envDefault:"1.0"`
	WorkExpMultiplier      float64 `env:"LOOTBOT_WORK_EXP_MULT" envDefault:"1.0"`
	BaseInterestRate       float64 `env:"LOOTBOT_INTEREST_BASE_RATE" envDefault:"0.001"`
	VIPInterestRate        float64 `env:"LOOTBOT_INTEREST_VIP_RATE" envDefault:"0.0015"`
	RobberySuccessRate     float64 `env:"LOOTBOT_ROBBERY_SUCCESS_RATE" envDefault:"0.30"`

	// Timezone fixes the calendar-day boundary for streaks and daily
	// limits. "Local" follows the host.
	Timezone string `env:"LOOTBOT_TIMEZONE" envDefault:"Local"`
}

// EconomyConfig merges the overrides into the default rule set.
func (e Engine) EconomyConfig() (economy.Config, error) {
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return economy.Config{}, fmt.Errorf("load timezone %q: %w", e.Timezone, err)
	}
	cfg := economy.DefaultConfig()
	cfg.WorkCooldownMultiplier = e.WorkCooldownMultiplier
	cfg.WorkExpMultiplier = e.WorkExpMultiplier
	cfg.BaseInterestRate = e.BaseInterestRate
	cfg.VIPInterestRate = e.VIPInterestRate
	cfg.RobberySuccessRate = e.RobberySuccessRate
	cfg.Location = loc
	return cfg, nil
}

type API struct {
	Addr        string `env:"LOOTBOT_API_ADDR" envDefault:":8080"`
	Port        string `env:"PORT"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	Engine Engine
}

func LoadAPI() (API, error) {
	_ = godotenv.Load()
	var cfg API
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	// Platform-assigned PORT wins over the explicit address.
	if p := strings.TrimSpace(cfg.Port); p != "" {
		cfg.Addr = ":" + strings.TrimPrefix(p, ":")
	}
	return cfg, nil
}

type Worker struct {
	DatabaseURL string        `env:"DATABASE_URL,required"`
	AccrueEvery time.Duration `env:"LOOTBOT_ACCRUE_EVERY" envDefault:"24h"`
	RunOnce     bool          `env:"LOOTBOT_WORKER_RUN_ONCE" envDefault:"false"`

	Engine Engine
}

func LoadWorker() (Worker, error) {
	_ = godotenv.Load()
	var cfg Worker
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

type CLI struct {
	APIBaseURL  string `env:"LOOTCTL_API_BASE_URL" envDefault:"http://localhost:8080"`
	UserID      string `env:"LOOTCTL_USER_ID"`
	DisplayName string `env:"LOOTCTL_DISPLAY_NAME"`
}

func LoadCLI() CLI {
	_ = godotenv.Load()
	var cfg CLI
	_ = env.Parse(&cfg)
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	return cfg
}
