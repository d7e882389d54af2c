package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Veraticus/shadow-payroll/internal/calc"
	"github.com/Veraticus/shadow-payroll/internal/common"
	"github.com/Veraticus/shadow-payroll/internal/llm"
	"github.com/Veraticus/shadow-payroll/internal/model"
	"github.com/spf13/viper"
)

// FXSettings configures exchange rate lookup.
type FXSettings struct {
	URL         string
	Timeout     time.Duration
	CacheTTL    time.Duration
	DefaultRate float64
}

// EstimationSettings configures the estimation call around the provider client.
type EstimationSettings struct {
	CacheTTL    time.Duration
	RetryDelay  time.Duration
	MaxAttempts int
}

// CacheSettings selects the response cache backend.
type CacheSettings struct {
	Backend string
	Path    string
}

// ScenarioSettings bounds the comparison set.
type ScenarioSettings struct {
	Capacity    int
	EvictOldest bool
}

// TelemetrySettings configures trace export.
type TelemetrySettings struct {
	OTLPEndpoint string
	ServiceName  string
}

// Settings is the read-only configuration shared by every command.
type Settings struct {
	Cache         CacheSettings
	Telemetry     TelemetrySettings
	FX            FXSettings
	LLM           llm.Config
	Limits        model.Limits
	Estimation    EstimationSettings
	Scenarios     ScenarioSettings
	Risk          calc.Thresholds
	Contributions calc.ContributionRates
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.timeout", 30*time.Second)
	v.SetDefault("llm.cache_ttl", time.Hour)
	v.SetDefault("llm.max_attempts", 1)
	v.SetDefault("llm.retry_delay", time.Second)
	v.SetDefault("llm.rate_limit", 60)

	v.SetDefault("fx.url", "https://open.er-api.com/v6/latest/USD")
	v.SetDefault("fx.timeout", 5*time.Second)
	v.SetDefault("fx.cache_ttl", time.Hour)
	v.SetDefault("fx.default_rate", 1000.0)

	limits := model.DefaultLimits()
	v.SetDefault("limits.max_salary", limits.MaxSalary)
	v.SetDefault("limits.max_benefit", limits.MaxBenefit)
	v.SetDefault("limits.max_fx_rate", limits.MaxFXRate)
	v.SetDefault("limits.min_duration", limits.MinDuration)
	v.SetDefault("limits.max_duration", limits.MaxDuration)
	v.SetDefault("limits.max_dependents", limits.MaxDependents)

	risk := calc.DefaultThresholds()
	v.SetDefault("risk.low_days", risk.LowDays)
	v.SetDefault("risk.medium_window_days", risk.MediumWindowDays)

	rates := calc.DefaultContributionRates()
	v.SetDefault("contributions.employee_rate", rates.Employee)
	v.SetDefault("contributions.employer_rate", rates.Employer)

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.path", "~/.local/share/shadowpay/shadowpay.db")

	v.SetDefault("scenarios.capacity", 3)
	v.SetDefault("scenarios.evict_oldest", false)

	v.SetDefault("telemetry.service_name", "shadowpay")
}

// Load assembles Settings from v. Keys missing from v fall back to SetDefaults values.
func Load(v *viper.Viper) (Settings, error) {
	SetDefaults(v)

	s := Settings{
		LLM: llm.Config{
			Provider:    strings.ToLower(v.GetString("llm.provider")),
			Model:       v.GetString("llm.model"),
			BaseURL:     v.GetString("llm.base_url"),
			Temperature: v.GetFloat64("llm.temperature"),
			MaxTokens:   v.GetInt("llm.max_tokens"),
			Timeout:     v.GetDuration("llm.timeout"),
			RateLimit:   v.GetInt("llm.rate_limit"),
		},
		Estimation: EstimationSettings{
			CacheTTL:    v.GetDuration("llm.cache_ttl"),
			MaxAttempts: v.GetInt("llm.max_attempts"),
			RetryDelay:  v.GetDuration("llm.retry_delay"),
		},
		FX: FXSettings{
			URL:         v.GetString("fx.url"),
			Timeout:     v.GetDuration("fx.timeout"),
			CacheTTL:    v.GetDuration("fx.cache_ttl"),
			DefaultRate: v.GetFloat64("fx.default_rate"),
		},
		Limits: model.Limits{
			Currencies:    DisplayCurrencies,
			MaxSalary:     v.GetFloat64("limits.max_salary"),
			MaxBenefit:    v.GetFloat64("limits.max_benefit"),
			MaxFXRate:     v.GetFloat64("limits.max_fx_rate"),
			MinDuration:   v.GetInt("limits.min_duration"),
			MaxDuration:   v.GetInt("limits.max_duration"),
			MaxDependents: v.GetInt("limits.max_dependents"),
		},
		Risk: calc.Thresholds{
			LowDays:          v.GetInt("risk.low_days"),
			MediumWindowDays: v.GetInt("risk.medium_window_days"),
		},
		Contributions: calc.ContributionRates{
			Employee: v.GetFloat64("contributions.employee_rate"),
			Employer: v.GetFloat64("contributions.employer_rate"),
		},
		Cache: CacheSettings{
			Backend: strings.ToLower(v.GetString("cache.backend")),
			Path:    ExpandPath(v.GetString("cache.path")),
		},
		Scenarios: ScenarioSettings{
			Capacity:    v.GetInt("scenarios.capacity"),
			EvictOldest: v.GetBool("scenarios.evict_oldest"),
		},
		Telemetry: TelemetrySettings{
			OTLPEndpoint: v.GetString("telemetry.otlp_endpoint"),
			ServiceName:  v.GetString("telemetry.service_name"),
		},
	}

	switch s.LLM.Provider {
	case "openai":
		s.LLM.APIKey = firstNonEmpty(v.GetString("llm.openai_api_key"), os.Getenv("OPENAI_API_KEY"))
		if s.LLM.Model == "" {
			s.LLM.Model = "gpt-4o"
		}
	case "anthropic":
		s.LLM.APIKey = firstNonEmpty(v.GetString("llm.anthropic_api_key"), os.Getenv("ANTHROPIC_API_KEY"))
		if s.LLM.Model == "" {
			s.LLM.Model = "claude-sonnet-4-5"
		}
	default:
		return Settings{}, fmt.Errorf("%w: unsupported LLM provider %q", common.ErrInvalidConfig, s.LLM.Provider)
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks values that would make the calculator misbehave.
func (s Settings) Validate() error {
	switch {
	case s.FX.DefaultRate <= 0:
		return fmt.Errorf("%w: fx.default_rate must be positive", common.ErrInvalidConfig)
	case s.Limits.MinDuration > s.Limits.MaxDuration:
		return fmt.Errorf("%w: limits.min_duration exceeds limits.max_duration", common.ErrInvalidConfig)
	case s.Risk.LowDays <= 0 || s.Risk.MediumWindowDays < 0:
		return fmt.Errorf("%w: risk thresholds must be positive", common.ErrInvalidConfig)
	case s.Contributions.Employee < 0 || s.Contributions.Employer < 0:
		return fmt.Errorf("%w: contribution rates must not be negative", common.ErrInvalidConfig)
	case s.Scenarios.Capacity <= 0:
		return fmt.Errorf("%w: scenarios.capacity must be positive", common.ErrInvalidConfig)
	}

	switch s.Cache.Backend {
	case "memory", "sqlite", "none":
	default:
		return fmt.Errorf("%w: unknown cache.backend %q", common.ErrInvalidConfig, s.Cache.Backend)
	}

	return nil
}

// RequireAPIKey reports a missing provider credential.
func (s Settings) RequireAPIKey() error {
	if s.LLM.APIKey != "" {
		return nil
	}
	env := "OPENAI_API_KEY"
	if s.LLM.Provider == "anthropic" {
		env = "ANTHROPIC_API_KEY"
	}
	return common.NewUserError(
		fmt.Sprintf("%s API key not found in config or %s environment variable", s.LLM.Provider, env),
		common.ErrMissingConfig)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
