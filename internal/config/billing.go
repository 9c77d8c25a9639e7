package config

import (
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// BillingConfig carries operator-tunable billing policy. Everything here
// has a safe default so the binary runs without a billing.yml present.
type BillingConfig struct {
	// DefaultCurrency is assigned to payments created without one.
	DefaultCurrency string `mapstructure:"defaultCurrency"`
	// ConflictWindowDays bounds the scheduled-date probe of the conflict
	// resolver.
	ConflictWindowDays int `mapstructure:"conflictWindowDays"`
	// MaxScheduleAheadDays rejects payments scheduled further out than this.
	MaxScheduleAheadDays int `mapstructure:"maxScheduleAheadDays"`
	// GenerateHorizonMonths is how far ahead the scheduler asks the charge
	// generator to materialize periods.
	GenerateHorizonMonths int `mapstructure:"generateHorizonMonths"`
}

func DefaultBillingConfig() BillingConfig {
	return BillingConfig{
		DefaultCurrency:       "IDR",
		ConflictWindowDays:    30,
		MaxScheduleAheadDays:  365,
		GenerateHorizonMonths: 3,
	}
}

func (c BillingConfig) withDefaults() BillingConfig {
	defaults := DefaultBillingConfig()
	if strings.TrimSpace(c.DefaultCurrency) == "" {
		c.DefaultCurrency = defaults.DefaultCurrency
	}
	if c.ConflictWindowDays <= 0 {
		c.ConflictWindowDays = defaults.ConflictWindowDays
	}
	if c.MaxScheduleAheadDays <= 0 {
		c.MaxScheduleAheadDays = defaults.MaxScheduleAheadDays
	}
	if c.GenerateHorizonMonths <= 0 {
		c.GenerateHorizonMonths = defaults.GenerateHorizonMonths
	}
	return c
}

// BillingConfigHolder exposes the current billing policy and hot-reloads it
// when the config file changes on disk.
type BillingConfigHolder struct {
	current atomic.Value // holds BillingConfig
}

func NewBillingConfigHolder() (*BillingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/patungan/config") // Volume-mounted config
	v.AddConfigPath("/etc/patungan")            // System config
	v.AddConfigPath(".")                        // Current directory (dev mode)

	// env hanya untuk override (optional)
	v.SetEnvPrefix("PATUNGAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	holder := &BillingConfigHolder{}
	if err := holder.reload(v); err != nil {
		return nil, err
	}

	if fileFound {
		v.OnConfigChange(func(e fsnotify.Event) {
			if err := holder.reload(v); err != nil {
				log.Printf("billing config reload failed: %v", err)
			}
		})
		v.WatchConfig()
	}

	return holder, nil
}

func (h *BillingConfigHolder) reload(v *viper.Viper) error {
	var cfg BillingConfig
	if err := v.UnmarshalKey("billing", &cfg); err != nil {
		return err
	}
	h.current.Store(cfg.withDefaults())
	return nil
}

// StaticBillingConfigHolder pins a fixed policy, bypassing file watching.
func StaticBillingConfigHolder(cfg BillingConfig) *BillingConfigHolder {
	holder := &BillingConfigHolder{}
	holder.current.Store(cfg.withDefaults())
	return holder
}

// Current returns the active billing policy.
func (h *BillingConfigHolder) Current() BillingConfig {
	if h == nil {
		return DefaultBillingConfig()
	}
	if cfg, ok := h.current.Load().(BillingConfig); ok {
		return cfg
	}
	return DefaultBillingConfig()
}
