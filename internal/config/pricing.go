package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// PricingConfig is the pricing policy that can change without a redeploy.
type PricingConfig struct {
	// Scale is the number of fractional digits every money amount is rounded to.
	Scale            int32         `mapstructure:"scale"`
	CostFloorEnabled bool          `mapstructure:"cost_floor_enabled"`
	BatchConcurrency int           `mapstructure:"batch_concurrency"`
	MaxBatchSize     int           `mapstructure:"max_batch_size"`
	CacheTTL         time.Duration `mapstructure:"cache_ttl"`
}

func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		Scale:            2,
		CostFloorEnabled: false,
		BatchConcurrency: 8,
		MaxBatchSize:     200,
		CacheTTL:         30 * time.Second,
	}
}

type PricingConfigHolder struct {
	current atomic.Value // holds PricingConfig
}

// NewPricingConfigHolder reads pricing.yml and keeps watching it for changes.
func NewPricingConfigHolder() (*PricingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("pricing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/pricewise/config")
	v.AddConfigPath("/etc/pricewise")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PRICEWISE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setPricingDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	cfg, err := LoadPricingConfig(v)
	if err != nil {
		return nil, err
	}

	holder := NewStaticPricingConfigHolder(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := LoadPricingConfig(v)
		if err != nil {
			zap.L().Warn("pricing config reload ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.Set(updated)
		zap.L().Info("pricing config reloaded",
			zap.String("file", e.Name),
			zap.Int32("scale", updated.Scale),
			zap.Bool("cost_floor_enabled", updated.CostFloorEnabled),
		)
	})

	return holder, nil
}

// NewStaticPricingConfigHolder returns a holder that never reloads.
func NewStaticPricingConfigHolder(cfg PricingConfig) *PricingConfigHolder {
	holder := &PricingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

// Set swaps in cfg for every later Get.
func (h *PricingConfigHolder) Set(cfg PricingConfig) {
	h.current.Store(cfg)
}

func (h *PricingConfigHolder) Get() PricingConfig {
	if h == nil {
		return DefaultPricingConfig()
	}
	return h.current.Load().(PricingConfig)
}

// LoadPricingConfig decodes and validates the "pricing" key of v.
func LoadPricingConfig(v *viper.Viper) (PricingConfig, error) {
	setPricingDefaults(v)

	var cfg PricingConfig
	if err := v.UnmarshalKey("pricing", &cfg); err != nil {
		return PricingConfig{}, err
	}
	if err := validatePricingConfig(cfg); err != nil {
		return PricingConfig{}, err
	}
	return cfg, nil
}

func setPricingDefaults(v *viper.Viper) {
	defaults := DefaultPricingConfig()
	v.SetDefault("pricing.scale", defaults.Scale)
	v.SetDefault("pricing.cost_floor_enabled", defaults.CostFloorEnabled)
	v.SetDefault("pricing.batch_concurrency", defaults.BatchConcurrency)
	v.SetDefault("pricing.max_batch_size", defaults.MaxBatchSize)
	v.SetDefault("pricing.cache_ttl", defaults.CacheTTL)
}

func validatePricingConfig(cfg PricingConfig) error {
	if cfg.Scale < 0 || cfg.Scale > 8 {
		return fmt.Errorf("pricing.scale must be between 0 and 8, got %d", cfg.Scale)
	}
	if cfg.BatchConcurrency <= 0 {
		return errors.New("pricing.batch_concurrency must be positive")
	}
	if cfg.MaxBatchSize <= 0 {
		return errors.New("pricing.max_batch_size must be positive")
	}
	if cfg.CacheTTL < 0 {
		return errors.New("pricing.cache_ttl cannot be negative")
	}
	return nil
}
