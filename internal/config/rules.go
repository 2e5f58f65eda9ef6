package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// BadgeRule describes one declarative badge condition. Kind selects the
// metric the threshold applies to.
type BadgeRule struct {
	Code        string `mapstructure:"code"`
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
	Kind        string `mapstructure:"kind"`
	Threshold   int64  `mapstructure:"threshold"`
}

const (
	BadgeRuleKindTotalXP = "total_xp"
	BadgeRuleKindStreak  = "streak"
)

type BadgeRulesConfig struct {
	Rules []BadgeRule `mapstructure:"rules"`
}

func DefaultBadgeRulesConfig() BadgeRulesConfig {
	return BadgeRulesConfig{
		Rules: []BadgeRule{
			{
				Code:        "first_100_xp",
				Name:        "Century",
				Description: "Earn your first 100 XP",
				Kind:        BadgeRuleKindTotalXP,
				Threshold:   100,
			},
			{
				Code:        "5_day_streak",
				Name:        "On Fire",
				Description: "Check in five days in a row",
				Kind:        BadgeRuleKindStreak,
				Threshold:   5,
			},
		},
	}
}

// BadgeRulesHolder keeps the active rule set and swaps it atomically on
// config file changes.
type BadgeRulesHolder struct {
	current atomic.Value // holds BadgeRulesConfig
}

func NewBadgeRulesHolder() (*BadgeRulesHolder, error) {
	v := viper.New()

	v.SetConfigName("badges")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/codequest/config")
	v.AddConfigPath("/etc/codequest")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CODEQUEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultBadgeRulesConfig()
		v.SetDefault("badges.rules", defaults.Rules)
	}

	var cfg BadgeRulesConfig
	if err := v.UnmarshalKey("badges", &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Rules) == 0 {
		cfg = DefaultBadgeRulesConfig()
	}
	if err := validateBadgeRules(cfg); err != nil {
		return nil, err
	}

	holder := &BadgeRulesHolder{}
	holder.current.Store(cfg)

	if v.ConfigFileUsed() == "" {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated BadgeRulesConfig
		if err := v.UnmarshalKey("badges", &updated); err != nil {
			log.Printf("[badge-rules] reload failed: %v", err)
			return
		}
		if err := validateBadgeRules(updated); err != nil {
			log.Printf("[badge-rules] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[badge-rules] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticBadgeRulesHolder wraps a fixed rule set with no file watching.
func NewStaticBadgeRulesHolder(cfg BadgeRulesConfig) *BadgeRulesHolder {
	holder := &BadgeRulesHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *BadgeRulesHolder) Get() BadgeRulesConfig {
	return h.current.Load().(BadgeRulesConfig)
}

func validateBadgeRules(cfg BadgeRulesConfig) error {
	if len(cfg.Rules) == 0 {
		return errors.New("badges.rules cannot be empty")
	}
	seen := make(map[string]struct{}, len(cfg.Rules))
	for _, rule := range cfg.Rules {
		code := strings.TrimSpace(rule.Code)
		if code == "" {
			return errors.New("badges.rules requires a code on every rule")
		}
		if _, dup := seen[code]; dup {
			return errors.New("badges.rules contains duplicate code " + code)
		}
		seen[code] = struct{}{}
		switch rule.Kind {
		case BadgeRuleKindTotalXP, BadgeRuleKindStreak:
		default:
			return errors.New("badges.rules has unknown kind " + rule.Kind)
		}
		if rule.Threshold <= 0 {
			return errors.New("badges.rules threshold must be positive for " + code)
		}
	}
	return nil
}
