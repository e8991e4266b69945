package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// RatingPolicy controls rating validation and aggregate serving behavior.
// It is hot-reloadable so score bounds or cache staleness can be tuned
// without a restart.
type RatingPolicy struct {
	MinScore int `mapstructure:"minScore"`
	MaxScore int `mapstructure:"maxScore"`

	// AggregateCacheTTLSeconds bounds aggregate staleness. Writes still
	// invalidate synchronously; the TTL only covers read-through entries.
	AggregateCacheTTLSeconds int `mapstructure:"aggregateCacheTTLSeconds"`

	PublicRatePerSecond float64 `mapstructure:"publicRatePerSecond"`
	PublicRateBurst     int     `mapstructure:"publicRateBurst"`
}

// AggregateCacheTTL returns the cache TTL as a duration.
func (p RatingPolicy) AggregateCacheTTL() time.Duration {
	return time.Duration(p.AggregateCacheTTLSeconds) * time.Second
}

// DefaultRatingPolicy returns the policy used when no ratings.yml exists.
func DefaultRatingPolicy() RatingPolicy {
	return RatingPolicy{
		MinScore:                 1,
		MaxScore:                 5,
		AggregateCacheTTLSeconds: 60,
		PublicRatePerSecond:      20,
		PublicRateBurst:          40,
	}
}

// RatingPolicyHolder exposes the current rating policy and reloads it on
// config file changes.
type RatingPolicyHolder struct {
	current atomic.Value // holds RatingPolicy
}

// NewRatingPolicyHolder loads ratings.yml and watches it for changes.
func NewRatingPolicyHolder() (*RatingPolicyHolder, error) {
	v := viper.New()

	v.SetConfigName("ratings")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/ratewise/config")
	v.AddConfigPath("/etc/ratewise")
	v.AddConfigPath(".")

	v.SetEnvPrefix("RATEWISE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultRatingPolicy()
	v.SetDefault("ratings.minScore", defaults.MinScore)
	v.SetDefault("ratings.maxScore", defaults.MaxScore)
	v.SetDefault("ratings.aggregateCacheTTLSeconds", defaults.AggregateCacheTTLSeconds)
	v.SetDefault("ratings.publicRatePerSecond", defaults.PublicRatePerSecond)
	v.SetDefault("ratings.publicRateBurst", defaults.PublicRateBurst)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var policy RatingPolicy
	if err := v.UnmarshalKey("ratings", &policy); err != nil {
		return nil, err
	}
	if err := validateRatingPolicy(policy); err != nil {
		return nil, err
	}

	holder := &RatingPolicyHolder{}
	holder.current.Store(policy)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated RatingPolicy
		if err := v.UnmarshalKey("ratings", &updated); err != nil {
			log.Printf("[rating-policy] reload failed: %v", err)
			return
		}
		if err := validateRatingPolicy(updated); err != nil {
			log.Printf("[rating-policy] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[rating-policy] reloaded from %s", e.Name)
	})

	return holder, nil
}

// Get returns the currently active policy.
func (h *RatingPolicyHolder) Get() RatingPolicy {
	return h.current.Load().(RatingPolicy)
}

// StaticRatingPolicyHolder returns a holder pinned to the given policy.
// Intended for tests.
func StaticRatingPolicyHolder(policy RatingPolicy) *RatingPolicyHolder {
	holder := &RatingPolicyHolder{}
	holder.current.Store(policy)
	return holder
}

func validateRatingPolicy(policy RatingPolicy) error {
	if policy.MinScore < 0 || policy.MaxScore <= policy.MinScore {
		return errors.New("ratings score bounds must satisfy 0 <= minScore < maxScore")
	}
	if policy.AggregateCacheTTLSeconds < 0 {
		return errors.New("ratings.aggregateCacheTTLSeconds cannot be negative")
	}
	if policy.PublicRatePerSecond <= 0 || policy.PublicRateBurst <= 0 {
		return errors.New("ratings public rate limit must be positive")
	}
	return nil
}
