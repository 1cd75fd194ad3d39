package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// PolicyConfig holds the tunable parts of entitlement evaluation: the legacy
// grandfathering cutoff and the free-tier collection limits. The feature/tier
// table itself is a static code constant and is not configurable here.
type PolicyConfig struct {
	LegacyCutoff   time.Time `mapstructure:"legacyCutoff"`
	FreePipeLimit  int       `mapstructure:"freePipeLimit"`
	FreeBlendLimit int       `mapstructure:"freeBlendLimit"`
}

func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		LegacyCutoff:   time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC),
		FreePipeLimit:  5,
		FreeBlendLimit: 10,
	}
}

func validatePolicyConfig(cfg PolicyConfig) error {
	if cfg.LegacyCutoff.IsZero() {
		return errors.New("policy legacyCutoff is required")
	}
	if cfg.FreePipeLimit <= 0 {
		return errors.New("policy freePipeLimit must be positive")
	}
	if cfg.FreeBlendLimit <= 0 {
		return errors.New("policy freeBlendLimit must be positive")
	}
	return nil
}

// PolicyHolder owns the current policy snapshot. It is constructor-injected
// wherever policy is consumed; there is no package-level state. The snapshot
// swaps atomically on file change or on an explicit Refresh call, and every
// snapshot carries a content fingerprint so callers can detect rollover.
type PolicyHolder struct {
	v       *viper.Viper
	log     *zap.Logger
	current atomic.Value // holds policySnapshot
}

type policySnapshot struct {
	cfg         PolicyConfig
	fingerprint string
}

func NewPolicyHolder(log *zap.Logger) (*PolicyHolder, error) {
	v := viper.New()

	v.SetConfigName("policy")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/briarkeep/config")
	v.AddConfigPath("/etc/briarkeep")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BRIARKEEP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	holder := &PolicyHolder{v: v, log: log.Named("policy")}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	cfg, err := holder.unmarshal()
	if err != nil {
		return nil, err
	}
	holder.store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		if err := holder.Refresh(); err != nil {
			holder.log.Warn("policy reload skipped", zap.String("file", e.Name), zap.Error(err))
		}
	})

	return holder, nil
}

// Refresh re-reads the policy file and swaps in the new snapshot. Invalid
// content leaves the previous snapshot in place.
func (h *PolicyHolder) Refresh() error {
	if err := h.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	cfg, err := h.unmarshal()
	if err != nil {
		return err
	}

	previous := h.Fingerprint()
	h.store(cfg)
	if next := h.Fingerprint(); next != previous {
		h.log.Info("policy refreshed",
			zap.String("previous_fingerprint", previous),
			zap.String("fingerprint", next),
		)
	}
	return nil
}

// Current returns the active policy snapshot.
func (h *PolicyHolder) Current() PolicyConfig {
	return h.current.Load().(policySnapshot).cfg
}

// Fingerprint identifies the active snapshot's content.
func (h *PolicyHolder) Fingerprint() string {
	return h.current.Load().(policySnapshot).fingerprint
}

func (h *PolicyHolder) unmarshal() (PolicyConfig, error) {
	cfg := DefaultPolicyConfig()
	if h.v.IsSet("policy") {
		hook := viper.DecodeHook(mapstructure.StringToTimeHookFunc(time.RFC3339))
		if err := h.v.UnmarshalKey("policy", &cfg, hook); err != nil {
			return PolicyConfig{}, err
		}
	}
	if err := validatePolicyConfig(cfg); err != nil {
		return PolicyConfig{}, err
	}
	return cfg, nil
}

func (h *PolicyHolder) store(cfg PolicyConfig) {
	h.current.Store(policySnapshot{cfg: cfg, fingerprint: fingerprintPolicy(cfg)})
}

func fingerprintPolicy(cfg PolicyConfig) string {
	raw, _ := json.Marshal(struct {
		LegacyCutoff   string `json:"legacyCutoff"`
		FreePipeLimit  int    `json:"freePipeLimit"`
		FreeBlendLimit int    `json:"freeBlendLimit"`
	}{
		LegacyCutoff:   cfg.LegacyCutoff.UTC().Format(time.RFC3339),
		FreePipeLimit:  cfg.FreePipeLimit,
		FreeBlendLimit: cfg.FreeBlendLimit,
	})
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:8])
}
