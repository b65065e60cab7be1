package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Open-item effects a category can have on a Financial posting.
const (
	OpenItemNone       = "none"
	OpenItemOpenDebit  = "open_debit"
	OpenItemOpenCredit = "open_credit"
	OpenItemClose      = "close"
)

// VAT registers a category can feed.
const (
	VatRegisterNone      = ""
	VatRegisterPurchases = "purchases"
	VatRegisterSales     = "sales"
)

// CategoryPolicy holds the per-category posting rules.
type CategoryPolicy struct {
	VatRequired bool   `mapstructure:"vatRequired" yaml:"vatRequired"`
	OpenItem    string `mapstructure:"openItem" yaml:"openItem"`
	VatRegister string `mapstructure:"vatRegister" yaml:"vatRegister"`
}

// PostingPolicy is the configurable part of the posting state machine.
type PostingPolicy struct {
	EnforceBalance bool                      `mapstructure:"enforceBalance" yaml:"enforceBalance"`
	Categories     map[string]CategoryPolicy `mapstructure:"categories" yaml:"categories"`
}

// Category returns the rules for a category; unknown categories have no side effects.
func (p PostingPolicy) Category(name string) CategoryPolicy {
	policy, ok := p.Categories[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return CategoryPolicy{OpenItem: OpenItemNone}
	}
	if policy.OpenItem == "" {
		policy.OpenItem = OpenItemNone
	}
	return policy
}

// DefaultPostingPolicy mirrors the rules most companies run with.
// Corrispettivi (retail receipts) feed the sales register without a mandatory breakdown.
func DefaultPostingPolicy() PostingPolicy {
	return PostingPolicy{
		EnforceBalance: true,
		Categories: map[string]CategoryPolicy{
			"purchases":     {VatRequired: true, OpenItem: OpenItemOpenDebit, VatRegister: VatRegisterPurchases},
			"sales":         {VatRequired: true, OpenItem: OpenItemOpenCredit, VatRegister: VatRegisterSales},
			"payments":      {OpenItem: OpenItemClose},
			"corrispettivi": {OpenItem: OpenItemNone, VatRegister: VatRegisterSales},
			"generic":       {OpenItem: OpenItemNone},
		},
	}
}

// PostingPolicyHolder serves the current policy and swaps it on file changes.
type PostingPolicyHolder struct {
	current atomic.Value // holds PostingPolicy
}

// NewStaticPostingPolicy returns a holder that never reloads.
func NewStaticPostingPolicy(policy PostingPolicy) *PostingPolicyHolder {
	holder := &PostingPolicyHolder{}
	holder.current.Store(policy)
	return holder
}

func NewPostingPolicyHolder(cfg Config, log *zap.Logger) (*PostingPolicyHolder, error) {
	v := viper.New()

	if cfg.PostingPolicyPath != "" {
		v.SetConfigFile(cfg.PostingPolicyPath)
	} else {
		v.SetConfigName("posting")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/partita")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("PARTITA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read posting policy: %w", err)
		}
		log.Info("posting policy file not found, using defaults")
		return NewStaticPostingPolicy(DefaultPostingPolicy()), nil
	}

	policy, err := decodePostingPolicy(v)
	if err != nil {
		return nil, err
	}

	holder := NewStaticPostingPolicy(policy)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodePostingPolicy(v)
		if err != nil {
			log.Warn("posting policy reload ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("posting policy reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

// Policy returns the active policy.
func (h *PostingPolicyHolder) Policy() PostingPolicy {
	return h.current.Load().(PostingPolicy)
}

// categoryOverride tracks which fields a file sets so unset ones keep their defaults.
type categoryOverride struct {
	VatRequired *bool   `mapstructure:"vatRequired"`
	OpenItem    *string `mapstructure:"openItem"`
	VatRegister *string `mapstructure:"vatRegister"`
}

type policyOverride struct {
	EnforceBalance *bool                       `mapstructure:"enforceBalance"`
	Categories     map[string]categoryOverride `mapstructure:"categories"`
}

func decodePostingPolicy(v *viper.Viper) (PostingPolicy, error) {
	var override policyOverride
	if err := v.UnmarshalKey("posting", &override); err != nil {
		return PostingPolicy{}, fmt.Errorf("decode posting policy: %w", err)
	}
	policy := mergePostingPolicy(DefaultPostingPolicy(), override)
	if err := validatePostingPolicy(policy); err != nil {
		return PostingPolicy{}, err
	}
	return policy, nil
}

func mergePostingPolicy(base PostingPolicy, override policyOverride) PostingPolicy {
	if override.EnforceBalance != nil {
		base.EnforceBalance = *override.EnforceBalance
	}
	for name, fields := range override.Categories {
		key := strings.ToLower(strings.TrimSpace(name))
		rules := base.Categories[key]
		if fields.VatRequired != nil {
			rules.VatRequired = *fields.VatRequired
		}
		if fields.OpenItem != nil {
			rules.OpenItem = strings.TrimSpace(*fields.OpenItem)
		}
		if fields.VatRegister != nil {
			rules.VatRegister = strings.TrimSpace(*fields.VatRegister)
		}
		base.Categories[key] = rules
	}
	return base
}

func validatePostingPolicy(policy PostingPolicy) error {
	if len(policy.Categories) == 0 {
		return errors.New("posting.categories cannot be empty")
	}
	for name, rules := range policy.Categories {
		switch rules.OpenItem {
		case "", OpenItemNone, OpenItemOpenDebit, OpenItemOpenCredit, OpenItemClose:
		default:
			return fmt.Errorf("posting.categories.%s.openItem: unknown value %q", name, rules.OpenItem)
		}
		switch rules.VatRegister {
		case VatRegisterNone, VatRegisterPurchases, VatRegisterSales:
		default:
			return fmt.Errorf("posting.categories.%s.vatRegister: unknown value %q", name, rules.VatRegister)
		}
	}
	return nil
}
