package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"commerce-service-go/internal/config"
	"commerce-service-go/internal/models"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// PolicyFile is the YAML layout of a policy override. Omitted keys keep the base value.
type PolicyFile struct {
	AllowedCurrencies []string `yaml:"allowed_currencies"`
	MaxWishlistItems  int      `yaml:"max_wishlist_items"`
	MaxSharedUsers    int      `yaml:"max_shared_users"`
}

// LoadPolicy reads policyFile and overlays it on base
func LoadPolicy(policyFile string, base models.Policy) (models.Policy, error) {
	var policyPath string
	if filepath.IsAbs(policyFile) {
		policyPath = policyFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return base, fmt.Errorf("failed to get working directory: %w", err)
		}
		policyPath = filepath.Join(wd, policyFile)
	}

	data, err := os.ReadFile(policyPath)
	if err != nil {
		return base, fmt.Errorf("unable to read %s: %w", policyFile, err)
	}

	var file PolicyFile
	if err := yaml.UnmarshalStrict(data, &file); err != nil {
		return base, fmt.Errorf("unable to parse %s: %w", policyFile, err)
	}

	policy := base
	if len(file.AllowedCurrencies) > 0 {
		policy.AllowedCurrencies = make([]string, 0, len(file.AllowedCurrencies))
		for i, c := range file.AllowedCurrencies {
			code := strings.ToUpper(strings.TrimSpace(c))
			if code == "" {
				return base, fmt.Errorf("currency at index %d is empty", i)
			}
			policy.AllowedCurrencies = append(policy.AllowedCurrencies, code)
		}
	}
	if file.MaxWishlistItems != 0 {
		policy.MaxWishlistItems = file.MaxWishlistItems
	}
	if file.MaxSharedUsers != 0 {
		policy.MaxSharedUsers = file.MaxSharedUsers
	}

	if err := config.ValidatePolicy(policy); err != nil {
		return base, fmt.Errorf("invalid policy in %s: %w", policyFile, err)
	}
	return policy, nil
}

// ApplyPolicyFile replaces cfg.Policy with the overlay from cfg.PolicyFile, if one is set
func ApplyPolicyFile(cfg *models.Config) error {
	if cfg.PolicyFile == "" {
		return nil
	}
	policy, err := LoadPolicy(cfg.PolicyFile, cfg.Policy)
	if err != nil {
		return err
	}
	zap.L().Info("Loaded policy file",
		zap.String("file", cfg.PolicyFile),
		zap.Strings("allowed_currencies", policy.AllowedCurrencies),
		zap.Int("max_wishlist_items", policy.MaxWishlistItems),
		zap.Int("max_shared_users", policy.MaxSharedUsers))
	cfg.Policy = policy
	cfg.PolicyFile = ""
	return nil
}
