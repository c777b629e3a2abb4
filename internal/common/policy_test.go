package common

import (
	"os"
	"path/filepath"
	"testing"

	"commerce-service-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePolicy(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadPolicy_Overlay(t *testing.T) {
	path := writePolicy(t, "allowed_currencies: [usd, jpy]\nmax_wishlist_items: 20\n")

	policy, err := LoadPolicy(path, models.DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, []string{"USD", "JPY"}, policy.AllowedCurrencies)
	assert.Equal(t, 20, policy.MaxWishlistItems)
	assert.Equal(t, 50, policy.MaxSharedUsers)
}

func TestLoadPolicy_Errors(t *testing.T) {
	base := models.DefaultPolicy()

	_, err := LoadPolicy(filepath.Join(t.TempDir(), "missing.yaml"), base)
	assert.Error(t, err)

	_, err = LoadPolicy(writePolicy(t, "max_wishlist_items: [1, 2]\n"), base)
	assert.Error(t, err)

	_, err = LoadPolicy(writePolicy(t, "unknown_key: 1\n"), base)
	assert.Error(t, err)

	_, err = LoadPolicy(writePolicy(t, "allowed_currencies: [dollars]\n"), base)
	assert.Error(t, err)

	_, err = LoadPolicy(writePolicy(t, "max_shared_users: -1\n"), base)
	assert.Error(t, err)
}

func TestApplyPolicyFile(t *testing.T) {
	cfg := &models.Config{Policy: models.DefaultPolicy()}
	require.NoError(t, ApplyPolicyFile(cfg))
	assert.Equal(t, models.DefaultPolicy(), cfg.Policy)

	cfg.PolicyFile = writePolicy(t, "max_shared_users: 5\n")
	require.NoError(t, ApplyPolicyFile(cfg))
	assert.Equal(t, 5, cfg.Policy.MaxSharedUsers)
	assert.Empty(t, cfg.PolicyFile)
}
