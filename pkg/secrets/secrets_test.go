package secrets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"epic-tech-ai/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledManagerReadsEnvironment(t *testing.T) {
	t.Setenv("LLM_API_KEY", "sk-env")

	m, err := NewVaultManager(VaultConfig{}, logger.Discard())
	require.NoError(t, err)

	value, err := m.GetSecret(context.Background(), KeyLLMAPIKey)
	require.NoError(t, err)
	assert.Equal(t, "sk-env", value)

	assert.Equal(t, "fallback", m.GetSecretWithDefault(context.Background(), "missing-key", "fallback"))
}

func TestEnabledManagerRequiresAddressAndToken(t *testing.T) {
	_, err := NewVaultManager(VaultConfig{Enabled: true, Token: "t"}, logger.Discard())
	assert.ErrorIs(t, err, ErrNoVaultAddress)

	_, err = NewVaultManager(VaultConfig{Enabled: true, Address: "http://127.0.0.1:8200"}, logger.Discard())
	assert.ErrorIs(t, err, ErrNoVaultToken)
}

func TestVaultSecretIsReadAndCached(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/v1/secret/data/epic-tech-ai", r.URL.Path)
		assert.Equal(t, "root-token", r.Header.Get("X-Vault-Token"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"data":{"llm_api_key":"sk-vault"}}}`))
	}))
	defer srv.Close()

	m, err := NewVaultManager(VaultConfig{
		Enabled:     true,
		Address:     srv.URL,
		Token:       "root-token",
		SecretsPath: "epic-tech-ai",
	}, logger.Discard())
	require.NoError(t, err)
	defer m.Close()

	for i := 0; i < 2; i++ {
		value, err := m.GetSecret(context.Background(), KeyLLMAPIKey)
		require.NoError(t, err)
		assert.Equal(t, "sk-vault", value)
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestVaultMissingKeyFallsBackToEnvironment(t *testing.T) {
	t.Setenv("LLM_API_KEY", "sk-env")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"data":{"other":"x"}}}`))
	}))
	defer srv.Close()

	m, err := NewVaultManager(VaultConfig{
		Enabled:    true,
		Address:    srv.URL,
		Token:      "root-token",
	}, logger.Discard())
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, "sk-env", m.GetSecretWithDefault(context.Background(), KeyLLMAPIKey, ""))
}

func TestPackageDefaultsWithoutManager(t *testing.T) {
	SetManager(nil)

	_, err := GetSecret(context.Background(), KeyLLMAPIKey)
	assert.ErrorIs(t, err, ErrManagerNotInitialized)
	assert.Equal(t, "default", GetSecretWithDefault(context.Background(), KeyLLMAPIKey, "default"))
}
