package secrets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeVault struct {
	values map[string]string
	calls  int
}

func (f *fakeVault) GetSecret(_ context.Context, name, _ string, _ *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error) {
	f.calls++
	v, ok := f.values[name]
	if !ok {
		return azsecrets.GetSecretResponse{}, errors.New("SecretNotFound")
	}
	return azsecrets.GetSecretResponse{Secret: azsecrets.Secret{Value: &v}}, nil
}

func TestVaultClient_Cache(t *testing.T) {
	vault := &fakeVault{values: map[string]string{"storage-connection-string": "conn"}}
	client := newVaultClient(vault, &VaultConfig{CacheEnabled: true, CacheTTL: time.Minute}, zap.NewNop())

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	client.cache.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		v, err := client.GetSecret(context.Background(), "storage-connection-string")
		require.NoError(t, err)
		assert.Equal(t, "conn", v)
	}
	assert.Equal(t, 1, vault.calls)

	now = now.Add(time.Minute)
	_, err := client.GetSecret(context.Background(), "storage-connection-string")
	require.NoError(t, err)
	assert.Equal(t, 2, vault.calls, "expired entries are fetched again")
}

func TestVaultClient_NoCache(t *testing.T) {
	vault := &fakeVault{values: map[string]string{"s3-access-key-id": "AKID"}}
	client := newVaultClient(vault, &VaultConfig{}, zap.NewNop())

	for i := 0; i < 2; i++ {
		_, err := client.GetSecret(context.Background(), "s3-access-key-id")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, vault.calls)

	_, err := client.GetSecret(context.Background(), "missing")
	assert.ErrorContains(t, err, "failed to get secret 'missing'")
}

func TestProvider_Vault(t *testing.T) {
	vault := &fakeVault{values: map[string]string{"POSTGRES-MAIN-PASSWORD": "from-vault"}}
	p := &Provider{source: SourceVault, fetch: newVaultClient(vault, &VaultConfig{}, zap.NewNop()), logger: zap.NewNop()}

	t.Setenv("DATABASE_PASSWORD", "")
	v, err := p.GetSecretOrEnv(context.Background(), "POSTGRES-MAIN-PASSWORD", "DATABASE_PASSWORD")
	require.NoError(t, err)
	assert.Equal(t, "from-vault", v)
	assert.True(t, p.IsVaultEnabled())
}
