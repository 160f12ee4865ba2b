package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poco-labs/testnet-env/internal/service"
)

func TestGuessConfigByName(t *testing.T) {
	r := fullStack(t)

	e, err := r.GuessConfig(Query{Name: "ipfs.0"})
	require.NoError(t, err)
	assert.Equal(t, "ipfs.0", e.Name())

	// Name wins over everything else, no further inference.
	e, err = r.GuessConfig(Query{Name: "ipfs.0", Type: service.TypeCore, Hub: hubStandard})
	require.NoError(t, err)
	assert.Equal(t, "ipfs.0", e.Name())

	_, err = r.GuessConfig(Query{Name: "ghost"})
	require.True(t, IsNotFound(err))
}

func TestGuessConfigSingletons(t *testing.T) {
	r := fullStack(t)

	e, err := r.GuessConfig(Query{Type: service.TypeIPFS})
	require.NoError(t, err)
	assert.Equal(t, "ipfs.0", e.Name())

	e, err = r.GuessConfig(Query{Type: service.TypeDocker})
	require.NoError(t, err)
	assert.Equal(t, "docker.0", e.Name())
}

func TestGuessConfigAmbiguousDatabases(t *testing.T) {
	r := fullStack(t)

	// Multiple mongo/redis instances are legal, so type-only lookups
	// return nothing; callers go through GetByHost.
	e, err := r.GuessConfig(Query{Type: service.TypeMongo})
	require.NoError(t, err)
	assert.Nil(t, e)

	e, err = r.GuessConfig(Query{Type: service.TypeRedis})
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestGuessConfigGanacheByChainID(t *testing.T) {
	r := fullStack(t)

	e, err := r.GuessConfig(Query{Type: service.TypeGanache, ChainID: 1337})
	require.NoError(t, err)
	assert.Equal(t, "ganache.0", e.Name())

	_, err = r.GuessConfig(Query{Type: service.TypeGanache, ChainID: 99})
	require.True(t, IsNotFound(err))
}

func TestGuessConfigByHub(t *testing.T) {
	r := fullStack(t)

	e, err := r.GuessConfig(Query{Type: service.TypeCore, Hub: hubStandard})
	require.NoError(t, err)
	assert.Equal(t, "core."+hubStandard, e.Name())

	e, err = r.GuessConfig(Query{Type: service.TypeGanache, Hub: hubStandard})
	require.NoError(t, err)
	assert.Equal(t, "ganache.0", e.Name())
}

func TestGuessConfigByChain(t *testing.T) {
	r := fullStack(t)

	e, err := r.GuessConfig(Query{Type: service.TypeSMS, Chain: "dev"})
	require.NoError(t, err)
	assert.Equal(t, "sms."+hubStandard, e.Name())
}

func TestGuessConfigDefaultChain(t *testing.T) {
	r := fullStack(t)

	// No hub, no chain: the registry's default chain supplies the hub.
	e, err := r.GuessConfig(Query{Type: service.TypeMarket})
	require.NoError(t, err)
	assert.Equal(t, "market.0", e.Name())
}

func TestGuessConfigHubChainConflict(t *testing.T) {
	r := fullStack(t)

	_, err := r.AddGanache("", &service.GanacheConfig{
		Port: 8546, ChainID: 42,
		Deployments: []service.Deployment{{Name: "standard", Asset: service.AssetToken}},
	})
	require.NoError(t, err)

	_, err = r.GuessConfig(Query{Type: service.TypeCore, Hub: "42.standard", Chain: "dev"})
	require.True(t, IsConflict(err))
}

func TestGuessConfigNeedsNameOrType(t *testing.T) {
	r := fullStack(t)
	_, err := r.GuessConfig(Query{})
	require.True(t, IsInvalid(err))
}

func TestGuessHubAlias(t *testing.T) {
	r := fullStack(t)

	alias, err := r.GuessHubAlias(Query{Hub: hubStandard})
	require.NoError(t, err)
	assert.Equal(t, hubStandard, alias)

	alias, err = r.GuessHubAlias(Query{Chain: "dev"})
	require.NoError(t, err)
	assert.Equal(t, hubStandard, alias)

	alias, err = r.GuessHubAlias(Query{})
	require.NoError(t, err)
	assert.Equal(t, hubStandard, alias)

	_, err = r.GuessHubAlias(Query{Hub: "1337.ghost"})
	require.True(t, IsNotFound(err))
}

func TestGetByHost(t *testing.T) {
	r := fullStack(t)

	e, err := r.GetByHost("localhost:5001")
	require.NoError(t, err)
	assert.Equal(t, "ipfs.0", e.Name())

	// URLs normalize down to host:port.
	e, err = r.GetByHost("http://localhost:13000/api")
	require.NoError(t, err)
	assert.Equal(t, "core."+hubStandard, e.Name())

	_, err = r.GetByHost("localhost:1")
	require.True(t, IsNotFound(err))
}

func TestGetByType(t *testing.T) {
	r := fullStack(t)

	mongos := r.GetByType(service.TypeMongo)
	assert.Len(t, mongos, 3)

	assert.Empty(t, r.GetByType(service.TypeWorker))
}
