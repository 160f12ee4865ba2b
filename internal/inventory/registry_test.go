package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poco-labs/testnet-env/internal/machine"
	"github.com/poco-labs/testnet-env/internal/repo"
	"github.com/poco-labs/testnet-env/internal/service"
)

const hubStandard = "1337.standard"

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := New(Options{
		Machines: []machine.Machine{
			{Name: "alice", NetworkIdentity: "10.0.0.5"},
			{Name: "bob", NetworkIdentity: "10.0.0.6"},
		},
		LocalMachine:   "alice",
		DefaultMachine: "alice",
		DefaultChain:   "dev",
	})
	require.NoError(t, err)
	return r
}

// fullStack registers a complete single-hub network in the required
// order.
func fullStack(t *testing.T) *Registry {
	t.Helper()
	r := newRegistry(t)

	_, err := r.AddGanache("", &service.GanacheConfig{
		Port:    8545,
		ChainID: 1337,
		Deployments: []service.Deployment{
			{Name: "standard", Asset: service.AssetToken, KYC: false},
		},
	})
	require.NoError(t, err)

	_, err = r.AddIPFS("", &service.IPFSConfig{Port: 5001})
	require.NoError(t, err)
	_, err = r.AddDocker("", &service.DockerConfig{Port: 2375})
	require.NoError(t, err)

	_, err = r.AddMarket("", &service.MarketConfig{
		API: service.MarketAPIConfig{Port: 3000, Chains: []int{1337}},
	})
	require.NoError(t, err)

	_, err = r.AddSMS("", &service.SMSConfig{Hub: hubStandard, Port: 13300})
	require.NoError(t, err)

	_, err = r.AddResultProxy("", &service.ResultProxyConfig{
		Hub: hubStandard, Port: 13200, MongoHost: "localhost:13202",
	}, &service.MongoConfig{Port: 13202})
	require.NoError(t, err)

	_, err = r.AddBlockchainAdapter("", &service.BlockchainAdapterConfig{
		Hub: hubStandard, Port: 13010, MongoHost: "localhost:13012",
	}, &service.MongoConfig{Port: 13012})
	require.NoError(t, err)

	_, err = r.AddCore("", &service.CoreConfig{
		Hub: hubStandard, Port: 13000, MongoHost: "localhost:13002",
	}, &service.MongoConfig{Port: 13002})
	require.NoError(t, err)

	err = r.AddWorkers(context.Background(), hubStandard,
		repo.Descriptor{Name: "worker"}, "/opt/workers",
		service.PortRange{From: 13100, To: 13102})
	require.NoError(t, err)

	require.NoError(t, r.AddChain("dev", hubStandard))
	return r
}

func TestAddGanacheCreatesHub(t *testing.T) {
	r := newRegistry(t)
	name, err := r.AddGanache("", &service.GanacheConfig{
		Port:    8545,
		ChainID: 1337,
		Deployments: []service.Deployment{
			{Name: "standard", Asset: service.AssetToken, KYC: false},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "ganache.0", name)

	hub, err := r.Hub(hubStandard)
	require.NoError(t, err)
	assert.Equal(t, FlavourStandard, hub.Flavour)
	assert.False(t, hub.Native)
	assert.Equal(t, 1337, hub.ChainID)
	assert.Equal(t, "ganache.0", hub.ChainSimName)
}

func TestHubAliasNeverReused(t *testing.T) {
	r := newRegistry(t)
	deploy := []service.Deployment{{Name: "standard", Asset: service.AssetToken}}
	_, err := r.AddGanache("", &service.GanacheConfig{Port: 8545, ChainID: 1337, Deployments: deploy})
	require.NoError(t, err)

	before := len(r.Entries())
	_, err = r.AddGanache("", &service.GanacheConfig{Port: 8546, ChainID: 1337, Deployments: deploy})
	require.True(t, IsConflict(err))
	assert.Len(t, r.Entries(), before)
}

func TestHubOrderPrecondition(t *testing.T) {
	r := newRegistry(t)

	// Hub-bound services are rejected until their chain simulator runs
	// its deployments.
	_, err := r.AddSMS("", &service.SMSConfig{Hub: hubStandard, Port: 13300})
	require.True(t, IsNotFound(err))
	assert.Empty(t, r.Entries())

	_, err = r.AddGanache("", &service.GanacheConfig{
		Port: 8545, ChainID: 1337,
		Deployments: []service.Deployment{{Name: "standard", Asset: service.AssetToken}},
	})
	require.NoError(t, err)
	_, err = r.AddIPFS("", &service.IPFSConfig{Port: 5001})
	require.NoError(t, err)

	name, err := r.AddSMS("", &service.SMSConfig{Hub: hubStandard, Port: 13300})
	require.NoError(t, err)
	assert.Equal(t, "sms.1337.standard", name)

	// The same hub slot cannot be filled twice.
	_, err = r.AddSMS("sms.second", &service.SMSConfig{Hub: hubStandard, Port: 13301})
	require.True(t, IsConflict(err))
}

func TestDuplicateNameAtomic(t *testing.T) {
	r := fullStack(t)
	before := len(r.Entries())

	_, err := r.AddMongo("ipfs.0", &service.MongoConfig{Port: 27017})
	require.True(t, IsConflict(err))
	assert.Len(t, r.Entries(), before)
}

func TestDuplicateAddressAtomic(t *testing.T) {
	r := fullStack(t)
	before := len(r.Entries())

	// Port 5001 on the default machine is already ipfs.0.
	_, err := r.AddMongo("spare.mongo", &service.MongoConfig{Port: 5001})
	require.True(t, IsConflict(err))
	assert.Len(t, r.Entries(), before)
	_, err = r.Get("spare.mongo")
	require.True(t, IsNotFound(err))
}

func TestMarketRepeatedChainAtomic(t *testing.T) {
	r := newRegistry(t)
	_, err := r.AddGanache("", &service.GanacheConfig{
		Port: 8545, ChainID: 1337,
		Deployments: []service.Deployment{{Name: "standard", Asset: service.AssetToken}},
	})
	require.NoError(t, err)

	// A repeated chain id would collect the same hub twice and break the
	// post-commit slot writes, so it is rejected before any state changes.
	before := len(r.Entries())
	_, err = r.AddMarket("", &service.MarketConfig{
		API: service.MarketAPIConfig{Port: 3000, Chains: []int{1337, 1337}},
	})
	require.True(t, IsInvalid(err))
	assert.Len(t, r.Entries(), before)

	hub, err := r.Hub(hubStandard)
	require.NoError(t, err)
	assert.Empty(t, hub.Market)
}

func TestNonPortableName(t *testing.T) {
	r := newRegistry(t)
	_, err := r.AddMongo("bad name!", &service.MongoConfig{Port: 27017})
	require.True(t, IsInvalid(err))
}

func TestSingletonLeaves(t *testing.T) {
	r := newRegistry(t)
	_, err := r.AddIPFS("", &service.IPFSConfig{Port: 5001})
	require.NoError(t, err)
	_, err = r.AddIPFS("", &service.IPFSConfig{Port: 5002})
	require.True(t, IsConflict(err))
}

func TestBackfilledPeerURLs(t *testing.T) {
	r := fullStack(t)

	adapter, err := r.Get("blockchainadapter." + hubStandard)
	require.NoError(t, err)
	assert.True(t, adapter.Finalized())
	assert.Equal(t, "http://localhost:3000",
		adapter.Resolved().(*service.BlockchainAdapterConfig).MarketAPIURL)

	core, err := r.Get("core." + hubStandard)
	require.NoError(t, err)
	require.True(t, core.Finalized())
	cfg := core.Resolved().(*service.CoreConfig)
	assert.Equal(t, "localhost:5001", cfg.IPFSHost)
	assert.Equal(t, "http://localhost:13300", cfg.SMSURL)
	assert.Equal(t, "http://localhost:13200", cfg.ResultProxyURL)
	assert.Equal(t, "http://localhost:13010", cfg.BlockchainAdapterURL)
}

func TestBackfillMissingPeer(t *testing.T) {
	r := newRegistry(t)
	_, err := r.AddGanache("", &service.GanacheConfig{
		Port: 8545, ChainID: 1337,
		Deployments: []service.Deployment{{Name: "standard", Asset: service.AssetToken}},
	})
	require.NoError(t, err)

	// No market yet: the adapter's market URL cannot be backfilled.
	before := len(r.Entries())
	_, err = r.AddBlockchainAdapter("", &service.BlockchainAdapterConfig{
		Hub: hubStandard, Port: 13010,
	}, nil)
	require.True(t, IsNotFound(err))
	assert.Len(t, r.Entries(), before)
}

func TestCompanionDatabase(t *testing.T) {
	r := newRegistry(t)
	_, err := r.AddGanache("", &service.GanacheConfig{
		Port: 8545, ChainID: 1337,
		Deployments: []service.Deployment{{Name: "standard", Asset: service.AssetToken}},
	})
	require.NoError(t, err)
	_, err = r.AddIPFS("", &service.IPFSConfig{Port: 5001})
	require.NoError(t, err)

	name, err := r.AddResultProxy("", &service.ResultProxyConfig{
		Hub: hubStandard, Port: 13200, MongoHost: "localhost:13202",
	}, &service.MongoConfig{Port: 13202})
	require.NoError(t, err)

	children := r.ChildrenOf(name)
	require.Len(t, children, 1)
	db := children[0]
	assert.Equal(t, name+".mongo", db.Name())
	assert.Equal(t, service.TypeMongo, db.Type())
	assert.False(t, db.Shared())
	assert.Equal(t, "localhost:13202", db.ResolvedAddr())
}

func TestCompanionDatabaseAddressMismatch(t *testing.T) {
	r := newRegistry(t)
	_, err := r.AddGanache("", &service.GanacheConfig{
		Port: 8545, ChainID: 1337,
		Deployments: []service.Deployment{{Name: "standard", Asset: service.AssetToken}},
	})
	require.NoError(t, err)
	_, err = r.AddIPFS("", &service.IPFSConfig{Port: 5001})
	require.NoError(t, err)

	_, err = r.AddResultProxy("", &service.ResultProxyConfig{
		Hub: hubStandard, Port: 13200, MongoHost: "localhost:13202",
	}, &service.MongoConfig{Port: 27017})
	require.True(t, IsInvalid(err))
}

func TestPlaceholderIdempotence(t *testing.T) {
	r := fullStack(t)
	for _, e := range r.Entries() {
		assert.NotContains(t, e.ResolvedAddr(), "${", e.Name())
		host, _ := e.Resolved().Endpoint()
		assert.NotContains(t, host, "${", e.Name())
	}
}

func TestMachinePlacement(t *testing.T) {
	r := newRegistry(t)
	_, err := r.AddGanache("", &service.GanacheConfig{
		Hostname: "${bob}", Port: 8545, ChainID: 1337,
		Deployments: []service.Deployment{{Name: "standard", Asset: service.AssetToken}},
	})
	require.NoError(t, err)
	_, err = r.AddIPFS("", &service.IPFSConfig{Port: 5001})
	require.NoError(t, err)

	sim, err := r.Get("ganache.0")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.6:8545", sim.ResolvedAddr())
	assert.Equal(t, "${bob}:8545", sim.UnsolvedAddr())

	machineName, err := r.RunningMachineName(sim)
	require.NoError(t, err)
	assert.Equal(t, "bob", machineName)

	local, err := r.IsLocal(sim)
	require.NoError(t, err)
	assert.False(t, local)

	// No declared hostname means the default machine, which is local.
	ipfs, err := r.Get("ipfs.0")
	require.NoError(t, err)
	assert.Equal(t, "${defaultHostname}:5001", ipfs.UnsolvedAddr())
	local, err = r.IsLocal(ipfs)
	require.NoError(t, err)
	assert.True(t, local)
}

func TestEntriesGroupedByType(t *testing.T) {
	r := fullStack(t)
	var kinds []service.Type
	for _, e := range r.Entries() {
		kinds = append(kinds, e.Type())
	}
	for i := 1; i < len(kinds); i++ {
		assert.LessOrEqual(t, kinds[i-1].Index(), kinds[i].Index(), "entries must be grouped in type order")
	}
}

func TestNewInstance(t *testing.T) {
	r := fullStack(t)
	h, err := r.NewInstance("ipfs.0")
	require.NoError(t, err)
	assert.Equal(t, service.TypeIPFS, h.Kind)

	_, err = r.NewInstance("ghost")
	require.True(t, IsNotFound(err))
}
