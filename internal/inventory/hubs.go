package inventory

import (
	"fmt"

	"github.com/poco-labs/testnet-env/internal/repo"
	"github.com/poco-labs/testnet-env/internal/service"
)

// Flavour classifies a hub deployment.
type Flavour string

const (
	// FlavourStandard covers every deployment that is not both
	// token-backed and KYC-gated.
	FlavourStandard Flavour = "standard"

	// FlavourEnterprise covers token-backed, KYC-gated deployments.
	FlavourEnterprise Flavour = "enterprise"
)

// WorkerPool is the workers slot of a hub: the pool directory, the port
// range workers draw from, and the repository resolution the directory
// template was expanded with.
type WorkerPool struct {
	DirectoryTemplate string
	Directory         string
	Ports             service.PortRange
	Repository        repo.Resolution
}

// HubRecord links one contract deployment on one simulated chain to the
// concrete service instances serving it. Each slot holds at most one
// entry name, recorded when the matching service is registered.
type HubRecord struct {
	Alias        string
	ChainSimName string
	ChainID      int
	Native       bool
	Flavour      Flavour

	SMS               string
	ResultProxy       string
	BlockchainAdapter string
	Core              string
	Market            string
	Workers           *WorkerPool
}

// HubAlias derives the alias of a deployment on a chain.
func HubAlias(chainID int, deployName string) string {
	return fmt.Sprintf("%d.%s", chainID, deployName)
}

// slot returns a pointer to the named slot for the hub-bound kinds plus
// market; nil for kinds that have no hub slot.
func (h *HubRecord) slot(t service.Type) *string {
	switch t {
	case service.TypeSMS:
		return &h.SMS
	case service.TypeResultProxy:
		return &h.ResultProxy
	case service.TypeBlockchainAdapter:
		return &h.BlockchainAdapter
	case service.TypeCore:
		return &h.Core
	case service.TypeMarket:
		return &h.Market
	default:
		return nil
	}
}

func (h *HubRecord) setSlot(t service.Type, name string) error {
	s := h.slot(t)
	if s == nil {
		return invalidf("type %s has no hub slot", t)
	}
	if *s != "" {
		return conflictf("hub %q already has a %s (%q)", h.Alias, t, *s)
	}
	*s = name
	return nil
}

// Hub looks up a hub record by alias.
func (r *Registry) Hub(alias string) (*HubRecord, error) {
	h, ok := r.hubs[alias]
	if !ok {
		return nil, notFoundf("unknown hub %q", alias)
	}
	return h, nil
}

// Hubs returns every hub record in registration order.
func (r *Registry) Hubs() []*HubRecord {
	out := make([]*HubRecord, 0, len(r.hubOrder))
	for _, alias := range r.hubOrder {
		out = append(out, r.hubs[alias])
	}
	return out
}

// validateDeployments checks a chain simulator's deploy sequence before
// any state is touched: every derived hub alias must be unused, here and
// in the sequence itself.
func (r *Registry) validateDeployments(cfg *service.GanacheConfig) error {
	if cfg.ChainID <= 0 {
		return invalidf("chain simulator needs a positive chain id, got %d", cfg.ChainID)
	}
	if len(cfg.Deployments) == 0 {
		return invalidf("chain simulator for chain %d declares no deployments", cfg.ChainID)
	}
	seen := make(map[string]struct{}, len(cfg.Deployments))
	for _, d := range cfg.Deployments {
		alias := HubAlias(cfg.ChainID, d.Name)
		if d.Name == "" {
			return invalidf("chain %d: deployment with empty name", cfg.ChainID)
		}
		if _, ok := r.hubs[alias]; ok {
			return conflictf("hub alias %q already exists", alias)
		}
		if _, ok := seen[alias]; ok {
			return conflictf("hub alias %q derived twice from one deploy sequence", alias)
		}
		seen[alias] = struct{}{}
	}
	return nil
}

// registerChainDeployments creates one hub record per deploy-sequence
// entry of a freshly added chain simulator. Callers must have run
// validateDeployments first.
func (r *Registry) registerChainDeployments(simName string, cfg *service.GanacheConfig) {
	for _, d := range cfg.Deployments {
		alias := HubAlias(cfg.ChainID, d.Name)
		flavour := FlavourStandard
		if d.Enterprise() {
			flavour = FlavourEnterprise
		}
		r.hubs[alias] = &HubRecord{
			Alias:        alias,
			ChainSimName: simName,
			ChainID:      cfg.ChainID,
			Native:       d.Asset == service.AssetNative,
			Flavour:      flavour,
		}
		r.hubOrder = append(r.hubOrder, alias)
		r.log.Debug("registered hub %s (flavour=%s native=%t sim=%s)", alias, flavour, d.Asset == service.AssetNative, simName)
	}
}
