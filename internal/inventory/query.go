package inventory

import (
	"github.com/poco-labs/testnet-env/internal/service"
)

// Query is a loosely specified config request. Name wins over
// everything; otherwise Type is combined with a hub determined from Hub,
// Chain, or the registry's default chain.
type Query struct {
	Name    string
	Type    service.Type
	Hub     string
	Chain   string
	ChainID int
}

// GuessHubAlias determines the hub a query refers to: an explicit hub
// wins, then the chain's hub, then the default chain's hub. An explicit
// hub disagreeing with an explicit chain is a conflict.
func (r *Registry) GuessHubAlias(q Query) (string, error) {
	if q.Hub != "" {
		if _, err := r.Hub(q.Hub); err != nil {
			return "", err
		}
		if q.Chain != "" {
			c, err := r.Chain(q.Chain)
			if err != nil {
				return "", err
			}
			if c.HubAlias != q.Hub {
				return "", conflictf("chain %q is on hub %q, not %q", q.Chain, c.HubAlias, q.Hub)
			}
		}
		return q.Hub, nil
	}
	if q.Chain != "" {
		c, err := r.Chain(q.Chain)
		if err != nil {
			return "", err
		}
		return c.HubAlias, nil
	}
	if r.defaultChain != "" {
		c, err := r.Chain(r.defaultChain)
		if err != nil {
			return "", err
		}
		return c.HubAlias, nil
	}
	return "", notFoundf("no hub could be determined: give a name, hub or chain, or configure a default chain")
}

// GuessConfig resolves a loose query to exactly one entry.
//
// mongo and redis are deliberately not resolvable by bare type: several
// instances are legal, so the call returns (nil, nil) and callers must
// use GetByHost.
func (r *Registry) GuessConfig(q Query) (*Entry, error) {
	if q.Name != "" {
		return r.Get(q.Name)
	}

	switch q.Type {
	case service.TypeUnspecified:
		return nil, invalidf("query needs a name or a type")

	case service.TypeIPFS, service.TypeDocker:
		return r.singleton(q.Type)

	case service.TypeMongo, service.TypeRedis:
		return nil, nil

	case service.TypeWorker:
		return nil, invalidf("worker configs are derived; use GetWorkerConfig")

	case service.TypeGanache:
		if q.ChainID != 0 {
			return r.ganacheForChain(q.ChainID)
		}
	}

	alias, err := r.GuessHubAlias(q)
	if err != nil {
		return nil, err
	}
	hub := r.hubs[alias]

	if q.Type == service.TypeGanache {
		return r.Get(hub.ChainSimName)
	}
	slot := hub.slot(q.Type)
	if slot == nil {
		return nil, invalidf("type %s cannot be resolved through a hub", q.Type)
	}
	if *slot == "" {
		return nil, notFoundf("hub %q has no %s registered", alias, q.Type)
	}
	return r.Get(*slot)
}
