package inventory

import (
	"github.com/poco-labs/testnet-env/internal/service"
)

// DependencyItem is one entry of a dependency set.
type DependencyItem struct {
	Name   string
	Config service.Config
}

// DependencySet is the transitive closure of services a target requires:
// grouped by the fixed type order, insertion-ordered within a type,
// deduplicated by name. Worker requests additionally carry the derived
// worker descriptor.
type DependencySet struct {
	groups [service.NumTypes][]DependencyItem
	seen   map[string]struct{}
	size   int

	// Worker is set only for WorkerDependenciesOf requests.
	Worker *service.WorkerConfig
}

func newDependencySet() *DependencySet {
	return &DependencySet{seen: make(map[string]struct{})}
}

// Size is the number of distinct entries in the set.
func (s *DependencySet) Size() int { return s.size }

// OfType returns the items of one kind in insertion order.
func (s *DependencySet) OfType(t service.Type) []DependencyItem {
	return append([]DependencyItem(nil), s.groups[t.Index()]...)
}

// Items flattens the set in type order.
func (s *DependencySet) Items() []DependencyItem {
	out := make([]DependencyItem, 0, s.size)
	for _, t := range service.Types {
		out = append(out, s.groups[t.Index()]...)
	}
	return out
}

// Names flattens the set to entry names in type order.
func (s *DependencySet) Names() []string {
	items := s.Items()
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

// mark records a key without adding an item; used for the target itself.
func (s *DependencySet) mark(key string) { s.seen[key] = struct{}{} }

// DependenciesOf computes the transitive dependency closure of a
// registered entry. The target itself is not part of the result.
func (r *Registry) DependenciesOf(name string) (*DependencySet, error) {
	e, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	set := newDependencySet()
	set.mark(depKey(e))
	if err := r.expand(e, set); err != nil {
		return nil, err
	}
	return set, nil
}

// WorkerDependenciesOf computes the closure for a worker of a hub's
// pool. sgxMode workers additionally depend on the hub's secret
// management service.
func (r *Registry) WorkerDependenciesOf(hubAlias string, index int, sgxMode bool) (*DependencySet, error) {
	wc, err := r.GetWorkerConfig(hubAlias, index)
	if err != nil {
		return nil, err
	}
	set := newDependencySet()
	set.Worker = wc

	docker, err := r.GetByHost(wc.DockerHost)
	if err != nil {
		return nil, err
	}
	if err := r.include(docker, set); err != nil {
		return nil, err
	}
	core, err := r.GetByHost(wc.CoreURL)
	if err != nil {
		return nil, err
	}
	if err := r.include(core, set); err != nil {
		return nil, err
	}
	if sgxMode {
		hub := r.hubs[hubAlias]
		if hub.SMS == "" {
			return nil, notFoundf("sgx worker on hub %q needs an sms registered", hubAlias)
		}
		if err := r.include(r.byName[hub.SMS], set); err != nil {
			return nil, err
		}
	}
	return set, nil
}

func depKey(e *Entry) string {
	return e.typ.String() + "/" + e.name
}

// include adds an entry to the set and expands its rule. Memoization by
// (type, name) means an entry is never expanded twice, which is what
// guarantees termination despite shared leaves.
func (r *Registry) include(e *Entry, s *DependencySet) error {
	key := depKey(e)
	if _, done := s.seen[key]; done {
		return nil
	}
	s.seen[key] = struct{}{}
	s.groups[e.typ.Index()] = append(s.groups[e.typ.Index()], DependencyItem{Name: e.name, Config: e.resolved})
	s.size++
	return r.expand(e, s)
}

// expand applies the fixed, closed dependency rule of one entry's kind.
func (r *Registry) expand(e *Entry, s *DependencySet) error {
	switch e.typ {
	case service.TypeIPFS, service.TypeDocker, service.TypeMongo, service.TypeRedis, service.TypeGanache:
		return nil

	case service.TypeMarket:
		// A market serves every chain in its configured set.
		cfg := e.resolved.(*service.MarketConfig)
		for _, id := range cfg.API.Chains {
			sim, err := r.ganacheForChain(id)
			if err != nil {
				return err
			}
			if err := r.include(sim, s); err != nil {
				return err
			}
		}
		return nil

	case service.TypeSMS:
		cfg := e.resolved.(*service.SMSConfig)
		if err := r.includeSingleton(service.TypeIPFS, s); err != nil {
			return err
		}
		return r.includeHubGanache(cfg.Hub, s)

	case service.TypeResultProxy:
		cfg := e.resolved.(*service.ResultProxyConfig)
		if err := r.includeSingleton(service.TypeIPFS, s); err != nil {
			return err
		}
		if err := r.includeHubGanache(cfg.Hub, s); err != nil {
			return err
		}
		return r.includeChildren(e, s)

	case service.TypeBlockchainAdapter:
		cfg := e.resolved.(*service.BlockchainAdapterConfig)
		if err := r.includeHubGanache(cfg.Hub, s); err != nil {
			return err
		}
		market, err := r.GetByHost(cfg.MarketAPIURL)
		if err != nil {
			return err
		}
		if err := r.include(market, s); err != nil {
			return err
		}
		return r.includeChildren(e, s)

	case service.TypeCore:
		cfg := e.resolved.(*service.CoreConfig)
		if err := r.includeHubGanache(cfg.Hub, s); err != nil {
			return err
		}
		for _, url := range []string{cfg.SMSURL, cfg.ResultProxyURL, cfg.BlockchainAdapterURL} {
			peer, err := r.GetByHost(url)
			if err != nil {
				return err
			}
			if err := r.include(peer, s); err != nil {
				return err
			}
		}
		if err := r.includeChildren(e, s); err != nil {
			return err
		}
		// core has no functional docker dependency; kept for
		// operational convenience (see DESIGN.md).
		return r.includeSingleton(service.TypeDocker, s)

	default:
		// Covers workers as well: worker configs are derived on demand
		// and never become entries, so their rule lives in
		// WorkerDependenciesOf.
		return invalidf("no dependency rule for type %s", e.typ)
	}
}

func (r *Registry) includeSingleton(t service.Type, s *DependencySet) error {
	e, err := r.singleton(t)
	if err != nil {
		return err
	}
	return r.include(e, s)
}

func (r *Registry) includeHubGanache(hubAlias string, s *DependencySet) error {
	hub, err := r.Hub(hubAlias)
	if err != nil {
		return err
	}
	sim, err := r.Get(hub.ChainSimName)
	if err != nil {
		return err
	}
	return r.include(sim, s)
}

func (r *Registry) includeChildren(e *Entry, s *DependencySet) error {
	for _, child := range r.children[e.name] {
		if err := r.include(child, s); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) ganacheForChain(chainID int) (*Entry, error) {
	for _, e := range r.byType[service.TypeGanache.Index()] {
		if e.resolved.(*service.GanacheConfig).ChainID == chainID {
			return e, nil
		}
	}
	return nil, notFoundf("no chain simulator registered for chain %d", chainID)
}
