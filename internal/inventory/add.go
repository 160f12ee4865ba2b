package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/poco-labs/testnet-env/internal/address"
	"github.com/poco-labs/testnet-env/internal/repo"
	"github.com/poco-labs/testnet-env/internal/service"
)

// AddGanache registers a chain simulator and creates one hub per entry
// of its deploy sequence. Chain simulators must be registered before any
// service bound to their hubs.
func (r *Registry) AddGanache(name string, cfg *service.GanacheConfig) (string, error) {
	if err := r.validateDeployments(cfg); err != nil {
		return "", err
	}
	e, err := r.prepare(name, cfg, true, "")
	if err != nil {
		return "", err
	}
	if err := r.commit(e); err != nil {
		return "", err
	}
	r.registerChainDeployments(e.name, e.resolved.(*service.GanacheConfig))
	return e.name, nil
}

// AddIPFS registers the content store singleton.
func (r *Registry) AddIPFS(name string, cfg *service.IPFSConfig) (string, error) {
	return r.addSingleton(name, cfg)
}

// AddDocker registers the container runtime singleton.
func (r *Registry) AddDocker(name string, cfg *service.DockerConfig) (string, error) {
	return r.addSingleton(name, cfg)
}

func (r *Registry) addSingleton(name string, cfg service.Config) (string, error) {
	t := cfg.Kind()
	if prev := r.byType[t.Index()]; len(prev) > 0 {
		return "", conflictf("a %s is already registered (%q)", t, prev[0].name)
	}
	e, err := r.prepare(name, cfg, true, "")
	if err != nil {
		return "", err
	}
	if err := r.commit(e); err != nil {
		return "", err
	}
	return e.name, nil
}

// AddMongo registers a standalone mongo instance. Multiple instances are
// legal, which is why mongo is never resolvable by bare type.
func (r *Registry) AddMongo(name string, cfg *service.MongoConfig) (string, error) {
	e, err := r.prepare(name, cfg, false, "")
	if err != nil {
		return "", err
	}
	if err := r.commit(e); err != nil {
		return "", err
	}
	return e.name, nil
}

// AddRedis registers a standalone redis instance.
func (r *Registry) AddRedis(name string, cfg *service.RedisConfig) (string, error) {
	e, err := r.prepare(name, cfg, false, "")
	if err != nil {
		return "", err
	}
	if err := r.commit(e); err != nil {
		return "", err
	}
	return e.name, nil
}

// AddMarket registers a market matching service. Every chain id it
// serves must already have its simulator registered; the market is
// recorded in the market slot of each hub on those chains. Embedded
// databases are registered as parent-linked entries.
func (r *Registry) AddMarket(name string, cfg *service.MarketConfig) (string, error) {
	if len(cfg.API.Chains) == 0 {
		return "", invalidf("market declares no chains")
	}
	var slotted []*HubRecord
	seen := make(map[int]struct{}, len(cfg.API.Chains))
	for _, id := range cfg.API.Chains {
		if _, dup := seen[id]; dup {
			return "", invalidf("market declares chain %d twice", id)
		}
		seen[id] = struct{}{}
		found := false
		for _, h := range r.Hubs() {
			if h.ChainID != id {
				continue
			}
			found = true
			if h.Market != "" {
				return "", conflictf("hub %q already has a market (%q)", h.Alias, h.Market)
			}
			slotted = append(slotted, h)
		}
		if !found {
			return "", notFoundf("market serves chain %d but no simulator is registered for it", id)
		}
	}

	e, err := r.prepare(name, cfg, true, "")
	if err != nil {
		return "", err
	}
	batch := []*Entry{e}
	resolved := e.resolved.(*service.MarketConfig)
	if resolved.Mongo != nil {
		db, err := r.prepare(e.name+".mongo", resolved.Mongo, false, e.name)
		if err != nil {
			return "", err
		}
		batch = append(batch, db)
	}
	if resolved.Redis != nil {
		db, err := r.prepare(e.name+".redis", resolved.Redis, false, e.name)
		if err != nil {
			return "", err
		}
		batch = append(batch, db)
	}
	if err := r.commit(batch...); err != nil {
		return "", err
	}
	for _, h := range slotted {
		// Slot freedom was checked above; setSlot cannot fail here.
		if err := h.setSlot(service.TypeMarket, e.name); err != nil {
			return "", err
		}
	}
	return e.name, nil
}

// AddSMS registers the secret management service of a hub.
func (r *Registry) AddSMS(name string, cfg *service.SMSConfig) (string, error) {
	return r.addHubBound(name, cfg, nil)
}

// AddResultProxy registers the result proxy of a hub, with an optional
// companion database.
func (r *Registry) AddResultProxy(name string, cfg *service.ResultProxyConfig, db *service.MongoConfig) (string, error) {
	return r.addHubBound(name, cfg, db)
}

// AddBlockchainAdapter registers the blockchain adapter of a hub. Its
// market URL is backfilled from the hub's market unless declared, so the
// market must already be registered.
func (r *Registry) AddBlockchainAdapter(name string, cfg *service.BlockchainAdapterConfig, db *service.MongoConfig) (string, error) {
	return r.addHubBound(name, cfg, db)
}

// AddCore registers the core scheduler of a hub. Its ipfs host and peer
// URLs are backfilled from the now-complete hub topology unless
// declared, so ipfs, sms, resultproxy and blockchainadapter must already
// be registered.
func (r *Registry) AddCore(name string, cfg *service.CoreConfig, db *service.MongoConfig) (string, error) {
	return r.addHubBound(name, cfg, db)
}

// addHubBound is the shared path for the four server tiers: resolves the
// hub, auto-names "<type>.<hubAlias>", prevalidates the hub slot and the
// backfill peers, registers the optional companion database, and patches
// the deferred cross-references on the resolved copy only.
func (r *Registry) addHubBound(name string, cfg service.HubBound, db *service.MongoConfig) (string, error) {
	t := cfg.Kind()
	hub, err := r.Hub(cfg.HubAlias())
	if err != nil {
		return "", err
	}
	if name == "" {
		name = fmt.Sprintf("%s.%s", t, hub.Alias)
	}
	if s := hub.slot(t); s != nil && *s != "" {
		return "", conflictf("hub %q already has a %s (%q)", hub.Alias, t, *s)
	}

	patch, err := r.prepareBackfill(hub, cfg)
	if err != nil {
		return "", err
	}

	e, err := r.prepare(name, cfg, true, "")
	if err != nil {
		return "", err
	}
	batch := []*Entry{e}
	if db != nil {
		declared := cfg.DeclaredDBHost()
		if declared == "" {
			return "", invalidf("%s %q: companion database given but no database address declared", t, name)
		}
		declaredAddr, err := address.Substitute(declared, r.table)
		if err != nil {
			return "", err
		}
		dbEntry, err := r.prepare(name+".mongo", db, false, name)
		if err != nil {
			return "", err
		}
		if dbEntry.resolvedAddr != address.NormalizeHost(declaredAddr) {
			return "", invalidf("%s %q declares database at %s but companion resolves to %s", t, name, declaredAddr, dbEntry.resolvedAddr)
		}
		batch = append(batch, dbEntry)
	}
	if err := r.commit(batch...); err != nil {
		return "", err
	}
	if patch != nil {
		if err := e.backfill(patch); err != nil {
			return "", err
		}
		r.log.Debug("backfilled peer references of %s %q", t, e.name)
	}
	if err := hub.setSlot(t, e.name); err != nil {
		return "", err
	}
	return e.name, nil
}

// prepareBackfill resolves the peer entries a provisional tier needs
// before it is inserted, so a missing peer fails the whole call instead
// of leaving a half-patched entry. Returns nil for tiers without
// deferred fields.
func (r *Registry) prepareBackfill(hub *HubRecord, cfg service.HubBound) (func(service.Config), error) {
	switch c := cfg.(type) {
	case *service.BlockchainAdapterConfig:
		if c.MarketAPIURL != "" {
			return func(resolved service.Config) {}, nil
		}
		if hub.Market == "" {
			return nil, notFoundf("missing peer: hub %q has no market; register the market before the blockchain adapter", hub.Alias)
		}
		market := r.byName[hub.Market]
		url := peerURL(market)
		return func(resolved service.Config) {
			resolved.(*service.BlockchainAdapterConfig).MarketAPIURL = url
		}, nil

	case *service.CoreConfig:
		// Only fields the caller left empty are backfilled; declared
		// values were already substituted by the config copy.
		ipfsHost := ""
		if c.IPFSHost == "" {
			ipfs, err := r.singleton(service.TypeIPFS)
			if err != nil {
				return nil, notFoundf("missing peer: core for hub %q needs ipfs registered first", hub.Alias)
			}
			ipfsHost = ipfs.resolvedAddr
		}
		peers := make(map[string]string, 3)
		for _, p := range []struct {
			field    string
			declared string
			slot     string
		}{
			{"smsUrl", c.SMSURL, hub.SMS},
			{"resultProxyUrl", c.ResultProxyURL, hub.ResultProxy},
			{"blockchainAdapterUrl", c.BlockchainAdapterURL, hub.BlockchainAdapter},
		} {
			if p.declared != "" {
				continue
			}
			if p.slot == "" {
				return nil, notFoundf("missing peer: hub %q has no %s registered yet", hub.Alias, strings.TrimSuffix(p.field, "Url"))
			}
			peers[p.field] = peerURL(r.byName[p.slot])
		}
		return func(resolved service.Config) {
			cc := resolved.(*service.CoreConfig)
			if ipfsHost != "" {
				cc.IPFSHost = ipfsHost
			}
			if u, ok := peers["smsUrl"]; ok {
				cc.SMSURL = u
			}
			if u, ok := peers["resultProxyUrl"]; ok {
				cc.ResultProxyURL = u
			}
			if u, ok := peers["blockchainAdapterUrl"]; ok {
				cc.BlockchainAdapterURL = u
			}
		}, nil

	default:
		return nil, nil
	}
}

// peerURL is the canonical URL form of a registered peer address.
func peerURL(e *Entry) string {
	return "http://" + e.resolvedAddr
}

// AddWorkers assigns a worker pool to a hub: a directory template
// (expanded with the repository's ${version}/${repoName}) and the port
// range worker indices draw from. This is the one registration that
// awaits the external repository resolver.
func (r *Registry) AddWorkers(ctx context.Context, hubAlias string, repository repo.Descriptor, directory string, ports service.PortRange) error {
	hub, err := r.Hub(hubAlias)
	if err != nil {
		return err
	}
	if hub.Workers != nil {
		return conflictf("hub %q already has a worker pool", hub.Alias)
	}
	if ports.From <= 0 || ports.To < ports.From {
		return invalidf("malformed worker port range [%d, %d]", ports.From, ports.To)
	}

	var res repo.Resolution
	if r.repos != nil {
		if res, err = r.repos.Resolve(ctx, repository); err != nil {
			return fmt.Errorf("resolving repository %q: %w", repository.Name, err)
		}
	}
	table := make(map[string]string, len(r.table)+2)
	for k, v := range r.table {
		table[k] = v
	}
	if r.repos != nil {
		for k, v := range res.Table() {
			table[k] = v
		}
	}
	dir, err := address.Substitute(directory, table)
	if err != nil {
		return err
	}

	hub.Workers = &WorkerPool{
		DirectoryTemplate: directory,
		Directory:         dir,
		Ports:             ports,
		Repository:        res,
	}
	r.log.Info("registered worker pool for hub %s at %s, ports [%d, %d]", hub.Alias, dir, ports.From, ports.To)
	return nil
}

// GetWorkerConfig derives the config of worker index on a hub's pool.
// Worker configs are computed on demand and never become inventory
// entries.
func (r *Registry) GetWorkerConfig(hubAlias string, index int) (*service.WorkerConfig, error) {
	hub, err := r.Hub(hubAlias)
	if err != nil {
		return nil, err
	}
	if hub.Workers == nil {
		return nil, notFoundf("hub %q has no worker pool", hub.Alias)
	}
	if index < 0 {
		return nil, invalidf("worker index %d is negative", index)
	}
	port := hub.Workers.Ports.From + index
	if port > hub.Workers.Ports.To {
		return nil, invalidf("worker index %d needs port %d, beyond the assigned range [%d, %d]",
			index, port, hub.Workers.Ports.From, hub.Workers.Ports.To)
	}
	if hub.Core == "" {
		return nil, notFoundf("hub %q has no core; workers depend on it", hub.Alias)
	}
	core := r.byName[hub.Core]
	docker, err := r.singleton(service.TypeDocker)
	if err != nil {
		return nil, err
	}
	return &service.WorkerConfig{
		Hub:        hub.Alias,
		Name:       fmt.Sprintf("worker.%s.%d", hub.Alias, index),
		Port:       port,
		Index:      index,
		Directory:  fmt.Sprintf("%s/worker%d", hub.Workers.Directory, index),
		DockerHost: docker.resolvedAddr,
		CoreURL:    peerURL(core),
	}, nil
}
