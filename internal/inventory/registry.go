// Package inventory is the in-memory service registry of a test
// network: it accepts declarative service definitions, resolves their
// placeholders into concrete addresses, indexes them by name, type and
// host under strict uniqueness invariants, tracks the hub topology and
// chain graph, and computes dependency closures.
//
// Registration is single-writer and must follow the peer order
// (ganache, then ipfs/docker, then market, then sms/resultproxy/
// blockchainadapter, then core, then workers). Once construction has
// finished, entries are frozen and all queries are safe to run
// concurrently.
package inventory

import (
	"fmt"
	"regexp"

	"github.com/poco-labs/testnet-env/internal/address"
	"github.com/poco-labs/testnet-env/internal/machine"
	"github.com/poco-labs/testnet-env/internal/repo"
	"github.com/poco-labs/testnet-env/internal/service"
	"github.com/poco-labs/testnet-env/pkg/logger"
)

// Options configures a registry.
type Options struct {
	Machines       []machine.Machine
	LocalMachine   string
	DefaultMachine string

	// DefaultChain names the chain the query resolver falls back to
	// when neither a hub nor a chain is given. Validated lazily, since
	// chains are registered after construction.
	DefaultChain string

	// Repositories resolves ${version}/${repoName} placeholders. May be
	// nil when no template uses them. The registry memoizes it for the
	// lifetime of this construction.
	Repositories repo.Resolver

	Log *logger.Logger
}

// Registry is the service inventory. Not safe for concurrent mutation;
// see the package comment.
type Registry struct {
	log          *logger.Logger
	machines     *machine.Set
	repos        repo.Resolver
	defaultChain string

	// table is the closed placeholder catalog: machine names plus the
	// two reserved bindings. Repository placeholders are merged in per
	// registration.
	table map[string]string

	byName   map[string]*Entry
	byType   [service.NumTypes][]*Entry
	byHost   map[string]*Entry
	shared   map[string]*Entry
	children map[string][]*Entry

	hubs     map[string]*HubRecord
	hubOrder []string

	chains     map[string]*ChainRecord
	chainOrder []string

	ordinals [service.NumTypes]int
}

// New builds an empty registry over an immutable machine set.
func New(opts Options) (*Registry, error) {
	if opts.Log == nil {
		opts.Log = logger.NewDefault("inventory")
	}
	machines, err := machine.NewSet(opts.Machines, opts.LocalMachine, opts.DefaultMachine)
	if err != nil {
		return nil, invalidf("%s", err)
	}
	repos := opts.Repositories
	if repos != nil {
		repos = repo.NewCaching(repos)
	}
	return &Registry{
		log:          opts.Log,
		machines:     machines,
		repos:        repos,
		defaultChain: opts.DefaultChain,
		table:        machines.PlaceholderTable(),
		byName:       make(map[string]*Entry),
		byHost:       make(map[string]*Entry),
		shared:       make(map[string]*Entry),
		children:     make(map[string][]*Entry),
		hubs:         make(map[string]*HubRecord),
		chains:       make(map[string]*ChainRecord),
	}, nil
}

// Machines exposes the placement resolver.
func (r *Registry) Machines() *machine.Set { return r.machines }

// portableName accepts names that survive as file names and identifiers
// on every platform we provision to.
var portableName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// prepare validates one registration and builds the entry without
// touching any index, so a failing call leaves the registry untouched.
// autoNamed entries draw "<type>.<ordinal>" names; the ordinal is only
// consumed on commit.
func (r *Registry) prepare(name string, cfg service.Config, shared bool, parent string) (*Entry, error) {
	t := cfg.Kind()
	impl := service.ImplementationFor(t)

	if name == "" {
		name = fmt.Sprintf("%s.%d", t, r.ordinals[t.Index()])
	}
	if !portableName.MatchString(name) {
		return nil, invalidf("name %q is not portable (want letters, digits, '.', '_', '-')", name)
	}
	if prev, dup := r.byName[name]; dup {
		return nil, conflictf("name %q already registered as %s", name, prev.typ)
	}

	unsolved, err := impl.CopyConfig(cfg, false, nil)
	if err != nil {
		return nil, err
	}
	uhost, uport := unsolved.Endpoint()
	unsolvedAddr := address.Unsolved(uhost, uport, address.Token(machine.PlaceholderDefault))

	resolved, err := impl.CopyConfig(cfg, true, r.table)
	if err != nil {
		return nil, err
	}
	rhost, rport := resolved.Endpoint()
	resolvedAddr, err := address.Resolved(rhost, rport)
	if err != nil {
		return nil, err
	}
	if prev, dup := r.byHost[resolvedAddr]; dup {
		return nil, conflictf("address %s already taken by %q", resolvedAddr, prev.name)
	}

	state := stateFinalized
	if t == service.TypeBlockchainAdapter || t == service.TypeCore {
		state = stateProvisional
	}
	return &Entry{
		name:         name,
		typ:          t,
		shared:       shared,
		parent:       parent,
		unsolved:     unsolved,
		resolved:     resolved,
		unsolvedAddr: unsolvedAddr,
		resolvedAddr: resolvedAddr,
		state:        state,
	}, nil
}

// commit inserts prepared entries into every index. All entries are
// re-checked against each other first so a batch either lands whole or
// not at all.
func (r *Registry) commit(entries ...*Entry) error {
	names := make(map[string]struct{}, len(entries))
	hosts := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, dup := r.byName[e.name]; dup {
			return conflictf("name %q already registered", e.name)
		}
		if _, dup := names[e.name]; dup {
			return conflictf("name %q prepared twice in one batch", e.name)
		}
		if _, dup := r.byHost[e.resolvedAddr]; dup {
			return conflictf("address %s already taken", e.resolvedAddr)
		}
		if _, dup := hosts[e.resolvedAddr]; dup {
			return conflictf("address %s prepared twice in one batch", e.resolvedAddr)
		}
		names[e.name] = struct{}{}
		hosts[e.resolvedAddr] = struct{}{}
	}
	for _, e := range entries {
		r.byName[e.name] = e
		r.byType[e.typ.Index()] = append(r.byType[e.typ.Index()], e)
		r.byHost[e.resolvedAddr] = e
		if e.shared {
			r.shared[e.name] = e
		}
		if e.parent != "" {
			r.children[e.parent] = append(r.children[e.parent], e)
		}
		if e.name == fmt.Sprintf("%s.%d", e.typ, r.ordinals[e.typ.Index()]) {
			r.ordinals[e.typ.Index()]++
		}
		r.log.Info("registered %s %q at %s (unsolved %s)", e.typ, e.name, e.resolvedAddr, e.unsolvedAddr)
	}
	return nil
}

// Get returns the entry registered under name.
func (r *Registry) Get(name string) (*Entry, error) {
	e, ok := r.byName[name]
	if !ok {
		return nil, notFoundf("unknown entry %q", name)
	}
	return e, nil
}

// GetByType returns the entries of one kind in registration order.
func (r *Registry) GetByType(t service.Type) []*Entry {
	if t.Index() < 0 || t.Index() >= service.NumTypes {
		return nil
	}
	return append([]*Entry(nil), r.byType[t.Index()]...)
}

// GetByHost looks an entry up by its resolved address. Accepts a bare
// "host:port" or any URL containing one.
func (r *Registry) GetByHost(hostOrURL string) (*Entry, error) {
	key := address.NormalizeHost(hostOrURL)
	e, ok := r.byHost[key]
	if !ok {
		return nil, notFoundf("no entry at %q", key)
	}
	return e, nil
}

// Entries returns every entry grouped by the fixed type order, in
// registration order within each type.
func (r *Registry) Entries() []*Entry {
	var out []*Entry
	for _, t := range service.Types {
		out = append(out, r.byType[t.Index()]...)
	}
	return out
}

// SharedEntry returns a shared entry by name.
func (r *Registry) SharedEntry(name string) (*Entry, bool) {
	e, ok := r.shared[name]
	return e, ok
}

// ChildrenOf returns the parent-linked companion entries of an entry.
func (r *Registry) ChildrenOf(name string) []*Entry {
	return append([]*Entry(nil), r.children[name]...)
}

// singleton returns the one shared entry of a singleton kind.
func (r *Registry) singleton(t service.Type) (*Entry, error) {
	list := r.byType[t.Index()]
	if len(list) == 0 {
		return nil, notFoundf("no %s registered", t)
	}
	return list[0], nil
}

// ResolvedConfig implements service.ConfigSource for instance
// construction.
func (r *Registry) ResolvedConfig(name string) (service.Config, bool) {
	e, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return e.resolved, true
}

// NewInstance constructs the runtime handle for a registered entry.
// Independent instances may be constructed concurrently by the caller;
// the registry is only read here.
func (r *Registry) NewInstance(name string) (*service.Handle, error) {
	e, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return service.ImplementationFor(e.typ).NewInstance(e.resolved, r)
}

// RunningMachineName strips the placeholder syntax from an entry's
// unsolved hostname, which is required to be a single machine token.
func (r *Registry) RunningMachineName(e *Entry) (string, error) {
	host, _ := e.unsolved.Endpoint()
	if host == "" {
		host = address.Token(machine.PlaceholderDefault)
	}
	name, ok := address.TokenName(host)
	if !ok {
		return "", invalidf("entry %q hostname %q is not a machine placeholder", e.name, host)
	}
	return name, nil
}

// IsLocal reports whether the entry runs on the machine the current
// process runs on.
func (r *Registry) IsLocal(e *Entry) (bool, error) {
	name, err := r.RunningMachineName(e)
	if err != nil {
		return false, err
	}
	resolved, err := r.machines.ResolveName(name)
	if err != nil {
		return false, err
	}
	return resolved == r.machines.LocalName(), nil
}

// IsLocalName is IsLocal by entry name.
func (r *Registry) IsLocalName(name string) (bool, error) {
	e, err := r.Get(name)
	if err != nil {
		return false, err
	}
	return r.IsLocal(e)
}
