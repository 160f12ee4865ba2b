package inventory

import (
	"github.com/poco-labs/testnet-env/internal/service"
)

// entryState tracks the two-phase lifecycle of an entry. Most entries
// are finalized on insertion; blockchainadapter and core entries stay
// provisional until their peer URLs have been backfilled from the hub
// topology, which is the only mutation an entry ever sees.
type entryState int

const (
	stateProvisional entryState = iota
	stateFinalized
)

// Entry is one registered service: the declared config in symbolic form
// and its fully substituted counterpart, under a globally unique name.
type Entry struct {
	name   string
	typ    service.Type
	shared bool
	parent string // owning entry for companion databases, else ""

	unsolved     service.Config
	resolved     service.Config
	unsolvedAddr string
	resolvedAddr string

	state entryState
}

// Name returns the globally unique entry name.
func (e *Entry) Name() string { return e.name }

// Type returns the service kind.
func (e *Entry) Type() service.Type { return e.typ }

// Shared reports whether the entry is in the shared-name index.
func (e *Entry) Shared() bool { return e.shared }

// Parent returns the owning entry name for parent-linked companion
// databases, or "" for top-level entries.
func (e *Entry) Parent() string { return e.parent }

// Unsolved returns the symbolic config, placeholders intact.
func (e *Entry) Unsolved() service.Config { return e.unsolved }

// Resolved returns the concrete config. Callers must treat it as
// read-only; the registry owns the backfill exception.
func (e *Entry) Resolved() service.Config { return e.resolved }

// UnsolvedAddr is the symbolic "host:port" of the entry.
func (e *Entry) UnsolvedAddr() string { return e.unsolvedAddr }

// ResolvedAddr is the concrete "host:port" the entry is indexed under.
func (e *Entry) ResolvedAddr() string { return e.resolvedAddr }

// Finalized reports whether the entry has left its provisional state.
func (e *Entry) Finalized() bool { return e.state == stateFinalized }

// backfill applies the one documented mutation to a provisional entry's
// resolved config and finalizes it. Calling it twice is a programming
// error surfaced as a resolution-class failure.
func (e *Entry) backfill(patch func(resolved service.Config)) error {
	if e.state != stateProvisional {
		return invalidf("entry %q is finalized and cannot be patched", e.name)
	}
	patch(e.resolved)
	e.state = stateFinalized
	return nil
}
