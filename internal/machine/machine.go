// Package machine resolves distributed placement: which physical machine
// a service runs on, and whether that machine is the local one.
package machine

import (
	"fmt"

	"github.com/poco-labs/testnet-env/internal/address"
)

// Reserved placeholder names. Both are bound at construction to a
// machine name, so substituting them is a two-level indirection:
// ${localHostname} -> ${<machine>} -> <network identity>.
const (
	PlaceholderLocal   = "localHostname"
	PlaceholderDefault = "defaultHostname"
)

// Symbolic machine names accepted by ResolveName.
const (
	NameLocal   = "local"
	NameDefault = "default"
)

// Machine is one physical host of the network.
type Machine struct {
	Name            string `yaml:"name"`
	NetworkIdentity string `yaml:"host"`
}

// Set is the immutable machine inventory of one registry. It carries the
// two reserved bindings alongside the machines themselves.
type Set struct {
	machines map[string]Machine
	local    string
	deflt    string
}

// NewSet builds the machine set. localName names the machine the current
// process runs on; defaultName names the machine new services bind to
// when their config declares no hostname.
func NewSet(machines []Machine, localName, defaultName string) (*Set, error) {
	s := &Set{machines: make(map[string]Machine, len(machines))}
	for _, m := range machines {
		if m.Name == "" || m.NetworkIdentity == "" {
			return nil, fmt.Errorf("machine %q: name and host are required", m.Name)
		}
		if _, dup := s.machines[m.Name]; dup {
			return nil, fmt.Errorf("machine %q declared twice", m.Name)
		}
		s.machines[m.Name] = m
	}
	var err error
	if s.local, err = s.checkName(localName, "local machine"); err != nil {
		return nil, err
	}
	if s.deflt, err = s.checkName(defaultName, "default machine"); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Set) checkName(name, role string) (string, error) {
	if _, ok := s.machines[name]; !ok {
		return "", fmt.Errorf("%s %q is not in the machine set", role, name)
	}
	return name, nil
}

// LocalName returns the name of the machine the current process runs on.
func (s *Set) LocalName() string { return s.local }

// DefaultName returns the machine name new services bind to by default.
func (s *Set) DefaultName() string { return s.deflt }

// ResolveName expands the symbolic forms "local" and "default" (and the
// reserved placeholder names they are bound through) to a concrete
// machine name; any other name passes through once its existence is
// verified.
func (s *Set) ResolveName(name string) (string, error) {
	switch name {
	case NameLocal, PlaceholderLocal:
		return s.local, nil
	case NameDefault, PlaceholderDefault:
		return s.deflt, nil
	}
	return s.checkName(name, "machine")
}

// Identity returns the network identity of a machine after symbolic
// expansion.
func (s *Set) Identity(name string) (string, error) {
	resolved, err := s.ResolveName(name)
	if err != nil {
		return "", err
	}
	return s.machines[resolved].NetworkIdentity, nil
}

// PlaceholderTable is the substitution table covering every machine name
// plus the two reserved bindings. The reserved entries expand to another
// placeholder, which the substitution fixpoint resolves in a second
// round.
func (s *Set) PlaceholderTable() map[string]string {
	t := make(map[string]string, len(s.machines)+2)
	for name, m := range s.machines {
		t[name] = m.NetworkIdentity
	}
	t[PlaceholderLocal] = address.Token(s.local)
	t[PlaceholderDefault] = address.Token(s.deflt)
	return t
}

// Names returns the declared machine names.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.machines))
	for n := range s.machines {
		names = append(names, n)
	}
	return names
}
