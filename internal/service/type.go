// Package service defines the closed set of managed service kinds, their
// configuration schemas, and the per-kind implementation contract the
// inventory dispatches through.
package service

import "fmt"

// Type identifies one of the eleven managed service kinds.
type Type int

const (
	TypeUnspecified Type = iota

	TypeIPFS
	TypeDocker
	TypeMongo
	TypeRedis
	TypeGanache
	TypeMarket
	TypeSMS
	TypeResultProxy
	TypeBlockchainAdapter
	TypeCore
	TypeWorker
)

// Types lists every managed kind in the fixed total order used to group
// inventory iteration and dependency sets.
var Types = [...]Type{
	TypeIPFS,
	TypeDocker,
	TypeMongo,
	TypeRedis,
	TypeGanache,
	TypeMarket,
	TypeSMS,
	TypeResultProxy,
	TypeBlockchainAdapter,
	TypeCore,
	TypeWorker,
}

// NumTypes is the number of managed kinds.
const NumTypes = len(Types)

func (t Type) String() string {
	switch t {
	case TypeIPFS:
		return "ipfs"
	case TypeDocker:
		return "docker"
	case TypeMongo:
		return "mongo"
	case TypeRedis:
		return "redis"
	case TypeGanache:
		return "ganache"
	case TypeMarket:
		return "market"
	case TypeSMS:
		return "sms"
	case TypeResultProxy:
		return "resultproxy"
	case TypeBlockchainAdapter:
		return "blockchainadapter"
	case TypeCore:
		return "core"
	case TypeWorker:
		return "worker"
	default:
		return "unspecified"
	}
}

// ParseType maps a kind name back to its Type.
func ParseType(s string) (Type, error) {
	for _, t := range Types {
		if t.String() == s {
			return t, nil
		}
	}
	return TypeUnspecified, fmt.Errorf("unknown service type %q", s)
}

// Index is the position of t in the fixed total order.
func (t Type) Index() int {
	return int(t) - 1
}

// HubBound reports whether configs of this kind are bound to a hub alias.
func (t Type) HubBound() bool {
	switch t {
	case TypeSMS, TypeResultProxy, TypeBlockchainAdapter, TypeCore:
		return true
	default:
		return false
	}
}

// Singleton reports whether at most one shared instance of this kind
// exists per network.
func (t Type) Singleton() bool {
	return t == TypeIPFS || t == TypeDocker
}
