package service

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/poco-labs/testnet-env/internal/address"
)

// ConfigSource is the narrow view of the inventory an implementation may
// consult while constructing an instance handle.
type ConfigSource interface {
	ResolvedConfig(name string) (Config, bool)
}

// Implementation is the uniform capability set the inventory requires
// from every service kind: a stable type name, a deep config copy with
// optional placeholder resolution, and instance construction from a
// resolved config.
type Implementation interface {
	TypeName() string

	// CopyConfig deep-copies cfg. When resolve is true every string
	// field is run through placeholder substitution with table and the
	// copy must come out fully concrete.
	CopyConfig(cfg Config, resolve bool, table map[string]string) (Config, error)

	// NewInstance turns a resolved config into an opaque runtime handle.
	NewInstance(resolved Config, src ConfigSource) (*Handle, error)
}

// Handle is the opaque result of instance construction.
type Handle struct {
	ID     uuid.UUID
	Kind   Type
	Config Config
}

func newHandle(t Type, cfg Config) *Handle {
	return &Handle{ID: uuid.New(), Kind: t, Config: cfg}
}

// ImplementationFor dispatches over the closed kind set. The switch is
// exhaustive: adding a kind without an implementation fails here, not at
// some distant call site.
func ImplementationFor(t Type) Implementation {
	switch t {
	case TypeIPFS:
		return ipfsImpl{}
	case TypeDocker:
		return dockerImpl{}
	case TypeMongo:
		return mongoImpl{}
	case TypeRedis:
		return redisImpl{}
	case TypeGanache:
		return ganacheImpl{}
	case TypeMarket:
		return marketImpl{}
	case TypeSMS:
		return smsImpl{}
	case TypeResultProxy:
		return resultProxyImpl{}
	case TypeBlockchainAdapter:
		return blockchainAdapterImpl{}
	case TypeCore:
		return coreImpl{}
	case TypeWorker:
		return workerImpl{}
	default:
		panic(fmt.Sprintf("service: no implementation for type %d", t))
	}
}

func subst(s string, resolve bool, table map[string]string) (string, error) {
	if !resolve || s == "" {
		return s, nil
	}
	return address.Substitute(s, table)
}

func wrongConfig(impl string, cfg Config) error {
	return fmt.Errorf("%s: unexpected config type %T", impl, cfg)
}

type ipfsImpl struct{}

func (ipfsImpl) TypeName() string { return TypeIPFS.String() }

func (ipfsImpl) CopyConfig(cfg Config, resolve bool, table map[string]string) (Config, error) {
	c, ok := cfg.(*IPFSConfig)
	if !ok {
		return nil, wrongConfig("ipfs", cfg)
	}
	out := *c
	var err error
	if out.Hostname, err = subst(c.Hostname, resolve, table); err != nil {
		return nil, err
	}
	return &out, nil
}

func (ipfsImpl) NewInstance(resolved Config, _ ConfigSource) (*Handle, error) {
	return newHandle(TypeIPFS, resolved), nil
}

type dockerImpl struct{}

func (dockerImpl) TypeName() string { return TypeDocker.String() }

func (dockerImpl) CopyConfig(cfg Config, resolve bool, table map[string]string) (Config, error) {
	c, ok := cfg.(*DockerConfig)
	if !ok {
		return nil, wrongConfig("docker", cfg)
	}
	out := *c
	var err error
	if out.Hostname, err = subst(c.Hostname, resolve, table); err != nil {
		return nil, err
	}
	return &out, nil
}

func (dockerImpl) NewInstance(resolved Config, _ ConfigSource) (*Handle, error) {
	return newHandle(TypeDocker, resolved), nil
}

type mongoImpl struct{}

func (mongoImpl) TypeName() string { return TypeMongo.String() }

func (mongoImpl) CopyConfig(cfg Config, resolve bool, table map[string]string) (Config, error) {
	c, ok := cfg.(*MongoConfig)
	if !ok {
		return nil, wrongConfig("mongo", cfg)
	}
	out := *c
	var err error
	if out.Hostname, err = subst(c.Hostname, resolve, table); err != nil {
		return nil, err
	}
	return &out, nil
}

func (mongoImpl) NewInstance(resolved Config, _ ConfigSource) (*Handle, error) {
	return newHandle(TypeMongo, resolved), nil
}

type redisImpl struct{}

func (redisImpl) TypeName() string { return TypeRedis.String() }

func (redisImpl) CopyConfig(cfg Config, resolve bool, table map[string]string) (Config, error) {
	c, ok := cfg.(*RedisConfig)
	if !ok {
		return nil, wrongConfig("redis", cfg)
	}
	out := *c
	var err error
	if out.Hostname, err = subst(c.Hostname, resolve, table); err != nil {
		return nil, err
	}
	return &out, nil
}

func (redisImpl) NewInstance(resolved Config, _ ConfigSource) (*Handle, error) {
	return newHandle(TypeRedis, resolved), nil
}

type ganacheImpl struct{}

func (ganacheImpl) TypeName() string { return TypeGanache.String() }

func (ganacheImpl) CopyConfig(cfg Config, resolve bool, table map[string]string) (Config, error) {
	c, ok := cfg.(*GanacheConfig)
	if !ok {
		return nil, wrongConfig("ganache", cfg)
	}
	out := *c
	out.Deployments = append([]Deployment(nil), c.Deployments...)
	var err error
	if out.Hostname, err = subst(c.Hostname, resolve, table); err != nil {
		return nil, err
	}
	return &out, nil
}

func (ganacheImpl) NewInstance(resolved Config, _ ConfigSource) (*Handle, error) {
	return newHandle(TypeGanache, resolved), nil
}

type marketImpl struct{}

func (marketImpl) TypeName() string { return TypeMarket.String() }

func (marketImpl) CopyConfig(cfg Config, resolve bool, table map[string]string) (Config, error) {
	c, ok := cfg.(*MarketConfig)
	if !ok {
		return nil, wrongConfig("market", cfg)
	}
	out := *c
	out.API.Chains = append([]int(nil), c.API.Chains...)
	var err error
	if out.API.Hostname, err = subst(c.API.Hostname, resolve, table); err != nil {
		return nil, err
	}
	if c.Mongo != nil {
		m := *c.Mongo
		if m.Hostname, err = subst(m.Hostname, resolve, table); err != nil {
			return nil, err
		}
		out.Mongo = &m
	}
	if c.Redis != nil {
		r := *c.Redis
		if r.Hostname, err = subst(r.Hostname, resolve, table); err != nil {
			return nil, err
		}
		out.Redis = &r
	}
	return &out, nil
}

func (marketImpl) NewInstance(resolved Config, _ ConfigSource) (*Handle, error) {
	return newHandle(TypeMarket, resolved), nil
}

type smsImpl struct{}

func (smsImpl) TypeName() string { return TypeSMS.String() }

func (smsImpl) CopyConfig(cfg Config, resolve bool, table map[string]string) (Config, error) {
	c, ok := cfg.(*SMSConfig)
	if !ok {
		return nil, wrongConfig("sms", cfg)
	}
	out := *c
	var err error
	if out.Hostname, err = subst(c.Hostname, resolve, table); err != nil {
		return nil, err
	}
	return &out, nil
}

func (smsImpl) NewInstance(resolved Config, _ ConfigSource) (*Handle, error) {
	return newHandle(TypeSMS, resolved), nil
}

type resultProxyImpl struct{}

func (resultProxyImpl) TypeName() string { return TypeResultProxy.String() }

func (resultProxyImpl) CopyConfig(cfg Config, resolve bool, table map[string]string) (Config, error) {
	c, ok := cfg.(*ResultProxyConfig)
	if !ok {
		return nil, wrongConfig("resultproxy", cfg)
	}
	out := *c
	var err error
	if out.Hostname, err = subst(c.Hostname, resolve, table); err != nil {
		return nil, err
	}
	if out.MongoHost, err = subst(c.MongoHost, resolve, table); err != nil {
		return nil, err
	}
	return &out, nil
}

func (resultProxyImpl) NewInstance(resolved Config, _ ConfigSource) (*Handle, error) {
	return newHandle(TypeResultProxy, resolved), nil
}

type blockchainAdapterImpl struct{}

func (blockchainAdapterImpl) TypeName() string { return TypeBlockchainAdapter.String() }

func (blockchainAdapterImpl) CopyConfig(cfg Config, resolve bool, table map[string]string) (Config, error) {
	c, ok := cfg.(*BlockchainAdapterConfig)
	if !ok {
		return nil, wrongConfig("blockchainadapter", cfg)
	}
	out := *c
	var err error
	if out.Hostname, err = subst(c.Hostname, resolve, table); err != nil {
		return nil, err
	}
	if out.MarketAPIURL, err = subst(c.MarketAPIURL, resolve, table); err != nil {
		return nil, err
	}
	if out.MongoHost, err = subst(c.MongoHost, resolve, table); err != nil {
		return nil, err
	}
	return &out, nil
}

func (blockchainAdapterImpl) NewInstance(resolved Config, _ ConfigSource) (*Handle, error) {
	return newHandle(TypeBlockchainAdapter, resolved), nil
}

type coreImpl struct{}

func (coreImpl) TypeName() string { return TypeCore.String() }

func (coreImpl) CopyConfig(cfg Config, resolve bool, table map[string]string) (Config, error) {
	c, ok := cfg.(*CoreConfig)
	if !ok {
		return nil, wrongConfig("core", cfg)
	}
	out := *c
	var err error
	for _, f := range []struct {
		dst *string
		src string
	}{
		{&out.Hostname, c.Hostname},
		{&out.IPFSHost, c.IPFSHost},
		{&out.SMSURL, c.SMSURL},
		{&out.ResultProxyURL, c.ResultProxyURL},
		{&out.BlockchainAdapterURL, c.BlockchainAdapterURL},
		{&out.MongoHost, c.MongoHost},
	} {
		if *f.dst, err = subst(f.src, resolve, table); err != nil {
			return nil, err
		}
	}
	return &out, nil
}

func (coreImpl) NewInstance(resolved Config, _ ConfigSource) (*Handle, error) {
	return newHandle(TypeCore, resolved), nil
}

type workerImpl struct{}

func (workerImpl) TypeName() string { return TypeWorker.String() }

func (workerImpl) CopyConfig(cfg Config, resolve bool, table map[string]string) (Config, error) {
	c, ok := cfg.(*WorkerConfig)
	if !ok {
		return nil, wrongConfig("worker", cfg)
	}
	out := *c
	var err error
	for _, f := range []struct {
		dst *string
		src string
	}{
		{&out.Hostname, c.Hostname},
		{&out.Directory, c.Directory},
		{&out.DockerHost, c.DockerHost},
		{&out.CoreURL, c.CoreURL},
	} {
		if *f.dst, err = subst(f.src, resolve, table); err != nil {
			return nil, err
		}
	}
	return &out, nil
}

func (workerImpl) NewInstance(resolved Config, _ ConfigSource) (*Handle, error) {
	return newHandle(TypeWorker, resolved), nil
}
