// Package descriptor loads a declarative network description from YAML
// and replays it into a registry in the required registration order, so
// callers get the peer-ordering precondition for free.
package descriptor

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/poco-labs/testnet-env/internal/inventory"
	"github.com/poco-labs/testnet-env/internal/machine"
	"github.com/poco-labs/testnet-env/internal/repo"
	"github.com/poco-labs/testnet-env/internal/service"
	"github.com/poco-labs/testnet-env/pkg/logger"
)

// Network is the top-level descriptor document.
type Network struct {
	Machines       []machine.Machine `yaml:"machines"`
	LocalMachine   string            `yaml:"local"`
	DefaultMachine string            `yaml:"default"`
	DefaultChain   string            `yaml:"defaultChain,omitempty"`

	Ganache []GanacheDecl `yaml:"ganache"`
	IPFS    *IPFSDecl     `yaml:"ipfs,omitempty"`
	Docker  *DockerDecl   `yaml:"docker,omitempty"`
	Mongo   []MongoDecl   `yaml:"mongo,omitempty"`
	Redis   []RedisDecl   `yaml:"redis,omitempty"`
	Market  []MarketDecl  `yaml:"market,omitempty"`

	SMS               []SMSDecl     `yaml:"sms,omitempty"`
	ResultProxy       []TierDecl    `yaml:"resultproxy,omitempty"`
	BlockchainAdapter []AdapterDecl `yaml:"blockchainadapter,omitempty"`
	Core              []CoreDecl    `yaml:"core,omitempty"`

	Workers []WorkerPoolDecl `yaml:"workers,omitempty"`

	Chains   []ChainDecl `yaml:"chains,omitempty"`
	Bridges  []PairDecl  `yaml:"bridges,omitempty"`
	Swaps    []PairDecl  `yaml:"swaps,omitempty"`
	AutoSwap bool        `yaml:"autoSwap,omitempty"`
}

type GanacheDecl struct {
	Name                  string `yaml:"name,omitempty"`
	service.GanacheConfig `yaml:",inline"`
}

type IPFSDecl struct {
	Name               string `yaml:"name,omitempty"`
	service.IPFSConfig `yaml:",inline"`
}

type DockerDecl struct {
	Name                 string `yaml:"name,omitempty"`
	service.DockerConfig `yaml:",inline"`
}

type MongoDecl struct {
	Name                string `yaml:"name,omitempty"`
	service.MongoConfig `yaml:",inline"`
}

type RedisDecl struct {
	Name                string `yaml:"name,omitempty"`
	service.RedisConfig `yaml:",inline"`
}

type MarketDecl struct {
	Name                 string `yaml:"name,omitempty"`
	service.MarketConfig `yaml:",inline"`
}

type SMSDecl struct {
	Name              string `yaml:"name,omitempty"`
	service.SMSConfig `yaml:",inline"`
}

// TierDecl declares a result proxy with its optional companion database.
type TierDecl struct {
	Name                      string               `yaml:"name,omitempty"`
	service.ResultProxyConfig `yaml:",inline"`
	DB                        *service.MongoConfig `yaml:"db,omitempty"`
}

type AdapterDecl struct {
	Name                              string               `yaml:"name,omitempty"`
	service.BlockchainAdapterConfig   `yaml:",inline"`
	DB                                *service.MongoConfig `yaml:"db,omitempty"`
}

type CoreDecl struct {
	Name               string               `yaml:"name,omitempty"`
	service.CoreConfig `yaml:",inline"`
	DB                 *service.MongoConfig `yaml:"db,omitempty"`
}

type WorkerPoolDecl struct {
	Hub        string            `yaml:"hub"`
	Repository repo.Descriptor   `yaml:"repository"`
	Directory  string            `yaml:"directory"`
	Ports      service.PortRange `yaml:"ports"`
}

type ChainDecl struct {
	Name string `yaml:"name"`
	Hub  string `yaml:"hub"`
}

type PairDecl struct {
	First  string `yaml:"first"`
	Second string `yaml:"second"`
}

// Load reads and parses a network descriptor file.
func Load(path string) (*Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read network descriptor: %w", err)
	}
	var n Network
	if err := yaml.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("failed to parse network descriptor: %w", err)
	}
	if len(n.Machines) == 0 {
		return nil, fmt.Errorf("network descriptor declares no machines")
	}
	if len(n.Ganache) == 0 {
		return nil, fmt.Errorf("network descriptor declares no chain simulator")
	}
	return &n, nil
}

// Build constructs a registry and replays the descriptor into it in
// dependency order: chain simulators first, then the singleton leaves,
// then the market, then the hub-bound tiers, then workers, chains and
// pairings.
func Build(ctx context.Context, n *Network, repos repo.Resolver, log *logger.Logger) (*inventory.Registry, error) {
	reg, err := inventory.New(inventory.Options{
		Machines:       n.Machines,
		LocalMachine:   n.LocalMachine,
		DefaultMachine: n.DefaultMachine,
		DefaultChain:   n.DefaultChain,
		Repositories:   repos,
		Log:            log,
	})
	if err != nil {
		return nil, err
	}

	for i := range n.Ganache {
		d := &n.Ganache[i]
		if _, err := reg.AddGanache(d.Name, &d.GanacheConfig); err != nil {
			return nil, err
		}
	}
	if n.IPFS != nil {
		if _, err := reg.AddIPFS(n.IPFS.Name, &n.IPFS.IPFSConfig); err != nil {
			return nil, err
		}
	}
	if n.Docker != nil {
		if _, err := reg.AddDocker(n.Docker.Name, &n.Docker.DockerConfig); err != nil {
			return nil, err
		}
	}
	for i := range n.Mongo {
		d := &n.Mongo[i]
		if _, err := reg.AddMongo(d.Name, &d.MongoConfig); err != nil {
			return nil, err
		}
	}
	for i := range n.Redis {
		d := &n.Redis[i]
		if _, err := reg.AddRedis(d.Name, &d.RedisConfig); err != nil {
			return nil, err
		}
	}
	for i := range n.Market {
		d := &n.Market[i]
		if _, err := reg.AddMarket(d.Name, &d.MarketConfig); err != nil {
			return nil, err
		}
	}
	for i := range n.SMS {
		d := &n.SMS[i]
		if _, err := reg.AddSMS(d.Name, &d.SMSConfig); err != nil {
			return nil, err
		}
	}
	for i := range n.ResultProxy {
		d := &n.ResultProxy[i]
		if _, err := reg.AddResultProxy(d.Name, &d.ResultProxyConfig, d.DB); err != nil {
			return nil, err
		}
	}
	for i := range n.BlockchainAdapter {
		d := &n.BlockchainAdapter[i]
		if _, err := reg.AddBlockchainAdapter(d.Name, &d.BlockchainAdapterConfig, d.DB); err != nil {
			return nil, err
		}
	}
	for i := range n.Core {
		d := &n.Core[i]
		if _, err := reg.AddCore(d.Name, &d.CoreConfig, d.DB); err != nil {
			return nil, err
		}
	}
	for _, w := range n.Workers {
		if err := reg.AddWorkers(ctx, w.Hub, w.Repository, w.Directory, w.Ports); err != nil {
			return nil, err
		}
	}
	for _, c := range n.Chains {
		if err := reg.AddChain(c.Name, c.Hub); err != nil {
			return nil, err
		}
	}
	for _, b := range n.Bridges {
		if err := reg.BridgeChains(b.First, b.Second); err != nil {
			return nil, err
		}
	}
	for _, s := range n.Swaps {
		if err := reg.EnterpriseSwapChains(s.First, s.Second); err != nil {
			return nil, err
		}
	}
	if n.AutoSwap {
		if err := reg.InitDefaultEnterpriseSwap(); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
