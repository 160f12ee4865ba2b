package service

// Config is the uniform view the inventory takes of every service
// configuration. The endpoint host may be empty (resolved to a
// placeholder or the loopback name by the address package) or may
// itself be a ${...} placeholder in the unsolved form.
type Config interface {
	Kind() Type
	Endpoint() (host string, port int)
}

// Asset classifies what a contract deployment is backed by.
type Asset string

const (
	AssetNative Asset = "Native"
	AssetToken  Asset = "Token"
)

// Deployment is one entry of a chain simulator's deploy sequence. Each
// deployment yields one hub "<chainId>.<name>".
type Deployment struct {
	Name  string `yaml:"name"`
	Asset Asset  `yaml:"asset"`
	KYC   bool   `yaml:"kyc"`
}

// Enterprise reports whether this deployment is token-backed and
// KYC-gated, the definition of the enterprise flavour.
func (d Deployment) Enterprise() bool {
	return d.Asset == AssetToken && d.KYC
}

type IPFSConfig struct {
	Hostname string `yaml:"hostname,omitempty"`
	Port     int    `yaml:"port"`
}

type DockerConfig struct {
	Hostname string `yaml:"hostname,omitempty"`
	Port     int    `yaml:"port"`
}

type MongoConfig struct {
	Hostname string `yaml:"hostname,omitempty"`
	Port     int    `yaml:"port"`
}

type RedisConfig struct {
	Hostname string `yaml:"hostname,omitempty"`
	Port     int    `yaml:"port"`
}

// GanacheConfig describes one chain simulator and the contract
// deployments it performs at startup.
type GanacheConfig struct {
	Hostname    string       `yaml:"hostname,omitempty"`
	Port        int          `yaml:"port"`
	ChainID     int          `yaml:"chainId"`
	Deployments []Deployment `yaml:"deployments"`
}

// MarketAPIConfig is the externally reachable API surface of a market.
type MarketAPIConfig struct {
	Hostname string `yaml:"hostname,omitempty"`
	Port     int    `yaml:"port"`
	Chains   []int  `yaml:"chains"`
}

// MarketConfig describes a market matching service. One market may serve
// several chains; the optional embedded databases are registered as
// parent-linked inventory entries.
type MarketConfig struct {
	API   MarketAPIConfig `yaml:"api"`
	Mongo *MongoConfig    `yaml:"mongo,omitempty"`
	Redis *RedisConfig    `yaml:"redis,omitempty"`
}

type SMSConfig struct {
	Hub      string `yaml:"hub"`
	Hostname string `yaml:"hostname,omitempty"`
	Port     int    `yaml:"port"`
}

type ResultProxyConfig struct {
	Hub       string `yaml:"hub"`
	Hostname  string `yaml:"hostname,omitempty"`
	Port      int    `yaml:"port"`
	MongoHost string `yaml:"mongoHost,omitempty"`
}

// BlockchainAdapterConfig declares the adapter tier. MarketAPIURL is
// backfilled from the hub's market once both sides are registered.
type BlockchainAdapterConfig struct {
	Hub          string `yaml:"hub"`
	Hostname     string `yaml:"hostname,omitempty"`
	Port         int    `yaml:"port"`
	MarketAPIURL string `yaml:"marketApiUrl,omitempty"`
	MongoHost    string `yaml:"mongoHost,omitempty"`
}

// CoreConfig declares the core scheduler tier. The four peer URL fields
// are backfilled from the hub topology once the peers are registered.
type CoreConfig struct {
	Hub                  string `yaml:"hub"`
	Hostname             string `yaml:"hostname,omitempty"`
	Port                 int    `yaml:"port"`
	IPFSHost             string `yaml:"ipfsHost,omitempty"`
	SMSURL               string `yaml:"smsUrl,omitempty"`
	ResultProxyURL       string `yaml:"resultProxyUrl,omitempty"`
	BlockchainAdapterURL string `yaml:"blockchainAdapterUrl,omitempty"`
	MongoHost            string `yaml:"mongoHost,omitempty"`
}

// PortRange assigns worker ports: worker i listens on From+i, which must
// not exceed To.
type PortRange struct {
	From int `yaml:"from"`
	To   int `yaml:"to"`
}

// WorkerConfig is derived at query time from a hub's worker pool record;
// it is never registered as an inventory entry.
type WorkerConfig struct {
	Hub        string
	Name       string
	Hostname   string
	Port       int
	Index      int
	Directory  string
	DockerHost string
	CoreURL    string
}

// HubBound is implemented by the four server-tier configs that are bound
// to a hub alias and declare an optional companion database address.
type HubBound interface {
	Config
	HubAlias() string
	DeclaredDBHost() string
}

func (c *SMSConfig) HubAlias() string               { return c.Hub }
func (c *SMSConfig) DeclaredDBHost() string         { return "" }
func (c *ResultProxyConfig) HubAlias() string       { return c.Hub }
func (c *ResultProxyConfig) DeclaredDBHost() string { return c.MongoHost }
func (c *BlockchainAdapterConfig) HubAlias() string { return c.Hub }
func (c *BlockchainAdapterConfig) DeclaredDBHost() string {
	return c.MongoHost
}
func (c *CoreConfig) HubAlias() string       { return c.Hub }
func (c *CoreConfig) DeclaredDBHost() string { return c.MongoHost }

func (c *IPFSConfig) Kind() Type                  { return TypeIPFS }
func (c *IPFSConfig) Endpoint() (string, int)     { return c.Hostname, c.Port }
func (c *DockerConfig) Kind() Type                { return TypeDocker }
func (c *DockerConfig) Endpoint() (string, int)   { return c.Hostname, c.Port }
func (c *MongoConfig) Kind() Type                 { return TypeMongo }
func (c *MongoConfig) Endpoint() (string, int)    { return c.Hostname, c.Port }
func (c *RedisConfig) Kind() Type                 { return TypeRedis }
func (c *RedisConfig) Endpoint() (string, int)    { return c.Hostname, c.Port }
func (c *GanacheConfig) Kind() Type               { return TypeGanache }
func (c *GanacheConfig) Endpoint() (string, int)  { return c.Hostname, c.Port }
func (c *MarketConfig) Kind() Type                { return TypeMarket }
func (c *MarketConfig) Endpoint() (string, int)   { return c.API.Hostname, c.API.Port }
func (c *SMSConfig) Kind() Type                   { return TypeSMS }
func (c *SMSConfig) Endpoint() (string, int)      { return c.Hostname, c.Port }
func (c *ResultProxyConfig) Kind() Type           { return TypeResultProxy }
func (c *ResultProxyConfig) Endpoint() (string, int) {
	return c.Hostname, c.Port
}
func (c *BlockchainAdapterConfig) Kind() Type { return TypeBlockchainAdapter }
func (c *BlockchainAdapterConfig) Endpoint() (string, int) {
	return c.Hostname, c.Port
}
func (c *CoreConfig) Kind() Type               { return TypeCore }
func (c *CoreConfig) Endpoint() (string, int)  { return c.Hostname, c.Port }
func (c *WorkerConfig) Kind() Type             { return TypeWorker }
func (c *WorkerConfig) Endpoint() (string, int) { return c.Hostname, c.Port }
