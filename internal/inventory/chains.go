package inventory

// ChainRecord is a named alias over a hub, plus its pairwise relations.
// Both relations are symmetric by construction: the registry only ever
// writes them in matched pairs.
type ChainRecord struct {
	Name                string
	HubAlias            string
	BridgedChain        string // "" when unbridged
	EnterpriseSwapChain string // "" when unpaired
}

// AddChain registers a chain alias over an existing hub.
func (r *Registry) AddChain(name, hubAlias string) error {
	if name == "" {
		return invalidf("chain name is required")
	}
	if _, ok := r.chains[name]; ok {
		return conflictf("chain %q already registered", name)
	}
	if _, err := r.Hub(hubAlias); err != nil {
		return err
	}
	r.chains[name] = &ChainRecord{Name: name, HubAlias: hubAlias}
	r.chainOrder = append(r.chainOrder, name)
	r.log.Debug("registered chain %s -> hub %s", name, hubAlias)
	return nil
}

// Chain looks up a chain record by name.
func (r *Registry) Chain(name string) (*ChainRecord, error) {
	c, ok := r.chains[name]
	if !ok {
		return nil, notFoundf("unknown chain %q", name)
	}
	return c, nil
}

// Chains returns every chain record in registration order.
func (r *Registry) Chains() []*ChainRecord {
	out := make([]*ChainRecord, 0, len(r.chainOrder))
	for _, name := range r.chainOrder {
		out = append(out, r.chains[name])
	}
	return out
}

// BridgeChains records the symmetric bridge relation between a
// token-side chain and a native-side chain.
func (r *Registry) BridgeChains(tokenSide, nativeSide string) error {
	a, err := r.Chain(tokenSide)
	if err != nil {
		return err
	}
	b, err := r.Chain(nativeSide)
	if err != nil {
		return err
	}
	if a.Name == b.Name {
		return invalidf("chain %q cannot bridge to itself", a.Name)
	}
	if a.BridgedChain != "" {
		return conflictf("chain %q is already bridged to %q", a.Name, a.BridgedChain)
	}
	if b.BridgedChain != "" {
		return conflictf("chain %q is already bridged to %q", b.Name, b.BridgedChain)
	}
	a.BridgedChain = b.Name
	b.BridgedChain = a.Name
	r.log.Debug("bridged chains %s <-> %s", a.Name, b.Name)
	return nil
}

// EnterpriseSwapChains records the symmetric swap relation between a
// standard and an enterprise chain. Native hubs may never participate,
// and the two sides must carry opposite flavours.
func (r *Registry) EnterpriseSwapChains(first, second string) error {
	a, err := r.Chain(first)
	if err != nil {
		return err
	}
	b, err := r.Chain(second)
	if err != nil {
		return err
	}
	if a.Name == b.Name {
		return invalidf("chain %q cannot swap with itself", a.Name)
	}
	ha, err := r.Hub(a.HubAlias)
	if err != nil {
		return err
	}
	hb, err := r.Hub(b.HubAlias)
	if err != nil {
		return err
	}
	if ha.Native || hb.Native {
		return invalidf("enterprise swap between %q and %q: native chains cannot participate", a.Name, b.Name)
	}
	if ha.Flavour == hb.Flavour {
		return invalidf("enterprise swap between %q and %q: need one standard and one enterprise hub, got two %s", a.Name, b.Name, ha.Flavour)
	}
	if a.EnterpriseSwapChain != "" {
		return conflictf("chain %q is already swap-paired with %q", a.Name, a.EnterpriseSwapChain)
	}
	if b.EnterpriseSwapChain != "" {
		return conflictf("chain %q is already swap-paired with %q", b.Name, b.EnterpriseSwapChain)
	}
	a.EnterpriseSwapChain = b.Name
	b.EnterpriseSwapChain = a.Name
	r.log.Debug("enterprise swap %s <-> %s", a.Name, b.Name)
	return nil
}

// InitDefaultEnterpriseSwap auto-pairs chains: for every chain id that
// has exactly one standard and one enterprise non-native chain
// registered, the two are swap-paired unless an explicit pairing exists.
func (r *Registry) InitDefaultEnterpriseSwap() error {
	type pair struct {
		standard   []*ChainRecord
		enterprise []*ChainRecord
	}
	byID := make(map[int]*pair)
	ids := make([]int, 0)
	for _, name := range r.chainOrder {
		c := r.chains[name]
		h := r.hubs[c.HubAlias]
		if h == nil || h.Native {
			continue
		}
		p, ok := byID[h.ChainID]
		if !ok {
			p = &pair{}
			byID[h.ChainID] = p
			ids = append(ids, h.ChainID)
		}
		if h.Flavour == FlavourEnterprise {
			p.enterprise = append(p.enterprise, c)
		} else {
			p.standard = append(p.standard, c)
		}
	}
	for _, id := range ids {
		p := byID[id]
		if len(p.standard) != 1 || len(p.enterprise) != 1 {
			continue
		}
		s, e := p.standard[0], p.enterprise[0]
		if s.EnterpriseSwapChain != "" || e.EnterpriseSwapChain != "" {
			continue
		}
		if err := r.EnterpriseSwapChains(s.Name, e.Name); err != nil {
			return err
		}
	}
	return nil
}
