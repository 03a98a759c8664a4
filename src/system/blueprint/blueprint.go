// Package blueprint is a fluent builder for whole track layouts. A
// blueprint describes racks, their chains and the plugins per chain as
// plain data; Apply drives the mutator to build it against a live host.
// Used by the cli demo and handy in tests to seed trees declaratively.
package blueprint

import (
	"github.com/voodooEntity/rackdaw/src/system/mutator"
	"github.com/voodooEntity/rackdaw/src/system/types"
)

type Blueprint struct {
	Racks []*RackPlan
}

type RackPlan struct {
	Chains []*ChainPlan
}

type ChainPlan struct {
	Plugins     []string
	NestedRacks int
}

func New() *Blueprint {
	return &Blueprint{}
}

func (b *Blueprint) AddRack(rack *RackPlan) *Blueprint {
	b.Racks = append(b.Racks, rack)
	return b
}

func NewRack() *RackPlan {
	return &RackPlan{}
}

func (r *RackPlan) AddChain(plugins ...string) *RackPlan {
	r.Chains = append(r.Chains, &ChainPlan{Plugins: plugins})
	return r
}

// NestRack marks the last added chain to receive a nested rack. Without a
// chain yet an empty one is created first.
func (r *RackPlan) NestRack() *RackPlan {
	if len(r.Chains) == 0 {
		r.AddChain()
	}
	r.Chains[len(r.Chains)-1].NestedRacks++
	return r
}

// Apply builds the blueprint through the mutator, top level racks under the
// track root. Returns the StableIDs of the created top level racks. Fail
// fast, a failing step aborts with what was built so far in place.
func (b *Blueprint) Apply(m *mutator.Mutator) ([]types.StableID, error) {
	var rackIDs []types.StableID
	for _, rackPlan := range b.Racks {
		rack, err := m.AddRack(types.RootStableID)
		if err != nil {
			return rackIDs, err
		}
		rackIDs = append(rackIDs, rack.StableID)
		for _, chainPlan := range rackPlan.Chains {
			first := ""
			if len(chainPlan.Plugins) > 0 {
				first = chainPlan.Plugins[0]
			}
			chain, err := m.AddChainToRack(rack.StableID, first)
			if err != nil {
				return rackIDs, err
			}
			rest := chainPlan.Plugins
			if len(rest) > 0 {
				rest = rest[1:]
			}
			for _, plugin := range rest {
				if _, err := m.AddDeviceToChain(chain.StableID, plugin); err != nil {
					return rackIDs, err
				}
			}
			for i := 0; i < chainPlan.NestedRacks; i++ {
				if _, err := m.AddRackToChain(chain.StableID); err != nil {
					return rackIDs, err
				}
			}
		}
	}
	return rackIDs, nil
}
