package mutator

import (
	"errors"
	"log"
	"os"
	"testing"

	"github.com/voodooEntity/rackdaw/src/system/archivist"
	"github.com/voodooEntity/rackdaw/src/system/memhost"
	"github.com/voodooEntity/rackdaw/src/system/resolver"
	"github.com/voodooEntity/rackdaw/src/system/types"
)

func setupFresh() (*Mutator, *memhost.MemHost, *resolver.Resolver) {
	logger := archivist.New(&archivist.Config{Logger: log.New(os.Stdout, "", 0)})
	h := memhost.New(logger)
	res := resolver.New(h, logger)
	return New(h, res, nil, logger), h, res
}

func mustNode(t *testing.T, res *resolver.Resolver, id types.StableID) *types.Node {
	t.Helper()
	node, ok := res.NodeByID(id)
	if !ok {
		t.Fatalf("node %q no longer resolves", id)
	}
	return node
}

func TestAddRackCreatesMixer(t *testing.T) {
	m, h, res := setupFresh()
	rack, err := m.AddRack(types.RootStableID)
	if err != nil {
		t.Fatalf("add rack failed: %v", err)
	}
	if rack.Name != "R1: Rack" {
		t.Fatalf("unexpected rack name %q", rack.Name)
	}
	rackRef, ok := res.Resolve(rack.StableID)
	if !ok {
		t.Fatalf("rack does not resolve")
	}
	count, _ := h.ChildCount(rackRef)
	if count != 1 {
		t.Fatalf("expected only the mixer child, got %d children", count)
	}
	mixerRef, _ := h.ChildAt(rackRef, 0)
	name, _ := h.Name(mixerRef)
	if name != "_R1_M" {
		t.Fatalf("mixer misnamed: %q", name)
	}
}

func TestAddRackRejectsNonChainParent(t *testing.T) {
	m, _, _ := setupFresh()
	rack, err := m.AddRack(types.RootStableID)
	if err != nil {
		t.Fatalf("add rack failed: %v", err)
	}
	// a rack is not a chain, nesting directly must be refused
	if _, err := m.AddRack(rack.StableID); !errors.Is(err, types.ErrWrongKind) {
		t.Fatalf("expected wrong kind, got %v", err)
	}
	if _, err := m.AddRack(types.StableID("fx-9999")); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBuildScenario(t *testing.T) {
	m, h, res := setupFresh()

	rack, err := m.AddRack(types.RootStableID)
	if err != nil {
		t.Fatalf("add rack failed: %v", err)
	}
	chain1, err := m.AddChainToRack(rack.StableID, "VST: ReaComp (Cockos)")
	if err != nil {
		t.Fatalf("first chain failed: %v", err)
	}
	if chain1.Name != "R1_C1" {
		t.Fatalf("first chain misnamed: %q", chain1.Name)
	}
	chain1Ref, _ := res.Resolve(chain1.StableID)
	names, _ := res.ChildNames(chain1Ref)
	if len(names) != 1 || names[0] != "R1_C1_D1: ReaComp" {
		t.Fatalf("device misnamed: %v", names)
	}
	deviceRef, _ := h.ChildAt(chain1Ref, 0)
	fxRef, err := h.ChildAt(deviceRef, 0)
	if err != nil {
		t.Fatalf("fx child missing: %v", err)
	}
	if fxName, _ := h.Name(fxRef); fxName != "R1_C1_D1_FX: ReaComp" {
		t.Fatalf("fx child misnamed: %q", fxName)
	}

	chain2, err := m.AddChainToRack(rack.StableID, "VST: ReaEQ (Cockos)")
	if err != nil {
		t.Fatalf("second chain failed: %v", err)
	}
	if chain2.Name != "R1_C2" {
		t.Fatalf("second chain misnamed: %q", chain2.Name)
	}

	// nest a rack inside the first chain, it gets the next global index
	inner, err := m.AddRackToChain(chain1.StableID)
	if err != nil {
		t.Fatalf("nested rack failed: %v", err)
	}
	if inner.Name != "R2: Rack" {
		t.Fatalf("nested rack misnamed: %q", inner.Name)
	}
	innerRef, _ := res.Resolve(inner.StableID)
	steps, err := res.AncestorPath(innerRef)
	if err != nil {
		t.Fatalf("ancestor walk failed: %v", err)
	}
	if len(steps) != 3 || steps[0].StableID != chain1.StableID ||
		steps[1].StableID != rack.StableID || steps[2].StableID != types.RootStableID {
		t.Fatalf("nested rack not inside chain 1: %v", steps)
	}

	// the outer rack still has exactly its mixer and two chains
	rackRef, _ := res.Resolve(rack.StableID)
	outerNames, _ := res.ChildNames(rackRef)
	if len(outerNames) != 3 {
		t.Fatalf("outer rack child count changed: %v", outerNames)
	}
}

func TestConvertEmptyChain(t *testing.T) {
	m, _, res := setupFresh()
	rack, _ := m.AddRack(types.RootStableID)
	chain, err := m.AddChainToRack(rack.StableID, "")
	if err != nil {
		t.Fatalf("chain failed: %v", err)
	}
	moved, err := m.ConvertChainToDevices(chain.StableID)
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	if len(moved) != 0 {
		t.Fatalf("empty chain yielded devices: %v", moved)
	}
	if _, ok := res.Resolve(chain.StableID); ok {
		t.Fatalf("chain still resolves after convert")
	}
	rackRef, _ := res.Resolve(rack.StableID)
	names, _ := res.ChildNames(rackRef)
	if len(names) != 1 || names[0] != "_R1_M" {
		t.Fatalf("rack contents unexpected after convert: %v", names)
	}
}

func TestIndexMonotonicity(t *testing.T) {
	m, h, res := setupFresh()
	rack, _ := m.AddRack(types.RootStableID)
	for i := 0; i < 3; i++ {
		if _, err := m.AddChainToRack(rack.StableID, ""); err != nil {
			t.Fatalf("chain %d failed: %v", i+1, err)
		}
	}
	rackRef, _ := res.Resolve(rack.StableID)
	names, _ := res.ChildNames(rackRef)
	want := []string{"_R1_M", "R1_C1", "R1_C2", "R1_C3"}
	if len(names) != len(want) {
		t.Fatalf("child count mismatch: %v", names)
	}
	for i, expected := range want {
		if names[i] != expected {
			t.Fatalf("position %d: want %q got %q", i, expected, names[i])
		}
	}

	chainNode := mustNode(t, res, childIDAt(t, h, res, rack.StableID, 1))
	for i := 0; i < 3; i++ {
		if _, err := m.AddDeviceToChain(chainNode.StableID, "VST: ReaComp (Cockos)"); err != nil {
			t.Fatalf("device %d failed: %v", i+1, err)
		}
	}
	chainRef, _ := res.Resolve(chainNode.StableID)
	deviceNames, _ := res.ChildNames(chainRef)
	wantDevices := []string{"R1_C1_D1: ReaComp", "R1_C1_D2: ReaComp", "R1_C1_D3: ReaComp"}
	for i, expected := range wantDevices {
		if deviceNames[i] != expected {
			t.Fatalf("device %d: want %q got %q", i, expected, deviceNames[i])
		}
	}
}

func childIDAt(t *testing.T, h *memhost.MemHost, res *resolver.Resolver, parent types.StableID, pos int) types.StableID {
	t.Helper()
	ref, ok := res.Resolve(parent)
	if !ok {
		t.Fatalf("parent %q does not resolve", parent)
	}
	child, err := h.ChildAt(ref, pos)
	if err != nil {
		t.Fatalf("no child at %d under %q: %v", pos, parent, err)
	}
	id, err := h.StableID(child)
	if err != nil {
		t.Fatalf("stable id lookup failed: %v", err)
	}
	return id
}

func TestAncestorPreservationDepthFive(t *testing.T) {
	m, _, res := setupFresh()
	r1, err := m.AddRack(types.RootStableID)
	if err != nil {
		t.Fatalf("rack 1 failed: %v", err)
	}
	c1, err := m.AddChainToRack(r1.StableID, "")
	if err != nil {
		t.Fatalf("chain 1 failed: %v", err)
	}
	r2, err := m.AddRackToChain(c1.StableID)
	if err != nil {
		t.Fatalf("rack 2 failed: %v", err)
	}
	c2, err := m.AddChainToRack(r2.StableID, "")
	if err != nil {
		t.Fatalf("chain 2 failed: %v", err)
	}
	r3, err := m.AddRackToChain(c2.StableID)
	if err != nil {
		t.Fatalf("rack 3 failed: %v", err)
	}
	if r3.Name != "R3: Rack" {
		t.Fatalf("global rack index broken: %q", r3.Name)
	}

	ref, ok := res.Resolve(r3.StableID)
	if !ok {
		t.Fatalf("innermost rack does not resolve")
	}
	steps, err := res.AncestorPath(ref)
	if err != nil {
		t.Fatalf("ancestor walk failed: %v", err)
	}
	wantIDs := []types.StableID{c2.StableID, r2.StableID, c1.StableID, r1.StableID, types.RootStableID}
	if len(steps) != len(wantIDs) {
		t.Fatalf("expected %d ancestors, got %v", len(wantIDs), steps)
	}
	for i, expected := range wantIDs {
		if steps[i].StableID != expected {
			t.Fatalf("ancestor %d: want %q got %q", i, expected, steps[i].StableID)
		}
	}
	// chains sit behind the mixer inside their racks
	if steps[0].Position != 0 || steps[1].Position != 1 {
		t.Fatalf("unexpected positions: %v", steps)
	}
}

func TestAddNestedRackToRack(t *testing.T) {
	m, _, res := setupFresh()
	outer, _ := m.AddRack(types.RootStableID)
	inner, err := m.AddNestedRackToRack(outer.StableID)
	if err != nil {
		t.Fatalf("nesting failed: %v", err)
	}
	ref, _ := res.Resolve(inner.StableID)
	steps, err := res.AncestorPath(ref)
	if err != nil {
		t.Fatalf("ancestor walk failed: %v", err)
	}
	if len(steps) != 3 {
		t.Fatalf("expected auto chain between the racks, got %v", steps)
	}
	autoChain := mustNode(t, res, steps[0].StableID)
	if autoChain.Name != "R1_C1" {
		t.Fatalf("auto chain misnamed: %q", autoChain.Name)
	}
	if steps[1].StableID != outer.StableID {
		t.Fatalf("inner rack not below the outer rack: %v", steps)
	}
}
