package session

import (
	"testing"

	"github.com/voodooEntity/rackdaw/src/system/types"
)

func TestExpansionIsPerContainer(t *testing.T) {
	s := New()
	outer := types.StableID("fx-1")
	inner := types.StableID("fx-2")
	sibling := types.StableID("fx-3")

	s.SetExpanded(outer, true)
	if !s.IsExpanded(outer) {
		t.Fatalf("outer not expanded")
	}
	// neither the nested nor the sibling rack inherit the flag
	if s.IsExpanded(inner) || s.IsExpanded(sibling) {
		t.Fatalf("expansion leaked to other containers")
	}
	s.SetExpanded(inner, true)
	s.SetExpanded(outer, false)
	if s.IsExpanded(outer) || !s.IsExpanded(inner) {
		t.Fatalf("collapse of the outer rack touched the inner one")
	}
}

func TestSelectedChainPerRack(t *testing.T) {
	s := New()
	rackA := types.StableID("fx-1")
	rackB := types.StableID("fx-2")
	s.SetSelectedChain(rackA, "fx-10")
	s.SetSelectedChain(rackB, "fx-20")

	chain, ok := s.SelectedChain(rackA)
	if !ok || chain != "fx-10" {
		t.Fatalf("rack A selection wrong: %q %v", chain, ok)
	}
	chain, ok = s.SelectedChain(rackB)
	if !ok || chain != "fx-20" {
		t.Fatalf("rack B selection wrong: %q %v", chain, ok)
	}
	if _, ok := s.SelectedChain("fx-3"); ok {
		t.Fatalf("selection invented for unknown rack")
	}
}

func TestDropMissing(t *testing.T) {
	s := New()
	s.SetExpanded("fx-1", true)
	s.SetExpanded("fx-2", true)
	s.SetSelectedChain("fx-1", "fx-10")
	s.SetSelectedChain("fx-3", "fx-30")

	alive := map[types.StableID]bool{"fx-1": true, "fx-10": true, "fx-3": true}
	dropped := s.DropMissing(func(id types.StableID) bool {
		return alive[id]
	})
	// fx-2 expansion dies, the fx-3 selection dies with its chain
	if dropped != 2 {
		t.Fatalf("expected 2 dropped entries, got %d", dropped)
	}
	if s.IsExpanded("fx-2") {
		t.Fatalf("dead expansion survived")
	}
	if !s.IsExpanded("fx-1") {
		t.Fatalf("live expansion dropped")
	}
	if _, ok := s.SelectedChain("fx-3"); ok {
		t.Fatalf("selection with dead chain survived")
	}
	if _, ok := s.SelectedChain("fx-1"); !ok {
		t.Fatalf("live selection dropped")
	}
}

func TestClear(t *testing.T) {
	s := New()
	s.SetExpanded("fx-1", true)
	s.SetSelectedChain("fx-1", "fx-10")
	s.Clear()
	if s.IsExpanded("fx-1") {
		t.Fatalf("clear left expansion state")
	}
	if _, ok := s.SelectedChain("fx-1"); ok {
		t.Fatalf("clear left selection state")
	}
}
