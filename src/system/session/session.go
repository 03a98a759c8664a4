// Package session holds the per session UI state of the hierarchy: which
// racks and chains are expanded and which chain is selected inside each
// expanded rack. Two independent maps keyed by StableID, no implicit
// relationship between entries. The maps never evict on their own; the
// owning collaborator drops entries once their ids stop resolving.
package session

import (
	"github.com/voodooEntity/rackdaw/src/system/types"
)

type Session struct {
	expanded      map[types.StableID]bool
	selectedChain map[types.StableID]types.StableID
}

func New() *Session {
	return &Session{
		expanded:      make(map[types.StableID]bool),
		selectedChain: make(map[types.StableID]types.StableID),
	}
}

func (s *Session) SetExpanded(id types.StableID, expanded bool) {
	if !expanded {
		delete(s.expanded, id)
		return
	}
	s.expanded[id] = true
}

func (s *Session) IsExpanded(id types.StableID) bool {
	return s.expanded[id]
}

func (s *Session) SetSelectedChain(rackID types.StableID, chainID types.StableID) {
	s.selectedChain[rackID] = chainID
}

func (s *Session) SelectedChain(rackID types.StableID) (types.StableID, bool) {
	chainID, ok := s.selectedChain[rackID]
	return chainID, ok
}

// DropMissing removes every entry whose key, or whose selected chain, no
// longer resolves. Called by the observer after a detected structural
// change, never implicitly.
func (s *Session) DropMissing(resolves func(types.StableID) bool) int {
	dropped := 0
	for id := range s.expanded {
		if !resolves(id) {
			delete(s.expanded, id)
			dropped++
		}
	}
	for rackID, chainID := range s.selectedChain {
		if !resolves(rackID) || !resolves(chainID) {
			delete(s.selectedChain, rackID)
			dropped++
		}
	}
	return dropped
}

// Clear wipes all state, used on track or session teardown.
func (s *Session) Clear() {
	s.expanded = make(map[types.StableID]bool)
	s.selectedChain = make(map[types.StableID]types.StableID)
}
