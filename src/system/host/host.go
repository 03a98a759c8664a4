// Package host declares the collaborator contract towards the audio
// application. The host exposes effects as a flat, ordered, mutable list per
// track; containment is navigated through parent/child accessors on top of
// that list. The host gives no atomicity or ordering guarantee across calls.
package host

import (
	"github.com/voodooEntity/rackdaw/src/system/types"
)

// Ref is a transient reference to one host effect node, valid for exactly
// one batch of host calls. Any structural mutation invalidates every Ref
// issued before it, the zero Ref is always invalid. Refs are never stored
// across a mutation boundary, they are re-derived from a StableID instead.
type Ref int64

// InvalidRef is the zero Ref.
const InvalidRef Ref = 0

// Host is the surface the resolver and mutator operate against.
//
// Contract: after every call that mutates the container tree
// (CreateContainer, AddPlugin, MoveChild, Remove), all previously obtained
// Refs for that subtree and every subtree containing it must be discarded
// and re-resolved by StableID. Implementations are expected to enforce this
// by failing stale Refs with types.ErrStaleHandle rather than answering
// from outdated state.
type Host interface {
	// Root returns a fresh Ref for the track root pseudo container. Its
	// StableID is always types.RootStableID.
	Root() Ref

	// Count returns the total number of effect nodes on the track, the
	// root pseudo container excluded. Cheap, used for frame polling.
	Count() int

	StableID(r Ref) (types.StableID, error)
	Name(r Ref) (string, error)
	SetName(r Ref, name string) error
	IsContainer(r Ref) (bool, error)

	// Parent returns the containing node. ok=false for the root.
	Parent(r Ref) (Ref, bool, error)

	ChildCount(r Ref) (int, error)
	ChildAt(r Ref, idx int) (Ref, error)

	// CreateContainer inserts a new empty container at position pos of the
	// given parent and returns a fresh Ref to it.
	CreateContainer(parent Ref, pos int) (Ref, error)

	// AddPlugin instantiates the named plugin at position pos of the given
	// parent and returns a fresh Ref to it.
	AddPlugin(parent Ref, pos int, plugin string) (Ref, error)

	// MoveChild reparents a node to position pos of newParent, preserving
	// the relative order of the remaining siblings.
	MoveChild(child Ref, newParent Ref, pos int) error

	// Remove deletes a node. Deleting a container cascades to everything
	// beneath it; no StableID below a removed container survives.
	Remove(r Ref) error
}
