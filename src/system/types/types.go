// Package types carries the data model shared by all rackdaw components:
// stable identities, container kinds, hierarchy paths and the error set.
package types

import (
	"errors"
	"fmt"
	"strconv"
)

// StableID is the host assigned identity of a single effect node. It survives
// reordering, sibling edits and container restructuring, but not the deletion
// of the node itself.
type StableID string

// RootStableID is the identity of the track root pseudo container. Hosts
// must report it for their root node so callers can address the top level
// the same way they address any other container.
const RootStableID StableID = "root"

// Kind is the derived container kind of a node. It is never stored, always
// recomputed from the display name plus structural context.
type Kind int

const (
	KindPlain Kind = iota
	KindRack
	KindChain
	KindDevice
	KindMixer
)

func (k Kind) String() string {
	switch k {
	case KindRack:
		return "Rack"
	case KindChain:
		return "Chain"
	case KindDevice:
		return "Device"
	case KindMixer:
		return "Mixer"
	}
	return "Plain"
}

// Part marks the sub part role of a device shaped name. PartNone is the
// device wrapper itself.
type Part int

const (
	PartNone Part = iota
	PartFX
	PartUtil
	PartModulator
)

// Path locates a node in the logical tree. A zero field means "unset".
// Legal shapes: rack only (top level rack), rack+chain (chain), all three
// (nested device), device only (standalone device). Mixer is flagged
// separately since it is named from the rack index alone.
type Path struct {
	Rack      int
	Chain     int
	Device    int
	Modulator int
	Part      Part
	Mixer     bool
}

// IsZero reports whether no structural component is set.
func (p Path) IsZero() bool {
	return p.Rack == 0 && p.Chain == 0 && p.Device == 0 && !p.Mixer
}

func (p Path) String() string {
	if p.IsZero() {
		return "-"
	}
	out := ""
	if p.Rack > 0 {
		out += "R" + strconv.Itoa(p.Rack)
	}
	if p.Mixer {
		return out + "/M"
	}
	if p.Chain > 0 {
		out += "/C" + strconv.Itoa(p.Chain)
	}
	if p.Device > 0 {
		if out != "" {
			out += "/"
		}
		out += "D" + strconv.Itoa(p.Device)
	}
	return out
}

// Node is a short lived, recomputed view onto one host effect. It is never
// cached across a mutation; holders re-resolve by StableID instead.
type Node struct {
	StableID    StableID
	Name        string
	Label       string
	Kind        Kind
	Path        Path
	IsContainer bool
}

// PathStep is one level of an ancestor walk: the stable identity of the
// ancestor and the 0-based position of the walked child inside it.
type PathStep struct {
	StableID StableID
	Position int
}

// Resolution and mutation errors
var (
	// ErrNotFound indicates a StableID no longer resolves against the host.
	ErrNotFound = errors.New("stable id does not resolve")

	// ErrWrongKind indicates an operation was invoked on a node that does
	// not classify as the expected kind.
	ErrWrongKind = errors.New("node is not of the expected kind")

	// ErrStaleHandle indicates a transient handle from before the last
	// structural mutation was used.
	ErrStaleHandle = errors.New("stale handle used after structural mutation")

	// ErrContainerCreateFailed indicates the host refused to create a container.
	ErrContainerCreateFailed = errors.New("host refused container creation")

	// ErrChildMoveFailed indicates the host rejected or misplaced a child move.
	ErrChildMoveFailed = errors.New("host rejected child placement")
)

// Integrity error codes reported by the invariant checker.
const (
	IntegrityCircularReference = "CircularReference"
	IntegrityParentMismatch    = "ParentMismatch"
	IntegrityMaxDepthExceeded  = "MaxDepthExceeded"
)

// IntegrityError describes a single violation found by the invariant
// checker. It is only ever produced by explicit verification, never thrown
// implicitly during normal operation.
type IntegrityError struct {
	Code     string
	StableID StableID
	Depth    int
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity violation %s at %s (depth %d)", e.Code, string(e.StableID), e.Depth)
}
