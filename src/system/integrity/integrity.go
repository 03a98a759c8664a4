// Package integrity combines name based classification with structural
// context and verifies tree invariants. Verification is read only and only
// ever runs on explicit request, defensively before bulk operations and
// exhaustively in tests.
package integrity

import (
	"github.com/voodooEntity/rackdaw/src/system/archivist"
	"github.com/voodooEntity/rackdaw/src/system/host"
	"github.com/voodooEntity/rackdaw/src/system/naming"
	"github.com/voodooEntity/rackdaw/src/system/types"
)

// DefaultMaxDepth is the cycle detection backstop used when no explicit
// ceiling is configured.
const DefaultMaxDepth = 32

// ClassifyInContext refines the name level classification with structural
// facts. A mixer is recognized by name alone, never by position. Rack and
// chain shaped names on non containers, and device shaped names on non
// containers that are not sub parts of a device, classify as Plain: the
// name is just text on a bare plugin then.
func ClassifyInContext(name string, isContainer bool, parentKind types.Kind) types.Kind {
	kind := naming.Classify(name)
	switch kind {
	case types.KindMixer:
		return types.KindMixer
	case types.KindRack, types.KindChain:
		if !isContainer {
			return types.KindPlain
		}
		return kind
	case types.KindDevice:
		path, _, _ := naming.Decode(name)
		if path.Part != types.PartNone {
			// sub parts live inside a device wrapper; outside of one the
			// name carries no meaning
			if parentKind == types.KindDevice {
				return types.KindDevice
			}
			return types.KindPlain
		}
		if !isContainer {
			return types.KindPlain
		}
		return types.KindDevice
	}
	return types.KindPlain
}

type Checker struct {
	host     host.Host
	maxDepth int
	log      *archivist.Archivist
}

func NewChecker(h host.Host, maxDepth int, logger *archivist.Archivist) *Checker {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Checker{
		host:     h,
		maxDepth: maxDepth,
		log:      logger,
	}
}

// Verify walks the tree depth first with a visited set keyed by StableID.
// It reports the first violation found: a revisited id (CircularReference),
// a child whose parent link does not point back at its actual container
// (ParentMismatch) or a depth above the configured ceiling
// (MaxDepthExceeded), which backstops cycle detection independently of the
// visited set. No host mutation happens in here.
func (c *Checker) Verify() error {
	visited := make(map[types.StableID]bool)
	root := c.host.Root()
	rootID, err := c.host.StableID(root)
	if err != nil {
		return err
	}
	visited[rootID] = true
	return c.rVerify(root, rootID, 0, visited)
}

func (c *Checker) rVerify(ref host.Ref, refID types.StableID, depth int, visited map[types.StableID]bool) error {
	if depth > c.maxDepth {
		return &types.IntegrityError{Code: types.IntegrityMaxDepthExceeded, StableID: refID, Depth: depth}
	}
	count, err := c.host.ChildCount(ref)
	if err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		child, err := c.host.ChildAt(ref, i)
		if err != nil {
			return err
		}
		childID, err := c.host.StableID(child)
		if err != nil {
			return err
		}
		if visited[childID] {
			c.log.Error("integrity CYCLE at ", string(childID))
			return &types.IntegrityError{Code: types.IntegrityCircularReference, StableID: childID, Depth: depth + 1}
		}
		visited[childID] = true

		// the child's own parent link has to point back at us
		parent, ok, err := c.host.Parent(child)
		if err != nil {
			return err
		}
		if !ok {
			return &types.IntegrityError{Code: types.IntegrityParentMismatch, StableID: childID, Depth: depth + 1}
		}
		parentID, err := c.host.StableID(parent)
		if err != nil {
			return err
		}
		if parentID != refID {
			c.log.Error("integrity PARENT mismatch child=", string(childID), " expected=", string(refID), " actual=", string(parentID))
			return &types.IntegrityError{Code: types.IntegrityParentMismatch, StableID: childID, Depth: depth + 1}
		}

		if isContainer, err := c.host.IsContainer(child); err == nil && isContainer {
			if err := c.rVerify(child, childID, depth+1, visited); err != nil {
				return err
			}
		}
	}
	return nil
}
