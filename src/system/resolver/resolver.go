// Package resolver turns stable identities back into fresh transient host
// handles. It is the single place that walks the host tree; every higher
// level component re-resolves through it instead of re-deriving paths
// locally.
package resolver

import (
	"github.com/voodooEntity/rackdaw/src/system/archivist"
	"github.com/voodooEntity/rackdaw/src/system/host"
	"github.com/voodooEntity/rackdaw/src/system/naming"
	"github.com/voodooEntity/rackdaw/src/system/types"
)

type Resolver struct {
	host host.Host
	log  *archivist.Archivist
}

func New(h host.Host, logger *archivist.Archivist) *Resolver {
	return &Resolver{
		host: h,
		log:  logger,
	}
}

// Resolve re-acquires a fresh handle for a stable identity by scanning the
// host's current tree. Directly after a structural edit the host may answer
// a scan from partially updated state, so a miss is retried once from a
// fresh root before we report the node gone.
func (r *Resolver) Resolve(id types.StableID) (host.Ref, bool) {
	for attempt := 0; attempt < 2; attempt++ {
		root := r.host.Root()
		if id == types.RootStableID {
			return root, true
		}
		if ref, ok := r.rScan(root, id); ok {
			return ref, true
		}
	}
	r.log.Debug(archivist.DEBUG_LEVEL_TRACE, "resolver MISS id=", string(id))
	return host.InvalidRef, false
}

func (r *Resolver) rScan(ref host.Ref, id types.StableID) (host.Ref, bool) {
	count, err := r.host.ChildCount(ref)
	if err != nil {
		return host.InvalidRef, false
	}
	for i := 0; i < count; i++ {
		child, err := r.host.ChildAt(ref, i)
		if err != nil {
			continue
		}
		childID, err := r.host.StableID(child)
		if err != nil {
			continue
		}
		if childID == id {
			return child, true
		}
		if isContainer, err := r.host.IsContainer(child); err == nil && isContainer {
			if hit, ok := r.rScan(child, id); ok {
				return hit, true
			}
		}
	}
	return host.InvalidRef, false
}

// AncestorPath walks the parent links outward from a handle to the root,
// recording at each level the 0-based position of the child within its
// parent. The result is ordered from the immediate parent to the root. It
// is re-derived fresh on every call and never cached, since any ancestor
// handle may itself already be stale.
func (r *Resolver) AncestorPath(ref host.Ref) ([]types.PathStep, error) {
	var steps []types.PathStep
	current := ref
	for {
		parent, ok, err := r.host.Parent(current)
		if err != nil {
			return nil, err
		}
		if !ok {
			return steps, nil
		}
		pos, err := r.positionIn(parent, current)
		if err != nil {
			return nil, err
		}
		parentID, err := r.host.StableID(parent)
		if err != nil {
			return nil, err
		}
		steps = append(steps, types.PathStep{StableID: parentID, Position: pos})
		current = parent
	}
}

func (r *Resolver) positionIn(parent host.Ref, child host.Ref) (int, error) {
	childID, err := r.host.StableID(child)
	if err != nil {
		return -1, err
	}
	count, err := r.host.ChildCount(parent)
	if err != nil {
		return -1, err
	}
	for i := 0; i < count; i++ {
		sibling, err := r.host.ChildAt(parent, i)
		if err != nil {
			return -1, err
		}
		siblingID, err := r.host.StableID(sibling)
		if err != nil {
			return -1, err
		}
		if siblingID == childID {
			return i, nil
		}
	}
	return -1, types.ErrNotFound
}

// Node assembles the short lived view onto one effect: name, decoded path
// and name-level kind. Callers needing context refined kinds go through the
// integrity package instead.
func (r *Resolver) Node(ref host.Ref) (*types.Node, error) {
	id, err := r.host.StableID(ref)
	if err != nil {
		return nil, err
	}
	name, err := r.host.Name(ref)
	if err != nil {
		return nil, err
	}
	isContainer, err := r.host.IsContainer(ref)
	if err != nil {
		return nil, err
	}
	path, label, _ := naming.Decode(name)
	return &types.Node{
		StableID:    id,
		Name:        name,
		Label:       label,
		Kind:        naming.Classify(name),
		Path:        path,
		IsContainer: isContainer,
	}, nil
}

// NodeByID is Resolve followed by Node.
func (r *Resolver) NodeByID(id types.StableID) (*types.Node, bool) {
	ref, ok := r.Resolve(id)
	if !ok {
		return nil, false
	}
	node, err := r.Node(ref)
	if err != nil {
		return nil, false
	}
	return node, true
}

// ChildNames lists the display names of a container's current children in
// order. Used for next-free-index scans.
func (r *Resolver) ChildNames(ref host.Ref) ([]string, error) {
	count, err := r.host.ChildCount(ref)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for i := 0; i < count; i++ {
		child, err := r.host.ChildAt(ref, i)
		if err != nil {
			return nil, err
		}
		name, err := r.host.Name(child)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

// AllNames collects every display name in the tree, depth first. Rack
// indices are allocated globally across the track, so the mutator scans the
// whole tree through this.
func (r *Resolver) AllNames() []string {
	var names []string
	r.rCollectNames(r.host.Root(), &names)
	return names
}

func (r *Resolver) rCollectNames(ref host.Ref, names *[]string) {
	count, err := r.host.ChildCount(ref)
	if err != nil {
		return
	}
	for i := 0; i < count; i++ {
		child, err := r.host.ChildAt(ref, i)
		if err != nil {
			continue
		}
		if name, err := r.host.Name(child); err == nil {
			*names = append(*names, name)
		}
		if isContainer, err := r.host.IsContainer(child); err == nil && isContainer {
			r.rCollectNames(child, names)
		}
	}
}
