// Package memhost is a complete in-process implementation of the host
// contract. It reproduces the hostile part of a real host on purpose: every
// structural mutation bumps a generation counter and kills every handle
// issued before it, so code holding a stale Ref fails loudly instead of
// silently acting on the wrong node.
package memhost

import (
	"strconv"

	"github.com/voodooEntity/rackdaw/src/system/archivist"
	"github.com/voodooEntity/rackdaw/src/system/host"
	"github.com/voodooEntity/rackdaw/src/system/types"
)

type fxNode struct {
	stableID  types.StableID
	name      string
	container bool
	plugin    string
	parent    *fxNode
	children  []*fxNode
}

type refEntry struct {
	node *fxNode
	gen  uint64
}

type MemHost struct {
	log     *archivist.Archivist
	root    *fxNode
	gen     uint64
	nextID  int
	nextRef host.Ref
	refs    map[host.Ref]refEntry
}

func New(logger *archivist.Archivist) *MemHost {
	return &MemHost{
		log: logger,
		root: &fxNode{
			stableID:  types.RootStableID,
			container: true,
		},
		refs: make(map[host.Ref]refEntry),
	}
}

// issue hands out a fresh Ref bound to the current generation.
func (h *MemHost) issue(n *fxNode) host.Ref {
	h.nextRef++
	h.refs[h.nextRef] = refEntry{node: n, gen: h.gen}
	return h.nextRef
}

// lookup validates a Ref against the current generation.
func (h *MemHost) lookup(r host.Ref) (*fxNode, error) {
	entry, ok := h.refs[r]
	if !ok || entry.gen != h.gen {
		return nil, types.ErrStaleHandle
	}
	return entry.node, nil
}

// bump invalidates every outstanding Ref. Called on each structural edit.
func (h *MemHost) bump() {
	h.gen++
	h.refs = make(map[host.Ref]refEntry)
}

func (h *MemHost) newStableID() types.StableID {
	h.nextID++
	return types.StableID("fx-" + strconv.Itoa(h.nextID))
}

func (h *MemHost) Root() host.Ref {
	return h.issue(h.root)
}

func (h *MemHost) Count() int {
	return h.rCount(h.root)
}

func (h *MemHost) rCount(n *fxNode) int {
	count := 0
	for _, child := range n.children {
		count += 1 + h.rCount(child)
	}
	return count
}

func (h *MemHost) StableID(r host.Ref) (types.StableID, error) {
	n, err := h.lookup(r)
	if err != nil {
		return "", err
	}
	return n.stableID, nil
}

func (h *MemHost) Name(r host.Ref) (string, error) {
	n, err := h.lookup(r)
	if err != nil {
		return "", err
	}
	return n.name, nil
}

func (h *MemHost) SetName(r host.Ref, name string) error {
	// renaming is not a structural edit, handles stay valid
	n, err := h.lookup(r)
	if err != nil {
		return err
	}
	n.name = name
	return nil
}

func (h *MemHost) IsContainer(r host.Ref) (bool, error) {
	n, err := h.lookup(r)
	if err != nil {
		return false, err
	}
	return n.container, nil
}

func (h *MemHost) Parent(r host.Ref) (host.Ref, bool, error) {
	n, err := h.lookup(r)
	if err != nil {
		return host.InvalidRef, false, err
	}
	if n.parent == nil {
		return host.InvalidRef, false, nil
	}
	return h.issue(n.parent), true, nil
}

func (h *MemHost) ChildCount(r host.Ref) (int, error) {
	n, err := h.lookup(r)
	if err != nil {
		return 0, err
	}
	return len(n.children), nil
}

func (h *MemHost) ChildAt(r host.Ref, idx int) (host.Ref, error) {
	n, err := h.lookup(r)
	if err != nil {
		return host.InvalidRef, err
	}
	if idx < 0 || idx >= len(n.children) {
		return host.InvalidRef, types.ErrNotFound
	}
	return h.issue(n.children[idx]), nil
}

func (h *MemHost) CreateContainer(parent host.Ref, pos int) (host.Ref, error) {
	p, err := h.lookup(parent)
	if err != nil {
		return host.InvalidRef, err
	}
	if !p.container {
		return host.InvalidRef, types.ErrContainerCreateFailed
	}
	if pos < 0 || pos > len(p.children) {
		return host.InvalidRef, types.ErrContainerCreateFailed
	}
	node := &fxNode{
		stableID:  h.newStableID(),
		container: true,
		parent:    p,
	}
	p.children = append(p.children, nil)
	copy(p.children[pos+1:], p.children[pos:])
	p.children[pos] = node
	h.bump()
	h.log.Debug(archivist.DEBUG_LEVEL_TRACE, "memhost CREATE container id=", string(node.stableID), " pos=", pos)
	return h.issue(node), nil
}

func (h *MemHost) AddPlugin(parent host.Ref, pos int, plugin string) (host.Ref, error) {
	p, err := h.lookup(parent)
	if err != nil {
		return host.InvalidRef, err
	}
	if !p.container || pos < 0 || pos > len(p.children) {
		return host.InvalidRef, types.ErrContainerCreateFailed
	}
	node := &fxNode{
		stableID: h.newStableID(),
		name:     plugin,
		plugin:   plugin,
		parent:   p,
	}
	p.children = append(p.children, nil)
	copy(p.children[pos+1:], p.children[pos:])
	p.children[pos] = node
	h.bump()
	h.log.Debug(archivist.DEBUG_LEVEL_TRACE, "memhost ADD plugin id=", string(node.stableID), " name=", plugin)
	return h.issue(node), nil
}

func (h *MemHost) MoveChild(child host.Ref, newParent host.Ref, pos int) error {
	c, err := h.lookup(child)
	if err != nil {
		return err
	}
	p, err := h.lookup(newParent)
	if err != nil {
		return err
	}
	if !p.container || c.parent == nil {
		return types.ErrChildMoveFailed
	}
	// a node must never land inside its own subtree
	for probe := p; probe != nil; probe = probe.parent {
		if probe == c {
			return types.ErrChildMoveFailed
		}
	}
	// detach from the old parent first
	old := c.parent
	idx := -1
	for i, sibling := range old.children {
		if sibling == c {
			idx = i
			break
		}
	}
	if idx < 0 {
		return types.ErrChildMoveFailed
	}
	old.children = append(old.children[:idx], old.children[idx+1:]...)
	if pos < 0 || pos > len(p.children) {
		// reattach where it was, the host rejected the placement
		old.children = append(old.children, nil)
		copy(old.children[idx+1:], old.children[idx:])
		old.children[idx] = c
		return types.ErrChildMoveFailed
	}
	p.children = append(p.children, nil)
	copy(p.children[pos+1:], p.children[pos:])
	p.children[pos] = c
	c.parent = p
	h.bump()
	h.log.Debug(archivist.DEBUG_LEVEL_TRACE, "memhost MOVE id=", string(c.stableID), " pos=", pos)
	return nil
}

func (h *MemHost) Remove(r host.Ref) error {
	n, err := h.lookup(r)
	if err != nil {
		return err
	}
	if n.parent == nil {
		// the root pseudo container is not removable
		return types.ErrChildMoveFailed
	}
	parent := n.parent
	idx := -1
	for i, sibling := range parent.children {
		if sibling == n {
			idx = i
			break
		}
	}
	if idx < 0 {
		return types.ErrNotFound
	}
	parent.children = append(parent.children[:idx], parent.children[idx+1:]...)
	n.parent = nil
	h.bump()
	h.log.Debug(archivist.DEBUG_LEVEL_TRACE, "memhost REMOVE id=", string(n.stableID))
	return nil
}
