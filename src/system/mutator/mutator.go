// Package mutator implements the recursive structural operations on the
// container hierarchy. Every operation follows the same skeleton: capture
// the StableIDs of everything needed, perform one host mutation, re-resolve
// every StableID still needed, validate and return. No handle obtained
// before a host mutation is ever used after it.
//
// Operations are fail fast and not transactional. Once a host mutation has
// been issued it is not undone on a later sub step's failure; an operation
// only aborts its own remaining steps and journals what happened. Reads
// (resolves) may be retried, writes never are.
package mutator

import (
	"github.com/voodooEntity/rackdaw/src/system/archivist"
	"github.com/voodooEntity/rackdaw/src/system/host"
	"github.com/voodooEntity/rackdaw/src/system/integrity"
	"github.com/voodooEntity/rackdaw/src/system/memory"
	"github.com/voodooEntity/rackdaw/src/system/naming"
	"github.com/voodooEntity/rackdaw/src/system/resolver"
	"github.com/voodooEntity/rackdaw/src/system/types"
)

// MixerPlugin is the host side plugin instantiated as the per rack mixer
// node. The node is renamed to the canonical mixer name right after.
const MixerPlugin = "JS: rack_mixer"

// DefaultRackLabel is the label new racks carry until a user renames them.
const DefaultRackLabel = "Rack"

type Mutator struct {
	host host.Host
	res  *resolver.Resolver
	mem  *memory.Memory
	log  *archivist.Archivist
}

// New wires a mutator. mem may be nil, journaling is skipped then.
func New(h host.Host, res *resolver.Resolver, mem *memory.Memory, logger *archivist.Archivist) *Mutator {
	return &Mutator{
		host: h,
		res:  res,
		mem:  mem,
		log:  logger,
	}
}

func (m *Mutator) record(op string, target types.StableID, outcome string) {
	if m.mem != nil {
		m.mem.RecordOperation(op, target, outcome)
	}
}

// classifyRef computes the context refined kind of a node and returns the
// view with the kind already replaced.
func (m *Mutator) classifyRef(ref host.Ref) (types.Kind, *types.Node, error) {
	node, err := m.res.Node(ref)
	if err != nil {
		return types.KindPlain, nil, err
	}
	parentKind := types.KindPlain
	if parentRef, ok, err := m.host.Parent(ref); err == nil && ok {
		if parentName, err := m.host.Name(parentRef); err == nil {
			parentKind = naming.Classify(parentName)
		}
	}
	kind := integrity.ClassifyInContext(node.Name, node.IsContainer, parentKind)
	node.Kind = kind
	return kind, node, nil
}

// nextRackIndex allocates rack indices globally across the whole track,
// nested racks included, so every rack name stays unique.
func (m *Mutator) nextRackIndex() int {
	return naming.NextFreeIndex(m.res.AllNames(), naming.RackIndex)
}

// AddRack creates a new rack under the track root or inside a chain,
// together with its mixer child. The rack index is the next free one across
// the whole track.
func (m *Mutator) AddRack(parent types.StableID) (*types.Node, error) {
	m.log.Debug(archivist.DEBUG_LEVEL_TRACE, "mutator ADDRACK begin parent=", string(parent))
	parentRef, ok := m.res.Resolve(parent)
	if !ok {
		m.record("AddRack", parent, "parent-missing")
		return nil, types.ErrNotFound
	}
	if parent != types.RootStableID {
		kind, _, err := m.classifyRef(parentRef)
		if err != nil {
			return nil, err
		}
		if kind != types.KindChain {
			m.record("AddRack", parent, "wrong-kind")
			return nil, types.ErrWrongKind
		}
	}

	rackIdx := m.nextRackIndex()
	pos, err := m.host.ChildCount(parentRef)
	if err != nil {
		return nil, err
	}
	rackRef, err := m.host.CreateContainer(parentRef, pos)
	if err != nil {
		m.log.Error("mutator ADDRACK host refused container, parent=", string(parent))
		m.record("AddRack", parent, "create-failed")
		return nil, types.ErrContainerCreateFailed
	}
	rackName, _ := naming.Encode(types.Path{Rack: rackIdx}, DefaultRackLabel)
	if err := m.host.SetName(rackRef, rackName); err != nil {
		return nil, err
	}
	rackID, err := m.host.StableID(rackRef)
	if err != nil {
		return nil, err
	}

	// the mixer child, invariant: exactly one per rack, position 0
	rackRef, ok = m.res.Resolve(rackID)
	if !ok {
		m.record("AddRack", rackID, "lost-after-create")
		return nil, types.ErrNotFound
	}
	mixerRef, err := m.host.AddPlugin(rackRef, 0, MixerPlugin)
	if err != nil {
		m.log.Error("mutator ADDRACK mixer creation failed rack=", string(rackID))
		m.record("AddRack", rackID, "mixer-failed")
		return nil, types.ErrContainerCreateFailed
	}
	if err := m.host.SetName(mixerRef, naming.EncodeMixer(rackIdx)); err != nil {
		return nil, err
	}

	rackRef, ok = m.res.Resolve(rackID)
	if !ok {
		return nil, types.ErrNotFound
	}
	node, err := m.res.Node(rackRef)
	if err != nil {
		return nil, err
	}
	m.record("AddRack", rackID, "ok")
	m.log.Debug(archivist.DEBUG_LEVEL_TRACE, "mutator ADDRACK done id=", string(rackID), " name=", node.Name)
	return node, nil
}

// AddRackToChain adds a rack as a new child of an existing, possibly non
// empty chain, preserving the order of the devices already in it.
func (m *Mutator) AddRackToChain(chain types.StableID) (*types.Node, error) {
	return m.AddRack(chain)
}

// AddChainToRack creates the next chain inside a rack, the mixer excluded
// from the index scan. With a non empty plugin the chain immediately gets
// its first device. The rack is re-resolved before the index computation,
// callers may hold a stale view from a prior operation.
//
// When the device step fails the already created chain is returned together
// with the error, the chain is not rolled back.
func (m *Mutator) AddChainToRack(rack types.StableID, plugin string) (*types.Node, error) {
	m.log.Debug(archivist.DEBUG_LEVEL_TRACE, "mutator ADDCHAIN begin rack=", string(rack))
	rackRef, ok := m.res.Resolve(rack)
	if !ok {
		m.record("AddChainToRack", rack, "rack-missing")
		return nil, types.ErrNotFound
	}
	kind, rackNode, err := m.classifyRef(rackRef)
	if err != nil {
		return nil, err
	}
	if kind != types.KindRack {
		m.record("AddChainToRack", rack, "wrong-kind")
		return nil, types.ErrWrongKind
	}

	names, err := m.res.ChildNames(rackRef)
	if err != nil {
		return nil, err
	}
	chainIdx := naming.NextFreeIndex(names, naming.ChainIndex)
	chainRef, err := m.host.CreateContainer(rackRef, len(names))
	if err != nil {
		m.record("AddChainToRack", rack, "create-failed")
		return nil, types.ErrContainerCreateFailed
	}
	chainName, _ := naming.Encode(types.Path{Rack: rackNode.Path.Rack, Chain: chainIdx}, "")
	if err := m.host.SetName(chainRef, chainName); err != nil {
		return nil, err
	}
	chainID, err := m.host.StableID(chainRef)
	if err != nil {
		return nil, err
	}

	if plugin != "" {
		if _, err := m.AddDeviceToChain(chainID, plugin); err != nil {
			// fail fast: the chain stays as the host left it
			chainNode, _ := m.res.NodeByID(chainID)
			m.record("AddChainToRack", chainID, "device-failed")
			return chainNode, err
		}
	}

	chainRef, ok = m.res.Resolve(chainID)
	if !ok {
		return nil, types.ErrNotFound
	}
	node, err := m.res.Node(chainRef)
	if err != nil {
		return nil, err
	}
	m.record("AddChainToRack", chainID, "ok")
	m.log.Debug(archivist.DEBUG_LEVEL_TRACE, "mutator ADDCHAIN done id=", string(chainID), " name=", node.Name)
	return node, nil
}

// AddDeviceToChain appends a device wrapper with its FX plugin child to a
// chain. The chain is re-resolved immediately before the append and again
// right after, to confirm the new child landed where expected.
func (m *Mutator) AddDeviceToChain(chain types.StableID, plugin string) (*types.Node, error) {
	m.log.Debug(archivist.DEBUG_LEVEL_TRACE, "mutator ADDDEVICE begin chain=", string(chain), " plugin=", plugin)
	chainRef, ok := m.res.Resolve(chain)
	if !ok {
		m.record("AddDeviceToChain", chain, "chain-missing")
		return nil, types.ErrNotFound
	}
	kind, chainNode, err := m.classifyRef(chainRef)
	if err != nil {
		return nil, err
	}
	if kind != types.KindChain {
		m.record("AddDeviceToChain", chain, "wrong-kind")
		return nil, types.ErrWrongKind
	}

	names, err := m.res.ChildNames(chainRef)
	if err != nil {
		return nil, err
	}
	deviceIdx := naming.NextFreeIndex(names, naming.DeviceIndex)
	pos := len(names)
	deviceRef, err := m.host.CreateContainer(chainRef, pos)
	if err != nil {
		m.record("AddDeviceToChain", chain, "create-failed")
		return nil, types.ErrContainerCreateFailed
	}
	label := naming.PluginLabel(plugin)
	devicePath := types.Path{Rack: chainNode.Path.Rack, Chain: chainNode.Path.Chain, Device: deviceIdx}
	deviceName, _ := naming.Encode(devicePath, label)
	if err := m.host.SetName(deviceRef, deviceName); err != nil {
		return nil, err
	}
	deviceID, err := m.host.StableID(deviceRef)
	if err != nil {
		return nil, err
	}

	// the FX wrapper child carrying the actual plugin
	deviceRef, ok = m.res.Resolve(deviceID)
	if !ok {
		m.record("AddDeviceToChain", deviceID, "lost-after-create")
		return nil, types.ErrNotFound
	}
	fxRef, err := m.host.AddPlugin(deviceRef, 0, plugin)
	if err != nil {
		m.log.Error("mutator ADDDEVICE plugin add failed device=", string(deviceID))
		m.record("AddDeviceToChain", deviceID, "plugin-failed")
		return nil, types.ErrContainerCreateFailed
	}
	fxPath := devicePath
	fxPath.Part = types.PartFX
	fxName, _ := naming.Encode(fxPath, label)
	if err := m.host.SetName(fxRef, fxName); err != nil {
		return nil, err
	}

	// confirm the append landed at the expected position
	chainRef, ok = m.res.Resolve(chain)
	if !ok {
		return nil, types.ErrNotFound
	}
	landed, err := m.host.ChildAt(chainRef, pos)
	if err != nil {
		return nil, types.ErrChildMoveFailed
	}
	landedID, err := m.host.StableID(landed)
	if err != nil || landedID != deviceID {
		m.log.Error("mutator ADDDEVICE landed at wrong position chain=", string(chain))
		m.record("AddDeviceToChain", deviceID, "misplaced")
		return nil, types.ErrChildMoveFailed
	}

	node, err := m.res.Node(landed)
	if err != nil {
		return nil, err
	}
	m.record("AddDeviceToChain", deviceID, "ok")
	return node, nil
}

// AddNestedRackToRack creates a rack inside a rack. Racks are never direct
// children of racks, so an auto chain is created first and the inner rack
// goes into that. This is the deepest call chain in the module; after the
// inner rack exists, outer rack, auto chain and inner rack are all
// re-resolved by StableID and the linkage is verified before returning.
func (m *Mutator) AddNestedRackToRack(parentRack types.StableID) (*types.Node, error) {
	m.log.Debug(archivist.DEBUG_LEVEL_TRACE, "mutator NESTRACK begin parent=", string(parentRack))
	chainNode, err := m.AddChainToRack(parentRack, "")
	if err != nil {
		m.record("AddNestedRackToRack", parentRack, "chain-failed")
		return nil, err
	}
	innerNode, err := m.AddRack(chainNode.StableID)
	if err != nil {
		m.record("AddNestedRackToRack", chainNode.StableID, "rack-failed")
		return nil, err
	}

	// every handle above is stale by now, verify the linkage fresh
	innerRef, ok := m.res.Resolve(innerNode.StableID)
	if !ok {
		return nil, types.ErrNotFound
	}
	steps, err := m.res.AncestorPath(innerRef)
	if err != nil {
		return nil, err
	}
	if len(steps) < 2 || steps[0].StableID != chainNode.StableID || steps[1].StableID != parentRack {
		m.log.Error("mutator NESTRACK inner rack popped out to a wrong parent id=", string(innerNode.StableID))
		m.record("AddNestedRackToRack", innerNode.StableID, "popped-out")
		return nil, types.ErrChildMoveFailed
	}

	node, err := m.res.Node(innerRef)
	if err != nil {
		return nil, err
	}
	m.record("AddNestedRackToRack", innerNode.StableID, "ok")
	return node, nil
}

// rCollectDevices gathers the StableIDs of every device below ref in left
// to right order. Recurses through chains and racks but not into devices,
// their sub parts travel with them.
func (m *Mutator) rCollectDevices(ref host.Ref, out *[]types.StableID) {
	count, err := m.host.ChildCount(ref)
	if err != nil {
		return
	}
	for i := 0; i < count; i++ {
		child, err := m.host.ChildAt(ref, i)
		if err != nil {
			continue
		}
		kind, node, err := m.classifyRef(child)
		if err != nil {
			continue
		}
		if kind == types.KindDevice {
			*out = append(*out, node.StableID)
			continue
		}
		if node.IsContainer {
			m.rCollectDevices(child, out)
		}
	}
}

// renameDevice renames a device wrapper and rewrites the names of its
// decodable sub parts to the new path. Renaming is not a structural edit,
// the handles stay valid throughout.
func (m *Mutator) renameDevice(deviceRef host.Ref, newPath types.Path, label string) error {
	name, ok := naming.Encode(newPath, label)
	if !ok {
		return types.ErrWrongKind
	}
	if err := m.host.SetName(deviceRef, name); err != nil {
		return err
	}
	count, err := m.host.ChildCount(deviceRef)
	if err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		child, err := m.host.ChildAt(deviceRef, i)
		if err != nil {
			continue
		}
		childName, err := m.host.Name(child)
		if err != nil {
			continue
		}
		childPath, childLabel, ok := naming.Decode(childName)
		if !ok || childPath.Part == types.PartNone {
			// nested racks and foreign children keep their names
			continue
		}
		subPath := newPath
		subPath.Part = childPath.Part
		subPath.Modulator = childPath.Modulator
		if subName, ok := naming.Encode(subPath, childLabel); ok {
			if err := m.host.SetName(child, subName); err != nil {
				return err
			}
		}
	}
	return nil
}

// renameChain renames a chain and cascades the new prefix into its device
// children. Racks nested below the chain keep their own global names.
func (m *Mutator) renameChain(chainRef host.Ref, newPath types.Path, label string) error {
	name, ok := naming.Encode(newPath, label)
	if !ok {
		return types.ErrWrongKind
	}
	if err := m.host.SetName(chainRef, name); err != nil {
		return err
	}
	count, err := m.host.ChildCount(chainRef)
	if err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		child, err := m.host.ChildAt(chainRef, i)
		if err != nil {
			continue
		}
		childName, err := m.host.Name(child)
		if err != nil || !naming.IsDeviceName(childName) {
			continue
		}
		childPath, childLabel, _ := naming.Decode(childName)
		if err := m.renameDevice(child, types.Path{Rack: newPath.Rack, Chain: newPath.Chain, Device: childPath.Device}, childLabel); err != nil {
			return err
		}
	}
	return nil
}

// ConvertChainToDevices extracts every device below a chain to the chain's
// own parent level, preserving left to right order, renames them into the
// destination level's grammar and deletes the then empty chain. A node that
// does not classify as a chain is a logged no-op returning an empty list
// and no error; no host mutation happens then.
func (m *Mutator) ConvertChainToDevices(chain types.StableID) ([]types.Node, error) {
	m.log.Debug(archivist.DEBUG_LEVEL_TRACE, "mutator CHAIN2DEV begin chain=", string(chain))
	chainRef, ok := m.res.Resolve(chain)
	if !ok {
		m.record("ConvertChainToDevices", chain, "chain-missing")
		return nil, types.ErrNotFound
	}
	kind, _, err := m.classifyRef(chainRef)
	if err != nil {
		return nil, err
	}
	if kind != types.KindChain {
		m.log.Debug(archivist.DEBUG_LEVEL_TRACE, "mutator CHAIN2DEV not a chain, noop id=", string(chain))
		m.record("ConvertChainToDevices", chain, "wrong-kind-noop")
		return nil, nil
	}

	steps, err := m.res.AncestorPath(chainRef)
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return nil, types.ErrNotFound
	}
	parentID := steps[0].StableID
	chainPos := steps[0].Position

	// destination grammar: nested device paths inside a chain parent,
	// standalone device names everywhere else
	destPath := types.Path{}
	if parentID != types.RootStableID {
		parentRef, ok := m.res.Resolve(parentID)
		if ok {
			if parentKind, parentNode, err := m.classifyRef(parentRef); err == nil && parentKind == types.KindChain {
				destPath = types.Path{Rack: parentNode.Path.Rack, Chain: parentNode.Path.Chain}
			}
		}
	}

	var deviceIDs []types.StableID
	m.rCollectDevices(chainRef, &deviceIDs)

	var moved []types.Node
	for i, deviceID := range deviceIDs {
		deviceRef, ok := m.res.Resolve(deviceID)
		if !ok {
			m.record("ConvertChainToDevices", deviceID, "device-missing")
			return moved, types.ErrNotFound
		}
		parentRef, ok := m.res.Resolve(parentID)
		if !ok {
			m.record("ConvertChainToDevices", parentID, "parent-missing")
			return moved, types.ErrNotFound
		}
		if err := m.host.MoveChild(deviceRef, parentRef, chainPos+i); err != nil {
			m.log.Error("mutator CHAIN2DEV move rejected device=", string(deviceID))
			m.record("ConvertChainToDevices", deviceID, "move-failed")
			return moved, types.ErrChildMoveFailed
		}

		// fresh handles after the move, then rename into the destination level
		deviceRef, ok = m.res.Resolve(deviceID)
		if !ok {
			return moved, types.ErrNotFound
		}
		parentRef, ok = m.res.Resolve(parentID)
		if !ok {
			return moved, types.ErrNotFound
		}
		siblingNames, err := m.res.ChildNames(parentRef)
		if err != nil {
			return moved, err
		}
		// the just moved device still carries its old name, skip it in the scan
		deviceName, _ := m.host.Name(deviceRef)
		var scan []string
		for _, siblingName := range siblingNames {
			if siblingName != deviceName {
				scan = append(scan, siblingName)
			}
		}
		newPath := destPath
		newPath.Device = naming.NextFreeIndex(scan, naming.DeviceIndex)
		_, label, _ := naming.Decode(deviceName)
		if err := m.renameDevice(deviceRef, newPath, label); err != nil {
			return moved, err
		}
		if node, err := m.res.Node(deviceRef); err == nil {
			moved = append(moved, *node)
		}
	}

	// the chain is empty of devices now, remove it (cascading whatever
	// empty shells are left below it)
	chainRef, ok = m.res.Resolve(chain)
	if !ok {
		return moved, types.ErrNotFound
	}
	if err := m.host.Remove(chainRef); err != nil {
		m.record("ConvertChainToDevices", chain, "remove-failed")
		return moved, err
	}
	m.record("ConvertChainToDevices", chain, "ok")
	m.log.Debug(archivist.DEBUG_LEVEL_TRACE, "mutator CHAIN2DEV done chain=", string(chain), " moved=", len(moved))
	return moved, nil
}

// ConvertDeviceToRack wraps a device into a fresh Rack, Chain, Device
// structure at the device's old position, moving the existing sub parts
// over so host side plugin state survives, and removes the emptied wrapper.
// A node that does not classify as a device is a logged no-op returning nil
// and no error.
func (m *Mutator) ConvertDeviceToRack(device types.StableID) (*types.Node, error) {
	m.log.Debug(archivist.DEBUG_LEVEL_TRACE, "mutator DEV2RACK begin device=", string(device))
	deviceRef, ok := m.res.Resolve(device)
	if !ok {
		m.record("ConvertDeviceToRack", device, "device-missing")
		return nil, types.ErrNotFound
	}
	kind, deviceNode, err := m.classifyRef(deviceRef)
	if err != nil {
		return nil, err
	}
	if kind != types.KindDevice {
		m.log.Debug(archivist.DEBUG_LEVEL_TRACE, "mutator DEV2RACK not a device, noop id=", string(device))
		m.record("ConvertDeviceToRack", device, "wrong-kind-noop")
		return nil, nil
	}
	label := deviceNode.Label

	steps, err := m.res.AncestorPath(deviceRef)
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return nil, types.ErrNotFound
	}
	parentID := steps[0].StableID
	devicePos := steps[0].Position

	// capture the sub part order before any mutation
	var childIDs []types.StableID
	childCount, err := m.host.ChildCount(deviceRef)
	if err != nil {
		return nil, err
	}
	for i := 0; i < childCount; i++ {
		child, err := m.host.ChildAt(deviceRef, i)
		if err != nil {
			return nil, err
		}
		childID, err := m.host.StableID(child)
		if err != nil {
			return nil, err
		}
		childIDs = append(childIDs, childID)
	}

	// rack shell at the device's old position
	rackIdx := m.nextRackIndex()
	parentRef, ok := m.res.Resolve(parentID)
	if !ok {
		return nil, types.ErrNotFound
	}
	rackRef, err := m.host.CreateContainer(parentRef, devicePos)
	if err != nil {
		m.record("ConvertDeviceToRack", device, "create-failed")
		return nil, types.ErrContainerCreateFailed
	}
	rackName, _ := naming.Encode(types.Path{Rack: rackIdx}, label)
	if err := m.host.SetName(rackRef, rackName); err != nil {
		return nil, err
	}
	rackID, err := m.host.StableID(rackRef)
	if err != nil {
		return nil, err
	}

	rackRef, ok = m.res.Resolve(rackID)
	if !ok {
		return nil, types.ErrNotFound
	}
	mixerRef, err := m.host.AddPlugin(rackRef, 0, MixerPlugin)
	if err != nil {
		m.record("ConvertDeviceToRack", rackID, "mixer-failed")
		return nil, types.ErrContainerCreateFailed
	}
	if err := m.host.SetName(mixerRef, naming.EncodeMixer(rackIdx)); err != nil {
		return nil, err
	}

	// auto chain C1
	rackRef, ok = m.res.Resolve(rackID)
	if !ok {
		return nil, types.ErrNotFound
	}
	chainRef, err := m.host.CreateContainer(rackRef, 1)
	if err != nil {
		m.record("ConvertDeviceToRack", rackID, "chain-failed")
		return nil, types.ErrContainerCreateFailed
	}
	chainName, _ := naming.Encode(types.Path{Rack: rackIdx, Chain: 1}, "")
	if err := m.host.SetName(chainRef, chainName); err != nil {
		return nil, err
	}
	chainID, err := m.host.StableID(chainRef)
	if err != nil {
		return nil, err
	}

	// fresh wrapper D1 inside the chain
	chainRef, ok = m.res.Resolve(chainID)
	if !ok {
		return nil, types.ErrNotFound
	}
	newDeviceRef, err := m.host.CreateContainer(chainRef, 0)
	if err != nil {
		m.record("ConvertDeviceToRack", chainID, "device-failed")
		return nil, types.ErrContainerCreateFailed
	}
	newDevicePath := types.Path{Rack: rackIdx, Chain: 1, Device: 1}
	newDeviceName, _ := naming.Encode(newDevicePath, label)
	if err := m.host.SetName(newDeviceRef, newDeviceName); err != nil {
		return nil, err
	}
	newDeviceID, err := m.host.StableID(newDeviceRef)
	if err != nil {
		return nil, err
	}

	// move the captured sub parts over, re-resolving around every move
	for i, childID := range childIDs {
		childRef, ok := m.res.Resolve(childID)
		if !ok {
			m.record("ConvertDeviceToRack", childID, "subpart-missing")
			return nil, types.ErrNotFound
		}
		targetRef, ok := m.res.Resolve(newDeviceID)
		if !ok {
			return nil, types.ErrNotFound
		}
		if err := m.host.MoveChild(childRef, targetRef, i); err != nil {
			m.record("ConvertDeviceToRack", childID, "subpart-move-failed")
			return nil, types.ErrChildMoveFailed
		}
	}

	// rewrite the moved sub part names onto the new path
	targetRef, ok := m.res.Resolve(newDeviceID)
	if !ok {
		return nil, types.ErrNotFound
	}
	if err := m.renameDevice(targetRef, newDevicePath, label); err != nil {
		return nil, err
	}

	// drop the emptied wrapper
	deviceRef, ok = m.res.Resolve(device)
	if !ok {
		return nil, types.ErrNotFound
	}
	if err := m.host.Remove(deviceRef); err != nil {
		m.record("ConvertDeviceToRack", device, "remove-failed")
		return nil, err
	}

	rackRef, ok = m.res.Resolve(rackID)
	if !ok {
		return nil, types.ErrNotFound
	}
	node, err := m.res.Node(rackRef)
	if err != nil {
		return nil, err
	}
	m.record("ConvertDeviceToRack", rackID, "ok")
	return node, nil
}

// Renumber rewrites the indices of one sibling level to be contiguous in
// current order. level selects the chain or the device grammar. Containers
// whose current name matches the rack pattern are skipped even in a device
// pass: a rack caught in a device renumbering must never be relabeled as a
// device. Mixers are never renumbered either.
func (m *Mutator) Renumber(parent types.StableID, level types.Kind) error {
	parentRef, ok := m.res.Resolve(parent)
	if !ok {
		return types.ErrNotFound
	}
	switch level {
	case types.KindChain:
		return m.renumberChains(parentRef)
	case types.KindDevice:
		return m.renumberDevices(parentRef)
	}
	return types.ErrWrongKind
}

func (m *Mutator) renumberChains(parentRef host.Ref) error {
	count, err := m.host.ChildCount(parentRef)
	if err != nil {
		return err
	}
	next := 1
	for i := 0; i < count; i++ {
		child, err := m.host.ChildAt(parentRef, i)
		if err != nil {
			return err
		}
		name, err := m.host.Name(child)
		if err != nil {
			return err
		}
		if naming.IsMixerName(name) || naming.IsRackName(name) {
			continue
		}
		if !naming.IsChainName(name) {
			continue
		}
		path, label, _ := naming.Decode(name)
		if path.Chain != next {
			if err := m.renameChain(child, types.Path{Rack: path.Rack, Chain: next}, label); err != nil {
				return err
			}
		}
		next++
	}
	return nil
}

func (m *Mutator) renumberDevices(parentRef host.Ref) error {
	count, err := m.host.ChildCount(parentRef)
	if err != nil {
		return err
	}
	next := 1
	for i := 0; i < count; i++ {
		child, err := m.host.ChildAt(parentRef, i)
		if err != nil {
			return err
		}
		name, err := m.host.Name(child)
		if err != nil {
			return err
		}
		// load bearing: rack shaped names never get relabeled as devices
		if naming.IsRackName(name) || naming.IsMixerName(name) {
			continue
		}
		if !naming.IsDeviceName(name) {
			continue
		}
		path, label, _ := naming.Decode(name)
		if path.Device != next {
			newPath := path
			newPath.Device = next
			if err := m.renameDevice(child, newPath, label); err != nil {
				return err
			}
		}
		next++
	}
	return nil
}
