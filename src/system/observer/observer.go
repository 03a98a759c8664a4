// Package observer polls the host for structural change. The host has no
// change notification, so the observer rebuilds a mirror of the logical
// tree every tick, compares its signature against the previous one and on
// a difference evicts dead session state and maps a fresh snapshot into
// memory.
package observer

import (
	"sync"
	"time"

	"github.com/voodooEntity/gits"
	"github.com/voodooEntity/gits/src/transport"
	"github.com/voodooEntity/rackdaw/src/system/archivist"
	"github.com/voodooEntity/rackdaw/src/system/host"
	"github.com/voodooEntity/rackdaw/src/system/memory"
	"github.com/voodooEntity/rackdaw/src/system/resolver"
	"github.com/voodooEntity/rackdaw/src/system/session"
	"github.com/voodooEntity/rackdaw/src/system/types"
	"github.com/voodooEntity/rackdaw/src/system/util"
)

type Observer struct {
	InactiveIncrement int
	host              host.Host
	res               *resolver.Resolver
	session           *session.Session
	memory            *memory.Memory
	callback          func(memoryInstance *memory.Memory)
	lethal            bool
	log               *archivist.Archivist
	tickFunction      *func(gitsInstance *gits.Gits, logger *archivist.Archivist)
	tickRate          int
	lastSignature     string
	stop              chan struct{}
	stopOnce          sync.Once
}

func New(h host.Host, res *resolver.Resolver, sess *session.Session, memoryInstance *memory.Memory, cb func(memoryInstance *memory.Memory), logger *archivist.Archivist, lethal bool) *Observer {
	logger.Info("Creating observer")
	return &Observer{
		InactiveIncrement: 0,
		host:              h,
		res:               res,
		session:           sess,
		memory:            memoryInstance,
		callback:          cb,
		lethal:            lethal,
		log:               logger,
		tickRate:          25,
		tickFunction:      nil,
		stop:              make(chan struct{}),
	}
}

// RegisterTickFunction hooks a periodic function into the loop, running
// every tickRate iterations against the memory's gits instance.
func (o *Observer) RegisterTickFunction(tickFn *func(gitsInstance *gits.Gits, logger *archivist.Archivist)) {
	o.tickFunction = tickFn
}

func (o *Observer) SetTickRate(tickRate int) {
	o.tickRate = tickRate
}

// Stop ends the loop from outside. Safe to call more than once.
func (o *Observer) Stop() {
	o.stopOnce.Do(func() {
		close(o.stop)
	})
}

func (o *Observer) tick() {
	(*o.tickFunction)(o.memory.Gits, o.log)
}

func (o *Observer) Loop() {
	i := 0
	for !o.ReachedEndgame() {
		i++
		o.log.Debug(archivist.DEBUG_LEVEL_MAX, "Observer looping:")
		o.observe()
		if nil != o.tickFunction && i == o.tickRate {
			o.tick()
			i = 0
		}

		time.Sleep(100 * time.Millisecond)
	}
	o.Endgame()
	o.log.Info("Observer has been shut down")
}

// observe compares the current tree against the last seen state. A mirror
// build can fail when a mutation lands mid walk, that tick is skipped and
// the next one sees the settled tree.
func (o *Observer) observe() {
	mirror, ok := o.rMirror(o.host.Root(), 0)
	if !ok {
		o.log.Debug(archivist.DEBUG_LEVEL_MAX, "Observer: inconsistent walk, skipping tick")
		return
	}
	signature := util.GenerateSignature(mirror)
	if signature == o.lastSignature {
		o.InactiveIncrement++
		return
	}
	o.InactiveIncrement = 0
	dropped := o.session.DropMissing(func(id types.StableID) bool {
		_, ok := o.res.Resolve(id)
		return ok
	})
	o.memory.SyncSnapshot(mirror)
	o.lastSignature = signature
	o.log.Debug(archivist.DEBUG_LEVEL_TRACE, "Observer: change detected signature=", signature, " dropped=", dropped)
}

// rMirror rebuilds the logical tree as transport entities, kind strings as
// entity types so the memory stays queryable by kind.
func (o *Observer) rMirror(ref host.Ref, position int) (transport.TransportEntity, bool) {
	node, err := o.res.Node(ref)
	if err != nil {
		return transport.TransportEntity{}, false
	}
	var entity transport.TransportEntity
	if node.StableID == types.RootStableID {
		entity = transport.TransportEntity{
			ID:    -1,
			Type:  "Root",
			Value: "",
			Properties: map[string]string{
				"StableId": string(types.RootStableID),
			},
		}
	} else {
		entity = memory.BuildMirrorNode(*node, position)
	}
	count, err := o.host.ChildCount(ref)
	if err != nil {
		return transport.TransportEntity{}, false
	}
	for i := 0; i < count; i++ {
		child, err := o.host.ChildAt(ref, i)
		if err != nil {
			return transport.TransportEntity{}, false
		}
		childEntity, ok := o.rMirror(child, i)
		if !ok {
			return transport.TransportEntity{}, false
		}
		entity.ChildRelations = append(entity.ChildRelations, transport.TransportRelation{
			Target: childEntity,
		})
	}
	return entity, true
}

// ReachedEndgame reports whether the loop should end. A stopped observer
// ends immediately; a lethal one ends on its own once the tree sat
// unchanged for more than 5 ticks.
func (o *Observer) ReachedEndgame() bool {
	select {
	case <-o.stop:
		return true
	default:
	}
	if o.lethal && o.InactiveIncrement > 5 {
		return true
	}
	return false
}

func (o *Observer) Endgame() {
	o.log.Info("executing endgame")
	if o.callback != nil {
		o.callback(o.memory)
	}
}
