// Package memory is the gits backed recollection of the hierarchy manager.
// It keeps two things per session: an append only journal of performed
// operations and a mirror of the logical tree as mapped snapshots. Neither
// is consulted for mutation decisions, the host is always the source of
// truth; the memory exists for inspection, reporting and history.
package memory

import (
	"strconv"
	"time"

	"github.com/voodooEntity/gits"
	"github.com/voodooEntity/gits/src/query"
	"github.com/voodooEntity/gits/src/transport"
	"github.com/voodooEntity/rackdaw/src/system/archivist"
	"github.com/voodooEntity/rackdaw/src/system/types"
	"github.com/voodooEntity/rackdaw/src/system/util"
)

// Memory groups the gits instance and the mapper, mirroring how the
// hierarchy code consumes them as one unit.
type Memory struct {
	Gits    *gits.Gits
	Mapper  *Mapper
	log     *archivist.Archivist
	trackID int
}

func New(ident string, logger *archivist.Archivist) *Memory {
	gitsInstance := gits.NewInstance(ident)
	mem := &Memory{
		Gits:   gitsInstance,
		Mapper: NewMapper(gitsInstance, logger),
		log:    logger,
	}
	// the track entity anchors journal and snapshots for this session
	track := mem.Mapper.MapTransportDataWithContext(transport.TransportEntity{
		ID:         -1,
		Type:       "Track",
		Value:      ident,
		Properties: map[string]string{},
	}, "System")
	mem.trackID = track.ID
	return mem
}

// RecordOperation appends one journal entry under the track anchor. Called
// by the mutator for completed and aborted operations alike.
func (m *Memory) RecordOperation(op string, target types.StableID, outcome string) {
	m.Mapper.MapTransportDataWithContext(transport.TransportEntity{
		Type: "Track",
		ID:   m.trackID,
		ChildRelations: []transport.TransportRelation{{
			Target: transport.TransportEntity{
				ID:    -1,
				Type:  "Operation",
				Value: op,
				Properties: map[string]string{
					"Target":  string(target),
					"Outcome": outcome,
					"Time":    time.Now().Format(time.RFC3339Nano),
				},
			},
		}},
	}, "Journal")
	m.log.Debug(archivist.DEBUG_LEVEL_TRACE, "memory JOURNAL op=", op, " target=", string(target), " outcome=", outcome)
}

// Operations returns the journal in mapping order.
func (m *Memory) Operations() []transport.TransportEntity {
	result := m.Gits.Query().Execute(query.New().Read("Operation"))
	return result.Entities
}

// SyncSnapshot maps the given tree mirror as a new snapshot under the track
// anchor. Snapshots are never updated in place, history stays queryable.
// Returns the signature of the mapped tree.
func (m *Memory) SyncSnapshot(root transport.TransportEntity) string {
	signature := util.GenerateSignature(root)
	m.Mapper.MapTransportDataWithContext(transport.TransportEntity{
		Type: "Track",
		ID:   m.trackID,
		ChildRelations: []transport.TransportRelation{{
			Target: transport.TransportEntity{
				ID:    -1,
				Type:  "Snapshot",
				Value: signature,
				Properties: map[string]string{
					"Time": time.Now().Format(time.RFC3339Nano),
				},
				ChildRelations: []transport.TransportRelation{{
					Target: root,
				}},
			},
		}},
	}, "Snapshot")
	m.log.Debug(archivist.DEBUG_LEVEL_TRACE, "memory SNAPSHOT signature=", signature)
	return signature
}

// LatestSnapshot returns the newest snapshot entity. The mirrored tree
// below it stays in storage and is reachable through kind queries.
func (m *Memory) LatestSnapshot() (transport.TransportEntity, bool) {
	result := m.Gits.Query().Execute(query.New().Read("Snapshot"))
	if result.Amount == 0 {
		return transport.TransportEntity{}, false
	}
	latest := result.Entities[0]
	for _, entity := range result.Entities {
		if entity.ID > latest.ID {
			latest = entity
		}
	}
	return latest, true
}

// CountByKind is a reporting helper: how many mirrored nodes of one kind
// exist across all snapshots.
func (m *Memory) CountByKind(kind types.Kind) int {
	result := m.Gits.Query().Execute(query.New().Read(kind.String()))
	return result.Amount
}

// TrackID exposes the anchor entity id, mainly for tests.
func (m *Memory) TrackID() int {
	return m.trackID
}

// Mapper wraps gits mapping with context stamping. All entities of one
// mapping batch share a context string so journal, snapshot and system data
// stay distinguishable in storage.
type Mapper struct {
	gits *gits.Gits
	log  *archivist.Archivist
}

func NewMapper(gitsInstance *gits.Gits, logger *archivist.Archivist) *Mapper {
	return &Mapper{
		gits: gitsInstance,
		log:  logger,
	}
}

func (m *Mapper) MapTransportData(entity transport.TransportEntity) transport.TransportEntity {
	return m.gits.MapData(entity)
}

func (m *Mapper) MapTransportDataWithContext(entity transport.TransportEntity, context string) transport.TransportEntity {
	rApplyContext(&entity, context)
	return m.gits.MapData(entity)
}

func rApplyContext(entity *transport.TransportEntity, context string) {
	if entity.Context == "" {
		entity.Context = context
	}
	if entity.Properties == nil {
		entity.Properties = map[string]string{}
	}
	for i := range entity.ChildRelations {
		rApplyContext(&entity.ChildRelations[i].Target, context)
	}
	for i := range entity.ParentRelations {
		rApplyContext(&entity.ParentRelations[i].Target, context)
	}
}

// BuildMirrorNode converts one logical node into its mirror entity. The
// entity type is the kind string so storage queries can select by kind.
func BuildMirrorNode(node types.Node, position int) transport.TransportEntity {
	return transport.TransportEntity{
		ID:    -1,
		Type:  node.Kind.String(),
		Value: node.Name,
		Properties: map[string]string{
			"StableId": string(node.StableID),
			"Position": strconv.Itoa(position),
		},
	}
}
