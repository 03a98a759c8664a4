package memory

import (
	"log"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/voodooEntity/gits/src/transport"
	"github.com/voodooEntity/rackdaw/src/system/archivist"
	"github.com/voodooEntity/rackdaw/src/system/types"
)

// every test gets its own gits instance, idents must not collide
func setupFresh() *Memory {
	logger := archivist.New(&archivist.Config{Logger: log.New(os.Stdout, "", 0)})
	return New("memtest-"+strconv.FormatInt(time.Now().UnixNano(), 10), logger)
}

func TestJournalAppends(t *testing.T) {
	mem := setupFresh()
	mem.RecordOperation("AddRack", "fx-1", "ok")
	mem.RecordOperation("AddChainToRack", "fx-2", "wrong-kind")

	ops := mem.Operations()
	if len(ops) != 2 {
		t.Fatalf("expected 2 journal entries, got %d", len(ops))
	}
	byValue := map[string]transport.TransportEntity{}
	for _, op := range ops {
		byValue[op.Value] = op
	}
	entry, ok := byValue["AddChainToRack"]
	if !ok {
		t.Fatalf("second operation missing: %v", ops)
	}
	if entry.Properties["Target"] != "fx-2" || entry.Properties["Outcome"] != "wrong-kind" {
		t.Fatalf("journal properties wrong: %v", entry.Properties)
	}
	if entry.Properties["Time"] == "" {
		t.Fatalf("journal entry carries no timestamp")
	}
}

func TestSnapshotHistory(t *testing.T) {
	mem := setupFresh()
	mirror := transport.TransportEntity{
		ID:    -1,
		Type:  "Root",
		Value: "",
		Properties: map[string]string{
			"StableId": "root",
		},
		ChildRelations: []transport.TransportRelation{{
			Target: BuildMirrorNode(types.Node{
				StableID: "fx-1",
				Name:     "R1: Rack",
				Kind:     types.KindRack,
			}, 0),
		}},
	}
	first := mem.SyncSnapshot(mirror)

	// a changed tree maps a second snapshot, the first stays queryable
	mirror.ChildRelations = append(mirror.ChildRelations, transport.TransportRelation{
		Target: BuildMirrorNode(types.Node{
			StableID: "fx-2",
			Name:     "R2: Rack",
			Kind:     types.KindRack,
		}, 1),
	})
	second := mem.SyncSnapshot(mirror)
	if first == second {
		t.Fatalf("different trees hashed identically")
	}

	latest, ok := mem.LatestSnapshot()
	if !ok {
		t.Fatalf("no snapshot found")
	}
	if latest.Value != second {
		t.Fatalf("latest snapshot is not the newest: %q vs %q", latest.Value, second)
	}
	if mem.CountByKind(types.KindRack) != 3 {
		t.Fatalf("expected 3 mirrored racks across snapshots, got %d", mem.CountByKind(types.KindRack))
	}
}

func TestBuildMirrorNode(t *testing.T) {
	entity := BuildMirrorNode(types.Node{
		StableID: "fx-7",
		Name:     "R1_C2",
		Kind:     types.KindChain,
	}, 3)
	if entity.Type != "Chain" || entity.Value != "R1_C2" {
		t.Fatalf("mirror shape wrong: %+v", entity)
	}
	if entity.Properties["StableId"] != "fx-7" || entity.Properties["Position"] != "3" {
		t.Fatalf("mirror properties wrong: %v", entity.Properties)
	}
}
