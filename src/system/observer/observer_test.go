package observer

import (
	"log"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/voodooEntity/gits/src/query"
	"github.com/voodooEntity/rackdaw/src/system/archivist"
	"github.com/voodooEntity/rackdaw/src/system/memhost"
	"github.com/voodooEntity/rackdaw/src/system/memory"
	"github.com/voodooEntity/rackdaw/src/system/mutator"
	"github.com/voodooEntity/rackdaw/src/system/resolver"
	"github.com/voodooEntity/rackdaw/src/system/session"
)

func setupFresh() (*Observer, *mutator.Mutator, *memhost.MemHost, *session.Session, *memory.Memory) {
	logger := archivist.New(&archivist.Config{Logger: log.New(os.Stdout, "", 0)})
	h := memhost.New(logger)
	res := resolver.New(h, logger)
	sess := session.New()
	mem := memory.New("obstest-"+strconv.FormatInt(time.Now().UnixNano(), 10), logger)
	m := mutator.New(h, res, nil, logger)
	o := New(h, res, sess, mem, nil, logger, false)
	return o, m, h, sess, mem
}

func snapshotCount(mem *memory.Memory) int {
	return mem.Gits.Query().Execute(query.New().Read("Snapshot")).Amount
}

func TestObserveDetectsChangeOnce(t *testing.T) {
	o, m, _, _, mem := setupFresh()
	if _, err := m.AddRack("root"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	o.observe()
	if snapshotCount(mem) != 1 {
		t.Fatalf("first tick mapped %d snapshots", snapshotCount(mem))
	}
	o.observe()
	o.observe()
	if snapshotCount(mem) != 1 {
		t.Fatalf("idle ticks mapped extra snapshots: %d", snapshotCount(mem))
	}
	if o.InactiveIncrement != 2 {
		t.Fatalf("idle counter wrong: %d", o.InactiveIncrement)
	}
}

func TestObserveEvictsDeadSessionState(t *testing.T) {
	o, m, h, sess, mem := setupFresh()
	rack, err := m.AddRack("root")
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	sess.SetExpanded(rack.StableID, true)
	o.observe()

	// kill the rack behind the session's back
	rackRef, _ := h.ChildAt(h.Root(), 0)
	if err := h.Remove(rackRef); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	o.observe()
	if sess.IsExpanded(rack.StableID) {
		t.Fatalf("dead expansion survived the change tick")
	}
	if snapshotCount(mem) != 2 {
		t.Fatalf("change did not map a snapshot: %d", snapshotCount(mem))
	}
	if o.InactiveIncrement != 0 {
		t.Fatalf("idle counter not reset on change")
	}
}

func TestRenameCountsAsChange(t *testing.T) {
	o, m, h, _, mem := setupFresh()
	if _, err := m.AddRack("root"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	o.observe()

	rackRef, _ := h.ChildAt(h.Root(), 0)
	if err := h.SetName(rackRef, "R1: Renamed"); err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	o.observe()
	if snapshotCount(mem) != 2 {
		t.Fatalf("rename went unnoticed: %d snapshots", snapshotCount(mem))
	}
}

func TestEndgameConditions(t *testing.T) {
	o, _, _, _, _ := setupFresh()
	if o.ReachedEndgame() {
		t.Fatalf("fresh observer already ending")
	}
	o.Stop()
	o.Stop() // must be safe twice
	if !o.ReachedEndgame() {
		t.Fatalf("stopped observer keeps running")
	}

	lethal, _, _, _, _ := setupFresh()
	lethal.lethal = true
	lethal.InactiveIncrement = 6
	if !lethal.ReachedEndgame() {
		t.Fatalf("lethal observer ignores the idle ceiling")
	}
}
