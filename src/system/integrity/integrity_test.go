package integrity

import (
	"errors"
	"log"
	"os"
	"testing"

	"github.com/voodooEntity/rackdaw/src/system/archivist"
	"github.com/voodooEntity/rackdaw/src/system/host"
	"github.com/voodooEntity/rackdaw/src/system/memhost"
	"github.com/voodooEntity/rackdaw/src/system/types"
)

func setupFresh() (*memhost.MemHost, *archivist.Archivist) {
	logger := archivist.New(&archivist.Config{Logger: log.New(os.Stdout, "", 0)})
	return memhost.New(logger), logger
}

func TestClassifyInContext(t *testing.T) {
	cases := []struct {
		name       string
		container  bool
		parentKind types.Kind
		want       types.Kind
	}{
		{"_R1_M", false, types.KindRack, types.KindMixer},
		{"R1: Drums", true, types.KindPlain, types.KindRack},
		{"R1: Drums", false, types.KindPlain, types.KindPlain},
		{"R1_C2", true, types.KindRack, types.KindChain},
		{"R1_C2", false, types.KindRack, types.KindPlain},
		{"R1_C2_D3: ReaComp", true, types.KindChain, types.KindDevice},
		{"R1_C2_D3: ReaComp", false, types.KindChain, types.KindPlain},
		{"R1_C2_D3_FX: ReaComp", false, types.KindDevice, types.KindDevice},
		{"R1_C2_D3_FX: ReaComp", false, types.KindChain, types.KindPlain},
		{"D2_Util", false, types.KindDevice, types.KindDevice},
		{"D2_Util", false, types.KindPlain, types.KindPlain},
		{"VST: ReaComp (Cockos)", false, types.KindChain, types.KindPlain},
	}
	for _, c := range cases {
		if got := ClassifyInContext(c.name, c.container, c.parentKind); got != c.want {
			t.Fatalf("%q (container=%v parent=%v): want %v got %v", c.name, c.container, c.parentKind, c.want, got)
		}
	}
}

func TestVerifyCleanTree(t *testing.T) {
	h, logger := setupFresh()
	if _, err := h.CreateContainer(h.Root(), 0); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	rackRef, _ := h.ChildAt(h.Root(), 0)
	chain, err := h.CreateContainer(rackRef, 0)
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if _, err := h.AddPlugin(chain, 0, "VST: ReaComp (Cockos)"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := NewChecker(h, 0, logger).Verify(); err != nil {
		t.Fatalf("clean tree flagged: %v", err)
	}
}

func TestVerifyMaxDepth(t *testing.T) {
	h, logger := setupFresh()
	parent := h.Root()
	for i := 0; i < 4; i++ {
		ref, err := h.CreateContainer(parent, 0)
		if err != nil {
			t.Fatalf("seed failed at depth %d: %v", i, err)
		}
		parent = ref
	}
	err := NewChecker(h, 2, logger).Verify()
	var integrityErr *types.IntegrityError
	if !errors.As(err, &integrityErr) || integrityErr.Code != types.IntegrityMaxDepthExceeded {
		t.Fatalf("expected max depth violation, got %v", err)
	}
}

// liarHost claims the root as everyone's parent, breaking the back link of
// anything deeper than one level.
type liarHost struct {
	*memhost.MemHost
}

func (l *liarHost) Parent(r host.Ref) (host.Ref, bool, error) {
	if _, err := l.MemHost.StableID(r); err != nil {
		return host.InvalidRef, false, err
	}
	return l.MemHost.Root(), true, nil
}

func TestVerifyParentMismatch(t *testing.T) {
	h, logger := setupFresh()
	outer, _ := h.CreateContainer(h.Root(), 0)
	if _, err := h.CreateContainer(outer, 0); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	err := NewChecker(&liarHost{h}, 0, logger).Verify()
	var integrityErr *types.IntegrityError
	if !errors.As(err, &integrityErr) || integrityErr.Code != types.IntegrityParentMismatch {
		t.Fatalf("expected parent mismatch, got %v", err)
	}
}
