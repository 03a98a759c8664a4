package main

import (
	"fmt"
	"log"
	"os"

	"github.com/voodooEntity/gits"
	"github.com/voodooEntity/rackdaw"
	"github.com/voodooEntity/rackdaw/src/system/archivist"
	"github.com/voodooEntity/rackdaw/src/system/memory"
)

func main() {
	//logger := log.New(io.Discard, "", 0)
	logger := log.New(os.Stdout, "", 0)

	// create base instance. ident is required.
	rd := rackdaw.New(rackdaw.Settings{
		Ident:    "GreatName",
		LogLevel: archivist.LEVEL_INFO,
		Logger:   logger,
		History:  true,
	})

	m := rd.Mutator()

	// build a small layout: one rack, a compressor chain,
	// an eq chain and a rack nested into the first chain
	rack, err := m.AddRack("root")
	if err != nil {
		logger.Println("rack creation failed:", err)
		return
	}
	chain, err := m.AddChainToRack(rack.StableID, "VST: ReaComp (Cockos)")
	if err != nil {
		logger.Println("chain creation failed:", err)
		return
	}
	if _, err := m.AddChainToRack(rack.StableID, "VST: ReaEQ (Cockos)"); err != nil {
		logger.Println("chain creation failed:", err)
		return
	}
	if _, err := m.AddRackToChain(chain.StableID); err != nil {
		logger.Println("nesting failed:", err)
		return
	}

	// expand the rack and select its first chain for the session
	rd.Session().SetExpanded(rack.StableID, true)
	rd.Session().SetSelectedChain(rack.StableID, chain.StableID)

	// verify the structural invariants
	if err := rd.Verify(); err != nil {
		logger.Println("integrity violated:", err)
		return
	}

	// get an observer instance. provide a callback to be
	// executed at the end and lethal=true which stops the
	// loop once the tree sat unchanged for a while
	obsi := rd.GetObserverInstance(func(mi *memory.Memory) {
		if snapshot, ok := mi.LatestSnapshot(); ok {
			logger.Println("final signature:", snapshot.Value)
		}
	}, true)

	// register a tick function
	fn := func(gitsInstance *gits.Gits, logger *archivist.Archivist) {
		logger.Info("yes i tick")
	}
	obsi.RegisterTickFunction(&fn)
	obsi.SetTickRate(20)

	// blocking until the tree settles
	obsi.Loop()

	// history is enabled so we can look up the performed operations
	qry := gits.NewQuery().Read("Operation")
	res := gits.GetDefault().Query().Execute(qry)
	fmt.Println(fmt.Sprintf("%+v", res))
}
