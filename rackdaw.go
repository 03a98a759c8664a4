// Package rackdaw manages rack, chain and device container hierarchies on
// top of a flat, index addressed effect list whose handles die on every
// structural edit. The package wires the host adapter, the resolver, the
// mutator and the session state into one instance and exposes the
// structural operations through it.
package rackdaw

import (
	"log"
	"os"

	"github.com/voodooEntity/gits"
	"github.com/voodooEntity/rackdaw/src/system/archivist"
	"github.com/voodooEntity/rackdaw/src/system/host"
	"github.com/voodooEntity/rackdaw/src/system/integrity"
	"github.com/voodooEntity/rackdaw/src/system/interfaces"
	"github.com/voodooEntity/rackdaw/src/system/memhost"
	"github.com/voodooEntity/rackdaw/src/system/memory"
	"github.com/voodooEntity/rackdaw/src/system/mutator"
	"github.com/voodooEntity/rackdaw/src/system/observer"
	"github.com/voodooEntity/rackdaw/src/system/resolver"
	"github.com/voodooEntity/rackdaw/src/system/session"
)

type Settings struct {
	Ident      string
	LogLevel   int
	DebugLevel int
	MaxDepth   int
	History    bool
	Logger     interfaces.LoggerInterface
}

type Rackdaw struct {
	host     host.Host
	resolver *resolver.Resolver
	mutator  *mutator.Mutator
	session  *session.Session
	memory   *memory.Memory
	checker  *integrity.Checker
	log      *archivist.Archivist
	settings Settings
}

// New creates an instance backed by the in-process host. Ident is required;
// everything else falls back to sane defaults.
func New(settings Settings) *Rackdaw {
	logger := buildLogger(settings)
	return assemble(settings, memhost.New(logger), logger)
}

// NewWithHost creates an instance on a caller supplied host adapter.
func NewWithHost(settings Settings, h host.Host) *Rackdaw {
	return assemble(settings, h, buildLogger(settings))
}

func buildLogger(settings Settings) *archivist.Archivist {
	logTarget := settings.Logger
	if logTarget == nil {
		logTarget = log.New(os.Stdout, "", 0)
	}
	logLevel := settings.LogLevel
	if logLevel == 0 {
		logLevel = archivist.LEVEL_INFO
	}
	return archivist.New(&archivist.Config{
		Logger:     logTarget,
		LogLevel:   logLevel,
		DebugLevel: settings.DebugLevel,
	})
}

func assemble(settings Settings, h host.Host, logger *archivist.Archivist) *Rackdaw {
	if settings.Ident == "" {
		settings.Ident = "rackdaw"
	}
	mem := memory.New(settings.Ident, logger)
	gits.SetDefault(settings.Ident)
	res := resolver.New(h, logger)

	// with history off the mutator runs without a journal, the memory still
	// backs observer snapshots
	journal := mem
	if !settings.History {
		journal = nil
	}

	return &Rackdaw{
		host:     h,
		resolver: res,
		mutator:  mutator.New(h, res, journal, logger),
		session:  session.New(),
		memory:   mem,
		checker:  integrity.NewChecker(h, settings.MaxDepth, logger),
		log:      logger,
		settings: settings,
	}
}

func (r *Rackdaw) Host() host.Host {
	return r.host
}

func (r *Rackdaw) Resolver() *resolver.Resolver {
	return r.resolver
}

func (r *Rackdaw) Mutator() *mutator.Mutator {
	return r.mutator
}

func (r *Rackdaw) Session() *session.Session {
	return r.session
}

func (r *Rackdaw) Memory() *memory.Memory {
	return r.memory
}

// Verify runs the structural invariant checks against the current tree.
func (r *Rackdaw) Verify() error {
	return r.checker.Verify()
}

// GetObserverInstance hands out an observer bound to this instance. The
// callback runs with the memory once the loop ends; lethal lets the loop
// end on its own after the tree sat unchanged for a while.
func (r *Rackdaw) GetObserverInstance(cb func(memoryInstance *memory.Memory), lethal bool) *observer.Observer {
	return observer.New(r.host, r.resolver, r.session, r.memory, cb, r.log, lethal)
}
