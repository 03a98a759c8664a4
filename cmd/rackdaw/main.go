package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/voodooEntity/rackdaw"
	"github.com/voodooEntity/rackdaw/src/system/archivist"
	"github.com/voodooEntity/rackdaw/src/system/blueprint"
	"github.com/voodooEntity/rackdaw/src/system/config"
	"github.com/voodooEntity/rackdaw/src/system/host"
)

var configPath string

var defaultDemoPlugins = []string{
	"VST: ReaComp (Cockos)",
	"VST: ReaEQ (Cockos)",
	"VST: ReaDelay (Cockos)",
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "rackdaw",
		Short: "Rack, chain and device hierarchies on a flat effect list",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to an HCL config file")
	rootCmd.AddCommand(demoCmd())
	rootCmd.AddCommand(verifyCmd())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func demoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Build the configured demo layout and print the tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			rd, err := buildDemo()
			if err != nil {
				return err
			}
			printTree(rd)
			fmt.Printf("journal entries: %d\n", len(rd.Memory().Operations()))
			return nil
		},
	}
}

func verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Build the configured demo layout and check the structural invariants",
		RunE: func(cmd *cobra.Command, args []string) error {
			rd, err := buildDemo()
			if err != nil {
				return err
			}
			if err := rd.Verify(); err != nil {
				return fmt.Errorf("integrity violated: %w", err)
			}
			fmt.Println("integrity ok")
			return nil
		},
	}
}

func buildDemo() (*rackdaw.Rackdaw, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	rd := rackdaw.New(rackdaw.Settings{
		Ident:      cfg.Ident,
		LogLevel:   logLevelFromString(cfg.LogLevel),
		DebugLevel: cfg.DebugLevel,
		MaxDepth:   cfg.MaxDepth,
		History:    true,
		Logger:     log.New(os.Stderr, "", 0),
	})

	demo := cfg.Demo
	if demo == nil {
		demo = &config.DemoConfig{Racks: 1, ChainsPerRack: 2}
	}
	plugins := demo.Plugins
	if len(plugins) == 0 {
		plugins = defaultDemoPlugins
	}

	plan := blueprint.New()
	for rackNo := 1; rackNo <= demo.Racks; rackNo++ {
		rackPlan := blueprint.NewRack()
		for chainNo := 0; chainNo < demo.ChainsPerRack; chainNo++ {
			rackPlan.AddChain(plugins[chainNo%len(plugins)])
		}
		if rackNo == demo.NestInto {
			rackPlan.NestRack()
		}
		plan.AddRack(rackPlan)
	}
	if _, err := plan.Apply(rd.Mutator()); err != nil {
		return nil, err
	}
	return rd, nil
}

func printTree(rd *rackdaw.Rackdaw) {
	rPrint(rd, rd.Host().Root(), 0)
}

func rPrint(rd *rackdaw.Rackdaw, ref host.Ref, depth int) {
	h := rd.Host()
	count, err := h.ChildCount(ref)
	if err != nil {
		return
	}
	for i := 0; i < count; i++ {
		child, err := h.ChildAt(ref, i)
		if err != nil {
			continue
		}
		name, _ := h.Name(child)
		id, _ := h.StableID(child)
		for j := 0; j < depth; j++ {
			fmt.Print("  ")
		}
		fmt.Printf("%s [%s]\n", name, id)
		if isContainer, err := h.IsContainer(child); err == nil && isContainer {
			rPrint(rd, child, depth+1)
		}
	}
}

func logLevelFromString(level string) int {
	switch level {
	case "debug":
		return archivist.LEVEL_DEBUG
	case "warning":
		return archivist.LEVEL_WARNING
	case "error":
		return archivist.LEVEL_ERROR
	case "fatal":
		return archivist.LEVEL_FATAL
	}
	return archivist.LEVEL_INFO
}
