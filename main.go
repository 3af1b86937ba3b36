// Command particleops runs particle effects headlessly and prints per-step
// statistics.
//
// Usage:
//
//	go run . [flags]
//
// Flags:
//
//	--config <path>        Simulation config (default: embedded data/simulation.yaml)
//	--effects <path>       Effect library file (default: embedded data/effects/*.yaml)
//	--effect <name>        Simulate only this effect, ignoring the config's effect list
//	--steps <n>            Override the configured step count
//	--every <n>            Print statistics every n steps (0 = summary only)
//	--snapshot-in <path>   Restore the first effect from a snapshot file before running
//	--snapshot-out <path>  Save the first effect to a snapshot file after running
//	--save-slot <name>     Save the first effect to a named slot in user data storage
//	--load-slot <name>     Restore the first effect from a named slot before running
//	--verbose              Enable verbose logging (default off)
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/gonewx/particleops/internal/particle"
	"github.com/gonewx/particleops/pkg/config"
	"github.com/gonewx/particleops/pkg/embedded"
	"github.com/gonewx/particleops/pkg/snapshot"
)

// appName 是用户数据目录名（快照槽位）
const appName = "particleops"

var (
	configFlag      = flag.String("config", "", "Simulation config file (default: embedded)")
	effectsFlag     = flag.String("effects", "", "Effect library file (default: embedded)")
	effectFlag      = flag.String("effect", "", "Simulate only this effect")
	stepsFlag       = flag.Int("steps", -1, "Override the configured step count")
	everyFlag       = flag.Int("every", 0, "Print statistics every n steps")
	snapshotInFlag  = flag.String("snapshot-in", "", "Restore the first effect from this snapshot file")
	snapshotOutFlag = flag.String("snapshot-out", "", "Save the first effect to this snapshot file")
	saveSlotFlag    = flag.String("save-slot", "", "Save the first effect to this storage slot")
	loadSlotFlag    = flag.String("load-slot", "", "Restore the first effect from this storage slot")
	verboseFlag     = flag.Bool("verbose", false, "Enable verbose logging (default off)")
)

func main() {
	flag.Parse()

	// 默认静音运行：抑制系统级调试日志；如需详细调试，传入 --verbose
	if !*verboseFlag {
		log.SetOutput(io.Discard)
	}

	embedded.Init(dataFS)

	if err := run(os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(out io.Writer) error {
	cfg, err := loadConfig(*configFlag)
	if err != nil {
		return err
	}
	if *effectFlag != "" {
		cfg.Effects = []config.EffectInstanceConfig{{Name: *effectFlag}}
	}
	if *stepsFlag >= 0 {
		cfg.Steps = *stepsFlag
	}

	lib, err := loadLibrary(*effectsFlag)
	if err != nil {
		return err
	}

	sim, err := NewSimulator(cfg, lib)
	if err != nil {
		return err
	}
	if err := restore(sim); err != nil {
		return err
	}

	fmt.Fprintf(out, "Simulating %d effects for %d steps (dt=%.4f)\n", len(cfg.Effects), cfg.Steps, cfg.TimeStep)
	var last StepReport
	runErr := sim.Run(cfg.Steps, func(r StepReport) {
		last = r
		if *everyFlag > 0 && r.Step%*everyFlag == 0 {
			printReport(out, r)
		}
	})
	if runErr != nil {
		fmt.Fprintln(out, "Some effects failed:", runErr)
	}

	fmt.Fprintln(out, "Final:")
	printReport(out, last)
	fmt.Fprintf(out, "  effects alive: %d\n", sim.Alive())

	return persist(sim)
}

func printReport(out io.Writer, r StepReport) {
	fmt.Fprintf(out, "  step %4d  t=%7.3fs  effects=%d  particles=%d  restarted=%d  destroyed=%d  failed=%d\n",
		r.Step, r.Time, r.Effects, r.Particles, r.Restarted, r.Destroyed, r.Failed)
}

// loadConfig 读取指定配置文件，未指定时使用嵌入的 data/simulation.yaml
func loadConfig(path string) (*config.SimulationConfig, error) {
	if path != "" {
		return config.LoadSimulationConfig(path)
	}
	data, err := embedded.ReadFile("data/simulation.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded simulation config: %w", err)
	}
	return config.ParseSimulationConfig(data)
}

// loadLibrary 读取指定特效库文件，未指定时合并嵌入的全部特效库
func loadLibrary(path string) (*particle.EffectLibrary, error) {
	if path != "" {
		return particle.ParseEffectFile(path)
	}
	return embedded.LoadEffectLibrary()
}

// restore 在运行前从文件或槽位恢复第一个特效
func restore(sim *Simulator) error {
	if *snapshotInFlag == "" && *loadSlotFlag == "" {
		return nil
	}
	c, ok := sim.Collection(0)
	if !ok {
		return fmt.Errorf("no effect to restore into")
	}
	if *snapshotInFlag != "" {
		f, err := snapshot.Load(*snapshotInFlag)
		if err != nil {
			return err
		}
		if err := f.Apply(c); err != nil {
			return err
		}
	}
	if *loadSlotFlag != "" {
		store, err := snapshot.OpenStore(appName)
		if err != nil {
			return err
		}
		if err := store.Restore(*loadSlotFlag, c); err != nil {
			return err
		}
	}
	return nil
}

// persist 在运行后把第一个特效写入文件或槽位
func persist(sim *Simulator) error {
	if *snapshotOutFlag == "" && *saveSlotFlag == "" {
		return nil
	}
	c, ok := sim.Collection(0)
	if !ok {
		return fmt.Errorf("first effect finished, nothing to snapshot")
	}
	if *snapshotOutFlag != "" {
		if err := snapshot.Save(*snapshotOutFlag, c); err != nil {
			return err
		}
	}
	if *saveSlotFlag != "" {
		store, err := snapshot.OpenStore(appName)
		if err != nil {
			return err
		}
		if err := store.Save(*saveSlotFlag, c); err != nil {
			return err
		}
	}
	return nil
}
