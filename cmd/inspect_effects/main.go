// Package main prints effect definitions unit by unit with the attribute and
// control point masks each unit declares.
//
// Usage:
//
//	go run cmd/inspect_effects/main.go [flags]
//
// Flags:
//
//	--root <dir>      Directory containing data/effects (default ".")
//	--file <path>     Inspect a single effect library file instead
//	--effect <name>   Only print this effect
//	--units           List every registered unit type with its parameters
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math/bits"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/gonewx/particleops/internal/particle"
	"github.com/gonewx/particleops/pkg/embedded"
	"github.com/gonewx/particleops/pkg/operators"
	"github.com/gonewx/particleops/pkg/particles"
)

var (
	rootFlag   = flag.String("root", ".", "Directory containing data/effects")
	fileFlag   = flag.String("file", "", "Inspect a single effect library file")
	effectFlag = flag.String("effect", "", "Only print this effect")
	unitsFlag  = flag.Bool("units", false, "List registered unit types")
)

func main() {
	flag.Parse()
	log.SetOutput(io.Discard)

	reg := operators.NewRegistry()
	if *unitsFlag {
		printUnits(os.Stdout, reg)
		return
	}

	lib, err := loadLibrary()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	failed := false
	for _, name := range lib.Names() {
		if *effectFlag != "" && name != *effectFlag {
			continue
		}
		cfg, _ := lib.Find(name)
		def, err := particles.Build(reg, cfg)
		if err != nil {
			fmt.Printf("%s: %v\n\n", name, err)
			failed = true
			continue
		}
		printDefinition(os.Stdout, def, 0)
	}
	if failed {
		os.Exit(1)
	}
}

func loadLibrary() (*particle.EffectLibrary, error) {
	if *fileFlag != "" {
		return particle.ParseEffectFile(*fileFlag)
	}
	embedded.Init(os.DirFS(*rootFlag))
	return embedded.LoadEffectLibrary()
}

func printDefinition(out io.Writer, def *particles.Definition, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(out, "%s%s (max %d, initial %d)\n", indent, def.Name, def.MaxParticles, def.InitialParticles)
	if def.InitialMask != 0 {
		fmt.Fprintf(out, "%s  initial capture: %s\n", indent, def.InitialMask)
	}
	if def.HitBoxControlPoints != 0 {
		fmt.Fprintf(out, "%s  hit-box control points: %s\n", indent, cpList(def.HitBoxControlPoints))
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s  CLASS\tUNIT\tREADS\tWRITES\tINITIAL\tCPS\n", indent)
	for _, in := range def.Units() {
		info := in.Info
		fmt.Fprintf(w, "%s  %s\t%s\t%s\t%s\t%s\t%s\n",
			indent, in.Class, info.Name, info.Reads, info.Writes, info.ReadsInitial, cpList(info.ControlPoints))
	}
	w.Flush()
	fmt.Fprintln(out)

	for _, child := range def.Children {
		printDefinition(out, child, depth+1)
	}
}

// cpList 把控制点掩码转为 "0,1,5" 形式
func cpList(mask uint64) string {
	if mask == 0 {
		return "-"
	}
	var ids []string
	for mask != 0 {
		id := bits.TrailingZeros64(mask)
		ids = append(ids, fmt.Sprint(id))
		mask &^= 1 << uint(id)
	}
	return strings.Join(ids, ",")
}

func printUnits(out io.Writer, reg *particles.Registry) {
	for _, name := range reg.Names() {
		f, _ := reg.Lookup(name)
		fmt.Fprintf(out, "%s (%s)", f.Name, f.Class)
		if f.Help != "" {
			fmt.Fprintf(out, " - %s", f.Help)
		}
		fmt.Fprintln(out)
		for _, p := range f.Params {
			fmt.Fprintf(out, "    %-28s %-10s default %q", p.Name, p.Type, p.Default)
			if p.Help != "" {
				fmt.Fprintf(out, "  %s", p.Help)
			}
			fmt.Fprintln(out)
		}
	}
}
