// Command octo8 is the assembler/VM toolchain's entry point: it assembles
// .asm sources to a .bin listing, optionally runs the result, or runs an
// existing .bin directly.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kellanburns/octo8/pkg/binimage"
	"github.com/kellanburns/octo8/pkg/compiler"
	"github.com/kellanburns/octo8/pkg/cpu"
	"github.com/kellanburns/octo8/pkg/mem"
	"github.com/kellanburns/octo8/pkg/status"
)

const ramSize = 256

func main() {
	args, forceRun := stripLiteralRunFlag(os.Args[1:])
	cmd := rootCmd(forceRun)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		assemblerStderr("Error", err.Error())
		os.Exit(1)
	}
}

// stripLiteralRunFlag pulls a bare "-run" token out of the argument list
// before cobra/pflag ever sees it: pflag treats a single-dash token as a
// cluster of one-letter shorthand flags, so "-run" would otherwise be
// rejected as an unknown shorthand flag rather than accepted as the
// assemble-then-execute switch.
func stripLiteralRunFlag(args []string) ([]string, bool) {
	out := make([]string, 0, len(args))
	found := false
	for _, a := range args {
		if a == "-run" {
			found = true
			continue
		}
		out = append(out, a)
	}
	return out, found
}

func rootCmd(forceRun bool) *cobra.Command {
	run := forceRun
	var showStatus bool
	var frequencyHz float64
	var maxCycles int

	cmd := &cobra.Command{
		Use:   "octo8 <path.asm|path.bin> [output-dir]",
		Short: "Assemble and run programs for the octo8 didactic 8-bit computer",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			var outputDir string
			if len(args) > 1 {
				outputDir = args[1]
			}

			binPath, err := resolveBinary(path, outputDir)
			if err != nil {
				return err
			}

			if run || filepath.Ext(path) == ".bin" {
				return runMachine(binPath, showStatus, frequencyHz, maxCycles)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&run, "run", run, "assemble then execute (also accepts the literal -run form)")
	cmd.Flags().BoolVar(&showStatus, "status", false, "print a status line after every cycle phase")
	cmd.Flags().Float64Var(&frequencyHz, "hz", 0, "target clock frequency in Hz (0 = unthrottled)")
	cmd.Flags().IntVar(&maxCycles, "max-cycles", 0, "stop after this many cycles even if the machine has not halted (0 = unbounded)")
	return cmd
}

// resolveBinary assembles path if it is a .asm file, writing the .bin
// alongside it (or under outputDir if given), and returns the resulting
// .bin path unchanged if path already is one.
func resolveBinary(path, outputDir string) (string, error) {
	if !fileExists(path) {
		return "", fmt.Errorf("file %q does not exist", path)
	}

	switch filepath.Ext(path) {
	case ".bin":
		return path, nil
	case ".asm":
		return assemble(path, outputDir)
	default:
		return "", fmt.Errorf("wrong file format %q: expected \".asm\" or \".bin\"", path)
	}
}

func assemble(asmPath, outputDir string) (string, error) {
	source, err := os.ReadFile(asmPath)
	if err != nil {
		return "", fmt.Errorf("%w", err)
	}

	prog, err := compiler.Parse(string(source))
	if err != nil {
		return "", err
	}
	lines, err := compiler.Assemble(prog, ramSize)
	if err != nil {
		return "", err
	}

	binName := strings.TrimSuffix(filepath.Base(asmPath), ".asm") + ".bin"
	dir := outputDir
	if dir == "" {
		dir = filepath.Dir(asmPath)
		assemblerStderr("Warning", "output_folder not set; using the assembly script's folder as the output folder")
	}
	binPath := filepath.Join(dir, binName)

	if err := binimage.Write(binPath, lines); err != nil {
		return "", err
	}
	return binPath, nil
}

func runMachine(binPath string, showStatus bool, frequencyHz float64, maxCycles int) error {
	lines, err := binimage.Read(binPath)
	if err != nil {
		return err
	}

	ram := mem.New(ramSize)
	if err := ram.FromLines(lines); err != nil {
		return fmt.Errorf("%w", err)
	}

	machine := cpu.New(ram)
	driver := status.NewDriver(machine)
	driver.FrequencyHz = frequencyHz
	driver.MaxCycles = maxCycles

	if showStatus {
		driver.AddObserver(func(phase status.Phase, snap status.Snapshot) {
			fmt.Printf("%-24s ax=%s bx=%s cx=%s dx=%s acc=%s sr=%s pc=%s halted=%v\n",
				phase, snap.AX, snap.BX, snap.CX, snap.DX, snap.ACC, snap.SR, snap.PC, snap.Halted)
		})
	}

	driver.Run()
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func assemblerStderr(kind, message string) {
	fmt.Fprintf(os.Stderr, "[Assembler] (%s): %s\n", kind, message)
}
