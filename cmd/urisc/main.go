// Copyright 2025, The urisc Authors

package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/uflarisc/urisc/cpu"
	"github.com/uflarisc/urisc/emulator"
	"github.com/uflarisc/urisc/internal"
	"github.com/uflarisc/urisc/translate"
)

const (
	EXT_SOURCE = ".asm" // Assembly source
	EXT_IMAGE  = ".bin" // Loader image
)

// assemble parses a source file, with the emulator defines predefined.
func assemble(emu *emulator.Emulator, path string) (prog *cpu.Program, err error) {
	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	asm := &cpu.Assembler{Verbose: emu.Verbose}
	for key, value := range emu.Defines() {
		asm.Predefine(key, value)
	}

	prog, err = asm.Parse(inf)
	return
}

// load prepares an emulator from either an assembly source or a loader image.
func load(path string, verbose bool) (emu *emulator.Emulator, err error) {
	emu = emulator.NewEmulator()
	emu.Verbose = verbose

	if strings.ToLower(filepath.Ext(path)) == EXT_IMAGE {
		var inf *os.File
		inf, err = os.Open(path)
		if err != nil {
			return
		}
		defer inf.Close()

		err = emu.Rom.Unmarshal(inf)
		if err != nil {
			return
		}
	} else {
		emu.Program, err = assemble(emu, path)
		if err != nil {
			return
		}
	}

	err = emu.Reset()
	return
}

func main() {
	log.SetFlags(0)

	var rootCmd = &cobra.Command{
		Use:   "urisc",
		Short: "μRISC assembler and simulator",
		Long: `Assembles μRISC programs into loader images, and runs them on a
cycle stepped simulation of the μRISC processor.`,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	var (
		verbose   bool
		trace     bool
		maxCycles int
		output    string
		noColor   bool
	)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose mode")

	// asm - source to loader image
	var asmCmd = &cobra.Command{
		Use:   "asm FILE.asm",
		Short: "Assemble a source file into a loader image",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			source := args[0]
			emu := emulator.NewEmulator()
			emu.Verbose = verbose

			prog, err := assemble(emu, source)
			if err != nil {
				log.Fatalf("%v: %v", source, err)
			}

			if len(output) == 0 {
				output = strings.TrimSuffix(source, filepath.Ext(source)) + EXT_IMAGE
			}

			emu.Rom.Append(prog.Binary())

			ouf, err := os.Create(output)
			if err != nil {
				log.Fatalf("%v: %v", output, err)
			}

			err = emu.Rom.Marshal(ouf)
			cerr := ouf.Close()
			if err == nil {
				err = cerr
			}
			if err != nil {
				log.Fatalf("%v: %v", output, err)
			}

			if verbose {
				log.Printf("%v: %d words", output, len(emu.Rom.Entries))
			}
		},
	}
	asmCmd.Flags().StringVarP(&output, "output", "o", "", "Loader image to write (default: FILE.bin)")

	// run - execute until halt or the cycle limit
	var runCmd = &cobra.Command{
		Use:   "run FILE.asm|FILE.bin",
		Short: "Run a program and report the final machine state",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			emu, err := load(args[0], verbose)
			if err != nil {
				log.Fatalf("%v: %v", args[0], err)
			}

			if trace {
				emu.Cpu.Trace = func(rec cpu.Record) {
					translate.Fprintf(os.Stdout, "%v\n", rec)
				}
			}

			status, err := emu.Run(maxCycles)
			fmt.Print(emu.Report(status).String())
			if err != nil {
				log.Fatalf("%v: %v", args[0], err)
			}
		},
	}
	runCmd.Flags().IntVar(&maxCycles, "max-cycles", cpu.CYCLE_LIMIT, "Maximum cycles to run")
	runCmd.Flags().BoolVar(&trace, "trace", false, "Print every executed instruction")

	// dump - decoded instruction records
	var dumpCmd = &cobra.Command{
		Use:   "dump FILE.asm|FILE.bin",
		Short: "Dump the decoded instructions of a program",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			emu, err := load(args[0], verbose)
			if err != nil {
				log.Fatalf("%v: %v", args[0], err)
			}

			printer := pp.New()
			printer.SetColoringEnabled(!noColor)

			for address, word := range emu.Rom.Words() {
				dec := cpu.Decode(word)
				translate.Fprintf(os.Stdout, "%04x: %v\n", address, dec)
				printer.Println(dec)
			}
		},
	}
	dumpCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	// debug - interactive single step monitor
	var debugCmd = &cobra.Command{
		Use:   "debug FILE.asm|FILE.bin",
		Short: "Single step a program interactively",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			emu, err := load(args[0], verbose)
			if err != nil {
				log.Fatalf("%v: %v", args[0], err)
			}

			err = monitor(emu)
			if err != nil {
				log.Fatalf("%v: %v", args[0], err)
			}
		},
	}

	// defines - list the assembler predefines
	var definesCmd = &cobra.Command{
		Use:   "defines",
		Short: "List the predefined assembler equates",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			emu := emulator.NewEmulator()
			keys, table := internal.SortedDefines(emu.Defines())
			for _, key := range keys {
				fmt.Printf(".equ %v %v\n", key, table[key])
			}
		},
	}

	rootCmd.AddCommand(asmCmd, runCmd, dumpCmd, debugCmd, definesCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// monitor runs the interactive debugger until quit or end of input.
func monitor(emu *emulator.Emulator) (err error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "urisc> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return
	}
	defer rl.Close()

	out := rl.Stdout()

	where := func() {
		translate.Fprintf(out, "%04x: [line %d] %v\n", emu.Pc(), emu.LineNo(), emu.Decoded())
	}

	where()
	for {
		var line string
		line, err = rl.Readline()
		if err == readline.ErrInterrupt {
			err = nil
			continue
		}
		if err != nil {
			// End of input
			err = nil
			return
		}

		words := strings.Fields(line)
		if len(words) == 0 {
			words = []string{"step"}
		}

		switch words[0] {
		case "s", "step":
			count := 1
			if len(words) > 1 {
				count, err = strconv.Atoi(words[1])
				if err != nil {
					translate.Fprintf(out, "%v\n", err)
					err = nil
					continue
				}
			}
			for range count {
				done, terr := emu.Tick()
				if terr != nil {
					translate.Fprintf(out, "%v\n", terr)
					break
				}
				if done {
					translate.Fprintf(out, "halted after %d cycles\n", emu.Cycles())
					break
				}
			}
			where()
		case "r", "run":
			status, rerr := emu.Run(cpu.CYCLE_LIMIT)
			if rerr != nil {
				translate.Fprintf(out, "%v\n", rerr)
			}
			translate.Fprintf(out, "%v\n", status)
			where()
		case "regs", "state":
			fmt.Fprint(out, emu.Report(cpu.STATUS_RUNNING).String())
		case "mem":
			if len(words) != 2 {
				translate.Fprintf(out, "usage: mem ADDRESS\n")
				continue
			}
			address, perr := strconv.ParseUint(words[1], 0, 32)
			if perr != nil {
				translate.Fprintf(out, "%v\n", perr)
				continue
			}
			value, merr := emu.Cpu.Memory.Load(uint32(address))
			if merr != nil {
				translate.Fprintf(out, "%v\n", merr)
				continue
			}
			translate.Fprintf(out, "%04x: %032b %v\n", address, value, cpu.Decode(value))
		case "reset":
			err = emu.Reset()
			if err != nil {
				return
			}
			where()
		case "q", "quit":
			return
		default:
			translate.Fprintf(out, "commands: step [N], run, regs, mem ADDRESS, reset, quit\n")
		}
	}
}
