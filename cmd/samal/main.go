// Command samal is the toolchain's CLI front end: parse, type-check,
// compile and run samal source files. Grounded on the teacher's
// cmd/main.go flag-driven CLI, rebuilt on cobra the way a modern Go CLI
// in this codebase family is structured.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/samal-lang/samal"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "samal",
		Short: "samal compiles and runs samal source files",
	}
	root.AddCommand(newCheckCmd(), newBuildCmd(), newRunCmd())
	return root
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "parse and type-check a source file without compiling it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			mod, perr := samal.ParseModule(source)
			if perr != nil {
				return perr
			}
			if err := samal.NewTypeCompleter().CheckModule(mod); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

func newBuildCmd() *cobra.Command {
	var highlight bool
	cmd := &cobra.Command{
		Use:   "build <file>",
		Short: "compile a source file and print its bytecode disassembly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			program, err := samal.CompileSource(source, samal.NewPipelineConfig())
			if err != nil {
				return err
			}
			if highlight {
				fmt.Fprint(cmd.OutOrStdout(), program.HighlightDisassemble())
			} else {
				fmt.Fprint(cmd.OutOrStdout(), program.Disassemble())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&highlight, "color", false, "colorize the disassembly")
	return cmd
}

func newRunCmd() *cobra.Command {
	var heapSize int
	var gcInterval int
	cmd := &cobra.Command{
		Use:   "run <file> <function> [args...]",
		Short: "compile a source file and run one of its functions",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			functionName := args[1]

			var stackBytes []byte
			for _, raw := range args[2:] {
				v, err := strconv.ParseInt(raw, 10, 64)
				if err != nil {
					return fmt.Errorf("argument %q is not an integer: %w", raw, err)
				}
				stackBytes = samal.EncodeI64Arg(stackBytes, v)
			}

			params := samal.DefaultVMParameters()
			if heapSize > 0 {
				params.InitialHeapSize = heapSize
			}
			if gcInterval > 0 {
				params.FunctionsCallsPerGCRun = gcInterval
			}

			result, err := samal.RunSource(source, functionName, stackBytes, params)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), samal.DecodeI64Result(result))
			return nil
		},
	}
	cmd.Flags().IntVar(&heapSize, "heap-size", 0, "override the initial GC heap size, in bytes")
	cmd.Flags().IntVar(&gcInterval, "gc-interval", 0, "override how many function calls pass between GC cycles")
	return cmd
}
