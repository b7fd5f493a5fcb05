package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nihei9/csrdrive/lexgen"
	"github.com/nihei9/csrdrive/spec"
	mlspec "github.com/nihei9/maleeni/spec"
	"github.com/spf13/cobra"
)

var compileFlags = struct {
	output *string
	name   *string
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "compile-lex [lexical specification file path]",
		Short:   "Compile a maleeni lexical specification into lexer tables",
		Example: `  csrdrive compile-lex lexspec.json -o tables.json`,
		Args:    cobra.MaximumNArgs(1),
		RunE:    runCompile,
	}
	compileFlags.output = cmd.Flags().StringP("output", "o", "", "output file path (default stdout)")
	compileFlags.name = cmd.Flags().StringP("name", "n", "", "name of the tables (default the base name of the input file)")
	rootCmd.AddCommand(cmd)
}

func runCompile(cmd *cobra.Command, args []string) (retErr error) {
	defer recoverPanic(&retErr)

	var lspec *mlspec.LexSpec
	name := "stdin"
	if len(args) > 0 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("Cannot open the lexical specification %s: %w", args[0], err)
		}
		defer f.Close()
		lspec, err = readLexSpec(f)
		if err != nil {
			return err
		}
		name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
	} else {
		var err error
		lspec, err = readLexSpec(os.Stdin)
		if err != nil {
			return err
		}
	}
	if *compileFlags.name != "" {
		name = *compileFlags.name
	}

	tabs, err := compileLexSpec(lspec, name)
	if err != nil {
		return err
	}

	err = writeTables(tabs, *compileFlags.output)
	if err != nil {
		return fmt.Errorf("Cannot write an output file: %w", err)
	}
	return nil
}

// compileLexSpec compiles a lexical specification into tables named `name`. A specification
// without a name takes `name` too.
func compileLexSpec(lspec *mlspec.LexSpec, name string) (*spec.CompiledTables, error) {
	if lspec.Name == "" {
		lspec.Name = name
	}

	logger.Infof("compiling %v lexical entries", len(lspec.Entries))
	ls, err := lexgen.Compile(lspec)
	if err != nil {
		return nil, err
	}
	logger.Infof("states: %v, byte classes: %v, transitions: %v", ls.StateCount, ls.ClassCount, len(ls.Transition.A))

	tabs := &spec.CompiledTables{
		Name:    name,
		Lexical: ls,
	}
	err = tabs.Validate()
	if err != nil {
		return nil, fmt.Errorf("generated tables are broken: %w", err)
	}
	return tabs, nil
}

func readLexSpec(r io.Reader) (*mlspec.LexSpec, error) {
	d, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	lspec := &mlspec.LexSpec{}
	err = json.Unmarshal(d, lspec)
	if err != nil {
		return nil, fmt.Errorf("Cannot decode the lexical specification: %w", err)
	}
	return lspec, nil
}

func writeTables(tabs *spec.CompiledTables, path string) error {
	out, err := json.Marshal(tabs)
	if err != nil {
		return err
	}

	w := os.Stdout
	if path != "" {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	fmt.Fprintf(w, "%v\n", string(out))
	return nil
}

func readTables(path string) (*spec.CompiledTables, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("Cannot open the tables %s: %w", path, err)
	}
	defer f.Close()
	return spec.Read(f)
}
