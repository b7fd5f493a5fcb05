package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/spf13/cobra"
)

var rootFlags = struct {
	trace *string
}{}

// logger prints the progress of the commands themselves.
var logger = gologadapter.New()

var rootCmd = &cobra.Command{
	Use:   "csrdrive",
	Short: "Drive a lexer and a parser by generated tables",
	Long: `csrdrive provides the following features:
- Converts a maleeni lexical specification into lexer tables.
- Tokenizes a text stream according to lexer tables.
- Validates and describes a table file.
- Evaluates integer expressions with the built-in calculator.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := tracing.TraceLevelFromString(*rootFlags.trace)
		logger.SetTraceLevel(level)
		tracing.Select("csrdrive.lexer").SetTraceLevel(level)
		tracing.Select("csrdrive.parser").SetTraceLevel(level)
	},
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootFlags.trace = rootCmd.PersistentFlags().String("trace", "Error", "trace level [Debug|Info|Error]")
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return err
	}
	return nil
}

// recoverPanic turns a panic in a command into an error and prints the stack.
func recoverPanic(retErr *error) {
	v := recover()
	if v == nil {
		return
	}
	err, ok := v.(error)
	if !ok {
		err = fmt.Errorf("an unexpected error occurred: %v", v)
	}
	fmt.Fprintf(os.Stderr, "%v:\n%v", err, string(debug.Stack()))
	*retErr = err
}
