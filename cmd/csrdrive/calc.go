package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/nihei9/csrdrive/calc"
	"github.com/nihei9/csrdrive/driver/parser"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "calc [expression]",
		Short: "Evaluate integer expressions",
		Example: `  csrdrive calc "1 + 2 * 3"
  csrdrive calc`,
		Long: `calc evaluates an expression given as arguments. Without arguments, it starts
an interactive session reading one expression per line. Quit with <ctrl>D.`,
		RunE: runCalc,
	}
	rootCmd.AddCommand(cmd)
}

func runCalc(cmd *cobra.Command, args []string) (retErr error) {
	defer recoverPanic(&retErr)

	initDisplay()
	if len(args) > 0 {
		return evalLine(strings.Join(args, " "))
	}

	repl, err := readline.New("calc> ")
	if err != nil {
		return err
	}
	defer repl.Close()
	logger.Infof("Quit with <ctrl>D")
	for {
		line, err := repl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		err = evalLine(line)
		if err != nil {
			return err
		}
	}
	return nil
}

func initDisplay() {
	pterm.Info.Prefix = pterm.Prefix{
		Text:  "  =",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  "  Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

// evalLine prints the value of an expression. A diagnostic is printed but isn't an error of the
// command; only defective tables are.
func evalLine(line string) error {
	result, ok, err := calc.Eval(line, parser.ReporterFunc(printDiagnostic))
	if err != nil {
		return err
	}
	if !ok {
		pterm.Warning.Println(fmt.Sprintf("%v (with errors)", result))
		return nil
	}
	pterm.Info.Println(fmt.Sprint(result))
	return nil
}

func printDiagnostic(d *parser.Diagnostic) {
	if d.Code.IsWarning() {
		pterm.Warning.Println(d.Error())
		return
	}
	pterm.Error.Println(d.Error())
}
