package main

import (
	"fmt"
	"io"
	"os"
	"text/template"

	"github.com/nihei9/csrdrive/calc"
	"github.com/nihei9/csrdrive/spec"
	"github.com/spf13/cobra"
)

var showFlags = struct {
	calc *bool
}{}

func init() {
	cmd := &cobra.Command{
		Use:   "show [tables file path]",
		Short: "Validate tables and print their summary",
		Example: `  csrdrive show tables.json
  csrdrive show --calc`,
		Args: cobra.MaximumNArgs(1),
		RunE: runShow,
	}
	showFlags.calc = cmd.Flags().Bool("calc", false, "show the tables of the built-in calculator")
	rootCmd.AddCommand(cmd)
}

func runShow(cmd *cobra.Command, args []string) (retErr error) {
	defer recoverPanic(&retErr)

	var tabs *spec.CompiledTables
	switch {
	case *showFlags.calc:
		tabs = calc.Tables()
		err := tabs.Validate()
		if err != nil {
			return err
		}
	case len(args) > 0:
		var err error
		tabs, err = readTables(args[0])
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("either a tables file path or --calc is required")
	}

	return writeSummary(os.Stdout, tabs)
}

const summaryTemplate = `# {{ .Tables.Name }}

fingerprint: {{ .Fingerprint }}
{{ with .Tables.Lexical }}
## Lexer

states: {{ .StateCount }}
byte classes: {{ .ClassCount }}
transitions: {{ len .Transition.A }}
kinds:
{{ range $i, $k := .KindNames -}}
  {{ $i }}: {{ $k }}
{{ end -}}
{{ end -}}
{{ with .Tables.Syntactic }}
## Parser

states: {{ .StateCount }} (start: {{ .StartState }}, accept: {{ .AcceptState }})
actions: {{ len .Action.A }}
gotos: {{ len .GoTo.A }}
rules: {{ len .RuleLengths }}
{{ range $i, $lhs := .RuleLHS -}}
  {{ $i }}: {{ tokenName $lhs }} ({{ index $.Tables.Syntactic.RuleLengths $i }} symbols)
{{ end -}}
{{ end -}}
`

func writeSummary(w io.Writer, tabs *spec.CompiledTables) error {
	fp, err := tabs.Fingerprint()
	if err != nil {
		return err
	}

	fns := template.FuncMap{
		"tokenName": func(id int) string {
			return tabs.Syntactic.TokenName(id)
		},
	}
	tmpl, err := template.New("").Funcs(fns).Parse(summaryTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, struct {
		Tables      *spec.CompiledTables
		Fingerprint string
	}{
		Tables:      tabs,
		Fingerprint: fp,
	})
}
