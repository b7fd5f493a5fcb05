package main

import (
	"fmt"
	"os"

	"github.com/nihei9/csrdrive/driver/lexer"
	"github.com/nihei9/csrdrive/lexgen"
	"github.com/nihei9/csrdrive/spec"
	"github.com/spf13/cobra"
)

var tokenizeFlags = struct {
	source *string
	skip   *[]string
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "tokenize <tables file path>",
		Short:   "Tokenize a text stream",
		Example: `  cat src | csrdrive tokenize tables.json --skip white_space`,
		Args:    cobra.ExactArgs(1),
		RunE:    runTokenize,
	}
	tokenizeFlags.source = cmd.Flags().StringP("source", "s", "", "source file path (default stdin)")
	tokenizeFlags.skip = cmd.Flags().StringSlice("skip", nil, "kinds to discard")
	rootCmd.AddCommand(cmd)
}

func runTokenize(cmd *cobra.Command, args []string) (retErr error) {
	defer recoverPanic(&retErr)

	tabs, err := readTables(args[0])
	if err != nil {
		return fmt.Errorf("Cannot read tables: %w", err)
	}
	if tabs.Lexical == nil {
		return fmt.Errorf("%v has no lexer tables", args[0])
	}

	src := os.Stdin
	filename := "stdin"
	if *tokenizeFlags.source != "" {
		f, err := os.Open(*tokenizeFlags.source)
		if err != nil {
			return fmt.Errorf("Cannot open the source file %s: %w", *tokenizeFlags.source, err)
		}
		defer f.Close()
		src = f
		filename = *tokenizeFlags.source
	}

	ls, err := lexer.NewLexSpec(tabs.Lexical)
	if err != nil {
		return err
	}
	actions, err := lexgen.KindActions[struct{}](tabs.Lexical, *tokenizeFlags.skip...)
	if err != nil {
		return err
	}
	l, err := lexer.NewLexer(ls, lexer.NewReaderSource(src), actions, lexer.WithFilename(filename))
	if err != nil {
		return err
	}

	for {
		tok, err := l.Next()
		if err != nil {
			return err
		}
		if tok.EOF() {
			fmt.Fprintf(os.Stdout, "%v: <eof>\n", tok.Pos)
			return nil
		}
		fmt.Fprintf(os.Stdout, "%v: %v %q\n", tok.Pos, ls.KindName(tok.ID-spec.TokenFirst), tok.Text)
	}
}
