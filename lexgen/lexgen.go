// Package lexgen converts DFAs compiled by maleeni into tables that driver/lexer drives.
//
// maleeni's transition table has a column per byte. lexgen merges bytes having identical columns
// into byte classes and stores the class-level table in the CSR format. The DFA states are
// renumbered in breadth-first order so that the initial state becomes 0.
package lexgen

import (
	"fmt"
	"strings"

	"github.com/nihei9/csrdrive/compressor"
	"github.com/nihei9/csrdrive/driver/lexer"
	"github.com/nihei9/csrdrive/spec"
	mlcompiler "github.com/nihei9/maleeni/compiler"
	mlspec "github.com/nihei9/maleeni/spec"
)

// Compile compiles a lexical specification. Only the default lex mode is supported.
func Compile(lexspec *mlspec.LexSpec) (*spec.LexicalSpec, error) {
	clspec, err, cErrs := mlcompiler.Compile(lexspec, mlcompiler.CompressionLevel(mlcompiler.CompressionLevelMin))
	if err != nil {
		if len(cErrs) > 0 {
			var b strings.Builder
			writeCompileError(&b, cErrs[0])
			for _, cerr := range cErrs[1:] {
				fmt.Fprintf(&b, "\n")
				writeCompileError(&b, cerr)
			}
			return nil, fmt.Errorf("%v", b.String())
		}
		return nil, err
	}
	if len(clspec.Specs) != int(mlspec.LexModeIDDefault)+1 {
		return nil, fmt.Errorf("lex modes other than the default mode are not supported; modes: %v", clspec.ModeNames[1:])
	}
	return FromModeSpec(clspec.Specs[mlspec.LexModeIDDefault])
}

func writeCompileError(w *strings.Builder, cErr *mlcompiler.CompileError) {
	if cErr.Fragment {
		fmt.Fprintf(w, "fragment ")
	}
	fmt.Fprintf(w, "%v: %v", cErr.Kind, cErr.Cause)
	if cErr.Detail != "" {
		fmt.Fprintf(w, ": %v", cErr.Detail)
	}
}

// FromModeSpec converts an uncompressed DFA of a lex mode. An action ID of the result is the
// mode kind ID minus one.
func FromModeSpec(ms *mlspec.CompiledLexModeSpec) (*spec.LexicalSpec, error) {
	d := ms.DFA
	if d == nil || d.UncompressedTransition == nil {
		return nil, fmt.Errorf("the DFA must be uncompressed")
	}
	if d.ColCount != 256 {
		return nil, fmt.Errorf("the DFA must have 256 columns; got: %v", d.ColCount)
	}

	order, newIDs := renumber(d)
	stateCount := len(order)

	// The byte-level table; -1 means no transition.
	byteTab := make([]int, stateCount*256)
	for s, old := range order {
		for b := 0; b < 256; b++ {
			to := d.UncompressedTransition[old.Int()*256+b]
			if to == mlspec.StateIDNil {
				byteTab[s*256+b] = -1
				continue
			}
			byteTab[s*256+b] = newIDs[to]
		}
	}

	classes, classCount, classTab, err := genByteClasses(byteTab, stateCount)
	if err != nil {
		return nil, err
	}

	tran := compressor.NewCSRTable(-1)
	orig, err := compressor.NewOriginalTable(classTab, classCount)
	if err != nil {
		return nil, err
	}
	err = tran.Compress(orig)
	if err != nil {
		return nil, err
	}

	actionCount := len(ms.KindNames) - 1
	stateActions := make([]int, stateCount)
	for s, old := range order {
		kind := d.AcceptingStates[old]
		if kind == mlspec.LexModeKindIDNil {
			stateActions[s] = actionCount
			continue
		}
		stateActions[s] = kind.Int() - 1
	}

	kindNames := make([]string, actionCount)
	for i, k := range ms.KindNames[1:] {
		kindNames[i] = string(k)
	}

	return &spec.LexicalSpec{
		ByteClasses: classes,
		ClassCount:  classCount,
		StateCount:  stateCount,
		Transition: &spec.CSR{
			IA: tran.IA,
			JA: tran.JA,
			A:  tran.A,
		},
		StateActions: stateActions,
		ActionCount:  actionCount,
		KindNames:    kindNames,
	}, nil
}

// renumber lists the states reachable from the initial state in breadth-first order and maps the
// original IDs to the positions in the list.
func renumber(d *mlspec.TransitionTable) ([]mlspec.StateID, map[mlspec.StateID]int) {
	newIDs := map[mlspec.StateID]int{
		d.InitialStateID: 0,
	}
	order := []mlspec.StateID{d.InitialStateID}
	for i := 0; i < len(order); i++ {
		row := d.UncompressedTransition[order[i].Int()*256 : (order[i].Int()+1)*256]
		for _, to := range row {
			if to == mlspec.StateIDNil {
				continue
			}
			if _, ok := newIDs[to]; ok {
				continue
			}
			newIDs[to] = len(order)
			order = append(order, to)
		}
	}
	return order, newIDs
}

// genByteClasses merges bytes having identical columns. A byte having no transition from any
// state belongs to no class. It returns the class of each byte, the class count and the
// class-level table.
func genByteClasses(byteTab []int, stateCount int) ([]int, int, []int, error) {
	orig, err := compressor.NewOriginalTable(byteTab, 256)
	if err != nil {
		return nil, 0, nil, err
	}
	cols := compressor.NewUniqueEntriesTable()
	err = cols.Compress(orig.Transpose())
	if err != nil {
		return nil, 0, nil, err
	}

	// uniqueToClass maps a unique column to a class; ByteClassNone for a column without transitions.
	uniqueToClass := make([]int, cols.UniqueRowCount)
	classCount := 0
	for u := 0; u < cols.UniqueRowCount; u++ {
		empty := true
		for _, next := range cols.UniqueEntries[u*stateCount : (u+1)*stateCount] {
			if next >= 0 {
				empty = false
				break
			}
		}
		if empty {
			uniqueToClass[u] = spec.ByteClassNone
			continue
		}
		uniqueToClass[u] = classCount
		classCount++
	}

	classes := make([]int, 256)
	width := classCount
	if width == 0 {
		width = 1
	}
	classTab := make([]int, stateCount*width)
	for i := range classTab {
		classTab[i] = -1
	}
	for b := 0; b < 256; b++ {
		u := cols.RowNums[b]
		c := uniqueToClass[u]
		classes[b] = c
		if c == spec.ByteClassNone {
			continue
		}
		for s := 0; s < stateCount; s++ {
			classTab[s*classCount+c] = cols.UniqueEntries[u*stateCount+s]
		}
	}

	// The tables need at least one class even when no byte has a transition.
	return classes, width, classTab, nil
}

// KindActions returns lexical actions emitting `spec.TokenFirst + action ID` for every kind. The
// kinds named in `skip` are discarded.
func KindActions[V any](s *spec.LexicalSpec, skip ...string) ([]lexer.Action[V], error) {
	actions := make([]lexer.Action[V], s.ActionCount)
	for i := range actions {
		actions[i] = lexer.Emit[V](spec.TokenFirst + i)
	}
	for _, k := range skip {
		found := false
		for i, name := range s.KindNames {
			if name != k {
				continue
			}
			actions[i] = nil
			found = true
			break
		}
		if !found {
			return nil, fmt.Errorf("unknown kind: %v", k)
		}
	}
	return actions, nil
}
