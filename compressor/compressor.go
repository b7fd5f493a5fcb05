package compressor

import (
	"encoding/binary"
	"fmt"
	"sort"
)

type OriginalTable struct {
	entries  []int
	rowCount int
	colCount int
}

func NewOriginalTable(entries []int, colCount int) (*OriginalTable, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("enries is empty")
	}
	if colCount <= 0 {
		return nil, fmt.Errorf("colCount must be >=1")
	}
	if len(entries)%colCount != 0 {
		return nil, fmt.Errorf("entries length or column count are incorrect; entries length: %v, column count: %v", len(entries), colCount)
	}

	return &OriginalTable{
		entries:  entries,
		rowCount: len(entries) / colCount,
		colCount: colCount,
	}, nil
}

func (t *OriginalTable) RowCount() int {
	return t.rowCount
}

func (t *OriginalTable) ColCount() int {
	return t.colCount
}

func (t *OriginalTable) Entry(row, col int) int {
	return t.entries[row*t.colCount+col]
}

// Transpose returns a new table whose rows are the columns of `t`.
func (t *OriginalTable) Transpose() *OriginalTable {
	entries := make([]int, len(t.entries))
	for row := 0; row < t.rowCount; row++ {
		for col := 0; col < t.colCount; col++ {
			entries[col*t.rowCount+row] = t.entries[row*t.colCount+col]
		}
	}
	return &OriginalTable{
		entries:  entries,
		rowCount: t.colCount,
		colCount: t.rowCount,
	}
}

// Compressor converts a dense table into a compact form. Lookup returns false when the entry
// is empty or the indexes are out of range.
type Compressor interface {
	Compress(orig *OriginalTable) error
	Lookup(row, col int) (int, bool)
}

var (
	_ Compressor = &UniqueEntriesTable{}
	_ Compressor = &CSRTable{}
)

// UniqueEntriesTable shares identical rows. Two rows having the same row number have the same
// entries in every column.
type UniqueEntriesTable struct {
	UniqueEntries    []int
	RowNums          []int
	UniqueRowCount   int
	OriginalRowCount int
	OriginalColCount int
}

func NewUniqueEntriesTable() *UniqueEntriesTable {
	return &UniqueEntriesTable{}
}

func (tab *UniqueEntriesTable) Lookup(row, col int) (int, bool) {
	if row < 0 || row >= tab.OriginalRowCount || col < 0 || col >= tab.OriginalColCount {
		return 0, false
	}
	return tab.UniqueEntries[tab.RowNums[row]*tab.OriginalColCount+col], true
}

func (tab *UniqueEntriesTable) Compress(orig *OriginalTable) error {
	var uniqueEntries []int
	rowNums := make([]int, orig.rowCount)
	hash2RowNum := map[string]int{}
	nextRowNum := 0
	buf := make([]byte, 0, orig.colCount*binary.MaxVarintLen64)
	b := make([]byte, binary.MaxVarintLen64)
	for row := 0; row < orig.rowCount; row++ {
		buf = buf[:0]
		for col := 0; col < orig.colCount; col++ {
			n := binary.PutVarint(b, int64(orig.entries[row*orig.colCount+col]))
			buf = append(buf, b[:n]...)
		}
		rowHash := string(buf)
		rowNum, ok := hash2RowNum[rowHash]
		if !ok {
			rowNum = nextRowNum
			nextRowNum++
			hash2RowNum[rowHash] = rowNum
			start := row * orig.colCount
			uniqueEntries = append(uniqueEntries, orig.entries[start:start+orig.colCount]...)
		}
		rowNums[row] = rowNum
	}

	tab.UniqueEntries = uniqueEntries
	tab.RowNums = rowNums
	tab.UniqueRowCount = nextRowNum
	tab.OriginalRowCount = orig.rowCount
	tab.OriginalColCount = orig.colCount

	return nil
}

// CSRTable is a sparse table in the compressed sparse row format.
//
// IA has one element per row plus one; the entries of row `r` are at [IA[r], IA[r+1]) in JA and A.
// JA holds the column indexes in ascending order within a row, and A holds the payloads.
// Lookup costs O(log(row width)).
type CSRTable struct {
	EmptyValue int
	IA         []int
	JA         []int
	A          []int
}

func NewCSRTable(emptyValue int) *CSRTable {
	return &CSRTable{
		EmptyValue: emptyValue,
	}
}

// NewCSRTableFromArrays wraps arrays that were already generated. The arrays are not copied and
// must not be modified afterwards.
func NewCSRTableFromArrays(ia, ja, a []int) (*CSRTable, error) {
	tab := &CSRTable{
		IA: ia,
		JA: ja,
		A:  a,
	}
	err := tab.Validate()
	if err != nil {
		return nil, err
	}
	return tab, nil
}

func (tab *CSRTable) Lookup(row, col int) (int, bool) {
	if row < 0 || row+1 >= len(tab.IA) {
		return tab.EmptyValue, false
	}
	lo := tab.IA[row]
	hi := tab.IA[row+1]
	i := lo + sort.SearchInts(tab.JA[lo:hi], col)
	if i >= hi || tab.JA[i] != col {
		return tab.EmptyValue, false
	}
	return tab.A[i], true
}

// Row returns the columns and the payloads of row `row`. The returned slices share memory with
// the table and callers must not modify them.
func (tab *CSRTable) Row(row int) ([]int, []int) {
	if row < 0 || row+1 >= len(tab.IA) {
		return nil, nil
	}
	lo := tab.IA[row]
	hi := tab.IA[row+1]
	return tab.JA[lo:hi], tab.A[lo:hi]
}

func (tab *CSRTable) RowCount() int {
	if len(tab.IA) == 0 {
		return 0
	}
	return len(tab.IA) - 1
}

func (tab *CSRTable) Compress(orig *OriginalTable) error {
	ia := make([]int, 0, orig.rowCount+1)
	var ja []int
	var a []int
	ia = append(ia, 0)
	for row := 0; row < orig.rowCount; row++ {
		for col := 0; col < orig.colCount; col++ {
			v := orig.entries[row*orig.colCount+col]
			if v == tab.EmptyValue {
				continue
			}
			ja = append(ja, col)
			a = append(a, v)
		}
		ia = append(ia, len(ja))
	}

	tab.IA = ia
	tab.JA = ja
	tab.A = a

	return nil
}

// Validate checks the shape of the arrays. Duplicate columns within a row are reported because
// the binary search cannot tell which payload is the intended one.
func (tab *CSRTable) Validate() error {
	if len(tab.IA) == 0 {
		return fmt.Errorf("IA must have at least one element")
	}
	if tab.IA[0] != 0 {
		return fmt.Errorf("IA must start with 0; got: %v", tab.IA[0])
	}
	if len(tab.JA) != len(tab.A) {
		return fmt.Errorf("JA and A must have the same length; JA: %v, A: %v", len(tab.JA), len(tab.A))
	}
	if last := tab.IA[len(tab.IA)-1]; last != len(tab.JA) {
		return fmt.Errorf("the last element of IA must be the length of JA; want: %v, got: %v", len(tab.JA), last)
	}
	for row := 0; row < len(tab.IA)-1; row++ {
		lo := tab.IA[row]
		hi := tab.IA[row+1]
		if lo > hi {
			return fmt.Errorf("IA must be non-decreasing; row: %v, start: %v, end: %v", row, lo, hi)
		}
		for i := lo; i < hi; i++ {
			if tab.JA[i] < 0 {
				return fmt.Errorf("a column index must be non-negative; row: %v, column: %v", row, tab.JA[i])
			}
			if i > lo && tab.JA[i-1] >= tab.JA[i] {
				return fmt.Errorf("column indexes must be strictly ascending within a row; row: %v, columns: %v, %v", row, tab.JA[i-1], tab.JA[i])
			}
		}
	}
	return nil
}
