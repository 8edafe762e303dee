package datc64

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

// Row is one decoded record, keyed by column name; anonymous columns
// are keyed "columnN" by position.
type Row map[string]Value

// Table is the result of decoding one .datc64 buffer.
type Table struct {
	Name     string
	RowCount int
	Rows     []Row
	Warning  string
}

// DecodeBuffer decodes data against def. Fatal conditions (empty
// buffer, buffer shorter than 4 bytes) return an error and no table.
// Recoverable problems (schema/observed row-size mismatch, missing
// variable-data magic, a bad field) are folded into Table.Warning and
// decoding proceeds with best effort, per spec.md's row-size
// reconciliation policy: the size actually observed in the buffer is
// always authoritative over the schema's.
func DecodeBuffer(data []byte, def *TableDef) (*Table, error) {
	if len(data) == 0 {
		return nil, errors.New("datc64: empty buffer")
	}
	if len(data) < 4 {
		return nil, errors.New("datc64: buffer shorter than 4 bytes")
	}

	rowCount := int(binary.LittleEndian.Uint32(data[0:4]))
	if rowCount == 0 {
		return &Table{Name: def.Name, RowCount: 0, Rows: []Row{}}, nil
	}

	schemaRowSize := computeSchemaRowSize(def.Columns)

	var (
		rowSize             int
		variableRegionStart int
		warning              string
	)
	if magicOffset, ok := findMagic(data, rowCount); ok {
		observed := (magicOffset - 4) / rowCount
		if schemaRowSize > 0 && observed != schemaRowSize {
			warning = fmt.Sprintf("schema row size %d differs from observed row size %d; using observed", schemaRowSize, observed)
		}
		rowSize = observed
		variableRegionStart = magicOffset
	} else {
		rowSize = schemaRowSize
		variableRegionStart = -1
		warning = "missing variable data magic; decoding fixed region only"
	}

	if rowSize <= 0 {
		return nil, errors.New("datc64: unable to determine row size")
	}

	if avail := (len(data) - 4) / rowSize; avail < rowCount {
		if warning != "" {
			warning += "; "
		}
		warning += fmt.Sprintf("buffer holds only %d of %d declared rows at row size %d; truncating", avail, rowCount, rowSize)
		rowCount = avail
	}

	rows := make([]Row, 0, rowCount)
	for i := 0; i < rowCount; i++ {
		rowStart := 4 + i*rowSize
		row, rowWarn := decodeRow(data, rowStart, variableRegionStart, def.Columns)
		if rowWarn != "" && warning == "" {
			warning = rowWarn
		}
		rows = append(rows, row)
	}

	return &Table{Name: def.Name, RowCount: len(rows), Rows: rows, Warning: warning}, nil
}

// decodeRow decodes every column starting at rowStart. A column that
// fails to decode is recorded as null and the cursor advances by the
// column's nominal size, so one bad field cannot desynchronise the
// columns after it; the caller hard-resets to the next row boundary
// regardless of where this function's cursor ends up.
func decodeRow(data []byte, rowStart, variableRegionStart int, columns []ColumnDef) (Row, string) {
	row := make(Row, len(columns))
	cursor := rowStart
	var warning string

	for idx, col := range columns {
		name := deriveColumnName(col, idx)
		v, consumed, err := decodeField(data, cursor, col, variableRegionStart)
		if err != nil {
			row[name] = Null()
			consumed = nominalSize(col)
			if warning == "" {
				warning = fmt.Sprintf("column %q: %v", name, err)
			}
		} else {
			row[name] = v
		}
		cursor += consumed
	}
	return row, warning
}

func deriveColumnName(col ColumnDef, idx int) string {
	if col.Name != nil && *col.Name != "" {
		return *col.Name
	}
	return fmt.Sprintf("column%d", idx)
}

func computeSchemaRowSize(columns []ColumnDef) int {
	total := 0
	for _, c := range columns {
		total += nominalSize(c)
	}
	return total
}

// findMagic scans data for the 8-byte run of 0xBB marking the start
// of the variable region, preferring the first match whose position
// evenly divides the fixed region into rowCount equal rows, and
// falling back to the first match of any kind.
func findMagic(data []byte, rowCount int) (int, bool) {
	n := len(data)
	firstAny := -1
	for pos := 4; pos+8 <= n; pos++ {
		if !isMagicAt(data, pos) {
			continue
		}
		if firstAny == -1 {
			firstAny = pos
		}
		if rowCount > 0 && (pos-4)%rowCount == 0 {
			return pos, true
		}
	}
	if firstAny != -1 {
		return firstAny, true
	}
	return 0, false
}

func isMagicAt(data []byte, pos int) bool {
	for i := 0; i < 8; i++ {
		if data[pos+i] != 0xBB {
			return false
		}
	}
	return true
}
