// Package datc64 decodes the table-storage binary format: a row-count
// header, a fixed-size-row region, an 8-byte 0xBB marker, and a
// variable region holding strings and array payloads addressed by
// offset.
//
// Grounded on the teacher's pack/wad tag-dispatch registry for the
// per-column-type decode shape (a switch on the column type selecting
// the decode branch) operating on an in-memory buffer; the byte layout
// and recovery policy follow
// spec.md §4.C exactly, since no example repo in the pack decodes a
// structurally similar row-table format. JSON schema loading uses
// encoding/json, the same library the teacher uses for its own
// config and resource metadata files.
package datc64

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// ColumnType is the element type of a schema column. Values match the
// schema file's lowercase JSON strings verbatim.
type ColumnType string

const (
	TypeBool        ColumnType = "bool"
	TypeI16         ColumnType = "i16"
	TypeU16         ColumnType = "u16"
	TypeI32         ColumnType = "i32"
	TypeU32         ColumnType = "u32"
	TypeF32         ColumnType = "f32"
	TypeString      ColumnType = "string"
	TypeRow         ColumnType = "row"
	TypeForeignRow  ColumnType = "foreignrow"
	TypeEnumRow     ColumnType = "enumrow"
	TypeArray       ColumnType = "array"
)

// ColumnRef names the table and column a row/foreignrow column
// points at. Informational only; decode never dereferences it.
type ColumnRef struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

// ColumnDef describes one column of a table's fixed region.
type ColumnDef struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Array       bool       `json:"array"`
	Type        ColumnType `json:"type"`
	Unique      bool       `json:"unique"`
	Localized   bool       `json:"localized"`
	References  *ColumnRef `json:"references"`
	Until       *string    `json:"until"`
	File        *string    `json:"file"`
	Files       []string   `json:"files"`
}

// TableDef is one table's schema entry.
type TableDef struct {
	ValidFor int         `json:"validFor"`
	Name     string      `json:"name"`
	Columns  []ColumnDef `json:"columns"`
}

// Schema is the full versioned schema document.
type Schema struct {
	Version   int        `json:"version"`
	CreatedAt int64      `json:"createdAt"`
	Tables    []TableDef `json:"tables"`

	byName map[string]*TableDef
}

// LoadSchema reads and indexes a schema file.
func LoadSchema(path string) (*Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "datc64: opening schema %q", path)
	}
	defer f.Close()

	var s Schema
	if err := json.NewDecoder(f).Decode(&s); err != nil {
		return nil, errors.Wrapf(err, "datc64: parsing schema %q", path)
	}
	s.index()
	return &s, nil
}

func (s *Schema) index() {
	s.byName = make(map[string]*TableDef, len(s.Tables))
	for i := range s.Tables {
		s.byName[strings.ToLower(s.Tables[i].Name)] = &s.Tables[i]
	}
}

// Lookup finds the table definition for the derived table name,
// filtered by productBit: a table is returned only if its ValidFor
// bitmask has that bit set. tableName is matched lowercased.
func (s *Schema) Lookup(tableName string, productBit uint) (*TableDef, bool) {
	if s.byName == nil {
		s.index()
	}
	t, ok := s.byName[strings.ToLower(tableName)]
	if !ok {
		return nil, false
	}
	if t.ValidFor&(1<<productBit) == 0 {
		return nil, false
	}
	return t, true
}

// TableNameFromFile derives a table name from a .datc64 file's base
// name: leading non-alphabetic characters are stripped, and the
// .datc64 suffix (any case) is removed.
func TableNameFromFile(baseName string) string {
	name := baseName
	for _, suffix := range []string{".datc64", ".DATC64"} {
		if strings.HasSuffix(name, suffix) {
			name = strings.TrimSuffix(name, suffix)
			break
		}
	}
	i := 0
	for i < len(name) && !isAlpha(name[i]) {
		i++
	}
	return name[i:]
}

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
