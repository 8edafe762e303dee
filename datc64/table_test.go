package datc64

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func u32b(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func i64b(v int64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(v))
	return b
}

func magicBytes() []byte {
	b := make([]byte, 8)
	for i := range b {
		b[i] = 0xBB
	}
	return b
}

func utf16term(s string) []byte {
	out := make([]byte, 0, len(s)*2+4)
	for _, r := range s {
		out = append(out, byte(r), 0)
	}
	return append(out, 0, 0, 0, 0)
}

func strPtr(s string) *string { return &s }

func TestDecodeBufferRowsAndStrings(t *testing.T) {
	// two columns: health (u32), name (string); row size = 12.
	var data []byte
	data = append(data, u32b(2)...) // row_count

	data = append(data, u32b(100)...)  // row0.health
	data = append(data, i64b(8)...)    // row0.name -> rel offset 8 (abs 36)
	data = append(data, u32b(200)...)  // row1.health
	data = append(data, i64b(-1)...)   // row1.name -> null

	require.Equal(t, 28, len(data))
	data = append(data, magicBytes()...) // magic at offset 28
	require.Equal(t, 36, len(data))
	data = append(data, utf16term("Foo")...)

	def := &TableDef{
		Name: "stats",
		Columns: []ColumnDef{
			{Name: strPtr("health"), Type: TypeU32},
			{Name: strPtr("name"), Type: TypeString},
		},
	}

	table, err := DecodeBuffer(data, def)
	require.NoError(t, err)
	require.Equal(t, 2, table.RowCount)
	require.Empty(t, table.Warning)

	require.Equal(t, IntValue(100), table.Rows[0]["health"])
	require.Equal(t, StringValue("Foo"), table.Rows[0]["name"])
	require.Equal(t, IntValue(200), table.Rows[1]["health"])
	require.Equal(t, Null(), table.Rows[1]["name"])
}

func TestDecodeBufferRowNullSentinel(t *testing.T) {
	var data []byte
	data = append(data, u32b(1)...)
	data = append(data, i64b(-1)...) // row column, null via -1
	data = append(data, magicBytes()...)

	def := &TableDef{
		Name:    "links",
		Columns: []ColumnDef{{Name: strPtr("parent"), Type: TypeRow}},
	}

	table, err := DecodeBuffer(data, def)
	require.NoError(t, err)
	require.Equal(t, Null(), table.Rows[0]["parent"])
}

func TestDecodeBufferArrayColumn(t *testing.T) {
	var data []byte
	data = append(data, u32b(1)...)       // row_count
	data = append(data, i64b(2)...)       // array length
	data = append(data, i64b(8)...)       // array offset, rel to magic (abs 28)
	require.Equal(t, 20, len(data))
	data = append(data, magicBytes()...) // magic at offset 20
	require.Equal(t, 28, len(data))

	// two string elements (8-byte offsets each) at abs 28 and 36
	data = append(data, i64b(24)...) // element0 -> abs 44
	data = append(data, i64b(32)...) // element1 -> abs 52
	require.Equal(t, 44, len(data))

	data = append(data, utf16term("Ab")...) // [44,52)
	data = append(data, utf16term("Cd")...) // [52,60)

	def := &TableDef{
		Name:    "tagged",
		Columns: []ColumnDef{{Name: strPtr("tags"), Type: TypeString, Array: true}},
	}

	table, err := DecodeBuffer(data, def)
	require.NoError(t, err)
	v := table.Rows[0]["tags"]
	require.Equal(t, KindArray, v.Kind)
	require.Len(t, v.Array, 2)
	require.Equal(t, StringValue("Ab"), v.Array[0])
	require.Equal(t, StringValue("Cd"), v.Array[1])
}

func TestDecodeBufferMissingMagicFallsBackToSchema(t *testing.T) {
	var data []byte
	data = append(data, u32b(1)...)
	data = append(data, u32b(42)...) // health, schema row size 4, no magic anywhere

	def := &TableDef{
		Name:    "noMagic",
		Columns: []ColumnDef{{Name: strPtr("health"), Type: TypeU32}},
	}

	table, err := DecodeBuffer(data, def)
	require.NoError(t, err)
	require.Contains(t, table.Warning, "missing variable data magic")
	require.Equal(t, IntValue(42), table.Rows[0]["health"])
}

func TestDecodeBufferFatalConditions(t *testing.T) {
	def := &TableDef{Name: "x"}

	_, err := DecodeBuffer(nil, def)
	require.Error(t, err)

	_, err = DecodeBuffer([]byte{1, 2}, def)
	require.Error(t, err)
}

func TestTableNameFromFile(t *testing.T) {
	require.Equal(t, "Q#MonsterVarieties", TableNameFromFile("9Q#MonsterVarieties.datc64"))
	require.Equal(t, "Mods", TableNameFromFile("Mods.datc64"))
}

func TestSchemaLookupValidFor(t *testing.T) {
	s := &Schema{Tables: []TableDef{
		{Name: "MonsterVarieties", ValidFor: 0b10},
		{Name: "LegacyOnly", ValidFor: 0b01},
	}}
	s.index()

	_, ok := s.Lookup("monstervarieties", 1)
	require.True(t, ok)

	_, ok = s.Lookup("legacyonly", 1)
	require.False(t, ok)
}
