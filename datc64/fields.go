package datc64

import (
	"encoding/binary"
	"math"

	"github.com/mogaika/ggpkassets/utils"
	"github.com/pkg/errors"
)

const arrayHeaderSize = 16

// rowNullPattern is the 8-byte sentinel 0xFEFEFEFEFEFEFEFE used
// alongside -1 to mark a null row reference.
const rowNullPattern = uint64(0xFEFEFEFEFEFEFEFE)

func fixedSize(t ColumnType) int {
	switch t {
	case TypeBool:
		return 1
	case TypeI16, TypeU16:
		return 2
	case TypeI32, TypeU32, TypeEnumRow:
		return 4
	case TypeF32:
		return 4
	case TypeString, TypeRow:
		return 8
	case TypeForeignRow:
		return 16
	case TypeArray:
		return arrayHeaderSize
	default:
		return 0
	}
}

// nominalSize is how many fixed-region bytes a column occupies,
// array flag included; used both for the schema-computed row size
// and to advance the cursor past a column whose decode failed.
func nominalSize(col ColumnDef) int {
	if col.Array {
		return arrayHeaderSize
	}
	return fixedSize(col.Type)
}

func need(data []byte, pos, size int) error {
	if pos < 0 || size < 0 || pos+size > len(data) {
		return errors.Errorf("read of %d bytes at %d runs past end of buffer (len %d)", size, pos, len(data))
	}
	return nil
}

// decodeField dispatches on the column's array flag, then its
// element type.
func decodeField(data []byte, pos int, col ColumnDef, variableRegionStart int) (Value, int, error) {
	if col.Array {
		return decodeArrayColumn(data, pos, col.Type, variableRegionStart)
	}
	return decodeScalar(data, pos, col.Type, variableRegionStart)
}

// decodeScalar decodes a single fixed-region value of type t. pos
// indexes into data directly: for top-level columns this is the row's
// cursor, for array elements it is an absolute position inside the
// variable region.
func decodeScalar(data []byte, pos int, t ColumnType, variableRegionStart int) (Value, int, error) {
	switch t {
	case TypeBool:
		if err := need(data, pos, 1); err != nil {
			return Value{}, 0, err
		}
		return BoolValue(data[pos] != 0), 1, nil

	case TypeI16:
		if err := need(data, pos, 2); err != nil {
			return Value{}, 0, err
		}
		return IntValue(int64(int16(binary.LittleEndian.Uint16(data[pos:])))), 2, nil

	case TypeU16:
		if err := need(data, pos, 2); err != nil {
			return Value{}, 0, err
		}
		return IntValue(int64(binary.LittleEndian.Uint16(data[pos:]))), 2, nil

	case TypeI32:
		if err := need(data, pos, 4); err != nil {
			return Value{}, 0, err
		}
		return IntValue(int64(int32(binary.LittleEndian.Uint32(data[pos:])))), 4, nil

	case TypeU32:
		if err := need(data, pos, 4); err != nil {
			return Value{}, 0, err
		}
		return IntValue(int64(binary.LittleEndian.Uint32(data[pos:]))), 4, nil

	case TypeEnumRow:
		if err := need(data, pos, 4); err != nil {
			return Value{}, 0, err
		}
		return EnumValue(int64(binary.LittleEndian.Uint32(data[pos:]))), 4, nil

	case TypeF32:
		if err := need(data, pos, 4); err != nil {
			return Value{}, 0, err
		}
		bits := binary.LittleEndian.Uint32(data[pos:])
		return FloatValue(float64(math.Float32frombits(bits))), 4, nil

	case TypeString:
		if err := need(data, pos, 8); err != nil {
			return Value{}, 0, err
		}
		offset := int64(binary.LittleEndian.Uint64(data[pos:]))
		if offset < 0 || variableRegionStart < 0 {
			return Null(), 8, nil
		}
		abs := variableRegionStart + int(offset)
		if abs < 0 || abs >= len(data) {
			return Null(), 8, nil
		}
		return StringValue(utils.UTF16LEString(data[abs:])), 8, nil

	case TypeRow:
		if err := need(data, pos, 8); err != nil {
			return Value{}, 0, err
		}
		id := int64(binary.LittleEndian.Uint64(data[pos:]))
		if id == -1 || uint64(id) == rowNullPattern {
			return Null(), 8, nil
		}
		return RowValue(id), 8, nil

	case TypeForeignRow:
		if err := need(data, pos, 16); err != nil {
			return Value{}, 0, err
		}
		id := int64(binary.LittleEndian.Uint64(data[pos:]))
		if id == -1 || id == -2 || uint64(id) == rowNullPattern {
			return Null(), 16, nil
		}
		return ForeignRowValue(id), 16, nil

	case TypeArray:
		// A column whose own type (not its array flag) is "array" is
		// a schema error: decode as an empty list, still consuming
		// the fixed-region space an array header would occupy.
		if err := need(data, pos, arrayHeaderSize); err != nil {
			return Value{}, 0, err
		}
		return ArrayValue(nil), arrayHeaderSize, nil

	default:
		return Value{}, 0, errors.Errorf("unrecognised column type %q", t)
	}
}

// decodeArrayColumn decodes the (length, offset) array header at pos
// and, when valid, the elementType-encoded element sequence it
// addresses in the variable region.
func decodeArrayColumn(data []byte, pos int, elementType ColumnType, variableRegionStart int) (Value, int, error) {
	if err := need(data, pos, arrayHeaderSize); err != nil {
		return Value{}, 0, err
	}
	length := int64(binary.LittleEndian.Uint64(data[pos:]))
	offset := int64(binary.LittleEndian.Uint64(data[pos+8:]))

	if elementType == TypeArray {
		return ArrayValue(nil), arrayHeaderSize, nil
	}
	if length < 0 || length > 100000 || offset < 0 || variableRegionStart < 0 {
		return ArrayValue(nil), arrayHeaderSize, nil
	}

	elemSize := fixedSize(elementType)
	if elemSize == 0 {
		return ArrayValue(nil), arrayHeaderSize, nil
	}

	items := make([]Value, 0, length)
	cursor := variableRegionStart + int(offset)
	for i := int64(0); i < length; i++ {
		if cursor+elemSize > len(data) || cursor < 0 {
			break // halt on overrun; return the partial list
		}
		v, consumed, err := decodeScalar(data, cursor, elementType, variableRegionStart)
		if err != nil {
			break
		}
		items = append(items, v)
		cursor += consumed
	}
	return ArrayValue(items), arrayHeaderSize, nil
}
