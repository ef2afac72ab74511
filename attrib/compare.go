package attrib

import (
	"bytes"
	"strings"

	"github.com/imqs/dba/dtype"
)

func sign(x int) int {
	if x < 0 {
		return -1
	}
	if x > 0 {
		return 1
	}
	return 0
}

func compareInt64(a, b int64) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
func compareFloat64(a, b float64) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// Compare returns +1 if a > b, 0 if equal, -1 if a < b. Null sorts before
// everything else. If the two Attribs hold different types, b is converted
// to a's type before comparing (grounded on Attrib::Compare).
func (a *Attrib) Compare(b *Attrib) int {
	if a.IsNull() && !b.IsNull() {
		return -1
	}
	if !a.IsNull() && b.IsNull() {
		return 1
	}
	if a.IsNull() {
		return 0
	}

	if a.typ != b.typ {
		converted, err := b.CopyTo(a.typ)
		if err != nil {
			// Types that cannot be reconciled compare by their textual form,
			// so Compare always returns a total order.
			return strings.Compare(a.ToText(), b.ToText())
		}
		return a.Compare(&converted)
	}

	switch a.typ {
	case dtype.Bool:
		return sign(boolToInt(a.b) - boolToInt(b.b))
	case dtype.Int16:
		return compareInt64(int64(a.i16), int64(b.i16))
	case dtype.Int32:
		return compareInt64(int64(a.i32), int64(b.i32))
	case dtype.Int64:
		return compareInt64(a.i64, b.i64)
	case dtype.Float:
		return compareFloat64(float64(a.f32), float64(b.f32))
	case dtype.Double:
		return compareFloat64(a.f64, b.f64)
	case dtype.Text, dtype.JSONB:
		return strings.Compare(a.text, b.text)
	case dtype.Guid:
		return a.guid.Compare(b.guid)
	case dtype.Date:
		return compareInt64(a.date.UnixNano(), b.date.UnixNano())
	case dtype.Bin:
		return bytes.Compare(a.bin, b.bin)
	default:
		return 0
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return -1
}

// CompareAsNum compares a and b numerically: if either side isn't already a
// numeric type, it is coerced through ToDouble first. Grounded on
// Attrib::CompareAsNum, used by dialect code that needs to order a mix of
// numeric columns and numeric-looking text.
func (a *Attrib) CompareAsNum(b *Attrib) int {
	if a.typ == b.typ && a.IsNumeric() {
		return a.Compare(b)
	}
	return compareFloat64(a.ToDouble(), b.ToDouble())
}

func (a *Attrib) Equal(b *Attrib) bool { return a.Compare(b) == 0 }
func (a *Attrib) Less(b *Attrib) bool  { return a.Compare(b) < 0 }
