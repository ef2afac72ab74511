package attrib

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/imqs/dba/dtype"
)

// fnv32a hashes small byte payloads with the 32-bit FNV-1a algorithm, the
// faster of the two hashes the source library picks between.
func fnv32a(data []byte) uint32 {
	const prime = 16777619
	h := uint32(2166136261)
	for _, b := range data {
		h ^= uint32(b)
		h *= prime
	}
	return h
}

// GetHashCode returns a 32-bit hash of a's value, consistent with Compare
// for Attribs of the same type: two such Attribs that Compare equal always
// hash equal (+0 and -0 included). Attribs of different types that Compare
// equal after conversion (Int32 7 and Double 7.0, say) generally hash
// differently.
//
// Grounded on original_source/lib/dba/Attrib.cpp (Attrib::GetHashCode),
// which picks FNV-1a for payloads of 8 bytes or less and XXH32 above that;
// here the payload path uses cespare/xxhash (the 64-bit XXH variant,
// folded to 32 bits) since that is the xxhash package the corpus already
// imports.
func (a *Attrib) GetHashCode() uint32 {
	switch a.typ {
	case dtype.Null:
		return 0
	case dtype.Bool:
		if a.b {
			return 1
		}
		return 0
	case dtype.Int16:
		return uint32(a.i16)
	case dtype.Int32:
		return uint32(a.i32)
	case dtype.Int64:
		return uint32(a.i64) ^ uint32(uint64(a.i64)>>32)
	case dtype.Float:
		if a.f32 == 0 {
			return 0
		}
		return math.Float32bits(a.f32)
	case dtype.Double:
		if a.f64 == 0 {
			return 0
		}
		bits := math.Float64bits(a.f64)
		return uint32(bits) ^ uint32(bits>>32)
	case dtype.Guid:
		return fnv32a(a.guid.Bytes())
	case dtype.Text, dtype.JSONB:
		return hashBytes([]byte(a.text))
	case dtype.Bin:
		return hashBytes(a.bin)
	case dtype.Date:
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, uint64(a.date.UnixNano()))
		return fnv32a(buf)
	default:
		return 0
	}
}

func hashBytes(b []byte) uint32 {
	if len(b) <= 8 {
		return fnv32a(b)
	}
	sum := xxhash.Sum64(b)
	return uint32(sum) ^ uint32(sum>>32)
}
