package attrib

import "github.com/google/uuid"

// Guid is a 128-bit identifier, backed by google/uuid the way dolthub's and
// syssam's stacks both do for the same concern. Grounded on
// original_source/lib/dba/Guid.h, which is a hand-rolled 16-byte struct;
// here we adopt the ecosystem's UUID type instead of reimplementing it.
type Guid struct {
	id uuid.UUID
}

func NewGuid() Guid { return Guid{id: uuid.New()} }

func GuidFromBytes(b []byte) (Guid, error) {
	id, err := uuid.FromBytes(b)
	return Guid{id: id}, err
}

func GuidFromString(s string) (Guid, error) {
	id, err := uuid.Parse(s)
	return Guid{id: id}, err
}

func (g Guid) Bytes() []byte { return g.id[:] }
func (g Guid) String() string {
	return g.id.String()
}
func (g Guid) IsNull() bool { return g.id == uuid.Nil }
func (g Guid) Compare(o Guid) int {
	for i := range g.id {
		if g.id[i] != o.id[i] {
			if g.id[i] < o.id[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
