package buildcache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"sort"

	"github.com/joshuapare/dbckit/dbc/patch"
)

// Fingerprint identifies one table pass: identical inputs produce identical
// output bytes, so the fingerprint can key the cached result.
type Fingerprint [sha256.Size]byte

func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// Inputs is everything that influences the output of a table pass.
type Inputs struct {
	Version            string
	Name               string // labels cached diagnostics
	ReserveEmptyString bool
	Table              []byte
	Names              patch.Names
	Plan               *patch.Plan
}

// Compute hashes in. Every variable-length field is length-prefixed so
// distinct inputs cannot concatenate to the same stream.
func Compute(in Inputs) Fingerprint {
	h := sha256.New()
	writeString(h, in.Version)
	writeString(h, in.Name)
	writeBool(h, in.ReserveEmptyString)
	writeBytes(h, in.Table)

	names := make([]string, 0, len(in.Names))
	for n := range in.Names {
		names = append(names, n)
	}
	sort.Strings(names)
	writeUint(h, uint64(len(names)))
	for _, n := range names {
		writeString(h, n)
		writeUint(h, uint64(in.Names[n]))
	}

	var ops []patch.Op
	if in.Plan != nil {
		ops = in.Plan.Ops
	}
	writeUint(h, uint64(len(ops)))
	for _, op := range ops {
		writeUint(h, uint64(op.Type))
		writeBool(h, op.HasKey)
		writeUint(h, uint64(op.Key))
		writeString(h, op.KeyColumn.String())
		writeUint(h, uint64(len(op.Assignments)))
		for _, a := range op.Assignments {
			writeString(h, a.Field.String())
			writeUint(h, uint64(a.Value.Kind()))
			writeString(h, a.Value.String())
		}
		// Source only labels diagnostics, but those are cached too.
		writeString(h, op.Source)
	}

	var f Fingerprint
	h.Sum(f[:0])
	return f
}

func writeUint(h hash.Hash, v uint64) {
	var b [binary.MaxVarintLen64]byte
	h.Write(b[:binary.PutUvarint(b[:], v)])
}

func writeBool(h hash.Hash, v bool) {
	if v {
		writeUint(h, 1)
		return
	}
	writeUint(h, 0)
}

func writeBytes(h hash.Hash, b []byte) {
	writeUint(h, uint64(len(b)))
	h.Write(b)
}

func writeString(h hash.Hash, s string) {
	writeUint(h, uint64(len(s)))
	h.Write([]byte(s))
}
