// Package strpool indexes and extends the string block of a WDBC table.
//
// The block is a run of NUL-terminated strings. Records refer to strings by
// byte offset into the block, so existing content never moves: new strings
// are staged and appended after the original bytes in the order they were
// first interned.
package strpool

import (
	"bytes"
	"math"

	"github.com/joshuapare/dbckit/internal/format"
)

// Index maps string content to its first offset in a block.
type Index map[string]uint32

// BuildIndex scans pool left to right. Every segment that is followed by a
// terminator is recorded at its first offset; an unterminated tail is
// ignored. The empty string is always present: it maps to the first empty
// segment when there is one, otherwise to offset 0.
func BuildIndex(pool []byte) Index {
	idx := make(Index)
	off := 0
	for off < len(pool) {
		n := bytes.IndexByte(pool[off:], format.StringTerminator)
		if n < 0 {
			break
		}
		s := string(pool[off : off+n])
		if _, seen := idx[s]; !seen {
			idx[s] = uint32(off)
		}
		off += n + 1
	}
	if _, ok := idx[""]; !ok {
		idx[""] = format.EmptyStringOffset
	}
	return idx
}

// Options tunes pool behaviour.
type Options struct {
	// ReserveEmptyString seeds an empty block with a single NUL before the
	// first string is interned, so offset 0 keeps meaning "". When false an
	// empty block hands out offset 0 to the first interned string, which then
	// shares that offset with the empty string.
	ReserveEmptyString bool
}

// DefaultOptions returns the recommended options.
func DefaultOptions() Options {
	return Options{ReserveEmptyString: true}
}

// Pool is a string block under modification. It is not safe for concurrent
// use; each table pass owns its own Pool.
type Pool struct {
	base   []byte
	index  Index
	staged []string
	next   uint64 // offset the next staged string will receive
	seeded bool
	opts   Options
}

// New builds a pool over base. base is not modified or retained beyond
// the lifetime of the pool.
func New(base []byte, opts Options) *Pool {
	return &Pool{
		base:  base,
		index: BuildIndex(base),
		next:  uint64(len(base)),
		opts:  opts,
	}
}

// Lookup returns the offset of s if it is already in the pool.
func (p *Pool) Lookup(s string) (uint32, bool) {
	off, ok := p.index[s]
	return off, ok
}

// Intern returns the offset of s, staging it for append when it is not yet
// present. The second result reports whether s was newly staged. Interning
// fails only when the resulting block would not be addressable with a u32.
func (p *Pool) Intern(s string) (uint32, bool, error) {
	// "" is always indexed, but on an empty block that entry is only
	// meaningful once the reserved NUL exists.
	if len(p.base) == 0 && !p.seeded && p.opts.ReserveEmptyString && s == "" {
		p.seed()
		return format.EmptyStringOffset, false, nil
	}
	if off, ok := p.index[s]; ok {
		return off, false, nil
	}
	if len(p.base) == 0 && !p.seeded && p.opts.ReserveEmptyString {
		p.seed()
	}
	end := p.next + uint64(len(s)) + 1
	if end > math.MaxUint32 {
		return 0, false, ErrPoolFull
	}
	off := uint32(p.next)
	p.staged = append(p.staged, s)
	p.index[s] = off
	p.next = end
	return off, true, nil
}

func (p *Pool) seed() {
	p.seeded = true
	p.next = 1
}

// Staged returns the strings appended so far, in staging order.
func (p *Pool) Staged() []string {
	return p.staged
}

// Modified reports whether Bytes differs from the original block.
func (p *Pool) Modified() bool {
	return p.seeded || len(p.staged) > 0
}

// Bytes returns the original block followed by every staged string and its
// terminator. When nothing was interned the original block is returned as is.
func (p *Pool) Bytes() []byte {
	if !p.Modified() {
		return p.base
	}
	out := make([]byte, 0, p.next)
	out = append(out, p.base...)
	if p.seeded {
		out = append(out, format.StringTerminator)
	}
	for _, s := range p.staged {
		out = append(out, s...)
		out = append(out, format.StringTerminator)
	}
	return out
}
