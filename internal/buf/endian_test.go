package buf

import "testing"

func TestU32LE(t *testing.T) {
	if got := U32LE([]byte{0x78, 0x56, 0x34, 0x12}); got != 0x12345678 {
		t.Fatalf("U32LE: got 0x%x want 0x12345678", got)
	}
	if got := U32LE([]byte{1, 2}); got != 0 {
		t.Fatalf("U32LE short buffer: got %d want 0", got)
	}
}
