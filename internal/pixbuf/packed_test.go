package pixbuf

import (
	"errors"
	"testing"

	"github.com/AnyUserName/pngpix/internal/pixel"
)

func TestPackedRowResizeDefaults(t *testing.T) {
	for _, n := range []int{0, 1, 7, 8, 9, 33} {
		checkDefaults[pixel.Gray1](t, n)
		checkDefaults[pixel.Gray2](t, n)
		checkDefaults[pixel.Index4](t, n)
	}
}

func checkDefaults[P pixel.Packed](t *testing.T, n int) {
	t.Helper()
	var p P
	r := NewPackedRow[P](n)
	if r.Len() != n {
		t.Fatalf("%s: len got %d, want %d", p.Format(), r.Len(), n)
	}
	if got, want := len(r.Raw()), p.Format().RowBytes(n); got != want {
		t.Errorf("%s n=%d: storage got %d bytes, want %d", p.Format(), n, got, want)
	}
	for i := 0; i < n; i++ {
		v, err := r.Pixel(i)
		if err != nil {
			t.Fatalf("%s: pixel %d: %v", p.Format(), i, err)
		}
		if v != 0 {
			t.Errorf("%s: pixel %d got %d, want 0", p.Format(), i, v)
		}
	}
}

func TestPackedRowRoundTripIsolation(t *testing.T) {
	roundTrip[pixel.Gray1](t, 13)
	roundTrip[pixel.Gray2](t, 11)
	roundTrip[pixel.Gray4](t, 9)
	roundTrip[pixel.Index2](t, 6)
}

func roundTrip[P pixel.Packed](t *testing.T, n int) {
	t.Helper()
	var p P
	max := int(pixel.BitMask[P]())
	for i := 0; i < n; i++ {
		for v := 0; v <= max; v++ {
			r := NewPackedRow[P](n)
			// Fill siblings with a pattern so a sloppy mask would show.
			for j := 0; j < n; j++ {
				r.Put(j, P((j*3+1)&max))
			}
			if err := r.SetPixel(i, P(v)); err != nil {
				t.Fatalf("%s: set %d: %v", p.Format(), i, err)
			}
			if got := r.Get(i); int(got) != v {
				t.Errorf("%s: pixel %d got %d, want %d", p.Format(), i, got, v)
			}
			for j := 0; j < n; j++ {
				if j == i {
					continue
				}
				if got, want := r.Get(j), P((j*3+1)&max); got != want {
					t.Errorf("%s: write to %d changed %d: got %d, want %d", p.Format(), i, j, got, want)
				}
			}
		}
	}
}

func TestPackedRowBitLayout(t *testing.T) {
	r := NewPackedRow[pixel.Gray1](8)
	r.Put(0, 1)
	if got := r.Raw()[0]; got != 0b10000000 {
		t.Errorf("index 0: got %08b, want 10000000", got)
	}

	r = NewPackedRow[pixel.Gray1](8)
	r.Put(7, 1)
	if got := r.Raw()[0]; got != 0b00000001 {
		t.Errorf("index 7: got %08b, want 00000001", got)
	}

	r2 := NewPackedRow[pixel.Gray2](4)
	r2.Put(1, 3)
	if got := r2.Raw()[0]; got != 0b00110000 {
		t.Errorf("gray2 index 1: got %08b, want 00110000", got)
	}

	r4 := NewPackedRow[pixel.Gray4](3)
	r4.Put(0, 0xa)
	r4.Put(1, 0x5)
	r4.Put(2, 0xf)
	raw := r4.Raw()
	if raw[0] != 0xa5 || raw[1] != 0xf0 {
		t.Errorf("gray4 bytes: got %x, want a5f0", raw)
	}
}

func TestPackedRowSetMasksValue(t *testing.T) {
	r := NewPackedRow[pixel.Gray2](4)
	r.Put(0, 3)
	r.Put(2, 3)
	r.Put(1, 0xff) // only the low two bits are kept
	if got := r.Raw()[0]; got != 0b11111100 {
		t.Errorf("got %08b, want 11111100", got)
	}
}

func TestPackedRowOutOfRange(t *testing.T) {
	r := NewPackedRow[pixel.Gray1](0)
	if len(r.Raw()) != 0 {
		t.Errorf("empty row storage: got %d bytes", len(r.Raw()))
	}
	if _, err := r.At(0); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("At(0) on empty row: got %v, want ErrOutOfRange", err)
	}

	r.Resize(9)
	if _, err := r.At(9); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("At(9): got %v, want ErrOutOfRange", err)
	}
	if _, err := r.At(-1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("At(-1): got %v, want ErrOutOfRange", err)
	}
	if err := r.SetPixel(9, 1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("SetPixel(9): got %v, want ErrOutOfRange", err)
	}
}

func TestPackedRowResizeDiscards(t *testing.T) {
	r := NewPackedRow[pixel.Gray4](4)
	r.Put(0, 7)
	r.Resize(5)
	if r.Len() != 5 || len(r.Raw()) != 3 {
		t.Fatalf("resize: len %d, storage %d", r.Len(), len(r.Raw()))
	}
	if got := r.Get(0); got != 0 {
		t.Errorf("pixel after resize: got %d, want 0", got)
	}
}

func TestProxyCopyFrom(t *testing.T) {
	r := NewPackedRow[pixel.Index4](4)
	r.Put(3, 9)
	dst, _ := r.At(0)
	src, _ := r.At(3)
	dst.CopyFrom(src)
	if got := r.Get(0); got != 9 {
		t.Errorf("copied pixel: got %d, want 9", got)
	}
	if got := r.Get(3); got != 9 {
		t.Errorf("source pixel: got %d, want 9", got)
	}
}
