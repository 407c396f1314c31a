package profile

import (
	"testing"

	"github.com/AnyUserName/pngpix/internal/pixel"
)

func TestGetFallback(t *testing.T) {
	p := Get("nope")
	if p.Name != "nope" {
		t.Errorf("name: got %q, want nope", p.Name)
	}
	if p.Target != pixel.FormatRGBA8 {
		t.Errorf("target: got %s, want rgba8", p.Target)
	}
	if _, ok := Lookup("nope"); ok {
		t.Error("Lookup found unknown profile")
	}
}

func TestNamesSorted(t *testing.T) {
	names := Names()
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Fatalf("not sorted: %v", names)
		}
	}
	for _, n := range names {
		if p, _ := Lookup(n); p.Name != n {
			t.Errorf("profile %q has name %q", n, p.Name)
		}
	}
}

func TestTargetFormat(t *testing.T) {
	keep := Get("recompress")
	if got := keep.TargetFormat(pixel.FormatGray2); got != pixel.FormatGray2 {
		t.Errorf("recompress: got %s, want gray2", got)
	}
	if got := Get("gray").TargetFormat(pixel.FormatRGB16); got != pixel.FormatGray8 {
		t.Errorf("gray: got %s, want gray8", got)
	}
}

func TestTargetSize(t *testing.T) {
	p := Profile{Width: 640}
	tests := []struct {
		w, h         int
		wantW, wantH int
	}{
		{1280, 720, 640, 360},
		{320, 200, 320, 200},
		{6400, 5, 640, 1},
	}
	for _, tt := range tests {
		w, h := p.TargetSize(tt.w, tt.h)
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("TargetSize(%d, %d): got %dx%d, want %dx%d", tt.w, tt.h, w, h, tt.wantW, tt.wantH)
		}
	}
	if w, h := (Profile{}).TargetSize(99, 7); w != 99 || h != 7 {
		t.Errorf("no width: got %dx%d", w, h)
	}
}
