package codec

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/zlib"

	"github.com/AnyUserName/pngpix/internal/negotiate"
	"github.com/AnyUserName/pngpix/internal/pixel"
)

func encode(t *testing.T, hdr Header, rows [][]byte, opts ...WriterOption) []byte {
	t.Helper()
	var buf bytes.Buffer
	err := Encode(&buf, hdr, func(y int, row []byte) { copy(row, rows[y]) }, opts...)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

// patternRows fills rows with arbitrary bytes and clears the padding bits
// the writer drops.
func patternRows(hdr Header) [][]byte {
	rows := make([][]byte, hdr.Height)
	n := hdr.RowBytes()
	pad := n*8 - hdr.Width*hdr.Format.BitsPerPixel()
	for y := range rows {
		rows[y] = make([]byte, n)
		for i := range rows[y] {
			rows[y][i] = byte(y*31 + i*7 + 3)
		}
		if pad > 0 {
			rows[y][n-1] &^= byte(1<<pad - 1)
		}
	}
	return rows
}

func readAll(t *testing.T, r *Reader) [][]byte {
	t.Helper()
	var rows [][]byte
	for r.Remaining() > 0 {
		row := make([]byte, r.RowBytes())
		if err := r.ReadRow(row); err != nil {
			t.Fatalf("read row %d: %v", len(rows), err)
		}
		rows = append(rows, row)
	}
	return rows
}

func fourColors() pixel.Palette {
	return pixel.Palette{{R: 0, G: 0, B: 0}, {R: 255, G: 0, B: 0}, {R: 0, G: 255, B: 0}, {R: 0, G: 0, B: 255}}
}

func TestRoundTripStoredFormat(t *testing.T) {
	tests := []Header{
		{Width: 13, Height: 3, Format: pixel.FormatGray1},
		{Width: 7, Height: 2, Format: pixel.FormatGray2},
		{Width: 5, Height: 4, Format: pixel.FormatGray4},
		{Width: 9, Height: 3, Format: pixel.FormatGray8},
		{Width: 4, Height: 2, Format: pixel.FormatGray16},
		{Width: 6, Height: 2, Format: pixel.FormatGA8},
		{Width: 3, Height: 3, Format: pixel.FormatRGB8},
		{Width: 3, Height: 2, Format: pixel.FormatRGB16},
		{Width: 5, Height: 2, Format: pixel.FormatRGBA8},
		{Width: 2, Height: 2, Format: pixel.FormatRGBA16},
		{Width: 11, Height: 2, Format: pixel.FormatIndex2, Palette: fourColors()},
	}
	for _, hdr := range tests {
		t.Run(hdr.Format.String(), func(t *testing.T) {
			rows := patternRows(hdr)
			data := encode(t, hdr, rows)

			r, err := NewReader(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("NewReader: %v", err)
			}
			if got := r.UpdateInfo(); got != hdr.Format {
				t.Errorf("format: got %s, want %s", got, hdr.Format)
			}
			if diff := cmp.Diff(rows, readAll(t, r)); diff != "" {
				t.Errorf("rows mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWriterMatchesImagePNG(t *testing.T) {
	hdr := Header{Width: 10, Height: 1, Format: pixel.FormatGray1}
	data := encode(t, hdr, [][]byte{{0b10110000, 0b01000000}})

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	gray, ok := img.(*image.Gray)
	if !ok {
		t.Fatalf("decoded %T, want *image.Gray", img)
	}
	want := []uint8{255, 0, 255, 255, 0, 0, 0, 0, 0, 255}
	if diff := cmp.Diff(want, gray.Pix[:10]); diff != "" {
		t.Errorf("pixels mismatch (-want +got):\n%s", diff)
	}
}

func TestReadHeader(t *testing.T) {
	hdr := Header{
		Width:        11,
		Height:       2,
		Format:       pixel.FormatIndex2,
		Palette:      fourColors(),
		Transparency: []byte{0, 128},
	}
	data := encode(t, hdr, patternRows(hdr))

	got, err := ParseHeader(data)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if diff := cmp.Diff(hdr, got); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]uint8{0, 128}, got.PaletteAlpha()); diff != "" {
		t.Errorf("palette alpha mismatch (-want +got):\n%s", diff)
	}
}

func TestReadHeaderErrors(t *testing.T) {
	if _, err := ParseHeader([]byte("GIF89a..")); err == nil {
		t.Error("expected error for non-PNG signature")
	}
	bad := []byte(Signature + "\x00\x00\x00\x00IEND\xae\x42\x60\x82")
	if _, err := ParseHeader(bad); err == nil {
		t.Error("expected error when IHDR is not first")
	}
	if _, err := ParseHeader([]byte(Signature)); err == nil {
		t.Error("expected error for truncated stream")
	}
}

func TestRequestAppliesTransforms(t *testing.T) {
	tests := []struct {
		name string
		hdr  Header
		rows [][]byte
		dst  pixel.Format
		want [][]byte
	}{
		{
			name: "palette with tRNS to rgba8",
			hdr: Header{
				Width: 4, Height: 1, Format: pixel.FormatIndex4,
				Palette: fourColors(), Transparency: []byte{0, 128},
			},
			rows: [][]byte{{0x01, 0x23}},
			dst:  pixel.FormatRGBA8,
			want: [][]byte{{0, 0, 0, 0, 255, 0, 0, 128, 0, 255, 0, 255, 0, 0, 255, 255}},
		},
		{
			name: "palette to rgb8",
			hdr:  Header{Width: 2, Height: 1, Format: pixel.FormatIndex8, Palette: fourColors()},
			rows: [][]byte{{3, 1}},
			dst:  pixel.FormatRGB8,
			want: [][]byte{{0, 0, 255, 255, 0, 0}},
		},
		{
			name: "gray2 to rgb8",
			hdr:  Header{Width: 4, Height: 1, Format: pixel.FormatGray2},
			rows: [][]byte{{0b00011011}},
			dst:  pixel.FormatRGB8,
			want: [][]byte{{0, 0, 0, 85, 85, 85, 170, 170, 170, 255, 255, 255}},
		},
		{
			name: "gray1 to gray8",
			hdr:  Header{Width: 3, Height: 1, Format: pixel.FormatGray1},
			rows: [][]byte{{0b10100000}},
			dst:  pixel.FormatGray8,
			want: [][]byte{{255, 0, 255}},
		},
		{
			name: "rgb16 to gray8",
			hdr:  Header{Width: 2, Height: 1, Format: pixel.FormatRGB16},
			rows: [][]byte{{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0, 0, 0, 0, 0, 0}},
			dst:  pixel.FormatGray8,
			want: [][]byte{{255, 0}},
		},
		{
			name: "ga8 to gray8",
			hdr:  Header{Width: 2, Height: 1, Format: pixel.FormatGA8},
			rows: [][]byte{{10, 20, 30, 40}},
			dst:  pixel.FormatGray8,
			want: [][]byte{{10, 30}},
		},
		{
			name: "rgb8 to rgba16",
			hdr:  Header{Width: 1, Height: 1, Format: pixel.FormatRGB8},
			rows: [][]byte{{0x12, 0x34, 0x56}},
			dst:  pixel.FormatRGBA16,
			want: [][]byte{{0x12, 0x12, 0x34, 0x34, 0x56, 0x56, 0xff, 0xff}},
		},
		{
			name: "gray8 to ga8 filler",
			hdr:  Header{Width: 2, Height: 1, Format: pixel.FormatGray8},
			rows: [][]byte{{7, 9}},
			dst:  pixel.FormatGA8,
			want: [][]byte{{7, 255, 9, 255}},
		},
		{
			name: "index1 unpacked",
			hdr:  Header{Width: 3, Height: 1, Format: pixel.FormatIndex1, Palette: fourColors()[:2]},
			rows: [][]byte{{0b01000000}},
			dst:  pixel.FormatIndex8,
			want: [][]byte{{0, 1, 0}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewReader(bytes.NewReader(encode(t, tt.hdr, tt.rows)))
			if err != nil {
				t.Fatalf("NewReader: %v", err)
			}
			plan, err := negotiate.Negotiate(r.Descriptor(), tt.dst, r.Capabilities())
			if err != nil {
				t.Fatalf("Negotiate: %v", err)
			}
			if err := plan.Apply(r); err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if got := r.UpdateInfo(); got != tt.dst {
				t.Fatalf("UpdateInfo: got %s, want %s", got, tt.dst)
			}
			if diff := cmp.Diff(tt.want, readAll(t, r)); diff != "" {
				t.Errorf("rows mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRequestOrderDoesNotMatter(t *testing.T) {
	hdr := Header{Width: 2, Height: 1, Format: pixel.FormatGray4}
	data := encode(t, hdr, [][]byte{{0xf5}})

	read := func(steps ...negotiate.StepKind) [][]byte {
		r, err := NewReader(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("NewReader: %v", err)
		}
		for _, k := range steps {
			if err := r.Request(negotiate.Step{Kind: k, Filler: 0xff}); err != nil {
				t.Fatalf("Request %s: %v", k, err)
			}
		}
		return readAll(t, r)
	}

	a := read(negotiate.StepAddAlpha, negotiate.StepGrayToRGB, negotiate.StepGrayExpand)
	b := read(negotiate.StepGrayExpand, negotiate.StepGrayToRGB, negotiate.StepAddAlpha)
	want := [][]byte{{255, 255, 255, 255, 85, 85, 85, 255}}
	if diff := cmp.Diff(want, a); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("request order changed output (-first +second):\n%s", diff)
	}
}

func TestRequestRefused(t *testing.T) {
	hdr := Header{Width: 1, Height: 1, Format: pixel.FormatRGB16}
	data := encode(t, hdr, [][]byte{{0, 0, 0, 0, 0, 0}})

	r, err := NewReader(bytes.NewReader(data), WithCapabilities(negotiate.AllCapabilities&^negotiate.Strip16))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	err = r.Request(negotiate.Step{Kind: negotiate.StepStrip16})
	if !errors.Is(err, ErrTransformUnavailable) {
		t.Errorf("Request: got %v, want ErrTransformUnavailable", err)
	}
	if got := r.UpdateInfo(); got != pixel.FormatRGB16 {
		t.Errorf("UpdateInfo after refusal: got %s, want rgb16", got)
	}

	row := make([]byte, r.RowBytes())
	if err := r.ReadRow(row); err != nil {
		t.Fatalf("ReadRow: %v", err)
	}
	if err := r.Request(negotiate.Step{Kind: negotiate.StepRGBToGray}); err == nil {
		t.Error("expected error for request after reading started")
	}
}

func TestReadRowLimits(t *testing.T) {
	hdr := Header{Width: 4, Height: 1, Format: pixel.FormatGray8}
	r, err := NewReader(bytes.NewReader(encode(t, hdr, patternRows(hdr))))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if err := r.ReadRow(make([]byte, 3)); err == nil {
		t.Error("expected error for short row buffer")
	}
	if err := r.ReadRow(make([]byte, 4)); err != nil {
		t.Fatalf("ReadRow: %v", err)
	}
	if err := r.ReadRow(make([]byte, 4)); !errors.Is(err, ErrNoMoreRows) {
		t.Errorf("ReadRow past end: got %v, want ErrNoMoreRows", err)
	}
}

func TestPaletteAndTransparencyAfterExpansion(t *testing.T) {
	hdr := Header{
		Width: 1, Height: 1, Format: pixel.FormatIndex8,
		Palette: fourColors(), Transparency: []byte{0},
	}
	r, err := NewReader(bytes.NewReader(encode(t, hdr, [][]byte{{0}})))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if len(r.Palette()) != 4 || len(r.Transparency()) != 1 {
		t.Fatalf("before expansion: palette %d, tRNS %d", len(r.Palette()), len(r.Transparency()))
	}
	if err := r.Request(negotiate.Step{Kind: negotiate.StepPaletteToRGB}); err != nil {
		t.Fatalf("Request: %v", err)
	}
	if r.Palette() != nil || r.Transparency() != nil {
		t.Errorf("after expansion: palette %v, tRNS %v, want nil", r.Palette(), r.Transparency())
	}
}

func TestWriterRowCount(t *testing.T) {
	hdr := Header{Width: 2, Height: 2, Format: pixel.FormatGray8}

	var buf bytes.Buffer
	w, err := NewWriter(&buf, hdr)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.WriteRow([]byte{1, 2}); err != nil {
		t.Fatalf("WriteRow: %v", err)
	}
	if err := w.Close(); !errors.Is(err, ErrRowCount) {
		t.Errorf("Close with missing row: got %v, want ErrRowCount", err)
	}

	buf.Reset()
	w, err = NewWriter(&buf, hdr)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := w.WriteRow([]byte{1, 2}); err != nil {
			t.Fatalf("WriteRow: %v", err)
		}
	}
	if err := w.WriteRow([]byte{1, 2}); !errors.Is(err, ErrRowCount) {
		t.Errorf("extra WriteRow: got %v, want ErrRowCount", err)
	}
}

func TestWriterRejects(t *testing.T) {
	tests := []struct {
		name string
		hdr  Header
	}{
		{"interlaced", Header{Width: 1, Height: 1, Format: pixel.FormatGray8, Interlace: InterlaceAdam7}},
		{"zero width", Header{Width: 0, Height: 1, Format: pixel.FormatGray8}},
		{"bad depth", Header{Width: 1, Height: 1, Format: pixel.Format{Color: pixel.RGB, Depth: 4}}},
		{"palette missing", Header{Width: 1, Height: 1, Format: pixel.FormatIndex8}},
		{"palette too large", Header{Width: 1, Height: 1, Format: pixel.FormatIndex1, Palette: fourColors()}},
		{"tRNS with alpha", Header{Width: 1, Height: 1, Format: pixel.FormatGA8, Transparency: []byte{0, 0}}},
		{"tRNS longer than palette", Header{Width: 1, Height: 1, Format: pixel.FormatIndex8,
			Palette: fourColors()[:2], Transparency: []byte{0, 0, 0}}},
		{"gray tRNS too short", Header{Width: 1, Height: 1, Format: pixel.FormatGray8, Transparency: []byte{0}}},
		{"rgb tRNS too short", Header{Width: 1, Height: 1, Format: pixel.FormatRGB8, Transparency: []byte{0, 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewWriter(&bytes.Buffer{}, tt.hdr); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestHeaderValidateTransparency(t *testing.T) {
	ok := []Header{
		{Width: 1, Height: 1, Format: pixel.FormatIndex2, Palette: fourColors(), Transparency: []byte{0, 128}},
		{Width: 1, Height: 1, Format: pixel.FormatIndex2, Palette: fourColors(), Transparency: []byte{0, 1, 2, 3}},
		{Width: 1, Height: 1, Format: pixel.FormatGray16, Transparency: []byte{0x12, 0x34}},
		{Width: 1, Height: 1, Format: pixel.FormatRGB8, Transparency: []byte{0, 1, 0, 2, 0, 3}},
	}
	for _, h := range ok {
		if err := h.Validate(); err != nil {
			t.Errorf("%s with %d tRNS bytes: unexpected error: %v", h.Format, len(h.Transparency), err)
		}
	}
}

func TestWriterPaletteIndexOutOfRange(t *testing.T) {
	hdr := Header{Width: 2, Height: 1, Format: pixel.FormatIndex2, Palette: fourColors()[:3]}
	w, err := NewWriter(&bytes.Buffer{}, hdr)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.WriteRow([]byte{0b01110000}); err == nil {
		t.Error("expected error for index 3 with a 3-entry palette")
	}
}

func TestWriterClearsPadding(t *testing.T) {
	hdr := Header{Width: 3, Height: 1, Format: pixel.FormatGray1}
	r, err := NewReader(bytes.NewReader(encode(t, hdr, [][]byte{{0xff}})))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	row := make([]byte, 1)
	if err := r.ReadRow(row); err != nil {
		t.Fatalf("ReadRow: %v", err)
	}
	if row[0] != 0xe0 {
		t.Errorf("row: got %#08b, want 0b11100000", row[0])
	}
}

func TestWriterSplitsIDAT(t *testing.T) {
	hdr := Header{Width: 300, Height: 300, Format: pixel.FormatRGBA8}
	data := encode(t, hdr, patternRows(hdr), WithLevel(zlib.NoCompression))
	if n := bytes.Count(data, []byte("IDAT")); n < 2 {
		t.Errorf("IDAT chunks: got %d, want at least 2", n)
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("png.Decode: %v", err)
	}
}

func TestNewImageReader(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 2, 1))
	gray.Pix[0], gray.Pix[1] = 10, 200

	pal := color.Palette{color.NRGBA{R: 255, A: 255}, color.NRGBA{G: 255, A: 0}}
	paletted := image.NewPaletted(image.Rect(5, 5, 7, 6), pal)
	paletted.SetColorIndex(5, 5, 1)

	ycc := image.NewYCbCr(image.Rect(0, 0, 2, 2), image.YCbCrSubsampleRatio444)
	for i := range ycc.Y {
		ycc.Y[i], ycc.Cb[i], ycc.Cr[i] = 128, 128, 128
	}

	tests := []struct {
		name    string
		img     image.Image
		format  pixel.Format
		first   []byte
		hasTRNS bool
	}{
		{"gray", gray, pixel.FormatGray8, []byte{10, 200}, false},
		{"paletted", paletted, pixel.FormatIndex8, []byte{1, 0}, true},
		{"ycbcr", ycc, pixel.FormatRGB8, []byte{128, 128, 128, 128, 128, 128}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewImageReader(tt.img)
			if err != nil {
				t.Fatalf("NewImageReader: %v", err)
			}
			if got := r.Header().Format; got != tt.format {
				t.Errorf("format: got %s, want %s", got, tt.format)
			}
			if got := r.Descriptor().Transparency; got != tt.hasTRNS {
				t.Errorf("transparency: got %v, want %v", got, tt.hasTRNS)
			}
			row := make([]byte, r.RowBytes())
			if err := r.ReadRow(row); err != nil {
				t.Fatalf("ReadRow: %v", err)
			}
			if diff := cmp.Diff(tt.first, row); diff != "" {
				t.Errorf("first row mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNewImageReaderEmpty(t *testing.T) {
	if _, err := NewImageReader(image.NewGray(image.Rect(0, 0, 0, 3))); err == nil {
		t.Error("expected error for empty image")
	}
}
