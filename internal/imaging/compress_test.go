package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"testing"
)

// fakeCodec returns encodings of a scripted size per (width, quality)
// pair and counts calls, so tests can pin down the search order without
// touching a real encoder.
type fakeCodec struct {
	img     image.Image
	size    func(width, quality int) int
	encodes int
	decodes int
}

func (f *fakeCodec) Decode(data []byte) (image.Image, error) {
	f.decodes++
	if f.img == nil {
		return nil, fmt.Errorf("not an image")
	}
	return f.img, nil
}

func (f *fakeCodec) Encode(img image.Image, quality int) ([]byte, error) {
	f.encodes++
	return make([]byte, f.size(img.Bounds().Dx(), quality)), nil
}

func graySquare(side int) image.Image {
	img := image.NewGray(image.Rect(0, 0, side, side))
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	return img
}

func TestCompressNoOpUnderBudget(t *testing.T) {
	codec := &fakeCodec{img: graySquare(2000)}
	c := New(WithBudget(100), WithCodec(codec))

	data := []byte("small image")
	out, res := c.Compress(data)

	if !bytes.Equal(out, data) {
		t.Error("under-budget input must come back unchanged")
	}
	if !res.WithinBudget || res.Reencoded {
		t.Errorf("unexpected result: %+v", res)
	}
	if codec.decodes != 0 || codec.encodes != 0 {
		t.Errorf("no-op path must not touch the codec (decodes=%d encodes=%d)", codec.decodes, codec.encodes)
	}
}

func TestCompressFirstFitWins(t *testing.T) {
	// Every encode at full width misses the budget; the first quality at
	// the second scale fits. The search must stop right there.
	codec := &fakeCodec{
		img: graySquare(2000),
		size: func(width, quality int) int {
			if width == 2000 {
				return 500 + quality // always over budget
			}
			return 90 // fits immediately
		},
	}
	c := New(WithBudget(200), WithCodec(codec))

	out, res := c.Compress(make([]byte, 1000))
	if !res.WithinBudget {
		t.Fatalf("expected budget hit, got %+v", res)
	}
	if len(out) != 90 {
		t.Errorf("len(out) = %d, want 90", len(out))
	}
	// Five qualities at scale 1.0, then the first one at scale 0.85.
	if res.Attempts != 6 || codec.encodes != 6 {
		t.Errorf("attempts = %d (encodes %d), want 6", res.Attempts, codec.encodes)
	}
	if res.Scale != 0.85 || res.Quality != 92 {
		t.Errorf("winning combination = (%v, %d), want (0.85, 92)", res.Scale, res.Quality)
	}
}

func TestCompressBestEffortFallback(t *testing.T) {
	// Budget unreachable: every candidate is over budget but shrinking.
	// The smallest candidate wins, and the search terminates despite the
	// floor never satisfying the budget.
	call := 0
	codec := &fakeCodec{
		img: graySquare(1000),
		size: func(width, quality int) int {
			call++
			return 1000 - call // monotonically smaller, never <= 10
		},
	}
	c := New(WithBudget(10), WithCodec(codec))

	in := make([]byte, 5000)
	out, res := c.Compress(in)
	if res.WithinBudget {
		t.Fatal("budget should be unreachable")
	}
	if !res.Reencoded {
		t.Fatal("best-effort encoding expected")
	}
	if len(out) != 1000-codec.encodes {
		t.Errorf("len(out) = %d, want smallest candidate %d", len(out), 1000-codec.encodes)
	}
}

func TestCompressKeepsOriginalWhenBestIsLarger(t *testing.T) {
	codec := &fakeCodec{
		img:  graySquare(1000),
		size: func(width, quality int) int { return 10000 },
	}
	c := New(WithBudget(10), WithCodec(codec))

	in := make([]byte, 5000)
	out, res := c.Compress(in)
	if !bytes.Equal(out, in) {
		t.Error("original must win when every candidate is larger")
	}
	if res.Reencoded || res.WithinBudget {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestCompressUndecodableInput(t *testing.T) {
	codec := &fakeCodec{} // Decode always fails
	c := New(WithBudget(10), WithCodec(codec))

	in := make([]byte, 100)
	out, res := c.Compress(in)
	if !bytes.Equal(out, in) {
		t.Error("undecodable input must come back unchanged")
	}
	if res.Attempts != 0 {
		t.Errorf("attempts = %d, want 0", res.Attempts)
	}
}

func TestCompressRespectsDimensionFloor(t *testing.T) {
	// 1600px image, floor 800px: scales are 1.0, 0.85, 0.70, 0.55, and
	// the clamped floor 0.5. Five qualities each.
	codec := &fakeCodec{
		img:  graySquare(1600),
		size: func(width, quality int) int { return 99999 },
	}
	c := New(WithBudget(10), WithCodec(codec))

	_, res := c.Compress(make([]byte, 200000))
	if want := 5 * 5; res.Attempts != want {
		t.Errorf("attempts = %d, want %d", res.Attempts, want)
	}
}

func TestCompressTinyImageNeverScaled(t *testing.T) {
	// Longer side already below the floor: no scale is usable, so the
	// original comes back even though it busts the budget.
	codec := &fakeCodec{
		img:  graySquare(400),
		size: func(width, quality int) int { return 1 },
	}
	c := New(WithBudget(10), WithCodec(codec))

	in := make([]byte, 100)
	out, res := c.Compress(in)
	if !bytes.Equal(out, in) {
		t.Error("sub-floor image must come back unchanged")
	}
	if res.Attempts != 0 {
		t.Errorf("attempts = %d, want 0", res.Attempts)
	}
}

func TestScalesLadder(t *testing.T) {
	c := New()
	tests := []struct {
		longest int
		want    []float64
	}{
		{800, []float64{1.0}},
		{799, nil},
		{1600, []float64{1.0, 0.85, 0.70, 0.55, 0.5}},
	}
	for _, tt := range tests {
		got := c.scales(tt.longest)
		if len(got) != len(tt.want) {
			t.Errorf("scales(%d) = %v, want %v", tt.longest, got, tt.want)
			continue
		}
		for i := range got {
			if diff := got[i] - tt.want[i]; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("scales(%d)[%d] = %v, want %v", tt.longest, i, got[i], tt.want[i])
			}
		}
	}
}

func TestCompressRealJPEGRoundTrip(t *testing.T) {
	// Noise compresses terribly as PNG and acceptably as JPEG, so this
	// exercises the real codec end to end without huge fixtures.
	rng := rand.New(rand.NewSource(1))
	img := image.NewRGBA(image.Rect(0, 0, 1024, 1024))
	for y := 0; y < 1024; y++ {
		for x := 0; x < 1024; x++ {
			img.Set(x, y, color.RGBA{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)), 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	in := buf.Bytes()

	c := New() // default 950 KiB budget
	if len(in) <= c.Budget() {
		t.Skipf("fixture unexpectedly small: %d bytes", len(in))
	}

	out, res := c.Compress(in)
	if len(out) >= len(in) {
		t.Errorf("output %d bytes, not smaller than input %d", len(out), len(in))
	}
	if res.Reencoded {
		if _, err := (JPEGCodec{}).Decode(out); err != nil {
			t.Errorf("re-encoded output is not a decodable image: %v", err)
		}
	}
	t.Logf("compressed %d -> %d bytes (attempts=%d within=%v)", len(in), len(out), res.Attempts, res.WithinBudget)
}
