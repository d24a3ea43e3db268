// Package imaging shrinks oversized receipt photographs under a hard
// byte budget before they are uploaded for QR decoding.
//
// The search walks a two-dimensional space: scale (coarse control, outer
// loop) and JPEG quality (fine control, inner loop). Scale dominates the
// byte size of photographic content, so varying it outermost keeps the
// number of expensive encode calls small. The first candidate at or under
// budget wins; this is a deliberate good-enough-stop-early policy, not a
// search for the global optimum.
package imaging

import (
	"image"
	"math"
)

// DefaultBudget is the upload ceiling: 950 KiB, just under the 1 MB the
// remote QR decode API starts rejecting at.
const DefaultBudget = 950 * 1024

const (
	defaultMinDimension = 800
	defaultScaleStep    = 0.15
)

// defaultQualities are tried highest first at every scale.
var defaultQualities = []int{92, 85, 75, 65, 55}

// Compressor re-encodes images to fit a byte budget. The zero value is
// not usable; construct with New.
type Compressor struct {
	budget       int
	minDimension int
	scaleStep    float64
	qualities    []int
	codec        Codec
}

// Option customizes a Compressor.
type Option func(*Compressor)

// WithBudget overrides the byte ceiling.
func WithBudget(budget int) Option {
	return func(c *Compressor) { c.budget = budget }
}

// WithMinDimension overrides the smallest usable longer-side dimension.
// Scaling never pushes the longer side below this floor, so the result
// stays readable for the downstream QR decoder.
func WithMinDimension(px int) Option {
	return func(c *Compressor) { c.minDimension = px }
}

// WithCodec overrides the image codec, mainly for tests.
func WithCodec(codec Codec) Option {
	return func(c *Compressor) { c.codec = codec }
}

// New returns a Compressor with the default budget, floor, scale step,
// and quality ladder.
func New(opts ...Option) *Compressor {
	c := &Compressor{
		budget:       DefaultBudget,
		minDimension: defaultMinDimension,
		scaleStep:    defaultScaleStep,
		qualities:    defaultQualities,
		codec:        JPEGCodec{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Budget returns the configured byte ceiling.
func (c *Compressor) Budget() int { return c.budget }

// Result describes what a Compress call did.
type Result struct {
	// WithinBudget reports whether the returned bytes fit the budget.
	WithinBudget bool

	// Reencoded reports whether the returned bytes are a re-encoding
	// rather than the input.
	Reencoded bool

	// Attempts is the number of encode calls performed.
	Attempts int

	// Scale and Quality describe the returned encoding when Reencoded.
	Scale   float64
	Quality int
}

// Compress returns data re-encoded to fit the budget, or the closest the
// search could get. It always returns a valid image and never fails:
//
//   - input already within budget: returned unchanged, no encode calls;
//   - some scale/quality combination fits: the first one found wins;
//   - budget unreachable above the dimension floor: the smallest
//     encoding produced is returned if it beats the input, otherwise the
//     input comes back untouched;
//   - undecodable input: returned untouched.
func (c *Compressor) Compress(data []byte) ([]byte, Result) {
	if len(data) <= c.budget {
		return data, Result{WithinBudget: true}
	}

	img, err := c.codec.Decode(data)
	if err != nil {
		return data, Result{}
	}

	bounds := img.Bounds()
	longest := bounds.Dx()
	if bounds.Dy() > longest {
		longest = bounds.Dy()
	}

	var result Result
	var best []byte
	for _, scale := range c.scales(longest) {
		scaled := resize(img, scale)
		for _, quality := range c.qualities {
			encoded, err := c.codec.Encode(scaled, quality)
			result.Attempts++
			if err != nil {
				continue
			}
			if best == nil || len(encoded) < len(best) {
				best = encoded
			}
			if len(encoded) <= c.budget {
				result.WithinBudget = true
				result.Reencoded = true
				result.Scale = scale
				result.Quality = quality
				return encoded, result
			}
		}
	}

	if best != nil && len(best) < len(data) {
		result.Reencoded = true
		return best, result
	}
	return data, result
}

// scales builds the descending scale ladder: 1.0 down in fixed steps,
// with the floor fraction itself tried last. An image already at or
// below the floor yields no scales at all, so nothing gets degraded
// past usability.
func (c *Compressor) scales(longest int) []float64 {
	floor := float64(c.minDimension) / float64(longest)
	if floor > 1 {
		return nil
	}
	var out []float64
	for i := 0; ; i++ {
		s := 1.0 - float64(i)*c.scaleStep
		if s <= floor {
			break
		}
		out = append(out, s)
	}
	return append(out, floor)
}

// resize scales the image's linear dimensions by the given fraction,
// clamping each side to at least one pixel.
func resize(src image.Image, scale float64) image.Image {
	if scale >= 1 {
		return src
	}
	bounds := src.Bounds()
	w := int(math.Round(float64(bounds.Dx()) * scale))
	h := int(math.Round(float64(bounds.Dy()) * scale))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return scaleTo(src, w, h)
}
