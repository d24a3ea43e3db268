package imaging

import (
	"bytes"
	"image"
	"image/jpeg"
	_ "image/png" // decode support for PNG uploads

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // decode support for WebP uploads
)

// Codec decodes raw upload bytes and encodes candidate rasters. The
// compressor holds exactly one decoded image and one candidate encoding
// at a time, so the codec never needs to buffer more than that.
type Codec interface {
	Decode(data []byte) (image.Image, error)
	Encode(img image.Image, quality int) ([]byte, error)
}

// JPEGCodec is the production codec: it decodes JPEG, PNG, and WebP and
// always encodes lossy JPEG, which is what the QR decode API expects.
type JPEGCodec struct{}

func (JPEGCodec) Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}

func (JPEGCodec) Encode(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// scaleTo resamples src into a w×h raster. Bilinear is a good trade for
// receipt photos: QR modules survive it and it is several times cheaper
// than Catmull-Rom.
func scaleTo(src image.Image, w, h int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}
