package images

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultJPEGQuality is used when no quality in (0, 1] is given.
const DefaultJPEGQuality = 0.92

// Decode decodes any registered raster format: png, jpeg, gif, bmp, tiff
// and webp.
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decoding image: %w", err)
	}
	return img, format, nil
}

// IsSVG reports whether a media type or payload looks like SVG markup.
func IsSVG(mediaType string, data []byte) bool {
	if strings.Contains(mediaType, "svg") {
		return true
	}
	head := bytes.TrimSpace(data)
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.Contains(head, []byte("<svg"))
}

// Encode writes img as PNG or JPEG. mime selects the format the way a
// canvas does: image/jpeg gives JPEG, anything else PNG.
func Encode(img image.Image, mime string, quality float64) ([]byte, error) {
	var buf bytes.Buffer
	switch strings.ToLower(mime) {
	case "image/jpeg", "image/jpg":
		if quality <= 0 || quality > 1 {
			quality = DefaultJPEGQuality
		}
		q := int(quality*100 + 0.5)
		if err := jpeg.Encode(&buf, flatten(img), &jpeg.Options{Quality: q}); err != nil {
			return nil, fmt.Errorf("encoding jpeg: %w", err)
		}
	default:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encoding png: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// ToDataURL encodes img and wraps it in a base64 data URI.
func ToDataURL(img image.Image, mime string, quality float64) (string, error) {
	data, err := Encode(img, mime, quality)
	if err != nil {
		return "", err
	}
	if strings.EqualFold(mime, "image/jpeg") || strings.EqualFold(mime, "image/jpg") {
		return EncodeDataURI("image/jpeg", data), nil
	}
	return EncodeDataURI("image/png", data), nil
}

// flatten composites transparent pixels onto black, which is what JPEG
// export of a canvas produces.
func flatten(img image.Image) image.Image {
	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, image.NewUniform(color.Black), image.Point{}, draw.Src)
	draw.Draw(out, b, img, b.Min, draw.Over)
	return out
}
