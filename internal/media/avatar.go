package media

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/gif" // register decoders
	"image/jpeg"
	_ "image/png"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/ashtangalog/ashtanga/internal/errors"
)

// AvatarDataURIPrefix starts every avatar produced by Avatar.
const AvatarDataURIPrefix = "data:image/jpeg;base64,"

// FitWithin scales w x h so the longest side is at most max, keeping the
// aspect ratio. Images already small enough are left as is.
func FitWithin(w, h, max int) (int, int) {
	if max <= 0 || (w <= max && h <= max) {
		return w, h
	}
	if w >= h {
		nh := h * max / w
		if nh < 1 {
			nh = 1
		}
		return max, nh
	}
	nw := w * max / h
	if nw < 1 {
		nw = 1
	}
	return nw, max
}

// Avatar decodes a jpeg, png, gif or webp image, scales it so the longest
// side is at most maxDim and re-encodes it as a JPEG data URI.
func Avatar(data []byte, maxBytes int64, maxDim, quality int) (string, error) {
	if _, err := ValidatePhoto(data, maxBytes); err != nil {
		return "", err
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", invalidPhoto("cannot decode image: "+err.Error(), "Use a jpg, png, gif or webp image")
	}

	b := src.Bounds()
	w, h := FitWithin(b.Dx(), b.Dy(), maxDim)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	// JPEG has no alpha; paint transparent areas white first.
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	if quality <= 0 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return "", errors.Wrap(err, "encode avatar")
	}
	return AvatarDataURIPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeDataURI returns the bytes of a base64 data URI.
func DecodeDataURI(uri string) ([]byte, string, error) {
	if !strings.HasPrefix(uri, "data:") {
		return nil, "", invalidPhoto("not a data URI", "")
	}
	meta, payload, ok := strings.Cut(uri[len("data:"):], ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, "", invalidPhoto("unsupported data URI", "")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", invalidPhoto("malformed data URI", "")
	}
	return data, strings.TrimSuffix(meta, ";base64"), nil
}
