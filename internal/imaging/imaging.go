// Package imaging converts uploaded and generated pictures between raw bytes,
// data URIs and decoded images.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const dataURIPrefix = "data:"

// MaxPixels bounds width*height of any image this package will decode.
const MaxPixels = 36_000_000

var (
	// ErrNotImage indicates the payload is not a recognised image type.
	ErrNotImage = errors.New("payload is not an image")
	// ErrTooLarge indicates the payload exceeds the configured size limit.
	ErrTooLarge = errors.New("image exceeds size limit")
	// ErrInvalidDataURI indicates a malformed base64 data URI.
	ErrInvalidDataURI = errors.New("invalid data uri")
	// ErrTooManyPixels indicates the declared dimensions exceed MaxPixels.
	ErrTooManyPixels = errors.New("image dimensions exceed limit")
	// ErrDecode indicates pixel data that could not be decoded.
	ErrDecode = errors.New("image could not be decoded")
)

// Image is an encoded picture together with its MIME type.
type Image struct {
	MIMEType string
	Data     []byte
}

// IsZero reports whether the image carries no data.
func (img Image) IsZero() bool {
	return len(img.Data) == 0
}

// DataURI renders the image as a base64 data URI.
func (img Image) DataURI() string {
	if img.IsZero() {
		return ""
	}
	return dataURIPrefix + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// New sniffs the MIME type of data and returns it as an Image.
func New(data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, ErrNotImage
	}
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return Image{}, fmt.Errorf("%w: detected %s", ErrNotImage, mimeType)
	}
	img := Image{MIMEType: mimeType, Data: data}
	if err := checkConfig(img); err != nil {
		return Image{}, err
	}
	return img, nil
}

// checkConfig reads only the image header: the format must have a registered
// decoder and the declared size must stay within MaxPixels.
func checkConfig(img Image) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(img.Data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return fmt.Errorf("%w: unsupported format %s", ErrNotImage, img.MIMEType)
		}
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("%w: empty %dx%d image", ErrDecode, cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height)
	}
	return nil
}

// Read consumes at most limit bytes from r and returns the image they encode.
func Read(r io.Reader, limit int64) (Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return Image{}, fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > limit {
		return Image{}, ErrTooLarge
	}
	return New(data)
}

// ParseDataURI decodes a "data:<mime>;base64,<payload>" string.
func ParseDataURI(uri string) (Image, error) {
	if !strings.HasPrefix(uri, dataURIPrefix) {
		return Image{}, ErrInvalidDataURI
	}
	header, payload, ok := strings.Cut(uri[len(dataURIPrefix):], ",")
	if !ok {
		return Image{}, ErrInvalidDataURI
	}
	mimeType, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return Image{}, fmt.Errorf("%w: only base64 payloads are supported", ErrInvalidDataURI)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return Image{}, fmt.Errorf("%w: %s", ErrNotImage, mimeType)
	}
	return Image{MIMEType: mimeType, Data: data}, nil
}

// Decode returns the decoded pixels of img.
func Decode(img Image) (image.Image, error) {
	if err := checkConfig(img); err != nil {
		return nil, err
	}
	decoded, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, img.MIMEType, err)
	}
	return decoded, nil
}

// ToPNG returns img encoded as PNG, transcoding other formats.
func ToPNG(img Image) ([]byte, error) {
	if img.MIMEType == "image/png" {
		return img.Data, nil
	}
	decoded, err := Decode(img)
	if err != nil {
		return nil, err
	}
	return EncodePNG(decoded)
}

// EncodePNG encodes decoded pixels as PNG.
func EncodePNG(m image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, m); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
