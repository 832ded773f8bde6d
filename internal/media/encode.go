package media

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/disintegration/imaging"
)

// EncodeDataURL returns the image at path as a base64 data URL suitable for
// an image_url chat message part. PNG sources stay PNG; everything else is
// re-encoded as JPEG, which also drops alpha and palette data the vision
// service does not accept. Oversized images are downscaled first.
func EncodeDataURL(path string) (string, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	img, err := LoadImageConstrained(path, MaxImageDimension, MaxImagePixels)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	mime := "jpeg"
	if format == "png" {
		mime = "png"
		err = imaging.Encode(&buf, img, imaging.PNG)
	} else {
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90))
	}
	if err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}

	return DataURL(mime, buf.Bytes()), nil
}

// DataURL wraps raw bytes as data:image/<format>;base64,...
func DataURL(format string, data []byte) string {
	return "data:image/" + format + ";base64," + base64.StdEncoding.EncodeToString(data)
}
