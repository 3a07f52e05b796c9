package images

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder

	_ "golang.org/x/image/webp" // Register WebP decoder
)

// extByFormat maps image.Decode format names to stored file extensions.
var extByFormat = map[string]string{
	"jpeg": ".jpg",
	"png":  ".png",
	"gif":  ".gif",
	"webp": ".webp",
}

// Decode validates and decodes uploaded image bytes entirely in memory.
// It returns the decoded image and the canonical file extension for the
// detected format. Anything that isn't a decodable JPEG, PNG, GIF, or WebP
// is rejected; callers must not write any bytes to disk before this succeeds.
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty image data")
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}

	ext, ok := extByFormat[format]
	if !ok {
		return nil, "", fmt.Errorf("unsupported image format: %s", format)
	}

	return img, ext, nil
}
