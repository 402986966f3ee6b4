package chat

import (
	"fmt"

	"github.com/chocolab/ai-gateway/internal/domain"
)

// DefaultMaxImageBytes bounds a single image attachment.
const DefaultMaxImageBytes = 5 * 1024 * 1024

// supportedImageTypes are the media types the provider accepts inline.
var supportedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// validateImages rejects the whole request if any attachment has an
// unsupported media type or exceeds the size limit. Validation runs before
// any provider call so a bad attachment never costs an upstream request.
func validateImages(images []domain.ImageAttachment, maxBytes int) error {
	for i, img := range images {
		if !supportedImageTypes[img.MimeType] {
			return domain.ErrValidation(
				fmt.Sprintf("image %d: unsupported media type %q", i, img.MimeType))
		}
		if len(img.Data) == 0 {
			return domain.ErrValidation(fmt.Sprintf("image %d: empty attachment", i))
		}
		if len(img.Data) > maxBytes {
			return domain.ErrValidation(
				fmt.Sprintf("image %d: %d bytes exceeds limit of %d", i, len(img.Data), maxBytes))
		}
	}
	return nil
}
