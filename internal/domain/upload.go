package domain

// AllowedImageContentTypes is the set of content types accepted for product
// and product type image uploads.
var AllowedImageContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/bmp":  true,
	"image/webp": true,
}

// MaxImageFileSize is the maximum allowed image size in bytes (10 MB).
const MaxImageFileSize int64 = 10 * 1024 * 1024

// IsAllowedImageContentType checks whether the given content type is accepted
// for image uploads.
func IsAllowedImageContentType(contentType string) bool {
	return AllowedImageContentTypes[contentType]
}
