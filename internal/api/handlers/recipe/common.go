package recipe

import (
	"strings"

	"photo-recipe/internal/core/image"
)

// describePhoto 描述圖片格式（用於日誌記錄），不輸出內容
func describePhoto(raw string) string {
	if raw == "" {
		return "empty"
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return "url"
	}
	mimeType, err := image.EncodedImage(raw).MIMEType()
	if err != nil {
		return "invalid_data_uri"
	}
	if strings.HasPrefix(mimeType, "image/") {
		return "data_uri_" + strings.TrimPrefix(mimeType, "image/")
	}
	return "data_uri_non_image"
}
