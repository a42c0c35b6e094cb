package image

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"strings"

	_ "image/gif"  // 支援 GIF
	_ "image/jpeg" // 支援 JPEG
	_ "image/png"  // 支援 PNG

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp" // 支援 WebP

	"photo-recipe/internal/pkg/common"
)

// Service 圖片處理服務
type Service struct {
	maxSizeBytes int64
}

// NewService 創建新的圖片處理服務
func NewService(maxSizeBytes int64) *Service {
	return &Service{
		maxSizeBytes: maxSizeBytes,
	}
}

// MaxSizeBytes 回傳單張圖片的大小上限
func (s *Service) MaxSizeBytes() int64 {
	return s.maxSizeBytes
}

// ReadUpload 讀取上傳內容，超過上限時回傳 ErrInvalidImageSize
func (s *Service) ReadUpload(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxSizeBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if int64(len(data)) > s.maxSizeBytes {
		return nil, common.ErrInvalidImageSize
	}
	return data, nil
}

// DetectMIME 以內容判斷 MIME 類型，非圖片時回傳 ErrInvalidImageType
func (s *Service) DetectMIME(data []byte) (string, error) {
	if len(data) == 0 {
		return "", common.ErrInvalidImageFormat.WithMessage("image is empty")
	}
	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", common.ErrInvalidImageType.WithMessage(
			fmt.Sprintf("%s is not an image", mtype.String()))
	}
	return mtype.String(), nil
}

// Encode 將上傳的圖片編碼為 data URI。
// 以偵測到的 MIME 類型為準，宣告的類型只在日誌中比對。
func (s *Service) Encode(data []byte, declaredMIME string) (EncodedImage, error) {
	if int64(len(data)) > s.maxSizeBytes {
		return "", common.ErrInvalidImageSize
	}

	mimeType, err := s.DetectMIME(data)
	if err != nil {
		return "", err
	}

	fields := []zap.Field{
		zap.String("mime", mimeType),
		zap.Int("size", len(data)),
	}
	if declaredMIME != "" && declaredMIME != mimeType {
		fields = append(fields, zap.String("declared_mime", declaredMIME))
	}
	if width, height, format, ok := probe(data); ok {
		fields = append(fields,
			zap.Int("width", width),
			zap.Int("height", height),
			zap.String("format", format),
		)
	}
	common.LogDebug("image encoded", fields...)

	return Encode(data, mimeType), nil
}

// Validate 檢查外部傳入的 data URI 是否為圖片且未超過大小上限
func (s *Service) Validate(e EncodedImage) error {
	mimeType, data, err := e.Decode()
	if err != nil {
		return common.ErrInvalidImageFormat.Wrap(err)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return common.ErrInvalidImageType.WithMessage(
			fmt.Sprintf("%s is not an image", mimeType))
	}
	if int64(len(data)) > s.maxSizeBytes {
		return common.ErrInvalidImageSize
	}
	return nil
}

// probe 讀取圖片尺寸，不支援的格式（例如 HEIC）回傳 false
func probe(data []byte) (int, int, string, bool) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, "", false
	}
	return cfg.Width, cfg.Height, format, true
}
