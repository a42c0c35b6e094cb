package image

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// EncodedImage 自描述的圖片字串，格式為 data:<mimetype>;base64,<data>
type EncodedImage string

const (
	dataURIPrefix = "data:"
	base64Marker  = ";base64,"
)

// Encode 將位元組與 MIME 類型編碼為 data URI
func Encode(data []byte, mimeType string) EncodedImage {
	return EncodedImage(dataURIPrefix + mimeType + base64Marker + base64.StdEncoding.EncodeToString(data))
}

// String 實作 fmt.Stringer，僅輸出 MIME 與長度，避免把內容寫進日誌
func (e EncodedImage) String() string {
	mimeType, payload, err := e.split()
	if err != nil {
		return "data:<invalid>"
	}
	return fmt.Sprintf("data:%s;base64,<%d chars>", mimeType, len(payload))
}

// MIMEType 回傳 data URI 宣告的 MIME 類型
func (e EncodedImage) MIMEType() (string, error) {
	mimeType, _, err := e.split()
	return mimeType, err
}

// Base64 回傳未解碼的 base64 內容
func (e EncodedImage) Base64() (string, error) {
	_, payload, err := e.split()
	return payload, err
}

// Decode 解回 MIME 類型與原始位元組
func (e EncodedImage) Decode() (string, []byte, error) {
	mimeType, payload, err := e.split()
	if err != nil {
		return "", nil, err
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode base64 data: %w", err)
	}
	return mimeType, data, nil
}

func (e EncodedImage) split() (string, string, error) {
	s := string(e)
	if !strings.HasPrefix(s, dataURIPrefix) {
		return "", "", fmt.Errorf("invalid data uri: missing %q prefix", dataURIPrefix)
	}
	rest := s[len(dataURIPrefix):]
	idx := strings.Index(rest, base64Marker)
	if idx < 0 {
		return "", "", fmt.Errorf("invalid data uri: missing %q marker", base64Marker)
	}
	mimeType := rest[:idx]
	if mimeType == "" {
		return "", "", fmt.Errorf("invalid data uri: empty mime type")
	}
	return mimeType, rest[idx+len(base64Marker):], nil
}

// ParseDataURI 解析 data URI 字串
func ParseDataURI(s string) (EncodedImage, error) {
	e := EncodedImage(strings.TrimSpace(s))
	if _, _, err := e.split(); err != nil {
		return "", err
	}
	return e, nil
}
