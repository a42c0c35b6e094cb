package session

import (
	"sync"

	"photo-recipe/internal/pkg/common"
)

// Preview 已選檔案的預覽內容
type Preview struct {
	Token    string
	Name     string
	MIMEType string
	Data     []byte
}

// PreviewRegistry 預覽句柄登記表。每個句柄由 Controller 取得並負責釋放。
type PreviewRegistry struct {
	mu    sync.RWMutex
	items map[string]*Preview
}

// NewPreviewRegistry 創建預覽登記表
func NewPreviewRegistry() *PreviewRegistry {
	return &PreviewRegistry{items: make(map[string]*Preview)}
}

// Acquire 登記一份預覽並回傳句柄
func (r *PreviewRegistry) Acquire(name, mimeType string, data []byte) string {
	token := common.GenerateUUID()
	r.mu.Lock()
	r.items[token] = &Preview{
		Token:    token,
		Name:     name,
		MIMEType: mimeType,
		Data:     data,
	}
	r.mu.Unlock()
	return token
}

// Get 取得預覽
func (r *PreviewRegistry) Get(token string) (*Preview, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[token]
	return p, ok
}

// Release 釋放句柄，重複釋放無影響
func (r *PreviewRegistry) Release(token string) {
	if token == "" {
		return
	}
	r.mu.Lock()
	delete(r.items, token)
	r.mu.Unlock()
}

// Len 目前持有的句柄數量
func (r *PreviewRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
