package session

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"photo-recipe/internal/infrastructure/config"
	"photo-recipe/internal/pkg/common"
)

// Manager 瀏覽器會話管理器。每個會話持有一個 Controller，
// 過期或被淘汰時會關閉 Controller 以釋放預覽。
type Manager struct {
	cfg     config.SessionConfig
	factory func() *Controller

	mu    sync.Mutex
	store map[string]*entry
	stats managerStats

	stop     chan struct{}
	stopOnce sync.Once
}

// entry 會話條目
type entry struct {
	ctrl        *Controller
	expiresAt   time.Time
	createdAt   time.Time
	lastAccess  time.Time
	accessCount int
}

// managerStats 會話統計
type managerStats struct {
	created   int64
	hits      int64
	misses    int64
	evictions int64
	expired   int64
}

// NewManager 創建會話管理器並啟動定期清理
func NewManager(cfg config.SessionConfig, factory func() *Controller) *Manager {
	m := &Manager{
		cfg:     cfg,
		factory: factory,
		store:   make(map[string]*entry),
		stop:    make(chan struct{}),
	}

	go m.startCleanup()

	common.LogInfo("會話管理員已初始化",
		zap.Int("max_size", cfg.MaxSize),
		zap.Duration("ttl", cfg.TTL),
		zap.Duration("cleanup_interval", cfg.CleanupInterval),
	)
	return m
}

// Get 取得會話並延長存活時間
func (m *Manager) Get(id string) (*Controller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.store[id]
	if !ok {
		m.stats.misses++
		return nil, false
	}
	now := time.Now()
	if now.After(e.expiresAt) {
		m.removeLocked(id, e)
		m.stats.expired++
		m.stats.misses++
		return nil, false
	}

	e.lastAccess = now
	e.expiresAt = now.Add(m.cfg.TTL)
	e.accessCount++
	m.stats.hits++
	return e.ctrl, true
}

// GetOrCreate 取得會話，不存在時以新 id 建立。回傳實際使用的 id。
func (m *Manager) GetOrCreate(id string) (string, *Controller) {
	if id != "" {
		if ctrl, ok := m.Get(id); ok {
			return id, ctrl
		}
	}

	id = common.GenerateUUID()
	ctrl := m.factory()
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.store) >= m.cfg.MaxSize {
		m.cleanupLocked()
		for len(m.store) > 0 && len(m.store) >= m.cfg.MaxSize {
			m.evictLRULocked()
		}
	}

	m.store[id] = &entry{
		ctrl:       ctrl,
		expiresAt:  now.Add(m.cfg.TTL),
		createdAt:  now,
		lastAccess: now,
	}
	m.stats.created++
	common.LogDebug("session created", zap.Int("size", len(m.store)))
	return id, ctrl
}

// Delete 移除會話並關閉其 Controller
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.store[id]; ok {
		m.removeLocked(id, e)
	}
}

// Len 目前會話數量
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.store)
}

func (m *Manager) removeLocked(id string, e *entry) {
	delete(m.store, id)
	e.ctrl.Close()
}

// startCleanup 定期清理過期會話
func (m *Manager) startCleanup() {
	ticker := time.NewTicker(m.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			m.cleanupLocked()
			m.mu.Unlock()
		case <-m.stop:
			return
		}
	}
}

// cleanupLocked 清理過期的會話
func (m *Manager) cleanupLocked() int {
	now := time.Now()
	count := 0

	for id, e := range m.store {
		if now.After(e.expiresAt) {
			m.removeLocked(id, e)
			count++
			m.stats.expired++
		}
	}

	if count > 0 {
		common.LogInfo("Cleaned up expired sessions",
			zap.Int("count", count),
			zap.Int64("total_expired", m.stats.expired),
			zap.Int("remaining_size", len(m.store)),
		)
	}
	return count
}

// evictLRULocked 淘汰最久未存取的會話
func (m *Manager) evictLRULocked() {
	var (
		oldestID string
		oldest   *entry
	)

	for id, e := range m.store {
		if oldest == nil || e.lastAccess.Before(oldest.lastAccess) {
			oldestID = id
			oldest = e
		}
	}

	if oldest != nil {
		m.removeLocked(oldestID, oldest)
		m.stats.evictions++
		common.LogInfo("會話已淘汰(LRU)",
			zap.Int("access_count", oldest.accessCount),
			zap.Duration("idle", time.Since(oldest.lastAccess)),
		)
	}
}

// GetStats 獲取會話統計信息
func (m *Manager) GetStats() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	return map[string]interface{}{
		"size":      len(m.store),
		"max_size":  m.cfg.MaxSize,
		"created":   m.stats.created,
		"hits":      m.stats.hits,
		"misses":    m.stats.misses,
		"evictions": m.stats.evictions,
		"expired":   m.stats.expired,
	}
}

// Close 停止清理並關閉所有會話
func (m *Manager) Close() error {
	m.stopOnce.Do(func() { close(m.stop) })

	m.mu.Lock()
	defer m.mu.Unlock()

	for id, e := range m.store {
		m.removeLocked(id, e)
	}
	common.LogInfo("會話管理員已關閉",
		zap.Int64("created", m.stats.created),
		zap.Int64("evictions", m.stats.evictions),
		zap.Int64("expired", m.stats.expired),
	)
	return nil
}
