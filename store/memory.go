// Package store 提供挂起状态的存储实现
// 内存实现适用于单实例部署，数据库实现支持多实例共享
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/houzhh15/certauth/flow"
	"github.com/houzhh15/certauth/logging"
)

// stateRecord 一条挂起状态记录
type stateRecord struct {
	payload   map[string]interface{}
	createdAt time.Time
	expiresAt time.Time
}

// MemoryStore 内存状态存储
// 过期状态由定期清理回收；被放弃的挂起（从未恢复）靠 TTL 兜底
type MemoryStore struct {
	states          map[string]*stateRecord // stage+"/"+token -> record
	mu              sync.RWMutex
	ttl             time.Duration
	cleanupInterval time.Duration
	logger          logging.Logger
	stopChan        chan struct{}
}

// MemoryConfig 内存存储配置
type MemoryConfig struct {
	TTL             time.Duration // 状态有效期，默认 3600s
	CleanupInterval time.Duration // 清理间隔，默认 300s (5分钟)
}

// NewMemoryStore 创建内存状态存储
func NewMemoryStore(cfg *MemoryConfig, logger logging.Logger) *MemoryStore {
	if cfg == nil {
		cfg = &MemoryConfig{}
	}
	if cfg.TTL == 0 {
		cfg.TTL = 3600 * time.Second // 默认 1 小时
	}
	if cfg.CleanupInterval == 0 {
		cfg.CleanupInterval = 300 * time.Second // 默认 5 分钟
	}

	return &MemoryStore{
		states:          make(map[string]*stateRecord),
		ttl:             cfg.TTL,
		cleanupInterval: cfg.CleanupInterval,
		logger:          logger,
		stopChan:        make(chan struct{}),
	}
}

// Save 以新生成的 Token 保存状态
func (s *MemoryStore) Save(ctx context.Context, stage string, payload map[string]interface{}) (string, error) {
	if stage == "" {
		return "", fmt.Errorf("stage is required")
	}

	token, err := generateToken()
	if err != nil {
		return "", fmt.Errorf("generate token failed: %w", err)
	}

	now := time.Now()
	record := &stateRecord{
		payload:   payload,
		createdAt: now,
		expiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	s.states[stage+"/"+token] = record
	s.mu.Unlock()

	s.logger.Debug("Flow state saved",
		"token", token,
		"stage", stage,
		"expires_at", record.expiresAt.Format(time.RFC3339),
	)

	return token, nil
}

// Load 按 (token, stage) 读取状态
// 不存在或已过期返回 flow.ErrStateNotFound
func (s *MemoryStore) Load(ctx context.Context, token, stage string) (map[string]interface{}, error) {
	s.mu.RLock()
	record, ok := s.states[stage+"/"+token]
	s.mu.RUnlock()

	if !ok {
		return nil, flow.ErrStateNotFound
	}
	if time.Now().After(record.expiresAt) {
		return nil, flow.ErrStateNotFound
	}

	return record.payload, nil
}

// StartCleanup 启动定期清理
func (s *MemoryStore) StartCleanup(ctx context.Context) {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	s.logger.Info("Flow state cleanup started",
		"interval", s.cleanupInterval.String(),
	)

	for {
		select {
		case <-ticker.C:
			s.cleanExpired()
		case <-ctx.Done():
			s.logger.Info("Flow state cleanup stopped (context done)")
			return
		case <-s.stopChan:
			s.logger.Info("Flow state cleanup stopped (manual)")
			return
		}
	}
}

// StopCleanup 停止清理
func (s *MemoryStore) StopCleanup() {
	close(s.stopChan)
}

// cleanExpired 清理过期状态
func (s *MemoryStore) cleanExpired() {
	now := time.Now()
	expired := make([]string, 0)

	s.mu.RLock()
	for key, record := range s.states {
		if now.After(record.expiresAt) {
			expired = append(expired, key)
		}
	}
	s.mu.RUnlock()

	if len(expired) == 0 {
		return
	}

	s.mu.Lock()
	for _, key := range expired {
		delete(s.states, key)
	}
	s.mu.Unlock()

	s.logger.Info("Cleaned up expired flow states",
		"count", len(expired),
	)
}

// GetStats 获取统计信息
func (s *MemoryStore) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	activeCount := 0
	expiredCount := 0
	now := time.Now()

	for _, record := range s.states {
		if now.Before(record.expiresAt) {
			activeCount++
		} else {
			expiredCount++
		}
	}

	return map[string]interface{}{
		"total":   len(s.states),
		"active":  activeCount,
		"expired": expiredCount,
	}
}
