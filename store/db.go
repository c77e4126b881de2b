package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/houzhh15/certauth/flow"
	"github.com/houzhh15/certauth/logging"
)

// flowStateModel 数据库模型（用于 GORM）
type flowStateModel struct {
	ID          uint   `gorm:"primarykey"`
	Token       string `gorm:"uniqueIndex:idx_token_stage"`
	Stage       string `gorm:"uniqueIndex:idx_token_stage"`
	PayloadJSON string `gorm:"type:text"` // JSON 序列化的工作状态
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

func (flowStateModel) TableName() string {
	return "flow_states"
}

// DBStore 数据库状态存储
// 多实例部署时共享同一后端，挂起和恢复可以落在不同实例上
type DBStore struct {
	db     *gorm.DB
	ttl    time.Duration
	logger logging.Logger
}

// NewDBStore 创建数据库状态存储
func NewDBStore(db *gorm.DB, ttl time.Duration, logger logging.Logger) (*DBStore, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}
	if ttl == 0 {
		ttl = 3600 * time.Second
	}

	// 自动迁移
	if err := db.AutoMigrate(&flowStateModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate flow_states table: %w", err)
	}

	return &DBStore{db: db, ttl: ttl, logger: logger}, nil
}

// Save 以新生成的 Token 保存状态
func (s *DBStore) Save(ctx context.Context, stage string, payload map[string]interface{}) (string, error) {
	if stage == "" {
		return "", fmt.Errorf("stage is required")
	}

	token, err := generateToken()
	if err != nil {
		return "", fmt.Errorf("generate token failed: %w", err)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	model := &flowStateModel{
		Token:       token,
		Stage:       stage,
		PayloadJSON: string(data),
		ExpiresAt:   time.Now().Add(s.ttl),
	}

	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		return "", fmt.Errorf("save flow state: %w", err)
	}

	s.logger.Debug("Flow state saved",
		"token", token,
		"stage", stage,
		"expires_at", model.ExpiresAt.Format(time.RFC3339),
	)

	return token, nil
}

// Load 按 (token, stage) 读取状态
// 不存在或已过期返回 flow.ErrStateNotFound
// 注意：JSON 反序列化会把整数变成 float64，读取方需要容忍
func (s *DBStore) Load(ctx context.Context, token, stage string) (map[string]interface{}, error) {
	var model flowStateModel
	result := s.db.WithContext(ctx).Where("token = ? AND stage = ?", token, stage).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, flow.ErrStateNotFound
		}
		return nil, fmt.Errorf("load flow state: %w", result.Error)
	}

	if time.Now().After(model.ExpiresAt) {
		return nil, flow.ErrStateNotFound
	}

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(model.PayloadJSON), &payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	return payload, nil
}

// DeleteExpired 删除过期状态，返回删除条数
// 由部署方定期调用（或配合 cron），这是存储侧的回收职责
func (s *DBStore) DeleteExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Where("expires_at < ?", time.Now()).Delete(&flowStateModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("delete expired flow states: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		s.logger.Info("Deleted expired flow states",
			"count", result.RowsAffected,
		)
	}

	return result.RowsAffected, nil
}
