package logging

import "time"

// AuthEvent 认证事件
// 用于记录一次证书认证（解析 → 目录匹配 → 交叉校验）的最终结果
type AuthEvent struct {
	Timestamp time.Time              `json:"timestamp"`
	Subject   string                 `json:"subject"`  // 证书主题（可能为空，证书无法解析时）
	EntryDN   string                 `json:"entry_dn"` // 匹配到的目录条目 DN（可能为空）
	SourceIP  string                 `json:"source_ip"`
	Result    string                 `json:"result"` // "success", "denied"
	Reason    string                 `json:"reason,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// FlowEvent 流程事件
// 用于记录过期告警流程的挂起和恢复操作
type FlowEvent struct {
	Timestamp time.Time              `json:"timestamp"`
	Token     string                 `json:"token"`
	Stage     string                 `json:"stage"`
	Action    string                 `json:"action"` // "suspend", "resume", "render"
	DaysLeft  int                    `json:"days_left,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// SecurityEvent 安全事件
// 用于记录安全相关的异常和告警
type SecurityEvent struct {
	Timestamp time.Time              `json:"timestamp"`
	Subject   string                 `json:"subject"`
	EventType SecurityEventType      `json:"event_type"`
	Severity  Severity               `json:"severity"` // "low", "medium", "high", "critical"
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// SecurityEventType 安全事件类型
type SecurityEventType string

const (
	EventCertInvalid    SecurityEventType = "cert_invalid"
	EventCertExpiring   SecurityEventType = "cert_expiring"
	EventCertMismatch   SecurityEventType = "cert_mismatch"
	EventStaleToken     SecurityEventType = "stale_token"
	EventMalformedToken SecurityEventType = "malformed_token"
)

// Severity 严重程度
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// AuditFilter 审计日志查询过滤器
type AuditFilter struct {
	Subject   string            `json:"subject,omitempty"`
	EntryDN   string            `json:"entry_dn,omitempty"`
	Result    string            `json:"result,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	EventType SecurityEventType `json:"event_type,omitempty"`
	Severity  Severity          `json:"severity,omitempty"`
	StartTime time.Time         `json:"start_time,omitempty"`
	EndTime   time.Time         `json:"end_time,omitempty"`
	Limit     int               `json:"limit,omitempty"`
	Offset    int               `json:"offset,omitempty"`
}

// AuditLog 审计日志记录
// 通用审计日志结构，可以包含任意类型的事件
type AuditLog struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	EventType string                 `json:"event_type"` // "auth", "flow", "security"
	Data      interface{}            `json:"data"`
	Indexed   map[string]interface{} `json:"indexed,omitempty"` // 用于快速查询的索引字段
}
