package logging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestAuditLogger(t *testing.T) *FileAuditLogger {
	t.Helper()

	tmpFile := filepath.Join(t.TempDir(), "audit.log")

	logger, err := NewLogger(&Config{Level: "error", Format: "json", Output: "stdout"})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	auditLogger, err := NewFileAuditLogger(tmpFile, logger)
	if err != nil {
		t.Fatalf("Failed to create audit logger: %v", err)
	}
	t.Cleanup(func() { auditLogger.Close() })

	return auditLogger
}

func TestFileAuditLogger_LogAuth(t *testing.T) {
	auditLogger := newTestAuditLogger(t)

	event := &AuthEvent{
		Subject:  "CN=alice,O=Example",
		EntryDN:  "uid=alice,ou=people,dc=example,dc=org",
		SourceIP: "192.168.1.100",
		Result:   "denied",
		Reason:   "certificate_mismatch",
	}

	if err := auditLogger.LogAuth(context.Background(), event); err != nil {
		t.Fatalf("LogAuth failed: %v", err)
	}

	// 验证文件已写入
	data, err := os.ReadFile(auditLogger.outputPath)
	if err != nil {
		t.Fatalf("Failed to read audit file: %v", err)
	}
	if len(data) == 0 {
		t.Error("Audit file is empty")
	}
}

func TestFileAuditLogger_LogAuthNil(t *testing.T) {
	auditLogger := newTestAuditLogger(t)

	if err := auditLogger.LogAuth(context.Background(), nil); err == nil {
		t.Error("Expected error for nil event, got nil")
	}
}

func TestFileAuditLogger_LogFlow(t *testing.T) {
	auditLogger := newTestAuditLogger(t)

	event := &FlowEvent{
		Token:    "abc123",
		Stage:    "expirywarning",
		Action:   "suspend",
		DaysLeft: 10,
	}

	if err := auditLogger.LogFlow(context.Background(), event); err != nil {
		t.Fatalf("LogFlow failed: %v", err)
	}
}

func TestFileAuditLogger_Query(t *testing.T) {
	auditLogger := newTestAuditLogger(t)
	ctx := context.Background()

	events := []*AuthEvent{
		{Subject: "CN=alice", Result: "success"},
		{Subject: "CN=bob", Result: "denied", Reason: "no_matching_entry"},
		{Subject: "CN=carol", Result: "denied", Reason: "certificate_mismatch"},
	}
	for _, e := range events {
		if err := auditLogger.LogAuth(ctx, e); err != nil {
			t.Fatalf("LogAuth failed: %v", err)
		}
	}

	// 按结果过滤
	denied, err := auditLogger.Query(ctx, &AuditFilter{Result: "denied"})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(denied) != 2 {
		t.Errorf("Expected 2 denied events, got %d", len(denied))
	}

	// 按原因过滤
	mismatch, err := auditLogger.Query(ctx, &AuditFilter{Reason: "certificate_mismatch"})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(mismatch) != 1 {
		t.Errorf("Expected 1 mismatch event, got %d", len(mismatch))
	}

	// Limit 生效
	limited, err := auditLogger.Query(ctx, &AuditFilter{Limit: 1})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("Expected 1 event with limit, got %d", len(limited))
	}
}

func TestFileAuditLogger_QueryTimeRange(t *testing.T) {
	auditLogger := newTestAuditLogger(t)
	ctx := context.Background()

	old := &AuthEvent{
		Timestamp: time.Now().Add(-2 * time.Hour),
		Subject:   "CN=old",
		Result:    "success",
	}
	recent := &AuthEvent{
		Subject: "CN=recent",
		Result:  "success",
	}

	auditLogger.LogAuth(ctx, old)
	auditLogger.LogAuth(ctx, recent)

	results, err := auditLogger.Query(ctx, &AuditFilter{
		StartTime: time.Now().Add(-1 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("Expected 1 event in range, got %d", len(results))
	}
}
