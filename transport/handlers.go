package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/houzhh15/certauth/auth"
	"github.com/houzhh15/certauth/cert"
	"github.com/houzhh15/certauth/flow"
	"github.com/houzhh15/certauth/logging"
	"github.com/houzhh15/certauth/protocol"
)

// Handler 认证接口处理器
// 把 mTLS 层提取的客户端证书送入过期过滤器和解析器，
// 并承载告警页的恢复入口
type Handler struct {
	resolver *auth.Resolver
	filter   *flow.ExpiryFilter // 为 nil 时不做过期拦截
	resume   *flow.ResumeController
	audit    logging.AuditLogger // 为 nil 时不记录审计
	logger   logging.Logger
	metrics  bool
}

// HandlerConfig 处理器配置
type HandlerConfig struct {
	Resolver      *auth.Resolver
	Filter        *flow.ExpiryFilter
	Resume        *flow.ResumeController
	Audit         logging.AuditLogger
	Logger        logging.Logger
	EnableMetrics bool
}

// NewHandler 创建处理器
func NewHandler(cfg *HandlerConfig) (*Handler, error) {
	if cfg == nil || cfg.Resolver == nil {
		return nil, errors.New("resolver is required")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Handler{
		resolver: cfg.Resolver,
		filter:   cfg.Filter,
		resume:   cfg.Resume,
		audit:    cfg.Audit,
		logger:   cfg.Logger,
		metrics:  cfg.EnableMetrics,
	}, nil
}

// Routes 组装路由
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/authenticate", h.handleAuthenticate)
	mux.HandleFunc("/cert-warning", h.handleWarning)
	mux.HandleFunc("/healthz", h.handleHealthz)
	if h.metrics {
		mux.Handle("/metrics", promhttp.Handler())
	}
	return mux
}

// handleAuthenticate 证书认证入口
// 客户端证书来自 TLS 握手；passive=true 表示无交互流程，不做过期拦截
func (h *Handler) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	sourceIP := remoteIP(r)

	// 未提交客户端证书
	if r.TLS == nil || len(r.TLS.PeerCertificates) == 0 {
		h.auditAuth(ctx, "", "", sourceIP, auth.ReasonNoCertificate)
		h.record(string(auth.ReasonNoCertificate), start)
		writeError(w, protocol.NewError(protocol.ErrCodeNoCertificate, "no client certificate presented"))
		return
	}

	parsed := cert.FromX509(r.TLS.PeerCertificates[0])
	passive := r.URL.Query().Get("passive") == "true"

	// 过期拦截：临期证书挂起认证，重定向到告警页
	if h.filter != nil && !passive {
		state := map[string]interface{}{
			"subject":   parsed.SubjectString(),
			"source_ip": sourceIP,
		}
		decision, err := h.filter.InspectParsed(ctx, parsed, state)
		if err != nil {
			h.logger.Error("Expiry filter failed", "error", err)
			writeError(w, protocol.WrapError(protocol.ErrCodeServiceUnavail, err))
			return
		}
		if !decision.Continue() {
			daysLeft, _ := state[flow.StateKeyDaysLeft].(int)
			h.auditFlow(ctx, decision.Token, "suspend", daysLeft)
			h.auditSecurity(ctx, parsed.SubjectString(), logging.EventCertExpiring, logging.SeverityMedium,
				"certificate close to expiry, authentication suspended")
			if h.metrics {
				recordSuspension()
			}
			http.Redirect(w, r, decision.RedirectURL, http.StatusFound)
			return
		}
	}

	result, err := h.resolver.ResolveParsed(ctx, parsed)
	if err != nil {
		h.logger.Error("Resolution failed", "subject", parsed.SubjectString(), "error", err)
		h.record("error", start)
		writeError(w, protocol.WrapError(protocol.ErrCodeDirectoryUnavail, err))
		return
	}

	if result.Success() {
		h.auditAuth(ctx, result.Subject, result.EntryDN, sourceIP, "")
		h.record("success", start)
		writeJSON(w, http.StatusOK, &protocol.AuthResponse{
			Subject:    result.Subject,
			EntryDN:    result.EntryDN,
			Attributes: result.Attributes,
		})
		return
	}

	h.auditAuth(ctx, result.Subject, result.EntryDN, sourceIP, result.Reason)
	switch result.Reason {
	case auth.ReasonInvalidCertificate:
		h.auditSecurity(ctx, result.Subject, logging.EventCertInvalid, logging.SeverityMedium,
			"presented certificate could not be parsed")
	case auth.ReasonCertificateMismatch:
		h.auditSecurity(ctx, result.Subject, logging.EventCertMismatch, logging.SeverityHigh,
			"presented certificate differs from the stored copy")
	}
	h.record(string(result.Reason), start)
	writeError(w, reasonError(result.Reason))
}

// handleWarning 告警页入口
// token 为挂起状态关联键；ack 标记出现（不论取值）即视为确认
func (h *Handler) handleWarning(w http.ResponseWriter, r *http.Request) {
	if h.resume == nil {
		writeError(w, protocol.NewError(protocol.ErrCodeNotFound, "warning flow is not enabled"))
		return
	}

	ctx := r.Context()
	q := r.URL.Query()
	token := q.Get("token")
	_, acked := q["ack"]

	disposition, err := h.resume.Handle(ctx, token, acked)
	if err != nil {
		switch {
		case errors.Is(err, flow.ErrMissingToken):
			recordOutcome(h.metrics, "missing_token")
			writeError(w, protocol.NewError(protocol.ErrCodeMissingToken, "missing continuation token"))
		case errors.Is(err, flow.ErrNoSuchState):
			h.auditSecurity(ctx, "", logging.EventStaleToken, logging.SeverityLow,
				"warning-page token maps to no suspended state")
			recordOutcome(h.metrics, "no_such_state")
			writeError(w, protocol.NewError(protocol.ErrCodeNoSuchState, "no state for continuation token"))
		default:
			h.logger.Error("Resume handling failed", "error", err)
			recordOutcome(h.metrics, "error")
			writeError(w, protocol.WrapError(protocol.ErrCodeServiceUnavail, err))
		}
		return
	}

	if disposition.Resumed {
		h.auditFlow(ctx, token, "resume", 0)
		recordOutcome(h.metrics, "resume")
		writeJSON(w, http.StatusOK, &protocol.ResumeResponse{
			Resumed: true,
			State:   disposition.State,
		})
		return
	}

	h.auditFlow(ctx, token, "render", disposition.DaysLeft)
	recordOutcome(h.metrics, "render")
	writeJSON(w, http.StatusOK, &protocol.WarningResponse{
		DaysLeft: disposition.DaysLeft,
		RenewURL: disposition.RenewURL,
		Token:    disposition.Token,
	})
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// reasonError 失败原因到协议错误的映射
func reasonError(reason auth.FailureReason) *protocol.Error {
	switch reason {
	case auth.ReasonNoCertificate:
		return protocol.NewError(protocol.ErrCodeNoCertificate, "no client certificate presented")
	case auth.ReasonInvalidCertificate:
		return protocol.NewError(protocol.ErrCodeInvalidCert, "client certificate could not be parsed")
	case auth.ReasonNoMatchingEntry:
		return protocol.NewError(protocol.ErrCodeNoMatchingEntry, "no directory entry matches the certificate")
	case auth.ReasonNoStoredCertificate:
		return protocol.NewError(protocol.ErrCodeNoStoredCert, "matched entry holds no stored certificate")
	case auth.ReasonCertificateMismatch:
		return protocol.NewError(protocol.ErrCodeCertMismatch, "presented certificate differs from stored copy")
	default:
		return protocol.NewError(protocol.ErrCodeUnauthorized, "authentication denied")
	}
}

func (h *Handler) record(result string, start time.Time) {
	if h.metrics {
		recordResolution(result, time.Since(start).Seconds())
	}
}

func recordOutcome(enabled bool, action string) {
	if enabled {
		recordFlowOutcome(action)
	}
}

func (h *Handler) auditAuth(ctx context.Context, subject, entryDN, sourceIP string, reason auth.FailureReason) {
	if h.audit == nil {
		return
	}
	result := "success"
	if reason != "" {
		result = "denied"
	}
	event := &logging.AuthEvent{
		Timestamp: time.Now(),
		Subject:   subject,
		EntryDN:   entryDN,
		SourceIP:  sourceIP,
		Result:    result,
		Reason:    string(reason),
	}
	if err := h.audit.LogAuth(ctx, event); err != nil {
		h.logger.Warn("Audit write failed", "error", err)
	}
}

func (h *Handler) auditFlow(ctx context.Context, token, action string, daysLeft int) {
	if h.audit == nil {
		return
	}
	event := &logging.FlowEvent{
		Timestamp: time.Now(),
		Token:     token,
		Stage:     flow.StageExpiryWarning,
		Action:    action,
		DaysLeft:  daysLeft,
	}
	if err := h.audit.LogFlow(ctx, event); err != nil {
		h.logger.Warn("Audit write failed", "error", err)
	}
}

func (h *Handler) auditSecurity(ctx context.Context, subject string, eventType logging.SecurityEventType, severity logging.Severity, message string) {
	if h.audit == nil {
		return
	}
	event := &logging.SecurityEvent{
		Timestamp: time.Now(),
		Subject:   subject,
		EventType: eventType,
		Severity:  severity,
		Message:   message,
	}
	if err := h.audit.LogSecurity(ctx, event); err != nil {
		h.logger.Warn("Audit write failed", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, e *protocol.Error) {
	writeJSON(w, e.HTTPStatus(), e)
}

// remoteIP 提取客户端地址（去掉端口）
func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
