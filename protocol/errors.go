// Package protocol 定义认证接口的错误码和应答格式
package protocol

import "fmt"

// 错误码常量
const (
	// 成功
	ErrCodeSuccess = 0

	// 认证错误 (401xx)
	ErrCodeUnauthorized    = 40100 // 未授权
	ErrCodeNoCertificate   = 40101 // 未提交客户端证书
	ErrCodeInvalidCert     = 40102 // 证书无法解析
	ErrCodeNoMatchingEntry = 40103 // 目录中无匹配条目
	ErrCodeNoStoredCert    = 40104 // 条目无存储证书
	ErrCodeCertMismatch    = 40105 // 证书与存储副本不一致

	// 请求错误 (400xx)
	ErrCodeInvalidRequest = 40000 // 无效请求
	ErrCodeMissingToken   = 40001 // 缺少流程 Token

	// 资源错误 (404xx)
	ErrCodeNotFound    = 40400 // 资源不存在
	ErrCodeNoSuchState = 40402 // 挂起状态不存在或已过期

	// 服务错误 (503xx)
	ErrCodeServiceUnavail   = 50300 // 服务不可用
	ErrCodeDirectoryUnavail = 50301 // 目录服务不可用
)

// Error 认证协议错误
type Error struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error 实现 error 接口
func (e *Error) Error() string {
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// NewError 创建新错误
func NewError(code int, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WrapError 包装已有错误
func WrapError(code int, err error) *Error {
	return &Error{
		Code:    code,
		Message: err.Error(),
		Details: make(map[string]interface{}),
	}
}

// WithDetails 添加详细信息
func (e *Error) WithDetails(key string, value interface{}) *Error {
	e.Details[key] = value
	return e
}

// HTTPStatus 返回错误码对应的 HTTP 状态码
func (e *Error) HTTPStatus() int {
	switch {
	case e.Code == ErrCodeSuccess:
		return 200
	case e.Code >= 50300:
		return 503
	case e.Code >= 40400:
		return 404
	case e.Code >= 40100 && e.Code < 40200:
		return 401
	default:
		return 400
	}
}
