package cert

import (
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"os"
	"time"
)

// Config 证书管理器配置
type Config struct {
	CertFile string // 服务端证书文件路径
	KeyFile  string // 私钥文件路径
	CAFile   string // 客户端 CA 证书文件路径
}

// Manager 证书管理器（无状态）
// 为 mTLS 终止边界提供本地证书材料：核心只解析客户端证书内容，
// 证书真实性由此处构建的 TLS 配置在握手阶段保证
type Manager struct {
	certFile     string
	keyFile      string
	caFile       string
	cert         *tls.Certificate
	x509Cert     *x509.Certificate
	clientCAPool *x509.CertPool
}

// NewManager 创建证书管理器
func NewManager(config *Config) (*Manager, error) {
	if config.CertFile == "" || config.KeyFile == "" {
		return nil, fmt.Errorf("cert_file and key_file are required")
	}

	// 加载证书和私钥
	cert, err := tls.LoadX509KeyPair(config.CertFile, config.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("load certificate: %w", err)
	}

	// 解析X.509证书
	x509Cert, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("parse certificate: %w", err)
	}

	// 加载客户端 CA 证书池
	var caPool *x509.CertPool
	if config.CAFile != "" {
		caPool = x509.NewCertPool()
		caData, err := os.ReadFile(config.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read CA file: %w", err)
		}
		if !caPool.AppendCertsFromPEM(caData) {
			return nil, fmt.Errorf("append CA certs failed")
		}
	}

	return &Manager{
		certFile:     config.CertFile,
		keyFile:      config.KeyFile,
		caFile:       config.CAFile,
		cert:         &cert,
		x509Cert:     x509Cert,
		clientCAPool: caPool,
	}, nil
}

// GetFingerprint 获取证书指纹（SHA256）
func (m *Manager) GetFingerprint() string {
	hash := sha256.Sum256(m.x509Cert.Raw)
	return "sha256:" + hex.EncodeToString(hash[:])
}

// GetTLSConfig 生成服务端 TLS 配置
// 配置了客户端 CA 时强制要求并校验客户端证书，
// 握手通过后的对端证书即为解析器的输入
func (m *Manager) GetTLSConfig() *tls.Config {
	config := &tls.Config{
		Certificates: []tls.Certificate{*m.cert},
		MinVersion:   tls.VersionTLS12,
	}

	if m.clientCAPool != nil {
		config.ClientCAs = m.clientCAPool
		config.ClientAuth = tls.RequireAndVerifyClientCert
	}

	return config
}

// GetX509Certificate 获取X.509证书
func (m *Manager) GetX509Certificate() *x509.Certificate {
	return m.x509Cert
}

// DaysUntilExpiry 获取证书到期天数
func (m *Manager) DaysUntilExpiry() int {
	duration := time.Until(m.x509Cert.NotAfter)
	return int(duration.Hours() / 24)
}

// GetCertInfo 获取证书信息
func (m *Manager) GetCertInfo() *CertInfo {
	return &CertInfo{
		Fingerprint: m.GetFingerprint(),
		Subject:     m.x509Cert.Subject.String(),
		Issuer:      m.x509Cert.Issuer.String(),
		NotBefore:   m.x509Cert.NotBefore,
		NotAfter:    m.x509Cert.NotAfter,
		Status:      m.getCertStatus(),
	}
}

// getCertStatus 获取证书状态
func (m *Manager) getCertStatus() CertStatus {
	now := time.Now()
	if now.Before(m.x509Cert.NotBefore) || now.After(m.x509Cert.NotAfter) {
		return StatusExpired
	}
	if m.DaysUntilExpiry() <= 30 {
		return StatusExpiring
	}
	return StatusActive
}
