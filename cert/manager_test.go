package cert

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeKeyPair 生成并写入自签名证书和私钥文件
func writeKeyPair(t *testing.T, dir string, notAfter time.Time) (certFile, keyFile string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "test-server"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     notAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		IsCA:         true,
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}

	certFile = filepath.Join(dir, "server.crt")
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	if err := os.WriteFile(certFile, certPEM, 0644); err != nil {
		t.Fatalf("write cert: %v", err)
	}

	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	keyFile = filepath.Join(dir, "server.key")
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	if err := os.WriteFile(keyFile, keyPEM, 0600); err != nil {
		t.Fatalf("write key: %v", err)
	}

	return certFile, keyFile
}

func TestNewManager(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeKeyPair(t, dir, time.Now().Add(365*24*time.Hour))

	manager, err := NewManager(&Config{CertFile: certFile, KeyFile: keyFile})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if manager.GetX509Certificate() == nil {
		t.Error("Expected parsed x509 certificate")
	}
}

func TestNewManagerMissingFiles(t *testing.T) {
	if _, err := NewManager(&Config{}); err == nil {
		t.Error("Expected error for missing cert/key paths")
	}

	if _, err := NewManager(&Config{CertFile: "/nonexistent.crt", KeyFile: "/nonexistent.key"}); err == nil {
		t.Error("Expected error for nonexistent files")
	}
}

func TestGetFingerprint(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeKeyPair(t, dir, time.Now().Add(365*24*time.Hour))

	manager, err := NewManager(&Config{CertFile: certFile, KeyFile: keyFile})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	fp := manager.GetFingerprint()
	// sha256: 前缀 + 64 字符十六进制
	if len(fp) != len("sha256:")+64 {
		t.Errorf("Unexpected fingerprint format: %s", fp)
	}
}

func TestGetTLSConfigWithClientCA(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeKeyPair(t, dir, time.Now().Add(365*24*time.Hour))

	// 无 CA 时不要求客户端证书
	manager, err := NewManager(&Config{CertFile: certFile, KeyFile: keyFile})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if manager.GetTLSConfig().ClientAuth != tls.NoClientCert {
		t.Error("Expected no client cert requirement without CA")
	}

	// 配置 CA 时强制客户端证书
	manager, err = NewManager(&Config{CertFile: certFile, KeyFile: keyFile, CAFile: certFile})
	if err != nil {
		t.Fatalf("NewManager with CA failed: %v", err)
	}
	if manager.GetTLSConfig().ClientAuth != tls.RequireAndVerifyClientCert {
		t.Error("Expected RequireAndVerifyClientCert with CA configured")
	}
}

func TestGetCertInfoStatus(t *testing.T) {
	dir := t.TempDir()

	// 即将过期（10 天）
	certFile, keyFile := writeKeyPair(t, dir, time.Now().Add(10*24*time.Hour))
	manager, err := NewManager(&Config{CertFile: certFile, KeyFile: keyFile})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	info := manager.GetCertInfo()
	if info.Status != StatusExpiring {
		t.Errorf("Expected status expiring, got %s", info.Status)
	}
	if manager.DaysUntilExpiry() > 10 {
		t.Errorf("Unexpected days until expiry: %d", manager.DaysUntilExpiry())
	}
}
