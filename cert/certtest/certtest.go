// Package certtest provides helpers for minting throwaway certificates in tests.
package certtest

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/pem"
	"math/big"
	"testing"
	"time"
)

// oidUID RFC 4519 uid 属性
var oidUID = asn1.ObjectIdentifier{0, 9, 2342, 19200300, 100, 1, 1}

// Options 证书生成选项
type Options struct {
	CommonName string
	UID        string
	Org        string
	NotBefore  time.Time
	NotAfter   time.Time
	Serial     int64
}

// Mint 生成一张自签名证书，返回 DER 编码和解析后的证书
func Mint(t *testing.T, opts Options) ([]byte, *x509.Certificate) {
	t.Helper()

	if opts.Serial == 0 {
		opts.Serial = 1
	}
	if opts.NotBefore.IsZero() {
		opts.NotBefore = time.Now().Add(-time.Hour)
	}
	if opts.NotAfter.IsZero() {
		opts.NotAfter = time.Now().Add(365 * 24 * time.Hour)
	}

	subject := pkix.Name{CommonName: opts.CommonName}
	if opts.Org != "" {
		subject.Organization = []string{opts.Org}
	}
	if opts.UID != "" {
		subject.ExtraNames = append(subject.ExtraNames, pkix.AttributeTypeAndValue{
			Type:  oidUID,
			Value: opts.UID,
		})
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	template := &x509.Certificate{
		SerialNumber: big.NewInt(opts.Serial),
		Subject:      subject,
		NotBefore:    opts.NotBefore,
		NotAfter:     opts.NotAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}

	parsed, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse minted certificate: %v", err)
	}

	return der, parsed
}

// MintPEM 生成 PEM 编码的自签名证书
func MintPEM(t *testing.T, opts Options) []byte {
	t.Helper()

	der, _ := Mint(t, opts)
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
}
