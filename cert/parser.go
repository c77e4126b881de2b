package cert

import (
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/pem"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidCertificate 证书字节存在但无法解码
var ErrInvalidCertificate = errors.New("invalid certificate")

// 主题属性 OID 映射表
// 覆盖常见的 RDN 类型；未知 OID 以点分字符串形式保留
var subjectOIDNames = map[string]string{
	"2.5.4.3":                    "CN",
	"2.5.4.5":                    "serialNumber",
	"2.5.4.6":                    "C",
	"2.5.4.7":                    "L",
	"2.5.4.8":                    "ST",
	"2.5.4.9":                    "street",
	"2.5.4.10":                   "O",
	"2.5.4.11":                   "OU",
	"0.9.2342.19200300.100.1.1":  "UID",
	"0.9.2342.19200300.100.1.25": "DC",
	"1.2.840.113549.1.9.1":       "emailAddress",
}

// ParsedCertificate 解析后的证书（不可变）
// Subject 为属性类型名到取值的映射；NotAfter 为有效期截止时间
type ParsedCertificate struct {
	Subject  map[string]string
	NotAfter time.Time
	cert     *x509.Certificate
}

// Parse 解析客户端出示的证书字节（DER 或 PEM）
// 字节无法解码时返回 ErrInvalidCertificate；字节缺失由调用方处理
func Parse(raw []byte) (*ParsedCertificate, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidCertificate)
	}

	der := raw
	if block, _ := pem.Decode(raw); block != nil {
		if block.Type != "CERTIFICATE" {
			return nil, fmt.Errorf("%w: unexpected PEM block %q", ErrInvalidCertificate, block.Type)
		}
		der = block.Bytes
	}

	c, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCertificate, err)
	}

	return FromX509(c), nil
}

// FromX509 从已解析的 x509 证书构建（传输层已完成 TLS 握手时使用）
func FromX509(c *x509.Certificate) *ParsedCertificate {
	return &ParsedCertificate{
		Subject:  subjectAttributes(c.Subject),
		NotAfter: c.NotAfter,
		cert:     c,
	}
}

// subjectAttributes 提取主题 RDN 为属性映射
// 同名多值时保留第一个出现的值
func subjectAttributes(name pkix.Name) map[string]string {
	attrs := make(map[string]string)
	for _, atv := range name.Names {
		attrName := oidName(atv.Type)
		value, ok := atv.Value.(string)
		if !ok {
			continue
		}
		if _, exists := attrs[attrName]; !exists {
			attrs[attrName] = value
		}
	}
	return attrs
}

// oidName OID 到属性类型名
func oidName(oid asn1.ObjectIdentifier) string {
	s := oid.String()
	if name, ok := subjectOIDNames[s]; ok {
		return name
	}
	return s
}

// SubjectString 返回主题的 DN 字符串表示（用于日志和审计）
func (p *ParsedCertificate) SubjectString() string {
	return p.cert.Subject.String()
}

// Equal 判断两张证书是否相同
// 按原始 DER 字节比较，等价于解析后全字段结构相等且不受扩展顺序影响
func (p *ParsedCertificate) Equal(other *ParsedCertificate) bool {
	if p == nil || other == nil {
		return false
	}
	return p.cert.Equal(other.cert)
}

// X509 返回底层 x509 证书
func (p *ParsedCertificate) X509() *x509.Certificate {
	return p.cert
}
