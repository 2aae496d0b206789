package issuer

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"os"
	"time"

	"tarameteo/internal/apperr"
)

// CA: ключ и сертификат, которыми подписываются сертификаты устройств.
type CA struct {
	Cert    *x509.Certificate
	CertPEM []byte // как есть, отдаётся клиенту в ca_pem
	Key     crypto.Signer
}

// CASource отдаёт текущий CA. Реализации не кешируют материал между вызовами.
type CASource interface {
	Load(ctx context.Context) (*CA, error)
}

// ParseCA разбирает сертификат и ключ и проверяет, что они парные.
func ParseCA(certPEM, keyPEM []byte) (*CA, error) {
	block, _ := pem.Decode(certPEM)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, errors.New("no CERTIFICATE block in CA certificate")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse CA certificate: %w", err)
	}
	if !cert.IsCA {
		return nil, errors.New("CA certificate is not marked as CA")
	}
	key, err := ParseKeyPEM(keyPEM)
	if err != nil {
		return nil, fmt.Errorf("CA key: %w", err)
	}
	pub, ok := key.Public().(interface{ Equal(crypto.PublicKey) bool })
	if !ok || !pub.Equal(cert.PublicKey) {
		return nil, errors.New("CA key does not match CA certificate")
	}
	return &CA{Cert: cert, CertPEM: certPEM, Key: key}, nil
}

// FileCASource читает оба файла на каждый запрос: замена файлов
// подхватывается без рестарта.
type FileCASource struct {
	KeyPath  string
	CertPath string
}

func (s FileCASource) Load(ctx context.Context) (*CA, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Wrap(apperr.CryptoUnavailable, err, "CA material unavailable")
	}
	certPEM, err := os.ReadFile(s.CertPath)
	if err != nil {
		return nil, apperr.Wrap(apperr.CryptoUnavailable, err, "CA material unavailable")
	}
	keyPEM, err := os.ReadFile(s.KeyPath)
	if err != nil {
		return nil, apperr.Wrap(apperr.CryptoUnavailable, err, "CA material unavailable")
	}
	ca, err := ParseCA(certPEM, keyPEM)
	if err != nil {
		return nil, apperr.Wrap(apperr.CryptoUnavailable, err, "CA material unavailable")
	}
	return ca, nil
}

// StaticCASource: CA в памяти (тесты, встраивание).
type StaticCASource struct {
	CA *CA
}

func (s StaticCASource) Load(context.Context) (*CA, error) {
	if s.CA == nil {
		return nil, apperr.New(apperr.CryptoUnavailable, "CA material unavailable")
	}
	return s.CA, nil
}

// NewSelfSignedCA выпускает корневой CA. Возвращает CA и его ключ в PKCS#8 PEM.
func NewSelfSignedCA(cn string, ttl time.Duration, keys KeyFactory, now time.Time) (*CA, []byte, error) {
	key, err := keys.NewKey()
	if err != nil {
		return nil, nil, fmt.Errorf("generate CA key: %w", err)
	}
	serial, err := newSerial()
	if err != nil {
		return nil, nil, err
	}
	tpl := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: cn},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(ttl),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
		MaxPathLenZero:        true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tpl, tpl, key.Public(), key)
	if err != nil {
		return nil, nil, fmt.Errorf("self-sign CA: %w", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, nil, err
	}
	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal CA key: %w", err)
	}
	ca := &CA{
		Cert:    cert,
		CertPEM: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		Key:     key,
	}
	return ca, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER}), nil
}

// WriteCAFiles сохраняет CA на диск; ключ: с правами 0600.
// Существующие файлы не перезаписываются.
func WriteCAFiles(ca *CA, keyPEM []byte, certPath, keyPath string) error {
	if err := writeNew(keyPath, keyPEM, 0o600); err != nil {
		return err
	}
	if err := writeNew(certPath, ca.CertPEM, 0o644); err != nil {
		_ = os.Remove(keyPath)
		return err
	}
	return nil
}

func writeNew(path string, data []byte, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// serialLimit = 2^159: положительный серийник не длиннее 20 байт DER.
var serialLimit = new(big.Int).Lsh(big.NewInt(1), 159)

func newSerial() (*big.Int, error) {
	for {
		n, err := rand.Int(rand.Reader, serialLimit)
		if err != nil {
			return nil, fmt.Errorf("serial number: %w", err)
		}
		if n.Sign() > 0 {
			return n, nil
		}
	}
}
