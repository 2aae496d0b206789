// Package issuer выпускает короткоживущие клиентские сертификаты устройств.
// Ничего не хранит: ключ устройства отдаётся вызывающему и забывается.
package issuer

import (
	"context"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"tarameteo/internal/apperr"
	"tarameteo/internal/limiter"
	"tarameteo/internal/logs"
	"tarameteo/internal/validate"
)

// Backdate сдвигает начало срока действия назад на случай отстающих часов устройства.
const Backdate = 5 * time.Minute

type MintRequest struct {
	DeviceID string `json:"device_id" validate:"required,min=3,max=64,deviceid"`
	TTLDays  int    `json:"ttl_days" validate:"min=1,max=365"`
}

type MintResponse struct {
	KeyPEM    string    `json:"key_pem"`
	CertPEM   string    `json:"cert_pem"`
	CAPEM     string    `json:"ca_pem"`
	ExpiresAt time.Time `json:"expires_at"`
	Serial    string    `json:"serial"`
}

type Service struct {
	CA      CASource
	Keys    KeyFactory
	Limiter *limiter.Limiter
	Now     func() time.Time
}

func NewService(ca CASource, keys KeyFactory, lim *limiter.Limiter) *Service {
	return &Service{CA: ca, Keys: keys, Limiter: lim, Now: time.Now}
}

// Mint выпускает новую ключевую пару и сертификат. Не идемпотентен:
// каждый вызов даёт новый ключ и новый серийный номер.
func (s *Service) Mint(ctx context.Context, req MintRequest) (*MintResponse, error) {
	// вход проверяется до обращения к CA
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	ca, err := s.CA.Load(ctx)
	if err != nil {
		if apperr.KindOf(err) == apperr.Internal {
			err = apperr.Wrap(apperr.CryptoUnavailable, err, "CA material unavailable")
		}
		return nil, err
	}

	now := s.now().UTC().Truncate(time.Second)
	notAfter := now.AddDate(0, 0, req.TTLDays)

	var resp *MintResponse
	err = s.Limiter.Do(ctx, func() error {
		var ierr error
		resp, ierr = s.issue(ca, req.DeviceID, now.Add(-Backdate), notAfter)
		return ierr
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, apperr.Wrap(apperr.CryptoUnavailable, err, "issuer busy")
		}
		return nil, apperr.Wrap(apperr.Internal, err, "mint certificate")
	}
	logs.Logger.WithFields(logrus.Fields{
		"device_id": req.DeviceID,
		"serial":    resp.Serial,
		"expires":   resp.ExpiresAt,
	}).Info("certificate issued")
	return resp, nil
}

func (s *Service) issue(ca *CA, cn string, notBefore, notAfter time.Time) (*MintResponse, error) {
	key, err := s.Keys.NewKey()
	if err != nil {
		return nil, fmt.Errorf("generate device key: %w", err)
	}
	serial, err := newSerial()
	if err != nil {
		return nil, err
	}
	tpl := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: cn},
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		BasicConstraintsValid: true,
		IsCA:                  false,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
		SignatureAlgorithm:    signatureAlgorithm(ca.Cert),
	}
	der, err := x509.CreateCertificate(rand.Reader, tpl, ca.Cert, key.Public(), ca.Key)
	if err != nil {
		return nil, fmt.Errorf("sign certificate: %w", err)
	}
	keyPEM, err := MarshalKeyPEM(key)
	if err != nil {
		return nil, err
	}
	return &MintResponse{
		KeyPEM:    string(keyPEM),
		CertPEM:   string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})),
		CAPEM:     string(ca.CertPEM),
		ExpiresAt: notAfter,
		Serial:    fmt.Sprintf("%#x", serial),
	}, nil
}

// SHA-256 для RSA и P-256; для остальных ключей CA: выбор crypto/x509
// (он не опускается ниже SHA-256).
func signatureAlgorithm(ca *x509.Certificate) x509.SignatureAlgorithm {
	switch ca.PublicKeyAlgorithm {
	case x509.RSA:
		return x509.SHA256WithRSA
	default:
		return x509.UnknownSignatureAlgorithm
	}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
