package issuer

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

// KeyFactory выпускает ключевую пару устройства. Каждый вызов: новый ключ.
type KeyFactory interface {
	NewKey() (crypto.Signer, error)
}

type RSAKeyFactory struct {
	Bits int // не меньше 2048
}

func (f RSAKeyFactory) NewKey() (crypto.Signer, error) {
	bits := f.Bits
	if bits == 0 {
		bits = 2048
	}
	if bits < 2048 {
		return nil, fmt.Errorf("rsa key size %d is below 2048", bits)
	}
	// crypto/rsa всегда использует e = 65537
	return rsa.GenerateKey(rand.Reader, bits)
}

type ECDSAKeyFactory struct {
	Curve elliptic.Curve // nil: P-256
}

func (f ECDSAKeyFactory) NewKey() (crypto.Signer, error) {
	curve := f.Curve
	if curve == nil {
		curve = elliptic.P256()
	}
	return ecdsa.GenerateKey(curve, rand.Reader)
}

// NewKeyFactory по имени из конфига: rsa2048 | rsa3072 | rsa4096 | ecdsa-p256.
func NewKeyFactory(alg string) (KeyFactory, error) {
	switch alg {
	case "", "rsa2048":
		return RSAKeyFactory{Bits: 2048}, nil
	case "rsa3072":
		return RSAKeyFactory{Bits: 3072}, nil
	case "rsa4096":
		return RSAKeyFactory{Bits: 4096}, nil
	case "ecdsa-p256":
		return ECDSAKeyFactory{Curve: elliptic.P256()}, nil
	default:
		return nil, fmt.Errorf("unsupported key algorithm %q", alg)
	}
}

// MarshalKeyPEM кодирует ключ устройства в традиционном формате OpenSSL,
// RSA как PKCS#1, ECDSA как SEC1.
func MarshalKeyPEM(k crypto.Signer) ([]byte, error) {
	switch key := k.(type) {
	case *rsa.PrivateKey:
		return pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}), nil
	case *ecdsa.PrivateKey:
		der, err := x509.MarshalECPrivateKey(key)
		if err != nil {
			return nil, err
		}
		return pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}), nil
	default:
		return nil, fmt.Errorf("unsupported key type %T", k)
	}
}

// ParseKeyPEM принимает PKCS#8, PKCS#1 или SEC1.
func ParseKeyPEM(data []byte) (crypto.Signer, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("no PEM block in key data")
	}
	var (
		key any
		err error
	)
	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err = x509.ParsePKCS1PrivateKey(block.Bytes)
	case "EC PRIVATE KEY":
		key, err = x509.ParseECPrivateKey(block.Bytes)
	case "PRIVATE KEY":
		key, err = x509.ParsePKCS8PrivateKey(block.Bytes)
	default:
		return nil, fmt.Errorf("unexpected PEM block %q", block.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", block.Type, err)
	}
	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, fmt.Errorf("key type %T cannot sign", key)
	}
	return signer, nil
}
