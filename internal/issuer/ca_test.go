package issuer

import (
	"context"
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tarameteo/internal/apperr"
)

func TestParseCAKeyFormats(t *testing.T) {
	ca, pkcs8 := newTestCA(t)

	parsed, err := ParseCA(ca.CertPEM, pkcs8)
	require.NoError(t, err)
	assert.Equal(t, ca.Cert.SerialNumber, parsed.Cert.SerialNumber)

	sec1, err := MarshalKeyPEM(ca.Key)
	require.NoError(t, err)
	block, _ := pem.Decode(sec1)
	require.Equal(t, "EC PRIVATE KEY", block.Type)
	_, err = ParseCA(ca.CertPEM, sec1)
	require.NoError(t, err)
}

func TestParseCAPKCS1(t *testing.T) {
	if testing.Short() {
		t.Skip("rsa key generation")
	}
	ca, _, err := NewSelfSignedCA("rsa", time.Hour, RSAKeyFactory{}, time.Now())
	require.NoError(t, err)
	pkcs1, err := MarshalKeyPEM(ca.Key)
	require.NoError(t, err)
	block, _ := pem.Decode(pkcs1)
	require.Equal(t, "RSA PRIVATE KEY", block.Type)
	_, err = ParseCA(ca.CertPEM, pkcs1)
	require.NoError(t, err)
}

func TestParseCARejects(t *testing.T) {
	ca, keyPEM := newTestCA(t)
	other, otherKey := newTestCA(t)

	_, err := ParseCA(ca.CertPEM, otherKey)
	assert.ErrorContains(t, err, "does not match")
	_, err = ParseCA(other.CertPEM, keyPEM)
	assert.ErrorContains(t, err, "does not match")

	_, err = ParseCA([]byte("garbage"), keyPEM)
	assert.Error(t, err)
	_, err = ParseCA(ca.CertPEM, []byte("garbage"))
	assert.Error(t, err)
	_, err = ParseCA(keyPEM, keyPEM)
	assert.Error(t, err)
	_, err = ParseCA(ca.CertPEM, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: []byte{1}}))
	assert.Error(t, err)

	// лист вместо CA
	svc := NewService(StaticCASource{CA: ca}, ECDSAKeyFactory{}, nil)
	resp, err := svc.Mint(context.Background(), MintRequest{DeviceID: "leaf", TTLDays: 1})
	require.NoError(t, err)
	_, err = ParseCA([]byte(resp.CertPEM), []byte(resp.KeyPEM))
	assert.ErrorContains(t, err, "not marked as CA")
}

func TestSelfSignedCA(t *testing.T) {
	ca, _ := newTestCA(t)
	assert.True(t, ca.Cert.IsCA)
	assert.True(t, ca.Cert.MaxPathLenZero)
	assert.NotZero(t, ca.Cert.KeyUsage&x509.KeyUsageCertSign)
	_, ok := ca.Key.(*ecdsa.PrivateKey)
	assert.True(t, ok)
	assert.NoError(t, ca.Cert.CheckSignatureFrom(ca.Cert))
}

func writeCA(t *testing.T, dir string) (*CA, string, string) {
	t.Helper()
	ca, keyPEM := newTestCA(t)
	certPath, keyPath := filepath.Join(dir, "ca.crt"), filepath.Join(dir, "ca.key")
	_ = os.Remove(certPath)
	_ = os.Remove(keyPath)
	require.NoError(t, WriteCAFiles(ca, keyPEM, certPath, keyPath))
	return ca, certPath, keyPath
}

func TestFileCASourceReadsEveryCall(t *testing.T) {
	dir := t.TempDir()
	first, certPath, keyPath := writeCA(t, dir)
	src := FileCASource{KeyPath: keyPath, CertPath: certPath}

	got, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.Cert.SerialNumber, got.Cert.SerialNumber)
	assert.Equal(t, first.CertPEM, got.CertPEM)

	// ротация файлов видна без перезапуска
	second, _, _ := writeCA(t, dir)
	got, err = src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, second.Cert.SerialNumber, got.Cert.SerialNumber)

	require.NoError(t, os.Remove(keyPath))
	_, err = src.Load(context.Background())
	assert.Equal(t, apperr.CryptoUnavailable, apperr.KindOf(err))
}

func TestFileCASourceMismatchedFiles(t *testing.T) {
	dir := t.TempDir()
	_, certPath, _ := writeCA(t, filepath.Join(dir))
	otherDir := t.TempDir()
	_, _, otherKey := writeCA(t, otherDir)

	_, err := FileCASource{KeyPath: otherKey, CertPath: certPath}.Load(context.Background())
	assert.Equal(t, apperr.CryptoUnavailable, apperr.KindOf(err))
}

func TestWriteCAFilesKeepsExisting(t *testing.T) {
	dir := t.TempDir()
	ca, certPath, keyPath := writeCA(t, dir)

	info, err := os.Stat(keyPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	other, otherKey := newTestCA(t)
	assert.Error(t, WriteCAFiles(other, otherKey, certPath, keyPath))

	data, err := os.ReadFile(certPath)
	require.NoError(t, err)
	assert.Equal(t, ca.CertPEM, data)
}
