package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tarameteo/internal/issuer"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("DATABASE_DSN", filepath.Join(dir, "cli.db"))
	return dir
}

func TestSensorCreateInfoDelete(t *testing.T) {
	isolate(t)

	out, err := run(t, "sensor", "create", "garden")
	require.NoError(t, err)
	key := strings.TrimSpace(out)
	assert.Len(t, key, 43)

	_, err = run(t, "sensor", "create", "garden")
	assert.ErrorContains(t, err, "sensor already exists: garden")

	out, err = run(t, "sensor", "info", "garden")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "garden"`)
	assert.NotContains(t, out, key)

	_, err = run(t, "sensor", "delete", "garden")
	require.NoError(t, err)
	_, err = run(t, "sensor", "info", "garden")
	assert.Error(t, err)
}

func TestInitCA(t *testing.T) {
	dir := isolate(t)
	certPath, keyPath := filepath.Join(dir, "ca.crt"), filepath.Join(dir, "ca.key")
	t.Setenv("CA_CRT", certPath)
	t.Setenv("CA_KEY", keyPath)

	out, err := run(t, "issuer", "init-ca", "--cn", "Test CA", "--days", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "Test CA")

	_, err = issuer.FileCASource{KeyPath: keyPath, CertPath: certPath}.Load(context.Background())
	require.NoError(t, err)

	// повторный запуск не перетирает CA
	before, err := os.ReadFile(keyPath)
	require.NoError(t, err)
	_, err = run(t, "issuer", "init-ca")
	assert.Error(t, err)
	after, err := os.ReadFile(keyPath)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestMintAgainstIssuer(t *testing.T) {
	isolate(t)
	ca, _, err := issuer.NewSelfSignedCA("test", time.Hour, issuer.ECDSAKeyFactory{}, time.Now())
	require.NoError(t, err)
	svc := issuer.NewService(issuer.StaticCASource{CA: ca}, issuer.ECDSAKeyFactory{}, nil)
	r := mux.NewRouter()
	issuer.RegisterRoutes(r, issuer.NewHandler(svc, 30, time.Second), "cli-token")
	srv := httptest.NewServer(r)
	defer srv.Close()

	t.Setenv("ISSUER_URL", srv.URL)
	t.Setenv("ISSUER_TOKEN", "cli-token")

	out, err := run(t, "issuer", "mint", "sensor-01", "--ttl-days", "3")
	require.NoError(t, err)
	var resp issuer.MintResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, strings.HasPrefix(resp.Serial, "0x"))
	assert.WithinDuration(t, time.Now().Add(72*time.Hour), resp.ExpiresAt, 5*time.Second)

	t.Setenv("ISSUER_TOKEN", "nope")
	_, err = run(t, "issuer", "mint", "sensor-01")
	assert.ErrorContains(t, err, "invalid token")
}

func TestBadConfigFails(t *testing.T) {
	isolate(t)
	t.Setenv("SENSOR_KEY_LENGTH", "4")
	_, err := run(t, "sensor", "create", "garden")
	assert.ErrorContains(t, err, "key_length")
}
