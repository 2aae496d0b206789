package issuer

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// newTestCA: CA на P-256, чтобы тесты не ждали генерации RSA.
func newTestCA(t *testing.T) (*CA, []byte) {
	t.Helper()
	ca, keyPEM, err := NewSelfSignedCA("TaraMeteo Test CA", 24*time.Hour, ECDSAKeyFactory{}, time.Now())
	require.NoError(t, err)
	return ca, keyPEM
}

// countingSource считает обращения к CA.
type countingSource struct {
	CASource
	calls atomic.Int64
}

func (c *countingSource) Load(ctx context.Context) (*CA, error) {
	c.calls.Add(1)
	return c.CASource.Load(ctx)
}
