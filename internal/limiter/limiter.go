// Package limiter ограничивает число одновременных тяжёлых криптоопераций
// (bcrypt, генерация ключей, подпись), чтобы лёгкие запросы не голодали.
package limiter

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

type Limiter struct {
	sem *semaphore.Weighted
	n   int64
}

// New создаёт лимитер на n слотов; n <= 0: по числу GOMAXPROCS.
func New(n int) *Limiter {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	return &Limiter{sem: semaphore.NewWeighted(int64(n)), n: int64(n)}
}

// Do выполняет fn, заняв слот. Если ctx отменён до получения слота, fn не запускается.
// Nil-лимитер выполняет fn сразу.
func (l *Limiter) Do(ctx context.Context, fn func() error) error {
	if l == nil {
		return fn()
	}
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer l.sem.Release(1)
	return fn()
}

func (l *Limiter) Size() int {
	if l == nil {
		return 0
	}
	return int(l.n)
}
