package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// KeyHasher считает двойной хэш API-ключа: быстрый детерминированный для поиска
// и медленный солёный для проверки владения.
type KeyHasher interface {
	// HashIndex: SHA-256 в hex (64 символа), ключ уникального индекса.
	HashIndex(key string) string
	// HashKey: солёный хэш для хранения; каждый вызов даёт новую строку.
	HashKey(key string) (string, error)
	// Verify сверяет ключ с сохранённым хэшем. Ошибка: только если хэш
	// повреждён или не той схемы; несовпадение ключа: (false, nil).
	Verify(key, hashed string) (bool, error)
}

// ErrMalformedHash: сохранённый хэш не разбирается ни как bcrypt, ни как argon2id.
var ErrMalformedHash = errors.New("malformed key hash")

// bcrypt учитывает только первые 72 байта входа.
const maxBcryptInput = 72

// BcryptKeyHasher: bcrypt для хранения, SHA-256 для поиска.
type BcryptKeyHasher struct {
	Cost int // 0: bcrypt.DefaultCost
}

func (h BcryptKeyHasher) HashIndex(key string) string { return indexHash(key) }

func indexHash(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func (h BcryptKeyHasher) HashKey(key string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	out, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	if err != nil {
		return "", fmt.Errorf("hash key: %w", err)
	}
	return string(out), nil
}

// Verify принимает хэш любой поддерживаемой схемы: смена sensor.key_hash
// не блокирует датчики, созданные раньше.
func (h BcryptKeyHasher) Verify(key, hashed string) (bool, error) { return verifyStored(key, hashed) }

func verifyStored(key, hashed string) (bool, error) {
	if strings.HasPrefix(hashed, argon2Prefix) {
		return verifyArgon2(key, hashed)
	}
	return verifyBcrypt(key, hashed)
}

func verifyBcrypt(key, hashed string) (bool, error) {
	if _, err := bcrypt.Cost([]byte(hashed)); err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
	if len(key) > maxBcryptInput {
		// иначе ключ с дописанным хвостом совпал бы с исходным
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(key))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
}

// NewKeyHasher по имени схемы из конфига: bcrypt | argon2id.
func NewKeyHasher(scheme string) (KeyHasher, error) {
	switch scheme {
	case "", "bcrypt":
		return BcryptKeyHasher{}, nil
	case "argon2id":
		return Argon2KeyHasher{}, nil
	default:
		return nil, fmt.Errorf("unsupported key hash scheme %q", scheme)
	}
}
