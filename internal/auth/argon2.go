package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const argon2Prefix = "$argon2id$"

// Argon2KeyHasher: Argon2id для хранения (формат PHC), SHA-256 для поиска.
// Параметры записываются в хэш, поэтому их смена не ломает старые ключи.
type Argon2KeyHasher struct {
	Time    uint32 // 0: 1
	Memory  uint32 // КиБ, 0: 64 МиБ
	Threads uint8  // 0: 1
}

func (h Argon2KeyHasher) params() (t, m uint32, p uint8) {
	t, m, p = h.Time, h.Memory, h.Threads
	if t == 0 {
		t = 1
	}
	if m == 0 {
		m = 64 * 1024
	}
	if p == 0 {
		p = 1
	}
	return t, m, p
}

func (h Argon2KeyHasher) HashIndex(key string) string { return indexHash(key) }

func (h Argon2KeyHasher) HashKey(key string) (string, error) {
	var salt [16]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return "", fmt.Errorf("hash key: %w", err)
	}
	t, m, p := h.params()
	sum := argon2.IDKey([]byte(key), salt[:], t, m, p, 32)
	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s", argon2Prefix, argon2.Version, m, t, p,
		base64.RawStdEncoding.EncodeToString(salt[:]),
		base64.RawStdEncoding.EncodeToString(sum)), nil
}

func (h Argon2KeyHasher) Verify(key, hashed string) (bool, error) { return verifyStored(key, hashed) }

func verifyArgon2(key, hashed string) (bool, error) {
	parts := strings.Split(strings.TrimPrefix(hashed, argon2Prefix), "$")
	if len(parts) != 4 {
		return false, fmt.Errorf("%w: argon2id: expected 4 fields", ErrMalformedHash)
	}
	var version int
	if _, err := fmt.Sscanf(parts[0], "v=%d", &version); err != nil || version != argon2.Version {
		return false, fmt.Errorf("%w: argon2id: unsupported version %q", ErrMalformedHash, parts[0])
	}
	var (
		t, m uint32
		p    uint8
	)
	if _, err := fmt.Sscanf(parts[1], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil || t == 0 || m == 0 || p == 0 {
		return false, fmt.Errorf("%w: argon2id: bad parameters %q", ErrMalformedHash, parts[1])
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil || len(salt) == 0 {
		return false, fmt.Errorf("%w: argon2id: bad salt", ErrMalformedHash)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil || len(want) == 0 {
		return false, fmt.Errorf("%w: argon2id: bad digest", ErrMalformedHash)
	}
	got := argon2.IDKey([]byte(key), salt, t, m, p, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
