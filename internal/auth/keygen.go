package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// KeyGenerator выпускает непрозрачные API-ключи.
type KeyGenerator interface {
	// Generate возвращает случайный токен из n байт энтропии в URL-безопасном алфавите.
	Generate(n int) (string, error)
}

// SecureKeyGenerator: crypto/rand + base64url без паддинга.
// Длина результата: ceil(4n/3) символов.
type SecureKeyGenerator struct{}

func (SecureKeyGenerator) Generate(n int) (string, error) {
	if n < 1 {
		return "", fmt.Errorf("generate key: length must be positive, got %d", n)
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
