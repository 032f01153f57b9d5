// Package jwt выпускает и проверяет bearer-токены аккаунтов.
//
// Токен подписывается HS256 общим секретом, содержит идентификатор аккаунта и срок жизни.
// Секрет и TTL задаются один раз при создании MakerImpl.
package jwt

import (
	"time"
)

// Maker выпускает токены для аккаунта и разбирает их обратно.
type Maker interface {
	GenerateToken(accountID string) (string, error)
	ParseToken(tokenStr string) (*Claims, error)
}

// MakerImpl реализует Maker на общем секрете.
type MakerImpl struct {
	secretKey []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

// Option настраивает MakerImpl.
type Option func(*MakerImpl)

// WithClock подменяет источник времени, используется в тестах.
func WithClock(now func() time.Time) Option {
	return func(m *MakerImpl) {
		m.now = now
	}
}

// NewJWTMaker создаёт MakerImpl с секретом и временем жизни токена.
func NewJWTMaker(secretKey string, ttl time.Duration, opts ...Option) *MakerImpl {
	m := &MakerImpl{
		secretKey: []byte(secretKey),
		tokenTTL:  ttl,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}
