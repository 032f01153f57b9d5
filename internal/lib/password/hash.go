// Package password хеширует и проверяет пароли аккаунтов через bcrypt.
//
// Соль генерируется на каждый вызов GetHash, сравнение выполняется за постоянное время.
// Пароль в открытом виде нигде не сохраняется и не логируется.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Cost стоимость bcrypt для новых хешей.
const Cost = 10

// ErrMismatch пароль не соответствует хешу.
var ErrMismatch = errors.New("password does not match")

// GetHash возвращает bcrypt-хеш пароля.
func GetHash(plain string) (string, error) {
	const op = "password.GetHash"
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), Cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashed), nil
}

// CompareHash сравнивает сохранённый хеш с введённым паролем.
// При несовпадении возвращает ErrMismatch, при повреждённом хеше обёрнутую ошибку bcrypt.
func CompareHash(hash, plain string) error {
	const op = "password.CompareHash"
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrMismatch
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// Bcrypt реализует хеширование через функции пакета.
type Bcrypt struct{}

// Hash вызывает GetHash.
func (Bcrypt) Hash(plain string) (string, error) {
	return GetHash(plain)
}

// Compare вызывает CompareHash.
func (Bcrypt) Compare(hash, plain string) error {
	return CompareHash(hash, plain)
}
