// Package models содержит доменные структуры аккаунта и подписки
// и чистые функции их валидации.
package models

import (
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/apperr"
)

// Ограничения полей аккаунта.
const (
	NameMinLen     = 3
	NameMaxLen     = 50
	PasswordMinLen = 8
	PasswordMaxLen = 72
)

var emailPattern = regexp.MustCompile(`^[\w.+-]+@[A-Za-z0-9-]+\.[A-Za-z]{2,}$`)

// Account зарегистрированный пользователь. Хеш пароля никогда не сериализуется.
type Account struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Redacted возвращает копию аккаунта без хеша пароля.
func (a Account) Redacted() Account {
	a.PasswordHash = ""
	return a
}

// NormalizeEmail обрезает пробелы и приводит адрес к нижнему регистру.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUpInput данные регистрации после нормализации.
type SignUpInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// NewSignUpInput нормализует имя и адрес. Пароль остаётся как есть.
func NewSignUpInput(name, email, password string) SignUpInput {
	return SignUpInput{
		Name:     strings.TrimSpace(name),
		Email:    NormalizeEmail(email),
		Password: password,
	}
}

// Validate проверяет поля регистрации.
func (in SignUpInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.RuneLength(NameMinLen, NameMaxLen)),
		validation.Field(&in.Email, validation.Required, is.Email,
			validation.Match(emailPattern).Error("must be a valid email address")),
		validation.Field(&in.Password, validation.Required, validation.Length(PasswordMinLen, PasswordMaxLen)),
	)
}

// ValidateAccount возвращает список нарушений для данных регистрации, пустой если данные корректны.
func ValidateAccount(name, email, password string) []apperr.FieldError {
	return FieldErrors(NewSignUpInput(name, email, password).Validate())
}
