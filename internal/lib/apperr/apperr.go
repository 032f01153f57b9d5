// Package apperr описывает типизированные ошибки бизнес-уровня.
//
// Каждая ошибка несёт вид (Kind), сообщение для клиента и, для ошибок валидации,
// список нарушений по полям. Преобразование в HTTP-ответ выполняется только на границе
// (пакет response), внутренние детали остаются в Err и попадают лишь в логи.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind классифицирует ошибку.
type Kind int

const (
	// KindInternal неожиданная ошибка хранилища или подписи.
	KindInternal Kind = iota
	// KindConflict нарушение уникальности.
	KindConflict
	// KindNotFound запись не найдена.
	KindNotFound
	// KindUnauthorized неверные учётные данные или токен.
	KindUnauthorized
	// KindValidation нарушение правил схемы или бизнес-правил.
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindValidation:
		return "validation"
	default:
		return "internal"
	}
}

// FieldError нарушение правила для конкретного поля.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (f FieldError) String() string {
	return fmt.Sprintf("%s: %s", f.Field, f.Message)
}

// Error ошибка с явной классификацией.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Conflict создаёт ошибку нарушения уникальности.
func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// NotFound создаёт ошибку отсутствующей записи.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Unauthorized создаёт ошибку аутентификации.
func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

// Validation создаёт ошибку валидации; сообщение собирается из нарушений через запятую.
func Validation(fields ...FieldError) *Error {
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, f.String())
	}
	msg := "validation failed"
	if len(msgs) > 0 {
		msg = strings.Join(msgs, ", ")
	}
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

// Internal оборачивает неожиданную ошибку. Клиент увидит только общее сообщение.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal server error", Err: err}
}

// KindOf возвращает вид ошибки; всё, что не является *Error, считается внутренней ошибкой.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// HTTPStatus сопоставляет вид ошибки со статусом ответа.
func HTTPStatus(k Kind) int {
	switch k {
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
