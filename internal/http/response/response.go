// Package response формирует единообразные JSON-ответы HTTP-обработчиков.
//
// Успешный ответ: {"success": true, "message": ..., "data": ...}.
// Ответ с ошибкой: {"success": false, "error": ..., "fields": [...]}.
// RenderError единственное место, где вид ошибки превращается в HTTP-статус.
package response

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
)

// Response стандартный успешный ответ.
type Response struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message,omitempty" example:"account created"`
	Data    any    `json:"data,omitempty"`
}

// ErrorResponse ответ с ошибкой; используется и в swagger-аннотациях.
type ErrorResponse struct {
	Success bool                `json:"success" example:"false"`
	Error   string              `json:"error" example:"account already exists"`
	Fields  []apperr.FieldError `json:"fields,omitempty"`
}

// OK возвращает успешный ответ с сообщением и данными.
func OK(msg string, data any) Response {
	return Response{Success: true, Message: msg, Data: data}
}

// Error возвращает ответ с ошибкой и переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{Error: msg}
}

// JSON пишет статус и тело ответа.
func JSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

// RenderError пишет ответ по виду ошибки. Детали внутренних ошибок попадают только в лог.
func RenderError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)

	body := ErrorResponse{Error: "internal server error"}
	var appErr *apperr.Error
	if errors.As(err, &appErr) && kind != apperr.KindInternal {
		body.Error = appErr.Message
		body.Fields = appErr.Fields
	}
	if kind == apperr.KindInternal {
		log.Error("request failed", sl.Err(err))
	} else {
		log.Info("request rejected", slog.String("kind", kind.String()), sl.Err(err))
	}
	JSON(w, r, status, body)
}

// NewValidator создаёт validator, который называет поля по json-тегам.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// ValidationError переводит ошибки тегов validator в ошибку валидации.
func ValidationError(errs validator.ValidationErrors) *apperr.Error {
	fields := make([]apperr.FieldError, 0, len(errs))
	for _, err := range errs {
		var msg string
		switch err.ActualTag() {
		case "required":
			msg = "is a required field"
		case "min":
			msg = fmt.Sprintf("must be at least %s", err.Param())
		case "max":
			msg = fmt.Sprintf("must be at most %s", err.Param())
		case "email":
			msg = "must be a valid email address"
		case "oneof":
			msg = fmt.Sprintf("must be one of [%s]", err.Param())
		default:
			msg = "is not valid"
		}
		fields = append(fields, apperr.FieldError{Field: err.Field(), Message: msg})
	}
	return apperr.Validation(fields...)
}
