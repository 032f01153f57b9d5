package models

import (
	"errors"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/apperr"
)

// FieldErrors раскладывает ошибку ozzo-validation в упорядоченный по имени поля список.
func FieldErrors(err error) []apperr.FieldError {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return []apperr.FieldError{{Field: "_", Message: err.Error()}}
	}
	keys := make([]string, 0, len(errs))
	for k, e := range errs {
		if e != nil {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := make([]apperr.FieldError, 0, len(keys))
	for _, k := range keys {
		out = append(out, apperr.FieldError{Field: k, Message: errs[k].Error()})
	}
	return out
}
