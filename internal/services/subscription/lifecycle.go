package subscription

import (
	"time"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/renewal"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// Prepare применяет значения по умолчанию, проверяет подписку, вычисляет дату продления
// и выставляет статус expired, если продление уже наступило. Возвращает нарушения по полям.
func Prepare(sub *models.Subscription, now time.Time) []apperr.FieldError {
	if sub.Currency == "" {
		sub.Currency = models.CurrencyINR
	}
	if sub.Status == "" {
		sub.Status = models.StatusActive
	}

	if fields := models.ValidateSubscription(sub, now); len(fields) > 0 {
		return fields
	}

	if sub.RenewalDate.IsZero() {
		next, ok := renewal.Next(sub.StartDate, sub.Frequency)
		if !ok {
			return []apperr.FieldError{{Field: "frequency", Message: "must be a valid value"}}
		}
		sub.RenewalDate = next
	}

	if renewal.Due(sub.RenewalDate, now) {
		sub.Status = models.StatusExpired
	}
	return nil
}

// effective возвращает подписку со статусом на момент now, не изменяя исходную.
func effective(sub *models.Subscription, now time.Time) *models.Subscription {
	out := *sub
	if out.Status == models.StatusActive && renewal.Due(out.RenewalDate, now) {
		out.Status = models.StatusExpired
	}
	return &out
}
