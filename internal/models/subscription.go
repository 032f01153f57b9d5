package models

import (
	"errors"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/renewal"
)

// Currency валюта подписки.
type Currency string

const (
	CurrencyINR Currency = "INR"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

// Category категория подписки.
type Category string

const (
	CategorySports        Category = "sports"
	CategoryNews          Category = "news"
	CategoryEntertainment Category = "entertainment"
	CategoryLifestyle     Category = "lifestyle"
	CategoryTechnology    Category = "technology"
	CategoryFinance       Category = "finance"
	CategoryPolitics      Category = "politics"
	CategoryOther         Category = "other"
)

// Status состояние подписки.
type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// Ограничения полей подписки.
const (
	SubscriptionNameMinLen = 3
	SubscriptionNameMaxLen = 100
)

// noControlChars запрещает управляющие символы в текстовых полях подписки.
var noControlChars = regexp.MustCompile(`^[^\p{Cc}]*$`)

// Subscription периодический платёж, принадлежащий аккаунту.
type Subscription struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Price         float64           `json:"price"`
	Currency      Currency          `json:"currency"`
	Frequency     renewal.Frequency `json:"frequency"`
	Category      Category          `json:"category"`
	PaymentMethod string            `json:"payment_method"`
	Status        Status            `json:"status"`
	StartDate     time.Time         `json:"start_date"`
	RenewalDate   time.Time         `json:"renewal_date"`
	AccountID     string            `json:"account_id"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// ValidateSubscription проверяет поля подписки относительно момента now.
// Нулевая RenewalDate допустима: её вычисляет движок жизненного цикла.
func ValidateSubscription(sub *Subscription, now time.Time) []apperr.FieldError {
	err := validation.ValidateStruct(sub,
		validation.Field(&sub.Name, validation.Required,
			validation.RuneLength(SubscriptionNameMinLen, SubscriptionNameMaxLen),
			validation.Match(noControlChars).Error("must not contain control characters")),
		validation.Field(&sub.Price, validation.Min(0.0)),
		validation.Field(&sub.Currency, validation.Required,
			validation.In(CurrencyINR, CurrencyUSD, CurrencyEUR)),
		validation.Field(&sub.Frequency, validation.Required,
			validation.In(renewal.Daily, renewal.Weekly, renewal.Monthly, renewal.Yearly)),
		validation.Field(&sub.Category, validation.Required,
			validation.In(CategorySports, CategoryNews, CategoryEntertainment, CategoryLifestyle,
				CategoryTechnology, CategoryFinance, CategoryPolitics, CategoryOther)),
		validation.Field(&sub.PaymentMethod, validation.Required,
			validation.Match(noControlChars).Error("must not contain control characters")),
		validation.Field(&sub.Status, validation.Required,
			validation.In(StatusActive, StatusCancelled, StatusExpired)),
		validation.Field(&sub.StartDate, validation.Required,
			validation.By(beforeTime(now, "must be in the past"))),
		validation.Field(&sub.RenewalDate,
			validation.By(afterTime(sub.StartDate, "must be after the start date"))),
		validation.Field(&sub.AccountID, validation.Required),
	)
	return FieldErrors(err)
}

func beforeTime(limit time.Time, msg string) validation.RuleFunc {
	return func(value any) error {
		t, _ := value.(time.Time)
		if t.IsZero() || t.Before(limit) {
			return nil
		}
		return errors.New(msg)
	}
}

func afterTime(limit time.Time, msg string) validation.RuleFunc {
	return func(value any) error {
		t, _ := value.(time.Time)
		if t.IsZero() || limit.IsZero() || t.After(limit) {
			return nil
		}
		return errors.New(msg)
	}
}

// SubscriptionRequest тело запроса на создание подписки. Даты приходят строками.
type SubscriptionRequest struct {
	Name          string   `json:"name" validate:"required"`
	Price         *float64 `json:"price" validate:"required"`
	Currency      string   `json:"currency,omitempty"`
	Frequency     string   `json:"frequency" validate:"required"`
	Category      string   `json:"category" validate:"required"`
	PaymentMethod string   `json:"payment_method" validate:"required"`
	Status        string   `json:"status,omitempty"`
	StartDate     string   `json:"start_date" validate:"required"`
	RenewalDate   string   `json:"renewal_date,omitempty"`
}

// ToSubscription переносит поля запроса в Subscription, разбирая даты.
func (r SubscriptionRequest) ToSubscription(accountID string) (*Subscription, []apperr.FieldError) {
	var fields []apperr.FieldError
	sub := &Subscription{
		Name:          strings.TrimSpace(r.Name),
		Currency:      Currency(strings.ToUpper(strings.TrimSpace(r.Currency))),
		Frequency:     renewal.Frequency(strings.ToLower(strings.TrimSpace(r.Frequency))),
		Category:      Category(strings.ToLower(strings.TrimSpace(r.Category))),
		PaymentMethod: strings.TrimSpace(r.PaymentMethod),
		Status:        Status(strings.ToLower(strings.TrimSpace(r.Status))),
		AccountID:     accountID,
	}
	if r.Price != nil {
		sub.Price = *r.Price
	}

	start, err := ParseDate(r.StartDate)
	if err != nil {
		fields = append(fields, apperr.FieldError{Field: "start_date", Message: err.Error()})
	}
	sub.StartDate = start

	if strings.TrimSpace(r.RenewalDate) != "" {
		rd, err := ParseDate(r.RenewalDate)
		if err != nil {
			fields = append(fields, apperr.FieldError{Field: "renewal_date", Message: err.Error()})
		}
		sub.RenewalDate = rd
	}
	return sub, fields
}

// ParseDate разбирает дату в формате 2006-01-02 или RFC 3339.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.New("must be a date in YYYY-MM-DD or RFC 3339 format")
	}
	return t.UTC(), nil
}
