package models

import "time"

// RenewalReminder данные для уведомления о предстоящем продлении.
type RenewalReminder struct {
	SubscriptionID   string    `json:"subscription_id"`
	SubscriptionName string    `json:"subscription_name"`
	Price            float64   `json:"price"`
	Currency         Currency  `json:"currency"`
	RenewalDate      time.Time `json:"renewal_date"`
	AccountID        string    `json:"account_id"`
	AccountName      string    `json:"account_name"`
	Email            string    `json:"email"`
}
