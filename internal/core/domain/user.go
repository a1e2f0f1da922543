package domain

import "github.com/google/uuid"

// User is the read-only view of an identity-provider account.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	HomeCurrency string    `json:"home_currency"`
}
