package types

import "time"

// User represents a registered account.
// It contains identity, contact, and credential metadata.
type User struct {
	// ID is the unique identifier of the user. It is generated by the
	// repository at insert time and never supplied by the client.
	ID string `json:"id" db:"id"`

	// Username is the unique login handle chosen by the user.
	Username string `json:"username" db:"username"`

	// PasswordHash stores the hex-encoded PBKDF2 digest of the user's password.
	// This field is never exposed in responses or events.
	PasswordHash string `json:"-" db:"password_hash"`

	// PasswordSalt stores the hex-encoded per-record salt used to derive
	// PasswordHash.
	PasswordSalt string `json:"-" db:"password_salt"`

	// FirstName is the user's given name.
	FirstName string `json:"first_name" db:"first_name"`

	// LastName is the user's family name.
	LastName string `json:"last_name" db:"last_name"`

	// DNI is the user's national identity document number. It is unique.
	DNI string `json:"dni" db:"dni"`

	// Email is the user's email address. It is unique.
	Email string `json:"email" db:"email"`

	// City is the user's city of residence.
	City string `json:"city" db:"city"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
