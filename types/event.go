package types

import "time"

// EventKind names a domain event published to the user events queue.
type EventKind string

const (
	// EventUserRegistered is emitted after a user record has been committed.
	EventUserRegistered EventKind = "UserRegistered"

	// EventUserRegistrationFailed is emitted when the store rejected a
	// registration because a unique field was already taken.
	EventUserRegistrationFailed EventKind = "UserRegistrationFailed"
)

// DuplicateEntryError is the error string carried by failed registration events.
const DuplicateEntryError = "duplicate entry detected"

// Event is the envelope serialized onto the queue.
type Event struct {
	// Event is the kind of the event.
	Event EventKind `json:"event"`

	// Data holds the kind-specific payload.
	Data any `json:"data"`

	// Timestamp is the UTC time at which the event was published.
	Timestamp time.Time `json:"timestamp"`
}

// UserRegisteredData is the payload of a UserRegistered event.
// It never carries credential material.
type UserRegisteredData struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	DNI       string `json:"dni"`
	Email     string `json:"email"`
	City      string `json:"city"`
}

// NewUserRegisteredData builds the success payload from a stored user.
func NewUserRegisteredData(user User) UserRegisteredData {
	return UserRegisteredData{
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		DNI:       user.DNI,
		Email:     user.Email,
		City:      user.City,
	}
}

// UserRegistrationFailedData is the payload of a UserRegistrationFailed event.
type UserRegistrationFailedData struct {
	Username string `json:"username"`
	DNI      string `json:"dni"`
	Email    string `json:"email"`
	Error    string `json:"error"`

	// Detail is a sanitized description of the conflict. It never contains
	// raw store error text.
	Detail string `json:"detail"`
}
