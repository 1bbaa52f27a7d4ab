package models

// Trip is a named group-expense context containing members and expenses.
type Trip struct {
	// ID is the unique identifier for the trip (UUID format).
	ID string

	// OwnerID is the user who created the trip.
	OwnerID string

	// Name is the display name of the trip (e.g., "Vietnam 2026").
	Name string

	// CreatedAt is the Unix timestamp when the trip was created.
	CreatedAt int64
}

// Member is a participant in a trip who can pay for and owe shares of
// expenses. Members are scoped to a single trip and are immutable once
// created, except for deletion.
type Member struct {
	// ID is the unique identifier for the member (UUID format).
	ID string

	// TripID is the trip this member belongs to.
	TripID string

	// Name is the display name of the member.
	Name string

	// CreatedAt is the Unix timestamp when the member was added.
	CreatedAt int64
}
