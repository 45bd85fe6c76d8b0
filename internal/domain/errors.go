package domain

import "errors"

var (
	// ErrNotFound: unknown session, package, or vendor resource.
	ErrNotFound = errors.New("not found")

	// ErrValidation: a caller-supplied record breaks a business rule.
	ErrValidation = errors.New("validation error")

	// ErrInvalidQuery: a coerced TripQuery violates its own invariants. This is
	// a defect in coercion, fatal for the session.
	ErrInvalidQuery = errors.New("invalid trip query")

	// ErrNoFlights: the flight provider returned nothing for the query.
	ErrNoFlights = errors.New("no flights found")
)
