package booking

import "errors"

var (
	// ErrSessionNotFound is returned when no booking session exists for a conversation.
	ErrSessionNotFound = errors.New("booking: session not found")

	// ErrIncompleteBooking is returned when finalize is attempted before every field is collected.
	ErrIncompleteBooking = errors.New("booking: booking information incomplete")

	// ErrExtractionParse marks a delegated extraction reply that could not be parsed.
	ErrExtractionParse = errors.New("booking: extraction reply could not be parsed")

	// ErrAppointmentNotFound is returned when an appointment id is unknown.
	ErrAppointmentNotFound = errors.New("booking: appointment not found")
)
