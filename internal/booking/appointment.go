package booking

import (
	"context"
	"fmt"
	"time"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Appointment is a finalized booking.
type Appointment struct {
	ID          string    `json:"appointment_id"`
	PatientName string    `json:"patient_name"`
	PhoneNumber string    `json:"phone_number"`
	Department  string    `json:"department"`
	Date        string    `json:"appointment_date"`
	Time        string    `json:"appointment_time"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewAppointment is the input to AppointmentRepository.Create.
type NewAppointment struct {
	PatientName string
	PhoneNumber string
	Department  string
	Date        string
	Time        string
	Status      Status
}

// AppointmentID formats the sequential appointment id for the n-th appointment (1-based).
func AppointmentID(n int) string {
	return fmt.Sprintf("APT%06d", n)
}

// AppointmentRepository stores finalized appointments.
type AppointmentRepository interface {
	// Create assigns the next sequential id and stores the appointment.
	Create(ctx context.Context, in NewAppointment) (*Appointment, error)
	// Get returns ErrAppointmentNotFound for unknown ids.
	Get(ctx context.Context, id string) (*Appointment, error)
	// Cancel marks the appointment cancelled. Ids are never reused.
	Cancel(ctx context.Context, id string) (*Appointment, error)
	// BookedTimes lists times of confirmed appointments for a department on a date.
	BookedTimes(ctx context.Context, department, date string) ([]string, error)
	// Count returns the number of appointments ever created.
	Count(ctx context.Context) (int, error)
}
