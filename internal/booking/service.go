package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/wolfman30/medconsult-ai/internal/observability/metrics"
	"github.com/wolfman30/medconsult-ai/pkg/logging"
)

// Service owns booking sessions and their conversion into appointments.
type Service struct {
	sessions     SessionStore
	appointments AppointmentRepository
	now          func() time.Time
	locks        *KeyedMutex
	logger       *logging.Logger
	metrics      *metrics.BookingMetrics
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock overrides the service clock.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMetrics attaches booking metrics.
func WithMetrics(m *metrics.BookingMetrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

func NewService(sessions SessionStore, appointments AppointmentRepository, logger *logging.Logger, opts ...ServiceOption) *Service {
	if sessions == nil {
		panic("booking: session store cannot be nil")
	}
	if appointments == nil {
		panic("booking: appointment repository cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		sessions:     sessions,
		appointments: appointments,
		now:          time.Now,
		locks:        NewKeyedMutex(),
		logger:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start creates a session for the conversation, replacing any existing one.
func (s *Service) Start(ctx context.Context, conversationID, department, summary string) (*Session, error) {
	now := s.now().UTC()
	session := &Session{
		ConversationID:      conversationID,
		Department:          department,
		ConsultationSummary: summary,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.sessions.Put(ctx, session); err != nil {
		return nil, err
	}
	s.logger.Info("booking session started", "conversation_id", conversationID, "department", department)
	return session, nil
}

// Update applies non-empty fields to the session, last write wins per field.
func (s *Service) Update(ctx context.Context, conversationID string, fields Fields) (*Session, error) {
	session, err := s.sessions.Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	session.Fields = session.Fields.Apply(fields)
	session.UpdatedAt = s.now().UTC()
	if err := s.sessions.Put(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Get returns the session and whether one exists. Absence is not an error.
func (s *Service) Get(ctx context.Context, conversationID string) (*Session, bool, error) {
	session, err := s.sessions.Get(ctx, conversationID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return session, true, nil
}

// Finalize converts a complete session into a confirmed appointment and removes the session.
// A missing session yields an error matching both ErrIncompleteBooking and ErrSessionNotFound.
func (s *Service) Finalize(ctx context.Context, conversationID string) (*Appointment, error) {
	session, err := s.sessions.Get(ctx, conversationID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, fmt.Errorf("%w: %w", ErrIncompleteBooking, ErrSessionNotFound)
	}
	if err != nil {
		return nil, err
	}
	if !session.Complete() {
		return nil, fmt.Errorf("%w: missing %s", ErrIncompleteBooking, MissingLabels(session.Fields.Missing()))
	}

	// Take is the commit point: a concurrent finalize loses here.
	taken, err := s.sessions.Take(ctx, conversationID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, fmt.Errorf("%w: %w", ErrIncompleteBooking, ErrSessionNotFound)
	}
	if err != nil {
		return nil, err
	}
	if !taken.Complete() {
		_ = s.sessions.Put(ctx, taken)
		return nil, fmt.Errorf("%w: missing %s", ErrIncompleteBooking, MissingLabels(taken.Fields.Missing()))
	}

	appt, err := s.appointments.Create(ctx, NewAppointment{
		PatientName: taken.Fields.PatientName,
		PhoneNumber: taken.Fields.PhoneNumber,
		Department:  taken.Department,
		Date:        taken.Fields.PreferredDate,
		Time:        taken.Fields.PreferredTime,
		Status:      StatusConfirmed,
	})
	if err != nil {
		if restoreErr := s.sessions.Put(ctx, taken); restoreErr != nil {
			s.logger.Error("failed to restore booking session", "conversation_id", conversationID, "error", restoreErr)
		}
		return nil, fmt.Errorf("booking: create appointment: %w", err)
	}

	s.logger.Info("appointment created",
		"conversation_id", conversationID,
		"appointment_id", appt.ID,
		"department", appt.Department,
		"phone", logging.PhoneLast4(appt.PhoneNumber),
	)
	return appt, nil
}

// Lock serializes work on one conversation. Turns and the expiry sweep both take it,
// so a sweep never removes a session between a turn's read and its write.
func (s *Service) Lock(conversationID string) (unlock func()) {
	return s.locks.Lock(conversationID)
}

// SweepExpired removes sessions older than maxAge.
func (s *Service) SweepExpired(ctx context.Context, maxAge time.Duration) (int, error) {
	now := s.now().UTC()
	ids, err := s.sessions.ExpiredIDs(ctx, maxAge, now)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, id := range ids {
		unlock := s.Lock(id)
		ok, err := s.sessions.DeleteIfExpired(ctx, id, maxAge, now)
		unlock()
		if err != nil {
			s.metrics.ObserveSwept(removed)
			return removed, err
		}
		if ok {
			removed++
		}
	}
	s.metrics.ObserveSwept(removed)
	return removed, nil
}

// Appointment looks up an appointment by id.
func (s *Service) Appointment(ctx context.Context, id string) (*Appointment, error) {
	return s.appointments.Get(ctx, id)
}

// CancelAppointment marks the appointment cancelled.
func (s *Service) CancelAppointment(ctx context.Context, id string) (*Appointment, error) {
	appt, err := s.appointments.Cancel(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("appointment cancelled", "appointment_id", id)
	return appt, nil
}

// baseSlots are the bookable times of a clinic day.
var baseSlots = func() []string {
	var out []string
	for _, block := range [][2]int{{9, 12}, {14, 17}} {
		for h := block[0]; h < block[1]; h++ {
			out = append(out, fmt.Sprintf("%02d:00", h), fmt.Sprintf("%02d:30", h))
		}
	}
	return out
}()

// AvailableSlots returns the base slots minus confirmed appointments for the department and date.
// The schedule is illustrative only.
func (s *Service) AvailableSlots(ctx context.Context, department, date string) ([]string, error) {
	booked, err := s.appointments.BookedTimes(ctx, department, date)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]struct{}, len(booked))
	for _, t := range booked {
		taken[t] = struct{}{}
	}
	out := make([]string, 0, len(baseSlots))
	for _, slot := range baseSlots {
		if _, ok := taken[slot]; !ok {
			out = append(out, slot)
		}
	}
	sort.Strings(out)
	return out, nil
}
