package booking

import (
	"context"
	"sync"
	"time"
)

// MemoryAppointmentRepository keeps appointments in memory.
type MemoryAppointmentRepository struct {
	now func() time.Time

	mu           sync.RWMutex
	appointments map[string]*Appointment
	created      int
}

var _ AppointmentRepository = (*MemoryAppointmentRepository)(nil)

func NewMemoryAppointmentRepository() *MemoryAppointmentRepository {
	return &MemoryAppointmentRepository{
		now:          time.Now,
		appointments: make(map[string]*Appointment),
	}
}

func (r *MemoryAppointmentRepository) Create(ctx context.Context, in NewAppointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.created++
	appt := &Appointment{
		ID:          AppointmentID(r.created),
		PatientName: in.PatientName,
		PhoneNumber: in.PhoneNumber,
		Department:  in.Department,
		Date:        in.Date,
		Time:        in.Time,
		Status:      in.Status,
		CreatedAt:   r.now().UTC(),
	}
	if appt.Status == "" {
		appt.Status = StatusConfirmed
	}
	r.appointments[appt.ID] = appt
	cp := *appt
	return &cp, nil
}

func (r *MemoryAppointmentRepository) Get(ctx context.Context, id string) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	appt, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *appt
	return &cp, nil
}

func (r *MemoryAppointmentRepository) Cancel(ctx context.Context, id string) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	appt, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	appt.Status = StatusCancelled
	cp := *appt
	return &cp, nil
}

func (r *MemoryAppointmentRepository) BookedTimes(ctx context.Context, department, date string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for _, appt := range r.appointments {
		if appt.Department == department && appt.Date == date && appt.Status == StatusConfirmed {
			out = append(out, appt.Time)
		}
	}
	return out, nil
}

func (r *MemoryAppointmentRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.created, nil
}
