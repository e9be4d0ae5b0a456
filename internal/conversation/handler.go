package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/medconsult-ai/internal/booking"
	"github.com/wolfman30/medconsult-ai/pkg/logging"
)

// maxChatBody bounds POST /chat payloads, history included.
const maxChatBody = 1 << 20

// Appointments is the slice of the booking service the HTTP surface needs.
type Appointments interface {
	Appointment(ctx context.Context, id string) (*booking.Appointment, error)
	CancelAppointment(ctx context.Context, id string) (*booking.Appointment, error)
	AvailableSlots(ctx context.Context, department, date string) ([]string, error)
}

// Handler wires HTTP requests to the assistant and the appointment book.
type Handler struct {
	chat         Chatter
	appointments Appointments
	logger       *logging.Logger
}

// NewHandler creates a conversation handler.
func NewHandler(chat Chatter, appointments Appointments, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		chat:         chat,
		appointments: appointments,
		logger:       logger,
	}
}

// appointmentView is the public shape of an appointment; the phone number stays server side.
type appointmentView struct {
	ID          string         `json:"appointment_id"`
	PatientName string         `json:"patient_name"`
	Department  string         `json:"department"`
	Date        string         `json:"appointment_date"`
	Time        string         `json:"appointment_time"`
	Status      booking.Status `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
}

func viewOf(a *booking.Appointment) appointmentView {
	return appointmentView{
		ID:          a.ID,
		PatientName: a.PatientName,
		Department:  a.Department,
		Date:        a.Date,
		Time:        a.Time,
		Status:      a.Status,
		CreatedAt:   a.CreatedAt,
	}
}

type chatResponseBody struct {
	ConversationID string           `json:"conversation_id"`
	Messages       []string         `json:"messages"`
	NeedMoreInfo   bool             `json:"need_more_info"`
	Intent         Intent           `json:"intent"`
	Appointment    *appointmentView `json:"appointment,omitempty"`
}

// Chat handles POST /chat.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBody)).Decode(&req); err != nil {
		h.logger.Error("failed to decode chat request", "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		h.writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	resp := h.chat.Chat(r.Context(), req)
	body := chatResponseBody{
		ConversationID: resp.ConversationID,
		Messages:       resp.Messages,
		NeedMoreInfo:   resp.NeedMoreInfo,
		Intent:         resp.Intent,
	}
	if resp.Appointment != nil {
		v := viewOf(resp.Appointment)
		body.Appointment = &v
	}
	h.writeJSON(w, http.StatusOK, body)
}

// GetAppointment handles GET /appointments/{id}.
func (h *Handler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	appt, err := h.appointments.Appointment(r.Context(), id)
	if err != nil {
		h.appointmentError(w, id, err)
		return
	}
	h.writeJSON(w, http.StatusOK, viewOf(appt))
}

// CancelAppointment handles POST /appointments/{id}/cancel.
func (h *Handler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.appointments.CancelAppointment(r.Context(), id); err != nil {
		h.appointmentError(w, id, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Appointment cancelled successfully"})
}

// AvailableSlots handles GET /departments/{department}/slots?date=.
func (h *Handler) AvailableSlots(w http.ResponseWriter, r *http.Request) {
	department := chi.URLParam(r, "department")
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		h.writeError(w, http.StatusBadRequest, "date is required")
		return
	}
	slots, err := h.appointments.AvailableSlots(r.Context(), department, date)
	if err != nil {
		h.logger.Error("failed to list slots", "department", department, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to list available slots")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"department": department,
		"date":       date,
		"slots":      slots,
	})
}

func (h *Handler) appointmentError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, booking.ErrAppointmentNotFound) {
		h.writeError(w, http.StatusNotFound, "Appointment not found")
		return
	}
	h.logger.Error("appointment lookup failed", "appointment_id", id, "error", err)
	h.writeError(w, http.StatusInternalServerError, "Failed to load appointment")
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}
