package crm

import (
	"context"
	"net/url"
)

// AppointmentType is the kind of calendar entry.
type AppointmentType string

const (
	AppointmentMeeting  AppointmentType = "meeting"
	AppointmentCall     AppointmentType = "call"
	AppointmentVisit    AppointmentType = "visit"
	AppointmentFollowUp AppointmentType = "follow_up"
	AppointmentDemo     AppointmentType = "demo"
	AppointmentOther    AppointmentType = "other"
)

// AppointmentStatus is where an appointment is in its lifecycle.
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentNoShow    AppointmentStatus = "no_show"
)

// Appointment is a calendar entry, optionally tied to a lead.
type Appointment struct {
	ID              string            `json:"id"`
	TenantID        string            `json:"tenant_id"`
	LeadID          string            `json:"lead_id,omitempty"`
	AssignedTo      string            `json:"assigned_to,omitempty"`
	Title           string            `json:"title"`
	Description     string            `json:"description,omitempty"`
	Type            AppointmentType   `json:"type"`
	Status          AppointmentStatus `json:"status"`
	StartTime       Time              `json:"start_time"`
	EndTime         Time              `json:"end_time"`
	Location        string            `json:"location,omitempty"`
	MeetingURL      string            `json:"meeting_url,omitempty"`
	ReminderMinutes *int              `json:"reminder_minutes,omitempty"`
	Notes           string            `json:"notes,omitempty"`
	ClientName      string            `json:"client_name,omitempty"`
	ClientPhone     string            `json:"client_phone,omitempty"`
	CreatedAt       Time              `json:"created_at"`
	UpdatedAt       Time              `json:"updated_at"`

	Lead         *AppointmentLead `json:"lead,omitempty"`
	AssignedUser *AppointmentUser `json:"assigned_user,omitempty"`
}

// AppointmentLead is the lead summary embedded in an appointment.
type AppointmentLead struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// AppointmentUser is the assignee summary embedded in an appointment.
type AppointmentUser struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// AppointmentCreate is the payload for a new appointment.
type AppointmentCreate struct {
	LeadID          string          `json:"lead_id,omitempty"`
	AssignedTo      string          `json:"assigned_to,omitempty"`
	Title           string          `json:"title"`
	Description     string          `json:"description,omitempty"`
	Type            AppointmentType `json:"type"`
	StartTime       Time            `json:"start_time"`
	EndTime         Time            `json:"end_time"`
	Location        string          `json:"location,omitempty"`
	MeetingURL      string          `json:"meeting_url,omitempty"`
	ReminderMinutes *int            `json:"reminder_minutes,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	ClientName      string          `json:"client_name,omitempty"`
	ClientPhone     string          `json:"client_phone,omitempty"`
}

// AppointmentUpdate is a partial update. Status changes normally go through
// Confirm, Cancel, Complete and NoShow.
type AppointmentUpdate struct {
	LeadID          *string            `json:"lead_id,omitempty"`
	AssignedTo      *string            `json:"assigned_to,omitempty"`
	Title           *string            `json:"title,omitempty"`
	Description     *string            `json:"description,omitempty"`
	Type            *AppointmentType   `json:"type,omitempty"`
	Status          *AppointmentStatus `json:"status,omitempty"`
	StartTime       *Time              `json:"start_time,omitempty"`
	EndTime         *Time              `json:"end_time,omitempty"`
	Location        *string            `json:"location,omitempty"`
	MeetingURL      *string            `json:"meeting_url,omitempty"`
	ReminderMinutes *int               `json:"reminder_minutes,omitempty"`
	Notes           *string            `json:"notes,omitempty"`
	ClientName      *string            `json:"client_name,omitempty"`
	ClientPhone     *string            `json:"client_phone,omitempty"`
}

// AppointmentFilters narrows a listing. Dates are passed through as given
// (the server accepts YYYY-MM-DD or a full timestamp).
type AppointmentFilters struct {
	StartDate  string
	EndDate    string
	LeadID     string
	AssignedTo string
	Type       AppointmentType
	Status     AppointmentStatus
}

func (f AppointmentFilters) values() url.Values {
	q := url.Values{}
	for k, v := range map[string]string{
		"start_date":  f.StartDate,
		"end_date":    f.EndDate,
		"lead_id":     f.LeadID,
		"assigned_to": f.AssignedTo,
		"type":        string(f.Type),
		"status":      string(f.Status),
	} {
		if v != "" {
			q.Set(k, v)
		}
	}
	return q
}

// Appointments wraps /appointments.
type Appointments struct{ d Doer }

// List returns appointments matching f.
func (a *Appointments) List(ctx context.Context, f AppointmentFilters) ([]Appointment, error) {
	var out []Appointment
	err := get(ctx, a.d, "/appointments", f.values(), &out)
	return out, err
}

// Get returns one appointment.
func (a *Appointments) Get(ctx context.Context, id string) (Appointment, error) {
	var out Appointment
	err := get(ctx, a.d, "/appointments/"+seg(id), nil, &out)
	return out, err
}

// Create schedules an appointment.
func (a *Appointments) Create(ctx context.Context, in AppointmentCreate) (Appointment, error) {
	var out Appointment
	err := post(ctx, a.d, "/appointments", in, &out)
	return out, err
}

// Update applies a partial update.
func (a *Appointments) Update(ctx context.Context, id string, in AppointmentUpdate) (Appointment, error) {
	var out Appointment
	err := patch(ctx, a.d, "/appointments/"+seg(id), in, &out)
	return out, err
}

// Delete removes an appointment.
func (a *Appointments) Delete(ctx context.Context, id string) error {
	return del(ctx, a.d, "/appointments/"+seg(id))
}

// Confirm marks an appointment confirmed.
func (a *Appointments) Confirm(ctx context.Context, id string) (Appointment, error) {
	return a.transition(ctx, id, "confirm")
}

// Cancel marks an appointment cancelled.
func (a *Appointments) Cancel(ctx context.Context, id string) (Appointment, error) {
	return a.transition(ctx, id, "cancel")
}

// Complete marks an appointment completed.
func (a *Appointments) Complete(ctx context.Context, id string) (Appointment, error) {
	return a.transition(ctx, id, "complete")
}

// NoShow marks that the client did not attend.
func (a *Appointments) NoShow(ctx context.Context, id string) (Appointment, error) {
	return a.transition(ctx, id, "no-show")
}

func (a *Appointments) transition(ctx context.Context, id, action string) (Appointment, error) {
	var out Appointment
	err := post(ctx, a.d, "/appointments/"+seg(id)+"/"+action, nil, &out)
	return out, err
}
