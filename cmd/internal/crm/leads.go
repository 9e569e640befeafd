package crm

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"leadflow/cmd/internal/httpapi"
)

// Leads wraps /leads.
type Leads struct{ d Doer }

func (f LeadFilters) values() url.Values {
	q := url.Values{}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(f.PerPage))
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.Source != "" {
		q.Set("source", string(f.Source))
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.AssignedToID != "" {
		q.Set("assigned_to_id", f.AssignedToID)
	}
	if f.Temperature != "" {
		q.Set("temperature", f.Temperature)
	}
	return q
}

// List returns one page of leads matching f.
func (l *Leads) List(ctx context.Context, f LeadFilters) (Page[Lead], error) {
	var out Page[Lead]
	err := get(ctx, l.d, "/leads", f.values(), &out)
	return out, err
}

// Get returns one lead.
func (l *Leads) Get(ctx context.Context, id string) (Lead, error) {
	var out Lead
	err := get(ctx, l.d, "/leads/"+seg(id), nil, &out)
	return out, err
}

// Create adds a lead.
func (l *Leads) Create(ctx context.Context, in LeadCreate) (Lead, error) {
	var out Lead
	err := post(ctx, l.d, "/leads", in, &out)
	return out, err
}

// Update applies a partial update.
func (l *Leads) Update(ctx context.Context, id string, in LeadUpdate) (Lead, error) {
	var out Lead
	err := patch(ctx, l.d, "/leads/"+seg(id), in, &out)
	return out, err
}

// Delete removes a lead.
func (l *Leads) Delete(ctx context.Context, id string) error {
	return del(ctx, l.d, "/leads/"+seg(id))
}

// Stats returns the tenant-wide breakdown.
func (l *Leads) Stats(ctx context.Context) (LeadStats, error) {
	var out LeadStats
	err := get(ctx, l.d, "/leads/stats", nil, &out)
	return out, err
}

// ByPhone looks a lead up by phone number. It returns (nil, nil) when none exists.
func (l *Leads) ByPhone(ctx context.Context, phone string) (*Lead, error) {
	var out Lead
	err := get(ctx, l.d, "/leads/by-phone/"+seg(phone), nil, &out)
	if errors.Is(err, httpapi.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateStatus moves a lead to another pipeline stage.
func (l *Leads) UpdateStatus(ctx context.Context, id string, status LeadStatus) (Lead, error) {
	var out Lead
	err := patch(ctx, l.d, "/leads/"+seg(id)+"/status", map[string]LeadStatus{"status": status}, &out)
	return out, err
}

// Assign sets the lead owner. An empty userID unassigns.
func (l *Leads) Assign(ctx context.Context, id, userID string) (Lead, error) {
	body := map[string]*string{"assigned_to_id": nil}
	if userID != "" {
		body["assigned_to_id"] = &userID
	}
	var out Lead
	err := patch(ctx, l.d, "/leads/"+seg(id)+"/assign", body, &out)
	return out, err
}
