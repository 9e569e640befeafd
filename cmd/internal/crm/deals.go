package crm

import "context"

// Deal is an opportunity sitting in one pipeline stage.
type Deal struct {
	ID                string         `json:"id"`
	Title             string         `json:"title"`
	Value             float64        `json:"value"`
	Probability       int            `json:"probability"`
	ExpectedCloseDate string         `json:"expected_close_date,omitempty"`
	Notes             string         `json:"notes,omitempty"`
	Position          int            `json:"position"`
	IsWon             bool           `json:"is_won"`
	IsLost            bool           `json:"is_lost"`
	LostReason        string         `json:"lost_reason,omitempty"`
	CustomFields      map[string]any `json:"custom_fields,omitempty"`
	TenantID          string         `json:"tenant_id"`
	PipelineID        string         `json:"pipeline_id"`
	StageID           string         `json:"stage_id"`
	LeadID            string         `json:"lead_id,omitempty"`
	AssignedToID      string         `json:"assigned_to_id,omitempty"`
	CreatedByID       string         `json:"created_by_id,omitempty"`
	CreatedAt         Time           `json:"created_at"`
	UpdatedAt         Time           `json:"updated_at"`
	WonAt             Time           `json:"won_at"`
	LostAt            Time           `json:"lost_at"`
}

// DealCreate is the payload for a new deal. ExpectedCloseDate is YYYY-MM-DD.
type DealCreate struct {
	Title             string   `json:"title"`
	StageID           string   `json:"stage_id"`
	Value             *float64 `json:"value,omitempty"`
	Probability       *int     `json:"probability,omitempty"`
	ExpectedCloseDate string   `json:"expected_close_date,omitempty"`
	Notes             string   `json:"notes,omitempty"`
	LeadID            string   `json:"lead_id,omitempty"`
	AssignedToID      string   `json:"assigned_to_id,omitempty"`
}

// DealUpdate is a partial deal update.
type DealUpdate struct {
	Title             *string  `json:"title,omitempty"`
	StageID           *string  `json:"stage_id,omitempty"`
	Value             *float64 `json:"value,omitempty"`
	Probability       *int     `json:"probability,omitempty"`
	ExpectedCloseDate *string  `json:"expected_close_date,omitempty"`
	Notes             *string  `json:"notes,omitempty"`
	LeadID            *string  `json:"lead_id,omitempty"`
	AssignedToID      *string  `json:"assigned_to_id,omitempty"`
}

// DealMove places a deal in a stage. A nil Position appends.
type DealMove struct {
	StageID  string `json:"stage_id"`
	Position *int   `json:"position,omitempty"`
}

// Deals wraps /deals and the per-pipeline deal routes.
type Deals struct{ d Doer }

// Create adds a deal to a pipeline.
func (s *Deals) Create(ctx context.Context, pipelineID string, in DealCreate) (Deal, error) {
	var out Deal
	err := post(ctx, s.d, "/pipelines/"+seg(pipelineID)+"/deals", in, &out)
	return out, err
}

// Get returns one deal.
func (s *Deals) Get(ctx context.Context, id string) (Deal, error) {
	var out Deal
	err := get(ctx, s.d, "/deals/"+seg(id), nil, &out)
	return out, err
}

// Update applies a partial update.
func (s *Deals) Update(ctx context.Context, id string, in DealUpdate) (Deal, error) {
	var out Deal
	err := patch(ctx, s.d, "/deals/"+seg(id), in, &out)
	return out, err
}

// Move drags a deal to another stage or position.
func (s *Deals) Move(ctx context.Context, id string, in DealMove) (Deal, error) {
	var out Deal
	err := put(ctx, s.d, "/deals/"+seg(id)+"/move", in, &out)
	return out, err
}

// MarkWon closes a deal as won.
func (s *Deals) MarkWon(ctx context.Context, id string) (Deal, error) {
	var out Deal
	err := post(ctx, s.d, "/deals/"+seg(id)+"/won", nil, &out)
	return out, err
}

// MarkLost closes a deal as lost. An empty reason is sent as null.
func (s *Deals) MarkLost(ctx context.Context, id, reason string) (Deal, error) {
	body := struct {
		Reason *string `json:"reason"`
	}{}
	if reason != "" {
		body.Reason = &reason
	}
	var out Deal
	err := post(ctx, s.d, "/deals/"+seg(id)+"/lost", body, &out)
	return out, err
}

// Delete removes a deal.
func (s *Deals) Delete(ctx context.Context, id string) error {
	return del(ctx, s.d, "/deals/"+seg(id))
}
