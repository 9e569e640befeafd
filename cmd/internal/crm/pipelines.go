package crm

import "context"

// Pipeline is a sales funnel made of ordered stages.
type Pipeline struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	IsActive    bool           `json:"is_active"`
	IsDefault   bool           `json:"is_default"`
	Settings    map[string]any `json:"settings,omitempty"`
	TenantID    string         `json:"tenant_id"`
	CreatedAt   Time           `json:"created_at"`
	UpdatedAt   Time           `json:"updated_at"`
}

// PipelineDetail is a pipeline with its stages in order.
type PipelineDetail struct {
	Pipeline
	Stages []Stage `json:"stages"`
}

// Stage is one column of a pipeline. Won and lost stages close deals.
type Stage struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Position        int    `json:"position"`
	Color           string `json:"color"`
	IsWon           bool   `json:"is_won"`
	IsLost          bool   `json:"is_lost"`
	AutoProbability *int   `json:"auto_probability,omitempty"`
	PipelineID      string `json:"pipeline_id"`
	CreatedAt       Time   `json:"created_at"`
}

// PipelineCreate is the payload for a new pipeline.
type PipelineCreate struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// StageCreate is the payload for a new stage.
type StageCreate struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// StageUpdate is a partial stage update.
type StageUpdate struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
}

// KanbanStage is a stage with its deals and totals.
type KanbanStage struct {
	Stage
	Deals      []Deal  `json:"deals"`
	DealsCount int     `json:"deals_count"`
	DealsValue float64 `json:"deals_value"`
}

// KanbanView is the board for one pipeline.
type KanbanView struct {
	Pipeline   Pipeline      `json:"pipeline"`
	Stages     []KanbanStage `json:"stages"`
	TotalDeals int           `json:"total_deals"`
	TotalValue float64       `json:"total_value"`
}

// Pipelines wraps /pipelines and /stages.
type Pipelines struct{ d Doer }

// List returns every pipeline of the tenant.
func (p *Pipelines) List(ctx context.Context) ([]Pipeline, error) {
	var out []Pipeline
	err := get(ctx, p.d, "/pipelines", nil, &out)
	return out, err
}

// Get returns one pipeline with its stages.
func (p *Pipelines) Get(ctx context.Context, id string) (PipelineDetail, error) {
	var out PipelineDetail
	err := get(ctx, p.d, "/pipelines/"+seg(id), nil, &out)
	return out, err
}

// Kanban returns the board view of a pipeline.
func (p *Pipelines) Kanban(ctx context.Context, id string) (KanbanView, error) {
	var out KanbanView
	err := get(ctx, p.d, "/pipelines/"+seg(id)+"/kanban", nil, &out)
	return out, err
}

// Create adds a pipeline.
func (p *Pipelines) Create(ctx context.Context, in PipelineCreate) (Pipeline, error) {
	var out Pipeline
	err := post(ctx, p.d, "/pipelines", in, &out)
	return out, err
}

// CreateStage appends a stage to a pipeline.
func (p *Pipelines) CreateStage(ctx context.Context, pipelineID string, in StageCreate) (Stage, error) {
	var out Stage
	err := post(ctx, p.d, "/pipelines/"+seg(pipelineID)+"/stages", in, &out)
	return out, err
}

// ReorderStages sets the stage order; stageIDs lists every stage once.
func (p *Pipelines) ReorderStages(ctx context.Context, pipelineID string, stageIDs []string) ([]Stage, error) {
	var out []Stage
	body := struct {
		StageIDs []string `json:"stage_ids"`
	}{stageIDs}
	err := put(ctx, p.d, "/pipelines/"+seg(pipelineID)+"/stages/reorder", body, &out)
	return out, err
}

// UpdateStage renames or recolours a stage.
func (p *Pipelines) UpdateStage(ctx context.Context, stageID string, in StageUpdate) (Stage, error) {
	var out Stage
	err := patch(ctx, p.d, "/stages/"+seg(stageID), in, &out)
	return out, err
}

// DeleteStage removes a stage.
func (p *Pipelines) DeleteStage(ctx context.Context, stageID string) error {
	return del(ctx, p.d, "/stages/"+seg(stageID))
}
