package crm

import "context"

// AgentConfig is the tenant's AI auto-responder configuration.
type AgentConfig struct {
	ID                     string  `json:"id"`
	TenantID               string  `json:"tenant_id"`
	IsEnabled              bool    `json:"is_enabled"`
	AgentName              string  `json:"agent_name"`
	AgentRole              string  `json:"agent_role"`
	CompanyName            string  `json:"company_name,omitempty"`
	CompanyDescription     string  `json:"company_description,omitempty"`
	ScheduleEnabled        bool    `json:"schedule_enabled"`
	ScheduleStart          string  `json:"schedule_start,omitempty"`
	ScheduleEnd            string  `json:"schedule_end,omitempty"`
	ScheduleDays           []int   `json:"schedule_days"`
	ScheduleTimezone       string  `json:"schedule_timezone"`
	OutsideHoursMessage    string  `json:"outside_hours_message,omitempty"`
	BasePrompt             string  `json:"base_prompt,omitempty"`
	MaxMessagesBeforeHuman int     `json:"max_messages_before_human"`
	ResponseDelaySeconds   int     `json:"response_delay_seconds"`
	LLMProvider            string  `json:"llm_provider"`
	LLMModel               string  `json:"llm_model"`
	LLMTemperature         float64 `json:"llm_temperature"`
	CreatedAt              Time    `json:"created_at"`
	UpdatedAt              Time    `json:"updated_at"`
}

// AgentConfigUpdate is a partial update. ScheduleDays uses 0 for Sunday.
type AgentConfigUpdate struct {
	IsEnabled       *bool   `json:"is_enabled,omitempty"`
	AgentName       *string `json:"agent_name,omitempty"`
	AgentRole       *string `json:"agent_role,omitempty"`
	CompanyName     *string `json:"company_name,omitempty"`
	ScheduleEnabled *bool   `json:"schedule_enabled,omitempty"`
	ScheduleStart   *string `json:"schedule_start,omitempty"`
	ScheduleEnd     *string `json:"schedule_end,omitempty"`
	ScheduleDays    []int   `json:"schedule_days,omitempty"`
	BasePrompt      *string `json:"base_prompt,omitempty"`
}

// AgentStatus is the auto-responder's live state.
type AgentStatus struct {
	IsEnabled        bool   `json:"is_enabled"`
	AgentName        string `json:"agent_name"`
	IsWithinSchedule bool   `json:"is_within_schedule"`
	ScheduleEnabled  bool   `json:"schedule_enabled"`
}

// AIAgent wraps /ai-agent.
type AIAgent struct{ d Doer }

// Config returns the auto-responder configuration.
func (a *AIAgent) Config(ctx context.Context) (AgentConfig, error) {
	var out AgentConfig
	err := get(ctx, a.d, "/ai-agent/config", nil, &out)
	return out, err
}

// UpdateConfig applies a partial update.
func (a *AIAgent) UpdateConfig(ctx context.Context, in AgentConfigUpdate) (AgentConfig, error) {
	var out AgentConfig
	err := patch(ctx, a.d, "/ai-agent/config", in, &out)
	return out, err
}

// Toggle flips the auto-responder on or off and reports the new state.
func (a *AIAgent) Toggle(ctx context.Context) (bool, error) {
	var out struct {
		IsEnabled bool `json:"is_enabled"`
	}
	err := post(ctx, a.d, "/ai-agent/toggle", nil, &out)
	return out.IsEnabled, err
}

// Status reports whether the auto-responder is enabled and in schedule.
func (a *AIAgent) Status(ctx context.Context) (AgentStatus, error) {
	var out AgentStatus
	err := get(ctx, a.d, "/ai-agent/status", nil, &out)
	return out, err
}
