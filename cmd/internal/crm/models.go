// Package crm holds the tenant-facing domain types and typed REST wrappers
// for conversations, leads, users, the current tenant, the sales pipeline,
// the calendar, the AI auto-responder and the WhatsApp integration.
//
// Message and Conversation are the realtime contract types; REST and the
// realtime channel share one shape.
package crm

import (
	v1 "leadflow/shared/contracts/realtime/v1"
)

type (
	Message      = v1.Message
	Conversation = v1.Conversation
	Time         = v1.Time
)

// Role is a user's permission level inside a tenant.
type Role string

const (
	RoleOwner   Role = "owner"
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleMember  Role = "member"
)

// User is a tenant member.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	FullName    string `json:"full_name"`
	Name        string `json:"name,omitempty"`
	Phone       string `json:"phone,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Role        Role   `json:"role"`
	IsActive    bool   `json:"is_active"`
	TenantID    string `json:"tenant_id"`
	CreatedAt   Time   `json:"created_at"`
	UpdatedAt   Time   `json:"updated_at"`
	LastLoginAt Time   `json:"last_login_at"`
}

// Tenant is the company account that owns users, leads and conversations.
type Tenant struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Slug      string         `json:"slug"`
	Email     string         `json:"email"`
	Phone     string         `json:"phone,omitempty"`
	Document  string         `json:"document,omitempty"`
	Plan      string         `json:"plan"`
	IsActive  bool           `json:"is_active"`
	Settings  map[string]any `json:"settings,omitempty"`
	CreatedAt Time           `json:"created_at"`
	UpdatedAt Time           `json:"updated_at"`
}

// LeadStatus is a lead's pipeline stage.
type LeadStatus string

const (
	LeadNew         LeadStatus = "new"
	LeadContacted   LeadStatus = "contacted"
	LeadQualified   LeadStatus = "qualified"
	LeadProposal    LeadStatus = "proposal"
	LeadNegotiation LeadStatus = "negotiation"
	LeadWon         LeadStatus = "won"
	LeadLost        LeadStatus = "lost"
	LeadInactive    LeadStatus = "inactive"
)

// LeadSource is where a lead came from.
type LeadSource string

const (
	SourceManual   LeadSource = "manual"
	SourceWhatsApp LeadSource = "whatsapp"
	SourceWebsite  LeadSource = "website"
	SourceFacebook LeadSource = "facebook"
	SourceGoogle   LeadSource = "google"
	SourceReferral LeadSource = "referral"
	SourceImport   LeadSource = "import"
	SourceOther    LeadSource = "other"
)

// Lead is a sales prospect.
type Lead struct {
	ID                  string         `json:"id"`
	Name                string         `json:"name"`
	Email               string         `json:"email,omitempty"`
	Phone               string         `json:"phone"`
	PhoneSecondary      string         `json:"phone_secondary,omitempty"`
	Document            string         `json:"document,omitempty"`
	CompanyName         string         `json:"company_name,omitempty"`
	CompanyPosition     string         `json:"company_position,omitempty"`
	AddressStreet       string         `json:"address_street,omitempty"`
	AddressNumber       string         `json:"address_number,omitempty"`
	AddressComplement   string         `json:"address_complement,omitempty"`
	AddressNeighborhood string         `json:"address_neighborhood,omitempty"`
	AddressCity         string         `json:"address_city,omitempty"`
	AddressState        string         `json:"address_state,omitempty"`
	AddressZipcode      string         `json:"address_zipcode,omitempty"`
	Status              LeadStatus     `json:"status"`
	Source              LeadSource     `json:"source"`
	SourceDetail        string         `json:"source_detail,omitempty"`
	Score               int            `json:"score"`
	Temperature         string         `json:"temperature,omitempty"`
	Interest            string         `json:"interest,omitempty"`
	Budget              *float64       `json:"budget,omitempty"`
	Notes               string         `json:"notes,omitempty"`
	Tags                []string       `json:"tags"`
	CustomFields        map[string]any `json:"custom_fields,omitempty"`
	TenantID            string         `json:"tenant_id"`
	AssignedToID        string         `json:"assigned_to_id,omitempty"`
	CreatedByID         string         `json:"created_by_id,omitempty"`
	CreatedAt           Time           `json:"created_at"`
	UpdatedAt           Time           `json:"updated_at"`
	LastContactAt       Time           `json:"last_contact_at"`
	ConvertedAt         Time           `json:"converted_at"`
}

// LeadCreate is the payload for creating a lead.
type LeadCreate struct {
	Name         string     `json:"name"`
	Phone        string     `json:"phone"`
	Email        string     `json:"email,omitempty"`
	CompanyName  string     `json:"company_name,omitempty"`
	Status       LeadStatus `json:"status,omitempty"`
	Source       LeadSource `json:"source,omitempty"`
	Interest     string     `json:"interest,omitempty"`
	Budget       *float64   `json:"budget,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	AssignedToID string     `json:"assigned_to_id,omitempty"`
}

// LeadUpdate is a partial update; nil fields are left untouched.
type LeadUpdate struct {
	Name         *string     `json:"name,omitempty"`
	Phone        *string     `json:"phone,omitempty"`
	Email        *string     `json:"email,omitempty"`
	CompanyName  *string     `json:"company_name,omitempty"`
	Status       *LeadStatus `json:"status,omitempty"`
	Source       *LeadSource `json:"source,omitempty"`
	Interest     *string     `json:"interest,omitempty"`
	Budget       *float64    `json:"budget,omitempty"`
	Notes        *string     `json:"notes,omitempty"`
	Tags         []string    `json:"tags,omitempty"`
	AssignedToID *string     `json:"assigned_to_id,omitempty"`
	Score        *int        `json:"score,omitempty"`
	Temperature  *string     `json:"temperature,omitempty"`
}

// LeadFilters narrows a lead listing. Zero values are omitted.
type LeadFilters struct {
	Page         int
	PerPage      int
	Status       LeadStatus
	Source       LeadSource
	Search       string
	AssignedToID string
	Temperature  string
}

// LeadStats is the per-tenant lead breakdown.
type LeadStats struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
	BySource map[string]int `json:"by_source"`
}

// Page is one page of a paginated listing.
type Page[T any] struct {
	Items   []T `json:"items"`
	Total   int `json:"total"`
	Page    int `json:"page"`
	Pages   int `json:"pages"`
	PerPage int `json:"per_page"`
}

// ConversationWithMessages is a conversation plus its message history.
type ConversationWithMessages struct {
	Conversation
	Messages []Message `json:"messages"`
}

// MessageCreate is the payload for sending a message.
type MessageCreate struct {
	Content     string         `json:"content"`
	MessageType v1.MessageType `json:"message_type,omitempty"`
}

// UserCreate is the payload for inviting a user into the tenant.
type UserCreate struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
	Role     Role   `json:"role,omitempty"`
}

// UserUpdate is a partial user update.
type UserUpdate struct {
	FullName *string `json:"full_name,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Role     *Role   `json:"role,omitempty"`
}
