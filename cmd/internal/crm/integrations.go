package crm

import "context"

// WhatsAppState is the provider's connection state for an instance.
type WhatsAppState string

const (
	WhatsAppOpen       WhatsAppState = "open"
	WhatsAppClose      WhatsAppState = "close"
	WhatsAppConnecting WhatsAppState = "connecting"
	WhatsAppNotFound   WhatsAppState = "not_found"
	WhatsAppError      WhatsAppState = "error"
)

// WhatsAppStatus describes the tenant's WhatsApp instance.
type WhatsAppStatus struct {
	Instance    string        `json:"instance"`
	State       WhatsAppState `json:"state"`
	Connected   bool          `json:"connected"`
	PhoneNumber string        `json:"phone_number,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// WhatsAppQRCode is a pairing code for linking a phone.
type WhatsAppQRCode struct {
	Instance    string `json:"instance"`
	Base64      string `json:"base64,omitempty"`
	PairingCode string `json:"pairingCode,omitempty"`
	Code        string `json:"code,omitempty"`
	Error       string `json:"error,omitempty"`
}

// WhatsAppConnectResponse is returned when starting a connection. Status is
// qrcode_ready, already_connected or error.
type WhatsAppConnectResponse struct {
	Instance   string          `json:"instance"`
	Status     string          `json:"status"`
	QRCode     *WhatsAppQRCode `json:"qrcode,omitempty"`
	Connection *WhatsAppStatus `json:"connection,omitempty"`
	Message    string          `json:"message,omitempty"`
}

// WhatsAppDisconnectResponse is returned by disconnect and instance removal.
type WhatsAppDisconnectResponse struct {
	Instance string `json:"instance"`
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
}

// IntegrationStatus summarizes every integration of the tenant.
type IntegrationStatus struct {
	WhatsApp     WhatsAppStatus `json:"whatsapp"`
	EvolutionAPI bool           `json:"evolution_api"`
}

// Integrations wraps /integrations.
type Integrations struct{ d Doer }

// Status returns the state of every integration.
func (i *Integrations) Status(ctx context.Context) (IntegrationStatus, error) {
	var out IntegrationStatus
	err := get(ctx, i.d, "/integrations/status", nil, &out)
	return out, err
}

// WhatsAppStatus returns the WhatsApp instance state.
func (i *Integrations) WhatsAppStatus(ctx context.Context) (WhatsAppStatus, error) {
	var out WhatsAppStatus
	err := get(ctx, i.d, "/integrations/whatsapp/status", nil, &out)
	return out, err
}

// ConnectWhatsApp starts pairing, or reports an existing connection.
func (i *Integrations) ConnectWhatsApp(ctx context.Context) (WhatsAppConnectResponse, error) {
	var out WhatsAppConnectResponse
	err := post(ctx, i.d, "/integrations/whatsapp/connect", nil, &out)
	return out, err
}

// RefreshQRCode issues a new pairing code.
func (i *Integrations) RefreshQRCode(ctx context.Context) (WhatsAppQRCode, error) {
	var out WhatsAppQRCode
	err := post(ctx, i.d, "/integrations/whatsapp/qrcode/refresh", nil, &out)
	return out, err
}

// DisconnectWhatsApp logs the phone out but keeps the instance.
func (i *Integrations) DisconnectWhatsApp(ctx context.Context) (WhatsAppDisconnectResponse, error) {
	var out WhatsAppDisconnectResponse
	err := post(ctx, i.d, "/integrations/whatsapp/disconnect", nil, &out)
	return out, err
}

// DeleteWhatsAppInstance removes the instance at the provider.
func (i *Integrations) DeleteWhatsAppInstance(ctx context.Context) (WhatsAppDisconnectResponse, error) {
	var out WhatsAppDisconnectResponse
	err := i.d.Do(ctx, deleteRequest("/integrations/whatsapp/instance"), &out)
	return out, err
}
