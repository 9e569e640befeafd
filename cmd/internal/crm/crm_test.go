package crm

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"leadflow/cmd/internal/httpapi"
)

type recordingDoer struct {
	reqs []httpapi.Request
	resp string
	err  error
}

func (d *recordingDoer) Do(_ context.Context, req httpapi.Request, out any) error {
	d.reqs = append(d.reqs, req)
	if d.err != nil {
		return d.err
	}
	if out != nil && d.resp != "" {
		return json.Unmarshal([]byte(d.resp), out)
	}
	return nil
}

func (d *recordingDoer) last(t *testing.T) httpapi.Request {
	t.Helper()
	if len(d.reqs) == 0 {
		t.Fatalf("no request recorded")
	}
	return d.reqs[len(d.reqs)-1]
}

func TestLeads_ListFilters(t *testing.T) {
	d := &recordingDoer{resp: `{"items":[{"id":"l1","name":"Ana","phone":"5511999990000","status":"new","source":"whatsapp","score":10,"tags":[],"tenant_id":"t1","created_at":"2024-01-01T00:00:00","updated_at":"2024-01-01T00:00:00","last_contact_at":null,"converted_at":null}],"total":1,"page":1,"pages":1,"per_page":20}`}
	c := New(d)

	page, err := c.Leads.List(context.Background(), LeadFilters{PerPage: 20, Status: LeadNew, Search: "ana"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 1 || len(page.Items) != 1 || page.Items[0].Source != SourceWhatsApp {
		t.Fatalf("unexpected page: %+v", page)
	}

	req := d.last(t)
	if req.Method != http.MethodGet || req.Path != "/leads" {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.Query.Get("per_page") != "20" || req.Query.Get("status") != "new" || req.Query.Get("search") != "ana" {
		t.Fatalf("unexpected query: %v", req.Query)
	}
	if req.Query.Has("page") || req.Query.Has("source") {
		t.Fatalf("zero filters must be omitted: %v", req.Query)
	}
}

func TestLeads_ByPhoneNotFound(t *testing.T) {
	d := &recordingDoer{err: &httpapi.Error{Method: http.MethodGet, Path: "/leads/by-phone/x", Status: http.StatusNotFound}}
	c := New(d)

	lead, err := c.Leads.ByPhone(context.Background(), "+55 11 9999")
	if err != nil || lead != nil {
		t.Fatalf("ByPhone=%v,%v want nil,nil", lead, err)
	}
	if got := d.last(t).Path; got != "/leads/by-phone/+55%2011%209999" {
		t.Fatalf("path=%q", got)
	}

	d.err = &httpapi.Error{Status: http.StatusInternalServerError}
	if _, err := c.Leads.ByPhone(context.Background(), "1"); err == nil {
		t.Fatalf("non-404 errors must propagate")
	}
}

func TestLeads_AssignAndUnassign(t *testing.T) {
	d := &recordingDoer{resp: `{"id":"l1"}`}
	c := New(d)

	if _, err := c.Leads.Assign(context.Background(), "l1", "u9"); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	b, _ := json.Marshal(d.last(t).Body)
	if string(b) != `{"assigned_to_id":"u9"}` {
		t.Fatalf("assign body=%s", b)
	}

	if _, err := c.Leads.Assign(context.Background(), "l1", ""); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	b, _ = json.Marshal(d.last(t).Body)
	if string(b) != `{"assigned_to_id":null}` {
		t.Fatalf("unassign body=%s", b)
	}
	if req := d.last(t); req.Method != http.MethodPatch || req.Path != "/leads/l1/assign" {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestConversations_Routes(t *testing.T) {
	d := &recordingDoer{resp: `{"id":"c1","phone":"5511","tags":["vip"],"is_bot_active":true,"created_at":"2024-01-01T00:00:00Z","updated_at":"2024-01-01T00:00:00Z","last_message_at":null,"messages":[{"id":"m1","content":"oi","message_type":"text","direction":"inbound","status":"read","sent_by_bot":false,"conversation_id":"c1","created_at":"2024-01-01T00:00:00Z"}]}`}
	c := New(d)
	ctx := context.Background()

	conv, err := c.Conversations.Get(ctx, "c1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if conv.ID != "c1" || len(conv.Messages) != 1 || !conv.IsBotActive {
		t.Fatalf("unexpected conversation: %+v", conv)
	}

	cases := []struct {
		call   func() error
		method string
		path   string
	}{
		{call: func() error { _, err := c.Conversations.List(ctx, 50); return err }, method: http.MethodGet, path: "/conversations"},
		{call: func() error {
			_, err := c.Conversations.SendMessage(ctx, "c1", MessageCreate{Content: "olá"})
			return err
		}, method: http.MethodPost, path: "/conversations/c1/messages"},
		{call: func() error { return c.Conversations.MarkRead(ctx, "c1") }, method: http.MethodPost, path: "/conversations/c1/read"},
		{call: func() error { _, err := c.Conversations.ToggleBot(ctx, "c1"); return err }, method: http.MethodPost, path: "/conversations/c1/toggle-bot"},
		{call: func() error { _, err := c.Users.Deactivate(ctx, "u1"); return err }, method: http.MethodPost, path: "/users/u1/deactivate"},
		{call: func() error { return c.Users.Delete(ctx, "u1") }, method: http.MethodDelete, path: "/users/u1"},
		{call: func() error { _, err := c.Tenants.Me(ctx); return err }, method: http.MethodGet, path: "/tenants/me"},
	}
	for _, tc := range cases {
		if err := tc.call(); err != nil {
			t.Fatalf("%s %s: %v", tc.method, tc.path, err)
		}
		req := d.last(t)
		if req.Method != tc.method || req.Path != tc.path {
			t.Fatalf("got %s %s want %s %s", req.Method, req.Path, tc.method, tc.path)
		}
	}
}

func TestSalesAndSettings_Routes(t *testing.T) {
	d := &recordingDoer{}
	c := New(d)
	ctx := context.Background()
	pos := 2

	cases := []struct {
		name   string
		call   func() error
		method string
		path   string
		body   string
	}{
		{name: "pipelines", call: func() error { _, err := c.Pipelines.List(ctx); return err }, method: http.MethodGet, path: "/pipelines"},
		{name: "pipeline", call: func() error { _, err := c.Pipelines.Get(ctx, "p1"); return err }, method: http.MethodGet, path: "/pipelines/p1"},
		{name: "kanban", call: func() error { _, err := c.Pipelines.Kanban(ctx, "p1"); return err }, method: http.MethodGet, path: "/pipelines/p1/kanban"},
		{name: "create pipeline", call: func() error {
			_, err := c.Pipelines.Create(ctx, PipelineCreate{Name: "Vendas"})
			return err
		}, method: http.MethodPost, path: "/pipelines", body: `{"name":"Vendas"}`},
		{name: "create stage", call: func() error {
			_, err := c.Pipelines.CreateStage(ctx, "p1", StageCreate{Name: "Proposta", Color: "#f59e0b"})
			return err
		}, method: http.MethodPost, path: "/pipelines/p1/stages", body: `{"name":"Proposta","color":"#f59e0b"}`},
		{name: "reorder", call: func() error {
			_, err := c.Pipelines.ReorderStages(ctx, "p1", []string{"s2", "s1"})
			return err
		}, method: http.MethodPut, path: "/pipelines/p1/stages/reorder", body: `{"stage_ids":["s2","s1"]}`},
		{name: "delete stage", call: func() error { return c.Pipelines.DeleteStage(ctx, "s1") }, method: http.MethodDelete, path: "/stages/s1"},

		{name: "create deal", call: func() error {
			_, err := c.Deals.Create(ctx, "p1", DealCreate{Title: "Plano anual", StageID: "s1"})
			return err
		}, method: http.MethodPost, path: "/pipelines/p1/deals", body: `{"title":"Plano anual","stage_id":"s1"}`},
		{name: "move deal", call: func() error {
			_, err := c.Deals.Move(ctx, "d1", DealMove{StageID: "s2", Position: &pos})
			return err
		}, method: http.MethodPut, path: "/deals/d1/move", body: `{"stage_id":"s2","position":2}`},
		{name: "won", call: func() error { _, err := c.Deals.MarkWon(ctx, "d1"); return err }, method: http.MethodPost, path: "/deals/d1/won"},
		{name: "lost with reason", call: func() error {
			_, err := c.Deals.MarkLost(ctx, "d1", "preço")
			return err
		}, method: http.MethodPost, path: "/deals/d1/lost", body: `{"reason":"preço"}`},
		{name: "lost without reason", call: func() error {
			_, err := c.Deals.MarkLost(ctx, "d1", "")
			return err
		}, method: http.MethodPost, path: "/deals/d1/lost", body: `{"reason":null}`},
		{name: "delete deal", call: func() error { return c.Deals.Delete(ctx, "d1") }, method: http.MethodDelete, path: "/deals/d1"},

		{name: "appointment", call: func() error { _, err := c.Appointments.Get(ctx, "a1"); return err }, method: http.MethodGet, path: "/appointments/a1"},
		{name: "confirm", call: func() error { _, err := c.Appointments.Confirm(ctx, "a1"); return err }, method: http.MethodPost, path: "/appointments/a1/confirm"},
		{name: "cancel", call: func() error { _, err := c.Appointments.Cancel(ctx, "a1"); return err }, method: http.MethodPost, path: "/appointments/a1/cancel"},
		{name: "complete", call: func() error { _, err := c.Appointments.Complete(ctx, "a1"); return err }, method: http.MethodPost, path: "/appointments/a1/complete"},
		{name: "no show", call: func() error { _, err := c.Appointments.NoShow(ctx, "a1"); return err }, method: http.MethodPost, path: "/appointments/a1/no-show"},

		{name: "agent config", call: func() error { _, err := c.AIAgent.Config(ctx); return err }, method: http.MethodGet, path: "/ai-agent/config"},
		{name: "agent toggle", call: func() error { _, err := c.AIAgent.Toggle(ctx); return err }, method: http.MethodPost, path: "/ai-agent/toggle"},
		{name: "agent status", call: func() error { _, err := c.AIAgent.Status(ctx); return err }, method: http.MethodGet, path: "/ai-agent/status"},

		{name: "integrations", call: func() error { _, err := c.Integrations.Status(ctx); return err }, method: http.MethodGet, path: "/integrations/status"},
		{name: "whatsapp connect", call: func() error { _, err := c.Integrations.ConnectWhatsApp(ctx); return err }, method: http.MethodPost, path: "/integrations/whatsapp/connect"},
		{name: "qrcode", call: func() error { _, err := c.Integrations.RefreshQRCode(ctx); return err }, method: http.MethodPost, path: "/integrations/whatsapp/qrcode/refresh"},
		{name: "whatsapp instance", call: func() error {
			_, err := c.Integrations.DeleteWhatsAppInstance(ctx)
			return err
		}, method: http.MethodDelete, path: "/integrations/whatsapp/instance"},
		{name: "profile", call: func() error {
			_, err := c.Users.UpdateProfile(ctx, ProfileUpdate{Name: "Ana", Email: "ana@example.com"})
			return err
		}, method: http.MethodPut, path: "/users/me", body: `{"name":"Ana","email":"ana@example.com"}`},
		{name: "change password", call: func() error {
			return c.Users.ChangePassword(ctx, PasswordChange{CurrentPassword: "old12345", NewPassword: "new12345"})
		}, method: http.MethodPost, path: "/users/me/change-password", body: `{"current_password":"old12345","new_password":"new12345"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.call(); err != nil {
				t.Fatalf("call: %v", err)
			}
			req := d.last(t)
			if req.Method != tc.method || req.Path != tc.path {
				t.Fatalf("got %s %s want %s %s", req.Method, req.Path, tc.method, tc.path)
			}
			if tc.body == "" {
				return
			}
			b, _ := json.Marshal(req.Body)
			if string(b) != tc.body {
				t.Fatalf("body=%s want %s", b, tc.body)
			}
		})
	}
}

func TestPipelines_KanbanDecodes(t *testing.T) {
	d := &recordingDoer{resp: `{
		"pipeline": {"id":"p1","name":"Vendas","description":null,"is_active":true,"is_default":true,"settings":{},"tenant_id":"t1","created_at":"2024-01-01T00:00:00","updated_at":"2024-01-01T00:00:00"},
		"stages": [{"id":"s1","name":"Novo","position":0,"color":"#3b82f6","is_won":false,"is_lost":false,"auto_probability":null,"pipeline_id":"p1","created_at":"2024-01-01T00:00:00",
			"deals":[{"id":"d1","title":"Plano anual","value":1200.5,"probability":40,"expected_close_date":"2024-03-01","notes":null,"position":0,"is_won":false,"is_lost":false,"lost_reason":null,"custom_fields":{},"tenant_id":"t1","pipeline_id":"p1","stage_id":"s1","lead_id":"l1","assigned_to_id":null,"created_by_id":"u1","created_at":"2024-01-02T10:00:00","updated_at":"2024-01-02T10:00:00","won_at":null,"lost_at":null}],
			"deals_count":1,"deals_value":1200.5}],
		"total_deals": 1,
		"total_value": 1200.5
	}`}
	c := New(d)

	k, err := c.Pipelines.Kanban(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Kanban: %v", err)
	}
	if k.Pipeline.ID != "p1" || !k.Pipeline.IsDefault || k.TotalDeals != 1 {
		t.Fatalf("unexpected board: %+v", k)
	}
	if len(k.Stages) != 1 || k.Stages[0].Name != "Novo" || k.Stages[0].AutoProbability != nil {
		t.Fatalf("unexpected stages: %+v", k.Stages)
	}
	deal := k.Stages[0].Deals[0]
	if deal.Value != 1200.5 || deal.LeadID != "l1" || deal.AssignedToID != "" || !deal.WonAt.IsZero() || deal.CreatedAt.IsZero() {
		t.Fatalf("unexpected deal: %+v", deal)
	}
}

func TestAppointments_ListFilters(t *testing.T) {
	d := &recordingDoer{resp: `[{"id":"a1","tenant_id":"t1","title":"Demo","type":"demo","status":"scheduled","start_time":"2024-05-02T14:00:00Z","end_time":"2024-05-02T15:00:00Z","created_at":"2024-05-01T09:00:00Z","updated_at":"2024-05-01T09:00:00Z","lead":{"id":"l1","name":"Ana"}}]`}
	c := New(d)

	list, err := c.Appointments.List(context.Background(), AppointmentFilters{StartDate: "2024-05-01", Status: AppointmentScheduled})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].Type != AppointmentDemo || list[0].Lead == nil || list[0].Lead.Name != "Ana" {
		t.Fatalf("unexpected list: %+v", list)
	}
	if list[0].EndTime.Sub(list[0].StartTime.Time) != time.Hour {
		t.Fatalf("unexpected duration")
	}

	q := d.last(t).Query
	if q.Get("start_date") != "2024-05-01" || q.Get("status") != "scheduled" {
		t.Fatalf("unexpected query: %v", q)
	}
	if q.Has("end_date") || q.Has("type") || q.Has("lead_id") {
		t.Fatalf("zero filters must be omitted: %v", q)
	}
}
