package security

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Gibrhan/Autoconf/internal/audit"
	"github.com/Gibrhan/Autoconf/internal/auth"
	"github.com/Gibrhan/Autoconf/internal/inventory"
	"github.com/Gibrhan/Autoconf/internal/store"
	"github.com/Gibrhan/Autoconf/internal/testutil"
)

func newTestModule(t *testing.T) (*Module, *auth.SessionStore, *testutil.FakeTransport) {
	t.Helper()
	inv := testutil.NewInventory(t,
		inventory.Device{Name: "R1", Host: "10.0.0.1", Username: "admin", Password: "pw", Secret: "en", DeviceType: "cisco_ios"},
	)
	ft := &testutil.FakeTransport{Conn: &testutil.FakeConn{Outputs: map[string]string{
		"write memory": "Building configuration...\n[OK]",
	}}}

	s, err := store.New(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	recorder, err := audit.NewRecorder(s, testutil.Logger())
	if err != nil {
		t.Fatalf("audit.NewRecorder: %v", err)
	}

	sessions := auth.NewSessionStore()
	return NewModule(inv, ft, sessions, recorder, testutil.Logger()), sessions, ft
}

func do(m *Module, sessions *auth.SessionStore, handler http.HandlerFunc, role, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if role != "" {
		token := sessions.Create("tester", role)
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	}
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestChangePassword(t *testing.T) {
	m, sessions, ft := newTestModule(t)
	ft.Conn.Outputs["username admin password newpw"] = "R1(config)#"

	w := do(m, sessions, m.handleChangePassword, auth.RoleAdmin,
		`{"device_name":"R1","new_password":"newpw"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["success"] != true {
		t.Errorf("success = %v, want true", resp["success"])
	}
	if _, ok := resp["output"]; !ok {
		t.Error("response missing output")
	}
	save, _ := resp["save_output"].(string)
	if !strings.Contains(save, "[OK]") {
		t.Errorf("save_output = %q, want write memory transcript", save)
	}
	// username_to_change defaults to admin.
	found := false
	for _, cmd := range ft.Conn.Ran {
		if cmd == "username admin password newpw" {
			found = true
		}
	}
	if !found {
		t.Errorf("commands run = %v, want username admin password newpw", ft.Conn.Ran)
	}
	if !ft.Conn.Closed {
		t.Error("transport session left open")
	}
}

func TestChangePasswordNamedUser(t *testing.T) {
	m, sessions, ft := newTestModule(t)
	ft.Conn.Outputs["username ops password rotated"] = "R1(config)#"

	w := do(m, sessions, m.handleChangePassword, auth.RoleAdmin,
		`{"device_name":"R1","new_password":"rotated","username_to_change":"ops"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	msg, _ := resp["message"].(string)
	if !strings.Contains(msg, "ops") {
		t.Errorf("message = %q, want it to name the user", msg)
	}
}

func TestManageUsers(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantCmd  string
	}{
		{
			name:     "add",
			body:     `{"device_name":"R1","action":"add","username":"ops","password":"pw1"}`,
			wantCode: http.StatusOK,
			wantCmd:  "username ops privilege 15 password pw1",
		},
		{
			name:     "remove",
			body:     `{"device_name":"R1","action":"remove","username":"ops"}`,
			wantCode: http.StatusOK,
			wantCmd:  "no username ops",
		},
		{
			name:     "invalid action",
			body:     `{"device_name":"R1","action":"promote","username":"ops"}`,
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, sessions, ft := newTestModule(t)
			if tt.wantCmd != "" {
				ft.Conn.Outputs[tt.wantCmd] = "R1(config)#"
			}

			w := do(m, sessions, m.handleManageUsers, auth.RoleAdmin, tt.body)
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantCode)
			}
			if tt.wantCmd == "" {
				// Invalid actions are rejected before any transport I/O.
				if len(ft.Opened) != 0 {
					t.Errorf("invalid action opened %v", ft.Opened)
				}
				return
			}
			found := false
			for _, cmd := range ft.Conn.Ran {
				if cmd == tt.wantCmd {
					found = true
				}
			}
			if !found {
				t.Errorf("commands run = %v, want %q", ft.Conn.Ran, tt.wantCmd)
			}
		})
	}
}

func TestConfigureACLs(t *testing.T) {
	m, sessions, ft := newTestModule(t)
	ft.Conn.Outputs["access-list 10 permit 10.0.0.0 0.0.0.255"] = "R1(config)#"
	ft.Conn.Outputs["access-list 10 deny any"] = "R1(config)#"

	w := do(m, sessions, m.handleConfigureACLs, auth.RoleAdmin,
		`{"device_name":"R1","acl_commands":["access-list 10 permit 10.0.0.0 0.0.0.255","access-list 10 deny any"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if len(ft.Conn.Ran) != 2 {
		t.Errorf("commands run = %v, want both ACL lines", ft.Conn.Ran)
	}
}

func TestAuditRunsFixedCommands(t *testing.T) {
	m, sessions, ft := newTestModule(t)
	ft.Conn.Outputs["show running-config"] = "hostname R1"
	ft.Conn.Outputs["show users"] = "ERR:% Bad command"
	ft.Conn.Outputs["show privilege"] = "Current privilege level is 15"

	w := do(m, sessions, m.handleAudit, auth.RoleAdmin, `{"device_name":"R1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		Success bool              `json:"success"`
		Results map[string]string `json:"results"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Results) != len(auditCommands) {
		t.Fatalf("len(results) = %d, want %d", len(resp.Results), len(auditCommands))
	}
	if resp.Results["show running-config"] != "hostname R1" {
		t.Errorf("running-config = %q", resp.Results["show running-config"])
	}
	// A failing command records its error and the rest still run.
	if resp.Results["show users"] != "% Bad command" {
		t.Errorf("show users = %q, want inline error", resp.Results["show users"])
	}
	if resp.Results["show privilege"] != "Current privilege level is 15" {
		t.Errorf("show privilege = %q", resp.Results["show privilege"])
	}
}

func TestAuditLog(t *testing.T) {
	m, sessions, ft := newTestModule(t)
	ft.Conn.Outputs["no username ghost"] = "R1(config)#"

	// Generate an entry through a real operation.
	w := do(m, sessions, m.handleManageUsers, auth.RoleAdmin,
		`{"device_name":"R1","action":"remove","username":"ghost"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("manage_users status = %d, want 200", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/audit_log?limit=5", http.NoBody)
	token := sessions.Create("admin", auth.RoleAdmin)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	rec := httptest.NewRecorder()
	m.handleAuditLog(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Entries []audit.Entry `json:"entries"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(resp.Entries))
	}
	if resp.Entries[0].Action != "security.manage_users" || resp.Entries[0].Device != "R1" {
		t.Errorf("unexpected entry: %+v", resp.Entries[0])
	}
}

func TestAuditLogRequiresAdmin(t *testing.T) {
	m, sessions, _ := newTestModule(t)

	req := httptest.NewRequest(http.MethodGet, "/audit_log", http.NoBody)
	w := httptest.NewRecorder()
	m.handleAuditLog(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/audit_log", http.NoBody)
	token := sessions.Create("user", auth.RoleUser)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	w = httptest.NewRecorder()
	m.handleAuditLog(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("non-admin status = %d, want 403", w.Code)
	}
}

func TestGateBeforeDeviceLookup(t *testing.T) {
	m, sessions, ft := newTestModule(t)

	// Unknown device with admin session: 404, and no transport open.
	w := do(m, sessions, m.handleAudit, auth.RoleAdmin, `{"device_name":"R9"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if len(ft.Opened) != 0 {
		t.Errorf("unknown device opened %v", ft.Opened)
	}
}
