package ui

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/pratik-mahalle/tiergate/internal/auth"
	"github.com/pratik-mahalle/tiergate/internal/domain/chat"
	"github.com/pratik-mahalle/tiergate/internal/domain/gate"
	"github.com/pratik-mahalle/tiergate/internal/domain/plan"
	"github.com/pratik-mahalle/tiergate/internal/pkg/clock"
	"github.com/pratik-mahalle/tiergate/internal/pkg/keymutex"
	"github.com/pratik-mahalle/tiergate/internal/services"
	"github.com/pratik-mahalle/tiergate/internal/testutil"
)

type uiFixture struct {
	srv      *httptest.Server
	client   *http.Client
	provider *testutil.MockProvider
}

func newUI(t *testing.T, opts Options) *uiFixture {
	t.Helper()

	catalog, tiers := testutil.Catalog(t)
	store := testutil.NewMockUserStore()
	clk := clock.NewFake(time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC))
	locks := keymutex.New()
	log := testutil.TestLogger()

	g := services.NewGateService(store, catalog, tiers, clk, locks, log)
	accounts := services.NewAccountService(store, catalog, clk, locks, log)
	provider := &testutil.MockProvider{Text: "hello back", TokensUsed: 20}
	chatSvc := services.NewChatService(g, provider, log)
	issuer := auth.NewIssuer("ui-secret", time.Hour, time.Hour)

	srv := httptest.NewServer(New(accounts, g, chatSvc, issuer, opts, log).Handler())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &uiFixture{srv: srv, client: &http.Client{Jar: jar}, provider: provider}
}

// post submits a form and follows redirects, returning the final page
func (f *uiFixture) post(t *testing.T, path string, form url.Values) (int, string) {
	t.Helper()
	resp, err := f.client.PostForm(f.srv.URL+path, form)
	if err != nil {
		t.Fatal(err)
	}
	return read(t, resp)
}

func (f *uiFixture) get(t *testing.T, path string) (int, string) {
	t.Helper()
	resp, err := f.client.Get(f.srv.URL + path)
	if err != nil {
		t.Fatal(err)
	}
	return read(t, resp)
}

func read(t *testing.T, resp *http.Response) (int, string) {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, string(body)
}

func credentials(email string) url.Values {
	return url.Values{"email": {email}, "password": {"password123"}}
}

func TestUI_RequiresSession(t *testing.T) {
	f := newUI(t, Options{})

	status, body := f.get(t, "/chat")
	if status != http.StatusOK || !strings.Contains(body, "Sign in") {
		t.Errorf("GET /chat without session = %d, want the login page", status)
	}
	if status, _ := f.get(t, "/healthz"); status != http.StatusOK {
		t.Errorf("/healthz status = %d", status)
	}
}

func TestUI_RegisterChatAndQuota(t *testing.T) {
	f := newUI(t, Options{})

	status, body := f.post(t, "/register", credentials("person@example.com"))
	if status != http.StatusOK || !strings.Contains(body, "Free") {
		t.Fatalf("register landed on %d:\n%s", status, body)
	}

	status, body = f.post(t, "/chat", url.Values{"message": {"hi there"}})
	if status != http.StatusOK || !strings.Contains(body, "hello back") || !strings.Contains(body, "hi there") {
		t.Fatalf("chat page after send = %d, missing conversation", status)
	}

	for i := 2; i <= 10; i++ {
		if status, _ := f.post(t, "/chat", url.Values{"message": {"again"}}); status != http.StatusOK {
			t.Fatalf("message %d status = %d", i, status)
		}
	}

	calls := f.provider.Calls
	status, body = f.post(t, "/chat", url.Values{"message": {"one more"}})
	if status != http.StatusTooManyRequests || !strings.Contains(body, "all 10 messages") {
		t.Errorf("over quota = %d, want 429 with a limit banner", status)
	}
	if f.provider.Calls != calls {
		t.Error("provider was called for a denied message")
	}
}

func TestUI_ChatRejects(t *testing.T) {
	f := newUI(t, Options{})
	f.post(t, "/register", credentials("person@example.com"))

	tests := []struct {
		name       string
		form       url.Values
		wantStatus int
		wantText   string
	}{
		{name: "empty message", form: url.Values{"message": {"  "}}, wantStatus: http.StatusBadRequest, wantText: "Type a message first."},
		{name: "unknown module", form: url.Values{"message": {"hi"}, "module": {"NOPE"}}, wantStatus: http.StatusBadRequest, wantText: "not available"},
		{
			name:       "module outside plan",
			form:       url.Values{"message": {"hi"}, "module": {string(plan.ModuleResearch)}},
			wantStatus: http.StatusForbidden,
			wantText:   "Research is not included in your plan.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := f.post(t, "/chat", tt.form)
			if status != tt.wantStatus || !strings.Contains(body, tt.wantText) {
				t.Errorf("status = %d, want %d containing %q", status, tt.wantStatus, tt.wantText)
			}
		})
	}
}

func TestUI_ProviderFailure(t *testing.T) {
	f := newUI(t, Options{})
	f.post(t, "/register", credentials("person@example.com"))
	f.provider.Err = errors.New("upstream 503")

	status, body := f.post(t, "/chat", url.Values{"message": {"hi"}})
	if status != http.StatusBadGateway || !strings.Contains(body, "not charged") {
		t.Errorf("provider failure = %d", status)
	}

	_, raw := f.get(t, "/usage")
	var summary gate.PlanSummary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		t.Fatalf("decode usage: %v", err)
	}
	if summary.Used.Messages != 0 {
		t.Errorf("Used.Messages = %d after provider failure, want 0", summary.Used.Messages)
	}
}

func TestUI_SwitchPlan(t *testing.T) {
	f := newUI(t, Options{AllowPlanSwitch: true})
	f.post(t, "/register", credentials("person@example.com"))

	status, body := f.post(t, "/plan", url.Values{"plan_id": {string(plan.GoldMonthly)}, "duration": {"monthly"}})
	if status != http.StatusOK || !strings.Contains(body, "You are now on Gold.") {
		t.Fatalf("switch plan = %d", status)
	}

	_, raw := f.get(t, "/usage")
	var summary gate.PlanSummary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		t.Fatalf("decode usage: %v", err)
	}
	if summary.PlanID != plan.GoldMonthly || summary.ExpiresAt == nil {
		t.Errorf("summary = %+v", summary)
	}

	if status, _ := f.post(t, "/plan", url.Values{"plan_id": {"DIAMOND"}}); status != http.StatusBadRequest {
		t.Errorf("unknown plan status = %d, want 400", status)
	}
}

func TestUI_SwitchPlanDisabled(t *testing.T) {
	f := newUI(t, Options{})
	f.post(t, "/register", credentials("person@example.com"))

	status, body := f.post(t, "/plan", url.Values{"plan_id": {string(plan.GoldMonthly)}, "duration": {"monthly"}})
	if status != http.StatusForbidden || !strings.Contains(body, "disabled") {
		t.Errorf("switch plan = %d, want 403", status)
	}
}

func TestUI_LoginLogout(t *testing.T) {
	f := newUI(t, Options{})
	f.post(t, "/register", credentials("person@example.com"))
	f.post(t, "/logout", nil)

	if _, body := f.get(t, "/chat"); !strings.Contains(body, "Sign in") {
		t.Fatal("session survived logout")
	}

	bad := credentials("person@example.com")
	bad.Set("password", "wrong-password")
	if status, body := f.post(t, "/login", bad); status != http.StatusUnauthorized || !strings.Contains(body, "Incorrect email or password.") {
		t.Errorf("bad login = %d", status)
	}

	if status, body := f.post(t, "/login", credentials("PERSON@example.com")); status != http.StatusOK || !strings.Contains(body, "person@example.com") {
		t.Errorf("login = %d", status)
	}
}

func TestModuleLabel(t *testing.T) {
	tests := []struct {
		in   plan.Module
		want string
	}{
		{in: plan.ModuleNone, want: "General chat"},
		{in: plan.ModuleCodeAssist, want: "Code Assist"},
		{in: plan.ModuleDocumentQA, want: "Document Qa"},
	}
	for _, tt := range tests {
		if got := moduleLabel(tt.in); got != tt.want {
			t.Errorf("moduleLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDescribeHidesInternals(t *testing.T) {
	err := errors.New("pq: connection refused on 10.0.0.3")
	if got := describe(err); strings.Contains(got, "10.0.0.3") {
		t.Errorf("describe() leaked %q", got)
	}
	if got := describe(chat.ErrProviderFailure); !strings.Contains(got, "not charged") {
		t.Errorf("describe(provider failure) = %q", got)
	}
}
