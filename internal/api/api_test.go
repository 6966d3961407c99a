package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/propscope/internal/assistant"
	"github.com/starford/propscope/internal/models"
	"github.com/starford/propscope/internal/sse"
	"github.com/starford/propscope/internal/testutil"
	"github.com/starford/propscope/internal/userdata"
)

type cannedGenerator struct {
	reply    string
	question string
}

func (g *cannedGenerator) Model() string { return "canned" }

func (g *cannedGenerator) Generate(_ context.Context, _, question string) (string, error) {
	g.question = question
	return g.reply, nil
}

const cannedReply = `{"answer":"Two industrial assets match.","confidence":82,"sources":[{"name":"CBRE Internal Database","url":"","snippet":"aus-002","type":"internal"}],"trust_breakdown":{"internal_used":true,"external_count":0,"freshness_days":3,"agreements":"","conflicts":"","missing":""}}`

type testEnv struct {
	router http.Handler
	users  *userdata.Service
	broker *sse.Broker
	gen    *cannedGenerator
}

func newTestEnv(t *testing.T, authToken string) *testEnv {
	t.Helper()
	cat := testutil.TestCatalog(t)
	users := userdata.NewService(testutil.TestKV(t), cat, nil)
	gen := &cannedGenerator{reply: cannedReply}
	ai := assistant.NewService(assistant.Options{Generator: gen, Catalog: cat, Timeout: time.Second, HistoryTurns: 4})
	broker := sse.NewBroker(10 * time.Millisecond)
	t.Cleanup(broker.Close)

	return &testEnv{
		router: NewRouter(Deps{
			Catalog:     cat,
			Users:       users,
			Assistant:   ai,
			Broker:      broker,
			AuthEnabled: authToken != "",
			AuthToken:   authToken,
		}),
		users:  users,
		broker: broker,
		gen:    gen,
	}
}

func (e *testEnv) do(t *testing.T, method, path, session string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if session != "" {
		req.Header.Set(SessionHeader, session)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) login(t *testing.T) (models.User, string) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/session", "", LoginRequest{Email: "ana@example.com", Name: "Ana"})
	if w.Code != http.StatusCreated {
		t.Fatalf("login status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp SessionResponse
	decode(t, w, &resp)
	return resp.User, resp.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func TestListProperties(t *testing.T) {
	e := newTestEnv(t, "")

	w := e.do(t, http.MethodGet, "/properties?type=industrial&sort=-price", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp PropertyListResponse
	decode(t, w, &resp)
	if resp.Total != 2 || len(resp.Properties) != 2 {
		t.Fatalf("total = %d, len = %d", resp.Total, len(resp.Properties))
	}
	if resp.Properties[0].ID != "lb-003" || resp.Properties[1].ID != "aus-002" {
		t.Errorf("order = %s, %s", resp.Properties[0].ID, resp.Properties[1].ID)
	}
}

func TestListPropertiesPaging(t *testing.T) {
	e := newTestEnv(t, "")

	w := e.do(t, http.MethodGet, "/properties?limit=2&offset=1", "", nil)
	var resp PropertyListResponse
	decode(t, w, &resp)
	if resp.Total != 5 || len(resp.Properties) != 2 {
		t.Fatalf("total = %d, len = %d", resp.Total, len(resp.Properties))
	}
}

func TestListPropertiesBadInput(t *testing.T) {
	e := newTestEnv(t, "")
	for _, path := range []string{"/properties?status=sold", "/properties?limit=x", "/properties?sort=size"} {
		if w := e.do(t, http.MethodGet, path, "", nil); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, w.Code)
		}
	}
}

func TestGetProperty(t *testing.T) {
	e := newTestEnv(t, "")

	w := e.do(t, http.MethodGet, "/properties/dal-001", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var d PropertyDetail
	decode(t, w, &d)
	if d.ID != "dal-001" || d.StatusLabel != "For Sale" {
		t.Errorf("detail = %+v", d)
	}
	if !strings.Contains(d.Description, "Commerce Street Tower") {
		t.Errorf("description = %q", d.Description)
	}
	if _, ok := d.ImageURLs["card"]; !ok {
		t.Errorf("image presets = %v", d.ImageURLs)
	}

	if w := e.do(t, http.MethodGet, "/properties/nope", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing status = %d, want 404", w.Code)
	}
}

func TestCompare(t *testing.T) {
	e := newTestEnv(t, "")

	w := e.do(t, http.MethodGet, "/properties/compare?ids=aus-002,%20lb-003", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp CompareResponse
	decode(t, w, &resp)
	if len(resp.Properties) != 2 || resp.Properties[0].ID != "aus-002" {
		t.Errorf("compare = %+v", resp.Properties)
	}

	if w := e.do(t, http.MethodGet, "/properties/compare", "", nil); w.Code != http.StatusBadRequest {
		t.Errorf("empty ids status = %d, want 400", w.Code)
	}
	if w := e.do(t, http.MethodGet, "/properties/compare?ids=a,b,c,d,e", "", nil); w.Code != http.StatusBadRequest {
		t.Errorf("too many ids status = %d, want 400", w.Code)
	}
}

func TestMarkersAndLegend(t *testing.T) {
	e := newTestEnv(t, "")

	var markers MarkersResponse
	decode(t, e.do(t, http.MethodGet, "/map/markers", "", nil), &markers)
	if len(markers.Markers) != 4 {
		t.Errorf("markers = %d, want 4 (one record has no coordinates)", len(markers.Markers))
	}

	var legend []LegendEntry
	decode(t, e.do(t, http.MethodGet, "/status/legend", "", nil), &legend)
	if len(legend) != len(models.Statuses) {
		t.Fatalf("legend = %+v", legend)
	}
	total := 0
	for i, entry := range legend {
		if entry.Status != models.Statuses[i] {
			t.Errorf("legend[%d] = %s, want %s", i, entry.Status, models.Statuses[i])
		}
		total += entry.Count
	}
	if total != 5 {
		t.Errorf("legend counts sum to %d, want 5", total)
	}
}

func TestStats(t *testing.T) {
	e := newTestEnv(t, "")

	w := e.do(t, http.MethodGet, "/stats", "", nil)
	var s struct {
		Count  int `json:"count"`
		Priced int `json:"priced"`
	}
	decode(t, w, &s)
	if s.Count != 5 || s.Priced != 4 {
		t.Errorf("stats = %+v (body %s)", s, w.Body.String())
	}
}

func TestAuthMiddleware(t *testing.T) {
	e := newTestEnv(t, "secret")

	req := httptest.NewRequest(http.MethodGet, "/properties", nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/properties", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("with token status = %d, want 200", w.Code)
	}
}

func TestSessionLifecycle(t *testing.T) {
	e := newTestEnv(t, "")

	if w := e.do(t, http.MethodGet, "/session", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d, want 401", w.Code)
	}
	if w := e.do(t, http.MethodPost, "/session", "", LoginRequest{Email: "nope", Name: "x"}); w.Code != http.StatusBadRequest {
		t.Fatalf("bad email status = %d, want 400", w.Code)
	}

	u, tok := e.login(t)
	var me models.User
	decode(t, e.do(t, http.MethodGet, "/session", tok, nil), &me)
	if me.ID != u.ID || me.Email != "ana@example.com" {
		t.Errorf("me = %+v", me)
	}

	if w := e.do(t, http.MethodDelete, "/session", tok, nil); w.Code != http.StatusNoContent {
		t.Fatalf("logout status = %d", w.Code)
	}
	if w := e.do(t, http.MethodGet, "/session", tok, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("after logout status = %d, want 401", w.Code)
	}
}

func TestSavedProperties(t *testing.T) {
	e := newTestEnv(t, "")
	_, tok := e.login(t)

	w := e.do(t, http.MethodPut, "/saved/aus-002", tok, SaveRequest{Notes: "tour", Tags: []string{"tx"}})
	if w.Code != http.StatusOK {
		t.Fatalf("save status = %d, body = %s", w.Code, w.Body.String())
	}
	if w := e.do(t, http.MethodPut, "/saved/lb-003", tok, nil); w.Code != http.StatusOK {
		t.Fatalf("save without body status = %d, body = %s", w.Code, w.Body.String())
	}
	if w := e.do(t, http.MethodPut, "/saved/missing", tok, nil); w.Code != http.StatusNotFound {
		t.Errorf("save unknown status = %d, want 404", w.Code)
	}

	var saved []models.SavedProperty
	decode(t, e.do(t, http.MethodGet, "/saved", tok, nil), &saved)
	if len(saved) != 2 {
		t.Fatalf("saved = %+v", saved)
	}

	if w := e.do(t, http.MethodDelete, "/saved/aus-002", tok, nil); w.Code != http.StatusNoContent {
		t.Fatalf("unsave status = %d", w.Code)
	}
	decode(t, e.do(t, http.MethodGet, "/saved", tok, nil), &saved)
	if len(saved) != 1 || saved[0].PropertyID != "lb-003" {
		t.Errorf("saved after delete = %+v", saved)
	}
}

func TestAlerts(t *testing.T) {
	e := newTestEnv(t, "")
	u, tok := e.login(t)

	ch := e.broker.SubscribeUser(u.ID)
	defer e.broker.Unsubscribe(ch)

	w := e.do(t, http.MethodPost, "/alerts", tok, AlertRequest{PropertyID: "dal-001", Type: "price_change", Message: "Down 5%"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var a models.Alert
	decode(t, w, &a)

	select {
	case msg := <-ch:
		if !strings.Contains(string(msg), sse.TypeAlertCreated) || !strings.Contains(string(msg), a.ID) {
			t.Errorf("event = %s", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no alert event")
	}

	var unread CountResponse
	decode(t, e.do(t, http.MethodGet, "/alerts/unread", tok, nil), &unread)
	if unread.Count != 1 {
		t.Errorf("unread = %d, want 1", unread.Count)
	}

	if w := e.do(t, http.MethodPost, "/alerts/"+a.ID+"/read", tok, nil); w.Code != http.StatusNoContent {
		t.Fatalf("mark read status = %d", w.Code)
	}
	if w := e.do(t, http.MethodPost, "/alerts/unknown/read", tok, nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown alert status = %d, want 404", w.Code)
	}
	decode(t, e.do(t, http.MethodGet, "/alerts/unread", tok, nil), &unread)
	if unread.Count != 0 {
		t.Errorf("unread after read = %d, want 0", unread.Count)
	}

	if w := e.do(t, http.MethodPost, "/alerts", tok, AlertRequest{Type: "x"}); w.Code != http.StatusBadRequest {
		t.Errorf("missing message status = %d, want 400", w.Code)
	}
}

func TestOnboarding(t *testing.T) {
	e := newTestEnv(t, "")
	_, tok := e.login(t)

	var resp OnboardingResponse
	decode(t, e.do(t, http.MethodGet, "/onboarding", tok, nil), &resp)
	if resp.Completed {
		t.Fatal("new user already onboarded")
	}
	e.do(t, http.MethodPut, "/onboarding", tok, nil)
	decode(t, e.do(t, http.MethodGet, "/onboarding", tok, nil), &resp)
	if !resp.Completed {
		t.Fatal("onboarding not completed")
	}
	e.do(t, http.MethodDelete, "/onboarding", tok, nil)
	decode(t, e.do(t, http.MethodGet, "/onboarding", tok, nil), &resp)
	if resp.Completed {
		t.Fatal("onboarding not reset")
	}
}

func TestChatAnonymous(t *testing.T) {
	e := newTestEnv(t, "")

	w := e.do(t, http.MethodPost, "/chat", "", ChatRequest{Question: "industrial in Texas over 5 million?"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var ans assistant.Answer
	decode(t, w, &ans)
	if ans.Answer != "Two industrial assets match." || ans.Confidence != 82 {
		t.Errorf("answer = %+v", ans)
	}
	// Type is not a filter criterion, so both priced Texas records qualify.
	if len(ans.ContextIDs) != 2 || ans.ContextIDs[0] != "dal-001" || ans.ContextIDs[1] != "aus-002" {
		t.Errorf("context ids = %v, want [dal-001 aus-002]", ans.ContextIDs)
	}

	if w := e.do(t, http.MethodPost, "/chat", "", ChatRequest{Question: "  "}); w.Code != http.StatusBadRequest {
		t.Errorf("empty question status = %d, want 400", w.Code)
	}
}

func TestChatWithSessionKeepsHistory(t *testing.T) {
	e := newTestEnv(t, "")
	_, tok := e.login(t)

	e.do(t, http.MethodPost, "/chat", tok, ChatRequest{Question: "What is in Florida?"})
	e.do(t, http.MethodPost, "/chat", tok, ChatRequest{Question: "And in Texas?"})
	if !strings.Contains(e.gen.question, "What is in Florida?") {
		t.Errorf("follow-up prompt lacks history: %q", e.gen.question)
	}

	var hist ChatHistoryResponse
	decode(t, e.do(t, http.MethodGet, "/chat/history", tok, nil), &hist)
	if len(hist.Messages) != 4 {
		t.Fatalf("history = %+v", hist.Messages)
	}
	if hist.Messages[0].Role != models.RoleUser || hist.Messages[1].Role != models.RoleAssistant {
		t.Errorf("roles = %s, %s", hist.Messages[0].Role, hist.Messages[1].Role)
	}

	if w := e.do(t, http.MethodDelete, "/chat/history", tok, nil); w.Code != http.StatusNoContent {
		t.Fatalf("clear status = %d", w.Code)
	}
	decode(t, e.do(t, http.MethodGet, "/chat/history", tok, nil), &hist)
	if len(hist.Messages) != 0 {
		t.Errorf("history after clear = %+v", hist.Messages)
	}
}

func TestChatWithoutAssistant(t *testing.T) {
	cat := testutil.TestCatalog(t)
	router := NewRouter(Deps{Catalog: cat, Users: userdata.NewService(testutil.TestKV(t), cat, nil)})

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"question":"hi"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestInvalidJSONBody(t *testing.T) {
	e := newTestEnv(t, "")
	req := httptest.NewRequest(http.MethodPost, "/session", strings.NewReader("{"))
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestEventsStreamCarriesCatalogEvents(t *testing.T) {
	e := newTestEnv(t, "")
	srv := httptest.NewServer(e.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	deadline := time.Now().Add(2 * time.Second)
	for e.broker.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	e.broker.PublishCatalogEvent("reloaded", "properties.json")

	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		if strings.Contains(sc.Text(), sse.TypeCatalogReloaded) {
			return
		}
	}
	t.Fatal("catalog.reloaded not received")
}
