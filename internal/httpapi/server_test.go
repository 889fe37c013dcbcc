package httpapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/jlrojas/cardvault/internal/cardvault/secure"
	"github.com/jlrojas/cardvault/internal/cardvault/service"
	"github.com/jlrojas/cardvault/internal/cardvault/store/memory"
	"github.com/jlrojas/cardvault/internal/cardvault/types"
	"github.com/jlrojas/cardvault/internal/httpapi"
)

// newTestServer wires up the full dependency graph using in-memory stores
// and returns an httptest.Server whose URL can be hit with a plain http.Client.
func newTestServer(t *testing.T, userID string, userCards map[string][]string) (*httptest.Server, *memory.AuditStore) {
	t.Helper()

	audit := memory.NewAuditStore()
	ownership := memory.NewOwnershipStore(userCards)
	payloads := memory.NewPayloadStore(memory.DemoPayloads())

	signer, err := secure.NewHMACSigner([]byte("httpapi-test-key"), time.Minute)
	if err != nil {
		t.Fatalf("NewHMACSigner: %v", err)
	}

	registry := service.NewOwnershipRegistry(ownership, zap.NewNop())
	issuer := service.NewTokenIssuer(registry, signer, audit, zap.NewNop())
	bridge := service.NewSecureViewBridge(payloads, signer, secure.NewDevViewer(zap.NewNop()), audit, zap.NewNop())
	orchestrator := service.NewAccessOrchestrator(userID, issuer, bridge, zap.NewNop())

	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:       zap.NewNop(),
		Addr:         ":0",
		Orchestrator: orchestrator,
		Bridge:       bridge,
		Audit:        audit,
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, audit
}

func demoOwnership() map[string][]string {
	return map[string][]string{
		"user-001": {"card-001", "card-002"},
		"user-002": {"card-003"},
	}
}

// ── Secure view ──────────────────────────────────────────────────────────────

func TestShowSecureCard_OwnedCard_OK(t *testing.T) {
	ts, audit := newTestServer(t, "user-001", demoOwnership())

	body := []byte(`{"card_id":"card-001"}`)
	resp, err := http.Post(ts.URL+"/v1/secure-view", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out struct {
		OK     bool   `json:"ok"`
		CardID string `json:"card_id"`
		Error  string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !out.OK {
		t.Errorf("expected ok=true, got error %q", out.Error)
	}
	if out.CardID != "card-001" {
		t.Errorf("expected card_id=card-001, got %q", out.CardID)
	}

	// A completed flow leaves an issuance event plus a data-access event.
	evs := audit.Events()
	if len(evs) != 2 {
		t.Fatalf("expected 2 audit events, got %d", len(evs))
	}
	if evs[0].EventType != types.EventTokenGenerated || evs[1].EventType != types.EventDataAccessed {
		t.Errorf("unexpected event sequence: %s, %s", evs[0].EventType, evs[1].EventType)
	}
}

func TestShowSecureCard_NotOwned_403(t *testing.T) {
	ts, audit := newTestServer(t, "user-001", demoOwnership())

	body := []byte(`{"card_id":"card-003"}`)
	resp, err := http.Post(ts.URL+"/v1/secure-view", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}

	var out struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.OK {
		t.Error("expected ok=false for a card the user does not own")
	}

	evs := audit.Events()
	if len(evs) != 1 || evs[0].EventType != types.EventUnauthorizedAccess {
		t.Errorf("expected a single UNAUTHORIZED_ACCESS event, got %+v", evs)
	}
}

func TestShowSecureCard_UnknownPayload_422(t *testing.T) {
	ts, _ := newTestServer(t, "user-001", map[string][]string{
		"user-001": {"card-404"},
	})

	body := []byte(`{"card_id":"card-404"}`)
	resp, err := http.Post(ts.URL+"/v1/secure-view", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	var out struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Error != "Card data not found" {
		t.Errorf("expected %q, got %q", "Card data not found", out.Error)
	}
}

func TestShowSecureCard_MissingCardID_400(t *testing.T) {
	ts, _ := newTestServer(t, "user-001", demoOwnership())

	body := []byte(`{}`)
	resp, err := http.Post(ts.URL+"/v1/secure-view", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestShowSecureCard_InvalidJSON_400(t *testing.T) {
	ts, _ := newTestServer(t, "user-001", demoOwnership())

	body := []byte(`not json at all`)
	resp, err := http.Post(ts.URL+"/v1/secure-view", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ── Status / availability ────────────────────────────────────────────────────

func TestSecureViewStatus_Idle(t *testing.T) {
	ts, _ := newTestServer(t, "user-001", demoOwnership())

	resp, err := http.Get(ts.URL + "/v1/secure-view/status?card_id=card-001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out struct {
		CardID  string `json:"card_id"`
		Loading bool   `json:"loading"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Loading {
		t.Error("expected loading=false with no flow in flight")
	}
}

func TestSecureViewStatus_MissingCardID_400(t *testing.T) {
	ts, _ := newTestServer(t, "user-001", demoOwnership())

	resp, err := http.Get(ts.URL + "/v1/secure-view/status")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestSecureViewAvailable(t *testing.T) {
	ts, _ := newTestServer(t, "user-001", demoOwnership())

	resp, err := http.Get(ts.URL + "/v1/secure-view/available")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var out struct {
		Available bool `json:"available"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Available {
		t.Error("expected available=true with the dev viewer wired")
	}
}

// ── Audit queries ────────────────────────────────────────────────────────────

func TestAuditEvents_LimitApplied(t *testing.T) {
	ts, _ := newTestServer(t, "user-001", demoOwnership())

	for _, cardID := range []string{"card-001", "card-002"} {
		body := []byte(`{"card_id":"` + cardID + `"}`)
		resp, err := http.Post(ts.URL+"/v1/secure-view", "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		resp.Body.Close()
	}

	resp, err := http.Get(ts.URL + "/v1/audit/events?limit=1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out struct {
		Events []types.SecurityEvent `json:"events"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Events) != 1 {
		t.Errorf("expected 1 event with limit=1, got %d", len(out.Events))
	}
}

func TestAuditEvents_BadLimit_400(t *testing.T) {
	ts, _ := newTestServer(t, "user-001", demoOwnership())

	resp, err := http.Get(ts.URL + "/v1/audit/events?limit=banana")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAuditHighRisk_OnlyDenials(t *testing.T) {
	ts, _ := newTestServer(t, "user-001", demoOwnership())

	// One allowed flow, one denied flow.
	for _, cardID := range []string{"card-001", "card-003"} {
		body := []byte(`{"card_id":"` + cardID + `"}`)
		resp, err := http.Post(ts.URL+"/v1/secure-view", "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		resp.Body.Close()
	}

	resp, err := http.Get(ts.URL + "/v1/audit/high-risk")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var out struct {
		Events []types.SecurityEvent `json:"events"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Events) != 1 {
		t.Fatalf("expected exactly 1 high-risk event, got %d", len(out.Events))
	}
	if out.Events[0].EventType != types.EventUnauthorizedAccess || out.Events[0].CardID != "card-003" {
		t.Errorf("unexpected high-risk event: %+v", out.Events[0])
	}
}
