package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/gig-tickets/internal/application/purchase"
	"github.com/baechuer/gig-tickets/internal/config"
	"github.com/baechuer/gig-tickets/internal/contracts"
	gigsmem "github.com/baechuer/gig-tickets/internal/infrastructure/gigs/memory"
	brokermem "github.com/baechuer/gig-tickets/internal/infrastructure/messaging/memory"
	"github.com/baechuer/gig-tickets/internal/retry"
	"github.com/baechuer/gig-tickets/internal/transport/http/handlers"
)

const validPurchase = `{
	"gig": "band1-location1",
	"name": "Ada",
	"email": "ada@example.com",
	"cardNumber": "4111111111111111",
	"cardExpiryMonth": 6,
	"cardExpiryYear": 2024,
	"cardCVC": "123",
	"disclaimerAccepted": true
}`

func newTestRouter(t *testing.T, cfg *config.Config) (http.Handler, *brokermem.Broker) {
	t.Helper()
	broker := brokermem.NewBroker("purchases", time.Minute)
	svc := purchase.NewService(
		purchase.NewValidator(2018, 2030),
		gigsmem.New(gigsmem.Defaults()),
		broker,
		purchase.SystemClock{},
		retry.Config{MaxRetries: 1, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond},
		zerolog.Nop(),
	)
	if cfg == nil {
		cfg = &config.Config{}
	}
	return New(handlers.NewPurchaseHandler(svc), handlers.NewHealthHandler(), cfg), broker
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouter_PurchaseAccepted(t *testing.T) {
	h, broker := newTestRouter(t, nil)

	rr := do(h, http.MethodPost, "/purchase", validPurchase)

	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.JSONEq(t, `{"success":true}`, rr.Body.String())
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))
	require.Equal(t, 1, broker.Len())

	msg, err := broker.Receive(context.Background())
	require.NoError(t, err)
	ev, err := contracts.DecodePurchaseEvent(msg.Body)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", ev.Ticket.Email)
	assert.Equal(t, "Mighty Mammoth", ev.Gig.BandName)
}

func TestRouter_PurchaseMissingName(t *testing.T) {
	h, broker := newTestRouter(t, nil)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(validPurchase), &payload))
	delete(payload, "name")
	b, _ := json.Marshal(payload)

	rr := do(h, http.MethodPost, "/purchase", string(b))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"Invalid request","errors":[{"field":"name","message":"field is mandatory"}]}`, rr.Body.String())
	assert.Equal(t, 0, broker.Len())
}

func TestRouter_PurchaseUnknownGig(t *testing.T) {
	h, broker := newTestRouter(t, nil)

	body := strings.Replace(validPurchase, "band1-location1", "does-not-exist", 1)
	rr := do(h, http.MethodPost, "/purchase", body)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":"Gig not found"}`, rr.Body.String())
	assert.Equal(t, 0, broker.Len())
}

func TestRouter_PurchaseInvalidJSON(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	rr := do(h, http.MethodPost, "/purchase", `{"gig":`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"Invalid content, expected valid JSON"}`, rr.Body.String())
}

func TestRouter_Gigs(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	rr := do(h, http.MethodGet, "/gigs", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Gigs []map[string]any `json:"gigs"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Gigs)

	rr = do(h, http.MethodGet, "/gigs/band1-location1", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"slug":"band1-location1"`)

	rr = do(h, http.MethodGet, "/gigs/nope", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":"Gig not found"}`, rr.Body.String())
}

func TestRouter_Preflight(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	rr := do(h, http.MethodOptions, "/purchase", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Methods"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Headers"), "X-Api-Key")
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/healthz", "").Code)

	rr := do(h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "go_goroutines")
}

func TestRouter_RateLimited(t *testing.T) {
	h, _ := newTestRouter(t, &config.Config{RLEnabled: true, RLIPLimit: 1, RLWindow: time.Minute})

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/gigs", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(h, http.MethodGet, "/gigs", "").Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/healthz", "").Code)
}
