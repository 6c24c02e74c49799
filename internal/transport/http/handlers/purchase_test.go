package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/gig-tickets/internal/domain"
)

type fakeService struct {
	purchaseFn func(ctx context.Context, raw []byte) (domain.Ticket, error)
	gigs       []domain.Gig
	listErr    error

	lastRaw []byte
}

func (f *fakeService) Purchase(ctx context.Context, raw []byte) (domain.Ticket, error) {
	f.lastRaw = raw
	if f.purchaseFn != nil {
		return f.purchaseFn(ctx, raw)
	}
	return domain.Ticket{ID: "ticket-1"}, nil
}

func (f *fakeService) ListGigs(ctx context.Context) ([]domain.Gig, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.gigs, nil
}

func (f *fakeService) GetGig(ctx context.Context, slug string) (domain.Gig, error) {
	for _, g := range f.gigs {
		if g.Slug == slug {
			return g, nil
		}
	}
	return domain.Gig{}, domain.GigNotFound(slug)
}

func withSlug(req *http.Request, slug string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("slug", slug)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestPurchaseHandler_Purchase(t *testing.T) {
	t.Run("accepted_returns_202", func(t *testing.T) {
		svc := &fakeService{}
		h := NewPurchaseHandler(svc)

		rr := httptest.NewRecorder()
		h.Purchase(rr, httptest.NewRequest(http.MethodPost, "/purchase", strings.NewReader(`{"gig":"band1-location1"}`)))

		assert.Equal(t, http.StatusAccepted, rr.Code)
		assert.JSONEq(t, `{"success":true}`, rr.Body.String())
		assert.Equal(t, `{"gig":"band1-location1"}`, string(svc.lastRaw))
	})

	t.Run("validation_returns_400_with_fields", func(t *testing.T) {
		svc := &fakeService{purchaseFn: func(ctx context.Context, raw []byte) (domain.Ticket, error) {
			return domain.Ticket{}, domain.ValidationFailed([]domain.FieldError{{Field: "name", Message: "field is mandatory"}})
		}}
		rr := httptest.NewRecorder()
		NewPurchaseHandler(svc).Purchase(rr, httptest.NewRequest(http.MethodPost, "/purchase", strings.NewReader(`{}`)))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.JSONEq(t, `{"error":"Invalid request","errors":[{"field":"name","message":"field is mandatory"}]}`, rr.Body.String())
	})

	t.Run("publish_failure_returns_500", func(t *testing.T) {
		svc := &fakeService{purchaseFn: func(ctx context.Context, raw []byte) (domain.Ticket, error) {
			return domain.Ticket{ID: "t-1"}, domain.PublishFailed("t-1", errors.New("throttled"))
		}}
		rr := httptest.NewRecorder()
		NewPurchaseHandler(svc).Purchase(rr, httptest.NewRequest(http.MethodPost, "/purchase", strings.NewReader(`{}`)))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.JSONEq(t, `{"message":"Internal server error"}`, rr.Body.String())
	})

	t.Run("oversized_body_is_malformed", func(t *testing.T) {
		svc := &fakeService{}
		body := `{"name":"` + strings.Repeat("a", maxPurchaseBody) + `"}`
		rr := httptest.NewRecorder()
		NewPurchaseHandler(svc).Purchase(rr, httptest.NewRequest(http.MethodPost, "/purchase", strings.NewReader(body)))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.JSONEq(t, `{"error":"Invalid content, expected valid JSON"}`, rr.Body.String())
		assert.Nil(t, svc.lastRaw)
	})
}

func TestPurchaseHandler_ListGigs(t *testing.T) {
	svc := &fakeService{gigs: []domain.Gig{{Slug: "band1-location1", BandName: "Mighty Mammoth"}}}

	rr := httptest.NewRecorder()
	NewPurchaseHandler(svc).ListGigs(rr, httptest.NewRequest(http.MethodGet, "/gigs", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"gigs":[`)
	assert.Contains(t, rr.Body.String(), `"bandName":"Mighty Mammoth"`)
}

func TestPurchaseHandler_ListGigsError(t *testing.T) {
	svc := &fakeService{listErr: errors.New("scan failed")}

	rr := httptest.NewRecorder()
	NewPurchaseHandler(svc).ListGigs(rr, httptest.NewRequest(http.MethodGet, "/gigs", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestPurchaseHandler_GetGig(t *testing.T) {
	svc := &fakeService{gigs: []domain.Gig{{Slug: "band1-location1", City: "Memphis"}}}
	h := NewPurchaseHandler(svc)

	t.Run("found", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.GetGig(rr, withSlug(httptest.NewRequest(http.MethodGet, "/gigs/band1-location1", nil), "band1-location1"))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"city":"Memphis"`)
	})

	t.Run("not_found", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.GetGig(rr, withSlug(httptest.NewRequest(http.MethodGet, "/gigs/nope", nil), "nope"))

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.JSONEq(t, `{"error":"Gig not found"}`, rr.Body.String())
	})
}

func TestHealthHandler_Healthz(t *testing.T) {
	rr := httptest.NewRecorder()
	NewHealthHandler().Healthz(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}
