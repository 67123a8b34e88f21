package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/ticket-backoffice/internal/catalog"
	"github.com/mmeshcher/ticket-backoffice/internal/model"
	"github.com/mmeshcher/ticket-backoffice/internal/service"
)

type stubService struct {
	cards      []catalog.Card
	summary    catalog.Summary
	catalogErr error

	setQuantityErr error

	submitOutcome model.OrderOutcome
	retryOutcome  model.OrderOutcome
	outcome       *model.OrderOutcome

	lastComment   string
	dismissCalled bool
}

func (s *stubService) Catalog(ctx context.Context, sessionID string) ([]catalog.Card, catalog.Summary, error) {
	return s.cards, s.summary, s.catalogErr
}

func (s *stubService) SetQuantity(ctx context.Context, sessionID string, itemID int64, quantity int) (catalog.Summary, error) {
	return s.summary, s.setQuantityErr
}

func (s *stubService) Submit(ctx context.Context, sessionID, comment string) model.OrderOutcome {
	s.lastComment = comment
	return s.submitOutcome
}

func (s *stubService) Retry(ctx context.Context, sessionID string) model.OrderOutcome {
	return s.retryOutcome
}

func (s *stubService) Outcome(sessionID string) *model.OrderOutcome {
	return s.outcome
}

func (s *stubService) Dismiss(sessionID string) {
	s.dismissCalled = true
}

func ptrInt(v int) *int {
	return &v
}

func testSummary() catalog.Summary {
	price := decimal.RequireFromString("10.00")
	return catalog.Summary{
		LineItems: []model.LineItem{
			{ItemID: 1, Name: "Tageskarte", Quantity: 2, UnitPrice: price},
		},
		Total:       price.Mul(decimal.NewFromInt(2)),
		TicketCount: 2,
	}
}

func doRequest(t *testing.T, svc Service, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	h := NewHandler(svc, zap.NewNop())
	router := h.SetupRouter()

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	return rec
}

func TestGetCatalog(t *testing.T) {
	svc := &stubService{
		cards: []catalog.Card{
			{
				Item: model.CatalogItem{
					ID:           1,
					Name:         model.LocalizedString{"de": "Tageskarte"},
					DefaultPrice: "10.00",
				},
				Available:   ptrInt(3),
				MaxQuantity: 3,
				Quantity:    2,
			},
		},
		summary: testSummary(),
	}

	rec := doRequest(t, svc, http.MethodGet, "/api/catalog", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp catalogResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if len(resp.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(resp.Items))
	}
	item := resp.Items[0]
	if item.Name != "Tageskarte" || item.Price != "10.00" || item.MaxQuantity != 3 || item.Quantity != 2 {
		t.Fatalf("unexpected item: %+v", item)
	}
	if resp.Summary.Total != "20.00" || resp.Summary.TicketCount != 2 {
		t.Fatalf("unexpected summary: %+v", resp.Summary)
	}
	if len(resp.Summary.LineItems) != 1 || resp.Summary.LineItems[0].Subtotal != "20.00" {
		t.Fatalf("unexpected line items: %+v", resp.Summary.LineItems)
	}
}

func TestGetCatalog_LoadError(t *testing.T) {
	svc := &stubService{catalogErr: errors.New("connection refused")}

	rec := doRequest(t, svc, http.MethodGet, "/api/catalog", nil)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadGateway)
	}
}

func TestSetQuantity(t *testing.T) {
	svc := &stubService{summary: testSummary()}

	rec := doRequest(t, svc, http.MethodPost, "/api/selection", []byte(`{"item_id":1,"quantity":2}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp summaryResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != "20.00" {
		t.Fatalf("total = %s, want 20.00", resp.Total)
	}
}

func TestSetQuantity_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{`},
		{name: "negative quantity", body: `{"item_id":1,"quantity":-1}`},
		{name: "missing item id", body: `{"quantity":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{summary: testSummary()}

			rec := doRequest(t, svc, http.MethodPost, "/api/selection", []byte(tt.body))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestSetQuantity_UnavailableItem(t *testing.T) {
	svc := &stubService{setQuantityErr: service.ErrItemNotAvailable}

	rec := doRequest(t, svc, http.MethodPost, "/api/selection", []byte(`{"item_id":2,"quantity":1}`))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
}

func TestSubmitOrder(t *testing.T) {
	svc := &stubService{
		submitOutcome: model.OrderOutcome{State: model.OutcomeSuccess, OrderCode: "ABC123"},
	}

	rec := doRequest(t, svc, http.MethodPost, "/api/order/", []byte(`{"comment":"window seat"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp outcomeResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.State != "success" || resp.OrderCode != "ABC123" {
		t.Fatalf("unexpected outcome: %+v", resp)
	}
	if svc.lastComment != "window seat" {
		t.Fatalf("comment = %q, want window seat", svc.lastComment)
	}
}

func TestSubmitOrder_Failure(t *testing.T) {
	svc := &stubService{
		submitOutcome: model.OrderOutcome{State: model.OutcomeFailure, Message: "no items selected"},
	}

	rec := doRequest(t, svc, http.MethodPost, "/api/order/", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp outcomeResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.State != "failure" || resp.Message != "no items selected" {
		t.Fatalf("unexpected outcome: %+v", resp)
	}
}

func TestRetryOrder(t *testing.T) {
	svc := &stubService{
		retryOutcome: model.OrderOutcome{State: model.OutcomeSuccess, OrderCode: "DEF456"},
	}

	rec := doRequest(t, svc, http.MethodPost, "/api/order/retry", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp outcomeResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.State != "success" || resp.OrderCode != "DEF456" {
		t.Fatalf("unexpected outcome: %+v", resp)
	}
}

func TestGetOutcome_Idle(t *testing.T) {
	svc := &stubService{}

	rec := doRequest(t, svc, http.MethodGet, "/api/order/", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp outcomeResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.State != "idle" {
		t.Fatalf("state = %q, want idle", resp.State)
	}
}

func TestDismissOrder(t *testing.T) {
	svc := &stubService{}

	rec := doRequest(t, svc, http.MethodPost, "/api/order/dismiss", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !svc.dismissCalled {
		t.Fatalf("dismiss must be forwarded to the service")
	}
}

func TestUnknownRoute(t *testing.T) {
	svc := &stubService{}

	rec := doRequest(t, svc, http.MethodGet, "/api/unknown", nil)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
