// Package handler содержит HTTP-обработчики API тикет-бекофиса.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/ticket-backoffice/internal/catalog"
	"github.com/mmeshcher/ticket-backoffice/internal/middleware"
	"github.com/mmeshcher/ticket-backoffice/internal/model"
	"github.com/mmeshcher/ticket-backoffice/internal/service"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	Catalog(ctx context.Context, sessionID string) ([]catalog.Card, catalog.Summary, error)
	SetQuantity(ctx context.Context, sessionID string, itemID int64, quantity int) (catalog.Summary, error)
	Submit(ctx context.Context, sessionID, comment string) model.OrderOutcome
	Retry(ctx context.Context, sessionID string) model.OrderOutcome
	Outcome(sessionID string) *model.OrderOutcome
	Dismiss(sessionID string)
}

// Handler реализует HTTP-обработчики API тикет-бекофиса.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: s,
		logger:  logger,
	}
}

type catalogItemResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       string  `json:"price"`
	Picture     *string `json:"picture,omitempty"`
	Available   *int    `json:"available,omitempty"`
	MaxQuantity int     `json:"max_quantity"`
	Disabled    bool    `json:"disabled"`
	Quantity    int     `json:"quantity"`
}

type lineItemResponse struct {
	ItemID    int64  `json:"item_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Subtotal  string `json:"subtotal"`
}

type summaryResponse struct {
	LineItems   []lineItemResponse `json:"line_items"`
	Total       string             `json:"total"`
	TicketCount int                `json:"ticket_count"`
}

type catalogResponse struct {
	Items   []catalogItemResponse `json:"items"`
	Summary summaryResponse       `json:"summary"`
}

type outcomeResponse struct {
	State     string `json:"state"`
	OrderCode string `json:"order_code,omitempty"`
	Message   string `json:"message,omitempty"`
}

func newSummaryResponse(summary catalog.Summary) summaryResponse {
	lineItems := make([]lineItemResponse, 0, len(summary.LineItems))
	for _, line := range summary.LineItems {
		lineItems = append(lineItems, lineItemResponse{
			ItemID:    line.ItemID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: catalog.FormatPrice(line.UnitPrice),
			Subtotal:  catalog.FormatPrice(line.Subtotal()),
		})
	}

	return summaryResponse{
		LineItems:   lineItems,
		Total:       catalog.FormatPrice(summary.Total),
		TicketCount: summary.TicketCount,
	}
}

func newOutcomeResponse(outcome *model.OrderOutcome) outcomeResponse {
	if outcome == nil {
		return outcomeResponse{State: "idle"}
	}
	return outcomeResponse{
		State:     string(outcome.State),
		OrderCode: outcome.OrderCode,
		Message:   outcome.Message,
	}
}

// GetCatalog возвращает витрину: видимые товары и строки заказа по текущему
// выбору сессии. Ошибка загрузки каталога отдаётся целиком, без частичной витрины.
func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.GetSessionIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	cards, summary, err := h.service.Catalog(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("load catalog error", zap.Error(err))
		http.Error(w, "failed to load catalog", http.StatusBadGateway)
		return
	}

	resp := catalogResponse{
		Items:   make([]catalogItemResponse, 0, len(cards)),
		Summary: newSummaryResponse(summary),
	}
	for _, card := range cards {
		name := card.Item.Name.Display()
		if name == "" {
			name = "Ticket"
		}
		resp.Items = append(resp.Items, catalogItemResponse{
			ID:          card.Item.ID,
			Name:        name,
			Description: card.Item.Description.Display(),
			Price:       card.Item.DefaultPrice,
			Picture:     card.Item.Picture,
			Available:   card.Available,
			MaxQuantity: card.MaxQuantity,
			Disabled:    card.Disabled,
			Quantity:    card.Quantity,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
}

type setQuantityRequest struct {
	ItemID   int64 `json:"item_id"`
	Quantity int   `json:"quantity"`
}

// SetQuantity изменяет количество товара в выборе текущей сессии
// и возвращает пересобранные строки заказа с итоговой суммой.
func (h *Handler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.GetSessionIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req setQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.ItemID <= 0 || req.Quantity < 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	summary, err := h.service.SetQuantity(r.Context(), sessionID, req.ItemID, req.Quantity)
	if err != nil {
		if errors.Is(err, service.ErrItemNotAvailable) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		h.logger.Error("set quantity error", zap.Error(err), zap.Int64("item", req.ItemID))
		http.Error(w, "failed to load catalog", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(newSummaryResponse(summary)); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
}

type submitOrderRequest struct {
	Comment string `json:"comment"`
}

// SubmitOrder подтверждает покупку: оформляет заказ по текущему выбору
// с необязательным комментарием оператора.
func (h *Handler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.GetSessionIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req submitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	outcome := h.service.Submit(r.Context(), sessionID, req.Comment)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(newOutcomeResponse(&outcome)); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
}

// RetryOrder повторяет неудавшуюся попытку оформления с теми же позициями.
func (h *Handler) RetryOrder(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.GetSessionIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	outcome := h.service.Retry(r.Context(), sessionID)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(newOutcomeResponse(&outcome)); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
}

// GetOutcome возвращает состояние текущей попытки оформления.
func (h *Handler) GetOutcome(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.GetSessionIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(newOutcomeResponse(h.service.Outcome(sessionID))); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
}

// DismissOrder закрывает диалог подтверждения. После успешного заказа
// выбор сессии сбрасывается, после неудачи сохраняется для повтора.
func (h *Handler) DismissOrder(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.GetSessionIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.service.Dismiss(sessionID)
	w.WriteHeader(http.StatusOK)
}
