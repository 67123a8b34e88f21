// Package service реализует процесс оформления заказа тикет-бекофиса.
package service

import (
	"context"
	"errors"
	"fmt"
	"net"

	"go.uber.org/zap"

	"github.com/mmeshcher/ticket-backoffice/internal/catalog"
	"github.com/mmeshcher/ticket-backoffice/internal/model"
	"github.com/mmeshcher/ticket-backoffice/internal/pretix"
	"github.com/mmeshcher/ticket-backoffice/internal/selection"
)

// commentPrefix — фиксированная пометка происхождения заказа.
// Комментарий оператора дописывается после неё с новой строки.
const commentPrefix = "Created via backoffice"

var (
	// ErrNoItemsSelected возвращается при попытке оформить пустой выбор.
	ErrNoItemsSelected = errors.New("no items selected")
	// ErrNoEmailConfigured возвращается, когда не настроена почта оператора.
	ErrNoEmailConfigured = errors.New("no email configured")
	// ErrItemNotAvailable возвращается при выборе товара, которого нет в витрине.
	ErrItemNotAvailable = errors.New("item is not available for purchase")
)

// TicketingClient определяет контракт клиента тикетингового API.
type TicketingClient interface {
	FetchCatalog(ctx context.Context) ([]model.CatalogItem, []model.Quota, error)
	CreateOrder(ctx context.Context, positions []model.OrderPosition, email, comment string) (*pretix.Order, error)
}

// Service содержит бизнес-логику тикет-бекофиса.
type Service struct {
	client TicketingClient
	store  *selection.Store
	email  string
	logger *zap.Logger
}

// NewService создаёт сервис с указанным клиентом тикетингового API,
// хранилищем сессий и почтой оператора.
func NewService(client TicketingClient, store *selection.Store, operatorEmail string, logger *zap.Logger) *Service {
	return &Service{
		client: client,
		store:  store,
		email:  operatorEmail,
		logger: logger,
	}
}

// Catalog загружает каталог и собирает витрину для сессии:
// карточки видимых товаров и строки заказа с итоговой суммой.
// Каталог запрашивается заново при каждом обращении и нигде не кешируется.
func (s *Service) Catalog(ctx context.Context, sessionID string) ([]catalog.Card, catalog.Summary, error) {
	items, quotas, err := s.client.FetchCatalog(ctx)
	if err != nil {
		return nil, catalog.Summary{}, fmt.Errorf("load catalog: %w", err)
	}

	sess := s.store.Get(sessionID)
	quantities := sess.Quantities()

	summary, err := catalog.Compose(items, quotas, quantities)
	if err != nil {
		return nil, catalog.Summary{}, err
	}
	sess.UpdateComposition(catalog.Positions(summary.LineItems))

	return catalog.Cards(items, quotas, quantities), summary, nil
}

// SetQuantity изменяет количество товара в выборе сессии и возвращает
// пересобранные строки заказа. Количество обрезается в границы,
// допустимые квотой товара.
func (s *Service) SetQuantity(ctx context.Context, sessionID string, itemID int64, quantity int) (catalog.Summary, error) {
	items, quotas, err := s.client.FetchCatalog(ctx)
	if err != nil {
		return catalog.Summary{}, fmt.Errorf("load catalog: %w", err)
	}

	quota := catalog.QuotaFor(itemID, quotas)
	if quota == nil || !quota.Available {
		return catalog.Summary{}, ErrItemNotAvailable
	}

	sess := s.store.Get(sessionID)
	quantities := sess.SetQuantity(itemID, quantity, catalog.QuantityLimit(quota))

	summary, err := catalog.Compose(items, quotas, quantities)
	if err != nil {
		return catalog.Summary{}, err
	}
	sess.UpdateComposition(catalog.Positions(summary.LineItems))

	return summary, nil
}

// Submit оформляет заказ по последним собранным позициям сессии.
// Сбои предусловий фиксируются как Failure без сетевого вызова;
// повторное подтверждение во время отправки не порождает второго вызова.
func (s *Service) Submit(ctx context.Context, sessionID, comment string) model.OrderOutcome {
	sess := s.store.Get(sessionID)

	if s.email == "" {
		outcome := model.OrderOutcome{State: model.OutcomeFailure, Message: ErrNoEmailConfigured.Error()}
		sess.SetOutcome(outcome)
		return outcome
	}

	if len(sess.Positions()) == 0 {
		outcome := model.OrderOutcome{State: model.OutcomeFailure, Message: ErrNoItemsSelected.Error()}
		sess.SetOutcome(outcome)
		return outcome
	}

	fullComment := commentPrefix + "\n" + comment

	attempt, positions, ok := sess.BeginSubmission(fullComment)
	if !ok {
		if current := sess.Outcome(); current != nil {
			return *current
		}
		return model.OrderOutcome{State: model.OutcomePending}
	}

	return s.send(ctx, sess, attempt, positions, fullComment)
}

// Retry повторяет неудавшуюся попытку: те же позиции, тот же комментарий,
// без возврата к подтверждению.
func (s *Service) Retry(ctx context.Context, sessionID string) model.OrderOutcome {
	sess := s.store.Get(sessionID)

	attempt, positions, comment, ok := sess.BeginRetry()
	if !ok {
		if current := sess.Outcome(); current != nil {
			return *current
		}
		outcome := model.OrderOutcome{State: model.OutcomeFailure, Message: "no failed submission to retry"}
		sess.SetOutcome(outcome)
		return outcome
	}

	return s.send(ctx, sess, attempt, positions, comment)
}

func (s *Service) send(ctx context.Context, sess *selection.Session, attempt int, positions []model.OrderPosition, comment string) model.OrderOutcome {
	order, err := s.client.CreateOrder(ctx, positions, s.email, comment)

	var outcome model.OrderOutcome
	if err != nil {
		s.logger.Error("create order failed", zap.Error(err), zap.Int("positions", len(positions)))
		outcome = model.OrderOutcome{State: model.OutcomeFailure, Message: failureMessage(err)}
	} else {
		outcome = model.OrderOutcome{State: model.OutcomeSuccess, OrderCode: order.Code}
	}

	if !sess.FinishSubmission(attempt, outcome) {
		s.logger.Info("discarding result of an abandoned submission", zap.Int("attempt", attempt))
	}

	return outcome
}

// Outcome возвращает результат текущей попытки оформления, либо nil.
func (s *Service) Outcome(sessionID string) *model.OrderOutcome {
	return s.store.Get(sessionID).Outcome()
}

// Dismiss закрывает диалог подтверждения: после успеха выбор сессии
// очищается, после неудачи сохраняется.
func (s *Service) Dismiss(sessionID string) {
	s.store.Get(sessionID).Dismiss()
}

func failureMessage(err error) string {
	var apiErr *pretix.APIError
	if errors.As(err, &apiErr) {
		return "backend rejected the order: " + apiErr.Detail()
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "order request timed out"
	}

	return "failed to create order"
}
