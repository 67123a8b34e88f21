// Package pretix предоставляет клиент внешнего тикетингового API pretix.
package pretix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/ticket-backoffice/internal/model"
)

const (
	requestTimeout = 15 * time.Second
	errorBodyLimit = 512
)

// Client инкапсулирует HTTP-взаимодействие с тикетинговым API.
type Client struct {
	eventURL   string
	token      string
	httpClient *http.Client
}

// NewClient создаёт клиент для события указанного организатора.
func NewClient(baseURL, token, organizerSlug, eventSlug string) *Client {
	return &Client{
		eventURL: fmt.Sprintf("%s/organizers/%s/events/%s",
			strings.TrimRight(baseURL, "/"), organizerSlug, eventSlug),
		token: token,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// APIError описывает неуспешный ответ тикетингового API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return "pretix api: " + e.Detail()
}

// Detail возвращает текст статуса и тело ошибки для показа пользователю.
func (e *APIError) Detail() string {
	if e.Body == "" {
		return http.StatusText(e.Status)
	}
	return http.StatusText(e.Status) + ": " + e.Body
}

// Order описывает созданный заказ; из ответа бэкенда нужен только код заказа.
type Order struct {
	Code string `json:"code"`
}

type createOrderRequest struct {
	Locale          string                `json:"locale"`
	Positions       []model.OrderPosition `json:"positions"`
	Email           string                `json:"email"`
	Status          string                `json:"status"`
	PaymentProvider string                `json:"payment_provider"`
	Comment         string                `json:"comment"`
}

// ListItems запрашивает активные товары каталога события.
func (c *Client) ListItems(ctx context.Context) ([]model.CatalogItem, error) {
	var envelope struct {
		Results []model.CatalogItem `json:"results"`
	}
	if err := c.getJSON(ctx, c.eventURL+"/items/?active=true", &envelope); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return envelope.Results, nil
}

// ListQuotas запрашивает квоты события вместе с текущей доступностью.
func (c *Client) ListQuotas(ctx context.Context) ([]model.Quota, error) {
	var envelope struct {
		Results []model.Quota `json:"results"`
	}
	if err := c.getJSON(ctx, c.eventURL+"/quotas/?with_availability=true", &envelope); err != nil {
		return nil, fmt.Errorf("list quotas: %w", err)
	}
	return envelope.Results, nil
}

// FetchCatalog параллельно запрашивает товары и квоты.
// Первая же ошибка прерывает общую загрузку, частичный каталог не возвращается.
func (c *Client) FetchCatalog(ctx context.Context) ([]model.CatalogItem, []model.Quota, error) {
	var (
		items  []model.CatalogItem
		quotas []model.Quota
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		items, err = c.ListItems(ctx)
		return err
	})

	g.Go(func() error {
		var err error
		quotas, err = c.ListQuotas(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return items, quotas, nil
}

// CreateOrder создаёт заказ с указанными позициями от имени оператора.
// Заказ создаётся оплаченным с ручным провайдером платежа.
func (c *Client) CreateOrder(ctx context.Context, positions []model.OrderPosition, email, comment string) (*Order, error) {
	payload := createOrderRequest{
		Locale:          model.DisplayLocale,
		Positions:       positions,
		Email:           email,
		Status:          "p",
		PaymentProvider: "manual",
		Comment:         comment,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.eventURL+"/orders/", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, newAPIError(resp)
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &order, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return newAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

func newAPIError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	return &APIError{
		Status: resp.StatusCode,
		Body:   strings.TrimSpace(string(body)),
	}
}
