// Package model содержит доменные сущности тикет-бекофиса.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DisplayLocale — фиксированная локаль отображения и оформления заказов.
const DisplayLocale = "de"

// LocalizedString представляет локализованную строку pretix: карта язык → текст.
type LocalizedString map[string]string

// Display возвращает текст для локали отображения.
func (s LocalizedString) Display() string {
	return s[DisplayLocale]
}

// Variation описывает вариацию товара со своей ценой и названием.
type Variation struct {
	ID           int64           `json:"id"`
	Value        LocalizedString `json:"value"`
	DefaultPrice *string         `json:"default_price"`
	Price        string          `json:"price"`
	Active       bool            `json:"active"`
	Position     int             `json:"position"`
}

// CatalogItem описывает покупаемый товар каталога тикетингового бэкенда.
type CatalogItem struct {
	ID             int64           `json:"id"`
	Name           LocalizedString `json:"name"`
	Description    LocalizedString `json:"description"`
	DefaultPrice   string          `json:"default_price"`
	Picture        *string         `json:"picture"`
	Active         bool            `json:"active"`
	Position       int             `json:"position"`
	AvailableFrom  *time.Time      `json:"available_from"`
	AvailableUntil *time.Time      `json:"available_until"`
	Variations     []Variation     `json:"variations,omitempty"`
}

// Quota описывает пул остатков, из которого продаются товары.
// Товар доступен к покупке, только если какая-то квота ссылается на него
// и её флаг available установлен.
type Quota struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Size            *int    `json:"size"`
	Items           []int64 `json:"items"`
	Variations      []int64 `json:"variations"`
	Available       bool    `json:"available"`
	AvailableNumber *int    `json:"available_number"`
}

// LineItem — строка заказа: товар с выбранным положительным количеством.
type LineItem struct {
	ItemID    int64
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Subtotal возвращает стоимость строки заказа.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// OrderPosition — запись позиции заказа в формате тикетингового API.
// Одна позиция соответствует одной строке заказа, без развёртывания по штукам.
type OrderPosition struct {
	Item      int64  `json:"item"`
	Variation *int64 `json:"variation,omitempty"`
	Price     string `json:"price"`
}

// OutcomeState описывает состояние попытки оформления заказа.
type OutcomeState string

const (
	OutcomePending OutcomeState = "pending"
	OutcomeSuccess OutcomeState = "success"
	OutcomeFailure OutcomeState = "failure"
)

// OrderOutcome — результат одной попытки оформления заказа.
type OrderOutcome struct {
	State     OutcomeState
	OrderCode string
	Message   string
}
