// Package catalog реализует сборку витрины и расчёт заказа по текущему выбору.
package catalog

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/ticket-backoffice/internal/model"
)

// MaxQuantity — верхняя граница количества на один товар независимо от квоты.
const MaxQuantity = 24

// fallbackName используется, когда у товара нет названия для локали отображения.
const fallbackName = "Ticket"

// QuotaFor возвращает первую квоту, управляющую указанным товаром, либо nil.
func QuotaFor(itemID int64, quotas []model.Quota) *model.Quota {
	for i := range quotas {
		for _, id := range quotas[i].Items {
			if id == itemID {
				return &quotas[i]
			}
		}
	}
	return nil
}

// Visible отбирает товары, покрытые доступной квотой, в порядке поля position.
// Товар без квоты или с недоступной квотой не отображается вовсе.
func Visible(items []model.CatalogItem, quotas []model.Quota) []model.CatalogItem {
	visible := make([]model.CatalogItem, 0, len(items))
	for _, item := range items {
		q := QuotaFor(item.ID, quotas)
		if q == nil || !q.Available {
			continue
		}
		visible = append(visible, item)
	}

	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].Position < visible[j].Position
	})

	return visible
}

// QuantityLimit возвращает максимально допустимое количество для квоты:
// min(MaxQuantity, available_number), либо MaxQuantity, когда остаток не отслеживается.
func QuantityLimit(q *model.Quota) int {
	if q == nil || q.AvailableNumber == nil {
		return MaxQuantity
	}
	if *q.AvailableNumber < MaxQuantity {
		if *q.AvailableNumber < 0 {
			return 0
		}
		return *q.AvailableNumber
	}
	return MaxQuantity
}

// SelectorDisabled — признак блокировки выбора количества: квота недоступна,
// а остаток явно нулевой или отрицательный.
func SelectorDisabled(q *model.Quota) bool {
	return q != nil && !q.Available && q.AvailableNumber != nil && *q.AvailableNumber <= 0
}

// Card — данные одной карточки товара для отображения.
type Card struct {
	Item        model.CatalogItem
	Available   *int
	MaxQuantity int
	Disabled    bool
	Quantity    int
}

// Cards строит карточки видимых товаров с текущими выбранными количествами.
func Cards(items []model.CatalogItem, quotas []model.Quota, quantities map[int64]int) []Card {
	visible := Visible(items, quotas)

	cards := make([]Card, 0, len(visible))
	for _, item := range visible {
		q := QuotaFor(item.ID, quotas)
		cards = append(cards, Card{
			Item:        item,
			Available:   q.AvailableNumber,
			MaxQuantity: QuantityLimit(q),
			Disabled:    SelectorDisabled(q),
			Quantity:    quantities[item.ID],
		})
	}

	return cards
}

// Summary — строки заказа и итоговая сумма по текущему выбору.
type Summary struct {
	LineItems   []model.LineItem
	Total       decimal.Decimal
	TicketCount int
}

// Compose строит строки заказа из видимых товаров с положительным количеством.
// Сумма считается точно, в десятичной арифметике; округление до двух знаков
// происходит только при форматировании.
func Compose(items []model.CatalogItem, quotas []model.Quota, quantities map[int64]int) (Summary, error) {
	summary := Summary{
		LineItems: []model.LineItem{},
		Total:     decimal.Zero,
	}

	for _, item := range Visible(items, quotas) {
		qty := quantities[item.ID]
		if qty <= 0 {
			continue
		}

		price, err := decimal.NewFromString(item.DefaultPrice)
		if err != nil {
			return Summary{}, fmt.Errorf("parse price of item %d: %w", item.ID, err)
		}

		name := item.Name.Display()
		if name == "" {
			name = fallbackName
		}

		line := model.LineItem{
			ItemID:    item.ID,
			Name:      name,
			Quantity:  qty,
			UnitPrice: price,
		}

		summary.LineItems = append(summary.LineItems, line)
		summary.Total = summary.Total.Add(line.Subtotal())
		summary.TicketCount += qty
	}

	return summary, nil
}

// Positions строит позиции заказа в формате тикетингового API:
// одна позиция на строку заказа, цена с двумя знаками после запятой.
func Positions(lineItems []model.LineItem) []model.OrderPosition {
	positions := make([]model.OrderPosition, 0, len(lineItems))
	for _, line := range lineItems {
		positions = append(positions, model.OrderPosition{
			Item:  line.ItemID,
			Price: line.UnitPrice.StringFixed(2),
		})
	}
	return positions
}

// FormatPrice форматирует сумму в денежное представление с двумя знаками.
func FormatPrice(d decimal.Decimal) string {
	return d.StringFixed(2)
}
