package shoppinglist

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/pricelist/internal/pricing"
)

var (
	// ErrNotFound indicates the requested list could not be located.
	ErrNotFound = errors.New("shopping list not found")
	// ErrLineNotFound is returned for a line index outside the list.
	ErrLineNotFound = errors.New("shopping list line not found")
	// ErrInvalidInput is returned when the provided payload is invalid.
	ErrInvalidInput = errors.New("invalid input")
)

// Pricer quotes a selection against a catalog.
type Pricer interface {
	Quote(item, size string, qty int) pricing.Quotation
}

// Line is one selection on a list. Price is the total for Quantity units and
// is zero when the catalog has no matching tier.
type Line struct {
	Item      string          `json:"item"`
	Size      string          `json:"size"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Price     decimal.Decimal `json:"price"`
	Matched   bool            `json:"matched"`
}

// List is an ordered set of lines owned by a single caller.
type List struct {
	ID        string    `json:"id"`
	Lines     []Line    `json:"lines"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newLine(item, size string, qty int, price Pricer) Line {
	q := price.Quote(item, size, qty)
	return Line{
		Item:      item,
		Size:      size,
		Quantity:  qty,
		UnitPrice: q.UnitPrice,
		Price:     q.Total,
		Matched:   q.Matched,
	}
}

// AddLine prices and appends a selection. It does nothing and reports false
// when item is empty. Quantities below one are raised to one.
func (l *List) AddLine(item, size string, qty int, price Pricer) (Line, bool) {
	item = strings.TrimSpace(item)
	if item == "" {
		return Line{}, false
	}
	line := newLine(item, strings.TrimSpace(size), clamp(qty), price)
	l.Lines = append(l.Lines, line)
	return line, true
}

// SetLineQuantity re-prices the line at index for qty and replaces it in
// place. Item and size keep the values the line was added with.
func (l *List) SetLineQuantity(index, qty int, price Pricer) (Line, error) {
	if index < 0 || index >= len(l.Lines) {
		return Line{}, ErrLineNotFound
	}
	current := l.Lines[index]
	line := newLine(current.Item, current.Size, clamp(qty), price)
	l.Lines[index] = line
	return line, nil
}

// RemoveLine deletes the line at index. Later lines shift down by one.
func (l *List) RemoveLine(index int) error {
	if index < 0 || index >= len(l.Lines) {
		return ErrLineNotFound
	}
	l.Lines = append(l.Lines[:index], l.Lines[index+1:]...)
	return nil
}

// GrandTotal sums the line prices.
func (l *List) GrandTotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range l.Lines {
		total = total.Add(line.Price)
	}
	return total
}

func clamp(qty int) int {
	if qty < 1 {
		return 1
	}
	return qty
}
