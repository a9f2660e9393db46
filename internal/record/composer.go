package record

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ItemField names one input of the line-item composer.
type ItemField string

const (
	ItemProduct   ItemField = "product"
	ItemUnit      ItemField = "unit"
	ItemQuantity  ItemField = "quantity"
	ItemUnitPrice ItemField = "unitPrice"
)

// Composer holds the transient state for building one line item.
//
// The total is recomputed on each quantity or unit price update from the value just set and
// whatever the other input currently holds. It is not a derived getter: callers that set both
// inputs see the total of the latest pair only once both updates have been applied.
type Composer struct {
	item LineItem
}

// Update sets one composer field. Blank numeric input counts as zero. Input that does not parse
// as a number is rejected and leaves the composer unchanged.
func (c *Composer) Update(field ItemField, value string) error {
	switch field {
	case ItemProduct:
		c.item.Product = value
	case ItemUnit:
		c.item.Unit = value
	case ItemQuantity:
		q, err := parseNumber(field, value)
		if err != nil {
			return err
		}

		c.item.Quantity = q
		c.item.TotalPrice = q.Mul(c.item.UnitPrice)
	case ItemUnitPrice:
		p, err := parseNumber(field, value)
		if err != nil {
			return err
		}

		c.item.UnitPrice = p
		c.item.TotalPrice = c.item.Quantity.Mul(p)
	default:
		return &ValidationError{Field: string(field), Reason: "unknown item field"}
	}

	return nil
}

// Draft returns the item as currently composed, valid or not.
func (c *Composer) Draft() LineItem {
	return c.item
}

// Build validates the composed item and returns a snapshot of it. The composer keeps its state;
// callers Reset it after appending the item.
func (c *Composer) Build() (LineItem, error) {
	if err := ValidateItem(c.item); err != nil {
		return LineItem{}, err
	}

	return c.item, nil
}

func (c *Composer) Reset() {
	c.item = LineItem{}
}

// ValidateItem applies the line-item rules: product and unit present, quantity and unit price
// strictly positive.
func ValidateItem(it LineItem) error {
	switch {
	case strings.TrimSpace(it.Product) == "":
		return &ValidationError{Field: string(ItemProduct), Reason: "is required"}
	case strings.TrimSpace(it.Unit) == "":
		return &ValidationError{Field: string(ItemUnit), Reason: "is required"}
	case !it.Quantity.IsPositive():
		return &ValidationError{Field: string(ItemQuantity), Reason: "must be greater than zero"}
	case !it.UnitPrice.IsPositive():
		return &ValidationError{Field: string(ItemUnitPrice), Reason: "must be greater than zero"}
	}

	return nil
}

func parseNumber(field ItemField, value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, nil
	}

	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, &ValidationError{Field: string(field), Reason: fmt.Sprintf("%q is not a number", value)}
	}

	return d, nil
}
