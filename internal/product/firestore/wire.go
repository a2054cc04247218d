package firestore

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/JakeFAU/render-gateway/internal/product"
)

// document is the REST representation of one stored document.
type document struct {
	Name   string           `json:"name"`
	Fields map[string]value `json:"fields"`
}

// value is a typed-field wrapper. Exactly one member is set on the wire.
type value struct {
	StringValue  *string      `json:"stringValue"`
	IntegerValue *string      `json:"integerValue"`
	DoubleValue  *json.Number `json:"doubleValue"`
	BooleanValue *bool        `json:"booleanValue"`
	ArrayValue   *arrayValue  `json:"arrayValue"`
}

type arrayValue struct {
	Values []value `json:"values"`
}

func decodeProduct(id string, fields map[string]value) (product.Product, error) {
	p := product.Product{
		ID:          id,
		Name:        stringField(fields, "name"),
		Description: stringField(fields, "description"),
		Image:       stringField(fields, "image"),
		Brand:       stringField(fields, "brand"),
		Type:        stringField(fields, "type"),
	}
	if p.Image == "" {
		p.Image = firstString(fields, "images")
	}

	var err error
	if p.Price, _, err = amountField(fields, "price"); err != nil {
		return product.Product{}, err
	}
	if p.MRP, _, err = amountField(fields, "mrp"); err != nil {
		return product.Product{}, err
	}
	stock, ok, err := amountField(fields, "stock")
	if err != nil {
		return product.Product{}, err
	}
	if ok {
		p.StockKnown = true
		if stock.IsPositive() {
			p.Stock = int(stock.IntPart())
		}
	}
	return p, nil
}

func stringField(fields map[string]value, name string) string {
	v, ok := fields[name]
	if !ok || v.StringValue == nil {
		return ""
	}
	return strings.TrimSpace(*v.StringValue)
}

func firstString(fields map[string]value, name string) string {
	v, ok := fields[name]
	if !ok || v.ArrayValue == nil {
		return ""
	}
	for _, item := range v.ArrayValue.Values {
		if item.StringValue != nil && strings.TrimSpace(*item.StringValue) != "" {
			return strings.TrimSpace(*item.StringValue)
		}
	}
	return ""
}

// amountField reads an integerValue or doubleValue. It reports whether the
// field carried a numeric value; a numeric value that does not parse, or a
// negative amount, fails the record.
func amountField(fields map[string]value, name string) (decimal.Decimal, bool, error) {
	v, ok := fields[name]
	if !ok {
		return decimal.Zero, false, nil
	}
	var raw string
	switch {
	case v.IntegerValue != nil:
		raw = *v.IntegerValue
	case v.DoubleValue != nil:
		raw = v.DoubleValue.String()
	default:
		return decimal.Zero, false, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("field %s: %w", name, err)
	}
	if d.IsNegative() && name != "stock" {
		return decimal.Zero, false, fmt.Errorf("field %s: negative amount %s", name, raw)
	}
	return d, true, nil
}
