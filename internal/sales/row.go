package sales

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/angelmondragon/sales-analytics/pkg/enums"
)

// Row is one ingested sales record. A nil field is NULL.
type Row struct {
	CustomerID       *string
	ProductID        *string
	Quantity         *int64
	PricePerUnit     *float64
	TotalSalesAmount *float64
	SalesDate        *civil.Date
	City             *string
	State            *string
	Discount         *float64
	ShippingCost     *float64
	PaymentMethod    *string
}

// Assign parses raw as the column's type and stores it on the row. An empty
// value stores NULL.
func (r *Row) Assign(col Column, raw string) error {
	if raw == "" {
		if !col.Nullable {
			return fmt.Errorf("column %s is not nullable", col.Name)
		}
		return r.set(col.Name, nil)
	}

	switch col.Type {
	case enums.ColumnTypeString:
		v := raw
		return r.set(col.Name, &v)
	case enums.ColumnTypeInteger:
		v, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return fmt.Errorf("column %s: %w", col.Name, err)
		}
		return r.set(col.Name, &v)
	case enums.ColumnTypeDouble:
		v, err := parseDouble(raw)
		if err != nil {
			return fmt.Errorf("column %s: %w", col.Name, err)
		}
		return r.set(col.Name, &v)
	case enums.ColumnTypeDate:
		v, err := civil.ParseDate(raw)
		if err != nil {
			return fmt.Errorf("column %s: %w", col.Name, err)
		}
		return r.set(col.Name, &v)
	default:
		return fmt.Errorf("column %s: unsupported type %q", col.Name, col.Type)
	}
}

// parseDouble accepts plain decimal notation with an optional exponent.
// Hex floats, digit separators and non-finite values are rejected.
func parseDouble(raw string) (float64, error) {
	if strings.ContainsAny(raw, "xX_") {
		return 0, fmt.Errorf("invalid double %q", raw)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite double %q", raw)
	}
	return v, nil
}

func (r *Row) set(name string, v any) error {
	var ok bool
	switch name {
	case ColumnCustomerID:
		r.CustomerID, ok = asPtr[string](v)
	case ColumnProductID:
		r.ProductID, ok = asPtr[string](v)
	case ColumnQuantity:
		r.Quantity, ok = asPtr[int64](v)
	case ColumnPricePerUnit:
		r.PricePerUnit, ok = asPtr[float64](v)
	case ColumnTotalSalesAmount:
		r.TotalSalesAmount, ok = asPtr[float64](v)
	case ColumnSalesDate:
		r.SalesDate, ok = asPtr[civil.Date](v)
	case ColumnCity:
		r.City, ok = asPtr[string](v)
	case ColumnState:
		r.State, ok = asPtr[string](v)
	case ColumnDiscount:
		r.Discount, ok = asPtr[float64](v)
	case ColumnShippingCost:
		r.ShippingCost, ok = asPtr[float64](v)
	case ColumnPaymentMethod:
		r.PaymentMethod, ok = asPtr[string](v)
	default:
		return fmt.Errorf("unknown column %q", name)
	}
	if !ok {
		return fmt.Errorf("column %s: unexpected value type %T", name, v)
	}
	return nil
}

func asPtr[T any](v any) (*T, bool) {
	if v == nil {
		return nil, true
	}
	p, ok := v.(*T)
	return p, ok
}

// CheckFinite reports the first double column holding NaN or an infinity.
// Such values cannot be stored faithfully by the SQL engines.
func (r Row) CheckFinite() error {
	doubles := []struct {
		name string
		v    *float64
	}{
		{ColumnPricePerUnit, r.PricePerUnit},
		{ColumnTotalSalesAmount, r.TotalSalesAmount},
		{ColumnDiscount, r.Discount},
		{ColumnShippingCost, r.ShippingCost},
	}
	for _, d := range doubles {
		if d.v != nil && (math.IsNaN(*d.v) || math.IsInf(*d.v, 0)) {
			return fmt.Errorf("column %s: non-finite value %v", d.name, *d.v)
		}
	}
	return nil
}

// Values returns the row's fields in IngestSchema order; NULL is nil.
func (r Row) Values() []any {
	return []any{
		deref(r.CustomerID),
		deref(r.ProductID),
		deref(r.Quantity),
		deref(r.PricePerUnit),
		deref(r.TotalSalesAmount),
		deref(r.SalesDate),
		deref(r.City),
		deref(r.State),
		deref(r.Discount),
		deref(r.ShippingCost),
		deref(r.PaymentMethod),
	}
}

// CSV renders the row in IngestSchema order. NULL renders as an empty field.
func (r Row) CSV() []string {
	values := r.Values()
	out := make([]string, len(values))
	for i, v := range values {
		switch t := v.(type) {
		case nil:
			out[i] = ""
		case string:
			out[i] = t
		case int64:
			out[i] = strconv.FormatInt(t, 10)
		case float64:
			out[i] = strconv.FormatFloat(t, 'f', -1, 64)
		case civil.Date:
			out[i] = t.String()
		default:
			out[i] = fmt.Sprint(t)
		}
	}
	return out
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
