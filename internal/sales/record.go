package sales

import (
	"strconv"

	"cloud.google.com/go/civil"
	"github.com/angelmondragon/sales-analytics/pkg/enums"
)

// Column names shared by the generator output, the ingest schema and the
// engine tables.
const (
	ColumnCustomerID       = "customer_id"
	ColumnProductID        = "product_id"
	ColumnQuantity         = "quantity"
	ColumnPricePerUnit     = "price_per_unit"
	ColumnSalesDate        = "sales_date"
	ColumnCity             = "city"
	ColumnState            = "state"
	ColumnDiscount         = "discount"
	ColumnShippingCost     = "shipping_cost"
	ColumnPaymentMethod    = "payment_method"
	ColumnTotalSalesAmount = "total_sales_amount"
)

var recordHeader = []string{
	ColumnCustomerID,
	ColumnProductID,
	ColumnQuantity,
	ColumnPricePerUnit,
	ColumnSalesDate,
	ColumnCity,
	ColumnState,
	ColumnDiscount,
	ColumnShippingCost,
	ColumnPaymentMethod,
	ColumnTotalSalesAmount,
}

// RecordHeader returns the column order of a generated sales file.
func RecordHeader() []string {
	out := make([]string, len(recordHeader))
	copy(out, recordHeader)
	return out
}

// Record is one synthetic retail transaction as produced by the generator.
type Record struct {
	CustomerID       string              `validate:"required,startswith=CUST_,min=11"`
	ProductID        string              `validate:"required,startswith=PROD_,len=9"`
	Quantity         int                 `validate:"min=1,max=10"`
	PricePerUnit     float64             `validate:"gte=10,lte=1000"`
	SalesDate        civil.Date
	City             enums.City          `validate:"sales_city"`
	State            enums.State         `validate:"sales_state"`
	Discount         float64             `validate:"gte=0,lte=0.3"`
	ShippingCost     float64             `validate:"gte=5,lte=50"`
	PaymentMethod    enums.PaymentMethod `validate:"sales_payment_method"`
	TotalSalesAmount float64
}

// TotalSalesAmount derives the order total from its already rounded inputs:
// round(quantity * price * (1 - discount) + shipping, 2).
func TotalSalesAmount(quantity int, pricePerUnit, discount, shippingCost float64) float64 {
	return Round2(float64(quantity)*pricePerUnit*(1-discount) + shippingCost)
}

// WithTotal returns a copy of the record with TotalSalesAmount recomputed.
func (r Record) WithTotal() Record {
	r.TotalSalesAmount = TotalSalesAmount(r.Quantity, r.PricePerUnit, r.Discount, r.ShippingCost)
	return r
}

// CSV renders the record in RecordHeader order.
func (r Record) CSV() []string {
	return []string{
		r.CustomerID,
		r.ProductID,
		strconv.Itoa(r.Quantity),
		FormatAmount(r.PricePerUnit),
		r.SalesDate.String(),
		r.City.String(),
		r.State.String(),
		FormatAmount(r.Discount),
		FormatAmount(r.ShippingCost),
		r.PaymentMethod.String(),
		FormatAmount(r.TotalSalesAmount),
	}
}
