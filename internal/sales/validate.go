package sales

import (
	"fmt"
	"math"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/angelmondragon/sales-analytics/pkg/enums"
	"github.com/go-playground/validator/v10"
)

const totalTolerance = 1e-9

// Validator checks generated records against their domain before they are
// written.
type Validator struct {
	validate *validator.Validate
	from     civil.Date
	to       civil.Date
}

// NewValidator builds a Validator accepting sales dates in [from, to].
func NewValidator(from, to civil.Date) *Validator {
	v := validator.New()
	out := &Validator{validate: v, from: from, to: to}

	_ = v.RegisterValidation("sales_city", func(fl validator.FieldLevel) bool {
		return enums.City(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("sales_state", func(fl validator.FieldLevel) bool {
		return enums.State(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("sales_payment_method", func(fl validator.FieldLevel) bool {
		return enums.PaymentMethod(fl.Field().String()).IsValid()
	})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		r := sl.Current().Interface().(Record)
		if !r.SalesDate.IsValid() || r.SalesDate.Before(out.from) || r.SalesDate.After(out.to) {
			sl.ReportError(r.SalesDate, "SalesDate", "sales_date", "sales_date", "")
		}
		want := TotalSalesAmount(r.Quantity, r.PricePerUnit, r.Discount, r.ShippingCost)
		if math.Abs(want-r.TotalSalesAmount) > totalTolerance {
			sl.ReportError(r.TotalSalesAmount, "TotalSalesAmount", "total_sales_amount", "derived_total", FormatAmount(want))
		}
	}, Record{})

	return out
}

// Validate returns an error describing every violated constraint.
func (v *Validator) Validate(r Record) error {
	err := v.validate.Struct(r)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("record %s invalid: %s", r.CustomerID, strings.Join(parts, ", "))
}
