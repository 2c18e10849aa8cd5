package generator

import (
	"fmt"
	"math/rand/v2"

	"cloud.google.com/go/civil"
	"github.com/angelmondragon/sales-analytics/internal/sales"
	"github.com/angelmondragon/sales-analytics/pkg/enums"
)

const (
	productCount = 1000
	maxQuantity  = 10

	minPrice    = 10.0
	maxPrice    = 1000.0
	maxDiscount = 0.3
	minShipping = 5.0
	maxShipping = 50.0

	defaultDays = 365
)

// DefaultStart is the first possible sales date.
var DefaultStart = civil.Date{Year: 2012, Month: 1, Day: 1}

// Params configure a Generator.
type Params struct {
	Seed uint64
	// Start is the first sales date; zero means DefaultStart.
	Start civil.Date
	// Days is the width of the sales date window; zero means 365.
	Days int
}

// Generator produces a deterministic stream of sales records for a seed.
type Generator struct {
	rng       *rand.Rand
	start     civil.Date
	days      int
	next      int
	cities    []enums.City
	states    []enums.State
	payments  []enums.PaymentMethod
	validator *sales.Validator
}

// New builds a Generator.
func New(params Params) *Generator {
	start := params.Start
	if start.IsZero() {
		start = DefaultStart
	}
	days := params.Days
	if days <= 0 {
		days = defaultDays
	}
	return &Generator{
		rng:       rand.New(rand.NewPCG(params.Seed, params.Seed^0x9e3779b97f4a7c15)),
		start:     start,
		days:      days,
		next:      1,
		cities:    enums.Cities(),
		states:    enums.States(),
		payments:  enums.PaymentMethods(),
		validator: sales.NewValidator(start, start.AddDays(days-1)),
	}
}

// Window returns the first and last date the generator can produce.
func (g *Generator) Window() (civil.Date, civil.Date) {
	return g.start, g.start.AddDays(g.days - 1)
}

// Next returns the next record. Customer ids are sequential from 1.
func (g *Generator) Next() (sales.Record, error) {
	rec := sales.Record{
		CustomerID:    fmt.Sprintf("CUST_%06d", g.next),
		ProductID:     fmt.Sprintf("PROD_%04d", g.rng.IntN(productCount)+1),
		Quantity:      g.rng.IntN(maxQuantity) + 1,
		PricePerUnit:  sales.Round2(g.uniform(minPrice, maxPrice)),
		SalesDate:     g.start.AddDays(g.rng.IntN(g.days)),
		City:          g.cities[g.rng.IntN(len(g.cities))],
		State:         g.states[g.rng.IntN(len(g.states))],
		Discount:      sales.Round2(g.uniform(0, maxDiscount)),
		ShippingCost:  sales.Round2(g.uniform(minShipping, maxShipping)),
		PaymentMethod: g.payments[g.rng.IntN(len(g.payments))],
	}.WithTotal()
	g.next++

	if err := g.validator.Validate(rec); err != nil {
		return sales.Record{}, err
	}
	return rec, nil
}

// uniform draws from [lo, hi).
func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}
