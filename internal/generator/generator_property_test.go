package generator

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/angelmondragon/sales-analytics/internal/sales"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestGeneratorProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("writes exactly n records with sequential ids", prop.ForAll(
		func(seed uint64, n int) bool {
			var buf bytes.Buffer
			written, err := New(Params{Seed: seed}).WriteCSV(context.Background(), &buf, n)
			if err != nil || written != n {
				return false
			}
			lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
			if len(lines) != n+1 {
				return false
			}
			for i, line := range lines[1:] {
				if !strings.HasPrefix(line, fmt.Sprintf("CUST_%06d,", i+1)) {
					return false
				}
			}
			return true
		},
		gen.UInt64(),
		gen.IntRange(0, 300),
	))

	properties.Property("every record carries its derived total", prop.ForAll(
		func(seed uint64) bool {
			g := New(Params{Seed: seed})
			from, to := g.Window()
			for i := 0; i < 100; i++ {
				rec, err := g.Next()
				if err != nil {
					return false
				}
				total := float64(rec.Quantity)*rec.PricePerUnit*(1-rec.Discount) + rec.ShippingCost
				if math.Abs(sales.Round2(total)-rec.TotalSalesAmount) > 1e-9 {
					return false
				}
				if rec.SalesDate.Before(from) || rec.SalesDate.After(to) {
					return false
				}
				if rec.Discount < 0 || rec.Discount > 0.3 || rec.ShippingCost < 5 || rec.ShippingCost > 50 {
					return false
				}
			}
			return true
		},
		gen.UInt64(),
	))

	properties.Property("monetary fields have at most two decimals", prop.ForAll(
		func(seed uint64) bool {
			g := New(Params{Seed: seed})
			for i := 0; i < 50; i++ {
				rec, err := g.Next()
				if err != nil {
					return false
				}
				for _, v := range []float64{rec.PricePerUnit, rec.Discount, rec.ShippingCost, rec.TotalSalesAmount} {
					if sales.Round2(v) != v {
						return false
					}
				}
			}
			return true
		},
		gen.UInt64(),
	))

	properties.TestingRun(t)
}
