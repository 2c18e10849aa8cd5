package sales

import (
	"math"
	"strings"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/angelmondragon/sales-analytics/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func sampleRecord() Record {
	return Record{
		CustomerID:    "CUST_000001",
		ProductID:     "PROD_0042",
		Quantity:      3,
		PricePerUnit:  19.99,
		SalesDate:     civil.Date{Year: 2012, Month: 3, Day: 14},
		City:          enums.CityChicago,
		State:         enums.StateIL,
		Discount:      0.1,
		ShippingCost:  7.5,
		PaymentMethod: enums.PaymentMethodPayPal,
	}.WithTotal()
}

func TestTotalSalesAmount(t *testing.T) {
	// 3 * 19.99 * 0.9 + 7.5 = 61.473
	assert.Equal(t, 61.47, TotalSalesAmount(3, 19.99, 0.1, 7.5))
	assert.Equal(t, 55.0, TotalSalesAmount(1, 50, 0, 5))
}

func TestRound2AndFormat(t *testing.T) {
	assert.Equal(t, 1.01, Round2(1.005))
	assert.Equal(t, -2.35, Round2(-2.345))
	assert.True(t, math.IsNaN(Round2(math.NaN())))
	assert.Equal(t, "1234567.50", FormatAmount(1234567.5))
	assert.Equal(t, "0.00", FormatAmount(0))
	assert.Equal(t, "NaN", FormatAmount(math.NaN()))
}

func TestRecordCSVFollowsHeader(t *testing.T) {
	rec := sampleRecord()
	values := rec.CSV()
	require.Len(t, values, len(RecordHeader()))
	assert.Equal(t, []string{
		"CUST_000001", "PROD_0042", "3", "19.99", "2012-03-14", "Chicago", "IL",
		"0.10", "7.50", "PayPal", "61.47",
	}, values)
}

func TestValidator(t *testing.T) {
	v := NewValidator(civil.Date{Year: 2012, Month: 1, Day: 1}, civil.Date{Year: 2012, Month: 12, Day: 30})
	require.NoError(t, v.Validate(sampleRecord()))

	bad := sampleRecord()
	bad.TotalSalesAmount += 1
	err := v.Validate(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "derived_total")

	bad = sampleRecord()
	bad.State = "WA"
	bad.Quantity = 11
	bad = bad.WithTotal()
	err = v.Validate(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sales_state")
	assert.Contains(t, err.Error(), "Quantity")

	bad = sampleRecord()
	bad.SalesDate = civil.Date{Year: 2013, Month: 1, Day: 1}
	err = v.Validate(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SalesDate")
}

func TestIngestSchemaOrder(t *testing.T) {
	require.Len(t, IngestSchema, 11)
	assert.Equal(t, ColumnTotalSalesAmount, IngestSchema[4].Name)
	assert.Equal(t, 7, IngestSchema.Index(ColumnState))
	assert.Equal(t, -1, IngestSchema.Index("region"))
	assert.ElementsMatch(t, RecordHeader(), IngestSchema.Names())

	tree := IngestSchema.Tree()
	assert.True(t, strings.HasPrefix(tree, "root\n"))
	assert.Contains(t, tree, " |-- sales_date: date (nullable = true)")
}

func TestRowAssign(t *testing.T) {
	var row Row
	schema := IngestSchema

	require.NoError(t, row.Assign(schema[schema.Index(ColumnQuantity)], "7"))
	require.NoError(t, row.Assign(schema[schema.Index(ColumnTotalSalesAmount)], "12.5"))
	require.NoError(t, row.Assign(schema[schema.Index(ColumnSalesDate)], "2012-02-29"))
	require.NoError(t, row.Assign(schema[schema.Index(ColumnState)], "TX"))
	require.NoError(t, row.Assign(schema[schema.Index(ColumnCity)], ""))

	assert.Equal(t, int64(7), *row.Quantity)
	assert.Equal(t, 12.5, *row.TotalSalesAmount)
	assert.Equal(t, civil.Date{Year: 2012, Month: 2, Day: 29}, *row.SalesDate)
	assert.Equal(t, "TX", *row.State)
	assert.Nil(t, row.City)

	assert.Error(t, row.Assign(schema[schema.Index(ColumnQuantity)], "seven"))
	assert.Error(t, row.Assign(schema[schema.Index(ColumnQuantity)], "3000000000"))
	assert.Error(t, row.Assign(schema[schema.Index(ColumnPricePerUnit)], "12,50"))
	assert.Error(t, row.Assign(schema[schema.Index(ColumnSalesDate)], "2012-13-01"))
	for _, raw := range []string{" 3", "3 ", "0x10", "1_0"} {
		assert.Error(t, row.Assign(schema[schema.Index(ColumnQuantity)], raw), raw)
	}
	for _, raw := range []string{"0x1p4", "1_000.5", "NaN", "Inf", "+Inf", "-infinity", "1e400", " 12.5"} {
		assert.Error(t, row.Assign(schema[schema.Index(ColumnTotalSalesAmount)], raw), raw)
	}
	assert.Error(t, row.Assign(schema[schema.Index(ColumnSalesDate)], " 2012-02-29"))
	assert.Equal(t, 12.5, *row.TotalSalesAmount)

	values := row.CSV()
	assert.Equal(t, "7", values[2])
	assert.Equal(t, "12.5", values[4])
	assert.Equal(t, "", values[6])
}

func TestRowCheckFinite(t *testing.T) {
	assert.NoError(t, Row{}.CheckFinite())
	assert.NoError(t, Row{TotalSalesAmount: ptr(10.0)}.CheckFinite())

	err := Row{TotalSalesAmount: ptr(math.NaN())}.CheckFinite()
	require.Error(t, err)
	assert.Contains(t, err.Error(), ColumnTotalSalesAmount)
	assert.Error(t, Row{ShippingCost: ptr(math.Inf(-1))}.CheckFinite())
}

func TestSummarizeOrdersAndRounds(t *testing.T) {
	aggs := []StateAggregate{
		{State: ptr("NY"), Sum: ptr(100.004), Count: 2, Avg: ptr(50.002)},
		{State: ptr("CA"), Sum: ptr(250.555), Count: 3, Avg: ptr(83.518333)},
		{State: nil, Sum: nil, Count: 1, Avg: nil},
		{State: ptr("AZ"), Sum: ptr(100.0), Count: 1, Avg: ptr(100.0)},
	}

	got := Summarize(aggs)
	require.Len(t, got, 4)
	assert.Equal(t, "CA", *got[0].State)
	assert.Equal(t, 250.56, *got[0].TotalSales)
	assert.Equal(t, 83.52, *got[0].AvgOrderValue)
	// NY and AZ tie at 100.00 after rounding; state breaks the tie.
	assert.Equal(t, "AZ", *got[1].State)
	assert.Equal(t, "NY", *got[2].State)
	assert.Nil(t, got[3].State)
	assert.Nil(t, got[3].TotalSales)

	assert.Equal(t, []string{"CA", "250.56", "3", "83.52"}, got[0].CSV())
	assert.Equal(t, []string{"", "", "1", ""}, got[3].CSV())
}
