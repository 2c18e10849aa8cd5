package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/sales-analytics/internal/sales"
	pkgerrors "github.com/angelmondragon/sales-analytics/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "customer_id,product_id,quantity,price_per_unit,sales_date,city,state,discount,shipping_cost,payment_method,total_sales_amount\n"

func line(id int, state string, total string) string {
	return fmt.Sprintf("CUST_%06d,PROD_0001,2,10.00,2012-05-01,Chicago,%s,0.00,5.00,PayPal,%s\n", id, state, total)
}

func TestReadBindsColumnsByName(t *testing.T) {
	input := header + line(1, "CA", "25.00") + line(2, "NY", "31.50")

	rows, stats, err := Read(context.Background(), strings.NewReader(input), Options{Parallelism: 2})
	require.NoError(t, err)
	assert.Equal(t, Stats{Read: 2, Accepted: 2, Dropped: 0}, stats)
	require.Len(t, rows, 2)
	assert.Equal(t, "CUST_000001", *rows[0].CustomerID)
	assert.Equal(t, "CA", *rows[0].State)
	assert.Equal(t, 25.0, *rows[0].TotalSalesAmount)
	assert.Equal(t, 31.5, *rows[1].TotalSalesAmount)
	assert.Equal(t, int64(2), *rows[1].Quantity)
}

func TestReadDropsMalformedRows(t *testing.T) {
	input := header +
		line(1, "CA", "25.00") +
		"CUST_000002,PROD_0001,2\n" + // too few fields
		line(3, "TX", "not-a-number") +
		"CUST_000004,PROD_0001,two,10.00,2012-05-01,Chicago,IL,0.00,5.00,PayPal,25.00\n" +
		"CUST_000005,PROD_0001,2,10.00,2012-02-30,Chicago,IL,0.00,5.00,PayPal,25.00\n" +
		line(6, "AZ", "12.00") +
		line(7, "PA", "1.00") + "extra\n"

	rows, stats, err := Read(context.Background(), strings.NewReader(input), Options{Parallelism: 3, ChunkSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 8, stats.Read)
	assert.Equal(t, 3, stats.Accepted)
	assert.Equal(t, 5, stats.Dropped)
	require.Len(t, rows, 3)
	assert.Equal(t, "CUST_000001", *rows[0].CustomerID)
	assert.Equal(t, "CUST_000006", *rows[1].CustomerID)
	assert.Equal(t, "CUST_000007", *rows[2].CustomerID)
}

func TestReadDropsLooseNumericForms(t *testing.T) {
	row := func(id int, qty, price, total string) string {
		return fmt.Sprintf("CUST_%06d,PROD_0001,%s,%s,2012-05-01,Chicago,IL,0.00,5.00,PayPal,%s\n", id, qty, price, total)
	}
	input := header +
		row(1, "2", "10.00", "25.00") +
		row(2, " 3 ", "10.00", "35.00") +
		row(3, "2", "0x1p4", "37.00") +
		row(4, "2", "10.00", "Inf") +
		row(5, "2", "10.00", "NaN") +
		row(6, "2", "1_000.00", "25.00") +
		row(7, "0x2", "10.00", "25.00") +
		row(8, "2", " 10.00", "25.00") +
		row(9, "2", "10.00", "-infinity") +
		row(10, "2", "1e1", "2.5e1")

	rows, stats, err := Read(context.Background(), strings.NewReader(input), Options{Parallelism: 2})
	require.NoError(t, err)
	assert.Equal(t, Stats{Read: 10, Accepted: 2, Dropped: 8}, stats)
	require.Len(t, rows, 2)
	assert.Equal(t, "CUST_000001", *rows[0].CustomerID)
	assert.Equal(t, "CUST_000010", *rows[1].CustomerID)
	assert.Equal(t, 10.0, *rows[1].PricePerUnit)
	assert.Equal(t, 25.0, *rows[1].TotalSalesAmount)
}

func TestReadEmptyValuesAreNull(t *testing.T) {
	input := header + "CUST_000001,PROD_0001,,10.00,,Chicago,,0.00,5.00,PayPal,\n"

	rows, stats, err := Read(context.Background(), strings.NewReader(input), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Accepted)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Quantity)
	assert.Nil(t, rows[0].SalesDate)
	assert.Nil(t, rows[0].State)
	assert.Nil(t, rows[0].TotalSalesAmount)
}

func TestReadPreservesOrderAcrossChunks(t *testing.T) {
	var b strings.Builder
	b.WriteString(header)
	for i := 1; i <= 1000; i++ {
		b.WriteString(line(i, "NY", "10.00"))
	}

	rows, stats, err := Read(context.Background(), strings.NewReader(b.String()), Options{Parallelism: 4, ChunkSize: 7})
	require.NoError(t, err)
	assert.Equal(t, 1000, stats.Accepted)
	for i, row := range rows {
		require.Equal(t, fmt.Sprintf("CUST_%06d", i+1), *row.CustomerID)
	}
}

func TestReadMissingColumnIsValidationError(t *testing.T) {
	input := "customer_id,product_id,quantity\nCUST_000001,PROD_0001,1\n"

	_, _, err := Read(context.Background(), strings.NewReader(input), Options{})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	assert.Contains(t, err.Error(), "total_sales_amount")
}

func TestReadEmptyInput(t *testing.T) {
	_, _, err := Read(context.Background(), strings.NewReader(""), Options{})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestReadHeaderOnly(t *testing.T) {
	rows, stats, err := Read(context.Background(), strings.NewReader(header), Options{})
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, Stats{}, stats)
}

func TestReadFileMissingIsNotFound(t *testing.T) {
	_, _, err := ReadFile(context.Background(), filepath.Join(t.TempDir(), "sales_data.csv"), Options{})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestReadFileWithSchemaOrderHeader(t *testing.T) {
	// Same data laid out in the schema's own column order.
	names := sales.IngestSchema.Names()
	content := strings.Join(names, ",") + "\n" +
		"CUST_000001,PROD_0009,3,20.00,65.00,2012-01-31,Dallas,TX,0.00,5.00,Debit Card\n"
	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rows, _, err := ReadFile(context.Background(), path, Options{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 65.0, *rows[0].TotalSalesAmount)
	assert.Equal(t, "TX", *rows[0].State)
	assert.Equal(t, "Debit Card", *rows[0].PaymentMethod)
}
