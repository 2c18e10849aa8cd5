package engine

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"sync"

	cbigquery "cloud.google.com/go/bigquery"
	"github.com/angelmondragon/sales-analytics/internal/sales"
	"github.com/angelmondragon/sales-analytics/pkg/bigquery"
	"github.com/angelmondragon/sales-analytics/pkg/config"
	"github.com/angelmondragon/sales-analytics/pkg/enums"
	"github.com/angelmondragon/sales-analytics/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"google.golang.org/api/iterator"
)

// BigQuery stages each session's rows in its own table of the configured
// dataset.
type BigQuery struct {
	gcp  config.GCPConfig
	cfg  config.BigQueryConfig
	logg *logger.Logger
}

func (e *BigQuery) Kind() string { return config.EngineBigQuery }

func (e *BigQuery) Open(ctx context.Context) (Session, error) {
	client, err := bigquery.NewClient(ctx, e.gcp, e.cfg, e.logg)
	if err != nil {
		return nil, engineError(err, "open bigquery session")
	}
	id := uuid.NewString()
	return &bigQuerySession{
		id:     id,
		client: client,
		table:  stagingTable(id),
		logg:   e.logg,
	}, nil
}

func stagingTable(sessionID string) string {
	return "sales_records_" + strings.ReplaceAll(sessionID, "-", "")
}

// BigQuerySchema maps an ingest schema onto BigQuery column types.
func BigQuerySchema(schema sales.Schema) cbigquery.Schema {
	out := make(cbigquery.Schema, 0, len(schema))
	for _, col := range schema {
		out = append(out, &cbigquery.FieldSchema{
			Name:     col.Name,
			Type:     bigQueryType(col.Type),
			Required: !col.Nullable,
		})
	}
	return out
}

func bigQueryType(t enums.ColumnType) cbigquery.FieldType {
	switch t {
	case enums.ColumnTypeInteger:
		return cbigquery.IntegerFieldType
	case enums.ColumnTypeDouble:
		return cbigquery.FloatFieldType
	case enums.ColumnTypeDate:
		return cbigquery.DateFieldType
	default:
		return cbigquery.StringFieldType
	}
}

type bigQuerySession struct {
	id     string
	client *bigquery.Client
	table  string
	logg   *logger.Logger

	mu     sync.Mutex
	loaded bool
	closed bool
}

func (s *bigQuerySession) ID() string { return s.id }

// Load streams rows as CSV into the staging table.
func (s *bigQuerySession) Load(ctx context.Context, rows []sales.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return engineError(errSessionClosed, "load rows")
	}
	if len(rows) == 0 {
		return nil
	}
	if err := checkRows(rows); err != nil {
		return err
	}

	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(writeRowsCSV(pw, rows))
	}()
	if err := s.client.LoadCSV(ctx, s.table, BigQuerySchema(sales.IngestSchema), pr); err != nil {
		_ = pr.CloseWithError(err)
		return engineError(err, "load %d rows into %s", len(rows), s.table)
	}
	s.loaded = true
	return nil
}

func writeRowsCSV(w io.Writer, rows []sales.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(sales.IngestSchema.Names()); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.CSV()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type bigQueryStateRow struct {
	State          cbigquery.NullString  `bigquery:"state"`
	TotalSales     cbigquery.NullFloat64 `bigquery:"total_sales"`
	NumberOfOrders int64                 `bigquery:"number_of_orders"`
	AvgOrderValue  cbigquery.NullFloat64 `bigquery:"avg_order_value"`
}

func (s *bigQuerySession) StateSales(ctx context.Context) ([]sales.StateSalesSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, engineError(errSessionClosed, "aggregate state sales")
	}
	if !s.loaded {
		return []sales.StateSalesSummary{}, nil
	}

	query := fmt.Sprintf(`SELECT state,
	SUM(total_sales_amount) AS total_sales,
	COUNT(*) AS number_of_orders,
	AVG(total_sales_amount) AS avg_order_value
FROM %s
GROUP BY state`, s.client.TableRef(s.table))

	it, err := s.client.Query(ctx, query, nil)
	if err != nil {
		return nil, engineError(err, "aggregate state sales")
	}
	var aggs []sales.StateAggregate
	for {
		var row bigQueryStateRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, engineError(err, "read state sales")
		}
		aggs = append(aggs, sales.StateAggregate{
			State: nullString(row.State),
			Sum:   nullFloat(row.TotalSales),
			Count: row.NumberOfOrders,
			Avg:   nullFloat(row.AvgOrderValue),
		})
	}
	return sales.Summarize(aggs), nil
}

// Close drops the staging table and releases the client.
func (s *bigQuerySession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()
	err := multierr.Append(s.client.DeleteTable(ctx, s.table), s.client.Close())
	if err != nil {
		return engineError(err, "close bigquery session")
	}
	return nil
}

func nullString(v cbigquery.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.StringVal
	return &s
}

func nullFloat(v cbigquery.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

