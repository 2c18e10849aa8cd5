package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/angelmondragon/sales-analytics/internal/sales"
	"github.com/angelmondragon/sales-analytics/pkg/db"
	"gorm.io/gorm"
)

const defaultBatchSize = 500

var errSessionClosed = errors.New("session closed")

// salesRecord is the row layout of the sales_records table.
type salesRecord struct {
	SessionID        string     `gorm:"column:session_id"`
	CustomerID       *string    `gorm:"column:customer_id"`
	ProductID        *string    `gorm:"column:product_id"`
	Quantity         *int64     `gorm:"column:quantity"`
	PricePerUnit     *float64   `gorm:"column:price_per_unit"`
	TotalSalesAmount *float64   `gorm:"column:total_sales_amount"`
	SalesDate        *time.Time `gorm:"column:sales_date;type:date"`
	City             *string    `gorm:"column:city"`
	State            *string    `gorm:"column:state"`
	Discount         *float64   `gorm:"column:discount"`
	ShippingCost     *float64   `gorm:"column:shipping_cost"`
	PaymentMethod    *string    `gorm:"column:payment_method"`
}

func (salesRecord) TableName() string { return salesTable }

type stateAggregateRow struct {
	State          *string
	TotalSales     *float64
	NumberOfOrders int64
	AvgOrderValue  *float64
}

const stateSalesSQL = `SELECT state,
	SUM(total_sales_amount) AS total_sales,
	COUNT(*) AS number_of_orders,
	AVG(total_sales_amount) AS avg_order_value
FROM sales_records
WHERE session_id = ?
GROUP BY state`

// sqlSession implements Load and StateSales over a GORM connection; rows are
// tagged with the session id so several sessions can share a table.
type sqlSession struct {
	id        string
	client    *db.Client
	batchSize int

	mu     sync.Mutex
	closed bool
}

func newSQLSession(id string, client *db.Client, batchSize int) *sqlSession {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &sqlSession{id: id, client: client, batchSize: batchSize}
}

func (s *sqlSession) ID() string { return s.id }

func (s *sqlSession) Load(ctx context.Context, rows []sales.Row) error {
	if s.isClosed() {
		return engineError(errSessionClosed, "load rows")
	}
	if len(rows) == 0 {
		return nil
	}
	if err := checkRows(rows); err != nil {
		return err
	}
	records := make([]salesRecord, len(rows))
	for i, r := range rows {
		records[i] = toRecord(s.id, r)
	}
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.CreateInBatches(&records, s.batchSize).Error
	})
	if err != nil {
		return engineError(err, "load %d rows", len(rows))
	}
	return nil
}

func (s *sqlSession) StateSales(ctx context.Context) ([]sales.StateSalesSummary, error) {
	if s.isClosed() {
		return nil, engineError(errSessionClosed, "aggregate state sales")
	}
	var rows []stateAggregateRow
	if err := s.client.Raw(ctx, stateSalesSQL, s.id).Scan(&rows).Error; err != nil {
		return nil, engineError(err, "aggregate state sales")
	}
	aggs := make([]sales.StateAggregate, len(rows))
	for i, r := range rows {
		aggs[i] = sales.StateAggregate{State: r.State, Sum: r.TotalSales, Count: r.NumberOfOrders, Avg: r.AvgOrderValue}
	}
	return sales.Summarize(aggs), nil
}

// markClosed reports whether this call is the one that closed the session.
func (s *sqlSession) markClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.closed = true
	return true
}

func (s *sqlSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func toRecord(sessionID string, r sales.Row) salesRecord {
	return salesRecord{
		SessionID:        sessionID,
		CustomerID:       r.CustomerID,
		ProductID:        r.ProductID,
		Quantity:         r.Quantity,
		PricePerUnit:     r.PricePerUnit,
		TotalSalesAmount: r.TotalSalesAmount,
		SalesDate:        dateToTime(r.SalesDate),
		City:             r.City,
		State:            r.State,
		Discount:         r.Discount,
		ShippingCost:     r.ShippingCost,
		PaymentMethod:    r.PaymentMethod,
	}
}

func dateToTime(d *civil.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.In(time.UTC)
	return &t
}
