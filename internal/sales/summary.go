package sales

import (
	"sort"
	"strconv"
)

// Summary column names, in output order.
const (
	SummaryState          = "state"
	SummaryTotalSales     = "total_sales"
	SummaryNumberOfOrders = "number_of_orders"
	SummaryAvgOrderValue  = "avg_order_value"
)

var summaryHeader = []string{SummaryState, SummaryTotalSales, SummaryNumberOfOrders, SummaryAvgOrderValue}

// SummaryHeader returns the header of a state sales part-file.
func SummaryHeader() []string {
	out := make([]string, len(summaryHeader))
	copy(out, summaryHeader)
	return out
}

// StateAggregate is the raw, unrounded per-state aggregate produced by an
// engine. Sum and Avg are nil when every total in the group is NULL.
type StateAggregate struct {
	State *string
	Sum   *float64
	Count int64
	Avg   *float64
}

// StateSalesSummary is one output row of the state sales analysis.
type StateSalesSummary struct {
	State          *string
	TotalSales     *float64
	NumberOfOrders int64
	AvgOrderValue  *float64
}

// Summarize rounds each aggregate to two decimals and orders the result by
// total sales descending. NULL totals sort last; ties sort by state with the
// NULL state last.
func Summarize(aggs []StateAggregate) []StateSalesSummary {
	out := make([]StateSalesSummary, 0, len(aggs))
	for _, a := range aggs {
		out = append(out, StateSalesSummary{
			State:          a.State,
			TotalSales:     round2Ptr(a.Sum),
			NumberOfOrders: a.Count,
			AvgOrderValue:  round2Ptr(a.Avg),
		})
	}
	SortSummaries(out)
	return out
}

// SortSummaries orders rows in place the way Summarize does.
func SortSummaries(rows []StateSalesSummary) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if c := compareDesc(a.TotalSales, b.TotalSales); c != 0 {
			return c < 0
		}
		return lessState(a.State, b.State)
	})
}

// compareDesc orders non-nil values descending and nil last.
func compareDesc(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case *a > *b:
		return -1
	case *a < *b:
		return 1
	default:
		return 0
	}
}

func lessState(a, b *string) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return *a < *b
	}
}

// CSV renders the summary in SummaryHeader order. NULL renders as an empty
// field.
func (s StateSalesSummary) CSV() []string {
	state := ""
	if s.State != nil {
		state = *s.State
	}
	return []string{
		state,
		formatAmountPtr(s.TotalSales),
		strconv.FormatInt(s.NumberOfOrders, 10),
		formatAmountPtr(s.AvgOrderValue),
	}
}

func round2Ptr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := Round2(*v)
	return &r
}

func formatAmountPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return FormatAmount(*v)
}
