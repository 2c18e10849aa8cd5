package sales

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/sales-analytics/pkg/enums"
)

// Column is a named, typed and nullable field of the ingest schema.
type Column struct {
	Name     string
	Type     enums.ColumnType
	Nullable bool
}

// Schema is the ordered list of columns the analyzer reads.
type Schema []Column

// IngestSchema is the explicit schema used to read sales files. Its order
// differs from the generator's RecordHeader; columns are bound by name.
var IngestSchema = Schema{
	{Name: ColumnCustomerID, Type: enums.ColumnTypeString, Nullable: true},
	{Name: ColumnProductID, Type: enums.ColumnTypeString, Nullable: true},
	{Name: ColumnQuantity, Type: enums.ColumnTypeInteger, Nullable: true},
	{Name: ColumnPricePerUnit, Type: enums.ColumnTypeDouble, Nullable: true},
	{Name: ColumnTotalSalesAmount, Type: enums.ColumnTypeDouble, Nullable: true},
	{Name: ColumnSalesDate, Type: enums.ColumnTypeDate, Nullable: true},
	{Name: ColumnCity, Type: enums.ColumnTypeString, Nullable: true},
	{Name: ColumnState, Type: enums.ColumnTypeString, Nullable: true},
	{Name: ColumnDiscount, Type: enums.ColumnTypeDouble, Nullable: true},
	{Name: ColumnShippingCost, Type: enums.ColumnTypeDouble, Nullable: true},
	{Name: ColumnPaymentMethod, Type: enums.ColumnTypeString, Nullable: true},
}

// Names returns the column names in schema order.
func (s Schema) Names() []string {
	out := make([]string, len(s))
	for i, c := range s {
		out[i] = c.Name
	}
	return out
}

// Index returns the position of the named column, or -1.
func (s Schema) Index(name string) int {
	for i, c := range s {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Tree renders the schema as an indented tree for diagnostics.
func (s Schema) Tree() string {
	var b strings.Builder
	b.WriteString("root\n")
	for _, c := range s {
		fmt.Fprintf(&b, " |-- %s: %s (nullable = %t)\n", c.Name, c.Type, c.Nullable)
	}
	return b.String()
}
