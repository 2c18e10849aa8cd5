package enums

import "fmt"

// ColumnType is the logical type of an ingest schema column.
type ColumnType string

const (
	ColumnTypeString  ColumnType = "string"
	ColumnTypeInteger ColumnType = "integer"
	ColumnTypeDouble  ColumnType = "double"
	ColumnTypeDate    ColumnType = "date"
)

var validColumnTypes = []ColumnType{
	ColumnTypeString,
	ColumnTypeInteger,
	ColumnTypeDouble,
	ColumnTypeDate,
}

// String implements fmt.Stringer.
func (c ColumnType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ColumnType.
func (c ColumnType) IsValid() bool {
	for _, candidate := range validColumnTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseColumnType converts raw input into a ColumnType.
func ParseColumnType(value string) (ColumnType, error) {
	for _, candidate := range validColumnTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid column type %q", value)
}
