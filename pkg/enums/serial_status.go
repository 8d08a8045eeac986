package enums

// SerialStatus tracks whether a serialized unit is available for sale.
type SerialStatus string

const (
	SerialStatusInStock SerialStatus = "in_stock"
	SerialStatusSold    SerialStatus = "sold"
)

// String implements fmt.Stringer.
func (s SerialStatus) String() string {
	return string(s)
}
