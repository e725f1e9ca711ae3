package state

import (
	"errors"
	"strings"
	"time"
)

// Field names the order form slots. The set is closed.
type Field string

const (
	FieldQuantityKg    Field = "quantity_kg"
	FieldDeliveryDay   Field = "delivery_day"
	FieldAddress       Field = "address"
	FieldDistrict      Field = "district"
	FieldPaymentMethod Field = "payment_method"
	FieldConfirmed     Field = "confirmed"
)

var dataFields = []Field{
	FieldQuantityKg,
	FieldDeliveryDay,
	FieldAddress,
	FieldDistrict,
	FieldPaymentMethod,
}

// DataFields returns the five order data fields in form order.
func DataFields() []Field {
	return append([]Field(nil), dataFields...)
}

// AllFields returns the data fields followed by confirmed.
func AllFields() []Field {
	return append(DataFields(), FieldConfirmed)
}

func ParseField(raw string) (Field, bool) {
	f := Field(strings.ToLower(strings.TrimSpace(raw)))
	switch f {
	case FieldQuantityKg, FieldDeliveryDay, FieldAddress, FieldDistrict, FieldPaymentMethod, FieldConfirmed:
		return f, true
	default:
		return "", false
	}
}

var (
	ErrNilForm         = errors.New("order form is nil")
	ErrInvalidCustomer = errors.New("customer id is empty")
)

// OrderForm is the per-customer partially filled order. Nil means unknown.
type OrderForm struct {
	CustomerID    string   `json:"customer_id"`
	QuantityKg    *float64 `json:"quantity_kg"`
	DeliveryDay   *string  `json:"delivery_day"`
	Address       *string  `json:"address"`
	District      *string  `json:"district"`
	PaymentMethod *string  `json:"payment_method"`
	Confirmed     bool     `json:"confirmed"`

	UpdatedAt time.Time `json:"updated_at"`
}

// FormUpdate carries one turn of field values. Nil leaves the form untouched.
type FormUpdate struct {
	QuantityKg    *float64 `json:"quantity_kg"`
	DeliveryDay   *string  `json:"delivery_day"`
	Address       *string  `json:"address"`
	District      *string  `json:"district"`
	PaymentMethod *string  `json:"payment_method"`
	Confirmed     bool     `json:"confirmed"`
}

func NewOrderForm(customerID string, now time.Time) *OrderForm {
	return &OrderForm{
		CustomerID: customerID,
		UpdatedAt:  now.UTC(),
	}
}

func (f *OrderForm) Touch(now time.Time) {
	f.UpdatedAt = now.UTC()
}

// Merge applies non-nil values from u and copies u.Confirmed. It returns the
// data fields whose value changed.
func (f *OrderForm) Merge(u FormUpdate) []Field {
	var changed []Field

	if u.QuantityKg != nil {
		if f.QuantityKg == nil || *f.QuantityKg != *u.QuantityKg {
			changed = append(changed, FieldQuantityKg)
		}
		f.QuantityKg = Float(*u.QuantityKg)
	}
	changed = mergeText(&f.DeliveryDay, u.DeliveryDay, FieldDeliveryDay, changed)
	changed = mergeText(&f.Address, u.Address, FieldAddress, changed)
	changed = mergeText(&f.District, u.District, FieldDistrict, changed)
	changed = mergeText(&f.PaymentMethod, u.PaymentMethod, FieldPaymentMethod, changed)

	f.Confirmed = u.Confirmed
	return changed
}

func mergeText(dst **string, src *string, field Field, changed []Field) []Field {
	if src == nil {
		return changed
	}
	if *dst == nil || **dst != *src {
		changed = append(changed, field)
	}
	*dst = String(*src)
	return changed
}

// Unfilled lists the data fields that are still nil.
func (f *OrderForm) Unfilled() []Field {
	var out []Field
	if f.QuantityKg == nil {
		out = append(out, FieldQuantityKg)
	}
	if f.DeliveryDay == nil {
		out = append(out, FieldDeliveryDay)
	}
	if f.Address == nil {
		out = append(out, FieldAddress)
	}
	if f.District == nil {
		out = append(out, FieldDistrict)
	}
	if f.PaymentMethod == nil {
		out = append(out, FieldPaymentMethod)
	}
	return out
}

func (f *OrderForm) Clone() *OrderForm {
	if f == nil {
		return nil
	}
	out := *f
	if f.QuantityKg != nil {
		out.QuantityKg = Float(*f.QuantityKg)
	}
	if f.DeliveryDay != nil {
		out.DeliveryDay = String(*f.DeliveryDay)
	}
	if f.Address != nil {
		out.Address = String(*f.Address)
	}
	if f.District != nil {
		out.District = String(*f.District)
	}
	if f.PaymentMethod != nil {
		out.PaymentMethod = String(*f.PaymentMethod)
	}
	return &out
}

// Validate checks identity only. Field values are trusted as extracted.
func (f *OrderForm) Validate() error {
	if f == nil {
		return ErrNilForm
	}
	if strings.TrimSpace(f.CustomerID) == "" {
		return ErrInvalidCustomer
	}
	return nil
}

// UpdateFromForm builds an update that reproduces the form's current values.
func UpdateFromForm(f OrderForm) FormUpdate {
	c := f.Clone()
	return FormUpdate{
		QuantityKg:    c.QuantityKg,
		DeliveryDay:   c.DeliveryDay,
		Address:       c.Address,
		District:      c.District,
		PaymentMethod: c.PaymentMethod,
		Confirmed:     c.Confirmed,
	}
}

func Float(v float64) *float64 { return &v }

func String(v string) *string { return &v }
