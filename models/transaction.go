package models

import (
	"strconv"
	"time"
)

// Column identifies one field of the transaction schema, including the
// calendar features derived after loading.
type Column int

const (
	ColTransactionID Column = iota
	ColCustomerID
	ColProductID
	ColProductName
	ColCategory
	ColQuantity
	ColPrice
	ColTotalAmount
	ColDiscount
	ColStoreType
	ColCity
	ColPaymentMethod
	ColDate
	ColYear
	ColMonth
	ColDay
	ColDayOfWeek
	ColQuarter
	numColumns
)

var columnNames = [numColumns]string{
	"TransactionID", "CustomerID", "ProductID", "ProductName", "Category",
	"Quantity", "Price", "TotalAmount", "Discount",
	"StoreType", "City", "PaymentMethod", "Date",
	"Year", "Month", "Day", "DayOfWeek", "Quarter",
}

// SchemaColumns are the columns every loaded table carries, in file order.
var SchemaColumns = []Column{
	ColTransactionID, ColCustomerID, ColProductID, ColProductName, ColCategory,
	ColQuantity, ColPrice, ColTotalAmount, ColDiscount,
	ColStoreType, ColCity, ColPaymentMethod, ColDate,
}

// FeatureColumns are appended by the feature extractor.
var FeatureColumns = []Column{ColYear, ColMonth, ColDay, ColDayOfWeek, ColQuarter}

func (c Column) String() string {
	if c < 0 || c >= numColumns {
		return "Column(" + strconv.Itoa(int(c)) + ")"
	}
	return columnNames[c]
}

// ColumnByName resolves a column by its exact schema name.
func ColumnByName(name string) (Column, bool) {
	for i, n := range columnNames {
		if n == name {
			return Column(i), true
		}
	}
	return 0, false
}

// ColumnKind is the semantic type of a column.
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindNumeric
	KindTimestamp
)

// Kind reports how values of the column are typed.
func (c Column) Kind() ColumnKind {
	switch c {
	case ColQuantity, ColPrice, ColTotalAmount, ColDiscount,
		ColYear, ColMonth, ColDay, ColQuarter:
		return KindNumeric
	case ColDate:
		return KindTimestamp
	default:
		return KindText
	}
}

// IsFeature reports whether the column is derived by the feature extractor.
func (c Column) IsFeature() bool { return c >= ColYear && c < numColumns }

// ColumnSet is a bit set of columns. The zero value is empty.
type ColumnSet uint32

func (s ColumnSet) Has(c Column) bool { return s&(1<<uint(c)) != 0 }
func (s ColumnSet) With(c Column) ColumnSet { return s | 1<<uint(c) }
func (s ColumnSet) Without(c Column) ColumnSet { return s &^ (1 << uint(c)) }

// Columns lists the members in schema order.
func (s ColumnSet) Columns() []Column {
	var cols []Column
	for c := Column(0); c < numColumns; c++ {
		if s.Has(c) {
			cols = append(cols, c)
		}
	}
	return cols
}

// Transaction is one retail transaction. TotalAmount is the authoritative
// post-discount amount and is never recomputed from Price and Quantity.
type Transaction struct {
	TransactionID string
	CustomerID    string
	ProductID     string
	ProductName   string
	Category      string
	Quantity      int
	Price         float64
	TotalAmount   float64
	Discount      float64
	StoreType     string
	City          string
	PaymentMethod string
	Date          time.Time
	// RawDate keeps the source text when the date column could not be typed at load.
	RawDate string

	Year      int
	Month     int
	Day       int
	DayOfWeek string
	Quarter   int

	// Missing marks null cells; the field value is meaningless when set.
	Missing ColumnSet
	// Outliers marks the IQR outlier flag per numeric column.
	Outliers ColumnSet
}

// IsMissing reports whether column c is null for this record.
func (t *Transaction) IsMissing(c Column) bool { return t.Missing.Has(c) }

// Number returns the value of a numeric column. ok is false for null cells
// and non-numeric columns.
func (t *Transaction) Number(c Column) (float64, bool) {
	if t.Missing.Has(c) {
		return 0, false
	}
	switch c {
	case ColQuantity:
		return float64(t.Quantity), true
	case ColPrice:
		return t.Price, true
	case ColTotalAmount:
		return t.TotalAmount, true
	case ColDiscount:
		return t.Discount, true
	case ColYear:
		return float64(t.Year), true
	case ColMonth:
		return float64(t.Month), true
	case ColDay:
		return float64(t.Day), true
	case ColQuarter:
		return float64(t.Quarter), true
	}
	return 0, false
}

// SetNumber assigns a numeric column and clears its null mark. Integer
// columns are rounded half away from zero.
func (t *Transaction) SetNumber(c Column, v float64) {
	switch c {
	case ColQuantity:
		t.Quantity = RoundHalfAway(v)
	case ColPrice:
		t.Price = v
	case ColTotalAmount:
		t.TotalAmount = v
	case ColDiscount:
		t.Discount = v
	case ColYear:
		t.Year = RoundHalfAway(v)
	case ColMonth:
		t.Month = RoundHalfAway(v)
	case ColDay:
		t.Day = RoundHalfAway(v)
	case ColQuarter:
		t.Quarter = RoundHalfAway(v)
	default:
		return
	}
	t.Missing = t.Missing.Without(c)
}

// Text renders any column as text. Null cells render as "".
func (t *Transaction) Text(c Column) string {
	if t.Missing.Has(c) {
		return ""
	}
	switch c {
	case ColTransactionID:
		return t.TransactionID
	case ColCustomerID:
		return t.CustomerID
	case ColProductID:
		return t.ProductID
	case ColProductName:
		return t.ProductName
	case ColCategory:
		return t.Category
	case ColStoreType:
		return t.StoreType
	case ColCity:
		return t.City
	case ColPaymentMethod:
		return t.PaymentMethod
	case ColDayOfWeek:
		return t.DayOfWeek
	case ColDate:
		if t.Date.IsZero() {
			return t.RawDate
		}
		return t.Date.Format(time.RFC3339Nano)
	case ColQuantity, ColYear, ColMonth, ColDay, ColQuarter:
		v, _ := t.Number(c)
		return strconv.Itoa(int(v))
	default:
		v, _ := t.Number(c)
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
}

// SetText assigns a text column and clears its null mark.
func (t *Transaction) SetText(c Column, v string) {
	switch c {
	case ColTransactionID:
		t.TransactionID = v
	case ColCustomerID:
		t.CustomerID = v
	case ColProductID:
		t.ProductID = v
	case ColProductName:
		t.ProductName = v
	case ColCategory:
		t.Category = v
	case ColStoreType:
		t.StoreType = v
	case ColCity:
		t.City = v
	case ColPaymentMethod:
		t.PaymentMethod = v
	case ColDayOfWeek:
		t.DayOfWeek = v
	default:
		return
	}
	t.Missing = t.Missing.Without(c)
}

// CopyColumn copies column c, null mark included, from src.
func (t *Transaction) CopyColumn(src *Transaction, c Column) {
	switch c {
	case ColDate:
		t.Date, t.RawDate = src.Date, src.RawDate
	case ColQuantity, ColPrice, ColTotalAmount, ColDiscount, ColYear, ColMonth, ColDay, ColQuarter:
		v, _ := src.Number(c)
		t.SetNumber(c, v)
	default:
		t.SetText(c, src.Text(c))
	}
	if src.Missing.Has(c) {
		t.Missing = t.Missing.With(c)
	} else {
		t.Missing = t.Missing.Without(c)
	}
}

// RoundHalfAway rounds v to the nearest integer, halves away from zero.
func RoundHalfAway(v float64) int {
	if v < 0 {
		return int(v - 0.5)
	}
	return int(v + 0.5)
}
