package models

// Table is an ordered collection of transactions sharing one schema.
// Stages never mutate a table they receive; they return a new one.
type Table struct {
	Rows []Transaction
	// Source is the location the table was loaded from.
	Source string
	// DateTyped is false when at least one date could not be parsed at load time.
	DateTyped bool
	// HasFeatures is set once calendar features have been extracted.
	HasFeatures bool
	// Categorical annotates columns treated as categorical. It never changes values.
	Categorical ColumnSet
	// OutlierColumns lists the columns that carry an outlier flag.
	OutlierColumns []Column
}

// NewTable wraps rows in a table with a typed date column.
func NewTable(rows []Transaction) *Table {
	return &Table{Rows: rows, DateTyped: true}
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Clone returns a deep copy; rows hold no references, so copying the slice is enough.
func (t *Table) Clone() *Table {
	c := *t
	c.Rows = make([]Transaction, len(t.Rows))
	copy(c.Rows, t.Rows)
	c.OutlierColumns = append([]Column(nil), t.OutlierColumns...)
	return &c
}

// Derive returns an empty table carrying t's schema metadata.
func (t *Table) Derive(capacity int) *Table {
	c := *t
	c.Rows = make([]Transaction, 0, capacity)
	c.OutlierColumns = append([]Column(nil), t.OutlierColumns...)
	return &c
}

// DataColumns returns the value columns present: the schema plus features when extracted.
func (t *Table) DataColumns() []Column {
	cols := append([]Column(nil), SchemaColumns...)
	if t.HasFeatures {
		cols = append(cols, FeatureColumns...)
	}
	return cols
}

// ColumnNames lists every column name including outlier flag columns.
func (t *Table) ColumnNames() []string {
	var names []string
	for _, c := range t.DataColumns() {
		names = append(names, c.String())
	}
	for _, c := range t.OutlierColumns {
		names = append(names, OutlierColumnName(c))
	}
	return names
}

// HasColumn reports whether a value column with the given name is present.
func (t *Table) HasColumn(name string) bool {
	c, ok := ColumnByName(name)
	if !ok {
		return false
	}
	return !c.IsFeature() || t.HasFeatures
}

// OutlierColumnName is the name of the flag column added for c.
func OutlierColumnName(c Column) string { return c.String() + "_outlier" }

// MissingCounts returns the number of null cells per column, omitting zero counts.
func (t *Table) MissingCounts() map[Column]int {
	counts := make(map[Column]int)
	for i := range t.Rows {
		for _, c := range t.Rows[i].Missing.Columns() {
			counts[c]++
		}
	}
	return counts
}

// rowOverhead approximates the fixed per-row footprint: numeric fields, the
// timestamp, string headers and the two bit sets.
const rowOverhead = 4*8 + 24 + 10*16 + 4*8 + 2*4

// MemoryUsage estimates the in-memory size of the table in bytes.
func (t *Table) MemoryUsage() int64 {
	var total int64
	for i := range t.Rows {
		r := &t.Rows[i]
		total += rowOverhead
		total += int64(len(r.TransactionID) + len(r.CustomerID) + len(r.ProductID) +
			len(r.ProductName) + len(r.Category) + len(r.StoreType) + len(r.City) +
			len(r.PaymentMethod) + len(r.RawDate) + len(r.DayOfWeek))
	}
	return total
}

// MemoryUsageMB is MemoryUsage in mebibytes.
func (t *Table) MemoryUsageMB() float64 {
	return float64(t.MemoryUsage()) / (1024 * 1024)
}
