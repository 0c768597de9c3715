package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"retail-analytics/models"
)

const csvHeader = "TransactionID,CustomerID,ProductID,ProductName,Category,Quantity,Price,TotalAmount,Discount,StoreType,City,PaymentMethod,Date\n"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestCSVSourceLoad(t *testing.T) {
	path := writeFile(t, "tx.csv", csvHeader+
		"T1,C1,P1,Widget,Tools,2,50.00,100.00,0,Mall,Austin,Card,2023-01-15\n"+
		"T2,C1,P2,Gadget,Toys,1,62.50,50.00,20,Online,Austin,Cash,2023-02-01\n")

	table, err := NewCSVSource(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("rows: got %d, want 2", table.Len())
	}
	if !table.DateTyped {
		t.Error("DateTyped: got false, want true")
	}

	r := table.Rows[1]
	if r.TransactionID != "T2" || r.Quantity != 1 || r.Price != 62.5 || r.TotalAmount != 50 || r.Discount != 20 {
		t.Errorf("row 2 coerced wrongly: %+v", r)
	}
	want := time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)
	if !r.Date.Equal(want) {
		t.Errorf("date: got %v, want %v", r.Date, want)
	}
	if r.Missing != 0 {
		t.Errorf("unexpected nulls: %v", r.Missing.Columns())
	}
}

func TestCSVSourceHeaderOrderAndBOM(t *testing.T) {
	path := writeFile(t, "tx.csv", "\uFEFFDate,City,TransactionID,CustomerID,ProductID,ProductName,Category,Quantity,Price,TotalAmount,Discount,StoreType,PaymentMethod,Extra\n"+
		"2023-03-04,Boston,T9,C2,P3,Lamp,Home,3,10,30,0,Mall,Card,ignored\n")

	table, err := NewCSVSource(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	r := table.Rows[0]
	if r.City != "Boston" || r.TransactionID != "T9" || r.Quantity != 3 {
		t.Errorf("columns matched by position instead of name: %+v", r)
	}
}

func TestCSVSourceNullTokens(t *testing.T) {
	path := writeFile(t, "tx.csv", csvHeader+
		"T1,C1,P1,Widget,NA,,50,100,0,Mall,N/A,Card,2023-01-15\n"+
		"T2,C2,P2,Gadget,Toys,1,NaN,50,20,Online,Austin,null,\n")

	table, err := NewCSVSource(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		row int
		col models.Column
	}{
		{0, models.ColCategory},
		{0, models.ColQuantity},
		{0, models.ColCity},
		{1, models.ColPrice},
		{1, models.ColPaymentMethod},
		{1, models.ColDate},
	}
	for _, tt := range tests {
		if !table.Rows[tt.row].IsMissing(tt.col) {
			t.Errorf("row %d %s: want null", tt.row, tt.col)
		}
	}
	if !table.DateTyped {
		t.Error("a null date must not make the column untyped")
	}
}

func TestCSVSourceUnparseableDateKeepsRawText(t *testing.T) {
	path := writeFile(t, "tx.csv", csvHeader+
		"T1,C1,P1,Widget,Tools,2,50,100,0,Mall,Austin,Card,2023-01-15\n"+
		"T2,C2,P2,Gadget,Toys,1,62.5,50,20,Online,Austin,Cash,someday\n")

	table, err := NewCSVSource(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if table.DateTyped {
		t.Fatal("DateTyped: got true, want false")
	}
	if got := table.Rows[0].RawDate; got != "2023-01-15" {
		t.Errorf("RawDate: got %q", got)
	}
	if !table.Rows[0].Date.IsZero() {
		t.Error("parsed dates must be discarded when the column is untyped")
	}
	if got := table.Rows[1].RawDate; got != "someday" {
		t.Errorf("RawDate: got %q", got)
	}
}

func TestCSVSourceTSV(t *testing.T) {
	path := writeFile(t, "tx.tsv",
		"TransactionID\tCustomerID\tProductID\tProductName\tCategory\tQuantity\tPrice\tTotalAmount\tDiscount\tStoreType\tCity\tPaymentMethod\tDate\n"+
			"T1\tC1\tP1\tWidget, large\tTools\t2\t50\t100\t0\tMall\tAustin\tCard\t2023-01-15\n")

	table, err := NewCSVSource(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := table.Rows[0].ProductName; got != "Widget, large" {
		t.Errorf("ProductName: got %q", got)
	}
}

func TestCSVSourceErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		line    int
		column  string
	}{
		{"bad number", csvHeader + "T1,C1,P1,Widget,Tools,two,50,100,0,Mall,Austin,Card,2023-01-15\n", 2, "Quantity"},
		{"fractional quantity", csvHeader + "T1,C1,P1,Widget,Tools,1.5,50,100,0,Mall,Austin,Card,2023-01-15\n", 2, "Quantity"},
		{"short row", csvHeader + "T1,C1,P1\n", 2, ""},
		{"missing column", "TransactionID,CustomerID\nT1,C1\n", 1, ""},
		{"empty file", "", 1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "tx.csv", tt.content)
			table, err := NewCSVSource(path).Load(context.Background())
			if table != nil {
				t.Error("no partial table may be returned on error")
			}
			var pe *models.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("got %v, want *models.ParseError", err)
			}
			if pe.Line != tt.line {
				t.Errorf("line: got %d, want %d", pe.Line, tt.line)
			}
			if pe.Column != tt.column {
				t.Errorf("column: got %q, want %q", pe.Column, tt.column)
			}
		})
	}
}

func TestCSVSourceNotFound(t *testing.T) {
	_, err := NewCSVSource(filepath.Join(t.TempDir(), "nope.csv")).Load(context.Background())
	var nf *models.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("got %v, want *models.NotFoundError", err)
	}
}

func TestParseDateLayouts(t *testing.T) {
	want := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2024-03-09", "2024-03-09 00:00:00", "2024-03-09T00:00:00Z", "03/09/2024", "2024/03/09"} {
		got, ok := ParseDate(in)
		if !ok || !got.Equal(want) {
			t.Errorf("ParseDate(%q) = %v, %v", in, got, ok)
		}
	}
	for _, in := range []string{"", "someday", "2024-13-45"} {
		if _, ok := ParseDate(in); ok {
			t.Errorf("ParseDate(%q) parsed, want failure", in)
		}
	}
}

func TestParseDateFreeForm(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"Jan 2, 2023", time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"2023-01-02 15:04", time.Date(2023, 1, 2, 15, 4, 0, 0, time.UTC)},
		{"March 9, 2024", time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)},
		{"3/9/2024", time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, ok := ParseDate(tt.in)
		if !ok || !got.Equal(tt.want) {
			t.Errorf("ParseDate(%q) = %v, %v; want %v", tt.in, got, ok, tt.want)
		}
	}
}

func TestSummarize(t *testing.T) {
	path := writeFile(t, "tx.csv", csvHeader+
		"T1,C1,P1,Widget,Tools,2,50.00,100.00,0,Mall,Austin,Card,2023-01-15\n")

	table, err := NewCSVSource(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	s := Summarize(table)
	if s.Rows != 1 || s.Columns != 13 || s.Source != path || !s.DateTyped {
		t.Errorf("summary: got %+v", s)
	}
	if s.MemoryUsageMB <= 0 {
		t.Errorf("memory: got %v, want > 0", s.MemoryUsageMB)
	}
}
