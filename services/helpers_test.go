package services

import (
	"time"

	"retail-analytics/models"
	"retail-analytics/utils"
)

func newTestLogger() *utils.Logger { return utils.NewNopLogger() }

// txn builds a fully populated transaction; tests override fields as needed.
func txn(id, customer string, amount, discount float64, date string) models.Transaction {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return models.Transaction{
		TransactionID: id,
		CustomerID:    customer,
		ProductID:     "P-" + id,
		ProductName:   "Product " + id,
		Category:      "General",
		Quantity:      1,
		Price:         amount,
		TotalAmount:   amount,
		Discount:      discount,
		StoreType:     "Mall",
		City:          "Austin",
		PaymentMethod: "Card",
		Date:          d,
	}
}

func withProduct(r models.Transaction, id, name, category string) models.Transaction {
	r.ProductID, r.ProductName, r.Category = id, name, category
	return r
}

func withMissing(r models.Transaction, cols ...models.Column) models.Transaction {
	for _, c := range cols {
		r.Missing = r.Missing.With(c)
	}
	return r
}

// featured runs feature extraction over rows.
func featured(rows ...models.Transaction) *models.Table {
	t, _, err := NewFeatureExtractor(newTestLogger()).Extract(models.NewTable(rows), "Date")
	if err != nil {
		panic(err)
	}
	return t
}

// threeTransactions is the worked example: A spends 100 and 50 (20% off),
// B spends 200.
func threeTransactions() *models.Table {
	return featured(
		txn("T1", "A", 100, 0, "2023-01-02"),
		txn("T2", "A", 50, 20, "2023-01-03"),
		txn("T3", "B", 200, 0, "2023-02-06"),
	)
}
