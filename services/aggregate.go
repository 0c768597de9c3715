package services

import (
	"sort"

	"retail-analytics/models"
)

// groupAcc accumulates the per-group sums every rollup draws from. Null
// cells are skipped, so each mean divides by its own non-null count.
type groupAcc struct {
	rows         int
	transactions int

	revenue float64
	amountN int

	quantity  int
	quantityN int

	priceSum float64
	priceN   int

	discountSum float64
	discountN   int

	customers map[string]struct{}
	products  map[string]struct{}
}

func newGroupAcc() *groupAcc {
	return &groupAcc{
		customers: make(map[string]struct{}),
		products:  make(map[string]struct{}),
	}
}

func (g *groupAcc) add(r *models.Transaction) {
	g.rows++
	if !r.IsMissing(models.ColTransactionID) {
		g.transactions++
	}
	if !r.IsMissing(models.ColTotalAmount) {
		g.revenue += r.TotalAmount
		g.amountN++
	}
	if !r.IsMissing(models.ColQuantity) {
		g.quantity += r.Quantity
		g.quantityN++
	}
	if !r.IsMissing(models.ColPrice) {
		g.priceSum += r.Price
		g.priceN++
	}
	if !r.IsMissing(models.ColDiscount) {
		g.discountSum += r.Discount
		g.discountN++
	}
	if !r.IsMissing(models.ColCustomerID) {
		g.customers[r.CustomerID] = struct{}{}
	}
	if !r.IsMissing(models.ColProductID) {
		g.products[r.ProductID] = struct{}{}
	}
}

func (g *groupAcc) avgAmount() float64   { return ratio(g.revenue, float64(g.amountN)) }
func (g *groupAcc) avgQuantity() float64 { return ratio(float64(g.quantity), float64(g.quantityN)) }
func (g *groupAcc) avgPrice() float64    { return ratio(g.priceSum, float64(g.priceN)) }
func (g *groupAcc) avgDiscount() float64 { return ratio(g.discountSum, float64(g.discountN)) }

// grouped holds accumulators in first-seen key order.
type grouped[K comparable] struct {
	keys []K
	accs map[K]*groupAcc
}

// groupRows folds rows into one accumulator per key. Rows for which key
// reports false are left out, as a null grouping key is.
func groupRows[K comparable](rows []models.Transaction, key func(*models.Transaction) (K, bool)) *grouped[K] {
	g := &grouped[K]{accs: make(map[K]*groupAcc)}
	for i := range rows {
		r := &rows[i]
		k, ok := key(r)
		if !ok {
			continue
		}
		acc, seen := g.accs[k]
		if !seen {
			acc = newGroupAcc()
			g.accs[k] = acc
			g.keys = append(g.keys, k)
		}
		acc.add(r)
	}
	return g
}

// byRevenue returns the keys ordered by descending revenue, first-seen order
// breaking ties.
func (g *grouped[K]) byRevenue() []K {
	keys := append([]K(nil), g.keys...)
	sort.SliceStable(keys, func(i, j int) bool {
		return g.accs[keys[i]].revenue > g.accs[keys[j]].revenue
	})
	return keys
}

func textKey(c models.Column) func(*models.Transaction) (string, bool) {
	return func(r *models.Transaction) (string, bool) {
		if r.IsMissing(c) {
			return "", false
		}
		return r.Text(c), true
	}
}

// productKey identifies a product. Category is only set when it is part of
// the grouping.
type productKey struct {
	ID       string
	Name     string
	Category string
}

func productIDName(r *models.Transaction) (productKey, bool) {
	if r.IsMissing(models.ColProductID) || r.IsMissing(models.ColProductName) {
		return productKey{}, false
	}
	return productKey{ID: r.ProductID, Name: r.ProductName}, true
}

func productNameCategory(r *models.Transaction) (productKey, bool) {
	if r.IsMissing(models.ColProductName) || r.IsMissing(models.ColCategory) {
		return productKey{}, false
	}
	return productKey{Name: r.ProductName, Category: r.Category}, true
}

// totalRevenue sums the non-null TotalAmount of rows.
func totalRevenue(rows []models.Transaction) float64 {
	var total float64
	for i := range rows {
		if !rows[i].IsMissing(models.ColTotalAmount) {
			total += rows[i].TotalAmount
		}
	}
	return total
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func percentOf(part, whole float64) float64 {
	return ratio(part, whole) * 100
}

func topN[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func validateTopN(n int) error {
	if n < 1 {
		return &models.ValidationError{Field: "top_n", Message: "must be at least 1"}
	}
	return nil
}
