package models

import "time"

// NumericSummary describes one numeric column. StdDev is the sample standard
// deviation and is 0 when fewer than two values exist.
type NumericSummary struct {
	Column string
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Q25    float64
	Median float64
	Q75    float64
	Max    float64
}

// ValueCount is one entry of a frequency table.
type ValueCount struct {
	Value      string
	Count      int
	Percentage float64
}

// CategoricalSummary describes one non-numeric column.
type CategoricalSummary struct {
	Column     string
	Count      int
	Unique     int
	MostCommon string
	TopValues  []ValueCount
}

// DatasetOverview holds table-level figures.
type DatasetOverview struct {
	TotalRows          int
	TotalColumns       int
	NumericColumns     int
	CategoricalColumns int
	MemoryUsageMB      float64
}

// DescriptiveStats is the result of the descriptive statistics battery.
type DescriptiveStats struct {
	Numeric     []NumericSummary
	Categorical []CategoricalSummary
	Overview    DatasetOverview
}

// NumericColumn looks up the summary of a numeric column by name.
func (d *DescriptiveStats) NumericColumn(name string) (NumericSummary, bool) {
	for _, s := range d.Numeric {
		if s.Column == name {
			return s, true
		}
	}
	return NumericSummary{}, false
}

// CategoricalColumn looks up the summary of a categorical column by name.
func (d *DescriptiveStats) CategoricalColumn(name string) (CategoricalSummary, bool) {
	for _, s := range d.Categorical {
		if s.Column == name {
			return s, true
		}
	}
	return CategoricalSummary{}, false
}

// ProductMetrics is one row of the top products ranking.
type ProductMetrics struct {
	Rank              int
	ProductID         string
	ProductName       string
	TotalQuantity     int
	TotalRevenue      float64
	TransactionCount  int
	AvgPrice          float64
	RevenuePercentage float64
}

// CityMetrics is one row of the top cities ranking.
type CityMetrics struct {
	Rank                int
	City                string
	TransactionCount    int
	TotalRevenue        float64
	TotalQuantity       int
	UniqueCustomers     int
	AvgTransactionValue float64
	RevenuePercentage   float64
}

// Segment is a customer value tier.
type Segment string

const (
	SegmentHigh   Segment = "High Value"
	SegmentMedium Segment = "Medium Value"
	SegmentLow    Segment = "Low Value"
)

// SegmentOrder lists the tiers from most to least valuable.
var SegmentOrder = []Segment{SegmentHigh, SegmentMedium, SegmentLow}

// CustomerMetrics holds per-customer spending and the assigned tier.
type CustomerMetrics struct {
	CustomerID          string
	TotalSpending       float64
	AvgTransactionValue float64
	TransactionCount    int
	FirstPurchase       time.Time
	LastPurchase        time.Time
	Segment             Segment
}

// SegmentSummary rolls up the customers of one tier.
type SegmentSummary struct {
	Segment                Segment
	CustomerCount          int
	TotalRevenue           float64
	AvgSpendingPerCustomer float64
	AvgTransactionValue    float64
	AvgTransactionCount    float64
	CustomerPercentage     float64
	RevenuePercentage      float64
}

// SpendingDistribution holds quantiles of per-customer total spending.
type SpendingDistribution struct {
	Min    float64
	Q25    float64
	Median float64
	Q75    float64
	Max    float64
	Mean   float64
	StdDev float64
}

// FrequencyBucket counts customers that made exactly Transactions purchases.
type FrequencyBucket struct {
	Transactions int
	Customers    int
	Percentage   float64
}

// CustomerSpending is the result of the customer spending analysis.
type CustomerSpending struct {
	AvgTransactionValue        float64
	TotalCustomers             int
	TotalTransactions          int
	AvgTransactionsPerCustomer float64

	// LowThreshold and HighThreshold are the 33rd and 67th percentiles of
	// total spending; both are inclusive lower bounds of the upper tier.
	LowThreshold  float64
	HighThreshold float64

	Customers    []CustomerMetrics
	Segments     []SegmentSummary
	Distribution SpendingDistribution

	RepeatCustomers  int
	OneTimeCustomers int
	// RepeatPurchaseRate is the percentage of customers with more than one transaction.
	RepeatPurchaseRate    float64
	AvgVisitsPerCustomer  float64
	MaxVisits             int
	FrequencyDistribution []FrequencyBucket
}

// SegmentAssignments maps customer id to tier, the hand-off consumed by the
// product preference analysis.
func (c *CustomerSpending) SegmentAssignments() map[string]Segment {
	out := make(map[string]Segment, len(c.Customers))
	for _, m := range c.Customers {
		out[m.CustomerID] = m.Segment
	}
	return out
}

// StoreTypeMetrics is one row of the store type preference table.
type StoreTypeMetrics struct {
	StoreType             string
	TransactionCount      int
	TransactionPercentage float64
	TotalRevenue          float64
	RevenuePercentage     float64
	AvgTransactionValue   float64
	TotalQuantity         int
	UniqueCustomers       int
	UniqueProducts        int
	RevenuePerCustomer    float64
}

// CategoryShare is a category's revenue within a segment.
type CategoryShare struct {
	Category         string
	Revenue          float64
	TransactionCount int
	RevenueShare     float64
}

// ProductRevenue is a product's revenue within a slice of transactions.
type ProductRevenue struct {
	ProductID   string
	ProductName string
	Category    string
	Revenue     float64
	Quantity    int
}

// SegmentPreference lists what one customer tier buys most.
type SegmentPreference struct {
	Segment       Segment
	Revenue       float64
	Transactions  int
	TopCategories []CategoryShare
	TopProducts   []ProductRevenue
}

// DiscountGroup summarises either discounted or undiscounted transactions.
type DiscountGroup struct {
	HasDiscount           bool
	TransactionCount      int
	TransactionPercentage float64
	TotalRevenue          float64
	RevenuePercentage     float64
	AvgTransactionValue   float64
	TotalQuantity         int
	AvgQuantity           float64
	UniqueCustomers       int
}

// DiscountBucket rolls up discounted transactions in (Lower, Upper] percent.
type DiscountBucket struct {
	Label               string
	Lower               float64
	Upper               float64
	TransactionCount    int
	TotalRevenue        float64
	AvgTransactionValue float64
	TotalQuantity       int
	AvgQuantity         float64
}

// DiscountedProduct is a product ranked by revenue from discounted sales.
type DiscountedProduct struct {
	ProductID        string
	ProductName      string
	TransactionCount int
	TotalRevenue     float64
	TotalQuantity    int
	AvgDiscount      float64
}

// PromotionEffectiveness compares discounted and undiscounted sales. Nil
// pointers mark figures that are not applicable for the data given.
type PromotionEffectiveness struct {
	WithDiscount    *DiscountGroup
	WithoutDiscount *DiscountGroup
	// QuantityLift is the percentage lift of average quantity with a discount.
	QuantityLift *float64

	Buckets []DiscountBucket

	TotalImpliedDiscount  *float64
	DiscountedRevenue     float64
	ROI                   *float64
	AvgDiscountPercentage float64
	// FullDiscountTransactions lists transactions with a 100% (or higher)
	// discount, for which no pre-discount amount can be derived.
	FullDiscountTransactions []string

	TopDiscountedProducts []DiscountedProduct
}

// PeriodMetrics is one row of a calendar rollup (month, quarter or weekday).
type PeriodMetrics struct {
	Period              int
	Label               string
	TransactionCount    int
	TotalRevenue        float64
	AvgTransactionValue float64
	TotalQuantity       int
	UniqueCustomers     int
}

// SeasonProducts lists the best selling products of one season.
type SeasonProducts struct {
	Season   string
	Products []ProductRevenue
}

// YearMetrics is one row of the year-over-year rollup.
type YearMetrics struct {
	Year             int
	TransactionCount int
	TotalRevenue     float64
	UniqueCustomers  int
}

// YearGrowth is the change between two consecutive years. Nil growth means
// the earlier year had nothing to grow from.
type YearGrowth struct {
	FromYear          int
	ToYear            int
	RevenueGrowth     *float64
	TransactionGrowth *float64
}

// SeasonalTrends is the result of the seasonal trends analysis.
type SeasonalTrends struct {
	Monthly    []PeriodMetrics
	PeakMonth  *PeriodMetrics
	Quarterly  []PeriodMetrics
	DayOfWeek  []PeriodMetrics
	BusiestDay *PeriodMetrics
	Seasons    []SeasonProducts

	// YearOverYearApplicable is false when the data spans a single year.
	YearOverYearApplicable bool
	YearOverYear           []YearMetrics
	Growth                 []YearGrowth
}
