package models

import "time"

// LoadSummary describes a freshly loaded table.
type LoadSummary struct {
	Source        string
	Rows          int
	Columns       int
	MemoryUsageMB float64
	DateTyped     bool
}

// FeatureSummary describes a calendar feature extraction run. InvalidDates
// counts values that failed to parse; NullDates counts every row left
// without a timestamp, invalid ones included.
type FeatureSummary struct {
	Column       string
	InvalidDates int
	NullDates    int
	MinDate      time.Time
	MaxDate      time.Time
	Years        []int
}

// MissingAction records how the nulls of one column were handled.
type MissingAction struct {
	Column    string
	Strategy  string
	Count     int
	FillValue string
	// RowsDropped is set for the drop-row strategy.
	RowsDropped int
}

// OutlierSummary holds the IQR fences and hit count for one column.
type OutlierSummary struct {
	Column     string
	Count      int
	Percentage float64
	LowerBound float64
	UpperBound float64
}

// CleaningReport describes what the cleaner found and did. Nothing in it is
// an error; data quality findings are only reported.
type CleaningReport struct {
	InitialRows    int
	InitialColumns int

	DuplicatesRemoved   int
	DuplicatePercentage float64
	MissingBefore       map[string]int
	MissingActions      []MissingAction
	CategoricalColumns  []string
	Outliers            []OutlierSummary

	FinalRows          int
	FinalColumns       int
	RowsRemoved        int
	RetainedPercentage float64
}

// AnalysisReport bundles every aggregation of one pipeline run.
type AnalysisReport struct {
	RunID       string
	Source      string
	GeneratedAt time.Time

	Load     *LoadSummary
	Features *FeatureSummary
	Cleaning *CleaningReport

	Descriptive        *DescriptiveStats
	TopProducts        []ProductMetrics
	TopCities          []CityMetrics
	Customers          *CustomerSpending
	StoreTypes         []StoreTypeMetrics
	SegmentPreferences []SegmentPreference
	Promotions         *PromotionEffectiveness
	Seasonal           *SeasonalTrends
}
