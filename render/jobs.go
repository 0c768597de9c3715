package render

import (
	"fmt"
	"path/filepath"

	"retail-analytics/models"
)

// ChartJobs lays out the standard chart set for a report. Ranked series are
// sorted and cut to topN; calendar series keep calendar order. Sections the
// report lacks produce no job; empty sections are left to the renderer to
// report.
func ChartJobs(r *models.AnalysisReport, dir, format string, topN int) ([]Job, error) {
	type chart struct {
		name, title   string
		rows          any
		label, metric string
		ranked        bool
	}
	charts := []chart{
		{"top_products", "Top Products by Revenue", r.TopProducts, "ProductName", "TotalRevenue", true},
		{"top_cities", "Top Cities by Revenue", r.TopCities, "City", "TotalRevenue", true},
		{"store_types", "Revenue by Store Type", r.StoreTypes, "StoreType", "TotalRevenue", true},
	}
	if r.Customers != nil {
		charts = append(charts, chart{"customer_segments", "Revenue by Customer Segment", r.Customers.Segments, "Segment", "TotalRevenue", false})
	}
	if r.Promotions != nil {
		charts = append(charts, chart{"discount_levels", "Revenue by Discount Level", r.Promotions.Buckets, "Label", "TotalRevenue", false})
	}
	if r.Seasonal != nil {
		charts = append(charts,
			chart{"monthly_revenue", "Monthly Revenue", r.Seasonal.Monthly, "Label", "TotalRevenue", false},
			chart{"day_of_week", "Transactions by Day of Week", r.Seasonal.DayOfWeek, "Label", "TransactionCount", false},
		)
	}

	var jobs []Job
	for _, c := range charts {
		s, err := SeriesFrom(c.title, c.rows, c.label, c.metric)
		if err != nil {
			return nil, fmt.Errorf("chart %s: %w", c.name, err)
		}
		if c.ranked {
			s = s.Top(topN)
		}
		jobs = append(jobs, Job{Series: s, Path: filepath.Join(dir, c.name+"."+format)})
	}
	return jobs, nil
}
