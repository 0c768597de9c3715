package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"retail-analytics/models"
	"retail-analytics/utils"
)

// ReportService runs the analysis battery over a cleaned table and prints
// the result.
type ReportService struct {
	logger *utils.Logger
	out    io.Writer
	runID  string
}

func NewReportService(logger *utils.Logger) *ReportService {
	return &ReportService{logger: logger, out: os.Stdout}
}

// NewReportServiceWithWriter prints to w instead of stdout.
func NewReportServiceWithWriter(logger *utils.Logger, w io.Writer) *ReportService {
	return &ReportService{logger: logger, out: w}
}

// WithRunID stamps generated reports with id instead of a fresh one.
func (s *ReportService) WithRunID(id string) *ReportService {
	s.runID = id
	return s
}

// Generate runs every analysis concurrently. The analyses only read t;
// product preference waits for the customer tiers it consumes.
func (s *ReportService) Generate(ctx context.Context, t *models.Table, topN int) (*models.AnalysisReport, error) {
	if err := validateTopN(topN); err != nil {
		return nil, err
	}

	runID := s.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	report := &models.AnalysisReport{
		RunID:       runID,
		Source:      t.Source,
		GeneratedAt: time.Now().UTC(),
	}

	g, ctx := errgroup.WithContext(ctx)
	run := func(name string, fn func() error) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			if err := fn(); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			s.logger.Debug("[report] %s done in %v", name, time.Since(start))
			return nil
		})
	}

	run("descriptive statistics", func() error {
		report.Descriptive = DescriptiveStatistics(t)
		return nil
	})
	run("top products", func() (err error) {
		report.TopProducts, err = TopProducts(t, topN)
		return err
	})
	run("top cities", func() (err error) {
		report.TopCities, err = TopCities(t, topN)
		return err
	})
	run("customer spending", func() error {
		report.Customers = CustomerSpendingAnalysis(t)
		report.SegmentPreferences = ProductPreferenceBySegment(t, report.Customers.SegmentAssignments())
		return nil
	})
	run("store types", func() error {
		report.StoreTypes = StoreTypePreference(t)
		return nil
	})
	run("promotions", func() error {
		report.Promotions = PromotionEffectiveness(t)
		return nil
	})
	run("seasonal trends", func() (err error) {
		report.Seasonal, err = SeasonalTrends(t)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if ids := report.Promotions.FullDiscountTransactions; len(ids) > 0 {
		s.logger.Warn("[report] %d transaction(s) carry a 100%% discount; implied discount and ROI are not applicable: %s",
			len(ids), truncate(strings.Join(ids, ", "), 80))
	}
	s.logger.Info("[report] Generated report %s over %d rows", report.RunID, t.Len())
	return report, nil
}

// Print renders r to the console.
func (s *ReportService) Print(r *models.AnalysisReport) {
	w := s.out
	sep := strings.Repeat("═", 64)
	thin := strings.Repeat("─", 64)

	section := func(title string) {
		fmt.Fprintf(w, "\033[1;33m  %s\033[0m\n", title)
		fmt.Fprintf(w, "  %s\n", thin)
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  📊 RETAIL TRANSACTION ANALYSIS\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	section("Overview")
	fmt.Fprintf(w, "  Source    : %s\n", r.Source)
	fmt.Fprintf(w, "  Run ID    : %s\n", r.RunID)
	if r.Load != nil {
		fmt.Fprintf(w, "  Loaded    : \033[1m%d\033[0m rows × %d columns (%.2f MB)\n",
			r.Load.Rows, r.Load.Columns, r.Load.MemoryUsageMB)
	}
	if r.Features != nil && len(r.Features.Years) > 0 {
		fmt.Fprintf(w, "  Date span : %s → %s\n",
			r.Features.MinDate.Format("2006-01-02"), r.Features.MaxDate.Format("2006-01-02"))
	}
	if c := r.Cleaning; c != nil {
		fmt.Fprintf(w, "  Cleaned   : %d → \033[1m%d\033[0m rows (%d duplicates, %.1f%% retained)\n",
			c.InitialRows, c.FinalRows, c.DuplicatesRemoved, c.RetainedPercentage)
		for _, o := range c.Outliers {
			if o.Count > 0 {
				fmt.Fprintf(w, "  Outliers  : %-12s %d (%.1f%%)\n", o.Column, o.Count, o.Percentage)
			}
		}
	}
	fmt.Fprintln(w)

	if d := r.Descriptive; d != nil {
		section("Transaction Amounts")
		if amt, ok := d.NumericColumn("TotalAmount"); ok && amt.Count > 0 {
			fmt.Fprintf(w, "  Mean \033[1;32m$%.2f\033[0m  Median $%.2f  Std $%.2f  Min $%.2f  Max $%.2f\n",
				amt.Mean, amt.Median, amt.StdDev, amt.Min, amt.Max)
		} else {
			fmt.Fprintf(w, "  No amount data available\n")
		}
		fmt.Fprintln(w)
	}

	section(fmt.Sprintf("Top %d Products by Revenue", len(r.TopProducts)))
	for _, p := range r.TopProducts {
		fmt.Fprintf(w, "  \033[1m%2d.\033[0m %-32s \033[1;32m$%12.2f\033[0m %5.1f%%\n",
			p.Rank, truncate(p.ProductName, 30), p.TotalRevenue, p.RevenuePercentage)
	}
	fmt.Fprintln(w)

	section(fmt.Sprintf("Top %d Cities by Revenue", len(r.TopCities)))
	for _, c := range r.TopCities {
		fmt.Fprintf(w, "  \033[1m%2d.\033[0m %-32s \033[1;32m$%12.2f\033[0m %5.1f%%  (%d customers)\n",
			c.Rank, truncate(c.City, 30), c.TotalRevenue, c.RevenuePercentage, c.UniqueCustomers)
	}
	fmt.Fprintln(w)

	if c := r.Customers; c != nil {
		section("Customer Segments")
		fmt.Fprintf(w, "  %d customers, %.2f transactions each, average ticket $%.2f\n",
			c.TotalCustomers, c.AvgTransactionsPerCustomer, c.AvgTransactionValue)
		for _, seg := range c.Segments {
			fmt.Fprintf(w, "  %-13s %6d customers (%5.1f%%)  $%12.2f (%5.1f%%)\n",
				seg.Segment, seg.CustomerCount, seg.CustomerPercentage, seg.TotalRevenue, seg.RevenuePercentage)
		}
		fmt.Fprintf(w, "  Repeat purchase rate : \033[1m%.1f%%\033[0m (max %d visits)\n",
			c.RepeatPurchaseRate, c.MaxVisits)
		fmt.Fprintln(w)
	}

	if len(r.SegmentPreferences) > 0 {
		section("Favourite Categories by Segment")
		for _, p := range r.SegmentPreferences {
			var cats []string
			for _, c := range p.TopCategories {
				cats = append(cats, fmt.Sprintf("%s %.0f%%", c.Category, c.RevenueShare))
			}
			fmt.Fprintf(w, "  %-13s %s\n", p.Segment, strings.Join(cats, ", "))
		}
		fmt.Fprintln(w)
	}

	if len(r.StoreTypes) > 0 {
		section("Store Types")
		for _, st := range r.StoreTypes {
			bar := strings.Repeat("█", int(st.RevenuePercentage/2+0.5))
			fmt.Fprintf(w, "  %-16s %s %.1f%%\n", truncate(st.StoreType, 16), bar, st.RevenuePercentage)
		}
		fmt.Fprintln(w)
	}

	if p := r.Promotions; p != nil {
		section("Promotions")
		if p.WithDiscount != nil {
			fmt.Fprintf(w, "  With discount    : %d transactions, avg $%.2f\n",
				p.WithDiscount.TransactionCount, p.WithDiscount.AvgTransactionValue)
		}
		if p.WithoutDiscount != nil {
			fmt.Fprintf(w, "  Without discount : %d transactions, avg $%.2f\n",
				p.WithoutDiscount.TransactionCount, p.WithoutDiscount.AvgTransactionValue)
		}
		fmt.Fprintf(w, "  Quantity lift    : %s\n", formatPercent(p.QuantityLift))
		fmt.Fprintf(w, "  Promotion ROI    : %s\n", formatPercent(p.ROI))
		fmt.Fprintln(w)
	}

	if st := r.Seasonal; st != nil {
		section("Seasonality")
		if st.PeakMonth != nil {
			fmt.Fprintf(w, "  Peak month  : \033[1m%s\033[0m ($%.2f)\n", st.PeakMonth.Label, st.PeakMonth.TotalRevenue)
		}
		if st.BusiestDay != nil {
			fmt.Fprintf(w, "  Busiest day : \033[1m%s\033[0m (%d transactions)\n", st.BusiestDay.Label, st.BusiestDay.TransactionCount)
		}
		for _, g := range st.Growth {
			fmt.Fprintf(w, "  %d → %d revenue growth : %s\n", g.FromYear, g.ToYear, formatPercent(g.RevenueGrowth))
		}
		if !st.YearOverYearApplicable {
			fmt.Fprintf(w, "  Year-over-year : n/a (single year)\n")
		}
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func formatPercent(p *float64) string {
	if p == nil {
		return "n/a"
	}
	return fmt.Sprintf("%+.1f%%", round2(*p))
}

func round2(f float64) float64 {
	if f < 0 {
		return -round2(-f)
	}
	return float64(int(f*100+0.5)) / 100
}

// truncate shortens s to max runes, marking the cut with an ellipsis.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
