// Command basket-report prints a personal basket inflation report from a
// trolley database.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"

	"github.com/dukerupert/trolley/internal/analytics"
	"github.com/dukerupert/trolley/internal/database"
	"github.com/dukerupert/trolley/internal/model"
	"github.com/dukerupert/trolley/internal/store"
)

func main() {
	_ = godotenv.Load()

	defaultDB := os.Getenv("TROLLEY_DB_PATH")
	if defaultDB == "" {
		defaultDB = "trolley.db"
	}

	dbPath := flag.String("db", defaultDB, "path to the trolley database")
	currentFlag := flag.String("current", "", "current period START:END (default last 30 days)")
	comparisonFlag := flag.String("comparison", "", "comparison period START:END (default the period before current)")
	currency := flag.String("currency", "£", "currency symbol for prices")
	flag.Parse()

	current, comparison, err := resolvePeriods(*currentFlag, *comparisonFlag, model.Today())
	if err != nil {
		fmt.Fprintf(os.Stderr, "basket-report: %v\n", err)
		os.Exit(2)
	}

	if err := run(os.Stdout, *dbPath, current, comparison, *currency); err != nil {
		fmt.Fprintf(os.Stderr, "basket-report: %v\n", err)
		os.Exit(1)
	}
}

// resolvePeriods fills in defaults and rejects overlapping periods.
func resolvePeriods(currentArg, comparisonArg string, today model.Date) (analytics.Period, analytics.Period, error) {
	current := analytics.LastDays(today, 30)
	if currentArg != "" {
		p, err := analytics.ParsePeriod(currentArg)
		if err != nil {
			return analytics.Period{}, analytics.Period{}, fmt.Errorf("current: %w", err)
		}
		current = p
	}

	comparison := current.Previous()
	if comparisonArg != "" {
		p, err := analytics.ParsePeriod(comparisonArg)
		if err != nil {
			return analytics.Period{}, analytics.Period{}, fmt.Errorf("comparison: %w", err)
		}
		comparison = p
	}

	if current.Overlaps(comparison) {
		return analytics.Period{}, analytics.Period{}, fmt.Errorf("periods %s and %s overlap", current, comparison)
	}
	return current, comparison, nil
}

func run(w io.Writer, dbPath string, current, comparison analytics.Period, currency string) error {
	db, err := database.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	receipts := store.NewReceiptStore(db)
	cur, err := receipts.ListBetween(current.Start, current.End)
	if err != nil {
		return err
	}
	cmp, err := receipts.ListBetween(comparison.Start, comparison.End)
	if err != nil {
		return err
	}

	result, err := analytics.ComputeBasketInflation(cur, cmp)
	if errors.Is(err, analytics.ErrInsufficientData) {
		fmt.Fprintf(w, "Not enough data to compare %s with %s: %v\n", current, comparison, err)
		return nil
	}
	if err != nil {
		return err
	}
	return printReport(w, result, current, comparison, currency)
}

func printReport(w io.Writer, b *analytics.BasketInflation, current, comparison analytics.Period, currency string) error {
	fmt.Fprintf(w, "Basket inflation %s vs %s\n\n", current, comparison)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "ITEM\tCATEGORY\tQTY\tTHEN\tNOW\tCHANGE\t")
	for _, item := range b.ItemBreakdown {
		change := "n/a"
		if item.Inflation != nil {
			change = formatPercent(*item.Inflation)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			item.Name,
			item.Category.Label(),
			humanize.Ftoa(item.Quantity),
			formatMoney(currency, item.ComparisonAvgPrice),
			formatMoney(currency, item.CurrentAvgPrice),
			change,
		)
	}
	fmt.Fprintf(tw, "\t\t\t\t\t\t\n")
	fmt.Fprintf(tw, "BASKET (%d items)\t\t\t%s\t%s\t%s\t\n",
		b.BasketSize,
		formatMoney(currency, b.ComparisonBasketCost),
		formatMoney(currency, b.CurrentBasketCost),
		formatPercent(b.Value),
	)
	return tw.Flush()
}

func formatMoney(currency string, v float64) string {
	if v < 0 {
		return "-" + currency + humanize.FormatFloat("#,###.##", -v)
	}
	return currency + humanize.FormatFloat("#,###.##", v)
}

// formatPercent renders a fractional rate as a signed percentage.
func formatPercent(rate float64) string {
	return fmt.Sprintf("%+.1f%%", rate*100)
}
