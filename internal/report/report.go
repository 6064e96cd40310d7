package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/subtrack/subtrack-backend/internal/app"
	"github.com/subtrack/subtrack-backend/internal/domain"
)

// Output formats accepted by Print.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Dashboard is the JSON document printed for one user.
type Dashboard struct {
	Email         string                `json:"email"`
	Subscriptions []domain.Subscription `json:"subscriptions"`
	Summary       app.Summary           `json:"summary"`
}

// Print writes the dashboard in the requested format.
func Print(w io.Writer, format string, d Dashboard) error {
	switch format {
	case FormatJSON:
		return PrintJSON(w, d)
	case FormatTable, "":
		PrintTables(w, d)
		return nil
	default:
		return fmt.Errorf("unknown format %q (expected %s or %s)", format, FormatTable, FormatJSON)
	}
}

// PrintJSON outputs the dashboard as indented JSON.
func PrintJSON(w io.Writer, d Dashboard) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// PrintTables renders subscriptions, category totals and upcoming renewals.
func PrintTables(w io.Writer, d Dashboard) {
	fmt.Fprintf(w, "Subscriptions for %s\n", d.Email)
	printSubscriptions(w, d.Subscriptions, d.Summary)

	if len(d.Summary.ByCategory) > 0 {
		fmt.Fprintln(w)
		printCategories(w, d.Summary)
	}

	fmt.Fprintln(w)
	printUpcoming(w, d.Summary.UpcomingRenewals)
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	return t
}

func printSubscriptions(w io.Writer, subs []domain.Subscription, summary app.Summary) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Name", "Category", "Status", "Cycle", "Cost", "Monthly", "Next billing"})

	for _, sub := range subs {
		status := text.FgGreen.Sprint(string(sub.Status))
		monthly := sub.MonthlyCost().StringFixed(2)
		switch sub.Status {
		case domain.StatusCancelled:
			status = text.FgRed.Sprint(string(sub.Status))
			monthly = text.FgHiBlack.Sprint("-")
		case domain.StatusPaused:
			status = text.FgYellow.Sprint(string(sub.Status))
			monthly = text.FgHiBlack.Sprint("-")
		}

		t.AppendRow(table.Row{
			sub.Name,
			string(sub.Category),
			status,
			string(sub.BillingCycle),
			sub.Cost.StringFixed(2),
			monthly,
			sub.NextBillingDate.Format("2006-01-02"),
		})
	}

	t.AppendSeparator()
	t.AppendFooter(table.Row{
		"", "", "", "",
		text.Bold.Sprintf("Total (%d active)", summary.TotalSubscriptions),
		text.Bold.Sprint(summary.TotalMonthly),
		text.Bold.Sprintf("%s / year", summary.TotalYearly),
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	t.Render()
}

func printCategories(w io.Writer, summary app.Summary) {
	categories := make([]domain.Category, 0, len(summary.ByCategory))
	for category := range summary.ByCategory {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

	t := newTable(w)
	t.AppendHeader(table.Row{"Category", "Count", "Monthly"})
	for _, category := range categories {
		total := summary.ByCategory[category]
		t.AppendRow(table.Row{string(category), total.Count, total.TotalMonthly})
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 3, Align: text.AlignRight}})
	t.Render()
}

func printUpcoming(w io.Writer, upcoming []app.UpcomingRenewal) {
	if len(upcoming) == 0 {
		fmt.Fprintln(w, "No renewals in the next 30 days.")
		return
	}

	t := newTable(w)
	t.SetTitle("Upcoming renewals")
	t.AppendHeader(table.Row{"Name", "Cost", "Date", "In"})
	for _, renewal := range upcoming {
		in := fmt.Sprintf("%d days", renewal.DaysUntil)
		switch renewal.DaysUntil {
		case 0:
			in = text.FgRed.Sprint("today")
		case 1:
			in = text.FgYellow.Sprint("tomorrow")
		}
		t.AppendRow(table.Row{
			renewal.Name,
			renewal.Cost.StringFixed(2),
			renewal.NextBillingDate.Format("2006-01-02"),
			in,
		})
	}
	t.Render()
}
