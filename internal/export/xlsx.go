/**
 * @description
 * Spreadsheet export of one owner's subscriptions. The workbook has a
 * "Subscriptions" sheet with one row per record and a "Summary" sheet with
 * the dashboard totals.
 */
package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/subtrack/subtrack-backend/internal/app"
	"github.com/subtrack/subtrack-backend/internal/domain"
	"github.com/xuri/excelize/v2"
)

const (
	SubscriptionsSheet = "Subscriptions"
	SummarySheet       = "Summary"
	ContentType        = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	dateLayout = "2006-01-02"
)

var subscriptionHeader = []interface{}{
	"Name", "Category", "Status", "Billing Cycle", "Cost",
	"Monthly Cost", "Yearly Cost", "Start Date", "Next Billing Date",
	"Reminders", "Website",
}

// WriteWorkbook renders subs and summary as an XLSX document into w.
func WriteWorkbook(w io.Writer, subs []domain.Subscription, summary app.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SubscriptionsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeSubscriptions(f, subs); err != nil {
		return err
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	if err := writeSummary(f, summary); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSubscriptions(f *excelize.File, subs []domain.Subscription) error {
	if err := f.SetSheetRow(SubscriptionsSheet, "A1", &subscriptionHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, sub := range subs {
		reminders := "off"
		if sub.ReminderEnabled {
			reminders = fmt.Sprintf("%d days before", sub.ReminderDaysBefore)
		}
		row := []interface{}{
			sub.Name,
			string(sub.Category),
			string(sub.Status),
			string(sub.BillingCycle),
			sub.Cost.InexactFloat64(),
			sub.MonthlyCost().Round(2).InexactFloat64(),
			sub.YearlyCost().Round(2).InexactFloat64(),
			sub.StartDate.Format(dateLayout),
			sub.NextBillingDate.Format(dateLayout),
			reminders,
			sub.Website,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SubscriptionsSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	return f.SetColWidth(SubscriptionsSheet, "A", "K", 18)
}

func writeSummary(f *excelize.File, summary app.Summary) error {
	rows := [][]interface{}{
		{"Active subscriptions", summary.TotalSubscriptions},
		{"Total monthly", summary.TotalMonthly},
		{"Total yearly", summary.TotalYearly},
		{},
		{"Category", "Count", "Monthly"},
	}

	categories := make([]string, 0, len(summary.ByCategory))
	for category := range summary.ByCategory {
		categories = append(categories, string(category))
	}
	sort.Strings(categories)
	for _, category := range categories {
		total := summary.ByCategory[domain.Category(category)]
		rows = append(rows, []interface{}{category, total.Count, total.TotalMonthly})
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary row %d: %w", i+1, err)
		}
	}

	return f.SetColWidth(SummarySheet, "A", "A", 24)
}
