// Package report prints per-user monthly totals straight from the database.
package report

import (
	"context"
	"fmt"
	"io"
	"regexp"

	"dompet/models"
	"dompet/pkg/ledger"
	"dompet/pkg/store"

	"gorm.io/gorm"
)

var monthRE = regexp.MustCompile(`^(0[1-9]|1[0-2])-\d{4}$`)

// Options selects what RunReport prints.
type Options struct {
	Email string
	// Month is MM-YYYY; empty reports every transaction.
	Month string
	// List prints the matching rows after the totals.
	List bool
}

// RunReport writes a report for the user to w.
func RunReport(ctx context.Context, gdb *gorm.DB, w io.Writer, opts Options) error {
	if opts.Month != "" && !monthRE.MatchString(opts.Month) {
		return fmt.Errorf("invalid month %q, expected MM-YYYY", opts.Month)
	}
	user, err := store.NewUsers(gdb).FindByEmail(ctx, opts.Email)
	if err != nil {
		return fmt.Errorf("user %s: %w", opts.Email, err)
	}

	q := gdb.WithContext(ctx).Where("user_id = ?", user.ID)
	if opts.Month != "" {
		// stored dates are DD-MM-YYYY
		q = q.Where("date LIKE ?", "%-"+opts.Month)
	}
	var rows []models.Transaction
	if err := q.Order("date DESC, id DESC").Find(&rows).Error; err != nil {
		return fmt.Errorf("fetch transactions: %w", err)
	}

	sum := ledger.Summarize(rows)
	period := opts.Month
	if period == "" {
		period = "all"
	}
	fmt.Fprintf(w, "Report for user=%s month=%s:\n", user.Email, period)
	fmt.Fprintf(w, "  records=%d income=%s expense=%s balance=%s\n",
		sum.Count, sum.Income.StringFixed(2), sum.Expense.StringFixed(2), sum.Balance.StringFixed(2))
	for _, ct := range sum.Categories {
		fmt.Fprintf(w, "  %-7s %-20s %10s (%d)\n", ct.Type, ct.Category, ct.Total.StringFixed(2), ct.Count)
	}
	if opts.List {
		for _, r := range rows {
			fmt.Fprintf(w, "%d|%s|%s|%s|%.2f|%s\n", r.ID, r.Date, r.Type, r.Category, r.Amount, r.Description)
		}
	}
	return nil
}
