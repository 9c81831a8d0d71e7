package ledger

import (
	"context"
	"sort"

	"dompet/models"

	"github.com/shopspring/decimal"
)

// CategoryTotal aggregates one (category, type) pair.
type CategoryTotal struct {
	Category string
	Type     models.TransactionType
	Total    decimal.Decimal
	Count    int
}

// Summary holds income and expense totals for a set of transactions.
type Summary struct {
	Income     decimal.Decimal
	Expense    decimal.Decimal
	Balance    decimal.Decimal
	Count      int
	Categories []CategoryTotal
}

// Summarize totals txs with decimal arithmetic. Categories are sorted by
// type, then descending total, then name.
func Summarize(txs []models.Transaction) Summary {
	type key struct {
		cat string
		typ models.TransactionType
	}
	s := Summary{Income: decimal.Zero, Expense: decimal.Zero}
	byKey := make(map[key]*CategoryTotal)
	for _, t := range txs {
		amt := decimal.NewFromFloat(t.Amount)
		switch t.Type {
		case models.TypeIncome:
			s.Income = s.Income.Add(amt)
		case models.TypeExpense:
			s.Expense = s.Expense.Add(amt)
		default:
			continue
		}
		s.Count++
		k := key{t.Category, t.Type}
		ct, ok := byKey[k]
		if !ok {
			ct = &CategoryTotal{Category: t.Category, Type: t.Type, Total: decimal.Zero}
			byKey[k] = ct
		}
		ct.Total = ct.Total.Add(amt)
		ct.Count++
	}
	s.Balance = s.Income.Sub(s.Expense)
	s.Categories = make([]CategoryTotal, 0, len(byKey))
	for _, ct := range byKey {
		s.Categories = append(s.Categories, *ct)
	}
	sort.Slice(s.Categories, func(i, j int) bool {
		a, b := s.Categories[i], s.Categories[j]
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if c := a.Total.Cmp(b.Total); c != 0 {
			return c > 0
		}
		return a.Category < b.Category
	})
	return s
}

// Summary totals all of the owner's transactions.
func (l *Ledger) Summary(ctx context.Context, ownerID uint) (*Summary, error) {
	items, err := l.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	s := Summarize(items)
	return &s, nil
}
