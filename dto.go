package main

import (
	"dompet/models"
	"dompet/pkg/attachment"
	"dompet/pkg/ledger"
)

// transactionRequest is the body of /transactions/add and /transactions/update.
// userId is accepted for compatibility but the owner always comes from the token.
type transactionRequest struct {
	ID          uint    `json:"id"`
	Type        string  `json:"type" binding:"required,oneof=INCOME EXPENSE"`
	Category    string  `json:"category" binding:"required,max=255"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Description string  `json:"description" binding:"max=1024"`
	Date        string  `json:"date" binding:"required"`
	Image       *string `json:"image"`
	UserID      uint    `json:"userId"`
}

type transactionDTO struct {
	ID          uint    `json:"id"`
	Type        string  `json:"type"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
	Image       *string `json:"image"`
	UserID      uint    `json:"userId"`
}

type categoryTotalDTO struct {
	Category string `json:"category"`
	Type     string `json:"type"`
	Total    string `json:"total"`
	Count    int    `json:"count"`
}

type summaryDTO struct {
	Income     string             `json:"income"`
	Expense    string             `json:"expense"`
	Balance    string             `json:"balance"`
	Count      int                `json:"count"`
	Categories []categoryTotalDTO `json:"categories"`
}

// toInput decodes the optional base64 image and maps the request to ledger input.
func (r transactionRequest) toInput() (ledger.Input, error) {
	in := ledger.Input{
		ID:          r.ID,
		Type:        models.TransactionType(r.Type),
		Category:    r.Category,
		Amount:      r.Amount,
		Description: r.Description,
		Date:        r.Date,
	}
	if r.Image != nil && *r.Image != "" {
		b, err := attachment.DecodePayload(*r.Image)
		if err != nil {
			return ledger.Input{}, err
		}
		in.Attachment = b
	}
	return in, nil
}

func toTransactionDTO(e ledger.Entry) transactionDTO {
	dto := transactionDTO{
		ID:          e.ID,
		Type:        string(e.Type),
		Category:    e.Category,
		Amount:      e.Amount,
		Description: e.Description,
		Date:        e.Date,
		UserID:      e.UserID,
	}
	if e.Attachment != nil {
		img := attachment.EncodePayload(e.Attachment)
		dto.Image = &img
	}
	return dto
}

func toSummaryDTO(s *ledger.Summary) summaryDTO {
	out := summaryDTO{
		Income:     s.Income.StringFixed(2),
		Expense:    s.Expense.StringFixed(2),
		Balance:    s.Balance.StringFixed(2),
		Count:      s.Count,
		Categories: make([]categoryTotalDTO, 0, len(s.Categories)),
	}
	for _, ct := range s.Categories {
		out.Categories = append(out.Categories, categoryTotalDTO{
			Category: ct.Category,
			Type:     string(ct.Type),
			Total:    ct.Total.StringFixed(2),
			Count:    ct.Count,
		})
	}
	return out
}
