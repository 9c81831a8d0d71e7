// Package ledger owns transaction records: ownership-checked CRUD, the
// attachment lifecycle and bulk category renames.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"unicode/utf8"

	"dompet/models"
	"dompet/pkg/apperr"
	"dompet/pkg/store"
)

var dateRE = regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`)

// column widths of the transactions table
const (
	maxCategory    = 255
	maxDescription = 1024
)

// Repository is the record storage the ledger needs.
type Repository interface {
	Create(ctx context.Context, t *models.Transaction) error
	FindByID(ctx context.Context, id uint) (*models.Transaction, error)
	Save(ctx context.Context, t *models.Transaction) error
	SetImage(ctx context.Context, id uint, ref *string) error
	DeleteByID(ctx context.Context, id uint) error
	FindByOwner(ctx context.Context, ownerID uint) ([]models.Transaction, error)
	DistinctCategories(ctx context.Context, ownerID uint) ([]string, error)
	BulkUpdateCategory(ctx context.Context, ownerID uint, newCategory string, oldCategories []string) (int64, error)
}

// Attachments is the blob storage the ledger needs.
type Attachments interface {
	Save(ownerID, transactionID uint, payload []byte) (string, error)
	Load(ref string) []byte
	Delete(ref string) error
}

// Input carries the client-supplied fields of a transaction. A nil
// Attachment means "no image".
type Input struct {
	ID          uint
	Type        models.TransactionType
	Category    string
	Amount      float64
	Description string
	Date        string
	Attachment  []byte
}

// Entry is a transaction with its attachment bytes resolved.
type Entry struct {
	models.Transaction
	Attachment []byte
}

// Ledger is the transaction service.
type Ledger struct {
	repo  Repository
	files Attachments
}

// New wires a Ledger.
func New(repo Repository, files Attachments) *Ledger {
	return &Ledger{repo: repo, files: files}
}

func validate(in Input) error {
	switch {
	case !in.Type.Valid():
		return fmt.Errorf("type must be INCOME or EXPENSE: %w", apperr.ErrValidation)
	case strings.TrimSpace(in.Category) == "":
		return fmt.Errorf("category is required: %w", apperr.ErrValidation)
	case utf8.RuneCountInString(strings.TrimSpace(in.Category)) > maxCategory:
		return fmt.Errorf("category is longer than %d characters: %w", maxCategory, apperr.ErrValidation)
	case utf8.RuneCountInString(in.Description) > maxDescription:
		return fmt.Errorf("description is longer than %d characters: %w", maxDescription, apperr.ErrValidation)
	case !(in.Amount > 0):
		return fmt.Errorf("amount must be greater than 0: %w", apperr.ErrValidation)
	case !dateRE.MatchString(in.Date):
		return fmt.Errorf("date must be DD-MM-YYYY: %w", apperr.ErrValidation)
	}
	return nil
}

func (l *Ledger) resolve(t models.Transaction) Entry {
	e := Entry{Transaction: t}
	if t.Image != nil && *t.Image != "" {
		e.Attachment = l.files.Load(*t.Image)
	}
	return e
}

// Create stores a new transaction for ownerID. When an attachment is given
// and cannot be written, the record is removed again and ErrStorage returned.
func (l *Ledger) Create(ctx context.Context, in Input, ownerID uint) (*Entry, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	t := &models.Transaction{
		UserID:      ownerID,
		Type:        in.Type,
		Category:    strings.TrimSpace(in.Category),
		Amount:      in.Amount,
		Description: in.Description,
		Date:        in.Date,
	}
	if err := l.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	if len(in.Attachment) > 0 {
		ref, err := l.files.Save(ownerID, t.ID, in.Attachment)
		if err != nil {
			l.rollback(ctx, t.ID, "")
			return nil, err
		}
		if err := l.repo.SetImage(ctx, t.ID, &ref); err != nil {
			l.rollback(ctx, t.ID, ref)
			return nil, err
		}
		t.Image = &ref
	}
	e := l.resolve(*t)
	return &e, nil
}

func (l *Ledger) rollback(ctx context.Context, id uint, ref string) {
	if ref != "" {
		if err := l.files.Delete(ref); err != nil {
			log.Printf("ledger: rollback attachment %s: %v", ref, err)
		}
	}
	if err := l.repo.DeleteByID(ctx, id); err != nil {
		log.Printf("ledger: rollback transaction %d: %v", id, err)
	}
}

// owned loads a transaction and checks that requesterID owns it.
func (l *Ledger) owned(ctx context.Context, id, requesterID uint) (*models.Transaction, error) {
	t, err := l.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("transaction %d: %w", id, apperr.ErrNotFound)
		}
		return nil, err
	}
	if t.UserID != requesterID {
		return nil, fmt.Errorf("transaction %d: %w", id, apperr.ErrAuthorization)
	}
	return t, nil
}

// Get returns one of requesterID's transactions.
func (l *Ledger) Get(ctx context.Context, id, requesterID uint) (*models.Transaction, error) {
	return l.owned(ctx, id, requesterID)
}

// Update replaces the transaction's fields. A new attachment overwrites the
// stored blob; no attachment removes any existing one.
func (l *Ledger) Update(ctx context.Context, in Input, requesterID uint) (*Entry, error) {
	t, err := l.owned(ctx, in.ID, requesterID)
	if err != nil {
		return nil, err
	}
	if err := validate(in); err != nil {
		return nil, err
	}
	var (
		stale   string
		written string
		prev    []byte
	)
	if len(in.Attachment) > 0 {
		var oldRef string
		if t.Image != nil {
			oldRef = *t.Image
			prev = l.files.Load(oldRef)
		}
		ref, err := l.files.Save(t.UserID, t.ID, in.Attachment)
		if err != nil {
			return nil, err
		}
		if ref != oldRef {
			// nothing of the old blob was overwritten
			prev = nil
		}
		written = ref
		t.Image = &ref
	} else if t.Image != nil {
		stale = *t.Image
		t.Image = nil
	}
	t.Type = in.Type
	t.Category = strings.TrimSpace(in.Category)
	t.Amount = in.Amount
	t.Description = in.Description
	t.Date = in.Date
	if err := l.repo.Save(ctx, t); err != nil {
		if written != "" {
			l.restore(t.UserID, t.ID, written, prev)
		}
		return nil, err
	}
	if stale != "" {
		if err := l.files.Delete(stale); err != nil {
			log.Printf("ledger: remove attachment %s of transaction %d: %v", stale, t.ID, err)
		}
	}
	e := l.resolve(*t)
	return &e, nil
}

// restore puts back the blob an aborted update overwrote, or removes it when
// the transaction had none.
func (l *Ledger) restore(ownerID, id uint, ref string, prev []byte) {
	var err error
	if prev != nil {
		_, err = l.files.Save(ownerID, id, prev)
	} else {
		err = l.files.Delete(ref)
	}
	if err != nil {
		log.Printf("ledger: restore attachment %s of transaction %d: %v", ref, id, err)
	}
}

// Delete removes one of requesterID's transactions and its attachment. A
// failed attachment delete is logged and does not block the record delete.
func (l *Ledger) Delete(ctx context.Context, id, requesterID uint) error {
	t, err := l.owned(ctx, id, requesterID)
	if err != nil {
		return err
	}
	if t.Image != nil && *t.Image != "" {
		if err := l.files.Delete(*t.Image); err != nil {
			log.Printf("ledger: remove attachment %s of transaction %d: %v", *t.Image, t.ID, err)
		}
	}
	if err := l.repo.DeleteByID(ctx, t.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("transaction %d: %w", id, apperr.ErrNotFound)
		}
		return err
	}
	return nil
}

// ListByOwner returns the owner's transactions ordered by date string, descending.
func (l *Ledger) ListByOwner(ctx context.Context, ownerID uint) ([]Entry, error) {
	items, err := l.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(items))
	for _, t := range items {
		out = append(out, l.resolve(t))
	}
	return out, nil
}

// DistinctCategories returns the set of category labels the owner uses.
func (l *Ledger) DistinctCategories(ctx context.Context, ownerID uint) ([]string, error) {
	return l.repo.DistinctCategories(ctx, ownerID)
}

// RenameCategories moves every owner transaction in oldCategories to
// newCategory in a single atomic update and returns the rows changed.
func (l *Ledger) RenameCategories(ctx context.Context, ownerID uint, newCategory string, oldCategories []string) (int64, error) {
	newCategory = strings.TrimSpace(newCategory)
	if newCategory == "" {
		return 0, fmt.Errorf("newCategory is required: %w", apperr.ErrValidation)
	}
	if utf8.RuneCountInString(newCategory) > maxCategory {
		return 0, fmt.Errorf("newCategory is longer than %d characters: %w", maxCategory, apperr.ErrValidation)
	}
	if len(oldCategories) == 0 {
		return 0, fmt.Errorf("oldCategories is required: %w", apperr.ErrValidation)
	}
	return l.repo.BulkUpdateCategory(ctx, ownerID, newCategory, oldCategories)
}
