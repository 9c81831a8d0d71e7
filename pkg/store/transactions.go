package store

import (
	"context"
	"fmt"

	"dompet/models"

	"gorm.io/gorm"
)

// Transactions provides access to ledger records.
type Transactions struct {
	db *gorm.DB
}

// NewTransactions creates a transaction repository.
func NewTransactions(db *gorm.DB) *Transactions {
	return &Transactions{db: db}
}

// Create inserts t and fills in its id.
func (r *Transactions) Create(ctx context.Context, t *models.Transaction) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

// FindByID loads a single transaction.
func (r *Transactions) FindByID(ctx context.Context, id uint) (*models.Transaction, error) {
	var t models.Transaction
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// Save writes every mutable column of t. The owner column is never updated.
func (r *Transactions) Save(ctx context.Context, t *models.Transaction) error {
	res := r.db.WithContext(ctx).Model(&models.Transaction{}).Where("id = ?", t.ID).
		Select("type", "category", "amount", "description", "date", "image").
		Updates(map[string]any{
			"type":        t.Type,
			"category":    t.Category,
			"amount":      t.Amount,
			"description": t.Description,
			"date":        t.Date,
			"image":       t.Image,
		})
	if res.Error != nil {
		return fmt.Errorf("update transaction %d: %w", t.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetImage updates only the attachment reference.
func (r *Transactions) SetImage(ctx context.Context, id uint, ref *string) error {
	res := r.db.WithContext(ctx).Model(&models.Transaction{}).Where("id = ?", id).Update("image", ref)
	if res.Error != nil {
		return fmt.Errorf("set image on %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByID removes a transaction.
func (r *Transactions) DeleteByID(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Transaction{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete transaction %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByOwner returns the owner's transactions, newest date string first.
func (r *Transactions) FindByOwner(ctx context.Context, ownerID uint) ([]models.Transaction, error) {
	var items []models.Transaction
	if err := r.db.WithContext(ctx).Where("user_id = ?", ownerID).
		Order("date desc").Order("id desc").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return items, nil
}

// DistinctCategories returns the category labels used by the owner.
func (r *Transactions) DistinctCategories(ctx context.Context, ownerID uint) ([]string, error) {
	var cats []string
	if err := r.db.WithContext(ctx).Model(&models.Transaction{}).Where("user_id = ?", ownerID).
		Distinct("category").Order("category").Pluck("category", &cats).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// BulkUpdateCategory renames every category in oldCategories to newCategory for
// the owner in one UPDATE inside a database transaction. It returns the number
// of rows changed.
func (r *Transactions) BulkUpdateCategory(ctx context.Context, ownerID uint, newCategory string, oldCategories []string) (int64, error) {
	if len(oldCategories) == 0 {
		return 0, nil
	}
	var n int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Transaction{}).
			Where("user_id = ? AND category IN ? AND category <> ?", ownerID, oldCategories, newCategory).
			Update("category", newCategory)
		if res.Error != nil {
			return res.Error
		}
		n = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("rename categories: %w", err)
	}
	return n, nil
}

// WithImages returns every transaction that references an attachment.
func (r *Transactions) WithImages(ctx context.Context) ([]models.Transaction, error) {
	var items []models.Transaction
	if err := r.db.WithContext(ctx).Where("image IS NOT NULL AND image <> ''").Order("id").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list attached transactions: %w", err)
	}
	return items, nil
}
