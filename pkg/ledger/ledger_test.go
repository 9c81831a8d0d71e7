package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"dompet/models"
	"dompet/pkg/apperr"
	"dompet/pkg/attachment"
	"dompet/pkg/ledger"
	"dompet/pkg/store"
	"dompet/pkg/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	ledger *ledger.Ledger
	txs    *store.Transactions
	files  *attachment.Store
	alice  uint
	bob    uint
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := storetest.Open(t)
	users := store.NewUsers(db)
	ctx := context.Background()
	a := &models.User{Name: "A", Lastname: "A", Email: "a@x.com", HashedPassword: []byte("x")}
	b := &models.User{Name: "B", Lastname: "B", Email: "b@x.com", HashedPassword: []byte("x")}
	require.NoError(t, users.Create(ctx, a))
	require.NoError(t, users.Create(ctx, b))
	txs := store.NewTransactions(db)
	files := attachment.NewStore(t.TempDir())
	return &fixture{ledger: ledger.New(txs, files), txs: txs, files: files, alice: a.ID, bob: b.ID}
}

func food() ledger.Input {
	return ledger.Input{Type: models.TypeExpense, Category: "Food", Amount: 12.5, Date: "01-01-2025"}
}

func TestCreate_WithAttachment(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	in := food()
	in.Attachment = []byte("receipt-bytes")
	e, err := f.ledger.Create(ctx, in, f.alice)
	require.NoError(t, err)
	require.NotNil(t, e.Image)
	assert.Equal(t, attachment.Reference(f.alice, e.ID), *e.Image)
	assert.Equal(t, []byte("receipt-bytes"), e.Attachment)
	assert.Equal(t, f.alice, e.UserID)

	stored, err := f.txs.FindByID(ctx, e.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Image)
	assert.Equal(t, *e.Image, *stored.Image)
}

func TestCreate_Validation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	cases := map[string]func(*ledger.Input){
		"zero amount":      func(in *ledger.Input) { in.Amount = 0 },
		"negative amount":  func(in *ledger.Input) { in.Amount = -3 },
		"bad type":         func(in *ledger.Input) { in.Type = "LOAN" },
		"empty category":   func(in *ledger.Input) { in.Category = "  " },
		"iso date":         func(in *ledger.Input) { in.Date = "2025-01-01" },
		"long category":    func(in *ledger.Input) { in.Category = strings.Repeat("c", 256) },
		"long description": func(in *ledger.Input) { in.Description = strings.Repeat("d", 1025) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := food()
			mutate(&in)
			_, err := f.ledger.Create(ctx, in, f.alice)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

type failingFiles struct {
	saveErr   error
	deleteErr error
	deletes   []string
}

func (ff *failingFiles) Save(ownerID, txID uint, payload []byte) (string, error) {
	if ff.saveErr != nil {
		return "", ff.saveErr
	}
	return attachment.Reference(ownerID, txID), nil
}
func (ff *failingFiles) Load(string) []byte { return nil }
func (ff *failingFiles) Delete(ref string) error {
	ff.deletes = append(ff.deletes, ref)
	return ff.deleteErr
}

func TestCreate_AttachmentFailureRollsBack(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	files := &failingFiles{saveErr: fmt.Errorf("disk full: %w", apperr.ErrStorage)}
	l := ledger.New(f.txs, files)

	in := food()
	in.Attachment = []byte("x")
	_, err := l.Create(ctx, in, f.alice)
	assert.ErrorIs(t, err, apperr.ErrStorage)

	items, err := f.txs.FindByOwner(ctx, f.alice)
	require.NoError(t, err)
	assert.Empty(t, items, "record must not survive a failed attachment write")
}

func TestOwnershipEnforced(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	e, err := f.ledger.Create(ctx, food(), f.alice)
	require.NoError(t, err)

	upd := food()
	upd.ID = e.ID
	upd.Category = "Hacked"
	_, err = f.ledger.Update(ctx, upd, f.bob)
	assert.ErrorIs(t, err, apperr.ErrAuthorization)

	err = f.ledger.Delete(ctx, e.ID, f.bob)
	assert.ErrorIs(t, err, apperr.ErrAuthorization)

	upd.ID = 9999
	_, err = f.ledger.Update(ctx, upd, f.bob)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, f.ledger.Delete(ctx, 9999, f.bob), apperr.ErrNotFound)

	stored, err := f.txs.FindByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Food", stored.Category)
}

func TestUpdate_AttachmentLifecycle(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	in := food()
	in.Attachment = []byte("v1")
	e, err := f.ledger.Create(ctx, in, f.alice)
	require.NoError(t, err)
	ref := *e.Image

	upd := food()
	upd.ID = e.ID
	upd.Category = "Dining"
	upd.Amount = 20
	upd.Attachment = []byte("v2")
	got, err := f.ledger.Update(ctx, upd, f.alice)
	require.NoError(t, err)
	assert.Equal(t, "Dining", got.Category)
	assert.Equal(t, 20.0, got.Amount)
	assert.Equal(t, []byte("v2"), f.files.Load(ref))

	upd.Attachment = nil
	got, err = f.ledger.Update(ctx, upd, f.alice)
	require.NoError(t, err)
	assert.Nil(t, got.Image)
	assert.Nil(t, got.Attachment)
	assert.Nil(t, f.files.Load(ref), "removed attachment must be purged")
}

func TestUpdate_AttachmentFailureLeavesRecord(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	in := food()
	in.Attachment = []byte("v1")
	e, err := f.ledger.Create(ctx, in, f.alice)
	require.NoError(t, err)
	ref := *e.Image

	l := ledger.New(f.txs, &failingFiles{saveErr: fmt.Errorf("disk full: %w", apperr.ErrStorage)})
	upd := ledger.Input{ID: e.ID, Type: models.TypeIncome, Category: "Salary", Amount: 99, Date: "02-02-2025", Attachment: []byte("v2")}
	_, err = l.Update(ctx, upd, f.alice)
	assert.ErrorIs(t, err, apperr.ErrStorage)

	stored, err := f.txs.FindByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TypeExpense, stored.Type)
	assert.Equal(t, "Food", stored.Category)
	assert.Equal(t, 12.5, stored.Amount)
	assert.Equal(t, "01-01-2025", stored.Date)
	require.NotNil(t, stored.Image)
	assert.Equal(t, ref, *stored.Image)
	assert.Equal(t, []byte("v1"), f.files.Load(ref))
}

// brokenSave fails every record update.
type brokenSave struct {
	*store.Transactions
}

func (brokenSave) Save(context.Context, *models.Transaction) error {
	return errors.New("connection reset")
}

func TestUpdate_RecordFailureRestoresAttachment(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	l := ledger.New(brokenSave{f.txs}, f.files)

	in := food()
	in.Attachment = []byte("v1")
	withImage, err := f.ledger.Create(ctx, in, f.alice)
	require.NoError(t, err)
	plain, err := f.ledger.Create(ctx, food(), f.alice)
	require.NoError(t, err)

	upd := food()
	upd.ID = withImage.ID
	upd.Attachment = []byte("v2")
	_, err = l.Update(ctx, upd, f.alice)
	require.Error(t, err)
	assert.Equal(t, []byte("v1"), f.files.Load(*withImage.Image), "previous blob is put back")

	upd.ID = plain.ID
	_, err = l.Update(ctx, upd, f.alice)
	require.Error(t, err)
	assert.Nil(t, f.files.Load(attachment.Reference(f.alice, plain.ID)), "new blob is removed again")
	stored, err := f.txs.FindByID(ctx, plain.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Image)
}

func TestDelete_Attachment(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	in := food()
	in.Attachment = []byte("blob")
	withImage, err := f.ledger.Create(ctx, in, f.alice)
	require.NoError(t, err)
	ref := *withImage.Image

	require.NoError(t, f.ledger.Delete(ctx, withImage.ID, f.alice))
	assert.Nil(t, f.files.Load(ref))
	_, err = f.txs.FindByID(ctx, withImage.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDelete_NoAttachmentNoBlobOp(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	files := &failingFiles{}
	l := ledger.New(f.txs, files)

	e, err := l.Create(ctx, food(), f.alice)
	require.NoError(t, err)
	require.NoError(t, l.Delete(ctx, e.ID, f.alice))
	assert.Empty(t, files.deletes)
}

func TestDelete_AttachmentFailureIsTolerated(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	files := &failingFiles{deleteErr: errors.New("permission denied")}
	l := ledger.New(f.txs, files)

	in := food()
	in.Attachment = []byte("x")
	e, err := l.Create(ctx, in, f.alice)
	require.NoError(t, err)

	require.NoError(t, l.Delete(ctx, e.ID, f.alice))
	assert.Len(t, files.deletes, 1)
	_, err = f.txs.FindByID(ctx, e.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCategoriesAndRename(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for _, c := range []string{"Groceries", "Dining", "Rent"} {
		in := food()
		in.Category = c
		_, err := f.ledger.Create(ctx, in, f.alice)
		require.NoError(t, err)
	}
	in := food()
	in.Category = "Groceries"
	_, err := f.ledger.Create(ctx, in, f.bob)
	require.NoError(t, err)

	n, err := f.ledger.RenameCategories(ctx, f.alice, "Food", []string{"Groceries", "Dining"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	cats, err := f.ledger.DistinctCategories(ctx, f.alice)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Food", "Rent"}, cats)

	bobCats, err := f.ledger.DistinctCategories(ctx, f.bob)
	require.NoError(t, err)
	assert.Equal(t, []string{"Groceries"}, bobCats)

	n, err = f.ledger.RenameCategories(ctx, f.alice, "Food", []string{"Groceries", "Dining"})
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = f.ledger.RenameCategories(ctx, f.alice, "", []string{"Rent"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.ledger.RenameCategories(ctx, f.alice, "Food", nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestScenario_ListThenRecategorize(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	e, err := f.ledger.Create(ctx, food(), f.alice)
	require.NoError(t, err)

	list, err := f.ledger.ListByOwner(ctx, f.alice)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Food", list[0].Category)
	assert.Equal(t, 12.5, list[0].Amount)

	upd := food()
	upd.ID = e.ID
	upd.Category = "Dining"
	_, err = f.ledger.Update(ctx, upd, f.alice)
	require.NoError(t, err)

	cats, err := f.ledger.DistinctCategories(ctx, f.alice)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dining"}, cats)
}
