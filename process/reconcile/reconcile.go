// Package reconcile compares attachment references stored on transactions
// with the blobs present in the attachment directory.
package reconcile

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"dompet/models"
	"dompet/pkg/attachment"
)

// Records is the subset of the transaction repository reconcile needs.
type Records interface {
	WithImages(ctx context.Context) ([]models.Transaction, error)
	SetImage(ctx context.Context, id uint, ref *string) error
}

// Blobs is the subset of the attachment store reconcile needs.
type Blobs interface {
	List() ([]string, error)
	ModTime(ref string) (time.Time, bool)
	Delete(ref string) error
}

// Report lists the inconsistencies found by one pass.
type Report struct {
	// Orphans are blobs no transaction references.
	Orphans []string
	// Dangling are transactions whose reference has no blob on disk.
	Dangling []uint
	// Misnamed are transactions whose reference does not match image-{owner}-{id}.
	Misnamed []uint
}

// Clean reports whether the pass found nothing to fix.
func (r Report) Clean() bool {
	return len(r.Orphans) == 0 && len(r.Dangling) == 0 && len(r.Misnamed) == 0
}

func (r Report) String() string {
	return fmt.Sprintf("orphans=%d dangling=%d misnamed=%d", len(r.Orphans), len(r.Dangling), len(r.Misnamed))
}

// Options controls a reconcile pass.
type Options struct {
	// Fix deletes orphan blobs and clears dangling references.
	Fix bool
	// MinAge skips orphan blobs written more recently than this, so a
	// transaction being created is not mistaken for garbage.
	MinAge time.Duration
	Now    func() time.Time
}

// Run performs one pass over records and blobs.
func Run(ctx context.Context, records Records, blobs Blobs, opts Options) (Report, error) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	txs, err := records.WithImages(ctx)
	if err != nil {
		return Report{}, err
	}
	refs, err := blobs.List()
	if err != nil {
		return Report{}, fmt.Errorf("list attachments: %w", err)
	}
	onDisk := make(map[string]bool, len(refs))
	for _, ref := range refs {
		onDisk[ref] = true
	}

	var rep Report
	referenced := make(map[string]bool, len(txs))
	for _, t := range txs {
		ref := *t.Image
		referenced[ref] = true
		if ref != attachment.Reference(t.UserID, t.ID) {
			rep.Misnamed = append(rep.Misnamed, t.ID)
			continue
		}
		if !onDisk[ref] {
			rep.Dangling = append(rep.Dangling, t.ID)
		}
	}
	for _, ref := range refs {
		if referenced[ref] {
			continue
		}
		if mt, ok := blobs.ModTime(ref); ok && now().Sub(mt) < opts.MinAge {
			continue
		}
		rep.Orphans = append(rep.Orphans, ref)
	}
	sort.Strings(rep.Orphans)

	if !opts.Fix {
		return rep, nil
	}
	for _, ref := range rep.Orphans {
		if err := blobs.Delete(ref); err != nil {
			return rep, err
		}
		log.Printf("reconcile: removed orphan %s", ref)
	}
	for _, id := range rep.Dangling {
		if err := records.SetImage(ctx, id, nil); err != nil {
			return rep, fmt.Errorf("clear reference on %d: %w", id, err)
		}
		log.Printf("reconcile: cleared dangling reference on transaction %d", id)
	}
	return rep, nil
}
