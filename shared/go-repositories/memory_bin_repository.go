package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/smartwaste/bin-registry/shared/go-models"
)

// MemoryBinRepository is a process-local store guarded by a single
// RWMutex. Callers always receive copies, never the stored records.
type MemoryBinRepository struct {
	mu   sync.RWMutex
	bins map[string]*models.Bin
	// insertion order, used as List order for equal registration dates
	order []string
}

var _ BinRepository = (*MemoryBinRepository)(nil)

func NewMemoryBinRepository() *MemoryBinRepository {
	return &MemoryBinRepository{bins: map[string]*models.Bin{}}
}

func (r *MemoryBinRepository) Create(ctx context.Context, b *models.Bin) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bins[b.BinID]; exists {
		return fmt.Errorf("duplicate bin_id %q", b.BinID)
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt, b.RowVersion = now, now, 1

	r.bins[b.BinID] = b.Clone()
	r.order = append(r.order, b.BinID)
	return nil
}

func (r *MemoryBinRepository) GetByBinID(ctx context.Context, binID string) (*models.Bin, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bins[binID]
	if !ok {
		return nil, nil
	}
	return b.Clone(), nil
}

func (r *MemoryBinRepository) List(ctx context.Context) ([]*models.Bin, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Bin, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.bins[id].Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RegistrationDate.Before(out[j].RegistrationDate)
	})
	return out, nil
}

func (r *MemoryBinRepository) Update(ctx context.Context, b *models.Bin) error {
	_, err := r.update(ctx, b, false, 0)
	return err
}

func (r *MemoryBinRepository) UpdateIfVersion(ctx context.Context, b *models.Bin, expected int64) (pgconn.CommandTag, error) {
	return r.update(ctx, b, true, expected)
}

func (r *MemoryBinRepository) UpdateWithRetry(ctx context.Context, binID string, mutate func(*models.Bin) error) error {
	return WithRetry(ctx, DefaultMaxRetries, binID, r.GetByBinID, r.UpdateIfVersion, mutate)
}

func (r *MemoryBinRepository) update(ctx context.Context, b *models.Bin, check bool, expected int64) (pgconn.CommandTag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.bins[b.BinID]
	if !ok || (check && cur.RowVersion != expected) {
		return commandTag("UPDATE", 0), nil
	}

	next := b.Clone()
	next.ID = cur.ID
	next.RegistrationDate = cur.RegistrationDate
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = time.Now().UTC()
	next.RowVersion = cur.RowVersion + 1
	r.bins[b.BinID] = next

	b.UpdatedAt = next.UpdatedAt
	return commandTag("UPDATE", 1), nil
}

func (r *MemoryBinRepository) Delete(ctx context.Context, binID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bins[binID]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.bins, binID)
	for i, id := range r.order {
		if id == binID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
