package usecase

import (
	"context"
	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
	"sync"
	"time"

	"github.com/mmcloughlin/geohash"
)

const geohashPrecision = 9

// MutationDeps - общие зависимости create/update/delete
type MutationDeps struct {
	Tx      port.TransactionManager
	Images  port.ImageStoragePort
	Events  port.PropertyEventPublisherPort // может быть nil
	Cache   port.FeaturedCachePort          // может быть nil
	Clock   port.Clock
	Timeout time.Duration // используется, если у контекста нет дедлайна
}

// mutationPipeline - одна атомарная мутация: транзакция, компенсация файлов при откате,
// побочные эффекты только после коммита
type mutationPipeline struct {
	deps MutationDeps
}

func newMutationPipeline(deps MutationDeps) *mutationPipeline {
	if deps.Clock == nil {
		deps.Clock = port.SystemClock{}
	}
	return &mutationPipeline{deps: deps}
}

// storedFiles - файлы, записанные хранилищем в ходе транзакции
type storedFiles struct {
	mu    sync.Mutex
	items []domain.StoredImage
}

func (s *storedFiles) add(img domain.StoredImage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, img)
}

func (s *storedFiles) list() []domain.StoredImage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.StoredImage(nil), s.items...)
}

type mutationFunc func(ctx context.Context, store port.PropertyTxStore, files *storedFiles) error

func (m *mutationPipeline) run(ctx context.Context, fn mutationFunc) error {
	if _, ok := ctx.Deadline(); !ok && m.deps.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.deps.Timeout)
		defer cancel()
	}

	files := &storedFiles{}
	err := m.deps.Tx.WithinTransaction(ctx, func(txCtx context.Context, store port.PropertyTxStore) error {
		if err := fn(txCtx, store, files); err != nil {
			return err
		}
		// Истекший дедлайн до коммита - тоже откат
		return txCtx.Err()
	})
	if err != nil {
		m.compensate(context.WithoutCancel(ctx), files.list())
		return domain.Aborted(err)
	}
	return nil
}

// compensate удаляет файлы, записанные в откаченной транзакции
func (m *mutationPipeline) compensate(ctx context.Context, files []domain.StoredImage) {
	if len(files) == 0 || m.deps.Images == nil {
		return
	}
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{"component": "MutationPipeline"})
	for _, f := range files {
		if err := m.deps.Images.Delete(ctx, f); err != nil {
			logger.Error("Failed to remove image file after rollback", err, port.Fields{"path": f.Path})
		}
	}
	logger.Warn("Removed image files of aborted transaction", port.Fields{"count": len(files)})
}

// afterCommit - событие и инвалидация кеша. Ошибки только логируются:
// мутация уже зафиксирована и не должна откатываться из-за брокера или кеша.
func (m *mutationPipeline) afterCommit(ctx context.Context, event domain.PropertyEvent) {
	ctx = context.WithoutCancel(ctx)
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":   "MutationPipeline",
		"event_type":  event.Type,
		"property_id": event.PropertyID,
	})

	if m.deps.Cache != nil {
		if err := m.deps.Cache.InvalidateFeatured(ctx); err != nil {
			logger.Error("Failed to invalidate featured cache after commit", err, nil)
		}
	}
	if m.deps.Events != nil {
		if err := m.deps.Events.PublishPropertyEvent(ctx, event); err != nil {
			logger.Error("Failed to publish property event after commit", err, nil)
		}
	}
}

func (m *mutationPipeline) now() time.Time {
	return m.deps.Clock.Now()
}

// locationHash - geohash по координатам, nil если хотя бы одной координаты нет
func locationHash(lat, lon *float64) *string {
	if lat == nil || lon == nil {
		return nil
	}
	h := geohash.EncodeWithPrecision(*lat, *lon, geohashPrecision)
	return &h
}
