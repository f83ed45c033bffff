package usecase

import (
	"context"
	"fmt"
	"listing-service/internal/core/port"
	"sort"
)

// AmenityAssociationManager - связь объект-удобство с семантикой множества
type AmenityAssociationManager struct{}

func NewAmenityAssociationManager() *AmenityAssociationManager {
	return &AmenityAssociationManager{}
}

// Attach привязывает ровно этот набор к новому объекту (сверять не с чем)
func (m *AmenityAssociationManager) Attach(ctx context.Context, store port.PropertyTxStore, propertyID int64, amenityIDs []int64) error {
	ids := uniqueIDs(amenityIDs)
	if len(ids) == 0 {
		return nil
	}
	if err := store.LinkAmenities(ctx, propertyID, ids); err != nil {
		return fmt.Errorf("failed to attach amenities: %w", err)
	}
	return nil
}

// Replace заменяет весь набор: считает разницу и отвязывает лишнее, привязывает новое.
// Обе половины выполняются в транзакции вызывающего.
func (m *AmenityAssociationManager) Replace(ctx context.Context, store port.PropertyTxStore, propertyID int64, amenityIDs []int64) (added, removed []int64, err error) {
	current, err := store.AmenityIDs(ctx, propertyID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load current amenities: %w", err)
	}

	added, removed = diffIDSets(current, amenityIDs)

	if len(removed) > 0 {
		if err := store.UnlinkAmenities(ctx, propertyID, removed); err != nil {
			return nil, nil, fmt.Errorf("failed to detach amenities: %w", err)
		}
	}
	if len(added) > 0 {
		if err := store.LinkAmenities(ctx, propertyID, added); err != nil {
			return nil, nil, fmt.Errorf("failed to attach amenities: %w", err)
		}
	}
	return added, removed, nil
}

// diffIDSets возвращает (desired - current, current - desired), оба отсортированы
func diffIDSets(current, desired []int64) (toAdd, toRemove []int64) {
	cur := make(map[int64]struct{}, len(current))
	for _, id := range current {
		cur[id] = struct{}{}
	}
	want := make(map[int64]struct{}, len(desired))
	for _, id := range desired {
		want[id] = struct{}{}
	}

	for id := range want {
		if _, ok := cur[id]; !ok {
			toAdd = append(toAdd, id)
		}
	}
	for id := range cur {
		if _, ok := want[id]; !ok {
			toRemove = append(toRemove, id)
		}
	}
	sort.Slice(toAdd, func(i, j int) bool { return toAdd[i] < toAdd[j] })
	sort.Slice(toRemove, func(i, j int) bool { return toRemove[i] < toRemove[j] })
	return toAdd, toRemove
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
