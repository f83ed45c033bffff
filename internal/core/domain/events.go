package domain

import "time"

type PropertyEventType string

const (
	EventPropertyCreated PropertyEventType = "property.created"
	EventPropertyUpdated PropertyEventType = "property.updated"
	EventPropertyDeleted PropertyEventType = "property.deleted"
)

// PropertyEvent публикуется после успешного коммита мутации
type PropertyEvent struct {
	Type          PropertyEventType
	PropertyID    int64
	OwnerID       int64
	Slug          string
	Status        PropertyStatus
	ChangedFields []string
	OccurredAt    time.Time
}

func NewPropertyEvent(t PropertyEventType, p *Property, changed []string, at time.Time) PropertyEvent {
	return PropertyEvent{
		Type:          t,
		PropertyID:    p.ID,
		OwnerID:       p.OwnerID,
		Slug:          p.Slug,
		Status:        p.Status,
		ChangedFields: changed,
		OccurredAt:    at,
	}
}
