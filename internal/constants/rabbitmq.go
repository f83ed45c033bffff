package constants

const (
	PropertyEventsExchange     = "listing_exchange"
	PropertyEventsExchangeType = "topic"

	RoutingKeyPropertyCreated = "property.created"
	RoutingKeyPropertyUpdated = "property.updated"
	RoutingKeyPropertyDeleted = "property.deleted"
)
