package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type column of outbox_events.
type OutboxAggregateType string

const (
	AggregatePurchase OutboxAggregateType = "purchase"
	AggregateTicket   OutboxAggregateType = "ticket"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregatePurchase,
	AggregateTicket,
}

// IsValid reports whether the value matches a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type column of outbox_events.
type OutboxEventType string

const (
	EventPurchasePaid      OutboxEventType = "purchase_paid"
	EventPurchaseCancelled OutboxEventType = "purchase_cancelled"
	EventTicketTransferred OutboxEventType = "ticket_transferred"
)

var validOutboxEventTypes = []OutboxEventType{
	EventPurchasePaid,
	EventPurchaseCancelled,
	EventTicketTransferred,
}

// IsValid reports whether the value matches a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// Aggregate returns the aggregate an event type is emitted against, or "" for
// unknown types.
func (e OutboxEventType) Aggregate() OutboxAggregateType {
	switch e {
	case EventPurchasePaid, EventPurchaseCancelled:
		return AggregatePurchase
	case EventTicketTransferred:
		return AggregateTicket
	}
	return ""
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

// OutboxDLQErrorReason records why a row was parked in outbox_dlq.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

func (r OutboxDLQErrorReason) IsValid() bool {
	switch r {
	case OutboxDLQReasonMaxAttempts, OutboxDLQReasonNonRetryable:
		return true
	}
	return false
}
