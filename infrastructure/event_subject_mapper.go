package infrastructure

import (
	"fmt"

	"pcbank/domain/events"
)

// subjectPrefix namespaces every subject this service publishes to
const subjectPrefix = "pcbank"

// DomainEventStream is the JetStream stream holding the subjects below
const DomainEventStream = "pcbank_events"

var subjects = map[events.EventType]string{
	events.EventTypeBalanceChange:  subjectPrefix + ".accounts.balance_changed",
	events.EventTypeTradeProposed:  subjectPrefix + ".trade.proposed",
	events.EventTypeTradeResolved:  subjectPrefix + ".trade.resolved",
	events.EventTypeListingSold:    subjectPrefix + ".market.listing_sold",
	events.EventTypeTicketRedeemed: subjectPrefix + ".tickets.redeemed",
	events.EventTypeLoanIssued:     subjectPrefix + ".loans.issued",
}

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	if subject, ok := subjects[event.Type()]; ok {
		return subject
	}
	return fmt.Sprintf("%s.unknown.%s", subjectPrefix, event.Type())
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	all := make([]string, 0, len(subjects))
	for _, s := range subjects {
		all = append(all, s)
	}
	return all
}
