package models

// All lists every persisted model in foreign-key dependency order.
func All() []any {
	return []any{
		&Event{},
		&Stage{},
		&TicketPackage{},
		&Box{},
		&Cart{},
		&CartLine{},
		&Purchase{},
		&PurchaseLine{},
		&Ticket{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
