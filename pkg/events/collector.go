package events

// EventCollector is embedded in aggregates to buffer domain events raised during a
// state transition until the repository persists them.
type EventCollector struct {
	events []DomainEvent
}

// Record buffers an event.
func (c *EventCollector) Record(event DomainEvent) {
	c.events = append(c.events, event)
}

// Events returns the buffered events without clearing them.
func (c *EventCollector) Events() []DomainEvent {
	return c.events
}

// ClearEvents returns the buffered events and empties the buffer.
func (c *EventCollector) ClearEvents() []DomainEvent {
	collected := c.events
	c.events = nil
	return collected
}
