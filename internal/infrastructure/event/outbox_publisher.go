package event

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/stocksense/backend/internal/domain/shared"
)

// OutboxPublisher turns domain events into outbox rows inside the caller's
// transaction, so an aggregate and its events commit or roll back together.
type OutboxPublisher struct {
	serializer *EventSerializer
}

var _ shared.OutboxEventSaver = (*OutboxPublisher)(nil)

// NewOutboxPublisher creates a new outbox publisher
func NewOutboxPublisher(serializer *EventSerializer) *OutboxPublisher {
	return &OutboxPublisher{serializer: serializer}
}

// PublishWithTx serializes the events and stores them as pending outbox
// entries using the given transaction.
func (p *OutboxPublisher) PublishWithTx(ctx context.Context, tx *gorm.DB, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	entries, err := p.toEntries(events)
	if err != nil {
		return err
	}
	return NewGormOutboxRepository(tx).Save(ctx, entries...)
}

func (p *OutboxPublisher) toEntries(events []shared.DomainEvent) ([]*shared.OutboxEntry, error) {
	entries := make([]*shared.OutboxEntry, 0, len(events))
	for _, event := range events {
		payload, err := p.serializer.Serialize(event)
		if err != nil {
			return nil, err
		}
		entries = append(entries, shared.NewOutboxEntry(event, payload))
	}
	return entries, nil
}

// SaveEvents implements shared.OutboxEventSaver. The domain layer hands the
// transaction over as an opaque value; it must be a *gorm.DB here.
func (p *OutboxPublisher) SaveEvents(ctx context.Context, txProvider interface{}, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	tx, ok := txProvider.(*gorm.DB)
	if !ok {
		return fmt.Errorf("txProvider must be a *gorm.DB, got %T", txProvider)
	}
	return p.PublishWithTx(ctx, tx, events...)
}

// OutboxEventPublisher adapts the outbox to shared.EventPublisher for services
// that publish outside an explicit transaction. Events land in the outbox
// table and the processor delivers them to the bus.
type OutboxEventPublisher struct {
	db        *gorm.DB
	publisher *OutboxPublisher
}

var _ shared.EventPublisher = (*OutboxEventPublisher)(nil)

// NewOutboxEventPublisher creates a new OutboxEventPublisher
func NewOutboxEventPublisher(db *gorm.DB, publisher *OutboxPublisher) *OutboxEventPublisher {
	return &OutboxEventPublisher{db: db, publisher: publisher}
}

// Publish writes the events to the outbox table
func (p *OutboxEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	return p.publisher.PublishWithTx(ctx, p.db, events...)
}
