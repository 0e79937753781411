// Package events carries in-process domain notifications between services.
package events

import (
	"context"
	"io"
	"log"

	evbus "github.com/asaskevich/EventBus"
)

// TopicItemChanged fires after a penny-list item is created, updated or deleted.
const TopicItemChanged = "item:changed"

// ItemChanged is the payload published on TopicItemChanged.
type ItemChanged struct {
	SKU    string
	Action string // "created", "updated" or "deleted"
}

// Bus wraps a synchronous EventBus. Handlers run on the publisher's goroutine.
type Bus struct {
	bus    evbus.Bus
	logger *log.Logger
}

func NewBus(logger *log.Logger) *Bus {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Bus{bus: evbus.New(), logger: logger}
}

func (b *Bus) PublishItemChanged(ev ItemChanged) {
	if b == nil {
		return
	}
	b.logger.Printf("events: publish topic=%s sku=%s action=%s", TopicItemChanged, ev.SKU, ev.Action)
	b.bus.Publish(TopicItemChanged, ev)
}

func (b *Bus) OnItemChanged(fn func(ItemChanged)) error {
	return b.bus.Subscribe(TopicItemChanged, fn)
}

// PrefixInvalidator is the slice of a cache needed to drop derived entries.
type PrefixInvalidator interface {
	DeletePrefix(ctx context.Context, prefix string) error
}

// InvalidateOnItemChange drops every cache entry under prefix whenever an
// item changes.
func (b *Bus) InvalidateOnItemChange(c PrefixInvalidator, prefix string) error {
	return b.OnItemChanged(func(ev ItemChanged) {
		if err := c.DeletePrefix(context.Background(), prefix); err != nil {
			b.logger.Printf("events: invalidate prefix=%s sku=%s error=%v", prefix, ev.SKU, err)
		}
	})
}
