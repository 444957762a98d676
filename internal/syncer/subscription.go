package syncer

import (
	"context"
	"fmt"
	"sync"

	"github.com/five82/tick/internal/appsync"
	"github.com/five82/tick/internal/state"
	"github.com/five82/tick/internal/todo"
)

// Subscription is a running listener for created items.
type Subscription struct {
	stream appsync.Stream
	done   chan struct{}
	once   sync.Once
}

// Subscribe opens the push channel for created items. Items this session
// created are dropped as echoes; every other one is added to the store.
// The listener runs until Close.
func (c *Controller) Subscribe(ctx context.Context) (*Subscription, error) {
	stream, err := c.backend.SubscribeCreated(ctx)
	if err != nil {
		c.logger.Printf("subscribe failed: %v", err)
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	sub := &Subscription{stream: stream, done: make(chan struct{})}
	go func() {
		defer close(sub.done)
		for item := range stream.Events() {
			c.handleCreated(item)
		}
		if err := stream.Err(); err != nil {
			c.logger.Printf("subscription ended: %v", err)
		}
	}()
	return sub, nil
}

// handleCreated applies one push event and reports whether it was added.
func (c *Controller) handleCreated(item todo.Item) bool {
	if c.session.Owns(item) {
		return false
	}
	c.store.Dispatch(state.AddItem(item))
	return true
}

// Done is closed once the listener has stopped.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Err reports why the push channel ended. It is nil while running and
// after Close.
func (s *Subscription) Err() error {
	return s.stream.Err()
}

// Close tears the push channel down and waits for the listener to exit.
func (s *Subscription) Close() error {
	var err error
	s.once.Do(func() {
		err = s.stream.Close()
		<-s.done
	})
	return err
}
