package testutil

import (
	"sync"

	"github.com/mcoot/connectaword/internal/model"
)

// FakeChannel records outbound messages in memory in place of a real connection
type FakeChannel struct {
	id string

	mu          sync.Mutex
	messages    []model.Outbound
	closed      bool
	closeReason string
	sendErr     error
}

// NewFakeChannel creates a FakeChannel with the given id
func NewFakeChannel(id string) *FakeChannel {
	return &FakeChannel{id: id}
}

func (c *FakeChannel) ID() string {
	return c.id
}

// Send records the message, or returns the configured error
func (c *FakeChannel) Send(msg model.Outbound) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.messages = append(c.messages, msg)
	return nil
}

// Close marks the channel closed; only the first reason is kept
func (c *FakeChannel) Close(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.closeReason = reason
}

// FailSends makes every later Send return err
func (c *FakeChannel) FailSends(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendErr = err
}

func (c *FakeChannel) Messages() []model.Outbound {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Outbound(nil), c.messages...)
}

// States returns every state update received, oldest first
func (c *FakeChannel) States() []model.GameState {
	var states []model.GameState
	for _, msg := range c.Messages() {
		if su, ok := msg.(model.StateUpdate); ok {
			states = append(states, su.State)
		}
	}
	return states
}

// LastState returns the most recent state update, or false if none arrived
func (c *FakeChannel) LastState() (model.GameState, bool) {
	states := c.States()
	if len(states) == 0 {
		return model.GameState{}, false
	}
	return states[len(states)-1], true
}

// Announcements returns the text of every announcement received
func (c *FakeChannel) Announcements() []string {
	var out []string
	for _, msg := range c.Messages() {
		if a, ok := msg.(model.Announcement); ok {
			out = append(out, a.Message)
		}
	}
	return out
}

func (c *FakeChannel) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *FakeChannel) CloseReason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeReason
}

// Clear drops recorded messages
func (c *FakeChannel) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
}
