// Package actions holds the small amount of state behind user-triggered
// backend calls: a per-control in-flight guard and a transient message.
package actions

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var ErrInFlight = errors.New("request already in flight")

// Guard lets one call run at a time. Overlapping calls are refused, not queued.
type Guard struct{ busy atomic.Bool }

func (g *Guard) Busy() bool { return g.busy.Load() }

// Do runs fn unless another Do is still running.
func (g *Guard) Do(ctx context.Context, fn func(context.Context) error) error {
	if !g.busy.CompareAndSwap(false, true) {
		return ErrInFlight
	}
	defer g.busy.Store(false)
	return fn(ctx)
}

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"

	FlashTTL = 5 * time.Second
)

type Message struct {
	Text      string    `json:"text"`
	Level     Level     `json:"level"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Flash keeps the last user-facing message until it expires or is dismissed.
type Flash struct {
	mu  sync.Mutex
	msg *Message
	ttl time.Duration
}

func NewFlash(ttl time.Duration) *Flash {
	if ttl <= 0 {
		ttl = FlashTTL
	}
	return &Flash{ttl: ttl}
}

func (f *Flash) Set(now time.Time, lvl Level, text string) Message {
	m := Message{Text: text, Level: lvl, ExpiresAt: now.Add(f.ttl)}
	f.mu.Lock()
	f.msg = &m
	f.mu.Unlock()
	return m
}

func (f *Flash) Current(now time.Time) (Message, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.msg == nil {
		return Message{}, false
	}
	if !now.Before(f.msg.ExpiresAt) {
		f.msg = nil
		return Message{}, false
	}
	return *f.msg, true
}

func (f *Flash) Dismiss() {
	f.mu.Lock()
	f.msg = nil
	f.mu.Unlock()
}

// Guards hands out one Guard per control key.
type Guards struct{ m sync.Map }

func (gs *Guards) Get(key string) *Guard {
	g, _ := gs.m.LoadOrStore(key, &Guard{})
	return g.(*Guard)
}
