// Package memqueue implements the message queue port in process. It is the
// fallback when no NATS server is configured: subjects and wildcards behave
// like NATS, but messages are lost on restart.
package memqueue

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/Strob0t/TwinForge/internal/logger"
	"github.com/Strob0t/TwinForge/internal/port/messagequeue"
)

// ErrClosed is returned by Publish and Subscribe after Drain or Close.
var ErrClosed = errors.New("memqueue: closed")

const bufferSize = 256

type message struct {
	requestID string
	subject   string
	data      []byte
}

type subscription struct {
	pattern string
	handler messagequeue.Handler
	ch      chan message
	done    chan struct{} // stop now
	drain   chan struct{} // stop once the buffer is empty
	once    sync.Once
}

func (s *subscription) stop() { s.once.Do(func() { close(s.done) }) }

// Queue is an in-process messagequeue.Queue. Each subscription has its own
// buffered channel and worker goroutine, so a slow handler only delays its
// own subject.
type Queue struct {
	mu     sync.RWMutex
	subs   map[int]*subscription
	nextID int
	closed bool

	wg sync.WaitGroup
}

var _ messagequeue.Queue = (*Queue)(nil)

// New creates an empty Queue.
func New() *Queue {
	return &Queue{subs: make(map[int]*subscription)}
}

// Publish delivers data to every subscription whose pattern matches
// subject. It blocks while a matching subscription's buffer is full.
func (q *Queue) Publish(ctx context.Context, subject string, data []byte) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return ErrClosed
	}
	var targets []*subscription
	for _, s := range q.subs {
		if Match(s.pattern, subject) {
			targets = append(targets, s)
		}
	}
	q.mu.RUnlock()

	m := message{requestID: logger.RequestID(ctx), subject: subject, data: append([]byte(nil), data...)}
	for _, s := range targets {
		select {
		case s.ch <- m:
		case <-s.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Subscribe starts a worker for pattern. The returned function stops it.
func (q *Queue) Subscribe(_ context.Context, pattern string, handler messagequeue.Handler) (func(), error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil, ErrClosed
	}

	s := &subscription{
		pattern: pattern,
		handler: handler,
		ch:      make(chan message, bufferSize),
		done:    make(chan struct{}),
		drain:   make(chan struct{}),
	}
	id := q.nextID
	q.nextID++
	q.subs[id] = s

	q.wg.Add(1)
	go q.work(s)

	return func() {
		q.mu.Lock()
		delete(q.subs, id)
		q.mu.Unlock()
		s.stop()
	}, nil
}

func (q *Queue) work(s *subscription) {
	defer q.wg.Done()
	for {
		select {
		case m := <-s.ch:
			q.deliver(s, m)
		case <-s.done:
			return
		case <-s.drain:
			for {
				select {
				case m := <-s.ch:
					q.deliver(s, m)
				default:
					return
				}
			}
		}
	}
}

func (q *Queue) deliver(s *subscription, m message) {
	ctx := context.Background()
	if m.requestID != "" {
		ctx = logger.WithRequestID(ctx, m.requestID)
	}
	if err := messagequeue.Validate(m.subject, m.data); err != nil {
		slog.Error("memqueue: dropping invalid message", "subject", m.subject, "error", err)
		return
	}
	if err := s.handler(ctx, m.subject, m.data); err != nil {
		slog.Error("memqueue: message handler failed", "subject", m.subject, "error", err)
	}
}

// Drain stops accepting messages, lets every worker finish its buffer and
// waits for them.
func (q *Queue) Drain() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	for _, s := range q.subs {
		close(s.drain)
	}
	q.subs = map[int]*subscription{}
	q.mu.Unlock()

	q.wg.Wait()
	return nil
}

// Close stops every worker without processing buffered messages.
func (q *Queue) Close() error {
	q.mu.Lock()
	q.closed = true
	for _, s := range q.subs {
		s.stop()
	}
	q.subs = map[int]*subscription{}
	q.mu.Unlock()

	q.wg.Wait()
	return nil
}

// IsConnected reports whether the queue still accepts messages.
func (q *Queue) IsConnected() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return !q.closed
}

// Match reports whether subject matches a NATS-style pattern, where "*"
// matches one token and a trailing ">" matches one or more.
func Match(pattern, subject string) bool {
	pt := strings.Split(pattern, ".")
	st := strings.Split(subject, ".")
	for i, p := range pt {
		if p == ">" {
			return i == len(pt)-1 && len(st) > i
		}
		if i >= len(st) {
			return false
		}
		if p != "*" && p != st[i] {
			return false
		}
	}
	return len(pt) == len(st)
}
