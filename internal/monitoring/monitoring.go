package monitoring

import (
	"context"
	"sync"
	"time"

	nuts "github.com/vaudience/go-nuts"
)

const (
	publishTimeout = 5 * time.Second
	publishBuffer  = 256
)

// Event is a lifecycle fact as it leaves the service
type Event struct {
	Name       string            `json:"name"`
	Labels     map[string]string `json:"labels"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// Publisher forwards events to an external bus
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event Event) error
}

// Service records lifecycle events, counts them and optionally forwards them.
// Forwarding happens on a background worker so a slow broker never holds up
// the goroutine that raised the event.
type Service struct {
	publisher Publisher
	started   time.Time

	mu     sync.Mutex
	counts map[string]int64

	queue     chan Event
	done      chan struct{}
	closeOnce sync.Once
}

// NewService creates a new monitoring service. publisher may be nil.
func NewService(publisher Publisher) *Service {
	s := &Service{
		publisher: publisher,
		started:   time.Now(),
		counts:    make(map[string]int64),
		done:      make(chan struct{}),
	}
	if publisher == nil {
		close(s.done)
		return s
	}
	s.queue = make(chan Event, publishBuffer)
	go s.publishLoop()
	return s
}

func (s *Service) publishLoop() {
	defer close(s.done)
	for event := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if err := s.publisher.Publish(ctx, event.Name, event); err != nil {
			nuts.L.Errorf("[Monitoring] Failed to publish %s: %v", event.Name, err)
		}
		cancel()
	}
}

// Close stops accepting events for publishing and waits for queued ones to drain
func (s *Service) Close() error {
	s.closeOnce.Do(func() {
		if s.queue != nil {
			s.mu.Lock()
			close(s.queue)
			s.queue = nil
			s.mu.Unlock()
		}
	})
	<-s.done
	return nil
}

// RecordEvent records a monitored event with labels
func (s *Service) RecordEvent(eventName string, labels map[string]string) {
	ts := time.Now().UTC()

	nuts.L.Infof("[Monitoring] Event %s recorded at %v with labels: %v", eventName, ts, labels)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[eventName]++
	if s.queue == nil {
		return
	}
	select {
	case s.queue <- Event{Name: eventName, Labels: labels, OccurredAt: ts}:
	default:
		nuts.L.Warnf("[Monitoring] Publish queue full, dropping %s", eventName)
	}
}

// Subscribe records every listed event raised on emitter. Events must be
// emitted with a single map[string]string of labels.
func (s *Service) Subscribe(emitter *nuts.EventEmitter, events ...string) {
	for _, event := range events {
		name := event
		emitter.On(name, "monitoring", func(labels map[string]string) {
			s.RecordEvent(name, labels)
		})
	}
}

// EventCounts returns how often each event was recorded since start
func (s *Service) EventCounts() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out
}

func (s *Service) Uptime() time.Duration {
	return time.Since(s.started)
}
