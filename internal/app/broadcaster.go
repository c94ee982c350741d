package app

import (
	"sync"

	"quizboard-service/internal/domain"
)

// Broadcaster fans leaderboard snapshots out to subscribers, one topic per
// quiz. Delivery is best effort: a slow subscriber gets its stale snapshot
// replaced rather than blocking the publisher.
type Broadcaster struct {
	mu     sync.Mutex
	topics map[string]map[chan []domain.Attempt]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{topics: make(map[string]map[chan []domain.Attempt]struct{})}
}

// Subscribe returns a channel receiving leaderboard snapshots for quizID.
// The caller must invoke the returned cancel function to avoid leaks.
func (b *Broadcaster) Subscribe(quizID string) (<-chan []domain.Attempt, func()) {
	ch := make(chan []domain.Attempt, 8)

	b.mu.Lock()
	subs, ok := b.topics[quizID]
	if !ok {
		subs = make(map[chan []domain.Attempt]struct{})
		b.topics[quizID] = subs
	}
	subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs, ok := b.topics[quizID]
		if !ok {
			return
		}
		if _, present := subs[ch]; present {
			delete(subs, ch)
			close(ch)
		}
		if len(subs) == 0 {
			delete(b.topics, quizID)
		}
	}
	return ch, cancel
}

// Publish delivers a snapshot to every subscriber of quizID. Subscribers
// that have not drained their channel get the oldest snapshot dropped so the
// newest always lands.
func (b *Broadcaster) Publish(quizID string, snapshot []domain.Attempt) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.topics[quizID] {
		select {
		case ch <- snapshot:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}
