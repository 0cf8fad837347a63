package audit

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Queue hands entries to a background worker so slow or failing sinks never
// hold up the operation being audited. When the buffer is full the entry is
// dropped and logged.
type Queue struct {
	sink  Sink
	inbox chan Entry
	done  chan struct{}
	log   *logrus.Entry

	mu     sync.RWMutex
	closed bool
}

func NewQueue(sink Sink, size int, log *logrus.Entry) *Queue {
	if size <= 0 {
		size = 1
	}
	return &Queue{
		sink:  sink,
		inbox: make(chan Entry, size),
		done:  make(chan struct{}),
		log:   log,
	}
}

// Start launches the worker. Call it once.
func (q *Queue) Start() {
	go q.run()
}

func (q *Queue) Record(_ context.Context, entry Entry) {
	entry = stamp(entry)

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.log.WithField("action", entry.Action).Warn("audit queue closed, entry dropped")
		return
	}

	select {
	case q.inbox <- entry:
	default:
		q.log.WithField("action", entry.Action).
			WithField("condominium_id", entry.CondominiumID).
			Warn("audit queue full, entry dropped")
	}
}

func (q *Queue) run() {
	defer close(q.done)
	for entry := range q.inbox {
		if err := q.sink.Append(context.Background(), entry); err != nil {
			q.log.WithError(err).
				WithField("action", entry.Action).
				WithField("condominium_id", entry.CondominiumID).
				Warn("audit entry dropped")
		}
	}
}

// Close stops accepting entries and waits for the worker to drain the
// buffer. Start must have been called.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.inbox)
	q.mu.Unlock()

	<-q.done
}
