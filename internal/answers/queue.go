package answers

import (
	"context"
	"log"
	"sync"
)

type write struct {
	studentID, examID, questionID, value string
}

func (w write) key() string {
	return w.studentID + "|" + w.examID + "|" + w.questionID
}

// WriteQueue serializes writes per answer key. The student's view is updated
// optimistically before the write lands; writes for different questions run
// independently, but rapid re-answers of one question are applied in order so
// a stale write can never clobber a newer one.
type WriteQueue struct {
	store *Store

	mu      sync.Mutex
	pending map[string][]write
	active  map[string]bool
	wg      sync.WaitGroup
}

func NewWriteQueue(store *Store) *WriteQueue {
	return &WriteQueue{
		store:   store,
		pending: map[string][]write{},
		active:  map[string]bool{},
	}
}

// Enqueue schedules the write and returns immediately. Failures are logged,
// never surfaced: a broken backend must not block the student mid-exam.
func (q *WriteQueue) Enqueue(studentID, examID, questionID, value string) {
	w := write{studentID: studentID, examID: examID, questionID: questionID, value: value}
	key := w.key()

	q.mu.Lock()
	q.pending[key] = append(q.pending[key], w)
	if q.active[key] {
		// The running drainer for this key will pick it up.
		q.mu.Unlock()
		return
	}
	q.active[key] = true
	q.mu.Unlock()

	q.wg.Add(1)
	go q.drain(key)
}

func (q *WriteQueue) drain(key string) {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		queue := q.pending[key]
		if len(queue) == 0 {
			q.active[key] = false
			delete(q.pending, key)
			q.mu.Unlock()
			return
		}
		w := queue[0]
		q.pending[key] = queue[1:]
		q.mu.Unlock()

		if err := q.store.Put(context.Background(), w.studentID, w.examID, w.questionID, w.value); err != nil {
			log.Printf("answer write failed (kept local): %v", err)
		}
	}
}

// Flush blocks until every pending write has been attempted. Called before
// scoring so the stored answers match what the student last saw.
func (q *WriteQueue) Flush() {
	q.wg.Wait()
}
