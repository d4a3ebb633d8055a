package syncx

import (
	"context"
	"time"

	"github.com/examhall/examhall/internal/backend"
)

// Session activity events, appended as sessions progress so a teacher-facing
// live view can follow students without polling answer rows.
const (
	EventSessionStarted   = "SessionStarted"
	EventSectionCompleted = "SectionCompleted"
	EventExamSubmitted    = "ExamSubmitted"
	EventSessionExited    = "SessionExited"
)

type Event struct {
	StudentID string
	Type      string
	Key       string // natural key: examID
	DataJSON  string
}

type EventLog struct {
	client backend.Client
}

func NewEventLog(client backend.Client) *EventLog { return &EventLog{client: client} }

func (l *EventLog) Append(ctx context.Context, e Event) error {
	_, err := l.client.Insert(ctx, backend.TableEvents, backend.Row{
		"student_id": e.StudentID,
		"typ":        e.Type,
		"key":        e.Key,
		"data":       e.DataJSON,
		"created_at": time.Now().Unix(),
	})
	return err
}
