package hub

import (
	"study-room/internal/domain"

	"github.com/sirupsen/logrus"
)

// maxLogEntries bounds the in-memory log per room; older entries fall off
// the front, history beyond that lives only in the database.
const maxLogEntries = 200

// MessageLog is the ordered, live-updating message list of one room. It is
// a pure projection of the event stream layered over a history seed: insert
// appends, update replaces the matching id, delete filters it out. Entries
// already present are never appended twice, so replaying the seed window's
// events cannot duplicate.
//
// The log is not safe for concurrent use; the hub goroutine owns it.
type MessageLog struct {
	entries []domain.Message
}

// NewMessageLog returns an empty log.
func NewMessageLog() *MessageLog {
	return &MessageLog{}
}

// Seed replaces the log with a history snapshot ordered ascending by
// insertion time.
func (l *MessageLog) Seed(msgs []domain.Message) {
	l.entries = make([]domain.Message, len(msgs))
	copy(l.entries, msgs)
	l.trim()
}

// Apply folds one message change event into the list.
func (l *MessageLog) Apply(event domain.RoomEvent) {
	if event.Table != domain.EventTableMessages {
		return
	}
	msg, err := event.Message()
	if err != nil {
		logrus.WithError(err).WithField("op", event.Op).Warn("Skipping malformed message event")
		return
	}

	switch event.Op {
	case domain.EventInsert:
		if l.indexOf(msg.ID) >= 0 {
			return // already known, e.g. seed overlapped the event stream
		}
		l.entries = append(l.entries, msg)
		l.trim()
	case domain.EventUpdate:
		if i := l.indexOf(msg.ID); i >= 0 {
			l.entries[i] = msg
		}
	case domain.EventDelete:
		if i := l.indexOf(msg.ID); i >= 0 {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
		}
	default:
		logrus.WithField("op", event.Op).Warn("Unknown message event operation")
	}
}

// Messages returns a copy of the ordered list.
func (l *MessageLog) Messages() []domain.Message {
	out := make([]domain.Message, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *MessageLog) Len() int { return len(l.entries) }

func (l *MessageLog) indexOf(id uint) int {
	for i := range l.entries {
		if l.entries[i].ID == id {
			return i
		}
	}
	return -1
}

func (l *MessageLog) trim() {
	if len(l.entries) > maxLogEntries {
		l.entries = l.entries[len(l.entries)-maxLogEntries:]
	}
}
