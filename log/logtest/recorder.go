/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package logtest

import (
	"sync"

	"github.com/ssgreg/logf"

	"github.com/acronis/go-evalcache/log"
)

// RecordedEntry is a logged entry with fields of the logger and of the call merged together.
type RecordedEntry struct {
	Level  log.Level
	Text   string
	Fields []log.Field
}

// FindField tries to find field in logging entry by key.
func (re *RecordedEntry) FindField(key string) (*log.Field, bool) {
	for i := range re.Fields {
		if re.Fields[i].Key == key {
			return &re.Fields[i], true
		}
	}
	return nil, false
}

// StringField returns the value of a field added with log.String (e.g. "user_key" or "store_id").
func (re *RecordedEntry) StringField(key string) (string, bool) {
	field, ok := re.FindField(key)
	if !ok || field.Type != logf.FieldTypeBytesToString {
		return "", false
	}
	return string(field.Bytes), true
}

type entryLog struct {
	mu      sync.RWMutex
	entries []RecordedEntry
}

//nolint:gocritic
func (l *entryLog) WriteEntry(e logf.Entry) {
	fields := make([]log.Field, 0, len(e.DerivedFields)+len(e.Fields))
	fields = append(fields, e.DerivedFields...)
	fields = append(fields, e.Fields...)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, RecordedEntry{Level: levelOf(e.Level), Text: e.Text, Fields: fields})
}

// Recorder is a log.FieldLogger that keeps every entry (debug included) in memory,
// so tests can assert on what a Store or a refresh has logged.
type Recorder struct {
	*log.LogfAdapter
	log *entryLog
}

// NewRecorder returns an initialized Recorder.
func NewRecorder() *Recorder {
	l := &entryLog{}
	return &Recorder{&log.LogfAdapter{Logger: logf.NewLogger(logf.LevelDebug, l)}, l}
}

// With returns a Recorder that adds fields to every entry and shares recorded entries with r.
func (r *Recorder) With(fs ...log.Field) log.FieldLogger {
	return &Recorder{r.LogfAdapter.With(fs...).(*log.LogfAdapter), r.log}
}

// WithLevel returns a Recorder that drops entries below level and shares recorded entries with r.
func (r *Recorder) WithLevel(level log.Level) log.FieldLogger {
	return &Recorder{r.LogfAdapter.WithLevel(level).(*log.LogfAdapter), r.log}
}

// Entries returns all recorded entries.
func (r *Recorder) Entries() []RecordedEntry {
	r.log.mu.RLock()
	defer r.log.mu.RUnlock()
	return append([]RecordedEntry(nil), r.log.entries...)
}

// FindEntry returns the first entry with the given message.
func (r *Recorder) FindEntry(msg string) (RecordedEntry, bool) {
	entries := r.FindEntries(msg)
	if len(entries) == 0 {
		return RecordedEntry{}, false
	}
	return entries[0], true
}

// FindEntries returns all entries with the given message in the order they were logged.
func (r *Recorder) FindEntries(msg string) []RecordedEntry {
	r.log.mu.RLock()
	defer r.log.mu.RUnlock()
	var found []RecordedEntry
	for _, entry := range r.log.entries {
		if entry.Text == msg {
			found = append(found, entry)
		}
	}
	return found
}

// Reset drops all recorded entries.
func (r *Recorder) Reset() {
	r.log.mu.Lock()
	defer r.log.mu.Unlock()
	r.log.entries = nil
}

func levelOf(level logf.Level) log.Level {
	switch level {
	case logf.LevelError:
		return log.LevelError
	case logf.LevelWarn:
		return log.LevelWarn
	case logf.LevelDebug:
		return log.LevelDebug
	default:
		return log.LevelInfo
	}
}
