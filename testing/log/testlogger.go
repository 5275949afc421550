package log

import (
	"fmt"
	"sync"

	"github.com/dipalisurve2377/organization-events-sub001/log"
)

//NewNilLogger is used mostly in testing, prints nothing but remembers every entry
func NewNilLogger() *testLogger {
	return &testLogger{entriesStore: &entriesStore{}}
}

type entriesStore struct {
	mutex   sync.Mutex
	entries []entry
}

type testLogger struct {
	level        log.Level
	fields       log.Fields
	entriesStore *entriesStore
}

type entry struct {
	Msg    string
	Level  log.Level
	Fields log.Fields
}

func (n *testLogger) Log(level log.Level, v ...interface{}) {
	n.add(entry{Msg: fmt.Sprint(v...), Level: level, Fields: n.fields})
}

func (n *testLogger) Logf(level log.Level, template string, args ...interface{}) {
	n.add(entry{Msg: fmt.Sprintf(template, args...), Level: level, Fields: n.fields})
}

func (n *testLogger) SetLevel(level log.Level) {
	n.level = level
}

func (n *testLogger) WithFields(fields log.Fields) log.Logger {
	mergedFields := make(log.Fields)

	for k, v := range n.fields {
		mergedFields[k] = v
	}

	for k, v := range fields {
		mergedFields[k] = v
	}

	return &testLogger{
		entriesStore: n.entriesStore,
		level:        n.level,
		fields:       mergedFields,
	}
}

func (n *testLogger) add(e entry) {
	n.entriesStore.mutex.Lock()
	defer n.entriesStore.mutex.Unlock()

	n.entriesStore.entries = append(n.entriesStore.entries, e)
}

func (n *testLogger) Entries() []entry {
	n.entriesStore.mutex.Lock()
	defer n.entriesStore.mutex.Unlock()

	r := make([]entry, len(n.entriesStore.entries))
	copy(r, n.entriesStore.entries)

	return r
}

func (n *testLogger) Messages() []string {
	entries := n.Entries()
	r := make([]string, len(entries))
	for i := range entries {
		r[i] = entries[i].Msg
	}

	return r
}

// MessagesWithLevel returns messages of entries written with the given level
func (n *testLogger) MessagesWithLevel(level log.Level) []string {
	var r []string
	for _, e := range n.Entries() {
		if e.Level == level {
			r = append(r, e.Msg)
		}
	}

	return r
}

func (n *testLogger) LastMessage() string {
	entries := n.Entries()
	if len(entries) > 0 {
		return entries[len(entries)-1].Msg
	}

	return ""
}

func (n *testLogger) Clear() {
	n.entriesStore.mutex.Lock()
	defer n.entriesStore.mutex.Unlock()

	n.entriesStore.entries = make([]entry, 0)
	n.level = log.InfoLevel
	n.fields = nil
}
