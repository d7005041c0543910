package migration

import (
	"slices"
	"sync"
)

// Result records the actions processed by one install or uninstall call.
// Failed actions are not part of it; they are reported as an
// *ActionsFailedError next to the Result.
type Result struct {
	Operation Operation
	Name      string
	Migration Migration
	Actions   Actions
}

func newResult(op Operation, name string, m Migration, outcomes []Outcome) *Result {
	r := &Result{Operation: op, Name: name, Migration: m}
	for _, o := range outcomes {
		if !o.Failed() {
			r.Actions = append(r.Actions, o.Action)
		}
	}
	return r
}

// Results is the append-only log of results for one process lifetime.
// It is safe for concurrent use.
type Results struct {
	mu      sync.RWMutex
	results []*Result
}

// NewResults returns an empty log.
func NewResults() *Results {
	return &Results{}
}

// Add appends r.
func (l *Results) Add(r *Result) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.results = append(l.results, r)
}

// All returns the results in the order they were added.
func (l *Results) All() []*Result {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.results)
}

// Len returns the number of results.
func (l *Results) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.results)
}

// Notifier receives human-readable messages for an external surface such as
// flash messages in a web response.
type Notifier interface {
	Notify(level, message string)
}

// Message is one notification.
type Message struct {
	Level   string
	Message string
}

// Messages is a Notifier that keeps messages in memory.
type Messages struct {
	mu       sync.Mutex
	messages []Message
}

// Notify implements Notifier.
func (m *Messages) Notify(level, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, Message{Level: level, Message: message})
}

// All returns the collected messages in order.
func (m *Messages) All() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.messages)
}
