package lambdakit

import (
	"github.com/user/lambdakit/packages/bytecode"
)

// StepEvent records one executed instruction.
// 実行ログの最小単位。追記のみで運用する。
type StepEvent struct {
	Step  int
	PC    int
	Instr bytecode.Instruction
	// Depth is the frame depth after the instruction ran.
	Depth   int
	HeapLen int
}

// TraceLog is an append-only sequence of step events.
type TraceLog struct {
	events []StepEvent
}

// NewTraceLog creates an empty trace.
func NewTraceLog() *TraceLog {
	return &TraceLog{events: make([]StepEvent, 0)}
}

// Append adds an event and returns its offset.
func (l *TraceLog) Append(e StepEvent) int {
	l.events = append(l.events, e)
	return len(l.events) - 1
}

// Len returns the number of recorded steps.
func (l *TraceLog) Len() int {
	return len(l.events)
}

// Get returns the event at a given offset
func (l *TraceLog) Get(offset int) (StepEvent, bool) {
	if offset < 0 || offset >= len(l.events) {
		return StepEvent{}, false
	}
	return l.events[offset], true
}

// Range returns events from start (inclusive) to end (exclusive)
func (l *TraceLog) Range(start, end int) []StepEvent {
	if start < 0 {
		start = 0
	}
	if end > len(l.events) {
		end = len(l.events)
	}
	if start >= end {
		return nil
	}
	result := make([]StepEvent, end-start)
	copy(result, l.events[start:end])
	return result
}

// MaxDepth is the deepest frame reached in the trace.
func (l *TraceLog) MaxDepth() int {
	deepest := 0
	for _, e := range l.events {
		if e.Depth > deepest {
			deepest = e.Depth
		}
	}
	return deepest
}
