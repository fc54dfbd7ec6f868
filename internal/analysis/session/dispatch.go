package session

import (
	"fmt"

	"github.com/kolkov/shapecheck/internal/analysis/heap"
	"github.com/kolkov/shapecheck/internal/analysis/trace"
)

var _ trace.Sink = (*Session)(nil)

// Dispatch applies one decoded trace event. It implements trace.Sink.
//
// Header, loc and end records are handled by the trace reader and are
// rejected here.
func (s *Session) Dispatch(ev *trace.Event) error {
	switch ev.Ev {
	case trace.EvObject:
		if ev.Object == nil {
			return fmt.Errorf("session: object record without object")
		}
		obj, err := ev.Object.Heap()
		if err != nil {
			return err
		}
		return s.Declare(obj)
	case trace.EvAlloc:
		v, err := ev.Value.Heap()
		if err != nil {
			return err
		}
		return s.Allocate(ev.Site, v)
	case trace.EvRead, trace.EvWrite:
		owner, err := ev.Owner.Heap()
		if err != nil {
			return fmt.Errorf("owner: %w", err)
		}
		v, err := ev.Value.Heap()
		if err != nil {
			return err
		}
		if ev.Ev == trace.EvRead {
			return s.FieldRead(ev.Site, owner, ev.Field, v)
		}
		return s.FieldWrite(ev.Site, owner, ev.Field, v)
	case trace.EvEnter:
		callee, err := ev.Callee.Heap()
		if err != nil {
			return fmt.Errorf("callee: %w", err)
		}
		return s.CallEnter(ev.Site, callee, ev.Ctor)
	case trace.EvExit:
		return s.dispatchExit(ev)
	default:
		return fmt.Errorf("session: cannot dispatch %q record", ev.Ev)
	}
}

func (s *Session) dispatchExit(ev *trace.Event) error {
	callee, err := ev.Callee.Heap()
	if err != nil {
		return fmt.Errorf("callee: %w", err)
	}
	receiver, err := ev.Receiver.Heap()
	if err != nil {
		return fmt.Errorf("receiver: %w", err)
	}
	ret, err := ev.Return.Heap()
	if err != nil {
		return fmt.Errorf("return: %w", err)
	}
	args := make([]heap.Value, len(ev.Args))
	for i := range ev.Args {
		if args[i], err = ev.Args[i].Heap(); err != nil {
			return fmt.Errorf("arg%d: %w", i+1, err)
		}
	}
	return s.CallExit(ev.Site, callee, receiver, args, ret, ev.Ctor)
}
