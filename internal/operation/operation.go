// Package operation tracks the lifecycle of asynchronous user actions.
//
// Every operation kind owns one Tracker. A dispatch moves the record to
// Pending and hands out a Ticket; only the ticket of the latest dispatch can
// complete it, so a slow call that was superseded cannot overwrite the
// outcome of a newer one.
package operation

import (
	"context"
	"sync"

	"github.com/fraudcheck/cli/internal/utils"
)

// Status is the lifecycle state of an operation record
type Status int

const (
	Idle Status = iota
	Pending
	Fulfilled
	Rejected
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Fulfilled:
		return "fulfilled"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Kind names a logical operation
type Kind string

const (
	KindLogin    Kind = "auth/login"
	KindRegister Kind = "auth/register"
	KindProfile  Kind = "auth/profile"

	KindVerify  Kind = "verification/verify"
	KindLookup  Kind = "verification/get"
	KindHistory Kind = "verification/history"
	KindStats   Kind = "verification/stats"

	KindReportSubmit Kind = "reports/submit"
	KindReportGet    Kind = "reports/get"
	KindReportList   Kind = "reports/list"
	KindReportStats  Kind = "reports/stats"
)

var defaultMessages = map[Kind]string{
	KindLogin:        "login failed",
	KindRegister:     "registration failed",
	KindProfile:      "failed to fetch profile",
	KindVerify:       "verification failed",
	KindLookup:       "failed to fetch verification",
	KindHistory:      "failed to fetch history",
	KindStats:        "failed to fetch stats",
	KindReportSubmit: "failed to submit report",
	KindReportGet:    "failed to fetch report",
	KindReportList:   "failed to fetch reports",
	KindReportStats:  "failed to fetch report stats",
}

// DefaultMessage is the error text used when a failure carries none
func (k Kind) DefaultMessage() string {
	if msg, ok := defaultMessages[k]; ok {
		return msg
	}
	return string(k) + " failed"
}

// Record is the observable state of one operation kind
type Record[T any] struct {
	Kind   Kind
	Status Status
	Result *T
	Error  string
	Seq    uint64
}

// IsLoading reports whether a call is in flight
func (r Record[T]) IsLoading() bool {
	return r.Status == Pending
}

// Ticket identifies one dispatch
type Ticket struct {
	kind Kind
	seq  uint64
}

// Seq returns the dispatch sequence number
func (t Ticket) Seq() uint64 {
	return t.seq
}

type watcher[T any] struct {
	id int
	fn func(Record[T])
}

// Tracker is the state machine of a single operation kind
type Tracker[T any] struct {
	mu sync.Mutex
	// held while watchers run so notifications keep commit order
	notifyMu sync.Mutex

	kind     Kind
	rec      Record[T]
	watchers []watcher[T]
	nextID   int
}

// New creates an idle tracker for kind
func New[T any](kind Kind) *Tracker[T] {
	return &Tracker[T]{
		kind: kind,
		rec:  Record[T]{Kind: kind, Status: Idle},
	}
}

// Kind returns the operation kind this tracker records
func (t *Tracker[T]) Kind() Kind {
	return t.kind
}

// Dispatch starts a new cycle: the record turns Pending, its error is
// cleared and the previous result stays visible until replaced.
func (t *Tracker[T]) Dispatch() Ticket {
	var ticket Ticket
	t.commit(func(rec *Record[T]) bool {
		rec.Seq++
		rec.Status = Pending
		rec.Error = ""
		ticket = Ticket{kind: rec.Kind, seq: rec.Seq}
		return true
	})
	return ticket
}

// Succeed completes the dispatch identified by ticket. It returns false and
// changes nothing when a newer dispatch has superseded the ticket.
func (t *Tracker[T]) Succeed(ticket Ticket, result T) bool {
	return t.commit(func(rec *Record[T]) bool {
		if !t.current(rec, ticket) {
			return false
		}
		rec.Status = Fulfilled
		rec.Result = &result
		rec.Error = ""
		return true
	})
}

// Fail rejects the dispatch identified by ticket, keeping any previous
// result. Stale tickets are ignored.
func (t *Tracker[T]) Fail(ticket Ticket, err error) bool {
	msg := utils.Message(err)
	if msg == "" {
		msg = ticket.kind.DefaultMessage()
	}

	return t.commit(func(rec *Record[T]) bool {
		if !t.current(rec, ticket) {
			return false
		}
		rec.Status = Rejected
		rec.Error = msg
		return true
	})
}

// ClearResult drops the stored result. A settled record returns to Idle.
func (t *Tracker[T]) ClearResult() {
	t.commit(func(rec *Record[T]) bool {
		rec.Result = nil
		if rec.Status != Pending {
			rec.Status = Idle
			rec.Error = ""
		}
		return true
	})
}

// ClearError drops the stored error message
func (t *Tracker[T]) ClearError() {
	t.commit(func(rec *Record[T]) bool {
		if rec.Error == "" {
			return false
		}
		rec.Error = ""
		return true
	})
}

// Snapshot returns the current record
func (t *Tracker[T]) Snapshot() Record[T] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rec
}

// Watch calls fn after every committed transition, in commit order.
// fn may read the tracker but must not transition it.
func (t *Tracker[T]) Watch(fn func(Record[T])) (cancel func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextID++
	id := t.nextID
	t.watchers = append(t.watchers, watcher[T]{id: id, fn: fn})

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		for i, w := range t.watchers {
			if w.id == id {
				t.watchers = append(t.watchers[:i:i], t.watchers[i+1:]...)
				return
			}
		}
	}
}

func (t *Tracker[T]) current(rec *Record[T], ticket Ticket) bool {
	return rec.Status == Pending && ticket.seq == rec.Seq
}

func (t *Tracker[T]) commit(mutate func(rec *Record[T]) bool) bool {
	t.mu.Lock()
	if !mutate(&t.rec) {
		t.mu.Unlock()
		return false
	}
	snapshot := t.rec
	watchers := make([]watcher[T], len(t.watchers))
	copy(watchers, t.watchers)

	t.notifyMu.Lock()
	t.mu.Unlock()
	defer t.notifyMu.Unlock()

	for _, w := range watchers {
		w.fn(snapshot)
	}
	return true
}

// Run dispatches on tracker, runs fn and records its outcome. The caller
// always gets fn's own result, even when a later dispatch superseded it.
func Run[T any](ctx context.Context, tracker *Tracker[T], fn func(ctx context.Context) (T, error)) (T, error) {
	ticket := tracker.Dispatch()

	result, err := fn(ctx)
	if err != nil {
		tracker.Fail(ticket, err)
		return result, err
	}

	tracker.Succeed(ticket, result)
	return result, nil
}
