package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goRedeem/redemption"
)

// Redeemer submits one redemption request. *redemption.Client satisfies it.
type Redeemer interface {
	Redeem(ctx context.Context, req redemption.Request) redemption.Outcome
}

// ReceiptSource yields a fresh receipt number per attempt.
type ReceiptSource interface {
	Next() (string, error)
}

// Hooks receive workflow events. Every field is optional and called outside
// the state lock.
type Hooks struct {
	OnTransition  func(from, to Snapshot)
	OnScanIgnored func()
	OnRejected    func(err error)
	OnOutcome     func(req redemption.Request, out redemption.Outcome, elapsed time.Duration)
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithHooks installs event hooks.
func WithHooks(h Hooks) Option {
	return func(w *Workflow) {
		w.hooks = h
	}
}

// WithClock overrides the clock used to time submissions.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) {
		if now != nil {
			w.now = now
		}
	}
}

// Workflow is one operator's redemption state machine. It is safe for
// concurrent use; transitions are applied one at a time.
type Workflow struct {
	mu       sync.Mutex
	state    Snapshot
	inFlight atomic.Bool

	redeemer Redeemer
	receipts ReceiptSource
	merchant redemption.Merchant
	now      func() time.Time
	hooks    Hooks
}

// New builds a workflow in AwaitingAmount.
func New(redeemer Redeemer, receipts ReceiptSource, merchant redemption.Merchant, opts ...Option) (*Workflow, error) {
	if redeemer == nil {
		return nil, errors.New("workflow: redeemer is required")
	}
	if receipts == nil {
		return nil, errors.New("workflow: receipt source is required")
	}
	if err := redemption.ValidateMerchant(merchant); err != nil {
		return nil, err
	}

	w := &Workflow{
		state:    Snapshot{State: AwaitingAmount},
		redeemer: redeemer,
		receipts: receipts,
		merchant: merchant,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// State returns a copy of the current state.
func (w *Workflow) State() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.clone()
}

// SubmitAmount parses operator input and moves AwaitingAmount to AwaitingScan.
// Invalid input leaves the state unchanged.
func (w *Workflow) SubmitAmount(input string) (Snapshot, error) {
	minor, err := ParseAmount(input)
	if err != nil {
		w.reject(err)
		return w.State(), err
	}
	return w.SubmitAmountMinor(minor)
}

// SubmitAmountMinor is SubmitAmount for an amount already in minor units.
// Entering an amount while Succeeded acknowledges the previous outcome.
func (w *Workflow) SubmitAmountMinor(minor int64) (Snapshot, error) {
	if minor <= 0 {
		err := fmt.Errorf("%w: amount must be greater than zero", ErrInvalidAmount)
		w.reject(err)
		return w.State(), err
	}
	return w.transition(func(cur Snapshot) (Snapshot, error) {
		if cur.State != AwaitingAmount && cur.State != Succeeded {
			return cur, fmt.Errorf("%w: amount entry in %s", ErrInvalidTransition, cur.State)
		}
		return Snapshot{State: AwaitingScan, AmountMinor: minor}, nil
	})
}

// Scanned accepts a decoded card code and submits the redemption. It blocks
// until the outcome is known and returns the resulting Succeeded or Failed
// snapshot; on failure the error is the *redemption.Error. A scan arriving
// while another is being submitted returns ErrScanIgnored without touching
// the network. A Succeeded workflow stays there until it is acknowledged,
// explicitly or by entering the next amount.
func (w *Workflow) Scanned(ctx context.Context, raw string) (Snapshot, error) {
	if !w.inFlight.CompareAndSwap(false, true) {
		if w.hooks.OnScanIgnored != nil {
			w.hooks.OnScanIgnored()
		}
		return w.State(), ErrScanIgnored
	}

	giftCardID := strings.TrimSpace(raw)
	snap, err := w.transition(func(cur Snapshot) (Snapshot, error) {
		if cur.State != AwaitingScan {
			return cur, fmt.Errorf("%w: scan in %s", ErrInvalidTransition, cur.State)
		}
		if giftCardID == "" {
			return cur, ErrEmptyScanPayload
		}
		return Snapshot{State: Submitting, AmountMinor: cur.AmountMinor, GiftCardID: giftCardID}, nil
	})
	if err != nil {
		w.inFlight.Store(false)
		w.reject(err)
		return snap, err
	}

	return w.submit(ctx, snap)
}

// Acknowledge resets a Succeeded workflow to AwaitingAmount once the operator
// has seen the outcome. SubmitAmount from Succeeded does the same implicitly.
func (w *Workflow) Acknowledge() (Snapshot, error) {
	return w.transition(func(cur Snapshot) (Snapshot, error) {
		if cur.State != Succeeded {
			return cur, fmt.Errorf("%w: acknowledge in %s", ErrInvalidTransition, cur.State)
		}
		return Snapshot{State: AwaitingAmount}, nil
	})
}

// Retry moves Failed back to AwaitingScan keeping the amount.
func (w *Workflow) Retry() (Snapshot, error) {
	return w.transition(func(cur Snapshot) (Snapshot, error) {
		if cur.State != Failed {
			return cur, fmt.Errorf("%w: retry in %s", ErrInvalidTransition, cur.State)
		}
		return Snapshot{State: AwaitingScan, AmountMinor: cur.AmountMinor}, nil
	})
}

// Resubmit sends the failed attempt again with the same card and amount and a
// new receipt number.
func (w *Workflow) Resubmit(ctx context.Context) (Snapshot, error) {
	if !w.inFlight.CompareAndSwap(false, true) {
		return w.State(), ErrSubmissionInFlight
	}

	snap, err := w.transition(func(cur Snapshot) (Snapshot, error) {
		if cur.State != Failed {
			return cur, fmt.Errorf("%w: resubmit in %s", ErrInvalidTransition, cur.State)
		}
		return Snapshot{State: Submitting, AmountMinor: cur.AmountMinor, GiftCardID: cur.GiftCardID}, nil
	})
	if err != nil {
		w.inFlight.Store(false)
		return snap, err
	}

	return w.submit(ctx, snap)
}

// Cancel discards the amount and card and returns to AwaitingAmount. It is
// refused while a submission is outstanding.
func (w *Workflow) Cancel() (Snapshot, error) {
	return w.transition(func(cur Snapshot) (Snapshot, error) {
		if cur.State == Submitting {
			return cur, ErrSubmissionInFlight
		}
		return Snapshot{State: AwaitingAmount}, nil
	})
}

// submit runs with the guard held and the state already in Submitting. The
// guard is released in the same critical section that leaves Submitting, so
// an OnTransition hook observing the outcome can already scan again.
func (w *Workflow) submit(ctx context.Context, snap Snapshot) (Snapshot, error) {
	released := false
	defer func() {
		// Redeem panicked before the outcome was recorded.
		if !released {
			w.inFlight.Store(false)
		}
	}()

	var out redemption.Outcome
	var req redemption.Request
	receipt, err := w.receipts.Next()
	if err == nil {
		req, err = redemption.NewRequest(snap.GiftCardID, snap.AmountMinor, w.merchant, receipt)
	}

	start := w.now()
	if err != nil {
		out = redemption.Failure(redemption.KindRequest, 0, err.Error())
	} else {
		out = w.redeemer.Redeem(ctx, req)
	}
	elapsed := w.now().Sub(start)

	if w.hooks.OnOutcome != nil {
		w.hooks.OnOutcome(req, out, elapsed)
	}

	final, _ := w.transition(func(cur Snapshot) (Snapshot, error) {
		next := Snapshot{
			AmountMinor:   cur.AmountMinor,
			GiftCardID:    cur.GiftCardID,
			ReceiptNumber: req.ReceiptNumber,
			AttemptID:     req.AttemptID,
		}
		if out.OK() {
			next.State = Succeeded
			next.Payload = out.Payload
		} else {
			next.State = Failed
			next.Message = out.Message()
		}
		w.inFlight.Store(false)
		released = true
		return next, nil
	})

	if !out.OK() {
		return final, out.Err
	}
	return final, nil
}

func (w *Workflow) transition(fn func(cur Snapshot) (Snapshot, error)) (Snapshot, error) {
	w.mu.Lock()
	from := w.state
	next, err := fn(from)
	if err != nil {
		w.mu.Unlock()
		return from.clone(), err
	}
	w.state = next
	w.mu.Unlock()

	if w.hooks.OnTransition != nil && from.State != next.State {
		w.hooks.OnTransition(from.clone(), next.clone())
	}
	return next.clone(), nil
}

func (w *Workflow) reject(err error) {
	if w.hooks.OnRejected != nil {
		w.hooks.OnRejected(err)
	}
}
