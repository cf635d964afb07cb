package enforcement

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/thiccolasscage/sorrynotsorry69/jar"
	"github.com/thiccolasscage/sorrynotsorry69/jar/sink"

	"github.com/puzpuzpuz/xsync/v3"
)

type State int

const (
	StateClean State = iota
	StateMuted
)

func (s State) String() string {
	if s == StateMuted {
		return "muted"
	}
	return "clean"
}

// Per-user serialization shared with the ledger, so that a reversal never interleaves with a mutation of the same user.
type Locker interface {
	WithLock(userID string, fn func() error) error
}

type MuteRequest struct {
	Subject  jar.Subject
	Duration time.Duration
	Reason   string
}

type MuteResult struct {
	Action PunitiveAction
	// An existing mute was re-armed instead of a new restriction applied.
	Extended bool
	// Set if the platform restriction failed. The mute is still tracked and will be reverted on schedule.
	RestrictErr error
}

type armed struct {
	action PunitiveAction
	timer  *time.Timer
	gen    uint64
}

// Owns the Clean/Muted state machine and the single reversal timer per user.
//
// Reversals run on the scheduler's own context, detached from whatever request issued the mute.
type Scheduler struct {
	Logger *slog.Logger
	// Clock, overridable in tests
	Now func() time.Time
	// Called after a mute has been reverted; optional
	OnReverted func(PunitiveAction)

	store     Store
	sink      sink.Sink
	notifiers []sink.Notifier
	locker    Locker

	timers *xsync.MapOf[string, *armed]
	gen    atomic.Uint64

	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler(store Store, s sink.Sink, locker Locker, notifiers []sink.Notifier, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		Logger:    logger.With("component", "enforcement"),
		Now:       time.Now,
		store:     store,
		sink:      s,
		notifiers: notifiers,
		locker:    locker,
		timers:    xsync.NewMapOf[string, *armed](),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Reloads persisted actions and re-arms their reversal timers. Actions which expired while the process was down are reverted right away.
func (s *Scheduler) Start(ctx context.Context) error {
	actions, err := s.store.List(ctx)
	if err != nil {
		return jar.Transient("listing punitive actions", err)
	}
	now := s.Now()
	for _, a := range actions {
		err := s.locker.WithLock(a.UserID, func() error {
			s.arm(a, a.ExpiresAt.Sub(now))
			return nil
		})
		if err != nil {
			return err
		}
	}
	s.Logger.Info("enforcement scheduler started", "rearmed", len(actions))
	return nil
}

// Stops all timers without reverting. Persisted actions are picked up again by the next Start.
func (s *Scheduler) Stop() {
	s.cancel()
	s.timers.Range(func(userID string, a *armed) bool {
		a.timer.Stop()
		s.timers.Delete(userID)
		return true
	})
	mutesActive.Set(0)
}

// Must be called with the user's lock held. Replaces any existing timer.
func (s *Scheduler) arm(a PunitiveAction, d time.Duration) (extended bool) {
	if d < 0 {
		d = 0
	}
	gen := s.gen.Add(1)
	userID := a.UserID
	if prev, ok := s.timers.Load(userID); ok {
		prev.timer.Stop()
		extended = true
	}
	s.timers.Store(userID, &armed{
		action: a,
		gen:    gen,
		timer: time.AfterFunc(d, func() {
			s.expire(userID, gen)
		}),
	})
	mutesActive.Set(float64(s.timers.Size()))
	return extended
}

// Mutes a user: persists the action, applies the restriction, and arms the reversal. If the user is already muted the existing timer is reset to the new duration, and no second restriction is applied.
func (s *Scheduler) Mute(ctx context.Context, req MuteRequest) (*MuteResult, error) {
	if req.Subject.UserID == "" {
		return nil, &jar.ValidationError{Field: "user", Reason: "missing user id"}
	}
	if req.Duration <= 0 {
		return nil, &jar.ValidationError{Field: "duration", Reason: "must be positive"}
	}
	if s.ctx.Err() != nil {
		return nil, fmt.Errorf("enforcement scheduler stopped")
	}

	now := s.Now()
	res := &MuteResult{
		Action: PunitiveAction{
			UserID:    req.Subject.UserID,
			GuildID:   req.Subject.GuildID,
			Kind:      KindMute,
			Reason:    req.Reason,
			IssuedAt:  now,
			ExpiresAt: now.Add(req.Duration),
		},
	}

	err := s.locker.WithLock(req.Subject.UserID, func() error {
		if err := s.store.Put(ctx, &res.Action); err != nil {
			return jar.Transient("saving punitive action", err)
		}
		_, res.Extended = s.timers.Load(req.Subject.UserID)
		if !res.Extended {
			if err := s.sink.Restrict(ctx, req.Subject.GuildID, req.Subject.UserID); err != nil {
				enforcementFailures.WithLabelValues("restrict").Inc()
				s.Logger.Warn("failed to apply mute restriction", "subject", req.Subject.String(), "err", err)
				res.RestrictErr = err
			}
		}
		s.arm(res.Action, req.Duration)
		return nil
	})
	if err != nil {
		return nil, err
	}
	mutesIssued.WithLabelValues(strconv.FormatBool(res.Extended)).Inc()
	s.Logger.Info("mute issued", "subject", req.Subject.String(), "duration", req.Duration, "reason", req.Reason, "extended", res.Extended)

	notice := sink.Notice{
		Subject:   req.Subject,
		Kind:      KindMute,
		Reason:    req.Reason,
		Duration:  req.Duration,
		ExpiresAt: res.Action.ExpiresAt,
	}
	for _, n := range s.notifiers {
		if err := n.Notify(ctx, notice); err != nil {
			s.Logger.Warn("failed to send mute notification", "subject", req.Subject.String(), "err", err)
		}
	}
	return res, nil
}

func (s *Scheduler) expire(userID string, gen uint64) {
	if s.ctx.Err() != nil {
		return
	}
	var reverted *PunitiveAction
	_ = s.locker.WithLock(userID, func() error {
		a, ok := s.timers.Load(userID)
		if !ok || a.gen != gen {
			// superseded by a re-mute, or stopped
			return nil
		}
		if err := s.sink.Unrestrict(s.ctx, a.action.GuildID, userID); err != nil {
			enforcementFailures.WithLabelValues("unrestrict").Inc()
			s.Logger.Warn("failed to revert mute restriction", "user", userID, "err", err)
		}
		if err := s.store.Delete(s.ctx, userID); err != nil {
			enforcementFailures.WithLabelValues("delete-action").Inc()
			s.Logger.Error("failed to delete punitive action", "user", userID, "err", err)
		}
		s.timers.Delete(userID)
		reverted = &a.action
		return nil
	})
	if reverted == nil {
		return
	}
	mutesReverted.Inc()
	mutesActive.Set(float64(s.timers.Size()))
	s.Logger.Info("mute expired", "user", userID, "issued", reverted.IssuedAt)
	if s.OnReverted != nil {
		s.OnReverted(*reverted)
	}
}

func (s *Scheduler) State(userID string) State {
	if _, ok := s.timers.Load(userID); ok {
		return StateMuted
	}
	return StateClean
}

// Currently active actions, soonest expiry first.
func (s *Scheduler) Active() []PunitiveAction {
	var out []PunitiveAction
	s.timers.Range(func(_ string, a *armed) bool {
		out = append(out, a.action)
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	return out
}
