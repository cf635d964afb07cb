package sink

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/thiccolasscage/sorrynotsorry69/jar"
)

// One recorded sink call.
type Call struct {
	Op   string
	Args []string
}

func (c Call) String() string {
	return c.Op + "(" + strings.Join(c.Args, ", ") + ")"
}

// In-memory Sink and Notifier which records every call. Used in tests and for dry-run mode.
type Recorder struct {
	mu      sync.Mutex
	calls   []Call
	notices []Notice

	// ops (like "restrict") which should fail
	Fail map[string]error
	// "guild/user" to display name; missing entries fall back to the user id
	Names map[string]string
}

var (
	_ Sink     = (*Recorder)(nil)
	_ Notifier = (*Recorder)(nil)
)

func NewRecorder() *Recorder {
	return &Recorder{
		Fail:  make(map[string]error),
		Names: make(map[string]string),
	}
}

func (r *Recorder) record(op string, args ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Op: op, Args: args})
	if err, ok := r.Fail[op]; ok {
		return &jar.ExternalActionError{Op: op, Err: err}
	}
	return nil
}

// Makes subsequent calls of the given op fail.
func (r *Recorder) FailOp(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Fail[op] = err
}

func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Recorded calls of a single op.
func (r *Recorder) CallsOf(op string) []Call {
	var out []Call
	for _, c := range r.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
	r.notices = nil
}

func (r *Recorder) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return r.record("delete-message", channelID, messageID)
}

func (r *Recorder) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	return r.record("add-reaction", channelID, messageID, emoji)
}

func (r *Recorder) SendMessage(ctx context.Context, channelID, content string) error {
	return r.record("send-message", channelID, content)
}

func (r *Recorder) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	return r.record("add-role", guildID, userID, roleID)
}

func (r *Recorder) RemoveRole(ctx context.Context, guildID, userID, roleID string) error {
	return r.record("remove-role", guildID, userID, roleID)
}

func (r *Recorder) Restrict(ctx context.Context, guildID, userID string) error {
	return r.record("restrict", guildID, userID)
}

func (r *Recorder) Unrestrict(ctx context.Context, guildID, userID string) error {
	return r.record("unrestrict", guildID, userID)
}

func (r *Recorder) DisplayName(ctx context.Context, guildID, userID string) (string, error) {
	if err := r.record("display-name", guildID, userID); err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if name, ok := r.Names[fmt.Sprintf("%s/%s", guildID, userID)]; ok {
		return name, nil
	}
	return userID, nil
}

func (r *Recorder) Notify(ctx context.Context, n Notice) error {
	if err := r.record("notify", n.Kind, n.Subject.String()); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
	return nil
}
