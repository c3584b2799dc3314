package router

import (
	"context"
	"sync/atomic"
	"time"

	"go-logrelay/internal/config"
	"go-logrelay/internal/forensics"
	"go-logrelay/internal/logging"
	"go-logrelay/internal/notifier"
	"go-logrelay/internal/state"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Status is the terminal state of one handled event.
type Status string

const (
	StatusDispatched Status = "dispatched"
	StatusDropped    Status = "dropped"
	StatusSendFailed Status = "send_failed"
)

// Drop and failure reasons.
const (
	ReasonNotConfigured   = "not_configured"
	ReasonSelf            = "self"
	ReasonUnchanged       = "unchanged"
	ReasonNotEdited       = "not_edited"
	ReasonUnknownBefore   = "unknown_before"
	ReasonNoAuthor        = "no_author"
	ReasonEmptyDelta      = "empty_delta"
	ReasonNoChannelChange = "no_channel_change"
	ReasonStateOnly       = "state_only"
	ReasonInvalid         = "invalid"
	ReasonNoGuild         = "no_guild"
	ReasonUnsupported     = "unsupported"
	ReasonPanic           = "panic"
	ReasonSendError       = "send_error"
)

type Outcome struct {
	Status Status
	Reason string
}

func dropped(reason string) Outcome {
	return Outcome{Status: StatusDropped, Reason: reason}
}

// Destinations looks up the channel configured for a guild's category.
type Destinations interface {
	Get(guildID string, category config.Category) (string, bool)
}

// Attributor answers "who did this" from the audit log.
type Attributor interface {
	Resolve(ctx context.Context, guildID string, action forensics.AuditAction, subjectID string, since time.Time) (forensics.Attribution, bool)
	Window() time.Duration
}

// Observer receives per-event and per-send measurements.
type Observer interface {
	ObserveEvent(kind, status, reason string)
	ObserveSend(err error, took time.Duration)
}

type Deps struct {
	Destinations Destinations
	Sender       notifier.Sender
	Attributor   Attributor
	Messages     *state.RecentCache[state.MessageSnapshot]
	Roles        *state.RecentCache[state.RoleSnapshot]
	Channels     *state.RecentCache[state.ChannelSnapshot]
	Invites      *state.InviteTracker
	Metrics      Observer
	// HandleTimeout bounds one event, external calls included. Zero means no bound.
	HandleTimeout time.Duration
	Clock         func() time.Time
}

type handlerFunc func(ctx context.Context, log *zap.Logger, ev Event) Outcome

// Router turns gateway events into log notifications.
type Router struct {
	deps     Deps
	selfID   atomic.Value
	handlers map[Kind]handlerFunc
}

func New(deps Deps) *Router {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Messages == nil {
		deps.Messages = state.NewRecentCache[state.MessageSnapshot]()
	}
	if deps.Roles == nil {
		deps.Roles = state.NewRecentCache[state.RoleSnapshot](state.WithTTL(0))
	}
	if deps.Channels == nil {
		deps.Channels = state.NewRecentCache[state.ChannelSnapshot](state.WithTTL(0))
	}

	r := &Router{deps: deps}
	r.selfID.Store("")
	r.handlers = map[Kind]handlerFunc{
		KindMessageCreate:  r.handleMessageCreate,
		KindMessageDelete:  r.handleMessageDelete,
		KindMessageUpdate:  r.handleMessageUpdate,
		KindVoiceState:     r.handleVoiceState,
		KindMemberJoin:     r.handleMemberJoin,
		KindMemberLeave:    r.handleMemberLeave,
		KindMemberUpdate:   r.handleMemberUpdate,
		KindRoleCreate:     r.handleRoleCreate,
		KindRoleDelete:     r.handleRoleDelete,
		KindRoleUpdate:     r.handleRoleUpdate,
		KindChannelCreate:  r.handleChannelCreate,
		KindChannelDelete:  r.handleChannelDelete,
		KindChannelUpdate:  r.handleChannelUpdate,
		KindInviteCreate:   r.handleInviteCreate,
		KindInviteDelete:   r.handleInviteDelete,
		KindGuildAvailable: r.handleGuildAvailable,
		KindGuildRemoved:   r.handleGuildRemoved,
	}
	return r
}

// SetSelfID records the bot's own user id once the gateway is ready.
func (r *Router) SetSelfID(id string) {
	r.selfID.Store(id)
}

func (r *Router) SelfID() string {
	return r.selfID.Load().(string)
}

func (r *Router) isSelf(userID string) bool {
	self := r.SelfID()
	return self != "" && userID == self
}

// Handle runs one event to a terminal outcome. It never panics and never
// returns an error: failures end as dropped or send_failed.
func (r *Router) Handle(ctx context.Context, ev Event) (out Outcome) {
	log := logging.L().With(
		zap.String("event_id", uuid.NewString()),
		zap.String("kind", string(ev.Kind)),
		zap.String("guild_id", ev.GuildID),
	)

	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = r.deps.Clock()
	}
	if r.deps.HandleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.deps.HandleTimeout)
		defer cancel()
	}

	defer func() {
		if p := recover(); p != nil {
			log.Error("event handler panicked", zap.Any("panic", p), zap.Stack("stack"))
			out = dropped(ReasonPanic)
		}
		if r.deps.Metrics != nil {
			r.deps.Metrics.ObserveEvent(string(ev.Kind), string(out.Status), out.Reason)
		}
		log.Debug("event handled", zap.String("status", string(out.Status)), zap.String("reason", out.Reason))
	}()

	h, ok := r.handlers[ev.Kind]
	if !ok {
		return dropped(ReasonUnsupported)
	}
	if ev.GuildID == "" {
		return dropped(ReasonNoGuild)
	}
	return h(ctx, log, ev)
}

// CachedMessages is the number of message snapshots waiting for a delete or edit.
func (r *Router) CachedMessages() int {
	return r.deps.Messages.Len()
}

func (r *Router) destination(guildID string, category config.Category) (string, bool) {
	if r.deps.Destinations == nil {
		return "", false
	}
	return r.deps.Destinations.Get(guildID, category)
}

// attribute looks for the audit entry behind an event received at
// receivedAt, trusting entries up to one window before it.
func (r *Router) attribute(ctx context.Context, guildID string, action forensics.AuditAction, subjectID string, receivedAt time.Time) (forensics.Attribution, bool) {
	if r.deps.Attributor == nil {
		return forensics.Attribution{}, false
	}
	since := receivedAt.Add(-r.deps.Attributor.Window())
	return r.deps.Attributor.Resolve(ctx, guildID, action, subjectID, since)
}

func (r *Router) dispatch(ctx context.Context, log *zap.Logger, guildID, channelID string, n notifier.Notification) Outcome {
	n.GuildID = guildID
	if n.Timestamp.IsZero() {
		n.Timestamp = r.deps.Clock()
	}
	if r.deps.Sender == nil {
		log.Warn("no notification sender configured")
		return Outcome{Status: StatusSendFailed, Reason: ReasonSendError}
	}

	start := time.Now()
	err := r.deps.Sender.Send(ctx, channelID, n)
	if r.deps.Metrics != nil {
		r.deps.Metrics.ObserveSend(err, time.Since(start))
	}
	if err != nil {
		log.Warn("notification send failed", zap.String("channel_id", channelID), zap.Error(err))
		return Outcome{Status: StatusSendFailed, Reason: ReasonSendError}
	}
	return Outcome{Status: StatusDispatched}
}

// merge folds several outcomes of one event: any dispatch wins, then any
// send failure, then the first drop.
func merge(outs ...Outcome) Outcome {
	var failed *Outcome
	for i := range outs {
		switch outs[i].Status {
		case StatusDispatched:
			return outs[i]
		case StatusSendFailed:
			if failed == nil {
				failed = &outs[i]
			}
		}
	}
	if failed != nil {
		return *failed
	}
	if len(outs) == 0 {
		return dropped(ReasonEmptyDelta)
	}
	return outs[0]
}
