package router

import (
	"context"

	"go-logrelay/internal/config"
	"go-logrelay/internal/forensics"
	"go-logrelay/internal/state"

	"go.uber.org/zap"
)

func (r *Router) handleMessageCreate(_ context.Context, _ *zap.Logger, ev Event) Outcome {
	m := ev.Message
	if m == nil || m.ID == "" {
		return dropped(ReasonInvalid)
	}
	if r.isSelf(m.AuthorID) {
		return dropped(ReasonSelf)
	}
	snap := *m
	snap.GuildID = ev.GuildID
	r.deps.Messages.Put(m.ID, snap)
	return dropped(ReasonStateOnly)
}

// handleMessageDelete consumes the cached snapshot whether or not a log
// channel is configured, then falls back to the live payload.
func (r *Router) handleMessageDelete(ctx context.Context, log *zap.Logger, ev Event) Outcome {
	live := ev.Message
	if live == nil || live.ID == "" {
		return dropped(ReasonInvalid)
	}

	snap, cached := r.deps.Messages.TakeAndRemove(live.ID)
	if !cached {
		snap = *live
	}
	if snap.ChannelID == "" {
		snap.ChannelID = live.ChannelID
	}
	if snap.AuthorID == "" {
		log.Debug("deleted message has no resolvable author", zap.String("message_id", live.ID))
		return dropped(ReasonNoAuthor)
	}
	if r.isSelf(snap.AuthorID) {
		return dropped(ReasonSelf)
	}

	dest, ok := r.destination(ev.GuildID, config.CategoryMessages)
	if !ok {
		return dropped(ReasonNotConfigured)
	}

	attr, attributed := r.attribute(ctx, ev.GuildID, forensics.ActionMessageDelete, snap.AuthorID, ev.ReceivedAt)
	if attributed && r.isSelf(attr.ActorID) {
		return dropped(ReasonSelf)
	}

	n := formatMessageDelete(snap, cached, attr, attributed)
	return r.dispatch(ctx, log, ev.GuildID, dest, n)
}

// handleMessageUpdate keeps the cache pointed at the latest content so a
// later delete reports what was last visible.
func (r *Router) handleMessageUpdate(ctx context.Context, log *zap.Logger, ev Event) Outcome {
	m := ev.Message
	if m == nil || m.ID == "" {
		return dropped(ReasonInvalid)
	}
	if !m.Edited {
		return dropped(ReasonNotEdited)
	}

	current := *m
	current.GuildID = ev.GuildID
	old, cached := r.deps.Messages.Swap(m.ID, current)
	if !cached && ev.BeforeMessage != nil {
		old, cached = *ev.BeforeMessage, true
	}
	if cached {
		fillAuthor(&current, old)
		r.deps.Messages.Put(m.ID, current)
	}

	if r.isSelf(current.AuthorID) {
		return dropped(ReasonSelf)
	}
	if !cached {
		return dropped(ReasonUnknownBefore)
	}
	if old.Content == current.Content {
		return dropped(ReasonUnchanged)
	}
	if current.AuthorID == "" {
		return dropped(ReasonNoAuthor)
	}

	dest, ok := r.destination(ev.GuildID, config.CategoryMessages)
	if !ok {
		return dropped(ReasonNotConfigured)
	}
	return r.dispatch(ctx, log, ev.GuildID, dest, formatMessageEdit(old, current))
}

// fillAuthor copies author fields a partial update payload left out.
func fillAuthor(dst *state.MessageSnapshot, src state.MessageSnapshot) {
	if dst.AuthorID == "" {
		dst.AuthorID = src.AuthorID
		dst.AuthorBot = src.AuthorBot
	}
	if dst.AuthorTag == "" {
		dst.AuthorTag = src.AuthorTag
	}
	if dst.AuthorAvatarURL == "" {
		dst.AuthorAvatarURL = src.AuthorAvatarURL
	}
	if dst.ChannelID == "" {
		dst.ChannelID = src.ChannelID
	}
	if dst.CreatedAt.IsZero() {
		dst.CreatedAt = src.CreatedAt
	}
}
