package router

import (
	"context"

	"go-logrelay/internal/config"
	"go-logrelay/internal/forensics"
	"go-logrelay/internal/notifier"
	"go-logrelay/internal/state"

	"go.uber.org/zap"
)

func (r *Router) handleRoleCreate(ctx context.Context, log *zap.Logger, ev Event) Outcome {
	role := ev.Role
	if role == nil || role.ID == "" {
		return dropped(ReasonInvalid)
	}
	snap := *role
	snap.GuildID = ev.GuildID
	r.deps.Roles.Put(role.ID, snap)

	return r.structural(ctx, ev, config.CategoryRoles, forensics.ActionRoleCreate, role.ID,
		func(attr forensics.Attribution, ok bool) Outcome {
			return r.sendTo(ctx, log, ev, config.CategoryRoles, formatRoleCreate(snap, attr, ok))
		})
}

func (r *Router) handleRoleDelete(ctx context.Context, log *zap.Logger, ev Event) Outcome {
	id := ev.RoleID
	if id == "" && ev.Role != nil {
		id = ev.Role.ID
	}
	if id == "" {
		return dropped(ReasonInvalid)
	}

	snap, known := r.deps.Roles.TakeAndRemove(id)
	if !known {
		snap = state.RoleSnapshot{ID: id, GuildID: ev.GuildID}
		if ev.Role != nil {
			snap = *ev.Role
		}
	}

	return r.structural(ctx, ev, config.CategoryRoles, forensics.ActionRoleDelete, id,
		func(attr forensics.Attribution, ok bool) Outcome {
			return r.sendTo(ctx, log, ev, config.CategoryRoles, formatRoleDelete(snap, attr, ok))
		})
}

// handleRoleUpdate compares against the role snapshot kept by the relay;
// the gateway sends no previous state for roles.
func (r *Router) handleRoleUpdate(ctx context.Context, log *zap.Logger, ev Event) Outcome {
	role := ev.Role
	if role == nil || role.ID == "" {
		return dropped(ReasonInvalid)
	}
	after := *role
	after.GuildID = ev.GuildID

	before, known := r.deps.Roles.Swap(role.ID, after)
	if !known {
		return dropped(ReasonUnknownBefore)
	}
	if before.SameAs(after) {
		return dropped(ReasonUnchanged)
	}

	return r.structural(ctx, ev, config.CategoryRoles, forensics.ActionRoleUpdate, role.ID,
		func(attr forensics.Attribution, ok bool) Outcome {
			return r.sendTo(ctx, log, ev, config.CategoryRoles, formatRoleUpdate(before, after, attr, ok))
		})
}

func (r *Router) handleChannelCreate(ctx context.Context, log *zap.Logger, ev Event) Outcome {
	ch := ev.Channel
	if ch == nil || ch.ID == "" {
		return dropped(ReasonInvalid)
	}
	snap := *ch
	snap.GuildID = ev.GuildID
	r.deps.Channels.Put(ch.ID, snap)

	return r.structural(ctx, ev, config.CategoryChannels, forensics.ActionChannelCreate, ch.ID,
		func(attr forensics.Attribution, ok bool) Outcome {
			return r.sendTo(ctx, log, ev, config.CategoryChannels, formatChannelCreate(snap, attr, ok))
		})
}

func (r *Router) handleChannelDelete(ctx context.Context, log *zap.Logger, ev Event) Outcome {
	ch := ev.Channel
	if ch == nil || ch.ID == "" {
		return dropped(ReasonInvalid)
	}
	snap, known := r.deps.Channels.TakeAndRemove(ch.ID)
	if !known || snap.Name == "" {
		snap = *ch
	}

	return r.structural(ctx, ev, config.CategoryChannels, forensics.ActionChannelDelete, ch.ID,
		func(attr forensics.Attribution, ok bool) Outcome {
			return r.sendTo(ctx, log, ev, config.CategoryChannels, formatChannelDelete(snap, attr, ok))
		})
}

func (r *Router) handleChannelUpdate(ctx context.Context, log *zap.Logger, ev Event) Outcome {
	ch := ev.Channel
	if ch == nil || ch.ID == "" {
		return dropped(ReasonInvalid)
	}
	after := *ch
	after.GuildID = ev.GuildID

	before, known := r.deps.Channels.Swap(ch.ID, after)
	if !known {
		return dropped(ReasonUnknownBefore)
	}
	if before.SameAs(after) {
		return dropped(ReasonUnchanged)
	}

	return r.structural(ctx, ev, config.CategoryChannels, forensics.ActionChannelUpdate, ch.ID,
		func(attr forensics.Attribution, ok bool) Outcome {
			return r.sendTo(ctx, log, ev, config.CategoryChannels, formatChannelUpdate(before, after, attr, ok))
		})
}

// handleInviteCreate refreshes the tracked invite uses before anything
// else so the next join diffs against a snapshot that knows the new code.
func (r *Router) handleInviteCreate(ctx context.Context, log *zap.Logger, ev Event) Outcome {
	inv := ev.Invite
	if inv == nil || inv.Code == "" {
		return dropped(ReasonInvalid)
	}
	r.refreshInvites(ctx, log, ev.GuildID)

	if r.isSelf(inv.InviterID) {
		return dropped(ReasonSelf)
	}
	return r.sendTo(ctx, log, ev, config.CategoryInvites, formatInviteCreate(*inv))
}

// handleInviteDelete skips attribution: invite audit entries carry no
// target id to match on.
func (r *Router) handleInviteDelete(ctx context.Context, log *zap.Logger, ev Event) Outcome {
	inv := ev.Invite
	if inv == nil || inv.Code == "" {
		return dropped(ReasonInvalid)
	}
	r.refreshInvites(ctx, log, ev.GuildID)
	return r.sendTo(ctx, log, ev, config.CategoryInvites, formatInviteDelete(*inv))
}

// handleGuildAvailable seeds the structural snapshots and invite uses for
// a guild the gateway just delivered.
func (r *Router) handleGuildAvailable(ctx context.Context, log *zap.Logger, ev Event) Outcome {
	for _, role := range ev.Roles {
		role.GuildID = ev.GuildID
		r.deps.Roles.Put(role.ID, role)
	}
	for _, ch := range ev.Channels {
		ch.GuildID = ev.GuildID
		r.deps.Channels.Put(ch.ID, ch)
	}
	r.refreshInvites(ctx, log, ev.GuildID)
	return dropped(ReasonStateOnly)
}

// handleGuildRemoved forgets everything held for a guild the bot left.
func (r *Router) handleGuildRemoved(_ context.Context, log *zap.Logger, ev Event) Outcome {
	if r.deps.Invites != nil {
		r.deps.Invites.Forget(ev.GuildID)
	}
	roles := r.deps.Roles.RemoveIf(func(s state.RoleSnapshot) bool { return s.GuildID == ev.GuildID })
	channels := r.deps.Channels.RemoveIf(func(s state.ChannelSnapshot) bool { return s.GuildID == ev.GuildID })
	log.Debug("guild state released", zap.Int("roles", roles), zap.Int("channels", channels))
	return dropped(ReasonStateOnly)
}

func (r *Router) refreshInvites(ctx context.Context, log *zap.Logger, guildID string) {
	if r.deps.Invites == nil {
		return
	}
	if _, err := r.deps.Invites.Refresh(ctx, guildID); err != nil {
		log.Debug("invite refresh failed", zap.Error(err))
	}
}

// structural runs the shared tail of role and channel events: configured
// check, attribution, self suppression, then send.
func (r *Router) structural(
	ctx context.Context,
	ev Event,
	category config.Category,
	action forensics.AuditAction,
	subjectID string,
	send func(attr forensics.Attribution, ok bool) Outcome,
) Outcome {
	if _, ok := r.destination(ev.GuildID, category); !ok {
		return dropped(ReasonNotConfigured)
	}
	attr, ok := r.attribute(ctx, ev.GuildID, action, subjectID, ev.ReceivedAt)
	if ok && r.isSelf(attr.ActorID) {
		return dropped(ReasonSelf)
	}
	return send(attr, ok)
}

func (r *Router) sendTo(ctx context.Context, log *zap.Logger, ev Event, category config.Category, n notifier.Notification) Outcome {
	dest, ok := r.destination(ev.GuildID, category)
	if !ok {
		return dropped(ReasonNotConfigured)
	}
	return r.dispatch(ctx, log, ev.GuildID, dest, n)
}
