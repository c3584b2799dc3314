package router

import (
	"context"

	"go-logrelay/internal/config"
	"go-logrelay/internal/forensics"
	"go-logrelay/internal/state"
	"go-logrelay/pkg/util"

	"go.uber.org/zap"
)

// handleVoiceState logs joins, leaves and moves. Mute and deafen toggles
// keep the channel and are dropped.
func (r *Router) handleVoiceState(ctx context.Context, log *zap.Logger, ev Event) Outcome {
	v := ev.Voice
	if v == nil || v.User.ID == "" {
		return dropped(ReasonInvalid)
	}
	if r.isSelf(v.User.ID) {
		return dropped(ReasonSelf)
	}
	if v.BeforeChannelID == v.AfterChannelID {
		return dropped(ReasonNoChannelChange)
	}

	dest, ok := r.destination(ev.GuildID, config.CategoryVoice)
	if !ok {
		return dropped(ReasonNotConfigured)
	}
	return r.dispatch(ctx, log, ev.GuildID, dest, formatVoice(*v))
}

// handleMemberJoin diffs invite use counts whether or not a log channel is
// configured, so the tracked snapshot stays current.
func (r *Router) handleMemberJoin(ctx context.Context, log *zap.Logger, ev Event) Outcome {
	m := ev.Member
	if m == nil || m.User.ID == "" {
		return dropped(ReasonInvalid)
	}
	if r.isSelf(m.User.ID) {
		return dropped(ReasonSelf)
	}

	var (
		used    state.InviteUse
		hasCode bool
	)
	if r.deps.Invites != nil {
		fresh, err := r.deps.Invites.Fetch(ctx, ev.GuildID)
		if err != nil {
			log.Debug("invite fetch on join failed", zap.Error(err))
		} else if code, ok := r.deps.Invites.DiffAndUpdate(ev.GuildID, fresh); ok {
			for _, inv := range fresh {
				if inv.Code == code {
					used, hasCode = inv, true
					break
				}
			}
		}
	}

	dest, ok := r.destination(ev.GuildID, config.CategoryMembers)
	if !ok {
		return dropped(ReasonNotConfigured)
	}
	return r.dispatch(ctx, log, ev.GuildID, dest, formatMemberJoin(*m, used, hasCode, ev.ReceivedAt))
}

func (r *Router) handleMemberLeave(ctx context.Context, log *zap.Logger, ev Event) Outcome {
	m := ev.Member
	if m == nil || m.User.ID == "" {
		return dropped(ReasonInvalid)
	}
	if r.isSelf(m.User.ID) {
		return dropped(ReasonSelf)
	}

	dest, ok := r.destination(ev.GuildID, config.CategoryMembers)
	if !ok {
		return dropped(ReasonNotConfigured)
	}

	attr, kicked := r.attribute(ctx, ev.GuildID, forensics.ActionMemberKick, m.User.ID, ev.ReceivedAt)
	if kicked && r.isSelf(attr.ActorID) {
		return dropped(ReasonSelf)
	}
	return r.dispatch(ctx, log, ev.GuildID, dest, formatMemberLeave(*m, attr, kicked))
}

// handleMemberUpdate reports role changes to the roles channel and nickname
// changes to the members channel. Without the previous member state there
// is no delta to report.
func (r *Router) handleMemberUpdate(ctx context.Context, log *zap.Logger, ev Event) Outcome {
	after, before := ev.Member, ev.BeforeMember
	if after == nil || after.User.ID == "" {
		return dropped(ReasonInvalid)
	}
	if r.isSelf(after.User.ID) {
		return dropped(ReasonSelf)
	}
	if before == nil {
		return dropped(ReasonUnknownBefore)
	}

	added, removed := util.DiffStrings(before.RoleIDs, after.RoleIDs)
	nickChanged := before.Nick != after.Nick
	if len(added) == 0 && len(removed) == 0 && !nickChanged {
		return dropped(ReasonEmptyDelta)
	}

	var outs []Outcome
	if len(added) > 0 || len(removed) > 0 {
		outs = append(outs, r.memberRoles(ctx, log, ev, *after, added, removed))
	}
	if nickChanged {
		outs = append(outs, r.memberNick(ctx, log, ev, *before, *after))
	}
	return merge(outs...)
}

func (r *Router) memberRoles(ctx context.Context, log *zap.Logger, ev Event, m Member, added, removed []string) Outcome {
	dest, ok := r.destination(ev.GuildID, config.CategoryRoles)
	if !ok {
		return dropped(ReasonNotConfigured)
	}
	attr, attributed := r.attribute(ctx, ev.GuildID, forensics.ActionMemberRoleUpdate, m.User.ID, ev.ReceivedAt)
	if attributed && r.isSelf(attr.ActorID) {
		return dropped(ReasonSelf)
	}
	return r.dispatch(ctx, log, ev.GuildID, dest, formatMemberRoles(m, added, removed, attr, attributed))
}

func (r *Router) memberNick(ctx context.Context, log *zap.Logger, ev Event, before, after Member) Outcome {
	dest, ok := r.destination(ev.GuildID, config.CategoryMembers)
	if !ok {
		return dropped(ReasonNotConfigured)
	}
	attr, attributed := r.attribute(ctx, ev.GuildID, forensics.ActionMemberUpdate, after.User.ID, ev.ReceivedAt)
	if attributed && r.isSelf(attr.ActorID) {
		return dropped(ReasonSelf)
	}
	return r.dispatch(ctx, log, ev.GuildID, dest, formatNickname(before, after, attr, attributed))
}
