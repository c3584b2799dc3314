package state

import (
	"context"
	"fmt"
	"sync"

	"go-logrelay/internal/logging"

	"go.uber.org/zap"
)

type InviteUse struct {
	Code      string
	Uses      int
	InviterID string
	ChannelID string
}

// InviteSnapshot is a guild's invite list in the order the platform returned it.
type InviteSnapshot []InviteUse

// InviteSource fetches the current invite list of a guild.
type InviteSource interface {
	GuildInvites(ctx context.Context, guildID string) (InviteSnapshot, error)
}

// InviteTracker remembers the last known invite use counts per guild so a
// member join can be matched to the invite whose counter moved.
//
// Two joins landing between the same pair of refreshes both see every
// bumped code; DiffAndUpdate picks the first one in the fresh snapshot's
// order for whichever join diffs first. That is a heuristic and is kept as
// such.
type InviteTracker struct {
	source InviteSource

	mu     sync.Mutex
	guilds map[string]InviteSnapshot
}

func NewInviteTracker(source InviteSource) *InviteTracker {
	return &InviteTracker{
		source: source,
		guilds: make(map[string]InviteSnapshot),
	}
}

// Fetch asks the platform for the guild's invites without touching the
// tracked snapshot.
func (t *InviteTracker) Fetch(ctx context.Context, guildID string) (InviteSnapshot, error) {
	if t.source == nil {
		return nil, fmt.Errorf("no invite source")
	}
	snap, err := t.source.GuildInvites(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("fetch invites for guild %s: %w", guildID, err)
	}
	return snap, nil
}

// Refresh fetches and replaces the tracked snapshot.
func (t *InviteTracker) Refresh(ctx context.Context, guildID string) (InviteSnapshot, error) {
	snap, err := t.Fetch(ctx, guildID)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	t.guilds[guildID] = cloneSnapshot(snap)
	t.mu.Unlock()
	return snap, nil
}

// DiffAndUpdate returns the first code in fresh whose use count rose since
// the tracked snapshot, then tracks fresh. A code the tracked snapshot did
// not know counts from zero. With no tracked snapshot for the guild there
// is nothing to compare against and the result is none.
func (t *InviteTracker) DiffAndUpdate(guildID string, fresh InviteSnapshot) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev, tracked := t.guilds[guildID]
	t.guilds[guildID] = cloneSnapshot(fresh)
	if !tracked {
		return "", false
	}

	before := make(map[string]int, len(prev))
	for _, inv := range prev {
		before[inv.Code] = inv.Uses
	}
	for _, inv := range fresh {
		if inv.Uses > before[inv.Code] {
			return inv.Code, true
		}
	}
	return "", false
}

// RefreshAll seeds snapshots at startup. Failures are logged and skipped;
// the count of guilds refreshed is returned.
func (t *InviteTracker) RefreshAll(ctx context.Context, guildIDs []string) int {
	ok := 0
	for _, id := range guildIDs {
		if ctx.Err() != nil {
			break
		}
		if _, err := t.Refresh(ctx, id); err != nil {
			logging.L().Debug("invite refresh failed", zap.String("guild_id", id), zap.Error(err))
			continue
		}
		ok++
	}
	return ok
}

func (t *InviteTracker) Forget(guildID string) {
	t.mu.Lock()
	delete(t.guilds, guildID)
	t.mu.Unlock()
}

// Tracked is the number of guilds with a snapshot.
func (t *InviteTracker) Tracked() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.guilds)
}

// Uses reports the tracked use count of code in a guild.
func (t *InviteTracker) Uses(guildID, code string) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, inv := range t.guilds[guildID] {
		if inv.Code == code {
			return inv.Uses, true
		}
	}
	return 0, false
}

func cloneSnapshot(s InviteSnapshot) InviteSnapshot {
	if s == nil {
		return InviteSnapshot{}
	}
	out := make(InviteSnapshot, len(s))
	copy(out, s)
	return out
}
