package state

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInviteSource struct {
	mu    sync.Mutex
	snaps map[string]InviteSnapshot
	err   map[string]error
	calls int
}

func (f *fakeInviteSource) GuildInvites(_ context.Context, guildID string) (InviteSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.err[guildID]; err != nil {
		return nil, err
	}
	return f.snaps[guildID], nil
}

func TestInviteTracker_NoChangeIsNone(t *testing.T) {
	tracker := NewInviteTracker(nil)
	snap := InviteSnapshot{{Code: "A", Uses: 3}, {Code: "B", Uses: 1}}

	_, ok := tracker.DiffAndUpdate("g", snap)
	assert.False(t, ok, "first snapshot only seeds")

	_, ok = tracker.DiffAndUpdate("g", InviteSnapshot{{Code: "A", Uses: 3}, {Code: "B", Uses: 1}})
	assert.False(t, ok)
}

func TestInviteTracker_FindsIncrementedCode(t *testing.T) {
	tracker := NewInviteTracker(nil)
	tracker.DiffAndUpdate("g", InviteSnapshot{{Code: "A", Uses: 3}, {Code: "B", Uses: 1}})

	code, ok := tracker.DiffAndUpdate("g", InviteSnapshot{{Code: "A", Uses: 3}, {Code: "B", Uses: 2}})
	require.True(t, ok)
	assert.Equal(t, "B", code)

	uses, ok := tracker.Uses("g", "B")
	require.True(t, ok)
	assert.Equal(t, 2, uses)
}

func TestInviteTracker_NewCodeCountsFromZero(t *testing.T) {
	tracker := NewInviteTracker(nil)
	tracker.DiffAndUpdate("g", InviteSnapshot{{Code: "A", Uses: 3}})

	code, ok := tracker.DiffAndUpdate("g", InviteSnapshot{{Code: "A", Uses: 3}, {Code: "N", Uses: 1}})
	require.True(t, ok)
	assert.Equal(t, "N", code)

	_, ok = tracker.DiffAndUpdate("g", InviteSnapshot{{Code: "A", Uses: 3}, {Code: "N", Uses: 1}, {Code: "Z", Uses: 0}})
	assert.False(t, ok, "an unused new invite is not a join")
}

// Two joins between refreshes bump both A and B. The pick follows the fresh
// snapshot's order, whichever of the two joins diffs first.
func TestInviteTracker_SimultaneousJoinsTieBreakByOrder(t *testing.T) {
	for _, tc := range []struct {
		name  string
		fresh InviteSnapshot
		want  string
	}{
		{"A listed first", InviteSnapshot{{Code: "A", Uses: 6}, {Code: "B", Uses: 3}}, "A"},
		{"B listed first", InviteSnapshot{{Code: "B", Uses: 3}, {Code: "A", Uses: 6}}, "B"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			for i := 0; i < 5; i++ {
				tracker := NewInviteTracker(nil)
				tracker.DiffAndUpdate("g", InviteSnapshot{{Code: "A", Uses: 5}, {Code: "B", Uses: 2}})

				code, ok := tracker.DiffAndUpdate("g", tc.fresh)
				require.True(t, ok)
				assert.Equal(t, tc.want, code)

				_, ok = tracker.DiffAndUpdate("g", tc.fresh)
				assert.False(t, ok, "second join diffs against the already-updated snapshot")
			}
		})
	}
}

func TestInviteTracker_Refresh(t *testing.T) {
	src := &fakeInviteSource{snaps: map[string]InviteSnapshot{
		"g": {{Code: "A", Uses: 1}},
	}}
	tracker := NewInviteTracker(src)

	snap, err := tracker.Refresh(context.Background(), "g")
	require.NoError(t, err)
	assert.Len(t, snap, 1)
	assert.Equal(t, 1, tracker.Tracked())

	src.snaps["g"] = InviteSnapshot{{Code: "A", Uses: 2}}
	fresh, err := tracker.Fetch(context.Background(), "g")
	require.NoError(t, err)
	uses, _ := tracker.Uses("g", "A")
	assert.Equal(t, 1, uses, "Fetch must not replace the tracked snapshot")

	code, ok := tracker.DiffAndUpdate("g", fresh)
	require.True(t, ok)
	assert.Equal(t, "A", code)
}

func TestInviteTracker_RefreshAllSkipsFailures(t *testing.T) {
	src := &fakeInviteSource{
		snaps: map[string]InviteSnapshot{"g1": {{Code: "A"}}, "g3": {}},
		err:   map[string]error{"g2": errors.New("missing permissions")},
	}
	tracker := NewInviteTracker(src)

	n := tracker.RefreshAll(context.Background(), []string{"g1", "g2", "g3"})
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, tracker.Tracked())
	assert.Equal(t, 3, src.calls)

	_, err := tracker.Refresh(context.Background(), "g2")
	assert.ErrorContains(t, err, "missing permissions")

	tracker.Forget("g1")
	assert.Equal(t, 1, tracker.Tracked())
}

func TestInviteTracker_NoSource(t *testing.T) {
	_, err := NewInviteTracker(nil).Refresh(context.Background(), "g")
	assert.Error(t, err)
}
