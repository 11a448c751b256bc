package exploration

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/wanderstone/xiuxian-bot/internal/domain/exploration"
	teamdom "github.com/wanderstone/xiuxian-bot/internal/domain/team"
	xerr "github.com/wanderstone/xiuxian-bot/internal/errors"
)

// setupTeam creates a team at location 1 with everyone joined
func setupTeam(t *testing.T, env *testEnv, leaderID string, memberIDs ...string) *teamdom.Team {
	t.Helper()
	ctx := context.Background()

	created, err := env.teams.CreateTeam(ctx, leaderID, 1)
	require.NoError(t, err)

	for _, id := range memberIDs {
		_, err = env.teams.InviteMember(ctx, created.ID, leaderID, id)
		require.NoError(t, err)
		_, err = env.teams.AcceptInvite(ctx, created.ID, id)
		require.NoError(t, err)
	}

	joined, err := env.teams.GetTeam(ctx, created.ID)
	require.NoError(t, err)
	return joined
}

func TestStartTeamExploration(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tm := setupTeam(t, env, "leader", "alice")

	ev := choiceEvent("上古遗迹", 2)
	env.world.EXPECT().ExploreLocation(gomock.Any(), "leader", 1).Return(ev, nil)

	result, err := env.svc.StartTeamExploration(ctx, tm.ID, "leader")
	require.NoError(t, err)
	assert.Equal(t, ev, result.PendingEvent)
	assert.Equal(t, 1, result.Round)

	started, err := env.teams.GetTeam(ctx, tm.ID)
	require.NoError(t, err)
	assert.Equal(t, teamdom.StatusActive, started.Status)

	sess, err := env.svc.GetSession(ctx, tm.ID)
	require.NoError(t, err)
	assert.Equal(t, exploration.KindTeam, sess.Kind)
	assert.Equal(t, []string{"leader", "alice"}, sess.Members)
}

func TestStartTeamExploration_NotLeader(t *testing.T) {
	env := newTestEnv(t)

	tm := setupTeam(t, env, "leader", "alice")

	_, err := env.svc.StartTeamExploration(context.Background(), tm.ID, "alice")
	require.Error(t, err)
	assert.True(t, xerr.IsPermissionDenied(err))
}

func TestSubmitTeamChoice_WaitsForQuorum(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tm := setupTeam(t, env, "leader", "alice", "bob")
	env.world.EXPECT().ExploreLocation(gomock.Any(), "leader", 1).Return(choiceEvent("事件", 2), nil)

	_, err := env.svc.StartTeamExploration(ctx, tm.ID, "leader")
	require.NoError(t, err)

	vote, err := env.svc.SubmitTeamChoice(ctx, tm.ID, "leader", 1)
	require.NoError(t, err)
	assert.True(t, vote.Waiting)
	assert.Equal(t, 1, vote.VotesIn)
	assert.Equal(t, 3, vote.VotesNeeded)

	// Changing your vote does not add a second ballot
	vote, err = env.svc.SubmitTeamChoice(ctx, tm.ID, "leader", 2)
	require.NoError(t, err)
	assert.True(t, vote.Waiting)
	assert.Equal(t, 1, vote.VotesIn)
}

func TestSubmitTeamChoice_NotAMember(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tm := setupTeam(t, env, "leader", "alice")
	env.world.EXPECT().ExploreLocation(gomock.Any(), "leader", 1).Return(choiceEvent("事件", 2), nil)

	_, err := env.svc.StartTeamExploration(ctx, tm.ID, "leader")
	require.NoError(t, err)

	_, err = env.svc.SubmitTeamChoice(ctx, tm.ID, "stranger", 1)
	require.Error(t, err)
	assert.True(t, xerr.IsPermissionDenied(err))
}

func TestSubmitTeamChoice_LeaderBreaksTwoWayTie(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tm := setupTeam(t, env, "leader", "alice")

	first := choiceEvent("岔路", 2)
	second := choiceEvent("后续", 2)
	env.world.EXPECT().ExploreLocation(gomock.Any(), "leader", 1).Return(first, nil)
	// The leader voted for the second option, so the tie resolves its way
	env.world.EXPECT().HandleEventChoice(gomock.Any(), "leader", first, &first.Choices[1], 1).Return(&exploration.ResolutionResult{
		OutcomeText: "平安通过。",
		Rewards:     exploration.Rewards{SpiritStoneDelta: 50},
	}, nil).Times(1)
	env.world.EXPECT().ExploreLocation(gomock.Any(), "leader", 1).Return(second, nil)

	_, err := env.svc.StartTeamExploration(ctx, tm.ID, "leader")
	require.NoError(t, err)

	vote, err := env.svc.SubmitTeamChoice(ctx, tm.ID, "leader", 2)
	require.NoError(t, err)
	assert.True(t, vote.Waiting)

	vote, err = env.svc.SubmitTeamChoice(ctx, tm.ID, "alice", 1)
	require.NoError(t, err)
	assert.False(t, vote.Waiting)
	require.NotNil(t, vote.Outcome)
	assert.Equal(t, first.Choices[1].Text, vote.Outcome.ChoiceText)
	assert.Equal(t, second, vote.Outcome.PendingEvent)

	// Every member got the payout
	for _, id := range []string{"leader", "alice"} {
		p, err := env.players.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 50, p.SpiritStone, "player %s", id)
	}

	// The new round starts with a clean ballot box
	sess, err := env.svc.GetSession(ctx, tm.ID)
	require.NoError(t, err)
	assert.Empty(t, sess.ChoicesMade)
	assert.Equal(t, 2, sess.Round)
}

func TestSubmitTeamChoice_ThreeWayTieTakesLowestIndex(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tm := setupTeam(t, env, "leader", "alice", "bob")

	first := choiceEvent("三岔口", 3)
	env.world.EXPECT().ExploreLocation(gomock.Any(), "leader", 1).Return(first, nil)
	env.world.EXPECT().HandleEventChoice(gomock.Any(), "leader", first, &first.Choices[0], 1).Return(&exploration.ResolutionResult{
		OutcomeText: "走了第一条路。",
	}, nil).Times(1)
	env.world.EXPECT().ExploreLocation(gomock.Any(), "leader", 1).Return(choiceEvent("后续", 2), nil)

	_, err := env.svc.StartTeamExploration(ctx, tm.ID, "leader")
	require.NoError(t, err)

	// Three-way split is beyond the leader's override; lowest index wins
	_, err = env.svc.SubmitTeamChoice(ctx, tm.ID, "alice", 2)
	require.NoError(t, err)
	_, err = env.svc.SubmitTeamChoice(ctx, tm.ID, "bob", 3)
	require.NoError(t, err)
	vote, err := env.svc.SubmitTeamChoice(ctx, tm.ID, "leader", 1)
	require.NoError(t, err)

	require.NotNil(t, vote.Outcome)
	assert.Equal(t, first.Choices[0].Text, vote.Outcome.ChoiceText)
}

func TestSubmitTeamChoice_MajorityEndsRun(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tm := setupTeam(t, env, "leader", "alice")
	env.world.EXPECT().ExploreLocation(gomock.Any(), "leader", 1).Return(choiceEvent("事件", 2), nil)

	_, err := env.svc.StartTeamExploration(ctx, tm.ID, "leader")
	require.NoError(t, err)

	// Choice 3 is one past the event's two options: a vote to end
	_, err = env.svc.SubmitTeamChoice(ctx, tm.ID, "leader", 3)
	require.NoError(t, err)
	vote, err := env.svc.SubmitTeamChoice(ctx, tm.ID, "alice", 3)
	require.NoError(t, err)

	assert.True(t, vote.EndedByVote)
	require.NotNil(t, vote.Summary)

	finished, err := env.teams.GetTeam(ctx, tm.ID)
	require.NoError(t, err)
	assert.Equal(t, teamdom.StatusFinished, finished.Status)

	_, err = env.svc.GetSession(ctx, tm.ID)
	assert.True(t, xerr.IsNotFound(err))
}

func TestSubmitTeamChoice_MinorityEndVotesAreIgnoredInTally(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tm := setupTeam(t, env, "leader", "alice", "bob")

	first := choiceEvent("事件", 2)
	env.world.EXPECT().ExploreLocation(gomock.Any(), "leader", 1).Return(first, nil)
	env.world.EXPECT().HandleEventChoice(gomock.Any(), "leader", first, &first.Choices[1], 1).Return(&exploration.ResolutionResult{
		OutcomeText: "继续前进。",
	}, nil).Times(1)
	env.world.EXPECT().ExploreLocation(gomock.Any(), "leader", 1).Return(choiceEvent("后续", 2), nil)

	_, err := env.svc.StartTeamExploration(ctx, tm.ID, "leader")
	require.NoError(t, err)

	// One end vote out of three is no majority; the story votes decide
	_, err = env.svc.SubmitTeamChoice(ctx, tm.ID, "bob", 3)
	require.NoError(t, err)
	_, err = env.svc.SubmitTeamChoice(ctx, tm.ID, "alice", 2)
	require.NoError(t, err)
	vote, err := env.svc.SubmitTeamChoice(ctx, tm.ID, "leader", 2)
	require.NoError(t, err)

	assert.False(t, vote.EndedByVote)
	require.NotNil(t, vote.Outcome)
	assert.Equal(t, first.Choices[1].Text, vote.Outcome.ChoiceText)
}

func TestSubmitTeamChoice_ConcurrentFinalVotesResolveOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tm := setupTeam(t, env, "leader", "alice", "bob")

	first := choiceEvent("事件", 2)
	env.world.EXPECT().ExploreLocation(gomock.Any(), "leader", 1).Return(first, nil)
	// However the last two votes interleave, the round resolves once: one
	// resolution call, one payout per member
	env.world.EXPECT().HandleEventChoice(gomock.Any(), "leader", first, &first.Choices[0], 1).Return(&exploration.ResolutionResult{
		OutcomeText: "有所收获。",
		Rewards:     exploration.Rewards{SpiritStoneDelta: 50},
	}, nil).Times(1)
	env.world.EXPECT().ExploreLocation(gomock.Any(), "leader", 1).Return(choiceEvent("后续", 2), nil).Times(1)

	_, err := env.svc.StartTeamExploration(ctx, tm.ID, "leader")
	require.NoError(t, err)

	_, err = env.svc.SubmitTeamChoice(ctx, tm.ID, "leader", 1)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	results := make([]*TeamVoteResult, 2)
	for i, member := range []string{"alice", "bob"} {
		i, member := i, member
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = env.svc.SubmitTeamChoice(ctx, tm.ID, member, 1)
		}()
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	// Exactly one of the two racing votes completed the quorum
	resolved := 0
	for _, r := range results {
		if r.Outcome != nil {
			resolved++
		} else {
			assert.True(t, r.Waiting)
		}
	}
	assert.Equal(t, 1, resolved)

	for _, id := range []string{"leader", "alice", "bob"} {
		p, err := env.players.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 50, p.SpiritStone, "player %s paid exactly once", id)
	}

	sess, err := env.svc.GetSession(ctx, tm.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, sess.Round)
	assert.Len(t, sess.StoryHistory, 1)
}

func TestSubmitTeamEndVote(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tm := setupTeam(t, env, "leader", "alice")
	env.world.EXPECT().ExploreLocation(gomock.Any(), "leader", 1).Return(choiceEvent("事件", 2), nil)

	_, err := env.svc.StartTeamExploration(ctx, tm.ID, "leader")
	require.NoError(t, err)

	// No choice number involved, so the ballot cannot go stale against a
	// changed event
	vote, err := env.svc.SubmitTeamEndVote(ctx, tm.ID, "leader")
	require.NoError(t, err)
	assert.True(t, vote.Waiting)

	vote, err = env.svc.SubmitTeamEndVote(ctx, tm.ID, "alice")
	require.NoError(t, err)
	assert.True(t, vote.EndedByVote)

	finished, err := env.teams.GetTeam(ctx, tm.ID)
	require.NoError(t, err)
	assert.Equal(t, teamdom.StatusFinished, finished.Status)
}

func TestAbortTeamSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tm := setupTeam(t, env, "leader", "alice")
	env.world.EXPECT().ExploreLocation(gomock.Any(), "leader", 1).Return(choiceEvent("事件", 2), nil)

	_, err := env.svc.StartTeamExploration(ctx, tm.ID, "leader")
	require.NoError(t, err)

	env.svc.AbortTeamSession(ctx, tm.ID)

	_, err = env.svc.GetSession(ctx, tm.ID)
	assert.True(t, xerr.IsNotFound(err))
}
