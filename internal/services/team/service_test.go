package team_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	teamdomain "github.com/wanderstone/xiuxian-bot/internal/domain/team"
	xerr "github.com/wanderstone/xiuxian-bot/internal/errors"
	"github.com/wanderstone/xiuxian-bot/internal/repositories/teams"
	teamsvc "github.com/wanderstone/xiuxian-bot/internal/services/team"
)

// sequentialUUID hands out predictable IDs for assertions
type sequentialUUID struct {
	next int
}

func (g *sequentialUUID) New() string {
	g.next++
	return fmt.Sprintf("team-%d", g.next)
}

func newTestService() teamsvc.Service {
	return teamsvc.NewService(&teamsvc.ServiceConfig{
		TeamRepository: teams.NewInMemoryRepository(),
		UUIDGenerator:  &sequentialUUID{},
	})
}

func TestCreateTeam(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.CreateTeam(ctx, "leader", 3)
	require.NoError(t, err)
	assert.Equal(t, "team-1", created.ID)
	assert.Equal(t, "leader", created.LeaderID)
	assert.Equal(t, 3, created.LocationID)
	assert.Equal(t, teamdomain.StatusWaiting, created.Status)
	assert.Equal(t, 1, created.JoinedCount())
}

func TestCreateTeam_AlreadyInTeam(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.CreateTeam(ctx, "leader", 1)
	require.NoError(t, err)

	_, err = svc.CreateTeam(ctx, "leader", 1)
	require.Error(t, err)
	assert.True(t, xerr.IsAlreadyExists(err))
}

func TestInviteAndAccept(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.CreateTeam(ctx, "leader", 1)
	require.NoError(t, err)

	_, err = svc.InviteMember(ctx, created.ID, "leader", "alice")
	require.NoError(t, err)

	invites, err := svc.GetPlayerInvites(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, invites, 1)
	assert.Equal(t, created.ID, invites[0].ID)

	joined, err := svc.AcceptInvite(ctx, created.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, joined.JoinedCount())

	mine, err := svc.GetPlayerTeam(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, mine)
	assert.Equal(t, created.ID, mine.ID)
}

func TestInviteMember_OnlyLeader(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.CreateTeam(ctx, "leader", 1)
	require.NoError(t, err)

	_, err = svc.InviteMember(ctx, created.ID, "not-leader", "alice")
	require.Error(t, err)
	assert.True(t, xerr.IsPermissionDenied(err))
}

func TestInviteMember_SelfInvite(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.CreateTeam(ctx, "leader", 1)
	require.NoError(t, err)

	_, err = svc.InviteMember(ctx, created.ID, "leader", "leader")
	require.Error(t, err)
	assert.True(t, xerr.IsInvalidArgument(err))
}

func TestInviteMember_TeamFull(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.CreateTeam(ctx, "leader", 1)
	require.NoError(t, err)

	for i := 0; i < teamdomain.MaxMembers-1; i++ {
		_, err = svc.InviteMember(ctx, created.ID, "leader", fmt.Sprintf("member-%d", i))
		require.NoError(t, err)
	}

	_, err = svc.InviteMember(ctx, created.ID, "leader", "one-too-many")
	require.Error(t, err)
	assert.True(t, xerr.IsInvalidArgument(err))
}

func TestRejectInvite(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.CreateTeam(ctx, "leader", 1)
	require.NoError(t, err)

	_, err = svc.InviteMember(ctx, created.ID, "leader", "alice")
	require.NoError(t, err)

	require.NoError(t, svc.RejectInvite(ctx, created.ID, "alice"))

	invites, err := svc.GetPlayerInvites(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, invites)

	// Rejecting twice finds nothing
	err = svc.RejectInvite(ctx, created.ID, "alice")
	require.Error(t, err)
	assert.True(t, xerr.IsNotFound(err))
}

func TestLeaveTeam_MemberLeaves(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.CreateTeam(ctx, "leader", 1)
	require.NoError(t, err)
	_, err = svc.InviteMember(ctx, created.ID, "leader", "alice")
	require.NoError(t, err)
	_, err = svc.AcceptInvite(ctx, created.ID, "alice")
	require.NoError(t, err)

	disbanded, err := svc.LeaveTeam(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, disbanded)

	remaining, err := svc.GetTeam(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, remaining.JoinedCount())
}

func TestLeaveTeam_LeaderDisbands(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.CreateTeam(ctx, "leader", 1)
	require.NoError(t, err)
	_, err = svc.InviteMember(ctx, created.ID, "leader", "alice")
	require.NoError(t, err)
	_, err = svc.AcceptInvite(ctx, created.ID, "alice")
	require.NoError(t, err)

	disbanded, err := svc.LeaveTeam(ctx, "leader")
	require.NoError(t, err)
	assert.True(t, disbanded)

	_, err = svc.GetTeam(ctx, created.ID)
	require.Error(t, err)
	assert.True(t, xerr.IsNotFound(err))
}

func TestStartExploration(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.CreateTeam(ctx, "leader", 1)
	require.NoError(t, err)

	// Leader alone is not enough
	_, err = svc.StartExploration(ctx, created.ID, "leader")
	require.Error(t, err)
	assert.True(t, xerr.IsInvalidArgument(err))

	_, err = svc.InviteMember(ctx, created.ID, "leader", "alice")
	require.NoError(t, err)
	_, err = svc.AcceptInvite(ctx, created.ID, "alice")
	require.NoError(t, err)

	started, err := svc.StartExploration(ctx, created.ID, "leader")
	require.NoError(t, err)
	assert.Equal(t, teamdomain.StatusActive, started.Status)

	// No double start
	_, err = svc.StartExploration(ctx, created.ID, "leader")
	require.Error(t, err)
}

func TestStartExploration_OnlyLeader(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.CreateTeam(ctx, "leader", 1)
	require.NoError(t, err)

	_, err = svc.StartExploration(ctx, created.ID, "alice")
	require.Error(t, err)
	assert.True(t, xerr.IsPermissionDenied(err))
}

func TestFinishExploration(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.CreateTeam(ctx, "leader", 1)
	require.NoError(t, err)
	_, err = svc.InviteMember(ctx, created.ID, "leader", "alice")
	require.NoError(t, err)
	_, err = svc.AcceptInvite(ctx, created.ID, "alice")
	require.NoError(t, err)
	_, err = svc.StartExploration(ctx, created.ID, "leader")
	require.NoError(t, err)

	require.NoError(t, svc.FinishExploration(ctx, created.ID))

	finished, err := svc.GetTeam(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, teamdomain.StatusFinished, finished.Status)

	// A finished team no longer counts as the player's team
	mine, err := svc.GetPlayerTeam(ctx, "leader")
	require.NoError(t, err)
	assert.Nil(t, mine)
}
