package team

//go:generate mockgen -destination=mock/mock_service.go -package=mockteam -source=service.go

import (
	"context"
	"time"

	"github.com/wanderstone/xiuxian-bot/internal/domain/team"
	xerr "github.com/wanderstone/xiuxian-bot/internal/errors"
	"github.com/wanderstone/xiuxian-bot/internal/repositories/teams"
	"github.com/wanderstone/xiuxian-bot/internal/uuid"
)

// Service manages exploration team lifecycle: creation, invitations,
// membership and the waiting -> active -> finished transitions.
type Service interface {
	// CreateTeam creates a new team led by the given player
	CreateTeam(ctx context.Context, leaderID string, locationID int) (*team.Team, error)

	// InviteMember invites a player to the leader's team
	InviteMember(ctx context.Context, teamID, leaderID, playerID string) (*team.Team, error)

	// GetPlayerInvites lists teams with a live invitation for the player
	GetPlayerInvites(ctx context.Context, playerID string) ([]*team.Team, error)

	// AcceptInvite joins the player to the team they were invited to
	AcceptInvite(ctx context.Context, teamID, playerID string) (*team.Team, error)

	// RejectInvite declines a pending invitation
	RejectInvite(ctx context.Context, teamID, playerID string) error

	// LeaveTeam removes the player; the leader leaving disbands the team
	LeaveTeam(ctx context.Context, playerID string) (disbanded bool, err error)

	// DisbandTeam removes the team entirely (leader only)
	DisbandTeam(ctx context.Context, teamID, leaderID string) error

	// GetTeam retrieves a team by ID
	GetTeam(ctx context.Context, teamID string) (*team.Team, error)

	// GetPlayerTeam returns the team the player has joined, if any
	GetPlayerTeam(ctx context.Context, playerID string) (*team.Team, error)

	// StartExploration moves the team into active exploration
	StartExploration(ctx context.Context, teamID, leaderID string) (*team.Team, error)

	// FinishExploration concludes the team's exploration
	FinishExploration(ctx context.Context, teamID string) error
}

// ServiceConfig holds configuration for the service
type ServiceConfig struct {
	TeamRepository teams.Repository
	UUIDGenerator  uuid.Generator
}

type service struct {
	teamRepo      teams.Repository
	uuidGenerator uuid.Generator
}

// NewService creates a new team service
func NewService(cfg *ServiceConfig) Service {
	if cfg.TeamRepository == nil {
		panic("team repository is required")
	}

	gen := cfg.UUIDGenerator
	if gen == nil {
		gen = &uuid.GoogleUUIDGenerator{}
	}

	return &service{
		teamRepo:      cfg.TeamRepository,
		uuidGenerator: gen,
	}
}

// CreateTeam creates a new team led by the given player
func (s *service) CreateTeam(ctx context.Context, leaderID string, locationID int) (*team.Team, error) {
	if leaderID == "" {
		return nil, xerr.InvalidArgument("leader ID is required")
	}

	if existing, _ := s.GetPlayerTeam(ctx, leaderID); existing != nil {
		return nil, xerr.AlreadyExists("你已经在一个队伍中了").
			WithMeta("team_id", existing.ID)
	}

	t := team.New(s.uuidGenerator.New(), leaderID, locationID)
	if err := s.teamRepo.Create(ctx, t); err != nil {
		return nil, xerr.Wrap(err, "failed to create team")
	}

	return t, nil
}

// InviteMember invites a player to the leader's team
func (s *service) InviteMember(ctx context.Context, teamID, leaderID, playerID string) (*team.Team, error) {
	if playerID == "" {
		return nil, xerr.InvalidArgument("player ID is required")
	}
	if playerID == leaderID {
		return nil, xerr.InvalidArgument("不能邀请自己")
	}

	t, err := s.getTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !t.IsLeader(leaderID) {
		return nil, xerr.PermissionDenied("只有队长可以邀请成员")
	}
	if t.Status != team.StatusWaiting {
		return nil, xerr.InvalidArgument("队伍已经出发，无法邀请")
	}

	now := time.Now()
	t.PruneExpiredInvites(now)

	if t.HasMember(playerID) {
		return nil, xerr.AlreadyExists("该玩家已在队伍中或已被邀请")
	}
	if len(t.Members) >= team.MaxMembers {
		return nil, xerr.InvalidArgumentf("队伍已满（最多 %d 人）", team.MaxMembers)
	}

	if joined, _ := s.GetPlayerTeam(ctx, playerID); joined != nil {
		return nil, xerr.AlreadyExists("该玩家已加入其他队伍")
	}

	t.Invite(playerID, now)
	if err := s.teamRepo.Update(ctx, t); err != nil {
		return nil, xerr.Wrap(err, "failed to save invitation")
	}

	return t, nil
}

// GetPlayerInvites lists teams with a live invitation for the player
func (s *service) GetPlayerInvites(ctx context.Context, playerID string) ([]*team.Team, error) {
	all, err := s.teamRepo.GetByPlayer(ctx, playerID)
	if err != nil {
		return nil, xerr.Wrap(err, "failed to list invitations")
	}

	now := time.Now()
	var invited []*team.Team
	for _, t := range all {
		m, ok := t.Members[playerID]
		if !ok || m.Status != team.MemberStatusInvited {
			continue
		}
		if now.After(m.InviteExpiresAt) {
			continue
		}
		invited = append(invited, t)
	}

	return invited, nil
}

// AcceptInvite joins the player to the team they were invited to
func (s *service) AcceptInvite(ctx context.Context, teamID, playerID string) (*team.Team, error) {
	t, err := s.getTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if t.Status != team.StatusWaiting {
		return nil, xerr.InvalidArgument("队伍已经出发，无法加入")
	}

	if !t.AcceptInvite(playerID, time.Now()) {
		// The rejected invite may have been pruned in AcceptInvite; persist that
		_ = s.teamRepo.Update(ctx, t)
		return nil, xerr.NotFound("没有找到有效的邀请")
	}

	if err := s.teamRepo.Update(ctx, t); err != nil {
		return nil, xerr.Wrap(err, "failed to join team")
	}

	return t, nil
}

// RejectInvite declines a pending invitation
func (s *service) RejectInvite(ctx context.Context, teamID, playerID string) error {
	t, err := s.getTeam(ctx, teamID)
	if err != nil {
		return err
	}

	m, ok := t.Members[playerID]
	if !ok || m.Status != team.MemberStatusInvited {
		return xerr.NotFound("没有找到有效的邀请")
	}

	t.RemoveMember(playerID)
	if err := s.teamRepo.Update(ctx, t); err != nil {
		return xerr.Wrap(err, "failed to reject invitation")
	}

	return nil
}

// LeaveTeam removes the player; the leader leaving disbands the team
func (s *service) LeaveTeam(ctx context.Context, playerID string) (bool, error) {
	t, err := s.GetPlayerTeam(ctx, playerID)
	if err != nil {
		return false, err
	}
	if t == nil {
		return false, xerr.NotFound("你不在任何队伍中")
	}

	if t.IsLeader(playerID) {
		if err := s.teamRepo.Delete(ctx, t.ID); err != nil {
			return false, xerr.Wrap(err, "failed to disband team")
		}
		return true, nil
	}

	t.RemoveMember(playerID)
	if err := s.teamRepo.Update(ctx, t); err != nil {
		return false, xerr.Wrap(err, "failed to leave team")
	}

	return false, nil
}

// DisbandTeam removes the team entirely (leader only)
func (s *service) DisbandTeam(ctx context.Context, teamID, leaderID string) error {
	t, err := s.getTeam(ctx, teamID)
	if err != nil {
		return err
	}
	if !t.IsLeader(leaderID) {
		return xerr.PermissionDenied("只有队长可以解散队伍")
	}

	if err := s.teamRepo.Delete(ctx, teamID); err != nil {
		return xerr.Wrap(err, "failed to disband team")
	}

	return nil
}

// GetTeam retrieves a team by ID
func (s *service) GetTeam(ctx context.Context, teamID string) (*team.Team, error) {
	return s.getTeam(ctx, teamID)
}

// GetPlayerTeam returns the team the player has joined, if any. Returns nil
// without error when the player is unaffiliated.
func (s *service) GetPlayerTeam(ctx context.Context, playerID string) (*team.Team, error) {
	if playerID == "" {
		return nil, xerr.InvalidArgument("player ID is required")
	}

	all, err := s.teamRepo.GetByPlayer(ctx, playerID)
	if err != nil {
		return nil, xerr.Wrap(err, "failed to look up player team")
	}

	for _, t := range all {
		if t.Status == team.StatusFinished {
			continue
		}
		if m, ok := t.Members[playerID]; ok && m.Status == team.MemberStatusJoined {
			return t, nil
		}
	}

	return nil, nil
}

// StartExploration moves the team into active exploration. At least two
// joined members are required.
func (s *service) StartExploration(ctx context.Context, teamID, leaderID string) (*team.Team, error) {
	t, err := s.getTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !t.IsLeader(leaderID) {
		return nil, xerr.PermissionDenied("只有队长可以开始探索")
	}

	t.PruneExpiredInvites(time.Now())

	if t.JoinedCount() < 2 {
		return nil, xerr.InvalidArgument("队伍至少需要 2 名成员才能出发").
			WithMeta("joined", t.JoinedCount())
	}
	if !t.Start() {
		return nil, xerr.InvalidArgument("队伍已经出发")
	}

	if err := s.teamRepo.Update(ctx, t); err != nil {
		return nil, xerr.Wrap(err, "failed to start exploration")
	}

	return t, nil
}

// FinishExploration concludes the team's exploration
func (s *service) FinishExploration(ctx context.Context, teamID string) error {
	t, err := s.getTeam(ctx, teamID)
	if err != nil {
		return err
	}
	if !t.Finish() {
		return nil
	}

	if err := s.teamRepo.Update(ctx, t); err != nil {
		return xerr.Wrap(err, "failed to finish exploration")
	}

	return nil
}

func (s *service) getTeam(ctx context.Context, teamID string) (*team.Team, error) {
	if teamID == "" {
		return nil, xerr.InvalidArgument("team ID is required")
	}

	t, err := s.teamRepo.Get(ctx, teamID)
	if err != nil {
		return nil, xerr.WrapWithCode(err, xerr.CodeNotFound, "队伍不存在")
	}

	return t, nil
}
