package exploration

//go:generate mockgen -destination=mock/mock_service.go -package=mockexploration -source=service.go

import (
	"context"
	"log"

	"github.com/wanderstone/xiuxian-bot/internal/domain/exploration"
	xerr "github.com/wanderstone/xiuxian-bot/internal/errors"
	"github.com/wanderstone/xiuxian-bot/internal/repositories/players"
	teamsvc "github.com/wanderstone/xiuxian-bot/internal/services/team"
	worldsvc "github.com/wanderstone/xiuxian-bot/internal/services/world"
)

// Service coordinates exploration sessions: solo runs driven by a single
// player and team runs driven by member votes. All session mutation happens
// under the store's per-actor lock.
type Service interface {
	// StartExploration begins a solo exploration at the player's location
	StartExploration(ctx context.Context, playerID, playerName string) (*StartResult, error)

	// SubmitChoice answers the pending event of a solo session. Choice
	// numbers are one-based; one past the last choice ends the exploration.
	SubmitChoice(ctx context.Context, playerID string, choiceNum int) (*RoundOutcome, error)

	// EndExploration ends a solo session immediately
	EndExploration(ctx context.Context, playerID string) (*Summary, error)

	// GetSession returns a snapshot of the actor's live session
	GetSession(ctx context.Context, actorID string) (*exploration.Session, error)

	// StartTeamExploration begins a team run (leader only, quorum enforced)
	StartTeamExploration(ctx context.Context, teamID, leaderID string) (*StartResult, error)

	// SubmitTeamChoice records one member's vote on the pending event.
	// Choice numbers are one-based; one past the last choice votes to end.
	SubmitTeamChoice(ctx context.Context, teamID, playerID string, choiceNum int) (*TeamVoteResult, error)

	// SubmitTeamEndVote casts an end ballot for the pending event without a
	// choice number
	SubmitTeamEndVote(ctx context.Context, teamID, playerID string) (*TeamVoteResult, error)

	// AbortTeamSession drops a team's session without a vote, for use when
	// the team itself dissolves
	AbortTeamSession(ctx context.Context, teamID string)
}

// AutoOutcome is an event that resolved on its own during dispatch
type AutoOutcome struct {
	Event  *exploration.Event
	Result *exploration.ResolutionResult
}

// Summary wraps up a finished session
type Summary struct {
	RoundsCompleted int
	History         []exploration.StoryEntry
}

// StartResult reports the opening of a session: any auto-resolved events and
// either the first pending choice or, when every round auto-resolved, the
// closing summary.
type StartResult struct {
	LocationID   int
	Round        int
	MaxRounds    int
	AutoOutcomes []AutoOutcome
	PendingEvent *exploration.Event
	Ended        bool
	Summary      *Summary
}

// RoundOutcome reports a resolved choice: the outcome itself, any
// auto-resolved follow-up events, and what the session looks like after.
type RoundOutcome struct {
	ChoiceText   string
	Result       *exploration.ResolutionResult
	AutoOutcomes []AutoOutcome
	Round        int
	PendingEvent *exploration.Event
	Ended        bool
	Summary      *Summary
}

// TeamVoteResult reports what one member's vote led to. While votes are
// still outstanding only the counts are set; once the last vote lands the
// round resolves into an outcome or the session ends by majority.
type TeamVoteResult struct {
	Waiting     bool
	VotesIn     int
	VotesNeeded int
	EndedByVote bool
	Outcome     *RoundOutcome
	Summary     *Summary
}

// ServiceConfig holds configuration for the service
type ServiceConfig struct {
	Store            *SessionStore
	WorldService     worldsvc.Service
	TeamService      teamsvc.Service
	PlayerRepository players.Repository
	MaxRounds        int // Optional, defaults to the domain default
}

type service struct {
	store     *SessionStore
	world     worldsvc.Service
	teams     teamsvc.Service
	rewards   *RewardApplier
	maxRounds int
}

// NewService creates a new exploration service
func NewService(cfg *ServiceConfig) Service {
	if cfg.Store == nil {
		panic("session store is required")
	}
	if cfg.WorldService == nil {
		panic("world service is required")
	}
	if cfg.TeamService == nil {
		panic("team service is required")
	}
	if cfg.PlayerRepository == nil {
		panic("player repository is required")
	}

	maxRounds := cfg.MaxRounds
	if maxRounds <= 0 {
		maxRounds = exploration.DefaultMaxRounds
	}

	return &service{
		store:     cfg.Store,
		world:     cfg.WorldService,
		teams:     cfg.TeamService,
		rewards:   NewRewardApplier(cfg.PlayerRepository),
		maxRounds: maxRounds,
	}
}

// StartExploration begins a solo exploration at the player's location
func (s *service) StartExploration(ctx context.Context, playerID, playerName string) (*StartResult, error) {
	if playerID == "" {
		return nil, xerr.InvalidArgument("player ID is required")
	}

	if _, err := s.rewards.EnsurePlayer(ctx, playerID, playerName); err != nil {
		return nil, xerr.Wrap(err, "failed to load player")
	}

	loc, err := s.world.GetPlayerLocation(ctx, playerID)
	if err != nil {
		return nil, err
	}

	sess := exploration.NewSoloSession(playerID, loc.ID, s.maxRounds, s.store.clock.Now())
	if err := s.store.Create(sess); err != nil {
		return nil, err
	}

	result := &StartResult{
		LocationID: loc.ID,
		MaxRounds:  sess.MaxRounds,
	}
	err = s.store.WithSession(playerID, func(sess *exploration.Session) error {
		return s.openSession(ctx, sess, result)
	})
	if err != nil {
		s.store.Remove(playerID)
		return nil, err
	}

	return result, nil
}

// openSession runs the dispatch loop on a fresh session and fills in the
// start result. Caller holds the session lock.
func (s *service) openSession(ctx context.Context, sess *exploration.Session, result *StartResult) error {
	autos, err := s.dispatch(ctx, sess)
	if err != nil {
		return err
	}

	result.Round = sess.Round
	result.AutoOutcomes = autos
	result.PendingEvent = sess.PendingEvent
	if !sess.Active() {
		result.Ended = true
		result.Summary = summarize(sess)
	}
	return nil
}

// SubmitChoice answers the pending event of a solo session
func (s *service) SubmitChoice(ctx context.Context, playerID string, choiceNum int) (*RoundOutcome, error) {
	var outcome *RoundOutcome
	err := s.store.WithSession(playerID, func(sess *exploration.Session) error {
		if sess.Kind != exploration.KindSolo {
			return xerr.InvalidArgument("队伍探索请在队伍中投票")
		}

		pe := sess.PendingEvent
		if pe == nil {
			return xerr.InvalidArgument("当前没有等待选择的事件")
		}

		// One past the last choice is the way out
		if choiceNum == len(pe.Choices)+1 {
			sess.End()
			outcome = &RoundOutcome{Ended: true, Summary: summarize(sess)}
			return nil
		}
		if choiceNum < 1 || choiceNum > len(pe.Choices) {
			return xerr.InvalidArgumentf("无效的选项 %d，请输入 1-%d", choiceNum, len(pe.Choices)+1)
		}

		var err error
		outcome, err = s.resolveRound(ctx, sess, pe, choiceNum-1)
		return err
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// resolveRound resolves the pending event with the chosen index, applies the
// rewards, advances the round and dispatches the next event. Caller holds
// the session lock and has validated the index.
func (s *service) resolveRound(ctx context.Context, sess *exploration.Session, pe *exploration.Event, index int) (*RoundOutcome, error) {
	choice := &pe.Choices[index]

	resolverID := sess.ActorID
	if sess.Kind == exploration.KindTeam {
		resolverID = sess.LeaderID
	}

	result, err := s.world.HandleEventChoice(ctx, resolverID, pe, choice, sess.LocationID)
	if err != nil {
		return nil, xerr.Wrap(err, "failed to resolve choice")
	}

	s.rewards.Apply(ctx, sess.Members, result)
	sess.AppendHistory(choice.Text, result.OutcomeText)
	sess.ClearPendingEvent()

	outcome := &RoundOutcome{
		ChoiceText: choice.Text,
		Result:     result,
	}

	if !sess.AdvanceRound() {
		outcome.Ended = true
		outcome.Summary = summarize(sess)
		return outcome, nil
	}

	autos, err := s.dispatch(ctx, sess)
	if err != nil {
		// The round itself resolved and paid out. Without a next event the
		// session has nothing left to wait on, so close it out instead of
		// stranding it until the idle timeout.
		log.Printf("Failed to dispatch next event for %s, ending session: %v", sess.ActorID, err)
		sess.End()
		outcome.AutoOutcomes = autos
		outcome.Ended = true
		outcome.Summary = summarize(sess)
		return outcome, nil
	}
	outcome.AutoOutcomes = autos
	outcome.Round = sess.Round
	outcome.PendingEvent = sess.PendingEvent
	if !sess.Active() {
		outcome.Ended = true
		outcome.Summary = summarize(sess)
	}

	return outcome, nil
}

// dispatch generates events until one needs a choice or the session runs out
// of rounds. Auto-resolving events apply their rewards on the spot. Caller
// holds the session lock.
func (s *service) dispatch(ctx context.Context, sess *exploration.Session) ([]AutoOutcome, error) {
	explorerID := sess.ActorID
	if sess.Kind == exploration.KindTeam {
		explorerID = sess.LeaderID
	}

	var autos []AutoOutcome
	for sess.Active() {
		ev, err := s.world.ExploreLocation(ctx, explorerID, sess.LocationID)
		if err != nil {
			return autos, xerr.Wrap(err, "failed to generate event")
		}

		if ev.HasChoice {
			sess.SetPendingEvent(ev)
			return autos, nil
		}

		s.rewards.Apply(ctx, sess.Members, ev.AutoResult)
		sess.AppendHistory(ev.Title, ev.AutoResult.OutcomeText)
		autos = append(autos, AutoOutcome{Event: ev, Result: ev.AutoResult})

		if !sess.AdvanceRound() {
			return autos, nil
		}
	}

	return autos, nil
}

// EndExploration ends a solo session immediately
func (s *service) EndExploration(ctx context.Context, playerID string) (*Summary, error) {
	var summary *Summary
	err := s.store.WithSession(playerID, func(sess *exploration.Session) error {
		if sess.Kind != exploration.KindSolo {
			return xerr.InvalidArgument("队伍探索需要投票结束")
		}
		sess.End()
		summary = summarize(sess)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// GetSession returns a snapshot of the actor's live session
func (s *service) GetSession(ctx context.Context, actorID string) (*exploration.Session, error) {
	var snapshot *exploration.Session
	err := s.store.WithSession(actorID, func(sess *exploration.Session) error {
		copied := *sess
		snapshot = &copied
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// summarize builds the closing summary. The round counter sits one past the
// last completed round unless the session was cut short mid-round.
func summarize(sess *exploration.Session) *Summary {
	completed := sess.Round - 1
	if completed > sess.MaxRounds {
		completed = sess.MaxRounds
	}
	if completed < 0 {
		completed = 0
	}
	return &Summary{
		RoundsCompleted: completed,
		History:         sess.StoryHistory,
	}
}
