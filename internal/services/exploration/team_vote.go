package exploration

import (
	"context"
	"log"

	"github.com/wanderstone/xiuxian-bot/internal/domain/exploration"
	xerr "github.com/wanderstone/xiuxian-bot/internal/errors"
)

// StartTeamExploration begins a team run. The team service enforces that the
// caller leads the team and that at least two members have joined.
func (s *service) StartTeamExploration(ctx context.Context, teamID, leaderID string) (*StartResult, error) {
	t, err := s.teams.StartExploration(ctx, teamID, leaderID)
	if err != nil {
		return nil, err
	}

	members := t.JoinedMembers()
	for _, id := range members {
		if _, err := s.rewards.EnsurePlayer(ctx, id, id); err != nil {
			log.Printf("Failed to ensure player %s before team run: %v", id, err)
		}
	}

	sess := exploration.NewTeamSession(t.ID, t.LeaderID, members, t.LocationID, s.maxRounds, s.store.clock.Now())
	if err := s.store.Create(sess); err != nil {
		return nil, err
	}

	result := &StartResult{
		LocationID: t.LocationID,
		MaxRounds:  sess.MaxRounds,
	}
	err = s.store.WithSession(t.ID, func(sess *exploration.Session) error {
		return s.openSession(ctx, sess, result)
	})
	if err != nil {
		s.store.Remove(t.ID)
		return nil, err
	}

	if result.Ended {
		s.finishTeam(ctx, t.ID)
	}

	return result, nil
}

// SubmitTeamChoice records one member's vote on the pending event. The last
// vote in resolves the round: a strict majority of end votes closes the
// session, otherwise the tallied story choice plays out for the whole team.
func (s *service) SubmitTeamChoice(ctx context.Context, teamID, playerID string, choiceNum int) (*TeamVoteResult, error) {
	return s.submitTeamBallot(ctx, teamID, playerID, func(pe *exploration.Event) (exploration.ChoiceSelection, error) {
		switch {
		case choiceNum == len(pe.Choices)+1:
			return exploration.VoteToEnd(), nil
		case choiceNum >= 1 && choiceNum <= len(pe.Choices):
			return exploration.StoryChoice(choiceNum - 1), nil
		default:
			return exploration.ChoiceSelection{}, xerr.InvalidArgumentf("无效的选项 %d，请输入 1-%d", choiceNum, len(pe.Choices)+1)
		}
	})
}

// SubmitTeamEndVote casts an end ballot without naming a choice number. The
// sentinel is implicit, so the vote stays valid no matter how the pending
// event changed since the member last looked.
func (s *service) SubmitTeamEndVote(ctx context.Context, teamID, playerID string) (*TeamVoteResult, error) {
	return s.submitTeamBallot(ctx, teamID, playerID, func(*exploration.Event) (exploration.ChoiceSelection, error) {
		return exploration.VoteToEnd(), nil
	})
}

// submitTeamBallot records one member's selection under the session lock and
// resolves the round once the last vote lands.
func (s *service) submitTeamBallot(ctx context.Context, teamID, playerID string, pick func(*exploration.Event) (exploration.ChoiceSelection, error)) (*TeamVoteResult, error) {
	var vote *TeamVoteResult
	err := s.store.WithSession(teamID, func(sess *exploration.Session) error {
		if sess.Kind != exploration.KindTeam {
			return xerr.InvalidArgument("这不是队伍探索")
		}
		if !sess.IsMember(playerID) {
			return xerr.PermissionDenied("你不是这支队伍的成员")
		}

		// PendingEvent doubles as the resolved-already guard: the vote that
		// completed the quorum cleared it, so stragglers bounce here.
		pe := sess.PendingEvent
		if pe == nil {
			return xerr.InvalidArgument("当前没有等待投票的事件")
		}

		sel, err := pick(pe)
		if err != nil {
			return err
		}
		sess.RecordChoice(playerID, sel)

		if !sess.QuorumReached() {
			vote = &TeamVoteResult{
				Waiting:     true,
				VotesIn:     len(sess.ChoicesMade),
				VotesNeeded: len(sess.Members),
			}
			return nil
		}

		if sess.MajorityWantsEnd() {
			sess.End()
			vote = &TeamVoteResult{
				VotesIn:     len(sess.Members),
				VotesNeeded: len(sess.Members),
				EndedByVote: true,
				Summary:     summarize(sess),
			}
			return nil
		}

		winner, ok := sess.TallyVotes()
		if !ok {
			// Quorum without a majority of end votes always leaves at least
			// one story vote
			return xerr.Internal("vote tally found no story choices")
		}

		outcome, err := s.resolveRound(ctx, sess, pe, winner)
		if err != nil {
			return err
		}

		vote = &TeamVoteResult{
			VotesIn:     len(sess.Members),
			VotesNeeded: len(sess.Members),
			Outcome:     outcome,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if vote.EndedByVote || (vote.Outcome != nil && vote.Outcome.Ended) {
		s.finishTeam(ctx, teamID)
	}

	return vote, nil
}

// AbortTeamSession drops a team's session without a vote, for use when the
// team itself dissolves
func (s *service) AbortTeamSession(ctx context.Context, teamID string) {
	s.store.Remove(teamID)
}

// finishTeam moves the team record out of its active state once the session
// is over. Best effort; the session itself is already gone.
func (s *service) finishTeam(ctx context.Context, teamID string) {
	if err := s.teams.FinishExploration(ctx, teamID); err != nil {
		log.Printf("Failed to finish team %s after exploration: %v", teamID, err)
	}
}
