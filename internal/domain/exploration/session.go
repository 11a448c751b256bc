package exploration

import (
	"sort"
	"time"
)

// Kind distinguishes solo sessions from team sessions
type Kind string

const (
	KindSolo Kind = "solo"
	KindTeam Kind = "team"
)

// Status represents the current state of an exploration session.
// Sessions only ever move Active -> Ended, never back.
type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

// DefaultMaxRounds is the number of rounds before a session ends on its own
const DefaultMaxRounds = 5

// StoryEntry is one line of the session's narrative log
type StoryEntry struct {
	ChoiceText  string `json:"choice_text"`
	OutcomeText string `json:"outcome_text"`
}

// Session is the live state of one ongoing exploration for a player (solo)
// or a team. The actor ID — player ID for solo, team ID for team — is the
// registry key; at most one active session exists per actor at a time.
//
// Session itself is not goroutine safe. The session store hands out access
// under a per-actor lock; everything here assumes that lock is held.
type Session struct {
	ActorID    string   `json:"actor_id"`
	Kind       Kind     `json:"kind"`
	LeaderID   string   `json:"leader_id,omitempty"` // team only, used for tie-break
	Members    []string `json:"members"`             // join order; solo has exactly one
	LocationID int      `json:"location_id"`

	Round     int    `json:"round"`
	MaxRounds int    `json:"max_rounds"`
	Status    Status `json:"status"`

	StoryHistory []StoryEntry `json:"story_history"`

	// PendingEvent is non-nil exactly while a choice event is unresolved
	// this round. It doubles as the at-most-once resolution guard.
	PendingEvent *Event `json:"pending_event,omitempty"`

	// ChoicesMade collects one selection per member for the current event.
	// Team only; cleared whenever a new pending event is set.
	ChoicesMade map[string]ChoiceSelection `json:"choices_made,omitempty"`

	CreatedAt   time.Time `json:"created_at"`
	LastTouched time.Time `json:"last_touched"`
}

// NewSoloSession creates a solo session for a single player
func NewSoloSession(playerID string, locationID, maxRounds int, now time.Time) *Session {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	return &Session{
		ActorID:     playerID,
		Kind:        KindSolo,
		Members:     []string{playerID},
		LocationID:  locationID,
		Round:       1,
		MaxRounds:   maxRounds,
		Status:      StatusActive,
		CreatedAt:   now,
		LastTouched: now,
	}
}

// NewTeamSession creates a team session. Members must already be the team's
// joined set (quorum of at least two is enforced by the team manager before
// the session exists).
func NewTeamSession(teamID, leaderID string, members []string, locationID, maxRounds int, now time.Time) *Session {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	memberCopy := make([]string, len(members))
	copy(memberCopy, members)
	return &Session{
		ActorID:     teamID,
		Kind:        KindTeam,
		LeaderID:    leaderID,
		Members:     memberCopy,
		LocationID:  locationID,
		Round:       1,
		MaxRounds:   maxRounds,
		Status:      StatusActive,
		ChoicesMade: make(map[string]ChoiceSelection),
		CreatedAt:   now,
		LastTouched: now,
	}
}

// IsMember reports whether the player participates in this session
func (s *Session) IsMember(playerID string) bool {
	for _, m := range s.Members {
		if m == playerID {
			return true
		}
	}
	return false
}

// Touch records activity, deferring lazy expiry
func (s *Session) Touch(now time.Time) {
	s.LastTouched = now
}

// Expired reports whether the session has been idle past the timeout
func (s *Session) Expired(now time.Time, idleTimeout time.Duration) bool {
	return now.Sub(s.LastTouched) > idleTimeout
}

// SetPendingEvent attaches a new event and resets the round's votes
func (s *Session) SetPendingEvent(ev *Event) {
	s.PendingEvent = ev
	if s.Kind == KindTeam {
		s.ChoicesMade = make(map[string]ChoiceSelection)
	}
}

// ClearPendingEvent marks the current round's event as resolved
func (s *Session) ClearPendingEvent() {
	s.PendingEvent = nil
	if s.Kind == KindTeam {
		s.ChoicesMade = make(map[string]ChoiceSelection)
	}
}

// RecordChoice stores a member's selection, overwriting any earlier
// submission from the same player.
func (s *Session) RecordChoice(playerID string, sel ChoiceSelection) {
	if s.ChoicesMade == nil {
		s.ChoicesMade = make(map[string]ChoiceSelection)
	}
	s.ChoicesMade[playerID] = sel
}

// QuorumReached reports whether every member has submitted a choice
func (s *Session) QuorumReached() bool {
	return len(s.ChoicesMade) >= len(s.Members)
}

// EndVoteCount counts members who voted to end the exploration
func (s *Session) EndVoteCount() int {
	count := 0
	for _, sel := range s.ChoicesMade {
		if sel.EndVote {
			count++
		}
	}
	return count
}

// MajorityWantsEnd reports whether a strict majority of all members voted to
// end. End votes count against the full member count, not just story voters.
func (s *Session) MajorityWantsEnd() bool {
	return s.EndVoteCount()*2 > len(s.Members)
}

// TallyVotes picks the winning story choice index. End votes are excluded
// from the tally. Indices are scanned in ascending order so the result is
// deterministic; when exactly two indices tie for the maximum and the leader
// voted for one of them, the leader's pick wins. Returns false when no
// member picked a story choice.
func (s *Session) TallyVotes() (int, bool) {
	counts := make(map[int]int)
	for _, sel := range s.ChoicesMade {
		if !sel.EndVote {
			counts[sel.Index]++
		}
	}
	if len(counts) == 0 {
		return 0, false
	}

	indices := make([]int, 0, len(counts))
	for idx := range counts {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	max := 0
	var tied []int
	for _, idx := range indices {
		switch {
		case counts[idx] > max:
			max = counts[idx]
			tied = []int{idx}
		case counts[idx] == max:
			tied = append(tied, idx)
		}
	}

	if len(tied) == 2 {
		if leaderSel, ok := s.ChoicesMade[s.LeaderID]; ok && !leaderSel.EndVote {
			for _, idx := range tied {
				if idx == leaderSel.Index {
					return idx, true
				}
			}
		}
	}

	// Lowest tied index; with a single maximum this is just the winner.
	return tied[0], true
}

// AppendHistory adds a resolved round to the narrative log
func (s *Session) AppendHistory(choiceText, outcomeText string) {
	s.StoryHistory = append(s.StoryHistory, StoryEntry{
		ChoiceText:  choiceText,
		OutcomeText: outcomeText,
	})
}

// AdvanceRound moves to the next round. Returns false when the session has
// run out of rounds, in which case it is marked ended.
func (s *Session) AdvanceRound() bool {
	s.Round++
	if s.Round > s.MaxRounds {
		s.End()
		return false
	}
	return true
}

// End marks the session ended. There is no way back.
func (s *Session) End() {
	s.Status = StatusEnded
	s.PendingEvent = nil
}

// Active reports whether the session can still accept input
func (s *Session) Active() bool {
	return s.Status == StatusActive
}
