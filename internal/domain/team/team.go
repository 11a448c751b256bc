package team

import (
	"sort"
	"time"
)

// Status represents the lifecycle state of an exploration team
type Status string

const (
	StatusWaiting  Status = "waiting"  // gathering members, not yet exploring
	StatusActive   Status = "active"   // exploration in progress
	StatusFinished Status = "finished" // exploration concluded
)

// MemberStatus represents a member's standing within a team
type MemberStatus string

const (
	MemberStatusInvited MemberStatus = "invited"
	MemberStatusJoined  MemberStatus = "joined"
)

// MaxMembers caps the team size, leader included
const MaxMembers = 5

// InviteTTL is how long an invitation stays valid
const InviteTTL = 30 * time.Second

// Team is an exploration party: a leader plus invited/joined members
type Team struct {
	ID         string             `json:"id"`
	LeaderID   string             `json:"leader_id"`
	LocationID int                `json:"location_id"`
	Status     Status             `json:"status"`
	Members    map[string]*Member `json:"members"` // PlayerID -> Member
	CreatedAt  time.Time          `json:"created_at"`
	StartedAt  *time.Time         `json:"started_at,omitempty"`
	FinishedAt *time.Time         `json:"finished_at,omitempty"`
}

// Member is one participant (or pending invitee) of a team
type Member struct {
	PlayerID        string       `json:"player_id"`
	Status          MemberStatus `json:"status"`
	InvitedAt       time.Time    `json:"invited_at"`
	JoinedAt        time.Time    `json:"joined_at"`
	InviteExpiresAt time.Time    `json:"invite_expires_at"`
}

// New creates a team with the leader already joined
func New(id, leaderID string, locationID int) *Team {
	now := time.Now()
	t := &Team{
		ID:         id,
		LeaderID:   leaderID,
		LocationID: locationID,
		Status:     StatusWaiting,
		Members:    make(map[string]*Member),
		CreatedAt:  now,
	}
	t.Members[leaderID] = &Member{
		PlayerID: leaderID,
		Status:   MemberStatusJoined,
		JoinedAt: now,
	}
	return t
}

// HasMember reports whether the player is invited or joined
func (t *Team) HasMember(playerID string) bool {
	_, ok := t.Members[playerID]
	return ok
}

// IsLeader reports whether the player leads this team
func (t *Team) IsLeader(playerID string) bool {
	return t.LeaderID == playerID
}

// Invite records a pending invitation for the player
func (t *Team) Invite(playerID string, now time.Time) {
	t.Members[playerID] = &Member{
		PlayerID:        playerID,
		Status:          MemberStatusInvited,
		InvitedAt:       now,
		InviteExpiresAt: now.Add(InviteTTL),
	}
}

// AcceptInvite promotes an invited member to joined. Returns false when the
// player has no live invitation; expired invites are dropped on the spot.
func (t *Team) AcceptInvite(playerID string, now time.Time) bool {
	m, ok := t.Members[playerID]
	if !ok || m.Status != MemberStatusInvited {
		return false
	}
	if now.After(m.InviteExpiresAt) {
		delete(t.Members, playerID)
		return false
	}
	m.Status = MemberStatusJoined
	m.JoinedAt = now
	return true
}

// RemoveMember drops a member or pending invitee
func (t *Team) RemoveMember(playerID string) {
	delete(t.Members, playerID)
}

// PruneExpiredInvites removes invitations past their expiry, returning the
// player IDs that were dropped.
func (t *Team) PruneExpiredInvites(now time.Time) []string {
	var pruned []string
	for id, m := range t.Members {
		if m.Status == MemberStatusInvited && now.After(m.InviteExpiresAt) {
			delete(t.Members, id)
			pruned = append(pruned, id)
		}
	}
	return pruned
}

// JoinedMembers returns joined player IDs in join order (leader first when
// join times tie). The stable order matters: it is the collection order the
// vote tally scans.
func (t *Team) JoinedMembers() []string {
	var joined []*Member
	for _, m := range t.Members {
		if m.Status == MemberStatusJoined {
			joined = append(joined, m)
		}
	}
	sort.Slice(joined, func(i, j int) bool {
		if joined[i].JoinedAt.Equal(joined[j].JoinedAt) {
			if joined[i].PlayerID == t.LeaderID {
				return true
			}
			if joined[j].PlayerID == t.LeaderID {
				return false
			}
			return joined[i].PlayerID < joined[j].PlayerID
		}
		return joined[i].JoinedAt.Before(joined[j].JoinedAt)
	})

	ids := make([]string, len(joined))
	for i, m := range joined {
		ids[i] = m.PlayerID
	}
	return ids
}

// JoinedCount counts joined members
func (t *Team) JoinedCount() int {
	count := 0
	for _, m := range t.Members {
		if m.Status == MemberStatusJoined {
			count++
		}
	}
	return count
}

// Start moves the team into active exploration
func (t *Team) Start() bool {
	if t.Status != StatusWaiting {
		return false
	}
	now := time.Now()
	t.Status = StatusActive
	t.StartedAt = &now
	return true
}

// Finish concludes the team's exploration
func (t *Team) Finish() bool {
	if t.Status == StatusFinished {
		return false
	}
	now := time.Now()
	t.Status = StatusFinished
	t.FinishedAt = &now
	return true
}
