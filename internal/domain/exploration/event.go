package exploration

// Event is a single exploration encounter presented to a player or team.
// Events either carry choices and wait for input, or resolve on their own
// through AutoResult.
type Event struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	HasChoice   bool     `json:"has_choice"`
	Choices     []Choice `json:"choices,omitempty"`

	// AutoResult is applied immediately when HasChoice is false.
	AutoResult *ResolutionResult `json:"auto_result,omitempty"`
}

// Choice is one selectable option of an event
type Choice struct {
	Text        string `json:"text"`
	Description string `json:"description"`
}

// ChoiceSelection is a member's submitted decision for the current event:
// either one of the event's story choices, or a vote to end the exploration.
type ChoiceSelection struct {
	EndVote bool `json:"end_vote"`
	Index   int  `json:"index"` // zero-based into Event.Choices, valid when !EndVote
}

// StoryChoice selects the choice at the given zero-based index
func StoryChoice(index int) ChoiceSelection {
	return ChoiceSelection{Index: index}
}

// VoteToEnd selects ending the exploration instead of a story choice
func VoteToEnd() ChoiceSelection {
	return ChoiceSelection{EndVote: true}
}

// Rewards holds the resource deltas of a resolved event
type Rewards struct {
	SpiritStoneDelta int `json:"spirit_stone_delta"`
	CultivationDelta int `json:"cultivation_delta"`
}

// ResolutionResult is the outcome of resolving an event choice (or an
// auto-resolving event): narrative text, resource deltas and damage taken.
type ResolutionResult struct {
	OutcomeText string  `json:"outcome_text"`
	Rewards     Rewards `json:"rewards"`
	Damage      int     `json:"damage"` // always >= 0
}
