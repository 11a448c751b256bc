package discord

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wanderstone/xiuxian-bot/internal/domain/exploration"
	explorationsvc "github.com/wanderstone/xiuxian-bot/internal/services/exploration"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		content string
		command string
		arg     string
		ok      bool
	}{
		{"/探索", "探索", "", true},
		{"  /选择 2  ", "选择", "2", true},
		{"/接受邀请 1", "接受邀请", "1", true},
		{"/邀请 <@123456>", "邀请", "<@123456>", true},
		{"你好", "", "", false},
		{"/", "", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		command, arg, ok := parseCommand(tt.content)
		assert.Equal(t, tt.ok, ok, "content %q", tt.content)
		assert.Equal(t, tt.command, command, "content %q", tt.content)
		assert.Equal(t, tt.arg, arg, "content %q", tt.content)
	}
}

func TestParseMention(t *testing.T) {
	assert.Equal(t, "123456", parseMention("<@123456>"))
	assert.Equal(t, "123456", parseMention("<@!123456>"))
	assert.Equal(t, "123456", parseMention("123456"))
	assert.Equal(t, "", parseMention(""))
	assert.Equal(t, "", parseMention("<@>"))
	assert.Equal(t, "", parseMention("not a mention"))
}

func TestFormatStart_PendingEvent(t *testing.T) {
	result := &explorationsvc.StartResult{
		Round:     1,
		MaxRounds: 5,
		PendingEvent: &exploration.Event{
			Title:       "神秘修士",
			Description: "他似乎有话要说。",
			HasChoice:   true,
			Choices: []exploration.Choice{
				{Text: "上前交谈"},
				{Text: "转身离开", Description: "无事发生"},
			},
		},
	}

	out := formatStart(result)
	assert.Contains(t, out, "第 1/5 轮")
	assert.Contains(t, out, "神秘修士")
	assert.Contains(t, out, "1. 上前交谈")
	assert.Contains(t, out, "2. 转身离开（无事发生）")
	assert.Contains(t, out, "3. 结束探索")
}

func TestFormatStart_EndedImmediately(t *testing.T) {
	result := &explorationsvc.StartResult{
		Ended: true,
		AutoOutcomes: []explorationsvc.AutoOutcome{
			{
				Event: &exploration.Event{Title: "灵石矿脉", Description: "遗迹。"},
				Result: &exploration.ResolutionResult{
					OutcomeText: "采集到灵石。",
					Rewards:     exploration.Rewards{SpiritStoneDelta: 30},
				},
			},
		},
		Summary: &explorationsvc.Summary{RoundsCompleted: 5},
	}

	out := formatStart(result)
	assert.Contains(t, out, "灵石 +30")
	assert.Contains(t, out, "本次探索结束")
	assert.Contains(t, out, "共经历 5 轮冒险")
}

func TestFormatOutcome(t *testing.T) {
	outcome := &explorationsvc.RoundOutcome{
		ChoiceText: "正面迎战",
		Result: &exploration.ResolutionResult{
			OutcomeText: "击退妖兽。",
			Rewards:     exploration.Rewards{SpiritStoneDelta: -20, CultivationDelta: 100},
			Damage:      35,
		},
		Round: 3,
		PendingEvent: &exploration.Event{
			Title:     "后续",
			HasChoice: true,
			Choices:   []exploration.Choice{{Text: "继续"}},
		},
	}

	out := formatOutcome(outcome)
	assert.Contains(t, out, "你选择了「正面迎战」")
	assert.Contains(t, out, "灵石 -20")
	assert.Contains(t, out, "修为 +100")
	assert.Contains(t, out, "受到 35 点伤害")
	assert.Contains(t, out, "第 3 轮")
}

func TestFormatTeamVote(t *testing.T) {
	waiting := &explorationsvc.TeamVoteResult{Waiting: true, VotesIn: 2, VotesNeeded: 3}
	assert.Contains(t, formatTeamVote(waiting), "2/3")

	ended := &explorationsvc.TeamVoteResult{
		EndedByVote: true,
		Summary:     &explorationsvc.Summary{RoundsCompleted: 2},
	}
	out := formatTeamVote(ended)
	assert.Contains(t, out, "撤退")
	assert.Contains(t, out, "共经历 2 轮冒险")
}
