package discord

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/wanderstone/xiuxian-bot/internal/domain/exploration"
	teamdom "github.com/wanderstone/xiuxian-bot/internal/domain/team"
	"github.com/wanderstone/xiuxian-bot/internal/domain/world"
	xerr "github.com/wanderstone/xiuxian-bot/internal/errors"
	"github.com/wanderstone/xiuxian-bot/internal/services"
	explorationsvc "github.com/wanderstone/xiuxian-bot/internal/services/exploration"
)

// Handler routes chat commands to the exploration services
type Handler struct {
	provider *services.Provider
}

// HandlerConfig holds configuration for the handler
type HandlerConfig struct {
	Provider *services.Provider
}

// NewHandler creates a new Discord handler
func NewHandler(cfg *HandlerConfig) *Handler {
	if cfg.Provider == nil {
		panic("service provider is required")
	}
	return &Handler{provider: cfg.Provider}
}

// Register attaches the handler to a Discord session
func (h *Handler) Register(s *discordgo.Session) {
	s.AddHandler(h.handleMessageCreate)
}

func (h *Handler) handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	command, arg, ok := parseCommand(m.Content)
	if !ok {
		return
	}

	ctx := context.Background()
	playerID := m.Author.ID
	playerName := m.Author.Username

	var reply string
	switch command {
	case "探索":
		reply = h.startSolo(ctx, playerID, playerName)
	case "选择":
		reply = h.submitChoice(ctx, playerID, arg)
	case "结束探索":
		reply = h.endExploration(ctx, playerID)
	case "组队探索":
		reply = h.createTeam(ctx, playerID, playerName)
	case "邀请":
		reply = h.inviteMember(ctx, playerID, arg)
	case "查看邀请":
		reply = h.listInvites(ctx, playerID)
	case "接受邀请":
		reply = h.acceptInvite(ctx, playerID, arg)
	case "拒绝邀请":
		reply = h.rejectInvite(ctx, playerID, arg)
	case "离开队伍":
		reply = h.leaveTeam(ctx, playerID)
	case "查看队伍":
		reply = h.showTeam(ctx, playerID)
	case "开始探索":
		reply = h.startTeamRun(ctx, playerID)
	case "地点":
		reply = h.showLocation(ctx, playerID)
	case "前往":
		reply = h.moveTo(ctx, playerID, arg)
	default:
		return
	}

	if reply == "" {
		return
	}
	if _, err := s.ChannelMessageSend(m.ChannelID, reply); err != nil {
		log.Printf("Failed to send reply to channel %s: %v", m.ChannelID, err)
	}
}

// parseCommand splits "/命令 参数" into its parts
func parseCommand(content string) (command, arg string, ok bool) {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "/") {
		return "", "", false
	}

	fields := strings.Fields(content[1:])
	if len(fields) == 0 {
		return "", "", false
	}
	return fields[0], strings.Join(fields[1:], " "), true
}

func (h *Handler) startSolo(ctx context.Context, playerID, playerName string) string {
	result, err := h.provider.ExplorationService.StartExploration(ctx, playerID, playerName)
	if err != nil {
		return userMessage(err)
	}
	return formatStart(result)
}

func (h *Handler) submitChoice(ctx context.Context, playerID, arg string) string {
	choiceNum, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return "请输入选项编号，例如：/选择 1"
	}

	// A joined team that has set out takes precedence over a solo run
	if tm, _ := h.provider.TeamService.GetPlayerTeam(ctx, playerID); tm != nil && tm.Status == teamdom.StatusActive {
		vote, voteErr := h.provider.ExplorationService.SubmitTeamChoice(ctx, tm.ID, playerID, choiceNum)
		if voteErr != nil {
			return userMessage(voteErr)
		}
		return formatTeamVote(vote)
	}

	outcome, err := h.provider.ExplorationService.SubmitChoice(ctx, playerID, choiceNum)
	if err != nil {
		return userMessage(err)
	}
	return formatOutcome(outcome)
}

func (h *Handler) endExploration(ctx context.Context, playerID string) string {
	if tm, _ := h.provider.TeamService.GetPlayerTeam(ctx, playerID); tm != nil && tm.Status == teamdom.StatusActive {
		return h.castTeamEndVote(ctx, tm.ID, playerID)
	}

	summary, err := h.provider.ExplorationService.EndExploration(ctx, playerID)
	if err != nil {
		return userMessage(err)
	}
	return "本次探索结束。\n" + formatSummary(summary)
}

// castTeamEndVote turns the end command into an end ballot on whatever event
// is pending when the vote lands.
func (h *Handler) castTeamEndVote(ctx context.Context, teamID, playerID string) string {
	vote, err := h.provider.ExplorationService.SubmitTeamEndVote(ctx, teamID, playerID)
	if err != nil {
		return userMessage(err)
	}
	return formatTeamVote(vote)
}

func (h *Handler) createTeam(ctx context.Context, playerID, playerName string) string {
	loc, err := h.provider.WorldService.GetPlayerLocation(ctx, playerID)
	if err != nil {
		return userMessage(err)
	}

	if _, err := h.provider.TeamService.CreateTeam(ctx, playerID, loc.ID); err != nil {
		return userMessage(err)
	}
	return fmt.Sprintf("%s 在【%s】组建了探索队伍！\n使用 /邀请 @道友 邀请成员，人齐后 /开始探索。", playerName, loc.Name)
}

func (h *Handler) inviteMember(ctx context.Context, playerID, arg string) string {
	targetID := parseMention(arg)
	if targetID == "" {
		return "请@要邀请的道友，例如：/邀请 @道友"
	}

	tm, err := h.provider.TeamService.GetPlayerTeam(ctx, playerID)
	if err != nil || tm == nil {
		return "你还没有队伍，先 /组队探索 创建一个"
	}

	if _, err := h.provider.TeamService.InviteMember(ctx, tm.ID, playerID, targetID); err != nil {
		return userMessage(err)
	}
	return fmt.Sprintf("已向 <@%s> 发出邀请，%d 秒内有效。对方可用 /查看邀请 查看。", targetID, int(teamdom.InviteTTL.Seconds()))
}

func (h *Handler) listInvites(ctx context.Context, playerID string) string {
	invites, err := h.provider.TeamService.GetPlayerInvites(ctx, playerID)
	if err != nil {
		return userMessage(err)
	}
	if len(invites) == 0 {
		return "暂时没有收到组队邀请"
	}

	sortInvites(invites)

	var b strings.Builder
	b.WriteString("收到的组队邀请：\n")
	for i, tm := range invites {
		fmt.Fprintf(&b, "%d. <@%s> 的队伍（%d 人）\n", i+1, tm.LeaderID, tm.JoinedCount())
	}
	b.WriteString("使用 /接受邀请 编号 或 /拒绝邀请 编号")
	return b.String()
}

func (h *Handler) acceptInvite(ctx context.Context, playerID, arg string) string {
	tm, msg := h.pickInvite(ctx, playerID, arg)
	if tm == nil {
		return msg
	}

	joined, err := h.provider.TeamService.AcceptInvite(ctx, tm.ID, playerID)
	if err != nil {
		return userMessage(err)
	}
	return fmt.Sprintf("已加入 <@%s> 的队伍！当前 %d 人。", joined.LeaderID, joined.JoinedCount())
}

func (h *Handler) rejectInvite(ctx context.Context, playerID, arg string) string {
	tm, msg := h.pickInvite(ctx, playerID, arg)
	if tm == nil {
		return msg
	}

	if err := h.provider.TeamService.RejectInvite(ctx, tm.ID, playerID); err != nil {
		return userMessage(err)
	}
	return "已拒绝该邀请"
}

// pickInvite resolves a 1-based invite number against the player's inbox
func (h *Handler) pickInvite(ctx context.Context, playerID, arg string) (*teamdom.Team, string) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n < 1 {
		return nil, "请输入邀请编号，例如：/接受邀请 1"
	}

	invites, err := h.provider.TeamService.GetPlayerInvites(ctx, playerID)
	if err != nil {
		return nil, userMessage(err)
	}
	if n > len(invites) {
		return nil, fmt.Sprintf("没有第 %d 条邀请", n)
	}

	sortInvites(invites)
	return invites[n-1], ""
}

func (h *Handler) leaveTeam(ctx context.Context, playerID string) string {
	tm, err := h.provider.TeamService.GetPlayerTeam(ctx, playerID)
	if err != nil || tm == nil {
		return "你不在任何队伍中"
	}

	disbanded, err := h.provider.TeamService.LeaveTeam(ctx, playerID)
	if err != nil {
		return userMessage(err)
	}
	if disbanded {
		// The run cannot go on without its team
		h.provider.ExplorationService.AbortTeamSession(ctx, tm.ID)
		return "队长离队，队伍已解散"
	}
	return "你离开了队伍"
}

func (h *Handler) showTeam(ctx context.Context, playerID string) string {
	tm, err := h.provider.TeamService.GetPlayerTeam(ctx, playerID)
	if err != nil {
		return userMessage(err)
	}
	if tm == nil {
		return "你不在任何队伍中，使用 /组队探索 创建一个"
	}
	return formatTeam(tm)
}

func (h *Handler) startTeamRun(ctx context.Context, playerID string) string {
	tm, err := h.provider.TeamService.GetPlayerTeam(ctx, playerID)
	if err != nil || tm == nil {
		return "你还没有队伍，先 /组队探索 创建一个"
	}

	result, err := h.provider.ExplorationService.StartTeamExploration(ctx, tm.ID, playerID)
	if err != nil {
		return userMessage(err)
	}
	return "队伍出发了！\n" + formatStart(result)
}

func (h *Handler) showLocation(ctx context.Context, playerID string) string {
	loc, err := h.provider.WorldService.GetPlayerLocation(ctx, playerID)
	if err != nil {
		return userMessage(err)
	}

	connected, err := h.provider.WorldService.GetConnectedLocations(ctx, loc)
	if err != nil {
		return userMessage(err)
	}
	return formatLocation(loc, connected)
}

func (h *Handler) moveTo(ctx context.Context, playerID, arg string) string {
	destID, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return "请输入地点编号，例如：/前往 2"
	}

	result, err := h.provider.WorldService.MoveTo(ctx, playerID, destID)
	if err != nil {
		return userMessage(err)
	}
	return fmt.Sprintf("你从【%s】来到了【%s】。\n%s", result.From.Name, result.To.Name, result.To.Description)
}

// parseMention extracts the user ID from <@123> or <@!123>, accepting a bare
// ID as well.
func parseMention(arg string) string {
	arg = strings.TrimSpace(arg)
	if strings.HasPrefix(arg, "<@") && strings.HasSuffix(arg, ">") {
		arg = strings.TrimSuffix(strings.TrimPrefix(arg, "<@"), ">")
		arg = strings.TrimPrefix(arg, "!")
	}
	if arg == "" || strings.ContainsAny(arg, " <>@") {
		return ""
	}
	return arg
}

// sortInvites gives the invite inbox a stable numbering
func sortInvites(invites []*teamdom.Team) {
	sort.Slice(invites, func(i, j int) bool {
		if invites[i].CreatedAt.Equal(invites[j].CreatedAt) {
			return invites[i].ID < invites[j].ID
		}
		return invites[i].CreatedAt.Before(invites[j].CreatedAt)
	})
}

// userMessage maps an error to something fit for chat. Coded errors carry
// player-facing text already; anything else stays generic.
func userMessage(err error) string {
	if err == nil {
		return ""
	}
	switch xerr.GetCode(err) {
	case xerr.CodeUnknown, xerr.CodeInternal, xerr.CodeUnavailable:
		log.Printf("Command failed: %v", err)
		return "出了点问题，请稍后再试"
	default:
		var appErr *xerr.Error
		if errors.As(err, &appErr) {
			return appErr.Message
		}
		return err.Error()
	}
}

// --- message formatting ---

func formatStart(result *explorationsvc.StartResult) string {
	var b strings.Builder
	for _, auto := range result.AutoOutcomes {
		writeAutoOutcome(&b, auto)
	}
	if result.Ended {
		b.WriteString("本次探索结束。\n")
		b.WriteString(formatSummary(result.Summary))
		return b.String()
	}

	fmt.Fprintf(&b, "第 %d/%d 轮\n", result.Round, result.MaxRounds)
	writeEvent(&b, result.PendingEvent)
	return b.String()
}

func formatOutcome(outcome *explorationsvc.RoundOutcome) string {
	var b strings.Builder
	// A vote to stop carries no resolved result
	if outcome.Result != nil {
		fmt.Fprintf(&b, "你选择了「%s」。\n%s\n", outcome.ChoiceText, outcome.Result.OutcomeText)
		writeRewards(&b, outcome.Result)
	}

	for _, auto := range outcome.AutoOutcomes {
		writeAutoOutcome(&b, auto)
	}

	if outcome.Ended {
		b.WriteString("本次探索结束。\n")
		b.WriteString(formatSummary(outcome.Summary))
		return b.String()
	}

	fmt.Fprintf(&b, "第 %d 轮\n", outcome.Round)
	writeEvent(&b, outcome.PendingEvent)
	return b.String()
}

func formatTeamVote(vote *explorationsvc.TeamVoteResult) string {
	if vote.Waiting {
		return fmt.Sprintf("已记录你的选择（%d/%d），等待其余队员投票。", vote.VotesIn, vote.VotesNeeded)
	}
	if vote.EndedByVote {
		return "多数队员同意撤退，队伍探索结束。\n" + formatSummary(vote.Summary)
	}
	return formatOutcome(vote.Outcome)
}

func formatSummary(summary *explorationsvc.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "共经历 %d 轮冒险。\n", summary.RoundsCompleted)
	for i, entry := range summary.History {
		fmt.Fprintf(&b, "%d. %s —— %s\n", i+1, entry.ChoiceText, entry.OutcomeText)
	}
	return b.String()
}

func formatTeam(tm *teamdom.Team) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<@%s> 的队伍（%s）\n", tm.LeaderID, teamStatusText(tm.Status))
	for i, id := range tm.JoinedMembers() {
		fmt.Fprintf(&b, "%d. <@%s>\n", i+1, id)
	}
	return b.String()
}

func teamStatusText(status teamdom.Status) string {
	switch status {
	case teamdom.StatusWaiting:
		return "集结中"
	case teamdom.StatusActive:
		return "探索中"
	default:
		return "已结束"
	}
}

func formatLocation(loc *world.Location, connected []*world.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "你现在位于【%s】（危险度 %d）\n%s\n", loc.Name, loc.DangerLevel, loc.Description)
	if len(connected) > 0 {
		b.WriteString("可前往：\n")
		for _, c := range connected {
			fmt.Fprintf(&b, "%d. %s（危险度 %d）\n", c.ID, c.Name, c.DangerLevel)
		}
		b.WriteString("使用 /前往 编号 移动")
	}
	return b.String()
}

func writeEvent(b *strings.Builder, ev *exploration.Event) {
	fmt.Fprintf(b, "**%s**\n%s\n", ev.Title, ev.Description)
	for i, c := range ev.Choices {
		fmt.Fprintf(b, "%d. %s", i+1, c.Text)
		if c.Description != "" {
			fmt.Fprintf(b, "（%s）", c.Description)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(b, "%d. 结束探索\n使用 /选择 编号 做出决定", len(ev.Choices)+1)
}

func writeAutoOutcome(b *strings.Builder, auto explorationsvc.AutoOutcome) {
	fmt.Fprintf(b, "**%s**\n%s\n%s\n", auto.Event.Title, auto.Event.Description, auto.Result.OutcomeText)
	writeRewards(b, auto.Result)
}

func writeRewards(b *strings.Builder, result *exploration.ResolutionResult) {
	if result.Rewards.SpiritStoneDelta != 0 {
		fmt.Fprintf(b, "灵石 %+d\n", result.Rewards.SpiritStoneDelta)
	}
	if result.Rewards.CultivationDelta != 0 {
		fmt.Fprintf(b, "修为 %+d\n", result.Rewards.CultivationDelta)
	}
	if result.Damage > 0 {
		fmt.Fprintf(b, "受到 %d 点伤害\n", result.Damage)
	}
}
