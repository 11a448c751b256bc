package world

//go:generate mockgen -destination=mock/mock_service.go -package=mockworld -source=service.go

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	xerr "github.com/wanderstone/xiuxian-bot/internal/errors"

	"github.com/wanderstone/xiuxian-bot/internal/domain/exploration"
	"github.com/wanderstone/xiuxian-bot/internal/domain/world"
)

// Service is the world manager: the exploration coordinator's source of
// locations, events and choice outcomes.
type Service interface {
	// ExploreCurrentLocation generates the next event at the player's location
	ExploreCurrentLocation(ctx context.Context, playerID string) (*exploration.Event, error)

	// ExploreLocation generates the next event at a specific location
	ExploreLocation(ctx context.Context, playerID string, locationID int) (*exploration.Event, error)

	// HandleEventChoice resolves a selected choice into an outcome
	HandleEventChoice(ctx context.Context, playerID string, event *exploration.Event, choice *exploration.Choice, locationID int) (*exploration.ResolutionResult, error)

	// GetPlayerLocation returns where the player currently is
	GetPlayerLocation(ctx context.Context, playerID string) (*world.Location, error)

	// GetConnectedLocations lists locations reachable from the given one
	GetConnectedLocations(ctx context.Context, loc *world.Location) ([]*world.Location, error)

	// MoveTo moves the player to a connected location
	MoveTo(ctx context.Context, playerID string, destinationID int) (*MoveResult, error)
}

// MoveResult describes a completed move
type MoveResult struct {
	From      *world.Location
	To        *world.Location
	MoveCount int
}

// ServiceConfig holds configuration for the service
type ServiceConfig struct {
	MoveCooldown time.Duration     // Optional, defaults to a minute
	Locations    []*world.Location // Optional, defaults to the built-in world
	Rand         *rand.Rand        // Optional, for deterministic tests
}

// service implements Service with template-generated events
type service struct {
	moveCooldown time.Duration

	locations map[int]*world.Location
	startID   int

	mu        sync.Mutex
	positions map[string]*world.PlayerPosition
	random    *rand.Rand
}

// NewService creates a new world manager
func NewService(cfg *ServiceConfig) Service {
	cooldown := cfg.MoveCooldown
	if cooldown == 0 {
		cooldown = time.Minute
	}

	locs := cfg.Locations
	if len(locs) == 0 {
		locs = defaultWorld()
	}

	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	svc := &service{
		moveCooldown: cooldown,
		locations:    make(map[int]*world.Location, len(locs)),
		startID:      locs[0].ID,
		positions:    make(map[string]*world.PlayerPosition),
		random:       rng,
	}
	for _, loc := range locs {
		svc.locations[loc.ID] = loc
	}

	return svc
}

// defaultWorld seeds the built-in world graph
func defaultWorld() []*world.Location {
	return []*world.Location{
		{ID: 1, Name: "青云村", Description: "宁静的山脚村落，灵气稀薄但安全。", DangerLevel: 1, SpiritEnergyDensity: 20, RegionType: "村落", Connected: []int{2, 3}},
		{ID: 2, Name: "落霞林", Description: "晚霞染红的密林，偶有妖兽出没。", DangerLevel: 3, SpiritEnergyDensity: 45, RegionType: "森林", Connected: []int{1, 4}},
		{ID: 3, Name: "灵泉谷", Description: "山谷中灵泉潺潺，灵气浓郁。", DangerLevel: 2, SpiritEnergyDensity: 70, RegionType: "山谷", Connected: []int{1, 4}},
		{ID: 4, Name: "黑风岭", Description: "狂风呼啸的险峻山岭，强者的试炼场。", DangerLevel: 6, SpiritEnergyDensity: 60, RegionType: "山岭", Connected: []int{2, 3, 5}},
		{ID: 5, Name: "幽冥古窟", Description: "深不见底的上古洞窟，机缘与杀机并存。", DangerLevel: 9, SpiritEnergyDensity: 85, RegionType: "秘境", Connected: []int{4}},
	}
}

// GetPlayerLocation returns where the player currently is
func (s *service) GetPlayerLocation(ctx context.Context, playerID string) (*world.Location, error) {
	if playerID == "" {
		return nil, xerr.InvalidArgument("player ID is required")
	}

	pos := s.positionFor(playerID)
	loc, ok := s.locations[pos.CurrentLocationID]
	if !ok {
		// Position points at a removed location; reset to the start
		pos = s.resetPosition(playerID)
		loc = s.locations[pos.CurrentLocationID]
	}
	return loc, nil
}

// GetConnectedLocations lists locations reachable from the given one
func (s *service) GetConnectedLocations(ctx context.Context, loc *world.Location) ([]*world.Location, error) {
	if loc == nil {
		return nil, xerr.InvalidArgument("location is required")
	}

	connected := make([]*world.Location, 0, len(loc.Connected))
	for _, id := range loc.Connected {
		if l, ok := s.locations[id]; ok {
			connected = append(connected, l)
		}
	}
	return connected, nil
}

// MoveTo moves the player to a connected location
func (s *service) MoveTo(ctx context.Context, playerID string, destinationID int) (*MoveResult, error) {
	if playerID == "" {
		return nil, xerr.InvalidArgument("player ID is required")
	}

	dest, ok := s.locations[destinationID]
	if !ok {
		return nil, xerr.NotFoundf("location %d does not exist", destinationID)
	}

	current, err := s.GetPlayerLocation(ctx, playerID)
	if err != nil {
		return nil, err
	}

	connected := false
	for _, id := range current.Connected {
		if id == destinationID {
			connected = true
			break
		}
	}
	if !connected {
		return nil, xerr.InvalidArgumentf("%s 无法从 %s 直接到达", dest.Name, current.Name).
			WithMeta("from", current.ID).
			WithMeta("to", destinationID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pos := s.positions[playerID]
	now := time.Now()
	if pos != nil && !pos.LastMoveTime.IsZero() {
		if elapsed := now.Sub(pos.LastMoveTime); elapsed < s.moveCooldown {
			remaining := int((s.moveCooldown - elapsed).Seconds())
			return nil, xerr.InvalidArgumentf("移动冷却中，还需 %d 秒", remaining)
		}
	}
	if pos == nil {
		pos = &world.PlayerPosition{PlayerID: playerID, CurrentLocationID: s.startID}
		s.positions[playerID] = pos
	}

	pos.CurrentLocationID = destinationID
	pos.LastMoveTime = now
	pos.TotalMoves++

	return &MoveResult{
		From:      current,
		To:        dest,
		MoveCount: pos.TotalMoves,
	}, nil
}

// ExploreCurrentLocation generates the next event at the player's location
func (s *service) ExploreCurrentLocation(ctx context.Context, playerID string) (*exploration.Event, error) {
	loc, err := s.GetPlayerLocation(ctx, playerID)
	if err != nil {
		return nil, err
	}
	return s.ExploreLocation(ctx, playerID, loc.ID)
}

// ExploreLocation generates the next event at a specific location. Events
// come from a template pool weighted by the location's danger level.
func (s *service) ExploreLocation(ctx context.Context, playerID string, locationID int) (*exploration.Event, error) {
	loc, ok := s.locations[locationID]
	if !ok {
		return nil, xerr.NotFoundf("location %d does not exist", locationID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	templates := []func(*world.Location) *exploration.Event{
		s.resourceFindEvent,
		s.cultivationInsightEvent,
		s.mysteriousCultivatorEvent,
	}
	if loc.DangerLevel >= 3 {
		templates = append(templates, s.beastEncounterEvent, s.treasureChestEvent)
	}
	if loc.DangerLevel >= 5 {
		templates = append(templates, s.ancientRuinEvent)
	}

	return templates[s.random.Intn(len(templates))](loc), nil
}

// resourceFindEvent resolves on its own with a spirit stone payout
func (s *service) resourceFindEvent(loc *world.Location) *exploration.Event {
	amount := (s.random.Intn(41) + 10) * loc.DangerLevel
	return &exploration.Event{
		Title:       "发现灵石矿脉",
		Description: fmt.Sprintf("在%s探索时，你发现了一处被遗忘的灵石矿脉遗迹。", loc.Name),
		HasChoice:   false,
		AutoResult: &exploration.ResolutionResult{
			OutcomeText: fmt.Sprintf("采集到 %d 块灵石。", amount),
			Rewards:     exploration.Rewards{SpiritStoneDelta: amount},
		},
	}
}

// cultivationInsightEvent resolves on its own with a cultivation payout
func (s *service) cultivationInsightEvent(loc *world.Location) *exploration.Event {
	amount := (s.random.Intn(301) + 200) * (100 + loc.SpiritEnergyDensity) / 100
	return &exploration.Event{
		Title:       "修炼顿悟",
		Description: fmt.Sprintf("%s的灵气让你有所感悟，对修仙之道的理解更深了一层。", loc.Name),
		HasChoice:   false,
		AutoResult: &exploration.ResolutionResult{
			OutcomeText: fmt.Sprintf("修为增长 %d 点。", amount),
			Rewards:     exploration.Rewards{CultivationDelta: amount},
		},
	}
}

func (s *service) mysteriousCultivatorEvent(loc *world.Location) *exploration.Event {
	return &exploration.Event{
		Title:       "神秘修士",
		Description: "你遇到了一位神秘的修士，他似乎有话要说……",
		HasChoice:   true,
		Choices: []exploration.Choice{
			{Text: "上前交谈", Description: "可能获得情报或机缘"},
			{Text: "进行交易", Description: "花费灵石购买物品"},
			{Text: "转身离开", Description: "无事发生"},
		},
	}
}

func (s *service) beastEncounterEvent(loc *world.Location) *exploration.Event {
	return &exploration.Event{
		Title:       "妖兽拦路",
		Description: fmt.Sprintf("一头 %d 阶妖兽挡住了去路，双目赤红。", loc.DangerLevel),
		HasChoice:   true,
		Choices: []exploration.Choice{
			{Text: "正面迎战", Description: "战胜可获丰厚奖励"},
			{Text: "绕道而行", Description: "谨慎但可能错失机缘"},
		},
	}
}

func (s *service) treasureChestEvent(loc *world.Location) *exploration.Event {
	return &exploration.Event{
		Title:       "古旧宝箱",
		Description: "草丛深处半掩着一只布满符文的宝箱。",
		HasChoice:   true,
		Choices: []exploration.Choice{
			{Text: "直接开启", Description: "可能触发禁制"},
			{Text: "研究符文后再开", Description: "更稳妥，但花费心神"},
			{Text: "置之不理", Description: "无事发生"},
		},
	}
}

func (s *service) ancientRuinEvent(loc *world.Location) *exploration.Event {
	return &exploration.Event{
		Title:       "上古遗迹",
		Description: "断壁残垣间残留着上古大能的气息。",
		HasChoice:   true,
		Choices: []exploration.Choice{
			{Text: "深入探索", Description: "高风险高回报"},
			{Text: "外围搜寻", Description: "稳妥地捡些遗落之物"},
		},
	}
}

// HandleEventChoice resolves a selected choice into an outcome. A success
// roll decides between reward and setback, scaled by the location's danger.
func (s *service) HandleEventChoice(ctx context.Context, playerID string, event *exploration.Event, choice *exploration.Choice, locationID int) (*exploration.ResolutionResult, error) {
	if event == nil {
		return nil, xerr.InvalidArgument("event is required")
	}
	if choice == nil {
		return nil, xerr.InvalidArgument("choice is required")
	}

	danger := 1
	if loc, ok := s.locations[locationID]; ok {
		danger = loc.DangerLevel
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.random.Float64() > 0.3 {
		spiritStone := (s.random.Intn(401) + 100) * danger / 2
		cultivation := (s.random.Intn(151) + 50) * danger / 2
		return &exploration.ResolutionResult{
			OutcomeText: fmt.Sprintf("你的选择很明智！%s带来了不错的结果。", choice.Text),
			Rewards: exploration.Rewards{
				SpiritStoneDelta: spiritStone,
				CultivationDelta: cultivation,
			},
		}, nil
	}

	damage := s.random.Intn(101) + 50
	loss := s.random.Intn(100)
	return &exploration.ResolutionResult{
		OutcomeText: fmt.Sprintf("这个选择似乎不太好……%s带来了一些麻烦。", choice.Text),
		Rewards:     exploration.Rewards{SpiritStoneDelta: -loss},
		Damage:      damage,
	}, nil
}

// positionFor returns the player's position, creating one at the start
// location on first contact.
func (s *service) positionFor(playerID string) *world.PlayerPosition {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.positions[playerID]
	if !ok {
		pos = &world.PlayerPosition{PlayerID: playerID, CurrentLocationID: s.startID}
		s.positions[playerID] = pos
	}
	return pos
}

func (s *service) resetPosition(playerID string) *world.PlayerPosition {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos := &world.PlayerPosition{PlayerID: playerID, CurrentLocationID: s.startID}
	s.positions[playerID] = pos
	return pos
}
