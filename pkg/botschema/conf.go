package botschema

import (
	"fmt"
	"time"

	entity "github.com/goliatone/go-entities"
)

// MainConf is the plain form of the main tree.
type MainConf struct {
	Port              int                 `json:"port"`
	ConfigBackupLimit int                 `json:"configBackupLimit"`
	Twitch            TwitchConf          `json:"twitch"`
	StreamElements    StreamElementsConf  `json:"streamElements"`
	ChannelRewards    []ChannelRewardConf `json:"channelRewards"`
}

type TwitchConf struct {
	Channel string `json:"channel"`
	Botname string `json:"botname"`
	OAuth   string `json:"oAuth"`
}

type StreamElementsConf struct {
	AccountID          string `json:"accountID"`
	Token              string `json:"token"`
	PointsName         string `json:"pointsName"`
	PointsNameSingular string `json:"pointsNameSingular"`
}

type ChannelRewardConf struct {
	RewardID   string `json:"rewardID"`
	RewardName string `json:"rewardName"`
}

type CooldownConf struct {
	User   time.Duration `json:"user"`
	Global time.Duration `json:"global"`
}

// UserFilterConf holds whichever filter was selected. Argument is a string
// for isUser and a list for isOneOf.
type UserFilterConf struct {
	Type     string `json:"type"`
	Argument any    `json:"argument"`
}

// TriggerConf carries the fields of every trigger kind; Type names the one
// in use.
type TriggerConf struct {
	Type     string        `json:"type"`
	Cmdname  string        `json:"cmdname,omitempty"`
	Aliases  []string      `json:"aliases,omitempty"`
	Cost     int           `json:"cost,omitempty"`
	Keys     []string      `json:"keys,omitempty"`
	Interval time.Duration `json:"interval,omitempty"`
	Variance time.Duration `json:"variance,omitempty"`
}

type ResponseConf struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Level   string `json:"level,omitempty"`
}

type ImageEffectConf struct {
	Type      string          `json:"type"`
	Intensity float64         `json:"intensity,omitempty"`
	Duration  time.Duration   `json:"duration,omitempty"`
	Durations []time.Duration `json:"durations,omitempty"`
	Sizes     []int           `json:"sizes,omitempty"`
}

type ImageConf struct {
	Filename string            `json:"filename"`
	Width    int               `json:"width"`
	Height   int               `json:"height"`
	Duration time.Duration     `json:"duration"`
	Effects  []ImageEffectConf `json:"effects"`
}

type FunctionConf struct {
	FuncID    string           `json:"funcID"`
	Name      string           `json:"name"`
	Enabled   bool             `json:"enabled"`
	Cooldowns CooldownConf     `json:"cooldowns"`
	Filters   []UserFilterConf `json:"filters"`
	Triggers  []TriggerConf    `json:"triggers"`
	Responses []ResponseConf   `json:"responses"`
}

type CommandConf struct {
	Cmdname   string           `json:"cmdname"`
	Enabled   bool             `json:"enabled"`
	Aliases   []string         `json:"aliases"`
	Cost      int              `json:"cost"`
	Cooldowns CooldownConf     `json:"cooldowns"`
	Filters   []UserFilterConf `json:"filters"`
	Image     ImageConf        `json:"image"`
}

// ModuleConf is the plain form of a module tree.
type ModuleConf struct {
	Enabled   bool                   `json:"enabled"`
	Commands  map[string]CommandConf `json:"commands"`
	Functions []FunctionConf         `json:"functions"`
}

// DecodeMain flattens a main tree into MainConf.
func DecodeMain(tree entity.Entity) (MainConf, error) {
	if tree.Type() != TypeMain {
		return MainConf{}, fmt.Errorf("botschema: expected %s tree, got %s", TypeMain, tree.Type())
	}
	return entity.DecodeConf[MainConf](tree, true)
}

// DecodeModule flattens a module tree into ModuleConf.
func DecodeModule(tree entity.Entity) (ModuleConf, error) {
	if tree.Type() != TypeModule {
		return ModuleConf{}, fmt.Errorf("botschema: expected %s tree, got %s", TypeModule, tree.Type())
	}
	return entity.DecodeConf[ModuleConf](tree, true)
}

// RewardNames maps reward IDs to reward names. Rewards without an ID are
// skipped.
func (c MainConf) RewardNames() map[string]string {
	out := make(map[string]string, len(c.ChannelRewards))
	for _, reward := range c.ChannelRewards {
		if reward.RewardID == "" {
			continue
		}
		out[reward.RewardID] = reward.RewardName
	}
	return out
}
