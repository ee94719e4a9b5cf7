package botschema

import (
	"time"

	entity "github.com/goliatone/go-entities"
)

// NewCooldown builds a per-user and global cooldown pair.
func NewCooldown(reg *entity.Registry) *entity.StaticObject {
	o := entity.NewStaticObject(TypeCooldown, entity.WithRegistry(reg))
	o.MustAdd("user", entity.NewDuration(0),
		entity.Named("User"),
		entity.Described("Time before the same user can use the command again"))
	o.MustAdd("global", entity.NewDuration(0),
		entity.Named("Global"),
		entity.Described("Time before the command can be used again at all"))
	return o
}

// NewChannelReward builds a channel point reward the bot recognizes.
func NewChannelReward(reg *entity.Registry) *entity.StaticObject {
	o := entity.NewStaticObject(TypeChannelReward, entity.WithRegistry(reg))
	o.MustAdd("rewardID", entity.NewString(""), entity.Named("Reward ID"), entity.Hidden())
	rewardName := entity.NewString("")
	rewardName.AddCheck(nonBlankRule)
	o.MustAdd("rewardName", rewardName, entity.Named("Reward Name"))
	return o
}

// NewImage builds image display parameters.
func NewImage(reg *entity.Registry) *entity.StaticObject {
	o := entity.NewStaticObject(TypeImage, entity.WithRegistry(reg))
	o.MustAdd("filename", entity.NewString(""),
		entity.Named("File Name"),
		entity.Described("The name of the image file that will be displayed"))
	o.MustAdd("width", entity.NewInteger(0), entity.Named("Width"))
	o.MustAdd("height", entity.NewInteger(0), entity.Named("Height"))
	o.MustAdd("duration", entity.NewDuration(3*time.Second),
		entity.Named("Duration"),
		entity.Described("How long the image will be displayed"))
	o.MustAdd("effects", entity.NewDynamicArray(TypeImageEffect, entity.WithRegistry(reg)),
		entity.Named("Effects"),
		entity.Described("Special effects to apply to the image"))
	return o
}

// NewFunction builds a function: a set of triggers that produce responses
// for the users the filters admit.
func NewFunction(reg *entity.Registry) *entity.StaticObject {
	o := entity.NewStaticObject(TypeFunction, entity.WithRegistry(reg))
	o.MustAdd("funcID", entity.NewString(""), entity.Hidden())
	o.MustAdd("name", entity.NewString(""),
		entity.Named("Name"),
		entity.Described("A name for you to recognize this function easily"),
		entity.Hidden())
	o.MustAdd("enabled", entity.NewBoolean(true),
		entity.Named("Enabled"),
		entity.Described("Enables/disables this function"))
	o.MustAdd("cooldowns", NewCooldown(reg),
		entity.Named("Cooldowns"),
		entity.Described("Function-wide cooldowns (work in addition to trigger-specific cooldowns)"),
		entity.Advanced())
	o.MustAdd("filters", entity.NewDynamicArray(TypeUserFilter, entity.WithRegistry(reg)),
		entity.Named("Filters"),
		entity.Described("Defines who can invoke this function"),
		entity.Advanced())
	o.MustAdd("triggers", entity.NewDynamicArray(TypeTrigger, entity.WithRegistry(reg)),
		entity.Named("Triggers"),
		entity.Described("Defines when this function will be invoked"))
	o.MustAdd("responses", entity.NewDynamicArray(TypeResponse, entity.WithRegistry(reg)),
		entity.Named("Responses"),
		entity.Described("Defines messages that will be sent after the function is done"))
	return o
}

// NewCommand builds a chat command that may display an image.
func NewCommand(reg *entity.Registry, name string) *entity.StaticObject {
	o := entity.NewStaticObject(TypeCommand, entity.WithRegistry(reg))
	cmdname := entity.NewString(name)
	cmdname.AddCheck(nonBlankRule, commandNameRule)
	o.MustAdd("cmdname", cmdname,
		entity.Named("Name"),
		entity.Described("The term that will invoke the command"))
	o.MustAdd("enabled", entity.NewBoolean(true), entity.Named("Enabled"))
	o.MustAdd("aliases", entity.NewDynamicArray(entity.TypeString, entity.WithRegistry(reg), entity.WithChecks(aliasesRule)),
		entity.Named("Aliases"))
	o.MustAdd("cost", entity.NewNaturalNumber(0),
		entity.Named("Cost"),
		entity.Described("Cost in StreamElements loyalty points"))
	o.MustAdd("cooldowns", NewCooldown(reg), entity.Named("Cooldowns"), entity.Advanced())
	o.MustAdd("filters", entity.NewDynamicArray(TypeUserFilter, entity.WithRegistry(reg)),
		entity.Named("Filters"), entity.Advanced())
	o.MustAdd("image", NewImage(reg), entity.Named("Image"))
	return o
}

// NewModule builds the configuration tree of a bot module. displayName, when
// set, becomes the tree's name.
func NewModule(reg *entity.Registry, displayName string) *entity.StaticObject {
	o := entity.NewStaticObject(TypeModule, entity.WithRegistry(reg))
	if displayName != "" {
		o.SetName(displayName)
	}
	o.MustAdd("enabled", entity.NewBoolean(true),
		entity.Named("Enabled"),
		entity.Described("Enables/disables the whole module"))
	o.MustAdd("commands", entity.NewDynamicObject(TypeCommands, entity.WithRegistry(reg)),
		entity.Named("Commands"),
		entity.Described("Commands keyed by their ID"))
	o.MustAdd("functions", entity.NewDynamicArray(TypeFunction, entity.WithRegistry(reg)),
		entity.Named("Functions"))
	return o
}

// NewMain builds the main configuration tree.
func NewMain(reg *entity.Registry) *entity.StaticObject {
	o := entity.NewStaticObject(TypeMain, entity.WithRegistry(reg))
	port := entity.NewInteger(DefaultPort)
	port.AddCheck(portRule)
	o.MustAdd("port", port,
		entity.Named("Port"),
		entity.Described("Server port to listen on"))
	o.MustAdd("configBackupLimit", entity.NewNaturalNumber(100),
		entity.Named("# of Config Backups"),
		entity.Described("How many previous good configurations should be saved as backup"))

	twitch := entity.NewStaticObject("", entity.WithRegistry(reg))
	twitch.MustAdd("channel", entity.NewString(""),
		entity.Named("Channel Name"),
		entity.Described("Name of your channel (the one the bot is going to interact with)"))
	twitch.MustAdd("botname", entity.NewString(""),
		entity.Named("Bot Username"),
		entity.Described("The bot's username on Twitch"))
	twitch.MustAdd("oAuth", entity.NewHiddenString(""),
		entity.Named("Bot oAuth Token"),
		entity.Described("Twitch oAuth token for the bot - do not share it with people!"),
		entity.Help("This gives the bot authority over the bot account you've set up."))
	o.MustAdd("twitch", twitch,
		entity.Named("Twitch"),
		entity.Described("Settings for your and your bot's Twitch accounts"))

	se := entity.NewStaticObject("", entity.WithRegistry(reg))
	se.MustAdd("accountID", entity.NewHiddenString(""), entity.Named("Account ID"))
	se.MustAdd("token", entity.NewHiddenString(""),
		entity.Named("JWT Token"),
		entity.Described(`Secret token used to connect as "you" to your StreamElements account`))
	se.MustAdd("pointsName", entity.NewString("points"), entity.Named("Points Name"))
	se.MustAdd("pointsNameSingular", entity.NewString("point"), entity.Named("Points Name: Singular"))
	o.MustAdd("streamElements", se,
		entity.Named("Stream Elements"),
		entity.Described("Settings for your StreamElements account"))

	o.MustAdd("channelRewards", entity.NewDynamicArray(TypeChannelReward, entity.WithRegistry(reg)),
		entity.Named("Channel Rewards"),
		entity.Described("The channel point rewards the bot can recognize on your channel"))
	return o
}
