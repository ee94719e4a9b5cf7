package botschema

// Tags registered by Register.
const (
	TypeMain          = "Main"
	TypeModule        = "Module"
	TypeCommands      = "Commands"
	TypeCommand       = "Command"
	TypeFunction      = "Function"
	TypeCooldown      = "Cooldown"
	TypeChannelReward = "ChannelReward"
	TypeImage         = "Image"

	TypeUserFilter        = "UserFilter"
	TypeUserFilterIsUser  = "UserFilter_IsUser"
	TypeUserFilterIsOneOf = "UserFilter_IsOneOf"

	TypeTrigger         = "Trigger"
	TypeTriggerCommand  = "Trigger_Command"
	TypeTriggerShortcut = "Trigger_Shortcut"
	TypeTriggerTime     = "Trigger_Time"

	TypeResponse        = "Response"
	TypeResponseChat    = "Response_Chat"
	TypeResponseConsole = "Response_Console"

	TypeImageEffect          = "ImageEffect"
	TypeImageEffectDunDunDun = "ImageEffect_DunDunDun"
	TypeImageEffectShake     = "ImageEffect_Shake"
)

// DefaultPort is the port the bot's web server listens on by default.
const DefaultPort = 3333

// ReservedCommands cannot be used as command names or aliases.
var ReservedCommands = []string{"commands", "help", "config"}
