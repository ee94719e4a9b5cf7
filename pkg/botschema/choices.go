package botschema

import (
	"time"

	entity "github.com/goliatone/go-entities"
)

func newUserFilterIsUser(reg *entity.Registry) *entity.ChoiceValue {
	v := entity.NewChoiceValue(TypeUserFilterIsUser, "Specific User", entity.WithRegistry(reg))
	v.MustAdd("argument", entity.NewString(""),
		entity.Named("Username"),
		entity.Described("Only this user will be able to invoke the command."))
	return v
}

func newUserFilterIsOneOf(reg *entity.Registry) *entity.ChoiceValue {
	v := entity.NewChoiceValue(TypeUserFilterIsOneOf, "Specific Users", entity.WithRegistry(reg),
		entity.WithAttrs(entity.Described("Allows only a specific group of users to invoke the command")))
	v.MustAdd("argument", entity.NewDynamicArray(entity.TypeString, entity.WithRegistry(reg)),
		entity.Named("Usernames"),
		entity.Described("Only these users will be able to invoke the command"))
	return v
}

// NewUserFilter builds the choice of user filters. Nothing is selected by
// default.
func NewUserFilter(reg *entity.Registry) (*entity.Choice, error) {
	c := entity.NewChoice(TypeUserFilter, entity.WithRegistry(reg))
	err := c.AddOptions(
		entity.OptionSpec{Name: "isUser", Type: TypeUserFilterIsUser},
		entity.OptionSpec{Name: "isOneOf", Type: TypeUserFilterIsOneOf},
	)
	if err != nil {
		return nil, err
	}
	c.AddCheck(entity.SelectionRequired())
	return c, nil
}

func newTriggerCommand(reg *entity.Registry) *entity.ChoiceValue {
	v := entity.NewChoiceValue(TypeTriggerCommand, "Command", entity.WithRegistry(reg),
		entity.WithAttrs(entity.Described("Activates this function via a command on the Twitch chat")))
	cmdname := entity.NewString("")
	cmdname.AddCheck(commandNameRule)
	v.MustAdd("cmdname", cmdname,
		entity.Named("Name"),
		entity.Described("The term that will invoke the command"))
	v.MustAdd("aliases", entity.NewDynamicArray(entity.TypeString, entity.WithRegistry(reg), entity.WithChecks(aliasesRule)),
		entity.Named("Aliases"),
		entity.Described("Optional additional names for the command"))
	v.MustAdd("cost", entity.NewNaturalNumber(0),
		entity.Named("Cost"),
		entity.Described("Cost in StreamElements loyalty points"))
	return v
}

func newTriggerShortcut(reg *entity.Registry) *entity.ChoiceValue {
	v := entity.NewChoiceValue(TypeTriggerShortcut, "Keyboard Shortcut", entity.WithRegistry(reg),
		entity.WithAttrs(entity.Described("Activates this function when a key combination is pressed")))
	v.MustAdd("keys", entity.NewDynamicArray(entity.TypeString, entity.WithRegistry(reg)),
		entity.Named("Keys"),
		entity.Described("Keys that must be held down together"))
	return v
}

func newTriggerTime(reg *entity.Registry) *entity.ChoiceValue {
	v := entity.NewChoiceValue(TypeTriggerTime, "Timer", entity.WithRegistry(reg),
		entity.WithAttrs(entity.Described("Activates this function periodically")))
	interval := entity.NewDuration(5 * time.Minute)
	interval.AddCheck(entity.Required())
	v.MustAdd("interval", interval,
		entity.Named("Interval"),
		entity.Described("Time between activations"))
	v.MustAdd("variance", entity.NewDuration(0),
		entity.Named("Variance"),
		entity.Described("Random extra time added to each interval"),
		entity.Advanced())
	return v
}

// NewTrigger builds the choice of function triggers with the command trigger
// selected.
func NewTrigger(reg *entity.Registry) (*entity.Choice, error) {
	c := entity.NewChoice(TypeTrigger, entity.WithRegistry(reg))
	err := c.AddOptions(
		entity.OptionSpec{Name: "command", Type: TypeTriggerCommand},
		entity.OptionSpec{Name: "shortcut", Type: TypeTriggerShortcut},
		entity.OptionSpec{Name: "time", Type: TypeTriggerTime},
	)
	if err != nil {
		return nil, err
	}
	if _, err := c.Select("command"); err != nil {
		return nil, err
	}
	c.AddCheck(entity.SelectionRequired())
	return c, nil
}

func newResponseChat(reg *entity.Registry) *entity.ChoiceValue {
	v := entity.NewChoiceValue(TypeResponseChat, "Chat", entity.WithRegistry(reg),
		entity.WithAttrs(entity.Described("Sends the response to the Twitch chat")))
	v.MustAdd("message", entity.NewString(""),
		entity.Named("Message"),
		entity.Described("Text to send"),
		entity.Help("Use $user to mention the user who invoked the function."))
	return v
}

func newResponseConsole(reg *entity.Registry) *entity.ChoiceValue {
	v := entity.NewChoiceValue(TypeResponseConsole, "Console", entity.WithRegistry(reg),
		entity.WithAttrs(entity.Described("Prints the response on the bot console")))
	v.MustAdd("message", entity.NewString(""),
		entity.Named("Message"))
	level := entity.NewString("info")
	level.AddCheck(entity.OneOf("debug", "info", "warn", "error"))
	v.MustAdd("level", level,
		entity.Named("Log Level"),
		entity.Described("Level of the message on the console"))
	return v
}

// NewResponse builds the choice of function responses with chat selected.
func NewResponse(reg *entity.Registry) (*entity.Choice, error) {
	c := entity.NewChoice(TypeResponse, entity.WithRegistry(reg))
	err := c.AddOptions(
		entity.OptionSpec{Name: "chat", Type: TypeResponseChat},
		entity.OptionSpec{Name: "console", Type: TypeResponseConsole},
	)
	if err != nil {
		return nil, err
	}
	if _, err := c.Select("chat"); err != nil {
		return nil, err
	}
	return c, nil
}

func newImageEffectDunDunDun(reg *entity.Registry) (*entity.ChoiceValue, error) {
	v := entity.NewChoiceValue(TypeImageEffectDunDunDun, "Dun Dun Dun!!!", entity.WithRegistry(reg),
		entity.WithAttrs(entity.Described("Makes the image zoom in in three steps and then shake")))
	durations, err := entity.NewFixedArray(entity.TypeDuration, []entity.Entity{
		entity.Apply(entity.NewDuration(500*time.Millisecond), entity.Named("Small Size Duration")),
		entity.Apply(entity.NewDuration(500*time.Millisecond), entity.Named("Medium Size Duration")),
		entity.Apply(entity.NewDuration(2*time.Second), entity.Named("Large Size Duration")),
	}, entity.WithRegistry(reg))
	if err != nil {
		return nil, err
	}
	sizes, err := entity.NewFixedArray(entity.TypeInteger, []entity.Entity{
		entity.Apply(entity.NewInteger(100), entity.Named("Small Size (Width)")),
		entity.Apply(entity.NewInteger(200), entity.Named("Medium Size (Width)")),
		entity.Apply(entity.NewInteger(400), entity.Named("Large Size (Width)")),
	}, entity.WithRegistry(reg), entity.WithChecks(sizesRule))
	if err != nil {
		return nil, err
	}
	v.MustAdd("durations", durations,
		entity.Named("Durations"),
		entity.Described("How long the image stays at each size. Should match the pauses between the sound effect's beats."))
	v.MustAdd("sizes", sizes,
		entity.Named("Sizes"),
		entity.Described("The width of the image at each step. The height scales to match."))
	return v, nil
}

func newImageEffectShake(reg *entity.Registry) *entity.ChoiceValue {
	v := entity.NewChoiceValue(TypeImageEffectShake, "Shake", entity.WithRegistry(reg))
	v.MustAdd("intensity", entity.NewPercentage(50), entity.Named("Intensity"))
	v.MustAdd("duration", entity.NewDuration(time.Second), entity.Named("Duration"))
	return v
}

// NewImageEffect builds the choice of image effects with the shake effect
// selected.
func NewImageEffect(reg *entity.Registry) (*entity.Choice, error) {
	c := entity.NewChoice(TypeImageEffect, entity.WithRegistry(reg))
	err := c.AddOptions(
		entity.OptionSpec{Name: "shake", Type: TypeImageEffectShake},
		entity.OptionSpec{Name: "dunDunDun", Type: TypeImageEffectDunDunDun},
	)
	if err != nil {
		return nil, err
	}
	if _, err := c.Select("shake"); err != nil {
		return nil, err
	}
	return c, nil
}
