package botschema

import entity "github.com/goliatone/go-entities"

var (
	reservedArgs = entity.RuleArgs(map[string]any{"reserved": ReservedCommands})

	commandNameRule = entity.MustRule(`!(lower(value) in args.reserved)`,
		reservedArgs,
		entity.RuleMessage("command name is reserved"),
	)
	aliasesRule = entity.MustRule(`none(value, {lower(#) in args.reserved})`,
		reservedArgs,
		entity.RuleMessage("alias is reserved"),
	)
	nonBlankRule = entity.MustRule(`value != nil && trim(value) != ""`,
		entity.RuleMessage("must not be blank"),
	)
	portRule = entity.MustRule(`value >= 1 && value <= 65535`,
		entity.RuleMessage("port must be between 1 and 65535"),
	)
	sizesRule = entity.MustRule(`value[0] <= value[1] && value[1] <= value[2]`,
		entity.RuleMessage("sizes must grow from small to large"),
	)
)
