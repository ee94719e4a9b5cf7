package botschema

import (
	"fmt"

	entity "github.com/goliatone/go-entities"
)

// NewRegistry returns a registry carrying the built-in tags and every tag of
// this package.
func NewRegistry() (*entity.Registry, error) {
	r := entity.NewRegistry()
	entity.RegisterBuiltins(r)
	if err := Register(r); err != nil {
		return nil, err
	}
	return r, nil
}

// MustRegistry is NewRegistry for program start-up.
func MustRegistry() *entity.Registry {
	r, err := NewRegistry()
	if err != nil {
		panic(err)
	}
	return r
}

// Register installs the bot tags on r. r must already carry the built-ins.
func Register(r *entity.Registry) error {
	builders := []struct {
		tag   string
		build entity.Builder
	}{
		{TypeCooldown, func(reg *entity.Registry, _ ...any) (entity.Entity, error) { return NewCooldown(reg), nil }},
		{TypeChannelReward, func(reg *entity.Registry, _ ...any) (entity.Entity, error) { return NewChannelReward(reg), nil }},
		{TypeUserFilterIsUser, func(reg *entity.Registry, _ ...any) (entity.Entity, error) { return newUserFilterIsUser(reg), nil }},
		{TypeUserFilterIsOneOf, func(reg *entity.Registry, _ ...any) (entity.Entity, error) { return newUserFilterIsOneOf(reg), nil }},
		{TypeUserFilter, func(reg *entity.Registry, _ ...any) (entity.Entity, error) { return NewUserFilter(reg) }},
		{TypeTriggerCommand, func(reg *entity.Registry, _ ...any) (entity.Entity, error) { return newTriggerCommand(reg), nil }},
		{TypeTriggerShortcut, func(reg *entity.Registry, _ ...any) (entity.Entity, error) { return newTriggerShortcut(reg), nil }},
		{TypeTriggerTime, func(reg *entity.Registry, _ ...any) (entity.Entity, error) { return newTriggerTime(reg), nil }},
		{TypeTrigger, func(reg *entity.Registry, _ ...any) (entity.Entity, error) { return NewTrigger(reg) }},
		{TypeResponseChat, func(reg *entity.Registry, _ ...any) (entity.Entity, error) { return newResponseChat(reg), nil }},
		{TypeResponseConsole, func(reg *entity.Registry, _ ...any) (entity.Entity, error) { return newResponseConsole(reg), nil }},
		{TypeResponse, func(reg *entity.Registry, _ ...any) (entity.Entity, error) { return NewResponse(reg) }},
		{TypeImageEffectDunDunDun, func(reg *entity.Registry, _ ...any) (entity.Entity, error) { return newImageEffectDunDunDun(reg) }},
		{TypeImageEffectShake, func(reg *entity.Registry, _ ...any) (entity.Entity, error) { return newImageEffectShake(reg), nil }},
		{TypeImageEffect, func(reg *entity.Registry, _ ...any) (entity.Entity, error) { return NewImageEffect(reg) }},
		{TypeImage, func(reg *entity.Registry, _ ...any) (entity.Entity, error) { return NewImage(reg), nil }},
		{TypeFunction, func(reg *entity.Registry, _ ...any) (entity.Entity, error) { return NewFunction(reg), nil }},
		{TypeCommand, func(reg *entity.Registry, args ...any) (entity.Entity, error) {
			name, err := optionalString(args)
			if err != nil {
				return nil, err
			}
			return NewCommand(reg, name), nil
		}},
		{TypeCommands, func(reg *entity.Registry, _ ...any) (entity.Entity, error) {
			return entity.NewDynamicObject(TypeCommands, entity.WithRegistry(reg)), nil
		}},
		{TypeModule, func(reg *entity.Registry, args ...any) (entity.Entity, error) {
			name, err := optionalString(args)
			if err != nil {
				return nil, err
			}
			return NewModule(reg, name), nil
		}},
		{TypeMain, func(reg *entity.Registry, _ ...any) (entity.Entity, error) { return NewMain(reg), nil }},
	}
	for _, b := range builders {
		if err := r.Register(b.tag, b.build); err != nil {
			return fmt.Errorf("botschema: %w", err)
		}
	}
	return nil
}

func optionalString(args []any) (string, error) {
	if len(args) == 0 || args[0] == nil {
		return "", nil
	}
	s, ok := args[0].(string)
	if !ok {
		return "", fmt.Errorf("botschema: expected a string argument, got %T", args[0])
	}
	return s, nil
}
