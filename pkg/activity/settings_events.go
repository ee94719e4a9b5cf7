package activity

import (
	"strings"
	"time"
)

// Verbs emitted for settings trees.
const (
	VerbTreeLoaded   = "settings.loaded"
	VerbTreeApplied  = "settings.applied"
	VerbTreeRejected = "settings.rejected"
	VerbTreeSaved    = "settings.saved"
	VerbTreeReloaded = "settings.reloaded"
)

// ObjectTypeTree is the object type of every settings event.
const ObjectTypeTree = "settings.tree"

// TreeEventInput describes a lifecycle step of one settings tree.
type TreeEventInput struct {
	ActorID    string
	UserID     string
	TenantID   string
	Channel    string
	Recipients []string
	Metadata   map[string]any

	// Tree is the storage identifier of the tree ("main", "modules/<name>").
	Tree       string
	EntityType string
	SnapshotID string
	// Path locates a validation failure inside the tree.
	Path       []string
	Err        error
	OccurredAt time.Time
}

func BuildTreeLoadedEvent(input TreeEventInput) Event {
	return buildTreeEvent(VerbTreeLoaded, input)
}

func BuildTreeAppliedEvent(input TreeEventInput) Event {
	return buildTreeEvent(VerbTreeApplied, input)
}

// BuildTreeRejectedEvent records a draft that failed validation. Err and
// Path end up in the metadata.
func BuildTreeRejectedEvent(input TreeEventInput) Event {
	return buildTreeEvent(VerbTreeRejected, input)
}

func BuildTreeSavedEvent(input TreeEventInput) Event {
	return buildTreeEvent(VerbTreeSaved, input)
}

func BuildTreeReloadedEvent(input TreeEventInput) Event {
	return buildTreeEvent(VerbTreeReloaded, input)
}

func buildTreeEvent(verb string, input TreeEventInput) Event {
	metadata := cloneMap(input.Metadata)
	set := func(key string, value any) {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata[key] = value
	}
	if input.EntityType != "" {
		set("entity_type", input.EntityType)
	}
	if input.SnapshotID != "" {
		set("snapshot_id", input.SnapshotID)
	}
	if len(input.Path) > 0 {
		set("path", append([]string(nil), input.Path...))
	}
	if input.Err != nil {
		set("error", input.Err.Error())
	}

	objectID := strings.TrimSpace(input.Tree)
	if objectID == "" {
		objectID = strings.TrimSpace(input.SnapshotID)
	}
	if objectID == "" {
		objectID = ObjectTypeTree
	}

	return Event{
		Verb:           verb,
		ActorID:        strings.TrimSpace(input.ActorID),
		UserID:         strings.TrimSpace(input.UserID),
		TenantID:       strings.TrimSpace(input.TenantID),
		ObjectType:     ObjectTypeTree,
		ObjectID:       objectID,
		Channel:        strings.TrimSpace(input.Channel),
		DefinitionCode: verb,
		Recipients:     append([]string(nil), input.Recipients...),
		Metadata:       metadata,
		OccurredAt:     input.OccurredAt,
	}
}
