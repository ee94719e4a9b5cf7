package usersink_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-entities/pkg/activity"
	"github.com/goliatone/go-entities/pkg/activity/usersink"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsTreeEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	tenantID := uuid.New()

	event := activity.BuildTreeSavedEvent(activity.TreeEventInput{
		ActorID:    actorID.String(),
		TenantID:   tenantID.String(),
		Channel:    "settings",
		Recipients: []string{"ops@example.com"},
		Tree:       "modules/counter",
		SnapshotID: "snap-9",
		OccurredAt: now,
	})
	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID || record.TenantID != tenantID || record.UserID != uuid.Nil {
		t.Fatalf("unexpected identities: %+v", record)
	}
	if record.Verb != activity.VerbTreeSaved || record.ObjectType != activity.ObjectTypeTree || record.ObjectID != "modules/counter" {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if record.Channel != "settings" || !record.OccurredAt.Equal(now) {
		t.Fatalf("unexpected channel or time: %+v", record)
	}
	if record.Data["snapshot_id"] != "snap-9" || record.Data["definition_code"] != activity.VerbTreeSaved {
		t.Fatalf("unexpected data %+v", record.Data)
	}
	recipients, ok := record.Data["recipients"].([]string)
	if !ok || len(recipients) != 1 || recipients[0] != "ops@example.com" {
		t.Fatalf("expected recipients data got %v", record.Data["recipients"])
	}
}

func TestHookFallsBackToSystemActor(t *testing.T) {
	sink := &recordingSink{}
	system := uuid.New()
	hook := usersink.Hook{Sink: sink, SystemActor: system}

	err := hook.Notify(context.Background(), activity.BuildTreeReloadedEvent(activity.TreeEventInput{
		ActorID: "file-watcher",
		Tree:    "main",
	}))
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if sink.records[0].ActorID != system {
		t.Fatalf("expected system actor, got %s", sink.records[0].ActorID)
	}
	if sink.records[0].OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be defaulted")
	}
}

func TestHookSkipsIncompleteEventsAndNilSink(t *testing.T) {
	sink := &recordingSink{}
	_ = usersink.Hook{Sink: sink}.Notify(context.Background(), activity.Event{})
	if len(sink.records) != 0 {
		t.Fatalf("expected no records for empty event, got %d", len(sink.records))
	}
	if err := (usersink.Hook{}).Notify(context.Background(), activity.BuildTreeLoadedEvent(activity.TreeEventInput{Tree: "main"})); err != nil {
		t.Fatalf("expected nil sink to be ignored, got %v", err)
	}
}

func TestHookReturnsSinkErrors(t *testing.T) {
	boom := errors.New("boom")
	hook := usersink.Hook{Sink: &recordingSink{err: boom}}
	err := hook.Notify(context.Background(), activity.BuildTreeAppliedEvent(activity.TreeEventInput{Tree: "main"}))
	if !errors.Is(err, boom) {
		t.Fatalf("expected sink error, got %v", err)
	}
}
