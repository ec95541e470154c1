package usersink

import (
	"context"
	"strings"

	"github.com/goliatone/go-inherit/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook adapts level and conversion events to a go-users ActivitySink.
//
// ActorID and TenantID are used when the event does not carry its own; a
// container is usually configured by a service account rather than a user.
type Hook struct {
	Sink     usertypes.ActivitySink
	ActorID  uuid.UUID
	TenantID uuid.UUID
}

// Notify maps the event into an ActivityRecord and forwards it to the sink.
// The record's Data is Event.Data, so level identity sits under "level".
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}
	normalized := activity.NormalizeEvent(event)
	if !normalized.Valid() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	return h.Sink.Log(ctx, usertypes.ActivityRecord{
		ActorID:    orDefault(parseUUID(normalized.ActorID), h.ActorID),
		UserID:     parseUUID(normalized.UserID),
		TenantID:   orDefault(parseUUID(normalized.TenantID), h.TenantID),
		Verb:       normalized.Verb,
		ObjectType: normalized.ObjectType(),
		ObjectID:   normalized.ObjectID(),
		Channel:    normalized.Channel,
		Data:       normalized.Data(),
		OccurredAt: normalized.OccurredAt,
	})
}

func orDefault(id, fallback uuid.UUID) uuid.UUID {
	if id == uuid.Nil {
		return fallback
	}
	return id
}

func parseUUID(input string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(input))
	if err != nil {
		return uuid.Nil
	}
	return id
}
