package eventstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/zitadel/zitadel-eventstore-core/internal/authz"
)

// AggregateType names the kind of aggregate an event belongs to, e.g. "org".
type AggregateType string

// EventType is the dotted wire identifier
// "{aggregate}.{sub}.{verb}", e.g. "user.human.added".
type EventType string

// Aggregate identifies one aggregate instance: (instance_id, aggregate_type,
// aggregate_id). Version is the aggregate's sequence: command handlers set it
// from the write model's Sequence, and Push does not read it but sets it on
// each persisted event to the version the store assigned. The optimistic
// check is declared separately through Command.RequiredSequence.
type Aggregate struct {
	ID            string
	Type          AggregateType
	ResourceOwner string
	InstanceID    string
	Version       uint64
}

// UniqueConstraintAction is the lifecycle intent a command attaches to a
// unique-constraint row.
type UniqueConstraintAction int

const (
	UniqueConstraintAdd UniqueConstraintAction = iota
	UniqueConstraintRemove
	UniqueConstraintInstanceRemove
)

// UniqueConstraint declares that a command is adding or releasing exclusive
// ownership of (instance_id, unique_type, unique_field), or for global
// constraints the (unique_type, unique_field) pair across all instances.
type UniqueConstraint struct {
	UniqueType   string
	UniqueField  string
	ErrorMessage string
	Action       UniqueConstraintAction
	IsGlobal     bool
}

func NewAddUniqueConstraint(uniqueType, field, errMessage string) *UniqueConstraint {
	return &UniqueConstraint{UniqueType: uniqueType, UniqueField: field, ErrorMessage: errMessage, Action: UniqueConstraintAdd}
}

func NewRemoveUniqueConstraint(uniqueType, field string) *UniqueConstraint {
	return &UniqueConstraint{UniqueType: uniqueType, UniqueField: field, Action: UniqueConstraintRemove}
}

func NewRemoveInstanceUniqueConstraints() *UniqueConstraint {
	return &UniqueConstraint{Action: UniqueConstraintInstanceRemove}
}

// Command is what a command handler hands to Push: everything needed to
// append one event, before it has been assigned a version or position.
type Command interface {
	Aggregate() *Aggregate
	Type() EventType
	Payload() any
	Creator() string
	// RequiredSequence is the optimistic-concurrency precondition; zero
	// means "accept the next contiguous version".
	RequiredSequence() uint64
	UniqueConstraints() []*UniqueConstraint
}

// Event is a Command that has been durably persisted: it additionally knows
// its assigned sequence, position and creation time, and can unmarshal its
// payload back into a typed struct.
type Event interface {
	Command
	Sequence() uint64
	CreatedAt() time.Time
	// Position is the global, monotone, within-instance ordering.
	// InTxOrder breaks ties between events of the same push.
	Position() float64
	InTxOrder() uint32
	Unmarshal(ptr any) error
}

// BaseEvent is embedded by every concrete per-aggregate event.
type BaseEvent struct {
	EventType  EventType
	Agg        *Aggregate
	CreatorID  string
	CreatedAtV time.Time
	SequenceV  uint64
	PositionV  float64
	InTxOrderV uint32
	RequiredV  uint64
	Data       json.RawMessage
}

func (b *BaseEvent) Aggregate() *Aggregate                  { return b.Agg }
func (b *BaseEvent) Type() EventType                        { return b.EventType }
func (b *BaseEvent) Creator() string                        { return b.CreatorID }
func (b *BaseEvent) RequiredSequence() uint64               { return b.RequiredV }
func (b *BaseEvent) Sequence() uint64                       { return b.SequenceV }
func (b *BaseEvent) CreatedAt() time.Time                   { return b.CreatedAtV }
func (b *BaseEvent) Position() float64                      { return b.PositionV }
func (b *BaseEvent) InTxOrder() uint32                      { return b.InTxOrderV }
func (b *BaseEvent) UniqueConstraints() []*UniqueConstraint { return nil }

func (b *BaseEvent) Unmarshal(ptr any) error {
	if len(b.Data) == 0 {
		return nil
	}
	return json.Unmarshal(b.Data, ptr)
}

// NewBaseEventForPush builds the BaseEvent a command constructor embeds;
// the creator is taken from the context's actor, "system" when absent.
func NewBaseEventForPush(ctx context.Context, aggregate *Aggregate, typ EventType) *BaseEvent {
	return &BaseEvent{
		EventType: typ,
		Agg:       aggregate,
		CreatorID: authz.GetCtxData(ctx).UserID,
	}
}

// BaseEventFromRepo copies the storage-assigned fields of a generic,
// persisted Event into a fresh BaseEvent for a concrete event type to
// embed. The concrete type's own fields are filled separately by
// event.Unmarshal(e) against the original event, not this copy.
func BaseEventFromRepo(event Event) *BaseEvent {
	return &BaseEvent{
		EventType:  event.Type(),
		Agg:        event.Aggregate(),
		CreatorID:  event.Creator(),
		CreatedAtV: event.CreatedAt(),
		SequenceV:  event.Sequence(),
		PositionV:  event.Position(),
		InTxOrderV: event.InTxOrder(),
		RequiredV:  event.RequiredSequence(),
	}
}

// EventMapper turns a persisted, generic Event (as read back from storage)
// into its concrete typed representation; each per-aggregate event package
// defines one per event type.
type EventMapper func(Event) (Event, error)
