package gallery

import (
	"errors"
	"fmt"

	"artgallery/internal/models"
)

type State int

const (
	StatePrivate State = iota + 1
	StatePendingModeration
	StatePublic
)

func (s State) String() string {
	switch s {
	case StatePrivate:
		return "private"
	case StatePendingModeration:
		return "pending_moderation"
	case StatePublic:
		return "public"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type Event int

const (
	EventRequestPublic Event = iota + 1
	EventRequestPrivate
	EventModerationPassed
	EventModerationRejected
)

var ErrInvalidTransition = errors.New("invalid visibility transition")

type transitionKey struct {
	from  State
	event Event
}

// transitions is the complete visibility state machine. Repeating the
// current target is a self loop, which is what makes requests idempotent.
var transitions = map[transitionKey]State{
	{StatePrivate, EventRequestPublic}:                StatePendingModeration,
	{StatePrivate, EventRequestPrivate}:               StatePrivate,
	{StatePendingModeration, EventModerationPassed}:   StatePublic,
	{StatePendingModeration, EventModerationRejected}: StatePrivate,
	{StatePublic, EventRequestPublic}:                 StatePublic,
	{StatePublic, EventRequestPrivate}:                StatePrivate,
}

func Transition(from State, event Event) (State, error) {
	next, ok := transitions[transitionKey{from, event}]
	if !ok {
		return from, fmt.Errorf("%w: %s on event %d", ErrInvalidTransition, from, int(event))
	}
	return next, nil
}

// StateOf is the stable state of a stored asset.
func StateOf(asset models.Asset) State {
	if asset.IsPublic {
		return StatePublic
	}
	return StatePrivate
}

func requestFor(public bool) Event {
	if public {
		return EventRequestPublic
	}
	return EventRequestPrivate
}
