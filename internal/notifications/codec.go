package notifications

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrInvalidEventType    = errors.New("invalid event type")
	ErrInvalidEventPayload = errors.New("invalid event payload")
)

func (t EventType) IsValid() bool {
	switch t {
	case UserRegistered, UserUpdated, UserDeleted:
		return true
	default:
		return false
	}
}

// EncodeEvent is the wire form used by every broker-backed notifier.
func EncodeEvent(ev AccountEvent) ([]byte, error) {
	if !ev.Type.IsValid() {
		return nil, ErrInvalidEventType
	}
	if ev.UserID == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrInvalidEventPayload)
	}

	b, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEventPayload, err)
	}
	return b, nil
}

// DecodeEvent is the consumer side of EncodeEvent.
func DecodeEvent(b []byte) (AccountEvent, error) {
	if len(b) == 0 {
		return AccountEvent{}, ErrInvalidEventPayload
	}

	var ev AccountEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		return AccountEvent{}, fmt.Errorf("%w: %v", ErrInvalidEventPayload, err)
	}
	if !ev.Type.IsValid() {
		return AccountEvent{}, ErrInvalidEventType
	}
	return ev, nil
}
