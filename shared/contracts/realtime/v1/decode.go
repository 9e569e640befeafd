package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedFrame is returned by Decode for frames that are not a tagged JSON object.
var ErrMalformedFrame = errors.New("malformed frame")

// Decode parses one inbound frame into its typed event.
//
// A frame with an unrecognized tag decodes to Unknown without error.
// A frame that is not a JSON object, lacks a type tag, or whose payload does
// not match its tag yields an error wrapping ErrMalformedFrame.
func Decode(data []byte) (Event, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	tag := strings.TrimSpace(head.Type)
	if tag == "" {
		return nil, fmt.Errorf("%w: missing field: type", ErrMalformedFrame)
	}

	raw := append(json.RawMessage(nil), data...)
	frame := Frame{Tag: tag, Raw: raw}

	var (
		ev  Event
		err error
	)
	switch tag {
	case TypeConnectionEstablished:
		ev, err = decodeInto(raw, tag, &ConnectionEstablished{Frame: frame})
	case TypeNewMessage:
		ev, err = decodeInto(raw, tag, &NewMessage{Frame: frame})
	case TypeConversationUpdated:
		ev, err = decodeInto(raw, tag, &ConversationUpdated{Frame: frame})
	case TypeMessageStatusUpdated:
		ev, err = decodeInto(raw, tag, &MessageStatusUpdated{Frame: frame})
	case TypeConversationAssigned:
		ev, err = decodeInto(raw, tag, &ConversationAssigned{Frame: frame})
	case TypeUserTyping:
		ev, err = decodeInto(raw, tag, &UserTyping{Frame: frame})
	case TypeMessagesRead:
		ev, err = decodeInto(raw, tag, &MessagesRead{Frame: frame})
	case TypeSubscribed:
		ev, err = decodeInto(raw, tag, &Subscribed{Frame: frame})
	case TypeUnsubscribed:
		ev, err = decodeInto(raw, tag, &Unsubscribed{Frame: frame})
	case TypePong:
		ev = &Pong{Frame: frame}
	case TypeWhatsAppConnectionUpdate,
		TypeProviderMessagesUpsert,
		TypeProviderMessagesUpdate,
		TypeProviderConnectionUpdate:
		ev, err = decodeInto(raw, tag, &ProviderEvent{Frame: frame})
	default:
		ev = &Unknown{Frame: frame}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedFrame, tag, err)
	}
	return ev, nil
}

// decodeInto unmarshals raw into dst and restores the normalized tag, which
// the payload's own "type" field would otherwise overwrite.
func decodeInto(raw json.RawMessage, tag string, dst interface {
	Event
	setTag(string)
}) (Event, error) {
	if err := json.Unmarshal(raw, dst); err != nil {
		return nil, err
	}
	dst.setTag(tag)
	return dst, nil
}
