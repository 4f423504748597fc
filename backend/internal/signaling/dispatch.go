package signaling

import "encoding/json"

// Dispatch decodes one inbound event from connection "from" and routes it.
// Unknown events and events whose arguments do not decode are dropped; no
// error ever goes back to the sender.
func (h *Hub) Dispatch(from string, msg *Message) {
	var err error

	switch msg.Event {
	case EventJoinCall:
		var key, name string
		if err = msg.Decode(&key, &name); err == nil {
			h.Join(from, key, name)
		}

	case EventAdmitUser:
		var key, target string
		if err = msg.Decode(&key, &target); err == nil {
			h.Admit(from, key, target)
		}

	case EventRejectUser:
		var key, target string
		if err = msg.Decode(&key, &target); err == nil {
			h.Reject(from, key, target)
		}

	case EventSignal:
		var to string
		var payload json.RawMessage
		if err = msg.Decode(&to, &payload); err == nil {
			h.Signal(from, to, payload)
		}

	case EventChatMessage:
		var body, sender string
		if err = msg.Decode(&body, &sender); err == nil {
			h.Chat(from, body, sender)
		}

	case EventToggleHand:
		var key string
		var raised bool
		if err = msg.Decode(&key, &raised); err == nil {
			h.ToggleHand(from, key, raised)
		}

	case EventToggleMute:
		var key string
		var muted bool
		if err = msg.Decode(&key, &muted); err == nil {
			h.ToggleMute(from, key, muted)
		}

	case EventDisconnect:
		h.Disconnect(from)

	default:
		h.log.Debug("Unknown event", "event", msg.Event, "conn", from)
		return
	}

	if err != nil {
		h.log.Debug("Malformed event", "event", msg.Event, "conn", from, "err", err)
	}
}
