package world

import "encoding/json"

// envelope is the wire shape for every server -> client message: an event
// name plus its JSON payload, matching spec §6's "event name plus JSON
// payload" framing.
type envelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

func encode(event string, payload any) []byte {
	b, err := json.Marshal(envelope{Event: event, Payload: payload})
	if err != nil {
		return nil
	}
	return b
}

func sendTo(c *Client, event string, payload any) {
	if c == nil {
		return
	}
	b := encode(event, payload)
	if b == nil {
		return
	}
	nonBlockingSend(c.Send, b)
}
