package world

// broadcast relays an event to every subscriber of this room. It is the
// entirety of C7's "pure relay" contract: broadcasts never cross rooms
// because they only ever iterate r.subscribers, which is populated solely
// by this room's own join/rejoin/changeMap handling.
func (r *Room) broadcast(event string, payload any) {
	b := encode(event, payload)
	if b == nil {
		return
	}
	for _, c := range r.subscribers {
		nonBlockingSend(c.Send, b)
	}
}

// broadcastExcept relays to every subscriber except the given odId, the
// shape most ingress relays use (spec §4.7).
func (r *Room) broadcastExcept(exceptOdID, event string, payload any) {
	b := encode(event, payload)
	if b == nil {
		return
	}
	for odID, c := range r.subscribers {
		if odID == exceptOdID {
			continue
		}
		nonBlockingSend(c.Send, b)
	}
}

func (r *Room) unicast(odID, event string, payload any) {
	if c, ok := r.subscribers[odID]; ok {
		sendTo(c, event, payload)
	}
}
