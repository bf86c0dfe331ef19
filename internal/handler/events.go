package handler

import (
	"encoding/json"

	"github.com/bencevas/orderboard/internal/domain"
	"github.com/bencevas/orderboard/internal/ws"
)

// OrderEventMessage builds the WebSocket message for an order change, with
// the same order shape the REST endpoints serve.
func OrderEventMessage(ev domain.Event) (ws.Event, error) {
	payload, err := json.Marshal(toOrderResponse(ev.Order))
	if err != nil {
		return ws.Event{}, err
	}
	return ws.Event{
		Type:    "order." + string(ev.Kind),
		Payload: payload,
	}, nil
}
