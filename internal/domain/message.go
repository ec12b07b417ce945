package domain

import "encoding/json"

// Message types exchanged over the websocket. Inbound control messages come
// from the client; outbound messages are pushed by the server.
const (
	// Inbound.
	MsgSubscribe         = "subscribe"
	MsgUnsubscribe       = "unsubscribe"
	MsgSyncSubscriptions = "syncSubscriptions"

	// Outbound.
	MsgInit         = "init"
	MsgPriceUpdate  = "priceUpdate"
	MsgSubscribed   = "subscribed"
	MsgUnsubscribed = "unsubscribed"
)

// ControlMessage is the JSON frame a client sends to manage its ticker
// subscriptions.
type ControlMessage struct {
	Type    string   `json:"type"`
	Ticker  string   `json:"ticker,omitempty"`
	Tickers []string `json:"tickers,omitempty"`
}

// Envelope wraps every server-to-client frame.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// InitPayload is sent once on connect and again after a syncSubscriptions, so
// the client can rebuild its full view from a single message.
type InitPayload struct {
	Prices        map[string]float64 `json:"prices"`
	Subscriptions []string           `json:"subscriptions"`
}

// TickerAck acknowledges a subscribe or unsubscribe back to the sender only.
type TickerAck struct {
	Ticker string `json:"ticker"`
}

// NewEnvelope marshals payload and wraps it in an Envelope of the given type.
func NewEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}
