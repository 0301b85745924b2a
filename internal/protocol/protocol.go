package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello       = "C_HELLO"
	TypeInput       = "C_INPUT"
	TypeTrade       = "C_TRADE"
	TypeWelcome     = "S_WELCOME"
	TypeState       = "S_STATE"
	TypeEvent       = "S_EVENT"
	TypeCombatEvent = "S_COMBAT_EVENT"
	TypeTradeResult = "S_TRADE_RESULT"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
