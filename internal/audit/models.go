package audit

import "time"

// Action names the auditable operations on the sale surface.
const (
	ActionReserve           = "sale.reserve"
	ActionBuy               = "sale.buy"
	ActionConfigUpdate      = "sale.config.update"
	ActionSweep             = "treasury.sweep"
	ActionOwnershipTransfer = "owner.transfer"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Action         string    `json:"action"`
	Caller         string    `json:"caller"`
	Subject        string    `json:"subject,omitempty"`
	Amount         string    `json:"amount,omitempty"`
	Detail         string    `json:"detail,omitempty"`
	RequestID      string    `json:"request_id,omitempty"`
	ClientIP       string    `json:"client_ip,omitempty"`
	ClientPlatform string    `json:"client_platform,omitempty"`
}
