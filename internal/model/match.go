package model

// Role is the side a watched wallet took in a matched item.
type Role string

const (
	RoleUnknown Role = ""
	RoleMaker   Role = "maker"
	RoleTaker   Role = "taker"
)

// Label is the human readable form used in alerts.
func (r Role) Label() string {
	switch r {
	case RoleMaker:
		return "Maker (Passive)"
	case RoleTaker:
		return "Taker (Active)"
	default:
		return "Unknown"
	}
}

// ActionType classifies what a matched item did.
type ActionType string

const (
	ActionOrderFilled ActionType = "Order Filled"
	ActionFillOrder   ActionType = "Buy/Sell Order"
	ActionBatchBuy    ActionType = "Batch Buy"
	ActionMatchOrders ActionType = "Match Orders"
	ActionProxyTrade  ActionType = "Proxy Trade"
	ActionUnknown     ActionType = "Unknown Interaction"
)

// MatchResult is the outcome of correlating one chain item with the target set.
type MatchResult struct {
	Matched        bool
	MatchedAddress string
	Counterparty   string
	Role           Role
	Action         ActionType
}
