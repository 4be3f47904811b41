package correlate

import (
	"time"

	"ctfwatch/internal/contract"
	"ctfwatch/internal/model"
	"ctfwatch/internal/registry"
)

const (
	logAlertTitle = "TRADE DETECTED (Event)"
	txAlertTitle  = "TRADE DETECTED (Tx)"
)

var actionLabels = map[string]model.ActionType{
	"OrderFilled": model.ActionOrderFilled,
	"fillOrder":   model.ActionFillOrder,
	"fillOrders":  model.ActionBatchBuy,
	"matchOrders": model.ActionMatchOrders,
}

// ActionFor maps a decoded call or event name to its alert label. Proxy
// wrappers are labelled by whether their embedded payload resolved.
func ActionFor(call *model.DecodedCall) model.ActionType {
	if call == nil {
		return model.ActionUnknown
	}
	if call.Inner != nil {
		if _, ok := actionLabels[call.Inner.Name]; ok {
			return model.ActionProxyTrade
		}
		return model.ActionUnknown
	}
	if action, ok := actionLabels[call.Name]; ok {
		return action
	}
	return model.ActionUnknown
}

// Engine matches chain items against the registry and builds alerts.
type Engine struct {
	registry *registry.Registry
	decoder  *contract.Decoder
	now      func() time.Time
}

func NewEngine(reg *registry.Registry, decoder *contract.Decoder) *Engine {
	return &Engine{registry: reg, decoder: decoder, now: time.Now}
}

// WithClock overrides the alert timestamp source.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Registry returns the target registry.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// PrefilterLog compares the indexed address topics of a known exchange event
// against the targets without unpacking the log data.
func (e *Engine) PrefilterLog(log model.LogRecord) bool {
	exchange := e.decoder.Exchange()
	if !exchange.CanDecode(log.Topic0()) {
		return false
	}
	return e.registry.ContainsAny(exchange.IndexedAddresses(log))
}

// MatchLog decodes an exchange log and matches its maker or taker. A log that
// does not decode never matches, since its participants are unknown.
func (e *Engine) MatchLog(log model.LogRecord) (model.MatchResult, contract.Result) {
	decoded := e.decoder.DecodeExchangeLog(log)
	if !decoded.Ok() {
		return model.MatchResult{}, decoded
	}

	match := e.matchParticipants(contract.ParticipantsOf(decoded.Call))
	if match.Matched {
		match.Action = ActionFor(decoded.Call)
	}
	return match, decoded
}

// matchParticipants prefers the maker side, so a self-trade resolves to Maker.
func (e *Engine) matchParticipants(p contract.Participants) model.MatchResult {
	switch {
	case e.registry.Contains(p.Maker):
		return model.MatchResult{
			Matched:        true,
			MatchedAddress: registry.Normalize(p.Maker),
			Counterparty:   p.Taker,
			Role:           model.RoleMaker,
		}
	case e.registry.Contains(p.Taker):
		return model.MatchResult{
			Matched:        true,
			MatchedAddress: registry.Normalize(p.Taker),
			Counterparty:   p.Maker,
			Role:           model.RoleTaker,
		}
	default:
		return model.MatchResult{}
	}
}

// PrefilterTransaction reports whether the primary target sent or received tx.
func (e *Engine) PrefilterTransaction(tx model.Transaction) bool {
	target, ok := e.registry.Primary()
	if !ok {
		return false
	}
	return registry.Normalize(tx.From) == target || registry.Normalize(tx.To) == target
}

// MatchTransaction matches tx against the primary target and classifies its
// calldata. The address match alone is enough to alert: calldata that does not
// decode yields Unknown Interaction.
func (e *Engine) MatchTransaction(tx model.Transaction) (model.MatchResult, contract.Result) {
	target, ok := e.registry.Primary()
	if !ok {
		return model.MatchResult{}, contract.Result{}
	}

	from := registry.Normalize(tx.From)
	to := registry.Normalize(tx.To)

	var match model.MatchResult
	switch target {
	case from:
		match = model.MatchResult{Matched: true, MatchedAddress: target, Counterparty: to, Role: model.RoleMaker}
	case to:
		match = model.MatchResult{Matched: true, MatchedAddress: target, Counterparty: from, Role: model.RoleTaker}
	default:
		return model.MatchResult{}, contract.Result{}
	}

	decoded := e.classifyCalldata(tx)
	match.Action = model.ActionUnknown
	if decoded.Ok() {
		match.Action = ActionFor(decoded.Call)
	}
	return match, decoded
}

func (e *Engine) classifyCalldata(tx model.Transaction) contract.Result {
	input, ok := contract.DecodeInput(tx.Input)
	if !ok {
		return contract.Result{Outcome: contract.Unmatched}
	}
	if e.registry.IsExchange(tx.To) {
		return e.decoder.DecodeExchangeCall(input)
	}
	return e.decoder.DecodeProxyCall(input)
}

// LogAlert builds the alert for a matched exchange log.
func (e *Engine) LogAlert(log model.LogRecord, match model.MatchResult) model.AlertRecord {
	logIndex := log.LogIndex
	return model.AlertRecord{
		Title:          logAlertTitle,
		Action:         match.Action,
		Role:           match.Role,
		MatchedAddress: match.MatchedAddress,
		Counterparty:   match.Counterparty,
		BlockNumber:    log.BlockNumber,
		TxHash:         log.TxHash,
		LogIndex:       &logIndex,
		Source:         model.SourceLogs,
		Timestamp:      e.now().UTC(),
	}
}

// TransactionAlert builds the alert for a matched transaction.
func (e *Engine) TransactionAlert(tx model.Transaction, match model.MatchResult) model.AlertRecord {
	return model.AlertRecord{
		Title:          txAlertTitle,
		Action:         match.Action,
		Role:           match.Role,
		MatchedAddress: match.MatchedAddress,
		Counterparty:   match.Counterparty,
		BlockNumber:    tx.BlockNumber,
		TxHash:         tx.Hash,
		Source:         model.SourceTransactions,
		Timestamp:      e.now().UTC(),
	}
}
