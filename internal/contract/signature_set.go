package contract

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"ctfwatch/internal/model"
)

// Outcome tags the result of matching a payload against a signature set.
type Outcome int

const (
	// Unmatched means no signature in the set claims the selector. It is an
	// expected branch, not an error.
	Unmatched Outcome = iota
	// Decoded means the payload matched a signature and its arguments unpacked.
	Decoded
	// Malformed means the selector matched but the payload could not be unpacked.
	Malformed
)

func (o Outcome) String() string {
	switch o {
	case Decoded:
		return "decoded"
	case Malformed:
		return "malformed"
	default:
		return "unmatched"
	}
}

// Result is a tagged decode outcome.
type Result struct {
	Outcome Outcome
	Call    *model.DecodedCall
	Err     error
}

// Ok reports whether the payload decoded.
func (r Result) Ok() bool {
	return r.Outcome == Decoded && r.Call != nil
}

func unmatched() Result {
	return Result{Outcome: Unmatched}
}

func malformed(err error) Result {
	return Result{Outcome: Malformed, Err: err}
}

// SignatureSet is an immutable group of function and event signatures.
type SignatureSet struct {
	abi         abi.ABI
	topicToName map[string]string
}

func newSignatureSet(parsed abi.ABI) *SignatureSet {
	topicToName := make(map[string]string, len(parsed.Events))
	for eventName, event := range parsed.Events {
		topicToName[strings.ToLower(event.ID.Hex())] = eventName
	}
	return &SignatureSet{
		abi:         parsed,
		topicToName: topicToName,
	}
}

// NewExchangeSet builds the CTF exchange signature set.
func NewExchangeSet() (*SignatureSet, error) {
	parsed, err := ExchangeABI()
	if err != nil {
		return nil, fmt.Errorf("parse exchange abi: %w", err)
	}
	return newSignatureSet(parsed), nil
}

// NewProxySet builds the proxy wrapper signature set.
func NewProxySet() (*SignatureSet, error) {
	parsed, err := ProxyABI()
	if err != nil {
		return nil, fmt.Errorf("parse proxy abi: %w", err)
	}
	return newSignatureSet(parsed), nil
}

// CanDecode checks if the topic0 belongs to an event in the set.
func (s *SignatureSet) CanDecode(topic0 string) bool {
	if topic0 == "" {
		return false
	}
	_, ok := s.topicToName[strings.ToLower(topic0)]
	return ok
}

// DecodeCall matches the leading 4-byte selector and unpacks the arguments.
func (s *SignatureSet) DecodeCall(payload []byte) Result {
	if len(payload) < 4 {
		return unmatched()
	}
	method, err := s.abi.MethodById(payload[:4])
	if err != nil {
		return unmatched()
	}

	values, err := method.Inputs.Unpack(payload[4:])
	if err != nil {
		return malformed(fmt.Errorf("unpack %s: %w", method.Name, err))
	}
	if len(values) != len(method.Inputs) {
		return malformed(fmt.Errorf("unexpected %s values: %d", method.Name, len(values)))
	}

	named := make(map[string]interface{}, len(values))
	for i, arg := range method.Inputs {
		named[arg.Name] = values[i]
	}

	return Result{
		Outcome: Decoded,
		Call: &model.DecodedCall{
			Name:  method.Name,
			Kind:  model.KindFunction,
			Args:  values,
			Named: named,
		},
	}
}

// DecodeLog matches topic0 against the set's events and decodes topics and data.
func (s *SignatureSet) DecodeLog(log model.LogRecord) Result {
	name, ok := s.topicToName[strings.ToLower(log.Topic0())]
	if !ok {
		return unmatched()
	}
	event := s.abi.Events[name]

	indexedTopics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return malformed(err)
	}

	named := make(map[string]interface{}, len(event.Inputs))
	if err := abi.ParseTopicsIntoMap(named, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return malformed(fmt.Errorf("parse topics: %w", err))
	}

	data, err := hexutil.Decode(normalizeHex(log.Data))
	if err != nil {
		return malformed(fmt.Errorf("invalid data: %w", err))
	}
	if err := event.Inputs.NonIndexed().UnpackIntoMap(named, data); err != nil {
		return malformed(fmt.Errorf("unpack %s: %w", event.Name, err))
	}

	args := make([]interface{}, 0, len(event.Inputs))
	for _, arg := range event.Inputs {
		args = append(args, named[arg.Name])
	}

	return Result{
		Outcome: Decoded,
		Call: &model.DecodedCall{
			Name:  event.Name,
			Kind:  model.KindEvent,
			Args:  args,
			Named: named,
		},
	}
}

// IndexedAddresses returns the lower-case address topics of a known event
// without unpacking its data. Unknown or short logs yield nil.
func (s *SignatureSet) IndexedAddresses(log model.LogRecord) []string {
	name, ok := s.topicToName[strings.ToLower(log.Topic0())]
	if !ok {
		return nil
	}
	event := s.abi.Events[name]

	var out []string
	pos := 1
	for _, arg := range event.Inputs {
		if !arg.Indexed {
			continue
		}
		if pos >= len(log.Topics) {
			break
		}
		if arg.Type.T == abi.AddressTy {
			data, err := hexutil.Decode(log.Topics[pos])
			if err == nil && len(data) <= 32 {
				addr := common.BytesToAddress(data)
				out = append(out, strings.ToLower(addr.Hex()))
			}
		}
		pos++
	}
	return out
}

func parseIndexedTopics(event abi.Event, topics []string) ([]common.Hash, error) {
	indexedCount := len(indexedArguments(event.Inputs))
	if len(topics) != indexedCount+1 {
		return nil, fmt.Errorf("expected %d topics, got %d", indexedCount+1, len(topics))
	}
	return parseTopicHashes(topics[1:])
}

func parseTopicHashes(topics []string) ([]common.Hash, error) {
	out := make([]common.Hash, 0, len(topics))
	for _, topic := range topics {
		data, err := hexutil.Decode(topic)
		if err != nil {
			return nil, fmt.Errorf("invalid topic: %w", err)
		}
		if len(data) > 32 {
			return nil, fmt.Errorf("topic length %d", len(data))
		}
		out = append(out, common.BytesToHash(data))
	}
	return out, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

// normalizeHex maps the empty payload to "0x" so hexutil accepts it.
func normalizeHex(input string) string {
	if input == "" {
		return "0x"
	}
	return input
}
