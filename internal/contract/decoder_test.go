package contract_test

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctfwatch/internal/contract"
	"ctfwatch/internal/contract/contracttest"
	"ctfwatch/internal/model"
)

var (
	maker    = common.HexToAddress("0xabc0000000000000000000000000000000000123")
	taker    = common.HexToAddress("0x000000000000000000000000000000000000dead")
	exchange = common.HexToAddress(contracttest.ExchangeAddress)
)

func newDecoder(t *testing.T) *contract.Decoder {
	t.Helper()
	decoder, err := contract.NewDecoder()
	require.NoError(t, err)
	return decoder
}

func TestDecodeOrderFilledLog(t *testing.T) {
	decoder := newDecoder(t)

	record := contracttest.OrderFilledLog(1000, "0xfeed", 3, maker, taker)
	result := decoder.DecodeExchangeLog(record)
	require.True(t, result.Ok(), "outcome %s: %v", result.Outcome, result.Err)
	assert.Equal(t, "OrderFilled", result.Call.Name)
	assert.Equal(t, model.KindEvent, result.Call.Kind)
	assert.Len(t, result.Call.Args, 8)

	p := contract.ParticipantsOf(result.Call)
	assert.Equal(t, strings.ToLower(maker.Hex()), p.Maker)
	assert.Equal(t, strings.ToLower(taker.Hex()), p.Taker)
}

func TestDecodeOrdersMatchedLogHasNoParticipants(t *testing.T) {
	decoder := newDecoder(t)

	result := decoder.DecodeExchangeLog(contracttest.OrdersMatchedLog(10, "0x01", 0, taker))
	require.True(t, result.Ok(), "outcome %s: %v", result.Outcome, result.Err)
	assert.Equal(t, "OrdersMatched", result.Call.Name)
	assert.Equal(t, contract.Participants{}, contract.ParticipantsOf(result.Call))
}

func TestDecodeLogUnknownTopicIsUnmatched(t *testing.T) {
	decoder := newDecoder(t)

	record := contracttest.OrderFilledLog(1000, "0xfeed", 3, maker, taker)
	record.Topics[0] = "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"

	result := decoder.DecodeExchangeLog(record)
	assert.Equal(t, contract.Unmatched, result.Outcome)
	assert.NoError(t, result.Err)

	record.Topics = nil
	assert.Equal(t, contract.Unmatched, decoder.DecodeExchangeLog(record).Outcome)
}

func TestDecodeLogTruncatedDataIsMalformed(t *testing.T) {
	decoder := newDecoder(t)

	record := contracttest.OrderFilledLog(1000, "0xfeed", 3, maker, taker)
	record.Data = record.Data[:len(record.Data)-64]

	result := decoder.DecodeExchangeLog(record)
	assert.Equal(t, contract.Malformed, result.Outcome)
	assert.Error(t, result.Err)

	record = contracttest.OrderFilledLog(1000, "0xfeed", 3, maker, taker)
	record.Topics = record.Topics[:2]
	assert.Equal(t, contract.Malformed, decoder.DecodeExchangeLog(record).Outcome)
}

func TestCanDecode(t *testing.T) {
	set := newDecoder(t).Exchange()

	filled := contracttest.OrderFilledLog(1000, "0xfeed", 3, maker, taker)
	matched := contracttest.OrdersMatchedLog(1000, "0xfeed", 4, taker)
	assert.True(t, set.CanDecode(filled.Topic0()))
	assert.True(t, set.CanDecode("0x"+strings.ToUpper(matched.Topic0()[2:])))
	assert.False(t, set.CanDecode(""))
	assert.False(t, set.CanDecode("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"))
}

func TestDecodeCallUnknownSelectorNeverFails(t *testing.T) {
	decoder := newDecoder(t)

	payloads := [][]byte{
		nil,
		{0x01},
		{0xde, 0xad, 0xbe, 0xef},
		append([]byte{0xa9, 0x05, 0x9c, 0xbb}, make([]byte, 64)...),
	}
	for _, payload := range payloads {
		assert.Equal(t, contract.Unmatched, decoder.DecodeExchangeCall(payload).Outcome, "payload %x", payload)
		assert.Equal(t, contract.Unmatched, decoder.DecodeProxyCall(payload).Outcome, "proxy payload %x", payload)
	}
}

func TestDecodeFillOrderCall(t *testing.T) {
	decoder := newDecoder(t)

	result := decoder.DecodeExchangeCall(contracttest.FillOrderInput(maker))
	require.True(t, result.Ok(), "outcome %s: %v", result.Outcome, result.Err)
	assert.Equal(t, "fillOrder", result.Call.Name)
	assert.Equal(t, model.KindFunction, result.Call.Kind)

	p := contract.ParticipantsOf(result.Call)
	assert.Equal(t, strings.ToLower(maker.Hex()), p.Maker)
	assert.Empty(t, p.Taker)
}

func TestDecodeFillOrdersCall(t *testing.T) {
	decoder := newDecoder(t)

	result := decoder.DecodeExchangeCall(contracttest.FillOrdersInput(maker, taker))
	require.True(t, result.Ok(), "outcome %s: %v", result.Outcome, result.Err)
	assert.Equal(t, "fillOrders", result.Call.Name)
	assert.Equal(t, strings.ToLower(maker.Hex()), contract.ParticipantsOf(result.Call).Maker)
}

func TestDecodeTruncatedCallIsMalformed(t *testing.T) {
	decoder := newDecoder(t)

	input := contracttest.FillOrderInput(maker)
	result := decoder.DecodeExchangeCall(input[:40])
	assert.Equal(t, contract.Malformed, result.Outcome)
	assert.Error(t, result.Err)
}

func TestDecodeProxyCallFollowsOneLevel(t *testing.T) {
	decoder := newDecoder(t)

	wrapped := contracttest.ProxyExecuteInput(exchange, contracttest.FillOrderInput(maker))
	result := decoder.DecodeProxyCall(wrapped)
	require.True(t, result.Ok(), "outcome %s: %v", result.Outcome, result.Err)
	assert.Equal(t, "execute", result.Call.Name)
	require.NotNil(t, result.Call.Inner)
	assert.Equal(t, "fillOrder", result.Call.Inner.Name)

	// A proxy nested in a proxy is not followed past the first level.
	nested := contracttest.ProxyExecuteInput(exchange, wrapped)
	result = decoder.DecodeProxyCall(nested)
	require.True(t, result.Ok())
	assert.Nil(t, result.Call.Inner)
}

func TestDecodeProxyCallCorruptedInner(t *testing.T) {
	decoder := newDecoder(t)

	inner := contracttest.FillOrderInput(maker)
	wrapped := contracttest.ProxyExecuteInput(exchange, inner[:36])

	result := decoder.DecodeProxyCall(wrapped)
	require.True(t, result.Ok())
	assert.Nil(t, result.Call.Inner)
}

func TestIndexedAddresses(t *testing.T) {
	decoder := newDecoder(t)

	record := contracttest.OrderFilledLog(1000, "0xfeed", 3, maker, taker)
	assert.Equal(t,
		[]string{strings.ToLower(maker.Hex()), strings.ToLower(taker.Hex())},
		decoder.Exchange().IndexedAddresses(record),
	)

	record.Topics[0] = hexutil.Encode(make([]byte, 32))
	assert.Nil(t, decoder.Exchange().IndexedAddresses(record))
}

func TestDecodeInput(t *testing.T) {
	_, ok := contract.DecodeInput("0x")
	assert.False(t, ok)
	_, ok = contract.DecodeInput("0xzz")
	assert.False(t, ok)

	data, ok := contract.DecodeInput("0xdeadbeef")
	require.True(t, ok)
	assert.Len(t, data, 4)
}
