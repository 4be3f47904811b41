package watcher

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctfwatch/internal/alert"
	"ctfwatch/internal/contract"
	"ctfwatch/internal/contract/contracttest"
	"ctfwatch/internal/correlate"
	"ctfwatch/internal/model"
	"ctfwatch/internal/registry"
	"ctfwatch/internal/status"
)

var (
	target = common.HexToAddress("0xabc0000000000000000000000000000000000123")
	other  = common.HexToAddress("0x000000000000000000000000000000000000dead")
)

type fakeSubscription struct {
	errCh chan error
	once  sync.Once
}

func (s *fakeSubscription) Err() <-chan error {
	return s.errCh
}

func (s *fakeSubscription) Unsubscribe() {
	s.once.Do(func() { close(s.errCh) })
}

type fakeStream struct {
	mu        sync.Mutex
	logs      map[uint64][]model.LogRecord
	txs       map[uint64][]model.Transaction
	fail      map[uint64]error
	heads     []uint64
	subErr    error
	subscribe error
	// processed receives one value per finished block before the next head is sent.
	processed chan uint64
	fetched   []uint64
}

func newFakeStream() *fakeStream {
	return &fakeStream{
		logs: make(map[uint64][]model.LogRecord),
		txs:  make(map[uint64][]model.Transaction),
		fail: make(map[uint64]error),
	}
}

func (f *fakeStream) LogsInBlock(_ context.Context, block uint64, _ common.Address) ([]model.LogRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, block)
	if err := f.fail[block]; err != nil {
		return nil, err
	}
	return f.logs[block], nil
}

func (f *fakeStream) BlockTransactions(_ context.Context, block uint64) ([]model.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, block)
	if err := f.fail[block]; err != nil {
		return nil, err
	}
	return f.txs[block], nil
}

func (f *fakeStream) SubscribeBlocks(_ context.Context, blocks chan<- uint64) (ethereum.Subscription, error) {
	if f.subscribe != nil {
		return nil, f.subscribe
	}
	sub := &fakeSubscription{errCh: make(chan error, 1)}
	go func() {
		for _, head := range f.heads {
			blocks <- head
			if f.processed != nil {
				<-f.processed
			}
		}
		if f.subErr != nil {
			sub.errCh <- f.subErr
		}
	}()
	return sub, nil
}

type sentMessage struct {
	chatID string
	text   string
}

type recordingSink struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (s *recordingSink) Send(_ context.Context, chatID string, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func (s *recordingSink) messages() []sentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentMessage(nil), s.sent...)
}

// signallingStrategy reports each scanned block back to the fake stream.
type signallingStrategy struct {
	Strategy
	processed chan uint64
}

func (s signallingStrategy) Scan(ctx context.Context, block uint64) ([]model.AlertRecord, error) {
	defer func() { s.processed <- block }()
	return s.Strategy.Scan(ctx, block)
}

type harness struct {
	stream *fakeStream
	sink   *recordingSink
	state  *status.State
	engine *correlate.Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	reg, err := registry.New(contracttest.ExchangeAddress, []string{target.Hex()})
	require.NoError(t, err)
	decoder, err := contract.NewDecoder()
	require.NoError(t, err)
	return &harness{
		stream: newFakeStream(),
		sink:   &recordingSink{},
		state:  status.NewState(time.Now()),
		engine: correlate.NewEngine(reg, decoder),
	}
}

func (h *harness) processor(t *testing.T, mode model.SourceMode) *Processor {
	t.Helper()
	strategy, err := NewStrategy(mode, h.stream, h.engine, nil, nil)
	require.NoError(t, err)
	dispatcher := alert.NewDispatcher(alert.Config{
		BotName: "Polymarket Watcher",
		ChatID:  "42",
		Sink:    h.sink,
	})
	return NewProcessor(strategy, dispatcher, h.state, nil, nil)
}

func TestLogModeAlertsOnMakerFill(t *testing.T) {
	h := newHarness(t)
	h.stream.logs[1000] = []model.LogRecord{
		contracttest.OrderFilledLog(1000, "0xfeed", 0, target, other),
	}

	h.processor(t, model.SourceLogs).ProcessBlock(context.Background(), 1000)

	msgs := h.sink.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "42", msgs[0].chatID)
	assert.Contains(t, msgs[0].text, "TRADE DETECTED (Event)")
	assert.Contains(t, msgs[0].text, "Action: <b>Order Filled</b>")
	assert.Contains(t, msgs[0].text, "Role: Maker (Passive)")
	assert.Contains(t, msgs[0].text, "Wallet: <code>0xabc0...0123</code>")
	assert.Contains(t, msgs[0].text, "Block: 1000")
	assert.Contains(t, msgs[0].text, "https://polygonscan.com/tx/0xfeed")
	assert.Equal(t, uint64(1000), h.state.LastBlock())
}

func TestLogModeIgnoresUnrelatedAndRemovedLogs(t *testing.T) {
	h := newHarness(t)
	removed := contracttest.OrderFilledLog(1000, "0xdead", 1, target, other)
	removed.Removed = true
	h.stream.logs[1000] = []model.LogRecord{
		contracttest.OrderFilledLog(1000, "0xbeef", 0, other, other),
		removed,
	}

	h.processor(t, model.SourceLogs).ProcessBlock(context.Background(), 1000)

	assert.Empty(t, h.sink.messages())
	assert.Equal(t, uint64(1000), h.state.LastBlock())
}

func TestLogModeDuplicateLogAlertsOnce(t *testing.T) {
	h := newHarness(t)
	record := contracttest.OrderFilledLog(1000, "0xfeed", 0, other, target)
	h.stream.logs[1000] = []model.LogRecord{record, record}

	p := h.processor(t, model.SourceLogs)
	p.ProcessBlock(context.Background(), 1000)
	p.ProcessBlock(context.Background(), 1000)

	msgs := h.sink.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].text, "Role: Taker (Active)")
}

func TestLogModeMalformedLogDoesNotSkipRestOfBlock(t *testing.T) {
	h := newHarness(t)
	malformed := contracttest.OrderFilledLog(1000, "0xbad", 0, target, other)
	malformed.Data = "0x"
	h.stream.logs[1000] = []model.LogRecord{
		malformed,
		contracttest.OrderFilledLog(1000, "0xfeed", 1, other, target),
	}

	h.processor(t, model.SourceLogs).ProcessBlock(context.Background(), 1000)

	msgs := h.sink.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].text, "https://polygonscan.com/tx/0xfeed")
	assert.Contains(t, msgs[0].text, "Role: Taker (Active)")
	assert.Equal(t, uint64(1000), h.state.LastBlock())
}

func TestLogModeMatchedOrdersAlertOncePerFill(t *testing.T) {
	h := newHarness(t)
	h.stream.logs[1000] = []model.LogRecord{
		contracttest.OrderFilledLog(1000, "0xfeed", 0, other, target),
		contracttest.OrdersMatchedLog(1000, "0xfeed", 1, target),
	}

	h.processor(t, model.SourceLogs).ProcessBlock(context.Background(), 1000)

	msgs := h.sink.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].text, "Action: <b>Order Filled</b>")
}

func TestTransactionModeAlertsOnDirectFill(t *testing.T) {
	h := newHarness(t)
	h.stream.txs[2000] = []model.Transaction{
		{
			BlockNumber: 2000,
			Hash:        "0xabcd",
			From:        strings.ToLower(other.Hex()),
			To:          strings.ToLower(other.Hex()),
			Input:       "0x",
		},
		{
			BlockNumber: 2000,
			Hash:        "0xfeed",
			From:        strings.ToLower(target.Hex()),
			To:          contracttest.ExchangeAddress,
			Input:       hexutil.Encode(contracttest.FillOrderInput(target)),
		},
	}

	h.processor(t, model.SourceTransactions).ProcessBlock(context.Background(), 2000)

	msgs := h.sink.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].text, "TRADE DETECTED (Tx)")
	assert.Contains(t, msgs[0].text, "Action: <b>Buy/Sell Order</b>")
	assert.Contains(t, msgs[0].text, "Role: Maker (Passive)")
	assert.Contains(t, msgs[0].text, "Block: 2000")
	assert.Equal(t, uint64(2000), h.state.LastBlock())
}

func TestFetchErrorStillAdvances(t *testing.T) {
	h := newHarness(t)
	h.stream.logs[5] = []model.LogRecord{contracttest.OrderFilledLog(5, "0x05", 0, target, other)}
	h.stream.fail[6] = errors.New("rpc timeout")
	h.stream.logs[7] = []model.LogRecord{contracttest.OrderFilledLog(7, "0x07", 0, target, other)}

	p := h.processor(t, model.SourceLogs)
	for _, block := range []uint64{5, 6, 7} {
		p.ProcessBlock(context.Background(), block)
	}

	assert.Equal(t, uint64(7), h.state.LastBlock())
	msgs := h.sink.messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].text, "Block: 5")
	assert.Contains(t, msgs[1].text, "Block: 7")
}

func TestOutOfOrderBlocksNeverRegress(t *testing.T) {
	h := newHarness(t)
	p := h.processor(t, model.SourceLogs)

	p.ProcessBlock(context.Background(), 7)
	p.ProcessBlock(context.Background(), 5)

	assert.Equal(t, uint64(7), h.state.LastBlock())
}

func TestStrategyScanWrapsFetchError(t *testing.T) {
	h := newHarness(t)
	h.stream.fail[9] = errors.New("boom")
	strategy := NewLogScanStrategy(h.stream, h.engine, nil, nil)

	_, err := strategy.Scan(context.Background(), 9)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFetch))
	assert.Equal(t, "fetch", errorKind(err))
}

func TestNewStrategyRejectsUnknownMode(t *testing.T) {
	h := newHarness(t)
	_, err := NewStrategy(model.SourceMode("mempool"), h.stream, h.engine, nil, nil)
	assert.Error(t, err)
}

func TestRunProcessesHeadsUntilStreamFails(t *testing.T) {
	h := newHarness(t)
	h.stream.heads = []uint64{5, 6, 7}
	h.stream.fail[6] = errors.New("rpc timeout")
	h.stream.logs[7] = []model.LogRecord{contracttest.OrderFilledLog(7, "0x07", 0, target, other)}
	h.stream.subErr = errors.New("websocket closed")
	h.stream.processed = make(chan uint64)

	p := h.processor(t, model.SourceLogs)
	p.strategy = signallingStrategy{Strategy: p.strategy, processed: h.stream.processed}

	err := New(h.stream, p, nil).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStreamConnection))

	assert.Equal(t, uint64(7), h.state.LastBlock())
	assert.Len(t, h.sink.messages(), 1)
}

func TestRunSubscribeFailure(t *testing.T) {
	h := newHarness(t)
	h.stream.subscribe = errors.New("dial failed")

	err := New(h.stream, h.processor(t, model.SourceLogs), nil).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStreamConnection))
}

func TestRunStopsOnContextCancel(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(h.stream, h.processor(t, model.SourceLogs), nil).Run(ctx)
	assert.NoError(t, err)
}
