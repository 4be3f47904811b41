package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/rpc"

	"ctfwatch/internal/model"
)

// Client wraps go-ethereum RPC and provides the block stream used by the watcher.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client
}

// NewClient creates a new chain client from the RPC URL. Subscriptions need a
// websocket (ws:// or wss://) or IPC endpoint.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// GetChainID returns the chain ID.
func (c *Client) GetChainID(ctx context.Context) (*big.Int, error) {
	return c.ethClient.ChainID(ctx)
}

// SubscribeBlocks forwards the number of every new head to blocks. The
// returned subscription fails when the underlying connection drops; it is
// not re-established.
func (c *Client) SubscribeBlocks(ctx context.Context, blocks chan<- uint64) (ethereum.Subscription, error) {
	heads := make(chan *types.Header, 16)
	sub, err := c.ethClient.SubscribeNewHead(ctx, heads)
	if err != nil {
		return nil, fmt.Errorf("subscribe new heads: %w", err)
	}

	return event.NewSubscription(func(quit <-chan struct{}) error {
		defer sub.Unsubscribe()
		for {
			select {
			case head := <-heads:
				if head == nil || head.Number == nil {
					continue
				}
				select {
				case blocks <- head.Number.Uint64():
				case <-quit:
					return nil
				}
			case err := <-sub.Err():
				return err
			case <-quit:
				return nil
			}
		}
	}), nil
}

// LogsInBlock returns the logs emitted by address within a single block.
func (c *Client) LogsInBlock(ctx context.Context, blockNumber uint64, address common.Address) ([]model.LogRecord, error) {
	number := new(big.Int).SetUint64(blockNumber)
	logs, err := c.ethClient.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: number,
		ToBlock:   number,
		Addresses: []common.Address{address},
	})
	if err != nil {
		return nil, err
	}

	records := make([]model.LogRecord, 0, len(logs))
	for _, log := range logs {
		records = append(records, buildLogRecord(log))
	}
	return records, nil
}

// BlockTransactions returns the transactions of a block. Senders come from
// the node's JSON view of the block, so transaction types go-ethereum cannot
// decode (such as Polygon state-sync entries) do not fail the whole block.
func (c *Client) BlockTransactions(ctx context.Context, blockNumber uint64) ([]model.Transaction, error) {
	var block rpcBlock
	err := c.rpcClient.CallContext(ctx, &block, "eth_getBlockByNumber", hexutil.EncodeUint64(blockNumber), true)
	if err != nil {
		return nil, err
	}
	if block.Number == nil {
		return nil, ethereum.NotFound
	}
	return block.toModel(), nil
}
