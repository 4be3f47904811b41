// Package contracttest builds exchange and proxy payloads for tests.
package contracttest

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"ctfwatch/internal/contract"
	"ctfwatch/internal/model"
)

// ExchangeAddress is the CTF exchange deployment used across tests.
const ExchangeAddress = "0x4bfb41d5b3570defd03c39a9a4d8de6bd8b8982e"

// NewOrder returns a fully populated order for maker.
func NewOrder(maker common.Address) contract.Order {
	return contract.Order{
		Salt:          big.NewInt(42),
		Maker:         maker,
		Signer:        maker,
		Taker:         common.Address{},
		TokenId:       big.NewInt(7),
		MakerAmount:   big.NewInt(1_000_000),
		TakerAmount:   big.NewInt(2_000_000),
		Expiration:    big.NewInt(0),
		Nonce:         big.NewInt(1),
		FeeRateBps:    big.NewInt(0),
		Side:          0,
		SignatureType: 1,
		Signature:     []byte{0x01, 0x02, 0x03},
	}
}

// FillOrderInput packs fillOrder calldata for an order made by maker.
func FillOrderInput(maker common.Address) []byte {
	parsed := mustExchangeABI()
	data, err := parsed.Pack("fillOrder", NewOrder(maker), big.NewInt(500_000))
	if err != nil {
		panic(err)
	}
	return data
}

// FillOrdersInput packs fillOrders calldata with one order per maker.
func FillOrdersInput(makers ...common.Address) []byte {
	parsed := mustExchangeABI()
	orders := make([]contract.Order, 0, len(makers))
	amounts := make([]*big.Int, 0, len(makers))
	for _, maker := range makers {
		orders = append(orders, NewOrder(maker))
		amounts = append(amounts, big.NewInt(100))
	}
	data, err := parsed.Pack("fillOrders", orders, amounts)
	if err != nil {
		panic(err)
	}
	return data
}

// ProxyExecuteInput wraps inner calldata in a proxy execute(to, 0, inner) call.
func ProxyExecuteInput(to common.Address, inner []byte) []byte {
	parsed, err := contract.ProxyABI()
	if err != nil {
		panic(err)
	}
	data, err := parsed.Pack("execute", to, big.NewInt(0), inner)
	if err != nil {
		panic(err)
	}
	return data
}

// OrderFilledLog builds an OrderFilled log emitted by the exchange.
func OrderFilledLog(block uint64, txHash string, logIndex uint64, maker, taker common.Address) model.LogRecord {
	parsed := mustExchangeABI()
	event := parsed.Events["OrderFilled"]
	data, err := event.Inputs.NonIndexed().Pack(
		big.NewInt(7),
		big.NewInt(0),
		big.NewInt(1_000_000),
		big.NewInt(2_000_000),
		big.NewInt(0),
	)
	if err != nil {
		panic(err)
	}

	orderHash := crypto.Keccak256Hash([]byte(txHash))
	return model.LogRecord{
		BlockNumber: block,
		BlockHash:   "0xabc",
		TxHash:      txHash,
		LogIndex:    logIndex,
		Address:     ExchangeAddress,
		Topics: []string{
			event.ID.Hex(),
			orderHash.Hex(),
			common.BytesToHash(maker.Bytes()).Hex(),
			common.BytesToHash(taker.Bytes()).Hex(),
		},
		Data: hexutil.Encode(data),
	}
}

// OrdersMatchedLog builds an OrdersMatched log for the taker order's maker.
func OrdersMatchedLog(block uint64, txHash string, logIndex uint64, takerOrderMaker common.Address) model.LogRecord {
	parsed := mustExchangeABI()
	event := parsed.Events["OrdersMatched"]
	data, err := event.Inputs.NonIndexed().Pack(
		big.NewInt(0),
		big.NewInt(7),
		big.NewInt(1_000_000),
		big.NewInt(2_000_000),
	)
	if err != nil {
		panic(err)
	}

	return model.LogRecord{
		BlockNumber: block,
		BlockHash:   "0xabc",
		TxHash:      txHash,
		LogIndex:    logIndex,
		Address:     ExchangeAddress,
		Topics: []string{
			event.ID.Hex(),
			crypto.Keccak256Hash([]byte(txHash)).Hex(),
			common.BytesToHash(takerOrderMaker.Bytes()).Hex(),
		},
		Data: hexutil.Encode(data),
	}
}

func mustExchangeABI() abi.ABI {
	parsed, err := contract.ExchangeABI()
	if err != nil {
		panic(err)
	}
	return parsed
}
