package contract

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const orderComponentsJSON = `[
        {"internalType": "uint256", "name": "salt", "type": "uint256"},
        {"internalType": "address", "name": "maker", "type": "address"},
        {"internalType": "address", "name": "signer", "type": "address"},
        {"internalType": "address", "name": "taker", "type": "address"},
        {"internalType": "uint256", "name": "tokenId", "type": "uint256"},
        {"internalType": "uint256", "name": "makerAmount", "type": "uint256"},
        {"internalType": "uint256", "name": "takerAmount", "type": "uint256"},
        {"internalType": "uint256", "name": "expiration", "type": "uint256"},
        {"internalType": "uint256", "name": "nonce", "type": "uint256"},
        {"internalType": "uint256", "name": "feeRateBps", "type": "uint256"},
        {"internalType": "enum Side", "name": "side", "type": "uint8"},
        {"internalType": "enum SignatureType", "name": "signatureType", "type": "uint8"},
        {"internalType": "bytes", "name": "signature", "type": "bytes"}
      ]`

// exchangeABIJSON covers the CTF exchange entry points and events we alert on.
var exchangeABIJSON = `[
  {
    "inputs": [
      {"components": ` + orderComponentsJSON + `, "internalType": "struct Order", "name": "order", "type": "tuple"},
      {"internalType": "uint256", "name": "fillAmount", "type": "uint256"}
    ],
    "name": "fillOrder",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [
      {"components": ` + orderComponentsJSON + `, "internalType": "struct Order[]", "name": "orders", "type": "tuple[]"},
      {"internalType": "uint256[]", "name": "fillAmounts", "type": "uint256[]"}
    ],
    "name": "fillOrders",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [
      {"components": ` + orderComponentsJSON + `, "internalType": "struct Order", "name": "takerOrder", "type": "tuple"},
      {"components": ` + orderComponentsJSON + `, "internalType": "struct Order[]", "name": "makerOrders", "type": "tuple[]"},
      {"internalType": "uint256", "name": "takerFillAmount", "type": "uint256"},
      {"internalType": "uint256[]", "name": "makerFillAmounts", "type": "uint256[]"}
    ],
    "name": "matchOrders",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "bytes32", "name": "orderHash", "type": "bytes32"},
      {"indexed": true, "internalType": "address", "name": "maker", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "taker", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "makerAssetId", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "takerAssetId", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "makerAmountFilled", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "takerAmountFilled", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "fee", "type": "uint256"}
    ],
    "name": "OrderFilled",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "bytes32", "name": "takerOrderHash", "type": "bytes32"},
      {"indexed": true, "internalType": "address", "name": "takerOrderMaker", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "makerAssetId", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "takerAssetId", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "makerAmountFilled", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "takerAmountFilled", "type": "uint256"}
    ],
    "name": "OrdersMatched",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "receiver", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "tokenId", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "amount", "type": "uint256"}
    ],
    "name": "FeeCharged",
    "type": "event"
  }
]`

// proxyABIJSON covers generic "execute with embedded calldata" wrappers.
const proxyABIJSON = `[
  {
    "inputs": [
      {"internalType": "address", "name": "to", "type": "address"},
      {"internalType": "uint256", "name": "value", "type": "uint256"},
      {"internalType": "bytes", "name": "data", "type": "bytes"}
    ],
    "name": "execute",
    "outputs": [{"internalType": "bytes", "name": "", "type": "bytes"}],
    "stateMutability": "payable",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "address", "name": "to", "type": "address"},
      {"internalType": "uint256", "name": "value", "type": "uint256"},
      {"internalType": "bytes", "name": "data", "type": "bytes"},
      {"internalType": "enum Enum.Operation", "name": "operation", "type": "uint8"},
      {"internalType": "uint256", "name": "safeTxGas", "type": "uint256"},
      {"internalType": "uint256", "name": "baseGas", "type": "uint256"},
      {"internalType": "uint256", "name": "gasPrice", "type": "uint256"},
      {"internalType": "address", "name": "gasToken", "type": "address"},
      {"internalType": "address payable", "name": "refundReceiver", "type": "address"},
      {"internalType": "bytes", "name": "signatures", "type": "bytes"}
    ],
    "name": "execTransaction",
    "outputs": [{"internalType": "bool", "name": "success", "type": "bool"}],
    "stateMutability": "payable",
    "type": "function"
  }
]`

var (
	exchangeABI     abi.ABI
	exchangeABIOnce sync.Once
	exchangeABIErr  error
	proxyABI        abi.ABI
	proxyABIOnce    sync.Once
	proxyABIErr     error
)

// ExchangeABI returns the parsed CTF exchange ABI.
func ExchangeABI() (abi.ABI, error) {
	exchangeABIOnce.Do(func() {
		exchangeABI, exchangeABIErr = abi.JSON(strings.NewReader(exchangeABIJSON))
	})
	return exchangeABI, exchangeABIErr
}

// ProxyABI returns the parsed proxy wrapper ABI.
func ProxyABI() (abi.ABI, error) {
	proxyABIOnce.Do(func() {
		proxyABI, proxyABIErr = abi.JSON(strings.NewReader(proxyABIJSON))
	})
	return proxyABI, proxyABIErr
}
