package contract

import (
	"github.com/ethereum/go-ethereum/common/hexutil"

	"ctfwatch/internal/model"
)

// Decoder resolves exchange calls, exchange events and proxy-wrapped exchange calls.
type Decoder struct {
	exchange *SignatureSet
	proxy    *SignatureSet
}

// NewDecoder builds a decoder over the exchange and proxy signature sets.
func NewDecoder() (*Decoder, error) {
	exchange, err := NewExchangeSet()
	if err != nil {
		return nil, err
	}
	proxy, err := NewProxySet()
	if err != nil {
		return nil, err
	}
	return &Decoder{exchange: exchange, proxy: proxy}, nil
}

// Exchange returns the exchange signature set.
func (d *Decoder) Exchange() *SignatureSet {
	return d.exchange
}

// DecodeExchangeLog decodes a log emitted by the exchange.
func (d *Decoder) DecodeExchangeLog(log model.LogRecord) Result {
	return d.exchange.DecodeLog(log)
}

// DecodeExchangeCall decodes calldata sent directly to the exchange.
func (d *Decoder) DecodeExchangeCall(payload []byte) Result {
	return d.exchange.DecodeCall(payload)
}

// DecodeProxyCall decodes a proxy wrapper and re-submits its embedded payload
// to the exchange set. Only one level of indirection is followed: the inner
// payload is never tried against the proxy set again.
func (d *Decoder) DecodeProxyCall(payload []byte) Result {
	outer := d.proxy.DecodeCall(payload)
	if !outer.Ok() {
		return outer
	}

	embedded, ok := outer.Call.Arg("data")
	if !ok {
		return outer
	}
	data, ok := embedded.([]byte)
	if !ok || len(data) == 0 {
		return outer
	}

	if inner := d.exchange.DecodeCall(data); inner.Ok() {
		outer.Call.Inner = inner.Call
	}
	return outer
}

// DecodeInput decodes hex calldata. Empty or invalid input reports false.
func DecodeInput(input string) ([]byte, bool) {
	if input == "" || input == "0x" {
		return nil, false
	}
	data, err := hexutil.Decode(input)
	if err != nil {
		return nil, false
	}
	return data, true
}
