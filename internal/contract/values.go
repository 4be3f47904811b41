package contract

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"ctfwatch/internal/model"
)

// Order mirrors the CTF exchange order struct.
type Order struct {
	Salt          *big.Int
	Maker         common.Address
	Signer        common.Address
	Taker         common.Address
	TokenId       *big.Int
	MakerAmount   *big.Int
	TakerAmount   *big.Int
	Expiration    *big.Int
	Nonce         *big.Int
	FeeRateBps    *big.Int
	Side          uint8
	SignatureType uint8
	Signature     []byte
}

// Participants are the maker and taker addresses of a decoded item, lower-case.
// Empty strings mean the side is not known.
type Participants struct {
	Maker string
	Taker string
}

// ParticipantsOf extracts maker/taker from a decoded exchange event or call.
func ParticipantsOf(call *model.DecodedCall) Participants {
	if call == nil {
		return Participants{}
	}

	switch call.Name {
	case "OrderFilled":
		return Participants{
			Maker: namedAddress(call, "maker"),
			Taker: namedAddress(call, "taker"),
		}
	case "fillOrder":
		if order, ok := namedOrder(call, "order"); ok {
			return Participants{Maker: lowerHex(order.Maker), Taker: nonZeroHex(order.Taker)}
		}
	case "fillOrders":
		if orders, ok := namedOrders(call, "orders"); ok && len(orders) > 0 {
			return Participants{Maker: lowerHex(orders[0].Maker), Taker: nonZeroHex(orders[0].Taker)}
		}
	case "matchOrders":
		p := Participants{}
		if taker, ok := namedOrder(call, "takerOrder"); ok {
			p.Taker = lowerHex(taker.Maker)
		}
		if makers, ok := namedOrders(call, "makerOrders"); ok && len(makers) > 0 {
			p.Maker = lowerHex(makers[0].Maker)
		}
		return p
	}
	return Participants{}
}

func namedAddress(call *model.DecodedCall, name string) string {
	value, ok := call.Arg(name)
	if !ok {
		return ""
	}
	addr, err := asAddress(value)
	if err != nil {
		return ""
	}
	return lowerHex(addr)
}

func namedOrder(call *model.DecodedCall, name string) (Order, bool) {
	value, ok := call.Arg(name)
	if !ok {
		return Order{}, false
	}
	order, err := asOrder(value)
	if err != nil {
		return Order{}, false
	}
	return order, true
}

func namedOrders(call *model.DecodedCall, name string) ([]Order, bool) {
	value, ok := call.Arg(name)
	if !ok {
		return nil, false
	}
	orders, err := asOrders(value)
	if err != nil {
		return nil, false
	}
	return orders, true
}

func lowerHex(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}

func nonZeroHex(addr common.Address) string {
	if addr == (common.Address{}) {
		return ""
	}
	return lowerHex(addr)
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asOrder(value interface{}) (order Order, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("convert order: %v", r)
		}
	}()
	converted, ok := abi.ConvertType(value, new(Order)).(*Order)
	if !ok {
		return Order{}, fmt.Errorf("unsupported order type %T", value)
	}
	return *converted, nil
}

func asOrders(value interface{}) (orders []Order, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("convert orders: %v", r)
		}
	}()
	converted, ok := abi.ConvertType(value, new([]Order)).(*[]Order)
	if !ok {
		return nil, fmt.Errorf("unsupported orders type %T", value)
	}
	return *converted, nil
}
