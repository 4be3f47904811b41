package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"ctfwatch/internal/model"
)

func buildLogRecord(log types.Log) model.LogRecord {
	topics := make([]string, 0, len(log.Topics))
	for _, topic := range log.Topics {
		topics = append(topics, topic.Hex())
	}

	return model.LogRecord{
		BlockNumber: log.BlockNumber,
		BlockHash:   log.BlockHash.Hex(),
		TxHash:      log.TxHash.Hex(),
		TxIndex:     uint64(log.TxIndex),
		LogIndex:    uint64(log.Index),
		Address:     strings.ToLower(log.Address.Hex()),
		Topics:      topics,
		Data:        hexutil.Encode(log.Data),
		Removed:     log.Removed,
	}
}

type rpcBlock struct {
	Number       *hexutil.Big     `json:"number"`
	Transactions []rpcTransaction `json:"transactions"`
}

type rpcTransaction struct {
	Hash  common.Hash     `json:"hash"`
	From  common.Address  `json:"from"`
	To    *common.Address `json:"to"`
	Input hexutil.Bytes   `json:"input"`
	Value *hexutil.Big    `json:"value"`
}

func (b rpcBlock) toModel() []model.Transaction {
	number := b.Number.ToInt().Uint64()
	out := make([]model.Transaction, 0, len(b.Transactions))
	for _, tx := range b.Transactions {
		record := model.Transaction{
			BlockNumber: number,
			Hash:        tx.Hash.Hex(),
			From:        strings.ToLower(tx.From.Hex()),
			Input:       hexutil.Encode(tx.Input),
			Value:       "0",
		}
		if tx.To != nil {
			record.To = strings.ToLower(tx.To.Hex())
		}
		if tx.Value != nil {
			record.Value = tx.Value.ToInt().String()
		}
		out = append(out, record)
	}
	return out
}
