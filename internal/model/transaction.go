package model

// Transaction is a transaction taken from a block body.
// To is empty for contract creations.
type Transaction struct {
	BlockNumber uint64 `json:"block_number"`
	Hash        string `json:"hash"`
	From        string `json:"from"`
	To          string `json:"to"`
	Input       string `json:"input"`
	Value       string `json:"value"`
}
