package activity

import "github.com/fystack/wallet-aggregator/pkg/common/enum"

// txWindow bounds the recent-history window for every chain.
const txWindow = 20

// Transaction is one normalized activity row. Raw carries the chain-specific
// fields that have no cross-chain equivalent.
type Transaction struct {
	ID        string         `json:"id"`
	From      string         `json:"from,omitempty"`
	To        string         `json:"to,omitempty"`
	Value     string         `json:"value,omitempty"`
	Timestamp int64          `json:"timestampUnix"`
	Category  enum.Category  `json:"category"`
	Raw       map[string]any `json:"raw,omitempty"`
}

// Activity is the normalized recent-history view for one address on one
// chain.
type Activity struct {
	Address      string        `json:"address"`
	Chain        string        `json:"chain"`
	ChainID      string        `json:"chainId,omitempty"`
	Transactions []Transaction `json:"transactions"`
}
