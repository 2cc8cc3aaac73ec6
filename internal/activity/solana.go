package activity

import (
	"strings"

	"github.com/fystack/wallet-aggregator/internal/rpc"
	"github.com/fystack/wallet-aggregator/pkg/common/enum"
)

// memoKeywordGroup maps memo substrings to a category; groups are checked in
// order, first hit wins.
type memoKeywordGroup struct {
	category enum.Category
	keywords []string
}

var solanaMemoGroups = []memoKeywordGroup{
	{enum.CategorySwap, []string{"swap"}},
	{enum.CategoryNFT, []string{"nft"}},
	{enum.CategoryStaking, []string{"stake", "staking"}},
	{enum.CategoryLending, []string{"lend", "borrow"}},
	{enum.CategoryBridge, []string{"bridge"}},
	{enum.CategoryAirdrop, []string{"claim", "airdrop"}},
}

// CategorizeSolana classifies one signature row. Without full transaction
// decoding the only signals are the error flag and the memo string; everything
// else defaults to transfer, the dominant case.
func CategorizeSolana(sig rpc.SolanaSignature) enum.Category {
	if len(sig.Err) > 0 && string(sig.Err) != "null" {
		return enum.CategoryReverted
	}

	if sig.Memo != "" {
		memo := strings.ToLower(sig.Memo)
		for _, group := range solanaMemoGroups {
			for _, keyword := range group.keywords {
				if strings.Contains(memo, keyword) {
					return group.category
				}
			}
		}
	}
	return enum.CategoryTransfer
}
