package enum

// NetworkFamily is the broad address/ledger grammar an address belongs to.
type NetworkFamily string

const (
	FamilyEVM              NetworkFamily = "evm"
	FamilyBitcoin          NetworkFamily = "bitcoin"
	FamilySolana           NetworkFamily = "solana"
	FamilyPredictionMarket NetworkFamily = "prediction_market"
	FamilyUnrecognized     NetworkFamily = "unrecognized"
)

// Category is the closed set of economic intents a transaction can be
// classified into. It is always assigned by us, never taken from a chain.
type Category string

const (
	CategoryTransfer            Category = "transfer"
	CategoryReceive             Category = "receive"
	CategorySwap                Category = "swap"
	CategoryBridge              Category = "bridge"
	CategoryLending             Category = "lending"
	CategoryStaking             Category = "staking"
	CategoryNFT                 Category = "nft"
	CategoryMint                Category = "mint"
	CategoryBurn                Category = "burn"
	CategoryApproval            Category = "approval"
	CategoryAirdrop             Category = "airdrop"
	CategoryContract            Category = "contract"
	CategoryReverted            Category = "reverted"
	CategoryUnknown             Category = "unknown"
	CategoryPredictionMarketBet Category = "prediction_market_bet"
)

// EndpointKind distinguishes cache namespaces per query type.
type EndpointKind string

const (
	EndpointPortfolio EndpointKind = "portfolio"
	EndpointActivity  EndpointKind = "activity"
)
