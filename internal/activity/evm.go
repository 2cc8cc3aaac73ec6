package activity

import (
	"strings"

	"github.com/fystack/wallet-aggregator/internal/explorer"
	"github.com/fystack/wallet-aggregator/pkg/common/enum"
)

// protocolAddressGroup ties a set of known contract addresses to the
// category any transaction sent to them gets. Groups are evaluated in order;
// an address match here wins over any call-data selector.
type protocolAddressGroup struct {
	category  enum.Category
	addresses map[string]struct{}
}

func addressSet(addrs ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(addrs))
	for _, a := range addrs {
		set[strings.ToLower(a)] = struct{}{}
	}
	return set
}

// Known protocol contracts across the supported EVM chains. Curated, not
// exhaustive; unmatched destinations fall through to selector matching.
var evmProtocolGroups = []protocolAddressGroup{
	{enum.CategorySwap, addressSet(
		"0x7a250d5630b4cf539739df2c5dacb4c659f2488d", // Uniswap V2 Router
		"0xe592427a0aece92de3edee1f18e0157c05861564", // Uniswap V3 Router
		"0xd9e1ce17f2641f24ae83637ab66a2cca9c378b9f", // SushiSwap Router
		"0x1111111254eeb25477b68fb85ed929f73a960582", // 1inch V5 Router
		"0xdef1c0ded9bec7f1a1670819833240f027b25eff", // 0x Exchange Proxy
		"0x68b3465833fb72a70ecdf485e0e4c7bd8665fc45", // Uniswap Universal Router
		"0x10ed43c718714eb63d5aa57b78b54704e256024e", // PancakeSwap Router
		"0x1b02da8cb0d097eb8d57a175b88c7d8b47997506", // SushiSwap Router (Arbitrum)
		"0xf491e7b69e4244ad4002bc14e878a34207e38c29", // SpookySwap Router
		"0x60ae616a2155ee3d9a68541ba4544862310933d4", // TraderJoe Router
		"0x1e876cce41b7b844fde09e38fa1cf00f213bfb87", // VVS Finance Router
		"0x2da10a1e27bf85cedd8ffb1abbe97e53391c0295", // SyncSwap Router
		"0x5aee474aadd6f0d9e5b96b758c5c3dd12e27aa45", // Lynex Router
		"0x13f4ea83d0bd40e75c8222255bc855a974568dd4", // Ambient Router
		"0x319b69888b0d11cec22caa5034e25fbbdc1058bc", // Agni Router
	)},
	{enum.CategoryBridge, addressSet(
		"0x2796317b0ff8538f253012862c06787adfb8ceb6", // Polygon Bridge
		"0x8484ef722627bf18ca5ae6bcf031c23e6e922b30", // Arbitrum Bridge
		"0x99c9fc46f92e8a1c0dec1b1747d010903e884be1", // Optimism Gateway
		"0xa3a7b6f88361f48403514059f1f16c8e78d60eec", // Hop Protocol Bridge
		"0x3666f603cc164936c1b87e207f36beba4ac5f18a", // Hop Protocol Bridge L2
		"0x4200000000000000000000000000000000000010", // Standard Bridge (OP stack)
		"0x40ec5b33f54e0e8a33a975908c5ba1c14e5bbbdf", // Polygon PoS Bridge
		"0x6ab5ae6822647046626e83ee6db8187151e1d5ab", // Stargate Bridge
		"0x8731d54e9d02c286767d56ac03e8037c07e01e98", // Across Protocol Bridge
		"0xa68d85df56e733a06443306a095646317b5fa633", // Synapse Bridge
		"0x3154cf16ccdb4c6d922629664174b904d80f2c35", // Base Bridge
		"0x3e40d73eb977dc6a537af587d48316fee66e9c8c", // Arbitrum Nova Bridge
	)},
	{enum.CategoryLending, addressSet(
		"0x7d2768de32b0b80b7a3454c06bdac94a69ddc7a9", // Aave V2 Pool
		"0x87870bca3f3fd6335c3f4ce8392d69350b4fa4e2", // Aave V3 Pool
		"0x794a61358d6845594f94dc1db02a252b5b4814ad", // Aave V3 Pool (L2s)
		"0x3d9819210a31b4961b30ef54be2aed79b9c9cd3b", // Compound Comptroller
		"0xc3d688b66703497daa19211eedff47f25384cdc3", // Compound V3 Comet
		"0x057835ad21a177dbdd3090bb1cae03eacf78fc6d", // Venus Protocol
	)},
	{enum.CategoryNFT, addressSet(
		"0x00000000006c3852cbef3e08e8df289169ede581", // OpenSea Seaport
		"0x7be8076f4ea4a4ad08075c2508e481d6c946d12b", // OpenSea Registry
		"0x7f268357a8c2552623316e2562d90e642bb538e5", // OpenSea Exchange
		"0x00000000000000adc04c56bf30ac9d3c0aaf14dc", // Blur Marketplace
		"0x59728544b08ab483533076417fbbb2fd0b17ce3a", // LooksRare
		"0x74312363e45dcaba76c59ec49a7aa8a65a67eed3", // X2Y2
		"0x2b2e8cda09bba9660dca5cb6233787738ad68329", // Rarible
	)},
	{enum.CategoryStaking, addressSet(
		"0xae7ab96520de3a18e5e111b5eaab095312d7fe84", // Lido stETH
		"0x7f39c581f595b53c5cb19bd0b3f8da6c935e2ca0", // Lido wstETH
		"0xac3e018457b222d93114458476f3e3416abbe38f", // Lido stMATIC
		"0x5e8422345238f34275888049021821e8e08caa1f", // Frax ETH Staking
		"0x152649ea73beab28c5b49b26eb48f7ead6d4c898", // Coinbase Wrapped Staked ETH
		"0xdfe66b14d37c77f4e9b180ceb433d1b164f0281d", // Stader Staking
		"0xb17a95e2b6d5e6b16e0bbfc28dcc5edac7f3ae16", // Rocket Pool Staking
	)},
	{enum.CategoryMint, addressSet(
		"0x60e4d786628fea6478f785a6d7e704777c86a7c6", // Mutant Ape Yacht Club
		"0xbc4ca0eda7647a8ab7c2061c2e118a18a936f13d", // Bored Ape Yacht Club
		"0x49cf6f5d44e70224e2e23fdcdd2c053f30ada28b", // CloneX
		"0x23581767a106ae21c074b2276d25e5c3e136a68b", // Moonbirds
	)},
	{enum.CategoryAirdrop, addressSet(
		"0x090d4613473dee047c3f2706764f49e0821d256e", // Optimism Airdrop
		"0x67a24ce4321ab3af51c2d0a4801c3e111d88c9d9", // Arbitrum Airdrop
		"0xfeb3e2b0b863fdc5ad3e1bc2d85e7b0813a3e172", // Blur Airdrop
		"0xd0e03e39b4f5e8a8e1f3a5a5f5f5f5f5f5f5f5f5", // Generic Merkle Distributor
	)},
}

// directional marks selectors whose category depends on whether the user is
// the sender or the recipient.
const directional = enum.Category("__directional__")

// Leading 4-byte call-data selectors of well-known ERC-20/DeFi functions.
var evmSelectors = map[string]enum.Category{
	"0xa9059cbb": directional,           // transfer(address,uint256)
	"0x23b872dd": directional,           // transferFrom(address,address,uint256)
	"0x095ea7b3": enum.CategoryApproval, // approve(address,uint256)

	"0x38ed1739": enum.CategorySwap, // swapExactTokensForTokens
	"0x7ff36ab5": enum.CategorySwap, // swapExactETHForTokens
	"0x18cbafe5": enum.CategorySwap, // swapExactTokensForETH
	"0x5c11d795": enum.CategorySwap, // swapExactTokensForTokensSupportingFeeOnTransferTokens
	"0x791ac947": enum.CategorySwap, // swapExactTokensForETHSupportingFeeOnTransferTokens

	"0xa694fc3a": enum.CategoryStaking, // stake
	"0x3ccfd60b": enum.CategoryStaking, // withdraw
	"0x3d18b912": enum.CategoryStaking, // getReward

	"0xa0712d68": enum.CategoryMint, // mint(uint256)
	"0x40c10f19": enum.CategoryMint, // mint(address,uint256)
	"0x6a627842": enum.CategoryMint, // mint(address)

	"0x42966c68": enum.CategoryBurn, // burn(uint256)
	"0x9dc29fac": enum.CategoryBurn, // burn(address,uint256)

	"0x4e71d92d": enum.CategoryAirdrop, // claim()
	"0x2e7ba6ef": enum.CategoryAirdrop, // claim(uint256,address,uint256,bytes32[])

	"0x838b2520": enum.CategoryBridge, // deposit
	"0x2e1a7d4d": enum.CategoryBridge, // withdraw(uint256)
	"0x1249c58b": enum.CategoryBridge, // mint (bridge mint)
}

// evmRule is one step of the ordered classification: first rule to claim a
// transaction wins.
type evmRule func(tx explorer.Transaction, user string) (enum.Category, bool)

var evmRules = []evmRule{
	revertedRule,
	protocolAddressRule,
	selectorRule,
	contractRule,
	nativeValueRule,
}

// CategorizeEVM classifies one explorer transaction row relative to the
// querying address. Pure and deterministic: same row, same answer.
func CategorizeEVM(tx explorer.Transaction, userAddress string) enum.Category {
	user := strings.ToLower(userAddress)
	for _, rule := range evmRules {
		if category, ok := rule(tx, user); ok {
			return category
		}
	}
	return enum.CategoryUnknown
}

func revertedRule(tx explorer.Transaction, _ string) (enum.Category, bool) {
	if tx.IsError == "1" || tx.TxReceiptStatus == "0" {
		return enum.CategoryReverted, true
	}
	return "", false
}

func protocolAddressRule(tx explorer.Transaction, _ string) (enum.Category, bool) {
	to := strings.ToLower(tx.To)
	if to == "" {
		return "", false
	}
	for _, group := range evmProtocolGroups {
		if _, ok := group.addresses[to]; ok {
			return group.category, true
		}
	}
	return "", false
}

func selectorRule(tx explorer.Transaction, user string) (enum.Category, bool) {
	if !hasCallData(tx.Input) {
		return "", false
	}
	category, ok := evmSelectors[strings.ToLower(tx.Input[:10])]
	if !ok {
		return "", false
	}
	if category == directional {
		return directionOf(tx, user), true
	}
	return category, true
}

func contractRule(tx explorer.Transaction, _ string) (enum.Category, bool) {
	if hasCallData(tx.Input) {
		return enum.CategoryContract, true
	}
	return "", false
}

func nativeValueRule(tx explorer.Transaction, user string) (enum.Category, bool) {
	if tx.Value != "" && tx.Value != "0" {
		return directionOf(tx, user), true
	}
	return "", false
}

func hasCallData(input string) bool {
	return input != "" && input != "0x" && len(input) > 10
}

func directionOf(tx explorer.Transaction, user string) enum.Category {
	if strings.ToLower(tx.To) == user && strings.ToLower(tx.From) != user {
		return enum.CategoryReceive
	}
	return enum.CategoryTransfer
}
