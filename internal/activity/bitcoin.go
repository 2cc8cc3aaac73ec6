package activity

import (
	"math"
	"strings"

	"github.com/fystack/wallet-aggregator/internal/btcindexer"
	"github.com/fystack/wallet-aggregator/pkg/common/enum"
)

// Custodial and wrapped-asset addresses whose involvement marks a bridge
// transaction.
var bitcoinBridgeAddresses = addressSet(
	"bc1qm34lsc65zpw79lxes69zkqmk6ee3ewf0j77s3h", // WBTC bridge
	"3FZbgi29cpjq2GjdwV8eyHuJJnkLtktZc5",         // BitGo
)

type btcRule func(tx btcindexer.Transaction, user string) (enum.Category, bool)

var btcRules = []btcRule{
	btcUnconfirmedRule,
	btcOpReturnRule,
	btcBridgeRule,
	btcLightningRule,
	btcReceiveRule,
	btcSwapPatternRule,
}

// CategorizeBitcoin classifies one indexer transaction row relative to the
// querying address. These are acknowledged best-effort heuristics over
// script shapes and OP_RETURN payloads, not protocol-exact decoders.
func CategorizeBitcoin(tx btcindexer.Transaction, userAddress string) enum.Category {
	for _, rule := range btcRules {
		if category, ok := rule(tx, userAddress); ok {
			return category
		}
	}
	// Plain value movement is the overwhelmingly common case.
	return enum.CategoryTransfer
}

func btcUnconfirmedRule(tx btcindexer.Transaction, _ string) (enum.Category, bool) {
	if !tx.Status.Confirmed && tx.Status.BlockHeight == 0 {
		return enum.CategoryUnknown, true
	}
	return "", false
}

// btcOpReturnRule reads OP_RETURN payload shape: a Runes marker (OP_RETURN
// OP_13) means minting, long payloads look like Ordinals inscriptions,
// mid-sized ones like BRC-20 transfers, anything else is a generic data
// inscription.
func btcOpReturnRule(tx btcindexer.Transaction, _ string) (enum.Category, bool) {
	var opReturn string
	found := false
	for _, out := range tx.Vout {
		if out.ScriptPubKeyType == "op_return" || strings.HasPrefix(out.ScriptPubKey, "6a") {
			found = true
			if out.ScriptPubKeyType == "op_return" {
				opReturn = out.ScriptPubKey
				break
			}
		}
	}
	if !found {
		return "", false
	}

	switch {
	case strings.Contains(opReturn, "6a5d"):
		return enum.CategoryMint, true
	case len(opReturn) > 100:
		return enum.CategoryNFT, true
	case len(opReturn) > 20 && len(opReturn) < 100:
		return enum.CategoryTransfer, true
	default:
		return enum.CategoryContract, true
	}
}

func btcBridgeRule(tx btcindexer.Transaction, _ string) (enum.Category, bool) {
	for _, out := range tx.Vout {
		if _, ok := bitcoinBridgeAddresses[strings.ToLower(out.ScriptPubKeyAddress)]; ok && out.ScriptPubKeyAddress != "" {
			return enum.CategoryBridge, true
		}
	}
	for _, in := range tx.Vin {
		if in.Prevout == nil {
			continue
		}
		if _, ok := bitcoinBridgeAddresses[strings.ToLower(in.Prevout.ScriptPubKeyAddress)]; ok && in.Prevout.ScriptPubKeyAddress != "" {
			return enum.CategoryBridge, true
		}
	}
	return "", false
}

// P2WSH outputs are read as Lightning channel operations.
func btcLightningRule(tx btcindexer.Transaction, _ string) (enum.Category, bool) {
	for _, out := range tx.Vout {
		if out.ScriptPubKeyType == "v0_p2wsh" {
			return enum.CategoryContract, true
		}
	}
	return "", false
}

func btcReceiveRule(tx btcindexer.Transaction, user string) (enum.Category, bool) {
	receiving := false
	for _, out := range tx.Vout {
		if out.ScriptPubKeyAddress == user {
			receiving = true
			break
		}
	}
	sending := false
	for _, in := range tx.Vin {
		if in.Prevout != nil && in.Prevout.ScriptPubKeyAddress == user {
			sending = true
			break
		}
	}
	if receiving && !sending {
		return enum.CategoryReceive, true
	}
	return "", false
}

// btcSwapPatternRule flags multi-input multi-output transactions with
// change-like output pairs and script-hash outputs as probable atomic swaps.
func btcSwapPatternRule(tx btcindexer.Transaction, _ string) (enum.Category, bool) {
	if len(tx.Vin) < 2 || len(tx.Vout) < 2 {
		return "", false
	}

	hasScriptHash := false
	for _, out := range tx.Vout {
		switch out.ScriptPubKeyType {
		case "multisig", "v0_p2wsh", "p2sh":
			hasScriptHash = true
		}
	}
	if !hasScriptHash {
		return "", false
	}

	values := make([]float64, 0, len(tx.Vout))
	for _, out := range tx.Vout {
		if out.Value > 0 {
			values = append(values, float64(out.Value))
		}
	}
	for i, v := range values {
		for _, v2 := range values[i+1:] {
			if math.Abs(v-v2)/v < 0.1 {
				return enum.CategorySwap, true
			}
		}
	}
	return "", false
}
