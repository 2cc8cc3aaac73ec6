package chain

import (
	"regexp"

	"github.com/fystack/wallet-aggregator/pkg/common/enum"
)

// Address-shape grammars. These are textual heuristics, not checksum
// validation; see Detect for the ordering contract.
var (
	evmAddressRe     = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	bitcoinAddressRe = regexp.MustCompile(`^(1|3|bc1)[a-zA-Z0-9]{25,62}$`)
	solanaAddressRe  = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)
)

// Detect classifies an address string into a network family from its shape
// alone. Rules are evaluated in fixed priority order and the first match
// wins: the grammars are not disjoint (a base58 string starting with "1" or
// "3" can satisfy both the Bitcoin and Solana rules), so Bitcoin is checked
// before Solana. That resolves the ambiguity deterministically, not
// necessarily correctly; it is a known limitation of shape-only detection.
func Detect(address string) enum.NetworkFamily {
	switch {
	case evmAddressRe.MatchString(address):
		return enum.FamilyEVM
	case bitcoinAddressRe.MatchString(address):
		return enum.FamilyBitcoin
	case solanaAddressRe.MatchString(address):
		return enum.FamilySolana
	default:
		return enum.FamilyUnrecognized
	}
}
