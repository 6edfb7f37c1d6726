package convert

import "strings"

// ResolveMarket scans the keyword table in definition order and returns the
// password of the first keyword contained in the address block. The block
// must already be in Normalize form and upper-cased. No match returns "" —
// for variants that mandate a password that is a hard rejection, decided by
// the caller.
//
// First match wins on purpose: some keywords are substrings of others, and
// table order is the documented tie-break.
func ResolveMarket(addressBlock string, table []MarketKeyword) string {
	if addressBlock == "" {
		return ""
	}
	for _, mk := range table {
		if mk.Keyword != "" && strings.Contains(addressBlock, mk.Keyword) {
			return mk.Password
		}
	}
	return ""
}
