package driver

import "bytes"

// ATRTableEntry names a card model by its exact ATR bytes, grounded on
// OpenSC's _sc_match_atr / struct sc_atr_table.
type ATRTableEntry struct {
	ID   int
	ATR  []byte
	Name string
}

// MatchATR scans table for an entry whose ATR is byte-identical to
// atr, returning its index (>= 0) and a pointer to the entry, or -1
// and nil when nothing matches. Matching is a linear scan in table
// order, so earlier, more specific entries should precede broader
// ones when both could apply.
func MatchATR(atr []byte, table []ATRTableEntry) (int, *ATRTableEntry) {
	for i := range table {
		if len(table[i].ATR) == len(atr) && bytes.Equal(table[i].ATR, atr) {
			return i, &table[i]
		}
	}
	return -1, nil
}
