package blockfacts

import (
	"regexp"
	"strings"
	"sync"
)

// DefaultVendors is the lexicon of vendor names recognized in a combined
// "vendor model" string.
//nolint:gochecknoglobals
var DefaultVendors = []string{"HITACHI", "INTEL", "SAMSUNG", "SEAGATE", "TOSHIBA", "VBOX", "WDC"}

//nolint:gochecknoglobals
var (
	lexiconMu sync.RWMutex
	lexicon   = newLexicon(DefaultVendors)
)

var (
	leadingToken  = regexp.MustCompile(`^(\S+)\s+(.*)$`)
	trailingToken = regexp.MustCompile(`^(.*\S)\s+(\S+)$`)
)

func newLexicon(vendors []string) map[string]bool {
	known := map[string]bool{}
	for _, v := range vendors {
		known[strings.ToUpper(strings.TrimSpace(v))] = true
	}

	return known
}

// AddVendors extends the lexicon used by SplitVendor.
func AddVendors(vendors ...string) {
	lexiconMu.Lock()
	defer lexiconMu.Unlock()

	for _, v := range vendors {
		if v = strings.TrimSpace(v); v != "" {
			lexicon[strings.ToUpper(v)] = true
		}
	}
}

func isKnownVendor(token string) bool {
	lexiconMu.RLock()
	defer lexiconMu.RUnlock()

	return lexicon[strings.ToUpper(token)]
}

// SplitVendor splits a combined descriptor like "SEAGATE ST1000DM003" into
// vendor and model. The leading token wins over the trailing one. If neither
// end is a known vendor, vendor is empty and model is s unchanged.
//
//	SplitVendor("WDC WD10EZEX-00BN5A0") == ("WDC", "WD10EZEX-00BN5A0")
//	SplitVendor("ST1000 Seagate") == ("SEAGATE", "ST1000")
func SplitVendor(s string) (vendor, model string) {
	if toks := leadingToken.FindStringSubmatch(s); toks != nil && isKnownVendor(toks[1]) {
		return strings.ToUpper(toks[1]), toks[2]
	}

	if toks := trailingToken.FindStringSubmatch(s); toks != nil && isKnownVendor(toks[2]) {
		return strings.ToUpper(toks[2]), toks[1]
	}

	return "", s
}
