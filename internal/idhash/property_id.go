package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// directionWords maps whole-word direction names to their abbreviations.
// Compound directions are listed first so "northeast" does not collapse to "ne ast".
var directionWords = [][2]string{
	{"northeast", "ne"},
	{"northwest", "nw"},
	{"southeast", "se"},
	{"southwest", "sw"},
	{"north", "n"},
	{"south", "s"},
	{"east", "e"},
	{"west", "w"},
}

// streetTypeWords maps whole-word street-type names to their abbreviations.
var streetTypeWords = [][2]string{
	{"street", "st"},
	{"avenue", "ave"},
	{"boulevard", "blvd"},
	{"drive", "dr"},
	{"lane", "ln"},
	{"road", "rd"},
	{"court", "ct"},
	{"place", "pl"},
	{"circle", "cir"},
	{"terrace", "ter"},
	{"highway", "hwy"},
	{"parkway", "pkwy"},
}

var (
	punctRe      = regexp.MustCompile(`[.,#]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// NormalizeAddress produces the canonical form of an address for identity
// matching: lowercased, direction and street-type words abbreviated,
// punctuation stripped, whitespace collapsed, with normalized city and state
// tokens appended when present.
//
// Unit and apartment suffixes are intentionally NOT stripped here. Sources
// that include unit markers inconsistently can therefore resolve the same
// physical address to different ids; that is an accepted data-quality risk of
// exact-after-normalization matching, not something this function papers over.
func NormalizeAddress(address, city, state string) string {
	addr := strings.ToLower(strings.TrimSpace(address))

	// Punctuation goes first so "Avenue," still matches the whole-word table.
	addr = punctRe.ReplaceAllString(addr, "")

	addr = replaceWholeWords(addr, directionWords)
	addr = replaceWholeWords(addr, streetTypeWords)

	addr = whitespaceRe.ReplaceAllString(addr, " ")
	addr = strings.TrimSpace(addr)

	if c := strings.ToLower(strings.TrimSpace(city)); c != "" {
		addr += " " + c
	}
	if s := strings.ToLower(strings.TrimSpace(state)); s != "" {
		addr += " " + s
	}

	return strings.TrimSpace(addr)
}

// replaceWholeWords applies word-boundary replacements in table order.
func replaceWholeWords(s string, table [][2]string) string {
	words := strings.Fields(s)
	for i, w := range words {
		for _, pair := range table {
			if w == pair[0] {
				words[i] = pair[1]
				break
			}
		}
	}
	return strings.Join(words, " ")
}

// ComputePropertyID derives the stable content-addressed property id.
// Formula: first 16 hex characters of SHA256(normalized address [+ " " + zip]).
// Identical normalized input always yields the identical id. The resolver
// never fails: an empty address still hashes to a (degenerate) id so a
// malformed record cannot abort ingestion.
func ComputePropertyID(address, city, state, zip string) string {
	canonical := NormalizeAddress(address, city, state)
	if zip = strings.TrimSpace(zip); zip != "" {
		canonical += " " + zip
	}

	hash := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(hash[:])[:16]
}
