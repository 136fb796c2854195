package extraction

import (
	"strconv"
	"strings"
	"unicode"
)

// ramContextWindow is the maximum token distance at which an anchor
// keyword can claim a "N GB" quantity.
const ramContextWindow = 4

// defaultMaxRAMGB is the largest value ever accepted as laptop RAM; real
// modules top out at 64 in this market, 128+ is storage.
const defaultMaxRAMGB = 64

type anchor int

const (
	anchorNone anchor = iota
	anchorStorage
	anchorRAM
)

type quantity struct {
	idx   int // token position
	gb    int
	claim anchor
}

// extractRAM pulls the RAM size out of lowercase text, disambiguating
// against storage sizes. Each RAM or storage keyword claims the nearest
// quantity within the window (on a distance tie the quantity before the
// keyword wins, matching "16GB RAM"); a RAM claim beats a storage claim
// on the same quantity. A storage-claimed quantity is excluded.
// With no RAM-claimed quantity anywhere, the smallest unclaimed plausible
// value is used as a conservative guess.
func extractRAM(textLower string, maxGB int) *int {
	if maxGB <= 0 || maxGB > defaultMaxRAMGB {
		maxGB = defaultMaxRAMGB
	}

	tokens := tokenize(textLower)

	var qtys []*quantity
	for i, tok := range tokens {
		if gb, ok := gbQuantity(tok); ok {
			qtys = append(qtys, &quantity{idx: i, gb: gb})
		}
	}
	if len(qtys) == 0 {
		return nil
	}

	for i, tok := range tokens {
		kind := keywordKind(tok)
		if kind == anchorNone {
			continue
		}
		if q := nearestQuantity(qtys, i); q != nil && kind > q.claim {
			q.claim = kind
		}
	}

	// First RAM-claimed plausible value wins.
	for _, q := range qtys {
		if q.claim == anchorRAM && plausibleRAMSizes[q.gb] && q.gb <= maxGB {
			gb := q.gb
			return &gb
		}
	}

	// No RAM anchor anywhere: smallest plausible unclaimed value, since
	// storage-typical sizes were already filtered out above.
	best := 0
	for _, q := range qtys {
		if q.claim != anchorNone {
			continue
		}
		if plausibleRAMSizes[q.gb] && q.gb <= maxGB && (best == 0 || q.gb < best) {
			best = q.gb
		}
	}
	if best > 0 {
		return &best
	}
	return nil
}

func keywordKind(tok string) anchor {
	if ramKeywords[tok] {
		return anchorRAM
	}
	if storageKeywords[tok] {
		return anchorStorage
	}
	return anchorNone
}

// nearestQuantity finds the quantity closest to the keyword at token
// position kw, within the context window. Quantities are ordered by
// position, so on a distance tie the preceding one wins.
func nearestQuantity(qtys []*quantity, kw int) *quantity {
	var best *quantity
	bestDist := ramContextWindow + 1

	for _, q := range qtys {
		d := q.idx - kw
		if d < 0 {
			d = -d
		}
		if d == 0 || d > ramContextWindow {
			continue
		}
		if d < bestDist {
			best = q
			bestDist = d
		}
	}
	return best
}

// gbQuantity recognizes a merged "16gb" token and returns the number.
func gbQuantity(tok string) (int, bool) {
	var unit string
	switch {
	case strings.HasSuffix(tok, "gigas"):
		unit = "gigas"
	case strings.HasSuffix(tok, "giga"):
		unit = "giga"
	case strings.HasSuffix(tok, "gb"):
		unit = "gb"
	default:
		return 0, false
	}

	num := strings.TrimSuffix(tok, unit)
	if num == "" || len(num) > 4 {
		return 0, false
	}
	gb, err := strconv.Atoi(num)
	if err != nil {
		return 0, false
	}
	return gb, true
}

// tokenize splits lowercase text into alphanumeric tokens, merging a bare
// number with a following gb/giga token so "16 gb" and "16gb" look alike.
func tokenize(text string) []string {
	raw := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		tok := raw[i]
		if isAllDigits(tok) && i+1 < len(raw) {
			switch raw[i+1] {
			case "gb", "giga", "gigas":
				tokens = append(tokens, tok+raw[i+1])
				i++
				continue
			}
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
