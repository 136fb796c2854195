package extraction

import "strings"

// SanitizeHardwareAmbiguities rewrites storage "M.2" tokens so they cannot
// be mistaken for Apple M2 processors. "SSD M.2" becomes "SSD_NVME" and
// "M.2 SSD" becomes "NVME_SSD", removing the bare M2 token entirely.
func SanitizeHardwareAmbiguities(text string) string {
	text = reStorageThenM2.ReplaceAllString(text, "${1}_NVME")
	text = reM2ThenStorage.ReplaceAllString(text, "NVME_${1}")
	return text
}

// TruncateSpamBlock cuts a description at the first line that looks like a
// keyword-stuffing block (many unrelated hardware brands on one line).
// Everything before the block is kept verbatim.
func TruncateSpamBlock(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0:0]

	for _, line := range lines {
		lower := strings.ToLower(line)
		hits := 0
		for _, ind := range spamIndicators {
			if strings.Contains(lower, ind) {
				hits++
			}
		}
		if hits > spamHitThreshold {
			break
		}
		kept = append(kept, line)
	}

	return strings.Join(kept, "\n")
}

// truncateRunes bounds the analyzed description prefix without splitting a
// multi-byte rune.
func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
