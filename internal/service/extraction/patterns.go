package extraction

import "regexp"

// Pattern tables for hardware extraction. Go's regexp is RE2 (linear time,
// no backtracking), and on top of that every repetition over user text is
// explicitly bounded so a pathological listing cannot inflate match cost.
//
// Families are evaluated in fixed precedence: CPU before GPU before RAM,
// and within the CPU family PC silicon before Apple silicon, so that
// ambiguous tokens resolve the same way on every run.

// CPU patterns
var (
	// Intel Core i3/i5/i7/i9, optionally with a model number
	// ("i7", "core i5", "Intel Core i7-10750H").
	reCPUIntelCore = regexp.MustCompile(`(?i)\b(?:intel\s{1,3})?(?:core\s{1,3})?-?i([3579])(?:[\s-]{1,3}(\d{4,5}[a-z]{0,2}))?\b`)

	// AMD Ryzen 3/5/7/9, optionally with a model number
	// ("ryzen 7", "Ryzen-5 5600H").
	reCPURyzen = regexp.MustCompile(`(?i)\bryzen\s{0,3}-?([3579])(?:\s{1,3}(\d{4}[a-z]{0,2}))?\b`)

	// Intel low-end and server parts.
	reCPUIntelOther = regexp.MustCompile(`(?i)\b(celeron|pentium|xeon)\b`)

	// Apple M-series with optional variant. Matched last: storage "M.2"
	// tokens are neutralized by the sanitizer before this runs, and a PC
	// CPU match above wins over a stray M-token.
	reCPUAppleM = regexp.MustCompile(`(?i)\bm([1-4])\b(?:\s{1,2}(pro|max|ultra)\b)?`)
)

// GPU patterns
var (
	// Workstation parts first so "RTX A2000" never classifies as gaming.
	reGPUQuadro = regexp.MustCompile(`(?i)\bquadro\b(?:\s{1,3}([a-z]?\d{3,4}[a-z]{0,2}))?`)
	reGPURTXA   = regexp.MustCompile(`(?i)\brtx\s{0,3}a(\d{3,4})\b`)

	// Consumer NVIDIA and AMD parts.
	reGPUGeForce = regexp.MustCompile(`(?i)\b(rtx|gtx)\s{0,3}-?(\d{3,4})\b(?:\s{0,2}(ti|super)\b)?`)
	reGPURadeon  = regexp.MustCompile(`(?i)\brx\s{0,3}-?(\d{3,4})\b(?:\s{0,2}(xt)\b)?`)
)

// RAM tokens: a bare quantity ("16gb", "16 gb", "8 gigas"). Whether the
// quantity is RAM or storage is decided by the token-window context scan
// in ram.go, not by the pattern itself.
var reRAMQuantity = regexp.MustCompile(`(?i)\b(\d{1,4})\s{0,2}(?:gb|gigas?)\b`)

// Hidden-price patterns: sellers sometimes list at a symbolic price and
// write the real one in the text ("precio: 450€", "vendo por 300 euros").
var (
	reHiddenPriceStructured = regexp.MustCompile(`(?i)(?:precio|valor|vende|vendo|pido|oferta)[:\s]{0,3}(?:por\s{0,2})?(\d{2,4})(?:[.,]\d{2})?\s{0,2}(?:€|eur|euros)`)
	reHiddenPriceLoose      = regexp.MustCompile(`(?i)\b(\d{2,4})\s{0,2}(?:€|euros?\b)`)
)

// Text sanitization patterns (see sanitize.go).
var (
	// "SSD M.2" / "M.2 NVMe" storage tokens masquerade as Apple M2 CPUs.
	reStorageThenM2 = regexp.MustCompile(`(?i)\b(ssd|disco|disk|drive|almacenamiento)\s{1,2}m\.?2\b`)
	reM2ThenStorage = regexp.MustCompile(`(?i)\bm\.?2\s{1,2}(ssd|nvme|sata)\b`)
)

// plausibleRAMSizes are the module sizes laptops actually ship with.
// Anything else that matched the quantity pattern is a false positive.
var plausibleRAMSizes = map[int]bool{
	4: true, 6: true, 8: true, 12: true, 16: true, 20: true,
	24: true, 32: true, 40: true, 48: true, 64: true,
}

// ramKeywords and storageKeywords anchor the context window for the
// RAM/storage disambiguation. Listings are mostly Spanish with English
// spec sheets pasted in, so both languages appear.
var ramKeywords = map[string]bool{
	"ram": true, "memoria": true, "mem": true, "ddr3": true, "ddr4": true, "ddr5": true,
}

var storageKeywords = map[string]bool{
	"ssd": true, "hdd": true, "emmc": true, "nvme": true, "rom": true,
	"disco": true, "disk": true, "drive": true, "almacenamiento": true,
	"storage": true, "interno": true, "interna": true, "flash": true,
}

// spamIndicators flag the keyword-stuffing blocks some sellers append to
// game search ranking. A line with more than spamHitThreshold distinct
// hits truncates the rest of the description.
var spamIndicators = []string{
	"rtx", "gtx", "amd", "intel", "ryzen", "i7", "i5",
	"ps5", "xbox", "iphone", "samsung", "asus", "msi",
}

const spamHitThreshold = 3
