package extraction

import (
	"strings"

	"github.com/listingguard/risk-engine/internal/domain/listing"
)

// descPrefixRunes bounds how much of a description is analyzed. Titles are
// short and trustworthy; descriptions past a few hundred characters are
// mostly boilerplate, shipping terms and spam.
const descPrefixRunes = 400

// Extractor pulls hardware attributes out of free listing text via the
// prioritized pattern tables in patterns.go. It is stateless and safe for
// concurrent use.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract parses a single block of text into a spec. It never fails:
// fields nothing matched stay nil.
func (e *Extractor) Extract(text string) listing.ExtractedSpec {
	return e.extract(SanitizeHardwareAmbiguities(text), defaultMaxRAMGB)
}

// ExtractListing parses title and description with the title taking
// precedence: a field matched in the title is never overridden by the
// description. The description is spam-truncated and bounded to a prefix
// before matching.
func (e *Extractor) ExtractListing(title, description string) listing.ExtractedSpec {
	titleClean := SanitizeHardwareAmbiguities(title)
	descClean := SanitizeHardwareAmbiguities(TruncateSpamBlock(description))
	descClean = truncateRunes(descClean, descPrefixRunes)

	fromTitle := e.extract(titleClean, defaultMaxRAMGB)
	fromDesc := e.extract(descClean, defaultMaxRAMGB)
	return fromTitle.Merge(fromDesc)
}

// ramLimits caps plausible RAM per category; a Chromebook advertising
// "64GB" is advertising its eMMC.
var ramLimits = map[listing.Category]int{
	listing.CategoryChromebook: 16,
	listing.CategoryUltrabook:  64,
}

// ApplyCategoryConstraints corrects spec fields that are implausible for
// the classified category, re-scanning the text with a tighter RAM cap and
// demoting an i7 match on a Chromebook when the text names a Celeron or
// Pentium.
func (e *Extractor) ApplyCategoryConstraints(spec listing.ExtractedSpec, category listing.Category, fullText string) listing.ExtractedSpec {
	limit, ok := ramLimits[category]
	if !ok {
		limit = defaultMaxRAMGB
	}

	if spec.RAMGB != nil && *spec.RAMGB > limit {
		spec.RAMGB = extractRAM(strings.ToLower(SanitizeHardwareAmbiguities(fullText)), limit)
	}

	if category == listing.CategoryChromebook && spec.CPUTier != nil {
		switch *spec.CPUTier {
		case listing.CPUTierI7, listing.CPUTierI9:
			lower := strings.ToLower(fullText)
			if strings.Contains(lower, "celeron") {
				spec.CPUModel, spec.CPUTier = cpuResult("INTEL CELERON", listing.CPUTierCeleron)
			} else if strings.Contains(lower, "pentium") {
				spec.CPUModel, spec.CPUTier = cpuResult("INTEL PENTIUM", listing.CPUTierPentium)
			}
		}
	}

	return spec
}

func (e *Extractor) extract(text string, maxRAMGB int) listing.ExtractedSpec {
	lower := strings.ToLower(text)

	var spec listing.ExtractedSpec
	spec.CPUModel, spec.CPUTier = extractCPU(lower)
	spec.GPUModel, spec.GPUTier = extractGPU(lower)
	spec.RAMGB = extractRAM(lower, maxRAMGB)
	return spec
}

// extractCPU resolves the CPU family in fixed precedence: Intel Core,
// Ryzen, then Intel low-end/server parts, Apple M-series last. The order
// encodes the conflict rule that PC silicon named anywhere in the text
// beats a stray M-token.
func extractCPU(lower string) (*string, *listing.CPUTier) {
	if m := reCPUIntelCore.FindStringSubmatch(lower); m != nil {
		model := "INTEL I" + m[1]
		if m[2] != "" {
			model += "-" + strings.ToUpper(m[2])
		}
		return cpuResult(model, listing.CPUTier("i"+m[1]))
	}

	if m := reCPURyzen.FindStringSubmatch(lower); m != nil {
		model := "AMD RYZEN " + m[1]
		if m[2] != "" {
			model += " " + strings.ToUpper(m[2])
		}
		return cpuResult(model, listing.CPUTier("ryzen"+m[1]))
	}

	if m := reCPUIntelOther.FindStringSubmatch(lower); m != nil {
		name := strings.ToUpper(m[1])
		return cpuResult("INTEL "+name, listing.CPUTier(strings.ToLower(name)))
	}

	if m := reCPUAppleM.FindStringSubmatch(lower); m != nil {
		model := "APPLE M" + m[1]
		if m[2] != "" {
			model += " " + strings.ToUpper(m[2])
		}
		return cpuResult(model, listing.CPUTier("m"+m[1]))
	}

	return nil, nil
}

// extractGPU resolves the GPU in fixed precedence: workstation parts
// (Quadro, RTX A-series) before consumer GeForce/Radeon, so "RTX A2000"
// never reads as a gaming card.
func extractGPU(lower string) (*string, *listing.GPUTier) {
	if m := reGPUQuadro.FindStringSubmatch(lower); m != nil {
		model := "NVIDIA QUADRO"
		if m[1] != "" {
			model += " " + strings.ToUpper(m[1])
		}
		return gpuResult(model, listing.GPUTierQuadro)
	}

	if m := reGPURTXA.FindStringSubmatch(lower); m != nil {
		return gpuResult("NVIDIA RTX A"+m[1], listing.GPUTier("rtxa"+m[1]))
	}

	if m := reGPUGeForce.FindStringSubmatch(lower); m != nil {
		series := strings.ToUpper(m[1])
		model := "NVIDIA " + series + " " + m[2]
		if m[3] != "" {
			model += " " + strings.ToUpper(m[3])
		}
		return gpuResult(model, listing.GPUTier(strings.ToLower(m[1])+m[2]))
	}

	if m := reGPURadeon.FindStringSubmatch(lower); m != nil {
		model := "AMD RX " + m[1]
		if m[2] != "" {
			model += " " + strings.ToUpper(m[2])
		}
		return gpuResult(model, listing.GPUTier("rx"+m[1]))
	}

	return nil, nil
}

func cpuResult(model string, tier listing.CPUTier) (*string, *listing.CPUTier) {
	return &model, &tier
}

func gpuResult(model string, tier listing.GPUTier) (*string, *listing.GPUTier) {
	return &model, &tier
}
