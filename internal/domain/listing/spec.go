package listing

// CPUTier buckets a detected CPU into the granularity used by the market
// reference table. Generation detail stays in the model string.
type CPUTier string

const (
	CPUTierI3      CPUTier = "i3"
	CPUTierI5      CPUTier = "i5"
	CPUTierI7      CPUTier = "i7"
	CPUTierI9      CPUTier = "i9"
	CPUTierRyzen3  CPUTier = "ryzen3"
	CPUTierRyzen5  CPUTier = "ryzen5"
	CPUTierRyzen7  CPUTier = "ryzen7"
	CPUTierRyzen9  CPUTier = "ryzen9"
	CPUTierAppleM1 CPUTier = "m1"
	CPUTierAppleM2 CPUTier = "m2"
	CPUTierAppleM3 CPUTier = "m3"
	CPUTierAppleM4 CPUTier = "m4"
	CPUTierCeleron CPUTier = "celeron"
	CPUTierPentium CPUTier = "pentium"
	CPUTierXeon    CPUTier = "xeon"
)

// IsApple reports whether the tier is an Apple Silicon part.
func (t CPUTier) IsApple() bool {
	switch t {
	case CPUTierAppleM1, CPUTierAppleM2, CPUTierAppleM3, CPUTierAppleM4:
		return true
	}
	return false
}

// IsWorkstation reports whether the tier implies workstation hardware.
func (t CPUTier) IsWorkstation() bool {
	return t == CPUTierXeon
}

// GPUTier is the compact bucket key for a detected discrete GPU,
// e.g. "rtx3060", "gtx1650", "rx6600", "quadro".
type GPUTier string

const (
	GPUTierQuadro GPUTier = "quadro"
)

// IsWorkstation reports whether the GPU is a workstation part (Quadro or
// the RTX A-series that replaced it).
func (t GPUTier) IsWorkstation() bool {
	if t == GPUTierQuadro {
		return true
	}
	return len(t) > 4 && t[:4] == "rtxa"
}

// IsGaming reports whether the GPU implies a gaming machine.
func (t GPUTier) IsGaming() bool {
	if t == "" || t.IsWorkstation() {
		return false
	}
	switch t[:2] {
	case "rt", "gt", "rx":
		return true
	}
	return false
}

// ExtractedSpec holds the hardware attributes pulled out of free text.
// Every field is independently nullable: an unmatched field is nil, not an
// error.
type ExtractedSpec struct {
	CPUModel *string  `json:"cpu_model"`
	CPUTier  *CPUTier `json:"cpu_tier"`
	GPUModel *string  `json:"gpu_model"`
	GPUTier  *GPUTier `json:"gpu_tier"`
	RAMGB    *int     `json:"ram_gb"`
}

// IsEmpty reports whether nothing at all was extracted.
func (s ExtractedSpec) IsEmpty() bool {
	return s.CPUModel == nil && s.GPUModel == nil && s.RAMGB == nil
}

// Merge fills empty fields from other, keeping existing values. Used to
// let title matches take precedence over description matches.
func (s ExtractedSpec) Merge(other ExtractedSpec) ExtractedSpec {
	out := s
	if out.CPUModel == nil {
		out.CPUModel = other.CPUModel
		out.CPUTier = other.CPUTier
	}
	if out.GPUModel == nil {
		out.GPUModel = other.GPUModel
		out.GPUTier = other.GPUTier
	}
	if out.RAMGB == nil {
		out.RAMGB = other.RAMGB
	}
	return out
}
