package models

import dErrors "safereturn/pkg/domain-errors"

// Tier is the risk classification of a case.
//
// State machine: {green, yellow, red}; no tier is terminal and any tier can
// transition to any other. The tier is mutated only by the case progression
// orchestrator and always reflects the classification of the most recent
// report, with no smoothing or hysteresis.
type Tier string

const (
	TierGreen  Tier = "green"
	TierYellow Tier = "yellow"
	TierRed    Tier = "red"
)

var validTiers = map[Tier]bool{
	TierGreen:  true,
	TierYellow: true,
	TierRed:    true,
}

// ParseTier constructs a Tier from external input.
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid risk tier")
	}
	return t, nil
}

func (t Tier) IsValid() bool {
	return validTiers[t]
}

func (t Tier) String() string {
	return string(t)
}
