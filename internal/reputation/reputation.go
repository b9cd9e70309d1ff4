// Package reputation holds the pure presentation functions derived from a
// user's reputation score and display name. Nothing here is stored: tiers
// and avatar gradients are recomputed on every read so they can never
// drift from the underlying value.
package reputation

import (
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Reputation thresholds, lowest to highest. A user's tier is the highest
// threshold their reputation meets.
const (
	ThresholdBeginner     = 0
	ThresholdIntermediate = 100
	ThresholdAdvanced     = 500
	ThresholdExpert       = 2000
	ThresholdEpic         = 5000
	ThresholdLegendary    = 10000
)

// Tier is a named reputation level plus the score needed for the next one.
// NextThreshold is -1 at the top tier.
type Tier struct {
	Level         string `json:"level"`
	NextThreshold int    `json:"nextThreshold"`
}

// TierFor maps a reputation score to its tier. The mapping is monotonic:
// a higher score never yields a lower tier.
func TierFor(rep int) Tier {
	switch {
	case rep >= ThresholdLegendary:
		return Tier{Level: "Legendary", NextThreshold: -1}
	case rep >= ThresholdEpic:
		return Tier{Level: "Epic", NextThreshold: ThresholdLegendary}
	case rep >= ThresholdExpert:
		return Tier{Level: "Expert", NextThreshold: ThresholdEpic}
	case rep >= ThresholdAdvanced:
		return Tier{Level: "Advanced", NextThreshold: ThresholdExpert}
	case rep >= ThresholdIntermediate:
		return Tier{Level: "Intermediate", NextThreshold: ThresholdAdvanced}
	default:
		return Tier{Level: "Beginner", NextThreshold: ThresholdIntermediate}
	}
}

// gradients is the fixed avatar palette. Entries are CSS gradient class
// pairs the presentation layer understands; the set is small on purpose so
// avatars stay visually consistent across the site.
var gradients = [...]string{
	"from-neon-cyan to-neon-purple",
	"from-neon-green to-neon-cyan",
	"from-neon-purple to-neon-orange",
	"from-neon-orange to-neon-green",
}

// AvatarGradient deterministically picks a palette entry for a display
// name. The same name always maps to the same gradient, across renders,
// sessions, and processes.
func AvatarGradient(name string) string {
	sum := blake2b.Sum256([]byte(name))
	// The first 8 bytes are plenty of entropy for a 4-entry palette.
	var n uint64
	for _, b := range sum[:8] {
		n = n<<8 | uint64(b)
	}
	return gradients[n%uint64(len(gradients))]
}

// Initials condenses a display name into at most two uppercase letters
// for the fallback avatar.
func Initials(name string) string {
	var b strings.Builder
	taken := 0
	for _, word := range strings.Fields(name) {
		b.WriteRune([]rune(word)[0])
		if taken++; taken == 2 {
			break
		}
	}
	return strings.ToUpper(b.String())
}
