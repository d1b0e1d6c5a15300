package draw

import (
	"math/big"

	"github.com/R3E-Network/luckydraw/internal/domain/draw"
)

var basisPoints = big.NewInt(draw.BasisPoints)

// Resolve maps a raw random value to a prize outcome using
// cumulative-probability banding. The value is reduced into basis-point
// space; tiers are walked in insertion order and the first tier whose
// cumulative band contains the value wins. A value beyond the allocated
// bands resolves to draw.TierIndexNone with the default prize (zero when
// no default is configured).
//
// Deterministic: a fixed tier list and random value always produce the
// same (tierIndex, prizeAmount) pair.
func Resolve(tiers []draw.Tier, defaultPrize *big.Int, random *big.Int) (int, *big.Int) {
	v := new(big.Int).Mod(random, basisPoints).Uint64()

	var cum uint64
	for i, tier := range tiers {
		cum += uint64(tier.WinProbability)
		if v < cum {
			return i, draw.CloneAmount(tier.PrizeAmount)
		}
	}
	return draw.TierIndexNone, draw.CloneAmount(defaultPrize)
}
