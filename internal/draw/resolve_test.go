package draw

import (
	"math/big"
	"testing"

	domain "github.com/R3E-Network/luckydraw/internal/domain/draw"
)

func testTiers() []domain.Tier {
	return []domain.Tier{
		{PrizeAmount: big.NewInt(50), WinProbability: 500},
		{PrizeAmount: big.NewInt(10), WinProbability: 1500},
		{PrizeAmount: big.NewInt(3), WinProbability: 3000},
	}
}

func TestResolve_Banding(t *testing.T) {
	defaultPrize := big.NewInt(1)

	tests := []struct {
		name      string
		random    int64
		wantTier  int
		wantPrize int64
	}{
		{"first tier lower edge", 0, 0, 50},
		{"first tier upper edge", 499, 0, 50},
		{"second tier lower edge", 500, 1, 10},
		{"second tier upper edge", 1999, 1, 10},
		{"third tier lower edge", 2000, 2, 3},
		{"third tier upper edge", 4999, 2, 3},
		{"default band", 5000, domain.TierIndexNone, 1},
		{"default band upper edge", 9999, domain.TierIndexNone, 1},
		{"wraps modulo basis points", 10100, 0, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tierIndex, prize := Resolve(testTiers(), defaultPrize, big.NewInt(tt.random))
			if tierIndex != tt.wantTier {
				t.Errorf("tier = %d, want %d", tierIndex, tt.wantTier)
			}
			if prize.Int64() != tt.wantPrize {
				t.Errorf("prize = %s, want %d", prize, tt.wantPrize)
			}
		})
	}
}

func TestResolve_NoTiers(t *testing.T) {
	tierIndex, prize := Resolve(nil, big.NewInt(7), big.NewInt(123))
	if tierIndex != domain.TierIndexNone {
		t.Errorf("tier = %d, want sentinel", tierIndex)
	}
	if prize.Int64() != 7 {
		t.Errorf("prize = %s, want 7", prize)
	}
}

func TestResolve_ZeroDefaultPrize(t *testing.T) {
	tierIndex, prize := Resolve(testTiers(), new(big.Int), big.NewInt(9000))
	if tierIndex != domain.TierIndexNone {
		t.Errorf("tier = %d, want sentinel", tierIndex)
	}
	if prize.Sign() != 0 {
		t.Errorf("prize = %s, want 0", prize)
	}
}

func TestResolve_LargeRandomValue(t *testing.T) {
	// A 256-bit value reduces the same as its residue mod 10000.
	random, _ := new(big.Int).SetString("115792089237316195423570985008687907853269984665640564039457584007913129639935", 10)
	wantTier, wantPrize := Resolve(testTiers(), big.NewInt(1), new(big.Int).Mod(random, big.NewInt(domain.BasisPoints)))
	gotTier, gotPrize := Resolve(testTiers(), big.NewInt(1), random)
	if gotTier != wantTier || gotPrize.Cmp(wantPrize) != 0 {
		t.Errorf("large value resolved to (%d, %s), want (%d, %s)", gotTier, gotPrize, wantTier, wantPrize)
	}
}

func TestResolve_DoesNotMutateInput(t *testing.T) {
	random := big.NewInt(12345)
	Resolve(testTiers(), big.NewInt(1), random)
	if random.Int64() != 12345 {
		t.Errorf("random value mutated to %s", random)
	}
}
