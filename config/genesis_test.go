package config

import (
	"testing"

	"github.com/rheehot/agora/pkg/crypto"
)

func testValidators(t *testing.T, n int) []ValidatorGenesis {
	t.Helper()
	out := make([]ValidatorGenesis, n)
	for i := range out {
		kp, err := crypto.KeyPairRandom()
		if err != nil {
			t.Fatalf("key pair: %v", err)
		}
		out[i] = ValidatorGenesis{Public: kp.Public, Secret: kp.Secret, FreezeAmount: MinFreezeTxAmount}
	}
	return out
}

func TestGenesis_Validate_OK(t *testing.T) {
	g := DevnetGenesis("agora-test-1", testValidators(t, MinValidatorCount))
	if err := g.Validate(); err != nil {
		t.Fatalf("expected valid genesis: %v", err)
	}
}

func TestGenesis_Validate_TooFewValidators(t *testing.T) {
	g := DevnetGenesis("agora-test-1", testValidators(t, MinValidatorCount-1))
	if err := g.Validate(); err == nil {
		t.Fatal("expected error for too few validators")
	}
}

func TestGenesis_Validate_FreezeBelowMinimum(t *testing.T) {
	g := DevnetGenesis("agora-test-1", testValidators(t, MinValidatorCount))
	g.Validators[0].FreezeAmount = MinFreezeTxAmount - 1
	if err := g.Validate(); err == nil {
		t.Fatal("expected error for sub-minimum freeze amount")
	}
}

func TestGenesis_EffectiveThreshold_DefaultsTo100Percent(t *testing.T) {
	g := DevnetGenesis("agora-test-1", testValidators(t, 4))
	if got := g.EffectiveThreshold(); got != 4 {
		t.Errorf("EffectiveThreshold() = %d, want 4 (historic 100%%)", got)
	}
}

func TestGenesis_EffectiveThreshold_Explicit(t *testing.T) {
	g := DevnetGenesis("agora-test-1", testValidators(t, 4))
	g.QuorumThreshold = 3
	if got := g.EffectiveThreshold(); got != 3 {
		t.Errorf("EffectiveThreshold() = %d, want 3", got)
	}
}

func TestBFTSafeThreshold(t *testing.T) {
	cases := map[int]int{4: 4, 7: 6, 10: 8}
	for n, want := range cases {
		if got := BFTSafeThreshold(n); got != want {
			t.Errorf("BFTSafeThreshold(%d) = %d, want %d", n, got, want)
		}
	}
}
