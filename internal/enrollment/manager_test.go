package enrollment

import (
	"testing"

	"github.com/rheehot/agora/pkg/block"
	"github.com/rheehot/agora/pkg/crypto"
	"github.com/rheehot/agora/pkg/types"
)

func testKeyPair(t *testing.T, b byte) types.KeyPair {
	t.Helper()
	var seed types.Seed
	for i := range seed {
		seed[i] = b
	}
	return crypto.KeyPairFromSeed(seed)
}

func TestHashIterate_ZeroIsIdentity(t *testing.T) {
	seed := crypto.HashFull([]byte("seed"))
	if HashIterate(seed, 0) != seed {
		t.Fatal("HashIterate(seed, 0) should return seed unchanged")
	}
}

func TestMakeEnrollment_VerifiesAndChainsForward(t *testing.T) {
	kp := testKeyPair(t, 0x01)
	h0 := crypto.HashFull([]byte("private-preimage-seed"))
	utxoKey := crypto.HashFull([]byte("freeze-utxo"))

	e, err := MakeEnrollment(kp, utxoKey, 5, h0)
	if err != nil {
		t.Fatalf("MakeEnrollment: %v", err)
	}
	if e.RandomSeed != HashIterate(h0, 4) {
		t.Fatal("committed head should be h0 hashed forward cycleLength-1 times")
	}
	if !crypto.VerifyEnrollment(kp.Public, e.EnrollSig, block.EnrollmentSigningBytes(e)) {
		t.Fatal("enrollment signature should verify against the enrolling key")
	}
}

func TestManager_ValidatorCountAndExpiry(t *testing.T) {
	m := NewManager()
	kp := testKeyPair(t, 0x02)
	key := crypto.HashFull([]byte("k1"))

	e, err := MakeEnrollment(kp, key, 10, crypto.HashFull([]byte("s1")))
	if err != nil {
		t.Fatal(err)
	}
	m.AcceptEnrollment(e, kp.Public, 100)

	if m.ValidatorCount(100) != 1 {
		t.Fatal("expected 1 active validator right after enrollment")
	}
	if m.ValidatorCount(109) != 1 {
		t.Fatal("expected validator still active one block before expiry")
	}
	if m.ValidatorCount(110) != 0 {
		t.Fatal("expected validator expired at enrolled_at + cycle_length")
	}

	m.ExpireAt(110)
	if m.IsActive(key, 100) {
		t.Fatal("ExpireAt should have pruned the expired entry")
	}
}

func TestManager_RevealPreimage(t *testing.T) {
	m := NewManager()
	kp := testKeyPair(t, 0x03)
	key := crypto.HashFull([]byte("k2"))
	h0 := crypto.HashFull([]byte("reveal-seed"))
	cycleLength := uint32(4)

	e, err := MakeEnrollment(kp, key, cycleLength, h0)
	if err != nil {
		t.Fatal(err)
	}
	m.AcceptEnrollment(e, kp.Public, 50)

	// At height enrolled_at+k the validator reveals h_{cycleLength-1-k}.
	for k := uint32(0); k < cycleLength; k++ {
		preimage := HashIterate(h0, cycleLength-1-k)
		if err := m.RevealPreimage(key, 50+uint64(k), preimage); err != nil {
			t.Fatalf("reveal at k=%d: %v", k, err)
		}
	}

	// A wrong preimage is rejected.
	if err := m.RevealPreimage(key, 50, crypto.HashFull([]byte("garbage"))); err == nil {
		t.Fatal("expected rejection of a preimage that does not chain to the head")
	}

	last, ok := m.LastRevealed(key)
	if !ok || last != 50+uint64(cycleLength-1) {
		t.Fatalf("LastRevealed = %d, %v; want %d, true", last, ok, 50+uint64(cycleLength-1))
	}
}
