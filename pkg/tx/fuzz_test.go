package tx

import (
	"testing"

	"github.com/rheehot/agora/pkg/serialize"
)

// FuzzTransactionDeserialize asserts that decoding arbitrary bytes as a
// transaction never panics, whether or not it succeeds.
func FuzzTransactionDeserialize(f *testing.F) {
	kp := testKeyPair(f, 0xAA)
	seed := NewBuilder(Payment).AddOutput(1, kp.Public).Build()
	w := serialize.NewWriter()
	seed.Serialize(w)
	f.Add(w.Bytes())
	f.Add([]byte{})
	f.Add([]byte{0x02})
	f.Add([]byte{0x00, 0x00})

	f.Fuzz(func(t *testing.T, data []byte) {
		r := serialize.NewReader(data)
		txn, err := Deserialize(r)
		if err != nil {
			return
		}
		_ = txn.Hash()
		_ = txn.Validate()
		_, _ = txn.TotalOutputValue()
	})
}
