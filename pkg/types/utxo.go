package types

// UTXOKey identifies an unspent output: hash_of(tx_hash, output_index).
// It shares Hash's representation since it is itself produced by the
// hash sponge.
type UTXOKey = Hash

// UTXOType records which transaction kind produced a UTXO, since maturity
// rules (unlock_height) differ between them.
type UTXOType uint8

const (
	// UTXOPayment marks a UTXO produced by a Payment transaction.
	UTXOPayment UTXOType = iota
	// UTXOFreeze marks a UTXO produced by a Freeze transaction. Only
	// Freeze UTXOs of at least MinFreezeAmount are eligible for
	// enrollment.
	UTXOFreeze
)

func (t UTXOType) String() string {
	switch t {
	case UTXOPayment:
		return "payment"
	case UTXOFreeze:
		return "freeze"
	default:
		return "unknown"
	}
}

// UTXOOutput is the spendable payload of a UTXO: the amount and the
// public key that owns it.
type UTXOOutput struct {
	Amount      uint64
	Destination PublicKey
}

// UTXOValue is everything the UTXO set stores for one unspent output:
// its maturity height, its type, and the output itself (spec.md §3).
type UTXOValue struct {
	UnlockHeight uint64
	Type         UTXOType
	Output       UTXOOutput
}
