package utxo

import (
	"encoding/json"
	"fmt"

	"github.com/rheehot/agora/internal/storage"
	"github.com/rheehot/agora/pkg/block"
	"github.com/rheehot/agora/pkg/tx"
	"github.com/rheehot/agora/pkg/types"
)

// Key prefixes for the UTXO store, mirroring the teacher's address/stake
// secondary-index scheme adapted to this domain's single owner field.
var (
	prefixUTXO  = []byte("u/") // u/<utxo_key 64B> -> storedUTXO JSON
	prefixOwner = []byte("o/") // o/<pubkey 32B><utxo_key 64B> -> empty
)

// storedUTXO is the on-disk representation of a UTXOValue.
type storedUTXO struct {
	UnlockHeight uint64           `json:"unlock_height"`
	Type         types.UTXOType   `json:"type"`
	Amount       uint64           `json:"amount"`
	Destination  types.PublicKey  `json:"destination"`
}

func toStored(v types.UTXOValue) storedUTXO {
	return storedUTXO{
		UnlockHeight: v.UnlockHeight,
		Type:         v.Type,
		Amount:       v.Output.Amount,
		Destination:  v.Output.Destination,
	}
}

func (s storedUTXO) value() types.UTXOValue {
	return types.UTXOValue{
		UnlockHeight: s.UnlockHeight,
		Type:         s.Type,
		Output: types.UTXOOutput{
			Amount:      s.Amount,
			Destination: s.Destination,
		},
	}
}

// Store implements Set backed by a storage.DB (Badger in production, an
// in-memory map in tests — see internal/storage).
type Store struct {
	db storage.DB
}

// NewStore creates a UTXO store backed by db.
func NewStore(db storage.DB) *Store {
	return &Store{db: db}
}

func utxoDBKey(key types.UTXOKey) []byte {
	k := make([]byte, len(prefixUTXO)+types.HashSize)
	copy(k, prefixUTXO)
	copy(k[len(prefixUTXO):], key[:])
	return k
}

func ownerDBKey(owner types.PublicKey, key types.UTXOKey) []byte {
	k := make([]byte, len(prefixOwner)+types.PublicKeySize+types.HashSize)
	copy(k, prefixOwner)
	copy(k[len(prefixOwner):], owner[:])
	copy(k[len(prefixOwner)+types.PublicKeySize:], key[:])
	return k
}

// getRaw fetches and decodes the stored record for key, if present.
func (s *Store) getRaw(key types.UTXOKey) (storedUTXO, bool) {
	data, err := s.db.Get(utxoDBKey(key))
	if err != nil {
		return storedUTXO{}, false
	}
	var rec storedUTXO
	if err := json.Unmarshal(data, &rec); err != nil {
		return storedUTXO{}, false
	}
	return rec, true
}

// Find implements pkg/tx.UTXOProvider: it resolves an outpoint to the
// fields a spending transaction needs.
func (s *Store) Find(op types.Outpoint) (tx.UTXORef, bool) {
	key := tx.UTXOKeyFor(op.TxID, op.Index)
	rec, ok := s.getRaw(key)
	if !ok {
		return tx.UTXORef{}, false
	}
	return tx.UTXORef{
		Amount:       rec.Amount,
		UnlockHeight: rec.UnlockHeight,
		Destination:  rec.Destination,
	}, true
}

// FindByKey implements pkg/block.EnrollmentUTXOFinder: it resolves a
// utxo_key directly, the way enrollments reference freeze outputs.
func (s *Store) FindByKey(key types.UTXOKey) (block.EnrollmentUTXO, bool) {
	rec, ok := s.getRaw(key)
	if !ok {
		return block.EnrollmentUTXO{}, false
	}
	return block.EnrollmentUTXO{
		Type:   rec.Type,
		Amount: rec.Amount,
		Owner:  rec.Destination,
	}, true
}

// Put inserts one UTXO per output of t under hash(tx_hash, output_index),
// all sharing unlockHeight.
func (s *Store) Put(t *tx.Transaction, unlockHeight uint64) error {
	txHash := t.Hash()
	utxoType := types.UTXOPayment
	if t.Type == tx.Freeze {
		utxoType = types.UTXOFreeze
	}

	for i, out := range t.Outputs {
		key := tx.UTXOKeyFor(txHash, uint32(i))
		rec := toStored(types.UTXOValue{
			UnlockHeight: unlockHeight,
			Type:         utxoType,
			Output: types.UTXOOutput{
				Amount:      out.Amount,
				Destination: out.Destination,
			},
		})
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal utxo: %w", err)
		}
		if err := s.db.Put(utxoDBKey(key), data); err != nil {
			return fmt.Errorf("put utxo: %w", err)
		}
		if err := s.db.Put(ownerDBKey(out.Destination, key), []byte{}); err != nil {
			return fmt.Errorf("put owner index: %w", err)
		}
	}
	return nil
}

// Consume removes the UTXO referenced by op.
func (s *Store) Consume(op types.Outpoint) error {
	key := tx.UTXOKeyFor(op.TxID, op.Index)
	rec, ok := s.getRaw(key)
	if !ok {
		return nil
	}
	if err := s.db.Delete(ownerDBKey(rec.Destination, key)); err != nil {
		return fmt.Errorf("delete owner index: %w", err)
	}
	if err := s.db.Delete(utxoDBKey(key)); err != nil {
		return fmt.Errorf("delete utxo: %w", err)
	}
	return nil
}

// GetUTXOsFor returns every live UTXO owned by pubKey by scanning the
// owner secondary index.
func (s *Store) GetUTXOsFor(pubKey types.PublicKey) (map[types.UTXOKey]types.UTXOValue, error) {
	prefix := make([]byte, len(prefixOwner)+types.PublicKeySize)
	copy(prefix, prefixOwner)
	copy(prefix[len(prefixOwner):], pubKey[:])

	out := make(map[types.UTXOKey]types.UTXOValue)
	err := s.db.ForEach(prefix, func(k, _ []byte) error {
		off := len(prefixOwner) + types.PublicKeySize
		if len(k) < off+types.HashSize {
			return nil
		}
		var key types.UTXOKey
		copy(key[:], k[off:off+types.HashSize])
		if rec, ok := s.getRaw(key); ok {
			out[key] = rec.value()
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan owner index: %w", err)
	}
	return out, nil
}
