package block

import (
	"github.com/rheehot/agora/pkg/crypto"
	"github.com/rheehot/agora/pkg/types"
)

// BuildMerkleTree computes the full merkle tree over leaves, bottom-up:
// leaves first, then each internal level (duplicating the last node of
// an odd-length level), finishing with the root as the final element.
// The returned slice is what spec.md §4.3 calls "the serialized tree...
// retained alongside the block for efficient inclusion proofs".
func BuildMerkleTree(leaves []types.Hash) []types.Hash {
	if len(leaves) == 0 {
		return []types.Hash{{}}
	}

	tree := make([]types.Hash, 0, len(leaves)*2)
	tree = append(tree, leaves...)

	level := make([]types.Hash, len(leaves))
	copy(level, leaves)

	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}
		next := make([]types.Hash, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next[i/2] = crypto.HashConcat(level[i], level[i+1])
			tree = append(tree, next[i/2])
		}
		level = next
	}

	return tree
}

// MerkleRoot returns the root of a tree built by BuildMerkleTree: its
// final element.
func MerkleRoot(tree []types.Hash) types.Hash {
	if len(tree) == 0 {
		return types.Hash{}
	}
	return tree[len(tree)-1]
}

// ComputeMerkleRoot is the convenience composition of BuildMerkleTree
// and MerkleRoot for callers that only need the root.
func ComputeMerkleRoot(leaves []types.Hash) types.Hash {
	return MerkleRoot(BuildMerkleTree(leaves))
}
