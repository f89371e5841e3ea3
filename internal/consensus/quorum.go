package consensus

import "github.com/rheehot/agora/pkg/types"

// QuorumSet is this node's federated-agreement quorum slice: the
// member public keys and the threshold of agreeing members required to
// accept a value (spec.md §4.8). The historic default sets Threshold
// to len(Members) — "everyone agrees" — rather than the BFT-safe
// ⌈2n/3⌉+1 (see config.BFTSafeThreshold and DESIGN.md's Open Question
// decision); a genesis configuration may override it via
// Genesis.QuorumThreshold.
type QuorumSet struct {
	Members   []types.PublicKey
	Threshold int
}

// IsSatisfiedBy reports whether the distinct members of agreeing that
// also belong to the quorum set meet its threshold.
func (q QuorumSet) IsSatisfiedBy(agreeing []types.PublicKey) bool {
	members := make(map[types.PublicKey]bool, len(q.Members))
	for _, m := range q.Members {
		members[m] = true
	}
	seen := make(map[types.PublicKey]bool, len(agreeing))
	count := 0
	for _, a := range agreeing {
		if members[a] && !seen[a] {
			seen[a] = true
			count++
		}
	}
	return count >= q.Threshold
}
