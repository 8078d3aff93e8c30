// Package merkle builds and verifies the reward distribution trees whose
// roots the engine escrows against. Leaves are domain-separated sha256
// hashes over the (scope, epoch, index, agent, amount) tuple; interior
// nodes order their children by leaf index parity, so a verifier only
// needs the leaf index and the sibling path.
package merkle

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"

	solana "github.com/gagliardetto/solana-go"
)

// Domain is prepended to every leaf hash so reward leaves can never
// collide with other program hashes.
const Domain = "WUNDERLAND_REWARDS_V1"

// MaxProofLen caps proof depth; a full tree of 2^32 leaves needs 32.
const MaxProofLen = 32

var (
	ErrNoLeaves        = errors.New("merkle: tree has no leaves")
	ErrIndexOutOfRange = errors.New("merkle: leaf index out of range")
)

// Allocation is one (agent, amount) reward entry; its position in the
// allocation list is its leaf index.
type Allocation struct {
	Agent  solana.PublicKey
	Amount uint64
}

// LeafHash computes the leaf for one allocation.
// Layout: domain || scope(32) || epoch_le(8) || index_le(4) || agent(32) || amount_le(8).
func LeafHash(scope solana.PublicKey, epoch uint64, index uint32, agent solana.PublicKey, amount uint64) [32]byte {
	var epochLE [8]byte
	var indexLE [4]byte
	var amountLE [8]byte
	binary.LittleEndian.PutUint64(epochLE[:], epoch)
	binary.LittleEndian.PutUint32(indexLE[:], index)
	binary.LittleEndian.PutUint64(amountLE[:], amount)

	h := sha256.New()
	h.Write([]byte(Domain))
	h.Write(scope[:])
	h.Write(epochLE[:])
	h.Write(indexLE[:])
	h.Write(agent[:])
	h.Write(amountLE[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func hashPair(left, right [32]byte) [32]byte {
	h := sha256.New()
	h.Write(left[:])
	h.Write(right[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Tree holds every level of a built tree, leaves first.
type Tree struct {
	levels [][][32]byte
}

// Build constructs a tree over the given leaves. A node without a right
// sibling is paired with itself, which keeps the even/odd ordering rule
// intact for every proof.
func Build(leaves [][32]byte) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrNoLeaves
	}
	levels := [][][32]byte{append([][32]byte(nil), leaves...)}
	for level := levels[0]; len(level) > 1; {
		next := make([][32]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			right := level[i]
			if i+1 < len(level) {
				right = level[i+1]
			}
			next = append(next, hashPair(level[i], right))
		}
		levels = append(levels, next)
		level = next
	}
	return &Tree{levels: levels}, nil
}

// BuildEpochTree hashes the allocations into leaves and builds the tree
// for one epoch of a scope.
func BuildEpochTree(scope solana.PublicKey, epoch uint64, allocs []Allocation) (*Tree, error) {
	leaves := make([][32]byte, len(allocs))
	for i, a := range allocs {
		leaves[i] = LeafHash(scope, epoch, uint32(i), a.Agent, a.Amount)
	}
	return Build(leaves)
}

// Root returns the tree's root hash.
func (t *Tree) Root() [32]byte {
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// NumLeaves reports the leaf count.
func (t *Tree) NumLeaves() int { return len(t.levels[0]) }

// Proof returns the sibling path for the leaf at index, bottom up.
func (t *Tree) Proof(index uint32) ([][32]byte, error) {
	idx := int(index)
	if idx >= len(t.levels[0]) {
		return nil, ErrIndexOutOfRange
	}
	var proof [][32]byte
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := idx ^ 1
		if sibling >= len(level) {
			sibling = idx
		}
		proof = append(proof, level[sibling])
		idx >>= 1
	}
	return proof, nil
}

// VerifyProof recomputes the root from a leaf and its sibling path. At
// each level an even index hashes (computed, sibling) and an odd index
// hashes (sibling, computed), then the index halves.
func VerifyProof(root, leaf [32]byte, index uint32, proof [][32]byte) bool {
	computed := leaf
	idx := index
	for _, sibling := range proof {
		if idx&1 == 0 {
			computed = hashPair(computed, sibling)
		} else {
			computed = hashPair(sibling, computed)
		}
		idx >>= 1
	}
	return computed == root
}
