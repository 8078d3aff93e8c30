package merkle_test

import (
	"crypto/sha256"
	"fmt"
	"testing"

	solana "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/wunderland-sh/wunderland-engine/merkle"
)

func pubkey(s string) solana.PublicKey {
	return solana.PublicKeyFromBytes(hashOf(s))
}

func hashOf(s string) []byte {
	h := sha256.Sum256([]byte(s))
	return h[:]
}

func TestLeafHashDeterministic(t *testing.T) {
	scope := pubkey("scope")
	agent := pubkey("agent")

	a := merkle.LeafHash(scope, 1, 0, agent, 100)
	require.Equal(t, a, merkle.LeafHash(scope, 1, 0, agent, 100))

	// Every tuple component is committed.
	require.NotEqual(t, a, merkle.LeafHash(pubkey("other"), 1, 0, agent, 100))
	require.NotEqual(t, a, merkle.LeafHash(scope, 2, 0, agent, 100))
	require.NotEqual(t, a, merkle.LeafHash(scope, 1, 1, agent, 100))
	require.NotEqual(t, a, merkle.LeafHash(scope, 1, 0, pubkey("other"), 100))
	require.NotEqual(t, a, merkle.LeafHash(scope, 1, 0, agent, 101))
}

func TestBuildEmpty(t *testing.T) {
	_, err := merkle.Build(nil)
	require.ErrorIs(t, err, merkle.ErrNoLeaves)
	_, err = merkle.BuildEpochTree(pubkey("scope"), 1, nil)
	require.ErrorIs(t, err, merkle.ErrNoLeaves)
}

func TestProofOutOfRange(t *testing.T) {
	tree, err := merkle.BuildEpochTree(pubkey("scope"), 1, []merkle.Allocation{
		{Agent: pubkey("a"), Amount: 1},
	})
	require.NoError(t, err)
	_, err = tree.Proof(1)
	require.ErrorIs(t, err, merkle.ErrIndexOutOfRange)
}

func TestAllProofsVerify(t *testing.T) {
	scope := pubkey("scope")
	for n := 1; n <= 9; n++ {
		t.Run(fmt.Sprintf("leaves_%d", n), func(t *testing.T) {
			allocs := make([]merkle.Allocation, n)
			for i := range allocs {
				allocs[i] = merkle.Allocation{
					Agent:  pubkey(fmt.Sprintf("agent-%d", i)),
					Amount: uint64(100 * (i + 1)),
				}
			}
			tree, err := merkle.BuildEpochTree(scope, 3, allocs)
			require.NoError(t, err)
			require.Equal(t, n, tree.NumLeaves())

			for i, a := range allocs {
				proof, err := tree.Proof(uint32(i))
				require.NoError(t, err)
				leaf := merkle.LeafHash(scope, 3, uint32(i), a.Agent, a.Amount)
				require.True(t, merkle.VerifyProof(tree.Root(), leaf, uint32(i), proof),
					"leaf %d of %d must verify", i, n)
			}
		})
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	scope := pubkey("scope")
	allocs := []merkle.Allocation{
		{Agent: pubkey("a"), Amount: 100},
		{Agent: pubkey("b"), Amount: 200},
		{Agent: pubkey("c"), Amount: 300},
	}
	tree, err := merkle.BuildEpochTree(scope, 1, allocs)
	require.NoError(t, err)
	root := tree.Root()

	proof, err := tree.Proof(1)
	require.NoError(t, err)
	leaf := merkle.LeafHash(scope, 1, 1, allocs[1].Agent, allocs[1].Amount)
	require.True(t, merkle.VerifyProof(root, leaf, 1, proof))

	// Wrong index, wrong amount, flipped proof byte, truncated proof.
	require.False(t, merkle.VerifyProof(root, leaf, 0, proof))
	badLeaf := merkle.LeafHash(scope, 1, 1, allocs[1].Agent, 201)
	require.False(t, merkle.VerifyProof(root, badLeaf, 1, proof))

	tampered := append([][32]byte(nil), proof...)
	tampered[0][0] ^= 0xFF
	require.False(t, merkle.VerifyProof(root, leaf, 1, tampered))
	require.False(t, merkle.VerifyProof(root, leaf, 1, proof[:len(proof)-1]))

	// A proof is bound to its tree: the same position in a different
	// epoch's tree does not transfer.
	other, err := merkle.BuildEpochTree(scope, 2, allocs)
	require.NoError(t, err)
	otherProof, err := other.Proof(1)
	require.NoError(t, err)
	require.False(t, merkle.VerifyProof(root, leaf, 1, otherProof))
}

func TestSingleLeafTree(t *testing.T) {
	scope := pubkey("scope")
	tree, err := merkle.BuildEpochTree(scope, 1, []merkle.Allocation{
		{Agent: pubkey("a"), Amount: 100},
	})
	require.NoError(t, err)

	proof, err := tree.Proof(0)
	require.NoError(t, err)
	require.Empty(t, proof)

	leaf := merkle.LeafHash(scope, 1, 0, pubkey("a"), 100)
	require.Equal(t, leaf, tree.Root())
	require.True(t, merkle.VerifyProof(tree.Root(), leaf, 0, proof))
}
