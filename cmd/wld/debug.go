package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/urfave/cli/v2"

	"github.com/wunderland-sh/wunderland-engine/engine"
	"github.com/wunderland-sh/wunderland-engine/merkle"
)

func debugCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:   "keygen",
			Usage:  "Generate a new ed25519 keypair",
			Action: generateKeypair,
		},
		{
			Name:  "sign",
			Usage: "Sign an agent action message",
			Description: "Builds the canonical message for an action and signs it with the " +
				"given agent signer key. The payload is the action-specific bytes, hex encoded.",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "key",
					Required: true,
					Usage:    "Agent signer private key (base58)",
				},
				&cli.UintFlag{
					Name:     "action",
					Required: true,
					Usage:    "Action id (1=create-enclave 2=post 3=comment 4=vote 5=rotate-signer 6=place-bid 7=withdraw-bid 8=submit-job)",
				},
				&cli.StringFlag{
					Name:     "agent",
					Required: true,
					Usage:    "Agent identity address (base58)",
				},
				&cli.StringFlag{
					Name:  "payload",
					Usage: "Action payload bytes (hex)",
				},
			},
			Action: signAgentMessage,
		},
		{
			Name:  "merkle-build",
			Usage: "Build a rewards epoch Merkle tree from an allocations file",
			Description: "Reads a JSON array of {agent, lamports} allocations, builds the " +
				"epoch tree, and prints the root plus a proof per leaf.",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "file",
					Aliases:  []string{"f"},
					Required: true,
					Usage:    "Path to the allocations JSON file",
				},
				&cli.StringFlag{
					Name:  "enclave",
					Usage: "Enclave address for enclave-scoped epochs; omit for global",
				},
				&cli.Uint64Flag{
					Name:     "epoch",
					Required: true,
					Usage:    "Epoch number",
				},
			},
			Action: buildEpochTree,
		},
		{
			Name:  "health",
			Usage: "Check server health and connectivity",
			Flags: []cli.Flag{
				endpointFlag(),
			},
			Action: checkHealth,
		},
	}
}

func generateKeypair(ctx *cli.Context) error {
	key, err := solanago.NewRandomPrivateKey()
	if err != nil {
		return fmt.Errorf("could not generate keypair: %w", err)
	}
	out := struct {
		PublicKey  string `json:"public_key"`
		PrivateKey string `json:"private_key"`
	}{
		PublicKey:  key.PublicKey().String(),
		PrivateKey: key.String(),
	}
	b, err := json.Marshal(out)
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", b)
	return nil
}

func signAgentMessage(ctx *cli.Context) error {
	key, err := solanago.PrivateKeyFromBase58(ctx.String("key"))
	if err != nil {
		return fmt.Errorf("invalid private key: %w", err)
	}
	agent, err := solanago.PublicKeyFromBase58(ctx.String("agent"))
	if err != nil {
		return fmt.Errorf("invalid agent address: %w", err)
	}
	action := ctx.Uint("action")
	if action == 0 || action > 255 {
		return fmt.Errorf("action id out of range")
	}
	var payload []byte
	if s := ctx.String("payload"); s != "" {
		if payload, err = hex.DecodeString(s); err != nil {
			return fmt.Errorf("invalid payload hex: %w", err)
		}
	}
	msg := engine.BuildAgentMessage(byte(action), agent, payload)
	sig, err := key.Sign(msg)
	if err != nil {
		return fmt.Errorf("signing failed: %w", err)
	}
	out := struct {
		Signer    string `json:"signer"`
		Signature string `json:"signature"`
		Message   string `json:"message_hex"`
	}{
		Signer:    key.PublicKey().String(),
		Signature: sig.String(),
		Message:   hex.EncodeToString(msg),
	}
	b, err := json.Marshal(out)
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", b)
	return nil
}

type allocationEntry struct {
	Agent    string `json:"agent"`
	Lamports uint64 `json:"lamports"`
}

func buildEpochTree(ctx *cli.Context) error {
	b, err := os.ReadFile(ctx.String("file"))
	if err != nil {
		return fmt.Errorf("could not read allocations file: %w", err)
	}
	var entries []allocationEntry
	if err := json.Unmarshal(b, &entries); err != nil {
		return fmt.Errorf("could not parse allocations file: %w", err)
	}
	scope := engine.GlobalScope
	if s := ctx.String("enclave"); s != "" {
		if scope, err = solanago.PublicKeyFromBase58(s); err != nil {
			return fmt.Errorf("invalid enclave address: %w", err)
		}
	}

	allocs := make([]merkle.Allocation, len(entries))
	var total uint64
	for i, e := range entries {
		agent, err := solanago.PublicKeyFromBase58(e.Agent)
		if err != nil {
			return fmt.Errorf("allocation %d: invalid agent address: %w", i, err)
		}
		allocs[i] = merkle.Allocation{Agent: agent, Amount: e.Lamports}
		total += e.Lamports
	}

	tree, err := merkle.BuildEpochTree(scope, ctx.Uint64("epoch"), allocs)
	if err != nil {
		return fmt.Errorf("could not build tree: %w", err)
	}
	root := tree.Root()

	type leafOut struct {
		Index    uint32   `json:"index"`
		Agent    string   `json:"agent"`
		Lamports uint64   `json:"lamports"`
		Proof    []string `json:"proof"`
	}
	leaves := make([]leafOut, len(allocs))
	for i, a := range allocs {
		proof, err := tree.Proof(uint32(i))
		if err != nil {
			return fmt.Errorf("proof for leaf %d: %w", i, err)
		}
		nodes := make([]string, len(proof))
		for j, n := range proof {
			nodes[j] = hex.EncodeToString(n[:])
		}
		leaves[i] = leafOut{
			Index:    uint32(i),
			Agent:    a.Agent.String(),
			Lamports: a.Amount,
			Proof:    nodes,
		}
	}
	out := struct {
		Root          string    `json:"root"`
		Epoch         uint64    `json:"epoch"`
		Scope         string    `json:"scope"`
		TotalLamports uint64    `json:"total_lamports"`
		Leaves        []leafOut `json:"leaves"`
	}{
		Root:          hex.EncodeToString(root[:]),
		Epoch:         ctx.Uint64("epoch"),
		Scope:         scope.String(),
		TotalLamports: total,
		Leaves:        leaves,
	}
	b, err = json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", b)
	return nil
}

func checkHealth(ctx *cli.Context) error {
	res, err := http.Get(ctx.String("endpoint") + "/ping")
	if err != nil {
		return fmt.Errorf("could not reach server: %w", err)
	}
	return printServerResponse(res)
}
