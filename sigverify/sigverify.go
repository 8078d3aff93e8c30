// Package sigverify implements the delegated-signature verification path:
// an ed25519 signature-verification instruction rides immediately before
// the action instruction in the same transaction, and the engine only
// checks that the vouched-for public key and message match what the
// action claims. The cryptographic check itself happens once, up front,
// when the instruction enters the system (PrecompileCheck), mirroring how
// the runtime's precompile rejects bad signatures before program code runs.
package sigverify

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"
	"fmt"

	solana "github.com/gagliardetto/solana-go"

	"github.com/wunderland-sh/wunderland-engine/engine"
)

// Ed25519ProgramID is the native signature-verification program address.
var Ed25519ProgramID = solana.MustPublicKeyFromBase58("Ed25519SigVerify111111111111111111111111111")

// Ed25519 instruction wire layout: count(1) || padding(1) || offsets(14)
// || pubkey(32) || signature(64) || message. The offsets struct stores
// u16::MAX in each instruction-index slot, meaning the data is embedded in
// this instruction rather than referenced from another one.
const (
	offsetsStart = 2
	offsetsSize  = 14
	pubkeySize   = 32
	sigSize      = 64

	// embeddedIndex marks offsets that point into this instruction.
	embeddedIndex = 0xFFFF
)

// Instruction is the minimal instruction view introspection needs.
type Instruction struct {
	ProgramID solana.PublicKey
	Data      []byte
}

// Transaction is an ordered instruction list plus the index of the
// currently executing instruction.
type Transaction struct {
	Instructions []Instruction
	CurrentIndex int
}

// BuildInstruction assembles an ed25519 verification instruction for one
// (pubkey, signature, message) triple in the embedded layout.
func BuildInstruction(pubkey solana.PublicKey, signature solana.Signature, message []byte) Instruction {
	data := make([]byte, 0, offsetsStart+offsetsSize+pubkeySize+sigSize+len(message))
	data = append(data, 1, 0) // num_signatures, padding

	pubkeyOffset := uint16(offsetsStart + offsetsSize)
	sigOffset := pubkeyOffset + pubkeySize
	msgOffset := sigOffset + sigSize

	data = binary.LittleEndian.AppendUint16(data, sigOffset)
	data = binary.LittleEndian.AppendUint16(data, embeddedIndex)
	data = binary.LittleEndian.AppendUint16(data, pubkeyOffset)
	data = binary.LittleEndian.AppendUint16(data, embeddedIndex)
	data = binary.LittleEndian.AppendUint16(data, msgOffset)
	data = binary.LittleEndian.AppendUint16(data, uint16(len(message)))
	data = binary.LittleEndian.AppendUint16(data, embeddedIndex)

	data = append(data, pubkey.Bytes()...)
	data = append(data, signature[:]...)
	data = append(data, message...)
	return Instruction{ProgramID: Ed25519ProgramID, Data: data}
}

// SignAndBuild signs the message with the agent signer's private key and
// returns the verification instruction carrying the result.
func SignAndBuild(signer solana.PrivateKey, message []byte) (Instruction, error) {
	sig, err := signer.Sign(message)
	if err != nil {
		return Instruction{}, fmt.Errorf("sign message: %w", err)
	}
	return BuildInstruction(signer.PublicKey(), sig, message), nil
}

type parsedInstruction struct {
	pubkey    []byte
	message   []byte
	signature []byte
}

func parse(ix Instruction) (parsedInstruction, error) {
	var p parsedInstruction
	if ix.ProgramID != Ed25519ProgramID {
		return p, engine.ErrMissingVerificationInstruction
	}
	data := ix.Data
	if len(data) < offsetsStart+offsetsSize {
		return p, engine.ErrInvalidVerificationInstruction
	}
	if data[0] != 1 {
		return p, engine.ErrInvalidVerificationInstruction
	}

	u16at := func(off int) int { return int(binary.LittleEndian.Uint16(data[off:])) }
	sigOffset := u16at(offsetsStart)
	sigIndex := u16at(offsetsStart + 2)
	pubkeyOffset := u16at(offsetsStart + 4)
	pubkeyIndex := u16at(offsetsStart + 6)
	msgOffset := u16at(offsetsStart + 8)
	msgSize := u16at(offsetsStart + 10)
	msgIndex := u16at(offsetsStart + 12)

	if sigIndex != embeddedIndex || pubkeyIndex != embeddedIndex || msgIndex != embeddedIndex {
		return p, engine.ErrInvalidVerificationInstruction
	}
	if pubkeyOffset+pubkeySize > len(data) {
		return p, engine.ErrInvalidVerificationInstruction
	}
	if msgOffset+msgSize > len(data) {
		return p, engine.ErrInvalidVerificationInstruction
	}
	if sigOffset+sigSize > len(data) {
		return p, engine.ErrInvalidVerificationInstruction
	}
	p.pubkey = data[pubkeyOffset : pubkeyOffset+pubkeySize]
	p.message = data[msgOffset : msgOffset+msgSize]
	p.signature = data[sigOffset : sigOffset+sigSize]
	return p, nil
}

// PrecompileCheck performs the cryptographic verification the runtime's
// precompile would: it parses the instruction and verifies the embedded
// signature over the embedded message. Callers run this once when a
// transaction enters the system; the introspection Verifier then only
// compares content.
func PrecompileCheck(ix Instruction) error {
	p, err := parse(ix)
	if err != nil {
		return err
	}
	if !ed25519.Verify(ed25519.PublicKey(p.pubkey), p.message, p.signature) {
		return engine.ErrInvalidVerificationInstruction
	}
	return nil
}

// TxVerifier implements engine.Verifier by introspecting the instruction
// immediately preceding the current one.
type TxVerifier struct {
	tx *Transaction
}

// NewTxVerifier wraps a transaction for introspection.
func NewTxVerifier(tx *Transaction) *TxVerifier { return &TxVerifier{tx: tx} }

// Verify checks that the preceding instruction is an ed25519 verification
// whose embedded public key and message match the expected ones,
// byte-for-byte. It never re-verifies the signature.
func (v *TxVerifier) Verify(signer solana.PublicKey, message []byte) error {
	idx := v.tx.CurrentIndex
	if idx <= 0 || idx > len(v.tx.Instructions) {
		return engine.ErrMissingVerificationInstruction
	}
	p, err := parse(v.tx.Instructions[idx-1])
	if err != nil {
		return err
	}
	if !bytes.Equal(p.pubkey, signer.Bytes()) {
		return engine.ErrPublicKeyMismatch
	}
	if !bytes.Equal(p.message, message) {
		return engine.ErrMessageMismatch
	}
	return nil
}

// ForInstruction is the single-action convenience: it wraps one
// verification instruction as a two-instruction transaction positioned at
// the action, after running the precompile check.
func ForInstruction(ix Instruction) (*TxVerifier, error) {
	if err := PrecompileCheck(ix); err != nil {
		return nil, err
	}
	return NewTxVerifier(&Transaction{
		Instructions: []Instruction{ix, {}},
		CurrentIndex: 1,
	}), nil
}
