package engine

import (
	"log/slog"
	"sync"
	"time"

	solana "github.com/gagliardetto/solana-go"
)

// Engine is the delegated-authorization and escrow-settlement core. Every
// exported operation is one atomic action: it validates all preconditions,
// then applies all mutations, under a single lock. There is no partial
// application visible to callers and no internal retry; "timeout" semantics
// are wall-clock preconditions checked against the engine clock.
type Engine struct {
	mu     sync.Mutex
	log    *slog.Logger
	ledger *Ledger
	now    func() time.Time

	config    *ProgramConfig
	economics *EconomicsConfig
	treasury  *GlobalTreasury

	agents            map[solana.PublicKey]*AgentIdentity
	vaults            map[solana.PublicKey]*AgentVault
	ownerCounters     map[solana.PublicKey]*OwnerAgentCounter
	recoveries        map[solana.PublicKey]*AgentSignerRecovery
	enclaves          map[solana.PublicKey]*Enclave
	enclaveTreasuries map[solana.PublicKey]*EnclaveTreasury
	tips              map[solana.PublicKey]*TipAnchor
	tipEscrows        map[solana.PublicKey]*TipEscrow
	rateLimits        map[solana.PublicKey]*TipperRateLimit
	donations         map[solana.PublicKey]*DonationReceipt
	jobs              map[solana.PublicKey]*JobPosting
	jobEscrows        map[solana.PublicKey]*JobEscrow
	bids              map[solana.PublicKey]*JobBid
	submissions       map[solana.PublicKey]*JobSubmission
	epochs            map[solana.PublicKey]*RewardsEpoch
	claims            map[solana.PublicKey]*RewardsClaimReceipt
	posts             map[solana.PublicKey]*PostAnchor
	votes             map[solana.PublicKey]*ReputationVote
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine clock. Tests use this to drive timelock
// and window preconditions.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New returns an engine over a fresh ledger with the given minimum account
// reserve.
func New(minReserve uint64, opts ...Option) *Engine {
	e := &Engine{
		log:    slog.Default(),
		ledger: NewLedger(minReserve),
		now:    time.Now,

		agents:            make(map[solana.PublicKey]*AgentIdentity),
		vaults:            make(map[solana.PublicKey]*AgentVault),
		ownerCounters:     make(map[solana.PublicKey]*OwnerAgentCounter),
		recoveries:        make(map[solana.PublicKey]*AgentSignerRecovery),
		enclaves:          make(map[solana.PublicKey]*Enclave),
		enclaveTreasuries: make(map[solana.PublicKey]*EnclaveTreasury),
		tips:              make(map[solana.PublicKey]*TipAnchor),
		tipEscrows:        make(map[solana.PublicKey]*TipEscrow),
		rateLimits:        make(map[solana.PublicKey]*TipperRateLimit),
		donations:         make(map[solana.PublicKey]*DonationReceipt),
		jobs:              make(map[solana.PublicKey]*JobPosting),
		jobEscrows:        make(map[solana.PublicKey]*JobEscrow),
		bids:              make(map[solana.PublicKey]*JobBid),
		submissions:       make(map[solana.PublicKey]*JobSubmission),
		epochs:            make(map[solana.PublicKey]*RewardsEpoch),
		claims:            make(map[solana.PublicKey]*RewardsClaimReceipt),
		posts:             make(map[solana.PublicKey]*PostAnchor),
		votes:             make(map[solana.PublicKey]*ReputationVote),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Ledger exposes the balance store (read access for callers, funding for
// genesis/tests).
func (e *Engine) Ledger() *Ledger { return e.ledger }

func (e *Engine) unix() int64 { return e.now().Unix() }

// createAccount charges the payer the minimum reserve for a new
// engine-owned account. The reserve keeps the account alive and is returned
// when the account is closed.
func (e *Engine) createAccount(payer, addr solana.PublicKey) error {
	return e.ledger.Pay(payer, addr, e.ledger.MinReserve())
}

// closeAccount returns an account's full balance (reserve included) to a
// recipient.
func (e *Engine) closeAccount(addr, to solana.PublicKey) error {
	return e.ledger.Transfer(addr, to, e.ledger.Balance(addr))
}
