// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package zkvm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ava-labs/avalanchego/ids"

	log "github.com/inconshreveable/log15"
)

// DefaultMaxJournalSize bounds the journal a program may commit.
const DefaultMaxJournalSize = 64 * 1024

var (
	errDuplicateProgram = errors.New("program already registered")
	errNilReceipt       = fmt.Errorf("%w: nil receipt", ErrVerification)

	_ Environment = &Executor{}
)

// Executor is an in-process Environment. Programs are registered under their
// identity and sealed by the configured Sealer.
type Executor struct {
	lock     sync.RWMutex
	programs map[ids.ID]Program

	sealer         Sealer
	maxJournalSize int
	log            log.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithMaxJournalSize overrides DefaultMaxJournalSize.
func WithMaxJournalSize(size int) ExecutorOption {
	return func(e *Executor) { e.maxJournalSize = size }
}

// WithLogger sets the executor's logger.
func WithLogger(logger log.Logger) ExecutorOption {
	return func(e *Executor) { e.log = logger }
}

// NewExecutor returns an Executor with no programs registered.
func NewExecutor(sealer Sealer, opts ...ExecutorOption) *Executor {
	e := &Executor{
		programs:       make(map[ids.ID]Program),
		sealer:         sealer,
		maxJournalSize: DefaultMaxJournalSize,
		log:            log.Root(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Register makes [program] runnable under [programID].
func (e *Executor) Register(programID ids.ID, program Program) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	if _, ok := e.programs[programID]; ok {
		return fmt.Errorf("%w: %s", errDuplicateProgram, programID)
	}
	e.programs[programID] = program
	return nil
}

// Run implements Environment.
func (e *Executor) Run(ctx context.Context, programID ids.ID, input []byte) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, ExecutionError(err)
	}

	e.lock.RLock()
	program, ok := e.programs[programID]
	e.lock.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProgram, programID)
	}

	g := newGuest(input)
	if err := execute(program, g); err != nil {
		e.log.Debug("program failed", "programID", programID, "error", err)
		return nil, ExecutionError(err)
	}
	if len(g.journal) > e.maxJournalSize {
		return nil, fmt.Errorf("%w: journal of %d bytes exceeds %d", ErrExecution, len(g.journal), e.maxJournalSize)
	}

	seal, err := e.sealer.Seal(programID, g.journal)
	if err != nil {
		return nil, ExecutionError(fmt.Errorf("couldn't seal journal: %w", err))
	}
	return &Session{
		Receipt: &Receipt{
			Journal: g.journal,
			Seal:    seal,
		},
		Output: g.output,
	}, nil
}

// Verify implements Environment.
func (e *Executor) Verify(receipt *Receipt, programID ids.ID) error {
	return e.sealer.Verify(receipt, programID)
}

func execute(program Program, g *guest) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("program panicked: %v", r)
		}
	}()
	return program(g)
}
