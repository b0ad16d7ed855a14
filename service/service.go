// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package service exposes the ledger over JSON-RPC. The service keeps no
// ledger of its own: every CreateReceipt call carries the state it applies
// to, so callers are responsible for ordering their own transactions.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/semaphore"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/zkledger/ledger"
	"github.com/ava-labs/zkledger/maintainer"
	"github.com/ava-labs/zkledger/programs"
	"github.com/ava-labs/zkledger/receipt"
	"github.com/ava-labs/zkledger/zkvm"
)

// Name is the name the ledger service is registered under.
const Name = "ledger"

var errNilEnvironment = errors.New("nil execution environment")

// Config configures a Service.
type Config struct {
	// Concurrency bounds the environment runs in flight. Defaults to the
	// number of CPUs.
	Concurrency int64
	Logger      log.Logger
	Registerer  prometheus.Registerer
}

// Service is the API service for the ledger
type Service struct {
	env     zkvm.Environment
	table   programs.Table
	log     log.Logger
	metrics *metrics
	sem     *semaphore.Weighted
}

// New returns a Service running programs of [table] in [env].
func New(env zkvm.Environment, table programs.Table, config Config) (*Service, error) {
	if env == nil {
		return nil, errNilEnvironment
	}
	if config.Concurrency <= 0 {
		config.Concurrency = int64(runtime.NumCPU())
	}
	if config.Logger == nil {
		config.Logger = log.Root()
	}
	if config.Registerer == nil {
		config.Registerer = prometheus.NewRegistry()
	}
	m, err := newMetrics(config.Registerer)
	if err != nil {
		return nil, fmt.Errorf("couldn't register metrics: %w", err)
	}
	return &Service{
		env:     env,
		table:   table,
		log:     config.Logger,
		metrics: m,
		sem:     semaphore.NewWeighted(config.Concurrency),
	}, nil
}

// CreateReceiptArgs are the arguments to CreateReceipt. Every field is the
// hex encoding of a codec payload.
type CreateReceiptArgs struct {
	Transaction string `json:"transaction"`
	Signatures  string `json:"signatures"`
	LedgerState string `json:"ledgerState"`
}

// CreateReceiptReply is the reply from CreateReceipt
type CreateReceiptReply struct {
	Receipt        string `json:"receipt"`
	ReceiptID      ids.ID `json:"receiptID"`
	NewLedgerState string `json:"newLedgerState"`
}

// CreateReceipt applies a transaction to the supplied ledger state and
// returns the receipt of the transition together with the new state.
func (s *Service) CreateReceipt(r *http.Request, args *CreateReceiptArgs, reply *CreateReceiptReply) error {
	requestID := uuid.New()
	logger := s.log.New("requestID", requestID)

	if err := s.createReceipt(requestContext(r), logger, args, reply); err != nil {
		s.metrics.failures.WithLabelValues("createReceipt").Inc()
		logger.Debug("createReceipt failed", "error", err)
		return err
	}
	s.metrics.receipts.Inc()
	return nil
}

func (s *Service) createReceipt(ctx context.Context, logger log.Logger, args *CreateReceiptArgs, reply *CreateReceiptReply) error {
	txBytes, err := decodeHex("transaction", args.Transaction)
	if err != nil {
		return err
	}
	tx, err := ledger.ParseTransaction(txBytes)
	if err != nil {
		return err
	}
	sigBytes, err := decodeHex("signatures", args.Signatures)
	if err != nil {
		return err
	}
	// Signatures are not checked against the transaction.
	sigs, err := ledger.ParseSignatures(sigBytes)
	if err != nil {
		return err
	}
	stateBytes, err := decodeHex("ledgerState", args.LedgerState)
	if err != nil {
		return err
	}
	state, err := ledger.ParseLedgerState(stateBytes)
	if err != nil {
		return err
	}

	m, err := maintainer.New(s.env, s.table, state, maintainer.WithLogger(logger))
	if err != nil {
		return err
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	start := time.Now()
	msg, err := m.Issue(ctx, tx)
	s.metrics.execution.WithLabelValues("issue").Observe(time.Since(start).Seconds())
	s.sem.Release(1)
	if err != nil {
		return err
	}

	r := msg.Receipt()
	receiptBytes, err := r.Bytes()
	if err != nil {
		return err
	}
	receiptID, err := r.ID()
	if err != nil {
		return err
	}
	newStateBytes, err := m.State().Bytes()
	if err != nil {
		return err
	}

	reply.Receipt, err = formatting.EncodeWithChecksum(formatting.Hex, receiptBytes)
	if err != nil {
		return fmt.Errorf("couldn't encode receipt as string: %w", err)
	}
	reply.NewLedgerState, err = formatting.EncodeWithChecksum(formatting.Hex, newStateBytes)
	if err != nil {
		return fmt.Errorf("couldn't encode ledger state as string: %w", err)
	}
	reply.ReceiptID = receiptID

	logger.Info("created receipt",
		"receiptID", receiptID,
		"sender", tx.Sender,
		"receiver", tx.Receiver,
		"tokens", tx.Tokens,
		"signatures", len(sigs.Values),
	)
	return nil
}

// ValidationArgs are the arguments to Validation. MethodID selects the
// program the receipt is checked against: 1 for Init, 2 for Issue.
type ValidationArgs struct {
	Receipt  string `json:"receipt"`
	MethodID int32  `json:"methodID"`
}

// ValidationReply is the reply from Validation
type ValidationReply struct {
	Valid bool `json:"valid"`
}

// Validation reports whether a receipt was produced by the program selected
// by MethodID. Any other MethodID is never valid. Only malformed receipt
// bytes produce an error; a failed verification is reported as invalid.
func (s *Service) Validation(r *http.Request, args *ValidationArgs, reply *ValidationReply) error {
	requestID := uuid.New()
	logger := s.log.New("requestID", requestID)

	valid, err := s.validate(requestContext(r), args)
	if err != nil {
		s.metrics.failures.WithLabelValues("validation").Inc()
		logger.Debug("validation failed", "error", err)
		return err
	}
	reply.Valid = valid

	s.metrics.validations.WithLabelValues(validLabel(valid)).Inc()
	logger.Debug("validated receipt", "methodID", args.MethodID, "valid", valid)
	return nil
}

func (s *Service) validate(ctx context.Context, args *ValidationArgs) (bool, error) {
	kind, ok := programs.KindFromMethodID(args.MethodID)
	if !ok {
		return false, nil
	}

	receiptBytes, err := decodeHex("receipt", args.Receipt)
	if err != nil {
		return false, err
	}
	r, err := zkvm.ParseReceipt(receiptBytes)
	if err != nil {
		return false, ledger.DecodeError(err)
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer s.sem.Release(1)

	start := time.Now()
	defer func() {
		s.metrics.execution.WithLabelValues("verify").Observe(time.Since(start).Seconds())
	}()
	return Valid(s.env, s.table, kind, r)
}

// Valid reports whether [r] verifies against the identity of [kind].
func Valid(v zkvm.Verifier, t programs.Table, kind programs.Kind, r *zkvm.Receipt) (bool, error) {
	switch kind {
	case programs.Init:
		msg, err := receipt.NewInit(v, t, r)
		if err != nil {
			return false, err
		}
		return msg.Verify(), nil
	case programs.Issue:
		msg, err := receipt.NewIssue(v, t, r)
		if err != nil {
			return false, err
		}
		return msg.Verify(), nil
	default:
		return false, nil
	}
}

func decodeHex(field, s string) ([]byte, error) {
	b, err := formatting.Decode(formatting.Hex, s)
	if err != nil {
		return nil, ledger.DecodeError(fmt.Errorf("couldn't decode %s: %w", field, err))
	}
	return b, nil
}

func requestContext(r *http.Request) context.Context {
	if r == nil {
		return context.Background()
	}
	return r.Context()
}

func validLabel(valid bool) string {
	if valid {
		return "valid"
	}
	return "invalid"
}
