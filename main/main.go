// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/zkledger/guest"
	"github.com/ava-labs/zkledger/programs"
	"github.com/ava-labs/zkledger/service"
	"github.com/ava-labs/zkledger/zkvm"
)

const (
	Name    = "zkledger"
	Version = "v0.1.0"
)

var errUnknownProver = errors.New("unknown prover")

func main() {
	cfg, err := getConfig()
	if err != nil {
		fmt.Printf("couldn't get config: %s\n", err)
		os.Exit(1)
	}
	// Print version and exit
	if cfg.version {
		fmt.Printf("%s@%s\n", Name, Version)
		os.Exit(0)
	}

	if err := setupLogging(cfg); err != nil {
		fmt.Printf("couldn't configure logging: %s\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Crit("server returned an error", "error", err)
		os.Exit(1)
	}
}

func setupLogging(cfg *config) error {
	lvl, err := log.LvlFromString(cfg.logLevel)
	if err != nil {
		return err
	}
	var format log.Format
	switch cfg.logFormat {
	case "terminal":
		format = log.TerminalFormat()
	case "json":
		format = log.JsonFormat()
	default:
		return fmt.Errorf("unknown log format %q", cfg.logFormat)
	}
	log.Root().SetHandler(log.LvlFilterHandler(lvl, log.StreamHandler(os.Stderr, format)))
	return nil
}

func buildSealer(cfg *config) (zkvm.Sealer, error) {
	switch cfg.prover {
	case attestProver:
		var (
			sealer *zkvm.AttestSealer
			err    error
		)
		if cfg.attestationKey == "" {
			sealer, err = zkvm.GenerateAttestSealer()
			log.Warn("no attestation key configured, using an ephemeral key")
		} else {
			var keyBytes []byte
			keyBytes, err = formatting.Decode(formatting.Hex, cfg.attestationKey)
			if err != nil {
				return nil, fmt.Errorf("couldn't decode attestation key: %w", err)
			}
			sealer, err = zkvm.ParseAttestSealer(keyBytes)
		}
		if err != nil {
			return nil, err
		}
		pub, err := formatting.EncodeWithChecksum(formatting.Hex, sealer.PublicKey())
		if err != nil {
			return nil, err
		}
		log.Info("attestation sealer ready", "publicKey", pub)
		return sealer, nil
	case devProver:
		log.Warn("using the dev sealer, receipts can be forged")
		return zkvm.DevSealer{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownProver, cfg.prover)
	}
}

func run(ctx context.Context, cfg *config) error {
	table, err := programs.Lookup(cfg.programTable)
	if err != nil {
		return err
	}
	sealer, err := buildSealer(cfg)
	if err != nil {
		return err
	}
	env, err := guest.NewExecutor(sealer, table, zkvm.WithLogger(log.New("module", "zkvm")))
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		return err
	}
	if err := registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return err
	}
	svc, err := service.New(env, table, service.Config{
		Concurrency: cfg.proofConcurrency,
		Logger:      log.New("module", "service"),
		Registerer:  registry,
	})
	if err != nil {
		return err
	}
	handler, err := service.NewHandler(svc, registry)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.httpHost, strconv.FormatUint(uint64(cfg.httpPort), 10)),
		Handler:           handler,
		ReadHeaderTimeout: cfg.readHeaderTimeout,
	}

	errs := make(chan error, 1)
	go func() {
		log.Info("serving ledger API",
			"address", server.Addr,
			"endpoint", service.Endpoint,
			"programTable", table.Version,
			"prover", cfg.prover,
		)
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
