// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ava-labs/avalanchego/utils/formatting"
	log "github.com/inconshreveable/log15"
	"gopkg.in/yaml.v3"

	"github.com/ava-labs/zkledger/tests/network"
	"github.com/ava-labs/zkledger/zkvm"
)

var (
	networkConfigString string
	outputPath          string
	config              network.LocalNetworkConfig
)

func init() {
	flag.StringVar(
		&networkConfigString,
		"network-config",
		`
nodes: 3
host: 127.0.0.1
proof-concurrency: 4
dev: false
`,
		"Full local network config (YAML)",
	)
	flag.StringVar(
		&outputPath,
		"output-path",
		"",
		"output YAML path to write local cluster information",
	)
}

// clusterInfo is written to --output-path.
type clusterInfo struct {
	URIs      []string `yaml:"uris"`
	PublicKey string   `yaml:"publicKey,omitempty"`
	Pid       int      `yaml:"pid"`
}

func writeClusterInfo(uris []string, sealer zkvm.Sealer) error {
	info := clusterInfo{URIs: uris, Pid: os.Getpid()}
	if attest, ok := sealer.(*zkvm.AttestSealer); ok {
		pub, err := formatting.EncodeWithChecksum(formatting.Hex, attest.PublicKey())
		if err != nil {
			return err
		}
		info.PublicKey = pub
	}
	b, err := yaml.Marshal(&info)
	if err != nil {
		return err
	}
	if outputPath == "" {
		fmt.Print(string(b))
		return nil
	}
	return os.WriteFile(outputPath, b, 0o600)
}

func run(ctx context.Context, quit <-chan struct{}) error {
	if len(networkConfigString) == 0 {
		return errors.New("cannot start network with empty config")
	}

	err := yaml.Unmarshal([]byte(networkConfigString), &config)
	if err != nil {
		return fmt.Errorf("failed to unmarshal network config: %w", err)
	}

	net := network.NewLocalNetwork(config)
	if err := net.CreateDefault(ctx); err != nil {
		return fmt.Errorf("failed to construct default network: %w", err)
	}

	uris, err := net.URIs(ctx)
	if err == nil {
		err = writeClusterInfo(uris, net.Sealer())
	}
	if err == nil {
		select {
		case <-ctx.Done():
			err = ctx.Err()
		case <-quit: // Leave the error nil
		}
	}

	teardownErr := net.Teardown(context.Background())
	if err == nil {
		err = teardownErr
	}

	return err
}

func main() {
	flag.Parse()
	ctx := context.Background()
	quit := make(chan struct{})

	// register signals to kill the application
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT)
	signal.Notify(signals, syscall.SIGTERM)

	// Close the quit channel after receiving a signal for a graceful shutdown.
	go func() {
		<-signals
		close(quit)
	}()

	if err := run(ctx, quit); err != nil {
		log.Error("local network failed", "err", err)
		os.Exit(1)
	}

	log.Info("Terminated successfully.")
}
