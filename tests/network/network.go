// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// network implements an interface for setting up a default network for testing purposes.
package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/zkledger/guest"
	"github.com/ava-labs/zkledger/programs"
	"github.com/ava-labs/zkledger/service"
	"github.com/ava-labs/zkledger/zkvm"
)

var (
	_ StaticNetwork = (*existingNetwork)(nil)
	_ StaticNetwork = (*LocalNetwork)(nil)

	errAlreadyStarted = errors.New("network already started")
	errNotStarted     = errors.New("network not started")
)

// Network supports a basic interface for setting up, interacting with, and destructing a network.
// This interface is intended to be used by tests that do not need to change the underlying state
// of the net
type StaticNetwork interface {
	CreateDefault(context.Context) error
	URIs(context.Context) ([]string, error)
	Teardown(context.Context) error
}

// existingNetwork implements the StaticNetwork interface and assumes that the network
// has already been constructed and does not require any startup/teardown.
type existingNetwork struct {
	uris []string
}

func NewExistingNetwork(uris []string) StaticNetwork {
	return &existingNetwork{
		uris: uris,
	}
}

func (e *existingNetwork) CreateDefault(context.Context) error    { return nil }
func (e *existingNetwork) URIs(context.Context) ([]string, error) { return e.uris, nil }
func (e *existingNetwork) Teardown(context.Context) error         { return nil }

// LocalNetworkConfig configures a set of in-process ledger nodes.
type LocalNetworkConfig struct {
	Nodes            int    `json:"nodes" yaml:"nodes"`
	Host             string `json:"host" yaml:"host"`
	ProofConcurrency int64  `json:"proof-concurrency" yaml:"proof-concurrency"`
	// Dev selects the dev sealer instead of a shared attestation key.
	Dev bool `json:"dev" yaml:"dev"`
}

type localNode struct {
	server   *http.Server
	listener net.Listener
	done     chan error
}

// LocalNetwork runs ledger nodes in the current process. All nodes share
// one sealer so a receipt created on one node validates on every other.
type LocalNetwork struct {
	config LocalNetworkConfig

	lock   sync.Mutex
	sealer zkvm.Sealer
	nodes  []*localNode
}

// NewLocalNetwork returns an unstarted network of in-process nodes.
func NewLocalNetwork(config LocalNetworkConfig) *LocalNetwork {
	if config.Nodes <= 0 {
		config.Nodes = 1
	}
	if config.Host == "" {
		config.Host = "127.0.0.1"
	}
	return &LocalNetwork{config: config}
}

// Sealer returns the sealer shared by the nodes once the network is started.
func (n *LocalNetwork) Sealer() zkvm.Sealer {
	n.lock.Lock()
	defer n.lock.Unlock()

	return n.sealer
}

func (n *LocalNetwork) CreateDefault(ctx context.Context) error {
	n.lock.Lock()
	defer n.lock.Unlock()

	if n.nodes != nil {
		return errAlreadyStarted
	}
	log.Info("Starting local network", "nodes", n.config.Nodes, "dev", n.config.Dev)

	if n.config.Dev {
		n.sealer = zkvm.DevSealer{}
	} else {
		sealer, err := zkvm.GenerateAttestSealer()
		if err != nil {
			return err
		}
		n.sealer = sealer
	}

	table := programs.Current()
	for i := 0; i < n.config.Nodes; i++ {
		node, err := n.startNode(i, table)
		if err != nil {
			n.stop(ctx)
			return fmt.Errorf("couldn't start node %d: %w", i, err)
		}
		n.nodes = append(n.nodes, node)
	}

	log.Info("Waiting for network to report healthy...")
	for _, node := range n.nodes {
		if err := waitHealthy(ctx, "http://"+node.listener.Addr().String()); err != nil {
			n.stop(ctx)
			return err
		}
	}
	log.Info("Network reporting healthy.")
	return nil
}

func (n *LocalNetwork) startNode(i int, table programs.Table) (*localNode, error) {
	logger := log.New("node", i)
	env, err := guest.NewExecutor(n.sealer, table, zkvm.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	registry := prometheus.NewRegistry()
	svc, err := service.New(env, table, service.Config{
		Concurrency: n.config.ProofConcurrency,
		Logger:      logger,
		Registerer:  registry,
	})
	if err != nil {
		return nil, err
	}
	handler, err := service.NewHandler(svc, registry)
	if err != nil {
		return nil, err
	}

	listener, err := net.Listen("tcp", net.JoinHostPort(n.config.Host, "0"))
	if err != nil {
		return nil, err
	}
	node := &localNode{
		server: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		listener: listener,
		done:     make(chan error, 1),
	}
	go func() {
		node.done <- node.server.Serve(listener)
	}()
	return node, nil
}

func waitHealthy(ctx context.Context, uri string) error {
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri+service.HealthCheckPath, nil)
		if err != nil {
			return err
		}
		resp, err := http.DefaultClient.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func (n *LocalNetwork) URIs(context.Context) ([]string, error) {
	n.lock.Lock()
	defer n.lock.Unlock()

	if n.nodes == nil {
		return nil, errNotStarted
	}
	uris := make([]string, 0, len(n.nodes))
	for _, node := range n.nodes {
		uris = append(uris, "http://"+node.listener.Addr().String())
	}
	return uris, nil
}

func (n *LocalNetwork) Teardown(ctx context.Context) error {
	n.lock.Lock()
	defer n.lock.Unlock()

	log.Info("Shutting down network.")
	err := n.stop(ctx)
	if err != nil {
		return err
	}
	log.Info("Successfully stopped the network.")
	return nil
}

func (n *LocalNetwork) stop(ctx context.Context) error {
	var firstErr error
	for _, node := range n.nodes {
		if err := node.server.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := <-node.done; !errors.Is(err, http.ErrServerClosed) && firstErr == nil {
			firstErr = err
		}
	}
	n.nodes = nil
	return firstErr
}
