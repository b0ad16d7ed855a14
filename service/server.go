// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package service

import (
	"net/http"

	"github.com/gorilla/rpc/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cjson "github.com/ava-labs/avalanchego/utils/json"
)

const (
	// Endpoint is the path the JSON-RPC services are served on.
	Endpoint        = "/ext/ledger"
	MetricsPath     = "/metrics"
	HealthCheckPath = "/health"
)

// NewRPCServer returns a JSON-RPC server with the ledger service and the
// codec service registered.
func NewRPCServer(s *Service) (*rpc.Server, error) {
	server := rpc.NewServer()
	codec := cjson.NewCodec()
	server.RegisterCodec(codec, "application/json")
	server.RegisterCodec(codec, "application/json;charset=UTF-8")
	if err := server.RegisterService(s, Name); err != nil {
		return nil, err
	}
	if err := server.RegisterService(CreateCodecService(), CodecName); err != nil {
		return nil, err
	}
	return server, nil
}

// NewHandler returns the HTTP handler of the ledger node. Metrics are served
// from [gatherer].
func NewHandler(s *Service, gatherer prometheus.Gatherer) (http.Handler, error) {
	server, err := NewRPCServer(s)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle(Endpoint, server)
	mux.Handle(MetricsPath, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc(HealthCheckPath, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux, nil
}
