// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"flag"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ava-labs/zkledger/programs"
)

const (
	envPrefix = "zkledger"

	versionKey           = "version"
	configFileKey        = "config-file"
	httpHostKey          = "http-host"
	httpPortKey          = "http-port"
	logLevelKey          = "log-level"
	logFormatKey         = "log-format"
	proverKey            = "prover"
	attestationKeyKey    = "attestation-key"
	programTableKey      = "program-table"
	proofConcurrencyKey  = "proof-concurrency"
	readHeaderTimeoutKey = "read-header-timeout"
	shutdownTimeoutKey   = "shutdown-timeout"

	attestProver = "attest"
	devProver    = "dev"
)

type config struct {
	version bool

	httpHost string
	httpPort uint

	logLevel  string
	logFormat string

	prover           string
	attestationKey   string
	programTable     uint16
	proofConcurrency int64

	readHeaderTimeout time.Duration
	shutdownTimeout   time.Duration
}

func buildFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet(Name, flag.ContinueOnError)

	fs.Bool(versionKey, false, "If true, prints the version and quits")
	fs.String(configFileKey, "", "Path to a config file")
	fs.String(httpHostKey, "127.0.0.1", "Address the HTTP server listens on")
	fs.Uint(httpPortKey, 9650, "Port the HTTP server listens on")
	fs.String(logLevelKey, "info", "Log level (debug, info, warn, error, crit)")
	fs.String(logFormatKey, "terminal", "Log format (terminal, json)")
	fs.String(proverKey, attestProver, "Sealing backend of the execution environment (attest, dev)")
	fs.String(attestationKeyKey, "", "Hex encoded secp256k1 attestation key. A fresh key is generated if empty")
	fs.Uint(programTableKey, uint(programs.CurrentVersion), "Version of the program identity table")
	fs.Int64(proofConcurrencyKey, int64(runtime.NumCPU()), "Maximum number of concurrent environment runs")
	fs.Duration(readHeaderTimeoutKey, 10*time.Second, "Maximum duration for reading request headers")
	fs.Duration(shutdownTimeoutKey, 30*time.Second, "Maximum duration for draining requests on shutdown")

	return fs
}

// getViper returns the viper environment for the server binary
func getViper() (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs := buildFlagSet()
	pflag.CommandLine.AddGoFlagSet(fs)
	pflag.Parse()
	if err := v.BindPFlags(pflag.CommandLine); err != nil {
		return nil, err
	}

	if configFile := v.GetString(configFileKey); configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func getConfig() (*config, error) {
	v, err := getViper()
	if err != nil {
		return nil, err
	}
	return &config{
		version:           v.GetBool(versionKey),
		httpHost:          v.GetString(httpHostKey),
		httpPort:          v.GetUint(httpPortKey),
		logLevel:          v.GetString(logLevelKey),
		logFormat:         v.GetString(logFormatKey),
		prover:            v.GetString(proverKey),
		attestationKey:    v.GetString(attestationKeyKey),
		programTable:      uint16(v.GetUint(programTableKey)),
		proofConcurrency:  v.GetInt64(proofConcurrencyKey),
		readHeaderTimeout: v.GetDuration(readHeaderTimeoutKey),
		shutdownTimeout:   v.GetDuration(shutdownTimeoutKey),
	}, nil
}
