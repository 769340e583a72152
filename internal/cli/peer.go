/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/litefab/litefab/chaincode/basic"
	"github.com/litefab/litefab/internal/chaincode"
	"github.com/litefab/litefab/internal/committer"
	"github.com/litefab/litefab/internal/config"
	"github.com/litefab/litefab/internal/endorser"
	"github.com/litefab/litefab/internal/flogging"
	"github.com/litefab/litefab/internal/ledgerstore"
	"github.com/litefab/litefab/internal/metrics"
	"github.com/litefab/litefab/internal/model"
	"github.com/litefab/litefab/internal/msp"
	"github.com/litefab/litefab/internal/peerapi"
	"github.com/litefab/litefab/internal/worldstate"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var peerLogger = flogging.MustGetLogger("cli.peer")

// StartPeerCmd starts a peer node: an endorser and committer over a
// shared world-state and ledger store, exposed on peerapi's four HTTP
// routes, forwarding /submit to the configured orderer(s).
func StartPeerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start-peer <config.yaml>",
		Short: "Start a litefab peer node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPeer(args[0])
		},
	}
}

// httpOrdererForwarder satisfies peerapi.OrdererForwarder by POSTing to the
// configured orderer addresses in configured order, moving to the next on
// failure, mirroring the client's own retry policy since a forwarding peer
// is itself just a client of the orderer. Every call starts from the first
// address; the starting orderer is not rotated between calls.
type httpOrdererForwarder struct {
	addrs []string
	http  *http.Client
}

func (f *httpOrdererForwarder) Submit(env model.TransactionEnvelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}
	var lastErr error
	for _, addr := range f.addrs {
		resp, err := f.http.Post(addr+"/submit", "application/json", bytes.NewReader(body))
		if err != nil {
			lastErr = err
			continue
		}
		func() {
			defer resp.Body.Close()
			if resp.StatusCode >= 300 {
				var out struct {
					Error string `json:"error"`
				}
				_ = json.NewDecoder(resp.Body).Decode(&out)
				lastErr = fmt.Errorf("orderer %s: %s", addr, out.Error)
				return
			}
			lastErr = nil
		}()
		if lastErr == nil {
			return nil
		}
	}
	return errors.Wrap(lastErr, "peer: forwarding submit failed against every configured orderer")
}

func runPeer(configPath string) error {
	cfg, err := config.LoadPeerConfig(configPath)
	if err != nil {
		return err
	}
	privKey, err := config.LoadIdentityKey(cfg.Identity)
	if err != nil {
		return err
	}

	m, err := msp.Load(cfg.MSP)
	if err != nil {
		return errors.Wrap(err, "peer: loading MSP")
	}

	state, err := worldstate.Open(cfg.DataDir + "/worldstate")
	if err != nil {
		return errors.Wrap(err, "peer: opening world state")
	}
	defer state.Close()

	ledger, err := ledgerstore.Open(cfg.DataDir + "/ledger")
	if err != nil {
		return errors.Wrap(err, "peer: opening ledger store")
	}
	defer ledger.Close()

	host := chaincode.NewHost()
	host.Register("basic", basic.Chaincode{})

	metricsProvider := &metrics.PrometheusProvider{}
	e := endorser.New(cfg.Identity.ID, cfg.Identity.OrgID, privKey, m, host, state, cfg.Channel)
	c := committer.New(m, state, ledger, cfg.Channel, metricsProvider)
	forwarder := &httpOrdererForwarder{addrs: cfg.OrdererAddrs, http: &http.Client{Timeout: cfg.RequestTimeout}}

	srv := peerapi.New(e, c, state, cfg.Channel, forwarder)
	mux := http.NewServeMux()
	mux.Handle("/metrics", metricsProvider.Handler())
	mux.Handle("/", srv)
	httpSrv := &http.Server{Addr: cfg.ListenAddr, Handler: mux}

	serveErr := make(chan error, 1)
	go func() {
		peerLogger.Infow("peer listening", "addr", cfg.ListenAddr, "channel", cfg.Channel)
		serveErr <- httpSrv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, "peer: http server failed")
		}
	case sig := <-stop:
		peerLogger.Infow("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(ctx); err != nil {
			return errors.Wrap(err, "peer: graceful shutdown failed")
		}
	}
	return nil
}
