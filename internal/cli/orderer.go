/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/litefab/litefab/internal/broadcaster"
	"github.com/litefab/litefab/internal/config"
	"github.com/litefab/litefab/internal/flogging"
	"github.com/litefab/litefab/internal/idcrypto"
	"github.com/litefab/litefab/internal/ledgerstore"
	"github.com/litefab/litefab/internal/metrics"
	"github.com/litefab/litefab/internal/model"
	"github.com/litefab/litefab/internal/msp"
	"github.com/litefab/litefab/internal/ordererapi"
	"github.com/litefab/litefab/internal/orderer/solo"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var ordererLogger = flogging.MustGetLogger("cli.orderer")

// StartOrdererCmd starts a Solo orderer node: it accepts submitted
// envelopes, cuts them into blocks, persists each block to its
// own ledger store, and broadcasts it to every configured peer.
func StartOrdererCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start-orderer <config.yaml>",
		Short: "Start a litefab Solo orderer node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrderer(args[0])
		},
	}
}

func runOrderer(configPath string) error {
	cfg, err := config.LoadOrdererConfig(configPath)
	if err != nil {
		return err
	}
	privKey, err := config.LoadIdentityKey(cfg.Identity)
	if err != nil {
		return err
	}

	m, err := msp.Load(cfg.MSP)
	if err != nil {
		return errors.Wrap(err, "orderer: loading MSP")
	}

	ledger, err := ledgerstore.Open(cfg.DataDir + "/ledger")
	if err != nil {
		return errors.Wrap(err, "orderer: opening ledger store")
	}
	defer ledger.Close()

	bcast := broadcaster.New(cfg.PeerAddrs, 5*time.Second)

	sign := func(data []byte) (string, error) { return idcrypto.Sign(privKey, data) }
	sink := func(block model.Block) {
		if err := ledger.PutBlock(block, true); err != nil {
			ordererLogger.Errorw("failed persisting cut block", "number", block.Header.Number, "error", err.Error())
			return
		}
		bcast.Broadcast(block)
	}

	metricsProvider := &metrics.PrometheusProvider{}
	consensus := solo.New(ledger, cfg.Identity.ID, sign, sink,
		solo.WithBlockSize(cfg.BlockSize),
		solo.WithBlockTimeout(cfg.BlockTimeout),
		solo.WithMetrics(metricsProvider))

	stopRun := make(chan struct{})
	go consensus.Run(stopRun)

	srv := ordererapi.New(m, consensus, ledger)
	mux := http.NewServeMux()
	mux.Handle("/metrics", metricsProvider.Handler())
	mux.Handle("/", srv)
	httpSrv := &http.Server{Addr: cfg.ListenAddr, Handler: mux}

	serveErr := make(chan error, 1)
	go func() {
		ordererLogger.Infow("orderer listening", "addr", cfg.ListenAddr, "channel", cfg.Channel)
		serveErr <- httpSrv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		close(stopRun)
		if err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, "orderer: http server failed")
		}
	case sig := <-stop:
		ordererLogger.Infow("shutting down", "signal", sig.String())
		close(stopRun)
		if err := consensus.Cut(); err != nil {
			ordererLogger.Errorw("failed flushing pending batch on shutdown", "error", err.Error())
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(ctx); err != nil {
			return errors.Wrap(err, "orderer: graceful shutdown failed")
		}
	}
	return nil
}
