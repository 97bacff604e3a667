// Package main: wallet service.
//
// The wallet and the explorer services should share the database: the wallet replies the addresses being monitored
// and keeps the transfers it sends, and the explorer scans for those addresses.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tarancss/hd"

	"github.com/tarancss/suiadp/lib/block"
	"github.com/tarancss/suiadp/lib/config"
	"github.com/tarancss/suiadp/lib/engine"
	"github.com/tarancss/suiadp/lib/logx"
	"github.com/tarancss/suiadp/lib/msg"
	"github.com/tarancss/suiadp/lib/msg/amqp"
	"github.com/tarancss/suiadp/lib/msg/memory"
	"github.com/tarancss/suiadp/lib/store/db"
	"github.com/tarancss/suiadp/wallet"
)

func main() {
	// get command line flags
	confPath := flag.String("c", "", "flag to get configuration from json or yaml file")
	monitor := flag.Bool("m", false, "flag to monitor the server with Prometheus at http://localhost:9100/metrics")
	flag.Parse()

	// extract configuration
	conf, err := config.ExtractConfiguration(*confPath)
	if err != nil {
		panic(err)
	}

	logx.Init(conf.Log)
	logx.Info("MAIN", "Configuration: dbtype=", conf.DBType, " mbtype=", conf.MbType, " networks=", len(conf.Bc))

	// connect to database
	dbConn, err := db.New(conf.DBType, conf.DBConn)
	if err != nil {
		panic(err)
	}

	logx.Info("MAIN", "Connected to ", conf.DBType, " database")

	// load all blockchains
	blocks, err := block.Init(context.Background(), conf.Bc)
	if err != nil {
		panic(err)
	}

	logx.Info("MAIN", "Blockchain clients loaded")

	var opts []wallet.Option

	for _, bc := range conf.Bc {
		eo, err := engine.Options(bc)
		if err != nil {
			panic(err)
		}

		opts = append(opts, wallet.WithEngineOptions(bc.Name, eo...))
	}

	// load Prometheus monitor
	if *monitor {
		go serveMetrics()
	}

	// load message broker
	mb, err := broker(conf.MbType, conf.MbConn)
	if err != nil {
		panic(err)
	}

	// load HD wallet
	seed, err := hex.DecodeString(conf.Seed)
	if err != nil {
		panic(err)
	}

	hdw, err := hd.Init(seed)
	if err != nil {
		panic(err)
	}

	// create wallet service
	w := wallet.New(dbConn, mb, blocks, hdw, opts...)

	// capture CTRL+C or docker's SIGTERM for gracious exit
	finish := make(chan struct{})

	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, os.Interrupt, syscall.SIGTERM)
		<-sigchan
		logx.Warn("MAIN", "Program killed !")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second) //nolint:gomnd // 10 seconds
		defer cancel()

		w.StopWallet(ctx)
		block.End(blocks)
		close(finish)
	}()

	// manage explorer events
	if err := w.ManageEvents(); err != nil {
		logx.Error("MAIN", "Error setting up broker readers for events: ", err)
	}

	// init RESTful API, wait for its return and log response
	logx.Info("MAIN", "Wallet: ", w.Init(conf.RestfulEndpoint, conf.Port, conf.SSLPort, conf.SSLCert, conf.SSLKey))

	<-finish
}

// broker connects to the message broker configured.
func broker(mbType, mbConn string) (msg.MsgBroker, error) {
	var mb msg.MsgBroker

	switch mbType {
	case "memory":
		logx.Warn("MAIN", "In-memory message broker: requests and events stay inside this process")

		mb = memory.New()
	default:
		a, err := amqp.New(mbConn)
		if err != nil {
			time.Sleep(10 * time.Second) //nolint:gomnd // wait 10s for AMQP to be ready and try to reconnect

			if a, err = amqp.New(mbConn); err != nil {
				return nil, err
			}
		}

		mb = a
	}

	return mb, mb.Setup()
}

func serveMetrics() {
	logx.Info("MAIN", "Serving metrics API")

	h := http.NewServeMux()
	h.Handle("/metrics", promhttp.Handler())

	if err := http.ListenAndServe(":9100", h); err != nil { //nolint:gosec // metrics only
		logx.Error("MAIN", "Metrics server: ", err)
	}
}
