// Package main: explorer service.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tarancss/suiadp/explorer"
	"github.com/tarancss/suiadp/lib/block"
	"github.com/tarancss/suiadp/lib/config"
	"github.com/tarancss/suiadp/lib/logx"
	"github.com/tarancss/suiadp/lib/msg"
	"github.com/tarancss/suiadp/lib/msg/amqp"
	"github.com/tarancss/suiadp/lib/msg/memory"
	"github.com/tarancss/suiadp/lib/store/db"
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

	// load all blockchains
	blocks, err := block.Init(context.Background(), conf.Bc)
	if err != nil {
		panic(err)
	}
	defer block.End(blocks)

	logx.Info("MAIN", "Blockchain clients loaded")

	// load Prometheus monitor
	if *monitor {
		go func() {
			logx.Info("MAIN", "Serving metrics API")

			h := http.NewServeMux()
			h.Handle("/metrics", promhttp.Handler())

			if err := http.ListenAndServe(":9100", h); err != nil { //nolint:gosec // metrics only
				logx.Error("MAIN", "Metrics server: ", err)
			}
		}()
	}

	// load message broker
	var mb msg.MsgBroker

	switch conf.MbType {
	case "memory":
		mb = memory.New()
	default:
		a, err := amqp.New(conf.MbConn)
		if err != nil {
			time.Sleep(10 * time.Second) //nolint:gomnd // wait 10s for AMQP to be ready and try to reconnect

			if a, err = amqp.New(conf.MbConn); err != nil {
				panic(err)
			}
		}

		mb = a
	}

	if err = mb.Setup(); err != nil {
		panic(err)
	}

	// create explorer service
	e := explorer.New(dbConn, mb, blocks)

	// capture CTRL+C or docker's SIGTERM for gracious exit
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		logx.Warn("MAIN", "Program killed !")
		e.StopExplorer()
	}()

	// launch explorer (for each network) and wait for all of them to finish
	logx.Info("MAIN", "Explore: ", <-e.Explore(ctx))

	if err = mb.Close(); err != nil {
		logx.Error("MAIN", "Closing message broker: ", err)
	}

	if err = db.Close(dbConn); err != nil {
		logx.Error("MAIN", "Closing database: ", err)
	}
}
