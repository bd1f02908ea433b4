// Command clobd runs one exchange process: a matching engine for a
// single numeraire/index trading pair and the TCP server that fronts
// it. Grounded on the teacher's cmd/main.go wiring of net.Server and
// engine.Engine, adapted to clobd's Book/Server pair and a small set of
// flags instead of hardcoded address/port/asset constants.
package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"clobd/internal/common"
	"clobd/internal/engine"
	"clobd/internal/server"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// memLedger is a process-local, in-memory balances ledger. clobd has no
// durable settlement backend of its own; production deployments wire
// settlement.Ledger to a real accounting system instead.
type memLedger struct {
	balances map[common.AssetID]map[string]int64
}

func newMemLedger() *memLedger {
	return &memLedger{balances: make(map[common.AssetID]map[string]int64)}
}

func (l *memLedger) Pull(asset common.AssetID, trader string, amount common.Quantity) error {
	l.adjust(asset, trader, -int64(amount))
	return nil
}

func (l *memLedger) Push(asset common.AssetID, trader string, amount common.Quantity) error {
	l.adjust(asset, trader, int64(amount))
	return nil
}

func (l *memLedger) adjust(asset common.AssetID, trader string, delta int64) {
	byTrader, ok := l.balances[asset]
	if !ok {
		byTrader = make(map[string]int64)
		l.balances[asset] = byTrader
	}
	byTrader[trader] += delta
}

func main() {
	address := flag.String("address", "0.0.0.0", "listen address")
	port := flag.Int("port", 9001, "listen port")
	numeraire := flag.String("numeraire", "USD", "numeraire asset id")
	index := flag.String("index", "IDX", "index asset id")
	verbose := flag.Bool("verbose", false, "debug-level logging")
	flag.Parse()

	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	book := engine.New(newMemLedger(), common.AssetID(*numeraire), common.AssetID(*index))
	srv := server.New(*address, *port, book)

	log.Info().Str("address", *address).Int("port", *port).
		Str("numeraire", *numeraire).Str("index", *index).
		Msg("clobd: starting")

	go srv.Run(ctx)
	<-ctx.Done()
	log.Info().Msg("clobd: shutting down")
}
