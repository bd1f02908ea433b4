// Command clobctl is a thin CLI client for clobd: it places, cancels,
// and queries orders over the wire protocol and prints whatever
// execution or error reports come back. Grounded on the teacher's
// cmd/client/client.go (flag-driven action dispatch, background report
// reader), rewritten against internal/wire's typed messages instead of
// hand-packed byte buffers.
package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"strings"

	"clobd/internal/common"
	"clobd/internal/wire"
)

func main() {
	serverAddr := flag.String("server", "127.0.0.1:9001", "address of the exchange server")
	trader := flag.String("trader", "", "trader name (required)")
	action := flag.String("action", "place", "action to perform: place, cancel, depth, log")

	sideStr := flag.String("side", "buy", "order side: buy or sell")
	kindStr := flag.String("kind", "limit", "order kind: limit or market")
	price := flag.Uint64("price", 100, "limit price (ignored for market orders)")
	qty := flag.Uint64("qty", 10, "order quantity")

	orderID := flag.Uint64("order", 0, "order id to cancel")

	flag.Parse()

	if *trader == "" {
		fmt.Println("error: -trader is required")
		flag.Usage()
		os.Exit(1)
	}

	conn, err := net.Dial("tcp", *serverAddr)
	if err != nil {
		log.Fatalf("failed to connect to %s: %v", *serverAddr, err)
	}
	defer conn.Close()
	fmt.Printf("connected to %s as %q\n", *serverAddr, *trader)

	go readReports(conn)

	side := common.Bid
	if strings.EqualFold(*sideStr, "sell") {
		side = common.Ask
	}
	kind := common.Limit
	if strings.EqualFold(*kindStr, "market") {
		kind = common.Market
	}

	var msg interface{ Encode() []byte }
	switch strings.ToLower(*action) {
	case "place":
		msg = wire.NewOrderMessage{
			Kind:     kind,
			Side:     side,
			Price:    common.Price(*price),
			Quantity: common.Quantity(*qty),
			Trader:   *trader,
		}
	case "cancel":
		if *orderID == 0 {
			log.Fatal("error: -order is required for cancel")
		}
		msg = wire.CancelOrderMessage{OrderID: common.OrderID(*orderID)}
	case "depth":
		msg = wire.DepthQueryMessage{Price: common.Price(*price)}
	case "log":
		msg = wire.LogBookMessage{}
	default:
		log.Fatalf("unknown action: %s", *action)
	}

	if _, err := conn.Write(msg.Encode()); err != nil {
		log.Fatalf("failed to send %s: %v", *action, err)
	}
	fmt.Printf("-> sent %s\n", *action)

	fmt.Println("listening for reports... (press Ctrl+C to exit)")
	select {}
}

func readReports(conn net.Conn) {
	buf := make([]byte, 4*1024)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			fmt.Printf("connection closed: %v\n", err)
			os.Exit(0)
		}
		report, err := wire.DeserializeReport(buf[:n])
		if err != nil {
			fmt.Printf("malformed report: %v\n", err)
			continue
		}
		printReport(report)
	}
}

func printReport(r wire.Report) {
	if r.Type == wire.ErrorReport {
		fmt.Printf("\n[error] %s\n", r.Err)
		return
	}
	sideStr := "BUY"
	if r.Side == common.Ask {
		sideStr = "SELL"
	}
	label := "execution"
	if r.Type == wire.FillReport {
		label = "fill"
	}
	fmt.Printf("\n[%s] order=%d side=%s qty=%s price=%s counterparty=%q\n",
		label, r.OrderID, sideStr, strconv.FormatUint(uint64(r.Quantity), 10),
		strconv.FormatUint(uint64(r.Price), 10), r.Counterparty)
}
