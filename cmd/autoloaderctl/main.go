// Command autoloaderctl wires the loader facade to process signals
// and runs a minimal demo sequence (get-version, home, report status).
// It is a wiring example, not a REPL-style test driver.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/newpro/autoloader/pkg/loader"
	"github.com/newpro/autoloader/pkg/telemetrybus"
	"github.com/newpro/autoloader/pkg/transport"
)

var (
	addresses = flag.String("addresses", "autoloader,192.168.0.9", "comma-separated candidate hostnames/IPs")
	redisAddr = flag.String("redis-addr", "", "optional Redis address for the live telemetry mirror (disabled if empty)")
	redisPass = flag.String("redis-pass", "", "Redis password")
	redisDB   = flag.Int("redis-db", 0, "Redis database number")
)

func main() {
	flag.Parse()

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Printf("Starting autoloaderctl")

	addrList := strings.Split(*addresses, ",")
	log.Printf("Candidate addresses: %v", addrList)

	opts := []loader.Option{loader.WithAddresses(addrList)}

	if *redisAddr != "" {
		bus, err := telemetrybus.New(*redisAddr, *redisPass, *redisDB)
		if err != nil {
			log.Fatalf("Failed to connect telemetry bus: %v", err)
		}
		defer bus.Close()
		opts = append(opts, loader.WithTelemetryBus(bus))
		log.Printf("Telemetry mirror enabled at %s", *redisAddr)
	}

	l := loader.New(opts...)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		log.Printf("Received %v, stopping device and cancelling in-flight operations", sig)
		transport.Cancel()
		if err := l.Stop(0, nil); err != nil {
			log.Printf("Stop failed: %v", err)
		}
	}()

	if err := l.Enter(); err != nil {
		log.Fatalf("Failed to initialize loader: %v", err)
	}
	defer l.Exit()

	version, subVersion, numberOfSlots, err := l.GetVersion()
	if err != nil {
		log.Fatalf("get_version failed: %v", err)
	}
	log.Printf("Device version=%d sub_version=%d number_of_slots=%d", version, subVersion, numberOfSlots)

	log.Printf("Homing...")
	if err := l.Home(loader.All, true); err != nil {
		log.Fatalf("home failed: %v", err)
	}
	log.Printf("Homed: is_homed=%v", l.IsHomed())

	for slot := 1; slot <= int(numberOfSlots); slot++ {
		log.Printf("Slot %d: %v", slot, l.SlotState(slot))
	}
	log.Printf("Cassette present: %v", l.IsCassettePresent())
	log.Printf("Last error: %v", l.LastError())
}
