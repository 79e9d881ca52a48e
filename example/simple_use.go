package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/cgcardona/Stori-sub007/internal/logger"
	"github.com/cgcardona/Stori-sub007/sdk/contracts"
	"github.com/cgcardona/Stori-sub007/sdk/engine"
)

func main() {
	log := logger.NewZapLogger()

	e, err := engine.New(
		contracts.WithLogger(log),
		contracts.WithLogLevel(contracts.InfoLevel),
		contracts.WithClientName("Stori Example"),
		contracts.WithQuantizeGrid(0.25),
		contracts.WithHooks(contracts.Hooks{
			Message: func(s string) {
				log.Info("MIDI event", log.Field().String("event", s))
			},
			TopologyChanged: func() {
				log.Info("device topology changed")
			},
		}),
	)
	if err != nil {
		log.Error("Failed to initialize MIDI engine", log.Field().Error("error", err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)
	defer e.Close()

	if !e.Ready() {
		fmt.Println("No MIDI driver available; running uninitialized.")
	}

	devices := e.ScanDevices()
	if len(devices) == 0 {
		fmt.Println("No MIDI devices found.")
	}
	for _, d := range devices {
		fmt.Printf("  %-6s %s (%s)\n", d.Direction, d.Name, d.ID)
	}

	if err := e.ConnectAll(); err != nil {
		log.Error("Failed to connect inputs", log.Field().Error("error", err))
	}

	fmt.Println("Listening for MIDI events... Press Ctrl+C to exit.")
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig
}
