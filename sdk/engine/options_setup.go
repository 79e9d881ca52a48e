package engine

import (
	"github.com/cgcardona/Stori-sub007/internal/automation"
	"github.com/cgcardona/Stori-sub007/internal/logger"
	"github.com/cgcardona/Stori-sub007/internal/transport"
	"github.com/cgcardona/Stori-sub007/sdk/contracts"
)

// defaultClientName is the name registered with the platform MIDI
// service when no option overrides it.
const defaultClientName = "Stori MIDI"

// applyDefaultOptions sets default values for EngineOptions if not
// explicitly provided.
func applyDefaultOptions(opts ...contracts.Option) contracts.EngineOptions {
	options := &contracts.EngineOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}
	if options.ClientName == "" {
		options.ClientName = defaultClientName
	}
	if options.QueueCapacity <= 0 {
		options.QueueCapacity = transport.DefaultQueueCapacity
	}
	if options.AutomationInterval <= 0 {
		options.AutomationInterval = automation.DefaultInterval
	}
	if options.Clock == nil {
		options.Clock = newSystemClock(defaultTempo)
	}

	options.Logger.SetLevel(options.LogLevel)
	return *options
}
