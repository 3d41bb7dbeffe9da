//go:build wireinject
// +build wireinject

package di

import (
	"CrowdPulse/pkg/config"
	"CrowdPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideMode,

		// Storage
		ProvideDB,
		ProvidePostStore,
		ProvideSentimentStore,
		ProvideMarketStore,
		ProvideSignalStore,
		ProvideUsageLogStore,

		// Quota ledger
		ProvideCredentialStore,
		ProvideLedger,

		// Pipeline components
		ProvideCollectors,
		ProvideUnits,
		ProvideCoordinator,
		ProvideMarketFetcher,
		ProvideScorer,
		ProvideSignalPublisher,
		ProvideEngine,
		ProvideOrchestrator,

		// Surface
		ProvideHandler,
		ProvideScheduler,
		ProvideApp,
	)
	return &server.App{}, nil
}
