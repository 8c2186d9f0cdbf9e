package repository

import "context"

// Store agrupa los repositorios que expone un adapter de almacenamiento.
type Store interface {
	Principals() PrincipalRepository
	RefreshRecords() RefreshRecordRepository
	Subscriptions() SubscriptionRepository
	Providers() ProviderRepository

	// Ping verifica la conexión.
	Ping(ctx context.Context) error

	// Close libera recursos del adapter.
	Close() error
}
