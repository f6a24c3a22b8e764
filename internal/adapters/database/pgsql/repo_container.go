package pgsql

import (
	portsrepo "github.com/nusatrade/ceisa_exchange_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider wires all postgres-backed repositories on one pool.
func NewRepositoryProvider(pool *pgxpool.Pool) *portsrepo.RepositoryProvider {
	return &portsrepo.RepositoryProvider{
		Declaration:  NewPgxDeclarationRepository(pool),
		Transmission: NewPgxTransmissionRepository(pool),
		Incoming:     NewPgxIncomingRepository(pool),
		Archive:      NewPgxArchiveRepository(pool),
		Audit:        NewPgxAuditRepository(pool),
	}
}
