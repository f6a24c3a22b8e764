package services

import (
	portsrepo "github.com/nusatrade/ceisa_exchange_app/internal/core/ports/repositories"
	portssvc "github.com/nusatrade/ceisa_exchange_app/internal/core/ports/services"
)

// NewServiceProvider wires the full service graph on top of the repository
// container and the authority client.
func NewServiceProvider(repos *portsrepo.RepositoryProvider, client portssvc.CeisaClient, maxRetries int, adminUserIDs []string) *portssvc.ServiceProvider {
	audit := NewAuditService(repos.Audit)
	archive := NewArchiveService(repos.Archive)
	transmission := NewTransmissionService(repos.Transmission, repos.Declaration, archive, audit, client, maxRetries)
	declaration := NewDeclarationService(repos.Declaration, transmission, audit, adminUserIDs)
	response := NewResponseService(repos.Incoming, repos.Declaration, repos.Transmission, archive, audit)

	return &portssvc.ServiceProvider{
		Declaration:  declaration,
		Transmission: transmission,
		Response:     response,
		Archive:      archive,
		Audit:        audit,
	}
}
