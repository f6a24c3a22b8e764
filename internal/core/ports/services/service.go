package services

// ServiceProvider bundles the engine's service facades for route wiring.
type ServiceProvider struct {
	Declaration  DeclarationSvcFacade
	Transmission TransmissionSvcFacade
	Response     ResponseSvcFacade
	Archive      ArchiveSvcFacade
	Audit        AuditSvcFacade
}
