package repositories

// RepositoryProvider bundles all repository ports so wiring code can pass
// one container instead of five interfaces.
type RepositoryProvider struct {
	Declaration  DeclarationRepository
	Transmission TransmissionRepository
	Incoming     IncomingRepository
	Archive      ArchiveRepository
	Audit        AuditRepository
}
