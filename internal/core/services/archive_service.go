package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nusatrade/ceisa_exchange_app/internal/apperrors"
	"github.com/nusatrade/ceisa_exchange_app/internal/ceisaxml"
	"github.com/nusatrade/ceisa_exchange_app/internal/core/domain"
	portsrepo "github.com/nusatrade/ceisa_exchange_app/internal/core/ports/repositories"
	portssvc "github.com/nusatrade/ceisa_exchange_app/internal/core/ports/services"
	"github.com/google/uuid"
)

// archiveServiceImpl is the append-only message archive.
type archiveServiceImpl struct {
	BaseService
	archiveRepo portsrepo.ArchiveRepository
}

// NewArchiveService creates the archive service.
func NewArchiveService(repo portsrepo.ArchiveRepository) portssvc.ArchiveSvcFacade {
	return &archiveServiceImpl{archiveRepo: repo}
}

var _ portssvc.ArchiveSvcFacade = (*archiveServiceImpl)(nil)

func (s *archiveServiceImpl) ArchiveMessage(ctx context.Context, messageID string, docType domain.DocumentType, documentNumber string, direction domain.Direction, xmlContent string) (*domain.ArchiveEntry, error) {
	now := time.Now()
	entry := domain.ArchiveEntry{
		EntryID:        uuid.NewString(),
		MessageID:      messageID,
		DocumentType:   docType,
		DocumentNumber: documentNumber,
		Direction:      direction,
		XMLContent:     xmlContent,
		XMLHash:        ceisaxml.Hash(xmlContent),
		ArchivedAt:     now,
		ArchivePath:    archivePath(docType, direction, documentNumber, messageID, now),
	}

	if err := s.archiveRepo.SaveEntry(ctx, entry); err != nil {
		s.LogError(ctx, err, "Failed to archive message",
			slog.String("message_id", messageID),
			slog.String("direction", string(direction)))
		return nil, err
	}

	s.LogInfo(ctx, "Message archived",
		slog.String("message_id", messageID),
		slog.String("document_number", documentNumber),
		slog.String("direction", string(direction)),
		slog.String("archive_path", entry.ArchivePath))
	return &entry, nil
}

func (s *archiveServiceImpl) VerifyEntry(ctx context.Context, entryID string) (*domain.VerificationResult, error) {
	entry, err := s.archiveRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to load archive entry for verification", slog.String("entry_id", entryID))
		}
		return nil, err
	}

	computed := ceisaxml.Hash(entry.XMLContent)
	result := &domain.VerificationResult{
		EntryID:      entry.EntryID,
		IsValid:      computed == entry.XMLHash,
		OriginalHash: entry.XMLHash,
		ComputedHash: computed,
	}
	if !result.IsValid {
		s.LogWarn(ctx, "Archive entry failed hash verification",
			slog.String("entry_id", entryID),
			slog.String("original_hash", result.OriginalHash),
			slog.String("computed_hash", result.ComputedHash))
	}
	return result, nil
}

func (s *archiveServiceImpl) GetEntry(ctx context.Context, entryID string) (*domain.ArchiveEntry, error) {
	return s.archiveRepo.FindEntryByID(ctx, entryID)
}

func (s *archiveServiceImpl) QueryEntries(ctx context.Context, query domain.ArchiveQuery) ([]domain.ArchiveEntry, error) {
	if query.Limit <= 0 {
		query.Limit = 50
	}
	entries, err := s.archiveRepo.QueryEntries(ctx, query)
	if err != nil {
		s.LogError(ctx, err, "Failed to query archive")
		return nil, err
	}
	if entries == nil {
		return []domain.ArchiveEntry{}, nil
	}
	return entries, nil
}

func (s *archiveServiceImpl) Purge(ctx context.Context, olderThanDays int) (int64, error) {
	if olderThanDays <= 0 {
		return 0, fmt.Errorf("purge cutoff must be positive: %w", apperrors.ErrValidation)
	}
	cutoff := time.Now().AddDate(0, 0, -olderThanDays)
	count, err := s.archiveRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.LogError(ctx, err, "Failed to purge archive", slog.Int("older_than_days", olderThanDays))
		return 0, err
	}
	s.LogInfo(ctx, "Archive purged",
		slog.Int("older_than_days", olderThanDays),
		slog.Int64("removed", count))
	return count, nil
}

// archivePath derives the deterministic storage path for an entry.
func archivePath(docType domain.DocumentType, direction domain.Direction, documentNumber, messageID string, at time.Time) string {
	return fmt.Sprintf("%s/%s/%s/%s_%s.xml",
		docType, direction, at.UTC().Format("2006/01/02"), documentNumber, messageID)
}
