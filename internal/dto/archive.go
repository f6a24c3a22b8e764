package dto

import (
	"time"

	"github.com/nusatrade/ceisa_exchange_app/internal/core/domain"
)

// ArchiveQueryRequest filters the archive listing. Bound from query params.
type ArchiveQueryRequest struct {
	MessageID      string `form:"messageID"`
	DocumentNumber string `form:"documentNumber"`
	DocumentType   string `form:"documentType" binding:"omitempty,oneof=PEB PIB"`
	Direction      string `form:"direction" binding:"omitempty,oneof=OUTGOING INCOMING"`
	From           string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To             string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	Limit          int    `form:"limit,default=50" binding:"omitempty,min=1,max=500"`
}

// ArchiveEntryResponse mirrors an archive entry without its XML payload.
type ArchiveEntryResponse struct {
	EntryID        string    `json:"entryID"`
	MessageID      string    `json:"messageID"`
	DocumentType   string    `json:"documentType"`
	DocumentNumber string    `json:"documentNumber"`
	Direction      string    `json:"direction"`
	XMLHash        string    `json:"xmlHash"`
	ArchivedAt     time.Time `json:"archivedAt"`
	ArchivePath    string    `json:"archivePath"`
}

// ListArchiveEntriesResponse wraps an archive page.
type ListArchiveEntriesResponse struct {
	Entries []ArchiveEntryResponse `json:"entries"`
}

// PurgeArchiveRequest drives the retention purge.
type PurgeArchiveRequest struct {
	OlderThanDays int `json:"olderThanDays" binding:"required,min=1"`
}

// PurgeArchiveResponse reports how many entries were removed.
type PurgeArchiveResponse struct {
	Purged int64 `json:"purged"`
}

// ToArchiveEntryResponse maps a domain archive entry to its API shape.
func ToArchiveEntryResponse(e *domain.ArchiveEntry) ArchiveEntryResponse {
	return ArchiveEntryResponse{
		EntryID:        e.EntryID,
		MessageID:      e.MessageID,
		DocumentType:   string(e.DocumentType),
		DocumentNumber: e.DocumentNumber,
		Direction:      string(e.Direction),
		XMLHash:        e.XMLHash,
		ArchivedAt:     e.ArchivedAt,
		ArchivePath:    e.ArchivePath,
	}
}

// ToQuery converts the bound request into a domain archive query.
func (r ArchiveQueryRequest) ToQuery() (domain.ArchiveQuery, error) {
	query := domain.ArchiveQuery{
		MessageID:      r.MessageID,
		DocumentNumber: r.DocumentNumber,
		DocumentType:   domain.DocumentType(r.DocumentType),
		Direction:      domain.Direction(r.Direction),
		Limit:          r.Limit,
	}
	if r.From != "" {
		from, err := time.Parse("2006-01-02", r.From)
		if err != nil {
			return domain.ArchiveQuery{}, err
		}
		query.From = &from
	}
	if r.To != "" {
		to, err := time.Parse("2006-01-02", r.To)
		if err != nil {
			return domain.ArchiveQuery{}, err
		}
		// Inclusive end of day.
		to = to.Add(24*time.Hour - time.Nanosecond)
		query.To = &to
	}
	return query, nil
}
