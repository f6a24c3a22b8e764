package domain

import (
	"fmt"
	"time"
)

// Direction of an archived exchange message.
type Direction string

const (
	DirectionOutgoing Direction = "OUTGOING"
	DirectionIncoming Direction = "INCOMING"
)

// ArchiveEntry is an append-only, hash-verified record of one exchanged
// message. Entries are never updated; deletion happens only through the
// age-based retention purge.
type ArchiveEntry struct {
	EntryID        string       `json:"entryID"`
	MessageID      string       `json:"messageID"`
	DocumentType   DocumentType `json:"documentType"`
	DocumentNumber string       `json:"documentNumber"`
	Direction      Direction    `json:"direction"`
	XMLContent     string       `json:"xmlContent"`
	XMLHash        string       `json:"xmlHash"`
	ArchivedAt     time.Time    `json:"archivedAt"`
	ArchivePath    string       `json:"archivePath"`
}

// ExportFilename is the download filename for an archived message.
func (e *ArchiveEntry) ExportFilename() string {
	return fmt.Sprintf("%s_%s_%s.xml", e.DocumentType, e.DocumentNumber, e.Direction)
}

// ArchiveQuery narrows an archive search. Zero values mean "no filter";
// DocumentNumber matches as a case-insensitive substring.
type ArchiveQuery struct {
	MessageID      string
	DocumentNumber string
	DocumentType   DocumentType
	Direction      Direction
	From           *time.Time
	To             *time.Time
	Limit          int
}

// VerificationResult is the outcome of re-hashing an archived entry.
type VerificationResult struct {
	EntryID      string `json:"entryID"`
	IsValid      bool   `json:"isValid"`
	OriginalHash string `json:"originalHash"`
	ComputedHash string `json:"computedHash"`
}
