package docanalyze

import "time"

// File is one uploaded document's extracted text, as produced by the
// extraction layer. Analysis never sees raw file bytes.
type File struct {
	Name      string
	Text      string
	CharCount int
}

// Section is one detected section of a document.
type Section struct {
	Order      int      `json:"order"`
	Title      string   `json:"title"`
	Summary    string   `json:"summary"`
	KeyTopics  []string `json:"key_topics"`
	Confidence float64  `json:"confidence"`
	SourceFile string   `json:"source_file,omitempty"`
}

// Outline is the detected structure of one or more documents. When
// several files are analyzed together the sections are renumbered
// sequentially across all of them and each keeps its source file.
type Outline struct {
	DocumentTitle    string    `json:"document_title"`
	DocumentType     string    `json:"document_type"`
	TotalSections    int       `json:"total_sections"`
	Sections         []Section `json:"sections"`
	EstimatedMinutes int       `json:"estimated_total_time_minutes"`
	AnalysisNotes    string    `json:"analysis_notes,omitempty"`
}

// Staged is the outcome of Phase 1. AnalysisID references the staging
// record and is the only handle Phase 2 accepts.
type Staged struct {
	AnalysisID string
	Outline    Outline
	ExpiresAt  time.Time
}

// ConfirmedSection is one section after user review, ready for chapter
// generation. Sections with Include false are skipped.
type ConfirmedSection struct {
	Order      int      `json:"order"`
	Title      string   `json:"title"`
	KeyTopics  []string `json:"key_topics"`
	SourceFile string   `json:"source_file,omitempty"`
	Include    bool     `json:"include"`
}

// FileMeta records per-file extraction results inside a staging record.
type FileMeta struct {
	Name      string `json:"name"`
	CharCount int    `json:"char_count"`
	Sections  int    `json:"sections"`
}

// stagedPayload is the stored shape of a staging record.
type stagedPayload struct {
	Outline      Outline    `json:"outline"`
	CombinedText string     `json:"combined_text"`
	Files        []FileMeta `json:"files"`
}
