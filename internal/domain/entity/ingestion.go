package entity

import "time"

// IngestionState is the state of the bulk upload pipeline.
type IngestionState string

const (
	IngestionIdle       IngestionState = "IDLE"
	IngestionSelected   IngestionState = "SELECTED"
	IngestionPreviewed  IngestionState = "PREVIEWED"
	IngestionUploading  IngestionState = "UPLOADING"
	IngestionStaged     IngestionState = "STAGED"
	IngestionProcessing IngestionState = "PROCESSING"
	IngestionCompleted  IngestionState = "COMPLETED"
	IngestionFailed     IngestionState = "FAILED"
)

// InFlight reports whether a remote step is running in this state.
func (s IngestionState) InFlight() bool {
	return s == IngestionUploading || s == IngestionStaged || s == IngestionProcessing
}

// IngestionStage identifica a etapa onde uma falha se originou.
type IngestionStage string

const (
	StageParse    IngestionStage = "parse"
	StageValidate IngestionStage = "validate"
	StagePresign  IngestionStage = "presign"
	StageStage    IngestionStage = "stage"
	StageProcess  IngestionStage = "process"
)

// UploadFile is the blob selected by the user.
type UploadFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// ReadingRow é uma linha do arquivo CSV (Date,Usage).
type ReadingRow struct {
	Date  time.Time
	Usage float64
}

// ParseResult is returned by a successful file selection.
type ParseResult struct {
	Headers   []string
	Preview   []ReadingRow
	TotalRows int
}

// StagingTarget é o destino temporário de upload devolvido pela API.
type StagingTarget struct {
	UploadURL string `json:"presignedUrl"`
	ObjectRef string `json:"fileUrl"`
}

// IngestionJob holds one bulk upload from selection until completion or removal.
type IngestionJob struct {
	ID        string
	File      UploadFile
	Rows      []ReadingRow
	State     IngestionState
	Target    *StagingTarget
	FailedAt  IngestionStage
	CreatedAt time.Time
}

// UploadResult resume um upload concluído.
type UploadResult struct {
	JobID     string
	FileName  string
	Rows      int
	ObjectRef string
}

// Transition is emitted on every pipeline state change.
type Transition struct {
	JobID string
	From  IngestionState
	To    IngestionState
	Stage IngestionStage
	Err   error
	At    time.Time
}
