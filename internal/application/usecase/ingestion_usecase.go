package usecase

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/diillson/energy-usage-dashboard-go/internal/domain/entity"
	"github.com/diillson/energy-usage-dashboard-go/internal/domain/repository"
	"github.com/diillson/energy-usage-dashboard-go/internal/metrics"
	"github.com/diillson/energy-usage-dashboard-go/internal/shared/types"
)

const (
	csvContentType     = "text/csv"
	defaultPreviewRows = 5
)

// IngestionUseCase drives the bulk upload pipeline:
// Idle → Selected → Previewed → Uploading → Staged → Processing → Completed,
// with any remote step able to move to Failed.
type IngestionUseCase struct {
	energyRepo  repository.EnergyRepository
	stagingRepo repository.StagingRepository
	identity    repository.IdentityRepository
	parser      repository.TabularParser
	log         zerolog.Logger
	previewRows int
	now         func() time.Time

	mu        sync.Mutex
	state     entity.IngestionState
	job       *entity.IngestionJob
	doneJobID string
	lastErr   error
	listeners []func(entity.Transition)
}

// IngestionOption configura o IngestionUseCase.
type IngestionOption func(*IngestionUseCase)

// WithPreviewRows define quantas linhas o preview devolve.
func WithPreviewRows(n int) IngestionOption {
	return func(uc *IngestionUseCase) {
		if n > 0 {
			uc.previewRows = n
		}
	}
}

// WithIngestionClock substitui o relógio usado na validação de datas futuras.
func WithIngestionClock(now func() time.Time) IngestionOption {
	return func(uc *IngestionUseCase) {
		uc.now = now
	}
}

// NewIngestionUseCase creates a new ingestion use case in the Idle state.
func NewIngestionUseCase(
	energyRepo repository.EnergyRepository,
	stagingRepo repository.StagingRepository,
	identity repository.IdentityRepository,
	parser repository.TabularParser,
	log zerolog.Logger,
	opts ...IngestionOption,
) *IngestionUseCase {
	uc := &IngestionUseCase{
		energyRepo:  energyRepo,
		stagingRepo: stagingRepo,
		identity:    identity,
		parser:      parser,
		log:         log.With().Str("usecase", "ingestion").Logger(),
		previewRows: defaultPreviewRows,
		now:         time.Now,
		state:       entity.IngestionIdle,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// OnTransition registra um listener chamado a cada mudança de estado.
// Listeners rodam fora do lock e podem consultar State() e Job().
func (uc *IngestionUseCase) OnTransition(fn func(entity.Transition)) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.listeners = append(uc.listeners, fn)
}

// State returns the current pipeline state.
func (uc *IngestionUseCase) State() entity.IngestionState {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.state
}

// Job devolve uma cópia do job atual, ou nil se não houver arquivo selecionado.
func (uc *IngestionUseCase) Job() *entity.IngestionJob {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.job == nil {
		return nil
	}
	cp := *uc.job
	cp.Rows = append([]entity.ReadingRow(nil), uc.job.Rows...)
	if uc.job.Target != nil {
		target := *uc.job.Target
		cp.Target = &target
	}
	return &cp
}

// LastError returns the error that moved the pipeline to Failed (or back to Idle).
func (uc *IngestionUseCase) LastError() error {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.lastErr
}

// SelectFile accepts a file, parses it and moves to Previewed. Non-CSV files are
// rejected before parsing; parse failures return the pipeline to Idle.
func (uc *IngestionUseCase) SelectFile(ctx context.Context, file entity.UploadFile) (entity.ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return entity.ParseResult{}, err
	}

	uc.mu.Lock()
	if uc.state.InFlight() {
		uc.mu.Unlock()
		return entity.ParseResult{}, types.ErrPipelineBusy
	}
	job := &entity.IngestionJob{
		ID:        uuid.NewString(),
		File:      file,
		CreatedAt: uc.now(),
	}
	uc.job = job
	uc.doneJobID = ""
	uc.lastErr = nil
	tr := uc.setStateLocked(job, entity.IngestionSelected, "", nil)
	uc.mu.Unlock()
	uc.emit(tr)

	logger := uc.log.With().Str("job", job.ID).Str("file", file.Name).Logger()

	if !isCSV(file) {
		logger.Warn().Str("content_type", file.ContentType).Msg("unsupported file type")
		uc.resetToIdle(job, entity.StageParse, types.ErrUnsupportedFileType)
		return entity.ParseResult{}, types.ErrUnsupportedFileType
	}

	headers, rows, err := uc.parser.Parse(file.Data)
	if err != nil {
		var pe *types.ParseError
		if !errors.As(err, &pe) {
			err = &types.ParseError{Err: err}
		}
		logger.Warn().Err(err).Msg("error parsing file")
		uc.resetToIdle(job, entity.StageParse, err)
		return entity.ParseResult{}, err
	}

	uc.mu.Lock()
	if uc.job != job {
		uc.mu.Unlock()
		return entity.ParseResult{}, fmt.Errorf("%w: file was replaced while parsing", types.ErrInvalidState)
	}
	job.Rows = rows
	tr = uc.setStateLocked(job, entity.IngestionPreviewed, "", nil)
	uc.mu.Unlock()
	uc.emit(tr)

	n := uc.previewRows
	if n > len(rows) {
		n = len(rows)
	}
	preview := append([]entity.ReadingRow(nil), rows[:n]...)

	logger.Info().Int("rows", len(rows)).Msg("file parsed")
	return entity.ParseResult{Headers: headers, Preview: preview, TotalRows: len(rows)}, nil
}

// RemoveFile descarta o arquivo selecionado e volta para Idle.
func (uc *IngestionUseCase) RemoveFile() error {
	uc.mu.Lock()
	if uc.state.InFlight() {
		uc.mu.Unlock()
		return types.ErrPipelineBusy
	}
	if uc.state == entity.IngestionIdle {
		uc.mu.Unlock()
		return nil
	}
	var tr entity.Transition
	if uc.job != nil {
		tr = uc.setStateLocked(uc.job, entity.IngestionIdle, "", nil)
	} else {
		// Completed já liberou o job; a transição leva o id do último concluído.
		tr = entity.Transition{JobID: uc.doneJobID, From: uc.state, To: entity.IngestionIdle, At: uc.now()}
	}
	uc.state = entity.IngestionIdle
	uc.doneJobID = ""
	uc.job = nil
	uc.lastErr = nil
	uc.mu.Unlock()
	uc.emit(tr)
	return nil
}

// Upload validates the selected rows and runs presign, staging and server-side
// processing in order. Allowed from Previewed and, for a user retry, from Failed.
func (uc *IngestionUseCase) Upload(ctx context.Context) (entity.UploadResult, error) {
	uc.mu.Lock()
	job := uc.job
	if job == nil || (uc.state != entity.IngestionPreviewed && uc.state != entity.IngestionFailed) {
		state := uc.state
		uc.mu.Unlock()
		return entity.UploadResult{}, fmt.Errorf("%w: cannot upload from %s", types.ErrInvalidState, state)
	}

	if err := uc.validateRows(job.Rows); err != nil {
		uc.mu.Unlock()
		metrics.IngestionFailuresTotal.WithLabelValues(string(entity.StageValidate)).Inc()
		uc.log.Warn().Str("job", job.ID).Err(err).Msg("validation failed")
		return entity.UploadResult{}, err
	}

	// Após falha no process o objeto já está no bucket: retoma dali.
	resume := uc.state == entity.IngestionFailed && job.FailedAt == entity.StageProcess && job.Target != nil
	tr := uc.setStateLocked(job, entity.IngestionUploading, "", nil)
	uc.lastErr = nil
	uc.mu.Unlock()
	uc.emit(tr)

	logger := uc.log.With().Str("job", job.ID).Str("file", job.File.Name).Logger()

	identity, err := uc.identity.CurrentIdentity(ctx)
	if err != nil {
		stage := entity.StagePresign
		if resume {
			// o objeto continua no bucket; o próximo retry ainda retoma no process
			stage = entity.StageProcess
		}
		return entity.UploadResult{}, uc.fail(job, stage, err, "identity")
	}

	var target entity.StagingTarget
	if resume {
		target = *job.Target
		logger.Info().Str("object", target.ObjectRef).Msg("resuming at process step")
		uc.advance(job, entity.IngestionStaged)
	} else {
		target, err = uc.energyRepo.GetPresignedUpload(ctx, identity.Email, job.File.Name)
		if err != nil {
			return entity.UploadResult{}, uc.fail(job, entity.StagePresign, err, "GET /energy/get-presigned-url")
		}

		uc.mu.Lock()
		job.Target = &target
		uc.mu.Unlock()

		if err := uc.stagingRepo.Put(ctx, target, job.File.Data, csvContentType); err != nil {
			return entity.UploadResult{}, uc.fail(job, entity.StageStage, err, "PUT staging")
		}
		uc.advance(job, entity.IngestionStaged)
	}

	uc.advance(job, entity.IngestionProcessing)
	if err := uc.energyRepo.ProcessUpload(ctx, identity.Email, target.ObjectRef); err != nil {
		return entity.UploadResult{}, uc.fail(job, entity.StageProcess, err, "POST /energy/process-file")
	}

	result := entity.UploadResult{
		JobID:     job.ID,
		FileName:  job.File.Name,
		Rows:      len(job.Rows),
		ObjectRef: target.ObjectRef,
	}

	uc.mu.Lock()
	tr = uc.setStateLocked(job, entity.IngestionCompleted, "", nil)
	// buffer de linhas e arquivo são liberados ao concluir
	job.Rows = nil
	job.File.Data = nil
	uc.job = nil
	uc.doneJobID = job.ID
	uc.mu.Unlock()
	uc.emit(tr)

	metrics.IngestionRowsUploaded.Add(float64(result.Rows))
	logger.Info().Int("rows", result.Rows).Str("object", result.ObjectRef).Msg("upload completed")
	return result, nil
}

// validateRows rejeita linhas com data posterior a hoje (relógio local, meia-noite).
// Deve ser chamado com mu travado.
func (uc *IngestionUseCase) validateRows(rows []entity.ReadingRow) error {
	today := startOfDay(uc.now())
	for _, row := range rows {
		day := time.Date(row.Date.Year(), row.Date.Month(), row.Date.Day(), 0, 0, 0, 0, today.Location())
		if day.After(today) {
			return &types.ValidationError{
				Reason: "CSV contains future dates. Please remove or correct them before uploading.",
				Err:    types.ErrFutureDate,
			}
		}
	}
	return nil
}

// advance muda o estado do job se ele ainda for o atual.
func (uc *IngestionUseCase) advance(job *entity.IngestionJob, to entity.IngestionState) {
	uc.mu.Lock()
	tr := uc.setStateLocked(job, to, "", nil)
	uc.mu.Unlock()
	uc.emit(tr)
}

func (uc *IngestionUseCase) fail(job *entity.IngestionJob, stage entity.IngestionStage, err error, op string) error {
	terr := types.AsTransport(err, string(stage), op)

	uc.mu.Lock()
	job.FailedAt = stage
	uc.lastErr = terr
	tr := uc.setStateLocked(job, entity.IngestionFailed, stage, terr)
	uc.mu.Unlock()
	uc.emit(tr)

	metrics.IngestionFailuresTotal.WithLabelValues(string(stage)).Inc()
	uc.log.Error().Str("job", job.ID).Str("stage", string(stage)).Err(terr).Msg("upload failed")
	return terr
}

func (uc *IngestionUseCase) resetToIdle(job *entity.IngestionJob, stage entity.IngestionStage, err error) {
	uc.mu.Lock()
	if uc.job != job {
		uc.mu.Unlock()
		return
	}
	uc.lastErr = err
	tr := uc.setStateLocked(job, entity.IngestionIdle, stage, err)
	uc.job = nil
	uc.mu.Unlock()
	uc.emit(tr)

	metrics.IngestionFailuresTotal.WithLabelValues(string(stage)).Inc()
}

// setStateLocked deve ser chamado com mu travado. Devolve a transição a emitir;
// JobID vazio indica que nada mudou.
func (uc *IngestionUseCase) setStateLocked(job *entity.IngestionJob, to entity.IngestionState, stage entity.IngestionStage, err error) entity.Transition {
	if job == nil || uc.job != job {
		return entity.Transition{}
	}
	tr := entity.Transition{
		JobID: job.ID,
		From:  uc.state,
		To:    to,
		Stage: stage,
		Err:   err,
		At:    uc.now(),
	}
	uc.state = to
	job.State = to
	return tr
}

func (uc *IngestionUseCase) emit(tr entity.Transition) {
	if tr.JobID == "" {
		return
	}
	metrics.IngestionTransitionsTotal.WithLabelValues(string(tr.To)).Inc()
	uc.log.Debug().
		Str("job", tr.JobID).
		Str("from", string(tr.From)).
		Str("to", string(tr.To)).
		Msg("state transition")

	uc.mu.Lock()
	listeners := make([]func(entity.Transition), len(uc.listeners))
	copy(listeners, uc.listeners)
	uc.mu.Unlock()

	for _, fn := range listeners {
		fn(tr)
	}
}

// isCSV aceita text/csv; sem content type, decide pela extensão.
func isCSV(file entity.UploadFile) bool {
	if file.ContentType == "" {
		return strings.EqualFold(filepath.Ext(file.Name), ".csv")
	}
	mediaType, _, err := mime.ParseMediaType(file.ContentType)
	if err != nil {
		return false
	}
	return mediaType == csvContentType
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
