package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/diillson/energy-usage-dashboard-go/internal/domain/entity"
	"github.com/diillson/energy-usage-dashboard-go/internal/shared/types"
)

var fixedNow = time.Date(2024, 6, 15, 14, 30, 0, 0, time.Local)

type ingestionFixture struct {
	uc       *IngestionUseCase
	energy   *MockEnergyRepository
	staging  *MockStagingRepository
	parser   *MockParser
	mu       sync.Mutex
	observed []entity.IngestionState
}

func newIngestionFixture(t *testing.T) *ingestionFixture {
	t.Helper()
	f := &ingestionFixture{
		energy:  new(MockEnergyRepository),
		staging: new(MockStagingRepository),
		parser:  new(MockParser),
	}
	f.uc = NewIngestionUseCase(f.energy, f.staging, signedIn(), f.parser, zerolog.Nop(),
		WithPreviewRows(2),
		WithIngestionClock(func() time.Time { return fixedNow }),
	)
	f.uc.OnTransition(func(tr entity.Transition) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.observed = append(f.observed, tr.To)
	})
	return f
}

func (f *ingestionFixture) states() []entity.IngestionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entity.IngestionState(nil), f.observed...)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var (
	csvFile = entity.UploadFile{Name: "usage.csv", ContentType: "text/csv", Data: []byte("Date,Usage\n...")}
	csvRows = []entity.ReadingRow{
		{Date: day(2024, 6, 1), Usage: 3},
		{Date: day(2024, 6, 2), Usage: 4},
		{Date: day(2024, 6, 15), Usage: 5},
	}
	target = entity.StagingTarget{UploadURL: "https://bucket.s3.amazonaws.com/k?sig", ObjectRef: "https://bucket.s3.amazonaws.com/k"}
)

func (f *ingestionFixture) selectValid(t *testing.T) {
	t.Helper()
	f.parser.On("Parse", csvFile.Data).Return([]string{"Date", "Usage"}, csvRows, nil).Once()
	_, err := f.uc.SelectFile(context.Background(), csvFile)
	require.NoError(t, err)
}

func TestSelectFile_Preview(t *testing.T) {
	f := newIngestionFixture(t)
	f.parser.On("Parse", csvFile.Data).Return([]string{"Date", "Usage"}, csvRows, nil)

	result, err := f.uc.SelectFile(context.Background(), csvFile)
	require.NoError(t, err)

	assert.Equal(t, []string{"Date", "Usage"}, result.Headers)
	assert.Len(t, result.Preview, 2)
	assert.Equal(t, 3, result.TotalRows)
	assert.Equal(t, entity.IngestionPreviewed, f.uc.State())
	assert.Equal(t, []entity.IngestionState{entity.IngestionSelected, entity.IngestionPreviewed}, f.states())

	job := f.uc.Job()
	require.NotNil(t, job)
	assert.Len(t, job.Rows, 3)
	assert.Equal(t, entity.IngestionPreviewed, job.State)
}

func TestSelectFile_RejectsNonCSV(t *testing.T) {
	tests := []entity.UploadFile{
		{Name: "usage.xlsx", ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
		{Name: "usage.txt"},
		{Name: "usage.csv", ContentType: "application/json"},
	}

	for _, file := range tests {
		t.Run(file.Name+" "+file.ContentType, func(t *testing.T) {
			f := newIngestionFixture(t)
			_, err := f.uc.SelectFile(context.Background(), file)

			assert.ErrorIs(t, err, types.ErrUnsupportedFileType)
			assert.Equal(t, entity.IngestionIdle, f.uc.State())
			assert.NotContains(t, f.states(), entity.IngestionPreviewed)
			f.parser.AssertNotCalled(t, "Parse", mock.Anything)
		})
	}
}

func TestSelectFile_AcceptsCSVVariants(t *testing.T) {
	for _, file := range []entity.UploadFile{
		{Name: "a.CSV", Data: []byte("x")},
		{Name: "a", ContentType: "text/csv; charset=utf-8", Data: []byte("x")},
	} {
		f := newIngestionFixture(t)
		f.parser.On("Parse", file.Data).Return([]string{"Date", "Usage"}, csvRows, nil)
		_, err := f.uc.SelectFile(context.Background(), file)
		assert.NoError(t, err, file.Name)
	}
}

func TestSelectFile_ParseErrorReturnsToIdle(t *testing.T) {
	f := newIngestionFixture(t)
	f.parser.On("Parse", csvFile.Data).Return(nil, nil, &types.ParseError{Line: 3, Column: "Usage", Err: errors.New("bad")})

	_, err := f.uc.SelectFile(context.Background(), csvFile)

	var pe *types.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 3, pe.Line)
	assert.Equal(t, entity.IngestionIdle, f.uc.State())
	assert.Nil(t, f.uc.Job())
	assert.Equal(t, []entity.IngestionState{entity.IngestionSelected, entity.IngestionIdle}, f.states())
}

func TestUpload_EndToEnd(t *testing.T) {
	f := newIngestionFixture(t)
	f.selectValid(t)

	f.energy.On("GetPresignedUpload", mock.Anything, "ana@example.com", "usage.csv").Return(target, nil)
	f.staging.On("Put", mock.Anything, target, csvFile.Data, "text/csv").Return(nil)
	f.energy.On("ProcessUpload", mock.Anything, "ana@example.com", target.ObjectRef).Return(nil)

	result, err := f.uc.Upload(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "usage.csv", result.FileName)
	assert.Equal(t, 3, result.Rows)
	assert.Equal(t, target.ObjectRef, result.ObjectRef)
	assert.Equal(t, []entity.IngestionState{
		entity.IngestionSelected,
		entity.IngestionPreviewed,
		entity.IngestionUploading,
		entity.IngestionStaged,
		entity.IngestionProcessing,
		entity.IngestionCompleted,
	}, f.states())
	assert.Equal(t, entity.IngestionCompleted, f.uc.State())
	assert.Nil(t, f.uc.Job(), "row buffer must be released on completion")

	f.energy.AssertExpectations(t)
	f.staging.AssertExpectations(t)
}

func TestUpload_FutureDateBlocks(t *testing.T) {
	f := newIngestionFixture(t)
	rows := append([]entity.ReadingRow{}, csvRows...)
	rows = append(rows, entity.ReadingRow{Date: day(2024, 6, 16), Usage: 1})
	f.parser.On("Parse", csvFile.Data).Return([]string{"Date", "Usage"}, rows, nil)
	_, err := f.uc.SelectFile(context.Background(), csvFile)
	require.NoError(t, err)

	_, err = f.uc.Upload(context.Background())

	var ve *types.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.ErrorIs(t, err, types.ErrFutureDate)
	assert.Equal(t, entity.IngestionPreviewed, f.uc.State())
	assert.NotContains(t, f.states(), entity.IngestionUploading)
	f.energy.AssertNotCalled(t, "GetPresignedUpload", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpload_RequiresPreviewed(t *testing.T) {
	f := newIngestionFixture(t)
	_, err := f.uc.Upload(context.Background())
	assert.ErrorIs(t, err, types.ErrInvalidState)
}

func TestUpload_FailureStages(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name  string
		setup func(f *ingestionFixture)
		stage entity.IngestionStage
		last  entity.IngestionState
	}{
		{
			name: "presign",
			setup: func(f *ingestionFixture) {
				f.energy.On("GetPresignedUpload", mock.Anything, mock.Anything, mock.Anything).Return(entity.StagingTarget{}, boom)
			},
			stage: entity.StagePresign,
			last:  entity.IngestionUploading,
		},
		{
			name: "stage",
			setup: func(f *ingestionFixture) {
				f.energy.On("GetPresignedUpload", mock.Anything, mock.Anything, mock.Anything).Return(target, nil)
				f.staging.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(boom)
			},
			stage: entity.StageStage,
			last:  entity.IngestionUploading,
		},
		{
			name: "process",
			setup: func(f *ingestionFixture) {
				f.energy.On("GetPresignedUpload", mock.Anything, mock.Anything, mock.Anything).Return(target, nil)
				f.staging.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
				f.energy.On("ProcessUpload", mock.Anything, mock.Anything, mock.Anything).Return(boom)
			},
			stage: entity.StageProcess,
			last:  entity.IngestionProcessing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newIngestionFixture(t)
			f.selectValid(t)
			tt.setup(f)

			_, err := f.uc.Upload(context.Background())

			var te *types.TransportError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, string(tt.stage), te.Stage)
			assert.ErrorIs(t, err, boom)
			assert.Equal(t, entity.IngestionFailed, f.uc.State())

			states := f.states()
			require.GreaterOrEqual(t, len(states), 2)
			assert.Equal(t, tt.last, states[len(states)-2])
			assert.Equal(t, entity.IngestionFailed, states[len(states)-1])

			job := f.uc.Job()
			require.NotNil(t, job)
			assert.Equal(t, tt.stage, job.FailedAt)
			assert.Equal(t, err, f.uc.LastError())
		})
	}
}

func TestUpload_RetryAfterProcessFailureSkipsStaging(t *testing.T) {
	f := newIngestionFixture(t)
	f.selectValid(t)

	f.energy.On("GetPresignedUpload", mock.Anything, mock.Anything, mock.Anything).Return(target, nil).Once()
	f.staging.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	f.energy.On("ProcessUpload", mock.Anything, mock.Anything, target.ObjectRef).Return(errors.New("timeout")).Once()

	_, err := f.uc.Upload(context.Background())
	require.Error(t, err)

	f.energy.On("ProcessUpload", mock.Anything, mock.Anything, target.ObjectRef).Return(nil).Once()

	result, err := f.uc.Upload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, target.ObjectRef, result.ObjectRef)

	f.energy.AssertNumberOfCalls(t, "GetPresignedUpload", 1)
	f.staging.AssertNumberOfCalls(t, "Put", 1)
	f.energy.AssertNumberOfCalls(t, "ProcessUpload", 2)
}

func TestUpload_RetryAfterStageFailureRestartsAtPresign(t *testing.T) {
	f := newIngestionFixture(t)
	f.selectValid(t)

	f.energy.On("GetPresignedUpload", mock.Anything, mock.Anything, mock.Anything).Return(target, nil)
	f.staging.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("403")).Once()
	_, err := f.uc.Upload(context.Background())
	require.Error(t, err)

	f.staging.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	f.energy.On("ProcessUpload", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err = f.uc.Upload(context.Background())
	require.NoError(t, err)
	f.energy.AssertNumberOfCalls(t, "GetPresignedUpload", 2)
}

func TestPipelineBusyWhileInFlight(t *testing.T) {
	f := newIngestionFixture(t)
	f.selectValid(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	f.energy.On("GetPresignedUpload", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(target, nil)
	f.staging.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.energy.On("ProcessUpload", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	done := make(chan error, 1)
	go func() {
		_, err := f.uc.Upload(context.Background())
		done <- err
	}()
	<-entered

	assert.Equal(t, entity.IngestionUploading, f.uc.State())
	assert.ErrorIs(t, f.uc.RemoveFile(), types.ErrPipelineBusy)
	_, err := f.uc.SelectFile(context.Background(), csvFile)
	assert.ErrorIs(t, err, types.ErrPipelineBusy)
	_, err = f.uc.Upload(context.Background())
	assert.ErrorIs(t, err, types.ErrInvalidState)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, entity.IngestionCompleted, f.uc.State())
}

func TestRemoveFile(t *testing.T) {
	f := newIngestionFixture(t)
	f.selectValid(t)

	require.NoError(t, f.uc.RemoveFile())
	assert.Equal(t, entity.IngestionIdle, f.uc.State())
	assert.Nil(t, f.uc.Job())

	// sem arquivo selecionado é no-op
	require.NoError(t, f.uc.RemoveFile())
}

func TestUpload_IdentityFailureOnResumeKeepsProcessStage(t *testing.T) {
	f := newIngestionFixture(t)
	identity := new(MockIdentityRepository)
	identity.On("CurrentIdentity", mock.Anything).Return(testIdentity, nil).Once()
	identity.On("CurrentIdentity", mock.Anything).Return(entity.Identity{}, errors.New("token expired")).Once()
	identity.On("CurrentIdentity", mock.Anything).Return(testIdentity, nil).Once()
	f.uc = NewIngestionUseCase(f.energy, f.staging, identity, f.parser, zerolog.Nop(),
		WithIngestionClock(func() time.Time { return fixedNow }),
	)
	f.selectValid(t)

	f.energy.On("GetPresignedUpload", mock.Anything, mock.Anything, mock.Anything).Return(target, nil).Once()
	f.staging.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	f.energy.On("ProcessUpload", mock.Anything, mock.Anything, target.ObjectRef).Return(errors.New("timeout")).Once()
	_, err := f.uc.Upload(context.Background())
	require.Error(t, err)

	_, err = f.uc.Upload(context.Background())
	require.Error(t, err)
	require.NotNil(t, f.uc.Job())
	assert.Equal(t, entity.StageProcess, f.uc.Job().FailedAt)

	f.energy.On("ProcessUpload", mock.Anything, mock.Anything, target.ObjectRef).Return(nil).Once()
	_, err = f.uc.Upload(context.Background())
	require.NoError(t, err)

	f.energy.AssertNumberOfCalls(t, "GetPresignedUpload", 1)
	f.staging.AssertNumberOfCalls(t, "Put", 1)
}

func TestRemoveFile_AfterCompletedEmitsTransition(t *testing.T) {
	f := newIngestionFixture(t)
	f.selectValid(t)

	f.energy.On("GetPresignedUpload", mock.Anything, mock.Anything, mock.Anything).Return(target, nil)
	f.staging.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.energy.On("ProcessUpload", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	result, err := f.uc.Upload(context.Background())
	require.NoError(t, err)

	var last entity.Transition
	f.uc.OnTransition(func(tr entity.Transition) { last = tr })

	require.NoError(t, f.uc.RemoveFile())
	assert.Equal(t, entity.IngestionIdle, f.uc.State())
	assert.Equal(t, result.JobID, last.JobID)
	assert.Equal(t, entity.IngestionCompleted, last.From)
	assert.Equal(t, entity.IngestionIdle, last.To)

	states := f.states()
	assert.Equal(t, entity.IngestionIdle, states[len(states)-1])
}
