package staging

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diillson/energy-usage-dashboard-go/internal/domain/entity"
	"github.com/diillson/energy-usage-dashboard-go/internal/shared/types"
)

func TestPresignedPut(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "text/csv", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Authorization"))
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	repo := NewPresignedStagingRepository(time.Second, zerolog.Nop())
	target := entity.StagingTarget{UploadURL: server.URL + "/bucket/key.csv?X-Amz-Signature=abc"}

	err := repo.Put(context.Background(), target, []byte("Date,Usage\n"), "text/csv")
	require.NoError(t, err)
	assert.Equal(t, "Date,Usage\n", string(gotBody))
}

func TestPresignedPut_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("<Error><Code>SignatureDoesNotMatch</Code></Error>"))
	}))
	defer server.Close()

	repo := NewPresignedStagingRepository(time.Second, zerolog.Nop())
	err := repo.Put(context.Background(), entity.StagingTarget{UploadURL: server.URL}, []byte("x"), "text/csv")

	var te *types.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "stage", te.Stage)
	assert.Equal(t, http.StatusForbidden, te.StatusCode)
	assert.Contains(t, te.Message, "SignatureDoesNotMatch")
}

func TestParseObjectRef(t *testing.T) {
	tests := []struct {
		ref    string
		bucket string
		key    string
	}{
		{ref: "https://energy-uploads.s3.amazonaws.com/a@b.com/usage.csv", bucket: "energy-uploads", key: "a@b.com/usage.csv"},
		{ref: "https://energy-uploads.s3.us-east-2.amazonaws.com/usage.csv", bucket: "energy-uploads", key: "usage.csv"},
		{ref: "https://s3.us-east-2.amazonaws.com/energy-uploads/dir/usage.csv", bucket: "energy-uploads", key: "dir/usage.csv"},
		{ref: "s3://energy-uploads/usage.csv", bucket: "energy-uploads", key: "usage.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			bucket, key, err := ParseObjectRef(tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.bucket, bucket)
			assert.Equal(t, tt.key, key)
		})
	}
}

func TestParseObjectRef_Invalid(t *testing.T) {
	for _, ref := range []string{"", "https://example.com/file.csv", "s3://bucket-only", "https://s3.amazonaws.com/bucket"} {
		_, _, err := ParseObjectRef(ref)
		assert.Error(t, err, ref)
	}
}

func TestNewStagingRepository(t *testing.T) {
	ctx := context.Background()

	repo, err := NewStagingRepository(ctx, types.StagingConfig{}, time.Second, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &PresignedStagingRepository{}, repo)

	repo, err = NewStagingRepository(ctx, types.StagingConfig{
		Mode:        ModeS3,
		Region:      "us-east-2",
		AccessKeyID: "AKIDEXAMPLE",
		SecretKey:   "secret",
		Endpoint:    "http://localhost:4566",
	}, time.Second, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &S3StagingRepository{}, repo)

	_, err = NewStagingRepository(ctx, types.StagingConfig{Mode: "ftp"}, time.Second, zerolog.Nop())
	assert.ErrorContains(t, err, "unknown staging mode")
}
