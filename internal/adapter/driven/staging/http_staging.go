// Package staging envia o arquivo bruto para o bucket temporário antes do
// processamento no servidor.
package staging

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/diillson/energy-usage-dashboard-go/internal/domain/entity"
	"github.com/diillson/energy-usage-dashboard-go/internal/domain/repository"
	"github.com/diillson/energy-usage-dashboard-go/internal/shared/types"
)

// PresignedStagingRepository faz PUT do arquivo na URL pré-assinada.
type PresignedStagingRepository struct {
	client *http.Client
	log    zerolog.Logger
}

// NewPresignedStagingRepository creates a staging client. The presigned URL
// already carries its credentials, so no bearer token is attached.
func NewPresignedStagingRepository(timeout time.Duration, log zerolog.Logger) repository.StagingRepository {
	return &PresignedStagingRepository{
		client: &http.Client{Timeout: timeout},
		log:    log.With().Str("adapter", "staging-presigned").Logger(),
	}
}

func (r *PresignedStagingRepository) Put(ctx context.Context, target entity.StagingTarget, data []byte, contentType string) error {
	const op = "PUT presigned-url"

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target.UploadURL, bytes.NewReader(data))
	if err != nil {
		return &types.TransportError{Stage: string(entity.StageStage), Op: op, Err: err}
	}
	// A assinatura inclui o Content-Type; ele precisa bater com o usado no presign.
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(len(data))

	resp, err := r.client.Do(req)
	if err != nil {
		return &types.TransportError{Stage: string(entity.StageStage), Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		message := strings.TrimSpace(string(raw))
		if message == "" {
			message = resp.Status
		}
		return &types.TransportError{
			Stage:      string(entity.StageStage),
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    message,
		}
	}

	r.log.Debug().Int("bytes", len(data)).Int("status", resp.StatusCode).Msg("file staged")
	return nil
}
