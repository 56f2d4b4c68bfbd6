package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/diillson/energy-usage-dashboard-go/internal/domain/entity"
	"github.com/diillson/energy-usage-dashboard-go/internal/domain/repository"
	"github.com/diillson/energy-usage-dashboard-go/internal/metrics"
	"github.com/diillson/energy-usage-dashboard-go/internal/shared/types"
)

// Rotas da API de energia.
const (
	routeHistory      = "/energy/history"
	routeCosts        = "/energy/costs"
	routeThreshold    = "/energy/current-threshold"
	routeInput        = "/energy/input"
	routeAlerts       = "/energy/alerts"
	routePresign      = "/energy/get-presigned-url"
	routeProcessFile  = "/energy/process-file"
	routeSubscribe    = "/energy/setup-sns"
	routeUnsubscribe  = "/energy/unsubscribe-sns"
	routeSubscription = "/energy/check-sns-subscription"
)

const (
	headerRequestID = "X-Request-Id"
	maxErrorBody    = 4 << 10
)

// EnergyRepositoryImpl implements the EnergyRepository interface over HTTP.
type EnergyRepositoryImpl struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewEnergyRepository creates a client for the API at baseURL. Every request
// carries the bearer token yielded by tokens.
func NewEnergyRepository(baseURL string, tokens oauth2.TokenSource, timeout time.Duration, log zerolog.Logger) repository.EnergyRepository {
	var client *http.Client
	if tokens != nil {
		client = oauth2.NewClient(context.Background(), tokens)
	} else {
		client = &http.Client{}
	}
	client.Timeout = timeout

	return &EnergyRepositoryImpl{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		log:     log.With().Str("adapter", "energy-api").Logger(),
	}
}

type readingRequest struct {
	CustomerID   string  `json:"customerId"`
	Date         string  `json:"Date"`
	Usage        float64 `json:"Usage"`
	CustomerDate string  `json:"customerId#Date"`
}

type alertRequest struct {
	CustomerID string  `json:"customerId"`
	Threshold  float64 `json:"threshold"`
}

type processRequest struct {
	CustomerID string `json:"customerId"`
	FileURL    string `json:"fileUrl"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type thresholdResponse struct {
	Threshold *float64 `json:"threshold"`
}

type subscribeResponse struct {
	SubscriptionArn string `json:"SubscriptionArn"`
}

type subscriptionStatusResponse struct {
	IsSubscribed bool `json:"isSubscribed"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func rangeQuery(customerID string, start, end *time.Time) url.Values {
	q := url.Values{}
	if start != nil {
		q.Set("startDate", start.Format(entity.DateLayout))
	}
	if end != nil {
		q.Set("endDate", end.Format(entity.DateLayout))
	}
	q.Set("customer_id", customerID)
	return q
}

func (r *EnergyRepositoryImpl) GetHistory(ctx context.Context, customerID string, start, end *time.Time) ([]entity.UsageSample, error) {
	var out []entity.UsageSample
	if err := r.do(ctx, "history", http.MethodGet, routeHistory, rangeQuery(customerID, start, end), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *EnergyRepositoryImpl) GetCosts(ctx context.Context, customerID string, start, end *time.Time) ([]entity.CostSample, error) {
	var out []entity.CostSample
	if err := r.do(ctx, "costs", http.MethodGet, routeCosts, rangeQuery(customerID, start, end), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *EnergyRepositoryImpl) SubmitReading(ctx context.Context, customerID string, date time.Time, usage float64) error {
	day := date.Format(entity.DateLayout)
	body := readingRequest{
		CustomerID:   customerID,
		Date:         day,
		Usage:        usage,
		CustomerDate: customerID + "#" + day,
	}
	return r.do(ctx, "reading", http.MethodPost, routeInput, nil, body, nil)
}

func (r *EnergyRepositoryImpl) GetThreshold(ctx context.Context, customerID string) (*float64, error) {
	var out thresholdResponse
	q := url.Values{"customer_id": {customerID}}
	if err := r.do(ctx, "threshold", http.MethodGet, routeThreshold, q, nil, &out); err != nil {
		return nil, err
	}
	return out.Threshold, nil
}

func (r *EnergyRepositoryImpl) UpdateThreshold(ctx context.Context, customerID string, threshold float64) error {
	body := alertRequest{CustomerID: customerID, Threshold: threshold}
	return r.do(ctx, "threshold", http.MethodPost, routeAlerts, nil, body, nil)
}

func (r *EnergyRepositoryImpl) GetPresignedUpload(ctx context.Context, customerID, fileName string) (entity.StagingTarget, error) {
	var target entity.StagingTarget
	q := url.Values{"customerId": {customerID}, "fileName": {fileName}}
	if err := r.do(ctx, string(entity.StagePresign), http.MethodGet, routePresign, q, nil, &target); err != nil {
		return entity.StagingTarget{}, err
	}
	if target.UploadURL == "" || target.ObjectRef == "" {
		return entity.StagingTarget{}, &types.TransportError{
			Stage:   string(entity.StagePresign),
			Op:      http.MethodGet + " " + routePresign,
			Message: "response is missing presignedUrl or fileUrl",
		}
	}
	return target, nil
}

func (r *EnergyRepositoryImpl) ProcessUpload(ctx context.Context, customerID, objectRef string) error {
	body := processRequest{CustomerID: customerID, FileURL: objectRef}
	return r.do(ctx, string(entity.StageProcess), http.MethodPost, routeProcessFile, nil, body, nil)
}

func (r *EnergyRepositoryImpl) Subscribe(ctx context.Context, email string) (string, error) {
	var out subscribeResponse
	if err := r.do(ctx, "subscribe", http.MethodPost, routeSubscribe, nil, emailRequest{Email: email}, &out); err != nil {
		return "", err
	}
	return out.SubscriptionArn, nil
}

func (r *EnergyRepositoryImpl) Unsubscribe(ctx context.Context, email string) error {
	return r.do(ctx, "unsubscribe", http.MethodPost, routeUnsubscribe, nil, emailRequest{Email: email}, nil)
}

func (r *EnergyRepositoryImpl) SubscriptionStatus(ctx context.Context, email string) (bool, error) {
	var out subscriptionStatusResponse
	q := url.Values{"email": {email}}
	if err := r.do(ctx, "subscription", http.MethodGet, routeSubscription, q, nil, &out); err != nil {
		return false, err
	}
	return out.IsSubscribed, nil
}

// do executa uma chamada JSON. Falhas de rede, status fora de 2xx e corpo
// inválido viram *types.TransportError.
func (r *EnergyRepositoryImpl) do(ctx context.Context, stage, method, route string, query url.Values, body, out interface{}) error {
	op := method + " " + route
	endpoint := r.baseURL + route
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &types.TransportError{Stage: stage, Op: op, Err: fmt.Errorf("error encoding request: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &types.TransportError{Stage: stage, Op: op, Err: err}
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerRequestID, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger := r.log.With().Str("op", op).Str("request_id", requestID).Logger()
	start := time.Now()

	resp, err := r.client.Do(req)
	if err != nil {
		metrics.APIRequestDuration.WithLabelValues(route, "error").Observe(time.Since(start).Seconds())
		logger.Warn().Err(err).Msg("request failed")
		return &types.TransportError{Stage: stage, Op: op, Err: err}
	}
	defer resp.Body.Close()

	metrics.APIRequestDuration.WithLabelValues(route, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())
	logger.Debug().Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &types.TransportError{
			Stage:      stage,
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(raw, resp.Status),
		}
	}

	if out == nil {
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &types.TransportError{Stage: stage, Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &types.TransportError{
			Stage:      stage,
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("error decoding response: %w", err),
		}
	}
	return nil
}

// errorMessage extrai {"error": "..."} (ou {"message": "..."}) do corpo de erro.
func errorMessage(raw []byte, status string) string {
	var payload errorResponse
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	if text := strings.TrimSpace(string(raw)); text != "" {
		return text
	}
	return status
}
