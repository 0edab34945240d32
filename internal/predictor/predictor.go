// Package predictor wraps the external price-prediction model. The model is
// trained and served elsewhere; this package only knows the
// predict(features) -> price contract.
package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// Features is the input vector of the regression model
type Features struct {
	Size     float64 `json:"size"`
	Bedrooms int     `json:"bedrooms"`
	Location string  `json:"location"`
}

// Predictor estimates a listing price from property features
type Predictor interface {
	Predict(ctx context.Context, features Features) (decimal.Decimal, error)
}

// HTTPPredictor calls the model-serving endpoint over HTTP
type HTTPPredictor struct {
	baseURL string
	client  *http.Client
}

// NewHTTPPredictor creates a predictor client for the given base URL
func NewHTTPPredictor(baseURL string, timeout time.Duration) *HTTPPredictor {
	return &HTTPPredictor{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type predictResponse struct {
	Price decimal.Decimal `json:"price"`
}

// Predict posts the feature vector to the model service
func (p *HTTPPredictor) Predict(ctx context.Context, features Features) (decimal.Decimal, error) {
	body, err := json.Marshal(features)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to marshal features: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("prediction request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("prediction service returned status %d", resp.StatusCode)
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode prediction: %w", err)
	}

	return out.Price, nil
}
