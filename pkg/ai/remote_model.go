package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rotisserie/eris"

	"agriadvisor/pkg/logger"
)

type remoteModel struct {
	endpoint string
	key      string
	httpc    *http.Client
	fallback YieldModel
	tries    uint
	log      *logger.Logger
}

// NewRemote posts soil readings to endpoint + "/v1/yield". Any failure other
// than the caller's context ending is answered by the table model.
func NewRemote(endpoint, key string, log *logger.Logger) YieldModel {
	return &remoteModel{
		endpoint: strings.TrimRight(endpoint, "/"),
		key:      key,
		httpc:    &http.Client{Timeout: 8 * time.Second},
		fallback: NewTable(),
		tries:    2,
		log:      logger.OrNop(log).With("component", "yield-remote"),
	}
}

type yieldReq struct {
	Crop       string   `json:"crop"`
	AreaHa     float64  `json:"area_ha"`
	PH         float64  `json:"ph"`
	Nitrogen   float64  `json:"nitrogen"`
	Phosphorus float64  `json:"phosphorus"`
	Potassium  float64  `json:"potassium"`
	Rainfall   *float64 `json:"rainfall_mm,omitempty"`
	Humidity   *float64 `json:"humidity_pct,omitempty"`
	Temp       *float64 `json:"temperature_c,omitempty"`
}

type yieldResp struct {
	PredictedYield *float64 `json:"predicted_yield_q_per_hectare"`
}

func (m *remoteModel) Predict(ctx context.Context, in YieldInput) (YieldEstimate, error) {
	q, err := backoff.Retry(ctx, func() (float64, error) { return m.call(ctx, in) },
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(m.tries),
	)
	if err == nil {
		return YieldEstimate{QHa: q, Source: SourceRemote}, nil
	}
	if ctx.Err() != nil {
		return YieldEstimate{}, ctx.Err()
	}
	m.log.Warn("remote yield model failed, using table", "field_id", in.Field.FieldID, "error", err)
	est, ferr := m.fallback.Predict(ctx, in)
	if ferr != nil {
		return YieldEstimate{}, ferr
	}
	est.Fallback = true
	return est, nil
}

func (m *remoteModel) call(ctx context.Context, in YieldInput) (float64, error) {
	s := in.Snapshot
	b, err := json.Marshal(yieldReq{
		Crop:       string(in.Field.CropType),
		AreaHa:     in.Field.AreaHa,
		PH:         s.PH,
		Nitrogen:   s.Nitrogen,
		Phosphorus: s.Phosphorus,
		Potassium:  s.Potassium,
		Rainfall:   s.RainfallMM,
		Humidity:   s.HumidityPct,
		Temp:       s.TemperatureC,
	})
	if err != nil {
		return 0, backoff.Permanent(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint+"/v1/yield", bytes.NewReader(b))
	if err != nil {
		return 0, backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if m.key != "" {
		req.Header.Set("Authorization", "Bearer "+m.key)
	}

	resp, err := m.httpc.Do(req)
	if err != nil {
		return 0, eris.Wrap(err, "yield request")
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return 0, eris.Errorf("yield model status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, backoff.Permanent(fmt.Errorf("yield model status %d", resp.StatusCode))
	}

	var out yieldResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, backoff.Permanent(eris.Wrap(err, "decode yield response"))
	}
	if out.PredictedYield == nil {
		return 0, backoff.Permanent(eris.New("yield response missing predicted_yield_q_per_hectare"))
	}
	q := *out.PredictedYield
	if q < 0 || math.IsNaN(q) || math.IsInf(q, 0) {
		return 0, backoff.Permanent(fmt.Errorf("yield model returned %v", q))
	}
	return q, nil
}
