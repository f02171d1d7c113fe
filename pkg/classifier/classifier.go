// Package classifier uploads leaf images to the plant-disease prediction service.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
	"time"
)

// DefaultURL is the prediction endpoint used when none is configured.
const DefaultURL = "http://127.0.0.1:8000/predict"

// ErrNoLabel is returned when the service answers without a class name.
var ErrNoLabel = errors.New("prediction has no label")

// Candidate is one ranked alternative.
type Candidate struct {
	Label string  `json:"label"`
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// Prediction is the service's verdict for one image.
type Prediction struct {
	Label      string      `json:"label"`
	Top        []Candidate `json:"top"`
	Index      int         `json:"index"`
	Confidence float64     `json:"confidence"`
}

// wirePrediction accepts both response shapes the service has used.
type wirePrediction struct {
	ClassName      string          `json:"class_name"`
	PredictedClass string          `json:"predicted_class"`
	TopK           []wireCandidate `json:"top_k"`
	Top3           []wireCandidate `json:"top_3_predictions"`
	ClassIndex     int             `json:"class_index"`
	Confidence     float64         `json:"confidence"`
}

type wireCandidate struct {
	Label      string   `json:"label"`
	Class      string   `json:"class"`
	Score      *float64 `json:"score"`
	Confidence *float64 `json:"confidence"`
	Index      int      `json:"index"`
}

func (w wirePrediction) prediction() Prediction {
	p := Prediction{
		Label:      w.ClassName,
		Index:      w.ClassIndex,
		Confidence: w.Confidence,
	}
	if p.Label == "" {
		p.Label = w.PredictedClass
	}
	candidates := w.TopK
	if len(candidates) == 0 {
		candidates = w.Top3
	}
	p.Top = make([]Candidate, 0, len(candidates))
	for i, c := range candidates {
		cand := Candidate{Label: c.Label, Index: c.Index}
		if cand.Label == "" {
			cand.Label = c.Class
		}
		switch {
		case c.Score != nil:
			cand.Score = *c.Score
		case c.Confidence != nil:
			cand.Score = *c.Confidence
		}
		if len(w.TopK) == 0 {
			// The older shape carries no indices; keep the rank instead.
			cand.Index = i
		}
		p.Top = append(p.Top, cand)
	}
	return p
}

// Client talks to the prediction service.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	url        string
}

// New creates a Client. An empty url selects DefaultURL.
func New(url string, httpClient *http.Client, logger *slog.Logger) *Client {
	if url == "" {
		url = DefaultURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{url: url, httpClient: httpClient, logger: logger}
}

// contentType derives the image MIME type from the file extension.
func contentType(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	switch ext {
	case "", "jpg", "jpeg":
		return "image/jpeg"
	default:
		return "image/" + ext
	}
}

// Predict uploads one image as the multipart field "file". The request is
// made once; uploads are not retried.
func (c *Client) Predict(ctx context.Context, filename string, data []byte) (*Prediction, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(filename)))
	header.Set("Content-Type", contentType(filename))
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("creating form part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("writing image: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("uploading image for prediction", "url", c.url, "file", filename, "bytes", len(data))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling classifier: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Debug("failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err != nil {
			return nil, fmt.Errorf("classifier %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("classifier %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var wire wirePrediction
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decoding prediction: %w", err)
	}
	p := wire.prediction()
	if p.Label == "" {
		return nil, ErrNoLabel
	}
	c.logger.Debug("prediction received", "label", p.Label, "confidence", p.Confidence)
	return &p, nil
}
