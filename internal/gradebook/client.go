package gradebook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

type HTTPClient struct {
	http *http.Client
}

type Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// NewHTTPClient builds an AGS client authenticated via OAuth2 client
// credentials against the platform token endpoint.
func NewHTTPClient(cfg Config) *HTTPClient {
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
	}
	h := cc.Client(context.Background())
	if cfg.Timeout > 0 {
		h.Timeout = cfg.Timeout
	}
	return &HTTPClient{http: h}
}

func (c *HTTPClient) PostScore(ctx context.Context, lineItemURL string, s Score) error {
	body, _ := json.Marshal(map[string]any{
		"userId": s.UserID, "scoreGiven": s.ScoreGiven, "scoreMaximum": s.ScoreMaximum,
		"activityProgress": s.ActivityProgress, "gradingProgress": s.GradingProgress,
		"timestamp": s.Timestamp.Format(time.RFC3339),
	})
	// POST {lineItemURL}/scores
	if lineItemURL[len(lineItemURL)-1] != '/' {
		lineItemURL += "/"
	}
	req, err := http.NewRequestWithContext(ctx, "POST", lineItemURL+"scores", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/vnd.ims.lis.v1.score+json")
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		return fmt.Errorf("post score: %s", res.Status)
	}
	return nil
}
