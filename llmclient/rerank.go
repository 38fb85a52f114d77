package llmclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type rerankRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// Rerank scores every (query, document) pair with the cross-encoder server
// and returns scores aligned to the input document order.
func (c *Client) Rerank(ctx context.Context, host string, query string, documents []string) ([]float64, error) {
	if len(documents) == 0 {
		return nil, nil
	}

	jsonBody, err := json.Marshal(rerankRequest{
		Query:     query,
		Documents: documents,
		TopN:      len(documents),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/rerank", strings.TrimRight(host, "/"))
	bodyBytes, status, err := c.postWithRetry(ctx, url, jsonBody)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("rerank server status %d: %s", status, string(bodyBytes))
	}

	var rr rerankResponse
	if err := json.Unmarshal(bodyBytes, &rr); err != nil {
		return nil, fmt.Errorf("decode rerank response: %w", err)
	}

	scores := make([]float64, len(documents))
	for _, res := range rr.Results {
		if res.Index < 0 || res.Index >= len(documents) {
			return nil, fmt.Errorf("rerank result index %d out of range", res.Index)
		}
		scores[res.Index] = res.RelevanceScore
	}
	return scores, nil
}
