package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	apperrors "github.com/pdtechteam/quiz-generator/internal/pkg/errors"
)

// CacheStore is the subset of the generation cache used by the adapter.
type CacheStore interface {
	GetJSON(key string, dest interface{}) error
	SetJSON(key string, value interface{}, expiration time.Duration) error
}

const cacheTTL = 7 * 24 * time.Hour

// CandidateChoice is one of a generated question's four options.
type CandidateChoice struct {
	Text string `json:"text"`
}

// Candidate is one validated generated question.
type Candidate struct {
	Text         string            `json:"text"`
	Choices      []CandidateChoice `json:"choices"`
	CorrectIndex int               `json:"correct_index"`
	Difficulty   string            `json:"difficulty"`
	Explanation  string            `json:"explanation"`
	ImageURL     string            `json:"image_url,omitempty"`
}

// Request is the input to Generate, per spec.md §4.5.
type Request struct {
	Topic        string
	Count        int
	Curve        []string
	PlayerCount  int
}

// Adapter calls an OpenAI-compatible chat completion endpoint to produce a
// validated list of question candidates, with cache-first reads and
// retry/backoff on failure (Component E).
type Adapter struct {
	cache      CacheStore
	httpClient *http.Client
	apiKey     string
	apiBase    string
	model      string
}

func NewAdapter(cache CacheStore, apiKey, apiBase, model string) *Adapter {
	return &Adapter{
		cache:      cache,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		apiKey:     apiKey,
		apiBase:    apiBase,
		model:      model,
	}
}

// Generate returns a validated candidate list for the request, consulting
// the cache first and writing through on a successful call.
func (a *Adapter) Generate(ctx context.Context, req Request) ([]Candidate, error) {
	key := CacheKey(req.Topic, req.Count, req.Curve)

	var cached []Candidate
	if err := a.cache.GetJSON(key, &cached); err == nil && len(cached) == req.Count {
		return cached, nil
	}

	var result []Candidate
	attempt := 0
	operation := func() error {
		attempt++
		candidates, err := a.call(ctx, req)
		if err != nil {
			log.Printf("[Generation] attempt %d failed: %v", attempt, err)
			return err
		}
		if err := validate(candidates, req.Count); err != nil {
			log.Printf("[Generation] attempt %d produced invalid candidates: %v", attempt, err)
			return err
		}
		result = candidates
		return nil
	}

	// up to 3 attempts total, waiting 2^n seconds plus uniform jitter between them.
	policy := backoff.WithContext(backoff.WithMaxRetries(&exponentialJitterBackOff{}, 2), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrGenerationFailed, err)
	}

	if err := a.cache.SetJSON(key, result, cacheTTL); err != nil {
		log.Printf("[Generation] failed to write cache for key %s: %v", key, err)
	}

	return result, nil
}

// exponentialJitterBackOff implements backoff.BackOff with the schedule
// spec.md §4.5 requires: 2^n seconds plus uniform jitter in [0,1).
type exponentialJitterBackOff struct {
	attempt int
}

func (b *exponentialJitterBackOff) NextBackOff() time.Duration {
	b.attempt++
	return time.Duration(1<<uint(b.attempt))*time.Second + time.Duration(rand.Float64()*float64(time.Second))
}

func (b *exponentialJitterBackOff) Reset() {
	b.attempt = 0
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (a *Adapter) call(ctx context.Context, req Request) ([]Candidate, error) {
	prompt := buildPrompt(req)
	body, err := json.Marshal(chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You generate trivia questions as strict JSON."},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.apiBase+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("generation endpoint returned status %d: %s", resp.StatusCode, string(data))
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse generation response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("generation response had no choices")
	}

	var candidates []Candidate
	if err := json.Unmarshal([]byte(parsed.Choices[0].Message.Content), &candidates); err != nil {
		return nil, fmt.Errorf("failed to parse candidate list: %w", err)
	}
	return candidates, nil
}

func buildPrompt(req Request) string {
	return fmt.Sprintf(
		"Generate %d trivia questions about %q for %d players, difficulty curve %v. "+
			"Respond with a JSON array; each item has text, choices (4 objects with text), "+
			"correct_index, difficulty, explanation.",
		req.Count, req.Topic, req.PlayerCount, req.Curve,
	)
}

func validate(candidates []Candidate, wantCount int) error {
	if len(candidates) != wantCount {
		return fmt.Errorf("expected %d candidates, got %d", wantCount, len(candidates))
	}
	for i, c := range candidates {
		if len(c.Choices) != 4 {
			return fmt.Errorf("candidate %d: expected 4 choices, got %d", i, len(c.Choices))
		}
		if c.CorrectIndex < 0 || c.CorrectIndex > 3 {
			return fmt.Errorf("candidate %d: correct_index out of range", i)
		}
		seen := make(map[string]bool, 4)
		for _, ch := range c.Choices {
			if len(ch.Text) == 0 || len(ch.Text) > 40 {
				return fmt.Errorf("candidate %d: choice text length invalid", i)
			}
			if seen[ch.Text] {
				return fmt.Errorf("candidate %d: duplicate choice text", i)
			}
			seen[ch.Text] = true
		}
	}
	return nil
}
