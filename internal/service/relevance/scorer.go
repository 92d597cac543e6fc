package relevance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/sandevgo/filepilot/internal/core"
	"github.com/sandevgo/filepilot/pkg/log"
)

const (
	maxScored     = 15
	maxCandidates = 50
	scoreCutoff   = 50
	scoringTemp   = 0.3
)

// Target identifies the LLM used for the scoring call. It mirrors whatever
// provider the main conversation is running on.
type Target struct {
	Provider string
	APIKey   string
	Model    string
}

// Scorer assigns 0-100 relevance scores to search results via a secondary
// LLM call, degrading to a deterministic keyword ladder when that fails.
// Scoring never fails: the fallback makes no network calls.
type Scorer struct {
	client   *http.Client
	baseURLs map[string]string
}

func NewScorer(customBaseURL string) *Scorer {
	return &Scorer{
		client: &http.Client{Timeout: 120 * time.Second},
		baseURLs: map[string]string{
			core.ProviderOpenAI:    "https://api.openai.com",
			core.ProviderGoogle:    "https://generativelanguage.googleapis.com",
			core.ProviderAnthropic: "https://api.anthropic.com",
			core.ProviderCustom:    customBaseURL,
		},
	}
}

// Score returns a prioritized subset of files (at most 15), sorted by
// descending relevance.
func (s *Scorer) Score(ctx context.Context, files []core.SearchResult, userMessage, searchQuery string, target Target) []core.SearchResult {
	if len(files) == 0 {
		return files
	}

	scored, err := s.scoreWithLLM(ctx, files, userMessage, searchQuery, target)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).
			Str("provider", target.Provider).
			Int("files", len(files)).
			Msg("llm scoring failed, using keyword fallback")
		return keywordFallback(files, searchQuery)
	}
	return scored
}

type llmScore struct {
	Index  int    `json:"index"`
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

type llmScoring struct {
	Scores     []llmScore `json:"scores"`
	TopResults []int      `json:"top_results"`
}

func buildScoringPrompt(files []core.SearchResult, userMessage, searchQuery string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "The user asked: %q\n", userMessage)
	fmt.Fprintf(&b, "A file search was run with query: %q\n\n", searchQuery)
	b.WriteString("Rate how relevant each candidate file is to what the user wants.\n")
	b.WriteString("Scoring rubric: 100 = exact match, 80-99 = strong match, 50-79 = possible match, 20-49 = weak match, 0-19 = irrelevant. Be strict.\n\n")
	b.WriteString("Candidates:\n")

	n := len(files)
	if n > maxCandidates {
		n = maxCandidates
	}
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i, files[i].Name, files[i].Path)
	}

	b.WriteString("\nReturn ONLY JSON in this shape:\n")
	b.WriteString(`{"scores": [{"index": 0, "score": 85, "reason": "..."}], "top_results": [0]}`)
	return b.String()
}

func (s *Scorer) scoreWithLLM(ctx context.Context, files []core.SearchResult, userMessage, searchQuery string, target Target) ([]core.SearchResult, error) {
	prompt := buildScoringPrompt(files, userMessage, searchQuery)

	var (
		raw string
		err error
	)
	switch target.Provider {
	case core.ProviderOpenAI, core.ProviderCustom:
		raw, err = s.scoreOpenAI(ctx, prompt, target)
	case core.ProviderGoogle:
		raw, err = s.scoreGoogle(ctx, prompt, target)
	case core.ProviderAnthropic:
		raw, err = s.scoreAnthropic(ctx, prompt, target)
	default:
		err = fmt.Errorf("unknown scoring provider: %s", target.Provider)
	}
	if err != nil {
		return nil, err
	}

	var scoring llmScoring
	if err := json.Unmarshal([]byte(raw), &scoring); err != nil {
		return nil, fmt.Errorf("decode scoring json: %w", err)
	}
	if len(scoring.Scores) == 0 {
		return nil, fmt.Errorf("scoring response has no scores field")
	}

	return applyScores(files, scoring), nil
}

// applyScores merges LLM scores onto the candidates by index, keeps the
// union of {score >= 50} and the model's top_results, and returns at most
// 15 files sorted by descending score.
func applyScores(files []core.SearchResult, scoring llmScoring) []core.SearchResult {
	out := make([]core.SearchResult, len(files))
	copy(out, files)

	for _, sc := range scoring.Scores {
		if sc.Index < 0 || sc.Index >= len(out) {
			continue
		}
		v := sc.Score
		out[sc.Index].RelevanceScore = &v
		out[sc.Index].ScoreReason = sc.Reason
	}

	keep := make(map[int]bool)
	for i, f := range out {
		if f.RelevanceScore != nil && *f.RelevanceScore >= scoreCutoff {
			keep[i] = true
		}
	}
	for _, idx := range scoring.TopResults {
		if idx >= 0 && idx < len(out) {
			keep[idx] = true
		}
	}

	var kept []core.SearchResult
	for i := range out {
		if keep[i] {
			kept = append(kept, out[i])
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return relScore(kept[i]) > relScore(kept[j])
	})

	if len(kept) > maxScored {
		kept = kept[:maxScored]
	}
	return kept
}

func relScore(f core.SearchResult) int {
	if f.RelevanceScore == nil {
		return -1
	}
	return *f.RelevanceScore
}

// keywordFallback is the deterministic scoring path: no network, no
// randomness. Backend-supplied scores win; otherwise an ordered keyword
// ladder against the comma-split search query decides.
func keywordFallback(files []core.SearchResult, searchQuery string) []core.SearchResult {
	var keywords []string
	for _, kw := range strings.Split(strings.ToLower(searchQuery), ",") {
		kw = strings.TrimSpace(kw)
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}

	var kept []core.SearchResult
	for _, f := range files {
		score, reason := fallbackScore(f, keywords)
		if score < scoreCutoff {
			continue
		}
		v := score
		f.RelevanceScore = &v
		f.ScoreReason = reason
		kept = append(kept, f)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return *kept[i].RelevanceScore > *kept[j].RelevanceScore
	})

	if len(kept) > maxScored {
		kept = kept[:maxScored]
	}
	return kept
}

func fallbackScore(f core.SearchResult, keywords []string) (int, string) {
	if f.Score != 0 {
		return int(f.Score * 100), "backend score"
	}

	name := strings.ToLower(f.Name)
	stem := name
	if dot := strings.LastIndex(stem, "."); dot > 0 {
		stem = stem[:dot]
	}
	path := strings.ToLower(f.Path)

	for _, kw := range keywords {
		if stem == kw {
			return 95, "exact filename match"
		}
	}
	for _, kw := range keywords {
		if strings.Contains(name, kw) {
			return 85, "filename contains keyword"
		}
	}
	for _, kw := range keywords {
		if strings.Contains(path, kw) {
			return 70, "path contains keyword"
		}
	}
	return 50, "default"
}

func (s *Scorer) post(ctx context.Context, url string, payload any, headers map[string]string) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, string(data))
	}
	return data, nil
}

func (s *Scorer) scoreOpenAI(ctx context.Context, prompt string, target Target) (string, error) {
	payload := map[string]any{
		"model": target.Model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature":     scoringTemp,
		"response_format": map[string]string{"type": "json_object"},
	}
	headers := map[string]string{"Authorization": "Bearer " + target.APIKey}

	data, err := s.post(ctx, s.baseURLs[target.Provider]+"/v1/chat/completions", payload, headers)
	if err != nil {
		return "", err
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("empty choices")
	}
	return result.Choices[0].Message.Content, nil
}

func (s *Scorer) scoreGoogle(ctx context.Context, prompt string, target Target) (string, error) {
	payload := map[string]any{
		"contents": []map[string]any{
			{"role": "user", "parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": map[string]any{
			"temperature":      scoringTemp,
			"responseMimeType": "application/json",
		},
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		s.baseURLs[core.ProviderGoogle], target.Model, target.APIKey)

	data, err := s.post(ctx, url, payload, nil)
	if err != nil {
		return "", err
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty candidates")
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}

var jsonBlockRe = regexp.MustCompile(`(?s)\{.*\}`)

func (s *Scorer) scoreAnthropic(ctx context.Context, prompt string, target Target) (string, error) {
	payload := map[string]any{
		"model":      target.Model,
		"max_tokens": 2048,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": scoringTemp,
	}
	headers := map[string]string{
		"x-api-key":         target.APIKey,
		"anthropic-version": "2023-06-01",
	}

	data, err := s.post(ctx, s.baseURLs[core.ProviderAnthropic]+"/v1/messages", payload, headers)
	if err != nil {
		return "", err
	}

	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}

	var text string
	for _, c := range result.Content {
		if c.Type == "text" {
			text += c.Text
		}
	}

	// Anthropic has no structured-output mode; pull the first JSON object
	// out of the free-form reply.
	block := jsonBlockRe.FindString(text)
	if block == "" {
		return "", fmt.Errorf("no json object in scoring reply")
	}
	return block, nil
}
