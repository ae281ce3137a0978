package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"photogallery/internal/config"

	"github.com/sirupsen/logrus"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

type orImageURL struct {
	URL string `json:"url"`
}

type orMsgPart struct {
	Type     string      `json:"type"` // "text" | "image_url"
	Text     string      `json:"text,omitempty"`
	ImageURL *orImageURL `json:"image_url,omitempty"`
}

type orMessage struct {
	Role    string      `json:"role"` // "user"
	Content interface{} `json:"content"`
}

type orChatRequest struct {
	Model       string      `json:"model"`
	Messages    []orMessage `json:"messages"`
	MaxTokens   int         `json:"max_tokens"`
	Temperature float64     `json:"temperature"`
}

type orChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// OpenRouterAnnotator 通过 OpenRouter 的聊天补全接口做图片分析。
type OpenRouterAnnotator struct {
	apiKey     string
	baseURL    string
	model      string
	maxRetries int
	retryDelay time.Duration
	httpClient *http.Client
}

func NewOpenRouterAnnotator(cfg config.Config) *OpenRouterAnnotator {
	timeout := time.Duration(cfg.VisionTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	maxRetries := cfg.VisionMaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	retryDelay := time.Duration(cfg.VisionRetryDelaySecond * float64(time.Second))
	if retryDelay <= 0 {
		retryDelay = time.Second
	}
	return &OpenRouterAnnotator{
		apiKey:     strings.TrimSpace(cfg.OpenRouterAPIKey),
		baseURL:    openRouterBaseURL,
		model:      strings.TrimSpace(cfg.VisionModel),
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (a *OpenRouterAnnotator) Analyze(ctx context.Context, req AnalyzeRequest) (*Analysis, error) {
	if a.apiKey == "" {
		return nil, ErrAnalysisDisabled
	}
	if len(req.Data) == 0 {
		return nil, errors.New("vision: empty image payload")
	}

	prompt := buildAnalysisPrompt(req.ExistingCategories)
	body := orChatRequest{
		Model: a.model,
		Messages: []orMessage{{
			Role: "user",
			Content: []orMsgPart{
				{Type: "text", Text: prompt},
				{Type: "image_url", ImageURL: &orImageURL{URL: imageDataURL(req.Data, req.MimeType)}},
			},
		}},
		MaxTokens:   2000,
		Temperature: 0.1,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < a.maxRetries; attempt++ {
		if attempt > 0 {
			wait := a.retryDelay * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		content, retryable, err := a.doRequest(ctx, payload)
		if err == nil {
			return parseAnalysis(content, req.ExistingCategories)
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
		logrus.WithError(err).WithField("attempt", attempt+1).Warn("vision request failed, retrying")
	}

	return nil, fmt.Errorf("vision: max retries exceeded: %w", lastErr)
}

func (a *OpenRouterAnnotator) doRequest(ctx context.Context, payload []byte) (content string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		// 网络错误与超时可重试
		return "", true, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, err
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", true, fmt.Errorf("openrouter http %d: %s", resp.StatusCode, string(respBody))
	default:
		return "", false, fmt.Errorf("openrouter http %d: %s", resp.StatusCode, string(respBody))
	}

	var chat orChatResponse
	if err := json.Unmarshal(respBody, &chat); err != nil {
		return "", false, fmt.Errorf("decode response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return "", false, errors.New("empty choices in response")
	}
	return chat.Choices[0].Message.Content, false, nil
}

var _ Annotator = (*OpenRouterAnnotator)(nil)
