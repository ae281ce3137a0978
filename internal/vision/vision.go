package vision

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"photogallery/internal/config"
)

const (
	// ProviderOpenRouter 通过 OpenRouter 的 OpenAI 兼容协议调用视觉模型。
	ProviderOpenRouter = "openrouter"
	// ProviderVolcengine 通过火山方舟调用视觉模型。
	ProviderVolcengine = "volcengine"
)

// ErrAnalysisDisabled 表示未配置 API Key，视觉分析被禁用。
var ErrAnalysisDisabled = errors.New("vision: analysis disabled, missing api key")

// AnalyzeRequest 是一次图片分析的输入。
type AnalyzeRequest struct {
	Data []byte
	// MimeType 为图片的 MIME 类型，例如 image/jpeg。
	MimeType string
	// ExistingCategories 为提示词中的现有分类名列表，模型优先从中选择。
	ExistingCategories []string
}

// Analysis 是视觉模型对一张图片的结构化标注结果。
type Analysis struct {
	Name             string
	Description      string
	Tags             []string
	Objects          []string
	SceneDescription string
	ColorPalette     []string
	Emotions         []string
	ConfidenceScore  float64

	// CategoryName 为模型选择或建议的分类名。NewCategory 为 true 时表示
	// 该分类不在现有列表中，CategoryDescription 为新分类的描述。
	CategoryName        string
	NewCategory         bool
	CategoryDescription string
}

// Annotator 对单张图片执行视觉分析。
type Annotator interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (*Analysis, error)
}

// NewAnnotator 根据配置实例化视觉分析后端。缺少对应的 API Key 时返回
// 禁用实现：所有调用都以 ErrAnalysisDisabled 失败，由调用方落为失败状态。
func NewAnnotator(cfg config.Config) (Annotator, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.VisionProvider))
	switch provider {
	case "", ProviderOpenRouter:
		if strings.TrimSpace(cfg.OpenRouterAPIKey) == "" {
			return disabledAnnotator{}, nil
		}
		return NewOpenRouterAnnotator(cfg), nil
	case ProviderVolcengine:
		if strings.TrimSpace(cfg.VolcengineAPIKey) == "" {
			return disabledAnnotator{}, nil
		}
		return NewVolcengineAnnotator(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported vision provider: %s", cfg.VisionProvider)
	}
}

type disabledAnnotator struct{}

func (disabledAnnotator) Analyze(ctx context.Context, req AnalyzeRequest) (*Analysis, error) {
	return nil, ErrAnalysisDisabled
}
