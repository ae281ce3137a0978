package vision

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"photogallery/internal/config"

	"github.com/volcengine/volcengine-go-sdk/service/arkruntime"
	volcModel "github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"
)

//文档:https://www.volcengine.com/docs/82379/1298454

// VolcengineAnnotator 通过火山方舟的聊天补全接口做图片分析。
type VolcengineAnnotator struct {
	client  *arkruntime.Client
	model   string
	timeout time.Duration
}

func NewVolcengineAnnotator(cfg config.Config) *VolcengineAnnotator {
	timeout := time.Duration(cfg.VisionTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &VolcengineAnnotator{
		client:  arkruntime.NewClientWithApiKey(strings.TrimSpace(cfg.VolcengineAPIKey)),
		model:   strings.TrimSpace(cfg.VisionModel),
		timeout: timeout,
	}
}

func (a *VolcengineAnnotator) Analyze(ctx context.Context, req AnalyzeRequest) (*Analysis, error) {
	if a.client == nil {
		return nil, ErrAnalysisDisabled
	}
	if len(req.Data) == 0 {
		return nil, errors.New("vision: empty image payload")
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	prompt := buildAnalysisPrompt(req.ExistingCategories)
	chatReq := volcModel.CreateChatCompletionRequest{
		Model: a.model,
		Messages: []*volcModel.ChatCompletionMessage{
			{
				Role: volcModel.ChatMessageRoleUser,
				Content: &volcModel.ChatCompletionMessageContent{
					ListValue: []*volcModel.ChatCompletionMessageContentPart{
						{
							Type: volcModel.ChatCompletionMessageContentPartTypeText,
							Text: prompt,
						},
						{
							Type: volcModel.ChatCompletionMessageContentPartTypeImageURL,
							ImageURL: &volcModel.ChatMessageImageURL{
								URL: imageDataURL(req.Data, req.MimeType),
							},
						},
					},
				},
			},
		},
	}

	resp, err := a.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("volcengine chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == nil || resp.Choices[0].Message.Content.StringValue == nil {
		return nil, errors.New("empty choices in response")
	}

	return parseAnalysis(*resp.Choices[0].Message.Content.StringValue, req.ExistingCategories)
}

var _ Annotator = (*VolcengineAnnotator)(nil)
