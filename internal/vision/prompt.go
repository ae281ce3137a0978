package vision

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// analysisPayload 是视觉模型约定返回的 JSON 结构。
type analysisPayload struct {
	Name              string            `json:"name"`
	Description       string            `json:"description"`
	Tags              []string          `json:"tags"`
	Objects           []string          `json:"objects"`
	SceneDescription  string            `json:"scene_description"`
	ColorPalette      []string          `json:"color_palette"`
	Emotions          []string          `json:"emotions"`
	ConfidenceScore   float64           `json:"confidence_score"`
	CategorySelection categorySelection `json:"category_selection"`
}

type categorySelection struct {
	SelectedCategory       string `json:"selected_category"`
	NewCategoryName        string `json:"new_category_name"`
	NewCategoryDescription string `json:"new_category_description"`
}

// buildAnalysisPrompt 生成图片分析提示词，列出现有分类供模型优先选择。
func buildAnalysisPrompt(existingCategories []string) string {
	names := make([]string, 0, len(existingCategories))
	for _, name := range existingCategories {
		trimmed := strings.TrimSpace(name)
		if trimmed != "" {
			names = append(names, trimmed)
		}
	}
	categoriesText := "None"
	if len(names) > 0 {
		categoriesText = strings.Join(names, ", ")
	}

	return fmt.Sprintf(`You are an expert image analyst. Analyze the provided image and return a JSON response with the following structure:

{
  "name": "Descriptive name for the image",
  "description": "Detailed description of what you see in the image",
  "tags": ["tag1", "tag2", "tag3", "tag4", "tag5"],
  "objects": ["object1", "object2", "object3"],
  "scene_description": "Description of the overall scene and setting",
  "color_palette": ["#color1", "#color2", "#color3", "#color4", "#color5"],
  "emotions": ["emotion1", "emotion2", "emotion3"],
  "confidence_score": 0.95,
  "category_selection": {
    "selected_category": "Category name from existing list or 'new'",
    "new_category_name": "Name if creating new category (only if selected_category is 'new')",
    "new_category_description": "Description if creating new category (only if selected_category is 'new')"
  }
}

EXISTING CATEGORIES: %s

INSTRUCTIONS:
1. Provide a detailed analysis of the image content
2. Extract 5-10 relevant tags that describe the image
3. Identify 3-5 main objects in the image
4. Describe the overall scene and setting
5. Extract 5 dominant colors in hex format
6. Identify 2-3 emotions or moods conveyed by the image
7. Provide a confidence score (0.0 to 1.0) for your analysis
8. Choose the most appropriate category from the existing list, or suggest a new one
9. If suggesting a new category, provide a name and description

IMPORTANT: Return ONLY valid JSON. No additional text or formatting.`, categoriesText)
}

// parseAnalysis 解析模型返回的 JSON，容忍 Markdown 代码围栏，并收敛字段范围。
func parseAnalysis(content string, existingCategories []string) (*Analysis, error) {
	trimmed := stripCodeFence(content)
	if trimmed == "" {
		return nil, fmt.Errorf("empty analysis response")
	}

	var payload analysisPayload
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		return nil, fmt.Errorf("parse analysis response: %w", err)
	}

	analysis := &Analysis{
		Name:             strings.TrimSpace(payload.Name),
		Description:      strings.TrimSpace(payload.Description),
		Tags:             cleanStrings(payload.Tags),
		Objects:          cleanStrings(payload.Objects),
		SceneDescription: strings.TrimSpace(payload.SceneDescription),
		ColorPalette:     cleanStrings(payload.ColorPalette),
		Emotions:         cleanStrings(payload.Emotions),
		ConfidenceScore:  clampConfidence(payload.ConfidenceScore),
	}

	selected := strings.TrimSpace(payload.CategorySelection.SelectedCategory)
	switch {
	case strings.EqualFold(selected, "new"):
		analysis.CategoryName = strings.TrimSpace(payload.CategorySelection.NewCategoryName)
		analysis.CategoryDescription = strings.TrimSpace(payload.CategorySelection.NewCategoryDescription)
		analysis.NewCategory = analysis.CategoryName != ""
	case selected != "":
		analysis.CategoryName = selected
		analysis.NewCategory = !containsFold(existingCategories, selected)
		if analysis.NewCategory {
			analysis.CategoryDescription = strings.TrimSpace(payload.CategorySelection.NewCategoryDescription)
		}
	}

	return analysis, nil
}

// stripCodeFence 去除 ```json ... ``` 包裹，模型偶尔不听话。
func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

func cleanStrings(values []string) []string {
	result := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func clampConfidence(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func containsFold(values []string, target string) bool {
	for _, value := range values {
		if strings.EqualFold(strings.TrimSpace(value), target) {
			return true
		}
	}
	return false
}

// imageDataURL 将图片字节编码为 data URL，供聊天补全协议内联传输。
func imageDataURL(data []byte, mimeType string) string {
	mt := strings.TrimSpace(mimeType)
	if mt == "" {
		mt = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", mt, base64.StdEncoding.EncodeToString(data))
}
