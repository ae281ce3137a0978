package vision

import (
	"reflect"
	"strings"
	"testing"
)

func TestBuildAnalysisPrompt(t *testing.T) {
	prompt := buildAnalysisPrompt([]string{"Pets", " Travel ", ""})
	if !strings.Contains(prompt, "EXISTING CATEGORIES: Pets, Travel") {
		t.Errorf("prompt should list existing categories, got: %s", prompt)
	}

	prompt = buildAnalysisPrompt(nil)
	if !strings.Contains(prompt, "EXISTING CATEGORIES: None") {
		t.Error("prompt without categories should say None")
	}
}

func TestParseAnalysis(t *testing.T) {
	raw := `{
		"name": " Sunset Beach ",
		"description": "Waves at dusk",
		"tags": ["beach", " sunset ", ""],
		"objects": ["sea"],
		"scene_description": "Wide shore",
		"color_palette": ["#ff8800"],
		"emotions": ["calm"],
		"confidence_score": 0.87,
		"category_selection": {
			"selected_category": "Nature"
		}
	}`

	analysis, err := parseAnalysis(raw, []string{"Nature", "Pets"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if analysis.Name != "Sunset Beach" {
		t.Errorf("name = %q", analysis.Name)
	}
	if !reflect.DeepEqual(analysis.Tags, []string{"beach", "sunset"}) {
		t.Errorf("tags = %v", analysis.Tags)
	}
	if analysis.ConfidenceScore != 0.87 {
		t.Errorf("confidence = %f", analysis.ConfidenceScore)
	}
	if analysis.CategoryName != "Nature" || analysis.NewCategory {
		t.Errorf("expected existing category Nature, got %q new=%v", analysis.CategoryName, analysis.NewCategory)
	}
}

func TestParseAnalysisNewCategory(t *testing.T) {
	raw := `{
		"name": "x",
		"confidence_score": 0.5,
		"category_selection": {
			"selected_category": "new",
			"new_category_name": "Street Art",
			"new_category_description": "Murals and graffiti"
		}
	}`

	analysis, err := parseAnalysis(raw, []string{"Nature"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !analysis.NewCategory || analysis.CategoryName != "Street Art" {
		t.Errorf("expected new category Street Art, got %q new=%v", analysis.CategoryName, analysis.NewCategory)
	}
	if analysis.CategoryDescription != "Murals and graffiti" {
		t.Errorf("category description = %q", analysis.CategoryDescription)
	}
}

func TestParseAnalysisUnlistedCategoryIsNew(t *testing.T) {
	raw := `{"name": "x", "category_selection": {"selected_category": "Food"}}`
	analysis, err := parseAnalysis(raw, []string{"Nature"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !analysis.NewCategory || analysis.CategoryName != "Food" {
		t.Errorf("unlisted selection should create a new category, got %q new=%v", analysis.CategoryName, analysis.NewCategory)
	}
}

func TestParseAnalysisClampsConfidence(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected float64
	}{
		{"above one", `{"name": "x", "confidence_score": 3.5}`, 1},
		{"below zero", `{"name": "x", "confidence_score": -1}`, 0},
		{"in range", `{"name": "x", "confidence_score": 0.42}`, 0.42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis, err := parseAnalysis(tt.raw, nil)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if analysis.ConfidenceScore != tt.expected {
				t.Errorf("confidence = %f, want %f", analysis.ConfidenceScore, tt.expected)
			}
		})
	}
}

func TestParseAnalysisStripsCodeFence(t *testing.T) {
	raw := "```json\n{\"name\": \"Fenced\", \"confidence_score\": 0.7}\n```"
	analysis, err := parseAnalysis(raw, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if analysis.Name != "Fenced" {
		t.Errorf("name = %q", analysis.Name)
	}
}

func TestParseAnalysisRejectsGarbage(t *testing.T) {
	if _, err := parseAnalysis("not json at all", nil); err == nil {
		t.Error("expected parse error")
	}
	if _, err := parseAnalysis("   ", nil); err == nil {
		t.Error("expected empty response error")
	}
}

func TestImageDataURL(t *testing.T) {
	url := imageDataURL([]byte{1, 2, 3}, "image/png")
	if !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Errorf("unexpected prefix: %s", url)
	}

	url = imageDataURL([]byte{1}, "")
	if !strings.HasPrefix(url, "data:image/jpeg;base64,") {
		t.Errorf("missing mime should fall back to jpeg: %s", url)
	}
}
