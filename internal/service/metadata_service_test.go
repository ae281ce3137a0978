package service

import (
	"context"
	"errors"
	"testing"

	"photogallery/internal/apperr"
	"photogallery/internal/entity"
	"photogallery/internal/metadata"
)

func TestApplyUserEditValidation(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewMetadataService(repo)
	ctx := context.Background()

	img := seedImage(t, repo, "photo", nil)

	tests := []struct {
		name     string
		imageID  uint
		req      entity.MetadataUpdateRequest
		expected error
	}{
		{
			name:     "empty request",
			imageID:  img.ID,
			req:      entity.MetadataUpdateRequest{},
			expected: apperr.ErrValidation,
		},
		{
			name:     "unknown image",
			imageID:  9999,
			req:      entity.MetadataUpdateRequest{Name: strPtr("x")},
			expected: apperr.ErrImageNotFound,
		},
		{
			name:     "unknown category",
			imageID:  img.ID,
			req:      entity.MetadataUpdateRequest{CategoryID: uintPtr(777)},
			expected: apperr.ErrCategoryNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ApplyUserEdit(ctx, tt.imageID, tt.req)
			if !errors.Is(err, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, err)
			}
		})
	}
}

func TestApplyUserEditSetsFlagsAndClearsCategory(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewMetadataService(repo)
	ctx := context.Background()

	cat, err := repo.GetOrCreateCategoryByName(ctx, "Pets", "", false)
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	img := seedImage(t, repo, "dog", nil)

	updated, err := svc.ApplyUserEdit(ctx, img.ID, entity.MetadataUpdateRequest{
		Name:       strPtr("我家的狗"),
		CategoryID: uintPtr(cat.ID),
	})
	if err != nil {
		t.Fatalf("apply edit: %v", err)
	}

	if !updated.IsManuallyEdited {
		t.Error("IsManuallyEdited should be set")
	}
	if updated.LastEditedDate == nil {
		t.Error("LastEditedDate should be set")
	}
	if updated.NeedsManualMetadata {
		t.Error("edited image should not need manual metadata")
	}
	if updated.EffectiveCategoryID == nil || *updated.EffectiveCategoryID != cat.ID {
		t.Errorf("effective category = %v, want %d", updated.EffectiveCategoryID, cat.ID)
	}

	// CategoryID=0 清除用户分类
	updated, err = svc.ApplyUserEdit(ctx, img.ID, entity.MetadataUpdateRequest{CategoryID: uintPtr(0)})
	if err != nil {
		t.Fatalf("clear category: %v", err)
	}
	if updated.UserCategoryID != nil {
		t.Errorf("user category should be cleared, got %v", updated.UserCategoryID)
	}

	refreshed, err := repo.GetCategory(ctx, cat.ID)
	if err != nil {
		t.Fatalf("get category: %v", err)
	}
	if refreshed.UsageCount != 0 {
		t.Errorf("usage_count = %d, want 0 after clearing", refreshed.UsageCount)
	}
}

func TestResetUserEditIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewMetadataService(repo)
	ctx := context.Background()

	img := seedImage(t, repo, "sea", func(img *entity.DbImage) {
		img.AIName = "Seaside"
		img.AITags = []string{"sea"}
		img.AIProcessingStatus = entity.AIStatusCompleted
	})

	if _, err := svc.ApplyUserEdit(ctx, img.ID, entity.MetadataUpdateRequest{
		Name: strPtr("renamed"),
		Tags: tagsPtr([]string{"mine"}),
	}); err != nil {
		t.Fatalf("edit: %v", err)
	}

	reset, err := svc.ResetUserEdit(ctx, img.ID)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if reset.IsManuallyEdited || reset.UserName != "" || len(reset.UserTags) != 0 || reset.LastEditedDate != nil {
		t.Error("reset should clear the whole user facet")
	}
	if got := metadata.EffectiveName(reset); got != "Seaside" {
		t.Errorf("effective name after reset = %q, want Seaside", got)
	}
	if reset.NeedsManualMetadata {
		t.Error("image with completed analysis should not need manual metadata after reset")
	}

	// 再次撤销是幂等的
	again, err := svc.ResetUserEdit(ctx, img.ID)
	if err != nil {
		t.Fatalf("second reset: %v", err)
	}
	if again.UserName != "" || again.IsManuallyEdited {
		t.Error("second reset should be a no-op")
	}
}

func TestBulkApplyUserEditPartialFailure(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewMetadataService(repo)
	ctx := context.Background()

	a := seedImage(t, repo, "a", nil)
	b := seedImage(t, repo, "b", nil)

	resp, err := svc.BulkApplyUserEdit(ctx, entity.BulkMetadataUpdateRequest{
		ImageIDs: []uint{a.ID, 9999, b.ID},
		Updates:  entity.MetadataUpdateRequest{Tags: tagsPtr([]string{"batch"})},
	})
	if err != nil {
		t.Fatalf("bulk edit: %v", err)
	}

	if resp.Total != 3 || resp.Succeeded != 2 || resp.Failed != 1 {
		t.Errorf("total/succeeded/failed = %d/%d/%d, want 3/2/1", resp.Total, resp.Succeeded, resp.Failed)
	}
	for _, result := range resp.Results {
		if result.ImageID == 9999 && result.Success {
			t.Error("missing image should fail")
		}
		if result.ImageID != 9999 && !result.Success {
			t.Errorf("image %d should succeed: %s", result.ImageID, result.Error)
		}
	}

	// 成功的图片确实拿到了标签
	got, err := repo.GetImage(ctx, a.ID)
	if err != nil {
		t.Fatalf("get image: %v", err)
	}
	if len(got.UserTags) != 1 || got.UserTags[0] != "batch" {
		t.Errorf("user tags = %v, want [batch]", got.UserTags)
	}
}
