package metadata

import (
	"strings"

	"photogallery/internal/entity/db"
)

// 本包实现用户/AI 双组元数据的合并规则：逐字段取第一个非空值，
// 优先级为 用户 > AI > 兜底。所有函数均为纯函数，不触达存储。

// EffectiveName 返回对外暴露的名称：用户名称 > AI 名称 > 原始文件名。
func EffectiveName(img *db.Image) string {
	if name := strings.TrimSpace(img.UserName); name != "" {
		return name
	}
	if name := strings.TrimSpace(img.AIName); name != "" {
		return name
	}
	return img.OriginalFilename
}

// EffectiveDescription 返回合并后的描述，无可用值时为空。
func EffectiveDescription(img *db.Image) string {
	if desc := strings.TrimSpace(img.UserDescription); desc != "" {
		return desc
	}
	return strings.TrimSpace(img.AIDescription)
}

// EffectiveTags 返回合并后的标签集合。用户标签存在时整组覆盖 AI 标签，
// 不做逐项合并。
func EffectiveTags(img *db.Image) []string {
	if len(img.UserTags) > 0 {
		return img.UserTags.ToSlice()
	}
	return img.AITags.ToSlice()
}

// EffectiveCategoryID 返回合并后的分类。
func EffectiveCategoryID(img *db.Image) *uint {
	if img.UserCategoryID != nil {
		return img.UserCategoryID
	}
	return img.AICategoryID
}

// ComputeNeedsManual 判断图片是否仍需人工补充元数据：
// 当且仅当 AI 元数据不可用（缺失、进行中或失败）且用户从未编辑过。
func ComputeNeedsManual(img *db.Image) bool {
	if img.IsManuallyEdited || img.HasUserFacet() {
		return false
	}
	return !img.HasAIFacet()
}

// Reindex 重算派生索引列（SearchText、EffectiveTags、EffectiveCategoryID）。
// 必须在每次元数据变更的同一事务内调用，保证检索层看到的有效值不滞后。
func Reindex(img *db.Image) {
	tags := EffectiveTags(img)
	lowered := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.ToLower(strings.TrimSpace(tag))
		if trimmed == "" {
			continue
		}
		lowered = append(lowered, trimmed)
	}
	img.EffectiveTags = lowered
	img.EffectiveCategoryID = EffectiveCategoryID(img)
	img.NeedsManualMetadata = ComputeNeedsManual(img)

	parts := []string{
		EffectiveName(img),
		EffectiveDescription(img),
		strings.Join(lowered, " "),
		img.AISceneDescription,
	}
	nonEmpty := parts[:0]
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		nonEmpty = append(nonEmpty, strings.ToLower(trimmed))
	}
	img.SearchText = strings.Join(nonEmpty, " ")
}
