package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"photogallery/internal/entity"
	"photogallery/internal/entity/converter"
	"photogallery/internal/model"
)

const (
	defaultPageLimit    = 20
	maxPageLimit        = 100
	statsRecentWindow   = 7 * 24 * time.Hour
	maxSuggestionsLimit = 50
)

// SearchService 提供检索、标签建议与统计查询，全部基于合并后的有效值。
type SearchService struct {
	repo model.Repository
}

func NewSearchService(repo model.Repository) *SearchService {
	return &SearchService{repo: repo}
}

// Search 执行多条件检索并投影为对外视图。
func (s *SearchService) Search(ctx context.Context, req *entity.SearchRequest) (*entity.SearchResponse, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("search service not initialised")
	}
	if req == nil {
		req = &entity.SearchRequest{}
	}
	normalisePaging(req)

	images, totalCount, err := s.repo.SearchImages(ctx, req)
	if err != nil {
		return nil, err
	}

	names, err := s.categoryNames(ctx, images)
	if err != nil {
		return nil, err
	}

	totalPages := (totalCount + int64(req.Limit) - 1) / int64(req.Limit)
	return &entity.SearchResponse{
		Images:     converter.ImagesToViews(images, names),
		TotalCount: totalCount,
		Page:       req.Page,
		Limit:      req.Limit,
		TotalPages: totalPages,
		HasNext:    int64(req.Page) < totalPages,
		HasPrev:    req.Page > 1,
	}, nil
}

// Suggestions 聚合全库有效标签，按 前缀命中 > 包含命中、频次降序、
// 字典序升序 返回建议。query 为空时返回频次最高的标签。
func (s *SearchService) Suggestions(ctx context.Context, query string, limit int) (*entity.SuggestionsResponse, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("search service not initialised")
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > maxSuggestionsLimit {
		limit = maxSuggestionsLimit
	}

	rows, err := s.repo.ListEffectiveTags(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64)
	for _, tags := range rows {
		for _, tag := range tags {
			trimmed := strings.ToLower(strings.TrimSpace(tag))
			if trimmed != "" {
				counts[trimmed]++
			}
		}
	}

	normalised := strings.ToLower(strings.TrimSpace(query))
	type candidate struct {
		tag    string
		count  int64
		prefix bool
	}
	candidates := make([]candidate, 0, len(counts))
	for tag, count := range counts {
		if normalised != "" {
			if !strings.Contains(tag, normalised) {
				continue
			}
			candidates = append(candidates, candidate{tag: tag, count: count, prefix: strings.HasPrefix(tag, normalised)})
		} else {
			candidates = append(candidates, candidate{tag: tag, count: count})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].prefix != candidates[j].prefix {
			return candidates[i].prefix
		}
		if candidates[i].count != candidates[j].count {
			return candidates[i].count > candidates[j].count
		}
		return candidates[i].tag < candidates[j].tag
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	suggestions := make([]entity.TagSuggestion, 0, len(candidates))
	for _, c := range candidates {
		suggestions = append(suggestions, entity.TagSuggestion{Tag: c.tag, Count: c.count})
	}

	return &entity.SuggestionsResponse{
		Suggestions: suggestions,
		Query:       query,
		Count:       len(suggestions),
	}, nil
}

// Stats 返回图库统计，近期上传窗口为 7 天。
func (s *SearchService) Stats(ctx context.Context) (*entity.StatsResponse, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("search service not initialised")
	}
	return s.repo.Stats(ctx, statsRecentWindow)
}

// categoryNames 收集结果页涉及的分类并取回名称查找表。
func (s *SearchService) categoryNames(ctx context.Context, images []entity.DbImage) (map[uint]string, error) {
	idSet := make(map[uint]bool)
	for i := range images {
		if images[i].EffectiveCategoryID != nil {
			idSet[*images[i].EffectiveCategoryID] = true
		}
		if images[i].UserCategoryID != nil {
			idSet[*images[i].UserCategoryID] = true
		}
		if images[i].AICategoryID != nil {
			idSet[*images[i].AICategoryID] = true
		}
	}
	if len(idSet) == 0 {
		return nil, nil
	}
	ids := make([]uint, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	return s.repo.CategoryNameMap(ctx, ids)
}

func normalisePaging(req *entity.SearchRequest) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Limit <= 0 {
		req.Limit = defaultPageLimit
	}
	if req.Limit > maxPageLimit {
		req.Limit = maxPageLimit
	}
}
