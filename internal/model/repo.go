package model

import (
	"context"
	"time"

	"photogallery/internal/entity"
	"photogallery/internal/entity/common"
)

// Repository 定义数据库操作接口
type Repository interface {
	// 图片。写路径自行维护分类 usage_count 不变量：
	// usage_count 恒等于有效分类指向该分类的图片数。
	CreateImage(ctx context.Context, image *entity.DbImage) error
	GetImage(ctx context.Context, id uint) (*entity.DbImage, error)
	// UpdateImage 在单个事务内加载图片、应用 mutate 回调并保存，
	// 同时按有效分类的前后差异原子调整 usage_count。
	UpdateImage(ctx context.Context, id uint, mutate func(img *entity.DbImage) error) (*entity.DbImage, error)
	DeleteImage(ctx context.Context, id uint) error
	SearchImages(ctx context.Context, params *entity.SearchRequest) ([]entity.DbImage, int64, error)
	ListEffectiveTags(ctx context.Context) ([]common.StringArray, error)
	CountImagesByEffectiveCategory(ctx context.Context, categoryID uint) (int64, error)

	// 分类
	CreateCategory(ctx context.Context, category *entity.DbCategory) error
	GetCategory(ctx context.Context, id uint) (*entity.DbCategory, error)
	GetCategoryByName(ctx context.Context, name string) (*entity.DbCategory, error)
	GetOrCreateCategoryByName(ctx context.Context, name, description string, aiOrigin bool) (*entity.DbCategory, error)
	ListCategories(ctx context.Context) ([]entity.DbCategory, error)
	CategoryNameMap(ctx context.Context, ids []uint) (map[uint]string, error)
	DeleteCategory(ctx context.Context, id uint) error

	// 统计
	Stats(ctx context.Context, recentWindow time.Duration) (*entity.StatsResponse, error)
}
