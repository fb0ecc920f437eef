package dashboard

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/webtemplate/pkg/db/models"
)

// Repository reads dashboard stats.
type Repository interface {
	List(ctx context.Context) ([]models.DashboardStat, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a dashboard repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) List(ctx context.Context) ([]models.DashboardStat, error) {
	var stats []models.DashboardStat
	if err := r.db.WithContext(ctx).Order("position ASC, id ASC").Find(&stats).Error; err != nil {
		return nil, err
	}
	return stats, nil
}
