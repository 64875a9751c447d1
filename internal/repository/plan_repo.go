package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/gym_go_server/internal/model"
)

type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

func (r *PlanRepository) Create(plan *model.Plan) error {
	return r.db.Create(plan).Error
}

func (r *PlanRepository) GetByID(id int64) (*model.Plan, error) {
	var plan model.Plan
	err := r.db.Where("id = ?", id).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *PlanRepository) Update(plan *model.Plan) error {
	return r.db.Save(plan).Error
}

func (r *PlanRepository) Delete(id int64) error {
	return r.db.Delete(&model.Plan{}, id).Error
}

// List 套餐列表，activeOnly 时只返回上架套餐
func (r *PlanRepository) List(activeOnly bool) ([]*model.Plan, error) {
	var plans []*model.Plan
	query := r.db.Model(&model.Plan{})
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	err := query.Order("price ASC, id ASC").Find(&plans).Error
	return plans, err
}
