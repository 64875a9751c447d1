package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/gym_go_server/internal/model"
)

// WorkoutFilter 训练计划过滤条件
type WorkoutFilter struct {
	StudentID    int64
	InstructorID int64
	ActiveOnly   bool
}

type WorkoutRepository struct {
	db *gorm.DB
}

func NewWorkoutRepository(db *gorm.DB) *WorkoutRepository {
	return &WorkoutRepository{db: db}
}

func (r *WorkoutRepository) Create(w *model.WorkoutPlan) error {
	return r.db.Create(w).Error
}

func (r *WorkoutRepository) GetByID(id int64) (*model.WorkoutPlan, error) {
	var w model.WorkoutPlan
	err := r.db.Where("id = ?", id).First(&w).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WorkoutRepository) Update(w *model.WorkoutPlan) error {
	return r.db.Save(w).Error
}

func (r *WorkoutRepository) Delete(id int64) error {
	return r.db.Delete(&model.WorkoutPlan{}, id).Error
}

func (r *WorkoutRepository) List(filter WorkoutFilter, page, pageSize int) ([]*model.WorkoutPlan, int64, error) {
	var workouts []*model.WorkoutPlan
	var total int64

	query := r.db.Model(&model.WorkoutPlan{})
	if filter.StudentID > 0 {
		query = query.Where("student_id = ?", filter.StudentID)
	}
	if filter.InstructorID > 0 {
		query = query.Where("instructor_id = ?", filter.InstructorID)
	}
	if filter.ActiveOnly {
		query = query.Where("active = ?", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(pageSize).Find(&workouts).Error; err != nil {
		return nil, 0, err
	}

	return workouts, total, nil
}
