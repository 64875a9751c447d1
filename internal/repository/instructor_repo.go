package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/gym_go_server/internal/model"
)

type InstructorRepository struct {
	db *gorm.DB
}

func NewInstructorRepository(db *gorm.DB) *InstructorRepository {
	return &InstructorRepository{db: db}
}

func (r *InstructorRepository) WithTx(tx *gorm.DB) *InstructorRepository {
	return &InstructorRepository{db: tx}
}

func (r *InstructorRepository) Create(instructor *model.Instructor) error {
	return r.db.Omit("User").Create(instructor).Error
}

func (r *InstructorRepository) GetByID(userID int64) (*model.Instructor, error) {
	var instructor model.Instructor
	err := r.db.Preload("User").Where("user_id = ?", userID).First(&instructor).Error
	if err != nil {
		return nil, err
	}
	return &instructor, nil
}

func (r *InstructorRepository) Update(instructor *model.Instructor) error {
	return r.db.Omit("User").Save(instructor).Error
}

func (r *InstructorRepository) Delete(userID int64) error {
	return r.db.Where("user_id = ?", userID).Delete(&model.Instructor{}).Error
}

func (r *InstructorRepository) List(page, pageSize int) ([]*model.Instructor, int64, error) {
	var instructors []*model.Instructor
	var total int64

	query := r.db.Model(&model.Instructor{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Preload("User").Order("user_id ASC").Offset(offset).Limit(pageSize).Find(&instructors).Error; err != nil {
		return nil, 0, err
	}

	return instructors, total, nil
}
