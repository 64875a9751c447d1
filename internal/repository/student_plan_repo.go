package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/gym_go_server/internal/model"
)

type StudentPlanRepository struct {
	db *gorm.DB
}

func NewStudentPlanRepository(db *gorm.DB) *StudentPlanRepository {
	return &StudentPlanRepository{db: db}
}

// WithTx 返回绑定到事务的仓储
func (r *StudentPlanRepository) WithTx(tx *gorm.DB) *StudentPlanRepository {
	return &StudentPlanRepository{db: tx}
}

func (r *StudentPlanRepository) Create(sp *model.StudentPlan) error {
	return r.db.Omit("Plan").Create(sp).Error
}

// GetActiveByStudent 学员当前 active 套餐（含套餐定义）
func (r *StudentPlanRepository) GetActiveByStudent(studentID int64) (*model.StudentPlan, error) {
	var sp model.StudentPlan
	err := r.db.Preload("Plan").
		Where("student_id = ? AND status = ?", studentID, model.StudentPlanActive).
		Order("id DESC").
		First(&sp).Error
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

// ExpireActive 将学员所有 active 套餐置为 expired
func (r *StudentPlanRepository) ExpireActive(studentID int64) error {
	return r.db.Model(&model.StudentPlan{}).
		Where("student_id = ? AND status = ?", studentID, model.StudentPlanActive).
		Update("status", model.StudentPlanExpired).Error
}

// ListDueForRenewal 周期已结束（end_date <= asOf）的 active 套餐
func (r *StudentPlanRepository) ListDueForRenewal(asOf time.Time) ([]*model.StudentPlan, error) {
	var plans []*model.StudentPlan
	err := r.db.Preload("Plan").
		Where("status = ? AND end_date <= ?", model.StudentPlanActive, asOf).
		Order("id").
		Find(&plans).Error
	return plans, err
}

// ExtendPeriod 条件更新：end_date 仍为 from 时才推进到 to，返回受影响行数
func (r *StudentPlanRepository) ExtendPeriod(id int64, from, to time.Time) (int64, error) {
	result := r.db.Model(&model.StudentPlan{}).
		Where("id = ? AND status = ? AND end_date = ?", id, model.StudentPlanActive, from).
		Update("end_date", to)
	return result.RowsAffected, result.Error
}

// CountByPlan 引用某套餐的学员套餐数
func (r *StudentPlanRepository) CountByPlan(planID int64) (int64, error) {
	var count int64
	err := r.db.Model(&model.StudentPlan{}).Where("plan_id = ?", planID).Count(&count).Error
	return count, err
}

// CancelByStudent 删除学员时取消其 active 套餐
func (r *StudentPlanRepository) CancelByStudent(studentID int64) error {
	return r.db.Model(&model.StudentPlan{}).
		Where("student_id = ? AND status = ?", studentID, model.StudentPlanActive).
		Update("status", model.StudentPlanCancelled).Error
}
