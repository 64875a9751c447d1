package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/gym_go_server/internal/model"
)

// StudentFilter 学员列表过滤条件
type StudentFilter struct {
	PaymentStatus string
	PlanType      string
	InstructorID  int64
	Search        string
}

type StudentRepository struct {
	db *gorm.DB
}

func NewStudentRepository(db *gorm.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// WithTx 返回绑定到事务的仓储
func (r *StudentRepository) WithTx(tx *gorm.DB) *StudentRepository {
	return &StudentRepository{db: tx}
}

func (r *StudentRepository) Create(student *model.Student) error {
	return r.db.Omit("User").Create(student).Error
}

func (r *StudentRepository) GetByID(userID int64) (*model.Student, error) {
	var student model.Student
	err := r.db.Preload("User").Where("user_id = ?", userID).First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *StudentRepository) Update(student *model.Student) error {
	return r.db.Omit("User").Save(student).Error
}

func (r *StudentRepository) UpdateFields(userID int64, fields map[string]interface{}) error {
	return r.db.Model(&model.Student{}).Where("user_id = ?", userID).Updates(fields).Error
}

func (r *StudentRepository) Delete(userID int64) error {
	return r.db.Where("user_id = ?", userID).Delete(&model.Student{}).Error
}

// List 分页查询学员
func (r *StudentRepository) List(filter StudentFilter, page, pageSize int) ([]*model.Student, int64, error) {
	var students []*model.Student
	var total int64

	query := r.db.Model(&model.Student{}).Joins("JOIN users ON users.id = students.user_id")

	if filter.PaymentStatus != "" {
		query = query.Where("students.payment_status = ?", filter.PaymentStatus)
	}
	if filter.PlanType != "" {
		query = query.Where("students.plan_type = ?", filter.PlanType)
	}
	if filter.InstructorID > 0 {
		query = query.Where("students.instructor_id = ?", filter.InstructorID)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("users.name LIKE ? OR users.email LIKE ?", like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Preload("User").Order("users.name ASC").Offset(offset).Limit(pageSize).Find(&students).Error; err != nil {
		return nil, 0, err
	}

	return students, total, nil
}

// ListLapsed 已缴费但下次缴费日 <= asOf 的学员
func (r *StudentRepository) ListLapsed(asOf time.Time) ([]*model.Student, error) {
	var students []*model.Student
	err := r.db.Preload("User").
		Where("payment_status = ? AND next_payment_date IS NOT NULL AND next_payment_date <= ?", model.StudentPaymentPaid, asOf).
		Order("user_id").
		Find(&students).Error
	return students, err
}

// MarkOverdue 条件更新：仅当学员仍为 paid 且已到期时改为 overdue。
// 返回受影响行数，并发执行时只有一方会得到 1。
func (r *StudentRepository) MarkOverdue(userID int64, asOf time.Time) (int64, error) {
	result := r.db.Model(&model.Student{}).
		Where("user_id = ? AND payment_status = ? AND next_payment_date <= ?", userID, model.StudentPaymentPaid, asOf).
		Update("payment_status", model.StudentPaymentOverdue)
	return result.RowsAffected, result.Error
}

// UpdatePaymentSummary 写入缴费汇总
func (r *StudentRepository) UpdatePaymentSummary(userID int64, status string, last, next *time.Time) error {
	return r.db.Model(&model.Student{}).Where("user_id = ?", userID).Updates(map[string]interface{}{
		"payment_status":    status,
		"last_payment_date": last,
		"next_payment_date": next,
	}).Error
}

func (r *StudentRepository) UpdatePaymentStatus(userID int64, status string) error {
	return r.db.Model(&model.Student{}).Where("user_id = ?", userID).Update("payment_status", status).Error
}

// CountActive 账号启用的学员数
func (r *StudentRepository) CountActive() (int64, error) {
	var count int64
	err := r.db.Model(&model.Student{}).
		Joins("JOIN users ON users.id = students.user_id").
		Where("users.active = ?", true).
		Count(&count).Error
	return count, err
}
