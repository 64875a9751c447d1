package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/gym_go_server/internal/model"
)

// AttendanceFilter 签到记录过滤条件，From/To 作用于签到时间
type AttendanceFilter struct {
	StudentID int64
	From      *time.Time
	To        *time.Time
}

type AttendanceRepository struct {
	db *gorm.DB
}

func NewAttendanceRepository(db *gorm.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

func (r *AttendanceRepository) Create(a *model.Attendance) error {
	return r.db.Create(a).Error
}

func (r *AttendanceRepository) GetByID(id int64) (*model.Attendance, error) {
	var a model.Attendance
	err := r.db.Where("id = ?", id).First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetOpenByStudent 学员尚未签退的签到记录
func (r *AttendanceRepository) GetOpenByStudent(studentID int64) (*model.Attendance, error) {
	var a model.Attendance
	err := r.db.Where("student_id = ? AND check_out IS NULL", studentID).Order("check_in DESC").First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CheckOut 条件更新：仅未签退时写入签退时间
func (r *AttendanceRepository) CheckOut(id int64, at time.Time) (int64, error) {
	result := r.db.Model(&model.Attendance{}).
		Where("id = ? AND check_out IS NULL", id).
		Update("check_out", at)
	return result.RowsAffected, result.Error
}

func (r *AttendanceRepository) List(filter AttendanceFilter, page, pageSize int) ([]*model.Attendance, int64, error) {
	var records []*model.Attendance
	var total int64

	query := r.db.Model(&model.Attendance{})
	if filter.StudentID > 0 {
		query = query.Where("student_id = ?", filter.StudentID)
	}
	if filter.From != nil {
		query = query.Where("check_in >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("check_in < ?", *filter.To)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Order("check_in DESC, id DESC").Offset(offset).Limit(pageSize).Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}
