package repository

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/qs3c/gym_go_server/internal/model"
)

// PaymentFilter 账单过滤条件，From/To 作用于到期日
type PaymentFilter struct {
	Status    string
	StudentID int64
	From      *time.Time
	To        *time.Time
}

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// WithTx 返回绑定到事务的仓储
func (r *PaymentRepository) WithTx(tx *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: tx}
}

func (r *PaymentRepository) Create(payment *model.Payment) error {
	return r.db.Create(payment).Error
}

func (r *PaymentRepository) GetByID(id int64) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.Where("id = ?", id).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) Update(payment *model.Payment) error {
	return r.db.Save(payment).Error
}

func (r *PaymentRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	return r.db.Model(&model.Payment{}).Where("id = ?", id).Updates(fields).Error
}

func (r *PaymentRepository) applyFilter(query *gorm.DB, filter PaymentFilter) *gorm.DB {
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.StudentID > 0 {
		query = query.Where("student_id = ?", filter.StudentID)
	}
	if filter.From != nil {
		query = query.Where("due_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("due_date <= ?", *filter.To)
	}
	return query
}

// List 分页查询账单，按到期日倒序
func (r *PaymentRepository) List(filter PaymentFilter, page, pageSize int) ([]*model.Payment, int64, error) {
	var payments []*model.Payment
	var total int64

	query := r.applyFilter(r.db.Model(&model.Payment{}), filter)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Order("due_date DESC, id DESC").Offset(offset).Limit(pageSize).Find(&payments).Error; err != nil {
		return nil, 0, err
	}

	return payments, total, nil
}

// ListAll 不分页（导出用）
func (r *PaymentRepository) ListAll(filter PaymentFilter) ([]*model.Payment, error) {
	var payments []*model.Payment
	err := r.applyFilter(r.db.Model(&model.Payment{}), filter).
		Order("due_date DESC, id DESC").
		Find(&payments).Error
	return payments, err
}

// ListByStudent 学员全部账单
func (r *PaymentRepository) ListByStudent(studentID int64) ([]*model.Payment, error) {
	var payments []*model.Payment
	err := r.db.Where("student_id = ?", studentID).Order("due_date ASC, id ASC").Find(&payments).Error
	return payments, err
}

// CountByStudent 学员账单数
func (r *PaymentRepository) CountByStudent(studentID int64) (int64, error) {
	var count int64
	err := r.db.Model(&model.Payment{}).Where("student_id = ?", studentID).Count(&count).Error
	return count, err
}

// MarkOverdueByStudent 学员到期日早于 before 的 pending 账单改为 overdue
func (r *PaymentRepository) MarkOverdueByStudent(studentID int64, before time.Time) (int64, error) {
	result := r.db.Model(&model.Payment{}).
		Where("student_id = ? AND status = ? AND due_date < ?", studentID, model.PaymentStatusPending, before).
		Update("status", model.PaymentStatusOverdue)
	return result.RowsAffected, result.Error
}

// StudentsWithPastDue 名下有到期日早于 before 的 pending 账单的学员
func (r *PaymentRepository) StudentsWithPastDue(before time.Time) ([]int64, error) {
	var ids []int64
	err := r.db.Model(&model.Payment{}).
		Where("status = ? AND due_date < ?", model.PaymentStatusPending, before).
		Distinct().
		Order("student_id").
		Pluck("student_id", &ids).Error
	return ids, err
}

// TransitionStatus 条件更新状态，from 不匹配时受影响行数为 0
func (r *PaymentRepository) TransitionStatus(id int64, from []string, fields map[string]interface{}) (int64, error) {
	result := r.db.Model(&model.Payment{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(fields)
	return result.RowsAffected, result.Error
}

type amountRow struct {
	Total decimal.Decimal
	Count int64
}

// SumByStatus 某状态账单的金额与数量
func (r *PaymentRepository) SumByStatus(status string) (decimal.Decimal, int64, error) {
	var row amountRow
	err := r.db.Model(&model.Payment{}).
		Select("COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Where("status = ?", status).
		Scan(&row).Error
	return row.Total, row.Count, err
}

// SumPaidBetween [from, to) 期间实收金额
func (r *PaymentRepository) SumPaidBetween(from, to time.Time) (decimal.Decimal, error) {
	var row amountRow
	err := r.db.Model(&model.Payment{}).
		Select("COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Where("status = ? AND payment_date >= ? AND payment_date < ?", model.PaymentStatusPaid, from, to).
		Scan(&row).Error
	return row.Total, err
}
