package service

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/gym_go_server/internal/model"
	"github.com/qs3c/gym_go_server/internal/model/dto"
	"github.com/qs3c/gym_go_server/internal/repository"
)

var (
	ErrAttendanceNotFound = errors.New("签到记录不存在")
	ErrAlreadyCheckedIn   = errors.New("学员已签到，尚未签退")
	ErrAlreadyCheckedOut  = errors.New("该记录已签退")
	ErrAccountInactive    = errors.New("学员账号已停用")
)

type AttendanceService struct {
	attendanceRepo *repository.AttendanceRepository
	studentRepo    *repository.StudentRepository
	now            func() time.Time
}

func NewAttendanceService(attendanceRepo *repository.AttendanceRepository, studentRepo *repository.StudentRepository) *AttendanceService {
	return &AttendanceService{
		attendanceRepo: attendanceRepo,
		studentRepo:    studentRepo,
		now:            utcNow,
	}
}

// CheckIn 学员本人签到或由前台代签；同一学员未签退前不能再次签到
func (s *AttendanceService) CheckIn(actorID int64, actorType string, req *dto.CheckInRequest) (*model.Attendance, error) {
	studentID := actorID
	if actorType != model.UserTypeStudent {
		if req.StudentID == nil {
			return nil, ErrIncompleteData
		}
		studentID = *req.StudentID
	} else if req.StudentID != nil && *req.StudentID != actorID {
		return nil, ErrPermissionDenied
	}

	student, err := s.studentRepo.GetByID(studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	if student.User != nil && !student.User.Active {
		return nil, ErrAccountInactive
	}

	if _, err := s.attendanceRepo.GetOpenByStudent(studentID); err == nil {
		return nil, ErrAlreadyCheckedIn
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	record := &model.Attendance{
		StudentID:  studentID,
		CheckIn:    s.now(),
		RecordedBy: actorID,
	}
	if err := s.attendanceRepo.Create(record); err != nil {
		return nil, err
	}
	return record, nil
}

// CheckOut 学员只能签退自己的记录
func (s *AttendanceService) CheckOut(actorID int64, actorType string, id int64) (*model.Attendance, error) {
	record, err := s.attendanceRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttendanceNotFound
		}
		return nil, err
	}
	if actorType == model.UserTypeStudent && record.StudentID != actorID {
		return nil, ErrPermissionDenied
	}
	if record.CheckOut != nil {
		return nil, ErrAlreadyCheckedOut
	}

	at := s.now()
	affected, err := s.attendanceRepo.CheckOut(id, at)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrAlreadyCheckedOut
	}
	record.CheckOut = &at
	return record, nil
}

// List from / to 为日期，按签到时间闭区间过滤
func (s *AttendanceService) List(req *dto.AttendanceListRequest) ([]*model.Attendance, int64, error) {
	page, pageSize := normalizePage(req.Page, req.PageSize)
	req.Page, req.PageSize = page, pageSize

	filter := repository.AttendanceFilter{StudentID: req.StudentID}
	from, err := parseOptionalDate(req.From)
	if err != nil {
		return nil, 0, err
	}
	to, err := parseOptionalDate(req.To)
	if err != nil {
		return nil, 0, err
	}
	filter.From = from
	if to != nil {
		next := to.AddDate(0, 0, 1)
		filter.To = &next
	}

	return s.attendanceRepo.List(filter, page, pageSize)
}

func (s *AttendanceService) Mine(studentID int64, req *dto.AttendanceListRequest) ([]*model.Attendance, int64, error) {
	req.StudentID = studentID
	return s.List(req)
}
