package service

import (
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/qs3c/gym_go_server/internal/model"
	"github.com/qs3c/gym_go_server/internal/model/dto"
	"github.com/qs3c/gym_go_server/internal/repository"
)

type InstructorService struct {
	db             *gorm.DB
	userRepo       *repository.UserRepository
	instructorRepo *repository.InstructorRepository
	logger         *slog.Logger
}

func NewInstructorService(
	db *gorm.DB,
	userRepo *repository.UserRepository,
	instructorRepo *repository.InstructorRepository,
	logger *slog.Logger,
) *InstructorService {
	return &InstructorService{
		db:             db,
		userRepo:       userRepo,
		instructorRepo: instructorRepo,
		logger:         logger,
	}
}

func (s *InstructorService) Create(req *dto.CreateInstructorRequest) (*dto.InstructorInfo, error) {
	email := normalizeEmail(req.Email)
	exists, err := s.userRepo.ExistsByEmail(email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}
	hiredAt, err := parseOptionalDate(req.HiredAt)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), passwordCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		UserType:     model.UserTypeInstructor,
		Active:       true,
	}
	instructor := &model.Instructor{
		Phone:     req.Phone,
		Specialty: req.Specialty,
		CREF:      req.CREF,
		Bio:       req.Bio,
		HiredAt:   hiredAt,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.WithTx(tx).Create(user); err != nil {
			return err
		}
		instructor.UserID = user.ID
		return s.instructorRepo.WithTx(tx).Create(instructor)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("instructor created", "user_id", user.ID)
	instructor.User = user
	return toInstructorInfo(instructor), nil
}

func (s *InstructorService) Get(id int64) (*dto.InstructorInfo, error) {
	instructor, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return toInstructorInfo(instructor), nil
}

func (s *InstructorService) List(page, pageSize int) ([]*dto.InstructorInfo, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	instructors, total, err := s.instructorRepo.List(page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	items := make([]*dto.InstructorInfo, 0, len(instructors))
	for _, in := range instructors {
		items = append(items, toInstructorInfo(in))
	}
	return items, total, nil
}

func (s *InstructorService) Update(id int64, req *dto.UpdateInstructorRequest) (*dto.InstructorInfo, error) {
	instructor, err := s.get(id)
	if err != nil {
		return nil, err
	}

	userFields := map[string]interface{}{}
	if req.Name != nil {
		userFields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Active != nil {
		userFields["active"] = *req.Active
	}
	if req.Phone != nil {
		instructor.Phone = *req.Phone
	}
	if req.Specialty != nil {
		instructor.Specialty = *req.Specialty
	}
	if req.CREF != nil {
		instructor.CREF = *req.CREF
	}
	if req.Bio != nil {
		instructor.Bio = *req.Bio
	}
	if req.HiredAt != nil {
		if instructor.HiredAt, err = parseOptionalDate(*req.HiredAt); err != nil {
			return nil, err
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if len(userFields) > 0 {
			if err := s.userRepo.WithTx(tx).UpdateFields(id, userFields); err != nil {
				return err
			}
		}
		return s.instructorRepo.WithTx(tx).Update(instructor)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(id)
}

// Delete 停用教练账号，档案与其训练计划保留
func (s *InstructorService) Delete(id int64) error {
	if _, err := s.get(id); err != nil {
		return err
	}
	return s.userRepo.UpdateFields(id, map[string]interface{}{"active": false})
}

func (s *InstructorService) get(id int64) (*model.Instructor, error) {
	instructor, err := s.instructorRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInstructorNotFound
		}
		return nil, err
	}
	return instructor, nil
}

func toInstructorInfo(in *model.Instructor) *dto.InstructorInfo {
	info := &dto.InstructorInfo{
		UserID:    in.UserID,
		Phone:     in.Phone,
		Specialty: in.Specialty,
		CREF:      in.CREF,
		Bio:       in.Bio,
		HiredAt:   formatDate(in.HiredAt),
	}
	if in.User != nil {
		info.Name = in.User.Name
		info.Email = in.User.Email
		info.AvatarURL = in.User.AvatarURL
		info.Active = in.User.Active
	}
	return info
}
