package service

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/qs3c/gym_go_server/config"
	"github.com/qs3c/gym_go_server/internal/model"
	"github.com/qs3c/gym_go_server/internal/model/dto"
	"github.com/qs3c/gym_go_server/internal/repository"
)

var (
	ErrWrongPassword     = errors.New("原密码错误")
	ErrStorageDisabled   = errors.New("对象存储未配置")
	ErrFileTooLarge      = errors.New("文件过大")
	ErrFileTypeForbidden = errors.New("不支持的文件类型")
)

// AvatarStorage 头像对象存储
type AvatarStorage interface {
	UploadAvatar(userID int64, data []byte, ext string) (string, error)
	DeleteByURL(url string) error
}

type UserService struct {
	userRepo *repository.UserRepository
	storage  AvatarStorage
	cfg      *config.Config
	logger   *slog.Logger
}

// NewUserService storage 为 nil 时头像上传不可用
func NewUserService(userRepo *repository.UserRepository, storage AvatarStorage, cfg *config.Config, logger *slog.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		storage:  storage,
		cfg:      cfg,
		logger:   logger,
	}
}

// GetProfile 获取用户详情
func (s *UserService) GetProfile(userID int64) (*dto.UserInfo, error) {
	user, err := s.get(userID)
	if err != nil {
		return nil, err
	}
	return toUserInfo(user), nil
}

// UpdateProfile 更新姓名或邮箱
func (s *UserService) UpdateProfile(userID int64, req *dto.UpdateProfileRequest) (*dto.UserInfo, error) {
	user, err := s.get(userID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email != user.Email {
			exists, err := s.userRepo.ExistsByEmail(email)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, ErrEmailExists
			}
			fields["email"] = email
		}
	}

	if len(fields) > 0 {
		if err := s.userRepo.UpdateFields(userID, fields); err != nil {
			return nil, err
		}
	}
	return s.GetProfile(userID)
}

// ChangePassword 校验原密码后更新
func (s *UserService) ChangePassword(userID int64, req *dto.ChangePasswordRequest) error {
	user, err := s.get(userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return ErrWrongPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), passwordCost)
	if err != nil {
		return err
	}
	return s.userRepo.UpdateFields(userID, map[string]interface{}{"password_hash": string(hash)})
}

// UploadAvatar 校验大小与扩展名后上传，成功后删除旧头像
func (s *UserService) UploadAvatar(userID int64, file io.Reader, filename string, size int64) (string, error) {
	if s.storage == nil {
		return "", ErrStorageDisabled
	}
	if maxSize := s.cfg.Upload.MaxAvatarSize; maxSize > 0 && size > maxSize {
		return "", ErrFileTooLarge
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !s.allowedExt(ext) {
		return "", ErrFileTypeForbidden
	}

	user, err := s.get(userID)
	if err != nil {
		return "", err
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}

	avatarURL, err := s.storage.UploadAvatar(userID, data, ext)
	if err != nil {
		return "", err
	}
	if err := s.userRepo.UpdateFields(userID, map[string]interface{}{"avatar_url": avatarURL}); err != nil {
		return "", err
	}

	if user.AvatarURL != "" {
		if err := s.storage.DeleteByURL(user.AvatarURL); err != nil {
			s.logger.Warn("delete old avatar failed", "user_id", userID, "error", err)
		}
	}
	return avatarURL, nil
}

func (s *UserService) allowedExt(ext string) bool {
	if ext == "" {
		return false
	}
	for _, allowed := range s.cfg.Upload.AllowedExtensions {
		if strings.EqualFold(allowed, ext) {
			return true
		}
	}
	return false
}

func (s *UserService) get(userID int64) (*model.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
