package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/gym_go_server/internal/model"
	"github.com/qs3c/gym_go_server/internal/model/dto"
	"github.com/qs3c/gym_go_server/internal/repository"
)

var (
	ErrWorkoutNotFound  = errors.New("训练计划不存在")
	ErrInvalidExercises = errors.New("exercises 必须是 JSON 数组")
)

type WorkoutService struct {
	workoutRepo *repository.WorkoutRepository
	studentRepo *repository.StudentRepository
	notifier    *NotificationService
	logger      *slog.Logger
}

func NewWorkoutService(
	workoutRepo *repository.WorkoutRepository,
	studentRepo *repository.StudentRepository,
	notifier *NotificationService,
	logger *slog.Logger,
) *WorkoutService {
	return &WorkoutService{
		workoutRepo: workoutRepo,
		studentRepo: studentRepo,
		notifier:    notifier,
		logger:      logger,
	}
}

// Create 教练为学员制定训练计划并通知学员
func (s *WorkoutService) Create(ctx context.Context, instructorID int64, req *dto.CreateWorkoutRequest) (*dto.WorkoutInfo, error) {
	if _, err := s.studentRepo.GetByID(req.StudentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	exercises, err := normalizeExercises(req.Exercises)
	if err != nil {
		return nil, err
	}
	start, err := parseOptionalDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseOptionalDate(req.EndDate)
	if err != nil {
		return nil, err
	}

	workout := &model.WorkoutPlan{
		StudentID:    req.StudentID,
		InstructorID: instructorID,
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		Exercises:    exercises,
		StartDate:    start,
		EndDate:      end,
		Active:       true,
	}
	if err := s.workoutRepo.Create(workout); err != nil {
		return nil, err
	}

	n := &model.Notification{
		UserID:    workout.StudentID,
		Title:     "新的训练计划",
		Message:   fmt.Sprintf("教练为您制定了训练计划「%s」。", workout.Title),
		Type:      model.NotificationWorkout,
		RelatedID: &workout.ID,
	}
	if err := s.notifier.Notify(ctx, n, nil); err != nil {
		s.logger.Warn("workout notification skipped", "workout_id", workout.ID, "error", err)
	}

	return toWorkoutInfo(workout), nil
}

// Get 学员只能查看自己的训练计划
func (s *WorkoutService) Get(userID int64, userType string, id int64) (*dto.WorkoutInfo, error) {
	workout, err := s.get(id)
	if err != nil {
		return nil, err
	}
	if userType == model.UserTypeStudent && workout.StudentID != userID {
		return nil, ErrPermissionDenied
	}
	return toWorkoutInfo(workout), nil
}

func (s *WorkoutService) List(req *dto.WorkoutListRequest) ([]*dto.WorkoutInfo, int64, error) {
	page, pageSize := normalizePage(req.Page, req.PageSize)
	req.Page, req.PageSize = page, pageSize

	workouts, total, err := s.workoutRepo.List(repository.WorkoutFilter{
		StudentID:    req.StudentID,
		InstructorID: req.InstructorID,
		ActiveOnly:   req.ActiveOnly,
	}, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	return toWorkoutInfos(workouts), total, nil
}

// Mine 学员自己的训练计划
func (s *WorkoutService) Mine(studentID int64, req *dto.WorkoutListRequest) ([]*dto.WorkoutInfo, int64, error) {
	req.StudentID = studentID
	req.InstructorID = 0
	return s.List(req)
}

// Update 教练只能修改自己创建的计划，管理员不受限
func (s *WorkoutService) Update(userID int64, userType string, id int64, req *dto.UpdateWorkoutRequest) (*dto.WorkoutInfo, error) {
	workout, err := s.get(id)
	if err != nil {
		return nil, err
	}
	if userType != model.UserTypeAdmin && workout.InstructorID != userID {
		return nil, ErrPermissionDenied
	}

	if req.Title != nil {
		workout.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		workout.Description = *req.Description
	}
	if req.Exercises != nil {
		if workout.Exercises, err = normalizeExercises(req.Exercises); err != nil {
			return nil, err
		}
	}
	if req.StartDate != nil {
		if workout.StartDate, err = parseOptionalDate(*req.StartDate); err != nil {
			return nil, err
		}
	}
	if req.EndDate != nil {
		if workout.EndDate, err = parseOptionalDate(*req.EndDate); err != nil {
			return nil, err
		}
	}
	if req.Active != nil {
		workout.Active = *req.Active
	}

	if err := s.workoutRepo.Update(workout); err != nil {
		return nil, err
	}
	return toWorkoutInfo(workout), nil
}

func (s *WorkoutService) Delete(userID int64, userType string, id int64) error {
	workout, err := s.get(id)
	if err != nil {
		return err
	}
	if userType != model.UserTypeAdmin && workout.InstructorID != userID {
		return ErrPermissionDenied
	}
	return s.workoutRepo.Delete(id)
}

func (s *WorkoutService) get(id int64) (*model.WorkoutPlan, error) {
	workout, err := s.workoutRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	return workout, nil
}

// normalizeExercises 空值存为 "[]"，否则必须是 JSON 数组
func normalizeExercises(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "[]", nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return "", ErrInvalidExercises
	}
	return string(raw), nil
}

func toWorkoutInfo(w *model.WorkoutPlan) *dto.WorkoutInfo {
	exercises := json.RawMessage(w.Exercises)
	if len(exercises) == 0 {
		exercises = json.RawMessage("[]")
	}
	return &dto.WorkoutInfo{
		ID:           w.ID,
		StudentID:    w.StudentID,
		InstructorID: w.InstructorID,
		Title:        w.Title,
		Description:  w.Description,
		Exercises:    exercises,
		StartDate:    formatDate(w.StartDate),
		EndDate:      formatDate(w.EndDate),
		Active:       w.Active,
		CreatedAt:    w.CreatedAt.Format(time.RFC3339),
	}
}

func toWorkoutInfos(workouts []*model.WorkoutPlan) []*dto.WorkoutInfo {
	items := make([]*dto.WorkoutInfo, 0, len(workouts))
	for _, w := range workouts {
		items = append(items, toWorkoutInfo(w))
	}
	return items
}
