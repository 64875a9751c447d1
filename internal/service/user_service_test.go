package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/qs3c/gym_go_server/internal/model"
	"github.com/qs3c/gym_go_server/internal/model/dto"
	"github.com/qs3c/gym_go_server/internal/pkg/logger"
	"github.com/qs3c/gym_go_server/internal/repository"
	"github.com/qs3c/gym_go_server/internal/testutil"
)

func setupUserService(t *testing.T, storage AvatarStorage) (*UserService, *testEnv, func()) {
	t.Helper()
	env, cleanup := setupEnv(t)
	service := NewUserService(repository.NewUserRepository(env.db), storage, env.cfg, logger.Discard())
	return service, env, cleanup
}

func TestUserService_GetProfile(t *testing.T) {
	service, env, cleanup := setupUserService(t, nil)
	defer cleanup()

	user := testutil.TestUser(t, env.db, testutil.WithName("Maria"))

	info, err := service.GetProfile(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Maria", info.Name)
	assert.Equal(t, user.Email, info.Email)

	_, err = service.GetProfile(999999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_UpdateProfile(t *testing.T) {
	service, env, cleanup := setupUserService(t, nil)
	defer cleanup()

	user := testutil.TestUser(t, env.db)
	other := testutil.TestUser(t, env.db)

	info, err := service.UpdateProfile(user.ID, &dto.UpdateProfileRequest{
		Name:  ptr("  Joana  "),
		Email: ptr("JOANA@example.com"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Joana", info.Name)
	assert.Equal(t, "joana@example.com", info.Email)

	_, err = service.UpdateProfile(user.ID, &dto.UpdateProfileRequest{Email: &other.Email})
	assert.ErrorIs(t, err, ErrEmailExists)

	// 邮箱未变化时不视为冲突
	_, err = service.UpdateProfile(user.ID, &dto.UpdateProfileRequest{Email: ptr("joana@example.com")})
	assert.NoError(t, err)
}

func TestUserService_ChangePassword(t *testing.T) {
	service, env, cleanup := setupUserService(t, nil)
	defer cleanup()

	user := testutil.TestUser(t, env.db)

	err := service.ChangePassword(user.ID, &dto.ChangePasswordRequest{OldPassword: "wrong", NewPassword: "novasenha123"})
	assert.ErrorIs(t, err, ErrWrongPassword)

	err = service.ChangePassword(user.ID, &dto.ChangePasswordRequest{OldPassword: testutil.DefaultPassword, NewPassword: "novasenha123"})
	require.NoError(t, err)

	var reloaded model.User
	require.NoError(t, env.db.First(&reloaded, user.ID).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(reloaded.PasswordHash), []byte("novasenha123")))
}

func TestUserService_UploadAvatar(t *testing.T) {
	storage := &fakeStorage{}
	service, env, cleanup := setupUserService(t, storage)
	defer cleanup()

	user := testutil.TestUser(t, env.db)

	first, err := service.UploadAvatar(user.ID, strings.NewReader("png-bytes"), "me.PNG", 9)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(first, ".png"))
	assert.Empty(t, storage.deleted)

	second, err := service.UploadAvatar(user.ID, strings.NewReader("jpg-bytes"), "me.jpg", 9)
	require.NoError(t, err)
	assert.Equal(t, []string{first}, storage.deleted)

	info, err := service.GetProfile(user.ID)
	require.NoError(t, err)
	assert.Equal(t, second, info.AvatarURL)
}

func TestUserService_UploadAvatar_Rejected(t *testing.T) {
	storage := &fakeStorage{}
	service, env, cleanup := setupUserService(t, storage)
	defer cleanup()

	user := testutil.TestUser(t, env.db)

	_, err := service.UploadAvatar(user.ID, strings.NewReader("x"), "big.png", 4096)
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = service.UploadAvatar(user.ID, strings.NewReader("x"), "script.svg", 1)
	assert.ErrorIs(t, err, ErrFileTypeForbidden)

	_, err = service.UploadAvatar(user.ID, strings.NewReader("x"), "noext", 1)
	assert.ErrorIs(t, err, ErrFileTypeForbidden)

	assert.Empty(t, storage.uploads)
}

func TestUserService_UploadAvatar_StorageDisabled(t *testing.T) {
	service, env, cleanup := setupUserService(t, nil)
	defer cleanup()

	user := testutil.TestUser(t, env.db)
	_, err := service.UploadAvatar(user.ID, strings.NewReader("x"), "a.png", 1)
	assert.ErrorIs(t, err, ErrStorageDisabled)
}
