package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/gym_go_server/internal/model/dto"
)

func TestSettingsService_Defaults(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()

	settings, err := env.settings.Get()
	require.NoError(t, err)
	assert.Equal(t, "Academia", settings.GymName)
	assert.Equal(t, "BRL", settings.Currency)
	assert.Equal(t, "pt-BR", settings.Locale)
	assert.Equal(t, "06:00", settings.OpenTime)
	assert.Equal(t, "BRL", env.settings.Currency())
}

func TestSettingsService_Update(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()

	updated, err := env.settings.Update(&dto.UpdateSettingsRequest{
		GymName:   ptr(" Academia Centro "),
		Currency:  ptr("usd"),
		OpenTime:  ptr("05:30"),
		CloseTime: ptr("23:00"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Academia Centro", updated.GymName)
	assert.Equal(t, "USD", updated.Currency)

	reloaded, err := env.settings.Get()
	require.NoError(t, err)
	assert.Equal(t, "05:30", reloaded.OpenTime)
	assert.Equal(t, "pt-BR", reloaded.Locale)
	assert.Equal(t, "USD", env.settings.Currency())

	plan, err := env.plans.Create(&dto.CreatePlanRequest{Name: "Mensal", PlanType: "monthly", Price: money("10")})
	require.NoError(t, err)
	assert.Equal(t, "$10.00", plan.PriceFormatted)
}

func TestSettingsService_Update_Validation(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()

	_, err := env.settings.Update(&dto.UpdateSettingsRequest{Currency: ptr("EURO")})
	assert.ErrorIs(t, err, ErrInvalidCurrency)

	_, err = env.settings.Update(&dto.UpdateSettingsRequest{OpenTime: ptr("25:00")})
	assert.ErrorIs(t, err, ErrInvalidTime)

	_, err = env.settings.Update(&dto.UpdateSettingsRequest{CloseTime: ptr("10h")})
	assert.ErrorIs(t, err, ErrInvalidTime)
}
