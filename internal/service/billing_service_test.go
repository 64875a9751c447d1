package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/gym_go_server/internal/model"
	"github.com/qs3c/gym_go_server/internal/model/dto"
	"github.com/qs3c/gym_go_server/internal/pkg/queue"
	"github.com/qs3c/gym_go_server/internal/testutil"
)

// enrolled 学员并分配一个 active 套餐
func enrolled(t *testing.T, env *testEnv, planOpts []func(*model.Plan), studentOpts ...func(*model.Student)) (*model.Student, *model.Plan, *model.StudentPlan) {
	t.Helper()
	plan := testutil.TestPlan(t, env.db, planOpts...)
	studentOpts = append([]func(*model.Student){testutil.WithPlanType(plan.PlanType)}, studentOpts...)
	student := testutil.TestStudent(t, env.db, studentOpts...)
	start := testutil.Date(2024, time.January, 1)
	sp := testutil.TestStudentPlan(t, env.db, student.UserID, plan, start, env.calendar.NextDueDate(start, plan.PlanType))
	return student, plan, sp
}

func money(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func TestBillingService_RecordPayment_InsertsRowEachCall(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()

	student, _, _ := enrolled(t, env, nil)
	req := &dto.RecordPaymentRequest{
		StudentID:     &student.UserID,
		Amount:        money("120"),
		PaymentMethod: "pix",
		PaymentDate:   "2024-01-15",
	}

	first, err := env.billing.RecordPayment(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, first.Status)
	assert.Equal(t, testutil.Date(2024, time.January, 15), first.DueDate.UTC())
	require.NotNil(t, first.StudentPlanID)
	assert.Equal(t, int64(1), env.countPayments(t, student.UserID))

	afterFirst := env.reloadStudent(t, student.UserID)
	assert.Equal(t, model.StudentPaymentPaid, afterFirst.PaymentStatus)
	require.NotNil(t, afterFirst.NextPaymentDate)
	assert.Equal(t, "2024-02-15", afterFirst.NextPaymentDate.UTC().Format(dto.DateLayout))
	assert.Equal(t, "2024-01-15", afterFirst.LastPaymentDate.UTC().Format(dto.DateLayout))

	_, err = env.billing.RecordPayment(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(2), env.countPayments(t, student.UserID))

	afterSecond := env.reloadStudent(t, student.UserID)
	assert.Equal(t, afterFirst.PaymentStatus, afterSecond.PaymentStatus)
	assert.True(t, afterFirst.LastPaymentDate.Equal(*afterSecond.LastPaymentDate))
	assert.True(t, afterFirst.NextPaymentDate.Equal(*afterSecond.NextPaymentDate))
}

func TestBillingService_RecordPayment_CycleFollowsPlanType(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()

	tests := []struct {
		planType string
		wantNext string
	}{
		{"monthly", "2024-02-29"},
		{"quarterly", "2024-04-30"},
		{"semestral", "2024-07-31"},
		{"vip", "2025-01-31"},
	}

	for _, tt := range tests {
		t.Run(tt.planType, func(t *testing.T) {
			student, _, _ := enrolled(t, env, []func(*model.Plan){testutil.WithCycle(tt.planType)})

			_, err := env.billing.RecordPayment(context.Background(), &dto.RecordPaymentRequest{
				StudentID:   &student.UserID,
				Amount:      money("99.999"),
				PaymentDate: "2024-01-31",
			})
			require.NoError(t, err)

			st := env.reloadStudent(t, student.UserID)
			assert.Equal(t, tt.wantNext, st.NextPaymentDate.UTC().Format(dto.DateLayout))
		})
	}
}

func TestBillingService_RecordPayment_RoundsAmount(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()

	student, _, _ := enrolled(t, env, nil)
	p, err := env.billing.RecordPayment(context.Background(), &dto.RecordPaymentRequest{
		StudentID: &student.UserID,
		Amount:    money("99.999"),
	})
	require.NoError(t, err)
	assert.Equal(t, "100.00", p.Amount.StringFixed(2))
}

func TestBillingService_RecordPayment_DefaultsToToday(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()
	env.fixClock(time.Date(2024, time.March, 10, 23, 30, 0, 0, time.UTC))

	student, _, _ := enrolled(t, env, nil)
	p, err := env.billing.RecordPayment(context.Background(), &dto.RecordPaymentRequest{
		StudentID: &student.UserID,
		Amount:    money("50"),
	})
	require.NoError(t, err)
	require.NotNil(t, p.PaymentDate)
	assert.Equal(t, "2024-03-10", p.PaymentDate.UTC().Format(dto.DateLayout))
}

func TestBillingService_RecordPayment_Validation(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()

	student, _, _ := enrolled(t, env, nil)
	planless := testutil.TestStudent(t, env.db)
	missing := int64(999999)

	tests := []struct {
		name    string
		req     *dto.RecordPaymentRequest
		wantErr error
	}{
		{"missing student", &dto.RecordPaymentRequest{Amount: money("10")}, ErrIncompleteData},
		{"missing amount", &dto.RecordPaymentRequest{StudentID: &student.UserID}, ErrIncompleteData},
		{"zero amount", &dto.RecordPaymentRequest{StudentID: &student.UserID, Amount: money("0")}, ErrInvalidAmount},
		{"negative amount", &dto.RecordPaymentRequest{StudentID: &student.UserID, Amount: money("-5")}, ErrInvalidAmount},
		{"rounds to zero", &dto.RecordPaymentRequest{StudentID: &student.UserID, Amount: money("0.004")}, ErrInvalidAmount},
		{"bad date", &dto.RecordPaymentRequest{StudentID: &student.UserID, Amount: money("10"), PaymentDate: "15/01/2024"}, ErrInvalidDate},
		{"unknown student", &dto.RecordPaymentRequest{StudentID: &missing, Amount: money("10")}, ErrStudentNotFound},
		{"no active plan", &dto.RecordPaymentRequest{StudentID: &planless.UserID, Amount: money("10")}, ErrNoActivePlan},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.billing.RecordPayment(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Equal(t, int64(0), env.countPayments(t, student.UserID))
	assert.Equal(t, int64(0), env.countPayments(t, planless.UserID))
}

func TestBillingService_SweepOverdue_MarksLapsedStudentOnce(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()

	student, _, _ := enrolled(t, env, []func(*model.Plan){testutil.WithPlanName("Plano Mensal"), testutil.WithPrice("120")})
	_, err := env.billing.RecordPayment(context.Background(), &dto.RecordPaymentRequest{
		StudentID:   &student.UserID,
		Amount:      money("120"),
		PaymentDate: "2024-01-15",
	})
	require.NoError(t, err)

	asOf := testutil.Date(2024, time.February, 16)
	result, err := env.billing.SweepOverdue(context.Background(), asOf)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 0, result.Failed)

	st := env.reloadStudent(t, student.UserID)
	assert.Equal(t, model.StudentPaymentOverdue, st.PaymentStatus)

	notifications := env.notificationsFor(t, student.UserID)
	require.Len(t, notifications, 1)
	assert.Equal(t, model.NotificationPayment, notifications[0].Type)
	assert.Contains(t, notifications[0].Message, "Plano Mensal")
	assert.Contains(t, notifications[0].Message, "R$ 120,00")
	assert.Contains(t, notifications[0].Message, "2024-02-15")
	assert.Equal(t, 1, env.publisher.count())
	assert.Equal(t, []string{queue.MailOverdue}, env.mails.kinds())

	again, err := env.billing.SweepOverdue(context.Background(), asOf)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Processed)
	assert.Len(t, env.notificationsFor(t, student.UserID), 1)
	assert.Equal(t, 1, env.publisher.count())
}

func TestBillingService_SweepOverdue_BoundaryDay(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()

	next := testutil.Date(2024, time.February, 15)
	student, _, _ := enrolled(t, env, nil, testutil.WithPaid(testutil.Date(2024, time.January, 15), next))

	result, err := env.billing.SweepOverdue(context.Background(), testutil.Date(2024, time.February, 14))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Processed)
	assert.Equal(t, model.StudentPaymentPaid, env.reloadStudent(t, student.UserID).PaymentStatus)

	result, err = env.billing.SweepOverdue(context.Background(), next)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
}

func TestBillingService_SweepOverdue_SkipsUnpaidAndOverdue(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()

	testutil.TestStudent(t, env.db)
	testutil.TestStudent(t, env.db, testutil.WithPaymentStatus(model.StudentPaymentOverdue))

	result, err := env.billing.SweepOverdue(context.Background(), testutil.Date(2030, time.January, 1))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Processed)
	assert.Equal(t, 0, env.publisher.count())
}

func TestBillingService_SweepOverdue_MarksPastDuePayments(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()

	lapsed, _, _ := enrolled(t, env, nil,
		testutil.WithPaid(testutil.Date(2024, time.January, 10), testutil.Date(2024, time.February, 10)))
	stale := testutil.TestPayment(t, env.db, lapsed.UserID, testutil.WithDueDate(testutil.Date(2024, time.February, 10)))
	future := testutil.TestPayment(t, env.db, lapsed.UserID, testutil.WithDueDate(testutil.Date(2024, time.February, 20)))

	other := testutil.TestStudent(t, env.db)
	otherStale := testutil.TestPayment(t, env.db, other.UserID, testutil.WithDueDate(testutil.Date(2024, time.February, 1)))
	dueToday := testutil.TestPayment(t, env.db, other.UserID, testutil.WithDueDate(testutil.Date(2024, time.February, 16)))

	result, err := env.billing.SweepOverdue(context.Background(), time.Date(2024, time.February, 16, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, int64(2), result.PaymentsMarked)

	statusOf := func(id int64) string {
		var p model.Payment
		require.NoError(t, env.db.First(&p, id).Error)
		return p.Status
	}
	assert.Equal(t, model.PaymentStatusOverdue, statusOf(stale.ID))
	assert.Equal(t, model.PaymentStatusPending, statusOf(future.ID))
	assert.Equal(t, model.PaymentStatusOverdue, statusOf(otherStale.ID))
	assert.Equal(t, model.PaymentStatusPending, statusOf(dueToday.ID))
	assert.Equal(t, model.StudentPaymentOverdue, env.reloadStudent(t, other.UserID).PaymentStatus)

	summary, err := env.finance.StudentSummary(other.UserID)
	require.NoError(t, err)
	assert.True(t, summary.InSync)
}

func TestBillingService_SweepOverdue_PastDueRequestKeepsSummaryInSync(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()
	env.fixClock(time.Date(2024, time.February, 16, 9, 0, 0, 0, time.UTC))

	student, _, _ := enrolled(t, env, nil)
	_, err := env.billing.RecordPayment(context.Background(), &dto.RecordPaymentRequest{
		StudentID:   &student.UserID,
		Amount:      money("120"),
		PaymentDate: "2024-01-20",
	})
	require.NoError(t, err)
	request, err := env.billing.RequestPayment(context.Background(), &dto.RequestPaymentRequest{
		StudentID: &student.UserID,
		Amount:    money("35"),
		DueDate:   "2024-02-01",
	})
	require.NoError(t, err)

	result, err := env.billing.SweepOverdue(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Processed)
	assert.Equal(t, int64(1), result.PaymentsMarked)

	summary, err := env.finance.StudentSummary(student.UserID)
	require.NoError(t, err)
	assert.Equal(t, model.StudentPaymentOverdue, summary.Stored.PaymentStatus)
	assert.Equal(t, "2024-02-20", summary.Stored.NextPaymentDate)
	assert.True(t, summary.InSync)

	again, err := env.billing.SweepOverdue(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), again.PaymentsMarked)

	// 取消唯一的逾期账单后恢复为 paid
	_, err = env.billing.CancelPayment(request.ID)
	require.NoError(t, err)
	summary, err = env.finance.StudentSummary(student.UserID)
	require.NoError(t, err)
	assert.Equal(t, model.StudentPaymentPaid, summary.Stored.PaymentStatus)
	assert.True(t, summary.InSync)
}

func TestBillingService_UpdatePayment_StatusOverdueMarksStudent(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()
	env.fixClock(time.Date(2024, time.February, 10, 12, 0, 0, 0, time.UTC))

	student, _, _ := enrolled(t, env, nil)
	_, err := env.billing.RecordPayment(context.Background(), &dto.RecordPaymentRequest{
		StudentID:   &student.UserID,
		Amount:      money("120"),
		PaymentDate: "2024-01-20",
	})
	require.NoError(t, err)
	p := testutil.TestPayment(t, env.db, student.UserID, testutil.WithDueDate(testutil.Date(2024, time.February, 15)))

	updated, err := env.billing.UpdatePayment(context.Background(), p.ID, &dto.UpdatePaymentRequest{
		Status: ptr(model.PaymentStatusOverdue),
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusOverdue, updated.Status)

	summary, err := env.finance.StudentSummary(student.UserID)
	require.NoError(t, err)
	assert.Equal(t, model.StudentPaymentOverdue, summary.Stored.PaymentStatus)
	assert.True(t, summary.InSync)
}

func TestBillingService_SweepOverdue_PlanlessStudentUsesLastPayment(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()

	student := testutil.TestStudent(t, env.db,
		testutil.WithPlanType("quarterly"),
		testutil.WithPaid(testutil.Date(2023, time.October, 1), testutil.Date(2024, time.January, 1)))
	testutil.TestPayment(t, env.db, student.UserID,
		testutil.WithAmount("300"), testutil.WithPaidOn(testutil.Date(2023, time.October, 1)))

	result, err := env.billing.SweepOverdue(context.Background(), testutil.Date(2024, time.January, 2))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)

	notifications := env.notificationsFor(t, student.UserID)
	require.Len(t, notifications, 1)
	assert.Contains(t, notifications[0].Message, "quarterly")
	assert.Contains(t, notifications[0].Message, "R$ 300,00")
}

func TestBillingService_SweepOverdue_DeliveryFailureKeepsTransition(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()
	env.publisher.err = errBroker
	env.mails.err = errBroker

	student, _, _ := enrolled(t, env, nil,
		testutil.WithPaid(testutil.Date(2024, time.January, 1), testutil.Date(2024, time.February, 1)))

	result, err := env.billing.SweepOverdue(context.Background(), testutil.Date(2024, time.March, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, model.StudentPaymentOverdue, env.reloadStudent(t, student.UserID).PaymentStatus)
	assert.Len(t, env.notificationsFor(t, student.UserID), 1)
}

func TestBillingService_RequestPayment(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()

	student, _, sp := enrolled(t, env, nil)

	p, err := env.billing.RequestPayment(context.Background(), &dto.RequestPaymentRequest{
		StudentID:   &student.UserID,
		Amount:      money("0.01"),
		DueDate:     "2024-03-05",
		Description: "Taxa de matrícula",
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPending, p.Status)
	assert.Equal(t, "0.01", p.Amount.StringFixed(2))
	require.NotNil(t, p.StudentPlanID)
	assert.Equal(t, sp.ID, *p.StudentPlanID)

	notifications := env.notificationsFor(t, student.UserID)
	require.Len(t, notifications, 1)
	require.NotNil(t, notifications[0].RelatedID)
	assert.Equal(t, p.ID, *notifications[0].RelatedID)
	assert.Contains(t, notifications[0].Message, "R$ 0,01")
	assert.Contains(t, notifications[0].Message, "Taxa de matrícula")
	assert.Equal(t, []string{queue.MailPaymentRequest}, env.mails.kinds())

	// 发起账单不改变学员汇总
	assert.Equal(t, model.StudentPaymentPending, env.reloadStudent(t, student.UserID).PaymentStatus)
}

func TestBillingService_RequestPayment_Validation(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()

	student, _, _ := enrolled(t, env, nil)
	planless := testutil.TestStudent(t, env.db)

	tests := []struct {
		name    string
		req     *dto.RequestPaymentRequest
		wantErr error
	}{
		{"zero amount", &dto.RequestPaymentRequest{StudentID: &student.UserID, Amount: money("0"), DueDate: "2024-03-05"}, ErrInvalidAmount},
		{"rounds to zero", &dto.RequestPaymentRequest{StudentID: &student.UserID, Amount: money("0.004"), DueDate: "2024-03-05"}, ErrInvalidAmount},
		{"missing due date", &dto.RequestPaymentRequest{StudentID: &student.UserID, Amount: money("10")}, ErrIncompleteData},
		{"bad due date", &dto.RequestPaymentRequest{StudentID: &student.UserID, Amount: money("10"), DueDate: "2024-13-01"}, ErrInvalidDate},
		{"no active plan", &dto.RequestPaymentRequest{StudentID: &planless.UserID, Amount: money("10"), DueDate: "2024-03-05"}, ErrNoActivePlan},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.billing.RequestPayment(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Equal(t, int64(0), env.countPayments(t, student.UserID))
	assert.Equal(t, int64(0), env.countPayments(t, planless.UserID))
	assert.Empty(t, env.notificationsFor(t, planless.UserID))
}

func TestBillingService_RequestPayment_NotificationFailureIgnored(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()
	env.publisher.err = errBroker

	student, _, _ := enrolled(t, env, nil)
	p, err := env.billing.RequestPayment(context.Background(), &dto.RequestPaymentRequest{
		StudentID: &student.UserID,
		Amount:    money("80"),
		DueDate:   "2024-03-05",
	})
	require.NoError(t, err)
	assert.NotZero(t, p.ID)
}

func TestBillingService_PayPayment(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()

	student, _, _ := enrolled(t, env, nil, testutil.WithPaymentStatus(model.StudentPaymentOverdue))
	due := testutil.Date(2024, time.February, 1)
	p := testutil.TestPayment(t, env.db, student.UserID, testutil.WithDueDate(due), testutil.WithStatus(model.PaymentStatusOverdue))

	paid, err := env.billing.PayPayment(context.Background(), p.ID, "cartão", "2024-02-05")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, paid.Status)
	assert.Equal(t, "cartão", paid.PaymentMethod)
	assert.True(t, due.Equal(paid.DueDate))
	assert.Equal(t, "2024-02-05", paid.PaymentDate.UTC().Format(dto.DateLayout))

	st := env.reloadStudent(t, student.UserID)
	assert.Equal(t, model.StudentPaymentPaid, st.PaymentStatus)
	assert.Equal(t, "2024-03-05", st.NextPaymentDate.UTC().Format(dto.DateLayout))

	_, err = env.billing.PayPayment(context.Background(), p.ID, "", "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = env.billing.PayPayment(context.Background(), 999999, "", "")
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestBillingService_PayPayment_CancelledRejected(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()

	student := testutil.TestStudent(t, env.db)
	p := testutil.TestPayment(t, env.db, student.UserID, testutil.WithStatus(model.PaymentStatusCancelled))

	_, err := env.billing.PayPayment(context.Background(), p.ID, "", "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, model.StudentPaymentPending, env.reloadStudent(t, student.UserID).PaymentStatus)
}

func TestBillingService_CancelPayment(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()

	student := testutil.TestStudent(t, env.db)
	pending := testutil.TestPayment(t, env.db, student.UserID)
	overdue := testutil.TestPayment(t, env.db, student.UserID, testutil.WithStatus(model.PaymentStatusOverdue))
	paid := testutil.TestPayment(t, env.db, student.UserID, testutil.WithPaidOn(testutil.Date(2024, time.January, 5)))

	t.Run("pending", func(t *testing.T) {
		p, err := env.billing.CancelPayment(pending.ID)
		require.NoError(t, err)
		assert.Equal(t, model.PaymentStatusCancelled, p.Status)
	})

	t.Run("overdue", func(t *testing.T) {
		p, err := env.billing.CancelPayment(overdue.ID)
		require.NoError(t, err)
		assert.Equal(t, model.PaymentStatusCancelled, p.Status)
	})

	t.Run("paid", func(t *testing.T) {
		_, err := env.billing.CancelPayment(paid.ID)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("already cancelled", func(t *testing.T) {
		_, err := env.billing.CancelPayment(pending.ID)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := env.billing.CancelPayment(999999)
		assert.ErrorIs(t, err, ErrPaymentNotFound)
	})

	var count int64
	require.NoError(t, env.db.Model(&model.Payment{}).Where("status = ?", model.PaymentStatusCancelled).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestBillingService_UpdatePayment(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()
	env.fixClock(time.Date(2024, time.March, 2, 12, 0, 0, 0, time.UTC))

	student, _, _ := enrolled(t, env, nil)

	t.Run("edit fields", func(t *testing.T) {
		p := testutil.TestPayment(t, env.db, student.UserID)
		updated, err := env.billing.UpdatePayment(context.Background(), p.ID, &dto.UpdatePaymentRequest{
			Amount:  money("135.456"),
			DueDate: ptr("2024-04-01"),
			Notes:   ptr("ajuste"),
		})
		require.NoError(t, err)
		assert.Equal(t, "135.46", updated.Amount.StringFixed(2))
		assert.Equal(t, "2024-04-01", updated.DueDate.UTC().Format(dto.DateLayout))
		assert.Equal(t, "ajuste", updated.Notes)
		assert.Equal(t, model.PaymentStatusPending, updated.Status)
	})

	t.Run("status paid refreshes summary", func(t *testing.T) {
		p := testutil.TestPayment(t, env.db, student.UserID)
		updated, err := env.billing.UpdatePayment(context.Background(), p.ID, &dto.UpdatePaymentRequest{
			Status: ptr("PAID"),
		})
		require.NoError(t, err)
		assert.Equal(t, model.PaymentStatusPaid, updated.Status)
		assert.Equal(t, "2024-03-02", updated.PaymentDate.UTC().Format(dto.DateLayout))

		st := env.reloadStudent(t, student.UserID)
		assert.Equal(t, model.StudentPaymentPaid, st.PaymentStatus)
		assert.Equal(t, "2024-04-02", st.NextPaymentDate.UTC().Format(dto.DateLayout))
	})

	t.Run("cancelled is terminal", func(t *testing.T) {
		p := testutil.TestPayment(t, env.db, student.UserID, testutil.WithStatus(model.PaymentStatusCancelled))
		_, err := env.billing.UpdatePayment(context.Background(), p.ID, &dto.UpdatePaymentRequest{
			Status: ptr(model.PaymentStatusPending),
		})
		assert.ErrorIs(t, err, ErrInvalidTransition)

		updated, err := env.billing.UpdatePayment(context.Background(), p.ID, &dto.UpdatePaymentRequest{
			Notes: ptr("estornado"),
		})
		require.NoError(t, err)
		assert.Equal(t, model.PaymentStatusCancelled, updated.Status)
		assert.Equal(t, "estornado", updated.Notes)
	})

	t.Run("overdue back to pending rejected", func(t *testing.T) {
		p := testutil.TestPayment(t, env.db, student.UserID, testutil.WithStatus(model.PaymentStatusOverdue))
		_, err := env.billing.UpdatePayment(context.Background(), p.ID, &dto.UpdatePaymentRequest{
			Status: ptr(model.PaymentStatusPending),
		})
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("invalid input", func(t *testing.T) {
		p := testutil.TestPayment(t, env.db, student.UserID)
		_, err := env.billing.UpdatePayment(context.Background(), p.ID, &dto.UpdatePaymentRequest{Status: ptr("refunded")})
		assert.ErrorIs(t, err, ErrInvalidStatus)

		_, err = env.billing.UpdatePayment(context.Background(), p.ID, &dto.UpdatePaymentRequest{Amount: money("0")})
		assert.ErrorIs(t, err, ErrInvalidAmount)
		_, err = env.billing.UpdatePayment(context.Background(), p.ID, &dto.UpdatePaymentRequest{Amount: money("0.004")})
		assert.ErrorIs(t, err, ErrInvalidAmount)

		_, err = env.billing.UpdatePayment(context.Background(), p.ID, &dto.UpdatePaymentRequest{DueDate: ptr("amanhã")})
		assert.ErrorIs(t, err, ErrInvalidDate)

		_, err = env.billing.UpdatePayment(context.Background(), 999999, &dto.UpdatePaymentRequest{Notes: ptr("x")})
		assert.ErrorIs(t, err, ErrPaymentNotFound)
	})
}

func TestBillingService_CheckRenewals(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()

	plan := testutil.TestPlan(t, env.db, testutil.WithPlanName("Plano Trimestral"), testutil.WithCycle("quarterly"), testutil.WithPrice("330"))
	student := testutil.TestStudent(t, env.db, testutil.WithPlanType("quarterly"))
	end := testutil.Date(2024, time.April, 1)
	sp := testutil.TestStudentPlan(t, env.db, student.UserID, plan, testutil.Date(2024, time.January, 1), end)

	result, err := env.billing.CheckRenewals(context.Background(), testutil.Date(2024, time.March, 31))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Processed)

	result, err = env.billing.CheckRenewals(context.Background(), end)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)

	var renewed model.StudentPlan
	require.NoError(t, env.db.First(&renewed, sp.ID).Error)
	assert.Equal(t, "2024-07-01", renewed.EndDate.UTC().Format(dto.DateLayout))

	var payments []*model.Payment
	require.NoError(t, env.db.Where("student_id = ?", student.UserID).Find(&payments).Error)
	require.Len(t, payments, 1)
	assert.Equal(t, model.PaymentStatusPending, payments[0].Status)
	assert.Equal(t, "330.00", payments[0].Amount.StringFixed(2))
	assert.Equal(t, "2024-04-01", payments[0].DueDate.UTC().Format(dto.DateLayout))
	assert.Contains(t, payments[0].Notes, "Plano Trimestral")

	notifications := env.notificationsFor(t, student.UserID)
	require.Len(t, notifications, 1)
	assert.Equal(t, payments[0].ID, *notifications[0].RelatedID)
	assert.Equal(t, []string{queue.MailRenewal}, env.mails.kinds())

	// 学员汇总不受续费影响
	assert.Equal(t, model.StudentPaymentPending, env.reloadStudent(t, student.UserID).PaymentStatus)

	again, err := env.billing.CheckRenewals(context.Background(), end)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Processed)
	assert.Equal(t, int64(1), env.countPayments(t, student.UserID))
}

func TestBillingService_CheckRenewals_CatchesUpMissedPeriods(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()

	student, _, sp := enrolled(t, env, nil)
	require.Equal(t, "2024-02-01", sp.EndDate.Format(dto.DateLayout))

	result, err := env.billing.CheckRenewals(context.Background(), testutil.Date(2024, time.April, 15))
	require.NoError(t, err)
	assert.Equal(t, 3, result.Processed)

	var renewed model.StudentPlan
	require.NoError(t, env.db.First(&renewed, sp.ID).Error)
	assert.Equal(t, "2024-05-01", renewed.EndDate.UTC().Format(dto.DateLayout))

	var dues []time.Time
	require.NoError(t, env.db.Model(&model.Payment{}).
		Where("student_id = ?", student.UserID).
		Order("due_date").
		Pluck("due_date", &dues).Error)
	require.Len(t, dues, 3)
	assert.Equal(t, "2024-02-01", dues[0].UTC().Format(dto.DateLayout))
	assert.Equal(t, "2024-03-01", dues[1].UTC().Format(dto.DateLayout))
	assert.Equal(t, "2024-04-01", dues[2].UTC().Format(dto.DateLayout))
}

func TestBillingService_CheckRenewals_IgnoresInactivePlans(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()

	student, _, sp := enrolled(t, env, nil)
	require.NoError(t, env.db.Model(sp).Update("status", model.StudentPlanCancelled).Error)

	result, err := env.billing.CheckRenewals(context.Background(), testutil.Date(2024, time.June, 1))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Processed)
	assert.Equal(t, int64(0), env.countPayments(t, student.UserID))
}
