package sdk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"atm-fleet-backend/config"
	"atm-fleet-backend/internal/model"
	"atm-fleet-backend/internal/store"
	"atm-fleet-backend/internal/tasks"
)

// recordingRegistrar captures the issues a withdrawal raises instead of
// running the real assignment engine.
type recordingRegistrar struct {
	reports []tasks.IssueReport
}

func (r *recordingRegistrar) RegisterIssue(_ context.Context, report tasks.IssueReport) (*tasks.AssignmentResult, error) {
	r.reports = append(r.reports, report)
	return &tasks.AssignmentResult{}, nil
}

func newTestService(t *testing.T) (*Service, store.Store, *recordingRegistrar) {
	t.Helper()

	testDB, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	err = testDB.AutoMigrate(&model.ATM{}, &model.CashInventory{}, &model.Transaction{},
		&model.IssueLog{}, &model.Task{}, &model.StatusEntry{}, &model.User{})
	require.NoError(t, err)

	st := store.NewGormStore(testDB)
	registrar := &recordingRegistrar{}
	cfg := &config.WithdrawalConfig{CorrectPIN: "1234", MaxPINAttempts: 3}
	return NewService(st, registrar, cfg), st, registrar
}

func seedATMWithCash(t *testing.T, st store.Store, notes Denominations) *model.ATM {
	t.Helper()
	ctx := context.Background()

	atm := &model.ATM{ActivityStatus: model.ActivityOnline, HealthStatus: model.HealthHealthy}
	require.NoError(t, st.CreateATM(ctx, atm))
	require.NoError(t, st.CreateInventory(ctx, &model.CashInventory{
		AtmID:       atm.ID,
		TotalAmount: notes.Total(),
		N1000:       notes.N1000,
		N500:        notes.N500,
		N200:        notes.N200,
	}))
	return atm
}

func TestWithdrawSuccess(t *testing.T) {
	svc, st, registrar := newTestService(t)
	ctx := context.Background()
	atm := seedATMWithCash(t, st, Denominations{N1000: 10, N500: 5, N200: 5})

	result, err := svc.Withdraw(ctx, WithdrawalRequest{AtmID: atm.ID, PIN: "1234", Amount: 4700})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 4700, result.Amount)
	require.NotNil(t, result.DenominationBreakdown)
	assert.Equal(t, Denominations{N1000: 4, N500: 1, N200: 1}, *result.DenominationBreakdown)
	assert.Equal(t, 8800, result.RemainingCash)
	assert.Empty(t, registrar.reports)

	// A new inventory snapshot must be appended, not an in-place update.
	inv, err := st.CurrentInventory(ctx, atm.ID)
	require.NoError(t, err)
	assert.Equal(t, 8800, inv.TotalAmount)
	assert.Equal(t, 6, inv.N1000)
	assert.Equal(t, 4, inv.N500)
	assert.Equal(t, 4, inv.N200)
}

func TestWithdrawWrongPINRetainsCard(t *testing.T) {
	svc, st, registrar := newTestService(t)
	ctx := context.Background()
	atm := seedATMWithCash(t, st, Denominations{N1000: 5})

	for want := 2; want >= 1; want-- {
		result, err := svc.Withdraw(ctx, WithdrawalRequest{AtmID: atm.ID, PIN: "0000", Amount: 1000})
		require.NoError(t, err)
		assert.False(t, result.Success)
		require.NotNil(t, result.AttemptsRemaining)
		assert.Equal(t, want, *result.AttemptsRemaining)
	}

	_, err := svc.Withdraw(ctx, WithdrawalRequest{AtmID: atm.ID, PIN: "0000", Amount: 1000})
	assert.ErrorIs(t, err, ErrCardRetained)

	require.Len(t, registrar.reports, 1)
	assert.Equal(t, model.TitleCardRetained, registrar.reports[0].TaskTitle)
	assert.Equal(t, model.HealthCritical, registrar.reports[0].HealthStatus)

	// The retained card clears the counter; the next session starts fresh.
	result, err := svc.Withdraw(ctx, WithdrawalRequest{AtmID: atm.ID, PIN: "1234", Amount: 1000})
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestWithdrawCorrectPINResetsCounter(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	atm := seedATMWithCash(t, st, Denominations{N1000: 5})

	_, err := svc.Withdraw(ctx, WithdrawalRequest{AtmID: atm.ID, PIN: "0000", Amount: 1000})
	require.NoError(t, err)
	_, err = svc.Withdraw(ctx, WithdrawalRequest{AtmID: atm.ID, PIN: "0000", Amount: 1000})
	require.NoError(t, err)

	result, err := svc.Withdraw(ctx, WithdrawalRequest{AtmID: atm.ID, PIN: "1234", Amount: 1000})
	require.NoError(t, err)
	assert.True(t, result.Success)

	// Two more wrong attempts must not retain the card.
	_, err = svc.Withdraw(ctx, WithdrawalRequest{AtmID: atm.ID, PIN: "0000", Amount: 1000})
	require.NoError(t, err)
	result, err = svc.Withdraw(ctx, WithdrawalRequest{AtmID: atm.ID, PIN: "0000", Amount: 1000})
	require.NoError(t, err)
	require.NotNil(t, result.AttemptsRemaining)
	assert.Equal(t, 1, *result.AttemptsRemaining)
}

func TestWithdrawLowCash(t *testing.T) {
	svc, st, registrar := newTestService(t)
	ctx := context.Background()
	atm := seedATMWithCash(t, st, Denominations{N1000: 1})

	result, err := svc.Withdraw(ctx, WithdrawalRequest{AtmID: atm.ID, PIN: "1234", Amount: 5000})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "Insufficient cash")
	require.Len(t, registrar.reports, 1)
	assert.Equal(t, model.TitleLowCash, registrar.reports[0].TaskTitle)
	assert.Equal(t, model.HealthWarning, registrar.reports[0].HealthStatus)

	// Nothing was dispensed.
	inv, err := st.CurrentInventory(ctx, atm.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000, inv.TotalAmount)
}

func TestWithdrawNoExactBreakdown(t *testing.T) {
	svc, st, registrar := newTestService(t)
	ctx := context.Background()
	atm := seedATMWithCash(t, st, Denominations{N1000: 5})

	result, err := svc.Withdraw(ctx, WithdrawalRequest{AtmID: atm.ID, PIN: "1234", Amount: 1300})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "Cannot dispense exact amount")
	assert.Empty(t, registrar.reports)

	inv, err := st.CurrentInventory(ctx, atm.ID)
	require.NoError(t, err)
	assert.Equal(t, 5000, inv.TotalAmount)
}

func TestWithdrawCardJammed(t *testing.T) {
	svc, st, registrar := newTestService(t)
	ctx := context.Background()
	atm := seedATMWithCash(t, st, Denominations{N1000: 5})

	result, err := svc.Withdraw(ctx, WithdrawalRequest{AtmID: atm.ID, PIN: "1234", Amount: 1000, CardJammed: true})
	require.NoError(t, err)

	assert.False(t, result.Success)
	require.Len(t, registrar.reports, 1)
	assert.Equal(t, model.TitleCardJammed, registrar.reports[0].TaskTitle)

	// The jam happens before the PIN check and the dispense.
	inv, err := st.CurrentInventory(ctx, atm.ID)
	require.NoError(t, err)
	assert.Equal(t, 5000, inv.TotalAmount)
}

func TestWithdrawCashJammedAfterDispense(t *testing.T) {
	svc, st, registrar := newTestService(t)
	ctx := context.Background()
	atm := seedATMWithCash(t, st, Denominations{N1000: 5})

	result, err := svc.Withdraw(ctx, WithdrawalRequest{AtmID: atm.ID, PIN: "1234", Amount: 1000, CashJammed: true})
	require.NoError(t, err)

	assert.False(t, result.Success)
	require.Len(t, registrar.reports, 1)
	assert.Equal(t, model.TitleCashJammed, registrar.reports[0].TaskTitle)

	// The jam happens after the notes left the cassette: cash is debited.
	inv, err := st.CurrentInventory(ctx, atm.ID)
	require.NoError(t, err)
	assert.Equal(t, 4000, inv.TotalAmount)
}

func TestEndTransaction(t *testing.T) {
	svc, st, registrar := newTestService(t)
	ctx := context.Background()
	atm := seedATMWithCash(t, st, Denominations{N1000: 1})

	result := svc.EndTransaction(ctx, atm.ID, false)
	assert.True(t, result.Success)
	assert.Empty(t, registrar.reports)

	result = svc.EndTransaction(ctx, atm.ID, true)
	assert.False(t, result.Success)
	require.Len(t, registrar.reports, 1)
	assert.Equal(t, model.TitleCardEjectFailure, registrar.reports[0].TaskTitle)
}

func TestRefillAccumulates(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	atm := &model.ATM{}
	require.NoError(t, st.CreateATM(ctx, atm))

	// First refill with no prior inventory at all.
	inv, err := svc.Refill(ctx, atm.ID, Denominations{N1000: 10, N500: 10})
	require.NoError(t, err)
	assert.Equal(t, 15000, inv.TotalAmount)

	inv, err = svc.Refill(ctx, atm.ID, Denominations{N200: 5})
	require.NoError(t, err)
	assert.Equal(t, 16000, inv.TotalAmount)
	assert.Equal(t, 10, inv.N1000)
	assert.Equal(t, 10, inv.N500)
	assert.Equal(t, 5, inv.N200)
}
