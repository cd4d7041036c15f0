package sdk

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"atm-fleet-backend/config"
	"atm-fleet-backend/internal/model"
	"atm-fleet-backend/internal/store"
	"atm-fleet-backend/internal/tasks"
)

// ErrCardRetained terminates a withdrawal after too many wrong PINs. Unlike
// the other failure modes it is a hard error, not a structured response.
var ErrCardRetained = errors.New("card retained due to multiple wrong PIN attempts")

// attemptTTL bounds how long a run of wrong PINs counts against one ATM.
// The counter is intentionally volatile; a process restart clears it.
const attemptTTL = 15 * time.Minute

// Registrar is the assignment engine entry point faults are raised through.
type Registrar interface {
	RegisterIssue(ctx context.Context, report tasks.IssueReport) (*tasks.AssignmentResult, error)
}

// Service simulates a single ATM's cash dispense flow.
type Service struct {
	store     store.Store
	registrar Registrar
	cfg       *config.WithdrawalConfig

	// wrong-PIN attempts keyed by ATM id; go-cache gives per-operation
	// atomicity for concurrent withdrawal requests
	attempts *cache.Cache
}

// NewService creates the withdrawal simulator.
func NewService(st store.Store, registrar Registrar, cfg *config.WithdrawalConfig) *Service {
	return &Service{
		store:     st,
		registrar: registrar,
		cfg:       cfg,
		attempts:  cache.New(attemptTTL, 2*attemptTTL),
	}
}

// WithdrawalRequest is one simulated dispense attempt, with fault flags.
type WithdrawalRequest struct {
	AtmID      string `json:"atmId" binding:"required"`
	PIN        string `json:"pin" binding:"required"`
	Amount     int    `json:"amount" binding:"required,gt=0"`
	CardJammed bool   `json:"cardJammed"`
	CashJammed bool   `json:"cashJammed"`
}

// WithdrawalResult is the structured outcome of a withdrawal attempt.
type WithdrawalResult struct {
	Success               bool           `json:"success"`
	Message               string         `json:"message"`
	Amount                int            `json:"amount,omitempty"`
	DenominationBreakdown *Denominations `json:"denominationBreakdown,omitempty"`
	RemainingCash         int            `json:"remainingCash,omitempty"`
	AttemptsRemaining     *int           `json:"attemptsRemaining,omitempty"`
}

// Withdraw runs the dispense state machine: card check, PIN check,
// inventory check, greedy breakdown, then the post-dispense jam check.
// Business failures come back as a structured result; only the retained
// card surfaces as an error.
func (s *Service) Withdraw(ctx context.Context, req WithdrawalRequest) (*WithdrawalResult, error) {
	if req.CardJammed {
		s.registerIssue(ctx, req.AtmID, model.HealthCritical, model.TitleCardJammed,
			"Card jammed in ATM dispenser")
		log.Printf("Card jammed at ATM %s. Critical issue logged.", req.AtmID)
		return &WithdrawalResult{
			Success: false,
			Message: "Card jammed. Please contact bank support.",
		}, nil
	}

	if req.PIN != s.cfg.CorrectPIN {
		return s.handleWrongPIN(ctx, req.AtmID)
	}
	s.attempts.Delete(req.AtmID)

	inventory, err := s.store.CurrentInventory(ctx, req.AtmID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load cash inventory: %w", err)
	}

	if inventory == nil || inventory.TotalAmount < req.Amount {
		available := 0
		if inventory != nil {
			available = inventory.TotalAmount
		}
		s.registerIssue(ctx, req.AtmID, model.HealthWarning, model.TitleLowCash,
			fmt.Sprintf("Insufficient cash in ATM. Available: %d, Requested: %d", available, req.Amount))
		log.Printf("Low cash at ATM %s. Available: %d, Requested: %d", req.AtmID, available, req.Amount)
		return &WithdrawalResult{
			Success: false,
			Message: "Insufficient cash available. Please try a smaller amount or another ATM.",
		}, nil
	}

	dispensed, ok := Breakdown(req.Amount, Denominations{
		N1000: inventory.N1000,
		N500:  inventory.N500,
		N200:  inventory.N200,
	})
	if !ok {
		log.Printf("Cannot dispense exact amount of %d at ATM %s", req.Amount, req.AtmID)
		return &WithdrawalResult{
			Success: false,
			Message: "Cannot dispense exact amount with available denominations. Please try a different amount.",
		}, nil
	}

	txn := &model.Transaction{
		AtmID:           req.AtmID,
		TotalAmount:     req.Amount,
		N1000:           dispensed.N1000,
		N500:            dispensed.N500,
		N200:            dispensed.N200,
		TransactionType: model.TransactionWithdrawal,
	}
	next := &model.CashInventory{
		AtmID:       req.AtmID,
		TotalAmount: inventory.TotalAmount - req.Amount,
		N1000:       inventory.N1000 - dispensed.N1000,
		N500:        inventory.N500 - dispensed.N500,
		N200:        inventory.N200 - dispensed.N200,
	}
	if err := s.store.RecordCashMovement(ctx, txn, next); err != nil {
		return nil, fmt.Errorf("failed to record withdrawal: %w", err)
	}

	log.Printf("Successful withdrawal of %d from ATM %s. Dispensed: %dx1000, %dx500, %dx200",
		req.Amount, req.AtmID, dispensed.N1000, dispensed.N500, dispensed.N200)

	// A jam after the notes left the cassette: cash is already debited.
	if req.CashJammed {
		s.registerIssue(ctx, req.AtmID, model.HealthCritical, model.TitleCashJammed,
			"Cash jammed in ATM dispenser")
		log.Printf("Cash jammed at ATM %s. Critical issue logged.", req.AtmID)
		return &WithdrawalResult{
			Success: false,
			Message: "Cash jammed. Please contact bank support.",
		}, nil
	}

	return &WithdrawalResult{
		Success:               true,
		Message:               "Withdrawal successful",
		Amount:                req.Amount,
		DenominationBreakdown: &dispensed,
		RemainingCash:         next.TotalAmount,
	}, nil
}

func (s *Service) handleWrongPIN(ctx context.Context, atmID string) (*WithdrawalResult, error) {
	attempts := 1
	if err := s.attempts.Add(atmID, 1, attemptTTL); err != nil {
		n, incErr := s.attempts.IncrementInt(atmID, 1)
		if incErr == nil {
			attempts = n
		}
	}

	log.Printf("Wrong PIN attempt %d/%d for ATM %s", attempts, s.cfg.MaxPINAttempts, atmID)

	if attempts >= s.cfg.MaxPINAttempts {
		s.registerIssue(ctx, atmID, model.HealthCritical, model.TitleCardRetained,
			fmt.Sprintf("Card retained after %d consecutive wrong PIN attempts", s.cfg.MaxPINAttempts))
		s.attempts.Delete(atmID)
		log.Printf("Card retained at ATM %s after %d wrong PIN attempts", atmID, s.cfg.MaxPINAttempts)
		return nil, ErrCardRetained
	}

	remaining := s.cfg.MaxPINAttempts - attempts
	return &WithdrawalResult{
		Success:           false,
		Message:           fmt.Sprintf("Invalid PIN. %d attempts remaining.", remaining),
		AttemptsRemaining: &remaining,
	}, nil
}

// EndTransactionResult is the outcome of the card-eject step.
type EndTransactionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// EndTransaction ejects the customer's card, optionally simulating an
// eject failure that retains it.
func (s *Service) EndTransaction(ctx context.Context, atmID string, simulateCardEjectFailure bool) *EndTransactionResult {
	if simulateCardEjectFailure {
		log.Printf("Card ejection failed at ATM %s. Card retained.", atmID)
		s.registerIssue(ctx, atmID, model.HealthCritical, model.TitleCardEjectFailure,
			"Card ejection failed. Card retained in ATM.")
		return &EndTransactionResult{
			Success: false,
			Message: "Card ejection failed.",
		}
	}

	return &EndTransactionResult{
		Success: true,
		Message: "Card ejected successfully. Thank you for using our ATM.",
	}
}

// Refill loads notes into an ATM, appending a REFILL transaction and the
// resulting inventory snapshot.
func (s *Service) Refill(ctx context.Context, atmID string, added Denominations) (*model.CashInventory, error) {
	current, err := s.store.CurrentInventory(ctx, atmID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load cash inventory: %w", err)
	}

	var base Denominations
	if current != nil {
		base = Denominations{N1000: current.N1000, N500: current.N500, N200: current.N200}
	}

	txn := &model.Transaction{
		AtmID:           atmID,
		TotalAmount:     added.Total(),
		N1000:           added.N1000,
		N500:            added.N500,
		N200:            added.N200,
		TransactionType: model.TransactionRefill,
	}
	next := &model.CashInventory{
		AtmID:       atmID,
		TotalAmount: base.Total() + added.Total(),
		N1000:       base.N1000 + added.N1000,
		N500:        base.N500 + added.N500,
		N200:        base.N200 + added.N200,
	}
	if err := s.store.RecordCashMovement(ctx, txn, next); err != nil {
		return nil, fmt.Errorf("failed to record refill: %w", err)
	}
	return next, nil
}

// registerIssue raises a fault through the assignment engine; failures are
// logged and never block the withdrawal flow.
func (s *Service) registerIssue(ctx context.Context, atmID string, health model.HealthStatus, title model.TaskTitle, description string) {
	_, err := s.registrar.RegisterIssue(ctx, tasks.IssueReport{
		AtmID:            atmID,
		HealthStatus:     health,
		TaskTitle:        title,
		TaskType:         model.TypeHardware,
		IssueDescription: description,
	})
	if err != nil {
		log.Printf("Error registering %s issue for ATM %s: %v", title, atmID, err)
	}
}
