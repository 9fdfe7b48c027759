package service

import (
	"fmt"

	"solifin/internal/domain"
	"solifin/internal/repository"
	"solifin/pkg/money"

	"gorm.io/gorm"
)

// FeeBreakdown splits a withdrawal's fees: the global fee charged to the
// user, the cut owed to the payment method, and what the platform keeps.
type FeeBreakdown struct {
	Percentage    float64 `json:"percentage"`
	GlobalCents   int64   `json:"global_cents"`
	SpecificCents int64   `json:"specific_cents"`
	SystemCents   int64   `json:"system_cents"`
}

type FeeService struct {
	settings   *repository.SettingRepository
	fees       *repository.FeeRepository
	defaultPct float64
}

func NewFeeService(settings *repository.SettingRepository, fees *repository.FeeRepository, defaultPct float64) *FeeService {
	return &FeeService{settings: settings, fees: fees, defaultPct: defaultPct}
}

// Calculate computes the fee breakdown for a payout from the current
// configuration. A method-specific fee above the global fee would mean
// negative system revenue; that is a configuration defect and is rejected
// rather than clamped.
func (s *FeeService) Calculate(tx *gorm.DB, payoutCents int64, method string) (*FeeBreakdown, error) {
	if payoutCents <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	pct := s.settings.WithTx(tx).GetFloat(domain.SettingWithdrawalFeePct, s.defaultPct)
	global := money.Percent(payoutCents, pct)
	var specific int64
	rule, err := s.fees.WithTx(tx).GetActiveByMethod(method)
	if err != nil {
		return nil, err
	}
	if rule != nil {
		specific = money.Percent(payoutCents, rule.FeePercentage)
		if rule.FeeCapCents > 0 && specific > rule.FeeCapCents {
			specific = rule.FeeCapCents
		}
	}
	system := global - specific
	if system < 0 {
		return nil, fmt.Errorf("%w: method %q fee %s exceeds global fee %s",
			domain.ErrFeeConfiguration, method,
			money.Format(specific, ""), money.Format(global, ""))
	}
	return &FeeBreakdown{
		Percentage:    pct,
		GlobalCents:   global,
		SpecificCents: specific,
		SystemCents:   system,
	}, nil
}
