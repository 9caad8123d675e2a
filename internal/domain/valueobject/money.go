package valueobject

import (
	"math"
	"strconv"

	"github.com/ignatzorin/engagement-backend/internal/pkg/apperror"
)

const CurrencyINR = "INR"

type Money struct {
	Amount   float64
	Currency string
}

func NewMoney(amount float64, currency string) (Money, error) {
	if amount < 0 {
		return Money{}, apperror.New(apperror.ErrCodeValidation, "сумма не может быть отрицательной")
	}
	if currency == "" {
		currency = CurrencyINR
	}
	return Money{Amount: amount, Currency: currency}, nil
}

// NewPrice - цена услуги, строго больше нуля.
func NewPrice(amount float64) (Money, error) {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Money{}, apperror.New(apperror.ErrCodeValidation, "цена должна быть положительной")
	}
	return NewMoney(amount, CurrencyINR)
}

// MinorUnits переводит сумму в пайсы, как того требует платёжный шлюз.
func (m Money) MinorUnits() int64 {
	return int64(math.Round(m.Amount * 100))
}

func (m Money) String() string {
	return "₹" + strconv.FormatFloat(m.Amount, 'f', -1, 64)
}
