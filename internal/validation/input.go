// Package validation проверяет пользовательский ввод до обращения к use case.
package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ignatzorin/engagement-backend/internal/pkg/apperror"
)

const (
	MaxRequirementLength   = 5000
	MaxMessageLength       = 5000
	MaxNoteLength          = 1000
	MaxDescriptionLength   = 2000
	MaxBroadcastClients    = 500
	MaxQuotedPrice         = 10000000.0 // 1 крор рупий
	MaxTransactionIDLength = 38
)

func invalid(format string, args ...interface{}) error {
	return apperror.New(apperror.ErrCodeValidation, fmt.Sprintf(format, args...))
}

// ValidateLength проверяет длину строки в символах.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return invalid("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return invalid("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalid("%s обязателен", fieldName)
	}
	return nil
}

func ValidateRequirement(requirement string) error {
	if err := ValidateNonEmpty("текст требований", requirement); err != nil {
		return err
	}
	return ValidateLength("текст требований", requirement, 0, MaxRequirementLength)
}

// ValidateMessageText проверяет текст сообщения чата.
func ValidateMessageText(text string) error {
	if err := ValidateNonEmpty("текст сообщения", text); err != nil {
		return err
	}
	return ValidateLength("текст сообщения", text, 0, MaxMessageLength)
}

func ValidateNote(note string) error {
	return ValidateLength("комментарий", note, 0, MaxNoteLength)
}

func ValidateUpdateDescription(description string) error {
	if err := ValidateNonEmpty("описание обновления", description); err != nil {
		return err
	}
	return ValidateLength("описание обновления", description, 0, MaxDescriptionLength)
}

// ValidatePrice проверяет сумму в рупиях; ноль допустим для бесплатных услуг.
func ValidatePrice(price float64) error {
	if price < 0 {
		return invalid("цена не может быть отрицательной")
	}
	if price > MaxQuotedPrice {
		return invalid("цена не может превышать %.0f", MaxQuotedPrice)
	}
	return nil
}

// ValidateTransactionID допускает только буквы, цифры, '_' и '-'; шлюз ограничивает длину 38 символами.
func ValidateTransactionID(id string) error {
	if id == "" {
		return nil
	}
	if len(id) > MaxTransactionIDLength {
		return invalid("идентификатор транзакции длиннее %d символов", MaxTransactionIDLength)
	}
	for _, r := range id {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-') {
			return invalid("идентификатор транзакции содержит недопустимые символы")
		}
	}
	return nil
}

func ValidateBroadcastSize(n int) error {
	if n == 0 {
		return invalid("список клиентов пуст")
	}
	if n > MaxBroadcastClients {
		return invalid("не более %d клиентов за одну рассылку", MaxBroadcastClients)
	}
	return nil
}
