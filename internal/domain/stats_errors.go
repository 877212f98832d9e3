package domain

import (
	"errors"
	"fmt"

	"github.com/vfg2006/sales-performance-api/pkg/apiErrors"
)

// Erros do motor de estatísticas
var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("counters not found")
	ErrConflict       = errors.New("concurrent archive conflict")
	ErrStorageFailure = errors.New("storage failure")
)

// StatsError é um erro com contexto adicional para as operações de estatísticas
type StatsError struct {
	Err     error  // Erro base
	Code    string // Código de erro para API
	UserID  int    // ID do usuário envolvido (quando aplicável)
	Details string // Detalhes adicionais
}

// Error implementa a interface error
func (e *StatsError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Details)
	}
	return e.Err.Error()
}

// Unwrap retorna o erro subjacente
func (e *StatsError) Unwrap() error {
	return e.Err
}

// NewStatsError cria um novo StatsError
func NewStatsError(err error, userID int, details string) *StatsError {
	return &StatsError{
		Err:     err,
		Code:    ErrorCode(err),
		UserID:  userID,
		Details: details,
	}
}

// ErrorCode traduz um erro de estatísticas para o código da API
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return apiErrors.ErrStatsInvalidInput
	case errors.Is(err, ErrForbidden):
		return apiErrors.ErrStatsForbidden
	case errors.Is(err, ErrNotFound):
		return apiErrors.ErrStatsNotFound
	case errors.Is(err, ErrConflict):
		return apiErrors.ErrStatsConflict
	default:
		return apiErrors.ErrStatsStorageFailure
	}
}

// StorageError classifica uma falha do armazenamento como ErrStorageFailure.
// Erros de domínio já classificados são devolvidos sem alteração.
func StorageError(userID int, cause error) error {
	if cause == nil {
		return nil
	}
	var statsErr *StatsError
	if errors.As(cause, &statsErr) || errors.Is(cause, ErrStorageFailure) {
		return cause
	}
	return &StatsError{
		Err:    fmt.Errorf("%w: %w", ErrStorageFailure, cause),
		Code:   apiErrors.ErrStatsStorageFailure,
		UserID: userID,
	}
}
