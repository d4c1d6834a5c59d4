package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/gamecafe-session-engine/internal/repository"
)

var (
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInvalidCost         = errors.New("totalCost must be a non-negative amount")
	ErrTerminalUnavailable = fmt.Errorf("terminal is not available: %w", repository.ErrConflict)
)
