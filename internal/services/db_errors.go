package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// isDuplicateKey covers dialects whose driver does not translate unique violations.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}

// isRetryable reports transient write conflicts worth another attempt.
func isRetryable(err error) bool {
	if isDuplicateKey(err) {
		return true
	}
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"deadlock", "could not serialize", "serialization failure", "database is locked", "lock wait timeout", "sqlite_busy"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
