package core

import (
	"fmt"
	"strings"
)

// SupportedFileExtension is the only document format accepted for upload.
const SupportedFileExtension = ".pdf"

const maxSessionIDLength = 128

// ValidateSessionID validates a caller-chosen session identifier.
//
// The empty string is valid and denotes the global scope. Non-empty ids are
// restricted to letters, digits, '.', '_' and '-' so a session can never
// collide with a storage key delimiter. This is the boundary that the
// session-isolation guarantees of the storage layer rely on.
func ValidateSessionID(sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if len(sessionID) > maxSessionIDLength {
		return fmt.Errorf("%w: %w: longer than %d characters", ErrValidation, ErrInvalidSessionID, maxSessionIDLength)
	}
	for _, r := range sessionID {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '.' || r == '_' || r == '-':
		default:
			return fmt.Errorf("%w: %w: character %q not allowed", ErrValidation, ErrInvalidSessionID, r)
		}
	}
	return nil
}

// ValidateFilename checks that the declared filename indicates a supported
// document format. Rejection happens before any side effect.
func ValidateFilename(filename string) error {
	if filename == "" {
		return fmt.Errorf("%w: %w: filename is empty", ErrValidation, ErrUnsupportedFile)
	}
	if !strings.HasSuffix(strings.ToLower(filename), SupportedFileExtension) {
		return fmt.Errorf("%w: %w: only %s files are supported", ErrValidation, ErrUnsupportedFile, SupportedFileExtension)
	}
	return nil
}

// ValidateQuestion checks that a chat question carries text.
func ValidateQuestion(question string) error {
	if strings.TrimSpace(question) == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyQuestion)
	}
	return nil
}

// ValidateRole checks that a Role is one of the defined values.
func ValidateRole(role Role) error {
	if role != RoleUser && role != RoleAssistant {
		return fmt.Errorf("%w: %w: %d", ErrValidation, ErrInvalidRole, role)
	}
	return nil
}

// ValidateTurnContent checks that a conversation turn carries content.
func ValidateTurnContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyContent)
	}
	return nil
}
