package match

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/Strob0t/sportz/internal/domain"
)

const maxNameLength = 255

// ValidateCreateRequest validates the fields of a match creation request.
func ValidateCreateRequest(req *CreateRequest) error {
	if err := validateName("sport", req.Sport); err != nil {
		return err
	}
	if err := validateName("homeTeam", req.HomeTeam); err != nil {
		return err
	}
	if err := validateName("awayTeam", req.AwayTeam); err != nil {
		return err
	}
	if strings.EqualFold(strings.TrimSpace(req.HomeTeam), strings.TrimSpace(req.AwayTeam)) {
		return fmt.Errorf("homeTeam and awayTeam must differ: %w", domain.ErrValidation)
	}

	if req.StartTime.IsZero() {
		return fmt.Errorf("startTime is required: %w", domain.ErrValidation)
	}
	if req.EndTime.IsZero() {
		return fmt.Errorf("endTime is required: %w", domain.ErrValidation)
	}
	if !req.EndTime.After(req.StartTime) {
		return fmt.Errorf("endTime must be after startTime: %w", domain.ErrValidation)
	}

	if req.HomeScore != nil && *req.HomeScore < 0 {
		return fmt.Errorf("homeScore must be non-negative: %w", domain.ErrValidation)
	}
	if req.AwayScore != nil && *req.AwayScore < 0 {
		return fmt.Errorf("awayScore must be non-negative: %w", domain.ErrValidation)
	}
	return nil
}

func validateName(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required: %w", field, domain.ErrValidation)
	}
	if len(value) > maxNameLength {
		return fmt.Errorf("%s exceeds %d characters: %w", field, maxNameLength, domain.ErrValidation)
	}
	for _, r := range value {
		if unicode.IsControl(r) {
			return fmt.Errorf("%s contains control characters: %w", field, domain.ErrValidation)
		}
	}
	return nil
}
