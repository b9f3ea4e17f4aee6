// Package config validates the raw invocation parameters and turns them
// into an immutable Config shared by every concurrent deletion task.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/bnema/ghcr-retention/pkg/timeparse"
)

// AccountType selects which namespace-scoped API operations are used.
type AccountType string

const (
	AccountTypeOrg      AccountType = "org"
	AccountTypePersonal AccountType = "personal"
)

// TimestampType selects which field of a version record drives the
// staleness comparison.
type TimestampType string

const (
	TimestampUpdatedAt TimestampType = "updated_at"
	TimestampCreatedAt TimestampType = "created_at"
)

var (
	ErrInvalidCutoff        = errors.New("unable to parse cut-off")
	ErrMissingTimezone      = errors.New("timezone is required for the cut-off")
	ErrMissingOrgName       = errors.New("org-name is required when account-type is org")
	ErrInvalidAccountType   = errors.New("account-type must be 'org' or 'personal'")
	ErrInvalidTimestampType = errors.New("timestamp-type must be 'updated_at' or 'created_at'")
)

// Config holds the validated inputs for one run. It is constructed once by
// Validate and never mutated afterwards.
type Config struct {
	Cutoff        time.Time
	TimestampType TimestampType
	AccountType   AccountType

	// OrgName is set only when AccountType is AccountTypeOrg.
	OrgName string
}

// Validate checks the raw parameters and builds a Config.
//
// The cut-off must resolve to an instant with a UTC offset. Silently
// assuming a timezone would shift which versions count as stale, so a
// cut-off without one is rejected outright.
func Validate(accountType, orgName, timestampType, cutOff string) (*Config, error) {
	cutoff, hasOffset, err := timeparse.Resolve(cutOff)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCutoff, cutOff)
	}
	if !hasOffset {
		return nil, ErrMissingTimezone
	}

	if accountType == string(AccountTypeOrg) && orgName == "" {
		return nil, ErrMissingOrgName
	}

	parsedAccountType, err := parseAccountType(accountType)
	if err != nil {
		return nil, err
	}
	parsedTimestampType, err := parseTimestampType(timestampType)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Cutoff:        cutoff,
		TimestampType: parsedTimestampType,
		AccountType:   parsedAccountType,
	}
	if parsedAccountType == AccountTypeOrg {
		cfg.OrgName = orgName
	}
	return cfg, nil
}

func parseAccountType(s string) (AccountType, error) {
	switch AccountType(s) {
	case AccountTypeOrg, AccountTypePersonal:
		return AccountType(s), nil
	default:
		return "", fmt.Errorf("%w: got %q", ErrInvalidAccountType, s)
	}
}

func parseTimestampType(s string) (TimestampType, error) {
	switch TimestampType(s) {
	case TimestampUpdatedAt, TimestampCreatedAt:
		return TimestampType(s), nil
	default:
		return "", fmt.Errorf("%w: got %q", ErrInvalidTimestampType, s)
	}
}
