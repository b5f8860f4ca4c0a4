package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrVersionMismatch means a state reached a model built for another schema version.
	ErrVersionMismatch = errors.New("schema version mismatch")
	// ErrSupplementaryType means supplementary data could not be downcast to the expected version type.
	ErrSupplementaryType = errors.New("supplementary data type mismatch")
	// ErrMaskLayout means the mask or battlefield vector does not fit the version's layout.
	ErrMaskLayout = errors.New("action mask layout mismatch")
)

var contractErrors []error

// RegisterContractError marks err as a fatal contract violation for
// IsContractViolation. Packages call it from init.
func RegisterContractError(err error) {
	contractErrors = append(contractErrors, err)
}

func init() {
	RegisterContractError(ErrVersionMismatch)
	RegisterContractError(ErrSupplementaryType)
	RegisterContractError(ErrMaskLayout)
}

// IsContractViolation reports whether err wraps one of the fatal
// contract kinds. Hosts abort the run on these.
func IsContractViolation(err error) bool {
	for _, target := range contractErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// CheckVersion returns ErrVersionMismatch unless s reports want.
func CheckVersion(s State, want int) error {
	if got := s.Version(); got != want {
		return fmt.Errorf("%w: expected version %d, got: %d", ErrVersionMismatch, want, got)
	}
	return nil
}

// SupplementaryTypeError describes a failed downcast of supplementary data.
func SupplementaryTypeError(want string, got any) error {
	return fmt.Errorf("%w: expected %s, got %T", ErrSupplementaryType, want, got)
}
