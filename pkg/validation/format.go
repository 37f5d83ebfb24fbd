// Package validation checks user input before it reaches the record store.
package validation

import (
	"fmt"

	"github.com/iwvelando/consultorio/pkg/constants"
)

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	if format != constants.OutputFormatPretty && format != constants.OutputFormatCSV {
		return fmt.Errorf("%w: expected output format of %s or %s, got %s",
			ErrInvalidInput, constants.OutputFormatPretty, constants.OutputFormatCSV, format)
	}
	return nil
}
