// conf/validate.go

package conf

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateInputSettings(&settings.Input); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateOutputSettings(&settings.Output); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateConversionSettings(&settings.Conversion); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if settings.Telemetry.Enabled && settings.Telemetry.DSN == "" {
		ve.Errors = append(ve.Errors, "telemetry is enabled but no DSN is configured")
	}

	if len(ve.Errors) > 0 {
		return ve
	}

	return nil
}

func validateInputSettings(in *InputSettings) error {
	var missing []string
	for name, value := range map[string]string{
		"taxonomy":              in.Taxonomy,
		"extrataxa":             in.ExtraTaxa,
		"mappings":              in.Mappings,
		"acceptedtaxa":          in.AcceptedTaxa,
		"acceptedabbreviations": in.AcceptedAbbreviations,
		"observations":          in.Observations,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, "input."+name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("input files not configured: %s", strings.Join(missing, ", "))
	}
	return nil
}

func validateOutputSettings(out *OutputSettings) error {
	var errs []string

	switch out.Format {
	case FormatTurtle, FormatNTriples:
	default:
		errs = append(errs, fmt.Sprintf("output format must be %q or %q, got %q", FormatTurtle, FormatNTriples, out.Format))
	}

	if out.BatchSize <= 0 {
		errs = append(errs, fmt.Sprintf("output batch size must be positive, got %d", out.BatchSize))
	}

	if out.ObservationPrefix == "" {
		errs = append(errs, "output observation prefix must not be empty")
	}

	if out.SQLite.Enabled && out.MySQL.Enabled {
		errs = append(errs, "only one of output.sqlite and output.mysql can be enabled")
	}

	if out.SQLite.Enabled && out.SQLite.Path == "" {
		errs = append(errs, "output.sqlite.path is required when SQLite is enabled")
	}

	if out.MySQL.Enabled && (out.MySQL.Username == "" || out.MySQL.Database == "" || out.MySQL.Host == "") {
		errs = append(errs, "output.mysql requires username, database and host when enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("output settings errors: %v", errs)
	}
	return nil
}

func validateConversionSettings(c *ConversionSettings) error {
	var errs []string

	if c.CutoffYear < 1900 || c.CutoffYear > 2100 {
		errs = append(errs, fmt.Sprintf("cutoff year %d is out of range", c.CutoffYear))
	}
	if c.CommonThreshold < 0 {
		errs = append(errs, fmt.Sprintf("common threshold must not be negative, got %d", c.CommonThreshold))
	}
	if c.IssueHistory < 0 {
		errs = append(errs, fmt.Sprintf("issue history must not be negative, got %d", c.IssueHistory))
	}

	if len(errs) > 0 {
		return fmt.Errorf("conversion settings errors: %v", errs)
	}
	return nil
}
