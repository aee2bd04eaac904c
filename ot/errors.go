package ot

import (
	"errors"
	"fmt"
)

// ErrorSeverity represents the severity level of a font parsing error.
type ErrorSeverity int

const (
	// SeverityCritical indicates an error which makes the font unusable for subsetting.
	SeverityCritical ErrorSeverity = iota
	// SeverityMajor indicates an error in a table which will not be carried into a subset.
	SeverityMajor
	// SeverityMinor indicates an issue that can be safely ignored.
	SeverityMinor
)

func (s ErrorSeverity) String() string {
	switch s {
	case SeverityCritical:
		return "CRITICAL"
	case SeverityMajor:
		return "MAJOR"
	case SeverityMinor:
		return "MINOR"
	}
	return "UNKNOWN"
}

// FontError represents an error encountered during font parsing.
// Errors are accumulated during parsing and can be inspected after parsing completes.
type FontError struct {
	Table    Tag           // table where the error occurred, zero for the table directory
	Section  string        // part of the table, e.g. "Header" or "Subtable"
	Issue    string        // human-readable description of the issue
	Severity ErrorSeverity // severity level of the error
	Offset   uint32        // byte offset in the font data (0 if unknown)
}

func (e FontError) Error() string {
	if e.Offset > 0 {
		return fmt.Sprintf("[%s] %s/%s at offset %d: %s", e.Severity, e.Table, e.Section, e.Offset, e.Issue)
	}
	return fmt.Sprintf("[%s] %s/%s: %s", e.Severity, e.Table, e.Section, e.Issue)
}

// FontWarning represents a non-critical issue encountered during font parsing.
type FontWarning struct {
	Table  Tag
	Issue  string
	Offset uint32
}

func (w FontWarning) String() string {
	if w.Offset > 0 {
		return fmt.Sprintf("[WARNING] %s at offset %d: %s", w.Table, w.Offset, w.Issue)
	}
	return fmt.Sprintf("[WARNING] %s: %s", w.Table, w.Issue)
}

// ErrNotAFont is returned (wrapped) for data which does not start with an sfnt header.
var ErrNotAFont = errors.New("not an OpenType font")

// errorCollector accumulates errors and warnings during font parsing.
type errorCollector struct {
	errors   []FontError
	warnings []FontWarning
}

// addError records a parsing error and returns it, so parse functions may
// record and return in one step.
func (ec *errorCollector) addError(table Tag, section string, issue string, severity ErrorSeverity, offset uint32) error {
	fe := FontError{
		Table:    table,
		Section:  section,
		Issue:    issue,
		Severity: severity,
		Offset:   offset,
	}
	ec.errors = append(ec.errors, fe)
	return fe
}

func (ec *errorCollector) addWarning(table Tag, issue string, offset uint32) {
	ec.warnings = append(ec.warnings, FontWarning{
		Table:  table,
		Issue:  issue,
		Offset: offset,
	})
}

func (ec *errorCollector) hasErrors() bool {
	return len(ec.errors) > 0
}

func (ec *errorCollector) hasWarnings() bool {
	return len(ec.warnings) > 0
}

func (ec *errorCollector) hasCriticalErrors() bool {
	for _, err := range ec.errors {
		if err.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

func (ec *errorCollector) criticalErrors() []FontError {
	var critical []FontError
	for _, err := range ec.errors {
		if err.Severity == SeverityCritical {
			critical = append(critical, err)
		}
	}
	return critical
}

// CriticalErrors returns the errors which make the font unusable for subsetting.
// Parse does not return a font with critical errors, but fonts may be
// constructed by other means.
func (otf *Font) CriticalErrors() []FontError {
	critical := []FontError{}
	for _, err := range otf.parseErrors {
		if err.Severity == SeverityCritical {
			critical = append(critical, err)
		}
	}
	return critical
}

// HasCriticalErrors reports whether any critical error has been recorded for the font.
func (otf *Font) HasCriticalErrors() bool {
	return len(otf.CriticalErrors()) > 0
}

// TableErrors returns the errors recorded for a given table.
func (otf *Font) TableErrors(tag Tag) []FontError {
	var errs []FontError
	for _, err := range otf.parseErrors {
		if err.Table == tag {
			errs = append(errs, err)
		}
	}
	return errs
}
