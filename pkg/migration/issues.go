package migration

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/s8r-framework/s8r/internal/logging"
)

// IssueType classifies a migration issue.
type IssueType string

const (
	IssueStateTransition  IssueType = "state_transition"
	IssueTypeMismatch     IssueType = "type_mismatch"
	IssuePropertyNotFound IssueType = "property_not_found"
	IssueLifecycle        IssueType = "lifecycle"
)

// Severity orders issues by importance.
type Severity string

const (
	SeverityDebug   Severity = "debug"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Issue is one recorded migration finding.
type Issue struct {
	Type           IssueType
	Severity       Severity
	Category       string
	Message        string
	Property       string
	LegacyValue    string
	NewValue       string
	Recommendation string
	At             time.Time
}

// IssueLog collects migration issues per category. Safe for concurrent
// use.
type IssueLog struct {
	mu       sync.Mutex
	category string
	issues   []Issue
	logger   *slog.Logger
}

// NewIssueLog creates an issue log for a category. The logger may be
// nil.
func NewIssueLog(category string, logger *slog.Logger) *IssueLog {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &IssueLog{category: category, logger: logger}
}

// ReportTypeMismatch records a legacy/new type conflict on a property.
func (l *IssueLog) ReportTypeMismatch(property, legacyType, newType string) {
	l.report(Issue{
		Type:        IssueTypeMismatch,
		Severity:    SeverityWarning,
		Property:    property,
		LegacyValue: legacyType,
		NewValue:    newType,
		Message:     fmt.Sprintf("type mismatch: %s expected %s but got %s", property, newType, legacyType),
		Recommendation: fmt.Sprintf("convert %s to %s before assigning to %s",
			legacyType, newType, property),
	})
}

// ReportPropertyNotFound records a legacy property with no counterpart.
func (l *IssueLog) ReportPropertyNotFound(property string) {
	l.report(Issue{
		Type:     IssuePropertyNotFound,
		Severity: SeverityWarning,
		Property: property,
		Message:  "property not found: " + property,
	})
}

// ReportStateTransition records a state mapping between the models.
func (l *IssueLog) ReportStateTransition(severity Severity, legacyState, newState, message string) {
	l.report(Issue{
		Type:        IssueStateTransition,
		Severity:    severity,
		LegacyValue: legacyState,
		NewValue:    newState,
		Message:     message,
	})
}

// ReportCustom records an arbitrary issue.
func (l *IssueLog) ReportCustom(issueType IssueType, severity Severity, message string) {
	l.report(Issue{Type: issueType, Severity: severity, Message: message})
}

func (l *IssueLog) report(issue Issue) {
	issue.Category = l.category
	issue.At = time.Now().UTC()

	l.mu.Lock()
	l.issues = append(l.issues, issue)
	l.mu.Unlock()

	attrs := []any{
		"category", issue.Category,
		"type", string(issue.Type),
		"msg", issue.Message,
	}
	switch issue.Severity {
	case SeverityError:
		l.logger.Error("migration issue", attrs...)
	case SeverityWarning:
		l.logger.Warn("migration issue", attrs...)
	case SeverityDebug:
		l.logger.Debug("migration issue", attrs...)
	default:
		l.logger.Info("migration issue", attrs...)
	}
}

// Issues returns a copy of all recorded issues.
func (l *IssueLog) Issues() []Issue {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Issue(nil), l.issues...)
}

// CountBySeverity returns how many issues carry each severity.
func (l *IssueLog) CountBySeverity() map[Severity]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[Severity]int)
	for _, issue := range l.issues {
		out[issue.Severity]++
	}
	return out
}

// Summary renders a one-line report of the log contents.
func (l *IssueLog) Summary() string {
	counts := l.CountBySeverity()
	return fmt.Sprintf("%s: %d error(s), %d warning(s), %d info, %d debug",
		l.category,
		counts[SeverityError],
		counts[SeverityWarning],
		counts[SeverityInfo],
		counts[SeverityDebug],
	)
}
