package alert

import (
	"weblog-hunter/internal/model"

	"github.com/sirupsen/logrus"
)

// LogAlertNotifier sends findings to local logs
type LogAlertNotifier struct {
	logger *logrus.Logger
}

// NewLogAlertNotifier creates a new log alert notifier
func NewLogAlertNotifier(logger *logrus.Logger) *LogAlertNotifier {
	return &LogAlertNotifier{
		logger: logger,
	}
}

// SendFinding implements Notifier interface - writes the finding to the log
func (ln *LogAlertNotifier) SendFinding(finding model.Finding) error {
	ln.logger.WithFields(logrus.Fields{
		"type":     finding.Type.String(),
		"host":     finding.Host,
		"count":    finding.Count,
		"severity": finding.Severity.String(),
	}).Warnf("FINDING [%s] %s %s: %s", finding.Severity, finding.Type, finding.Host, finding.Evidence)
	return nil
}
