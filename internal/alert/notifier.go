package alert

import "weblog-hunter/internal/model"

// Notifier interface for finding notification
type Notifier interface {
	SendFinding(finding model.Finding) error
}
