package pipeline

import (
	"weblog-hunter/internal/alert"
	"weblog-hunter/internal/rules"
	"weblog-hunter/internal/utils"

	"github.com/sirupsen/logrus"
)

// NewEngineFromConfig builds an engine with the default matchers, the
// configured worker count and every enabled notifier. Extra user-agent tokens
// reach the engine through the DetectionConfig of each run. metrics may be nil.
func NewEngineFromConfig(config *utils.HunterConfig, metrics *alert.Metrics, logger *logrus.Logger) *rules.Engine {
	engine := rules.NewEngine(logger)
	engine.RegisterDefaultMatchers(nil)
	engine.SetWorkers(config.Detection.Workers)

	registerAlertNotifiers(engine, config, logger)
	if metrics != nil {
		engine.RegisterNotifier(metrics)
	}

	return engine
}

// NewProcessorFromConfig wires a processor and its engine from one configuration
func NewProcessorFromConfig(config *utils.HunterConfig, metrics *alert.Metrics, logger *logrus.Logger) *Processor {
	engine := NewEngineFromConfig(config, metrics, logger)
	return NewProcessor(engine, config.ToDetectionConfig(), config.Report.TopTalkers, metrics, logger)
}

func registerAlertNotifiers(engine *rules.Engine, config *utils.HunterConfig, logger *logrus.Logger) {
	if config.Alerting.Channels.Log {
		engine.RegisterNotifier(alert.NewLogAlertNotifier(logger))
	}

	if config.Alerting.Channels.Telegram && config.Alerting.Telegram.Enabled {
		telegramNotifier := alert.NewTelegramNotifier(alert.TelegramOptions{
			BotToken:        config.Alerting.Telegram.BotToken,
			ChatID:          config.Alerting.Telegram.ChatID,
			ParseMode:       config.Alerting.Telegram.ParseMode,
			Enabled:         config.Alerting.Telegram.Enabled,
			APIURL:          config.Alerting.Telegram.APIURL,
			MinSeverity:     config.MinSeverity(),
			MessageTemplate: config.Alerting.Telegram.MessageTemplate,
		}, logger)
		engine.RegisterNotifier(telegramNotifier)
		logger.Infof("Telegram notifications enabled for findings at or above %s", config.MinSeverity())
	}
}
