package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"text/template"
	"time"

	"weblog-hunter/internal/model"

	"github.com/sirupsen/logrus"
)

const defaultTelegramAPIURL = "https://api.telegram.org"

type TelegramNotifier struct {
	botToken        string
	chatID          string
	parseMode       string
	enabled         bool
	apiURL          string
	minSeverity     model.Severity
	messageTemplate *template.Template
	maxRetries      int
	retryDelay      time.Duration
	client          *http.Client
	logger          *logrus.Logger
}

type TelegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

type TelegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}

// TelegramOptions configures a TelegramNotifier
type TelegramOptions struct {
	BotToken        string
	ChatID          string
	ParseMode       string
	Enabled         bool
	APIURL          string
	MinSeverity     model.Severity
	MessageTemplate string
}

func NewTelegramNotifier(opts TelegramOptions, logger *logrus.Logger) *TelegramNotifier {
	apiURL := strings.TrimRight(opts.APIURL, "/")
	if apiURL == "" {
		apiURL = defaultTelegramAPIURL
	}

	tn := &TelegramNotifier{
		botToken:    opts.BotToken,
		chatID:      opts.ChatID,
		parseMode:   opts.ParseMode,
		enabled:     opts.Enabled,
		apiURL:      apiURL,
		minSeverity: opts.MinSeverity,
		maxRetries:  3,
		retryDelay:  time.Second,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}

	if strings.TrimSpace(opts.MessageTemplate) != "" {
		tmpl, err := template.New("telegram_message").Parse(opts.MessageTemplate)
		if err != nil {
			logger.Warnf("Failed to parse Telegram message template: %v, using default format", err)
		} else {
			tn.messageTemplate = tmpl
		}
	}

	return tn
}

// SendFinding posts findings at or above the configured minimum severity
func (tn *TelegramNotifier) SendFinding(finding model.Finding) error {
	if !tn.enabled {
		tn.logger.Debug("Telegram notifier is disabled, skipping finding")
		return nil
	}
	if finding.Severity.Rank() < tn.minSeverity.Rank() {
		return nil
	}

	message := tn.formatFindingMessage(finding)

	for i := 0; i < tn.maxRetries; i++ {
		err := tn.sendMessage(message)
		if err == nil {
			return nil
		}

		tn.logger.Warnf("Failed to send finding (attempt %d/%d): %v", i+1, tn.maxRetries, err)

		if i < tn.maxRetries-1 {
			time.Sleep(time.Duration(i+1) * tn.retryDelay)
		}
	}

	return fmt.Errorf("failed to send finding after %d attempts", tn.maxRetries)
}

func (tn *TelegramNotifier) formatFindingMessage(finding model.Finding) string {
	if tn.messageTemplate != nil {
		var buf bytes.Buffer
		err := tn.messageTemplate.Execute(&buf, finding)
		if err != nil {
			tn.logger.Warnf("Failed to execute message template: %v, using default format", err)
		} else {
			return buf.String()
		}
	}

	return fmt.Sprintf("FINDING: Web Log Threat Hunter\n\n"+
		"type: %s\n"+
		"host: %s\n"+
		"severity: %s\n"+
		"count: %d\n"+
		"evidence: %s",
		finding.Type,
		finding.Host,
		finding.Severity,
		finding.Count,
		finding.Evidence)
}

func (tn *TelegramNotifier) sendMessage(text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", tn.apiURL, tn.botToken)

	// Markdown modes choke on unescaped paths, so those are sent as plain text
	parseMode := ""
	if tn.parseMode != "" && tn.parseMode != "Markdown" && tn.parseMode != "MarkdownV2" {
		parseMode = tn.parseMode
	}

	message := TelegramMessage{
		ChatID:    tn.chatID,
		Text:      text,
		ParseMode: parseMode,
	}

	jsonData, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := tn.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var telegramResp TelegramResponse
	if err := json.NewDecoder(resp.Body).Decode(&telegramResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if !telegramResp.OK {
		return fmt.Errorf("telegram API error: %s", telegramResp.Description)
	}

	tn.logger.Debugf("Finding sent to Telegram successfully")
	return nil
}

func (tn *TelegramNotifier) IsEnabled() bool {
	return tn.enabled
}
