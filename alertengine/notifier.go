package alertengine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Config names each alert destination a Notifier can dispatch to. Zero
// values disable that channel.
type Config struct {
	Webhook          string
	Command          string
	Email            string
	SlackWebhook     string
	TelegramBotToken string
	TelegramChatID   string
}

// Notifier sends fired alerts out to whichever channels are configured.
type Notifier struct {
	cfg    Config
	client *http.Client
}

// NewNotifier constructs a Notifier.
func NewNotifier(cfg Config) *Notifier {
	return &Notifier{
		cfg:    cfg,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

// Enabled reports whether at least one destination is configured.
func (n *Notifier) Enabled() bool {
	return n.cfg.Webhook != "" || n.cfg.Command != "" ||
		n.cfg.Email != "" || n.cfg.SlackWebhook != "" ||
		(n.cfg.TelegramBotToken != "" && n.cfg.TelegramChatID != "")
}

// alertEnvelope is the wire shape sent to webhooks and commands.
type alertEnvelope struct {
	AlertType   Kind      `json:"alert_type"`
	Severity    Severity  `json:"severity"`
	ProcessName string    `json:"process_name"`
	PID         int       `json:"pid"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	Value       float64   `json:"value"`
	Threshold   float64   `json:"threshold"`
}

func envelopeFor(a Alert) alertEnvelope {
	return alertEnvelope{
		AlertType:   a.Kind,
		Severity:    a.Severity,
		ProcessName: a.ProcessName,
		PID:         a.PID,
		Message:     a.Message,
		Timestamp:   time.Now(),
		Value:       a.Value,
		Threshold:   a.Threshold,
	}
}

// Dispatch fans an alert out to every configured channel, best-effort —
// a failure on one channel never blocks the others.
func (n *Notifier) Dispatch(a Alert) {
	if !n.Enabled() {
		return
	}
	envelope := envelopeFor(a)
	data, err := json.Marshal(envelope)
	if err != nil {
		log.Printf("alertengine: marshal alert: %v", err)
		return
	}

	if n.cfg.Webhook != "" {
		n.sendWebhook(data)
	}
	if n.cfg.Command != "" {
		n.sendCommand(a, data)
	}
	if n.cfg.Email != "" {
		n.sendEmail(fmt.Sprintf("procwatch: %s", a.Kind), a.Message)
	}
	if n.cfg.SlackWebhook != "" {
		n.sendSlack(fmt.Sprintf("*procwatch: %s*\n```\n%s\n```", a.Kind, a.Message))
	}
	if n.cfg.TelegramBotToken != "" && n.cfg.TelegramChatID != "" {
		n.sendTelegram(fmt.Sprintf("procwatch: %s\n%s", a.Kind, a.Message))
	}
}

func (n *Notifier) sendEmail(subject, body string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, "mail", "-s", subject, n.cfg.Email)
	cmd.Stdin = strings.NewReader(body)
	if err := cmd.Run(); err != nil {
		log.Printf("alertengine: email send error: %v", err)
	}
}

func (n *Notifier) sendSlack(text string) {
	if err := validateWebhookURL(n.cfg.SlackWebhook); err != nil {
		log.Printf("alertengine: slack webhook blocked: %v", err)
		return
	}
	data, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return
	}
	n.post(n.cfg.SlackWebhook, data)
}

func (n *Notifier) sendTelegram(text string) {
	apiURL := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", n.cfg.TelegramBotToken)
	data, err := json.Marshal(map[string]string{"chat_id": n.cfg.TelegramChatID, "text": text})
	if err != nil {
		return
	}
	n.post(apiURL, data)
}

func (n *Notifier) sendWebhook(data []byte) {
	if err := validateWebhookURL(n.cfg.Webhook); err != nil {
		log.Printf("alertengine: webhook blocked: %v", err)
		return
	}
	n.post(n.cfg.Webhook, data)
}

func (n *Notifier) post(rawURL string, data []byte) {
	req, err := http.NewRequest("POST", rawURL, bytes.NewReader(data))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		log.Printf("alertengine: post to %s failed: %v", rawURL, err)
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func (n *Notifier) sendCommand(a Alert, data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, "sh", "-c", n.cfg.Command)
	cmd.Env = append(os.Environ(),
		"PROCWATCH_ALERT_KIND="+string(a.Kind),
		"PROCWATCH_ALERT_PAYLOAD="+string(data))
	_ = cmd.Run()
}

// validateWebhookURL guards against SSRF: the URL must use http/https
// and must not resolve to a loopback, link-local, or private address —
// a webhook pointed at the cloud metadata endpoint or an internal
// service is refused rather than silently followed.
func validateWebhookURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid webhook URL: %w", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("webhook URL must use http or https scheme, got %q", scheme)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("webhook URL has no host")
	}
	if host == "metadata.google.internal" || host == "localhost" {
		return fmt.Errorf("webhook URL host %q is blocked", host)
	}

	ip := net.ParseIP(host)
	if ip == nil {
		// Hostname isn't a literal IP; DNS resolution happens at request
		// time and isn't re-checked here — acceptable for a local/admin
		// configured webhook, same trust boundary the reference blocklist
		// assumed.
		return nil
	}
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsPrivate() {
		return fmt.Errorf("webhook URL host %q resolves to a blocked address range", host)
	}
	return nil
}
