package alertengine

import "testing"

func TestValidateWebhookURL(t *testing.T) {
	cases := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"https_valid", "https://hooks.example.com/services/T000/B000/XXXX", false},
		{"http_valid", "http://example.com/webhook", false},
		{"ftp_blocked", "ftp://example.com/webhook", true},
		{"localhost_blocked", "http://localhost:8080/webhook", true},
		{"loopback_blocked", "http://127.0.0.1/webhook", true},
		{"loopback_v6_blocked", "http://[::1]/webhook", true},
		{"metadata_blocked", "http://metadata.google.internal/computeMetadata/v1/", true},
		{"metadata_ip_blocked", "http://169.254.169.254/latest/meta-data/", true},
		{"private_10_blocked", "http://10.0.0.5/webhook", true},
		{"private_172_blocked", "http://172.16.0.5/webhook", true},
		{"private_192_blocked", "http://192.168.1.5/webhook", true},
		{"link_local_blocked", "http://169.254.1.1/webhook", true},
		{"empty_string", "", true},
		{"public_ip_allowed", "http://93.184.216.34/webhook", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateWebhookURL(tc.url)
			if tc.wantErr && err == nil {
				t.Errorf("expected error for %q, got nil", tc.url)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("expected no error for %q, got %v", tc.url, err)
			}
		})
	}
}

func TestNotifierEnabled(t *testing.T) {
	if (&Notifier{}).Enabled() {
		t.Error("empty config should report disabled")
	}
	n := NewNotifier(Config{Webhook: "https://example.com/hook"})
	if !n.Enabled() {
		t.Error("configured webhook should report enabled")
	}
	n2 := NewNotifier(Config{TelegramBotToken: "tok"})
	if n2.Enabled() {
		t.Error("telegram requires both bot token and chat id")
	}
}

func TestDispatchNoopWhenDisabled(t *testing.T) {
	n := NewNotifier(Config{})
	// Should not panic or block even with no channels configured.
	n.Dispatch(Alert{Kind: KindHighCPU, ProcessName: "x", PID: 1})
}
