package models

import (
	"testing"
	"time"
)

func TestThresholdIsFixed(t *testing.T) {
	tests := []struct {
		name string
		cfg  *GuildPolicyConfig
	}{
		{"nil config", nil},
		{"unset", &GuildPolicyConfig{GuildID: "g1"}},
		{"stored lower", &GuildPolicyConfig{GuildID: "g1", WarnThreshold: 1}},
		{"stored higher", &GuildPolicyConfig{GuildID: "g1", WarnThreshold: 50}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Threshold(); got != DefaultWarnThreshold {
				t.Errorf("Threshold() = %d, want %d", got, DefaultWarnThreshold)
			}
		})
	}
}

func TestTimeoutDuration(t *testing.T) {
	if got := (&GuildPolicyConfig{TimeoutSeconds: 90}).TimeoutDuration(); got != 90*time.Second {
		t.Errorf("TimeoutDuration() = %v, want 1m30s", got)
	}
	if got := (&GuildPolicyConfig{}).TimeoutDuration(); got != 0 {
		t.Errorf("TimeoutDuration() = %v, want 0", got)
	}
}
