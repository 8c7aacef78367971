package config

import (
	"os"
	"testing"
	"time"
)

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal string
		expected   string
	}{
		{"uses env value", "TEST_VAR_1", "hello", "default", "hello"},
		{"uses default when empty", "TEST_VAR_2", "", "default", "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal int
		expected   int
	}{
		{"parses integer", "TEST_INT_1", "42", 10, 42},
		{"uses default for empty", "TEST_INT_2", "", 10, 10},
		{"uses default for non-numeric", "TEST_INT_3", "abc", 10, 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvAsIntOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, result)
			}
		})
	}
}

func TestMustGetEnv_Panics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for missing required env var")
		}
	}()

	os.Unsetenv("NONEXISTENT_REQUIRED_VAR")
	mustGetEnv("NONEXISTENT_REQUIRED_VAR")
}

func TestMustGetEnv_ReturnsValue(t *testing.T) {
	os.Setenv("TEST_REQUIRED", "value123")
	defer os.Unsetenv("TEST_REQUIRED")

	result := mustGetEnv("TEST_REQUIRED")
	if result != "value123" {
		t.Errorf("Expected 'value123', got %q", result)
	}
}

func TestGetEnvAsDurationOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal time.Duration
		expected   time.Duration
	}{
		{"parses duration", "TEST_DUR_1", "90s", time.Second, 90 * time.Second},
		{"uses default for empty", "TEST_DUR_2", "", time.Minute, time.Minute},
		{"uses default for garbage", "TEST_DUR_3", "soon", time.Minute, time.Minute},
		{"uses default for negative", "TEST_DUR_4", "-5s", time.Minute, time.Minute},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvAsDurationOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %s, got %s", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsListOrDefault(t *testing.T) {
	os.Setenv("TEST_LIST", " fajr, ,isha ")
	defer os.Unsetenv("TEST_LIST")

	got := getEnvAsListOrDefault("TEST_LIST", []string{"x"})
	if len(got) != 2 || got[0] != "fajr" || got[1] != "isha" {
		t.Errorf("Expected [fajr isha], got %v", got)
	}

	got = getEnvAsListOrDefault("TEST_LIST_MISSING", []string{"x"})
	if len(got) != 1 || got[0] != "x" {
		t.Errorf("Expected default list, got %v", got)
	}
}

func TestGetEnvAsIntListOrDefault(t *testing.T) {
	os.Setenv("TEST_INTS", "7,14,30")
	defer os.Unsetenv("TEST_INTS")

	got := getEnvAsIntListOrDefault("TEST_INTS", []int{1})
	if len(got) != 3 || got[0] != 7 || got[2] != 30 {
		t.Errorf("Expected [7 14 30], got %v", got)
	}

	os.Setenv("TEST_INTS_BAD", "7,x")
	defer os.Unsetenv("TEST_INTS_BAD")
	got = getEnvAsIntListOrDefault("TEST_INTS_BAD", []int{1})
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("Expected default for malformed list, got %v", got)
	}
}

func TestLoadClient_Defaults(t *testing.T) {
	for _, key := range []string{"SERVER_URL", "HISTORY_DAYS", "HISTORY_OPTIONS", "HISTORY_QUERY", "BANNER_TTL", "PRAYERS"} {
		os.Unsetenv(key)
	}

	cfg := LoadClient()
	if cfg.HistoryDays != 7 {
		t.Errorf("Expected 7 history days, got %d", cfg.HistoryDays)
	}
	if cfg.BannerTTL != 5*time.Second {
		t.Errorf("Expected 5s banner ttl, got %s", cfg.BannerTTL)
	}
	if len(cfg.HistoryOptions) != 3 {
		t.Errorf("Expected 3 history options, got %v", cfg.HistoryOptions)
	}
	if cfg.HistoryQuery != "range" {
		t.Errorf("Expected range history query, got %q", cfg.HistoryQuery)
	}
	if len(cfg.Prayers) != 5 || cfg.Prayers[0] != "fajr" {
		t.Errorf("Expected default prayers, got %v", cfg.Prayers)
	}
}
