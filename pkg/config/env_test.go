package config

import "testing"

func TestGetEnvString(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue string
		want         string
	}{
		{name: "set", value: "/etc/hackerfeed.yaml", defaultValue: "config.yaml", want: "/etc/hackerfeed.yaml"},
		{name: "empty uses default", value: "", defaultValue: "config.yaml", want: "config.yaml"},
		{name: "whitespace is kept", value: " ", defaultValue: "x", want: " "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HACKERFEED_TEST_VALUE", tt.value)
			if got := GetEnvString("HACKERFEED_TEST_VALUE", tt.defaultValue); got != tt.want {
				t.Errorf("GetEnvString() = %q, want %q", got, tt.want)
			}
		})
	}
}
