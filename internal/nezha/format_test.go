package nezha

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatSpeed(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want string
	}{
		{"zero", 0, "0.00K/s"},
		{"half megabyte", 0.5, "512.00K/s"},
		{"just below one", 0.999, "1022.98K/s"},
		{"exactly one", 1, "1.00M/s"},
		{"mid range", 12.346, "12.35M/s"},
		{"just below gig", 1023.99, "1023.99M/s"},
		{"exactly 1024", 1024, "1.00G/s"},
		{"large", 3072, "3.00G/s"},
		{"negative", -4, "0.00K/s"},
		{"nan", math.NaN(), "0.00K/s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatSpeed(tt.in))
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want string
	}{
		{"zero", 0, "0 Bytes"},
		{"negative", -10, "0 Bytes"},
		{"fraction", 0.5, "0.5 Bytes"},
		{"bytes", 512, "512 Bytes"},
		{"kilobyte", 1024, "1 KB"},
		{"kilobyte and a half", 1536, "1.5 KB"},
		{"megabytes", 5 * 1024 * 1024, "5 MB"},
		{"gigabytes rounded", 1.234567 * 1024 * 1024 * 1024, "1.23 GB"},
		{"terabytes", 2 * math.Pow(1024, 4), "2 TB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatBytes(tt.in))
		})
	}
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0 hours"},
		{90 * time.Minute, "2 hours"},
		{23 * time.Hour, "23 hours"},
		{24 * time.Hour, "1 days"},
		{60 * time.Hour, "3 days"},
		{-time.Hour, "0 hours"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatUptime(tt.in))
		})
	}
}

func TestOSName(t *testing.T) {
	assert.Equal(t, "Windows", OSName("Microsoft Windows Server 2022"))
	assert.Equal(t, "Debian", OSName("debian"))
	assert.Equal(t, "macOS", OSName("darwin"))
	assert.Equal(t, "Slackware", OSName("slackware"))
	assert.Equal(t, "", OSName("  "))
}

func TestFlagEmoji(t *testing.T) {
	assert.Equal(t, "🇩🇪", FlagEmoji("de"))
	assert.Equal(t, "🇺🇸", FlagEmoji("US"))
	assert.Equal(t, "", FlagEmoji(""))
	assert.Equal(t, "", FlagEmoji("usa"))
	assert.Equal(t, "", FlagEmoji("1a"))
}
