package nezha

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var byteUnits = []string{"Bytes", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

// FormatSpeed renders a throughput given in MB/s. Values below 1 render in
// K/s, values from 1 up to 1024 in M/s, and 1024 and above in G/s.
func FormatSpeed(mbps float64) string {
	v := nonNegative(mbps)
	switch {
	case v >= 1024:
		return fmt.Sprintf("%.2fG/s", v/1024)
	case v >= 1:
		return fmt.Sprintf("%.2fM/s", v)
	default:
		return fmt.Sprintf("%.2fK/s", v*1024)
	}
}

// FormatBytes renders a byte count with 1024-based units and at most two
// decimals, trailing zeros trimmed ("1.5 KB", "1 GB").
func FormatBytes(b float64) string {
	v := nonNegative(b)
	if v == 0 {
		return "0 Bytes"
	}

	i := int(math.Floor(math.Log(v) / math.Log(1024)))
	if i < 0 {
		i = 0
	}
	if i >= len(byteUnits) {
		i = len(byteUnits) - 1
	}

	scaled := math.Round(v/math.Pow(1024, float64(i))*100) / 100
	return strconv.FormatFloat(scaled, 'f', -1, 64) + " " + byteUnits[i]
}

// FormatUptime renders whole days once uptime reaches a day, otherwise hours.
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := d.Hours() / 24
	if days >= 1 {
		return fmt.Sprintf("%.0f days", math.Round(days))
	}
	return fmt.Sprintf("%.0f hours", math.Round(d.Hours()))
}

var osNames = map[string]string{
	"ubuntu":    "Ubuntu",
	"debian":    "Debian",
	"centos":    "CentOS",
	"rocky":     "Rocky",
	"almalinux": "AlmaLinux",
	"fedora":    "Fedora",
	"redhat":    "Red Hat",
	"rhel":      "Red Hat",
	"arch":      "Arch",
	"archlinux": "Arch",
	"alpine":    "Alpine",
	"opensuse":  "openSUSE",
	"suse":      "SUSE",
	"gentoo":    "Gentoo",
	"nixos":     "NixOS",
	"freebsd":   "FreeBSD",
	"openbsd":   "OpenBSD",
	"darwin":    "macOS",
	"macos":     "macOS",
	"android":   "Android",
	"openwrt":   "OpenWrt",
	"synology":  "Synology",
	"unraid":    "Unraid",
	"kali":      "Kali",
	"raspbian":  "Raspbian",
	"armbian":   "Armbian",
}

// OSName returns a display name for a platform label.
func OSName(platform string) string {
	p := strings.TrimSpace(platform)
	if p == "" {
		return ""
	}
	if strings.Contains(strings.ToLower(p), "windows") {
		return "Windows"
	}
	if name, ok := osNames[strings.ToLower(p)]; ok {
		return name
	}
	r := []rune(p)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// FlagEmoji converts a two-letter country code into its regional
// indicator pair. Anything else yields "".
func FlagEmoji(countryCode string) string {
	cc := strings.ToUpper(strings.TrimSpace(countryCode))
	if len(cc) != 2 {
		return ""
	}
	var b strings.Builder
	for _, c := range cc {
		if c < 'A' || c > 'Z' {
			return ""
		}
		b.WriteRune(0x1F1E6 + (c - 'A'))
	}
	return b.String()
}
