// ABOUTME: Centralized configuration defaults for ics2disc
// ABOUTME: Contains fallback values for network, retry, rendering, and watch settings

package config

import "time"

// HTTP settings
const (
	DefaultHTTPTimeout = 30 * time.Second
	DefaultAPITimeout  = 60 * time.Second
	DefaultMaxRetries  = 3
)

// Rendering settings
const (
	DefaultSiteTimezone = "Europe/London"
	DefaultAPIUsername  = "system"
)

// Watch settings
const (
	DefaultWatchSchedule = "*/15 * * * *"
)
