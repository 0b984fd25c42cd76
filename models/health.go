package models

import "time"

// ErrorCategory is the diagnostic class assigned to a failure message.
type ErrorCategory string

const (
	CategoryNetwork        ErrorCategory = "network"
	CategoryEncryption     ErrorCategory = "encryption"
	CategoryFirebase       ErrorCategory = "firebase"
	CategoryValidation     ErrorCategory = "validation"
	CategoryStorage        ErrorCategory = "storage"
	CategoryAuthentication ErrorCategory = "authentication"
	CategoryUnknown        ErrorCategory = "unknown"
)

// HealthVerdict is the derived qualitative sync health.
type HealthVerdict string

const (
	VerdictHealthy   HealthVerdict = "healthy"
	VerdictSlow      HealthVerdict = "slow"
	VerdictDegraded  HealthVerdict = "degraded"
	VerdictUnhealthy HealthVerdict = "unhealthy"
)

// HealthMetrics are accumulated counters derived from the attempt history.
type HealthMetrics struct {
	TotalAttempts       int        `json:"totalAttempts"`
	SuccessfulSyncs     int        `json:"successfulSyncs"`
	FailedSyncs         int        `json:"failedSyncs"`
	AverageSyncTimeMs   float64    `json:"averageSyncTimeMs"`
	LastSyncTime        *time.Time `json:"lastSyncTime,omitempty"`
	ErrorRate           float64    `json:"errorRate"`
	ConsecutiveFailures int        `json:"consecutiveFailures"`
	SessionStartTime    time.Time  `json:"sessionStartTime"`
}

// HealthStatus is the verdict plus everything that contributed to it.
type HealthStatus struct {
	Status        HealthVerdict `json:"status"`
	Issues        []string      `json:"issues"`
	Metrics       HealthMetrics `json:"metrics"`
	RecentAvgMs   float64       `json:"recentAverageMs"`
	CurrentSync   *SyncAttempt  `json:"currentSync,omitempty"`
	CheckedAt     time.Time     `json:"checkedAt"`
	LastErrorKind ErrorCategory `json:"lastErrorCategory,omitempty"`
}
