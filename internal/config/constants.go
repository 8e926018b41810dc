package config

import "time"

// Application constants for the COSMED Data Converter
const (
	// Application Info
	AppName    = "COSMED Data Converter"
	AppVersion = "1.0.0"

	// Rate Limiting
	DefaultRateLimit = 100 // requests per minute
	DefaultBurstSize = 50

	// Network Timeouts
	DefaultHTTPTimeout  = 30 * time.Second
	WebSocketPingPeriod = 30 * time.Second
	WebSocketPongWait   = 60 * time.Second

	// File Paths (relative to executable)
	DefaultDataDir    = "data"
	DefaultLogsDir    = "logs"
	DefaultUploadsDir = "data/uploads"
	DefaultReportsDir = "data/reports"

	// Conversion defaults
	DefaultSheetName        = "CPET Data"
	SummarySheetName        = "Summary"
	DefaultDiscoverySample  = 3
	DefaultMaxUploadSizeMB  = 50
	ReportFilenamePrefix    = "COSMED_Data_"
	ReportTimestampLayout   = "20060102_150405"
	UploadFilenameExtension = ".xml"
)
