// Package config provides centralized configuration management for the
// COSMED Data Converter. It handles loading configuration from multiple
// sources, validation, and provides a type-safe API for accessing
// configuration values throughout the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of
// precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration file (YAML)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern COSMED_* for namespacing:
//
//	COSMED_SERVER_PORT=8080
//	COSMED_LOGGING_LEVEL=info
//	COSMED_CONVERSION_SHEET_NAME="CPET Data"
//	COSMED_CONVERSION_MAX_UPLOAD_SIZE_MB=50
//
// # Path Management
//
// The package provides centralized path management through the Paths
// type, which resolves all file system paths relative to the executable
// location. Uploads, generated reports and logs live next to the
// binary, never relative to the working directory:
//
//	paths, err := config.GetPaths()
//	if err != nil {
//	    return err
//	}
//	report := paths.GetReportPath("COSMED_Data_20260114_153045.xlsx")
package config
