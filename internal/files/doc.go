// Package files provides file system operations and discovery utilities
// for the COSMED data converter.
//
// This package contains two main components:
//
// Discovery: Finds COSMED session XML files under an input directory
// (recursively, case-insensitive on the extension, sorted by path for
// stable batch order) and generated report spreadsheets.
//
// Manager: Provides file management for uploaded batches and reports.
// Relative paths resolve against the application's data directories to
// keep the layout portable.
//
// Example usage:
//
//	// Create a discovery instance
//	discovery := files.NewDiscovery("/path/to/base")
//
//	// Find all session files
//	sessions, err := discovery.FindXMLFiles("uploads/batch-1")
//
//	// Create a manager instance
//	manager := files.NewManager(paths)
//
//	// Check if a report exists
//	if manager.FileExists("reports/COSMED_Data_20260114_153045.xlsx") {
//	    // Serve file
//	}
package files
