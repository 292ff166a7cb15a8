package config

import (
	"fmt"
)

// ValidationIssue describes one problem found while validating a config file
type ValidationIssue struct {
	Path    string
	Message string
}

// ValidationResult collects errors and warnings from ValidateFile
type ValidationResult struct {
	Errors   []ValidationIssue
	Warnings []ValidationIssue
}

// ValidateFile loads a config file and reports problems without starting the
// server. Used by the -validate CLI mode.
func ValidateFile(path string) (*ValidationResult, error) {
	result := &ValidationResult{}

	cfg, err := Load(path)
	if err != nil {
		result.Errors = append(result.Errors, ValidationIssue{Message: err.Error()})
		return result, nil
	}

	if !cfg.Providers.Google.Configured() && !cfg.Providers.GitHub.Configured() {
		result.Warnings = append(result.Warnings, ValidationIssue{
			Path:    "providers",
			Message: "no OAuth provider has a client id configured; every sign-in attempt will fail",
		})
	}
	if !cfg.Providers.Google.Configured() && cfg.Providers.Google.EnvVar != "" {
		result.Warnings = append(result.Warnings, ValidationIssue{
			Path:    "providers.google",
			Message: fmt.Sprintf("client id unset (%s is empty)", cfg.Providers.Google.EnvVar),
		})
	}
	if !cfg.Providers.GitHub.Configured() && cfg.Providers.GitHub.EnvVar != "" {
		result.Warnings = append(result.Warnings, ValidationIssue{
			Path:    "providers.github",
			Message: fmt.Sprintf("client id unset (%s is empty)", cfg.Providers.GitHub.EnvVar),
		})
	}
	if cfg.FlowStore.Kind == FlowStoreMemory {
		result.Warnings = append(result.Warnings, ValidationIssue{
			Path:    "flowStore.kind",
			Message: "memory storage loses in-flight logins on restart; use redis or firestore in production",
		})
	}

	return result, nil
}
