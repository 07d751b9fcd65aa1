package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads .env and .env.local from the working directory.
// Variables already present in the process environment win.
func loadEnvFiles() {
	for _, name := range envFiles {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			slog.Warn("Failed to load env file", "file", name, "error", err)
			continue
		}
		slog.Debug("Loaded environment variables", "file", name)
	}
}

// Environment describes where the process runs.
type Environment struct {
	CI bool
}

var ciMarkers = []string{"GITHUB_ACTIONS", "GITLAB_CI", "BUILDKITE", "JENKINS_URL", "TF_BUILD"}

// DetectEnvironment inspects variables through getenv.
func DetectEnvironment(getenv func(string) string) Environment {
	switch strings.ToLower(strings.TrimSpace(getenv("CI"))) {
	case "true", "1", "yes":
		return Environment{CI: true}
	}
	for _, key := range ciMarkers {
		if getenv(key) != "" {
			return Environment{CI: true}
		}
	}
	return Environment{}
}
