package chromium

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCandidateNames(t *testing.T) {
	require.Equal(t, []string{"chrome.exe", "chromium.exe"}, CandidateNames("windows"))
	require.Contains(t, CandidateNames("linux"), "chromium")
	require.Contains(t, CandidateNames("linux"), "google-chrome")
	require.Contains(t, CandidateNames("darwin"), "chromium")
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name       string
		dom        string
		wantPassed bool
		wantFound  bool
	}{
		{
			name:       "passed",
			dom:        `<html><head><title>cargo-web:passed</title></head></html>`,
			wantPassed: true,
			wantFound:  true,
		},
		{
			name:      "failed",
			dom:       `<html><head><title>cargo-web:failed</title></head></html>`,
			wantFound: true,
		},
		{
			name: "still running",
			dom:  `<html><head><title>cargo-web:running</title></head></html>`,
		},
		{
			name: "empty dump",
			dom:  "",
		},
		{
			// A page that raced to both markers counts as failed.
			name:      "failure wins",
			dom:       "cargo-web:passed cargo-web:failed",
			wantFound: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			passed, found := ParseStatus(tt.dom)
			require.Equal(t, tt.wantFound, found)
			require.Equal(t, tt.wantPassed, passed)
		})
	}
}

func TestRunnerPage(t *testing.T) {
	page := RunnerPage("app.js", []string{"--nocapture", "filter"})

	require.Contains(t, page, `<script src="app.js">`)
	require.Contains(t, page, `["--nocapture","filter"]`)
	require.Contains(t, page, "cargo-web:passed")
	require.Contains(t, page, "cargo-web:failed")
	// The page must start out undecided so a hang is detectable.
	require.Contains(t, page, "cargo-web:running")
}

func TestRunnerPageNoPassthrough(t *testing.T) {
	page := RunnerPage("app.js", nil)
	require.Contains(t, page, "arguments: null")
}
