package cmd

import (
	"os"
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
)

// TestCheckOutputAnalysisSnapshot pins the shape of the --output_analysis
// JSON record, mirroring the teacher's own use of go-snaps to freeze
// interpreter/analyzer output against regressions.
func TestCheckOutputAnalysisSnapshot(t *testing.T) {
	dir := t.TempDir()
	file := writeContract(t, dir, "counter", counterSource)

	checkPath = ""
	checkOutputAnalysis = true
	t.Cleanup(func() { checkOutputAnalysis = false })

	out, err := captureStdout(t, func() error {
		return checkCmd.RunE(checkCmd, []string{file})
	})
	if err != nil {
		t.Fatalf("check --output_analysis failed: %v\noutput: %s", err, out)
	}

	snaps.MatchSnapshot(t, strings.TrimSpace(out))
}

func TestMain(m *testing.M) {
	v := m.Run()
	snaps.Clean(m)
	os.Exit(v)
}
