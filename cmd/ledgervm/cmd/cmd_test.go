package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
)

// captureStdout runs fn with os.Stdout (and color.Output, which holds the
// original stdout) redirected to a pipe and returns whatever it wrote,
// mirroring the teacher's own CLI test helper style.
func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()
	old := os.Stdout
	oldColor := color.Output
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stdout = w
	color.Output = w

	runErr := fn()

	w.Close()
	os.Stdout = old
	color.Output = oldColor

	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String(), runErr
}

func writeContract(t *testing.T, dir, name, source string) string {
	t.Helper()
	path := filepath.Join(dir, name+".ledger")
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

const counterSource = `
(define-data-var count int 0)
(define-public (increment)
  (begin
    (var-set count (+ (var-get count) 1))
    (ok (var-get count))))
(define-read-only (get-count)
  (var-get count))
`

func TestCheckValidContractPrints(t *testing.T) {
	dir := t.TempDir()
	file := writeContract(t, dir, "counter", counterSource)

	checkPath = ""
	checkOutputAnalysis = false
	out, err := captureStdout(t, func() error {
		return checkCmd.RunE(checkCmd, []string{file})
	})
	if err != nil {
		t.Fatalf("check failed: %v\noutput: %s", err, out)
	}
	if !strings.Contains(out, "ok") {
		t.Errorf("expected success diagnostic, got %q", out)
	}
}

func TestCheckRejectsTypeError(t *testing.T) {
	dir := t.TempDir()
	file := writeContract(t, dir, "bad", "(define-public (f) (if true 1 false))")

	checkPath = ""
	checkOutputAnalysis = false
	_, err := captureStdout(t, func() error {
		return checkCmd.RunE(checkCmd, []string{file})
	})
	if err == nil {
		t.Fatal("expected a type error from check, got nil")
	}
}

func TestLaunchThenExecuteCommitsState(t *testing.T) {
	dir := t.TempDir()
	file := writeContract(t, dir, "counter", counterSource)
	storePath := filepath.Join(dir, "state.db")

	if _, err := captureStdout(t, func() error {
		return initializeCmd.RunE(initializeCmd, []string{storePath})
	}); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}

	_, err := captureStdout(t, func() error {
		return launchCmd.RunE(launchCmd, []string{"counter", file, storePath})
	})
	if err != nil {
		t.Fatalf("launch failed: %v", err)
	}

	sender := "'" + zeroPrincipalAddress(t)
	out, err := captureStdout(t, func() error {
		return executeCmd.RunE(executeCmd, []string{storePath, "counter", "increment", sender})
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if strings.TrimSpace(out) != "(ok 1)" {
		t.Errorf("execute output = %q, want (ok 1)", strings.TrimSpace(out))
	}

	out2, err := captureStdout(t, func() error {
		return executeCmd.RunE(executeCmd, []string{storePath, "counter", "increment", sender})
	})
	if err != nil {
		t.Fatalf("second execute failed: %v", err)
	}
	if strings.TrimSpace(out2) != "(ok 2)" {
		t.Errorf("second execute output = %q, want (ok 2), state did not persist across invocations", strings.TrimSpace(out2))
	}
}

func TestMineBlockThenGetBlockHeight(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "state.db")

	if _, err := captureStdout(t, func() error {
		return initializeCmd.RunE(initializeCmd, []string{storePath})
	}); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}

	if _, err := captureStdout(t, func() error {
		return mineBlockCmd.RunE(mineBlockCmd, []string{"1000", storePath})
	}); err != nil {
		t.Fatalf("mine_block failed: %v", err)
	}
	if _, err := captureStdout(t, func() error {
		return mineBlockCmd.RunE(mineBlockCmd, []string{"2000", storePath})
	}); err != nil {
		t.Fatalf("second mine_block failed: %v", err)
	}

	out, err := captureStdout(t, func() error {
		return blockHeightCmd.RunE(blockHeightCmd, []string{storePath})
	})
	if err != nil {
		t.Fatalf("get_block_height failed: %v", err)
	}
	if strings.TrimSpace(out) != "2" {
		t.Errorf("get_block_height = %q, want 2", strings.TrimSpace(out))
	}
}

const bumpThenFailSource = `
(define-data-var count int 0)
(define-public (bump-then-fail)
  (begin
    (var-set count (+ (var-get count) 1))
    (err 1)))
(define-read-only (get-count)
  (var-get count))
`

// TestExecuteErrResponseRollsBackMutation verifies that a public function
// returning (err ...) prints its result but does not commit the savepoint
// it ran in, per spec §6.1's abort-on-err execution semantics.
func TestExecuteErrResponseRollsBackMutation(t *testing.T) {
	dir := t.TempDir()
	file := writeContract(t, dir, "faulty", bumpThenFailSource)
	storePath := filepath.Join(dir, "state.db")

	if _, err := captureStdout(t, func() error {
		return initializeCmd.RunE(initializeCmd, []string{storePath})
	}); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if _, err := captureStdout(t, func() error {
		return launchCmd.RunE(launchCmd, []string{"faulty", file, storePath})
	}); err != nil {
		t.Fatalf("launch failed: %v", err)
	}

	sender := "'" + zeroPrincipalAddress(t)
	out, err := captureStdout(t, func() error {
		return executeCmd.RunE(executeCmd, []string{storePath, "faulty", "bump-then-fail", sender})
	})
	if err != nil {
		t.Fatalf("execute returned an error for a business-logic (err ...) response: %v", err)
	}
	if strings.TrimSpace(out) != "(err 1)" {
		t.Errorf("execute output = %q, want (err 1)", strings.TrimSpace(out))
	}

	out2, err := captureStdout(t, func() error {
		return evalCmd.RunE(evalCmd, []string{"faulty", "(get-count)", storePath})
	})
	if err != nil {
		t.Fatalf("eval failed: %v", err)
	}
	if strings.TrimSpace(out2) != "0" {
		t.Errorf("get-count after rolled-back execute = %q, want 0 (mutation must not persist)", strings.TrimSpace(out2))
	}
}

func zeroPrincipalAddress(t *testing.T) string {
	t.Helper()
	return zeroPrincipal().String()
}

func TestEvalRawArithmetic(t *testing.T) {
	out, err := captureStdout(t, func() error {
		return evalRawCmd.RunE(evalRawCmd, []string{"(+ 1 2)"})
	})
	if err != nil {
		t.Fatalf("eval_raw failed: %v", err)
	}
	if strings.TrimSpace(out) != "3" {
		t.Errorf("eval_raw output = %q, want 3", strings.TrimSpace(out))
	}
}

func TestEvalAgainstLaunchedContract(t *testing.T) {
	dir := t.TempDir()
	file := writeContract(t, dir, "counter", counterSource)
	storePath := filepath.Join(dir, "state.db")

	if _, err := captureStdout(t, func() error {
		return initializeCmd.RunE(initializeCmd, []string{storePath})
	}); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if _, err := captureStdout(t, func() error {
		return launchCmd.RunE(launchCmd, []string{"counter", file, storePath})
	}); err != nil {
		t.Fatalf("launch failed: %v", err)
	}

	out, err := captureStdout(t, func() error {
		return evalCmd.RunE(evalCmd, []string{"counter", "(get-count)", storePath})
	})
	if err != nil {
		t.Fatalf("eval failed: %v", err)
	}
	if strings.TrimSpace(out) != "0" {
		t.Errorf("eval output = %q, want 0", strings.TrimSpace(out))
	}
}
