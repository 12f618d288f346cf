package compiler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// fakeCompiler routes commandContext to TestHelperProcess in the given mode and
// records the arguments of every invocation.
func fakeCompiler(t *testing.T, mode string) *[][]string {
	t.Helper()
	var calls [][]string
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		calls = append(calls, append([]string(nil), args...))
		helperArgs := append([]string{"-test.run=TestHelperProcess", "--"}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], helperArgs...)
		cmd.Env = append(os.Environ(),
			"GO_WANT_HELPER_PROCESS=1",
			"TEXBATCH_HELPER_MODE="+mode,
			fmt.Sprintf("TEXBATCH_HELPER_CALL=%d", len(calls)),
		)
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
	return &calls
}

func testProfile() Profile {
	return Profile{Name: "pdflatex", Binary: "pdflatex", FinalExt: ".pdf", Passes: 2}
}

func TestCompileBuildsArguments(t *testing.T) {
	calls := fakeCompiler(t, "success")
	dir := t.TempDir()
	src := filepath.Join(dir, "notes.tex")

	p := testProfile()
	p.Args = []string{"-halt-on-error"}
	res, err := NewDriver(p).Compile(context.Background(), src, dir, nil)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if res.Passes != 2 {
		t.Errorf("passes = %d, want 2", res.Passes)
	}

	if len(*calls) != 2 {
		t.Fatalf("expected 2 invocations, got %d", len(*calls))
	}
	want := []string{"-interaction=nonstopmode", "-halt-on-error", "-output-directory", dir, src}
	for i, call := range *calls {
		if strings.Join(call, " ") != strings.Join(want, " ") {
			t.Errorf("call %d args = %v, want %v", i+1, call, want)
		}
	}
	if !strings.Contains(res.Output, "Output written") {
		t.Errorf("output should be captured, got %q", res.Output)
	}
}

func TestCompileWritesArtifact(t *testing.T) {
	fakeCompiler(t, "success")
	dir := t.TempDir()
	src := filepath.Join(dir, "notes.tex")

	if _, err := NewDriver(testProfile(), WithPasses(1)).Compile(context.Background(), src, dir, nil); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.pdf")); err != nil {
		t.Errorf("helper should have written the pdf: %v", err)
	}
}

func TestCompileReportsEachPass(t *testing.T) {
	fakeCompiler(t, "success")
	dir := t.TempDir()

	var seen []string
	_, err := NewDriver(testProfile(), WithPasses(3)).Compile(context.Background(), filepath.Join(dir, "a.tex"), dir, func(pass, total int) {
		seen = append(seen, fmt.Sprintf("%d/%d", pass, total))
	})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if strings.Join(seen, ",") != "1/3,2/3,3/3" {
		t.Errorf("passes seen = %v", seen)
	}
}

func TestCompileFailureSkipsLaterPasses(t *testing.T) {
	calls := fakeCompiler(t, "failure")
	dir := t.TempDir()

	_, err := NewDriver(testProfile()).Compile(context.Background(), filepath.Join(dir, "bad.tex"), dir, nil)
	if err == nil {
		t.Fatal("expected error")
	}

	var passErr *PassError
	if !errors.As(err, &passErr) {
		t.Fatalf("expected *PassError, got %T: %v", err, err)
	}
	if passErr.Pass != 1 || passErr.Passes != 2 {
		t.Errorf("failed at pass %d of %d, want 1 of 2", passErr.Pass, passErr.Passes)
	}
	if passErr.ExitCode != 1 {
		t.Errorf("exit code = %d, want 1", passErr.ExitCode)
	}
	if !strings.Contains(passErr.Output, "Undefined control sequence") {
		t.Errorf("diagnostic output not captured: %q", passErr.Output)
	}
	if errors.Is(err, ErrCompilerNotFound) {
		t.Error("a per-file failure must not look like a missing compiler")
	}
	if len(*calls) != 1 {
		t.Errorf("invocations = %d, want 1 (pass 2 skipped)", len(*calls))
	}
}

func TestCompileFailureOnSecondPass(t *testing.T) {
	calls := fakeCompiler(t, "fail-second")
	dir := t.TempDir()

	_, err := NewDriver(testProfile()).Compile(context.Background(), filepath.Join(dir, "x.tex"), dir, nil)
	var passErr *PassError
	if !errors.As(err, &passErr) {
		t.Fatalf("expected *PassError, got %v", err)
	}
	if passErr.Pass != 2 {
		t.Errorf("failed pass = %d, want 2", passErr.Pass)
	}
	if len(*calls) != 2 {
		t.Errorf("invocations = %d, want 2", len(*calls))
	}
}

func TestCompileMissingBinaryIsFatal(t *testing.T) {
	dir := t.TempDir()
	p := Profile{Name: "ghost", Binary: "texbatch-no-such-compiler-binary", Passes: 2}

	_, err := NewDriver(p).Compile(context.Background(), filepath.Join(dir, "a.tex"), dir, nil)
	if !errors.Is(err, ErrCompilerNotFound) {
		t.Fatalf("expected ErrCompilerNotFound, got %v", err)
	}
	var passErr *PassError
	if errors.As(err, &passErr) {
		t.Error("missing compiler must not be reported as a per-file failure")
	}
}

func TestCompileMissingAbsoluteBinaryIsFatal(t *testing.T) {
	dir := t.TempDir()
	p := Profile{Name: "ghost", Binary: filepath.Join(dir, "bin", "pdflatex"), Passes: 1}

	_, err := NewDriver(p).Compile(context.Background(), filepath.Join(dir, "a.tex"), dir, nil)
	if !errors.Is(err, ErrCompilerNotFound) {
		t.Fatalf("expected ErrCompilerNotFound, got %v", err)
	}
}

func TestCompileTimeoutIsPerFileFailure(t *testing.T) {
	fakeCompiler(t, "hang")
	dir := t.TempDir()

	start := time.Now()
	_, err := NewDriver(testProfile(), WithTimeout(200*time.Millisecond)).Compile(context.Background(), filepath.Join(dir, "slow.tex"), dir, nil)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	var passErr *PassError
	if !errors.As(err, &passErr) || passErr.Pass != 1 {
		t.Errorf("expected pass 1 PassError, got %v", err)
	}
	if time.Since(start) > 10*time.Second {
		t.Error("timeout did not stop the pass promptly")
	}
}

func TestCompileTimeoutWithOrphanedChild(t *testing.T) {
	fakeCompiler(t, "orphan")
	dir := t.TempDir()

	start := time.Now()
	_, err := NewDriver(testProfile(), WithTimeout(200*time.Millisecond)).Compile(context.Background(), filepath.Join(dir, "slow.tex"), dir, nil)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("compile blocked %s on a pipe held by an orphaned child", elapsed)
	}
}

func TestRunPassSetsWaitDelay(t *testing.T) {
	var cmd *exec.Cmd
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cmd = exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess", "--", "out", "a.tex")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "TEXBATCH_HELPER_MODE=exit")
		return cmd
	}
	t.Cleanup(func() { commandContext = original })

	if _, err := NewDriver(testProfile()).runPass(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if cmd == nil || cmd.WaitDelay != pipeWaitDelay {
		t.Errorf("WaitDelay not set to %s", pipeWaitDelay)
	}
}

func TestCompileCancelledContextIsFatal(t *testing.T) {
	fakeCompiler(t, "success")
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDriver(testProfile()).Compile(ctx, filepath.Join(dir, "a.tex"), dir, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCompileRequiresPaths(t *testing.T) {
	d := NewDriver(testProfile())
	if _, err := d.Compile(context.Background(), "", "/tmp", nil); err == nil {
		t.Error("expected error for empty source path")
	}
	if _, err := d.Compile(context.Background(), "/tmp/a.tex", " ", nil); err == nil {
		t.Error("expected error for empty output directory")
	}
}

func TestNewDriverDefaults(t *testing.T) {
	d := NewDriver(Profile{Binary: "tool"})
	if d.Passes() != 1 {
		t.Errorf("passes = %d, want 1", d.Passes())
	}
	if d.FinalExt() != ".pdf" {
		t.Errorf("final ext = %q, want .pdf", d.FinalExt())
	}

	d = NewDriver(testProfile(), WithPasses(0), WithTimeout(0))
	if d.Passes() != 2 {
		t.Errorf("WithPasses(0) should keep profile passes, got %d", d.Passes())
	}
}

func TestLookupBinary(t *testing.T) {
	original := lookPath
	lookPath = func(file string) (string, error) {
		if file == "pdflatex" {
			return "/usr/bin/pdflatex", nil
		}
		return "", exec.ErrNotFound
	}
	t.Cleanup(func() { lookPath = original })

	path, err := LookupBinary("pdflatex")
	if err != nil || path != "/usr/bin/pdflatex" {
		t.Errorf("LookupBinary(pdflatex) = %q, %v", path, err)
	}
	if _, err := LookupBinary("xelatex"); !errors.Is(err, ErrCompilerNotFound) {
		t.Errorf("expected ErrCompilerNotFound, got %v", err)
	}
	if _, err := LookupBinary(" "); !errors.Is(err, ErrCompilerNotFound) {
		t.Errorf("expected ErrCompilerNotFound for empty binary, got %v", err)
	}
}

// TestHelperProcess stands in for pdflatex. Arguments after "--" are the
// compiler arguments; the last two are the output directory and source path.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	args := os.Args
	for i, a := range args {
		if a == "--" {
			args = args[i+1:]
			break
		}
	}
	src := args[len(args)-1]
	outDir := args[len(args)-2]
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))

	switch os.Getenv("TEXBATCH_HELPER_MODE") {
	case "success":
		_ = os.WriteFile(filepath.Join(outDir, base+".aux"), []byte("aux"), 0644)
		_ = os.WriteFile(filepath.Join(outDir, base+".pdf"), []byte("%PDF-1.5"), 0644)
		fmt.Printf("Output written on %s.pdf (1 page).\n", base)
		os.Exit(0)
	case "failure":
		fmt.Println("! Undefined control sequence.")
		fmt.Fprintln(os.Stderr, "l.3 \\badmacro")
		os.Exit(1)
	case "fail-second":
		if os.Getenv("TEXBATCH_HELPER_CALL") == "2" {
			fmt.Println("! Label(s) may have changed.")
			os.Exit(1)
		}
		os.Exit(0)
	case "hang":
		time.Sleep(30 * time.Second)
		os.Exit(0)
	case "orphan":
		// Leave a child holding stdout, like a viewer spawned by a package.
		child := exec.Command(os.Args[0], os.Args[1:]...)
		child.Env = append(os.Environ(), "TEXBATCH_HELPER_MODE=hang")
		child.Stdout = os.Stdout
		if err := child.Start(); err != nil {
			os.Exit(2)
		}
		time.Sleep(30 * time.Second)
		os.Exit(0)
	default:
		os.Exit(0)
	}
}
