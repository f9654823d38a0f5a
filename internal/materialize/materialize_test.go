package materialize_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Entalpic/entaldocs/internal/boilerplate"
	"github.com/Entalpic/entaldocs/internal/cmderr"
	"github.com/Entalpic/entaldocs/internal/console"
	"github.com/Entalpic/entaldocs/internal/materialize"
	"github.com/Entalpic/entaldocs/internal/substitute"
)

func entry(path, body string) boilerplate.Entry {
	return boilerplate.Entry{Path: path, Body: []byte(body)}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(body)
}

func TestRunSubstitutesContentsAndFilenames(t *testing.T) {
	dest := t.TempDir()

	mat := &materialize.Materializer{
		Vars:   substitute.Map{"PROJECT_NAME": "acme"},
		Policy: materialize.PolicyOverwrite,
	}
	summary, err := mat.Run([]boilerplate.Entry{
		entry("$PROJECT_NAME/conf.py", `name = "$PROJECT_NAME"`),
	}, dest)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Written != 1 {
		t.Fatalf("summary = %+v, want 1 written", summary)
	}

	got := readFile(t, filepath.Join(dest, "acme", "conf.py"))
	if got != `name = "acme"` {
		t.Fatalf("materialized content = %q", got)
	}
}

func TestRunOverwriteIsIdempotent(t *testing.T) {
	dest := t.TempDir()
	entries := []boilerplate.Entry{
		entry("a.txt", "alpha $X"),
		entry("sub/b.txt", "beta"),
	}
	mat := &materialize.Materializer{
		Vars:   substitute.Map{"X": "x"},
		Policy: materialize.PolicyOverwrite,
	}

	if _, err := mat.Run(entries, dest); err != nil {
		t.Fatalf("first Run returned error: %v", err)
	}
	first := map[string]string{
		"a.txt":     readFile(t, filepath.Join(dest, "a.txt")),
		"sub/b.txt": readFile(t, filepath.Join(dest, "sub", "b.txt")),
	}

	if _, err := mat.Run(entries, dest); err != nil {
		t.Fatalf("second Run returned error: %v", err)
	}
	for rel, want := range first {
		if got := readFile(t, filepath.Join(dest, filepath.FromSlash(rel))); got != want {
			t.Fatalf("%s changed on second run: %q != %q", rel, got, want)
		}
	}
}

func TestSkipPolicyPreservesExistingFiles(t *testing.T) {
	dest := t.TempDir()
	existing := filepath.Join(dest, "a.txt")
	if err := os.WriteFile(existing, []byte("user content"), 0o644); err != nil {
		t.Fatalf("seed existing file: %v", err)
	}

	mat := &materialize.Materializer{Policy: materialize.PolicySkip}
	summary, err := mat.Run([]boilerplate.Entry{
		entry("a.txt", "template content"),
		entry("b.txt", "fresh"),
	}, dest)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Skipped != 1 || summary.Written != 1 {
		t.Fatalf("summary = %+v, want 1 skipped and 1 written", summary)
	}
	if got := readFile(t, existing); got != "user content" {
		t.Fatalf("skip policy modified existing file: %q", got)
	}
}

func TestInteractiveYesToAll(t *testing.T) {
	dest := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		if err := os.WriteFile(filepath.Join(dest, name), []byte("old"), 0o644); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
	}

	prompt := &console.Scripted{Answers: []string{"a"}}
	mat := &materialize.Materializer{Policy: materialize.PolicyInteractive, Prompt: prompt}
	summary, err := mat.Run([]boilerplate.Entry{
		entry("a.txt", "new"),
		entry("b.txt", "new"),
		entry("c.txt", "new"),
	}, dest)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Overwritten != 3 {
		t.Fatalf("summary = %+v, want 3 overwritten", summary)
	}
	if len(prompt.Questions) != 1 {
		t.Fatalf("yes-to-all asked %d questions, want 1", len(prompt.Questions))
	}
}

func TestInteractiveDeclineSkips(t *testing.T) {
	dest := t.TempDir()
	if err := os.WriteFile(filepath.Join(dest, "a.txt"), []byte("old"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	prompt := &console.Scripted{Answers: []string{"n"}}
	mat := &materialize.Materializer{Policy: materialize.PolicyInteractive, Prompt: prompt}
	summary, err := mat.Run([]boilerplate.Entry{entry("a.txt", "new")}, dest)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Skipped != 1 {
		t.Fatalf("summary = %+v, want 1 skipped", summary)
	}
	if got := readFile(t, filepath.Join(dest, "a.txt")); got != "old" {
		t.Fatalf("declined overwrite still modified file: %q", got)
	}
}

func TestPlanDetectsDestinationCollision(t *testing.T) {
	mat := &materialize.Materializer{
		Vars:   substitute.Map{"PROJECT_NAME": "a"},
		Policy: materialize.PolicyOverwrite,
	}
	_, err := mat.Plan([]boilerplate.Entry{
		entry("a/file.txt", "one"),
		entry("$PROJECT_NAME/file.txt", "two"),
	}, t.TempDir())
	if err == nil {
		t.Fatalf("expected collision error")
	}
	if cmderr.KindOf(err) != cmderr.KindConflict {
		t.Fatalf("collision error kind = %v, want conflict", cmderr.KindOf(err))
	}
}

func TestUnwritableDestinationLeavesNoTrace(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}

	parent := t.TempDir()
	if err := os.Chmod(parent, 0o555); err != nil {
		t.Fatalf("chmod parent: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chmod(parent, 0o755); err != nil {
			t.Fatalf("restore parent permissions: %v", err)
		}
	})

	dest := filepath.Join(parent, "docs")
	mat := &materialize.Materializer{Policy: materialize.PolicyOverwrite}
	_, err := mat.Run([]boilerplate.Entry{entry("a.txt", "alpha")}, dest)
	if err == nil {
		t.Fatalf("expected writability failure")
	}
	if cmderr.KindOf(err) != cmderr.KindConflict {
		t.Fatalf("error kind = %v, want conflict", cmderr.KindOf(err))
	}
	if _, statErr := os.Lstat(dest); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("destination was created despite failure: %v", statErr)
	}
}

func TestBackupPolicy(t *testing.T) {
	dest := t.TempDir()
	target := filepath.Join(dest, "style.css")
	if err := os.WriteFile(target, []byte("old css"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	mat := &materialize.Materializer{Policy: materialize.PolicyBackup}
	summary, err := mat.Run([]boilerplate.Entry{entry("style.css", "new css")}, dest)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.BackedUp != 1 {
		t.Fatalf("summary = %+v, want 1 backed up", summary)
	}
	if got := readFile(t, target); got != "new css" {
		t.Fatalf("target not updated: %q", got)
	}
	if got := readFile(t, target+".bak"); got != "old css" {
		t.Fatalf("backup content = %q", got)
	}

	// An identical file is skipped, producing no second backup.
	summary, err = mat.Run([]boilerplate.Entry{entry("style.css", "new css")}, dest)
	if err != nil {
		t.Fatalf("second Run returned error: %v", err)
	}
	if summary.Skipped != 1 || summary.BackedUp != 0 {
		t.Fatalf("second summary = %+v, want 1 skipped", summary)
	}
	if _, err := os.Lstat(target + ".bak.1"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("unexpected second backup created")
	}
}

func TestBinaryEntriesPassThroughUnmodified(t *testing.T) {
	dest := t.TempDir()
	body := []byte{0x89, 'P', 'N', 'G', 0x00, '$', 'X'}

	mat := &materialize.Materializer{
		Vars:   substitute.Map{"X": "expanded"},
		Policy: materialize.PolicyOverwrite,
	}
	if _, err := mat.Run([]boilerplate.Entry{{Path: "logo.png", Body: body, Binary: true}}, dest); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dest, "logo.png"))
	if err != nil {
		t.Fatalf("read materialized binary: %v", err)
	}
	if string(got) != string(body) {
		t.Fatalf("binary entry was modified: %v", got)
	}
}
