package validation

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauern/agentsync/internal/util"
)

func TestResult_Error(t *testing.T) {
	t.Run("no errors", func(t *testing.T) {
		result := &Result{Valid: true}
		if err := result.Error(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("single error", func(t *testing.T) {
		want := errors.New("test error")
		result := &Result{}
		result.AddError(want)
		if err := result.Error(); !errors.Is(err, want) {
			t.Errorf("expected %v, got %v", want, err)
		}
		if result.Valid {
			t.Error("AddError should mark the result invalid")
		}
	})

	t.Run("multiple errors keep identity", func(t *testing.T) {
		first := errors.New("error 1")
		result := &Result{}
		result.AddError(first)
		result.AddError(errors.New("error 2"))

		err := result.Error()
		if !errors.Is(err, first) {
			t.Errorf("expected joined error to wrap %v", first)
		}
		if !strings.HasPrefix(err.Error(), "2 validation errors") {
			t.Errorf("unexpected message: %s", err)
		}
	})
}

func TestResult_Summary(t *testing.T) {
	tests := []struct {
		name   string
		result Result
		want   string
	}{
		{"all valid", Result{Valid: true}, "All validations passed"},
		{"valid with warnings", Result{Valid: true, Warnings: []string{"a", "b"}}, "Validation passed with warnings (2 warning(s))"},
		{"invalid", Result{Valid: false, Warnings: []string{"a"}}, "Validation failed (1 warning(s))"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.Summary(); got != tt.want {
				t.Errorf("Summary() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	withCause := &Error{Field: "lint", Message: "failed", Err: errors.New("underlying")}
	if !strings.Contains(withCause.Error(), "underlying") {
		t.Errorf("expected cause in message, got %q", withCause.Error())
	}
	if !errors.Is(withCause, withCause.Err) {
		t.Error("Unwrap should expose the cause")
	}

	bare := &Error{Field: "lint", Message: "failed"}
	if got := bare.Error(); got != `validation failed for "lint": failed` {
		t.Errorf("unexpected message %q", got)
	}
}

func TestManifestValidator(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "valid",
			content: "---\nname: lint\ndescription: Lints code\n---\nbody\n",
		},
		{
			name:    "crlf line endings",
			content: "---\r\nname: lint\r\ndescription: Lints code\r\n---\r\nbody\r\n",
		},
		{
			name:    "missing description",
			content: "---\nname: lint\n---\n",
			wantErr: "missing description",
		},
		{
			name:    "blank name and description",
			content: "---\nname: \"  \"\ndescription: \"\"\n---\n",
			wantErr: "missing name and description",
		},
		{
			name:    "no frontmatter",
			content: "# lint\n",
			wantErr: "no YAML frontmatter",
		},
		{
			name:    "unterminated frontmatter",
			content: "---\nname: lint\n",
			wantErr: "no YAML frontmatter",
		},
		{
			name:    "invalid yaml",
			content: "---\nname: [unterminated\n---\n",
			wantErr: "invalid SKILL.md frontmatter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "lint")
			util.WriteFile(t, filepath.Join(dir, SkillManifestFile), tt.content)

			err := ManifestValidator{}.ValidateSkill(dir)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
			var vErr *Error
			if !errors.As(err, &vErr) || vErr.Field != "lint" {
				t.Errorf("expected *Error for field lint, got %#v", err)
			}
		})
	}
}

func TestManifestValidator_MissingFile(t *testing.T) {
	err := ManifestValidator{}.ValidateSkill(t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "missing SKILL.md") {
		t.Fatalf("expected missing SKILL.md error, got %v", err)
	}
}

func TestReadManifest(t *testing.T) {
	dir := util.WriteSkill(t, t.TempDir(), "deploy", "Ships builds")

	m, err := ReadManifest(dir)
	util.AssertNoError(t, err)
	util.AssertEqual(t, m.Name, "deploy")
	util.AssertEqual(t, m.Description, "Ships builds")
}
