package security

import (
	"testing"

	"github.com/chembank/chembank/pkg/errors"
)

func TestValidatePath_PathTraversal(t *testing.T) {
	v := NewValidator(1024)

	tests := []struct {
		path      string
		shouldErr bool
	}{
		{"structures.csv", false},
		{"images/12/tnt.png", false},
		{"../etc/passwd", true},
		{"/etc/passwd", true},
		{"images/../structures.csv", false},
		{"images/../../etc/passwd", true},
		{"", true},
	}

	for _, tt := range tests {
		err := v.ValidatePath(tt.path)
		if tt.shouldErr && err == nil {
			t.Errorf("expected error for path: %s", tt.path)
		}
		if !tt.shouldErr && err != nil {
			t.Errorf("unexpected error for path %s: %v", tt.path, err)
		}
	}
}

func TestValidateFileName(t *testing.T) {
	v := NewValidator(0)

	tests := []struct {
		name      string
		shouldErr bool
	}{
		{"tnt.png", false},
		{"structure 1.jpeg", false},
		{"", true},
		{".", true},
		{"..", true},
		{"../x.png", true},
		{`dir\x.png`, true},
		{"a\x00b.png", true},
	}

	for _, tt := range tests {
		err := v.ValidateFileName(tt.name)
		if tt.shouldErr {
			if !errors.Is(err, errors.ErrMalformedInput) {
				t.Errorf("expected malformed input for %q, got %v", tt.name, err)
			}
		} else if err != nil {
			t.Errorf("unexpected error for %q: %v", tt.name, err)
		}
	}
}

func TestValidateImageSize(t *testing.T) {
	v := NewValidator(100)

	if err := v.ValidateImageSize(50); err != nil {
		t.Errorf("expected no error for size 50, got: %v", err)
	}
	if err := v.ValidateImageSize(150); err == nil {
		t.Error("expected error for size 150 exceeding limit 100")
	}

	unlimited := NewValidator(0)
	if err := unlimited.ValidateImageSize(1 << 40); err != nil {
		t.Errorf("limit 0 should disable the check, got %v", err)
	}
}

func TestParseImageFolder(t *testing.T) {
	v := NewValidator(0)

	tests := []struct {
		name    string
		want    uint32
		wantErr bool
	}{
		{"1", 1, false},
		{"0", 0, false},
		{"4294967295", 4294967295, false},
		{"4294967296", 0, true},
		{"-1", 0, true},
		{"+1", 0, true},
		{"abc", 0, true},
		{"", 0, true},
		{" 1", 0, true},
	}

	for _, tt := range tests {
		t.Run("folder_"+tt.name, func(t *testing.T) {
			got, err := v.ParseImageFolder(tt.name)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrInvalidImageFolder) {
					t.Errorf("expected invalid image folder, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseImageFolder(%q) = (%d, %v), want %d", tt.name, got, err, tt.want)
			}
		})
	}
}
