package security

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chembank/chembank/pkg/errors"
)

// Validator checks names and sizes of files moving between the store and an
// export directory (or a remote mirror of one).
type Validator struct {
	maxImageSize int64
}

// NewValidator creates a validator. maxImageSize <= 0 disables the size limit.
func NewValidator(maxImageSize int64) *Validator {
	slog.Info("security_validator_init", "max_image_size", maxImageSize)
	return &Validator{maxImageSize: maxImageSize}
}

// ValidatePath checks that a slash-separated relative path stays inside its root.
// It is applied to object keys before they become local file paths.
func (v *Validator) ValidatePath(relPath string) error {
	if relPath == "" {
		return errors.Newf(errors.ErrMalformedInput, "path", "validate", "empty path")
	}

	// Reject absolute paths
	if filepath.IsAbs(relPath) || strings.HasPrefix(relPath, "/") {
		slog.Error("security_path_validation_failed", "path", relPath, "reason", "absolute_path")
		return errors.Newf(errors.ErrMalformedInput, "path", "validate", "absolute path not allowed: %s", relPath)
	}

	clean := filepath.Clean(filepath.FromSlash(relPath))

	// Reject paths that start with .. (escape current directory)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		slog.Error("security_path_validation_failed", "path", relPath, "reason", "path_traversal")
		return errors.Newf(errors.ErrMalformedInput, "path", "validate", "path traversal detected: %s", relPath)
	}

	return nil
}

// ValidateFileName checks that name can be used as a single path element.
func (v *Validator) ValidateFileName(name string) error {
	reason := ""
	switch {
	case name == "":
		reason = "empty"
	case name == "." || name == "..":
		reason = "dot_name"
	case strings.ContainsAny(name, `/\`):
		reason = "path_separator"
	case strings.ContainsRune(name, 0):
		reason = "nul_byte"
	case filepath.Base(name) != name:
		reason = "not_base_name"
	}
	if reason != "" {
		slog.Error("security_filename_validation_failed", "filename", name, "reason", reason)
		return errors.Newf(errors.ErrMalformedInput, "image", "validate", "invalid filename %q (%s)", name, reason)
	}
	return nil
}

// ValidateImageSize checks an image payload against the configured limit.
func (v *Validator) ValidateImageSize(size int64) error {
	if v.maxImageSize > 0 && size > v.maxImageSize {
		slog.Error("security_image_size_exceeded", "size", size, "max_image_size", v.maxImageSize)
		return errors.Newf(errors.ErrMalformedInput, "image", "validate",
			"image size %d exceeds max %d", size, v.maxImageSize)
	}
	return nil
}

// ParseImageFolder parses an image folder name as a structure id.
func (v *Validator) ParseImageFolder(name string) (uint32, error) {
	// Reject signs and whitespace that ParseUint would otherwise tolerate or misread.
	if name == "" || strings.IndexFunc(name, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return 0, errors.Newf(errors.ErrInvalidImageFolder, "image", "import", "folder name %q is not a structure id", name)
	}
	id, err := strconv.ParseUint(name, 10, 32)
	if err != nil {
		return 0, errors.New(errors.ErrInvalidImageFolder, "image", "import", fmt.Errorf("folder name %q: %w", name, err))
	}
	return uint32(id), nil
}
