// Package storage mirrors export folders to an S3-compatible bucket.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/chembank/chembank/pkg/errors"
	"github.com/chembank/chembank/pkg/security"
	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
)

// checksumKey is the object metadata entry holding the hex SHA256 of the body.
const checksumKey = "sha256"

// API is the subset of the S3 client used here.
type API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Config locates the bucket. Endpoint and PathStyle are for S3-compatible
// servers such as MinIO.
type Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	PathStyle bool
}

// Client provides S3 storage operations
type Client struct {
	api       API
	bucket    string
	validator *security.Validator
}

// NewClient creates an S3 client using the default credential chain.
func NewClient(ctx context.Context, cfg Config, v *security.Validator) (*Client, error) {
	slog.Info("s3_client_init", "bucket", cfg.Bucket, "region", cfg.Region, "endpoint", cfg.Endpoint)

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		slog.Error("aws_config_load_failed", "error", err)
		return nil, errors.Wrap(err, "failed to load AWS config")
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	slog.Info("s3_client_created", "bucket", cfg.Bucket)
	return New(s3Client, cfg.Bucket, v), nil
}

// New wraps an existing API implementation.
func New(api API, bucket string, v *security.Validator) *Client {
	if v == nil {
		v = security.NewValidator(0)
	}
	return &Client{api: api, bucket: bucket, validator: v}
}

// Bucket returns the bucket name.
func (c *Client) Bucket() string {
	return c.bucket
}

// TransferResult summarizes a folder upload or download.
type TransferResult struct {
	Objects int
	Bytes   int64
}

// UploadDir uploads every regular file under dir to prefix, keeping the
// relative layout. Each object carries its content type and SHA256.
func (c *Client) UploadDir(ctx context.Context, dir, prefix string) (*TransferResult, error) {
	slog.Info("s3_upload_dir_start", "bucket", c.bucket, "dir", dir, "prefix", prefix)

	result := &TransferResult{}
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		key := objectKey(prefix, rel)
		size, err := c.upload(ctx, p, key)
		if err != nil {
			return err
		}
		result.Objects++
		result.Bytes += size
		return nil
	})
	if err != nil {
		slog.Error("s3_upload_dir_failed", "dir", dir, "prefix", prefix, "error", err)
		return nil, errors.Wrap(err, "failed to upload folder")
	}

	slog.Info("s3_upload_dir_complete",
		"prefix", prefix,
		"object_count", result.Objects,
		"size", humanize.Bytes(uint64(result.Bytes)),
	)
	return result, nil
}

func (c *Client) upload(ctx context.Context, localPath, key string) (int64, error) {
	mtype, err := mimetype.DetectFile(localPath)
	if err != nil {
		return 0, errors.Wrap(err, "failed to detect content type")
	}

	f, err := os.Open(localPath)
	if err != nil {
		return 0, errors.Wrap(err, "failed to open local file")
	}
	defer f.Close()

	hash := sha256.New()
	size, err := io.Copy(hash, f)
	if err != nil {
		return 0, errors.Wrap(err, "failed to hash local file")
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, errors.Wrap(err, "failed to rewind local file")
	}
	checksum := hex.EncodeToString(hash.Sum(nil))

	_, err = c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(mtype.String()),
		Metadata:      map[string]string{checksumKey: checksum},
	})
	if err != nil {
		slog.Error("s3_put_object_failed", "s3_key", key, "error", err)
		return 0, errors.Wrap(err, "failed to put object to S3")
	}

	slog.Info("s3_upload_complete", "s3_key", key, "content_type", mtype.String(), "size", humanize.Bytes(uint64(size)))
	return size, nil
}

// DownloadPrefix downloads every object under prefix into dir. Keys that
// would resolve outside dir are rejected with MalformedInput.
func (c *Client) DownloadPrefix(ctx context.Context, prefix, dir string) (*TransferResult, error) {
	folder := strings.TrimSuffix(prefix, "/")
	if folder != "" {
		folder += "/"
	}
	keys, err := c.ListObjects(ctx, folder)
	if err != nil {
		return nil, err
	}

	result := &TransferResult{}
	for _, key := range keys {
		rel := strings.TrimPrefix(key, folder)
		if rel == "" || strings.HasSuffix(rel, "/") {
			continue
		}
		if err := c.validator.ValidatePath(rel); err != nil {
			return nil, err
		}

		localPath := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
			slog.Error("local_dir_creation_failed", "path", localPath, "error", err)
			return nil, errors.Wrap(err, "failed to create local directory")
		}
		dl, err := c.Download(ctx, key, localPath)
		if err != nil {
			return nil, err
		}
		result.Objects++
		result.Bytes += dl.Size
	}

	slog.Info("s3_download_prefix_complete",
		"prefix", prefix,
		"object_count", result.Objects,
		"size", humanize.Bytes(uint64(result.Bytes)),
	)
	return result, nil
}

// DownloadResult contains download metadata
type DownloadResult struct {
	LocalPath string
	SHA256    string
	Size      int64
}

// Download downloads an object and verifies it against its recorded SHA256, if any.
func (c *Client) Download(ctx context.Context, s3Key, localPath string) (*DownloadResult, error) {
	slog.Info("s3_download_start", "bucket", c.bucket, "s3_key", s3Key)

	result, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(s3Key),
	})
	if err != nil {
		slog.Error("s3_get_object_failed", "s3_key", s3Key, "error", err)
		return nil, errors.Wrap(err, "failed to get object from S3")
	}
	defer result.Body.Close()

	f, err := os.Create(localPath)
	if err != nil {
		slog.Error("local_file_creation_failed", "path", localPath, "error", err)
		return nil, errors.Wrap(err, "failed to create local file")
	}
	defer f.Close()

	hash := sha256.New()
	size, err := io.Copy(io.MultiWriter(f, hash), result.Body)
	if err != nil {
		slog.Error("s3_download_failed", "s3_key", s3Key, "error", err)
		return nil, errors.Wrap(err, "failed to download file")
	}

	checksum := hex.EncodeToString(hash.Sum(nil))
	if want, ok := result.Metadata[checksumKey]; ok && want != checksum {
		slog.Error("s3_checksum_mismatch", "s3_key", s3Key, "want", want, "got", checksum)
		return nil, errors.Newf(errors.ErrMalformedInput, "object", "download",
			"checksum mismatch for %s", s3Key)
	}

	slog.Info("s3_download_complete",
		"s3_key", s3Key,
		"size", humanize.Bytes(uint64(size)),
		"local_path", localPath,
		"sha256", checksum[:16]+"...",
	)

	return &DownloadResult{
		LocalPath: localPath,
		SHA256:    checksum,
		Size:      size,
	}, nil
}

// ListObjects lists all objects in the bucket with a given prefix
func (c *Client) ListObjects(ctx context.Context, prefix string) ([]string, error) {
	slog.Info("s3_list_start", "bucket", c.bucket, "prefix", prefix)

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(prefix),
	}

	var keys []string
	paginator := s3.NewListObjectsV2Paginator(c.api, input)

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			slog.Error("s3_list_failed", "prefix", prefix, "error", err)
			return nil, errors.Wrap(err, "failed to list objects")
		}

		for _, obj := range page.Contents {
			if obj.Key != nil {
				keys = append(keys, *obj.Key)
			}
		}
	}

	slog.Info("s3_list_complete", "prefix", prefix, "object_count", len(keys))

	return keys, nil
}

// Exists checks if an object exists in S3
func (c *Client) Exists(ctx context.Context, s3Key string) (bool, error) {
	_, err := c.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(s3Key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			slog.Info("s3_object_not_found", "s3_key", s3Key)
			return false, nil
		}
		slog.Error("s3_head_object_failed", "s3_key", s3Key, "error", err)
		return false, errors.Wrap(err, "failed to check object existence")
	}

	slog.Info("s3_object_exists", "s3_key", s3Key)
	return true, nil
}

// objectKey joins prefix and a local relative path into a slash-separated key.
func objectKey(prefix, rel string) string {
	return path.Join(prefix, filepath.ToSlash(rel))
}
