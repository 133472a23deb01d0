package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"gitlab.com/yelinaung/repair-ledger/internal/logger"
)

// ErrNoArchive is returned by Service.Archive when no destination is configured.
var ErrNoArchive = errors.New("no backup archive configured")

// Archive is an off-site destination for backup files.
type Archive interface {
	// Put stores the file and returns where it went.
	Put(ctx context.Context, name string, data []byte) (string, error)
}

// Archive takes a full backup and hands it to the configured archive. The
// backup time is recorded only once the archive accepted the file.
func (s *Service) Archive(ctx context.Context) (Export, string, error) {
	if s.archive == nil {
		return Export{}, "", ErrNoArchive
	}
	exp, err := s.PrepareFull(ctx)
	if err != nil {
		return Export{}, "", err
	}
	location, err := s.archive.Put(ctx, exp.Filename, exp.Data)
	if err != nil {
		return Export{}, "", fmt.Errorf("failed to archive backup: %w", err)
	}
	if err := s.MarkDelivered(ctx, exp); err != nil {
		return Export{}, "", err
	}
	logger.Log.Info().Str("location", location).Int("bytes", len(exp.Data)).Msg("Backup archived")
	return exp, location, nil
}

// DirArchive writes backups into a local directory.
type DirArchive struct {
	Dir string
}

// Put writes the file through a temporary sibling so a crash never leaves a
// truncated backup under the final name.
func (d DirArchive) Put(_ context.Context, name string, data []byte) (string, error) {
	if err := os.MkdirAll(d.Dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create backup dir: %w", err)
	}
	dest := filepath.Join(d.Dir, filepath.Base(name))
	tmp, err := os.CreateTemp(d.Dir, ".backup-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close backup: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("failed to move backup into place: %w", err)
	}
	return dest, nil
}

// ObjectPutter is the subset of the S3 client used by S3Archive.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config holds S3Archive construction parameters.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string // optional, e.g. MinIO
	PathStyle bool
	Prefix    string
}

// S3Archive uploads backups to an S3-compatible bucket.
type S3Archive struct {
	client ObjectPutter
	bucket string
	prefix string
}

// NewS3Archive builds the client from the default AWS credential chain.
func NewS3Archive(ctx context.Context, cfg S3Config) (*S3Archive, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewS3ArchiveWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

// NewS3ArchiveWithClient wraps an existing client. Used by tests.
func NewS3ArchiveWithClient(client ObjectPutter, bucket, prefix string) *S3Archive {
	return &S3Archive{client: client, bucket: bucket, prefix: prefix}
}

func (a *S3Archive) Put(ctx context.Context, name string, data []byte) (string, error) {
	key := path.Join(a.prefix, name)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return "s3://" + a.bucket + "/" + key, nil
}
