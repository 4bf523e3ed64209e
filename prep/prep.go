package prep

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"time"

	"github.com/alitto/pond"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3Types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/fionet/fionet/config"
	"github.com/schollz/progressbar/v3"
)

// ErrEndpointUnreachable means the storage endpoint did not accept a
// connection. Fatal before anything launches.
var ErrEndpointUnreachable = errors.New("endpoint unreachable")

// Preparer readies the S3 side of a run: endpoint probe, bucket, and the
// objects the read profile targets.
type Preparer struct {
	cfg               *config.Config
	s3                *s3.Client
	uploadConcurrency int
}

func New(ctx context.Context, cfg *config.Config, uploadConcurrency int) (*Preparer, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config failed: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		// MinIO wants path-style addressing
		o.UsePathStyle = true
	})

	return &Preparer{cfg: cfg, s3: client, uploadConcurrency: max(uploadConcurrency, 1)}, nil
}

// CheckEndpoint probes the endpoint with a plain TCP dial. Catches a dead or
// misaddressed endpoint before any load launches.
func (p *Preparer) CheckEndpoint(ctx context.Context) error {
	u, err := url.Parse(p.cfg.Endpoint)
	if err != nil {
		return fmt.Errorf("%w: bad endpoint URL %q", ErrEndpointUnreachable, p.cfg.Endpoint)
	}
	host := u.Host
	if u.Port() == "" {
		if u.Scheme == "https" {
			host = net.JoinHostPort(u.Hostname(), "443")
		} else {
			host = net.JoinHostPort(u.Hostname(), "80")
		}
	}

	d := net.Dialer{Timeout: 5 * time.Second}
	conn, err := d.DialContext(ctx, "tcp", host)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrEndpointUnreachable, host, err)
	}
	conn.Close()
	return nil
}

// EnsureBucket creates the bucket if it does not exist.
func (p *Preparer) EnsureBucket(ctx context.Context) error {
	_, err := p.s3.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &p.cfg.Bucket})
	if err == nil {
		slog.Debug("bucket already exists", slog.String("name", p.cfg.Bucket))
		return nil
	}
	var nf *s3Types.NotFound
	if !errors.As(err, &nf) {
		return fmt.Errorf("checking bucket %s failed: %w", p.cfg.Bucket, err)
	}

	_, err = p.s3.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: &p.cfg.Bucket})
	var owned *s3Types.BucketAlreadyOwnedByYou
	if errors.As(err, &owned) {
		return nil
	} else if err != nil {
		return fmt.Errorf("creating bucket %s failed: %w", p.cfg.Bucket, err)
	}
	slog.Info("created bucket", slog.String("name", p.cfg.Bucket))
	return nil
}

// PrepareReadObjects pre-populates the objects the read profile targets, so
// its GETs hit data that exists. Keys follow keyFormat with a running index.
func (p *Preparer) PrepareReadObjects(ctx context.Context, keyFormat string, count int) error {
	size, err := p.cfg.ObjectSizeBytes()
	if err != nil {
		return err
	}

	slog.Info("preparing read objects",
		slog.String("bucket", p.cfg.Bucket),
		slog.Int("count", count),
		slog.Int64("sizeBytes", size),
	)

	uploader := manager.NewUploader(p.s3, func(u *manager.Uploader) {
		u.PartSize = 1024 * 1024 * 10
	})
	body := bytes.Repeat([]byte("x"), int(size))

	errChan := make(chan error, count)
	pool := pond.New(p.uploadConcurrency, 0, pond.MinWorkers(p.uploadConcurrency))
	bar := progressbar.Default(int64(count), "Preparing read objects:")
	for i := 0; i < count; i++ {
		key := fmt.Sprintf(keyFormat, i)
		pool.Submit(func() {
			defer bar.Add(1)
			_, err := uploader.Upload(ctx, &s3.PutObjectInput{
				Bucket: &p.cfg.Bucket,
				Key:    &key,
				Body:   bytes.NewReader(body),
			})
			if err != nil {
				slog.Error("failed to upload read object", slog.String("key", key), slog.String("error", err.Error()))
				errChan <- err
			}
		})
	}
	pool.StopAndWait()
	bar.Finish()

	select {
	case err := <-errChan:
		return fmt.Errorf("some read objects failed to upload: %w", err)
	default:
		slog.Info("read objects ready", slog.String("bucket", p.cfg.Bucket))
		return nil
	}
}
