package download

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/jsphweid/scoretensor/util"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// S3 mirrors note files stored under a bucket prefix.
type S3 struct {
	Bucket string
	Prefix string
	Region string
	// non-empty for S3-compatible stores such as a local minio
	Endpoint string
	// used as is when set; Region and Endpoint are then ignored
	Session *session.Session
}

func (s *S3) Name() string {
	return "s3://" + path.Join(s.Bucket, s.Prefix)
}

func (s *S3) session() (*session.Session, error) {
	if s.Session != nil {
		return s.Session, nil
	}
	cfg := &aws.Config{Region: aws.String(s.Region)}
	if s.Endpoint != "" {
		cfg.Endpoint = aws.String(s.Endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "could not create a new S3 session")
	}
	return sess, nil
}

func (s *S3) download(ctx context.Context, out string, exts []string) error {
	sess, err := s.session()
	if err != nil {
		return err
	}
	client := s3.New(sess)

	var keys []string
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.Bucket),
		Prefix: aws.String(s.Prefix),
	}
	err = client.ListObjectsV2PagesWithContext(ctx, input, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			key := aws.StringValue(obj.Key)
			for _, ext := range exts {
				if strings.HasSuffix(strings.ToLower(key), ext) {
					keys = append(keys, key)
					break
				}
			}
		}
		return true
	})
	if err != nil {
		return errors.Wrapf(err, "listing %s", s.Name())
	}

	if err := os.MkdirAll(out, 0777); err != nil {
		return errors.Wrap(err, "could not make output dir")
	}
	downloader := s3manager.NewDownloader(sess)
	for _, key := range keys {
		dest := filepath.Join(out, path.Base(key))
		if _, err := os.Stat(dest); err == nil {
			continue
		}
		f, err := os.Create(dest)
		if err != nil {
			return err
		}
		n, err := downloader.DownloadWithContext(ctx, f, &s3.GetObjectInput{
			Bucket: aws.String(s.Bucket),
			Key:    aws.String(key),
		})
		f.Close()
		if err != nil {
			os.Remove(dest)
			return errors.Wrapf(err, "downloading %s", key)
		}
		log.Debug("downloaded", zap.String("key", key), zap.Int64("bytes", n))
	}
	log.Info("copied", zap.String("from", s.Name()), zap.Int("files", len(keys)))
	return nil
}

func (s *S3) DownloadMidi(ctx context.Context, out string) error {
	return s.download(ctx, out, util.MidiExtensions)
}

func (s *S3) DownloadCSV(ctx context.Context, out string) error {
	return s.download(ctx, out, util.CSVExtensions)
}
