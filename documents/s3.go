package documents

import (
	"context"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	ierr "github.com/satheeshds/portal/errors"
)

// S3Storage keeps documents in a bucket under <prefix>/<clientID>/<name>.
type S3Storage struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Storage loads the default AWS credential chain for region.
func NewS3Storage(ctx context.Context, bucket, prefix, region string) (*S3Storage, error) {
	opts := []func(*awsConfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsConfig.WithRegion(region))
	}
	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("failed to load aws config").
			Mark(ierr.ErrSystem)
	}
	return &S3Storage{
		client: s3.NewFromConfig(awsCfg),
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}, nil
}

func (s *S3Storage) folder(clientID string) string {
	if s.prefix == "" {
		return clientID + "/"
	}
	return s.prefix + "/" + clientID + "/"
}

func (s *S3Storage) List(ctx context.Context, clientID string) ([]Document, error) {
	if err := validName("client id", clientID); err != nil {
		return nil, err
	}

	folder := s.folder(clientID)
	docs := []Document{}
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(folder),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, ierr.WithError(err).
				WithHint("documents are temporarily unavailable").
				WithMessagef("bucket:%s, prefix:%s", s.bucket, folder).
				Mark(ierr.ErrUpstreamUnavailable)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), folder)
			// skip nested keys and folder markers
			if name == "" || strings.Contains(name, "/") {
				continue
			}
			docs = append(docs, Document{
				Name:       path.Base(name),
				Size:       aws.ToInt64(obj.Size),
				ModifiedAt: aws.ToTime(obj.LastModified),
			})
		}
	}
	slices.SortFunc(docs, func(a, b Document) int { return strings.Compare(a.Name, b.Name) })
	return docs, nil
}

func (s *S3Storage) Open(ctx context.Context, clientID, name string) (io.ReadCloser, error) {
	if err := validName("client id", clientID); err != nil {
		return nil, err
	}
	if err := validName("document name", name); err != nil {
		return nil, err
	}

	key := s.folder(clientID) + name
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if ierr.As(err, &nsk) {
			return nil, ierr.WithError(err).
				WithHintf("document %s not found", name).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("documents are temporarily unavailable").
			WithMessagef("bucket:%s, key:%s", s.bucket, key).
			Mark(ierr.ErrUpstreamUnavailable)
	}
	return out.Body, nil
}
