package store

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/tyler180/bball-reference-scrapers/internal/bref"
)

type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// CSVObject is the single object name inside each dt= partition.
const CSVObject = "all_players.csv"

// CSVKey lays out uploads as <prefix>/dt=<YYYY-MM-DD>/all_players.csv. A later run on the
// same day overwrites the earlier object, so a partition never holds two copies of the roster.
func CSVKey(prefix string, at time.Time) string {
	return path.Join(prefix, "dt="+at.UTC().Format("2006-01-02"), CSVObject)
}

// UploadPlayersCSV encodes the table as CSV and puts it at bucket/key.
func UploadPlayersCSV(ctx context.Context, api S3API, bucket, key string, t *bref.PlayerTable) error {
	var buf bytes.Buffer
	if err := EncodePlayersCSV(&buf, t); err != nil {
		return err
	}
	_, err := api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("text/csv; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}
