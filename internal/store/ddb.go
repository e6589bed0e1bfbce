package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/tyler180/bball-reference-scrapers/internal/bref"
)

type DynamoDBAPI interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// PutPlayerRows upserts one item per player. PK=PlayerID (S).
// Stat columns go into a map attribute keyed by the lower-cased header name.
// Players sharing a key within one run keep the first row seen.
func PutPlayerRows(ctx context.Context, ddb DynamoDBAPI, tableName, runID string, t *bref.PlayerTable) (int, error) {
	if t.Len() == 0 {
		return 0, nil
	}
	const maxBatch = 25
	now := time.Now().Unix()

	// header columns minus the name column
	statCols := []string{}
	if n := len(t.Schema) - 3; n > 1 {
		statCols = t.Schema.Names()[1:n]
	}

	seen := make(map[string]struct{}, len(t.Rows))
	reqs := make([]types.WriteRequest, 0, len(t.Rows))
	for _, r := range t.Rows {
		pid := bref.PlayerKey(r)
		if pid == "" {
			continue
		}
		if _, dup := seen[pid]; dup {
			continue
		}
		seen[pid] = struct{}{}
		item, err := buildPlayerItem(r, pid, statCols, runID, now)
		if err != nil {
			return 0, err
		}
		reqs = append(reqs, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
	}

	written := 0
	for i := 0; i < len(reqs); i += maxBatch {
		end := i + maxBatch
		if end > len(reqs) {
			end = len(reqs)
		}
		if err := batchWriteWithRetry(ctx, ddb, tableName, reqs[i:end]); err != nil {
			return written, fmt.Errorf("batch write player rows: %w", err)
		}
		written += end - i
	}
	return written, nil
}

// playerItem is the stored shape of one roster row.
type playerItem struct {
	PlayerID  string            `dynamodbav:"PlayerID"` // PK
	Player    string            `dynamodbav:"Player"`
	Letter    string            `dynamodbav:"Letter"`
	IsActive  bool              `dynamodbav:"IsActive"`
	IsHOF     bool              `dynamodbav:"IsHOF"`
	UpdatedAt int64             `dynamodbav:"UpdatedAt"`
	URL       string            `dynamodbav:"URL,omitempty"`
	RunID     string            `dynamodbav:"RunID,omitempty"`
	Stats     map[string]string `dynamodbav:"Stats,omitempty"`
}

func buildPlayerItem(r bref.PlayerRecord, pid string, statCols []string, runID string, now int64) (map[string]types.AttributeValue, error) {
	it := playerItem{
		PlayerID:  pid,
		Player:    r.Name,
		Letter:    r.Letter,
		IsActive:  r.IsActive,
		IsHOF:     r.IsHOF,
		UpdatedAt: now,
		URL:       r.URL,
		RunID:     runID,
	}
	if len(r.Stats) > 0 {
		it.Stats = make(map[string]string, len(r.Stats))
		for i, v := range r.Stats {
			key := "col" + strconv.Itoa(i+1)
			if i < len(statCols) && statCols[i] != "" {
				key = statCols[i]
			}
			it.Stats[key] = v
		}
	}
	item, err := attributevalue.MarshalMap(it)
	if err != nil {
		return nil, fmt.Errorf("marshal player %s: %w", pid, err)
	}
	return item, nil
}

func batchWriteWithRetry(ctx context.Context, ddb DynamoDBAPI, table string, reqs []types.WriteRequest) error {
	input := &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]types.WriteRequest{table: reqs},
	}
	const maxAttempts = 6
	backoff := 120 * time.Millisecond

	for attempt := 0; attempt < maxAttempts; attempt++ {
		out, err := ddb.BatchWriteItem(ctx, input)
		if err != nil {
			return err
		}
		if len(out.UnprocessedItems) == 0 || len(out.UnprocessedItems[table]) == 0 {
			return nil
		}
		input.RequestItems = out.UnprocessedItems
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 2*time.Second {
			backoff += 120 * time.Millisecond
		}
	}
	return fmt.Errorf("unprocessed items remained after retries for table %s", table)
}
