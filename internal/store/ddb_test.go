package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	ddb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/tyler180/bball-reference-scrapers/internal/bref"
)

// fake client implementing DynamoDBAPI
type fakeDDB struct {
	calls int
	items []map[string]types.AttributeValue
	// first attempt returns everything unprocessed, second succeeds
	failFirst bool
}

func (f *fakeDDB) BatchWriteItem(ctx context.Context, in *ddb.BatchWriteItemInput, _ ...func(*ddb.Options)) (*ddb.BatchWriteItemOutput, error) {
	f.calls++
	if f.failFirst {
		f.failFirst = false
		return &ddb.BatchWriteItemOutput{
			UnprocessedItems: in.RequestItems,
		}, nil
	}
	for _, reqs := range in.RequestItems {
		for _, r := range reqs {
			f.items = append(f.items, r.PutRequest.Item)
		}
	}
	return &ddb.BatchWriteItemOutput{}, nil
}

func playersTable(n int) *bref.PlayerTable {
	t := &bref.PlayerTable{Schema: bref.Schema{
		{Name: "player", Type: bref.TypeString},
		{Name: "from", Type: bref.TypeString},
		{Name: "to", Type: bref.TypeString},
		{Name: bref.ColURL, Type: bref.TypeString},
		{Name: bref.ColIsActive, Type: bref.TypeBool},
		{Name: bref.ColIsHOF, Type: bref.TypeBool},
	}}
	for i := 0; i < n; i++ {
		t.Rows = append(t.Rows, bref.PlayerRecord{
			Name:   fmt.Sprintf("Player %02d", i),
			Stats:  []string{"1990", "2000"},
			URL:    fmt.Sprintf("/players/a/playe%02d.html", i),
			Letter: "a",
		})
	}
	return t
}

func TestPutPlayerRows_BatchingAndRetry(t *testing.T) {
	// 30 rows -> 25 + 5 batches
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	fc := &fakeDDB{failFirst: true}
	n, err := PutPlayerRows(ctx, fc, "tbl", "run-1", playersTable(30))
	if err != nil {
		t.Fatalf("PutPlayerRows error: %v", err)
	}
	if n != 30 {
		t.Errorf("written = %d, want 30", n)
	}
	// first batch retried once
	if fc.calls != 3 {
		t.Fatalf("expected 3 BatchWriteItem calls, got %d", fc.calls)
	}
}

func TestPutPlayerRows_ItemShape(t *testing.T) {
	tbl := playersTable(1)
	tbl.Rows[0].IsHOF = true
	tbl.Rows = append(tbl.Rows, tbl.Rows[0]) // duplicate key is dropped

	fc := &fakeDDB{}
	n, err := PutPlayerRows(context.Background(), fc, "tbl", "run-1", tbl)
	if err != nil || n != 1 {
		t.Fatalf("PutPlayerRows = %d, %v", n, err)
	}
	item := fc.items[0]
	if pid := item["PlayerID"].(*types.AttributeValueMemberS).Value; pid != "playe00" {
		t.Errorf("PlayerID = %q", pid)
	}
	if hof := item["IsHOF"].(*types.AttributeValueMemberBOOL).Value; !hof {
		t.Error("IsHOF should be true")
	}
	stats := item["Stats"].(*types.AttributeValueMemberM).Value
	if from := stats["from"].(*types.AttributeValueMemberS).Value; from != "1990" {
		t.Errorf("Stats[from] = %q", from)
	}
	if run := item["RunID"].(*types.AttributeValueMemberS).Value; run != "run-1" {
		t.Errorf("RunID = %q", run)
	}
}

func TestPutPlayerRows_Empty(t *testing.T) {
	fc := &fakeDDB{}
	if n, err := PutPlayerRows(context.Background(), fc, "tbl", "", &bref.PlayerTable{}); err != nil || n != 0 {
		t.Fatalf("PutPlayerRows = %d, %v", n, err)
	}
	if fc.calls != 0 {
		t.Errorf("calls = %d, want 0", fc.calls)
	}
}
