package ath

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
)

// API is the subset of *athena.Client the runner needs.
type API interface {
	StartQueryExecution(ctx context.Context, params *athena.StartQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error)
	GetQueryExecution(ctx context.Context, params *athena.GetQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error)
	GetQueryResults(ctx context.Context, params *athena.GetQueryResultsInput, optFns ...func(*athena.Options)) (*athena.GetQueryResultsOutput, error)
}

type Runner struct {
	Client    API
	Workgroup string
	Database  string
	OutputS3  string // s3://bucket/prefix/
	Poll      time.Duration
}

func (r *Runner) ExecAndWait(ctx context.Context, sql string) (*types.QueryExecution, error) {
	in := &athena.StartQueryExecutionInput{
		QueryString: aws.String(sql),
		QueryExecutionContext: &types.QueryExecutionContext{
			Database: aws.String(r.Database),
		},
	}
	if r.OutputS3 != "" {
		in.ResultConfiguration = &types.ResultConfiguration{OutputLocation: aws.String(r.OutputS3)}
	}
	if r.Workgroup != "" {
		in.WorkGroup = aws.String(r.Workgroup)
	}
	startOut, err := r.Client.StartQueryExecution(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("start query: %w", err)
	}
	qid := aws.ToString(startOut.QueryExecutionId)
	slog.Debug("athena query started", "qid", qid)

	poll := r.Poll
	if poll <= 0 {
		poll = time.Second
	}
	tick := time.NewTicker(poll)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-tick.C:
			ge, err := r.Client.GetQueryExecution(ctx, &athena.GetQueryExecutionInput{
				QueryExecutionId: aws.String(qid),
			})
			if err != nil {
				return nil, fmt.Errorf("get query execution: %w", err)
			}
			qe := ge.QueryExecution
			if qe == nil || qe.Status == nil {
				continue
			}
			switch qe.Status.State {
			case types.QueryExecutionStateSucceeded:
				var scannedMB, execSec float64
				if st := qe.Statistics; st != nil {
					if st.DataScannedInBytes != nil {
						scannedMB = float64(*st.DataScannedInBytes) / 1024.0 / 1024.0
					}
					if st.EngineExecutionTimeInMillis != nil {
						execSec = float64(*st.EngineExecutionTimeInMillis) / 1000.0
					}
				}
				slog.Info("athena query succeeded", "qid", qid, "scanned_mb", scannedMB, "exec_sec", execSec)
				return qe, nil
			case types.QueryExecutionStateFailed:
				return nil, errors.New("athena failed: " + aws.ToString(qe.Status.StateChangeReason))
			case types.QueryExecutionStateCancelled:
				return nil, errors.New("athena cancelled")
			}
		}
	}
}

// QueryInts runs sql and parses the first result row as integers.
func (r *Runner) QueryInts(ctx context.Context, sql string) ([]int64, error) {
	exec, err := r.ExecAndWait(ctx, sql)
	if err != nil {
		return nil, err
	}
	gr, err := r.Client.GetQueryResults(ctx, &athena.GetQueryResultsInput{
		QueryExecutionId: exec.QueryExecutionId,
	})
	if err != nil {
		return nil, fmt.Errorf("get results: %w", err)
	}
	// row 0 is the column header
	if gr.ResultSet == nil || len(gr.ResultSet.Rows) < 2 || len(gr.ResultSet.Rows[1].Data) == 0 {
		return nil, errors.New("unexpected result shape")
	}
	data := gr.ResultSet.Rows[1].Data
	out := make([]int64, len(data))
	for i, d := range data {
		if d.VarCharValue == nil {
			return nil, fmt.Errorf("column %d: null value", i)
		}
		if _, err := fmt.Sscan(*d.VarCharValue, &out[i]); err != nil {
			return nil, fmt.Errorf("parse column %d: %w", i, err)
		}
	}
	return out, nil
}

func (r *Runner) CountRows(ctx context.Context, table string) (int64, error) {
	vals, err := r.QueryInts(ctx, fmt.Sprintf("SELECT COUNT(*) AS c FROM %s", table))
	if err != nil {
		return 0, err
	}
	return vals[0], nil
}
