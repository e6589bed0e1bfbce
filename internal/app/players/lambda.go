package players

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/tyler180/bball-reference-scrapers/internal/bref"
	"github.com/tyler180/bball-reference-scrapers/internal/config"
)

// LambdaEntrypoint is the single Lambda handler exported from this package.
func LambdaEntrypoint(ctx context.Context, raw Raw) (string, error) {
	var e Event
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &e); err != nil {
			return "", fmt.Errorf("decode event: %w", err)
		}
	}

	cfg, err := config.FromEnv()
	if err != nil {
		return "", err
	}
	// event overrides apply to this invocation only; warm lambdas must not keep them
	if cfg, err = applyEvent(cfg, e); err != nil {
		return "", err
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("aws config: %w", err)
	}
	sinks := Sinks{
		DDB:    dynamodb.NewFromConfig(awsCfg),
		Athena: athena.NewFromConfig(awsCfg),
	}
	if cfg.S3Bucket != "" {
		sinks.S3 = s3.NewFromConfig(awsCfg)
	}
	return Handle(ctx, New(cfg, sinks), e)
}

// Handle dispatches on Event.Mode.
func Handle(ctx context.Context, svc *Service, e Event) (string, error) {
	mode := strings.TrimSpace(e.Mode)
	if mode == "" {
		mode = ModeIngest
	}
	switch mode {
	case ModeIngest:
		save := e.Save != nil && *e.Save
		res, err := svc.Ingest(ctx, save)
		if err != nil {
			return "", err
		}
		b, err := json.Marshal(res)
		if err != nil {
			return "", err
		}
		return string(b), nil
	case ModeRegister:
		return svc.RegisterAthena(ctx)
	default:
		return "", fmt.Errorf("unknown mode %q", mode)
	}
}

func applyEvent(cfg config.Config, e Event) (config.Config, error) {
	if strings.TrimSpace(e.Letters) != "" {
		cfg.Letters = config.ParseLetters(e.Letters)
	}
	if strings.TrimSpace(e.Policy) != "" {
		p, ok := bref.ParseFailurePolicy(e.Policy)
		if !ok {
			return cfg, fmt.Errorf("unknown policy %q", e.Policy)
		}
		cfg.Policy = p
	}
	return cfg, nil
}
