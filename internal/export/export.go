// Package export writes JSON snapshots of every recipe to S3.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pageza/recipe-api/backend/internal/service"
	"github.com/pageza/recipe-api/backend/internal/types"
)

// PutObjectAPI is the part of the S3 client the exporter needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Result describes a written snapshot.
type Result struct {
	Bucket  string
	Key     string
	Recipes int
}

type Exporter struct {
	recipes service.IRecipeService
	client  PutObjectAPI
	bucket  string
	prefix  string
	log     *zap.Logger
	now     func() time.Time
}

func NewExporter(recipes service.IRecipeService, client PutObjectAPI, bucket, prefix string, log *zap.Logger) *Exporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Exporter{
		recipes: recipes,
		client:  client,
		bucket:  bucket,
		prefix:  prefix,
		log:     log.Named("export"),
		now:     time.Now,
	}
}

// Export uploads every recipe, in the API's response shape, as one JSON
// array.
func (e *Exporter) Export(ctx context.Context) (*Result, error) {
	recipes, err := e.recipes.ListRecipes(ctx, service.RecipeFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}

	body, err := json.MarshalIndent(types.NewRecipeListResponse(recipes), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode recipes: %w", err)
	}

	key := e.objectKey()
	_, err = e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", key, err)
	}

	e.log.Info("recipes exported",
		zap.String("bucket", e.bucket),
		zap.String("key", key),
		zap.Int("recipes", len(recipes)),
	)
	return &Result{Bucket: e.bucket, Key: key, Recipes: len(recipes)}, nil
}

func (e *Exporter) objectKey() string {
	name := fmt.Sprintf("recipes-%s-%s.json", e.now().UTC().Format("20060102T150405Z"), uuid.NewString())
	return path.Join(e.prefix, name)
}
