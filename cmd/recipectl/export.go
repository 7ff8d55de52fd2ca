package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pageza/recipe-api/backend/config"
	"github.com/pageza/recipe-api/backend/internal/export"
)

func newExportCmd(a *app) *cobra.Command {
	var presign time.Duration

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Upload a JSON snapshot of all recipes to S3",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s3cfg, err := config.NewS3Config(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}

			res, err := export.NewExporter(a.recipeService(), s3cfg.Client, s3cfg.BucketName, s3cfg.Prefix, a.log).
				Export(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d recipes to s3://%s/%s\n", res.Recipes, res.Bucket, res.Key)

			if presign > 0 {
				url, err := s3cfg.GeneratePresignedURL(cmd.Context(), res.Key, presign)
				if err != nil {
					return fmt.Errorf("failed to presign %s: %w", res.Key, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), url)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&presign, "presign", 0, "also print a download URL valid for this long")
	return cmd
}
