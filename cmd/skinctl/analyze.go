package main

import (
	"fmt"
	"io"

	"go-skin-inspector/internal/capture"
	"go-skin-inspector/internal/container"
	"go-skin-inspector/internal/media"
	"go-skin-inspector/internal/service"
	"go-skin-inspector/pkg/models"

	"github.com/spf13/cobra"
)

const disclaimer = "This is not a medical diagnosis. Consult a healthcare professional about any skin concern."

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <path|url>",
		Short: "Analyze a skin photo from a file, an http(s) URL or an azblob:// reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildContainer(container.Options{LocalFiles: true})
			if err != nil {
				return err
			}
			defer c.Shutdown()

			handle, err := c.Resolver().Resolve(args[0])
			if err != nil {
				return err
			}

			cfg := c.Config()
			img, err := service.LoadImage(cmd.Context(), handle, capture.UploadOptions{
				Normalize: media.NormalizeOptions{
					MaxDimension: cfg.UploadMaxDimension,
					MaxPixels:    cfg.UploadMaxPixels,
					Quality:      media.DefaultQuality,
				},
				MaxBytes: cfg.MaxRequestBodySize,
			})
			if err != nil {
				return err
			}

			if !opts.json {
				fmt.Fprintf(cmd.ErrOrStderr(), "Analyzing %s (%dx%d)...\n", handle.Name(), img.Width, img.Height)
			}
			result, err := c.Diagnosis().AnalyzeImage(cmd.Context(), img)
			if err != nil {
				return err
			}
			if opts.json {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			printDiagnosis(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func printDiagnosis(out io.Writer, r *models.DiagnosisResult) {
	fmt.Fprintf(out, "Result: %s\n", r.Condition.Name)
	fmt.Fprintf(out, "Confidence: %d%% (%s)\n", r.Confidence, r.ConfidenceBand())
	fmt.Fprintf(out, "Risk: %s\n", r.Condition.Risk)
	if r.Condition.NeedsMedicalAttention {
		fmt.Fprintln(out, "Please see a dermatologist about this.")
	}
	fmt.Fprintf(out, "Analyzed at: %s\n\n%s\n\n%s\n", r.Timestamp, r.Condition.Description, disclaimer)
}
