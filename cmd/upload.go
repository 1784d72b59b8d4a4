package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/zinc-sig/packhost/cmd/config"
	"github.com/zinc-sig/packhost/cmd/helpers"
	"github.com/zinc-sig/packhost/internal/hosting"
	"github.com/zinc-sig/packhost/internal/output"
)

var (
	uploadOptionFlags config.UploadOptionFlags
	uploadWebhook     config.WebhookConfig
)

var uploadCmd = &cobra.Command{
	Use:   "upload <pack.zip>",
	Short: "Upload a pack once and print the result as JSON",
	Long: `Resolve the configured hosting provider, upload the pack once and print
the outcome as JSON. Connected clients are not notified.

Exits non-zero when the provider cannot be resolved or the upload fails.`,
	Example: `  packhost upload build/pack.zip
  packhost upload build/pack.zip --upload-type minio --upload-option bucket=packs
  packhost upload build/pack.zip --webhook-url https://ci.example.com/hooks/pack`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	helpers.SetupUploadOptionFlags(uploadCmd, &uploadOptionFlags)
	helpers.SetupWebhookFlags(uploadCmd, &uploadWebhook)
}

func runUpload(cmd *cobra.Command, args []string) error {
	artifact := hosting.FileArtifact(args[0])
	if _, err := os.Stat(artifact.Path()); err != nil {
		return fmt.Errorf("pack not found: %w", err)
	}

	s, logger, err := helpers.LoadSettings(&globalFlags)
	if err != nil {
		return err
	}

	opts, err := helpers.BuildUploadOptions(s, &uploadOptionFlags)
	if err != nil {
		return err
	}

	provider, err := hosting.Resolve(s.Hosting(opts))
	if err != nil {
		return fmt.Errorf("failed to create hosting provider: %w", err)
	}

	webhookClient, _, err := helpers.SetupWebhook(s.Webhook, &uploadWebhook, logger)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if s.Upload.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Upload.Timeout)
		defer cancel()
	}

	start := time.Now()
	ok := provider.Upload(ctx, artifact)
	elapsed := time.Since(start)

	status := output.StatusUploaded
	if !ok {
		status = output.StatusFailed
	}
	result := output.NewResult(status, hosting.NameOf(provider), artifact.Path(), elapsed)
	if ok {
		result.URL = provider.PackURL()
		result.SHA1 = hosting.SHA1Of(provider)
	} else if err := hosting.LastErrorOf(provider); err != nil {
		result.Error = err.Error()
	} else {
		result.Error = "upload failed"
	}

	if webhookClient != nil {
		if err := webhookClient.Deliver(context.Background(), result); err != nil {
			result.WebhookError = err.Error()
			logger.Warn("webhook delivery failed", "err", err)
		} else {
			result.WebhookSent = true
		}
	}

	if err := output.Write(cmd.OutOrStdout(), result); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}

	if !ok {
		return fmt.Errorf("upload of %s failed", artifact.Path())
	}
	return nil
}
