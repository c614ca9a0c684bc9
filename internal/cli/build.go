package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/slidesmith/slidesmith/internal/renderer"
	"github.com/slidesmith/slidesmith/pkg/errors"
	"github.com/slidesmith/slidesmith/pkg/genimage"
	"github.com/slidesmith/slidesmith/pkg/pipeline"
	"github.com/slidesmith/slidesmith/pkg/schema"
	"github.com/slidesmith/slidesmith/pkg/version"
)

// buildCommand creates the build command.
func (c *CLI) buildCommand() *cobra.Command {
	var (
		output  string
		workers int
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "build <schema.json>",
		Short: "Generate assets and write the next version directory",
		Long: `Build reads a presentation schema, compares it against the previous
version, regenerates only the assets whose inputs changed, and writes a
complete new version directory. The "current" pointer moves only when every
asset succeeded.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if output != "" {
				cfg.Output = output
			}
			if workers > 0 {
				cfg.Workers = workers
			}
			return c.runBuild(cmd, cfg, args[0], noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "build output root (default from config)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "concurrent generation requests (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the generation byte cache")
	return cmd
}

func (c *CLI) runBuild(cmd *cobra.Command, cfg *Config, schemaPath string, noCache bool) error {
	ctx := cmd.Context()
	prog := newProgress(c.Logger)

	s, err := schema.Load(schemaPath)
	if err != nil {
		return err
	}
	c.Logger.Info("schema loaded", "deck", s.Meta.ShortName, "slides", len(s.Slides), "icons", len(s.Icons))

	model := s.AssetConfig.Model
	if cfg.API.Model != "" {
		model = cfg.API.Model
	}
	clientOpts := []genimage.Option{genimage.WithModel(model)}
	if cfg.API.BaseURL != "" {
		clientOpts = append(clientOpts, genimage.WithBaseURL(cfg.API.BaseURL))
	}
	client, err := genimage.NewClient(clientOpts...)
	if err != nil {
		return err
	}

	genCache := c.newCache(cfg, noCache)
	defer genCache.Close()

	runner, err := pipeline.New(pipeline.Options{
		BuildRoot:    cfg.BuildRoot(s.Meta.ShortName),
		Generator:    client,
		Workers:      cfg.Workers,
		Cache:        genCache,
		RendererHTML: renderer.IndexHTML(),
		Logger:       c.Logger,
	})
	if err != nil {
		return err
	}

	spinner := newSpinnerWithContext(ctx, "Generating assets...")
	spinner.Start()
	result, err := runner.Run(ctx, s)
	spinner.Stop()

	if err != nil {
		if result != nil && errors.Is(err, errors.ErrCodePartialBuild) {
			printWarning("Version %d written but not activated", result.Version)
			printStats(result.Stats.Reused, result.Stats.Regenerated, result.Stats.Failed)
			for _, f := range result.Failures {
				printDetail("%s: %v", f.Filename, errors.UserMessage(f.Err))
			}
			printFile(result.Dir)
		}
		return err
	}

	prog.done("Build finished")
	printSuccess("Version %d is now current", result.Version)
	printStats(result.Stats.Reused, result.Stats.Regenerated, 0)
	printFile(filepath.Join(result.Dir, version.IndexFileName))
	printNewline()
	printNextStep("Preview it", appName+" serve")
	return nil
}
