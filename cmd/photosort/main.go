package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/google/uuid"

	"github.com/JaimeStill/photosort/internal/cache"
	"github.com/JaimeStill/photosort/internal/config"
	"github.com/JaimeStill/photosort/internal/pipeline"
	"github.com/JaimeStill/photosort/internal/reader"
	"github.com/JaimeStill/photosort/internal/rules"
	"github.com/JaimeStill/photosort/internal/vision"
	"github.com/JaimeStill/photosort/pkg/progress"
)

const modelStartTimeout = 20 * time.Minute

const statusRunning = "RUNNING"

func main() {
	input := flag.String("input", "", "directory of photos to classify")
	output := flag.String("output", "", "directory for the cache and classified copies")
	startModels := flag.Bool("start-models", false, "start stopped model versions and wait for them")
	stopModels := flag.Bool("stop-models", false, "stop both model versions after the run")
	flag.Parse()

	if *input == "" || *output == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed: ", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil)).
		With("run", uuid.NewString())

	logger.Info(
		"photosort starting",
		"input", *input,
		"output", *output,
		"workers", cfg.Workers,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *input, *output, *startModels, *stopModels); err != nil {
		logger.Error("photosort failed", "error", err)
		os.Exit(1)
	}

	logger.Info("photosort complete")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, input, output string, startModels, stopModels bool) error {
	visionCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithSharedConfigProfile(cfg.Vision.Profile),
	)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}

	readerCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithSharedConfigProfile(cfg.Vision.Profile),
		awsconfig.WithRegion(cfg.Reader.Region),
	)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}

	detector := vision.NewRekognition(visionCfg, logger)
	generator := reader.NewBedrock(readerCfg, cfg.Reader.ModelID, logger)

	for _, model := range []config.ModelConfig{cfg.Vision.Scale, cfg.Vision.Material} {
		if err := ensureRunning(ctx, detector, model, cfg.Vision.MinInferenceUnits, startModels); err != nil {
			return err
		}
	}

	if stopModels {
		defer func() {
			for _, model := range []config.ModelConfig{cfg.Vision.Scale, cfg.Vision.Material} {
				if err := detector.Stop(context.Background(), model.VersionArn); err != nil {
					logger.Warn("model stop failed", "version", model.VersionName, "error", err)
				}
			}
		}()
	}

	files, err := listFiles(input)
	if err != nil {
		return fmt.Errorf("list input files: %w", err)
	}

	rt := &pipeline.Runtime{
		Store:         cache.NewStore(output),
		Detector:      detector,
		Generator:     generator,
		ScaleModel:    cfg.Vision.Scale.VersionArn,
		MaterialModel: cfg.Vision.Material.VersionArn,
		ScaleRules:    rules.Scales(),
		MaterialRules: rules.Materials(),
		ReadingRules:  rules.Reading(),
		Prompt:        cfg.Reader.Prompt,
		InputDir:      input,
		OutputDir:     output,
		Workers:       cfg.Workers,
		Logger:        logger,
		Observer:      consoleObserver(),
	}

	return pipeline.Run(ctx, rt, files)
}

// ensureRunning gates the run on a model version being RUNNING, starting it
// first when requested.
func ensureRunning(ctx context.Context, detector *vision.Rekognition, model config.ModelConfig, units int32, start bool) error {
	status, err := detector.Status(ctx, model.ProjectArn, model.VersionName)
	if err != nil {
		return fmt.Errorf("model %s: %w", model.VersionName, err)
	}
	if status == statusRunning {
		return nil
	}
	if !start {
		return fmt.Errorf("model %s is %s; rerun with -start-models or start it manually", model.VersionName, status)
	}
	return detector.Start(ctx, model.ProjectArn, model.VersionArn, model.VersionName, units, modelStartTimeout)
}

func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}

// consoleObserver writes stage progress to stdout on a single rewritten
// line, the way a long batch run is followed from a terminal.
func consoleObserver() progress.Observer {
	return progress.Func(func(current, total int, message string) {
		fmt.Fprintf(os.Stdout, "\r%-70s", message)
		if current == total {
			fmt.Fprintln(os.Stdout)
		}
	})
}
