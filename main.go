package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"zoomimage/geom"
	"zoomimage/imagesource"
)

var (
	logLevelFlag = flag.String("log-level", "", "log level (debug, info, warn, error); overrides the config")
	startPage    = flag.Int("page", 0, "1-based page to open first")
)

// debugLog logs at debug level with slog key/value pairs
func debugLog(msg string, args ...any) {
	slog.Debug(msg, args...)
}

// setupLogger installs the default text logger at the configured level
func setupLogger(level string) *slog.Logger {
	lvl, err := parseLogLevel(level)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	if err != nil {
		logger.Warn("invalid log level, using info", "level", level)
	}
	return logger
}

// resolvePaths collects the images to show and the index to start from.
// A single image file opens its whole directory.
func resolvePaths(args []string, sortMethod int) ([]ImagePath, int, error) {
	if len(args) == 1 {
		if info, err := os.Stat(args[0]); err == nil && !info.IsDir() && !imagesource.IsArchiveExt(args[0]) {
			paths, err := collectImagesFromSameDirectory(args[0], sortMethod)
			if err != nil {
				return nil, 0, err
			}
			return paths, indexOfPath(paths, args[0]), nil
		}
	}
	paths, err := collectImages(args, sortMethod)
	return paths, 0, err
}

func run() error {
	flag.Parse()

	configResult := loadConfig()
	config := configResult.Config
	level := config.LogLevel
	if *logLevelFlag != "" {
		level = *logLevelFlag
	}
	logger := setupLogger(level)
	for _, warning := range configResult.Warnings {
		logger.Warn("config", "warning", warning)
	}

	paths, startIdx, err := resolvePaths(flag.Args(), config.SortMethod)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no image files specified")
	}
	if *startPage > 0 && *startPage <= len(paths) {
		startIdx = *startPage - 1
	}

	if err := InitGraphics(); err != nil {
		return fmt.Errorf("init graphics: %w", err)
	}

	maxSize := geom.IntSize{Width: config.PreviewMaxSize, Height: config.PreviewMaxSize}
	imageManager, err := NewImageManager(config.PreviewCacheSize, maxSize, config.PreloadCount, config.PreloadEnabled)
	if err != nil {
		return err
	}
	imageManager.SetPaths(paths)

	ebiten.SetWindowTitle("ZoomImage")
	ebiten.SetWindowSize(config.WindowWidth, config.WindowHeight)
	ebiten.SetWindowSizeLimits(minWidth, minHeight, -1, -1)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetFullscreen(config.Fullscreen)
	ebiten.SetScreenClearedEveryFrame(false)

	g, err := NewGame(config, configResult, imageManager, startIdx, logger)
	if err != nil {
		return err
	}
	logger.Info("starting", "images", len(paths), "start", startIdx+1, "config", configResult.Status)
	return ebiten.RunGame(g)
}

func main() {
	if err := run(); err != nil {
		slog.Error("zoomimage failed", "err", err)
		os.Exit(1)
	}
}
