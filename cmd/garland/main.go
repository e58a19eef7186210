package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ayusman/garland/internal/app"
	"github.com/ayusman/garland/internal/capture"
	"github.com/ayusman/garland/internal/chime"
	"github.com/ayusman/garland/internal/config"
	"github.com/ayusman/garland/internal/detector"
	"github.com/ayusman/garland/internal/gesture"
	"github.com/ayusman/garland/internal/logging"
	"github.com/ayusman/garland/internal/metrics"
	"github.com/ayusman/garland/internal/scene"
	"github.com/ayusman/garland/internal/server"
	"github.com/ayusman/garland/internal/termview"
	"github.com/ayusman/garland/internal/tracker"
	"github.com/ayusman/garland/internal/tray"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "garland: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	terminal := cfg.Renderer == config.RendererTerminal
	logger, err := logging.New(logging.Options{
		Level: cfg.LogLevel,
		File:  cfg.LogFile,
		Quiet: terminal,
	})
	if err != nil {
		return err
	}
	log := logging.Component(logger, "main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := metrics.NewManager()

	preview := capture.NewPreview()
	defer preview.Close()

	var gate *capture.MotionGate
	if cfg.MotionGate {
		gate = capture.NewMotionGate(capture.GateConfig{
			Threshold: cfg.MotionThreshold,
			ActiveFPS: cfg.DetectFPS,
			IdleFPS:   cfg.IdleFPS,
		})
		defer gate.Close()
	}

	var player *chime.Player
	if cfg.Chime {
		player = chime.NewPlayer(logger)
		if err := player.Init(); err != nil {
			// Non-fatal, the session runs silently
			log.WithError(err).Warn("audio unavailable, chime disabled")
		}
		defer player.Close()
	}

	var menu *tray.Tray
	if cfg.Tray {
		menu = tray.New()
	}

	detectorConfig := detector.DefaultConfig()
	detectorConfig.ScriptPath = cfg.MediaPipeScript
	detectorConfig.PythonPath = cfg.Python

	sceneConfig := scene.DefaultConfig()
	sceneConfig.Seed = cfg.Seed
	sceneConfig.Particles.Count = cfg.ParticleCount

	a := app.New(app.Config{
		Camera:    capture.NewCamera(cfg.CameraID),
		LoadModel: detector.LoadMediaPipe(detectorConfig),
		DetectFPS: cfg.DetectFPS,
		Gate:      gate,
		Preview:   preview,
		Scene:     sceneConfig,
		RenderFPS: cfg.RenderFPS,
		Metrics:   m,
		Logger:    logger,
		OnGesture: func(prev, next gesture.Gesture) {
			if player != nil {
				player.OnGesture(prev, next)
			}
			if menu != nil {
				menu.SetLastGesture(next)
			}
		},
		OnStatus: func(s tracker.Status) {
			if menu != nil {
				menu.SetStatus(s)
			}
		},
	})
	log = log.WithField("session", a.ID().String())

	var renderers scene.Multi
	var hub *server.FrameHub
	if cfg.Addr != "" && cfg.Renderer != config.RendererNone {
		hub = server.NewFrameHub(server.HubConfig{
			Session: a.ID(),
			Layers:  a.Layers(),
			Colors:  a.Colors(),
			MaxFPS:  cfg.RenderFPS,
			Metrics: m,
			Logger:  logger,
		})
		renderers = append(renderers, hub)
	}
	if terminal {
		view, err := termview.NewTerminal(termview.WithStatus(func() string { return string(a.Status()) }))
		if err != nil {
			return err
		}
		defer view.Close()
		renderers = append(renderers, view)
		go func() {
			select {
			case <-view.Quit():
				cancel()
			case <-ctx.Done():
			}
		}()
	}
	a.SetRenderer(renderers)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.Run(gctx)
	})

	if cfg.Addr != "" {
		staticDir := cfg.StaticDir
		if staticDir == "" {
			staticDir = findWebDir()
		}
		if staticDir != "" {
			log.WithField("dir", staticDir).Info("serving static files")
		}
		srv := server.New(server.Config{
			StaticDir: staticDir,
			Source:    a,
			Preview:   preview,
			Hub:       hub,
			Metrics:   m,
			Logger:    logger,
		})
		g.Go(func() error {
			return srv.Run(gctx, cfg.Addr)
		})
	}

	if menu != nil {
		menu.OnToggle(a.SetEnabled)
		menu.OnQuit(cancel)
		menu.OnOpen(func() {
			if err := openBrowser(localURL(cfg.Addr)); err != nil {
				log.WithError(err).Warn("could not open browser")
			}
		})
		go func() {
			<-gctx.Done()
			menu.Quit()
		}()
		// systray needs the main goroutine
		menu.Run()
	}

	err = g.Wait()
	a.Stop()
	if err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error("garland stopped")
		return err
	}
	log.WithFields(logrus.Fields{"frames": a.Frames(), "status": a.Status()}).Info("garland stopped")
	return nil
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.garland/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".garland", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}

func localURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
