package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/chainguard-dev/malcontent-action/internal/config"
	"github.com/chainguard-dev/malcontent-action/internal/github"
	"github.com/chainguard-dev/malcontent-action/internal/logging"
	"github.com/chainguard-dev/malcontent-action/internal/scanner"
)

type appKey struct{}

type App struct {
	Config     config.Config
	RepoConfig config.RepoConfig
	GH         *github.Client
	Scanner    *scanner.Scanner
	Exec       scanner.ExecRunner
	Log        *zap.SugaredLogger
}

func withApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appKey{}, app)
}

func getApp(ctx context.Context) (*App, error) {
	app, ok := ctx.Value(appKey{}).(*App)
	if !ok || app == nil {
		return nil, fmt.Errorf("internal error: app not initialized")
	}
	return app, nil
}

func initApp(configPath string, debug bool) (*App, error) {
	cfg, repoCfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logging.New(debug)
	if err != nil {
		return nil, err
	}

	var ghRunner github.Runner = github.RealRunner{}
	var execRunner scanner.ExecRunner = scanner.RealExecRunner{}
	if os.Getenv("MALACT_MOCK") == "1" {
		fixtures := os.Getenv("MALACT_MOCK_DIR")
		if fixtures == "" {
			fixtures = filepath.Join("testdata", "gh")
		}
		ghRunner = github.NewFixtureRunner(fixtures)

		payload := os.Getenv("MALACT_SCANNER_FIXTURE")
		if payload == "" {
			payload = filepath.Join("testdata", "payloads", "current.json")
		}
		execRunner = FakeExecRunner{PayloadPath: payload}
	}

	return &App{
		Config:     cfg,
		RepoConfig: repoCfg,
		GH:         github.NewClient(ghRunner),
		Scanner: scanner.New(scanner.Config{
			Command:   cfg.Scanner.Command,
			Args:      cfg.Scanner.Args,
			Image:     cfg.Scanner.Image,
			UseDocker: cfg.Scanner.UseDocker,
			MinRisk:   cfg.Scanner.MinRisk,
		}, execRunner),
		Exec: execRunner,
		Log:  log,
	}, nil
}
