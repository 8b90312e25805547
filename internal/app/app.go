package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/GoArmGo/StudentRegistry/internal/config"
	"github.com/GoArmGo/StudentRegistry/internal/core/ports"
	"github.com/GoArmGo/StudentRegistry/internal/usecase"
)

// Режимы запуска.
const (
	ModeServer = "server"
	ModeWorker = "worker"
	ModeSeed   = "seed"
)

// Deps - всё, что собирает контейнер зависимостей.
type Deps struct {
	Config    *config.Config
	Logger    *slog.Logger
	Auth      usecase.AuthUseCase
	Admin     usecase.AdminUseCase
	Lifecycle *usecase.Lifecycle
	Health    ports.HealthChecker
	// Consumer равен nil, если очередь не настроена.
	Consumer ports.QRCodeJobConsumer
}

type closer struct {
	name  string
	close func() error
}

type App struct {
	config    *config.Config
	logger    *slog.Logger
	auth      usecase.AuthUseCase
	admin     usecase.AdminUseCase
	lifecycle *usecase.Lifecycle
	health    ports.HealthChecker
	consumer  ports.QRCodeJobConsumer
	closers   []closer
}

func NewApp(deps Deps) *App {
	return &App{
		config:    deps.Config,
		logger:    deps.Logger,
		auth:      deps.Auth,
		admin:     deps.Admin,
		lifecycle: deps.Lifecycle,
		health:    deps.Health,
		consumer:  deps.Consumer,
	}
}

// OnShutdown регистрирует ресурс, закрываемый при завершении (в обратном порядке).
func (a *App) OnShutdown(name string, fn func() error) {
	a.closers = append(a.closers, closer{name: name, close: fn})
}

// LoggerIns возвращает основной логгер приложения.
func (a *App) LoggerIns() *slog.Logger {
	return a.logger
}

// Run запускает приложение в выбранном режиме и блокируется до SIGINT/SIGTERM.
func (a *App) Run(ctx context.Context, mode string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.logger.Info("starting", "mode", mode)

	var err error
	switch mode {
	case ModeServer:
		err = a.runServer(ctx)
	case ModeWorker:
		err = a.runWorker(ctx)
	case ModeSeed:
		err = a.runSeed(ctx)
	default:
		err = fmt.Errorf("unknown mode %q (use %q, %q or %q)", mode, ModeServer, ModeWorker, ModeSeed)
	}

	if closeErr := a.Shutdown(); closeErr != nil {
		a.logger.Error("shutdown finished with errors", "error", closeErr)
	}
	return err
}

// Shutdown закрывает все зарегистрированные ресурсы.
func (a *App) Shutdown() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", c.name, err))
			continue
		}
		a.logger.Debug("resource closed", "name", c.name)
	}
	a.closers = nil
	return errors.Join(errs...)
}
