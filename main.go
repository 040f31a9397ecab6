package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/mailbear/mailbear/config"
	"github.com/mailbear/mailbear/internal/engine"
	"github.com/mailbear/mailbear/internal/launchagent"
	"github.com/mailbear/mailbear/internal/logger"
	"github.com/mailbear/mailbear/internal/schedule"
	"github.com/mailbear/mailbear/internal/service"
	"github.com/mailbear/mailbear/internal/settings"
	"github.com/mailbear/mailbear/internal/state"
	"github.com/mailbear/mailbear/services/bear"
	"github.com/mailbear/mailbear/services/gmail"
	"github.com/mailbear/mailbear/services/notify"
)

// app holds the wired dependencies shared by the CLI commands.
type app struct {
	cfg      *config.Config
	log      logger.Logger
	settings *settings.Settings
	store    *state.Store
	notifier *notify.Manager
	engine   *engine.Engine
}

func buildApp(c *cli.Context) (*app, error) {
	cfg, err := config.InitConfig()
	if err != nil {
		return nil, err
	}
	if path := c.String("config"); path != "" {
		cfg.Paths.SettingsPath = path
	}
	if path := c.String("credentials"); path != "" {
		cfg.Paths.CredentialsPath = path
	}
	if path := c.String("token"); path != "" {
		cfg.Paths.TokenPath = path
	}
	if path := c.String("state"); path != "" {
		cfg.Paths.StatePath = path
	}

	appLogger := logger.NewAppLogger(cfg.Logger)
	appLogger.InitLogger()

	sets := settings.Load(cfg.Paths.SettingsPath, appLogger)
	store := state.New(cfg.Paths.StatePath, appLogger)
	notifier := notify.NewManager(sets, appLogger)

	auth := gmail.NewAuthenticator(gmail.AuthConfig{
		CredentialsPath: cfg.Paths.CredentialsPath,
		TokenPath:       cfg.Paths.TokenPath,
		UseSecureStore:  sets.SecureTokenStoreEnabled(),
		StoreName:       sets.SecureTokenStoreName(),
	}, appLogger)

	eng := engine.New(engine.Deps{
		Settings: sets,
		State:    store,
		Auth:     auth,
		Sink:     bear.NewClient(appLogger),
		Notifier: notifier,
		Log:      appLogger,
	})

	return &app{
		cfg:      cfg,
		log:      appLogger,
		settings: sets,
		store:    store,
		notifier: notifier,
		engine:   eng,
	}, nil
}

// signalContext cancels on the standard termination signals. The service
// command does not use it: the service loop installs its own handlers.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runCommand(c *cli.Context) error {
	a, err := buildApp(c)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if err := a.engine.Authenticate(ctx, false); err != nil {
		return err
	}

	if spec := c.String("schedule"); spec != "" {
		manager := schedule.NewManager(a.log)
		err := manager.Start("poll", spec, func() {
			a.engine.ProcessBatch(ctx, true, true)
		})
		if err != nil {
			return err
		}
		<-ctx.Done()
		manager.Stop()
		return nil
	}

	processed := a.engine.ProcessBatch(ctx, c.Bool("once"), true)
	a.log.Infof("processed %d emails", processed)
	return nil
}

func authCommand(c *cli.Context) error {
	a, err := buildApp(c)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if err := a.engine.Authenticate(ctx, c.Bool("force")); err != nil {
		return err
	}
	fmt.Println("Authentication successful.")
	return nil
}

func serviceRunCommand(c *cli.Context) error {
	a, err := buildApp(c)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := a.engine.Authenticate(ctx, false); err != nil {
		a.log.Errorf("initial authentication failed: %v", err)
	}

	svc := service.New(a.engine, a.settings, a.notifier, a.log)
	return svc.Run(ctx)
}

func newLaunchAgentManager(a *app) (*launchagent.Manager, error) {
	if !launchagent.IsSupported() {
		return nil, cli.Exit("service management via launchd is only available on macOS; use 'mailbear service run' directly", 1)
	}
	return launchagent.NewManager(a.log)
}

func main() {
	cliApp := &cli.App{
		Name:  "mailbear",
		Usage: "forward Gmail messages from chosen senders into Bear notes",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "settings file path", EnvVars: []string{"MAILBEAR_CONFIG"}},
			&cli.StringFlag{Name: "credentials", Usage: "OAuth client secret path", EnvVars: []string{"MAILBEAR_CREDENTIALS"}},
			&cli.StringFlag{Name: "token", Usage: "cached OAuth token path", EnvVars: []string{"MAILBEAR_TOKEN"}},
			&cli.StringFlag{Name: "state", Usage: "processed-message state path", EnvVars: []string{"MAILBEAR_STATE"}},
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "process emails once or on a polling loop",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "once", Usage: "run a single poll cycle and exit"},
					&cli.StringFlag{Name: "schedule", Usage: "cron expression driving poll cycles"},
				},
				Action: runCommand,
			},
			{
				Name:  "auth",
				Usage: "authenticate with Gmail",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Usage: "discard the cached token and re-run the consent flow"},
				},
				Action: authCommand,
			},
			{
				Name:  "config",
				Usage: "manage the settings file",
				Subcommands: []*cli.Command{
					{
						Name:  "init",
						Usage: "create a commented default settings file",
						Action: func(c *cli.Context) error {
							a, err := buildApp(c)
							if err != nil {
								return err
							}
							if err := a.settings.WriteDefault(); err != nil {
								return err
							}
							fmt.Printf("Created %s\n", a.cfg.Paths.SettingsPath)
							return nil
						},
					},
				},
			},
			{
				Name:  "state",
				Usage: "inspect or reset the processed-message state",
				Subcommands: []*cli.Command{
					{
						Name:  "list",
						Usage: "print processed message IDs",
						Action: func(c *cli.Context) error {
							a, err := buildApp(c)
							if err != nil {
								return err
							}
							ids := a.store.ProcessedIDs()
							if len(ids) == 0 {
								fmt.Println("No processed messages.")
								return nil
							}
							for _, id := range ids {
								fmt.Println(id)
							}
							return nil
						},
					},
					{
						Name:  "clear",
						Usage: "forget all processed message IDs",
						Action: func(c *cli.Context) error {
							a, err := buildApp(c)
							if err != nil {
								return err
							}
							a.store.Clear()
							fmt.Println("Processed-message state cleared.")
							return nil
						},
					},
				},
			},
			{
				Name:  "service",
				Usage: "run or manage the background service",
				Subcommands: []*cli.Command{
					{
						Name:   "run",
						Usage:  "run the service loop in the foreground",
						Action: serviceRunCommand,
					},
					{
						Name:  "install",
						Usage: "install the launchd agent",
						Action: func(c *cli.Context) error {
							a, err := buildApp(c)
							if err != nil {
								return err
							}
							manager, err := newLaunchAgentManager(a)
							if err != nil {
								return err
							}
							return manager.Install()
						},
					},
					{
						Name:  "uninstall",
						Usage: "remove the launchd agent",
						Action: func(c *cli.Context) error {
							a, err := buildApp(c)
							if err != nil {
								return err
							}
							manager, err := newLaunchAgentManager(a)
							if err != nil {
								return err
							}
							return manager.Uninstall()
						},
					},
					{
						Name:  "start",
						Usage: "start the installed agent",
						Action: func(c *cli.Context) error {
							a, err := buildApp(c)
							if err != nil {
								return err
							}
							manager, err := newLaunchAgentManager(a)
							if err != nil {
								return err
							}
							return manager.Start()
						},
					},
					{
						Name:  "stop",
						Usage: "stop the running agent",
						Action: func(c *cli.Context) error {
							a, err := buildApp(c)
							if err != nil {
								return err
							}
							manager, err := newLaunchAgentManager(a)
							if err != nil {
								return err
							}
							return manager.Stop()
						},
					},
					{
						Name:  "status",
						Usage: "show agent status",
						Action: func(c *cli.Context) error {
							a, err := buildApp(c)
							if err != nil {
								return err
							}
							manager, err := newLaunchAgentManager(a)
							if err != nil {
								return err
							}
							installed, loaded := manager.Status()
							fmt.Printf("installed: %t\nloaded: %t\n", installed, loaded)
							return nil
						},
					},
				},
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
