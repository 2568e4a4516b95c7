// cognitogate es el gateway de autenticación contra AWS Cognito.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	rdb "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/cognitogate/internal/cognito"
	"github.com/dropDatabas3/cognitogate/internal/config"
	"github.com/dropDatabas3/cognitogate/internal/http/controllers"
	"github.com/dropDatabas3/cognitogate/internal/http/router"
	svc "github.com/dropDatabas3/cognitogate/internal/http/services/auth"
	"github.com/dropDatabas3/cognitogate/internal/jwks"
	"github.com/dropDatabas3/cognitogate/internal/observability/logger"
	"github.com/dropDatabas3/cognitogate/internal/rate"
	"github.com/dropDatabas3/cognitogate/internal/token"
)

func main() {
	root := &cobra.Command{
		Use:           "cognitogate",
		Short:         "Authentication gateway for an AWS Cognito user pool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newSecretHashCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newServeCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP gateway",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cfgPath)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "config.yaml", "path to the YAML config file")
	return cmd
}

func runServe(cfgPath string) error {
	// .env es opcional: en deploy real las vars vienen del entorno.
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "cognitogate",
	})
	defer func() { _ = logger.Sync() }()
	log := logger.L()

	client := cognito.New(cognito.Config{
		Region:       cfg.Cognito.Region,
		ClientID:     cfg.Cognito.ClientID,
		ClientSecret: cfg.Cognito.ClientSecret,
		Timeout:      cfg.Cognito.Timeout,
	})
	hostedUI := cognito.NewHostedUI(cognito.HostedUIConfig{
		Domain:       cfg.Cognito.Domain,
		ClientID:     cfg.Cognito.ClientID,
		ClientSecret: cfg.Cognito.ClientSecret,
		RedirectURL:  cfg.Cognito.RedirectURL,
		Timeout:      cfg.Cognito.Timeout,
	})
	keys := jwks.New(cfg.JWKSURL(), cfg.Cognito.Timeout)
	verifier := token.New(keys, cfg.Issuer(), cfg.Cognito.ClientID)

	loginLimiter, forgotLimiter, err := buildLimiters(cfg)
	if err != nil {
		return err
	}

	services := svc.Services{
		Registration: svc.NewRegistrationService(svc.RegistrationDeps{Client: client}),
		Session:      svc.NewSessionService(svc.SessionDeps{Client: client}),
		Password:     svc.NewPasswordService(svc.PasswordDeps{Client: client}),
		Social:       svc.NewSocialService(svc.SocialDeps{HostedUI: hostedUI}),
		Profile:      svc.NewProfileService(svc.ProfileDeps{Client: client}),
	}
	ctrl := controllers.New(services, controllers.NewHealthController(keys))

	handler := router.New(router.Deps{
		Controllers:        ctrl,
		Verifier:           verifier,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		LoginLimiter:       loginLimiter,
		ForgotLimiter:      forgotLimiter,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("gateway listening",
			logger.String("addr", cfg.Server.Addr),
			logger.String("issuer", cfg.Issuer()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case sig := <-stop:
		log.Info("shutting down", logger.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("gateway stopped")
	return nil
}

// buildLimiters arma los limiters de login y forgot según config.
// Deshabilitado ⇒ (nil, nil): el middleware con limiter nil es passthrough.
func buildLimiters(cfg *config.Config) (rate.Limiter, rate.Limiter, error) {
	if !cfg.Rate.Enabled {
		return nil, nil, nil
	}

	loginWindow, err := time.ParseDuration(cfg.Rate.Login.Window)
	if err != nil {
		return nil, nil, fmt.Errorf("config: rate.login.window: %w", err)
	}
	forgotWindow, err := time.ParseDuration(cfg.Rate.Forgot.Window)
	if err != nil {
		return nil, nil, fmt.Errorf("config: rate.forgot.window: %w", err)
	}

	if cfg.Cache.Kind == "redis" {
		client := rdb.NewClient(&rdb.Options{
			Addr: cfg.Cache.Redis.Addr,
			DB:   cfg.Cache.Redis.DB,
		})
		prefix := cfg.Cache.Redis.Prefix
		login := rate.NewRedisLimiter(client, prefix+":login", cfg.Rate.Login.Limit, loginWindow)
		forgot := rate.NewRedisLimiter(client, prefix+":forgot", cfg.Rate.Forgot.Limit, forgotWindow)
		return login, forgot, nil
	}

	login := rate.NewMemoryLimiter(cfg.Rate.Login.Limit, loginWindow)
	forgot := rate.NewMemoryLimiter(cfg.Rate.Forgot.Limit, forgotWindow)
	return login, forgot, nil
}

func newSecretHashCmd() *cobra.Command {
	var clientID, clientSecret string

	cmd := &cobra.Command{
		Use:   "secret-hash <username>",
		Short: "Compute the Cognito SECRET_HASH for a username",
		Long: "Compute the SECRET_HASH that Cognito expects for app clients with a secret.\n" +
			"Useful for debugging raw API calls with curl.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			if clientID == "" {
				clientID = os.Getenv("COGNITO_CLIENT_ID")
			}
			if clientSecret == "" {
				clientSecret = os.Getenv("COGNITO_CLIENT_SECRET")
			}
			if clientID == "" || clientSecret == "" {
				return fmt.Errorf("client id and client secret are required (flags or COGNITO_CLIENT_ID/COGNITO_CLIENT_SECRET)")
			}
			fmt.Fprintln(cmd.OutOrStdout(), cognito.SecretHash(args[0], clientID, clientSecret))
			return nil
		},
	}
	cmd.Flags().StringVar(&clientID, "client-id", "", "app client id (default $COGNITO_CLIENT_ID)")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "app client secret (default $COGNITO_CLIENT_SECRET)")
	return cmd
}
