package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"class_newsletter_writer/app"
	"class_newsletter_writer/config"
	"class_newsletter_writer/generator"
	"class_newsletter_writer/logging"
	"class_newsletter_writer/profile"
	"class_newsletter_writer/publisher"
	"class_newsletter_writer/workbook"
)

var (
	configPath string
	appConfig  *config.Config
	logger     *logging.Logger
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "newsletter",
		Short: "Turn bullet memos into a class newsletter paragraph",
		Long: `newsletter drafts Japanese class newsletters (学級通信) from short memos.

Memos are scrubbed of names, contacts and school names before they reach the
model. The result is written into the selected workbook cell, optionally in
the teacher's own style learned from past newsletters.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			appConfig, err = config.Load(configPath)
			if err != nil {
				return err
			}
			logger, err = logging.New(appConfig.LogMode)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (default ~/.config/class-newsletter/config.yaml)")
	addCommands(root)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runtime is everything one command invocation needs.
type runtime struct {
	cfg   *config.Config
	store profile.KVStore
	props *profile.Properties
	wb    *workbook.MemoryWorkbook
	svc   *app.Service
}

func (r *runtime) Close() {
	if r.store != nil {
		_ = r.store.Close()
	}
}

func setup(ctx context.Context) (*runtime, error) {
	return build(ctx, appConfig, logger)
}

func build(ctx context.Context, cfg *config.Config, log *logging.Logger) (*runtime, error) {
	if log == nil {
		log = logging.Nop()
	}
	store, err := buildStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, store: store}

	rt.props = profile.NewProperties(store, cfg.User)
	if cfg.LLM.APIKey != "" {
		if err := rt.props.SeedSharedCredential(ctx, cfg.LLM.APIKey); err != nil {
			rt.Close()
			return nil, fmt.Errorf("seed shared credential: %w", err)
		}
	}

	llm, err := buildLLM(cfg.LLM, rt.props, log)
	if err != nil {
		rt.Close()
		return nil, err
	}
	agent, err := generator.NewAgent(llm, log.With("component", "generator"))
	if err != nil {
		rt.Close()
		return nil, err
	}

	rt.wb, err = workbook.LoadFile(cfg.Workbook.Path)
	if err != nil {
		rt.Close()
		return nil, err
	}
	if len(rt.wb.Sheets()) == 0 {
		if _, err := rt.wb.InsertSheet("Sheet1"); err != nil {
			rt.Close()
			return nil, err
		}
	}
	pub, err := publisher.New(rt.wb, log.With("component", "publisher"))
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.svc, err = app.New(rt.props, agent, rt.wb, pub, log.With("component", "app"))
	if err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func buildStore(ctx context.Context, cfg config.StoreConfig) (profile.KVStore, error) {
	switch cfg.Driver {
	case "memory":
		return profile.NewMemoryStore(), nil
	case "sqlite", "":
		return profile.NewSQLiteStore(cfg.SQLitePath)
	case "redis":
		return profile.NewRedisStore(ctx, profile.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	default:
		return nil, fmt.Errorf("store driver %s not supported", cfg.Driver)
	}
}

func buildLLM(cfg config.LLMConfig, creds generator.CredentialSource, log *logging.Logger) (generator.LLMClient, error) {
	settings := &generator.LLMSettings{
		Provider: cfg.Provider,
		Model:    cfg.Model,
		BaseURL:  cfg.BaseURL,
		Timeout:  time.Duration(cfg.TimeoutSec) * time.Second,
	}
	switch cfg.Provider {
	case "gemini", "":
		return generator.NewGeminiLLM(settings, creds, log.With("component", "gemini"))
	case "genai":
		return generator.NewGenAILLM(settings, creds)
	case "openai":
		return generator.NewOpenAILLMFromConfig(settings, creds)
	case "deepseek":
		// DeepSeek exposes an OpenAI compatible endpoint; base_url is mandatory.
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
		return generator.NewOpenAILLMFromConfig(settings, creds)
	case "mock":
		return generator.MockLLM{}, nil
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.Provider)
	}
}
