// Castmate — a live commentary companion for one player's match.
//
// The game client posts state snapshots to the local webhook; castmate
// diffs them into events, prioritizes them, and speaks generated
// commentary over the single audio channel.
//
// Usage:
//
//	castmate [-verbose] [-quiet] [-no-speech] [-no-ai] [-write-config path]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/castmate/castmate/internal/classify"
	"github.com/castmate/castmate/internal/dispatch"
	"github.com/castmate/castmate/internal/domain"
	"github.com/castmate/castmate/internal/engine"
	"github.com/castmate/castmate/internal/gen"
	"github.com/castmate/castmate/internal/gsi"
	"github.com/castmate/castmate/internal/logger"
	"github.com/castmate/castmate/internal/speech"
	"github.com/castmate/castmate/internal/stats"
	"github.com/castmate/castmate/internal/track"
)

// config is read from CAST_* environment variables.
type config struct {
	Addr           string        `default:"127.0.0.1"`
	Port           int           `default:"3000"`
	AuthToken      string        `split_words:"true"`
	StaleAfter     time.Duration `split_words:"true" default:"30s"`
	QueueSize      int           `split_words:"true" default:"8"`
	Debounce       time.Duration `default:"300ms"`
	PreemptMargin  int           `split_words:"true" default:"50"`
	CacheSize      int           `split_words:"true" default:"128"`
	GenTimeout     time.Duration `split_words:"true" default:"10s"`
	MaxFailures    int           `split_words:"true" default:"3"`
	LowHealth      int           `split_words:"true" default:"30"`
	LowAmmo        int           `split_words:"true" default:"10"`
	CriticalHealth int           `split_words:"true" default:"15"`
}

func main() {
	_ = godotenv.Load()

	verbose := flag.Bool("verbose", false, "enable verbose/debug logging")
	quiet := flag.Bool("quiet", false, "disable all logging")
	logFile := flag.String("log-file", "", "file to write logs to (default: stderr)")
	noSpeech := flag.Bool("no-speech", false, "disable text-to-speech even if Azure keys are set")
	noAI := flag.Bool("no-ai", false, "disable the commentary model even if GPT keys are set")
	writeConfig := flag.String("write-config", "", "write the game client integration config to this path and exit")
	flag.Parse()

	var cfg config
	envconfig.MustProcess("cast", &cfg)

	logLevel := logger.LevelNormal
	if *verbose {
		logLevel = logger.LevelVerbose
	}
	if *quiet {
		logLevel = logger.LevelOff
	}

	var logOut io.Writer = os.Stderr
	if *logFile != "" && *logFile != "stderr" {
		dir := filepath.Dir(*logFile)
		if dir != "" && dir != "." {
			os.MkdirAll(dir, 0o755)
		}
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", *logFile, err)
		} else {
			logOut = f
			defer f.Close()
		}
	}

	// Third-party libs log through the stdlib logger; keep it on the
	// same output.
	stdlog.SetOutput(logOut)
	stdlog.SetFlags(stdlog.Ltime)

	log := logger.New(logLevel, logOut)

	webhookURI := fmt.Sprintf("http://%s:%d/", cfg.Addr, cfg.Port)

	if *writeConfig != "" {
		if err := gsi.WriteClientConfig(*writeConfig, webhookURI, cfg.AuthToken); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s\nCopy it into the game's cfg directory and restart the client.\n", *writeConfig)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Commentary generator: the chat model when configured, otherwise a
	// pass-through that speaks raw event descriptions.
	var generator domain.Generator

	gptKey := os.Getenv("GPT_CHAT_KEY")
	gptEndpoint := os.Getenv("GPT_CHAT_ENDPOINT")

	if gptKey != "" && gptEndpoint != "" && !*noAI {
		generator = gen.NewClient(gptEndpoint, gptKey, log.Scoped("gen"))
		log.Info("commentary model enabled")
	} else {
		generator = gen.NewStatic(log.Scoped("gen"))
		if !*noAI {
			log.Info("commentary model disabled: set GPT_CHAT_KEY and GPT_CHAT_ENDPOINT env vars to enable")
		}
	}

	// Speech output: Azure TTS through the local audio device when
	// configured, otherwise a logging speaker that simulates playback.
	var speaker domain.Speaker

	azureKey := os.Getenv(speech.EnvAzureSpeechKey)
	azureRegion := os.Getenv(speech.EnvAzureSpeechRegion)

	if azureKey != "" && azureRegion != "" && !*noSpeech {
		tts := speech.NewAzureClient(azureKey, azureRegion, log.Scoped("tts"))
		player, err := speech.NewPlayer(log.Scoped("audio"))
		if err != nil {
			log.Error("audio player init failed, speech disabled: %v", err)
			speaker = speech.NewNoOp(log.Scoped("speech"))
		} else {
			speaker = speech.NewSpeaker(tts, player, log.Scoped("speech"))
			log.Info("TTS enabled (voice=%s, region=%s)", speech.DefaultVoice, azureRegion)
		}
	} else {
		speaker = speech.NewNoOp(log.Scoped("speech"))
		if !*noSpeech {
			log.Info("TTS disabled: set %s and %s env vars to enable", speech.EnvAzureSpeechKey, speech.EnvAzureSpeechRegion)
		}
	}

	// Pipeline wiring.
	session := stats.NewSession(time.Now())
	feed := gsi.NewFeed(log.Scoped("feed"))

	tracker := track.New(log.Scoped("track"),
		track.WithLowHealthThreshold(cfg.LowHealth),
		track.WithLowAmmoThreshold(cfg.LowAmmo),
	)
	classifier := classify.New(
		classify.WithCriticalHealthFloor(cfg.CriticalHealth),
	)
	cooldowns := classify.NewRegistry()

	dispatcher := dispatch.New(generator, speaker, log.Scoped("dispatch"),
		dispatch.WithCapacity(cfg.QueueSize),
		dispatch.WithDebounce(cfg.Debounce),
		dispatch.WithPreemptMargin(cfg.PreemptMargin),
		dispatch.WithCacheSize(cfg.CacheSize),
		dispatch.WithGenTimeout(cfg.GenTimeout),
		dispatch.WithMaxFailures(cfg.MaxFailures),
		dispatch.WithOnDispatch(func(ev domain.Event, prio domain.Priority, text string) {
			session.RecordSpoken()
			feed.Broadcast(ev, prio, text)
		}),
	)
	go dispatcher.Run(ctx)

	eng := engine.New(tracker, classifier, cooldowns, dispatcher, session, log.Scoped("engine"))

	server := gsi.NewServer(cfg.Addr, cfg.Port, eng, feed, log.Scoped("gsi"),
		gsi.WithAuthToken(cfg.AuthToken),
		gsi.WithStaleAfter(cfg.StaleAfter),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	log.Info("castmate up, webhook at %s", webhookURI)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received %s, shutting down", sig)
	case err := <-errCh:
		if err != nil {
			log.Error("server: %v", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("shutdown: %v", err)
	}
	cancel()
}
