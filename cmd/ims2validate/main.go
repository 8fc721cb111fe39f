// Command ims2validate is the CLI entry point: it either validates one or
// more IMS2.0 request/subscription files concurrently and prints their
// canonical rendering, or serves the optional websocket front end. The
// bootstrap loads godotenv, sets up a TTY-conditional zerolog console
// writer honoring LOG_LEVEL, and wires signal-driven shutdown.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ctbto-nms/ims2parser/internal/parser"
	"github.com/ctbto-nms/ims2parser/internal/render"
	"github.com/ctbto-nms/ims2parser/internal/semantic"
	"github.com/ctbto-nms/ims2parser/internal/subscriptions"
	"github.com/ctbto-nms/ims2parser/internal/wsserver"
)

func main() {
	_ = godotenv.Load()

	if isatty.IsTerminal(os.Stdout.Fd()) {
		consoleWriter := zerolog.NewConsoleWriter()
		consoleWriter.FormatLevel = func(i interface{}) string {
			return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
		}
		log.Logger = zerolog.New(consoleWriter).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if len(os.Args) < 2 {
		log.Fatal().Msg("usage: ims2validate <validate FILE...|serve>")
	}

	switch os.Args[1] {
	case "validate":
		if err := runValidate(os.Args[2:]); err != nil {
			log.Fatal().Err(err).Msg("validation failed")
		}
	case "serve":
		runServe()
	default:
		log.Fatal().Str("command", os.Args[1]).Msg("unknown command")
	}
}

// runValidate parses and validates each file concurrently using an
// errgroup, and prints the canonical rendering for each. Directory
// arguments are scanned for IMS-looking files. The first failure is
// returned after all files have been attempted.
func runValidate(args []string) error {
	paths, err := expandPaths(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no files given")
	}

	results := make([]string, len(paths))
	var g errgroup.Group
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			rendered, err := validateFile(path)
			if err != nil {
				log.Error().Err(err).Str("file", path).Msg("validation failed")
				return err
			}
			results[i] = rendered
			return nil
		})
	}
	err = g.Wait()
	for i, path := range paths {
		if results[i] == "" {
			continue
		}
		fmt.Printf("== %s ==\n%s\n", path, results[i])
	}
	return err
}

// expandPaths flattens directory arguments into the IMS-looking files they
// contain, using the cheap sniff heuristic to skip unrelated files without
// raising a parse error for each one.
func expandPaths(args []string) ([]string, error) {
	var out []string
	for _, path := range args {
		info, statErr := os.Stat(path)
		if statErr != nil {
			return nil, statErr
		}
		if !info.IsDir() {
			out = append(out, path)
			continue
		}
		walkErr := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			data, err := os.ReadFile(p)
			if err != nil {
				return err
			}
			if ok, _ := parser.Sniff(data); ok {
				out = append(out, p)
			} else {
				log.Debug().Str("file", p).Msg("skipping non-IMS file")
			}
			return nil
		})
		if walkErr != nil {
			return nil, walkErr
		}
	}
	return out, nil
}

func validateFile(path string) (string, error) {
	data, readErr := os.ReadFile(path)
	if readErr != nil {
		return "", readErr
	}
	msg, parseErr := parser.Parse(data)
	if parseErr != nil {
		return "", parseErr
	}
	if msg.MsgInfo.Type == "subscription" {
		out, valErr := semantic.ValidateSubscription(msg, nil)
		if valErr != nil {
			return "", valErr
		}
		return render.Text(out), nil
	}
	out, valErr := semantic.Validate(msg, nil)
	if valErr != nil {
		return "", valErr
	}
	return render.Text(out), nil
}

func runServe() {
	addr := os.Getenv("IMS2_LISTEN_ADDR")
	if addr == "" {
		addr = ":8088"
	}

	reg := subscriptions.NewRegistry()
	if persist := os.Getenv("IMS2_SUBSCRIPTIONS_FILE"); persist != "" {
		reg.SetPersistenceFile(persist)
		if err := reg.Load(); err != nil {
			log.Fatal().Err(err).Msg("failed to load subscriptions")
		}
	}

	srv := wsserver.New(addr, reg)

	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info().Msg("shutting down")
		cancel()
	}()

	if err := srv.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("websocket server exited with error")
	}
	if err := reg.Close(); err != nil {
		log.Error().Err(err).Msg("failed to flush subscriptions on shutdown")
	}
}
