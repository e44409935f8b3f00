package main

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	err := godotenv.Load()
	if os.IsNotExist(err) {
		log.Printf("no .env file found, skipping")
	} else if err != nil {
		log.Fatalf("failed loading .env file: %s", err)
	}

	app := cli.NewApp()
	app.Name = "galleryserver"
	app.Usage = "Photo gallery web front end."
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:     "api-base-url",
			Usage:    "base url of the gallery backend api",
			EnvVars:  []string{"GALLERY_API_BASE_URL"},
			Required: true,
		},
		&cli.DurationFlag{
			Name:    "http-timeout",
			Value:   30 * time.Second,
			Usage:   "timeout of a single backend request",
			EnvVars: []string{"GALLERY_HTTP_TIMEOUT"},
		},
	}
	app.Commands = []*cli.Command{
		{
			Name:   "serve",
			Usage:  "run the web server",
			Flags:  serveFlags(),
			Action: serve,
		},
		usersCommand(),
	}
	app.DefaultCommand = "serve"

	err = app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func serveFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "port",
			Value:   8080,
			Usage:   "port to run server on",
			EnvVars: []string{"GALLERY_PORT"},
		},
		&cli.StringFlag{
			Name:    "data-directory",
			Value:   "./data",
			Usage:   "data directory where the thumbnail cache is stored",
			EnvVars: []string{"GALLERY_DATA_DIR"},
		},
		&cli.StringFlag{
			Name:     "jwt-secret",
			Usage:    "secret used to sign session cookies",
			EnvVars:  []string{"GALLERY_JWT_SECRET"},
			Required: true,
		},
	}
}

func serve(ctx *cli.Context) error {
	handler, err := newServer(config{
		APIBaseURL:  ctx.String("api-base-url"),
		DataDir:     ctx.String("data-directory"),
		JWTSecret:   ctx.String("jwt-secret"),
		HTTPTimeout: ctx.Duration("http-timeout"),
	})
	if err != nil {
		return err
	}
	defer handler.Close()

	// Start HTTP handler.
	quit := make(chan os.Signal, 2)
	var wg sync.WaitGroup
	wg.Add(1)

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(ctx.Int("port")),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		defer wg.Done()

		slog.Info("serving", "address", server.Addr, "api", ctx.String("api-base-url"))

		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "failed to start server: %s\n", err)
			quit <- os.Interrupt
		}
	}()

	signal.Notify(
		quit,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGHUP,
	)
	<-quit

	slog.Info("Server shutting down...")

	go server.Close()

	wg.Wait()
	return nil
}
