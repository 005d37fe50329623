package main

import (
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/cbodonnell/chatline/pkg/console"
	"github.com/cbodonnell/chatline/pkg/endpoint"
	"github.com/cbodonnell/chatline/pkg/log"
	"github.com/cbodonnell/chatline/pkg/network"
	"github.com/cbodonnell/chatline/pkg/session"
	"github.com/cbodonnell/chatline/pkg/version"
	"github.com/urfave/cli/v2"
)

const (
	exitCodeFailure = 1
	exitCodeUsage   = 2
)

func main() {
	app := newApp(os.Stdin, os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		os.Exit(exitCodeFailure)
	}
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "chatline",
		Usage:     "chat with a remote peer over a line-oriented connection",
		UsageText: "chatline [options] <host:port>",
		Version:   version.Get(),
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   log.LogLevelWarn.String(),
				Usage:   "log level (error, warn, info, debug, trace)",
				EnvVars: []string{"CHATLINE_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "transport",
				Value:   string(network.TransportTCP),
				Usage:   "transport used to reach the peer (tcp, ws)",
				EnvVars: []string{"CHATLINE_TRANSPORT"},
			},
			&cli.StringFlag{
				Name:    "ws-path",
				Value:   network.DefaultWSPath,
				Usage:   "request path for the ws transport",
				EnvVars: []string{"CHATLINE_WS_PATH"},
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "disable colored output",
			},
		},
		Action: run,
	}
}

func run(cCtx *cli.Context) error {
	con := console.New(cCtx.App.Writer, cCtx.App.ErrWriter)
	if cCtx.Bool("no-color") {
		con.DisableColor()
	}

	if cCtx.NArg() != 1 {
		con.Error("Usage: %s", cCtx.App.UsageText)
		return cli.Exit("", exitCodeUsage)
	}

	level, err := log.ParseLogLevel(cCtx.String("log-level"))
	if err != nil {
		con.Error("Invalid log level: %v", err)
		return cli.Exit("", exitCodeUsage)
	}
	log.SetDefaultLogger(log.New(cCtx.App.ErrWriter, "", log.DefaultLoggerFlag, level))
	log.Debug("Starting chatline version %s", version.Get())

	transport, err := network.ParseTransport(cCtx.String("transport"))
	if err != nil {
		con.Error("Invalid transport: %v", err)
		return cli.Exit("", exitCodeUsage)
	}

	e, err := endpoint.Parse(cCtx.Args().First())
	if err != nil {
		con.Error("Invalid address: %v", err)
		return cli.Exit("", exitCodeUsage)
	}

	connector := network.NewConnector(network.NewConnectorOptions{
		Transport: transport,
		WSPath:    cCtx.String("ws-path"),
	})
	conn, err := connector.Dial(cCtx.Context, e)
	if err != nil {
		var connectErr *network.ConnectError
		if errors.As(err, &connectErr) {
			err = connectErr.Err
		}
		con.Error("Failed to connect: %v", err)
		return cli.Exit("", exitCodeFailure)
	}

	con.Notice("Connected to %s", e)
	con.Notice("Type your message and press Enter. Use %s to exit.", session.DefaultExitToken)

	s := session.NewSession(session.NewSessionOptions{
		Conn:    conn,
		Input:   cCtx.App.Reader,
		Console: con,
	})

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	go s.HandleInterrupts(signals)
	defer func() {
		signal.Stop(signals)
		close(signals)
	}()

	if err := s.Run(); err != nil {
		log.Debug("Session %s failed: %v", s.ID(), err)
		return cli.Exit("", exitCodeFailure)
	}
	return nil
}
