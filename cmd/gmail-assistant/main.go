// Gmail assistant serves a chat interface over a Gmail inbox: REST for the
// web UI and MCP for agent clients.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/inboxly/gmail-assistant/internal/ai"
	"github.com/inboxly/gmail-assistant/internal/auth"
	"github.com/inboxly/gmail-assistant/internal/chatbot"
	"github.com/inboxly/gmail-assistant/internal/config"
	"github.com/inboxly/gmail-assistant/internal/gservice"
	"github.com/inboxly/gmail-assistant/internal/httpapi"
	"github.com/inboxly/gmail-assistant/internal/mailbox"
	"github.com/inboxly/gmail-assistant/internal/session"
	"github.com/inboxly/gmail-assistant/internal/tool"
)

func main() {
	httpAddr := flag.String("http-addr", "localhost:8000", "HTTP server listen addr")
	configFile := flag.String("config", "", "Path to config file (YAML)")
	envFileParam := flag.String("env-file", "", "Path to env file")
	oauthURLParam := flag.String("oauth-url", "", "OAuth callback URL override")
	enableStdio := flag.Bool("stdio", false, "Enable stdio transport for MCP (disables stdout logging)")
	logFile := flag.String("log-file", "", "Path to log file (only used with stdio transport, otherwise logs to stdout)")

	flag.Parse()

	persistLogs := setupLogger(enableStdio, logFile)
	defer persistLogs()

	if envFileParam != nil && *envFileParam != "" {
		if err := godotenv.Load(*envFileParam); err != nil {
			panic(fmt.Errorf("godotenv.Load failed: %w", err))
		}
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Errorf("config.Load failed: %w", err))
	}

	ln := mustListen(httpAddr)
	oauthCfg := mustCreateOauthCfg(ln.Addr().String(), oauthURLParam)

	store, err := session.NewStore(cfg.DBPath)
	if err != nil {
		panic(fmt.Errorf("session.NewStore failed: %w", err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Println(fmt.Errorf("store.Close failed: %w", err))
		}
	}()

	gmailSvc := gservice.NewGmail(oauthCfg)
	authSvc := auth.NewService(oauthCfg, store, gmailSvc)
	mbx := mailbox.NewService(gmailSvc)

	aiClient := ai.NewClient(mustEnv("GROQ_API_KEY"), ai.Options{
		BaseURL:     cfg.AI.BaseURL,
		Model:       cfg.AI.Model,
		MaxTokens:   cfg.AI.MaxTokens,
		Temperature: cfg.AI.Temperature,
	})

	bot := chatbot.NewBot(
		authSvc,
		authSvc,
		chatbot.NewDispatcher(mbx, aiClient, cfg.Chat.DefaultMaxResults),
		chatbot.NewExtractor(cfg.Chat.DefaultMaxResults, cfg.Chat.MaxResultsCeiling),
	)

	mux := http.NewServeMux()
	auth.NewHTTPHandler(authSvc, cfg.FrontendURL).Register(mux)
	httpapi.NewHandler(bot, authSvc, mbx, aiClient, cfg.Chat.DefaultMaxResults, cfg.Chat.MaxResultsCeiling).Register(mux)

	mcpSrv := tool.NewServer(bot, authSvc, mbx, cfg.Chat.DefaultMaxResults)
	mcpHTTP := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server { return mcpSrv }, nil)
	mux.Handle("/mcp", mcpHTTP)

	srv := &http.Server{
		Handler: mux,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGTERM, syscall.SIGINT)

	stopHTTP, errHTTPCh := serveHTTP(srv, ln)
	defer stopHTTP()

	var errStdioCh <-chan error
	if *enableStdio {
		var stopStdio func()
		stopStdio, errStdioCh = serveStdio(mcpSrv)
		defer stopStdio()
	}

	select {
	case err := <-errHTTPCh:
		log.Println("Error http server", err)
	case err := <-errStdioCh:
		log.Println("Error stdio", err)
	case <-shutdown:
		log.Println("Shutdown signal received")
	}
}

func serveStdio(srv *mcp.Server) (func(), <-chan error) {
	errStdioCh := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer close(errStdioCh)
		log.Println("Starting stdio transport")

		if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil {
			err = fmt.Errorf("srv.Run failed: %w", err)
			errStdioCh <- err
		}
	}()

	return func() {
		cancel()

		<-errStdioCh
		log.Println("Stdio transport stopped")
	}, errStdioCh
}

func serveHTTP(srv *http.Server, ln net.Listener) (func(), <-chan error) {
	errHTTPCh := make(chan error, 1)
	go func() {
		defer close(errHTTPCh)

		log.Println("Starting http server on", ln.Addr().String())

		err := srv.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			err = fmt.Errorf("srv.Serve failed: %w", err)
			log.Println(err)
			errHTTPCh <- err
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Println(fmt.Errorf("srv.Shutdown failed: %w", err))
		}

		<-errHTTPCh
		log.Println("HTTP server stopped")
	}, errHTTPCh
}

func mustListen(httpAddr *string) net.Listener {
	if httpAddr == nil {
		panic("-http-addr must be provided")
	}

	ln, err := net.Listen("tcp", *httpAddr)
	if err != nil {
		panic(fmt.Errorf("net.Listen failed: %w", err))
	}

	return ln
}

func mustCreateOauthCfg(lnAddr string, oauthURLParam *string) *oauth2.Config {
	oauthURL := fmt.Sprintf("http://%s/api/auth/google/callback", lnAddr)
	if oauthURLParam != nil && *oauthURLParam != "" {
		oauthURL = *oauthURLParam
	}

	return &oauth2.Config{
		ClientID:     mustEnv("OAUTH_GOOGLE_CLIENT_ID"),
		ClientSecret: mustEnv("OAUTH_GOOGLE_CLIENT_SECRET"),
		RedirectURL:  oauthURL,
		Scopes:       auth.Scopes,
		Endpoint:     google.Endpoint,
	}
}

func mustEnv(name string) string {
	v := os.Getenv(name)
	if v == "" {
		panic(fmt.Sprintf("Env variable %s must be set", name))
	}
	return v
}

func setupLogger(enableStdio *bool, logFile *string) func() {
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			panic(fmt.Errorf("failed to open log file: %w", err))
		}
		log.SetOutput(f)

		return func() {
			if err := f.Close(); err != nil {
				log.Println(fmt.Errorf("f.Close failed: %w", err))
			}
		}
	}

	if *enableStdio {
		log.SetOutput(io.Discard)
	} else {
		log.SetOutput(os.Stdout)
	}

	return func() {}
}
