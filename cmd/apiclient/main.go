package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/webtemplate/internal/console"
	"github.com/angelmondragon/webtemplate/pkg/apiclient"
	"github.com/angelmondragon/webtemplate/pkg/config"
)

type headerFlags []string

func (h *headerFlags) String() string { return strings.Join(*h, ", ") }

func (h *headerFlags) Set(v string) error {
	if !strings.Contains(v, ":") {
		return fmt.Errorf("header %q must look like Name: value", v)
	}
	*h = append(*h, v)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr, nil))
}

// run performs one call and prints what the home page would display. It returns the
// process exit code: 0 on success, 1 on an API error, 2 on usage errors.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, doer apiclient.HTTPDoer) int {
	fs := flag.NewFlagSet("apiclient", flag.ContinueOnError)
	fs.SetOutput(stderr)

	method := fs.String("method", http.MethodGet, "HTTP method")
	data := fs.String("data", "", "request body (sent verbatim)")
	origin := fs.String("url", "", "API origin (overrides "+config.EnvAPIURL+")")
	basePath := fs.String("base-path", "", "base path (overrides "+config.EnvBasePath+")")
	var headers headerFlags
	fs.Var(&headers, "H", "extra header, repeatable (Name: value)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: apiclient [flags] <endpoint>")
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return 2
	}
	clientCfg := cfg.Client
	if *origin != "" {
		clientCfg.APIURL = *origin
	}
	if *basePath != "" {
		clientCfg.BasePath = *basePath
	}

	opts := apiclient.RequestOptions{Method: strings.ToUpper(*method), Header: http.Header{}}
	for _, h := range headers {
		name, value, _ := strings.Cut(h, ":")
		opts.Header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	if *data != "" {
		opts.Body = strings.NewReader(*data)
	}

	client := apiclient.New(clientCfg, apiclient.WithHTTPClient(doer))
	result, err := client.Do(ctx, fs.Arg(0), opts)

	fmt.Fprintln(stdout, console.Render(result, err))
	if err != nil {
		return 1
	}
	return 0
}
