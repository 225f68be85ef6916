package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/kaku/internal/cli"
	"github.com/hyperjump/kaku/internal/generator"
	"github.com/hyperjump/kaku/internal/models"
	"github.com/hyperjump/kaku/pkg/utils"
	"go.uber.org/zap"
)

// httpTimeout covers the server's full retry budget.
const httpTimeout = 5 * time.Minute

type requestFlags struct {
	configPath string
	postType   string
	length     string
	language   string
	output     string
	serverURL  string
	debug      bool
}

func (f *requestFlags) register(fset *flag.FlagSet) {
	fset.StringVar(&f.configPath, "config", defaultConfigPath, "config file path")
	fset.StringVar(&f.postType, "type", string(models.DefaultPostType), "post type")
	fset.StringVar(&f.length, "length", string(models.DefaultLength), "post length: standard, long or short")
	fset.StringVar(&f.language, "language", string(models.DefaultLanguage), "output language")
	fset.StringVar(&f.output, "output", "text", "output format: text or json")
	fset.StringVar(&f.serverURL, "server", "", "kaku server URL (empty = call the services directly)")
	fset.BoolVar(&f.debug, "debug", false, "enable debug logging")
}

func (f *requestFlags) request(keywords string) postRequest {
	return postRequest{Keywords: keywords, PostType: f.postType, Length: f.length, Language: f.language}
}

// postRequest mirrors the server's JSON request body.
type postRequest struct {
	Keywords string `json:"keywords"`
	PostType string `json:"post_type"`
	Length   string `json:"length"`
	Language string `json:"language"`
}

func parseRequestArgs(name string, args []string, extra func(*flag.FlagSet)) (*requestFlags, string, cli.OutputFormat) {
	fset := flag.NewFlagSet(name, flag.ExitOnError)
	f := &requestFlags{}
	f.register(fset)
	if extra != nil {
		extra(fset)
	}
	fset.Usage = func() {
		fmt.Fprintf(fset.Output(), "Usage: kaku %s [flags] <keywords>\n\nKeywords are all remaining arguments joined by spaces.\n\n", name)
		fset.PrintDefaults()
	}
	_ = fset.Parse(argsReorder(fset, args))

	keywords := buildKeywords(fset.Args())
	if keywords == "" {
		fset.Usage()
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(f.output)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return f, keywords, format
}

// directGenerator builds a generator from local config for commands that run without a server.
func directGenerator(f *requestFlags) (*generator.Generator, *zap.Logger) {
	cfg, _, err := loadConfig(f.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewCLILogger(cfg.Debug || f.debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	return generator.FromConfig(cfg, logger), logger
}

func runGenerate() {
	var outFile string
	f, keywords, format := parseRequestArgs("generate", os.Args[2:], func(fset *flag.FlagSet) {
		fset.StringVar(&outFile, "out", "", "save the post text to this file (e.g. linkedin_post.txt)")
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		post *models.GeneratedPost
		err  error
	)
	if f.serverURL != "" {
		post, err = generateViaHTTP(ctx, f.serverURL, f.request(keywords))
	} else {
		gen, logger := directGenerator(f)
		defer logger.Sync()
		fmt.Fprintln(os.Stderr, "Searching the web and writing your post...")
		post, err = gen.GeneratePost(ctx, keywords, f.postType, f.length, f.language)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate post: %v\n", err)
		os.Exit(1)
	}

	if outFile != "" {
		if err := savePost(outFile, post); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to save post: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Saved post to %s\n", outFile)
	}
	if err := cli.WritePost(os.Stdout, post, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runPrompt() {
	f, keywords, format := parseRequestArgs("prompt", os.Args[2:], nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		preview *generator.Preview
		err     error
	)
	if f.serverURL != "" {
		preview, err = promptViaHTTP(ctx, f.serverURL, f.request(keywords))
	} else {
		gen, logger := directGenerator(f)
		defer logger.Sync()
		preview, err = gen.PreviewPost(ctx, keywords, f.postType, f.length, f.language)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build prompt: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WritePrompt(os.Stdout, preview, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runOptions() {
	fset := flag.NewFlagSet("options", flag.ExitOnError)
	output := fset.String("output", "text", "output format: text or json")
	_ = fset.Parse(os.Args[2:])
	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := cli.WriteOptions(os.Stdout, models.AvailableOptions(), format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func savePost(path string, post *models.GeneratedPost) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := cli.WritePostOnly(file, post); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func generateViaHTTP(ctx context.Context, serverURL string, req postRequest) (*models.GeneratedPost, error) {
	var post models.GeneratedPost
	if err := postJSON(ctx, endpoint(serverURL, "/api/v1/posts"), req, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func promptViaHTTP(ctx context.Context, serverURL string, req postRequest) (*generator.Preview, error) {
	var preview generator.Preview
	if err := postJSON(ctx, endpoint(serverURL, "/api/v1/prompt"), req, &preview); err != nil {
		return nil, err
	}
	return &preview, nil
}

func endpoint(serverURL, path string) string {
	return strings.TrimRight(serverURL, "/") + path
}

func postJSON(ctx context.Context, url string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	client := &http.Client{Timeout: httpTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(b, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
