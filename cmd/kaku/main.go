// Package main is the kaku CLI entry point.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/kaku/internal/config"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/kaku/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// When the default path does not exist either, defaults plus the environment are used
// and the returned path is empty. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, fs.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "generate":
		runGenerate()
	case "prompt":
		runPrompt()
	case "options":
		runOptions()
	case "config":
		runConfig()
	case "version", "--version", "-v":
		fmt.Printf("kaku version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// argsReorder moves every flag (and its value) ahead of the keywords so that
// flag.Parse sees them. Go's flag package stops at the first non-flag argument,
// so "kaku generate remote --type Polls work --length short" would otherwise
// leave both flags in the keywords. Keyword order is preserved. fset decides
// which flags take a value; unknown flags are left for Parse to report.
// Everything after "--" is a keyword.
func argsReorder(fset *flag.FlagSet, args []string) []string {
	flags := make([]string, 0, len(args))
	var positionals []string
	terminated := false
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			positionals = append(positionals, args[i+1:]...)
			terminated = true
			break
		}
		if len(a) < 2 || a[0] != '-' {
			positionals = append(positionals, a)
			continue
		}
		flags = append(flags, a)
		name := strings.TrimLeft(a, "-")
		if strings.Contains(name, "=") {
			continue
		}
		f := fset.Lookup(name)
		if f == nil || isBoolFlag(f) {
			continue
		}
		if i+1 < len(args) {
			i++
			flags = append(flags, args[i])
		}
	}
	if terminated {
		flags = append(flags, "--")
	}
	return append(flags, positionals...)
}

func isBoolFlag(f *flag.Flag) bool {
	bf, ok := f.Value.(interface{ IsBoolFlag() bool })
	return ok && bf.IsBoolFlag()
}

// buildKeywords joins all positional args with spaces so multi-word keywords
// work the same with or without shell quoting.
func buildKeywords(args []string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(strings.Join(args, " ")), " "))
}

func runConfig() {
	if len(os.Args) < 3 || os.Args[2] != "init" {
		fmt.Println("Usage: kaku config init [--path FILE] [--force]")
		os.Exit(1)
	}
	fset := flag.NewFlagSet("config init", flag.ExitOnError)
	path := fset.String("path", "config.yaml", "where to write the config file")
	force := fset.Bool("force", false, "overwrite an existing file")
	_ = fset.Parse(os.Args[3:])

	if err := writeDefaultConfig(*path, *force); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote default config to %s\n", *path)
	fmt.Printf("Set %s and %s in the environment or a .env file.\n", config.EnvSearchAPIKey, config.EnvGenerationAPIKey)
}

// writeDefaultConfig saves the built-in defaults to path. Existing files are kept unless force is set.
func writeDefaultConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return config.Save(path, cfg)
}

func printUsage() {
	fmt.Println(`kaku - Write LinkedIn posts grounded in fresh web search results

Usage:
  kaku server [flags]                Start the HTTP server and web page
  kaku generate [flags] <keywords>   Search the web and write a post
  kaku prompt [flags] <keywords>     Show the prompt that would be sent (no generation)
  kaku options                       List post types, lengths and languages
  kaku config init [flags]           Write a default config file
  kaku version                       Show version
  kaku help                          Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/kaku/config.yaml)
  --debug            Enable debug logging

Generate / Prompt Flags:
  --config string    Config file path (direct mode)
  --type string      Post type (default: General)
  --length string    standard, long or short; labels such as "Short Form" also work (default: standard)
  --language string  Output language (default: English)
  --output string    Output format: text or json (default: text)
  --out string       Save the post text to a file, e.g. linkedin_post.txt (generate only)
  --server string    Use a running kaku server instead of calling the services directly
  --debug            Enable debug logging

Config Init Flags:
  --path string      Where to write the file (default: config.yaml)
  --force            Overwrite an existing file

Environment:
  EXA_API_KEY (or METAPHOR_API_KEY)   Search service key
  OPENAI_API_KEY                      Text generation key
  OPENAI_BASE_URL, KAKU_MODEL         Override the generation endpoint and model
  A .env file in the working directory is loaded automatically.

Examples:
  kaku generate remote work productivity
  kaku generate --type "How-to Guides" --length short "remote work productivity"
  kaku generate "remote work productivity" --language Spanish --out linkedin_post.txt
  kaku prompt --output json ai in healthcare
  kaku generate --server http://localhost:8080 remote work
  kaku server --debug`)
}
