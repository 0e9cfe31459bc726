// Command lumina is the terminal client for the Lumina journal.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/lumina-journal/lumina/internal/client"
	"github.com/lumina-journal/lumina/internal/client/ui"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// fileLogger writes zap output to the config dir; the TUI owns the terminal.
func fileLogger(dir string) (*zap.Logger, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{filepath.Join(dir, "lumina.log")}
	cfg.ErrorOutputPaths = cfg.OutputPaths
	return cfg.Build()
}

func configDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "lumina")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "lumina")
}

func main() {
	addr := flag.String("addr", "http://localhost:8080", "server base URL")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("lumina %s (%s)\n", version, buildDate)
		return
	}

	dir := configDir()
	logger, err := fileLogger(dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "log setup:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	api := client.NewAPI(*addr)
	session := client.NewSession(api, client.NewTokenStoreAt(dir))
	repo := client.NewEntryRepo(api, session)

	p := tea.NewProgram(ui.New(session, repo, logger), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
