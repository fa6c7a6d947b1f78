//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"
	"github.com/timburks/xmledit/pkg/commander"
	"github.com/timburks/xmledit/pkg/config"
	"github.com/timburks/xmledit/pkg/editor"
	"github.com/timburks/xmledit/pkg/recent"
	"github.com/timburks/xmledit/pkg/screen"
	xmledit "github.com/timburks/xmledit/pkg/types"
	"github.com/timburks/xmledit/pkg/watch"
)

func main() {
	script := pflag.String("eval", "", "run a lisp script and exit")
	appDir := pflag.String("app-dir", "", "directory for drafts, logs and the recent files list")
	autosave := pflag.Duration("autosave", 0, "autosave interval (overrides the configuration)")
	pflag.Parse()

	if err := run(*script, *appDir, *autosave, pflag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "xmledit: %v\n", err)
		os.Exit(1)
	}
}

func run(script, appDir string, autosave time.Duration, filenames []string) error {
	cfg, err := config.Load(config.ResolveAppDir(appDir))
	if err != nil {
		return err
	}
	if autosave != 0 {
		if err := cfg.SetAutosaveInterval(autosave); err != nil {
			return err
		}
	}

	logFile, err := config.SetupLogFile(cfg.LogDir(), cfg.MaxLogFiles)
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger := config.NewLogger(logFile, cfg.LogLevel)
	slog.SetDefault(logger)
	logger.Info("starting", "app_dir", cfg.AppDir, "autosave", cfg.AutosaveInterval)

	// The editor manages all documents.
	e := editor.NewEditor(cfg.DraftsDir(), recent.NewTracker(cfg.RecentFilesPath(), logger), logger)
	e.SetIndent(cfg.Indent)
	defer finish(e, os.Stderr)

	// The commander converts user inputs into commands for the editor.
	c := commander.NewCommander(e)

	for _, filename := range filenames {
		if err := e.ReadFile(filename); err != nil {
			if script != "" {
				return err
			}
			e.Warn(err.Error())
		}
	}

	if script != "" {
		// Run a script and exit.
		return c.ParseEvalFile(script)
	}

	if len(filenames) == 0 {
		if leftovers, err := e.Leftovers(); err == nil && len(leftovers) > 0 {
			e.SetMessage(fmt.Sprintf("%d unsaved drafts found, :drafts to list them", len(leftovers)))
		}
	}
	return interact(cfg, e, c, logger)
}

// finish closes the remaining pages and prints the warnings that were never
// shown on screen. It runs after the terminal has been restored.
func finish(e *editor.Editor, w io.Writer) {
	e.CloseAll()
	for _, warning := range e.TakeWarnings() {
		fmt.Fprintf(w, "xmledit: %s\n", warning)
	}
}

func interact(cfg *config.Config, e *editor.Editor, c *commander.Commander, logger *slog.Logger) error {
	// Create a screen to manage display.
	s, err := screen.NewScreen()
	if err != nil {
		return err
	}
	defer s.Close()

	events := make(chan *xmledit.Event)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			event := s.GetNextEvent()
			select {
			case events <- event:
			case <-done:
				return
			}
		}
	}()

	ticker := time.NewTicker(cfg.AutosaveInterval)
	defer ticker.Stop()

	var changes <-chan string
	var watcher *watch.Watcher
	if cfg.WatchFiles {
		watcher, err = watch.New(logger)
		if err != nil {
			logger.Warn("file watching disabled", "error", err)
		} else {
			defer watcher.Close()
			watcher.Sync(e.WatchedPaths())
			changes = watcher.Events()
		}
	}

	// Run the main event loop.
	for c.IsRunning() {
		s.Render(e, c)
		// rendered warnings have been seen
		e.TakeWarnings()
		select {
		case event := <-events:
			if err := c.ProcessEvent(event); err != nil {
				logger.Error("event failed", "error", err)
			}
			if watcher != nil {
				watcher.Sync(e.WatchedPaths())
			}
		case <-ticker.C:
			e.Tick()
		case path, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			e.SourceChanged(path)
		}
	}
	s.Interrupt()
	return nil
}
