package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	config := DefaultConfig()
	if err := config.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
	if config.App.Environment != EnvDevelopment {
		t.Errorf("expected development environment, got %s", config.App.Environment)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"empty app name", func(c *Config) { c.App.Name = "" }, ErrInvalidAppName},
		{"unknown environment", func(c *Config) { c.App.Environment = "staging" }, ErrInvalidEnvironment},
		{"zero core size", func(c *Config) { c.Pool.CoreSize = 0 }, ErrInvalidPoolSize},
		{"max below core", func(c *Config) { c.Pool.MaxSize = c.Pool.CoreSize - 1 }, ErrInvalidPoolSize},
		{"negative queue size", func(c *Config) { c.Pool.QueueSize = -1 }, ErrInvalidQueueSize},
		{"zero interaction size", func(c *Config) { c.Interaction.Size = 0 }, ErrInvalidInteractionPool},
		{"zero mailbox", func(c *Config) { c.Actor.MailboxSize = 0 }, ErrInvalidMailboxSize},
		{"zero consumers", func(c *Config) { c.Queue.Consumers = 0 }, ErrInvalidConsumerCount},
		{"bad difficulty", func(c *Config) { c.Game.Difficulty = "nightmare" }, ErrInvalidDifficulty},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			config := DefaultConfig()
			tc.mutate(config)
			err := config.Validate()
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gridlock.yaml")
	content := `
app:
  name: testgame
  environment: production
pool:
  core_size: 4
  max_size: 8
game:
  difficulty: hard
  seed: 42
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	config, err := NewLoader().LoadFromFile(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if config.App.Name != "testgame" {
		t.Errorf("expected app name testgame, got %s", config.App.Name)
	}
	if !config.IsProduction() {
		t.Error("expected production environment")
	}
	if config.Pool.CoreSize != 4 || config.Pool.MaxSize != 8 {
		t.Errorf("pool sizes not applied: %d/%d", config.Pool.CoreSize, config.Pool.MaxSize)
	}
	if config.Game.Difficulty != "hard" || config.Game.Seed != 42 {
		t.Errorf("game section not applied: %s/%d", config.Game.Difficulty, config.Game.Seed)
	}

	// Fields not present in the file keep their defaults.
	defaults := DefaultConfig()
	if config.Queue.Consumers != defaults.Queue.Consumers {
		t.Errorf("expected default consumer count %d, got %d",
			defaults.Queue.Consumers, config.Queue.Consumers)
	}
}

func TestLoadFromJSONFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{"app": {"name": "jsongame"}, "queue": {"consumers": 3}}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	config, err := NewLoader().LoadFromFile(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if config.App.Name != "jsongame" {
		t.Errorf("expected app name jsongame, got %s", config.App.Name)
	}
	if config.Queue.Consumers != 3 {
		t.Errorf("expected 3 consumers, got %d", config.Queue.Consumers)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader().LoadFromFile("/nonexistent/gridlock.yaml")
	if !errors.Is(err, ErrConfigFileNotFound) {
		t.Errorf("expected ErrConfigFileNotFound, got %v", err)
	}
}

func TestLoadInvalidContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gridlock.yaml")
	if err := os.WriteFile(path, []byte("app: [not a mapping"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	_, err := NewLoader().LoadFromFile(path)
	if !errors.Is(err, ErrConfigParseError) {
		t.Errorf("expected ErrConfigParseError, got %v", err)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("GRIDLOCK_APP_NAME", "envgame")
	t.Setenv("GRIDLOCK_GAME_DIFFICULTY", "EASY")
	t.Setenv("GRIDLOCK_GAME_SEED", "99")
	t.Setenv("GRIDLOCK_POOL_CORE_SIZE", "6")
	t.Setenv("GRIDLOCK_POOL_MAX_SIZE", "12")

	loader := NewLoader().SetSearchPaths([]string{t.TempDir()})
	config, err := loader.AutoLoad()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if config.App.Name != "envgame" {
		t.Errorf("expected env override for app name, got %s", config.App.Name)
	}
	if config.Game.Difficulty != "easy" {
		t.Errorf("expected lowered difficulty easy, got %s", config.Game.Difficulty)
	}
	if config.Game.Seed != 99 {
		t.Errorf("expected seed 99, got %d", config.Game.Seed)
	}
	if config.Pool.CoreSize != 6 || config.Pool.MaxSize != 12 {
		t.Errorf("pool env overrides not applied: %d/%d", config.Pool.CoreSize, config.Pool.MaxSize)
	}
}

func TestLoadFromReader(t *testing.T) {
	reader := strings.NewReader("app:\n  name: readergame\n")
	config, err := NewLoader().LoadFromReader(reader, FormatYAML)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if config.App.Name != "readergame" {
		t.Errorf("expected app name readergame, got %s", config.App.Name)
	}
}

func TestWatcherReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gridlock.yaml")
	if err := os.WriteFile(path, []byte("app:\n  name: before\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	watcher, err := NewWatcher(path, NewLoader())
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	defer watcher.Stop()

	if got := watcher.GetConfig().App.Name; got != "before" {
		t.Fatalf("expected initial app name before, got %s", got)
	}

	changed := make(chan string, 1)
	watcher.OnChange(func(oldConfig, newConfig *Config) {
		changed <- newConfig.App.Name
	})

	if err := os.WriteFile(path, []byte("app:\n  name: after\n"), 0644); err != nil {
		t.Fatalf("failed to rewrite config file: %v", err)
	}
	if err := watcher.Reload(); err != nil {
		t.Fatalf("manual reload failed: %v", err)
	}

	select {
	case name := <-changed:
		if name != "after" {
			t.Errorf("expected reloaded app name after, got %s", name)
		}
	case <-time.After(time.Second):
		t.Fatal("change callback was not invoked")
	}

	if got := watcher.GetConfig().App.Name; got != "after" {
		t.Errorf("expected current app name after, got %s", got)
	}
}
