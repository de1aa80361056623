// Command agentcore is a thin demonstration harness, not the product: it
// loads a YAML file describing providers and agents, builds a
// pkg/gateway.Gateway, reads one message from stdin, and prints whatever
// replies the agent's reasoning loop produced. Anything beyond that — a
// long-running server, multi-turn REPL, request routing — belongs to a host
// built on top of pkg/gateway, the way the teacher's own cmd/hector treats
// its CLI as plumbing around pkg/server and pkg/runtime.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"

	"github.com/kadirpekel/agentcore/pkg/agentcfg"
	"github.com/kadirpekel/agentcore/pkg/corelog"
	"github.com/kadirpekel/agentcore/pkg/gateway"
	"github.com/kadirpekel/agentcore/pkg/telemetry"
)

// rootFile is the on-disk shape of the config file this binary reads: the
// agent/provider config the core needs plus the telemetry config that is
// host-owned per spec.md's scope.
type rootFile struct {
	Agent     agentcfg.Config  `yaml:"agent"`
	Telemetry telemetry.Config `yaml:"telemetry,omitempty"`
}

// CLI is the single command this binary supports.
type CLI struct {
	Config   string `arg:"" help:"Path to a YAML file describing providers and agents." type:"path"`
	Agent    string `help:"ID of the agent (from the config file) to address." required:""`
	Session  string `help:"Session ID to use or create." default:"cli-session"`
	Speaker  string `help:"Speaker ID attached to the message." default:"cli-user"`
	LogLevel string `help:"Log level (debug, info, warn, error)." default:"info"`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("agentcore"),
		kong.Description("Load an agent from a config file, send it one message from stdin, print its replies."),
	)
	kctx.FatalIfErrorf(cli.Run())
}

func (c *CLI) Run() error {
	level, err := corelog.ParseLevel(c.LogLevel)
	if err != nil {
		return fmt.Errorf("agentcore: parse log level: %w", err)
	}
	slog.SetDefault(corelog.New(level, false))

	raw, err := os.ReadFile(c.Config)
	if err != nil {
		return fmt.Errorf("agentcore: read config %s: %w", c.Config, err)
	}
	var rf rootFile
	if err := yaml.Unmarshal(raw, &rf); err != nil {
		return fmt.Errorf("agentcore: parse config %s: %w", c.Config, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gw, err := gateway.New(ctx, rf.Agent, rf.Telemetry)
	if err != nil {
		return fmt.Errorf("agentcore: build gateway: %w", err)
	}
	defer func() {
		if err := gw.Close(); err != nil {
			slog.Error("agentcore: close gateway", "error", err)
		}
	}()

	fmt.Print("> ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("agentcore: read stdin: %w", err)
	}

	out, err := gw.Process(ctx, c.Agent, gateway.IncomingMessage{
		SessionID: c.Session,
		SpeakerID: c.Speaker,
		Content:   trimNewline(line),
	})
	if err != nil {
		return fmt.Errorf("agentcore: process message: %w", err)
	}

	for _, msg := range out {
		if msg.Content != "" {
			fmt.Printf("[%s] %s\n", msg.Kind, msg.Content)
		} else {
			fmt.Printf("[%s]\n", msg.Kind)
		}
	}
	return nil
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
