package mockos

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"machinerun.io/blockfacts"
)

// Commands replays recorded tool output. It implements blockfacts.Runner.
type Commands struct {
	// Outputs maps "<tool> <args...>" to the standard output of that run.
	Outputs map[string]string `json:"commands"`

	mu    sync.Mutex
	calls []string
}

// Runner returns Commands loaded from the json fixture file. It panics if
// the fixture cannot be read.
func Runner(fixture string) *Commands {
	cmds, err := Load(fixture)
	if err != nil {
		panic(err)
	}

	return cmds
}

// Load reads a json fixture of the form {"commands": {"<tool> <args>": "<stdout>"}}.
func Load(fixture string) (*Commands, error) {
	content, err := os.ReadFile(fixture)
	if err != nil {
		return nil, err
	}

	cmds := &Commands{}
	if err := json.Unmarshal(content, cmds); err != nil {
		return nil, errors.Wrapf(err, "bad fixture %s", fixture)
	}

	if cmds.Outputs == nil {
		cmds.Outputs = map[string]string{}
	}

	return cmds, nil
}

// New returns Commands replaying outputs.
func New(outputs map[string]string) *Commands {
	return &Commands{Outputs: outputs}
}

// Run returns the recorded output of tool with args. A tool that appears in
// no recorded command is not installed; a recorded tool run with other
// arguments prints nothing.
func (c *Commands) Run(ctx context.Context, tool blockfacts.Tool, args ...string) ([]byte, error) {
	key := strings.Join(append([]string{string(tool)}, args...), " ")

	c.mu.Lock()
	c.calls = append(c.calls, key)
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if out, ok := c.Outputs[key]; ok && strings.TrimSpace(out) != "" {
		return []byte(out), nil
	}

	if !c.hasTool(tool) {
		return nil, errors.Wrapf(blockfacts.ErrToolNotFound, "%s", tool)
	}

	return nil, errors.Wrapf(blockfacts.ErrNoOutput, "%s", key)
}

// Calls returns the commands run so far, in order.
func (c *Commands) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]string{}, c.calls...)
}

func (c *Commands) hasTool(tool blockfacts.Tool) bool {
	for key := range c.Outputs {
		if key == string(tool) || strings.HasPrefix(key, string(tool)+" ") {
			return true
		}
	}

	return false
}
