// Package pluginhost runs explorer implementations as separate processes via
// hashicorp/go-plugin, so a device-specific agent can live in its own binary
// with its own dependencies.
package pluginhost

import (
	"net/rpc"

	goplugin "github.com/hashicorp/go-plugin"

	"uxscope/agent"
)

// Handshake guards against launching an incompatible binary as a plugin.
var Handshake = goplugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "UXSCOPE_PLUGIN",
	MagicCookieValue: "uxscope-explorer-v1",
}

// PluginMap names the plugins this host can dispense.
var PluginMap = map[string]goplugin.Plugin{
	"explorer": &ExplorerPlugin{},
}

// RemoteExplorer is the wire-level contract a plugin binary implements.
// Explore blocks until the pass finishes or Abort is called; Narration drains
// accumulated diagnostic text so the host can poll it while Explore is in
// flight.
type RemoteExplorer interface {
	Explore(goal string, stepBudget int) (agent.Result, error)
	Narration() []string
	Abort()
}

// ExplorerPlugin is the go-plugin glue for RemoteExplorer over net/rpc.
type ExplorerPlugin struct {
	Impl RemoteExplorer
}

func (p *ExplorerPlugin) Server(*goplugin.MuxBroker) (interface{}, error) {
	return &rpcServer{impl: p.Impl}, nil
}

func (p *ExplorerPlugin) Client(b *goplugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &rpcClient{client: c}, nil
}

// Serve is called from a plugin binary's main to expose its explorer.
func Serve(impl RemoteExplorer) {
	goplugin.Serve(&goplugin.ServeConfig{
		HandshakeConfig: Handshake,
		Plugins: map[string]goplugin.Plugin{
			"explorer": &ExplorerPlugin{Impl: impl},
		},
	})
}

// =============================================================================
// net/rpc shims
// =============================================================================

type exploreArgs struct {
	Goal       string
	StepBudget int
}

type exploreResp struct {
	Result agent.Result
	Err    string
}

type rpcServer struct {
	impl RemoteExplorer
}

func (s *rpcServer) Explore(args *exploreArgs, resp *exploreResp) error {
	result, err := s.impl.Explore(args.Goal, args.StepBudget)
	resp.Result = result
	if err != nil {
		resp.Err = err.Error()
	}
	return nil
}

func (s *rpcServer) Narration(_ struct{}, resp *[]string) error {
	*resp = s.impl.Narration()
	return nil
}

func (s *rpcServer) Abort(_ struct{}, _ *struct{}) error {
	s.impl.Abort()
	return nil
}

type rpcClient struct {
	client *rpc.Client
}

func (c *rpcClient) Explore(goal string, stepBudget int) (agent.Result, error) {
	var resp exploreResp
	if err := c.client.Call("Plugin.Explore", &exploreArgs{Goal: goal, StepBudget: stepBudget}, &resp); err != nil {
		return agent.Result{}, err
	}
	if resp.Err != "" {
		return resp.Result, &remoteError{msg: resp.Err}
	}
	return resp.Result, nil
}

func (c *rpcClient) Narration() []string {
	var lines []string
	if err := c.client.Call("Plugin.Narration", struct{}{}, &lines); err != nil {
		return nil
	}
	return lines
}

func (c *rpcClient) Abort() {
	c.client.Call("Plugin.Abort", struct{}{}, &struct{}{})
}

type remoteError struct {
	msg string
}

func (e *remoteError) Error() string { return e.msg }
