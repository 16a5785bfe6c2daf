package brick

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ericcurtin/llamanetes/internal/common/fsutil"
	"github.com/ericcurtin/llamanetes/pkg/types"
)

// Default llama.cpp tool names, resolved via PATH when not overridden.
const (
	defaultServerBin   = "llama-server"
	defaultCLIBin      = "llama-cli"
	defaultTokenizeBin = "llama-tokenize"

	defaultHost    = "127.0.0.1"
	defaultTimeout = 60 * time.Second

	readyDeadline = 30 * time.Second
	stopGrace     = 2 * time.Second
	toolWaitDelay = 5 * time.Second
)

// errCallTimeout marks expiry of the brick's own per-call deadline, as opposed
// to cancellation arriving through the caller's context.
var errCallTimeout = errors.New("per-call timeout elapsed")

// ModelConfig holds ModelBrick construction parameters.
type ModelConfig struct {
	// Required path to a .gguf model file. Existence is checked at invocation
	// time, not here, so bricks can be declared before the model is fetched.
	ModelPath string
	Host      string
	Port      int
	// Overrides for the llama.cpp tool binaries.
	ServerBin   string
	CLIBin      string
	TokenizeBin string
	// Extra llama-server arguments appended verbatim.
	ExtraArgs []string
	// Per-call timeout for subprocess and HTTP invocations.
	Timeout time.Duration
	// Run generation in-process via go-llama.cpp instead of spawning tools.
	// Requires a binary built with the 'llama' tag.
	InProcess bool
}

// ModelBrick manages the handle to the external model resource. It owns at
// most one llama-server child process; generation and tokenization bricks
// hold non-owning references to it.
type ModelBrick struct {
	name string
	cfg  ModelConfig

	httpClient *http.Client

	// startMu serializes StartServer so concurrent starts cannot each spawn a
	// process and leak the first one.
	startMu sync.Mutex

	mu      sync.Mutex
	proc    *exec.Cmd
	baseURL string

	runtime inprocessRuntime // nil unless InProcess and loaded
}

// NewModelBrick validates construction parameters and returns the brick.
func NewModelBrick(cfg ModelConfig) (*ModelBrick, error) {
	if strings.TrimSpace(cfg.ModelPath) == "" {
		return nil, ErrConstruction("model path is empty")
	}
	if p, err := fsutil.ExpandHome(cfg.ModelPath); err == nil {
		cfg.ModelPath = p
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, ErrConstruction(fmt.Sprintf("port out of range: %d", cfg.Port))
	}
	if cfg.Host == "" {
		cfg.Host = defaultHost
	}
	if cfg.ServerBin == "" {
		cfg.ServerBin = defaultServerBin
	}
	if cfg.CLIBin == "" {
		cfg.CLIBin = defaultCLIBin
	}
	if cfg.TokenizeBin == "" {
		cfg.TokenizeBin = defaultTokenizeBin
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	// Timeout=0 on the client: every call carries a context deadline instead.
	return &ModelBrick{
		name:       "ModelBrick",
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 0},
	}, nil
}

func (m *ModelBrick) Name() string { return m.name }

// ModelPath returns the configured model file path.
func (m *ModelBrick) ModelPath() string { return m.cfg.ModelPath }

// Port returns the configured server port.
func (m *ModelBrick) Port() int { return m.cfg.Port }

// ServerRunning reports whether this brick currently owns a server process.
func (m *ModelBrick) ServerRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.proc != nil
}

// Invoke reports the model handle state and, when a prompt is supplied,
// forwards it as a completion. This keeps ModelBrick usable standalone in a
// pipeline: the model info augments downstream inputs.
func (m *ModelBrick) Invoke(ctx context.Context, in types.Input) (types.Result, error) {
	if !fsutil.PathExists(m.cfg.ModelPath) {
		return types.Result{}, ErrResource("model file not found: " + m.cfg.ModelPath)
	}
	data := map[string]any{
		"model": m.cfg.ModelPath,
		"port":  m.cfg.Port,
	}
	if m.ServerRunning() {
		data["server"] = "running"
	} else {
		data["server"] = "stopped"
	}
	if prompt := in.String("prompt"); prompt != "" {
		resp, err := m.Complete(ctx, types.CompletionRequest{Prompt: prompt})
		if err != nil {
			return types.Result{}, err
		}
		data["text"] = resp.Text
		data["method"] = resp.Method
	}
	return success(m.name, data), nil
}

// StartServer launches llama-server bound to the configured port and waits
// for readiness. Calling it while a server is already owned is a no-op.
func (m *ModelBrick) StartServer(ctx context.Context) error {
	m.startMu.Lock()
	defer m.startMu.Unlock()

	m.mu.Lock()
	if m.proc != nil {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	if !fsutil.PathExists(m.cfg.ModelPath) {
		return ErrServerStart("model file not found: "+m.cfg.ModelPath, nil)
	}

	host := m.cfg.Host
	port := m.cfg.Port
	if port == 0 {
		p, err := pickFreePort(host)
		if err != nil {
			return ErrServerStart("pick port", err)
		}
		port = p
		m.cfg.Port = p
	}
	baseURL := fmt.Sprintf("http://%s:%d", host, port)

	args := []string{
		"-m", m.cfg.ModelPath,
		"--host", host,
		"--port", strconv.Itoa(port),
	}
	args = append(args, m.cfg.ExtraArgs...)

	cmd := exec.Command(m.cfg.ServerBin, args...)
	// Keep a stderr tail in memory; it is included when startup fails.
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return ErrServerStart("launch "+m.cfg.ServerBin, err)
	}
	log.Info().Str("brick", m.name).Str("model", m.cfg.ModelPath).
		Int("pid", cmd.Process.Pid).Str("url", baseURL).Msg("llama-server starting")

	m.mu.Lock()
	m.proc = cmd
	m.baseURL = baseURL
	m.mu.Unlock()

	// Early-exit watcher: surface a non-zero exit before readiness.
	waitErrCh := make(chan error, 1)
	go func() { waitErrCh <- cmd.Wait() }()

	deadline := time.Now().Add(readyDeadline)
	for {
		if err := ctx.Err(); err != nil {
			m.clearProc()
			_ = cmd.Process.Kill()
			<-waitErrCh
			return err
		}
		if time.Now().After(deadline) {
			m.clearProc()
			_ = cmd.Process.Kill()
			<-waitErrCh
			log.Warn().Str("brick", m.name).Int("pid", cmd.Process.Pid).Msg("llama-server readiness timeout")
			return ErrServerStart("not ready in time: "+baseURL, nil)
		}
		select {
		case werr := <-waitErrCh:
			m.clearProc()
			tail := stderrTail(&stderr)
			log.Warn().Str("brick", m.name).Err(werr).Msg("llama-server exited before ready")
			if werr != nil {
				return ErrServerStart(fmt.Sprintf("exited early; stderr tail: %s", tail), werr)
			}
			return ErrServerStart("exited before ready: "+baseURL, nil)
		default:
		}
		if m.isHealthy(ctx, baseURL, time.Second) {
			log.Info().Str("brick", m.name).Int("pid", cmd.Process.Pid).Str("url", baseURL).Msg("llama-server ready")
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// StopServer terminates the owned process, if any. It always clears the
// handle; the error covers signal delivery only.
func (m *ModelBrick) StopServer() error {
	m.mu.Lock()
	proc := m.proc
	m.proc = nil
	m.baseURL = ""
	m.mu.Unlock()
	if proc == nil || proc.Process == nil {
		return nil
	}
	// SIGTERM first, then kill after a grace period.
	if err := proc.Process.Signal(syscall.SIGTERM); err != nil {
		_ = proc.Process.Kill()
		_, _ = proc.Process.Wait()
		return ErrServerStop(err)
	}
	done := make(chan struct{})
	go func() {
		_, _ = proc.Process.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(stopGrace):
		_ = proc.Process.Kill()
		<-done
	}
	log.Info().Str("brick", m.name).Str("model", m.cfg.ModelPath).Msg("llama-server stopped")
	return nil
}

// Close releases the model handle: the owned server process and any
// in-process runtime.
func (m *ModelBrick) Close() error {
	err := m.StopServer()
	if m.runtime != nil {
		m.runtime.Close()
		m.runtime = nil
	}
	return err
}

// Complete performs one generation call against the model resource. With a
// running server it is an HTTP round-trip to /completion; otherwise a
// one-shot llama-cli subprocess (or the in-process runtime when configured).
func (m *ModelBrick) Complete(ctx context.Context, req types.CompletionRequest) (types.CompletionResponse, error) {
	if !fsutil.PathExists(m.cfg.ModelPath) {
		return types.CompletionResponse{}, ErrResource("model file not found: " + m.cfg.ModelPath)
	}
	ctx, cancel := context.WithTimeoutCause(ctx, m.cfg.Timeout, errCallTimeout)
	defer cancel()

	if base := m.serverURL(); base != "" {
		return m.completeViaServer(ctx, base, req)
	}
	if m.cfg.InProcess {
		return m.completeInProcess(ctx, req)
	}
	return m.completeViaSubprocess(ctx, req)
}

// Tokenize converts text to token ids using the model's tokenizer: the
// server's /tokenize endpoint when running, llama-tokenize otherwise.
func (m *ModelBrick) Tokenize(ctx context.Context, text string) ([]int, error) {
	if !fsutil.PathExists(m.cfg.ModelPath) {
		return nil, ErrResource("model file not found: " + m.cfg.ModelPath)
	}
	ctx, cancel := context.WithTimeoutCause(ctx, m.cfg.Timeout, errCallTimeout)
	defer cancel()

	if base := m.serverURL(); base != "" {
		return m.tokenizeViaServer(ctx, base, text)
	}
	if m.cfg.InProcess {
		return m.tokenizeInProcess(ctx, text)
	}
	return m.tokenizeViaSubprocess(ctx, text)
}

func (m *ModelBrick) serverURL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.proc == nil {
		return ""
	}
	return m.baseURL
}

// ctxError classifies a context failure during a model call: expiry of the
// brick's own per-call timeout is an invocation failure; anything else is the
// caller's cancellation and passes through untouched.
func (m *ModelBrick) ctxError(ctx context.Context) error {
	if errors.Is(context.Cause(ctx), errCallTimeout) {
		return ErrInvocation(m.name, fmt.Sprintf("timed out after %s", m.cfg.Timeout), nil)
	}
	return ctx.Err()
}

func (m *ModelBrick) clearProc() {
	m.mu.Lock()
	m.proc = nil
	m.baseURL = ""
	m.mu.Unlock()
}

// isHealthy checks whether the llama-server at baseURL answers /health.
func (m *ModelBrick) isHealthy(ctx context.Context, baseURL string, timeout time.Duration) bool {
	hctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(hctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (m *ModelBrick) completeViaServer(ctx context.Context, baseURL string, req types.CompletionRequest) (types.CompletionResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return types.CompletionResponse{}, ErrInvocation(m.name, "encode request", err)
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/completion", bytes.NewReader(body))
	if err != nil {
		return types.CompletionResponse{}, ErrInvocation(m.name, "build request", err)
	}
	hreq.Header.Set("Content-Type", "application/json")
	resp, err := m.httpClient.Do(hreq)
	if err != nil {
		if ctx.Err() != nil {
			return types.CompletionResponse{}, m.ctxError(ctx)
		}
		return types.CompletionResponse{}, ErrInvocation(m.name, "http request", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return types.CompletionResponse{}, ErrInvocation(m.name,
			fmt.Sprintf("server http error %s: %s", resp.Status, strings.TrimSpace(string(b))), nil)
	}
	var out types.CompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return types.CompletionResponse{}, ErrInvocation(m.name, "malformed response body", err)
	}
	out.Method = "server"
	return out, nil
}

func (m *ModelBrick) completeViaSubprocess(ctx context.Context, req types.CompletionRequest) (types.CompletionResponse, error) {
	args := []string{
		"-m", m.cfg.ModelPath,
		"-p", req.Prompt,
		"--no-display-prompt",
	}
	if req.MaxTokens > 0 {
		args = append(args, "-n", strconv.Itoa(req.MaxTokens))
	}
	args = append(args, "--temp", strconv.FormatFloat(req.Temperature, 'f', -1, 64))
	if req.TopP > 0 {
		args = append(args, "--top-p", strconv.FormatFloat(req.TopP, 'f', -1, 64))
	}
	if req.TopK > 0 {
		args = append(args, "--top-k", strconv.Itoa(req.TopK))
	}
	if req.Seed != 0 {
		args = append(args, "--seed", strconv.FormatInt(req.Seed, 10))
	}
	out, err := m.runTool(ctx, m.cfg.CLIBin, args)
	if err != nil {
		return types.CompletionResponse{}, err
	}
	return types.CompletionResponse{Text: strings.TrimSpace(out), Method: "subprocess"}, nil
}

func (m *ModelBrick) tokenizeViaServer(ctx context.Context, baseURL, text string) ([]int, error) {
	body, _ := json.Marshal(types.TokenizeRequest{Content: text})
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/tokenize", bytes.NewReader(body))
	if err != nil {
		return nil, ErrInvocation(m.name, "build request", err)
	}
	hreq.Header.Set("Content-Type", "application/json")
	resp, err := m.httpClient.Do(hreq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, m.ctxError(ctx)
		}
		return nil, ErrInvocation(m.name, "http request", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, ErrInvocation(m.name,
			fmt.Sprintf("server http error %s: %s", resp.Status, strings.TrimSpace(string(b))), nil)
	}
	var out types.TokenizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, ErrInvocation(m.name, "malformed response body", err)
	}
	return out.Tokens, nil
}

func (m *ModelBrick) tokenizeViaSubprocess(ctx context.Context, text string) ([]int, error) {
	args := []string{
		"-m", m.cfg.ModelPath,
		"-p", text,
	}
	out, err := m.runTool(ctx, m.cfg.TokenizeBin, args)
	if err != nil {
		return nil, err
	}
	return parseTokenIDs(out), nil
}

// runTool executes one llama.cpp tool to completion, capturing stdout.
func (m *ModelBrick) runTool(ctx context.Context, bin string, args []string) (string, error) {
	if _, err := exec.LookPath(bin); err != nil {
		return "", ErrResource("binary not found: " + bin)
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	// The tool runs in its own process group; on cancellation the whole group
	// is killed so children inheriting the output pipes cannot keep the call
	// blocked past the deadline.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = toolWaitDelay
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	log.Debug().Str("brick", m.name).Str("bin", bin).Msg("spawning one-shot tool")
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", m.ctxError(ctx)
		}
		return "", ErrInvocation(m.name,
			fmt.Sprintf("%s failed; stderr tail: %s", bin, stderrTail(&stderr)), err)
	}
	return stdout.String(), nil
}

// parseTokenIDs extracts integer token ids from llama-tokenize output, which
// interleaves ids with token text depending on the build.
func parseTokenIDs(out string) []int {
	var tokens []int
	for _, f := range strings.Fields(out) {
		if n, err := strconv.Atoi(f); err == nil {
			tokens = append(tokens, n)
		}
	}
	return tokens
}

func stderrTail(buf *bytes.Buffer) string {
	tail := buf.String()
	if len(tail) > 4096 {
		tail = tail[len(tail)-4096:]
	}
	return strings.TrimSpace(tail)
}

// pickFreePort asks the kernel for an unused port on host.
func pickFreePort(host string) (int, error) {
	l, err := net.Listen("tcp", host+":0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	addr := l.Addr().String()
	lastColon := strings.LastIndex(addr, ":")
	if lastColon < 0 {
		return 0, fmt.Errorf("unexpected addr: %s", addr)
	}
	return strconv.Atoi(addr[lastColon+1:])
}
