package backend

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"
)

const (
	defaultServerHost         = "127.0.0.1"
	defaultServerReadyTimeout = 30 * time.Second
)

// ServerManager owns model server processes started by backends.
type ServerManager struct {
	servers map[string]*ServerProcess
	mu      sync.RWMutex

	// pollInterval is the delay between readiness probes.
	pollInterval time.Duration
}

// ServerProcess is a running model server.
type ServerProcess struct {
	cmd     *exec.Cmd
	cancel  context.CancelFunc
	BaseURL string
}

// ServerConfig defines how to start and probe a model server.
type ServerConfig struct {
	Env          map[string]string
	Name         string
	BinPath      string
	Host         string
	HealthPath   string
	Args         []string
	Port         int
	ReadyTimeout time.Duration
}

// NewServerManager initializes a ServerManager.
func NewServerManager() *ServerManager {
	return &ServerManager{
		servers:      map[string]*ServerProcess{},
		pollInterval: 500 * time.Millisecond,
	}
}

func serverKey(name string, port int) string {
	return name + "-" + strconv.Itoa(port)
}

// StartServer starts a model server and blocks until its health path answers
// 200 or the ready timeout elapses. Starting a server that is already running
// returns the existing process.
func (sm *ServerManager) StartServer(ctx context.Context, cfg ServerConfig) (*ServerProcess, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	key := serverKey(cfg.Name, cfg.Port)
	if srv, exists := sm.servers[key]; exists {
		return srv, nil
	}

	if info, err := os.Stat(cfg.BinPath); err != nil {
		return nil, fmt.Errorf("manager: failed to start %s server: %w", cfg.Name, err)
	} else if info.IsDir() {
		return nil, fmt.Errorf("manager: failed to start %s server: %s is a directory", cfg.Name, cfg.BinPath)
	}

	host := cfg.Host
	if host == "" {
		host = defaultServerHost
	}

	procCtx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(procCtx, cfg.BinPath, cfg.Args...)

	if len(cfg.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range cfg.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("manager: failed to start %s server: %w", cfg.Name, err)
	}

	baseURL := "http://" + net.JoinHostPort(host, strconv.Itoa(cfg.Port))

	healthPath := cfg.HealthPath
	if healthPath == "" {
		healthPath = "/health"
	}

	timeout := cfg.ReadyTimeout
	if timeout == 0 {
		timeout = defaultServerReadyTimeout
	}

	if err := sm.waitForServer(ctx, baseURL+healthPath, timeout); err != nil {
		cancel()
		if err := cmd.Process.Kill(); err != nil {
			slog.Error("Failed to kill server process", "name", cfg.Name, "error", err)
		}
		_ = cmd.Wait()
		return nil, fmt.Errorf("manager: %s server did not become ready: %w", cfg.Name, err)
	}

	srv := &ServerProcess{
		cmd:     cmd,
		cancel:  cancel,
		BaseURL: baseURL,
	}
	sm.servers[key] = srv

	slog.Info("Server started", "name", cfg.Name, "url", baseURL, "pid", cmd.Process.Pid)
	return srv, nil
}

// Running reports whether a server with that name and port is tracked.
func (sm *ServerManager) Running(name string, port int) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	_, ok := sm.servers[serverKey(name, port)]
	return ok
}

// StopServer terminates a model server.
func (sm *ServerManager) StopServer(name string, port int) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	key := serverKey(name, port)
	srv, exists := sm.servers[key]
	if !exists {
		return fmt.Errorf("manager: server %s: %w", key, ErrNotFound)
	}

	srv.stop()
	delete(sm.servers, key)

	slog.Info("Server stopped", "name", name, "port", port)
	return nil
}

// StopAll terminates all running servers.
func (sm *ServerManager) StopAll() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for _, srv := range sm.servers {
		srv.stop()
	}
	sm.servers = map[string]*ServerProcess{}

	slog.Info("All servers stopped")
}

func (p *ServerProcess) stop() {
	p.cancel()
	if p.cmd.Process != nil {
		if err := p.cmd.Process.Kill(); err != nil {
			slog.Debug("Kill after cancel", "error", err)
		}
	}
	_ = p.cmd.Wait()
}

// waitForServer polls url until it answers 200, the timeout elapses or ctx
// is done.
func (sm *ServerManager) waitForServer(ctx context.Context, url string, timeout time.Duration) error {
	client := &http.Client{Timeout: time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := client.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sm.pollInterval):
		}
	}

	return fmt.Errorf("manager: server failed to respond at %s within %v", url, timeout)
}
