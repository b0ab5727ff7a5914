package support

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// StartServer launches "codescan serve" with extra arguments on a free port
// and waits for /health.
func (testCtx *TestContext) StartServer(args string) error {
	if testCtx.ServerProcess != nil {
		return errors.New("server already running")
	}

	port, err := freePort()
	if err != nil {
		return err
	}
	testCtx.ServerPort = port

	parts := append([]string{"serve", "--host", testCtx.ServerHost, "--port", fmt.Sprint(port)},
		strings.Fields(testCtx.substituteCommandVariables(args))...)
	cmd := exec.Command(testCtx.BinPath, parts...)
	cmd.Dir = testCtx.TempDir
	cmd.Env = append(os.Environ(), testCtx.EnvVars...)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	testCtx.ServerProcess = cmd.Process

	if err := testCtx.waitForServerReady(); err != nil {
		if stopErr := testCtx.StopServer(); stopErr != nil {
			return fmt.Errorf("server failed to start and also failed to stop: %w; stop error: %w", err, stopErr)
		}
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

// StopServer sends SIGTERM and waits for the process to exit.
func (testCtx *TestContext) StopServer() error {
	if testCtx.ServerProcess == nil {
		return nil
	}

	if err := testCtx.ServerProcess.Signal(syscall.SIGTERM); err != nil {
		if killErr := testCtx.ServerProcess.Kill(); killErr != nil {
			return fmt.Errorf("failed to kill server process: %w", killErr)
		}
	}

	state, err := testCtx.ServerProcess.Wait()
	testCtx.ServerProcess = nil
	if err != nil {
		return err
	}
	if !state.Success() {
		return fmt.Errorf("server exited with %s", state)
	}
	return nil
}

// freePort asks the kernel for an unused TCP port.
func freePort() (int, error) {
	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, fmt.Errorf("failed to find a free port: %w", err)
	}
	defer func() { _ = l.Close() }()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// waitForServerReady polls the health endpoint until it answers.
func (testCtx *TestContext) waitForServerReady() error {
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if testCtx.isServerHealthy() {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return errors.New("server did not become ready within timeout")
}

func (testCtx *TestContext) isServerHealthy() bool {
	client := &http.Client{Timeout: time.Second}
	resp, err := client.Get(testCtx.GetServerURL() + "/health")
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

// GetServerURL returns the base URL for the running server.
func (testCtx *TestContext) GetServerURL() string {
	return fmt.Sprintf("http://%s:%d", testCtx.ServerHost, testCtx.ServerPort)
}
