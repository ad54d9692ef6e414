package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/haatos/simple-qa/internal"
	"github.com/haatos/simple-qa/internal/security"
	"github.com/haatos/simple-qa/internal/store"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// WorkerSpec carries everything a worker process needs. It is handed to the
// process exclusively through environment variables; the orchestrator never
// talks to the process after spawn.
type WorkerSpec struct {
	RunID       string
	TestSetID   int64
	ReleaseID   int64
	Environment string
	BaseURL     string
	BatchRun    bool
	AgentID     *int64
}

// WorkerOutcome is the completion message of one worker process: its exit
// code, the RESULT payload if one was emitted, and any spawn/transport error.
type WorkerOutcome struct {
	ExitCode int
	Result   *WorkerResult
	Err      error
}

type WorkerLauncher interface {
	Launch(ctx context.Context, spec WorkerSpec, progress func(ProgressEvent)) WorkerOutcome
}

func workerEnv(spec WorkerSpec, apiBaseURL string) []string {
	batch := "false"
	if spec.BatchRun {
		batch = "true"
	}
	return []string{
		internal.EnvRunID + "=" + spec.RunID,
		internal.EnvTestSetID + "=" + strconv.FormatInt(spec.TestSetID, 10),
		internal.EnvReleaseID + "=" + strconv.FormatInt(spec.ReleaseID, 10),
		internal.EnvBaseURL + "=" + spec.BaseURL,
		internal.EnvBatchRun + "=" + batch,
		// outer-level parallelism is bounded here, so the driver inside the
		// worker runs single-threaded
		internal.EnvWorkers + "=1",
		internal.EnvAPIBaseURL + "=" + apiBaseURL,
	}
}

func NewLocalLauncher(command []string, apiBaseURL string) *LocalLauncher {
	return &LocalLauncher{command: command, apiBaseURL: apiBaseURL}
}

// LocalLauncher spawns the worker command on the controller machine.
type LocalLauncher struct {
	command    []string
	apiBaseURL string
}

func (l *LocalLauncher) Launch(
	ctx context.Context,
	spec WorkerSpec,
	progress func(ProgressEvent),
) WorkerOutcome {
	if len(l.command) == 0 {
		return WorkerOutcome{ExitCode: -1, Err: errors.New("no worker command configured")}
	}

	cmd := exec.CommandContext(ctx, l.command[0], l.command[1:]...)
	cmd.Env = append(os.Environ(), workerEnv(spec, l.apiBaseURL)...)
	cmd.Stderr = io.Discard

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return WorkerOutcome{ExitCode: -1, Err: err}
	}
	if err := cmd.Start(); err != nil {
		return WorkerOutcome{ExitCode: -1, Err: err}
	}

	result := scanWorkerOutput(spec.RunID, stdout, progress)

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return WorkerOutcome{ExitCode: exitErr.ExitCode(), Result: result}
		}
		return WorkerOutcome{ExitCode: -1, Result: result, Err: err}
	}
	return WorkerOutcome{ExitCode: 0, Result: result}
}

// scanWorkerOutput reads stdout line by line, forwarding progress events and
// retaining the last RESULT payload. Noise lines are dropped.
func scanWorkerOutput(runID string, r io.Reader, progress func(ProgressEvent)) *WorkerResult {
	var result *WorkerResult
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		ev := ParseWorkerLine(runID, scanner.Text())
		switch ev.Kind {
		case EventProgress:
			if progress != nil {
				progress(*ev.Progress)
			}
		case EventResult:
			result = ev.Result
		}
	}
	return result
}

func NewSSHLauncher(
	agentStore store.AgentStore,
	encrypter security.Encrypter,
	command []string,
	apiBaseURL, reportsDir string,
) *SSHLauncher {
	return &SSHLauncher{
		agentStore: agentStore,
		encrypter:  encrypter,
		command:    command,
		apiBaseURL: apiBaseURL,
		reportsDir: reportsDir,
	}
}

// SSHLauncher runs the worker contract on a registered remote agent and pulls
// the per-run report file back over sftp so the merger finds it locally.
type SSHLauncher struct {
	agentStore store.AgentStore
	encrypter  security.Encrypter
	command    []string
	apiBaseURL string
	reportsDir string
}

func (l *SSHLauncher) Launch(
	ctx context.Context,
	spec WorkerSpec,
	progress func(ProgressEvent),
) WorkerOutcome {
	if spec.AgentID == nil {
		return WorkerOutcome{ExitCode: -1, Err: errors.New("no agent bound to environment")}
	}
	agent, err := l.agentStore.ReadAgentByID(ctx, *spec.AgentID)
	if err != nil {
		return WorkerOutcome{ExitCode: -1, Err: err}
	}
	if agent.SSHPrivateKeyHash == nil {
		return WorkerOutcome{ExitCode: -1, Err: fmt.Errorf("agent %s has no credentials", agent.Name)}
	}
	privateKey, err := l.encrypter.DecryptAES(*agent.SSHPrivateKeyHash)
	if err != nil {
		return WorkerOutcome{ExitCode: -1, Err: err}
	}

	client, err := connectSSH(agent.Username, agent.Hostname, privateKey)
	if err != nil {
		return WorkerOutcome{ExitCode: -1, Err: err}
	}
	defer client.Close()

	sess, err := client.NewSession()
	if err != nil {
		return WorkerOutcome{ExitCode: -1, Err: err}
	}
	defer sess.Close()

	for _, kv := range workerEnv(spec, l.apiBaseURL) {
		name, value, _ := strings.Cut(kv, "=")
		if err := sess.Setenv(name, value); err != nil {
			return WorkerOutcome{ExitCode: -1, Err: err}
		}
	}

	stdout, err := sess.StdoutPipe()
	if err != nil {
		return WorkerOutcome{ExitCode: -1, Err: err}
	}

	cmd := fmt.Sprintf("cd %s && %s", agent.Workspace, strings.Join(l.command, " "))
	if err := sess.Start(cmd); err != nil {
		return WorkerOutcome{ExitCode: -1, Err: err}
	}

	var result *WorkerResult
	doneCh := make(chan error, 1)
	go func() {
		result = scanWorkerOutput(spec.RunID, stdout, progress)
		doneCh <- sess.Wait()
	}()

	select {
	case <-ctx.Done():
		sess.Signal(ssh.SIGINT)
		return WorkerOutcome{
			ExitCode: -1,
			Err:      RunCancelError{Message: "run cancelled while executing on agent"},
		}
	case err := <-doneCh:
		outcome := WorkerOutcome{ExitCode: 0, Result: result}
		if err != nil {
			var exitErr *ssh.ExitError
			if errors.As(err, &exitErr) {
				outcome.ExitCode = exitErr.ExitStatus()
			} else {
				outcome.ExitCode = -1
				outcome.Err = err
			}
		}
		l.fetchReport(client, agent.Workspace, spec.RunID)
		return outcome
	}
}

// fetchReport copies the run's report file from the agent to the local
// reports directory. A missing remote report is tolerated; the collector and
// merger handle its absence.
func (l *SSHLauncher) fetchReport(client *ssh.Client, workspace, runID string) {
	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		return
	}
	defer sftpClient.Close()

	remotePath := path.Join(workspace, l.reportsDir, RunReportFileName(runID))
	remoteFile, err := sftpClient.Open(remotePath)
	if err != nil {
		return
	}
	defer remoteFile.Close()

	localFile, err := os.Create(filepath.Join(l.reportsDir, RunReportFileName(runID)))
	if err != nil {
		return
	}
	defer localFile.Close()

	io.Copy(localFile, remoteFile)
}

func connectSSH(username, hostname string, privateKey []byte) (*ssh.Client, error) {
	signer, err := ssh.ParsePrivateKey(privateKey)
	if err != nil {
		return nil, err
	}
	auth := ssh.PublicKeys(signer)
	cc := &ssh.ClientConfig{
		User:            username,
		Auth:            []ssh.AuthMethod{auth},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         10 * time.Second,
	}

	split := strings.Split(hostname, ":")
	if len(split) == 1 {
		hostname += ":22"
	}
	return ssh.Dial("tcp", hostname, cc)
}

func NewLauncherMux(
	catalog *EnvironmentCatalog,
	local, remote WorkerLauncher,
) *LauncherMux {
	return &LauncherMux{catalog: catalog, local: local, remote: remote}
}

// LauncherMux routes a run to the agent bound to its environment, falling
// back to the local launcher.
type LauncherMux struct {
	catalog *EnvironmentCatalog
	local   WorkerLauncher
	remote  WorkerLauncher
}

func (m *LauncherMux) Launch(
	ctx context.Context,
	spec WorkerSpec,
	progress func(ProgressEvent),
) WorkerOutcome {
	if env, err := m.catalog.Resolve(spec.Environment); err == nil &&
		env.AgentID != nil && m.remote != nil {
		spec.AgentID = env.AgentID
		return m.remote.Launch(ctx, spec, progress)
	}
	return m.local.Launch(ctx, spec, progress)
}
