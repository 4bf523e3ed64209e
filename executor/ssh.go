package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// SSHExecutor runs commands on a remote driver host. Useful when the load
// generator should sit closer to the storage endpoint than this process does.
type SSHExecutor struct {
	User  string
	Host  string
	Port  int
	Auths []ssh.AuthMethod
}

func (e *SSHExecutor) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	client, err := e.client()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return nil, err
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	if err := session.Start(shellCommand(name, args)); err != nil {
		return nil, fmt.Errorf("starting %s failed: %w", name, err)
	}

	done := make(chan error, 1)
	go func() { done <- session.Wait() }()

	select {
	case <-ctx.Done():
		session.Signal(ssh.SIGKILL)
		session.Close()
		return &Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, ctx.Err()
	case err = <-done:
	}

	res := &Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	var ee *ssh.ExitError
	switch {
	case err == nil:
		res.ExitCode = 0
	case errors.As(err, &ee):
		res.ExitCode = ee.ExitStatus()
	default:
		return nil, fmt.Errorf("running %s failed: %w", name, err)
	}
	return res, nil
}

func (e *SSHExecutor) LookPath(name string) (string, error) {
	client, err := e.client()
	if err != nil {
		return "", err
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return "", err
	}
	defer session.Close()

	out, err := session.Output(fmt.Sprintf("command -v %s", shellQuote(name)))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrExecutableNotFound, name)
	}
	return strings.TrimSpace(string(out)), nil
}

func (e *SSHExecutor) WriteFile(p string, data []byte, perm fs.FileMode) error {
	client, err := e.client()
	if err != nil {
		return err
	}
	defer client.Close()

	sc, err := sftp.NewClient(client)
	if err != nil {
		return err
	}
	defer sc.Close()

	if err := sc.MkdirAll(path.Dir(p)); err != nil {
		return err
	}

	dst, err := sc.Create(p)
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := dst.Write(data); err != nil {
		return err
	}
	return dst.Chmod(perm)
}

func (e *SSHExecutor) client() (*ssh.Client, error) {
	cfg := &ssh.ClientConfig{
		User:            e.User,
		Auth:            e.Auths,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}
	return ssh.Dial("tcp", fmt.Sprintf("%s:%d", e.Host, e.Port), cfg)
}

func shellCommand(name string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, shellQuote(name))
	for _, a := range args {
		parts = append(parts, shellQuote(a))
	}
	return strings.Join(parts, " ")
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
