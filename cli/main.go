package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/fionet/fionet/config"
	"github.com/fionet/fionet/executor"
	"github.com/fionet/fionet/orchestrator"
	"github.com/fionet/fionet/prep"
	"github.com/fionet/fionet/runenv"
	"github.com/fionet/fionet/runner"
	"github.com/fionet/fionet/workload"
	_ "github.com/fionet/fionet/workload/fio"
	"github.com/fionet/fionet/workload/iperf3"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/ssh"
)

func main() {
	envFile := flag.String("env-file", ".env", "Environment file to load before resolving configuration. Missing file is not an error.")
	suiteFile := flag.String("suite", "", "A JSON file overriding the default workload set. The default set is two fio profiles plus the optional iperf3 baseline.")
	remote := flag.String("remote", "", "Run the load tools on a remote driver host instead of locally, as user@host[:port].")
	remoteKey := flag.String("remote-key", "", "Private key file for the remote driver host.")
	concurrency := flag.Int("concurrency", 0, "How many workloads may run at once. Unlimited by default; the profiles are meant to run concurrently.")
	uploadConcurrency := flag.Int("upload-concurrency", 16, "The number of goroutines used to upload the read profile's objects.")
	skipPrep := flag.Bool("skip-prep", false, "Skip endpoint, bucket and read-object preparation. The objects must already exist.")
	outDir := flag.String("out-dir", "", "Directory for raw result artifacts and generated job files. Overrides OUT_DIR.")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		fatal(fmt.Errorf("loading %s failed: %w", *envFile, err))
	}

	env := runenv.Detect()
	cfg, err := config.Load(env)
	if err != nil {
		fatal(err)
	}
	if *outDir != "" {
		cfg.OutDir = *outDir
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)
	slog.Info("resolved environment",
		slog.Bool("inContainer", env.InContainer),
		slog.String("endpoint", cfg.Endpoint),
	)

	exec, err := buildExecutor(*remote, *remoteKey)
	if err != nil {
		fatal(err)
	}

	ws, err := buildWorkloads(cfg, *suiteFile)
	if err != nil {
		fatal(err)
	}

	ctx := context.Background()
	var preparer orchestrator.Preparer
	if !*skipPrep {
		p, err := prep.New(ctx, cfg, *uploadConcurrency)
		if err != nil {
			fatal(err)
		}
		preparer = p
	}

	// host runs targeting localhost get their own iperf3 server for the
	// duration of the run
	var srv *iperf3.LocalServer
	if cfg.Iperf3Enabled && *remote == "" && iperf3.IsLocal(cfg.Iperf3Server) {
		srv, err = iperf3.StartLocalServer(exec)
		if err != nil {
			fatal(err)
		}
	}

	orch := orchestrator.New(cfg, exec, preparer, runner.New(*concurrency), ws, os.Stdout)
	_, err = orch.Run(ctx)
	srv.Stop()
	if err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	slog.Error(err.Error())
	os.Exit(1)
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildExecutor(remote, keyFile string) (executor.Executor, error) {
	if remote == "" {
		return &executor.LocalExecutor{}, nil
	}

	user, addr, ok := strings.Cut(remote, "@")
	if !ok {
		return nil, fmt.Errorf("remote must be user@host[:port], got %q", remote)
	}
	host, port := addr, 22
	if h, p, err := net.SplitHostPort(addr); err == nil {
		host = h
		port, err = strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid remote port %q: %w", p, err)
		}
	}

	if keyFile == "" {
		return nil, fmt.Errorf("remote-key is required with remote")
	}
	buf, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("reading %s failed: %w", keyFile, err)
	}
	signer, err := ssh.ParsePrivateKey(buf)
	if err != nil {
		return nil, fmt.Errorf("parsing private key failed: %w", err)
	}

	return &executor.SSHExecutor{
		User:  user,
		Host:  host,
		Port:  port,
		Auths: []ssh.AuthMethod{ssh.PublicKeys(signer)},
	}, nil
}

// buildWorkloads assembles the workload set, either from a suite file or the
// configured default of two fio profiles plus the optional iperf3 baseline.
// Everything goes through the registry so suite files and defaults build
// workloads the same way.
func buildWorkloads(cfg *config.Config, suiteFile string) ([]workload.Workload, error) {
	var suite workload.SuiteFile
	if suiteFile != "" {
		buf, err := os.ReadFile(suiteFile)
		if err != nil {
			return nil, fmt.Errorf("reading suite file failed: %w", err)
		}
		if err := json.Unmarshal(buf, &suite); err != nil {
			return nil, fmt.Errorf("parsing suite file failed: %w", err)
		}
	} else {
		suite = defaultSuite(cfg)
	}

	ws := make([]workload.Workload, 0, len(suite))
	for i := range suite {
		w, err := workload.Deserialize(&suite[i])
		if err != nil {
			return nil, err
		}
		ws = append(ws, w)
	}
	if len(ws) == 0 {
		return nil, fmt.Errorf("no workloads configured")
	}
	return ws, nil
}

func defaultSuite(cfg *config.Config) workload.SuiteFile {
	var suite workload.SuiteFile
	for _, p := range cfg.Profiles() {
		suite = append(suite, workload.SerializedWorkload{
			Type: "fio",
			Input: map[string]any{
				"Name":       p.Name,
				"Role":       p.Role,
				"JobRef":     p.JobRef,
				"NumJobs":    p.NumJobs,
				"RuntimeSec": cfg.RuntimeSec,
				"RampSec":    cfg.RampSec,
				"ObjectSize": cfg.ObjectSize,
			},
		})
	}
	if cfg.Iperf3Enabled {
		suite = append(suite, workload.SerializedWorkload{
			Type: "iperf3",
			Input: map[string]any{
				"Name":        "iperf3",
				"Server":      cfg.Iperf3Server,
				"DurationSec": cfg.Iperf3DurationSec,
			},
		})
	}
	return suite
}
