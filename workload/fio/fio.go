package fio

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/fionet/fionet/config"
	"github.com/fionet/fionet/metrics"
	"github.com/fionet/fionet/workload"
	goversion "github.com/hashicorp/go-version"
	"github.com/mitchellh/mapstructure"
)

const (
	// The read profile targets this many pre-populated objects.
	ReadObjectCount = 100
	// fio's filename option has a 4096 char limit, so read jobs get explicit
	// file lists capped at this many entries.
	readFilesPerJob = 50
	// Key format of the pre-populated read objects. Short on purpose, see
	// the filename limit above.
	ReadKeyFormat = "r/o%04d"

	// Extra wall time a fio process gets on top of runtime + ramp before it
	// is terminated.
	launchMarginSec = 30
)

// Versions before this predate usable http/s3 engine output.
var minFioVersion = goversion.Must(goversion.NewVersion("3.1.0"))

type Input struct {
	Name       string
	Role       string // "write" or "read"
	JobRef     string // the configured job-definition reference, recorded only
	NumJobs    int
	RuntimeSec int
	RampSec    int
	ObjectSize string
}

type fioWorkload struct {
	input *Input
}

func init() {
	workload.Register("fio", func(a map[string]any) (workload.Workload, error) {
		input := &Input{}
		if err := mapstructure.Decode(a, input); err != nil {
			return nil, fmt.Errorf("can't convert input to fio Input: %w", err)
		}
		return New(input)
	})
}

func New(input *Input) (workload.Workload, error) {
	if input.Role != string(workload.RoleWrite) && input.Role != string(workload.RoleRead) {
		return nil, fmt.Errorf("fio workload role must be write or read, got %q", input.Role)
	}
	if input.NumJobs <= 0 {
		return nil, fmt.Errorf("fio workload needs a positive job count, got %d", input.NumJobs)
	}
	return &fioWorkload{input: input}, nil
}

func (w *fioWorkload) Check(ctx *workload.Context) error {
	if _, err := ctx.Exec.LookPath("fio"); err != nil {
		return err
	}

	cctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := ctx.Exec.Run(cctx, "fio", "--version")
	if err != nil || res.ExitCode != 0 {
		return fmt.Errorf("fio --version failed: %v", err)
	}
	ver, err := parseVersion(strings.TrimSpace(string(res.Stdout)))
	if err != nil {
		return err
	}
	if ver.LessThan(minFioVersion) {
		return fmt.Errorf("fio %s is too old, need at least %s", ver, minFioVersion)
	}
	slog.Info("found fio", slog.String("version", ver.String()))

	res, err = ctx.Exec.Run(cctx, "fio", "--enghelp")
	if err != nil || res.ExitCode != 0 {
		return fmt.Errorf("fio --enghelp failed: %v", err)
	}
	engines := strings.ToLower(string(res.Stdout))
	if !strings.Contains(engines, "s3") && !strings.Contains(engines, "http") {
		return fmt.Errorf("fio has no s3 or http engine; this build cannot target object storage")
	}
	return nil
}

func (w *fioWorkload) SetUp(ctx *workload.Context) error {
	jobFile, err := w.jobFileContent(ctx.Config)
	if err != nil {
		return err
	}
	p := w.jobFilePath(ctx)
	slog.Debug("writing fio job file", slog.String("workload", w.input.Name), slog.String("path", p))
	return ctx.Exec.WriteFile(p, []byte(jobFile), 0o644)
}

func (w *fioWorkload) Command(ctx *workload.Context) (string, []string, error) {
	// jobs are embedded in the generated file, so numjobs stays 1
	return "fio", []string{w.jobFilePath(ctx), "--output-format=json", "--numjobs=1"}, nil
}

func (w *fioWorkload) Timeout() time.Duration {
	return time.Duration(w.input.RuntimeSec+w.input.RampSec+launchMarginSec) * time.Second
}

func (w *fioWorkload) Parser() metrics.Parser {
	return metrics.NewFioParser(w.input.Role)
}

func (w *fioWorkload) Name() string {
	return w.input.Name
}

func (w *fioWorkload) Role() workload.Role {
	return workload.Role(w.input.Role)
}

func (w *fioWorkload) jobFilePath(ctx *workload.Context) string {
	return path.Join(ctx.OutDir, "temp_"+w.input.Name+".fio")
}

// jobFileContent generates a job file with the S3 parameters embedded, one
// section per parallel job.
func (w *fioWorkload) jobFileContent(cfg *config.Config) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, `[global]
ioengine=http
http_mode=s3
http_verbose=0
direct=1
http_host=%s
http_s3_key=%s
http_s3_keyid=%s
http_s3_region=%s
runtime=%d
ramp_time=%d
`, cfg.HTTPHost(), cfg.SecretKey, cfg.AccessKey, cfg.Region, w.input.RuntimeSec, w.input.RampSec)

	size := w.input.ObjectSize
	if size == "" {
		size = cfg.ObjectSize
	}

	if w.input.Role == string(workload.RoleWrite) {
		// each job creates its own unique objects via nrfiles
		for i := 0; i < w.input.NumJobs; i++ {
			fmt.Fprintf(&sb, `
[write-job-%d]
rw=write
bs=%s
filesize=%s
nrfiles=100
filename_format=/%s/w%d-$filenum
openfiles=1
file_service_type=sequential
`, i, size, size, cfg.Bucket, i)
		}
		return sb.String(), nil
	}

	// read jobs get explicit lists over the pre-populated objects
	numJobs := (ReadObjectCount + readFilesPerJob - 1) / readFilesPerJob
	for i := 0; i < numJobs; i++ {
		start := i * readFilesPerJob
		end := min(start+readFilesPerJob, ReadObjectCount)

		names := make([]string, 0, end-start)
		for j := start; j < end; j++ {
			names = append(names, "/"+cfg.Bucket+"/"+fmt.Sprintf(ReadKeyFormat, j))
		}
		fmt.Fprintf(&sb, `
[read-job-%d]
rw=read
bs=%s
filesize=%s
filename=%s
openfiles=1
file_service_type=sequential
`, i, size, size, strings.Join(names, ":"))
	}
	return sb.String(), nil
}

func parseVersion(out string) (*goversion.Version, error) {
	// fio prints e.g. "fio-3.33"
	v := strings.TrimPrefix(out, "fio-")
	ver, err := goversion.NewVersion(v)
	if err != nil {
		return nil, fmt.Errorf("cannot parse fio version from %q: %w", out, err)
	}
	return ver, nil
}
