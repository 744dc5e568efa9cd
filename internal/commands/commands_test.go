package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hay-kot/logdest/internal/core"
	"github.com/hay-kot/logdest/pkgs/printer"
)

const testConfig = `
work_dir: /home/user/project
macros:
  browser: '"selenium" in tags'
outputs:
  - name: selenium
    path: ./log
    default_filename: selenium-standalone.txt
    tags: [selenium, wdio]
  - name: report
    path: /var/reports/report.json
    tags: [ci]
  - name: trace
    path: trace
    tags: [selenium]
`

func writeTestConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "logdest.yml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	return path
}

func Test_resolveOutputs(t *testing.T) {
	pr := core.NewPathResolver("/home/user/project")
	outputs := []core.Output{
		{Name: "a", Path: "./log", DefaultFilename: "out.txt"},
		{Name: "b", Path: "/data.log"},
		{Name: "c", Path: "log"},
		{Name: "d", Path: "log/run.txt", DefaultFilename: "ignored.txt"},
	}

	got := resolveOutputs(pr, outputs)
	if len(got) != len(outputs) {
		t.Fatalf("len(resolveOutputs()) = %d, want %d", len(got), len(outputs))
	}

	want := []struct {
		name string
		dest string
		kind core.Kind
		err  error
	}{
		{name: "a", dest: "/home/user/project/log/out.txt", kind: core.KindDirectory},
		{name: "b", dest: "/data.log", kind: core.KindFile},
		{name: "c", kind: core.KindDirectory, err: core.ErrInvalidDefaultFilename},
		{name: "d", dest: "/home/user/project/log/run.txt", kind: core.KindFile},
	}

	for i, w := range want {
		r := got[i]
		if r.Name != w.name || r.Dest != w.dest || r.Kind != w.kind {
			t.Errorf("resolveOutputs()[%d] = %+v, want %+v", i, r, w)
		}
		if !errors.Is(r.Err, w.err) {
			t.Errorf("resolveOutputs()[%d].Err = %v, want %v", i, r.Err, w.err)
		}
	}
}

func Test_filterOutputs(t *testing.T) {
	pr := core.NewPathResolver("/home/user/project")
	all := resolveOutputs(pr, []core.Output{
		{Name: "selenium", Path: "./log", DefaultFilename: "out.txt", Tags: []string{"selenium"}},
		{Name: "report", Path: "/r.json", Tags: []string{"ci"}},
		{Name: "untagged", Path: "run.log"},
	})

	tests := []struct {
		name string
		expr string
		want []string
	}{
		{name: "all", expr: "", want: []string{"selenium", "report", "untagged"}},
		{name: "tag", expr: "+ci", want: []string{"report"}},
		{name: "files", expr: `kind == "file"`, want: []string{"report", "untagged"}},
		{name: "resolved path", expr: `resolved startsWith "/home"`, want: []string{"selenium", "untagged"}},
		{name: "macro", expr: "@browser", want: []string{"selenium"}},
	}

	macros := map[string]string{"browser": `"selenium" in tags`}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := filterOutputs(all, tt.expr, macros)
			if err != nil {
				t.Fatalf("filterOutputs() error = %v", err)
			}

			names := make([]string, 0, len(got))
			for _, r := range got {
				names = append(names, r.Name)
			}
			if strings.Join(names, ",") != strings.Join(tt.want, ",") {
				t.Errorf("filterOutputs() = %v, want %v", names, tt.want)
			}
		})
	}

	spaced := resolveOutputs(pr, []core.Output{
		{Name: "a  b", Path: "run.log", Tags: []string{"x"}},
		{Name: "c +d", Path: "user@host.log"},
	})

	literals := []struct {
		expr string
		want []string
	}{
		{expr: `name == "a  b"`, want: []string{"a  b"}},
		{expr: `!("x" in tags)`, want: []string{"c +d"}},
		{expr: `name == "c +d"`, want: []string{"c +d"}},
		{expr: `path startsWith "user@host"`, want: []string{"c +d"}},
	}

	for _, tt := range literals {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := filterOutputs(spaced, tt.expr, nil)
			if err != nil {
				t.Fatalf("filterOutputs() error = %v", err)
			}

			names := make([]string, 0, len(got))
			for _, r := range got {
				names = append(names, r.Name)
			}
			if strings.Join(names, ",") != strings.Join(tt.want, ",") {
				t.Errorf("filterOutputs() = %v, want %v", names, tt.want)
			}
		})
	}

	if _, err := filterOutputs(all, "name ==", nil); err == nil {
		t.Error("filterOutputs() expected error for invalid expression")
	}
}

func TestListCmd_Plain(t *testing.T) {
	cfgpath := writeTestConfig(t, testConfig)

	cfg, pr, err := loadConfig(cfgpath)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	lc := NewListCmd(&core.Flags{ConfigFilePath: cfgpath})
	lc.flags.Plain = true
	lc.expr = "+selenium"

	var buf bytes.Buffer
	if err := lc.run(context.Background(), &buf, cfg, pr); err != nil {
		t.Fatalf("ListCmd.run() error = %v", err)
	}

	// trace has no default filename and is skipped
	want := "selenium\t/home/user/project/log/selenium-standalone.txt\n"
	if buf.String() != want {
		t.Errorf("ListCmd.run() output = %q, want %q", buf.String(), want)
	}
}

func TestListCmd_Styled(t *testing.T) {
	cfgpath := writeTestConfig(t, testConfig)

	cfg, pr, err := loadConfig(cfgpath)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	var buf bytes.Buffer
	ctx := printer.WithWriter(context.Background(), &buf)

	lc := NewListCmd(&core.Flags{ConfigFilePath: cfgpath})
	if err := lc.run(ctx, &buf, cfg, pr); err != nil {
		t.Fatalf("ListCmd.run() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"selenium", "/var/reports/report.json", "trace", "invalid default filename"} {
		if !strings.Contains(out, want) {
			t.Errorf("ListCmd.run() output missing %q:\n%s", want, out)
		}
	}
}

func TestCheckCmd(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr bool
	}{
		{
			name:    "unresolvable output",
			config:  testConfig,
			wantErr: true,
		},
		{
			name: "all resolve",
			config: `
work_dir: /srv
outputs:
  - name: a
    path: logs
    default_filename: a.txt
  - name: b
    path: b.log
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, pr, err := loadConfig(writeTestConfig(t, tt.config))
			if err != nil {
				t.Fatalf("loadConfig() error = %v", err)
			}

			var buf bytes.Buffer
			ctx := printer.WithWriter(context.Background(), &buf)

			err = NewCheckCmd(&core.Flags{}).run(ctx, cfg, pr)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckCmd.run() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !strings.Contains(buf.String(), "Checked") {
				t.Errorf("CheckCmd.run() output missing title:\n%s", buf.String())
			}
		})
	}
}

func Test_loadConfig_Invalid(t *testing.T) {
	cfgpath := writeTestConfig(t, `
outputs:
  - name: a
    path: ./log
  - name: a
`)

	if _, _, err := loadConfig(cfgpath); err == nil {
		t.Error("loadConfig() expected validation error")
	}
}

func TestResolveCmd_resolve(t *testing.T) {
	cfgpath := writeTestConfig(t, testConfig)

	tests := []struct {
		name      string
		specifier string
		workDir   string
		filename  string
		output    string
		want      string
		wantErr   bool
	}{
		{
			name:      "directory with work dir",
			specifier: "./log/",
			workDir:   "/home/user/project",
			filename:  "out.txt",
			want:      "/home/user/project/log/out.txt",
		},
		{
			name:      "absolute file",
			specifier: "/data.log",
			workDir:   "/home/user/project",
			filename:  "out.txt",
			want:      "/data.log",
		},
		{
			name:   "configured output",
			output: "selenium",
			want:   "/home/user/project/log/selenium-standalone.txt",
		},
		{
			name:     "configured output with fallback filename",
			output:   "trace",
			filename: "trace.zip",
			want:     "/home/user/project/trace/trace.zip",
		},
		{
			name:    "configured output with work dir override",
			output:  "selenium",
			workDir: "/srv/runs",
			want:    "/srv/runs/log/selenium-standalone.txt",
		},
		{
			name:    "unknown output",
			output:  "missing",
			wantErr: true,
		},
		{
			name:      "specifier and output",
			specifier: "./log",
			output:    "selenium",
			wantErr:   true,
		},
		{
			name:     "missing specifier",
			filename: "out.txt",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := NewResolveCmd(&core.Flags{ConfigFilePath: cfgpath})
			rc.flags.WorkDir = tt.workDir
			rc.flags.DefaultFilename = tt.filename
			rc.flags.Output = tt.output

			got, err := rc.resolve(tt.specifier)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveCmd.resolve() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got.Path != tt.want {
				t.Errorf("ResolveCmd.resolve() = %v, want %v", got.Path, tt.want)
			}
		})
	}
}

func TestResolveCmd_print(t *testing.T) {
	res := core.Resolution{Specifier: "log", Kind: core.KindDirectory, Path: "/p/log/out.txt"}

	var buf bytes.Buffer
	rc := NewResolveCmd(&core.Flags{})
	if err := rc.print(context.Background(), &buf, res); err != nil {
		t.Fatalf("ResolveCmd.print() error = %v", err)
	}
	if buf.String() != "/p/log/out.txt\n" {
		t.Errorf("ResolveCmd.print() = %q", buf.String())
	}

	buf.Reset()
	rc.flags.Explain = true
	ctx := printer.WithWriter(context.Background(), &buf)
	if err := rc.print(ctx, &buf, res); err != nil {
		t.Fatalf("ResolveCmd.print() error = %v", err)
	}
	for _, want := range []string{"directory", "false", "/p/log/out.txt"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("ResolveCmd.print() explain output missing %q:\n%s", want, buf.String())
		}
	}
}
