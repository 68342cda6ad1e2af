package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/registry"
	"github.com/google/go-containerregistry/pkg/v1/random"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	"github.com/maxdollinger/imagespec/pkg/fs"
	"github.com/maxdollinger/imagespec/pkg/imagespec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cli struct {
	t         *testing.T
	configDir string
	dbPath    string
}

func newCLI(t *testing.T) *cli {
	dir := t.TempDir()
	return &cli{t: t, configDir: dir, dbPath: filepath.Join(dir, "specs.db")}
}

func (c *cli) run(args ...string) (int, string, string) {
	c.t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"-config", c.configDir, "-db", c.dbPath, "-log-level", "error"}, args...)
	code := run(context.Background(), full, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func pushRandomImage(t *testing.T, layers int64) string {
	t.Helper()
	s := httptest.NewServer(registry.New())
	t.Cleanup(s.Close)
	u, err := url.Parse(s.URL)
	require.NoError(t, err)

	img, err := random.Image(64, layers)
	require.NoError(t, err)
	refStr := fmt.Sprintf("%s/cli/image:v1", u.Host)
	ref, err := name.ParseReference(refStr)
	require.NoError(t, err)
	require.NoError(t, remote.Write(ref, img))
	return refStr
}

func TestFetchGetListLaunchDelete(t *testing.T) {
	c := newCLI(t)
	ref := pushRandomImage(t, 2)

	code, out, errOut := c.run("fetch", "-ref", ref)
	require.Equal(t, 0, code, errOut)
	dgst := strings.TrimSpace(out)
	require.True(t, strings.HasPrefix(dgst, "sha256:"), dgst)

	code, out, errOut = c.run("list")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "DIGEST")
	assert.Contains(t, out, dgst)
	assert.Contains(t, out, "cli/image:v1")

	code, out, errOut = c.run("get", "-digest", dgst)
	require.Equal(t, 0, code, errOut)
	spec, err := imagespec.Unmarshal([]byte(out))
	require.NoError(t, err)
	assert.Len(t, spec.Rootfs.DiffIDs, 2)

	outFile := filepath.Join(t.TempDir(), "config.json")
	code, out, errOut = c.run("get", "-digest", dgst, "-out", outFile)
	require.Equal(t, 0, code, errOut)
	assert.Empty(t, out)
	written, err := os.ReadFile(outFile)
	require.NoError(t, err)
	fromFile, err := imagespec.Unmarshal(written)
	require.NoError(t, err)
	assert.Equal(t, spec, fromFile)

	launchDir := filepath.Join(t.TempDir(), "rootfs")
	code, _, errOut = c.run("launch", "-digest", dgst, "-out", launchDir)
	require.Equal(t, 0, code, errOut)
	env, err := os.ReadFile(filepath.Join(launchDir, fs.LaunchDir, fs.EnvFileName))
	require.NoError(t, err)
	assert.Contains(t, string(env), "WORKDIR=")
	_, err = os.Stat(filepath.Join(launchDir, fs.LaunchDir, fs.ArgvFileName))
	assert.NoError(t, err)

	code, _, errOut = c.run("delete", "-digest", dgst)
	require.Equal(t, 0, code, errOut)

	code, _, errOut = c.run("get", "-digest", dgst)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "not found")
}

func TestInspectFetchGetShareDigest(t *testing.T) {
	c := newCLI(t)
	ref := pushRandomImage(t, 1)

	code, out, errOut := c.run("inspect", "-ref", ref)
	require.Equal(t, 0, code, errOut)
	m := regexp.MustCompile(`Digest:\s+(sha256:[0-9a-f]{64})`).FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	inspected := m[1]

	code, out, errOut = c.run("fetch", "-ref", ref)
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, inspected, strings.TrimSpace(out))

	code, out, errOut = c.run("get", "-digest", inspected)
	require.Equal(t, 0, code, errOut)
	spec, err := imagespec.Unmarshal([]byte(out))
	require.NoError(t, err)
	assert.Len(t, spec.Rootfs.DiffIDs, 1)
}

func TestInspectFile(t *testing.T) {
	c := newCLI(t)
	path := filepath.Join(t.TempDir(), "config.json")
	doc := `{"architecture":"arm64","variant":"v8","os":"linux",` +
		`"config":{"Entrypoint":["/docker-entrypoint.sh"],"Cmd":["nginx","-g","daemon off;"]},` +
		`"rootfs":{"diff_ids":["sha256:abc"],"type":"layers"}}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	code, out, errOut := c.run("inspect", "-file", path)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "linux/arm64/v8")
	assert.Contains(t, out, "nginx -g daemon off;")
	assert.Regexp(t, `Layers:\s+1`, out)

	code, out, errOut = c.run("inspect", "-file", path, "-json")
	require.Equal(t, 0, code, errOut)
	spec, err := imagespec.Unmarshal([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "arm64", spec.Architecture)
}

func TestInspectSchemaViolation(t *testing.T) {
	c := newCLI(t)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"architecture":"amd64","rootfs":{"diff_ids":[],"type":"layers"}}`), 0o644))

	code, _, errOut := c.run("inspect", "-file", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, `"os"`)
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{name: "no command", args: nil, code: 2},
		{name: "unknown command", args: []string{"frobnicate"}, code: 2},
		{name: "unknown flag", args: []string{"list", "-verbose"}, code: 2},
		{name: "help", args: []string{"get", "-h"}, code: 0},
		{name: "missing digest", args: []string{"get"}, code: 1},
		{name: "invalid digest", args: []string{"delete", "-digest", "md5:nope"}, code: 1},
		{name: "missing out", args: []string{"launch", "-digest", "sha256:" + strings.Repeat("a", 64)}, code: 1},
		{name: "no source", args: []string{"inspect"}, code: 1},
		{name: "two sources", args: []string{"inspect", "-ref", "nginx", "-file", "x.json"}, code: 1},
		{name: "missing ref", args: []string{"fetch"}, code: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCLI(t)
			code, _, errOut := c.run(tt.args...)
			assert.Equal(t, tt.code, code, errOut)
		})
	}
}
