package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jensneuse/abstractlogger"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

var manifest = filepath.Join("testdata", "supergraph.yaml")

func runCLI(args ...string) (stdout, stderr string, err error) {
	var out, errOut bytes.Buffer
	err = run(args, &out, &errOut)
	return out.String(), errOut.String(), err
}

func TestHelp(t *testing.T) {
	out, _, err := runCLI("help", "serve")
	require.NoError(t, err)
	require.Contains(t, out, "serve FLAGS")

	out, _, err = runCLI("help")
	require.NoError(t, err)
	require.Contains(t, out, "print-schema")

	_, _, err = runCLI("help", "nope")
	require.EqualError(t, err, `unknown help topic "nope"`)
}

func TestUnknownCommand(t *testing.T) {
	_, errOut, err := runCLI("compile")
	require.EqualError(t, err, `unknown command "compile"`)
	require.Contains(t, errOut, "USAGE")

	_, _, err = runCLI()
	require.EqualError(t, err, "missing command")
}

func TestPrintSchema(t *testing.T) {
	out, _, err := runCLI("print-schema", "-manifest", manifest)
	require.NoError(t, err)
	require.Contains(t, out, "type Query")
	require.Contains(t, out, `@join__graph(name: "inventory", url: "http://inventory:4003/graphql")`)
	require.NotContains(t, out, "__Schema")

	file := filepath.Join(t.TempDir(), "supergraph.graphql")
	_, _, err = runCLI("print-schema", "-manifest", manifest, "-out", file)
	require.NoError(t, err)
	written, err := os.ReadFile(file)
	require.NoError(t, err)
	require.Equal(t, out, string(written))
}

func TestPlanSingleFile(t *testing.T) {
	out, _, err := runCLI("plan", "-manifest", manifest, filepath.Join("testdata", "operations", "me.graphql"))
	require.NoError(t, err)

	plan := gjson.Parse(out)
	require.Equal(t, "Me", plan.Get("name").String())
	require.Equal(t, int64(2), plan.Get("partitions.#").Int())
	require.Equal(t, "accounts", plan.Get("partitions.0.subgraphName").String())
	require.Equal(t, "reviews", plan.Get("partitions.1.subgraphName").String())
}

func TestPlanManyFiles(t *testing.T) {
	me := filepath.Join("testdata", "operations", "me.graphql")
	top := filepath.Join("testdata", "operations", "top.graphql")
	out, _, err := runCLI("plan", "-manifest", manifest, "-variables", `{"first": 3}`, "-pretty", top, me)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "[\n  {"), "pretty output")

	res := gjson.Parse(out)
	require.Equal(t, int64(2), res.Get("#").Int())
	require.Equal(t, top, res.Get("0.file").String())
	require.Equal(t, "Top", res.Get("0.plan.name").String())
	require.Equal(t, me, res.Get("1.file").String())

	var subgraphs []string
	for _, p := range res.Get("0.plan.partitions").Array() {
		subgraphs = append(subgraphs, p.Get("subgraphName").String())
	}
	require.Equal(t, []string{"products", "inventory"}, subgraphs)
}

func TestPlanErrors(t *testing.T) {
	invalid := filepath.Join("testdata", "operations", "invalid.graphql")
	_, _, err := runCLI("plan", "-manifest", manifest, invalid)
	require.ErrorContains(t, err, `Cannot query field "nickname" on type "User".`)
	require.ErrorContains(t, err, invalid)

	_, errOut, err := runCLI("plan", "-manifest", manifest)
	require.EqualError(t, err, "no operation files given")
	require.Contains(t, errOut, "plan FLAGS")

	_, _, err = runCLI("plan", "-manifest", filepath.Join("testdata", "missing.yaml"), invalid)
	require.ErrorContains(t, err, "failed to read manifest")

	_, _, err = runCLI("plan", "-manifest", manifest, "-log.level", "loud", invalid)
	require.ErrorContains(t, err, "-log.level")
}

func TestServeFlags(t *testing.T) {
	cfg, err := parseServeFlags([]string{
		"-manifest", manifest,
		"-server.addr", "127.0.0.1:9999",
		"-server.cors-origin", "http://a",
		"-server.cors-origin", "http://b",
		"-planner.max-fields", "50",
	})
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9999", cfg.addr)
	require.Equal(t, stringListFlag{"http://a", "http://b"}, cfg.corsOrigins)
	require.Equal(t, 50, cfg.maxFields)
	require.Equal(t, 1024, cfg.cacheSize)
	require.True(t, cfg.introspection)

	_, err = parseServeFlags([]string{"extra"})
	require.Error(t, err)
}

func TestServeMux(t *testing.T) {
	cfg, err := parseServeFlags([]string{"-manifest", manifest})
	require.NoError(t, err)
	mux, p, err := newMux(context.Background(), cfg, abstractlogger.NoopLogger)
	require.NoError(t, err)

	srv := httptest.NewServer(mux)
	defer srv.Close()

	body := `{"query":"{ topProducts { name inStock } __schema { queryType { name } } }"}`
	for i := 0; i < 2; i++ {
		resp, err := http.Post(srv.URL+"/graphql", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		var buf bytes.Buffer
		_, err = buf.ReadFrom(resp.Body)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.True(t, gjson.Get(buf.String(), "data.plan.partitions").Exists(), buf.String())
	}
	require.Equal(t, int64(1), p.Stats().Hits)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	health := gjson.Parse(buf.String())
	require.Len(t, health.Get("schemaVersion").String(), 16)
	require.Equal(t, int64(1), health.Get("planner.cached").Int())
}
