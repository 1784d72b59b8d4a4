package cmd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zinc-sig/packhost/internal/host/hosttest"
	"github.com/zinc-sig/packhost/internal/host/wshub"
	"github.com/zinc-sig/packhost/internal/hosting"
	"github.com/zinc-sig/packhost/internal/metrics"
	"github.com/zinc-sig/packhost/internal/publish"
	"github.com/zinc-sig/packhost/internal/sender"
)

// staticHost always publishes to the URL given in its options
type staticHost struct {
	url string
}

func (h *staticHost) Upload(context.Context, hosting.Artifact) bool { return true }
func (h *staticHost) PackURL() string                               { return h.url }
func (h *staticHost) Name() string                                  { return "static" }

func newStaticHost(opts hosting.Options) (*staticHost, error) {
	url, _ := opts["url"].(string)
	return &staticHost{url: url}, nil
}

func init() {
	hosting.RegisterClass(hosting.NewClass("cmdtest.StaticHost", (*staticHost)(nil), newStaticHost))
}

func newTestServer(t *testing.T, enabled bool) (*httptest.Server, *publish.Manager) {
	t.Helper()

	hub := wshub.New(wshub.Config{})
	reg := prometheus.NewRegistry()

	manager, err := publish.New(publish.Config{
		Enabled: enabled,
		Hosting: hosting.Settings{
			Type: "external",
			Options: hosting.Options{
				"class": "cmdtest.StaticHost",
				"url":   "https://packs.example.com/pack.zip",
			},
		},
		Sender: sender.Config{SendOnJoin: true},
	}, publish.Deps{
		Runtime:   hub,
		Scheduler: hosttest.SyncScheduler{},
		Observer:  metrics.MustNewMetrics(reg),
	})
	require.NoError(t, err)

	srv := httptest.NewServer(newRouter(manager, hub, reg, hosting.FileArtifact("pack.zip")))
	t.Cleanup(srv.Close)
	return srv, manager
}

func getPackStatus(t *testing.T, srv *httptest.Server) packStatus {
	t.Helper()
	resp, err := http.Get(srv.URL + "/pack")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status packStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	return status
}

func TestPackEndpointPublishes(t *testing.T) {
	srv, manager := newTestServer(t, true)

	status := getPackStatus(t, srv)
	assert.Empty(t, status.URL)
	assert.Equal(t, "static", status.Provider)
	assert.True(t, status.Enabled)

	resp, err := http.Post(srv.URL+"/pack", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	manager.Wait()

	status = getPackStatus(t, srv)
	assert.Equal(t, "https://packs.example.com/pack.zip", status.URL)
	assert.Zero(t, status.Clients)
}

func TestPackEndpointDisabled(t *testing.T) {
	srv, _ := newTestServer(t, false)

	resp, err := http.Post(srv.URL+"/pack", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, manager := newTestServer(t, true)
	manager.UploadAndNotify(hosting.FileArtifact("pack.zip"), false)
	manager.Wait()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body strings.Builder
	_, err = body.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), "packhost_publish_cycles_total")
}

func TestURLCommand(t *testing.T) {
	srv, manager := newTestServer(t, true)

	var out strings.Builder
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	urlServer = srv.URL
	t.Cleanup(func() { urlServer = "http://localhost:8080" })

	assert.ErrorIs(t, runURL(cmd, nil), errNothingPublished)

	manager.UploadAndNotify(hosting.FileArtifact("pack.zip"), false)
	manager.Wait()

	require.NoError(t, runURL(cmd, nil))
	assert.Equal(t, "https://packs.example.com/pack.zip\n", out.String())
}
