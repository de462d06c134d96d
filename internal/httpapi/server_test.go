package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s8r-framework/s8r/internal/logging"
	"github.com/s8r-framework/s8r/pkg/adapters/memory"
	"github.com/s8r-framework/s8r/pkg/domain"
	"github.com/s8r-framework/s8r/pkg/services"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := logging.NewNop()
	components := memory.NewComponentRepository()
	machines := memory.NewMachineRepository()
	dispatcher := memory.NewDispatcher(logger)
	flow := memory.NewDataFlow(logger)

	componentSvc := services.NewComponentService(components, dispatcher,
		services.WithComponentDataFlow(flow))
	machineSvc := services.NewMachineService(machines, components, dispatcher)
	flowSvc := services.NewDataFlowService(components, flow, dispatcher)

	srv := httptest.NewServer(NewServer(componentSvc, machineSvc, flowSvc).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestComponentLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	client := srv.Client()

	resp := doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/components",
		createComponentRequest{Reason: "http test"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[domain.ComponentSnapshot](t, resp)
	require.NotEmpty(t, created.Identity.ID)
	assert.Equal(t, domain.StateReady, created.State)

	base := srv.URL + "/api/v1/components/" + created.Identity.ID

	resp = doJSON(t, client, http.MethodPost, base+"/activate", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, client, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBody[domain.ComponentSnapshot](t, resp)
	assert.Equal(t, domain.StateActive, got.State)

	resp = doJSON(t, client, http.MethodPost, base+"/terminate", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, client, http.MethodGet, base, nil)
	got = decodeBody[domain.ComponentSnapshot](t, resp)
	assert.Equal(t, domain.StateTerminated, got.State)
}

func TestComponentNotFound(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/api/v1/components/5cbf39f2-50c3-43a6-b87b-6a415cf6c5bd")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestInvalidTransitionConflicts(t *testing.T) {
	srv := newTestServer(t)
	client := srv.Client()

	resp := doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/components",
		createComponentRequest{Reason: "transition test"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[domain.ComponentSnapshot](t, resp)

	base := srv.URL + "/api/v1/components/" + created.Identity.ID

	resp = doJSON(t, client, http.MethodPost, base+"/transition",
		transitionRequest{State: "archived"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, client, http.MethodPost, base+"/transition",
		transitionRequest{State: "not-a-state"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestChildCreationAndListing(t *testing.T) {
	srv := newTestServer(t)
	client := srv.Client()

	resp := doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/components",
		createComponentRequest{Reason: "parent"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	parent := decodeBody[domain.ComponentSnapshot](t, resp)

	base := srv.URL + "/api/v1/components/" + parent.Identity.ID

	resp = doJSON(t, client, http.MethodPost, base+"/children",
		createComponentRequest{Reason: "child"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	child := decodeBody[domain.ComponentSnapshot](t, resp)
	assert.Contains(t, child.Lineage, parent.Identity.ID)

	resp = doJSON(t, client, http.MethodGet, base+"/children", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	children := decodeBody[[]domain.ComponentSnapshot](t, resp)
	require.Len(t, children, 1)
	assert.Equal(t, child.Identity.ID, children[0].Identity.ID)
}

func TestCompositeAssemblyOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	client := srv.Client()

	resp := doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/composites",
		createCompositeRequest{Reason: "pipeline", Type: string(domain.CompositePipeline)})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	composite := decodeBody[domain.CompositeSnapshot](t, resp)

	var memberIDs []string
	for _, reason := range []string{"source", "sink"} {
		resp = doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/components",
			createComponentRequest{Reason: reason})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		c := decodeBody[domain.ComponentSnapshot](t, resp)
		memberIDs = append(memberIDs, c.Identity.ID)
	}

	base := srv.URL + "/api/v1/composites/" + composite.Component.Identity.ID
	for _, id := range memberIDs {
		resp = doJSON(t, client, http.MethodPost, base+"/components",
			addMemberRequest{ComponentID: id})
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
		resp.Body.Close()
	}

	// A second add of the same member is rejected.
	resp = doJSON(t, client, http.MethodPost, base+"/components",
		addMemberRequest{ComponentID: memberIDs[0]})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, client, http.MethodPost, base+"/connections", connectRequest{
		SourceID: memberIDs[0],
		TargetID: memberIDs[1],
		Type:     string(domain.ConnectionDataFlow),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	conn := decodeBody[domain.ConnectionSnapshot](t, resp)
	assert.Equal(t, memberIDs[0], conn.Source.ID)
	assert.Equal(t, memberIDs[1], conn.Target.ID)

	resp = doJSON(t, client, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBody[domain.CompositeSnapshot](t, resp)
	assert.Len(t, got.Children, 2)
	assert.Len(t, got.Connections, 1)
}

func TestCreateCompositeRejectsUnknownType(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/v1/composites",
		createCompositeRequest{Reason: "bad", Type: "mesh"})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMachineLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	client := srv.Client()

	resp := doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/machines", createMachineRequest{
		Name:    "ingest",
		Type:    string(domain.MachineTypeDataProcessor),
		Version: "1.0.0",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	m := decodeBody[domain.MachineSnapshot](t, resp)
	assert.Equal(t, domain.MachineCreated, m.State)

	base := srv.URL + "/api/v1/machines/" + m.Identity.ID

	// Starting before initialization is rejected.
	resp = doJSON(t, client, http.MethodPost, base+"/start", nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	for _, op := range []string{"initialize", "start", "pause", "resume", "stop"} {
		resp = doJSON(t, client, http.MethodPost, base+"/"+op, nil)
		require.Equal(t, http.StatusNoContent, resp.StatusCode, "operation %s", op)
		resp.Body.Close()
	}

	resp = doJSON(t, client, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBody[domain.MachineSnapshot](t, resp)
	assert.Equal(t, domain.MachineStopped, got.State)

	resp = doJSON(t, client, http.MethodPost, base+"/destroy", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()
}

func TestMachineCompositeAttachment(t *testing.T) {
	srv := newTestServer(t)
	client := srv.Client()

	resp := doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/machines", createMachineRequest{
		Name: "monitor",
		Type: string(domain.MachineTypeMonitoring),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	m := decodeBody[domain.MachineSnapshot](t, resp)

	resp = doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/composites",
		createCompositeRequest{Reason: "observers", Type: string(domain.CompositeObserver)})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	composite := decodeBody[domain.CompositeSnapshot](t, resp)

	resp = doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/machines/"+m.Identity.ID+"/composites",
		addCompositeRequest{CompositeID: composite.Component.Identity.ID})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, client, http.MethodGet, srv.URL+"/api/v1/machines/"+m.Identity.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBody[domain.MachineSnapshot](t, resp)
	require.Len(t, got.Composites, 1)
	assert.Equal(t, composite.Component.Identity.ID, got.Composites[0].Component.Identity.ID)
}

func TestPublishDataRequiresOperationalComponent(t *testing.T) {
	srv := newTestServer(t)
	client := srv.Client()

	resp := doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/components",
		createComponentRequest{Reason: "publisher"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	c := decodeBody[domain.ComponentSnapshot](t, resp)

	url := fmt.Sprintf("%s/api/v1/components/%s/data", srv.URL, c.Identity.ID)

	resp = doJSON(t, client, http.MethodPost, url, publishDataRequest{
		Channel: "readings",
		Data:    map[string]any{"value": 21.5},
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/components/"+c.Identity.ID+"/terminate", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	// Terminated components cannot publish.
	resp = doJSON(t, client, http.MethodPost, url, publishDataRequest{
		Channel: "readings",
		Data:    map[string]any{"value": 21.5},
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestDeleteComponent(t *testing.T) {
	srv := newTestServer(t)
	client := srv.Client()

	resp := doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/components",
		createComponentRequest{Reason: "ephemeral"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	c := decodeBody[domain.ComponentSnapshot](t, resp)

	base := srv.URL + "/api/v1/components/" + c.Identity.ID

	resp = doJSON(t, client, http.MethodDelete, base, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, client, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}
