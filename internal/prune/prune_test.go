package prune

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/ghcr-retention/internal/config"
	"github.com/bnema/ghcr-retention/internal/registry"
)

// fakeNamespace records list and delete calls. Safe for concurrent use.
type fakeNamespace struct {
	mu        sync.Mutex
	versions  map[string][]registry.Version
	listErr   map[string]error
	deleteErr map[int64]error
	deleted   map[string][]int64
}

func newFakeNamespace() *fakeNamespace {
	return &fakeNamespace{
		versions:  make(map[string][]registry.Version),
		listErr:   make(map[string]error),
		deleteErr: make(map[int64]error),
		deleted:   make(map[string][]int64),
	}
}

func (f *fakeNamespace) ListVersions(_ context.Context, image registry.ImageName) ([]registry.Version, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.listErr[image.Value]; err != nil {
		return nil, err
	}
	return f.versions[image.Value], nil
}

func (f *fakeNamespace) DeleteVersion(_ context.Context, image registry.ImageName, versionID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.deleteErr[versionID]; err != nil {
		return err
	}
	f.deleted[image.Value] = append(f.deleted[image.Value], versionID)
	return nil
}

func (f *fakeNamespace) deletedIDs(image string) []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.deleted[image]...)
}

func testConfig() *config.Config {
	return &config.Config{
		Cutoff:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		TimestampType: config.TimestampUpdatedAt,
		AccountType:   config.AccountTypePersonal,
	}
}

func TestImage_DeletesOnlyStrictlyOlderVersions(t *testing.T) {
	ns := newFakeNamespace()
	ns.versions["myimage"] = []registry.Version{
		{ID: 1, UpdatedAt: "2023-06-01T00:00:00+00:00"},
		{ID: 2, UpdatedAt: "2024-06-01T00:00:00+00:00"},
		{ID: 3, UpdatedAt: "2023-12-31T23:59:59+00:00"},
		{ID: 4, UpdatedAt: "2024-01-01T00:00:00+00:00"}, // equal to cut-off, not stale
	}

	err := New(ns, testConfig()).Image(context.Background(), registry.NewImageName("myimage"))

	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 3}, ns.deletedIDs("myimage"))
}

func TestImage_UsesSelectedTimestampField(t *testing.T) {
	ns := newFakeNamespace()
	ns.versions["myimage"] = []registry.Version{
		{ID: 1, CreatedAt: "2023-06-01T00:00:00+00:00", UpdatedAt: "2024-06-01T00:00:00+00:00"},
	}
	cfg := testConfig()
	cfg.TimestampType = config.TimestampCreatedAt

	err := New(ns, cfg).Image(context.Background(), registry.NewImageName("myimage"))

	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1}, ns.deletedIDs("myimage"))
}

func TestImage_SkipsUnparseableTimestamp(t *testing.T) {
	ns := newFakeNamespace()
	ns.versions["myimage"] = []registry.Version{
		{ID: 1, UpdatedAt: "2023-06-01T00:00:00+00:00"},
		{ID: 2, UpdatedAt: "not a timestamp"},
		{ID: 3, UpdatedAt: "2023-07-01T00:00:00+00:00"},
	}

	err := New(ns, testConfig()).Image(context.Background(), registry.NewImageName("myimage"))

	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 3}, ns.deletedIDs("myimage"))
}

func TestImage_NoStaleVersions(t *testing.T) {
	ns := newFakeNamespace()
	ns.versions["myimage"] = []registry.Version{
		{ID: 1, UpdatedAt: "2024-06-01T00:00:00+00:00"},
	}

	err := New(ns, testConfig()).Image(context.Background(), registry.NewImageName("myimage"))

	require.NoError(t, err)
	assert.Empty(t, ns.deletedIDs("myimage"))
}

func TestImage_ListFailure(t *testing.T) {
	ns := newFakeNamespace()
	ns.listErr["myimage"] = errors.New("boom")

	err := New(ns, testConfig()).Image(context.Background(), registry.NewImageName("myimage"))

	require.Error(t, err)
	assert.Empty(t, ns.deletedIDs("myimage"))
}

func TestRun_SiblingImagesUnaffectedByListFailure(t *testing.T) {
	ns := newFakeNamespace()
	ns.listErr["broken"] = errors.New("boom")
	ns.versions["healthy"] = []registry.Version{
		{ID: 1, UpdatedAt: "2023-06-01T00:00:00+00:00"},
		{ID: 2, UpdatedAt: "2023-07-01T00:00:00+00:00"},
	}

	err := New(ns, testConfig()).Run(context.Background(), registry.ParseImageNames("broken,healthy"))

	require.Error(t, err)
	assert.ElementsMatch(t, []int64{1, 2}, ns.deletedIDs("healthy"))
}

func TestRun_DeleteFailureDoesNotStopSiblings(t *testing.T) {
	ns := newFakeNamespace()
	ns.versions["myimage"] = []registry.Version{
		{ID: 1, UpdatedAt: "2023-06-01T00:00:00+00:00"},
		{ID: 2, UpdatedAt: "2023-07-01T00:00:00+00:00"},
		{ID: 3, UpdatedAt: "2023-08-01T00:00:00+00:00"},
	}
	ns.deleteErr[2] = errors.New("boom")

	err := New(ns, testConfig()).Run(context.Background(), registry.ParseImageNames("myimage"))

	require.Error(t, err)
	assert.ElementsMatch(t, []int64{1, 3}, ns.deletedIDs("myimage"))
}

// End-to-end through the real HTTP client against a fake GitHub API.
func TestRun_EndToEndPersonal(t *testing.T) {
	var mu sync.Mutex
	var deleted []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/user/packages/container/myimage/versions":
			fmt.Fprint(w, `[
				{"id":1,"updated_at":"2023-06-01T00:00:00+00:00"},
				{"id":2,"updated_at":"2024-06-01T00:00:00+00:00"},
				{"id":3,"updated_at":"2023-12-31T23:59:59+00:00"}
			]`)
		case r.Method == http.MethodDelete:
			mu.Lock()
			deleted = append(deleted, r.URL.Path)
			mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	ctx := context.Background()
	client := registry.NewClient(ctx, "s3cr3t", server.URL)
	defer client.Close()

	cfg, err := config.Validate("personal", "", "updated_at", "2024-01-01T00:00:00+00:00")
	require.NoError(t, err)

	pruner := New(registry.NamespaceFor(client, cfg), cfg)
	err = pruner.Run(ctx, registry.ParseImageNames("myimage"))

	require.NoError(t, err)
	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{
		"/user/packages/container/myimage/versions/1",
		"/user/packages/container/myimage/versions/3",
	}, deleted)
}
