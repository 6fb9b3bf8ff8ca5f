package cache_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/compass-pm/compass/internal/cache"
	_ "github.com/compass-pm/compass/testing"
)

func TestFingerprintBareResource(t *testing.T) {
	assert.Equal(t, "projects", cache.NewKey("projects").Fingerprint())
}

func TestFingerprintSortsParams(t *testing.T) {
	a := cache.NewKey("tasks", "status", "todo", "assignee", "5")
	b := cache.NewKey("tasks", "assignee", "5", "status", "todo")
	assert.Equal(t, "tasks?assignee=5&status=todo", a.Fingerprint())
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestFingerprintSkipsEmptyValues(t *testing.T) {
	k := cache.NewKey("tasks", "status", "", "assignee", "5")
	assert.Equal(t, "tasks?assignee=5", k.Fingerprint())
}

func TestKeyFromValuesMatchesNewKey(t *testing.T) {
	values := url.Values{}
	values.Set("status", "active")
	values.Set("q", "alpha")
	fromValues := cache.KeyFromValues("projects", values)
	direct := cache.NewKey("projects", "q", "alpha", "status", "active")
	assert.Equal(t, direct.Fingerprint(), fromValues.Fingerprint())
}

func TestDistinctFiltersDistinctFingerprints(t *testing.T) {
	a := cache.NewKey("projects", "status", "active")
	b := cache.NewKey("projects", "status", "archived")
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}
