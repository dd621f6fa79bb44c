package injector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/ownership/internal/config"
	"github.com/zeusync/ownership/internal/core/identity"
	"github.com/zeusync/ownership/internal/sandbox"
)

func TestInitializeApp(t *testing.T) {
	cfg := config.Default()
	cfg.World.Name = "test"
	cfg.World.TickRate = 10 * time.Millisecond
	cfg.Identity.Start = 100
	cfg.Logging.Format = "json"
	cfg.Persist.Dir = t.TempDir()

	app, err := InitializeApp(cfg)
	require.NoError(t, err)

	assert.Equal(t, "test", app.World.Name())
	assert.Same(t, app.Events, app.World.Events())
	assert.Equal(t, identity.Identity(101), app.World.Identities().Next())
	assert.Equal(t, []string{sandbox.KindBeacon, sandbox.KindDrifter}, app.World.Kinds())
	assert.Equal(t, cfg.Persist.Dir, app.Folder.Root())
	assert.NotNil(t, app.Inspector)
}

func TestInitializeAppRejectsBadLogging(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Level = "loud"

	_, err := InitializeApp(cfg)
	assert.Error(t, err)
}
