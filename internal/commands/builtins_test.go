package commands

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/frontctl/internal/command"
	"github.com/mattjoyce/frontctl/internal/params"
	"github.com/mattjoyce/frontctl/internal/state"
	"github.com/mattjoyce/frontctl/internal/storage"
)

func newStore(t *testing.T) *state.Store {
	t.Helper()
	db, err := storage.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return state.NewStore(db)
}

func TestRegisterBuiltins(t *testing.T) {
	reg := command.NewRegistry()
	require.NoError(t, RegisterBuiltins(reg, nil))
	assert.Equal(t, []string{"echo", "fail", "ping", "sleep"}, reg.Names())

	withState := command.NewRegistry()
	require.NoError(t, RegisterBuiltins(withState, newStore(t)))
	assert.Equal(t, 6, withState.Len())

	err := RegisterBuiltins(withState, nil)
	assert.ErrorIs(t, err, command.ErrDuplicateCommand)
}

func TestEchoAndPing(t *testing.T) {
	in := params.FromMap(map[string]any{"x": 5})
	out, err := Echo(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, in.Equal(out))

	out, err = Ping(context.Background(), params.Bag{})
	require.NoError(t, err)
	pong, err := out.Bool("pong")
	require.NoError(t, err)
	assert.True(t, pong)
}

func TestSleep(t *testing.T) {
	out, err := Sleep(context.Background(), params.FromMap(map[string]any{"ms": 1}))
	require.NoError(t, err)
	ms, _ := out.Int("slept_ms")
	assert.Equal(t, int64(1), ms)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = Sleep(ctx, params.FromMap(map[string]any{"ms": 5000}))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, command.KindTimeout, command.Classify(err).Kind)

	_, err = Sleep(context.Background(), params.FromMap(map[string]any{"ms": "soon"}))
	f := command.Classify(err)
	assert.Equal(t, command.KindDomain, f.Kind)
	assert.Equal(t, command.SubkindTypeMismatch, f.Subkind)
}

func TestFail(t *testing.T) {
	tests := []struct {
		name    string
		p       map[string]any
		kind    command.Kind
		subkind command.Subkind
		message string
	}{
		{"named subkind", map[string]any{"subkind": "decoder_not_found"}, command.KindDomain, command.SubkindDecoderNotFound, "decoder not found"},
		{"custom message", map[string]any{"subkind": "no_sequence", "message": "empty stream"}, command.KindDomain, command.SubkindNoSequence, "empty stream"},
		{"missing subkind", map[string]any{}, command.KindDomain, command.SubkindMissingKey, ""},
		{"unknown subkind", map[string]any{"subkind": "gremlins"}, command.KindUnknown, command.SubkindNone, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Fail(context.Background(), params.FromMap(tt.p))
			require.Error(t, err)
			f := command.Classify(err)
			assert.Equal(t, tt.kind, f.Kind)
			assert.Equal(t, tt.subkind, f.Subkind)
			if tt.message != "" {
				assert.Equal(t, tt.message, f.Message)
			}
		})
	}
}

func TestStateCommands(t *testing.T) {
	reg := command.NewRegistry()
	require.NoError(t, RegisterBuiltins(reg, newStore(t)))
	ctx := context.Background()

	set, err := reg.Resolve("state.set")
	require.NoError(t, err)
	get, err := reg.Resolve("state.get")
	require.NoError(t, err)

	_, err = set.Handler.Execute(ctx, params.FromMap(map[string]any{
		"namespace": "camera",
		"values":    map[string]any{"fps": 30, "codec": "h264"},
	}))
	require.NoError(t, err)
	_, err = set.Handler.Execute(ctx, params.FromMap(map[string]any{
		"namespace": "camera",
		"values":    map[string]any{"fps": 60},
	}))
	require.NoError(t, err)

	out, err := get.Handler.Execute(ctx, params.FromMap(map[string]any{"namespace": "camera"}))
	require.NoError(t, err)
	st, err := out.Map("state")
	require.NoError(t, err)
	fps, err := st.Int("fps")
	require.NoError(t, err)
	assert.Equal(t, int64(60), fps)
	codec, err := st.String("codec")
	require.NoError(t, err)
	assert.Equal(t, "h264", codec)

	_, err = set.Handler.Execute(ctx, params.FromMap(map[string]any{"namespace": "camera"}))
	assert.Equal(t, command.SubkindMissingKey, command.Classify(err).Subkind)
}
