// File: internal/humanoid/humanoid_test.go
package humanoid

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Tamas54/bravectl/internal/config"
)

// mockExecutor records dispatched events instead of driving a browser.
type mockExecutor struct {
	mu     sync.Mutex
	events []MouseEvent
	keys   []string
	sleeps []time.Duration

	failOnCall int
	callCount  int
	returnErr  error
}

func (m *mockExecutor) DispatchMouseEvent(_ context.Context, ev MouseEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++
	if m.returnErr != nil && m.failOnCall > 0 && m.callCount >= m.failOnCall {
		return m.returnErr
	}
	m.events = append(m.events, ev)
	return nil
}

func (m *mockExecutor) SendKeys(_ context.Context, keys string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, keys)
	return nil
}

func (m *mockExecutor) Sleep(_ context.Context, d time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sleeps = append(m.sleeps, d)
	return nil
}

func newTestHumanoid(exec Executor) *Humanoid {
	cfg := config.HumanoidConfig{
		Enabled:         true,
		ControlJitterPx: 25.0,
		StepInterval:    20 * time.Millisecond,
		KeyDelayMinMs:   50,
		KeyDelayMaxMs:   150,
		PauseChance:     0.1,
	}
	return New(cfg, exec, zap.NewNop(), rand.New(rand.NewSource(42)))
}

func TestMoveToLandsExactlyOnTarget(t *testing.T) {
	exec := &mockExecutor{}
	h := newTestHumanoid(exec)

	err := h.MoveTo(context.Background(), Point{X: 100, Y: 50}, 0)
	require.NoError(t, err)
	require.NotEmpty(t, exec.events)

	last := exec.events[len(exec.events)-1]
	assert.Equal(t, 100.0, last.X)
	assert.Equal(t, 50.0, last.Y)
	assert.Equal(t, Point{X: 100, Y: 50}, h.Position())
}

func TestMoveToStaysWithinJitterBounds(t *testing.T) {
	exec := &mockExecutor{}
	h := newTestHumanoid(exec)

	require.NoError(t, h.MoveTo(context.Background(), Point{X: 100, Y: 50}, 0))

	// Control points are offset at most 25px from the straight line, and
	// each sample gets at most 0.5px of tremor. The curve stays inside
	// the convex hull of its control points, so every sample must lie in
	// the start/target bounding box expanded by that bound.
	const bound = 25.0 + tremorAmplitude
	for _, ev := range exec.events {
		assert.GreaterOrEqual(t, ev.X, 0.0-bound)
		assert.LessOrEqual(t, ev.X, 100.0+bound)
		assert.GreaterOrEqual(t, ev.Y, 0.0-bound)
		assert.LessOrEqual(t, ev.Y, 50.0+bound)
		assert.Equal(t, MouseMoved, ev.Type)
	}
}

func TestMoveToSamplesAtStepInterval(t *testing.T) {
	exec := &mockExecutor{}
	h := newTestHumanoid(exec)

	require.NoError(t, h.MoveTo(context.Background(), Point{X: 200, Y: 0}, 500*time.Millisecond))

	// 500ms at 20ms steps: 25 intervals, 26 samples.
	wantSteps := int(math.Ceil(500.0/20.0)) + 1
	assert.Len(t, exec.events, wantSteps)
	for _, d := range exec.sleeps {
		assert.Equal(t, 20*time.Millisecond, d)
	}
}

func TestMoveToPropagatesDispatchError(t *testing.T) {
	boom := errors.New("target closed")
	exec := &mockExecutor{returnErr: boom, failOnCall: 3}
	h := newTestHumanoid(exec)

	err := h.MoveTo(context.Background(), Point{X: 100, Y: 100}, 0)
	assert.ErrorIs(t, err, boom)
}

func TestMoveToRespectsContextCancellation(t *testing.T) {
	exec := &mockExecutor{}
	h := newTestHumanoid(exec)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.MoveTo(ctx, Point{X: 50, Y: 50}, 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, exec.events)
}

func TestClickAtDispatchesPressAndRelease(t *testing.T) {
	exec := &mockExecutor{}
	h := newTestHumanoid(exec)

	require.NoError(t, h.ClickAt(context.Background(), Point{X: 30, Y: 40}, ButtonLeft, 1))

	require.GreaterOrEqual(t, len(exec.events), 3)
	press := exec.events[len(exec.events)-2]
	release := exec.events[len(exec.events)-1]
	assert.Equal(t, MousePressed, press.Type)
	assert.Equal(t, ButtonLeft, press.Button)
	assert.Equal(t, 30.0, press.X)
	assert.Equal(t, MouseReleased, release.Type)
	assert.Equal(t, 1, release.ClickCount)
}

func TestDragToHoldsButtonDuringMove(t *testing.T) {
	exec := &mockExecutor{}
	h := newTestHumanoid(exec)
	h.SetPosition(Point{X: 10, Y: 10})

	require.NoError(t, h.DragTo(context.Background(), Point{X: 90, Y: 90}, 100*time.Millisecond))

	require.NotEmpty(t, exec.events)
	assert.Equal(t, MousePressed, exec.events[0].Type)
	assert.Equal(t, MouseReleased, exec.events[len(exec.events)-1].Type)
	for _, ev := range exec.events[1 : len(exec.events)-1] {
		assert.Equal(t, MouseMoved, ev.Type)
		assert.Equal(t, int64(1), ev.Buttons)
	}
}

func TestTypeTextSendsEveryRuneIndividually(t *testing.T) {
	exec := &mockExecutor{}
	h := newTestHumanoid(exec)

	require.NoError(t, h.TypeText(context.Background(), "abc"))

	assert.Equal(t, []string{"a", "b", "c"}, exec.keys)
	// At least one delay per key.
	assert.GreaterOrEqual(t, len(exec.sleeps), 3)
	for _, d := range exec.sleeps {
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
		assert.LessOrEqual(t, d, 300*time.Millisecond)
	}
}

func newDisabledHumanoid(exec Executor) *Humanoid {
	cfg := config.HumanoidConfig{
		Enabled:         false,
		ControlJitterPx: 25.0,
		StepInterval:    20 * time.Millisecond,
		KeyDelayMinMs:   50,
		KeyDelayMaxMs:   150,
		PauseChance:     0.1,
	}
	return New(cfg, exec, zap.NewNop(), rand.New(rand.NewSource(42)))
}

func TestDisabledMoveToJumpsDirectly(t *testing.T) {
	exec := &mockExecutor{}
	h := newDisabledHumanoid(exec)

	require.NoError(t, h.MoveTo(context.Background(), Point{X: 100, Y: 50}, 0))

	require.Len(t, exec.events, 1)
	assert.Equal(t, MouseMoved, exec.events[0].Type)
	assert.Equal(t, 100.0, exec.events[0].X)
	assert.Equal(t, 50.0, exec.events[0].Y)
	assert.Empty(t, exec.sleeps)
	assert.Equal(t, Point{X: 100, Y: 50}, h.Position())
}

func TestDisabledTypeTextSendsOneBurst(t *testing.T) {
	exec := &mockExecutor{}
	h := newDisabledHumanoid(exec)

	require.NoError(t, h.TypeText(context.Background(), "hello"))

	require.Len(t, exec.keys, 1)
	assert.Equal(t, "hello", exec.keys[0])
	assert.Empty(t, exec.sleeps)
}

func TestDisabledPauseReturnsImmediately(t *testing.T) {
	exec := &mockExecutor{}
	h := newDisabledHumanoid(exec)

	require.NoError(t, h.Pause(context.Background(), time.Hour, 2*time.Hour))
	assert.Empty(t, exec.sleeps)
}

func TestSetPositionResetsOrigin(t *testing.T) {
	exec := &mockExecutor{}
	h := newTestHumanoid(exec)
	h.SetPosition(Point{X: 500, Y: 300})
	assert.Equal(t, Point{X: 500, Y: 300}, h.Position())

	h.SetPosition(Point{})
	assert.Equal(t, Point{}, h.Position())
}
