package server

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bnema/wayfold/internal/config"
	"github.com/bnema/wayfold/internal/input"
	"github.com/bnema/wayfold/internal/ipc"
	evdev "github.com/gvalkov/golang-evdev"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type plainBuffer struct{}

func (plainBuffer) Release()                                {}
func (plainBuffer) AddDestroyListener(func()) (remove func()) { return func() {} }

type sizedBuffer struct {
	plainBuffer
	w, h int
}

func (b sizedBuffer) Size() (width, height int) { return b.w, b.h }

func TestBufferSizes(t *testing.T) {
	w, h := bufferSizes{}.QueryBuffer(sizedBuffer{w: 640, h: 480})
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)

	w, h = bufferSizes{}.QueryBuffer(plainBuffer{})
	assert.Zero(t, w)
	assert.Zero(t, h)
}

func headlessConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig
	cfg.Compositor.Platform = config.PlatformHeadless
	cfg.Headless.Outputs = []config.OutputConfig{
		{Name: "HEADLESS-1", Width: 1920, Height: 1080, Refresh: 60000, Scale: 1},
		{Name: "HEADLESS-2", Width: 1280, Height: 1024, Refresh: 75000, Scale: 1},
	}
	cfg.IPC.SocketPath = filepath.Join(t.TempDir(), "wayfold.sock")
	return &cfg
}

func TestServerRunHeadless(t *testing.T) {
	cfg := headlessConfig(t)
	s, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	client, err := ipc.NewClient(cfg.IPC.SocketPath)
	require.NoError(t, err)
	require.Eventually(t, client.IsRunning, 5*time.Second, 20*time.Millisecond)

	status, err := client.Status()
	require.NoError(t, err)
	assert.Equal(t, config.PlatformHeadless, status.Platform)
	assert.Equal(t, "seat0", status.Seat)
	assert.Equal(t, 2, status.Outputs)
	assert.Zero(t, status.Surfaces)
	assert.Empty(t, status.PointerFocus)

	outputs, err := client.Outputs()
	require.NoError(t, err)
	require.Len(t, outputs, 2)
	assert.Equal(t, "HEADLESS-1", outputs[0].Name)
	assert.Equal(t, 0, outputs[0].X)
	assert.Equal(t, "HEADLESS-2", outputs[1].Name)
	assert.Equal(t, 1920, outputs[1].X)
	assert.Equal(t, 75000, outputs[1].Refresh)

	scene, err := client.Scene()
	require.NoError(t, err)
	assert.Empty(t, scene)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	assert.True(t, s.Executor().Finished())
	assert.False(t, client.IsRunning())
}

func TestServerStop(t *testing.T) {
	cfg := headlessConfig(t)
	s, err := New(cfg)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	client, err := ipc.NewClient(cfg.IPC.SocketPath)
	require.NoError(t, err)
	require.Eventually(t, client.IsRunning, 5*time.Second, 20*time.Millisecond)

	s.Stop()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
}

func TestServerRunInvalidPlatform(t *testing.T) {
	cfg := headlessConfig(t)
	cfg.Headless.Outputs = []config.OutputConfig{{Name: "broken", Width: 0, Height: 0}}
	s, err := New(cfg)
	require.NoError(t, err)

	err = s.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "headless platform")
}

func newTestRelease() (*EmergencyRelease, *int, *int) {
	var released, terminated int
	er := NewEmergencyRelease(func() bool {
		released++
		return true
	}, func() { terminated++ })
	return er, &released, &terminated
}

func press(er *EmergencyRelease, keys ...uint32) {
	for _, k := range keys {
		er.HandleKey(input.KeyEvent{Key: k, State: input.KeyPressed})
	}
}

func TestEmergencyReleaseChord(t *testing.T) {
	er, released, terminated := newTestRelease()

	press(er, evdev.KEY_LEFTCTRL, evdev.KEY_LEFTALT, evdev.KEY_BACKSPACE)
	assert.Equal(t, 1, *released)
	assert.Equal(t, 1, *terminated)
}

func TestEmergencyReleaseNeedsFullChord(t *testing.T) {
	er, released, terminated := newTestRelease()

	press(er, evdev.KEY_LEFTCTRL, evdev.KEY_BACKSPACE)
	er.HandleKey(input.KeyEvent{Key: evdev.KEY_LEFTCTRL, State: input.KeyReleased})
	press(er, evdev.KEY_RIGHTALT, evdev.KEY_BACKSPACE)
	assert.Zero(t, *released)
	assert.Zero(t, *terminated)

	press(er, evdev.KEY_RIGHTCTRL, evdev.KEY_BACKSPACE)
	assert.Equal(t, 1, *released)
	assert.Equal(t, 1, *terminated)
}

func TestEmergencyReleaseFileTrigger(t *testing.T) {
	released := make(chan struct{}, 1)
	er := NewEmergencyRelease(func() bool {
		released <- struct{}{}
		return true
	}, func() {})
	er.triggerFile = filepath.Join(t.TempDir(), "release")
	er.pollInterval = 10 * time.Millisecond
	er.Start()
	defer er.Stop()

	require.NoError(t, os.WriteFile(er.triggerFile, nil, 0o600))
	select {
	case <-released:
	case <-time.After(2 * time.Second):
		t.Fatal("trigger file was not noticed")
	}
	assert.Eventually(t, func() bool {
		_, err := os.Stat(er.triggerFile)
		return os.IsNotExist(err)
	}, time.Second, 10*time.Millisecond)
}
