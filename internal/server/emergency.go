package server

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/bnema/wayfold/internal/input"
	"github.com/bnema/wayfold/internal/logger"
	"github.com/charmbracelet/log"
	evdev "github.com/gvalkov/golang-evdev"
	"github.com/sourcegraph/conc"
)

// DefaultTriggerFile releases the input grab when it appears.
const DefaultTriggerFile = "/tmp/wayfold-release"

// EmergencyRelease gives grabbed input devices back to the console. It
// fires on SIGUSR1, when the trigger file appears, or on Ctrl+Alt+Backspace,
// which also terminates the compositor.
type EmergencyRelease struct {
	release      func() bool
	terminate    func()
	triggerFile  string
	pollInterval time.Duration

	// reactor only
	held map[uint32]bool

	stopChan chan struct{}
	stopOnce sync.Once
	wg       conc.WaitGroup
	log      *log.Logger
}

// NewEmergencyRelease creates a new emergency release handler. release drops
// the grab and reports whether one was held; terminate stops the server.
func NewEmergencyRelease(release func() bool, terminate func()) *EmergencyRelease {
	return &EmergencyRelease{
		release:      release,
		terminate:    terminate,
		triggerFile:  DefaultTriggerFile,
		pollInterval: time.Second,
		held:         make(map[uint32]bool),
		stopChan:     make(chan struct{}),
		log:          logger.WithPrefix("emergency"),
	}
}

// Start begins monitoring for emergency release conditions
func (er *EmergencyRelease) Start() {
	er.wg.Go(er.handleSignals)
	er.wg.Go(er.monitorFileTrigger)
	er.log.Info("Emergency release armed", "signal", "SIGUSR1", "file", er.triggerFile, "keys", "ctrl+alt+backspace")
}

// Stop stops all emergency monitoring
func (er *EmergencyRelease) Stop() {
	er.stopOnce.Do(func() {
		close(er.stopChan)
	})
	er.wg.Wait()
}

// HandleKey watches the keyboard for the terminate chord. It runs on the
// reactor as a key signal handler.
func (er *EmergencyRelease) HandleKey(ev input.KeyEvent) {
	if ev.State == input.KeyReleased {
		delete(er.held, ev.Key)
		return
	}
	er.held[ev.Key] = true
	if ev.Key != evdev.KEY_BACKSPACE {
		return
	}
	ctrl := er.held[evdev.KEY_LEFTCTRL] || er.held[evdev.KEY_RIGHTCTRL]
	alt := er.held[evdev.KEY_LEFTALT] || er.held[evdev.KEY_RIGHTALT]
	if ctrl && alt {
		er.triggerRelease("keys")
		er.terminate()
	}
}

func (er *EmergencyRelease) handleSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGUSR1)
	defer signal.Stop(sigChan)

	for {
		select {
		case <-sigChan:
			er.triggerRelease("signal")
		case <-er.stopChan:
			return
		}
	}
}

func (er *EmergencyRelease) monitorFileTrigger() {
	ticker := time.NewTicker(er.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := os.Stat(er.triggerFile); err == nil {
				os.Remove(er.triggerFile)
				er.triggerRelease("file")
			}
		case <-er.stopChan:
			return
		}
	}
}

func (er *EmergencyRelease) triggerRelease(reason string) {
	if er.release() {
		er.log.Warn("Emergency release triggered", "reason", reason)
		return
	}
	er.log.Debug("Emergency release requested without a grab", "reason", reason)
}
