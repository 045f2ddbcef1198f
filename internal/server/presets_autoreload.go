package server

import (
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

type closerFunc func() error

func (c closerFunc) Close() error { return c() }

// installPresetsAutoReload watches the directory holding the presets file so
// that editor rename-and-replace saves are seen, and reloads once per debounce
// window.
func (s *Server) installPresetsAutoReload() (io.Closer, error) {
	if !s.cfg.Presets.AutoReload.Enabled {
		return nil, nil
	}
	file := strings.TrimSpace(s.cfg.Presets.File)
	if file == "" {
		return nil, nil
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return nil, err
	}
	debounce := time.Duration(s.cfg.Presets.AutoReload.DebounceMs) * time.Millisecond

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	stopCh := make(chan struct{})
	doneCh := make(chan struct{})

	go func() {
		defer close(doneCh)
		var (
			timer  *time.Timer
			timerC <-chan time.Time
		)
		resetTimer := func() {
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
				return
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)
			timerC = timer.C
		}

		for {
			select {
			case <-stopCh:
				if timer != nil {
					timer.Stop()
				}
				return
			case <-timerC:
				timerC = nil
				_, _ = s.ReloadPresets("auto")
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.log.Warn("presets auto-reload watcher error", zap.Error(err))
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if shouldTriggerPresetsReload(evt, abs) {
					resetTimer()
				}
			}
		}
	}()

	s.log.Info("presets auto-reload enabled",
		zap.String("file", abs),
		zap.Int("debounce_ms", s.cfg.Presets.AutoReload.DebounceMs),
	)
	return closerFunc(func() error {
		close(stopCh)
		_ = watcher.Close()
		<-doneCh
		return nil
	}), nil
}

func shouldTriggerPresetsReload(evt fsnotify.Event, file string) bool {
	if strings.TrimSpace(evt.Name) == "" {
		return false
	}
	if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return filepath.Clean(evt.Name) == filepath.Clean(file)
}
