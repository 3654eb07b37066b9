package configwatcher

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/CalPolySEC/wrath-ctf-framework/internal/config"
	"github.com/CalPolySEC/wrath-ctf-framework/pkg/logger"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// WatchConfig re-reads the config file on change (debounced) and
// hands the fresh config to onReload. Used to move the competition
// end time without a restart.
func WatchConfig(configPath string, onReload func(*config.Config)) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Log.Error("Failed to create config watcher", zap.Error(err))
		return
	}
	defer watcher.Close()

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		logger.Log.Error("Failed to resolve config path", zap.Error(err))
		return
	}

	if err := watcher.Add(absPath); err != nil {
		logger.Log.Error("Failed to watch config file", zap.Error(err))
		return
	}

	var mu sync.Mutex
	timer := time.NewTimer(0)
	<-timer.C

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Write == fsnotify.Write {
				// Editors fire several writes per save; debounce.
				mu.Lock()
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(time.Second)
				mu.Unlock()
			}
		case <-timer.C:
			newCfg, err := config.LoadConfig(filepath.Dir(configPath))
			if err != nil {
				logger.Log.Error("Failed to reload config", zap.Error(err))
				continue
			}
			logger.Log.Info("Config reloaded")
			onReload(newCfg)
		}
	}
}
