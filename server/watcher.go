package server

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"rodfem/calculator"
)

// Watcher 监听配置文件，文件变化后重新加载并回调。
// load 负责读文件并叠加命令行覆盖，与启动时的加载路径一致
type Watcher struct {
	path          string
	debounceDelay time.Duration
	load          func() (calculator.Config, error)
	onChange      func(calculator.Config) error

	mu       sync.Mutex
	debounce *time.Timer
}

func NewWatcher(path string, debounceDelay time.Duration, load func() (calculator.Config, error), onChange func(calculator.Config) error) *Watcher {
	if debounceDelay <= 0 {
		debounceDelay = 100 * time.Millisecond
	}
	return &Watcher{path: path, debounceDelay: debounceDelay, load: load, onChange: onChange}
}

// Run 阻塞直到 ctx 取消
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// 监听目录，编辑器保存时常常是替换文件
	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	log.WithField("path", w.path).Info("监听配置文件")

	name := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			w.stopDebounce()
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.schedule()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("config watcher error")
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(w.debounceDelay, w.reload)
}

func (w *Watcher) stopDebounce() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
}

func (w *Watcher) reload() {
	cfg, err := w.load()
	if err == nil {
		err = w.onChange(cfg)
	}
	if err != nil {
		log.WithError(err).WithField("path", w.path).Error("配置文件无效，保留原配置")
	}
}
