package settings

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// watcher 监听设置文件变更并热加载
type watcher struct {
	fw   *fsnotify.Watcher
	done chan struct{}
}

// StartWatch 开始监听设置文件
// 监听所在目录而不是文件本身：编辑器保存往往是 rename+create，
// 只盯文件会在第一次替换后失去监听
func (s *Store) StartWatch() error {
	if s.watch != nil {
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create settings watcher: %w", err)
	}

	if err := fw.Add(filepath.Dir(s.path)); err != nil {
		fw.Close()
		return fmt.Errorf("failed to watch settings directory: %w", err)
	}

	w := &watcher{fw: fw, done: make(chan struct{})}
	s.watch = w

	go func() {
		for {
			select {
			case event, ok := <-fw.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(s.path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := s.Reload(); err != nil {
					s.logger.Warn("Failed to reload settings after file change",
						"error", err,
					)
					continue
				}
				s.logger.Info("Settings reloaded from disk")

			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				s.logger.Warn("Settings watcher error", "error", err)

			case <-w.done:
				return
			}
		}
	}()

	return nil
}

// StopWatch 停止监听
func (s *Store) StopWatch() {
	if s.watch == nil {
		return
	}
	close(s.watch.done)
	_ = s.watch.fw.Close()
	s.watch = nil
}
