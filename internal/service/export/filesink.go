package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileSink сохраняет артефакт на диск.
// Если Path — существующий каталог, файл создаётся в нём под именем
// артефакта; иначе Path считается полным путём к файлу.
type FileSink struct {
	Path string

	// written — путь последнего сохранённого файла
	written string
}

// Save реализует Sink.
//
// Паттерн: temp файл → запись → fsync → atomic rename.
// При ошибке temp файл удаляется, существующий файл не затрагивается.
func (s *FileSink) Save(_ context.Context, artifact *Artifact) error {
	target := s.Path
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		target = filepath.Join(target, safeFilename(artifact.Filename))
	}
	tmpPath := target + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла: %w", err)
	}

	if _, err := f.Write(artifact.Data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка записи данных: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	s.written = target
	return nil
}

// Written возвращает путь сохранённого файла (пусто до первого Save).
func (s *FileSink) Written() string {
	return s.written
}

// safeFilename оставляет от имени артефакта только последний элемент пути.
// Имя файла задаёт пользователь, поэтому разделители каталогов заменяются.
func safeFilename(name string) string {
	name = strings.NewReplacer("/", "_", "\\", "_").Replace(name)
	if name == "" || name == "." || name == ".." {
		return "file"
	}
	return name
}
