package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/DavidsonLima-ui/Compose-Suite/internal/domain/model"
)

// newTestRegistry создаёт реестр с детерминированными id и часами.
func newTestRegistry() *Registry {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	n := 0
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tick := 0

	return New(logger,
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("file-%d", n)
		}),
		WithClock(func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Minute)
		}),
	)
}

// TestUpsert_CreatePrepends проверяет, что новая запись добавляется первой.
func TestUpsert_CreatePrepends(t *testing.T) {
	reg := newTestRegistry()

	first, err := reg.Upsert("", "Первый", model.KindDocument, "<p>1</p>")
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	second, err := reg.Upsert("unknown-id", "Второй", model.KindSpreadsheet, "[]")
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	list := reg.List()
	if len(list) != 2 {
		t.Fatalf("len(List()) = %d, ожидалось 2", len(list))
	}
	if list[0].ID != second.ID || list[1].ID != first.ID {
		t.Errorf("порядок = [%s, %s], ожидался [%s, %s]", list[0].ID, list[1].ID, second.ID, first.ID)
	}
	if second.ID == "unknown-id" {
		t.Error("неизвестный id не должен использоваться для новой записи")
	}
	if first.ColorTag != "bg-blue-500" || second.ColorTag != "bg-ios-green" {
		t.Errorf("ColorTag = %q, %q", first.ColorTag, second.ColorTag)
	}
	if first.Shared {
		t.Error("Shared должен быть false")
	}
}

// TestUpsert_UpdatePreservesID проверяет обновление на месте.
func TestUpsert_UpdatePreservesID(t *testing.T) {
	reg := newTestRegistry()

	created, _ := reg.Upsert("", "Отчёт", model.KindDocument, "v1")
	_, _ = reg.Upsert("", "Другой", model.KindDocument, "x")

	for i := 0; i < 3; i++ {
		updated, err := reg.Upsert(created.ID, fmt.Sprintf("Отчёт %d", i), model.KindDocument, fmt.Sprintf("v%d", i+2))
		if err != nil {
			t.Fatalf("Upsert(%s): %v", created.ID, err)
		}
		if updated.ID != created.ID {
			t.Errorf("ID = %q, ожидался %q", updated.ID, created.ID)
		}
		if reg.Count() != 2 {
			t.Errorf("Count() = %d, ожидалось 2", reg.Count())
		}
	}

	got, err := reg.Get(created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Отчёт 2" || got.Content != "v4" {
		t.Errorf("запись = %+v", got)
	}
	if !got.ModifiedAt.After(created.ModifiedAt) {
		t.Errorf("ModifiedAt не обновлён: %v <= %v", got.ModifiedAt, created.ModifiedAt)
	}

	// Последнее сохранение — первым в списке
	if list := reg.List(); list[0].ID != created.ID {
		t.Errorf("первый в списке %q, ожидался %q", list[0].ID, created.ID)
	}
}

func TestUpsert_KindMismatch(t *testing.T) {
	reg := newTestRegistry()
	created, _ := reg.Upsert("", "Таблица", model.KindSpreadsheet, "[]")

	_, err := reg.Upsert(created.ID, "Таблица", model.KindDocument, "<p></p>")
	if !errors.Is(err, ErrKindMismatch) {
		t.Errorf("ожидалась ErrKindMismatch, получено %v", err)
	}
}

func TestUpsert_Folder(t *testing.T) {
	reg := newTestRegistry()

	_, err := reg.Upsert("", "Папка", model.KindFolder, "")
	if !errors.Is(err, ErrUnsupportedKind) {
		t.Errorf("ожидалась ErrUnsupportedKind, получено %v", err)
	}
	if reg.Count() != 0 {
		t.Errorf("Count() = %d, ожидалось 0", reg.Count())
	}
}

func TestUpsert_DefaultName(t *testing.T) {
	reg := newTestRegistry()
	rec, _ := reg.Upsert("", "", model.KindSlideDeck, "[]")
	if rec.Name != "Untitled Presentation" {
		t.Errorf("Name = %q", rec.Name)
	}
}

// TestRemove_Idempotent проверяет повторное удаление.
func TestRemove_Idempotent(t *testing.T) {
	reg := newTestRegistry()
	rec, _ := reg.Upsert("", "a", model.KindDocument, "")

	if !reg.Remove(rec.ID) {
		t.Error("первое удаление должно вернуть true")
	}
	if reg.Remove(rec.ID) {
		t.Error("повторное удаление должно вернуть false")
	}
	if _, err := reg.Get(rec.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get после удаления: ожидалась ErrNotFound, получено %v", err)
	}
}

// TestGet_ReturnsCopy проверяет, что изменение результата не влияет на реестр.
func TestGet_ReturnsCopy(t *testing.T) {
	reg := newTestRegistry()
	rec, _ := reg.Upsert("", "a", model.KindDocument, "original")

	got, _ := reg.Get(rec.ID)
	got.Content = "mutated"

	again, _ := reg.Get(rec.ID)
	if again.Content != "original" {
		t.Errorf("Content = %q, ожидался original", again.Content)
	}
}

func TestPage(t *testing.T) {
	reg := newTestRegistry()
	for i := 0; i < 5; i++ {
		_, _ = reg.Upsert("", fmt.Sprintf("doc-%d", i), model.KindDocument, "")
	}
	_, _ = reg.Upsert("", "sheet", model.KindSpreadsheet, "[]")

	items, total := reg.Page(2, 1, model.KindDocument)
	if total != 5 {
		t.Errorf("total = %d, ожидалось 5", total)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, ожидалось 2", len(items))
	}
	if items[0].Name != "doc-3" || items[1].Name != "doc-2" {
		t.Errorf("items = [%s, %s]", items[0].Name, items[1].Name)
	}

	items, total = reg.Page(10, 10, "")
	if items != nil || total != 6 {
		t.Errorf("offset за пределами: items = %v, total = %d", items, total)
	}

	counts := reg.CountByKind()
	if counts[model.KindDocument] != 5 || counts[model.KindSpreadsheet] != 1 || counts[model.KindSlideDeck] != 0 {
		t.Errorf("CountByKind() = %v", counts)
	}
}

// TestConcurrentUpsert проверяет потокобезопасность (запускать с -race).
func TestConcurrentUpsert(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	reg := New(logger)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := reg.Upsert("", "n", model.KindDocument, "c")
			if err != nil {
				t.Errorf("Upsert: %v", err)
				return
			}
			_ = reg.List()
			_, _ = reg.Upsert(rec.ID, "n2", model.KindDocument, "c2")
		}()
	}
	wg.Wait()

	if reg.Count() != 50 {
		t.Errorf("Count() = %d, ожидалось 50", reg.Count())
	}
}
