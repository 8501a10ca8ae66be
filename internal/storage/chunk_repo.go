package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/annel0/voxel-engine/internal/vec"
)

// ErrClosed возвращается при обращении к закрытому хранилищу
var ErrClosed = errors.New("хранилище закрыто")

// ErrCorruptRecord означает, что запись прочитана, но её не удалось раскодировать
// на уровне хранилища. Такую запись можно безопасно перезаписать.
var ErrCorruptRecord = errors.New("повреждённая запись хранилища")

// ChunkRepo определяет интерфейс для сохранения и загрузки закодированных чанков.
// Данные хранятся непрозрачным блобом (RLE-кодировка чанка) по координате чанка.
type ChunkRepo interface {
	// Save сохраняет или перезаписывает блоб чанка.
	// Параметры:
	//   ctx - контекст для отмены операции
	//   pos - координата чанка
	//   data - закодированный чанк
	Save(ctx context.Context, pos vec.ChunkPos, data []byte) error

	// Load загружает блоб чанка.
	// Возвращает:
	//   []byte - закодированный чанк
	//   bool - true если чанк найден, false если он ещё не сохранялся
	//   error - ошибка при загрузке
	Load(ctx context.Context, pos vec.ChunkPos) ([]byte, bool, error)

	// Delete удаляет сохранённый чанк (отсутствие записи не является ошибкой)
	Delete(ctx context.Context, pos vec.ChunkPos) error

	// Close освобождает ресурсы хранилища
	Close() error
}

// chunkKey формирует ключ чанка для key/value хранилищ
func chunkKey(prefix string, pos vec.ChunkPos) string {
	return fmt.Sprintf("%schunk:%d:%d:%d", prefix, pos.X, pos.Y, pos.Z)
}
