package logging

import (
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// LogLevel определяет уровни логирования
type LogLevel int32

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
)

// String возвращает строковое представление уровня логирования
func (l LogLevel) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel разбирает имя уровня (регистр не важен)
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return TRACE, nil
	case "DEBUG":
		return DEBUG, nil
	case "INFO", "":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	default:
		return INFO, fmt.Errorf("неизвестный уровень логирования: %q", s)
	}
}

// Logger пишет сообщения в консоль и (опционально) в файл компонента.
// Минимальные уровни для консоли и файла задаются независимо.
type Logger struct {
	component     string
	consoleLogger *log.Logger
	fileLogger    *log.Logger
	file          *os.File

	minConsoleLevel atomic.Int32
	minFileLevel    atomic.Int32
}

var (
	defaultMu     sync.RWMutex
	defaultLogger = newConsoleLogger("")
)

func newConsoleLogger(component string) *Logger {
	l := &Logger{
		component:     component,
		consoleLogger: log.New(os.Stdout, "", log.LstdFlags),
	}
	l.minConsoleLevel.Store(int32(INFO))
	l.minFileLevel.Store(int32(DEBUG))
	return l
}

// logDir возвращает каталог логов: LOG_DIR или ./logs
func logDir() string {
	if dir := os.Getenv("LOG_DIR"); dir != "" {
		return dir
	}
	return "logs"
}

// NewLogger создаёт логгер компонента с файлом logs/<component>_<timestamp>.log
func NewLogger(component string) (*Logger, error) {
	dir := logDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания директории %s: %w", dir, err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := filepath.Join(dir, fmt.Sprintf("%s_%s.log", component, timestamp))

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания файла логов: %w", err)
	}

	l := newConsoleLogger(component)
	l.fileLogger = log.New(file, "", log.LstdFlags|log.Lmicroseconds)
	l.file = file
	return l, nil
}

// InitDefaultLogger заменяет глобальный логгер логгером компонента с файлом
func InitDefaultLogger(component string) error {
	l, err := NewLogger(component)
	if err != nil {
		return err
	}

	defaultMu.Lock()
	old := defaultLogger
	defaultLogger = l
	defaultMu.Unlock()

	if old != nil {
		old.Close()
	}
	return nil
}

// CloseDefaultLogger закрывает файл глобального логгера и возвращает консольный
func CloseDefaultLogger() {
	defaultMu.Lock()
	old := defaultLogger
	defaultLogger = newConsoleLogger("")
	defaultMu.Unlock()

	if old != nil {
		old.Close()
	}
}

// Default возвращает текущий глобальный логгер
func Default() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetLevel устанавливает минимальный уровень консоли глобального логгера
func SetLevel(level LogLevel) {
	Default().SetConsoleLevel(level)
}

// SetLevelFromString устанавливает уровень по имени из конфигурации
func SetLevelFromString(s string) error {
	level, err := ParseLevel(s)
	if err != nil {
		return err
	}
	SetLevel(level)
	return nil
}

// SetConsoleLevel задаёт минимальный уровень для консоли
func (l *Logger) SetConsoleLevel(level LogLevel) {
	l.minConsoleLevel.Store(int32(level))
}

// SetFileLevel задаёт минимальный уровень для файла
func (l *Logger) SetFileLevel(level LogLevel) {
	l.minFileLevel.Store(int32(level))
}

// Enabled сообщает, будет ли сообщение уровня level куда-либо записано
func (l *Logger) Enabled(level LogLevel) bool {
	if level >= LogLevel(l.minConsoleLevel.Load()) {
		return true
	}
	return l.fileLogger != nil && level >= LogLevel(l.minFileLevel.Load())
}

// Close закрывает файл логов
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *Logger) logf(level LogLevel, format string, args ...interface{}) {
	if !l.Enabled(level) {
		return
	}

	var message string
	if l.component != "" {
		message = fmt.Sprintf("[%s] [%s] %s", level.String(), l.component, fmt.Sprintf(format, args...))
	} else {
		message = fmt.Sprintf("[%s] %s", level.String(), fmt.Sprintf(format, args...))
	}

	if l.fileLogger != nil && level >= LogLevel(l.minFileLevel.Load()) {
		l.fileLogger.Println(message)
	}
	if level >= LogLevel(l.minConsoleLevel.Load()) {
		l.consoleLogger.Println(message)
	}
}

func (l *Logger) Trace(format string, args ...interface{}) { l.logf(TRACE, format, args...) }
func (l *Logger) Debug(format string, args ...interface{}) { l.logf(DEBUG, format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.logf(INFO, format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.logf(WARN, format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.logf(ERROR, format, args...) }

// Trace логирует сообщение уровня TRACE
func Trace(format string, args ...interface{}) { Default().logf(TRACE, format, args...) }

// Debug логирует сообщение уровня DEBUG
func Debug(format string, args ...interface{}) { Default().logf(DEBUG, format, args...) }

// Info логирует сообщение уровня INFO
func Info(format string, args ...interface{}) { Default().logf(INFO, format, args...) }

// Warn логирует сообщение уровня WARN
func Warn(format string, args ...interface{}) { Default().logf(WARN, format, args...) }

// Error логирует сообщение уровня ERROR
func Error(format string, args ...interface{}) { Default().logf(ERROR, format, args...) }

// HexDump создает hex дамп данных
func HexDump(data []byte) string {
	if len(data) == 0 {
		return "No data"
	}

	// Ограничиваем размер дампа до 256 байт
	size := len(data)
	if size > 256 {
		size = 256
	}

	return hex.Dump(data[:size])
}

// LogCorruptChunk логирует ошибку декодирования сохранённого чанка
func LogCorruptChunk(chunk fmt.Stringer, err error, data []byte) {
	Warn("Повреждённый чанк %s: %v", chunk, err)
	if len(data) > 0 && Default().Enabled(DEBUG) {
		Debug("Raw data (%d bytes):\n%s", len(data), HexDump(data))
	}
}

// LogChunkLoaded логирует завершение загрузки чанка
func LogChunkLoaded(chunk fmt.Stringer, source string, elapsed time.Duration) {
	Trace("Chunk %s loaded from %s in %s", chunk, source, elapsed)
}
