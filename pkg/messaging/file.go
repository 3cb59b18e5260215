package messaging

import (
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileWriter writes formatted messages to a size-rotated log file.
type FileWriter struct {
	*StreamWriter
	file *lumberjack.Logger
}

// FileConfig bounds the rotation policy of a FileWriter.
type FileConfig struct {
	// MaxSizeMB is the size at which the file is rotated. Defaults to 100.
	MaxSizeMB int
	// MaxBackups is how many rotated files to keep. 0 keeps them all.
	MaxBackups int
}

// NewFileWriter creates a writer on filename that drops messages below
// level, rotating per the default policy.
func NewFileWriter(filename string, level Level) *FileWriter {
	return NewFileWriterConfig(filename, level, FileConfig{})
}

// NewFileWriterConfig creates a writer with an explicit rotation policy.
func NewFileWriterConfig(filename string, level Level, cfg FileConfig) *FileWriter {
	file := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	}
	return &FileWriter{
		StreamWriter: NewStreamWriter(file, level),
		file:         file,
	}
}

// Close closes the underlying file. Drain the queue feeding this writer
// first.
func (fw *FileWriter) Close() error {
	return fw.file.Close()
}
