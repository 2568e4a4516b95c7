package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	once     sync.Once
	instance *zap.Logger
)

// Init construye el singleton. Idempotente: llamadas posteriores no tienen
// efecto. main.go la llama antes de levantar el server.
func Init(cfg Config) {
	once.Do(func() {
		instance = build(cfg)
	})
}

// L retorna el singleton, inicializándolo con defaults de dev si nadie llamó
// a Init (pasa en tests).
func L() *zap.Logger {
	if instance == nil {
		Init(Config{Env: "dev", Level: "info"})
	}
	return instance
}

// Sync flushea buffers pendientes. Para el defer de main.go.
func Sync() error {
	if instance != nil {
		return instance.Sync()
	}
	return nil
}
