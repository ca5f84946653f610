package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestOperationFromSQL(t *testing.T) {
	assert.Equal(t, "SELECT", operationFromSQL("select * from items"))
	assert.Equal(t, "INSERT", operationFromSQL(" (INSERT INTO discount_rules ...)"))
	assert.Equal(t, "UPDATE", operationFromSQL("WITH x AS (...) UPDATE price_lists SET is_default = false"))
	assert.Equal(t, "UNKNOWN", operationFromSQL(""))
}

func TestGormLoggerTrace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewGormLogger(zap.New(core), DefaultGormLoggerConfig())
	fc := func() (string, int64) { return "SELECT 1", 1 }

	log.Trace(context.Background(), time.Now(), fc, gormlogger.ErrRecordNotFound)
	assert.Equal(t, 0, logs.Len())

	log.Trace(context.Background(), time.Now(), fc, errors.New("boom"))
	assert.Equal(t, 1, logs.FilterMessage("gorm.query").Len())

	log.Trace(context.Background(), time.Now().Add(-time.Second), fc, nil)
	assert.Equal(t, 1, logs.FilterMessage("gorm.slow_query").Len())
}

func TestGormLoggerParamsFilter(t *testing.T) {
	log := NewGormLogger(zap.NewNop(), DefaultGormLoggerConfig())
	_, params := log.ParamsFilter(context.Background(), "SELECT ?", 42)
	assert.Nil(t, params)

	verbose := NewGormLogger(zap.NewNop(), GormLoggerConfig{LogParams: true})
	_, params = verbose.ParamsFilter(context.Background(), "SELECT ?", 42)
	assert.Equal(t, []interface{}{42}, params)
}
