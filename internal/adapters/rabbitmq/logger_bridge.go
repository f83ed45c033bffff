package rabbitmq

import (
	"fmt"
	"listing-service/internal/core/port"
	"listing-service/pkg/rabbitmq/rabbitmq_common"
)

// BrokerLogBridge пишет сообщения менеджера соединений и издателя
// в логгер сервиса с полями component и broker.
type BrokerLogBridge struct {
	logger port.LoggerPort
}

var _ rabbitmq_common.Logger = (*BrokerLogBridge)(nil)

func NewBrokerLogBridge(logger port.LoggerPort, component string) *BrokerLogBridge {
	return &BrokerLogBridge{logger: logger.WithFields(port.Fields{
		"component": component,
		"broker":    "rabbitmq",
	})}
}

// pairsToFields: нестроковый ключ печатается через fmt, значение без пары уходит в "extra"
func pairsToFields(keysAndValues []interface{}) port.Fields {
	if len(keysAndValues) == 0 {
		return nil
	}
	fields := make(port.Fields, len(keysAndValues)/2+1)
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 == len(keysAndValues) {
			fields["extra"] = keysAndValues[i]
			break
		}
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}

func (b *BrokerLogBridge) Debug(msg string, keysAndValues ...interface{}) {
	b.logger.Debug(msg, pairsToFields(keysAndValues))
}

func (b *BrokerLogBridge) Info(msg string, keysAndValues ...interface{}) {
	b.logger.Info(msg, pairsToFields(keysAndValues))
}

func (b *BrokerLogBridge) Warn(msg string, keysAndValues ...interface{}) {
	b.logger.Warn(msg, pairsToFields(keysAndValues))
}

func (b *BrokerLogBridge) Error(err error, msg string, keysAndValues ...interface{}) {
	b.logger.Error(msg, err, pairsToFields(keysAndValues))
}
