package recorder

import (
	"context"

	json "github.com/goccy/go-json"

	"gridflow/pkg/kafka"
)

// 用于记录订单事件的接口
type Recorder interface {
	Record(event any) error
}

// Multi 把事件扇出给多个记录器，单个记录器失败不影响其他记录器
type Multi []Recorder

func (m Multi) Record(event any) error {
	var firstErr error
	for _, r := range m {
		if err := r.Record(event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// KafkaRecorder 把事件发布到kafka主题
type KafkaRecorder struct {
	producer kafka.ProducerService
	// 消息key，用于分区路由
	Key string
}

func NewKafkaRecorder(producer kafka.ProducerService, key string) *KafkaRecorder {
	return &KafkaRecorder{producer: producer, Key: key}
}

func (r *KafkaRecorder) Record(event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return r.producer.Produce(context.Background(), []byte(r.Key), data)
}
