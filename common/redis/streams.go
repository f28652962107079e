package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// PublishToStream 发布消息到 Redis Streams（所有值统一转成字符串）
// maxLen > 0 时按近似长度裁剪流，避免审计流无限增长
func PublishToStream(ctx context.Context, client *redis.Client, stream string, values map[string]interface{}, maxLen int64) (string, error) {
	streamValues := make(map[string]interface{}, len(values))
	for k, v := range values {
		s, err := streamValue(v)
		if err != nil {
			return "", fmt.Errorf("failed to encode stream field %s: %w", k, err)
		}
		streamValues[k] = s
	}

	args := &redis.XAddArgs{
		Stream: stream,
		Values: streamValues,
	}
	if maxLen > 0 {
		args.MaxLen = maxLen
		args.Approx = true
	}
	return client.XAdd(ctx, args).Result()
}

// PublishJSONToStream 以 {"data": <json>, "timestamp": <unix>} 的格式发布消息
func PublishJSONToStream(ctx context.Context, client *redis.Client, stream string, data interface{}, maxLen int64) (string, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	return PublishToStream(ctx, client, stream, map[string]interface{}{
		"data":      string(jsonBytes),
		"timestamp": time.Now().Unix(),
	}, maxLen)
}

func streamValue(v interface{}) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case []byte:
		return string(val), nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(val), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}
