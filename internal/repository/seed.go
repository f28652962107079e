package repository

import (
	"encoding/json"
	"fmt"
	"os"

	"weblidercontrol/internal/domain"
)

// LoadRoundsFromFile 从 JSON 文件读取巡检规则（数组），用于内存模式的种子数据
func LoadRoundsFromFile(path string) ([]*domain.RoundDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rounds seed file: %w", err)
	}
	var rounds []*domain.RoundDefinition
	if err := json.Unmarshal(data, &rounds); err != nil {
		return nil, fmt.Errorf("failed to parse rounds seed file %s: %w", path, err)
	}
	for i, round := range rounds {
		if round == nil || round.ID == "" {
			return nil, fmt.Errorf("rounds seed file %s: entry %d has no id", path, i)
		}
	}
	return rounds, nil
}
