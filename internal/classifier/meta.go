package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type modelMeta struct {
	Labels []string
	// MaxPositions is the model's token limit (max_position_embeddings); 0 when unknown.
	MaxPositions int
}

func loadModelMeta(dir string) (modelMeta, error) {
	meta := modelMeta{}
	configPath := filepath.Join(dir, "config.json")
	if data, err := os.ReadFile(configPath); err == nil {
		var cfg struct {
			NumLabels             int               `json:"num_labels"`
			ID2Label              map[string]string `json:"id2label"`
			Label2ID              map[string]int    `json:"label2id"`
			MaxPositionEmbeddings int               `json:"max_position_embeddings"`
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return meta, fmt.Errorf("decode config.json: %w", err)
		}
		meta.MaxPositions = cfg.MaxPositionEmbeddings
		meta.Labels = labelsFromIDMap(cfg.ID2Label)
		if len(meta.Labels) == 0 {
			meta.Labels = labelsFromLabel2ID(cfg.Label2ID)
		}
		if len(meta.Labels) == 0 && cfg.NumLabels > 0 {
			meta.Labels = make([]string, cfg.NumLabels)
			for i := range meta.Labels {
				meta.Labels[i] = "LABEL_" + strconv.Itoa(i)
			}
		}
	} else if !os.IsNotExist(err) {
		return meta, fmt.Errorf("read config.json: %w", err)
	}

	labelPath := filepath.Join(dir, "label_map.json")
	if data, err := os.ReadFile(labelPath); err == nil {
		labels, err := parseLabelMap(data)
		if err != nil {
			return meta, fmt.Errorf("decode label_map.json: %w", err)
		}
		meta.Labels = labels
	}

	if len(meta.Labels) == 0 {
		return meta, errors.New("no labels found in config.json or label_map.json")
	}
	return meta, nil
}

func parseLabelMap(data []byte) ([]string, error) {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil && len(arr) > 0 {
		return arr, nil
	}

	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	labels := labelsFromIDMap(m)
	if len(labels) == 0 {
		return nil, errors.New("label map is empty")
	}
	return labels, nil
}

func labelsFromIDMap(id2label map[string]string) []string {
	if len(id2label) == 0 {
		return nil
	}
	byID := make(map[int]string, len(id2label))
	maxID := -1
	for k, v := range id2label {
		id, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil || id < 0 {
			continue
		}
		byID[id] = v
		if id > maxID {
			maxID = id
		}
	}
	if maxID < 0 {
		return nil
	}
	labels := make([]string, maxID+1)
	for id, lbl := range byID {
		labels[id] = lbl
	}
	return labels
}

func labelsFromLabel2ID(label2id map[string]int) []string {
	if len(label2id) == 0 {
		return nil
	}
	id2label := make(map[string]string, len(label2id))
	for lbl, id := range label2id {
		id2label[strconv.Itoa(id)] = lbl
	}
	return labelsFromIDMap(id2label)
}

// resolveModelPath prefers a quantized export when one sits next to the full model.
func resolveModelPath(dir string) string {
	candidates := []string{
		filepath.Join(dir, "model.int8.onnx"),
		filepath.Join(dir, "model.onnx"),
		filepath.Join(dir, "onnx", "model.onnx"),
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
