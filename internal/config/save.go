// Package config provides configuration types, defaults, and persistence for gridley.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// SaveGrid updates the grid section in the config file, preserving comments
// and formatting in other sections by using yaml.Node.
func SaveGrid(configPath string, grid GridConfig) error {
	return saveSection(configPath, "grid", buildGridNode(grid))
}

// SaveColumns updates the columns section in the config file, preserving
// comments and formatting in other sections.
func SaveColumns(configPath string, columns []ColumnConfig) error {
	return saveSection(configPath, "columns", buildColumnsNode(columns))
}

// saveSection replaces (or appends) one top-level key in the YAML document
// and writes the file back atomically.
func saveSection(configPath, key string, value *yaml.Node) error {
	data, err := os.ReadFile(configPath) //nolint:gosec // G304: user-configured config path
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}

	var doc yaml.Node
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}

	if doc.Kind == 0 {
		// Empty or new file - create document structure
		doc = yaml.Node{
			Kind: yaml.DocumentNode,
			Content: []*yaml.Node{
				{
					Kind: yaml.MappingNode,
					Content: []*yaml.Node{
						{Kind: yaml.ScalarNode, Value: key},
						value,
					},
				},
			},
		}
	} else if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		root := doc.Content[0]
		if root.Kind == yaml.MappingNode {
			found := false
			for i := 0; i < len(root.Content)-1; i += 2 {
				if root.Content[i].Value == key {
					root.Content[i+1] = value
					found = true
					break
				}
			}
			if !found {
				root.Content = append(root.Content,
					&yaml.Node{Kind: yaml.ScalarNode, Value: key},
					value,
				)
			}
		}
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&doc); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_ = encoder.Close()

	// Write atomically (write to temp, then rename)
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	temp, err := os.CreateTemp(dir, ".gridley.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(buf.Bytes()); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tempPath, configPath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}

	return nil
}

func scalar(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: value}
}

// buildGridNode creates a yaml.Node representing the grid section.
func buildGridNode(grid GridConfig) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode}
	node.Content = append(node.Content,
		scalar("enabled"), scalar(strconv.FormatBool(grid.Enabled)),
		scalar("buffer"), scalar(strconv.Itoa(grid.Buffer)),
	)
	if grid.RowHeight > 0 {
		node.Content = append(node.Content,
			scalar("row_height"), scalar(strconv.FormatFloat(grid.RowHeight, 'f', -1, 64)))
	}
	if grid.FastScrollThreshold > 0 {
		node.Content = append(node.Content,
			scalar("fast_scroll_threshold"), scalar(strconv.FormatFloat(grid.FastScrollThreshold, 'f', -1, 64)))
	}
	if grid.ThrottleIntervalMS > 0 {
		node.Content = append(node.Content,
			scalar("throttle_interval_ms"), scalar(strconv.Itoa(grid.ThrottleIntervalMS)))
	}
	return node
}

// buildColumnsNode creates a yaml.Node representing the columns array.
func buildColumnsNode(columns []ColumnConfig) *yaml.Node {
	node := &yaml.Node{
		Kind:    yaml.SequenceNode,
		Content: make([]*yaml.Node, 0, len(columns)),
	}

	for _, col := range columns {
		colNode := &yaml.Node{Kind: yaml.MappingNode}

		colNode.Content = append(colNode.Content, scalar("key"), scalar(col.Key))
		if col.Header != "" {
			colNode.Content = append(colNode.Content, scalar("header"), scalar(col.Header))
		}
		if col.Width > 0 {
			colNode.Content = append(colNode.Content, scalar("width"), scalar(strconv.Itoa(col.Width)))
		}
		if col.Align != "" {
			colNode.Content = append(colNode.Content, scalar("align"), scalar(col.Align))
		}
		if col.HideBelow > 0 {
			colNode.Content = append(colNode.Content, scalar("hide_below"), scalar(strconv.Itoa(col.HideBelow)))
		}

		node.Content = append(node.Content, colNode)
	}

	return node
}
